// Package codec defines the payload representations carried by a WebSocket
// connection and the formats that convert application values to and from them.
//
// A payload travels as one of two representations:
//
//   - Text: a UTF-8 string, sent in a text frame
//   - Binary: an opaque byte sequence, sent in a binary frame
//
// Both are fallible. A Text or Binary value carries either the encoded payload
// or the error that prevented encoding, so a sender can hand the value straight
// to the connection and let it skip payloads that failed to encode.
//
// # Formats
//
// A Format converts values into representations and back:
//
//	task.Send(codec.JSON.Text(Request{Value: 321}))
//	task.SendBinary(codec.Compact.Binary(&Request{Value: 321}))
//
// JSON supports both representations. Compact is binary-only: asking it for
// Text yields ErrCantEncodeBinaryAsText, and restoring a value from a text
// message yields ErrReceivedTextForBinary.
//
// # Messages
//
// Inbound frames are delivered as a Message, tagged with the representation
// that was decoded. Decode failures travel inside the Message rather than
// being dropped:
//
//	onMessage := codec.Callback(codec.JSON, func(resp Response, err error) {
//	    if err != nil {
//	        return
//	    }
//	    fmt.Println(resp.Value)
//	})
package codec
