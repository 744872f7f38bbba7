// Package websocket provides a managed client-side handle over a single
// WebSocket connection.
//
// A Task owns one Socket and exactly four event listener registrations
// (open, close, error, message). Inbound frames are decoded according to the
// connection Mode and handed to a message callback as a codec.Message.
// Connection state changes are reported to a status callback as a Status.
//
// # Lifecycle
//
//	task, err := websocket.Connect("wss://echo.example/", onMessage, onStatus, websocket.ModeBoth)
//	if err != nil {
//	    // *CreationError: the socket could not be created at all
//	}
//	defer task.Close()
//
// Connect returns immediately. The outcome of the connection attempt is
// reported later through the status callback:
//
//   - StatusOpened: the handshake completed
//   - StatusClosed: the connection closed (cleanly or not)
//   - StatusError: the transport failed, or a send was rejected
//
// A Task never reconnects. Once it reports StatusClosed it is terminal; the
// owner decides whether to Connect again.
//
// # Close is mandatory
//
// Go has no destructors, so the guarantee that a socket is closed exactly
// once rests on Close. Close is idempotent: it removes the four listeners,
// then requests a close if the socket is still connecting or open. After
// Close returns no new callback invocation starts, even if the transport
// delivers events that were already queued. Close called on another
// goroutine waits for a running callback to return, so callbacks must not
// block on the goroutine that closes the task. Close may be called from
// inside a callback.
//
// # Modes
//
//   - ModeBoth: text frames are decoded as text, everything else as binary
//   - ModeBinaryOnly: text frames are silently dropped
//   - ModeTextOnly: binary frames are silently dropped
//
// A dropped frame is a policy, not an error. A frame that reaches a decode
// path of the wrong kind yields codec.ErrReceivedTextForBinary or
// codec.ErrReceivedBinaryForText inside the Message instead.
//
// # Sending
//
// Send and SendBinary take a codec.Text or codec.Binary. A payload that failed
// to encode is skipped without any status event. A payload the transport
// rejects (for example because the socket is not open) produces StatusError.
// Neither method returns an error.
//
// # Events
//
// NetSocket, the default Socket, dials with gorilla/websocket and delivers
// all of its events from a single goroutine in transport order: open,
// message..., optionally error, then close.
package websocket
