// Package wstest provides a scripted websocket.Socket for tests.
//
// A Socket delivers events synchronously on the calling goroutine, so a test
// drives the connection step by step and observes each callback as soon as
// the scripting method returns:
//
//	d := &wstest.Dialer{}
//	task, _ := websocket.Connect("ws://example.test", onMessage, onStatus,
//	    websocket.ModeBoth, websocket.WithSocketFactory(d.Factory))
//	sock := d.Last()
//	sock.Open()
//	sock.ReceiveText(`{"value":321}`)
//
// Events scripted before Start are held and delivered when Start is called.
package wstest
