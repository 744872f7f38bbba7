package wstest

import (
	"errors"
	"io"
	"testing"

	"github.com/vango-dev/wstask/pkg/websocket"
)

func TestSocket_HoldsEventsUntilStart(t *testing.T) {
	s := NewSocket("ws://example.test")
	var got []websocket.EventType
	for _, typ := range []websocket.EventType{websocket.EventOpen, websocket.EventMessage} {
		s.AddEventListener(typ, func(ev websocket.Event) { got = append(got, ev.Type) })
	}

	s.Open()
	s.ReceiveText("x")
	if len(got) != 0 {
		t.Fatalf("events delivered before Start: %v", got)
	}

	s.Start()
	s.Start()
	if len(got) != 2 || got[0] != websocket.EventOpen || got[1] != websocket.EventMessage {
		t.Fatalf("events = %v, want [open message]", got)
	}
}

func TestSocket_SendRules(t *testing.T) {
	s := NewSocket("ws://example.test")
	s.Start()

	if err := s.SendText("x"); !errors.Is(err, websocket.ErrNotOpen) {
		t.Fatalf("SendText() before open error = %v, want ErrNotOpen", err)
	}
	s.Open()
	if err := s.SendText("a"); err != nil {
		t.Fatalf("SendText() error: %v", err)
	}
	buf := []byte{1, 2}
	if err := s.SendBinary(buf); err != nil {
		t.Fatalf("SendBinary() error: %v", err)
	}
	buf[0] = 9
	if got := s.SentBinary(); len(got) != 1 || got[0][0] != 1 {
		t.Fatalf("SentBinary() = %v, want a copy of [1 2]", got)
	}

	broken := errors.New("broken")
	s.FailSends(broken)
	if err := s.SendText("b"); !errors.Is(err, broken) {
		t.Fatalf("SendText() error = %v, want injected error", err)
	}
	if got := s.SentText(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("SentText() = %v, want [a]", got)
	}
}

func TestSocket_CloseOnlyCountsActiveStates(t *testing.T) {
	s := NewSocket("ws://example.test")
	s.Start()
	s.Open()

	_ = s.Close()
	_ = s.Close()
	if s.CloseRequests() != 1 || s.ReadyState() != websocket.StateClosing {
		t.Fatalf("CloseRequests()=%d state=%s, want 1 closing", s.CloseRequests(), s.ReadyState())
	}

	var closes []websocket.Event
	s.AddEventListener(websocket.EventClose, func(ev websocket.Event) { closes = append(closes, ev) })
	s.FinishClose()
	if len(closes) != 1 || closes[0].Code != 1000 || !closes[0].WasClean {
		t.Fatalf("close events = %+v, want one clean 1000", closes)
	}
	if s.ReadyState() != websocket.StateClosed {
		t.Fatalf("ReadyState() = %s, want closed", s.ReadyState())
	}
}

func TestSocket_FailAndBlob(t *testing.T) {
	s := NewSocket("ws://example.test")
	s.SetBinaryType(websocket.BinaryTypeBlob)
	s.Start()

	var frames []websocket.RawFrame
	var types []websocket.EventType
	s.AddEventListener(websocket.EventMessage, func(ev websocket.Event) { frames = append(frames, ev.Frame) })
	s.AddEventListener(websocket.EventError, func(ev websocket.Event) { types = append(types, ev.Type) })
	s.AddEventListener(websocket.EventClose, func(ev websocket.Event) { types = append(types, ev.Type) })

	s.Open()
	s.ReceiveBinary([]byte("blob"))
	if len(frames) != 1 || frames[0].Blob == nil {
		t.Fatalf("frames = %+v, want one blob frame", frames)
	}
	if b, _ := io.ReadAll(frames[0].Blob); string(b) != "blob" {
		t.Fatalf("blob = %q", b)
	}

	s.Fail(nil)
	if len(types) != 2 || types[0] != websocket.EventError || types[1] != websocket.EventClose {
		t.Fatalf("events = %v, want [error close]", types)
	}
}

func TestDialer(t *testing.T) {
	d := &Dialer{Echo: true}
	if d.Last() != nil {
		t.Fatal("Last() on empty dialer != nil")
	}
	if _, err := d.Factory("ws://a.test#x", nil); err == nil {
		t.Fatal("Factory() accepted a fragment")
	}
	sock, err := d.Factory("http://a.test", nil)
	if err != nil {
		t.Fatalf("Factory() error: %v", err)
	}
	if sock.URL() != "ws://a.test" || !d.Last().Echo || len(d.Sockets()) != 1 {
		t.Fatalf("socket = %s echo=%v sockets=%d", sock.URL(), d.Last().Echo, len(d.Sockets()))
	}
}
