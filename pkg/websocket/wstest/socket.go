package wstest

import (
	"bytes"
	"errors"
	"sync"

	"github.com/vango-dev/wstask/pkg/codec"
	"github.com/vango-dev/wstask/pkg/websocket"
)

// ErrConnectionLost is the error carried by events scripted with Fail(nil).
var ErrConnectionLost = errors.New("wstest: connection lost")

// Socket is an in-memory websocket.Socket driven by the test.
type Socket struct {
	websocket.EventTarget

	mu            sync.Mutex
	url           string
	state         websocket.ReadyState
	binaryType    websocket.BinaryType
	started       bool
	pending       []websocket.Event
	closeRequests int
	sentText      []string
	sentBinary    [][]byte
	sendErr       error

	// Echo makes every successful send come back as an inbound frame.
	// An owner that sends from its message callback must not enable it.
	Echo bool
}

// NewSocket returns a connecting socket for url.
func NewSocket(url string) *Socket {
	return &Socket{url: url, state: websocket.StateConnecting}
}

// URL returns the socket URL.
func (s *Socket) URL() string {
	return s.url
}

// ReadyState returns the scripted state.
func (s *Socket) ReadyState() websocket.ReadyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetBinaryType records the requested binary type.
func (s *Socket) SetBinaryType(t websocket.BinaryType) {
	s.mu.Lock()
	s.binaryType = t
	s.mu.Unlock()
}

// BinaryType returns the binary type last set by the owner.
func (s *Socket) BinaryType() websocket.BinaryType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.binaryType
}

// Start flushes events scripted before it was called.
func (s *Socket) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, ev := range pending {
		s.DispatchEvent(ev)
	}
}

// Started reports whether Start has been called.
func (s *Socket) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// SendText records text. It fails with websocket.ErrNotOpen unless the
// socket is open.
func (s *Socket) SendText(text string) error {
	if err := s.record(func() { s.sentText = append(s.sentText, text) }); err != nil {
		return err
	}
	if s.Echo {
		s.ReceiveText(text)
	}
	return nil
}

// SendBinary records a copy of b, with the same failure rules as SendText.
func (s *Socket) SendBinary(b []byte) error {
	cp := append([]byte(nil), b...)
	if err := s.record(func() { s.sentBinary = append(s.sentBinary, cp) }); err != nil {
		return err
	}
	if s.Echo {
		s.ReceiveBinary(cp)
	}
	return nil
}

func (s *Socket) record(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	if s.state != websocket.StateOpen {
		return websocket.ErrNotOpen
	}
	fn()
	return nil
}

// FailSends makes every following send return err. A nil err restores
// normal behavior.
func (s *Socket) FailSends(err error) {
	s.mu.Lock()
	s.sendErr = err
	s.mu.Unlock()
}

// Close counts the request and moves an active socket to closing. The close
// event is delivered by FinishClose.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Active() {
		return nil
	}
	s.closeRequests++
	s.state = websocket.StateClosing
	return nil
}

// CloseRequests returns how many times Close acted on an active socket.
func (s *Socket) CloseRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeRequests
}

// SentText returns the text frames sent so far.
func (s *Socket) SentText() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sentText...)
}

// SentBinary returns the binary frames sent so far.
func (s *Socket) SentBinary() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.sentBinary...)
}

// Open completes the handshake.
func (s *Socket) Open() {
	s.transition(websocket.StateOpen, websocket.Event{Type: websocket.EventOpen})
}

// ReceiveText delivers an inbound text frame.
func (s *Socket) ReceiveText(text string) {
	s.Receive(websocket.TextFrame(text))
}

// ReceiveBinary delivers an inbound binary frame, shaped by the binary type.
func (s *Socket) ReceiveBinary(b []byte) {
	frame := websocket.RawFrame{Kind: codec.KindBinary}
	if s.BinaryType() == websocket.BinaryTypeBlob {
		frame.Blob = bytes.NewReader(b)
	} else {
		frame.Data = b
	}
	s.Receive(frame)
}

// Receive delivers an arbitrary inbound frame.
func (s *Socket) Receive(f websocket.RawFrame) {
	s.emit(websocket.Event{Type: websocket.EventMessage, Frame: f})
}

// Fail reports a transport failure: an error event followed by an abnormal
// close. A nil err is replaced by ErrConnectionLost.
func (s *Socket) Fail(err error) {
	if err == nil {
		err = ErrConnectionLost
	}
	s.transition(websocket.StateClosed,
		websocket.Event{Type: websocket.EventError, Err: err},
		websocket.Event{Type: websocket.EventClose, Code: 1006, Err: err},
	)
}

// CloseRemote reports a close initiated by the peer.
func (s *Socket) CloseRemote(code int, reason string) {
	s.transition(websocket.StateClosed, websocket.Event{
		Type:     websocket.EventClose,
		Code:     code,
		Reason:   reason,
		WasClean: true,
	})
}

// FinishClose completes a close handshake started by Close.
func (s *Socket) FinishClose() {
	s.CloseRemote(1000, "")
}

func (s *Socket) transition(state websocket.ReadyState, events ...websocket.Event) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	for _, ev := range events {
		s.emit(ev)
	}
}

func (s *Socket) emit(ev websocket.Event) {
	s.mu.Lock()
	if !s.started {
		s.pending = append(s.pending, ev)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.DispatchEvent(ev)
}

var _ websocket.Socket = (*Socket)(nil)
