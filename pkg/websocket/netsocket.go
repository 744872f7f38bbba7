package websocket

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/wstask/internal/eventq"
	"github.com/vango-dev/wstask/pkg/codec"
)

// NetSocket is a Socket backed by a gorilla/websocket connection.
//
// NetSocket runs two goroutines once started: the connection goroutine dials
// and reads frames, and the pump delivers queued events to listeners. All
// events of one socket are delivered by the pump, in the order the
// connection produced them, ending with exactly one EventClose.
type NetSocket struct {
	target EventTarget

	url    string
	config *SocketConfig
	logger *slog.Logger

	state      atomic.Int32
	binaryType atomic.Int32
	started    atomic.Bool

	// closeRequested is set once Close has been called.
	closeRequested atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex // guards conn
	conn *websocket.Conn

	writeMu sync.Mutex // serializes data frame writes

	events *eventq.Queue[Event]
	done   chan struct{}
}

// NewSocket validates rawURL and returns an unstarted socket. It never
// touches the network; dialing begins on Start.
func NewSocket(rawURL string, cfg *SocketConfig) (*NetSocket, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	cfg = cfg.Clone()

	ctx, cancel := context.WithCancel(context.Background())
	s := &NetSocket{
		url:    u.String(),
		config: cfg,
		logger: cfg.logger().With("url", u.String()),
		ctx:    ctx,
		cancel: cancel,
		events: eventq.New[Event](),
		done:   make(chan struct{}),
	}
	s.state.Store(int32(StateConnecting))
	return s, nil
}

// dialSocket is the default SocketFactory.
func dialSocket(rawURL string, cfg *SocketConfig) (Socket, error) {
	s, err := NewSocket(rawURL, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// URL returns the resolved socket URL.
func (s *NetSocket) URL() string {
	return s.url
}

// ReadyState returns the current connection state.
func (s *NetSocket) ReadyState() ReadyState {
	return ReadyState(s.state.Load())
}

// SetBinaryType selects how binary frames are delivered.
func (s *NetSocket) SetBinaryType(t BinaryType) {
	s.binaryType.Store(int32(t))
}

// AddEventListener registers fn for events of type typ.
func (s *NetSocket) AddEventListener(typ EventType, fn func(Event)) *Listener {
	return s.target.AddEventListener(typ, fn)
}

// Done is closed after the final event has been delivered.
func (s *NetSocket) Done() <-chan struct{} {
	return s.done
}

// Start begins dialing and delivering events.
func (s *NetSocket) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	if s.ReadyState() != StateConnecting {
		// Closed before it was started: nothing to dial, nothing to report.
		s.state.Store(int32(StateClosed))
		close(s.done)
		return
	}
	go s.pump()
	go s.run()
}

// SendText sends a text frame.
func (s *NetSocket) SendText(text string) error {
	return s.write(websocket.TextMessage, []byte(text))
}

// SendBinary sends a binary frame.
func (s *NetSocket) SendBinary(b []byte) error {
	return s.write(websocket.BinaryMessage, b)
}

func (s *NetSocket) write(messageType int, data []byte) error {
	if s.ReadyState() != StateOpen {
		return ErrNotOpen
	}
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotOpen
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.config.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	}
	return conn.WriteMessage(messageType, data)
}

// Close requests a close. While connecting the dial is abandoned; while
// open a normal-closure frame is sent and the connection is dropped after
// CloseGracePeriod if the peer does not answer. Otherwise Close does nothing.
func (s *NetSocket) Close() error {
	s.closeRequested.Store(true)
	for {
		switch state := s.ReadyState(); state {
		case StateConnecting:
			if !s.state.CompareAndSwap(int32(StateConnecting), int32(StateClosing)) {
				continue
			}
			s.cancel()
			if !s.started.Load() {
				s.state.Store(int32(StateClosed))
			}
			return nil

		case StateOpen:
			if !s.state.CompareAndSwap(int32(StateOpen), int32(StateClosing)) {
				continue
			}
			return s.sendClose()

		default:
			return nil
		}
	}
}

func (s *NetSocket) sendClose() error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	// A zero deadline means no timeout.
	var deadline time.Time
	if s.config.WriteTimeout > 0 {
		deadline = time.Now().Add(s.config.WriteTimeout)
	}
	if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		_ = conn.Close()
		return err
	}
	grace := s.config.CloseGracePeriod
	if grace <= 0 {
		grace = DefaultSocketConfig().CloseGracePeriod
	}
	time.AfterFunc(grace, func() {
		_ = conn.Close()
	})
	return nil
}

// run dials, then reads until the connection ends.
func (s *NetSocket) run() {
	defer s.cancel()

	conn, _, err := s.config.dialer().DialContext(s.ctx, s.url, s.config.Header)
	if err != nil {
		s.logger.Debug("dial failed", "error", err)
		s.state.Store(int32(StateClosed))
		s.events.Push(Event{Type: EventError, Err: err})
		s.events.Push(Event{Type: EventClose, Code: websocket.CloseAbnormalClosure, Err: err})
		return
	}

	s.mu.Lock()
	if !s.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen)) {
		s.mu.Unlock()
		_ = conn.Close()
		s.state.Store(int32(StateClosed))
		s.events.Push(Event{Type: EventClose, Code: websocket.CloseAbnormalClosure})
		return
	}
	s.conn = conn
	s.mu.Unlock()

	if s.config.MaxMessageSize > 0 {
		conn.SetReadLimit(s.config.MaxMessageSize)
	}
	s.logger.Debug("connected", "subprotocol", conn.Subprotocol())
	s.events.Push(Event{Type: EventOpen})

	s.readLoop(conn)
}

func (s *NetSocket) readLoop(conn *websocket.Conn) {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			s.finish(conn, err)
			return
		}

		switch messageType {
		case websocket.TextMessage:
			s.events.Push(Event{Type: EventMessage, Frame: TextFrame(string(data))})
		case websocket.BinaryMessage:
			frame := RawFrame{Kind: codec.KindBinary}
			if BinaryType(s.binaryType.Load()) == BinaryTypeBlob {
				frame.Blob = bytes.NewReader(data)
			} else {
				frame.Data = data
			}
			s.events.Push(Event{Type: EventMessage, Frame: frame})
		}
	}
}

// finish records the end of the connection and queues the final events.
func (s *NetSocket) finish(conn *websocket.Conn, err error) {
	_ = conn.Close()
	s.state.Store(int32(StateClosed))

	var ce *websocket.CloseError
	if errors.As(err, &ce) && ce.Code != websocket.CloseAbnormalClosure {
		s.logger.Debug("closed", "code", ce.Code, "reason", ce.Text)
		s.events.Push(Event{Type: EventClose, Code: ce.Code, Reason: ce.Text, WasClean: true})
		return
	}

	if s.closeRequested.Load() {
		// We dropped the connection after our close frame went unanswered.
		s.events.Push(Event{Type: EventClose, Code: websocket.CloseAbnormalClosure})
		return
	}

	s.logger.Debug("connection lost", "error", err)
	s.events.Push(Event{Type: EventError, Err: err})
	s.events.Push(Event{Type: EventClose, Code: websocket.CloseAbnormalClosure, Err: err})
}

// pump delivers queued events until the close event has been delivered.
func (s *NetSocket) pump() {
	defer close(s.done)
	for {
		for {
			ev, ok := s.events.Pop()
			if !ok {
				break
			}
			s.deliver(ev)
			if ev.Type == EventClose {
				return
			}
		}
		<-s.events.Ready()
	}
}

func (s *NetSocket) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("listener panic", "event", string(ev.Type), "panic", r)
		}
	}()
	s.target.DispatchEvent(ev)
}
