package websocket

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/vango-dev/wstask/pkg/codec"
	"go.opentelemetry.io/otel/trace"
)

// Listener slots owned by a Task.
const (
	listenerOpen = iota
	listenerClose
	listenerError
	listenerMessage
	listenerCount
)

// Task is a handle to one WebSocket connection.
//
// The owner must call Close when it is done with the task: it is the only
// way the socket and the four listener registrations are released.
type Task struct {
	id     string
	url    string
	mode   Mode
	socket Socket
	notify *notifier

	listeners [listenerCount]*Listener
	gate      gate
	closed    atomic.Bool

	logger  *slog.Logger
	metrics *Metrics
	span    trace.Span
}

// Connect creates a socket for url and returns a Task driving it.
//
// onMessage receives one codec.Message per frame accepted by mode; onStatus
// receives one Status per open, close or error transition. Either may be
// nil. Connect fails only when the socket cannot be created, with a
// *CreationError; every later outcome is reported through onStatus.
func Connect(url string, onMessage MessageFunc, onStatus StatusFunc, mode Mode, opts ...Option) (*Task, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if !mode.valid() {
		return nil, &CreationError{URL: url, Reason: ErrInvalidMode.Error(), Err: ErrInvalidMode}
	}

	id := uuid.NewString()
	logger := o.logger.With("task_id", id, "mode", mode.String())

	cfg := o.socketConfig.Clone()
	if cfg.Logger == nil {
		cfg.Logger = logger
	}

	socket, err := o.factory(url, cfg)
	if err != nil {
		o.metrics.connectError()
		logger.Debug("socket creation failed", "url", url, "error", err)
		return nil, newCreationError(url, err)
	}
	socket.SetBinaryType(BinaryTypeArrayBuffer)

	span := startTaskSpan(o.tracer, id, socket.URL(), mode)
	t := &Task{
		id:      id,
		url:     socket.URL(),
		mode:    mode,
		socket:  socket,
		logger:  logger.With("url", socket.URL()),
		metrics: o.metrics,
		span:    span,
	}
	t.notify = &notifier{
		sink:    onStatus,
		logger:  t.logger,
		metrics: o.metrics,
		span:    span,
	}

	t.listeners = [listenerCount]*Listener{
		listenerOpen: socket.AddEventListener(EventOpen, func(Event) {
			t.gate.run(func() { t.notify.emit(StatusOpened) })
		}),
		listenerClose: socket.AddEventListener(EventClose, func(ev Event) {
			t.gate.run(func() {
				t.logger.Debug("socket closed", "code", ev.Code, "reason", ev.Reason, "clean", ev.WasClean)
				t.notify.emit(StatusClosed)
			})
		}),
		listenerError: socket.AddEventListener(EventError, func(ev Event) {
			t.gate.run(func() {
				t.logger.Debug("socket error", "error", ev.Err)
				t.notify.emit(StatusError)
			})
		}),
		listenerMessage: socket.AddEventListener(EventMessage, func(ev Event) {
			t.gate.run(func() { t.dispatch(ev.Frame, onMessage) })
		}),
	}

	o.metrics.taskStarted()
	t.logger.Debug("task created")
	socket.Start()
	return t, nil
}

func (t *Task) dispatch(f RawFrame, onMessage MessageFunc) {
	t.metrics.frameReceived(f.Kind)

	m, ok := Decode(t.mode, f)
	if !ok {
		t.metrics.frameDropped(f.Kind)
		return
	}
	if err := m.Err(); err != nil {
		t.metrics.decodeError(m.Kind)
		t.logger.Debug("decode failed", "kind", m.Kind.String(), "error", err)
	}
	if onMessage != nil {
		onMessage(m)
	}
}

// Send sends text as a text frame. A text that failed to encode is skipped
// silently; a frame the transport rejects is reported as StatusError.
func (t *Task) Send(text codec.Text) {
	if text.Err != nil {
		t.skip(codec.KindText, text.Err)
		return
	}
	t.sent(codec.KindText, t.socket.SendText(text.Value))
}

// SendBinary sends b as a binary frame, with the same failure handling as Send.
func (t *Task) SendBinary(b codec.Binary) {
	if b.Err != nil {
		t.skip(codec.KindBinary, b.Err)
		return
	}
	t.sent(codec.KindBinary, t.socket.SendBinary(b.Value))
}

func (t *Task) skip(kind codec.Kind, err error) {
	t.metrics.sendSkipped(kind)
	t.logger.Debug("send skipped", "kind", kind.String(), "error", err)
}

func (t *Task) sent(kind codec.Kind, err error) {
	if err == nil {
		t.metrics.frameSent(kind)
		return
	}
	t.metrics.sendError(kind)
	if t.closed.Load() {
		t.logger.Debug("send after close", "kind", kind.String())
		return
	}
	t.logger.Debug("send failed", "kind", kind.String(), "error", err)
	t.gate.run(func() { t.notify.emit(StatusError) })
}

// Close releases the task. It waits for a callback running on another
// goroutine to return, removes the four listeners and, if the socket is
// still connecting or open, requests a close. Errors from the close request
// are ignored. Close is idempotent.
func (t *Task) Close() {
	if t.closed.Swap(true) {
		return
	}
	t.gate.close()

	active := t.socket.ReadyState().Active()
	for _, l := range t.listeners {
		l.Remove()
	}
	if active {
		if err := t.socket.Close(); err != nil {
			t.logger.Debug("close request failed", "error", err)
		}
	}

	t.metrics.taskClosed()
	t.span.End()
	t.logger.Debug("task closed", "was_active", active)
}

// Closed reports whether Close has been called.
func (t *Task) Closed() bool {
	return t.closed.Load()
}

// ID returns the task's unique identifier.
func (t *Task) ID() string {
	return t.id
}

// URL returns the resolved socket URL.
func (t *Task) URL() string {
	return t.url
}

// Mode returns the connection mode fixed at connect time.
func (t *Task) Mode() Mode {
	return t.mode
}

// ReadyState returns the state of the underlying socket.
func (t *Task) ReadyState() ReadyState {
	return t.socket.ReadyState()
}

// String implements fmt.Stringer.
func (t *Task) String() string {
	return fmt.Sprintf("WebSocketTask(%s)", t.id)
}
