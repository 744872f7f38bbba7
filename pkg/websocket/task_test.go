package websocket_test

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vango-dev/wstask/pkg/codec"
	"github.com/vango-dev/wstask/pkg/websocket"
	"github.com/vango-dev/wstask/pkg/websocket/wstest"
)

// recorder collects task callbacks.
type recorder struct {
	mu       sync.Mutex
	messages []codec.Message
	statuses []websocket.Status
}

func (r *recorder) onMessage(m codec.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

func (r *recorder) onStatus(s websocket.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *recorder) snapshot() ([]codec.Message, []websocket.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]codec.Message(nil), r.messages...), append([]websocket.Status(nil), r.statuses...)
}

func connect(t *testing.T, mode websocket.Mode, d *wstest.Dialer) (*websocket.Task, *wstest.Socket, *recorder) {
	t.Helper()
	rec := &recorder{}
	task, err := websocket.Connect("ws://example.test/socket", rec.onMessage, rec.onStatus, mode,
		websocket.WithSocketFactory(d.Factory))
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	t.Cleanup(task.Close)
	return task, d.Last(), rec
}

func TestConnect_RegistersListenersAndStarts(t *testing.T) {
	d := &wstest.Dialer{}
	task, sock, _ := connect(t, websocket.ModeBoth, d)

	if !sock.Started() {
		t.Fatal("socket not started")
	}
	if sock.BinaryType() != websocket.BinaryTypeArrayBuffer {
		t.Fatalf("BinaryType() = %s, want arraybuffer", sock.BinaryType())
	}
	for _, typ := range []websocket.EventType{
		websocket.EventOpen, websocket.EventClose, websocket.EventError, websocket.EventMessage,
	} {
		if n := sock.ListenerCount(typ); n != 1 {
			t.Fatalf("ListenerCount(%s) = %d, want 1", typ, n)
		}
	}
	if task.ID() == "" || task.URL() != "ws://example.test/socket" || task.Mode() != websocket.ModeBoth {
		t.Fatalf("task accessors = %q %q %s", task.ID(), task.URL(), task.Mode())
	}
	if !strings.HasPrefix(task.String(), "WebSocketTask(") {
		t.Fatalf("String() = %q", task.String())
	}
}

func TestConnect_CreationErrorHasNoStatusEvents(t *testing.T) {
	rec := &recorder{}
	d := &wstest.Dialer{}

	_, err := websocket.Connect("ftp://example.test", rec.onMessage, rec.onStatus, websocket.ModeBoth,
		websocket.WithSocketFactory(d.Factory))
	var ce *websocket.CreationError
	if !errors.As(err, &ce) || !errors.Is(err, websocket.ErrInvalidScheme) {
		t.Fatalf("Connect() error = %v, want CreationError wrapping ErrInvalidScheme", err)
	}

	d.Err = errors.New("refused")
	_, err = websocket.Connect("ws://example.test", rec.onMessage, rec.onStatus, websocket.ModeBoth,
		websocket.WithSocketFactory(d.Factory))
	if !errors.As(err, &ce) || ce.Reason != "refused" {
		t.Fatalf("Connect() error = %v, want CreationError(refused)", err)
	}

	_, err = websocket.Connect("ws://example.test", rec.onMessage, rec.onStatus, websocket.Mode(7))
	if !errors.Is(err, websocket.ErrInvalidMode) {
		t.Fatalf("Connect(invalid mode) error = %v, want ErrInvalidMode", err)
	}

	if msgs, statuses := rec.snapshot(); len(msgs) != 0 || len(statuses) != 0 {
		t.Fatalf("callbacks after creation failure: %v %v", msgs, statuses)
	}
}

func TestTask_StatusSequence(t *testing.T) {
	_, sock, rec := connect(t, websocket.ModeBoth, &wstest.Dialer{})

	sock.Open()
	sock.Fail(nil)

	_, statuses := rec.snapshot()
	want := []websocket.Status{websocket.StatusOpened, websocket.StatusError, websocket.StatusClosed}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Fatalf("statuses = %v, want %v", statuses, want)
		}
	}
}

func TestTask_EventsBeforeStartAreDelivered(t *testing.T) {
	rec := &recorder{}
	sock := wstest.NewSocket("ws://example.test")
	sock.Open()
	sock.ReceiveText("early")

	task, err := websocket.Connect("ws://example.test", rec.onMessage, rec.onStatus, websocket.ModeBoth,
		websocket.WithSocketFactory(func(string, *websocket.SocketConfig) (websocket.Socket, error) {
			return sock, nil
		}))
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	defer task.Close()

	msgs, statuses := rec.snapshot()
	if len(statuses) != 1 || statuses[0] != websocket.StatusOpened {
		t.Fatalf("statuses = %v, want [opened]", statuses)
	}
	if len(msgs) != 1 || msgs[0].Text.Value != "early" {
		t.Fatalf("messages = %v, want [early]", msgs)
	}
}

func TestTask_ModeDispatch(t *testing.T) {
	tests := []struct {
		mode       websocket.Mode
		wantText   int
		wantBinary int
	}{
		{websocket.ModeBoth, 1, 1},
		{websocket.ModeTextOnly, 1, 0},
		{websocket.ModeBinaryOnly, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			_, sock, rec := connect(t, tt.mode, &wstest.Dialer{})
			sock.Open()
			sock.ReceiveText("t")
			sock.ReceiveBinary([]byte{1})

			msgs, _ := rec.snapshot()
			var text, binary int
			for _, m := range msgs {
				if m.Kind == codec.KindText {
					text++
				} else {
					binary++
				}
			}
			if text != tt.wantText || binary != tt.wantBinary {
				t.Fatalf("text=%d binary=%d, want %d/%d", text, binary, tt.wantText, tt.wantBinary)
			}
		})
	}
}

func TestTask_DecodeErrorsAreDelivered(t *testing.T) {
	_, sock, rec := connect(t, websocket.ModeBoth, &wstest.Dialer{})
	sock.Open()

	// A blob frame with an unreadable body still produces one message.
	sock.Receive(websocket.RawFrame{Kind: codec.KindBinary, Blob: errReader{}})

	msgs, _ := rec.snapshot()
	if len(msgs) != 1 || msgs[0].Err() == nil {
		t.Fatalf("messages = %+v, want one message carrying an error", msgs)
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("unreadable") }

func TestTask_NoCallbacksAfterClose(t *testing.T) {
	task, sock, rec := connect(t, websocket.ModeBoth, &wstest.Dialer{})
	sock.Open()
	task.Close()

	sock.ReceiveText("late")
	sock.FinishClose()
	sock.Fail(nil)

	msgs, statuses := rec.snapshot()
	if len(msgs) != 0 {
		t.Fatalf("messages after Close: %v", msgs)
	}
	if len(statuses) != 1 || statuses[0] != websocket.StatusOpened {
		t.Fatalf("statuses = %v, want only [opened]", statuses)
	}
	for _, typ := range []websocket.EventType{
		websocket.EventOpen, websocket.EventClose, websocket.EventError, websocket.EventMessage,
	} {
		if n := sock.ListenerCount(typ); n != 0 {
			t.Fatalf("ListenerCount(%s) = %d after Close, want 0", typ, n)
		}
	}
	if !task.Closed() {
		t.Fatal("Closed() = false after Close")
	}
}

func TestTask_CloseIsIdempotent(t *testing.T) {
	task, sock, _ := connect(t, websocket.ModeBoth, &wstest.Dialer{})
	sock.Open()

	task.Close()
	task.Close()

	if n := sock.CloseRequests(); n != 1 {
		t.Fatalf("CloseRequests() = %d, want 1", n)
	}
}

func TestTask_CloseWhileConnecting(t *testing.T) {
	task, sock, _ := connect(t, websocket.ModeBoth, &wstest.Dialer{})
	task.Close()
	if n := sock.CloseRequests(); n != 1 {
		t.Fatalf("CloseRequests() = %d, want 1", n)
	}
}

func TestTask_CloseAfterRemoteCloseDoesNotRequest(t *testing.T) {
	task, sock, rec := connect(t, websocket.ModeBoth, &wstest.Dialer{})
	sock.Open()
	sock.CloseRemote(1001, "going away")
	task.Close()

	if n := sock.CloseRequests(); n != 0 {
		t.Fatalf("CloseRequests() = %d, want 0", n)
	}
	_, statuses := rec.snapshot()
	if len(statuses) != 2 || statuses[1] != websocket.StatusClosed {
		t.Fatalf("statuses = %v, want [opened closed]", statuses)
	}
}

func TestTask_CloseFromCallback(t *testing.T) {
	d := &wstest.Dialer{}
	var task *websocket.Task
	var statuses []websocket.Status

	task, err := websocket.Connect("ws://example.test", nil, func(s websocket.Status) {
		statuses = append(statuses, s)
		if s == websocket.StatusError {
			task.Close()
		}
	}, websocket.ModeBoth, websocket.WithSocketFactory(d.Factory))
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}

	sock := d.Last()
	sock.Open()
	sock.Fail(errors.New("reset"))

	// The close event that follows the error is not reported once the
	// owner has released the task.
	if len(statuses) != 2 || statuses[1] != websocket.StatusError {
		t.Fatalf("statuses = %v, want [opened error]", statuses)
	}
}

func TestTask_NoCallbackStartsAfterConcurrentClose(t *testing.T) {
	const (
		rounds = 200
		frames = 2000
	)
	for i := 0; i < rounds; i++ {
		var (
			closeReturned atomic.Bool
			late          atomic.Int64
			first         = make(chan struct{})
			once          sync.Once
		)
		d := &wstest.Dialer{}
		task, err := websocket.Connect("ws://example.test", func(codec.Message) {
			if closeReturned.Load() {
				late.Add(1)
			}
			once.Do(func() { close(first) })
		}, nil, websocket.ModeBoth, websocket.WithSocketFactory(d.Factory))
		if err != nil {
			t.Fatalf("Connect() error: %v", err)
		}
		sock := d.Last()
		sock.Open()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < frames; j++ {
				sock.ReceiveText("tick")
			}
		}()

		<-first
		task.Close()
		closeReturned.Store(true)
		<-done

		if n := late.Load(); n != 0 {
			t.Fatalf("round %d: %d message callbacks started after Close returned", i, n)
		}
	}
}

func TestTask_CloseWaitsForRunningCallback(t *testing.T) {
	d := &wstest.Dialer{}
	entered := make(chan struct{})
	release := make(chan struct{})
	task, err := websocket.Connect("ws://example.test", func(codec.Message) {
		close(entered)
		<-release
	}, nil, websocket.ModeBoth, websocket.WithSocketFactory(d.Factory))
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	sock := d.Last()
	sock.Open()

	go sock.ReceiveText("slow")
	<-entered

	closed := make(chan struct{})
	go func() {
		task.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a callback was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after the callback finished")
	}
}

func TestTask_SendOnNonOpenSocketReportsError(t *testing.T) {
	task, sock, rec := connect(t, websocket.ModeBoth, &wstest.Dialer{})

	task.Send(codec.TextOf("too early"))
	task.SendBinary(codec.BinaryOf([]byte{1}))

	_, statuses := rec.snapshot()
	if len(statuses) != 2 || statuses[0] != websocket.StatusError || statuses[1] != websocket.StatusError {
		t.Fatalf("statuses = %v, want [error error]", statuses)
	}
	if len(sock.SentText()) != 0 || len(sock.SentBinary()) != 0 {
		t.Fatal("frames recorded for a connecting socket")
	}
}

func TestTask_SendFailureReportsError(t *testing.T) {
	task, sock, rec := connect(t, websocket.ModeBoth, &wstest.Dialer{})
	sock.Open()
	sock.FailSends(errors.New("write: broken pipe"))

	task.Send(codec.TextOf("x"))

	_, statuses := rec.snapshot()
	if len(statuses) != 2 || statuses[1] != websocket.StatusError {
		t.Fatalf("statuses = %v, want [opened error]", statuses)
	}
}

func TestTask_SendSkipsEncodeFailures(t *testing.T) {
	task, sock, rec := connect(t, websocket.ModeBoth, &wstest.Dialer{})
	sock.Open()

	task.Send(codec.TextErr(errors.New("cannot encode")))
	task.SendBinary(codec.Compact.Binary(struct{}{}))

	if len(sock.SentText()) != 0 || len(sock.SentBinary()) != 0 {
		t.Fatal("a failed encode was sent")
	}
	if _, statuses := rec.snapshot(); len(statuses) != 1 {
		t.Fatalf("statuses = %v, want only [opened]", statuses)
	}
}

func TestTask_SendAfterCloseIsDropped(t *testing.T) {
	task, sock, rec := connect(t, websocket.ModeBoth, &wstest.Dialer{})
	sock.Open()
	task.Close()

	task.Send(codec.TextOf("x"))

	if _, statuses := rec.snapshot(); len(statuses) != 1 {
		t.Fatalf("statuses = %v, want only [opened]", statuses)
	}
}

type valuePayload struct {
	Value int `json:"value"`
}

func TestTask_EchoRoundTrip(t *testing.T) {
	d := &wstest.Dialer{Echo: true}
	var got []valuePayload
	var errs []error

	onMessage := codec.Callback(codec.JSON, func(v valuePayload, err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		got = append(got, v)
	})
	task, err := websocket.Connect("ws://example.test", onMessage, nil, websocket.ModeBoth,
		websocket.WithSocketFactory(d.Factory))
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	defer task.Close()

	d.Last().Open()
	task.Send(codec.JSON.Text(valuePayload{Value: 321}))
	task.SendBinary(codec.JSON.Binary(valuePayload{Value: 321}))

	if len(errs) != 0 {
		t.Fatalf("decode errors: %v", errs)
	}
	if len(got) != 2 || got[0].Value != 321 || got[1].Value != 321 {
		t.Fatalf("got %+v, want two values of 321", got)
	}
}

func TestTask_ReadyStateFollowsSocket(t *testing.T) {
	task, sock, _ := connect(t, websocket.ModeBoth, &wstest.Dialer{})
	if task.ReadyState() != websocket.StateConnecting {
		t.Fatalf("ReadyState() = %s, want connecting", task.ReadyState())
	}
	sock.Open()
	if task.ReadyState() != websocket.StateOpen {
		t.Fatalf("ReadyState() = %s, want open", task.ReadyState())
	}
}
