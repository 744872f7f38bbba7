package transcript

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vango-dev/wstask/pkg/codec"
	"github.com/vango-dev/wstask/pkg/websocket"
)

// Direction of a transcript entry.
const (
	DirectionIn     = "in"
	DirectionOut    = "out"
	DirectionStatus = "status"
)

// Entry is one line of a transcript.
type Entry struct {
	Time      time.Time `json:"time"`
	TaskID    string    `json:"task_id,omitempty"`
	Direction string    `json:"direction"`
	Kind      string    `json:"kind,omitempty"`
	Status    string    `json:"status,omitempty"`
	Payload   string    `json:"payload,omitempty"`
	Encoding  string    `json:"encoding,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Recorder accumulates transcript entries. It is safe for concurrent use.
type Recorder struct {
	id  string
	now func() time.Time

	mu      sync.Mutex
	entries []Entry
}

// NewRecorder returns an empty recorder with a fresh ID.
func NewRecorder() *Recorder {
	return &Recorder{id: uuid.NewString(), now: time.Now}
}

// ID returns the recorder ID, which names the flushed transcript.
func (r *Recorder) ID() string {
	return r.id
}

// Status records a status event.
func (r *Recorder) Status(taskID string, s websocket.Status) {
	r.add(Entry{TaskID: taskID, Direction: DirectionStatus, Status: s.String()})
}

// Received records a decoded inbound message, including decode failures.
func (r *Recorder) Received(taskID string, m codec.Message) {
	e := Entry{TaskID: taskID, Direction: DirectionIn, Kind: m.Kind.String()}
	if payload, err := m.Bytes(); err != nil {
		e.Error = err.Error()
	} else {
		setPayload(&e, m.Kind, payload)
	}
	r.add(e)
}

// Sent records an outbound payload.
func (r *Recorder) Sent(taskID string, kind codec.Kind, payload []byte) {
	e := Entry{TaskID: taskID, Direction: DirectionOut, Kind: kind.String()}
	setPayload(&e, kind, payload)
	r.add(e)
}

func setPayload(e *Entry, kind codec.Kind, payload []byte) {
	if kind == codec.KindBinary {
		e.Payload = base64.StdEncoding.EncodeToString(payload)
		e.Encoding = "base64"
		return
	}
	e.Payload = string(payload)
}

func (r *Recorder) add(e Entry) {
	e.Time = r.now().UTC()
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Len returns the number of recorded entries.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// WriteTo writes the entries to w as JSON lines.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range r.Entries() {
		if err := enc.Encode(e); err != nil {
			return 0, err
		}
	}
	return buf.WriteTo(w)
}

// Name returns the object name used by Flush.
func (r *Recorder) Name() string {
	return r.id + ".jsonl"
}

// Flush stores the transcript in sink and returns its location.
func (r *Recorder) Flush(ctx context.Context, sink Sink) (string, error) {
	var buf bytes.Buffer
	if _, err := r.WriteTo(&buf); err != nil {
		return "", err
	}
	return sink.Put(ctx, r.Name(), buf.Bytes())
}
