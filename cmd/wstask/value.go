package main

import (
	"fmt"
	"math"

	"github.com/vango-dev/wstask/pkg/codec"
	"github.com/vango-dev/wstask/pkg/websocket"
)

// defaultValue is the value sent when a send command names none.
const defaultValue = 321

// Request is the payload sent to the echo endpoint.
type Request struct {
	Value uint32 `json:"value"`
}

// MarshalCompact implements codec.CompactMarshaler.
func (r Request) MarshalCompact(e *codec.Encoder) {
	e.WriteUvarint(uint64(r.Value))
}

// Response is the payload expected back from the echo endpoint.
type Response struct {
	Value uint32 `json:"value"`
}

// UnmarshalCompact implements codec.CompactUnmarshaler.
func (r *Response) UnmarshalCompact(d *codec.Decoder) error {
	v, err := d.ReadUvarint()
	if err != nil {
		return err
	}
	if v > math.MaxUint32 {
		return fmt.Errorf("value %d overflows uint32", v)
	}
	r.Value = uint32(v)
	return nil
}

// payload is an encoded request ready to hand to a task.
type payload struct {
	kind   codec.Kind
	text   codec.Text
	binary codec.Binary
}

func encodeRequest(f codec.Format, value uint32, binary bool) payload {
	req := Request{Value: value}
	if binary {
		return payload{kind: codec.KindBinary, binary: f.Binary(req)}
	}
	return payload{kind: codec.KindText, text: f.Text(req)}
}

// err returns the encode error, if any.
func (p payload) err() error {
	if p.kind == codec.KindBinary {
		return p.binary.Err
	}
	return p.text.Err
}

// bytes returns the encoded payload for transcripts.
func (p payload) bytes() []byte {
	if p.kind == codec.KindBinary {
		return p.binary.Value
	}
	return []byte(p.text.Value)
}

// sendTo hands the payload to t on the matching frame type.
func (p payload) sendTo(t *websocket.Task) {
	if p.kind == codec.KindBinary {
		t.SendBinary(p.binary)
		return
	}
	t.Send(p.text)
}
