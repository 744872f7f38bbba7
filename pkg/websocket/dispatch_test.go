package websocket

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/vango-dev/wstask/pkg/codec"
)

func TestDispatch_ModeCounts(t *testing.T) {
	tests := []struct {
		mode       Mode
		wantText   int
		wantBinary int
	}{
		{ModeBoth, 1, 1},
		{ModeTextOnly, 1, 0},
		{ModeBinaryOnly, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			var text, binary int
			onMessage := func(m codec.Message) {
				switch m.Kind {
				case codec.KindText:
					text++
				case codec.KindBinary:
					binary++
				}
			}

			Dispatch(tt.mode, TextFrame("hello"), onMessage)
			Dispatch(tt.mode, BinaryFrame([]byte{1, 2, 3}), onMessage)

			if text != tt.wantText || binary != tt.wantBinary {
				t.Fatalf("text=%d binary=%d, want text=%d binary=%d",
					text, binary, tt.wantText, tt.wantBinary)
			}
		})
	}
}

func TestDispatch_ReportsInvocation(t *testing.T) {
	if !Dispatch(ModeBoth, TextFrame("x"), nil) {
		t.Fatal("Dispatch(ModeBoth, text) = false, want true")
	}
	if Dispatch(ModeBinaryOnly, TextFrame("x"), func(codec.Message) {
		t.Fatal("callback invoked for dropped frame")
	}) {
		t.Fatal("Dispatch(ModeBinaryOnly, text) = true, want false")
	}
	if Dispatch(Mode(99), BinaryFrame(nil), nil) {
		t.Fatal("Dispatch(invalid mode) = true, want false")
	}
}

func TestDecodeText(t *testing.T) {
	got := DecodeText(TextFrame("hi"))
	if got.Err != nil || got.Value != "hi" {
		t.Fatalf("DecodeText = %+v, want hi", got)
	}

	got = DecodeText(BinaryFrame([]byte("hi")))
	if !errors.Is(got.Err, codec.ErrReceivedBinaryForText) {
		t.Fatalf("DecodeText(binary).Err = %v, want ErrReceivedBinaryForText", got.Err)
	}
}

func TestDecodeBinary(t *testing.T) {
	src := []byte{9, 8, 7}
	got := DecodeBinary(BinaryFrame(src))
	if got.Err != nil || !bytes.Equal(got.Value, src) {
		t.Fatalf("DecodeBinary = %+v, want %v", got, src)
	}
	src[0] = 0
	if got.Value[0] != 9 {
		t.Fatal("DecodeBinary result aliases the frame buffer")
	}

	blob := RawFrame{Kind: codec.KindBinary, Blob: strings.NewReader("abc")}
	got = DecodeBinary(blob)
	if got.Err != nil || string(got.Value) != "abc" {
		t.Fatalf("DecodeBinary(blob) = %+v, want abc", got)
	}

	got = DecodeBinary(TextFrame("abc"))
	if !errors.Is(got.Err, codec.ErrReceivedTextForBinary) {
		t.Fatalf("DecodeBinary(text).Err = %v, want ErrReceivedTextForBinary", got.Err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestDecodeBinary_BlobReadError(t *testing.T) {
	got := DecodeBinary(RawFrame{Kind: codec.KindBinary, Blob: failingReader{}})
	if got.Err == nil {
		t.Fatal("DecodeBinary(failing blob).Err = nil, want error")
	}
}

func TestDecode_TypedErrorsReachCallback(t *testing.T) {
	type value struct {
		Value int `json:"value"`
	}

	var calls int
	var gotErr error
	sink := codec.Callback(codec.JSON, func(v value, err error) {
		calls++
		gotErr = err
	})

	Dispatch(ModeBoth, TextFrame("not json"), sink)
	if calls != 1 || gotErr == nil {
		t.Fatalf("calls=%d err=%v, want one call with a decode error", calls, gotErr)
	}

	var got value
	sink = codec.Callback(codec.JSON, func(v value, err error) {
		got = v
		gotErr = err
	})
	Dispatch(ModeBoth, BinaryFrame([]byte(`{"value":321}`)), sink)
	if gotErr != nil || got.Value != 321 {
		t.Fatalf("got %+v err=%v, want value 321", got, gotErr)
	}
}
