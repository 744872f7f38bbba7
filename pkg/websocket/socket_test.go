package websocket

import (
	"errors"
	"testing"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{in: "ws://example.com/socket", want: "ws://example.com/socket"},
		{in: "WSS://example.com", want: "wss://example.com"},
		{in: "http://example.com/a?b=c", want: "ws://example.com/a?b=c"},
		{in: "https://example.com", want: "wss://example.com"},
		{in: "ftp://example.com", wantErr: ErrInvalidScheme},
		{in: "example.com", wantErr: ErrInvalidScheme},
		{in: "ws:///path", wantErr: ErrMissingHost},
		{in: "ws://example.com/#frag", wantErr: ErrURLFragment},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := ParseURL(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseURL(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				var ce *CreationError
				if !errors.As(err, &ce) || ce.URL != tt.in {
					t.Fatalf("ParseURL(%q) error %T is not a CreationError for the URL", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseURL(%q) error: %v", tt.in, err)
			}
			if u.String() != tt.want {
				t.Fatalf("ParseURL(%q) = %q, want %q", tt.in, u.String(), tt.want)
			}
		})
	}
}

func TestReadyState(t *testing.T) {
	active := map[ReadyState]bool{
		StateConnecting: true,
		StateOpen:       true,
		StateClosing:    false,
		StateClosed:     false,
	}
	for s, want := range active {
		if got := s.Active(); got != want {
			t.Errorf("%s.Active() = %v, want %v", s, got, want)
		}
	}
	if ReadyState(42).String() != "unknown" {
		t.Errorf("ReadyState(42).String() = %q", ReadyState(42).String())
	}
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"":            ModeBoth,
		"both":        ModeBoth,
		"binary":      ModeBinaryOnly,
		"binary-only": ModeBinaryOnly,
		"text":        ModeTextOnly,
		"text-only":   ModeTextOnly,
	}
	for in, want := range tests {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseMode("udp"); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("ParseMode(udp) error = %v, want ErrInvalidMode", err)
	}
}

func TestCreationError(t *testing.T) {
	inner := errors.New("boom")
	err := newCreationError("ws://x", inner)
	if !errors.Is(err, inner) {
		t.Fatal("CreationError does not unwrap to its cause")
	}
	if again := newCreationError("ws://y", err); again != err {
		t.Fatal("newCreationError rewrapped an existing CreationError")
	}
	if got := (&CreationError{Reason: "r"}).Error(); got != "websocket: creation failed: r" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestSocketConfig_Clone(t *testing.T) {
	var nilConfig *SocketConfig
	if c := nilConfig.Clone(); c.HandshakeTimeout != DefaultSocketConfig().HandshakeTimeout {
		t.Fatal("nil Clone() did not return defaults")
	}

	orig := DefaultSocketConfig()
	orig.Header = map[string][]string{"X-Test": {"a"}}
	orig.Subprotocols = []string{"chat"}
	clone := orig.Clone()
	clone.Header.Set("X-Test", "b")
	clone.Subprotocols[0] = "other"
	if orig.Header.Get("X-Test") != "a" || orig.Subprotocols[0] != "chat" {
		t.Fatal("Clone() shares header or subprotocol storage")
	}

	d := orig.dialer()
	if d.HandshakeTimeout != orig.HandshakeTimeout || len(d.Subprotocols) != 1 {
		t.Fatalf("dialer() = %+v, want config applied", d)
	}
}
