package echoserver

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	dto "github.com/prometheus/client_model/go"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func wsURL(base, path string) string {
	return "ws" + strings.TrimPrefix(base, "http") + path
}

func counterValue(t *testing.T, s *Server, name, label, value string) float64 {
	t.Helper()
	families, err := s.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return metricValue(m)
				}
			}
		}
	}
	return 0
}

func metricValue(m *dto.Metric) float64 {
	if c := m.GetCounter(); c != nil {
		return c.GetValue()
	}
	if g := m.GetGauge(); g != nil {
		return g.GetValue()
	}
	return 0
}

func TestEchoRoundTrip(t *testing.T) {
	s := New(&Config{Logger: quietLogger()})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL, "/ws"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"value":321}`)); err != nil {
		t.Fatalf("WriteMessage text: %v", err)
	}
	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if mt != websocket.TextMessage || string(data) != `{"value":321}` {
		t.Errorf("echo = (%d, %q), want text {\"value\":321}", mt, data)
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x41}); err != nil {
		t.Fatalf("WriteMessage binary: %v", err)
	}
	mt, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if mt != websocket.BinaryMessage || string(data) != "\x01\x41" {
		t.Errorf("echo = (%d, %v), want binary [1 65]", mt, data)
	}

	if got := counterValue(t, s, "wstask_echo_frames_echoed_total", "kind", "text"); got != 1 {
		t.Errorf("text frames echoed = %v, want 1", got)
	}
	if got := counterValue(t, s, "wstask_echo_frames_echoed_total", "kind", "binary"); got != 1 {
		t.Errorf("binary frames echoed = %v, want 1", got)
	}
	if got := counterValue(t, s, "wstask_echo_upgrades_total", "result", "ok"); got != 1 {
		t.Errorf("ok upgrades = %v, want 1", got)
	}
}

func TestCustomPath(t *testing.T) {
	s := New(&Config{Path: "/echo", Logger: quietLogger()})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL, "/echo"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	conn.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts.URL, "/ws"), nil)
	if err == nil {
		t.Fatal("Dial /ws succeeded, want 404")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("response = %v, want 404", resp)
	}
}

func TestRateLimit(t *testing.T) {
	s := New(&Config{Rate: 0.001, Burst: 1, Logger: quietLogger()})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts.URL, "/ws"), nil)
	if err != nil {
		t.Fatalf("first Dial: %v", err)
	}
	defer conn.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts.URL, "/ws"), nil)
	if err == nil {
		t.Fatal("second Dial succeeded, want rate limited")
	}
	if resp == nil {
		t.Fatalf("second Dial returned no response: %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if got := counterValue(t, s, "wstask_echo_upgrades_total", "result", "limited"); got != 1 {
		t.Errorf("limited upgrades = %v, want 1", got)
	}
}

func TestRejectsPlainHTTP(t *testing.T) {
	s := New(&Config{Logger: quietLogger()})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ws")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if got := counterValue(t, s, "wstask_echo_upgrades_total", "result", "failed"); got != 1 {
		t.Errorf("failed upgrades = %v, want 1", got)
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	s := New(&Config{Logger: quietLogger()})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "ok" {
		t.Errorf("/healthz = %d %q, want 200 ok", resp.StatusCode, body)
	}

	// Touch a labelled counter so it is exported.
	s.metrics.upgrade("ok")

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "wstask_echo_upgrades_total") {
		t.Errorf("/metrics missing wstask_echo_upgrades_total:\n%s", body)
	}
	if !strings.Contains(string(body), "wstask_echo_connections_active") {
		t.Errorf("/metrics missing wstask_echo_connections_active:\n%s", body)
	}
}

func TestShutdownClosesClients(t *testing.T) {
	s := New(&Config{Logger: quietLogger()})
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- s.Serve(l) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+l.Addr().String()+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	// Round trip once so the handler is tracked before shutdown.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}

	go func() {
		// The client must answer the close frame for handlers to exit.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case err := <-serveErr:
		if err != nil {
			t.Errorf("Serve returned %v, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(&Config{Addr: "127.0.0.1:0", Logger: quietLogger()})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDefaults(t *testing.T) {
	cfg := (*Config)(nil).withDefaults()
	if cfg.Addr != ":8080" || cfg.Path != "/ws" || cfg.Burst != 40 || cfg.ReadLimit != 1<<20 {
		t.Errorf("defaults = %+v", cfg)
	}

	cfg = (&Config{Path: "/x", Burst: 2}).withDefaults()
	if cfg.Path != "/x" || cfg.Burst != 2 || cfg.Rate != 20 {
		t.Errorf("merged = %+v", cfg)
	}
}
