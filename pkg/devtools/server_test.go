package devtools

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/reactivity/pkg/reactive"
)

func newTestServer(t *testing.T, opts ...Option) (*reactive.Runtime, *Server) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rt := reactive.NewRuntime(reactive.WithLogger(logger), reactive.WithName(t.Name()))
	s := New(rt, opts...)
	t.Cleanup(s.Close)
	return rt, s
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	_, s := newTestServer(t)
	rec := get(t, s.Handler(), "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("GET /healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestGraph(t *testing.T) {
	rt, s := newTestServer(t)
	state := rt.Reactive(map[string]any{"a": 1, "b": 2})
	rt.Effect(func() {
		_ = state.Get("a")
		_ = state.Get("b")
	})

	rec := get(t, s.Handler(), "/graph")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /graph status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var stats reactive.GraphStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Runtime != t.Name() || stats.Targets != 1 || stats.Keys != 2 || stats.Subscriptions != 2 || stats.Handles != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRecentEvents(t *testing.T) {
	rt, s := newTestServer(t)
	state := rt.Reactive(map[string]any{"count": 0})
	r := rt.Effect(func() { _ = state.Get("count") }, reactive.EffectName("counter"))
	state.Set("count", 1)
	r.Effect().Stop()

	want := []Event{
		{Type: EventEffectRun, Effect: "counter", Run: 1},
		{Type: EventTrigger, Op: "set", Key: "count", Notified: 1},
		{Type: EventEffectRun, Effect: "counter", Run: 2},
		{Type: EventEffectStop, Effect: "counter"},
	}
	got := s.Recent()
	if len(got) != len(want) {
		t.Fatalf("Recent() len = %d, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		g := got[i]
		if g.At.IsZero() {
			t.Errorf("event %d has no timestamp", i)
		}
		g.At = time.Time{}
		if g != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, g, want[i])
		}
	}

	rec := get(t, s.Handler(), "/events/recent")
	var decoded []Event
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != len(want) {
		t.Errorf("GET /events/recent returned %d events, want %d", len(decoded), len(want))
	}
}

func TestEventBufferKeepsNewest(t *testing.T) {
	rt, s := newTestServer(t, WithEventBuffer(2))
	rt.Reactive(1)
	rt.Readonly(map[string]any{"a": 1}).Set("a", 2)
	rt.Readonly(map[string]any{"a": 1}).Delete("a")

	got := s.Recent()
	if len(got) != 2 {
		t.Fatalf("Recent() len = %d, want 2", len(got))
	}
	if got[0].Code != "R002" || got[1].Code != "R003" {
		t.Errorf("codes = %s, %s; want R002, R003", got[0].Code, got[1].Code)
	}
	if got[1].Type != EventDiagnostic || got[1].Message == "" {
		t.Errorf("diagnostic event = %+v", got[1])
	}
}

func TestEventBufferDisabled(t *testing.T) {
	rt, s := newTestServer(t, WithEventBuffer(0))
	rt.Reactive(1)
	if got := s.Recent(); len(got) != 0 {
		t.Errorf("Recent() = %v, want empty", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "devtools_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	_, s := newTestServer(t, WithGatherer(reg))
	rec := get(t, s.Handler(), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "devtools_test_total 1") {
		t.Errorf("metrics body missing counter:\n%s", rec.Body.String())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func TestWebSocketFeed(t *testing.T) {
	rt, s := newTestServer(t)
	rt.Reactive("not an object")

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if ev := readEvent(t, conn); ev.Type != EventDiagnostic || ev.Code != "R001" {
		t.Errorf("replayed event = %+v, want R001 diagnostic", ev)
	}

	waitFor(t, func() bool { return s.ClientCount() == 1 })

	state := rt.Reactive(map[string]any{"n": 0})
	rt.Effect(func() { _ = state.Get("n") }, reactive.EffectName("watch"))
	state.Set("n", 1)

	wantTypes := []EventType{EventEffectRun, EventTrigger, EventEffectRun}
	for i, want := range wantTypes {
		if ev := readEvent(t, conn); ev.Type != want {
			t.Errorf("event %d type = %s, want %s", i, ev.Type, want)
		}
	}

	s.Close()
	waitFor(t, func() bool { return s.ClientCount() == 0 })

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to close after Close")
	}
}

func TestClosedServerRefusesClients(t *testing.T) {
	_, s := newTestServer(t)
	s.Close()

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected closed connection")
	}
	if n := s.ClientCount(); n != 0 {
		t.Errorf("ClientCount() = %d, want 0", n)
	}
}
