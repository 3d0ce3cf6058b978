package reactive

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// newTestRuntime returns a runtime whose log output is captured.
func newTestRuntime(t *testing.T) (*Runtime, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewRuntime(WithLogger(logger), WithName(t.Name())), &buf
}

// recorder is an Observer that remembers what it saw.
type recorder struct {
	NopObserver

	mu       sync.Mutex
	codes    []string
	tracks   int
	triggers []TriggerOp
	runs     int
	stops    int
}

func (r *recorder) OnTrack(*ReactiveEffect, any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks++
}

func (r *recorder) OnTrigger(op TriggerOp, _ any, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, op)
}

func (r *recorder) OnEffectRun(_ *ReactiveEffect, next func()) {
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()
	next()
}

func (r *recorder) OnEffectStop(*ReactiveEffect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
}

func (r *recorder) OnDiagnostic(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, _, _ := strings.Cut(err.Error(), ":")
	r.codes = append(r.codes, code)
}

func (r *recorder) lastCode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.codes) == 0 {
		return ""
	}
	return r.codes[len(r.codes)-1]
}

func obj(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

func arr(items ...any) *[]any {
	s := append([]any{}, items...)
	return &s
}
