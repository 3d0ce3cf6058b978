package devtools

import (
	"errors"
	"fmt"
	"time"

	rerrors "github.com/vango-dev/reactivity/internal/errors"
	"github.com/vango-dev/reactivity/pkg/reactive"
)

// EventType identifies what happened in the runtime.
type EventType string

const (
	EventEffectRun  EventType = "effect-run"
	EventEffectStop EventType = "effect-stop"
	EventTrigger    EventType = "trigger"
	EventDiagnostic EventType = "diagnostic"
)

// Event is one entry of the devtools feed. It is sent to websocket clients
// as a JSON text frame.
type Event struct {
	Type     EventType `json:"type"`
	Effect   string    `json:"effect,omitempty"`
	Run      uint64    `json:"run,omitempty"`
	Key      string    `json:"key,omitempty"`
	Op       string    `json:"op,omitempty"`
	Notified int       `json:"notified,omitempty"`
	Code     string    `json:"code,omitempty"`
	Message  string    `json:"message,omitempty"`
	At       time.Time `json:"at"`
}

// ring keeps the last cap(items) events.
type ring struct {
	items []Event
	head  int
}

func newRing(size int) *ring {
	if size < 0 {
		size = 0
	}
	return &ring{items: make([]Event, 0, size)}
}

func (r *ring) push(ev Event) {
	switch {
	case cap(r.items) == 0:
	case len(r.items) < cap(r.items):
		r.items = append(r.items, ev)
	default:
		r.items[r.head] = ev
		r.head = (r.head + 1) % len(r.items)
	}
}

// snapshot returns the buffered events, oldest first.
func (r *ring) snapshot() []Event {
	out := make([]Event, 0, len(r.items))
	out = append(out, r.items[r.head:]...)
	return append(out, r.items[:r.head]...)
}

// observer turns runtime hooks into events.
type observer struct {
	reactive.NopObserver
	s *Server
}

func (o observer) OnTrigger(op reactive.TriggerOp, key any, notified int) {
	o.s.record(Event{
		Type:     EventTrigger,
		Op:       op.String(),
		Key:      fmt.Sprint(key),
		Notified: notified,
	})
}

func (o observer) OnEffectRun(e *reactive.ReactiveEffect, next func()) {
	o.s.record(Event{Type: EventEffectRun, Effect: e.Name(), Run: e.Runs()})
	next()
}

func (o observer) OnEffectStop(e *reactive.ReactiveEffect) {
	o.s.record(Event{Type: EventEffectStop, Effect: e.Name()})
}

func (o observer) OnDiagnostic(err error) {
	ev := Event{Type: EventDiagnostic, Message: err.Error()}
	var re *rerrors.ReactiveError
	if errors.As(err, &re) {
		ev.Code = re.Code
		ev.Message = re.Message
	}
	o.s.record(ev)
}
