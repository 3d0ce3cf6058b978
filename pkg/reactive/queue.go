package reactive

import (
	"fmt"
	"sync"
)

// DefaultMaxFlushPasses bounds Queue.Flush when MaxFlushPasses is unset.
const DefaultMaxFlushPasses = 100

// Queue collects effects created with the Queued option and runs them when
// flushed. An effect queued several times before a flush runs once.
//
// Queue is a scheduler the caller opts into; triggers never batch on their own.
type Queue struct {
	mu      sync.Mutex
	pending []*ReactiveEffect
	queued  map[*ReactiveEffect]bool

	// MaxFlushPasses limits how many rounds Flush runs while effects keep
	// queueing each other. Zero means DefaultMaxFlushPasses.
	MaxFlushPasses int
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{queued: make(map[*ReactiveEffect]bool)}
}

func (q *Queue) push(e *ReactiveEffect) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.queued == nil {
		q.queued = make(map[*ReactiveEffect]bool)
	}
	if q.queued[e] {
		return
	}
	q.queued[e] = true
	q.pending = append(q.pending, e)
}

// Len returns the number of queued effects.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// HasPending reports whether any effect is waiting for a flush.
func (q *Queue) HasPending() bool {
	return q.Len() > 0
}

// Flush runs queued effects in the order they were queued. Effects queued by
// the runs are handled in a further pass, until the queue is empty.
//
// If the queue is still not empty after MaxFlushPasses passes, the remaining
// effects stay queued and an error wrapping ErrFlushLimit is returned.
func (q *Queue) Flush() error {
	limit := q.MaxFlushPasses
	if limit <= 0 {
		limit = DefaultMaxFlushPasses
	}

	for pass := 0; ; pass++ {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		if pass >= limit && len(batch) > 0 {
			q.pending = batch
			q.mu.Unlock()
			return fmt.Errorf("%w: %d effects still queued after %d passes", ErrFlushLimit, len(batch), limit)
		}
		for _, e := range batch {
			delete(q.queued, e)
		}
		q.mu.Unlock()

		if len(batch) == 0 {
			return nil
		}
		for _, e := range batch {
			if e.Active() {
				e.Run()
			}
		}
	}
}
