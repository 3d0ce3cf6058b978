package reactive

import (
	"sync"
	"sync/atomic"
)

// Computed is a lazily evaluated, memoized value derived from reactive
// state. The getter runs on the first Value call and again only after one
// of its dependencies changed.
//
// A Computed is itself a dependency: effects that read it re-run when its
// upstream changes.
type Computed[T any] struct {
	rt     *Runtime
	dep    *Dep
	effect *ReactiveEffect
	getter func() T

	mu    sync.Mutex
	value T

	// dirty is set when the cached value is stale. It starts true.
	dirty atomic.Bool
}

// ComputedOn creates a computed value on rt.
func ComputedOn[T any](rt *Runtime, getter func() T) *Computed[T] {
	c := &Computed[T]{
		rt:     rt,
		dep:    NewDep(ValueKey),
		getter: getter,
	}
	c.dirty.Store(true)

	c.effect = newEffect(rt, c.compute)
	c.effect.computed = true
	c.effect.sched = runScheduled{fn: c.invalidate}
	return c
}

// NewComputed creates a computed value on the default runtime.
//
// Example:
//
//	state := reactive.Reactive(map[string]any{"count": 1})
//	double := reactive.NewComputed(func() int {
//	    return state.Get("count").(int) * 2
//	})
//	double.Value() // 2
func NewComputed[T any](getter func() T) *Computed[T] {
	return ComputedOn(Default(), getter)
}

func (c *Computed[T]) compute() {
	v := c.getter()
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()
}

// invalidate is the effect's scheduler: it marks the cache stale and
// notifies readers, without recomputing.
func (c *Computed[T]) invalidate() {
	if c.dirty.CompareAndSwap(false, true) {
		c.rt.TriggerEffects(c.dep)
	}
}

// Value returns the cached value, recomputing it first if stale, and
// subscribes the active effect.
func (c *Computed[T]) Value() T {
	c.rt.TrackEffects(c.dep)
	if c.dirty.CompareAndSwap(true, false) {
		c.effect.Run()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Peek returns the value without subscribing the active effect.
func (c *Computed[T]) Peek() T {
	var v T
	Untracked(func() { v = c.Value() })
	return v
}

// Dirty reports whether the next Value call will run the getter.
func (c *Computed[T]) Dirty() bool {
	return c.dirty.Load()
}

// Effect returns the effect that tracks the getter's dependencies.
func (c *Computed[T]) Effect() *ReactiveEffect {
	return c.effect
}

// Stop unsubscribes the computed from its dependencies. The last value
// stays cached.
func (c *Computed[T]) Stop() {
	c.effect.Stop()
}

// Dep returns the set of effects reading the computed value.
func (c *Computed[T]) Dep() *Dep {
	return c.dep
}

func (c *Computed[T]) refValue() any { return c.Value() }

func (c *Computed[T]) setRefValue(any) {
	c.rt.warn(codeReadonlyRef, "set", ValueKey)
}

func (c *Computed[T]) isReadonlyRef() {}
