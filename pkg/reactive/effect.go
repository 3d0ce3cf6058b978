package reactive

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// scheduling decides what a trigger does to an effect. It is fixed when the
// effect is constructed.
type scheduling interface {
	notify(e *ReactiveEffect)
}

// runDirect re-runs the effect synchronously.
type runDirect struct{}

func (runDirect) notify(e *ReactiveEffect) { e.Run() }

// runScheduled hands the effect to a caller-defined action instead.
type runScheduled struct {
	fn func()
}

func (s runScheduled) notify(*ReactiveEffect) { s.fn() }

// ReactiveEffect wraps a function whose reads are tracked. It re-runs, or
// invokes its scheduler, whenever one of those reads is written.
//
// Each run first unsubscribes from every dependency set of the previous run,
// so branches no longer taken stop notifying the effect.
type ReactiveEffect struct {
	id   uint64
	name string
	rt   *Runtime

	fn func()

	// deps are the dependency sets this effect currently belongs to.
	deps   []*Dep
	depsMu sync.Mutex

	active atomic.Bool
	sched  scheduling
	onStop func()
	lazy   bool

	// computed marks the effect behind a Computed value.
	computed bool

	runs atomic.Uint64
}

func newEffect(rt *Runtime, fn func()) *ReactiveEffect {
	e := &ReactiveEffect{
		id:    nextID(),
		rt:    rt,
		fn:    fn,
		sched: runDirect{},
	}
	e.active.Store(true)
	return e
}

// ID returns the unique identifier for this effect.
func (e *ReactiveEffect) ID() uint64 {
	return e.id
}

// Name returns the name set with EffectName, or "effect-<id>".
func (e *ReactiveEffect) Name() string {
	if e.name != "" {
		return e.name
	}
	return "effect-" + strconv.FormatUint(e.id, 10)
}

// Runtime returns the runtime the effect was created on.
func (e *ReactiveEffect) Runtime() *Runtime {
	return e.rt
}

// Active reports whether the effect has not been stopped.
func (e *ReactiveEffect) Active() bool {
	return e.active.Load()
}

// Runs returns how many tracked runs the effect has performed.
func (e *ReactiveEffect) Runs() uint64 {
	return e.runs.Load()
}

// DepCount returns the number of dependency sets the effect belongs to.
func (e *ReactiveEffect) DepCount() int {
	e.depsMu.Lock()
	defer e.depsMu.Unlock()
	return len(e.deps)
}

// Run executes the effect's function with the effect as the active one.
//
// A stopped effect still executes its function but tracks nothing. An effect
// that is already running on the current goroutine is not re-entered.
func (e *ReactiveEffect) Run() {
	if !e.active.Load() {
		e.fn()
		return
	}

	ctx := acquireTrackingContext()
	if ctx.running(e) {
		releaseTrackingContext(ctx)
		return
	}

	e.cleanupDeps()
	ctx.pushEffect(e)
	defer func() {
		ctx.popEffect()
		releaseTrackingContext(ctx)
	}()

	e.runs.Add(1)
	if DebugMode || Debug.LogEffectRuns {
		start := time.Now()
		defer func() {
			e.rt.logger.Debug("effect run", "effect", e.Name(), "run", e.runs.Load(), "duration", time.Since(start))
		}()
	}

	run := e.fn
	obs := e.rt.observersSnapshot()
	for i := len(obs) - 1; i >= 0; i-- {
		o, next := obs[i], run
		run = func() { o.OnEffectRun(e, next) }
	}
	run()
}

// Stop permanently unsubscribes the effect. OnStop runs once, on the first
// call. Stop is not reversible.
func (e *ReactiveEffect) Stop() {
	if !e.active.CompareAndSwap(true, false) {
		return
	}
	e.cleanupDeps()
	if e.onStop != nil {
		e.onStop()
	}
	for _, o := range e.rt.observersSnapshot() {
		o.OnEffectStop(e)
	}
}

// recordDep remembers that the effect belongs to d.
func (e *ReactiveEffect) recordDep(d *Dep) {
	e.depsMu.Lock()
	defer e.depsMu.Unlock()
	e.deps = append(e.deps, d)
}

// forgetDep drops d from the back-reference list without touching d.
func (e *ReactiveEffect) forgetDep(d *Dep) {
	e.depsMu.Lock()
	defer e.depsMu.Unlock()
	for i, x := range e.deps {
		if x == d {
			e.deps = append(e.deps[:i], e.deps[i+1:]...)
			return
		}
	}
}

// cleanupDeps removes the effect from every dependency set it belongs to.
func (e *ReactiveEffect) cleanupDeps() {
	e.depsMu.Lock()
	deps := e.deps
	e.deps = nil
	e.depsMu.Unlock()

	for _, d := range deps {
		d.remove(e)
	}
}

// EffectOption is an option for configuring an effect.
type EffectOption interface {
	isEffectOption()
	applyEffect(e *ReactiveEffect)
}

type effectOptionFunc func(*ReactiveEffect)

func (f effectOptionFunc) isEffectOption()               {}
func (f effectOptionFunc) applyEffect(e *ReactiveEffect) { f(e) }

// WithScheduler replaces the re-run on trigger with fn. The effect only runs
// again when fn (or the caller) invokes the runner.
//
// Example:
//
//	var pending *reactive.Runner
//	pending = reactive.Effect(render, reactive.WithScheduler(func() {
//	    frames = append(frames, pending)
//	}))
func WithScheduler(fn func()) EffectOption {
	return effectOptionFunc(func(e *ReactiveEffect) {
		if fn != nil {
			e.sched = runScheduled{fn: fn}
		}
	})
}

// OnStop registers fn to run once when the effect is stopped.
func OnStop(fn func()) EffectOption {
	return effectOptionFunc(func(e *ReactiveEffect) {
		e.onStop = fn
	})
}

// Lazy skips the first run. The caller runs the effect through its runner.
func Lazy() EffectOption {
	return effectOptionFunc(func(e *ReactiveEffect) {
		e.lazy = true
	})
}

// Queued schedules triggered runs onto q instead of running them immediately.
// Runs happen when q is flushed. A nil q leaves the effect running directly.
func Queued(q *Queue) EffectOption {
	return effectOptionFunc(func(e *ReactiveEffect) {
		if q != nil {
			e.sched = runScheduled{fn: func() { q.push(e) }}
		}
	})
}

// EffectName names the effect for logs and instrumentation.
func EffectName(name string) EffectOption {
	return effectOptionFunc(func(e *ReactiveEffect) {
		e.name = name
	})
}

// Runner is the handle returned by Effect. Calling Run re-invokes the
// effect's function.
type Runner struct {
	effect *ReactiveEffect
}

// Run executes the effect now.
func (r *Runner) Run() {
	r.effect.Run()
}

// Effect returns the underlying effect.
func (r *Runner) Effect() *ReactiveEffect {
	return r.effect
}

// Effect creates an effect on this runtime and runs it unless Lazy is given.
func (rt *Runtime) Effect(fn func(), opts ...EffectOption) *Runner {
	e := newEffect(rt, fn)
	for _, opt := range opts {
		opt.applyEffect(e)
	}
	if !e.lazy {
		e.Run()
	}
	return &Runner{effect: e}
}

// Effect creates an effect on the default runtime. The function runs
// immediately, and again whenever state it read changes.
//
// Options:
//   - WithScheduler(fn) - call fn on trigger instead of re-running
//   - OnStop(fn) - call fn once when the effect is stopped
//   - Lazy() - do not perform the first run
//   - Queued(q) - defer triggered runs to q.Flush
//   - EffectName(name) - name the effect for logs and instrumentation
//
// Example:
//
//	state := reactive.Reactive(map[string]any{"count": 0})
//	reactive.Effect(func() {
//	    fmt.Println("count is", state.Get("count"))
//	})
func Effect(fn func(), opts ...EffectOption) *Runner {
	return Default().Effect(fn, opts...)
}

// Stop permanently stops the effect behind r.
func Stop(r *Runner) {
	if r != nil {
		r.effect.Stop()
	}
}
