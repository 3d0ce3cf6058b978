package reactive

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// mode selects one of the four interception tables.
type mode uint8

const (
	modeReactive mode = iota
	modeReadonly
	modeShallowReactive
	modeShallowReadonly
	modeCount
)

func modeFor(readonly, shallow bool) mode {
	switch {
	case readonly && shallow:
		return modeShallowReadonly
	case readonly:
		return modeReadonly
	case shallow:
		return modeShallowReactive
	default:
		return modeReactive
	}
}

// cacheKey identifies a cached handle. view is set for readonly handles
// created over a mutable handle, which keep tracking reads.
type cacheKey struct {
	ptr  uintptr
	view bool
}

// Runtime is one reactive universe: a dependency graph plus the identity
// caches of the handles created over it. Two runtimes never share graph
// entries, so the same raw object wrapped by each is tracked twice.
//
// Most programs use the package-level functions, which operate on Default().
type Runtime struct {
	name   string
	logger *slog.Logger

	// mu guards targets, caches and each target's deps map.
	mu      sync.Mutex
	targets map[uintptr]*target
	caches  [modeCount]map[cacheKey]*Proxy

	obsMu     sync.RWMutex
	observers []Observer
}

// RuntimeOption configures a Runtime.
type RuntimeOption interface {
	isRuntimeOption()
	applyRuntime(rt *Runtime)
}

type runtimeOptionFunc func(*Runtime)

func (f runtimeOptionFunc) isRuntimeOption()         {}
func (f runtimeOptionFunc) applyRuntime(rt *Runtime) { f(rt) }

// WithLogger sets the logger used for diagnostics and debug output.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return runtimeOptionFunc(func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	})
}

// WithName names the runtime. The name is attached to every log record.
func WithName(name string) RuntimeOption {
	return runtimeOptionFunc(func(rt *Runtime) {
		rt.name = name
	})
}

// WithObservers registers instrumentation observers at construction.
func WithObservers(obs ...Observer) RuntimeOption {
	return runtimeOptionFunc(func(rt *Runtime) {
		rt.observers = append(rt.observers, obs...)
	})
}

// NewRuntime creates an empty reactive universe.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	rt := &Runtime{
		name:    "default",
		logger:  slog.Default(),
		targets: make(map[uintptr]*target),
	}
	for i := range rt.caches {
		rt.caches[i] = make(map[cacheKey]*Proxy)
	}
	for _, opt := range opts {
		opt.applyRuntime(rt)
	}
	rt.logger = rt.logger.With("component", "reactive", "runtime", rt.name)
	return rt
}

var defaultRuntime atomic.Pointer[Runtime]

func init() {
	defaultRuntime.Store(NewRuntime())
}

// Default returns the runtime used by the package-level functions.
func Default() *Runtime {
	return defaultRuntime.Load()
}

// SetDefault replaces the default runtime. Handles created before the call
// keep notifying the runtime they were created on.
func SetDefault(rt *Runtime) {
	if rt != nil {
		defaultRuntime.Store(rt)
	}
}

// Name returns the runtime's name.
func (rt *Runtime) Name() string {
	return rt.name
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// Use registers additional observers.
func (rt *Runtime) Use(obs ...Observer) {
	rt.obsMu.Lock()
	defer rt.obsMu.Unlock()
	rt.observers = append(rt.observers, obs...)
}

// observersSnapshot returns the current observers without holding the lock.
func (rt *Runtime) observersSnapshot() []Observer {
	rt.obsMu.RLock()
	defer rt.obsMu.RUnlock()
	if len(rt.observers) == 0 {
		return nil
	}
	return append([]Observer(nil), rt.observers...)
}

// targetOf returns the graph entry for a raw object. With create set the
// entry is made on first use; otherwise nil is returned for unknown objects.
func (rt *Runtime) targetOf(raw any, create bool) *target {
	if !isObject(raw) {
		return nil
	}
	ptr := rawPointer(raw)

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if t, ok := rt.targets[ptr]; ok {
		return t
	}
	if !create {
		return nil
	}
	t := newTarget(raw)
	rt.targets[ptr] = t
	return t
}

// Release drops the dependency graph entry and every cached handle for raw.
// Effects subscribed to raw are unsubscribed from its keys. Handles already
// held by callers keep working against the detached entry, which Stats no
// longer counts; wrapping raw again yields a new identity.
//
// Release reports whether anything was dropped.
func (rt *Runtime) Release(raw any) bool {
	if p, ok := raw.(*Proxy); ok {
		raw = p.Raw()
	}
	if !isObject(raw) {
		return false
	}
	ptr := rawPointer(raw)

	rt.mu.Lock()
	t, found := rt.targets[ptr]
	delete(rt.targets, ptr)
	for i := range rt.caches {
		for _, view := range []bool{false, true} {
			key := cacheKey{ptr: ptr, view: view}
			if _, ok := rt.caches[i][key]; ok {
				found = true
				delete(rt.caches[i], key)
			}
		}
	}
	var deps []*Dep
	if t != nil {
		for _, d := range t.deps {
			deps = append(deps, d)
		}
		t.deps = nil
	}
	rt.mu.Unlock()

	for _, d := range deps {
		for _, e := range d.snapshot() {
			e.forgetDep(d)
		}
		d.clear()
	}
	return found
}

// GraphStats summarizes the size of a runtime's dependency graph.
type GraphStats struct {
	Runtime       string `json:"runtime"`
	Targets       int    `json:"targets"`
	Keys          int    `json:"keys"`
	Subscriptions int    `json:"subscriptions"`
	Handles       int    `json:"handles"`
}

// Stats returns a snapshot of the graph's size.
func (rt *Runtime) Stats() GraphStats {
	rt.mu.Lock()
	stats := GraphStats{Runtime: rt.name, Targets: len(rt.targets)}
	var deps []*Dep
	for _, t := range rt.targets {
		stats.Keys += len(t.deps)
		for _, d := range t.deps {
			deps = append(deps, d)
		}
	}
	for i := range rt.caches {
		stats.Handles += len(rt.caches[i])
	}
	rt.mu.Unlock()

	for _, d := range deps {
		stats.Subscriptions += d.Len()
	}
	return stats
}
