// Package reactive provides fine-grained dependency tracking over plain Go
// data.
//
// Mutable state lives in ordinary maps and slices. Wrapping it in a handle
// intercepts every read and write: reads made while an effect runs subscribe
// that effect to the (object, key) pair, and writes that change a value
// re-run exactly the subscribed effects.
//
// # Handles
//
// Objects are map[string]any values and arrays are *[]any values:
//
//	state := reactive.Reactive(map[string]any{"count": 1})
//	state.Get("count")     // Read (subscribes the running effect)
//	state.Set("count", 2)  // Write (re-runs subscribers when the value changed)
//
// Readonly, ShallowReactive and ShallowReadonly build the other three views.
// Nested maps and arrays are wrapped lazily on access. Wrapping the same raw
// object twice in the same mode returns the same handle.
//
// # Effects
//
// Effect runs a function and re-runs it whenever something it read changes:
//
//	runner := reactive.Effect(func() {
//	    fmt.Println("count is", state.Get("count"))
//	})
//	state.Set("count", 3) // prints "count is 3"
//	reactive.Stop(runner) // no further re-runs
//
// WithScheduler replaces the re-run with a caller-defined action; Queued
// defers re-runs into a Queue that the caller flushes.
//
// # Derived values
//
// Ref is a single reactive slot and Computed is a lazily recomputed, cached
// derivation:
//
//	count := reactive.NewRef(1)
//	double := reactive.NewComputed(func() int { return count.Value().(int) * 2 })
//	double.Value() // 2, recomputed only after count changes
//
// # Runtimes and threads
//
// A Runtime owns one dependency graph and one set of handle caches. The free
// functions use the process-wide default runtime. Graph bookkeeping is
// guarded by mutexes and the running-effect stack is kept per goroutine, but
// the raw maps and slices themselves are owned by the caller and must not be
// mutated from several goroutines at once.
package reactive
