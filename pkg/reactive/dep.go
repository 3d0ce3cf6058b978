package reactive

import (
	"fmt"
	"sync"
)

// TriggerOp classifies a write before it is propagated.
type TriggerOp uint8

const (
	// TriggerSet overwrote an existing key.
	TriggerSet TriggerOp = iota + 1
	// TriggerAdd introduced a new key or array index.
	TriggerAdd
	// TriggerDelete removed a key.
	TriggerDelete
)

// String returns a human-readable name for the operation.
func (op TriggerOp) String() string {
	switch op {
	case TriggerSet:
		return "set"
	case TriggerAdd:
		return "add"
	case TriggerDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// SpecialKey is a pseudo-key in the dependency graph. Its type keeps it apart
// from a string property of the same name.
type SpecialKey string

const (
	// IterateKey is subscribed by key enumeration of plain objects.
	IterateKey SpecialKey = "iterate"
	// LengthKey is subscribed by length reads and enumeration of arrays.
	LengthKey SpecialKey = "length"
	// ValueKey labels the single slot of refs and computed values.
	ValueKey SpecialKey = "value"
)

// Dep is the set of effects subscribed to one (object, key) pair, or to the
// single slot of a ref. Iteration follows insertion order.
type Dep struct {
	key any

	mu      sync.Mutex
	effects []*ReactiveEffect
	index   map[*ReactiveEffect]int
}

// NewDep returns an empty subscriber set labelled with key.
func NewDep(key any) *Dep {
	return &Dep{key: key}
}

// Key returns the label the set was created with.
func (d *Dep) Key() any {
	return d.key
}

// Len returns the number of subscribed effects.
func (d *Dep) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.effects)
}

// add subscribes e and reports whether it was not already a member.
func (d *Dep) add(e *ReactiveEffect) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.index[e]; ok {
		return false
	}
	if d.index == nil {
		d.index = make(map[*ReactiveEffect]int)
	}
	d.index[e] = len(d.effects)
	d.effects = append(d.effects, e)
	return true
}

func (d *Dep) remove(e *ReactiveEffect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i, ok := d.index[e]
	if !ok {
		return
	}
	delete(d.index, e)
	copy(d.effects[i:], d.effects[i+1:])
	d.effects[len(d.effects)-1] = nil
	d.effects = d.effects[:len(d.effects)-1]
	for j := i; j < len(d.effects); j++ {
		d.index[d.effects[j]] = j
	}
}

func (d *Dep) has(e *ReactiveEffect) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.index[e]
	return ok
}

func (d *Dep) snapshot() []*ReactiveEffect {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*ReactiveEffect(nil), d.effects...)
}

func (d *Dep) clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.effects = nil
	d.index = nil
}

// target is the graph entry for one raw object.
type target struct {
	id     uint64
	object map[string]any
	array  *[]any

	// proto is the handle reads fall back to for keys the object lacks.
	proto *Proxy

	// deps maps a property key (string, int index or SpecialKey) to its
	// subscribers. Guarded by Runtime.mu.
	deps map[any]*Dep
}

func newTarget(raw any) *target {
	t := &target{id: nextID()}
	switch x := raw.(type) {
	case map[string]any:
		t.object = x
	case *[]any:
		t.array = x
	}
	return t
}

func (t *target) raw() any {
	if t.array != nil {
		return t.array
	}
	return t.object
}

func (t *target) isArray() bool {
	return t.array != nil
}

// Track subscribes the active effect to key of the raw object. It is a no-op
// when nothing is tracking. A *Proxy is accepted in place of its raw object.
func (rt *Runtime) Track(raw any, key any) {
	if p, ok := raw.(*Proxy); ok {
		raw = p.Raw()
	}
	if trackingEffect() == nil {
		return
	}
	if t := rt.targetOf(raw, true); t != nil {
		rt.track(t, key)
	}
}

func (rt *Runtime) track(t *target, key any) {
	e := trackingEffect()
	if e == nil {
		return
	}

	rt.mu.Lock()
	if t.deps == nil {
		t.deps = make(map[any]*Dep)
	}
	d, ok := t.deps[key]
	if !ok {
		d = NewDep(key)
		t.deps[key] = d
	}
	rt.mu.Unlock()

	rt.trackEffects(d, e)
}

// TrackEffects subscribes the active effect to d. Refs and computed values
// use it for their single slot.
func (rt *Runtime) TrackEffects(d *Dep) {
	if e := trackingEffect(); e != nil {
		rt.trackEffects(d, e)
	}
}

func (rt *Runtime) trackEffects(d *Dep, e *ReactiveEffect) {
	// An effect stopped during its own run keeps running but stops tracking.
	if !e.Active() || !d.add(e) {
		return
	}
	e.recordDep(d)

	if DebugMode || Debug.LogTracking {
		rt.logger.Debug("track", "effect", e.Name(), "key", fmt.Sprint(d.key))
	}
	for _, o := range rt.observersSnapshot() {
		o.OnTrack(e, d.key)
	}
}

// Trigger notifies the subscribers of key of the raw object as if a write of
// kind op had happened. A *Proxy is accepted in place of its raw object.
func (rt *Runtime) Trigger(raw any, key any, op TriggerOp) {
	if p, ok := raw.(*Proxy); ok {
		raw = p.Raw()
	}
	if t := rt.targetOf(raw, false); t != nil {
		rt.trigger(t, op, key)
	}
}

// trigger collects the subscribers of keys plus the structural pseudo-keys
// implied by op, and notifies each effect once.
func (rt *Runtime) trigger(t *target, op TriggerOp, keys ...any) {
	rt.mu.Lock()
	if len(t.deps) == 0 {
		rt.mu.Unlock()
		return
	}
	var deps []*Dep
	collect := func(key any) {
		if d, ok := t.deps[key]; ok {
			deps = append(deps, d)
		}
	}
	for _, k := range keys {
		collect(k)
	}
	if op == TriggerAdd && t.isArray() {
		collect(LengthKey)
	}
	if op == TriggerAdd || op == TriggerDelete {
		collect(IterateKey)
	}
	rt.mu.Unlock()

	var label any
	if len(keys) > 0 {
		label = keys[0]
	}

	seen := make(map[*ReactiveEffect]bool)
	var effects []*ReactiveEffect
	for _, d := range deps {
		for _, e := range d.snapshot() {
			if !seen[e] {
				seen[e] = true
				effects = append(effects, e)
			}
		}
	}
	rt.notify(effects, op, label)
}

// TriggerEffects notifies every subscriber of d.
func (rt *Runtime) TriggerEffects(d *Dep) {
	rt.notify(d.snapshot(), TriggerSet, d.key)
}

// notify runs or schedules effects. Computed values are invalidated before
// plain effects run so the effects read fresh values. The effect currently
// running on this goroutine and stopped effects are skipped.
//
// Invalidating a computed value notifies its own subscribers. A plain effect
// reached that way is not notified again by this pass.
func (rt *Runtime) notify(effects []*ReactiveEffect, op TriggerOp, key any) {
	current := activeEffect()
	var computed, plain []*ReactiveEffect
	for _, e := range effects {
		if e == current || !e.Active() {
			continue
		}
		if e.computed {
			computed = append(computed, e)
		} else {
			plain = append(plain, e)
		}
	}

	var reached map[*ReactiveEffect]bool
	if len(computed) > 0 {
		reached = invalidateAll(computed)
	}

	if DebugMode || Debug.LogTracking {
		rt.logger.Debug("trigger", "op", op.String(), "key", fmt.Sprint(key), "effects", len(computed)+len(plain))
	}
	for _, o := range rt.observersSnapshot() {
		o.OnTrigger(op, key, len(computed)+len(plain))
	}

	for _, e := range plain {
		// An earlier effect in this pass may have stopped it.
		if reached[e] || !e.Active() {
			continue
		}
		markNotified(e)
		e.sched.notify(e)
	}
}

// invalidateAll notifies computed effects and returns the plain effects their
// invalidation reached.
func invalidateAll(computed []*ReactiveEffect) map[*ReactiveEffect]bool {
	ctx := acquireTrackingContext()
	reached := ctx.pushNotifyScope()
	defer func() {
		ctx.popNotifyScope()
		releaseTrackingContext(ctx)
	}()
	for _, e := range computed {
		e.sched.notify(e)
	}
	return reached
}
