package reactive

import (
	"sync"
)

// refLike is implemented by Ref and Computed.
type refLike interface {
	refValue() any
	setRefValue(v any)
}

// readonlyRef marks refs that reject writes.
type readonlyRef interface {
	refLike
	isReadonlyRef()
}

// Ref is a single reactive slot. Reading Value subscribes the active effect;
// Set notifies subscribers when the value actually changes.
//
// Object values are stored raw and exposed as reactive handles unless the
// ref is shallow.
type Ref struct {
	rt  *Runtime
	dep *Dep

	mu      sync.Mutex
	raw     any
	val     any
	shallow bool
}

func newRef(rt *Runtime, v any, shallow bool) *Ref {
	r := &Ref{rt: rt, dep: NewDep(ValueKey), shallow: shallow}
	r.raw, r.val = r.convert(v)
	return r
}

// convert returns the raw value to compare against and the value to expose.
// Readonly and shallow handles are kept as given.
func (r *Ref) convert(v any) (raw, val any) {
	if r.shallow || IsShallow(v) || IsReadonly(v) {
		return v, v
	}
	raw = ToRaw(v)
	return raw, r.rt.toReactive(raw)
}

// Ref creates a ref on this runtime. A *Ref is returned unchanged.
func (rt *Runtime) Ref(v any) *Ref {
	if r, ok := v.(*Ref); ok {
		return r
	}
	return newRef(rt, v, false)
}

// ShallowRef creates a ref whose value is stored as given.
func (rt *Runtime) ShallowRef(v any) *Ref {
	if r, ok := v.(*Ref); ok {
		return r
	}
	return newRef(rt, v, true)
}

// NewRef creates a ref on the default runtime.
//
// Example:
//
//	count := reactive.NewRef(0)
//	reactive.Effect(func() { fmt.Println(count.Value()) })
//	count.Set(1) // prints 1
func NewRef(v any) *Ref {
	return Default().Ref(v)
}

// NewShallowRef creates a shallow ref on the default runtime.
func NewShallowRef(v any) *Ref {
	return Default().ShallowRef(v)
}

// Value returns the current value and subscribes the active effect.
func (r *Ref) Value() any {
	r.rt.TrackEffects(r.dep)
	return r.Peek()
}

// Peek returns the current value without subscribing.
func (r *Ref) Peek() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.val
}

// Set stores v and notifies subscribers if it differs from the current
// raw value.
func (r *Ref) Set(v any) {
	raw, val := r.convert(v)

	r.mu.Lock()
	if !hasChanged(raw, r.raw) {
		r.mu.Unlock()
		return
	}
	r.raw, r.val = raw, val
	r.mu.Unlock()

	r.rt.TriggerEffects(r.dep)
}

// Update sets the value to fn applied to the current value. The read does
// not subscribe.
func (r *Ref) Update(fn func(any) any) {
	r.Set(fn(r.Peek()))
}

// IsShallow reports whether the ref stores values unwrapped.
func (r *Ref) IsShallow() bool {
	return r.shallow
}

// Dep returns the ref's dependency set.
func (r *Ref) Dep() *Dep {
	return r.dep
}

func (r *Ref) refValue() any      { return r.Value() }
func (r *Ref) setRefValue(v any) { r.Set(v) }

// TriggerRef notifies the subscribers of r without changing its value.
// It is used after mutating the inside of a shallow ref's value.
func TriggerRef(r *Ref) {
	if r != nil {
		r.rt.TriggerEffects(r.dep)
	}
}

// IsRef reports whether v is a Ref or a Computed.
func IsRef(v any) bool {
	_, ok := v.(refLike)
	return ok
}

// UnRef returns the value of a ref, or v itself.
func UnRef(v any) any {
	if r, ok := v.(refLike); ok {
		return r.refValue()
	}
	return v
}

// Record is a keyed collection of values. *Proxy implements it.
type Record interface {
	Get(key string) any
	Set(key string, value any) bool
	Has(key string) bool
	Keys() []string
}

// plainRecord adapts a map to Record.
type plainRecord map[string]any

func (m plainRecord) Get(key string) any { return m[key] }

func (m plainRecord) Set(key string, value any) bool {
	m[key] = value
	return true
}

func (m plainRecord) Has(key string) bool {
	_, ok := m[key]
	return ok
}

func (m plainRecord) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// refsProxy unwraps ref-valued entries on read and writes into them on set.
type refsProxy struct {
	src Record
}

func (p refsProxy) Get(key string) any {
	return UnRef(p.src.Get(key))
}

func (p refsProxy) Set(key string, value any) bool {
	if old, ok := p.src.Get(key).(refLike); ok && !IsRef(value) {
		old.setRefValue(value)
		return true
	}
	return p.src.Set(key, value)
}

func (p refsProxy) Has(key string) bool { return p.src.Has(key) }
func (p refsProxy) Keys() []string      { return p.src.Keys() }

// ProxyRefs returns a view over obj in which refs read as their values and
// writing a plain value into a ref slot updates the ref.
//
// obj may be a map[string]any, a Record or a handle. Deep mutable handles
// already behave this way and are returned as-is. Other values log
// diagnostic R001 and return nil.
func (rt *Runtime) ProxyRefs(obj any) Record {
	switch x := obj.(type) {
	case *Proxy:
		if x.IsArray() {
			break
		}
		if x.IsReactive() && !x.IsShallow() {
			return x
		}
		return refsProxy{src: x}
	case map[string]any:
		if x != nil {
			return refsProxy{src: plainRecord(x)}
		}
	case Record:
		return refsProxy{src: x}
	}
	rt.warn(codeNotObject, "proxyRefs", nil)
	return nil
}

// ProxyRefs is Runtime.ProxyRefs on the default runtime.
func ProxyRefs(obj any) Record {
	return Default().ProxyRefs(obj)
}
