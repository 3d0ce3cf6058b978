package reactive

import (
	"maps"
	"slices"
	"strconv"
)

// handlers is one interception table. The four tables differ only in the
// readonly and shallow flags.
type handlers struct {
	readonly bool
	shallow  bool
}

var (
	mutableHandlers         = &handlers{}
	readonlyHandlers        = &handlers{readonly: true}
	shallowReactiveHandlers = &handlers{shallow: true}
	shallowReadonlyHandlers = &handlers{readonly: true, shallow: true}
)

func handlersFor(m mode) *handlers {
	switch m {
	case modeReadonly:
		return readonlyHandlers
	case modeShallowReactive:
		return shallowReactiveHandlers
	case modeShallowReadonly:
		return shallowReadonlyHandlers
	default:
		return mutableHandlers
	}
}

// wrap converts a value read from the raw object into what the handle
// returns: raw under shallow tables, ref contents for object properties,
// and lazily wrapped children otherwise.
func (h *handlers) wrap(p *Proxy, v any, unwrapRefs bool) any {
	if h.shallow {
		return v
	}
	if unwrapRefs {
		if r, ok := v.(refLike); ok {
			return r.refValue()
		}
	}
	if !isObject(v) {
		return v
	}
	if h.readonly {
		return p.rt.createReactiveObject(v, modeReadonly, p.view)
	}
	return p.rt.createReactiveObject(v, modeReactive, false)
}

// storable converts a value written through a non-shallow handle into what
// is stored in the raw object. Mutable handles are stored as their raw
// object; readonly handles are kept so the readonly view survives.
func storable(v any) any {
	if p, ok := v.(*Proxy); ok && !p.IsReadonly() {
		return p.Raw()
	}
	return v
}

func (h *handlers) get(p *Proxy, key string) any {
	t := p.t
	if p.tracks() {
		p.rt.track(t, key)
	}
	v, ok := t.object[key]
	if !ok {
		if proto := p.Prototype(); proto != nil {
			return proto.h.get(proto, key)
		}
		return nil
	}
	return h.wrap(p, v, true)
}

func (h *handlers) getIndex(p *Proxy, i int) any {
	t := p.t
	if p.tracks() {
		p.rt.track(t, i)
	}
	arr := *t.array
	if i < 0 || i >= len(arr) {
		return nil
	}
	return h.wrap(p, arr[i], false)
}

func (h *handlers) length(p *Proxy) int {
	if p.tracks() {
		p.rt.track(p.t, LengthKey)
	}
	return len(*p.t.array)
}

// set writes key on the object behind p. receiver is the handle the write
// was made on; it differs from p while the write walks the prototype chain,
// in which case the value lands on the receiver and p does not trigger.
func (h *handlers) set(p *Proxy, key string, value any, receiver *Proxy) bool {
	if h.readonly {
		p.rt.warn(codeReadonlyWrite, "set", key)
		return true
	}

	t := p.t
	old, had := t.object[key]
	if !h.shallow {
		value = storable(value)
		if r, ok := old.(refLike); ok && !IsRef(value) {
			r.setRefValue(value)
			return true
		}
	}

	if !had {
		if proto := p.Prototype(); proto != nil && proto.inChain(key) {
			proto.h.set(proto, key, value, receiver)
			if receiver == p {
				if _, ok := t.object[key]; ok {
					p.rt.trigger(t, TriggerAdd, key)
				}
			}
			return true
		}
	}

	if receiver != p {
		receiver.t.object[key] = value
		return true
	}

	t.object[key] = value
	if !had {
		p.rt.trigger(t, TriggerAdd, key)
	} else if hasChanged(value, old) {
		p.rt.trigger(t, TriggerSet, key)
	}
	return true
}

// setIndex writes one array element. Writing past the end grows the array,
// padding with nil, and counts as an addition.
func (h *handlers) setIndex(p *Proxy, i int, value any) bool {
	if h.readonly {
		p.rt.warn(codeReadonlyWrite, "set", i)
		return true
	}
	if i < 0 {
		p.rt.warn(codeInvalidIndex, "set", i)
		return false
	}
	if !h.shallow {
		value = storable(value)
	}

	t := p.t
	arr := *t.array
	if i < len(arr) {
		old := arr[i]
		arr[i] = value
		if hasChanged(value, old) {
			p.rt.trigger(t, TriggerSet, i)
		}
		return true
	}

	for len(arr) < i {
		arr = append(arr, nil)
	}
	*t.array = append(arr, value)
	p.rt.trigger(t, TriggerAdd, i)
	return true
}

// setLength truncates or pads the array. Subscribers of the length and of
// every removed index are notified.
func (h *handlers) setLength(p *Proxy, n int) bool {
	if h.readonly {
		p.rt.warn(codeReadonlyWrite, "set", LengthKey)
		return true
	}
	if n < 0 {
		p.rt.warn(codeInvalidIndex, "set length", n)
		return false
	}

	t := p.t
	arr := *t.array
	old := len(arr)
	if n == old {
		return true
	}

	keys := []any{LengthKey}
	if n < old {
		for i := n; i < old; i++ {
			keys = append(keys, i)
			arr[i] = nil
		}
		*t.array = arr[:n]
	} else {
		for len(arr) < n {
			arr = append(arr, nil)
		}
		*t.array = arr
	}
	p.rt.trigger(t, TriggerSet, keys...)
	return true
}

func (h *handlers) has(p *Proxy, key string) bool {
	t := p.t
	if t.isArray() {
		if key == string(LengthKey) {
			return true
		}
		i, err := strconv.Atoi(key)
		if err != nil {
			return false
		}
		if p.tracks() {
			p.rt.track(t, i)
		}
		return i >= 0 && i < len(*t.array)
	}

	if p.tracks() {
		p.rt.track(t, key)
	}
	if _, ok := t.object[key]; ok {
		return true
	}
	if proto := p.Prototype(); proto != nil {
		return proto.h.has(proto, key)
	}
	return false
}

// ownKeys lists own keys in a stable order: indices for arrays, sorted
// names for objects.
func (h *handlers) ownKeys(p *Proxy) []string {
	t := p.t
	if t.isArray() {
		if p.tracks() {
			p.rt.track(t, LengthKey)
		}
		keys := make([]string, len(*t.array))
		for i := range keys {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	}

	if p.tracks() {
		p.rt.track(t, IterateKey)
	}
	return slices.Sorted(maps.Keys(t.object))
}

func (h *handlers) deleteProperty(p *Proxy, key string) bool {
	if h.readonly {
		p.rt.warn(codeReadonlyDelete, "delete", key)
		return true
	}
	t := p.t
	if t.isArray() {
		p.rt.warn(codeArrayDelete, "delete", key)
		return false
	}
	if _, had := t.object[key]; !had {
		return true
	}
	delete(t.object, key)
	p.rt.trigger(t, TriggerDelete, key)
	return true
}
