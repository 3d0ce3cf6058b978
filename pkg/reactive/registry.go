package reactive

// createReactiveObject returns the cached handle for raw in mode m, creating
// it on first use. view marks readonly handles made over a mutable handle.
func (rt *Runtime) createReactiveObject(raw any, m mode, view bool) *Proxy {
	key := cacheKey{ptr: rawPointer(raw), view: view}

	rt.mu.Lock()
	if p, ok := rt.caches[m][key]; ok {
		rt.mu.Unlock()
		return p
	}
	rt.mu.Unlock()

	t := rt.targetOf(raw, true)

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if p, ok := rt.caches[m][key]; ok {
		return p
	}
	p := &Proxy{rt: rt, t: t, h: handlersFor(m), view: view}
	rt.caches[m][key] = p
	return p
}

// wrapValue implements the four factories. A handle passed in is returned
// unchanged, except that asking for a readonly handle over a mutable one
// yields a tracked readonly view of the same raw object.
func (rt *Runtime) wrapValue(op string, v any, m mode) *Proxy {
	if p, ok := v.(*Proxy); ok {
		readonly := m == modeReadonly || m == modeShallowReadonly
		if readonly && !p.IsReadonly() {
			return p.rt.createReactiveObject(p.Raw(), m, true)
		}
		return p
	}
	if !isObject(v) {
		rt.warn(codeNotObject, op, nil)
		return nil
	}
	return rt.createReactiveObject(v, m, false)
}

// Reactive returns the deep mutable handle for raw.
func (rt *Runtime) Reactive(raw any) *Proxy {
	return rt.wrapValue("reactive", raw, modeReactive)
}

// Readonly returns the deep readonly handle for raw.
func (rt *Runtime) Readonly(raw any) *Proxy {
	return rt.wrapValue("readonly", raw, modeReadonly)
}

// ShallowReactive returns a handle that tracks only top-level properties.
func (rt *Runtime) ShallowReactive(raw any) *Proxy {
	return rt.wrapValue("shallowReactive", raw, modeShallowReactive)
}

// ShallowReadonly returns a handle that rejects top-level writes and
// returns nested values raw.
func (rt *Runtime) ShallowReadonly(raw any) *Proxy {
	return rt.wrapValue("shallowReadonly", raw, modeShallowReadonly)
}

// Reactive returns the mutable handle for a map[string]any or *[]any on the
// default runtime. Wrapping the same value twice returns the same handle.
// Any other value logs diagnostic R001 and returns nil; use ToReactive to
// pass such values through unchanged.
//
// Example:
//
//	state := reactive.Reactive(map[string]any{"count": 1})
//	state.Set("count", 2)
func Reactive(raw any) *Proxy {
	return Default().Reactive(raw)
}

// Readonly returns the readonly handle for raw on the default runtime.
func Readonly(raw any) *Proxy {
	return Default().Readonly(raw)
}

// ShallowReactive returns the shallow mutable handle for raw on the default
// runtime.
func ShallowReactive(raw any) *Proxy {
	return Default().ShallowReactive(raw)
}

// ShallowReadonly returns the shallow readonly handle for raw on the default
// runtime.
func ShallowReadonly(raw any) *Proxy {
	return Default().ShallowReadonly(raw)
}

// ToReactive wraps objects with Reactive and returns other values unchanged.
func ToReactive(v any) any {
	if p, ok := v.(*Proxy); ok {
		return p
	}
	if isObject(v) {
		return Reactive(v)
	}
	return v
}

// ToReadonly wraps objects with Readonly and returns other values unchanged.
func ToReadonly(v any) any {
	if p, ok := v.(*Proxy); ok {
		return p.rt.Readonly(p)
	}
	if isObject(v) {
		return Readonly(v)
	}
	return v
}

// IsReactive reports whether v is a mutable handle.
func IsReactive(v any) bool {
	p, ok := v.(*Proxy)
	return ok && p.IsReactive()
}

// IsReadonly reports whether v is a readonly handle or a computed value.
func IsReadonly(v any) bool {
	switch x := v.(type) {
	case *Proxy:
		return x.IsReadonly()
	case readonlyRef:
		return true
	}
	return false
}

// IsShallow reports whether v is a shallow handle or a shallow ref.
func IsShallow(v any) bool {
	switch x := v.(type) {
	case *Proxy:
		return x.IsShallow()
	case *Ref:
		return x.IsShallow()
	}
	return false
}

// IsProxy reports whether v is any wrapped handle.
func IsProxy(v any) bool {
	_, ok := v.(*Proxy)
	return ok
}

// ToRaw returns the raw object behind a handle, or v itself.
func ToRaw(v any) any {
	if p, ok := v.(*Proxy); ok {
		return p.Raw()
	}
	return v
}

// toReactive wraps objects on this runtime and returns other values as-is.
func (rt *Runtime) toReactive(v any) any {
	if isObject(v) {
		return rt.createReactiveObject(v, modeReactive, false)
	}
	return v
}
