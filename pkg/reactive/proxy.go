package reactive

import (
	"strconv"
)

// Proxy is a wrapped handle over one raw object or array. Reads through a
// reactive handle are tracked and writes trigger the effects that read them.
//
// Proxies are created by Reactive, Readonly, ShallowReactive and
// ShallowReadonly; for a given raw value and mode the same *Proxy is
// returned every time.
//
// Raw values are not synchronized. Callers that write the same object from
// several goroutines must coordinate those writes themselves.
type Proxy struct {
	rt *Runtime
	t  *target
	h  *handlers

	// view marks a readonly handle created over a mutable handle. Reads
	// through it are still tracked.
	view bool
}

// IsReactive reports whether the handle accepts writes.
func (p *Proxy) IsReactive() bool { return !p.h.readonly }

// IsReadonly reports whether writes through the handle are rejected.
func (p *Proxy) IsReadonly() bool { return p.h.readonly }

// IsShallow reports whether nested values are returned unwrapped.
func (p *Proxy) IsShallow() bool { return p.h.shallow }

// IsArray reports whether the handle wraps an array.
func (p *Proxy) IsArray() bool { return p.t.isArray() }

// Raw returns the wrapped map[string]any or *[]any.
func (p *Proxy) Raw() any { return p.t.raw() }

// Runtime returns the runtime the handle tracks against.
func (p *Proxy) Runtime() *Runtime { return p.rt }

// tracks reports whether reads through p subscribe the active effect.
func (p *Proxy) tracks() bool {
	return !p.h.readonly || p.view
}

func (p *Proxy) requireObject(op string) bool {
	if p.t.isArray() {
		p.rt.warn(codeUnsupportedKind, op, nil)
		return false
	}
	return true
}

func (p *Proxy) requireArray(op string) bool {
	if !p.t.isArray() {
		p.rt.warn(codeUnsupportedKind, op, nil)
		return false
	}
	return true
}

// arrayKey parses an array property name. ok is false for names that are
// neither "length" nor a decimal index.
func arrayKey(key string) (index int, isLength, ok bool) {
	if key == string(LengthKey) {
		return 0, true, true
	}
	i, err := strconv.Atoi(key)
	if err != nil {
		return 0, false, false
	}
	return i, false, true
}

// Get reads a property. Missing keys fall back to the prototype handle.
// Nested objects come back wrapped in the same mode; refs are unwrapped.
//
// On arrays, Get accepts "length" and decimal indices.
func (p *Proxy) Get(key string) any {
	if p.t.isArray() {
		i, isLength, ok := arrayKey(key)
		switch {
		case !ok:
			p.rt.warn(codeUnsupportedKind, "get", key)
			return nil
		case isLength:
			return p.h.length(p)
		default:
			return p.h.getIndex(p, i)
		}
	}
	return p.h.get(p, key)
}

// Set writes a property and reports whether the write was accepted.
// Writes through readonly handles are ignored with a warning but still
// report true.
//
// On arrays, Set accepts "length" with an int value and decimal indices.
func (p *Proxy) Set(key string, value any) bool {
	if p.t.isArray() {
		i, isLength, ok := arrayKey(key)
		switch {
		case !ok:
			p.rt.warn(codeUnsupportedKind, "set", key)
			return false
		case isLength:
			n, ok := value.(int)
			if !ok {
				p.rt.warn(codeInvalidIndex, "set length", value)
				return false
			}
			return p.h.setLength(p, n)
		default:
			return p.h.setIndex(p, i, value)
		}
	}
	return p.h.set(p, key, value, p)
}

// Has reports whether key exists on the object or its prototype chain.
func (p *Proxy) Has(key string) bool {
	return p.h.has(p, key)
}

// Delete removes an own property.
func (p *Proxy) Delete(key string) bool {
	return p.h.deleteProperty(p, key)
}

// Keys returns the own keys. Reading them subscribes to additions and
// deletions but not to overwrites.
func (p *Proxy) Keys() []string {
	return p.h.ownKeys(p)
}

// Child returns the nested handle stored under key, or nil if the value
// is not an object.
func (p *Proxy) Child(key string) *Proxy {
	c, _ := p.Get(key).(*Proxy)
	return c
}

// Update reads key and writes back fn's result.
func (p *Proxy) Update(key string, fn func(any) any) bool {
	return p.Set(key, fn(p.Get(key)))
}

// SetPrototype makes reads of missing keys fall back to proto. Passing nil
// clears the prototype. Both handles must wrap objects and the chain may
// not loop.
func (p *Proxy) SetPrototype(proto *Proxy) bool {
	if !p.requireObject("set prototype") {
		return false
	}
	if proto != nil {
		if !proto.requireObject("set prototype") {
			return false
		}
		for q := proto; q != nil; q = q.Prototype() {
			if q.t == p.t {
				p.rt.warn(codeUnsupportedKind, "set prototype", "cycle")
				return false
			}
		}
	}

	p.rt.mu.Lock()
	defer p.rt.mu.Unlock()
	p.t.proto = proto
	return true
}

// Prototype returns the handle set with SetPrototype.
func (p *Proxy) Prototype() *Proxy {
	p.rt.mu.Lock()
	defer p.rt.mu.Unlock()
	return p.t.proto
}

// inChain reports, without tracking, whether key is defined on p or any
// of its prototypes.
func (p *Proxy) inChain(key string) bool {
	for q := p; q != nil; q = q.Prototype() {
		if _, ok := q.t.object[key]; ok {
			return true
		}
	}
	return false
}
