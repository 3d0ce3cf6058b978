package reactive

// At returns the element at index i, wrapped like any nested value.
// Out-of-range indices return nil.
func (p *Proxy) At(i int) any {
	if !p.requireArray("at") {
		return nil
	}
	return p.h.getIndex(p, i)
}

// SetAt writes the element at index i. Writing past the end grows the array.
func (p *Proxy) SetAt(i int, value any) bool {
	if !p.requireArray("set at") {
		return false
	}
	return p.h.setIndex(p, i, value)
}

// Len returns the array length and subscribes to length changes.
func (p *Proxy) Len() int {
	if !p.requireArray("len") {
		return 0
	}
	return p.h.length(p)
}

// SetLen truncates or pads the array to n elements.
func (p *Proxy) SetLen(n int) bool {
	if !p.requireArray("set len") {
		return false
	}
	return p.h.setLength(p, n)
}

// Range calls fn for each element until fn returns false. It subscribes to
// the length and to every visited index.
func (p *Proxy) Range(fn func(i int, v any) bool) {
	if !p.requireArray("range") {
		return
	}
	for i := 0; i < p.h.length(p); i++ {
		if !fn(i, p.h.getIndex(p, i)) {
			return
		}
	}
}

// rawItems copies the raw elements without tracking.
func (p *Proxy) rawItems() []any {
	return append([]any(nil), (*p.t.array)...)
}

// rewrite replaces the array contents with items through the set table,
// with tracking paused so the effect doing the mutation does not subscribe
// to the length it reads.
func (p *Proxy) rewrite(items []any) {
	pauseTracking()
	defer resetTracking()

	for i, v := range items {
		p.h.setIndex(p, i, v)
	}
	if len(items) < len(*p.t.array) {
		p.h.setLength(p, len(items))
	}
}

func (p *Proxy) mutator(op string) bool {
	if !p.requireArray(op) {
		return false
	}
	if p.h.readonly {
		p.rt.warn(codeReadonlyWrite, op, nil)
		return false
	}
	return true
}

// Push appends values and returns the new length.
func (p *Proxy) Push(values ...any) int {
	if !p.mutator("push") {
		return len(*p.t.array)
	}
	pauseTracking()
	defer resetTracking()

	n := len(*p.t.array)
	for i, v := range values {
		p.h.setIndex(p, n+i, v)
	}
	return len(*p.t.array)
}

// Pop removes and returns the last element.
func (p *Proxy) Pop() any {
	if !p.mutator("pop") {
		return nil
	}
	items := p.rawItems()
	if len(items) == 0 {
		return nil
	}
	last := items[len(items)-1]
	p.rewrite(items[:len(items)-1])
	return p.h.wrap(p, last, false)
}

// Shift removes and returns the first element.
func (p *Proxy) Shift() any {
	if !p.mutator("shift") {
		return nil
	}
	items := p.rawItems()
	if len(items) == 0 {
		return nil
	}
	first := items[0]
	p.rewrite(items[1:])
	return p.h.wrap(p, first, false)
}

// Unshift prepends values and returns the new length.
func (p *Proxy) Unshift(values ...any) int {
	if !p.mutator("unshift") {
		return len(*p.t.array)
	}
	items := p.rawItems()
	next := make([]any, 0, len(values)+len(items))
	next = append(next, values...)
	next = append(next, items...)
	p.rewrite(next)
	return len(*p.t.array)
}

// Splice removes deleteCount elements starting at start, inserts values in
// their place and returns the removed elements. A negative start counts
// from the end.
func (p *Proxy) Splice(start, deleteCount int, values ...any) []any {
	if !p.mutator("splice") {
		return nil
	}
	items := p.rawItems()
	n := len(items)
	if start < 0 {
		start = max(n+start, 0)
	}
	start = min(start, n)
	deleteCount = min(max(deleteCount, 0), n-start)

	removed := make([]any, deleteCount)
	for i, v := range items[start : start+deleteCount] {
		removed[i] = p.h.wrap(p, v, false)
	}

	next := make([]any, 0, n-deleteCount+len(values))
	next = append(next, items[:start]...)
	next = append(next, values...)
	next = append(next, items[start+deleteCount:]...)
	p.rewrite(next)
	return removed
}

// Includes reports whether the array contains v. NaN matches NaN.
func (p *Proxy) Includes(v any) bool {
	return p.search("includes", v, sameValue, false) >= 0
}

// IndexOf returns the first index of v, or -1.
func (p *Proxy) IndexOf(v any) int {
	return p.search("index of", v, strictEqual, false)
}

// LastIndexOf returns the last index of v, or -1.
func (p *Proxy) LastIndexOf(v any) int {
	return p.search("last index of", v, strictEqual, true)
}

// search looks for v among the wrapped elements first, so a handle read
// from the array is found. Failing that it searches the raw elements for
// the raw form of v, so the raw object behind a stored element is found too.
func (p *Proxy) search(op string, v any, eq func(a, b any) bool, last bool) int {
	if !p.requireArray(op) {
		return -1
	}

	n := p.h.length(p)
	found := scan(n, last, func(i int) bool {
		return eq(p.h.getIndex(p, i), v)
	})
	if found >= 0 {
		return found
	}

	raw := ToRaw(v)
	Untracked(func() {
		arr := *p.t.array
		found = scan(len(arr), last, func(i int) bool {
			return eq(arr[i], raw)
		})
	})
	return found
}

func scan(n int, last bool, match func(i int) bool) int {
	if last {
		for i := n - 1; i >= 0; i-- {
			if match(i) {
				return i
			}
		}
		return -1
	}
	for i := 0; i < n; i++ {
		if match(i) {
			return i
		}
	}
	return -1
}
