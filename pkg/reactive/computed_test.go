package reactive

import "testing"

func TestComputed_HappyPath(t *testing.T) {
	rt, _ := newTestRuntime(t)
	data := rt.Reactive(obj("count", 1))
	double := ComputedOn(rt, func() int { return data.Get("count").(int) * 2 })

	if got := double.Value(); got != 2 {
		t.Errorf("Value() = %d, want 2", got)
	}
}

func TestComputed_LazyAndCached(t *testing.T) {
	rt, _ := newTestRuntime(t)
	data := rt.Reactive(obj("count", 1))

	calls := 0
	double := ComputedOn(rt, func() int {
		calls++
		return data.Get("count").(int) * 2
	})

	if calls != 0 || !double.Dirty() {
		t.Fatalf("getter ran before the first read")
	}

	double.Value()
	double.Value()
	double.Peek()
	if calls != 1 {
		t.Fatalf("calls = %d after repeated reads, want 1", calls)
	}

	data.Set("count", 2)
	data.Set("count", 3)
	if calls != 1 {
		t.Errorf("getter ran eagerly on write: calls = %d", calls)
	}
	if !double.Dirty() {
		t.Errorf("Dirty() = false after upstream write")
	}

	if got := double.Value(); got != 6 {
		t.Errorf("Value() = %d, want 6", got)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestComputed_DrivesEffects(t *testing.T) {
	rt, _ := newTestRuntime(t)
	data := rt.Reactive(obj("count", 1))
	double := ComputedOn(rt, func() int { return data.Get("count").(int) * 2 })

	seen := 0
	runs := 0
	rt.Effect(func() {
		runs++
		seen = double.Value()
	})

	data.Set("count", 5)
	if seen != 10 {
		t.Errorf("seen = %d, want 10", seen)
	}
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestComputed_Chained(t *testing.T) {
	rt, _ := newTestRuntime(t)
	count := rt.Ref(1)
	double := ComputedOn(rt, func() int { return count.Value().(int) * 2 })
	quad := ComputedOn(rt, func() int { return double.Value() * 2 })

	seen := 0
	rt.Effect(func() { seen = quad.Value() })
	if seen != 4 {
		t.Fatalf("seen = %d, want 4", seen)
	}

	count.Set(3)
	if seen != 12 {
		t.Errorf("seen = %d, want 12", seen)
	}
}

func TestComputed_EffectReadingUpstreamRunsOncePerWrite(t *testing.T) {
	rt, _ := newTestRuntime(t)
	data := rt.Reactive(obj("count", 1))
	double := ComputedOn(rt, func() int { return data.Get("count").(int) * 2 })

	runs := 0
	var count, doubled int
	rt.Effect(func() {
		runs++
		count = data.Get("count").(int)
		doubled = double.Value()
	})

	data.Set("count", 2)
	if runs != 2 {
		t.Errorf("runs after one write = %d, want 2", runs)
	}
	if count != 2 || doubled != 4 {
		t.Errorf("seen (%d, %d), want (2, 4)", count, doubled)
	}

	data.Set("count", 3)
	if runs != 3 {
		t.Errorf("runs after two writes = %d, want 3", runs)
	}
}

func TestComputed_ChainedAndUpstreamRunsOncePerWrite(t *testing.T) {
	rt, _ := newTestRuntime(t)
	count := rt.Ref(1)
	double := ComputedOn(rt, func() int { return count.Value().(int) * 2 })
	quad := ComputedOn(rt, func() int { return double.Value() * 2 })

	runs := 0
	rt.Effect(func() {
		runs++
		_ = quad.Value()
		_ = double.Value()
		_ = count.Value()
	})

	count.Set(2)
	if runs != 2 {
		t.Errorf("runs after one write = %d, want 2", runs)
	}
}

func TestComputed_SchedulerCalledOncePerWrite(t *testing.T) {
	rt, _ := newTestRuntime(t)
	data := rt.Reactive(obj("count", 1))
	double := ComputedOn(rt, func() int { return data.Get("count").(int) * 2 })

	scheduled := 0
	rt.Effect(func() {
		_ = data.Get("count")
		_ = double.Value()
	}, WithScheduler(func() { scheduled++ }))

	data.Set("count", 2)
	if scheduled != 1 {
		t.Errorf("scheduler calls = %d, want 1", scheduled)
	}
}

func TestComputed_Stop(t *testing.T) {
	rt, _ := newTestRuntime(t)
	count := rt.Ref(1)
	c := ComputedOn(rt, func() int { return count.Value().(int) })

	c.Value()
	c.Stop()
	count.Set(2)
	if got := c.Value(); got != 1 {
		t.Errorf("Value() = %d after stop, want cached 1", got)
	}
	if c.Effect().Active() {
		t.Errorf("effect still active")
	}
	if c.Dep() == nil {
		t.Errorf("Dep() = nil")
	}
}

func TestNewComputed_DefaultRuntime(t *testing.T) {
	data := Reactive(obj("count", 2))
	double := NewComputed(func() int { return data.Get("count").(int) * 2 })
	if got := double.Value(); got != 4 {
		t.Errorf("Value() = %d, want 4", got)
	}
	data.Set("count", 3)
	if got := double.Value(); got != 6 {
		t.Errorf("Value() = %d, want 6", got)
	}
}
