package reactive

import (
	"runtime"
	"sync"
)

// TrackingContext holds the reactive execution state for a goroutine.
// Each goroutine has its own context so effects running on different
// goroutines never see each other as the active effect.
type TrackingContext struct {
	// activeEffect is the innermost running effect.
	// nil means reads are not tracked.
	activeEffect *ReactiveEffect

	// effectStack holds every running effect, outermost first.
	effectStack []*ReactiveEffect

	// paused suppresses tracking while internal bookkeeping reads run.
	paused bool

	// pauseStack saves paused across nested pause/enable calls.
	pauseStack []bool

	// notifyScopes collect the plain effects notified while computed values
	// are being invalidated, innermost last.
	notifyScopes []map[*ReactiveEffect]bool
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getGoroutineID returns a unique identifier for the current goroutine.
// This uses the runtime stack to extract the goroutine ID.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> "
	var id uint64
	for i := 10; i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// lookupTrackingContext returns the current goroutine's context without
// creating one. Read paths use it so goroutines that never run an effect
// leave nothing behind.
func lookupTrackingContext() *TrackingContext {
	if ctx, ok := trackingContexts.Load(getGoroutineID()); ok {
		return ctx.(*TrackingContext)
	}
	return nil
}

// acquireTrackingContext returns the current goroutine's context, creating it
// if needed. Pair every call with releaseTrackingContext.
func acquireTrackingContext() *TrackingContext {
	gid := getGoroutineID()
	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*TrackingContext)
	}
	ctx := &TrackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// releaseTrackingContext drops the goroutine's context once nothing is
// running or paused on it.
func releaseTrackingContext(ctx *TrackingContext) {
	if len(ctx.effectStack) == 0 && len(ctx.pauseStack) == 0 && len(ctx.notifyScopes) == 0 {
		trackingContexts.Delete(getGoroutineID())
	}
}

// pushEffect makes e the active effect and enables tracking for its body.
func (ctx *TrackingContext) pushEffect(e *ReactiveEffect) {
	ctx.effectStack = append(ctx.effectStack, e)
	ctx.activeEffect = e
	ctx.pauseStack = append(ctx.pauseStack, ctx.paused)
	ctx.paused = false
}

// popEffect restores the previously active effect and tracking state.
func (ctx *TrackingContext) popEffect() {
	n := len(ctx.effectStack)
	ctx.effectStack[n-1] = nil
	ctx.effectStack = ctx.effectStack[:n-1]
	if n > 1 {
		ctx.activeEffect = ctx.effectStack[n-2]
	} else {
		ctx.activeEffect = nil
	}
	ctx.restorePaused()
}

func (ctx *TrackingContext) restorePaused() {
	n := len(ctx.pauseStack)
	if n == 0 {
		ctx.paused = false
		return
	}
	ctx.paused = ctx.pauseStack[n-1]
	ctx.pauseStack = ctx.pauseStack[:n-1]
}

// pushNotifyScope starts collecting notified effects.
func (ctx *TrackingContext) pushNotifyScope() map[*ReactiveEffect]bool {
	scope := make(map[*ReactiveEffect]bool)
	ctx.notifyScopes = append(ctx.notifyScopes, scope)
	return scope
}

func (ctx *TrackingContext) popNotifyScope() {
	n := len(ctx.notifyScopes)
	ctx.notifyScopes[n-1] = nil
	ctx.notifyScopes = ctx.notifyScopes[:n-1]
}

// markNotified records e in every open scope on the calling goroutine.
func markNotified(e *ReactiveEffect) {
	ctx := lookupTrackingContext()
	if ctx == nil {
		return
	}
	for _, scope := range ctx.notifyScopes {
		scope[e] = true
	}
}

// running reports whether e is anywhere on this goroutine's effect stack.
func (ctx *TrackingContext) running(e *ReactiveEffect) bool {
	for _, x := range ctx.effectStack {
		if x == e {
			return true
		}
	}
	return false
}

// activeEffect returns the effect currently tracking reads on this goroutine.
func activeEffect() *ReactiveEffect {
	if ctx := lookupTrackingContext(); ctx != nil {
		return ctx.activeEffect
	}
	return nil
}

// EnclosingEffect returns the effect that was running on the calling
// goroutine when e started, or nil if e is outermost or not running here.
// Observers use it from OnEffectRun to nest instrumentation.
func EnclosingEffect(e *ReactiveEffect) *ReactiveEffect {
	ctx := lookupTrackingContext()
	if ctx == nil {
		return nil
	}
	for i := len(ctx.effectStack) - 1; i > 0; i-- {
		if ctx.effectStack[i] == e {
			return ctx.effectStack[i-1]
		}
	}
	return nil
}

// trackingEffect returns the active effect if tracking is enabled, else nil.
func trackingEffect() *ReactiveEffect {
	ctx := lookupTrackingContext()
	if ctx == nil || ctx.paused {
		return nil
	}
	return ctx.activeEffect
}

// IsTracking reports whether a read made now would create a subscription.
func IsTracking() bool {
	return trackingEffect() != nil
}

// pauseTracking suppresses tracking until the matching resetTracking.
func pauseTracking() {
	ctx := acquireTrackingContext()
	ctx.pauseStack = append(ctx.pauseStack, ctx.paused)
	ctx.paused = true
}

// enableTracking re-enables tracking until the matching resetTracking.
func enableTracking() {
	ctx := acquireTrackingContext()
	ctx.pauseStack = append(ctx.pauseStack, ctx.paused)
	ctx.paused = false
}

// resetTracking undoes the most recent pauseTracking or enableTracking.
func resetTracking() {
	ctx := lookupTrackingContext()
	if ctx == nil {
		return
	}
	ctx.restorePaused()
	releaseTrackingContext(ctx)
}

// Untracked runs fn without recording any reads as dependencies.
//
// Example:
//
//	Untracked(func() {
//	    // Reading count here won't subscribe the running effect
//	    fmt.Println("current:", state.Get("count"))
//	})
func Untracked(fn func()) {
	pauseTracking()
	defer resetTracking()
	fn()
}

// Tracked runs fn with tracking enabled, undoing an enclosing Untracked.
func Tracked(fn func()) {
	enableTracking()
	defer resetTracking()
	fn()
}
