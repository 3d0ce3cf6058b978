package reactive

// Observer receives engine events. Observers are called synchronously on the
// goroutine doing the work and must not block.
//
// Embed NopObserver to implement only the hooks you need.
type Observer interface {
	// OnTrack is called when an effect gains a new subscription.
	OnTrack(e *ReactiveEffect, key any)

	// OnTrigger is called once per write that reached at least one
	// dependency set, with the number of effects notified.
	OnTrigger(op TriggerOp, key any, notified int)

	// OnEffectRun wraps every tracked run. Implementations must call next
	// exactly once.
	OnEffectRun(e *ReactiveEffect, next func())

	// OnEffectStop is called when an effect is stopped.
	OnEffectStop(e *ReactiveEffect)

	// OnDiagnostic is called for every usage warning.
	OnDiagnostic(err error)
}

// NopObserver implements Observer with no-op hooks.
type NopObserver struct{}

func (NopObserver) OnTrack(*ReactiveEffect, any)                {}
func (NopObserver) OnTrigger(TriggerOp, any, int)               {}
func (NopObserver) OnEffectRun(_ *ReactiveEffect, next func()) { next() }
func (NopObserver) OnEffectStop(*ReactiveEffect)                {}
func (NopObserver) OnDiagnostic(error)                          {}
