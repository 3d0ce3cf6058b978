package middleware

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/reactivity/pkg/reactive"
)

// Default tracer name for the reactive engine.
const defaultTracerName = "github.com/vango-dev/reactivity"

// OTelConfig configures the OpenTelemetry observer.
type OTelConfig struct {
	// TracerName is the name of the tracer.
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: the global provider from otel.GetTracerProvider.
	TracerProvider trace.TracerProvider

	// Filter determines which effects to trace.
	// Return true to trace the run, false to skip.
	// If nil, all runs are traced.
	Filter func(e *reactive.ReactiveEffect) bool

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithEffectFilter sets a filter function for effect runs.
func WithEffectFilter(filter func(e *reactive.ReactiveEffect) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// defaultOTelConfig returns the default OpenTelemetry configuration.
func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
	}
}

// Tracing is a reactive.Observer that records a span per effect run and
// per usage diagnostic.
type Tracing struct {
	reactive.NopObserver
	config OTelConfig

	mu sync.Mutex
	// running maps an effect to the span contexts of its in-progress runs,
	// innermost last.
	running map[*reactive.ReactiveEffect][]context.Context
}

// OpenTelemetry returns an observer that traces every effect run.
//
// Each run span carries the effect's id, name, run number and, once the run
// finishes, the number of dependency sets it subscribed to. A run started
// while another traced effect is running on the same goroutine is a child
// of that run's span. A panic inside the effect is recorded on the span and
// re-raised. Diagnostics become
// short spans with the diagnostic code.
//
// Example:
//
//	rt := reactive.NewRuntime(
//	    reactive.WithObservers(middleware.OpenTelemetry(
//	        middleware.WithTracerName("my-app"),
//	    )),
//	)
//
// Without WithTracerProvider the global provider is used. Configure it in
// main() before creating effects:
//
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) *Tracing {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	config.tracer = config.TracerProvider.Tracer(config.TracerName)

	return &Tracing{
		config:  config,
		running: make(map[*reactive.ReactiveEffect][]context.Context),
	}
}

// parentContext returns the span context of the nearest traced effect that
// encloses e, or context.Background.
func (o *Tracing) parentContext(e *reactive.ReactiveEffect) context.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	for outer := reactive.EnclosingEffect(e); outer != nil; outer = reactive.EnclosingEffect(outer) {
		if stack := o.running[outer]; len(stack) > 0 {
			return stack[len(stack)-1]
		}
	}
	return context.Background()
}

func (o *Tracing) push(e *reactive.ReactiveEffect, ctx context.Context) {
	o.mu.Lock()
	o.running[e] = append(o.running[e], ctx)
	o.mu.Unlock()
}

func (o *Tracing) pop(e *reactive.ReactiveEffect) {
	o.mu.Lock()
	defer o.mu.Unlock()
	stack := o.running[e]
	if len(stack) <= 1 {
		delete(o.running, e)
		return
	}
	o.running[e] = stack[:len(stack)-1]
}

// OnEffectRun implements reactive.Observer.
func (o *Tracing) OnEffectRun(e *reactive.ReactiveEffect, next func()) {
	if o.config.Filter != nil && !o.config.Filter(e) {
		next()
		return
	}

	ctx, span := o.config.tracer.Start(
		o.parentContext(e),
		"reactive.effect "+e.Name(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int64("reactive.effect.id", int64(e.ID())),
			attribute.String("reactive.effect.name", e.Name()),
			attribute.Int64("reactive.effect.run", int64(e.Runs())),
			attribute.String("reactive.runtime", e.Runtime().Name()),
		),
	)
	defer span.End()

	o.push(e, ctx)
	defer o.pop(e)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("effect panicked: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			panic(r)
		}
	}()

	next()

	span.SetAttributes(attribute.Int("reactive.effect.deps", e.DepCount()))
	span.SetStatus(codes.Ok, "")
}

// OnEffectStop implements reactive.Observer.
func (o *Tracing) OnEffectStop(e *reactive.ReactiveEffect) {
	_, span := o.config.tracer.Start(
		context.Background(),
		"reactive.stop "+e.Name(),
		trace.WithAttributes(attribute.Int64("reactive.effect.id", int64(e.ID()))),
	)
	span.End()
}

// OnDiagnostic implements reactive.Observer.
func (o *Tracing) OnDiagnostic(err error) {
	_, span := o.config.tracer.Start(
		context.Background(),
		"reactive.diagnostic",
		trace.WithAttributes(attribute.String("reactive.diagnostic.code", diagnosticCode(err))),
	)
	span.AddEvent("diagnostic", trace.WithAttributes(attribute.String("message", err.Error())))
	span.End()
}
