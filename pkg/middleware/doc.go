// Package middleware provides instrumentation observers for the reactive
// engine.
//
// This package includes:
//   - OpenTelemetry tracing of effect runs and diagnostics
//   - Prometheus metrics for tracking, triggering and effect runs
//   - A Prometheus collector for dependency graph size
//
// Observers are attached to a runtime with reactive.WithObservers or
// Runtime.Use and are called synchronously by the engine.
//
// # OpenTelemetry
//
//	rt := reactive.NewRuntime(
//	    reactive.WithObservers(middleware.OpenTelemetry(
//	        middleware.WithTracerName("my-app"),
//	        middleware.WithEffectFilter(func(e *reactive.ReactiveEffect) bool {
//	            return e.Name() != "noisy"
//	        }),
//	    )),
//	)
//
// # Prometheus Metrics
//
//	reg := prometheus.NewRegistry()
//	rt.Use(middleware.Prometheus(middleware.WithRegistry(reg)))
//	reg.MustRegister(middleware.NewGraphCollector(rt))
//
// Then expose the registry:
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package middleware
