package middleware

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	rerrors "github.com/vango-dev/reactivity/internal/errors"
	"github.com/vango-dev/reactivity/pkg/reactive"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "reactivity").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for effect run duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "reactivity",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a reactive.Observer that exports engine activity to Prometheus.
type Metrics struct {
	tracksTotal       prometheus.Counter
	triggersTotal     *prometheus.CounterVec
	notifiedTotal     prometheus.Counter
	effectRunsTotal   prometheus.Counter
	effectRunDuration prometheus.Histogram
	effectsRunning    prometheus.Gauge
	effectStopsTotal  prometheus.Counter
	diagnosticsTotal  *prometheus.CounterVec
}

// metricsKey identifies a set of collectors by where they are registered and
// the name prefix they use.
type metricsKey struct {
	registry  prometheus.Registerer
	namespace string
	subsystem string
}

// registered holds one Metrics per key, so calling Prometheus twice with the
// same registry and prefix does not register duplicate collectors.
var (
	registered   = make(map[metricsKey]*Metrics)
	registeredMu sync.Mutex
)

func initMetrics(config MetricsConfig) *Metrics {
	factory := promauto.With(config.Registry)

	return &Metrics{
		tracksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tracks_total",
			Help:        "Total number of new effect subscriptions",
			ConstLabels: config.ConstLabels,
		}),

		triggersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "triggers_total",
			Help:        "Total number of writes that reached subscribers, by operation",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		notifiedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effects_notified_total",
			Help:        "Total number of effect notifications caused by triggers",
			ConstLabels: config.ConstLabels,
		}),

		effectRunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_runs_total",
			Help:        "Total number of tracked effect runs",
			ConstLabels: config.ConstLabels,
		}),

		effectRunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_run_duration_seconds",
			Help:        "Effect run duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		effectsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effects_running",
			Help:        "Number of effect runs in progress, nested runs included",
			ConstLabels: config.ConstLabels,
		}),

		effectStopsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "effect_stops_total",
			Help:        "Total number of stopped effects",
			ConstLabels: config.ConstLabels,
		}),

		diagnosticsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "diagnostics_total",
			Help:        "Total number of usage diagnostics by code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),
	}
}

// Prometheus returns an observer that collects Prometheus metrics for a
// runtime.
//
// Metrics collected:
//   - reactivity_tracks_total: Counter of new subscriptions
//   - reactivity_triggers_total: Counter of triggers by op (set, add, delete)
//   - reactivity_effects_notified_total: Counter of effects notified by triggers
//   - reactivity_effect_runs_total: Counter of tracked effect runs
//   - reactivity_effect_run_duration_seconds: Histogram of run duration
//   - reactivity_effects_running: Gauge of runs in progress
//   - reactivity_effect_stops_total: Counter of stopped effects
//   - reactivity_diagnostics_total: Counter of usage diagnostics by code
//
// Example:
//
//	rt := reactive.NewRuntime(
//	    reactive.WithObservers(middleware.Prometheus(
//	        middleware.WithNamespace("myapp"),
//	    )),
//	)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
//
// Calls that share a registry, namespace and subsystem return the same
// Metrics; their const labels and buckets come from the first call.
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	key := metricsKey{registry: config.Registry, namespace: config.Namespace, subsystem: config.Subsystem}
	registeredMu.Lock()
	defer registeredMu.Unlock()
	if m, ok := registered[key]; ok {
		return m
	}
	m := initMetrics(config)
	registered[key] = m
	return m
}

// OnTrack implements reactive.Observer.
func (m *Metrics) OnTrack(*reactive.ReactiveEffect, any) {
	m.tracksTotal.Inc()
}

// OnTrigger implements reactive.Observer.
func (m *Metrics) OnTrigger(op reactive.TriggerOp, _ any, notified int) {
	m.triggersTotal.WithLabelValues(op.String()).Inc()
	m.notifiedTotal.Add(float64(notified))
}

// OnEffectRun implements reactive.Observer.
func (m *Metrics) OnEffectRun(_ *reactive.ReactiveEffect, next func()) {
	m.effectsRunning.Inc()
	start := time.Now()
	defer func() {
		m.effectRunDuration.Observe(time.Since(start).Seconds())
		m.effectRunsTotal.Inc()
		m.effectsRunning.Dec()
	}()
	next()
}

// OnEffectStop implements reactive.Observer.
func (m *Metrics) OnEffectStop(*reactive.ReactiveEffect) {
	m.effectStopsTotal.Inc()
}

// OnDiagnostic implements reactive.Observer.
func (m *Metrics) OnDiagnostic(err error) {
	m.diagnosticsTotal.WithLabelValues(diagnosticCode(err)).Inc()
}

// diagnosticCode returns the code of a coded diagnostic, or "unknown".
// Codes keep the label cardinality bounded.
func diagnosticCode(err error) string {
	var re *rerrors.ReactiveError
	if errors.As(err, &re) && re.Code != "" {
		return re.Code
	}
	return "unknown"
}

// =============================================================================
// Graph Collector
// =============================================================================

// GraphCollector exports a runtime's GraphStats as gauges on every scrape.
type GraphCollector struct {
	rt *reactive.Runtime

	targets       *prometheus.Desc
	keys          *prometheus.Desc
	subscriptions *prometheus.Desc
	handles       *prometheus.Desc
}

// NewGraphCollector returns a collector for rt. Register it with a registry:
//
//	prometheus.MustRegister(middleware.NewGraphCollector(rt))
func NewGraphCollector(rt *reactive.Runtime, opts ...MetricsOption) *GraphCollector {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	labels := prometheus.Labels{"runtime": rt.Name()}
	for k, v := range config.ConstLabels {
		labels[k] = v
	}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(config.Namespace, config.Subsystem, name),
			help, nil, labels,
		)
	}

	return &GraphCollector{
		rt:            rt,
		targets:       desc("graph_targets", "Raw objects with a dependency graph entry"),
		keys:          desc("graph_keys", "Tracked (object, key) pairs"),
		subscriptions: desc("graph_subscriptions", "Effect subscriptions across all keys"),
		handles:       desc("graph_handles", "Cached wrapped handles"),
	}
}

// Describe implements prometheus.Collector.
func (c *GraphCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.targets
	ch <- c.keys
	ch <- c.subscriptions
	ch <- c.handles
}

// Collect implements prometheus.Collector.
func (c *GraphCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.rt.Stats()
	ch <- prometheus.MustNewConstMetric(c.targets, prometheus.GaugeValue, float64(stats.Targets))
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(stats.Keys))
	ch <- prometheus.MustNewConstMetric(c.subscriptions, prometheus.GaugeValue, float64(stats.Subscriptions))
	ch <- prometheus.MustNewConstMetric(c.handles, prometheus.GaugeValue, float64(stats.Handles))
}
