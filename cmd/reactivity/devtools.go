package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reactivity/internal/config"
	"github.com/vango-dev/reactivity/internal/errors"
	"github.com/vango-dev/reactivity/pkg/devtools"
	"github.com/vango-dev/reactivity/pkg/middleware"
	"github.com/vango-dev/reactivity/pkg/reactive"
)

func devtoolsCmd() *cobra.Command {
	var (
		port       int
		host       string
		configPath string
		interval   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "devtools",
		Short: "Serve devtools for a live demo runtime",
		Long: `Start a demo runtime and serve devtools for it.

A counter effect is driven on a timer so the event feed and the
metrics have something to show.

Endpoints:
  /graph          dependency graph size
  /events         websocket event feed
  /events/recent  buffered events as JSON
  /metrics        Prometheus metrics

Settings come from reactivity.json when one is found in the working
directory or a parent, otherwise defaults are used.

Examples:
  reactivity devtools
  reactivity devtools --port=9090
  reactivity devtools --config=./reactivity.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Devtools.Port = port
			}
			if host != "" {
				cfg.Devtools.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runDevtools(cfg, interval)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to serve on (default from reactivity.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from reactivity.json)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to reactivity.json")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "How often the demo counter is written")

	return cmd
}

// loadConfig reads path, or searches from the working directory. A missing
// file falls back to defaults only when no path was given. Every error
// returned is coded.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg, err := config.LoadFromWorkingDir()
	if err == nil {
		return cfg, nil
	}
	re := errors.FromError(err, "C120")
	if re.Code == "C121" {
		return config.New(), nil
	}
	return nil, re
}

// applyDebug copies the config's debug switches into the engine.
func applyDebug(cfg *config.Config) {
	reactive.Debug.LogEffectRuns = cfg.Debug.LogEffectRuns
	reactive.Debug.LogTracking = cfg.Debug.LogTracking
	reactive.Debug.IncludeSourceLocations = cfg.Debug.IncludeSourceLocations
}

// newInstrumentedRuntime builds a runtime with the observers cfg enables
// and a registry holding its metrics.
func newInstrumentedRuntime(cfg *config.Config) (*reactive.Runtime, *prometheus.Registry) {
	applyDebug(cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	rt := reactive.NewRuntime(
		reactive.WithName(cfg.Name),
		reactive.WithLogger(newLogger(cfg.SlogLevel())),
	)
	if cfg.Metrics.Enabled {
		rt.Use(middleware.Prometheus(
			middleware.WithRegistry(reg),
			middleware.WithNamespace(cfg.Metrics.Namespace),
		))
		reg.MustRegister(middleware.NewGraphCollector(rt, middleware.WithNamespace(cfg.Metrics.Namespace)))
	}
	if cfg.Tracing.Enabled {
		rt.Use(middleware.OpenTelemetry(middleware.WithTracerName(cfg.Tracing.TracerName)))
	}
	return rt, reg
}

func runDevtools(cfg *config.Config, interval time.Duration) error {
	rt, reg := newInstrumentedRuntime(cfg)

	dt := devtools.New(rt,
		devtools.WithGatherer(reg),
		devtools.WithEventBuffer(cfg.Devtools.EventBuffer),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := rt.Reactive(map[string]any{"ticks": 0})
	rt.Effect(func() {
		_ = state.Get("ticks")
	}, reactive.EffectName("ticker"))

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				state.Update("ticks", func(v any) any { return v.(int) + 1 })
			}
		}
	}()

	addr := cfg.DevtoolsAddress()
	printBanner()
	success("Devtools at http://%s", addr)
	info("Events:  ws://%s/events", addr)
	info("Metrics: http://%s/metrics", addr)
	fmt.Println()

	if err := dt.ListenAndServe(ctx, addr); err != nil {
		return err
	}
	fmt.Println("\n  Shutting down...")
	return nil
}
