package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactivity/pkg/reactive"
)

func demoCmd() *cobra.Command {
	var (
		scenario string
		asJSON   bool
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted scenario and print effect runs",
		Long: `Run a scripted scenario against a fresh runtime.

Every effect run is printed with its run number, so you can see
exactly which writes caused which effects to re-run.

Scenarios: ` + strings.Join(scenarioNames(), ", ") + `

Examples:
  reactivity demo
  reactivity demo --scenario=list
  reactivity demo --scenario=computed --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
				reactive.Debug.LogEffectRuns = true
			}
			rt := reactive.NewRuntime(
				reactive.WithName("demo"),
				reactive.WithLogger(newLogger(level)),
			)
			return runScenario(rt, scenario, cmd.OutOrStdout(), asJSON)
		},
	}

	cmd.Flags().StringVar(&scenario, "scenario", "counter", "Scenario to run")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per line")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log effect runs at debug level")

	return cmd
}

// scenarios maps names to scripted runs.
var scenarios = map[string]func(rt *reactive.Runtime, p *printer) error{
	"counter":  counterScenario,
	"list":     listScenario,
	"computed": computedScenario,
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// runScenario attaches a printer to rt and runs the named scenario.
func runScenario(rt *reactive.Runtime, name string, w io.Writer, asJSON bool) error {
	run, ok := scenarios[name]
	if !ok {
		return fmt.Errorf("unknown scenario %q (want one of %s)", name, strings.Join(scenarioNames(), ", "))
	}
	p := &printer{w: w}
	if asJSON {
		p.enc = json.NewEncoder(w)
	}
	rt.Use(p)
	return run(rt, p)
}

// line is one output record of a scenario.
type line struct {
	Step   string `json:"step,omitempty"`
	Effect string `json:"effect,omitempty"`
	Run    uint64 `json:"run,omitempty"`
	Output string `json:"output,omitempty"`
}

// printer is an observer that knows which effect is running, so effect
// bodies can print without holding their own runner.
type printer struct {
	reactive.NopObserver

	w     io.Writer
	enc   *json.Encoder
	stack []*reactive.ReactiveEffect
}

func (p *printer) OnEffectRun(e *reactive.ReactiveEffect, next func()) {
	p.stack = append(p.stack, e)
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()
	next()
}

func (p *printer) write(l line) {
	if p.enc != nil {
		p.enc.Encode(l)
		return
	}
	if l.Step != "" {
		fmt.Fprintf(p.w, "> %s\n", l.Step)
		return
	}
	fmt.Fprintf(p.w, "  [%s #%d] %s\n", l.Effect, l.Run, l.Output)
}

// step announces a write made by the scenario.
func (p *printer) step(format string, args ...any) {
	p.write(line{Step: fmt.Sprintf(format, args...)})
}

// emit prints output from inside the running effect.
func (p *printer) emit(format string, args ...any) {
	l := line{Output: fmt.Sprintf(format, args...)}
	if n := len(p.stack); n > 0 {
		l.Effect = p.stack[n-1].Name()
		l.Run = p.stack[n-1].Runs()
	}
	p.write(l)
}

func counterScenario(rt *reactive.Runtime, p *printer) error {
	state := rt.Reactive(map[string]any{"count": 0})
	render := rt.Effect(func() {
		p.emit("count = %v", state.Get("count"))
	}, reactive.EffectName("render"))

	for _, n := range []int{1, 2, 2} {
		p.step("set count = %d", n)
		state.Set("count", n)
	}

	p.step("stop render")
	reactive.Stop(render)

	p.step("set count = 3")
	state.Set("count", 3)
	return nil
}

func listScenario(rt *reactive.Runtime, p *printer) error {
	todos := rt.Reactive(&[]any{"write tests"})

	rt.Effect(func() {
		p.emit("%d items", todos.Len())
	}, reactive.EffectName("count"))

	rt.Effect(func() {
		var items []string
		todos.Range(func(_ int, v any) bool {
			items = append(items, fmt.Sprint(v))
			return true
		})
		p.emit("[%s]", strings.Join(items, ", "))
	}, reactive.EffectName("render"))

	p.step("push %q", "ship it")
	todos.Push("ship it")

	p.step("set [0] = %q", "write more tests")
	todos.SetAt(0, "write more tests")

	p.step("splice(0, 1)")
	todos.Splice(0, 1)

	p.step("set length = 0")
	todos.SetLen(0)
	return nil
}

func computedScenario(rt *reactive.Runtime, p *printer) error {
	price := rt.Ref(10)
	qty := rt.Ref(2)
	total := reactive.ComputedOn(rt, func() int {
		return price.Value().(int) * qty.Value().(int)
	})

	rt.Effect(func() {
		p.emit("total = %d", total.Value())
	}, reactive.EffectName("total"))

	p.step("set price = 12")
	price.Set(12)

	q := reactive.NewQueue()
	rt.Effect(func() {
		p.emit("qty = %v", qty.Value())
	}, reactive.EffectName("queued"), reactive.Queued(q))

	p.step("set qty = 3, then qty = 4")
	qty.Set(3)
	qty.Set(4)

	p.step("flush queue (%d pending)", q.Len())
	return q.Flush()
}
