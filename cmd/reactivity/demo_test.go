package main

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/reactivity/internal/config"
	"github.com/vango-dev/reactivity/internal/errors"
	"github.com/vango-dev/reactivity/pkg/reactive"
)

func quietRuntime() *reactive.Runtime {
	return reactive.NewRuntime(reactive.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func decodeLines(t *testing.T, data []byte) []line {
	t.Helper()
	var out []line
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var l line
		if err := dec.Decode(&l); err != nil {
			t.Fatalf("decode: %v", err)
		}
		out = append(out, l)
	}
	return out
}

func effectOutputs(lines []line, effect string) []string {
	var out []string
	for _, l := range lines {
		if l.Effect == effect {
			out = append(out, l.Output)
		}
	}
	return out
}

func TestCounterScenario(t *testing.T) {
	var buf bytes.Buffer
	if err := runScenario(quietRuntime(), "counter", &buf, true); err != nil {
		t.Fatalf("runScenario: %v", err)
	}

	lines := decodeLines(t, buf.Bytes())
	got := effectOutputs(lines, "render")
	want := []string{"count = 0", "count = 1", "count = 2"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("render outputs = %q, want %q", got, want)
	}
	for i, l := range lines {
		if l.Effect == "render" && l.Run == 0 {
			t.Errorf("line %d has no run number", i)
		}
	}
}

func TestComputedScenario(t *testing.T) {
	var buf bytes.Buffer
	if err := runScenario(quietRuntime(), "computed", &buf, true); err != nil {
		t.Fatalf("runScenario: %v", err)
	}

	lines := decodeLines(t, buf.Bytes())
	if got, want := effectOutputs(lines, "total"), []string{"total = 20", "total = 24", "total = 36", "total = 48"}; strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("total outputs = %q, want %q", got, want)
	}
	if got, want := effectOutputs(lines, "queued"), []string{"qty = 2", "qty = 4"}; strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("queued outputs = %q, want %q", got, want)
	}
}

func TestListScenario(t *testing.T) {
	var buf bytes.Buffer
	if err := runScenario(quietRuntime(), "list", &buf, false); err != nil {
		t.Fatalf("runScenario: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"[count #1] 1 items",
		"[render #1] [write tests]",
		"2 items",
		"[write more tests, ship it]",
		"[ship it]",
		"0 items",
		"> set length = 0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestUnknownScenario(t *testing.T) {
	err := runScenario(quietRuntime(), "nope", io.Discard, false)
	if err == nil || !strings.Contains(err.Error(), "counter") {
		t.Errorf("runScenario(nope) = %v, want error listing scenarios", err)
	}
}

func TestExplainCommand(t *testing.T) {
	tests := []struct {
		args    []string
		want    string
		wantErr bool
	}{
		{args: []string{"R002"}, want: "R002"},
		{args: []string{"r002"}, want: "R002"},
		{args: []string{"--json", "C122"}, want: `"code"`},
		{args: []string{"--compact", "R005"}, want: "R005: Invalid array index\n"},
		{args: []string{"--compact", "--json", "R005"}, wantErr: true},
		{args: []string{"--list"}, want: "R007"},
		{args: []string{"X999"}, wantErr: true},
		{args: []string{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			var buf bytes.Buffer
			cmd := explainCmd()
			cmd.SetOut(&buf)
			cmd.SetErr(io.Discard)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, buf.String())
			}
		})
	}
}

func TestLoadConfigExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"name":"from-file","devtools":{"port":9999}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Name != "from-file" || cfg.Devtools.Port != 9999 {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := loadConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing explicit path")
	}
}

func TestLoadConfigWorkingDir(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig without a file: %v", err)
	}
	if cfg.Devtools.Port != config.DefaultPort {
		t.Errorf("Devtools.Port = %d, want default", cfg.Devtools.Port)
	}

	if err := os.WriteFile(config.ConfigFileName, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = loadConfig("")
	var re *errors.ReactiveError
	if !stderrors.As(err, &re) || re.Code != "C120" {
		t.Errorf("loadConfig with a broken file = %v, want C120", err)
	}
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	run := func(args ...string) (string, error) {
		var buf bytes.Buffer
		cmd := initCmd()
		cmd.SetOut(&buf)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return buf.String(), err
	}

	out, err := run(dir, "--name", "app")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	path := filepath.Join(dir, config.ConfigFileName)
	if !strings.Contains(out, path) {
		t.Errorf("output %q should name %s", out, path)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Name != "app" || cfg.Devtools.Port != config.DefaultPort {
		t.Errorf("cfg = %+v", cfg)
	}

	_, err = run(dir)
	var re *errors.ReactiveError
	if !stderrors.As(err, &re) || re.Code != "C123" {
		t.Fatalf("second init = %v, want C123", err)
	}

	if err := os.WriteFile(path, []byte(`{"name":"kept","devtools":{"port":9100}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(dir, "--update"); err != nil {
		t.Fatalf("init --update: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"name": "kept"`, `"port": 9100`, `"eventBuffer"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("updated file missing %s:\n%s", want, data)
		}
	}
}

func TestRootNoColor(t *testing.T) {
	defer errors.EnableColors()

	var buf bytes.Buffer
	root := rootCmd()
	root.SetOut(&buf)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--no-color", "explain", "R002"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.Contains(buf.String(), "\033[") {
		t.Errorf("--no-color output has ANSI sequences:\n%q", buf.String())
	}
	if !strings.Contains(buf.String(), "WARNING R002") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestInstrumentedRuntime(t *testing.T) {
	cfg := config.New()
	cfg.Name = "instrumented"
	cfg.LogLevel = "error"
	rt, reg := newInstrumentedRuntime(cfg)

	state := rt.Reactive(map[string]any{"n": 0})
	rt.Effect(func() { _ = state.Get("n") })
	state.Set("n", 1)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"reactivity_effect_runs_total", "reactivity_graph_targets", "go_goroutines"} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}
