package errors

import (
	"bytes"
	stdjson "encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
		wantSev Severity
	}{
		{
			name:    "non-object wrap",
			code:    "R001",
			wantMsg: "Value cannot be made reactive",
			wantCat: CategoryUsage,
			wantSev: SeverityWarning,
		},
		{
			name:    "readonly write",
			code:    "R002",
			wantMsg: "Write to readonly handle",
			wantCat: CategoryUsage,
			wantSev: SeverityWarning,
		},
		{
			name:    "config parse",
			code:    "C120",
			wantMsg: "Invalid configuration file",
			wantCat: CategoryConfig,
			wantSev: SeverityError,
		},
		{
			name:    "unknown error code",
			code:    "R999",
			wantMsg: "Unknown error",
			wantCat: "",
			wantSev: SeverityError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Severity != tt.wantSev {
				t.Errorf("Severity = %q, want %q", err.Severity, tt.wantSev)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "unknown scenario %q", "bogus")
	if err.Message != `unknown scenario "bogus"` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestReactiveError_Error(t *testing.T) {
	err := New("R002")
	want := "R002: Write to readonly handle"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err2 := &ReactiveError{Message: "test error"}
	if err2.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", err2.Error(), "test error")
	}

	err3 := New("C120").Wrap(stderrors.New("boom"))
	if got := err3.Error(); got != "C120: Invalid configuration file: boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestReactiveError_WithLocation(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "main.go")
	content := `package main

func main() {
    state := reactive.Readonly(map[string]any{"count": 1})
    state.Set("count", 2)
    fmt.Println(state.Get("count"))
}
`
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("R002").WithLocation(tmpFile, 5, 5)

	if err.Location == nil {
		t.Fatal("Location is nil")
	}
	if err.Location.Line != 5 {
		t.Errorf("Location.Line = %d, want %d", err.Location.Line, 5)
	}
	if len(err.Context) == 0 {
		t.Error("Context should not be empty")
	}
}

func TestReactiveError_Builders(t *testing.T) {
	err := New("R005").
		WithDetailf("index %d", -1).
		WithSuggestion("use a non-negative index")

	if err.Detail != "index -1" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Suggestion != "use a non-negative index" {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
	if err.Example == "" {
		t.Error("Example should come from the registered template")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "C120") != nil {
		t.Error("FromError(nil) should be nil")
	}

	base := stderrors.New("disk full")
	wrapped := FromError(base, "C120")
	if !stderrors.Is(wrapped, base) {
		t.Error("wrapped error should unwrap to base")
	}

	orig := New("C122")
	if FromError(orig, "C120") != orig {
		t.Error("FromError should return existing ReactiveError unchanged")
	}
	if FromError(fmt.Errorf("loading: %w", orig), "C120") != orig {
		t.Error("FromError should find a ReactiveError inside a wrapped chain")
	}
}

func TestLocation_String(t *testing.T) {
	var nilLoc *Location
	if nilLoc.String() != "" {
		t.Error("nil location should format empty")
	}
	if got := (&Location{File: "a.go", Line: 3}).String(); got != "a.go:3" {
		t.Errorf("String() = %q", got)
	}
	if got := (&Location{File: "a.go", Line: 3, Column: 7}).String(); got != "a.go:3:7" {
		t.Errorf("String() = %q", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("R002").
		WithDetail(`key "count" was not written`).
		WithSuggestion("Write through the mutable handle")

	formatted := err.Format()

	for _, want := range []string{
		"WARNING R002: Write to readonly handle",
		`key "count" was not written`,
		"Hint:",
		"Example:",
		"Learn more:",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format() missing %q:\n%s", want, formatted)
		}
	}

	cfgErr := New("C121").Format()
	if !strings.Contains(cfgErr, "ERROR C121") {
		t.Errorf("config errors should format as ERROR:\n%s", cfgErr)
	}

	wrapped := New("C120").Wrap(stderrors.New("permission denied")).Format()
	if !strings.Contains(wrapped, "Cause: permission denied") {
		t.Errorf("Format() should show the wrapped cause:\n%s", wrapped)
	}
}

func TestFormatSourceExcerpt(t *testing.T) {
	DisableColors()
	defer EnableColors()

	path := filepath.Join(t.TempDir(), "main.go")
	src := "line one\nline two\nline three\n"
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("R002").WithLocation(path, 1, 6)
	if len(err.Context) != 3 {
		t.Fatalf("Context = %q, want 3 lines clipped at the top of the file", err.Context)
	}

	formatted := err.Format()
	for _, want := range []string{
		"→    1 │ line one",
		"      2 │ line two",
		"│      ^",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format() missing %q:\n%s", want, formatted)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("R002").WithLocation("main.go", 10, 5)
	want := "main.go:10:5: R002: Write to readonly handle"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	json := New("R002").WithLocation("main.go", 10, 5).FormatJSON()

	for _, want := range []string{
		`"code":"R002"`,
		`"category":"usage"`,
		`"severity":"warning"`,
		`"message":"Write to readonly handle"`,
		`"location":`,
	} {
		if !strings.Contains(json, want) {
			t.Errorf("FormatJSON() missing %s: %s", want, json)
		}
	}

	quoted := New("C120").WithDetail("bad byte \x01 in \"name\"").Wrap(stderrors.New("eof")).FormatJSON()
	var decoded map[string]any
	if err := stdjson.Unmarshal([]byte(quoted), &decoded); err != nil {
		t.Fatalf("FormatJSON() is not valid JSON: %v\n%s", err, quoted)
	}
	if decoded["cause"] != "eof" {
		t.Errorf("cause = %v, want eof", decoded["cause"])
	}
}

func TestWriteError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	WriteError(&buf, fmt.Errorf("devtools: %w", New("C122").WithDetail("port out of range")))
	if out := buf.String(); !strings.Contains(out, "ERROR C122: Invalid configuration value") || !strings.Contains(out, "port out of range") {
		t.Errorf("WriteError(coded) = %q", out)
	}

	buf.Reset()
	WriteError(&buf, stderrors.New("plain failure"))
	if got := buf.String(); got != "\nERROR: plain failure\n\n" {
		t.Errorf("WriteError(plain) = %q", got)
	}

	buf.Reset()
	WriteError(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("WriteError(nil) wrote %q", buf.String())
	}
}

func TestCodesAndLookup(t *testing.T) {
	codes := Codes()
	if len(codes) == 0 {
		t.Fatal("Codes() should return codes")
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Fatalf("Codes() not sorted: %v", codes)
		}
	}

	tmpl, ok := Lookup("R004")
	if !ok {
		t.Fatal("R004 should be registered")
	}
	if tmpl.Category != CategoryUsage {
		t.Errorf("Category = %q", tmpl.Category)
	}
	if _, ok := Lookup("R999"); ok {
		t.Error("R999 should not be registered")
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("short text", 100)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText short text: got %v", got)
	}

	got = wrapText("this is a longer text that should be wrapped", 20)
	if len(got) != 3 {
		t.Errorf("wrapText long text: expected 3 lines, got %d: %v", len(got), got)
	}

	got = wrapText("", 10)
	if len(got) != 0 {
		t.Errorf("wrapText empty: expected empty, got %v", got)
	}
}

func TestColorFunctions(t *testing.T) {
	EnableColors()
	if got := paint("test", ansiBold, ansiRed); got != "\033[1m\033[31mtest\033[0m" {
		t.Errorf("paint() = %q with colors enabled", got)
	}

	DisableColors()
	if strings.Contains(paint("test", ansiRed), "\033[") {
		t.Error("paint should not emit ANSI codes when colors disabled")
	}
	EnableColors()
}
