package reactive

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/vango-dev/reactivity/internal/errors"
)

// Diagnostic codes emitted by the engine. See internal/errors for templates.
const (
	codeNotObject       = "R001"
	codeReadonlyWrite   = "R002"
	codeReadonlyDelete  = "R003"
	codeReadonlyRef     = "R004"
	codeInvalidIndex    = "R005"
	codeUnsupportedKind = "R006"
	codeArrayDelete     = "R007"
)

// warn reports a usage problem the engine tolerates. It never fails the
// caller's operation.
func (rt *Runtime) warn(code, op string, key any) {
	err := errors.New(code)
	if key != nil {
		err = err.WithDetailf("%s (%s %s)", err.Detail, op, formatKey(key))
	} else {
		err = err.WithDetailf("%s (%s)", err.Detail, op)
	}
	if Debug.IncludeSourceLocations {
		if file, line, ok := callerOutsidePackage(); ok {
			err = err.WithLocation(file, line, 0)
		}
	}

	attrs := []any{"code", code, "op", op}
	if key != nil {
		attrs = append(attrs, "key", formatKey(key))
	}
	if err.Location != nil {
		attrs = append(attrs, "location", err.Location.String())
	}
	rt.logger.Warn(err.Message, attrs...)

	for _, o := range rt.observersSnapshot() {
		o.OnDiagnostic(err)
	}
}

func formatKey(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case SpecialKey:
		return string(k)
	default:
		return fmt.Sprint(k)
	}
}

// callerOutsidePackage finds the first stack frame outside this package's
// non-test files.
func callerOutsidePackage() (string, int, bool) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if !strings.Contains(f.Function, "/pkg/reactive.") || strings.HasSuffix(f.File, "_test.go") {
			return f.File, f.Line, f.File != ""
		}
		if !more {
			return "", 0, false
		}
	}
}
