// Package errors provides coded diagnostics for the reactivity engine.
//
// The engine never fails a caller for misuse. Writing to a readonly handle or
// wrapping a non-object value degrades gracefully and reports a diagnostic
// instead. Each diagnostic carries a stable code that maps to:
//   - A short message describing the problem
//   - A longer explanation
//   - A hint and, for some codes, a short example
//   - A documentation URL
//
// # Error Codes
//
//   - R001-R099: usage diagnostics raised by pkg/reactive
//   - C120-C139: configuration errors raised by internal/config and the CLI
//
// # Usage
//
//	err := errors.New("R002").
//	    WithDetail(`key "count" was not written`).
//	    WithSuggestion("Write through the mutable handle returned by reactive.Reactive")
//
//	fmt.Println(err.Format())
//	// Output:
//	// WARNING R002: Write to readonly handle
//	//
//	//   key "count" was not written
//	//
//	//   Hint: Write through the mutable handle returned by reactive.Reactive
//	//
//	//   Example:
//	//     data := reactive.Reactive(raw)
//	//     view := reactive.Readonly(raw)
//	//     data.Set("count", 2)
//	//
//	//   Learn more: https://vango.dev/docs/reactivity/errors/R002
//
// Colors are on unless NO_COLOR is set or DisableColors is called. FormatJSON
// and FormatCompact never emit them.
package errors
