package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Severity   Severity
	Message    string
	Detail     string
	Suggestion string
	Example    string
	DocURL     string
}

const docBase = "https://vango.dev/docs/reactivity/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Usage Diagnostics (R001-R099)
	// ============================================

	"R001": {
		Category:   CategoryUsage,
		Severity:   SeverityWarning,
		Message:    "Value cannot be made reactive",
		Detail:     "Only map[string]any objects and *[]any arrays can be wrapped. No handle was created.",
		Suggestion: "Pass a map[string]any or a *[]any",
		Example:    "state := reactive.Reactive(map[string]any{\"count\": 0})",
		DocURL:     docBase + "R001",
	},
	"R002": {
		Category:   CategoryUsage,
		Severity:   SeverityWarning,
		Message:    "Write to readonly handle",
		Detail:     "The handle is readonly. The write was ignored.",
		Suggestion: "Write through the mutable handle the readonly view was made from",
		Example:    "data := reactive.Reactive(raw)\nview := reactive.Readonly(raw)\ndata.Set(\"count\", 2)",
		DocURL:     docBase + "R002",
	},
	"R003": {
		Category:   CategoryUsage,
		Severity:   SeverityWarning,
		Message:    "Delete on readonly handle",
		Detail:     "The handle is readonly. The delete was ignored.",
		Suggestion: "Delete through the mutable handle the readonly view was made from",
		DocURL:     docBase + "R003",
	},
	"R004": {
		Category:   CategoryUsage,
		Severity:   SeverityWarning,
		Message:    "Write to readonly ref",
		Detail:     "Computed values are derived from their getter and cannot be assigned.",
		Suggestion: "Write to the values the computed getter reads instead",
		Example:    "count.Set(3) // double recomputes on next read",
		DocURL:     docBase + "R004",
	},
	"R005": {
		Category:   CategoryUsage,
		Severity:   SeverityWarning,
		Message:    "Invalid array index",
		Detail:     "Array indices must be non-negative integers.",
		Suggestion: "Use an index of zero or more",
		Example:    "list.SetAt(0, \"first\")",
		DocURL:     docBase + "R005",
	},
	"R006": {
		Category:   CategoryUsage,
		Severity:   SeverityWarning,
		Message:    "Operation not supported by handle kind",
		Detail:     "Object operations require an object handle and array operations require an array handle.",
		Suggestion: "Use Get/Set/Delete on objects and At/SetAt/Push on arrays",
		DocURL:     docBase + "R006",
	},
	"R007": {
		Category:   CategoryUsage,
		Severity:   SeverityWarning,
		Message:    "Array elements cannot be deleted",
		Detail:     "Arrays have no representation for holes. Use Splice or SetLen to remove elements.",
		Suggestion: "Remove elements with Splice or shorten with SetLen",
		Example:    "list.Splice(i, 1)",
		DocURL:     docBase + "R007",
	},

	// ============================================
	// Configuration Errors (C120-C139)
	// ============================================

	"C120": {
		Category:   CategoryConfig,
		Severity:   SeverityError,
		Message:    "Invalid configuration file",
		Detail:     "reactivity.json could not be read or parsed.",
		Suggestion: "Check that reactivity.json is valid JSON",
		DocURL:     docBase + "C120",
	},
	"C121": {
		Category:   CategoryConfig,
		Severity:   SeverityError,
		Message:    "Configuration file not found",
		Detail:     "No reactivity.json was found.",
		Suggestion: "Run reactivity init to create one",
		DocURL:     docBase + "C121",
	},
	"C122": {
		Category:   CategoryConfig,
		Severity:   SeverityError,
		Message:    "Invalid configuration value",
		Detail:     "A configuration value is out of range.",
		Suggestion: "Fix the value named in the detail",
		DocURL:     docBase + "C122",
	},
	"C123": {
		Category:   CategoryConfig,
		Severity:   SeverityError,
		Message:    "Configuration file already exists",
		Detail:     "reactivity init does not overwrite an existing reactivity.json.",
		Suggestion: "Pass --update to fill in missing settings and keep the rest",
		DocURL:     docBase + "C123",
	},
}

// Lookup returns the template for a code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered codes in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
