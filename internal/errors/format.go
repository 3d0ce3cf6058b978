package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ANSI escape sequences used by Format.
const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
)

const (
	// wrapWidth is the column Detail text is wrapped at.
	wrapWidth = 70

	// contextRadius is how many source lines are shown on each side of a
	// location.
	contextRadius = 2
)

// colorEnabled controls whether Format emits ANSI sequences. It starts off
// when NO_COLOR is set.
var colorEnabled = os.Getenv("NO_COLOR") == ""

// DisableColors turns off ANSI sequences in Format and PrintError.
func DisableColors() {
	colorEnabled = false
}

// EnableColors turns ANSI sequences back on.
func EnableColors() {
	colorEnabled = true
}

// paint wraps text in the given sequences when colors are enabled.
func paint(text string, codes ...string) string {
	if !colorEnabled || len(codes) == 0 {
		return text
	}
	return strings.Join(codes, "") + text + ansiReset
}

// Format renders the error for a terminal: a header line, the source
// excerpt when a location is known, then detail, hint, example and docs.
func (e *ReactiveError) Format() string {
	var b strings.Builder
	b.WriteString("\n")
	e.writeHeader(&b)
	e.writeSource(&b)

	if lines := wrapText(e.Detail, wrapWidth); len(lines) > 0 {
		for _, line := range lines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		b.WriteString("\n")
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s %s\n\n", paint("Hint:", ansiCyan), e.Suggestion)
	}
	if e.Example != "" {
		fmt.Fprintf(&b, "  %s\n", paint("Example:", ansiCyan))
		for _, line := range strings.Split(e.Example, "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
		b.WriteString("\n")
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s %s\n\n", paint("Cause:", ansiGray), e.Wrapped)
	}
	if e.DocURL != "" {
		fmt.Fprintf(&b, "  %s %s\n", paint("Learn more:", ansiGray), paint(e.DocURL, ansiBlue))
	}
	return b.String()
}

func (e *ReactiveError) writeHeader(b *strings.Builder) {
	label, tone := "ERROR", ansiRed
	if e.Severity == SeverityWarning {
		label, tone = "WARNING", ansiYellow
	}
	if e.Code == "" {
		fmt.Fprintf(b, "%s %s\n\n", paint(label+":", ansiBold, tone), e.Message)
		return
	}
	fmt.Fprintf(b, "%s %s %s\n\n", paint(label, ansiBold, tone), paint(e.Code+":", ansiBold), e.Message)
}

// writeSource prints the location and the lines read around it, marking the
// offending line and, when known, the column.
func (e *ReactiveError) writeSource(b *strings.Builder) {
	if e.Location == nil {
		return
	}
	fmt.Fprintf(b, "  %s\n\n", paint(e.Location.String(), ansiCyan))
	if len(e.Context) == 0 {
		return
	}

	first := max(1, e.Location.Line-contextRadius)
	bar := paint(" │ ", ansiGray)
	for i, text := range e.Context {
		n := first + i
		if n != e.Location.Line {
			fmt.Fprintf(b, "    %4d%s%s\n", n, bar, text)
			continue
		}
		fmt.Fprintf(b, "  %s%4d%s%s\n", paint("→ ", ansiRed), n, bar, text)
		if col := e.Location.Column; col > 0 {
			fmt.Fprintf(b, "       %s%s%s\n", paint("│ ", ansiGray), strings.Repeat(" ", col-1), paint("^", ansiRed))
		}
	}
	b.WriteString("\n")
}

// FormatCompact renders the error on one line, prefixed by its location
// when known: "file:line:col: CODE: message".
func (e *ReactiveError) FormatCompact() string {
	parts := make([]string, 0, 3)
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}

// jsonError is the wire shape of FormatJSON.
type jsonError struct {
	Code       string    `json:"code,omitempty"`
	Category   Category  `json:"category"`
	Severity   Severity  `json:"severity,omitempty"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	Location   *Location `json:"location,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	Example    string    `json:"example,omitempty"`
	DocURL     string    `json:"docUrl,omitempty"`
	Cause      string    `json:"cause,omitempty"`
}

// FormatJSON renders the error as a single JSON object.
func (e *ReactiveError) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Severity:   e.Severity,
		Message:    e.Message,
		Detail:     e.Detail,
		Location:   e.Location,
		Suggestion: e.Suggestion,
		Example:    e.Example,
		DocURL:     e.DocURL,
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(data)
}

// wrapText splits text into lines no longer than width, breaking between
// words. A single word longer than width gets a line of its own.
func wrapText(text string, width int) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) > width:
			lines = append(lines, line)
			line = word
		default:
			line += " " + word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// WriteError writes err to w. A ReactiveError anywhere in the chain is
// rendered with Format; anything else gets a plain ERROR line.
func WriteError(w io.Writer, err error) {
	if err == nil {
		return
	}
	var re *ReactiveError
	if stderrors.As(err, &re) {
		fmt.Fprint(w, re.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", paint("ERROR:", ansiBold, ansiRed), err)
}

// PrintError writes err to stderr.
func PrintError(err error) {
	WriteError(os.Stderr, err)
}
