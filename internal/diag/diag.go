// Package diag defines the diagnostic model shared by the engine and its
// backends: category, numeric code, message, and an optional source position.
// Diagnostics are data, not errors: failed compilation is reported through
// result values, never through Go error returns.
package diag

import "fmt"

// Category classifies a diagnostic. The values mirror the TypeScript
// compiler's DiagnosticCategory so backend-reported codes carry over
// without translation.
type Category int

const (
	Warning Category = iota
	Error
	Suggestion
	Message
)

// String returns the lowercase category name.
func (c Category) String() string {
	switch c {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Suggestion:
		return "suggestion"
	case Message:
		return "message"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Diagnostic is one message produced while compiling a unit.
//
// Identity names the unit the diagnostic belongs to and is empty for global
// diagnostics (whole-program or options problems with no home unit).
// Line and Col are 1-based; zero means the diagnostic has no position.
type Diagnostic struct {
	Identity string
	Category Category
	Code     int
	Message  string
	Line     int
	Col      int
}

// String formats a diagnostic as "identity:line:col: category TScode: message",
// dropping the position or identity prefix when absent.
func (d Diagnostic) String() string {
	var prefix string
	switch {
	case d.Identity != "" && d.Line > 0:
		prefix = fmt.Sprintf("%s:%d:%d: ", d.Identity, d.Line, d.Col)
	case d.Identity != "":
		prefix = d.Identity + ": "
	}
	return fmt.Sprintf("%s%s TS%d: %s", prefix, d.Category, d.Code, d.Message)
}

// HasErrors reports whether any diagnostic in diags is an Error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Category == Error {
			return true
		}
	}
	return false
}

// Errors returns the Error-category diagnostics in diags, preserving order.
func Errors(diags []Diagnostic) []Diagnostic {
	var errs []Diagnostic
	for _, d := range diags {
		if d.Category == Error {
			errs = append(errs, d)
		}
	}
	return errs
}
