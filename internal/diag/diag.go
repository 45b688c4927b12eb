// Package diag defines the single structured diagnostic value shared by
// the lexer, parser, Sema and IR generator: a source range, a human
// message, and a severity.
package diag

import (
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/andidr/teckyl/internal/token"
)

// Severity distinguishes a hard error (aborts the current kernel) from
// a warning (printed, never aborts).
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one lexical, syntactic, semantic, or IR diagnostic.
type Diagnostic struct {
	Message  string
	Range    token.SourceRange
	Severity Severity
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Range, d.Severity, d.Message)
}

// New builds a hard-error diagnostic at range r.
func New(r token.SourceRange, format string, args ...any) Diagnostic {
	return Diagnostic{Message: fmt.Sprintf(format, args...), Range: r, Severity: Error}
}

// Warn builds a warning diagnostic at range r.
func Warn(r token.SourceRange, format string, args ...any) Diagnostic {
	return Diagnostic{Message: fmt.Sprintf(format, args...), Range: r, Severity: Warning}
}

// HasErrors reports whether any diagnostic in diags is a hard error.
func HasErrors(diags []Diagnostic) bool {
	return lo.SomeBy(diags, func(d Diagnostic) bool { return d.Severity == Error })
}

// Errors filters diags down to the Error-severity subset.
func Errors(diags []Diagnostic) []Diagnostic {
	return lo.Filter(diags, func(d Diagnostic, _ int) bool { return d.Severity == Error })
}

// Combine folds a kernel's accumulated diagnostics (warnings plus any
// hard errors) into a single error via multierr, so a driver can print
// every diagnostic from one `err != nil` check instead of ranging over
// the slice itself. Returns nil if diags is empty.
func Combine(diags []Diagnostic) error {
	var err error
	for _, d := range diags {
		err = multierr.Append(err, d)
	}
	return err
}
