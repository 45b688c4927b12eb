// Package token defines the shared source-position and token vocabulary
// used by every later stage of the compiler: lexer, parser, Sema and the
// IR generator all thread token.SourceRange values through their
// diagnostics.
package token

import "fmt"

// Source owns the text and filename of one compilation unit. It is
// immutable once built and is shared by reference from every SourceRange
// that points into it, so a Source must outlive every range derived from
// it.
type Source struct {
	Filename string
	Text     string
}

// NewSource wraps source text with its filename for diagnostics.
func NewSource(filename, text string) *Source {
	return &Source{Filename: filename, Text: text}
}

// Pos is a single line/column location (1-based).
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// SourceRange is a half-open byte span [Start,End) into a shared Source,
// together with the line/column pair at each end for human-facing
// diagnostics.
type SourceRange struct {
	Source *Source
	Start  int
	End    int

	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Filename returns the owning source's filename, or "<unknown>" if the
// range has no source (e.g. a synthesized range in a test).
func (r SourceRange) Filename() string {
	if r.Source == nil {
		return "<unknown>"
	}
	return r.Source.Filename
}

// Text returns the substring of the source covered by this range.
func (r SourceRange) Text() string {
	if r.Source == nil || r.Start < 0 || r.End > len(r.Source.Text) {
		return ""
	}
	return r.Source.Text[r.Start:r.End]
}

// String renders "file:line:col" for use in error messages.
func (r SourceRange) String() string {
	return fmt.Sprintf("%s:%d:%d", r.Filename(), r.StartLine, r.StartCol)
}

// Contains reports whether r fully contains other. The parser keeps
// every node's range contained in its parent's range.
func (r SourceRange) Contains(other SourceRange) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Join returns the smallest range spanning both a and b. Both must share
// the same Source.
func Join(a, b SourceRange) SourceRange {
	r := a
	if b.Start < r.Start {
		r.Start = b.Start
		r.StartLine = b.StartLine
		r.StartCol = b.StartCol
	}
	if b.End > r.End {
		r.End = b.End
		r.EndLine = b.EndLine
		r.EndCol = b.EndCol
	}
	return r
}
