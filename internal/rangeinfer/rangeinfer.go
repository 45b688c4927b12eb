// Package rangeinfer accumulates the per-statement range-inference
// problem: given the symbolic expressions that bound each index variable
// in a comprehension, decide which variables have a fully solved
// [lower,upper) range versus which remain as unsolved comparison
// constraints.
package rangeinfer

import (
	"strings"

	"golang.org/x/exp/slices"

	"github.com/andidr/teckyl/internal/expr"
)

// CmpOp is one of the five comparison operators a Constraint can carry.
type CmpOp int

const (
	LT CmpOp = iota
	LE
	EQ
	GE
	GT
)

func (op CmpOp) String() string {
	switch op {
	case LT:
		return "<"
	case LE:
		return "<="
	case EQ:
		return "=="
	case GE:
		return ">="
	case GT:
		return ">"
	}
	return "?"
}

// Constraint is an unsolved comparison between two symbolic expressions.
type Constraint struct {
	L  expr.Expr
	Op CmpOp
	R  expr.Expr
}

func (c Constraint) equal(o Constraint) bool {
	return c.Op == o.Op && expr.Equal(c.L, o.L) && expr.Equal(c.R, o.R)
}

func compareConstraints(a, b Constraint) int {
	if c := expr.Compare(a.L, b.L); c != 0 {
		return c
	}
	if a.Op != b.Op {
		return int(a.Op) - int(b.Op)
	}
	return expr.Compare(a.R, b.R)
}

// Range is a solved [Low,Up) bound for the variable Name.
type Range struct {
	Name     string
	Low, Up  expr.Expr
}

func (r Range) equal(o Range) bool {
	return r.Name == o.Name && expr.Equal(r.Low, o.Low) && expr.Equal(r.Up, o.Up)
}

func compareRanges(a, b Range) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if c := expr.Compare(a.Low, b.Low); c != 0 {
		return c
	}
	return expr.Compare(a.Up, b.Up)
}

// AsConstraints returns the pair of constraints a solved Range implies:
// low <= name and name < up.
func (r Range) AsConstraints() []Constraint {
	v := &expr.Variable{Name: r.Name}
	return []Constraint{
		{L: r.Low, Op: LE, R: v},
		{L: v, Op: LT, R: r.Up},
	}
}

// Problem accumulates the solved Ranges and unsolved Constraints
// discovered while analyzing one comprehension's where-clauses. Both
// slices are kept sorted (compareRanges/compareConstraints) so insertion
// order never leaks into dumps or downstream decisions.
type Problem struct {
	Solved      []Range
	Constraints []Constraint
}

// AddRange records a solved range for name, skipping the insert if an
// identical range is already present.
func (p *Problem) AddRange(name string, low, up expr.Expr) {
	r := Range{Name: name, Low: low, Up: up}
	idx, found := slices.BinarySearchFunc(p.Solved, r, compareRanges)
	if found {
		return
	}
	p.Solved = slices.Insert(p.Solved, idx, r)
}

// AddConstraint records an unsolved comparison, skipping it if it is
// already implied by a solved Range or already present verbatim.
func (p *Problem) AddConstraint(l expr.Expr, op CmpOp, r expr.Expr) {
	c := Constraint{L: l, Op: op, R: r}

	for _, rng := range p.Solved {
		for _, implied := range rng.AsConstraints() {
			if implied.equal(c) {
				return
			}
		}
	}
	idx, found := slices.BinarySearchFunc(p.Constraints, c, compareConstraints)
	if found {
		return
	}
	p.Constraints = slices.Insert(p.Constraints, idx, c)
}

// AddConstraints records "lower <= middle < upper". If middle is a bare
// Variable and both lower and upper are constant expressions, this
// promotes directly to a solved Range (and retracts any prior unsolved
// constraints that range now subsumes); otherwise it is recorded as two
// ordinary unsolved constraints.
func (p *Problem) AddConstraints(lower, middle, upper expr.Expr) {
	if v, ok := middle.(*expr.Variable); ok && expr.IsConstExpr(lower) && expr.IsConstExpr(upper) {
		p.AddRange(v.Name, lower, upper)
		p.removeConstraint(Constraint{L: lower, Op: LE, R: middle})
		p.removeConstraint(Constraint{L: middle, Op: LT, R: upper})
		return
	}
	p.AddConstraint(lower, LE, middle)
	p.AddConstraint(middle, LT, upper)
}

func (p *Problem) removeConstraint(target Constraint) {
	out := p.Constraints[:0]
	for _, c := range p.Constraints {
		if !c.equal(target) {
			out = append(out, c)
		}
	}
	p.Constraints = out
}

// Clear resets the problem to empty, for reuse across comprehensions.
func (p *Problem) Clear() {
	p.Solved = nil
	p.Constraints = nil
}
