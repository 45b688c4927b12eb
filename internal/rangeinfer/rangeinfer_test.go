package rangeinfer

import (
	"testing"

	"github.com/andidr/teckyl/internal/expr"
)

func TestAddConstraintsPromotesConstBoundedVariableToRange(t *testing.T) {
	var p Problem
	zero := &expr.Constant{Val: 0}
	n := &expr.Parameter{Name: "N"}
	i := &expr.Variable{Name: "i"}

	p.AddConstraints(zero, i, n)

	if len(p.Solved) != 1 {
		t.Fatalf("expected 1 solved range, got %d: %+v", len(p.Solved), p.Solved)
	}
	if p.Solved[0].Name != "i" {
		t.Errorf("solved range name = %q, want i", p.Solved[0].Name)
	}
	if len(p.Constraints) != 0 {
		t.Errorf("expected no leftover constraints, got %+v", p.Constraints)
	}
}

func TestAddConstraintsLeavesNonVariableMiddleUnsolved(t *testing.T) {
	var p Problem
	zero := &expr.Constant{Val: 0}
	n := &expr.Parameter{Name: "N"}
	// middle = i+1, not a bare variable: cannot promote to a Range.
	iPlus1 := &expr.BinOp{Op: expr.Plus, L: &expr.Variable{Name: "i"}, R: &expr.Constant{Val: 1}}

	p.AddConstraints(zero, iPlus1, n)

	if len(p.Solved) != 0 {
		t.Fatalf("expected no solved ranges, got %+v", p.Solved)
	}
	if len(p.Constraints) != 2 {
		t.Fatalf("expected 2 unsolved constraints, got %d", len(p.Constraints))
	}
}

func TestAddConstraintDeduplicatesAgainstSolvedRange(t *testing.T) {
	var p Problem
	zero := &expr.Constant{Val: 0}
	n := &expr.Parameter{Name: "N"}
	i := &expr.Variable{Name: "i"}
	p.AddRange("i", zero, n)

	// These are exactly the constraints implied by the range above, so
	// neither should be added.
	p.AddConstraint(zero, LE, i)
	p.AddConstraint(i, LT, n)

	if len(p.Constraints) != 0 {
		t.Errorf("expected constraints implied by a solved range to be dropped, got %+v", p.Constraints)
	}
}

func TestAddRangeDeduplicatesIdenticalRanges(t *testing.T) {
	var p Problem
	zero := &expr.Constant{Val: 0}
	n := &expr.Parameter{Name: "N"}
	p.AddRange("i", zero, n)
	p.AddRange("i", &expr.Constant{Val: 0}, &expr.Parameter{Name: "N"})

	if len(p.Solved) != 1 {
		t.Fatalf("expected duplicate range to be dropped, got %d entries", len(p.Solved))
	}
}

func TestClearResetsProblem(t *testing.T) {
	var p Problem
	p.AddRange("i", &expr.Constant{Val: 0}, &expr.Parameter{Name: "N"})
	p.AddConstraint(&expr.Variable{Name: "j"}, LT, &expr.Parameter{Name: "M"})
	p.Clear()
	if len(p.Solved) != 0 || len(p.Constraints) != 0 {
		t.Errorf("expected empty problem after Clear, got %+v", p)
	}
}
