package ir

import (
	"github.com/pkg/errors"

	"github.com/andidr/teckyl/internal/ast"
	"github.com/andidr/teckyl/internal/expr"
	"github.com/andidr/teckyl/internal/ir/irb"
	"github.com/andidr/teckyl/internal/rangeinfer"
)

// collectAccesses flattens every *ast.Access reachable from e, in
// left-to-right evaluation order — used both to build a structured
// operator's operand list and to check the affine/direct-indexing
// preconditions of the structured-generation decision.
func collectAccesses(e ast.Expr) []*ast.Access {
	var out []*ast.Access
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		switch e := e.(type) {
		case *ast.Access:
			out = append(out, e)
			for _, a := range e.Args {
				walk(a)
			}
		case *ast.BuiltIn:
			for _, a := range e.Args {
				walk(a)
			}
		case *ast.BinaryExpr:
			walk(e.Left)
			walk(e.Right)
		case *ast.UnaryExpr:
			walk(e.Operand)
		case *ast.TernaryExpr:
			walk(e.Cond)
			walk(e.Then)
			walk(e.Else)
		case *ast.Cast:
			walk(e.Exp)
		}
	}
	walk(e)
	return out
}

func findSolvedRange(p *rangeinfer.Problem, name string) (rangeinfer.Range, bool) {
	if p == nil {
		return rangeinfer.Range{}, false
	}
	for _, r := range p.Solved {
		if r.Name == name {
			return r, true
		}
	}
	return rangeinfer.Range{}, false
}

func isZeroExpr(e expr.Expr) bool {
	c, ok := e.(*expr.Constant)
	return ok && c.Val == 0
}

// combinerFor maps a comprehension's assignment operator to the
// structured-reduction combiner that reduces its body result into the
// output element. min=/max= never reach here — Sema rejects them
// outright.
func combinerFor(op ast.AssignOp) irb.Combiner {
	switch op {
	case ast.OpPlusEq, ast.OpPlusEqInit:
		return irb.CombinePlus
	case ast.OpStarEq, ast.OpStarEqInit:
		return irb.CombineTimes
	}
	return irb.CombineAssign
}

// reductionBinOp maps a reduction assignment operator to the arithmetic
// operator the loop-nest fallback applies between the current output
// element and the freshly computed RHS value.
func reductionBinOp(op ast.AssignOp) (irb.BinOpKind, error) {
	switch op {
	case ast.OpPlusEq, ast.OpPlusEqInit:
		return irb.Add, nil
	case ast.OpStarEq, ast.OpStarEqInit:
		return irb.Mul, nil
	}
	return 0, errors.Errorf("assignment operator %s has no reduction combiner", op)
}
