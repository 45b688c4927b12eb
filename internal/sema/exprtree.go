package sema

import (
	"github.com/andidr/teckyl/internal/ast"
	"github.com/andidr/teckyl/internal/expr"
)

// ExprFromTree maps a checked AST expression into the symbolic
// expression engine's sum type: +,-,* become BinOp, unary - becomes
// Neg, an Ident becomes a Parameter if its name is in rangeParams and a
// Variable otherwise, and an integer Const becomes a Constant. The
// bridge lives here rather than in internal/expr to keep internal/ast a
// leaf package; ir.Lower reuses this same function.
//
// ok is false if t contains a node kind the symbolic engine has no
// representation for (Access, BuiltIn, Cast, Select, comparisons, …) —
// the caller decides whether that makes the surrounding expression
// non-affine rather than treating it as an internal error.
func ExprFromTree(t ast.Expr, rangeParams map[string]bool) (expr.Expr, bool) {
	switch t := t.(type) {
	case *ast.BinaryExpr:
		var op expr.Op
		switch t.Op {
		case "+":
			op = expr.Plus
		case "-":
			op = expr.Minus
		case "*":
			op = expr.Times
		default:
			return nil, false
		}
		l, ok := ExprFromTree(t.Left, rangeParams)
		if !ok {
			return nil, false
		}
		r, ok := ExprFromTree(t.Right, rangeParams)
		if !ok {
			return nil, false
		}
		return &expr.BinOp{Op: op, L: l, R: r}, true

	case *ast.UnaryExpr:
		if t.Op != "-" {
			return nil, false
		}
		inner, ok := ExprFromTree(t.Operand, rangeParams)
		if !ok {
			return nil, false
		}
		return &expr.Neg{Expr: inner}, true

	case *ast.Ident:
		if rangeParams[t.Name] {
			return &expr.Parameter{Name: t.Name}, true
		}
		return &expr.Variable{Name: t.Name}, true

	case *ast.Const:
		if t.IsFloat || t.IsBool {
			return nil, false
		}
		return &expr.Constant{Val: t.IntValue}, true
	}
	return nil, false
}
