package ast

import (
	"fmt"
	"strings"
)

// ExprString returns a concise one-line representation of an expression,
// used by ast-dump and by diagnostic messages.
func ExprString(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch e := e.(type) {
	case *Const:
		switch {
		case e.IsBool:
			if e.BoolValue {
				return "true"
			}
			return "false"
		case e.IsFloat:
			return fmt.Sprintf("%g", e.FloatValue)
		default:
			return fmt.Sprintf("%d", e.IntValue)
		}
	case *Ident:
		return e.Name
	case *Apply:
		return fmt.Sprintf("%s(%s)", e.Name, exprList(e.Args))
	case *Access:
		return fmt.Sprintf("%s(%s)", e.Name, exprList(e.Args))
	case *BuiltIn:
		return fmt.Sprintf("%s(%s)", e.Name, exprList(e.Args))
	case *Cast:
		return fmt.Sprintf("(%s)%s", e.Target, ExprString(e.Exp))
	case *Select:
		return fmt.Sprintf("%s.%d", e.Tensor, e.Dim)
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", ExprString(e.Left), e.Op, ExprString(e.Right))
	case *UnaryExpr:
		return fmt.Sprintf("(%s%s)", e.Op, ExprString(e.Operand))
	case *TernaryExpr:
		return fmt.Sprintf("(%s ? %s : %s)", ExprString(e.Cond), ExprString(e.Then), ExprString(e.Else))
	default:
		return "<unknown expr>"
	}
}

func exprList(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = ExprString(e)
	}
	return strings.Join(parts, ", ")
}

// DebugString returns a readable multi-line tree representation of a
// checked or unchecked Def, used by the driver's ast-dump mode.
func DebugString(def *Def) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Def %s\n", def.Name)
	for _, p := range def.Params {
		fmt.Fprintf(&b, "  Param %s: %s\n", p.Ident, typeExprString(p.Type))
	}
	for _, r := range def.Returns {
		fmt.Fprintf(&b, "  Return %s: %s\n", r.Ident, typeExprString(r.Type))
	}
	for _, stmt := range def.Statements {
		debugComprehension(&b, stmt)
	}
	return b.String()
}

func typeExprString(t *TypeExpr) string {
	switch {
	case t == nil:
		return "<none>"
	case t.Inferred:
		return "<inferred>"
	case t.Tensor != nil:
		return tensorTypeString(t.Tensor)
	case t.Scalar != nil:
		return t.Scalar.String()
	default:
		return "<unknown type>"
	}
}

func tensorTypeString(t *TensorType) string {
	dims := make([]string, len(t.Dims))
	for i, d := range t.Dims {
		dims[i] = ExprString(d)
	}
	return fmt.Sprintf("%s(%s)", t.Scalar, strings.Join(dims, ","))
}

func debugComprehension(b *strings.Builder, c *Comprehension) {
	idxNames := make([]string, len(c.Indices))
	for i, idx := range c.Indices {
		idxNames[i] = idx.Name
	}
	fmt.Fprintf(b, "  Comprehension %s(%s) %s %s\n", c.Ident, strings.Join(idxNames, ","), c.Assignment, ExprString(c.RHS))
	for _, w := range c.WhereClauses {
		switch w := w.(type) {
		case *RangeConstraint:
			fmt.Fprintf(b, "    where %s in %s:%s\n", w.Ident, ExprString(w.Start), ExprString(w.End))
		case *Let:
			fmt.Fprintf(b, "    where let %s = %s\n", w.Name, ExprString(w.RHS))
		case *Exists:
			fmt.Fprintf(b, "    where exists %s\n", ExprString(w.Exp))
		}
	}
	if len(c.ReductionVars) > 0 {
		fmt.Fprintf(b, "    reduction vars: %s\n", strings.Join(c.ReductionVars, ","))
	}
}
