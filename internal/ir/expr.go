package ir

import (
	"github.com/pkg/errors"

	"github.com/andidr/teckyl/internal/ast"
	"github.com/andidr/teckyl/internal/ir/irb"
	"github.com/andidr/teckyl/internal/sema"
)

// accessReader supplies the Value and scalar type for one tensor read
// inside a lowered expression. A structured operator's body reads its
// block arguments; the loop-nest fallback issues a Load instead — the
// rest of evalBody is identical either way.
type accessReader func(acc *ast.Access) (irb.Value, ast.ScalarType)

// evalBody lowers one (already Sema-checked) RHS expression node to a
// builder Value, dispatching on its post-Sema shape (Access/BuiltIn
// replace the pre-Sema Apply node; see internal/sema's rewrite pass).
func (g *generator) evalBody(e ast.Expr, read accessReader) (irb.Value, ast.ScalarType, error) {
	switch e := e.(type) {
	case *ast.Const:
		t := g.checked.Types[e]
		v, err := g.constValue(e, t)
		return v, t, err

	case *ast.Ident:
		v, ok := g.iterVals[e.Name]
		if !ok {
			return nil, ast.ScalarType{}, errors.Errorf("iterator %q is not bound", e.Name)
		}
		return v, g.checked.Types[e], nil

	case *ast.Access:
		if read == nil {
			return nil, ast.ScalarType{}, errors.Errorf("a tensor read is not valid in an index expression")
		}
		v, t := read(e)
		return v, t, nil

	case *ast.BuiltIn:
		args := make([]irb.Value, len(e.Args))
		for i, a := range e.Args {
			v, _, err := g.evalBody(a, read)
			if err != nil {
				return nil, ast.ScalarType{}, err
			}
			args[i] = v
		}
		t := g.checked.Types[e]
		return g.b.Intrinsic(e.Name, t, args), t, nil

	case *ast.Cast:
		inner, innerType, err := g.evalBody(e.Exp, read)
		if err != nil {
			return nil, ast.ScalarType{}, err
		}
		v, err := g.convertTo(inner, innerType, e.Target)
		return v, e.Target, err

	case *ast.Select:
		mem, ok := g.env[e.Tensor]
		if !ok {
			return nil, ast.ScalarType{}, errors.Errorf("unbound tensor %q", e.Tensor)
		}
		return g.b.Dim(mem, e.Dim), g.checked.Types[e], nil

	case *ast.UnaryExpr:
		return g.evalUnary(e, read)

	case *ast.BinaryExpr:
		return g.evalBinary(e, read)

	case *ast.TernaryExpr:
		return g.evalTernary(e, read)
	}
	return nil, ast.ScalarType{}, errors.Errorf("unsupported expression kind in a lowered body")
}

func (g *generator) evalUnary(e *ast.UnaryExpr, read accessReader) (irb.Value, ast.ScalarType, error) {
	inner, t, err := g.evalBody(e.Operand, read)
	if err != nil {
		return nil, ast.ScalarType{}, err
	}
	switch e.Op {
	case "-":
		zero, err := g.constOf(t, 0)
		if err != nil {
			return nil, ast.ScalarType{}, err
		}
		return g.b.BinOp(irb.Sub, t, zero, inner), t, nil
	}
	return nil, ast.ScalarType{}, errors.Errorf("unary operator %q is not valid in a lowered expression", e.Op)
}

func (g *generator) evalTernary(e *ast.TernaryExpr, read accessReader) (irb.Value, ast.ScalarType, error) {
	cond, _, err := g.evalBody(e.Cond, read)
	if err != nil {
		return nil, ast.ScalarType{}, err
	}
	t, tt, err := g.evalBody(e.Then, read)
	if err != nil {
		return nil, ast.ScalarType{}, err
	}
	f, ft, err := g.evalBody(e.Else, read)
	if err != nil {
		return nil, ast.ScalarType{}, err
	}
	unified := g.checked.Types[e]
	tc, err := g.convertTo(t, tt, unified)
	if err != nil {
		return nil, ast.ScalarType{}, err
	}
	fc, err := g.convertTo(f, ft, unified)
	if err != nil {
		return nil, ast.ScalarType{}, err
	}
	return g.b.Choose(cond, tc, fc, unified), unified, nil
}

func (g *generator) evalBinary(e *ast.BinaryExpr, read accessReader) (irb.Value, ast.ScalarType, error) {
	switch e.Op {
	case "&&", "||":
		return nil, ast.ScalarType{}, errors.Errorf("logical operator %q cannot appear in a lowered value expression", e.Op)
	}

	l, lt, err := g.evalBody(e.Left, read)
	if err != nil {
		return nil, ast.ScalarType{}, err
	}
	r, rt, err := g.evalBody(e.Right, read)
	if err != nil {
		return nil, ast.ScalarType{}, err
	}
	unified, ok := sema.MatchTypes(lt, rt)
	if !ok {
		return nil, ast.ScalarType{}, errors.Errorf("operand types %s and %s do not unify", lt, rt)
	}
	lc, err := g.convertTo(l, lt, unified)
	if err != nil {
		return nil, ast.ScalarType{}, err
	}
	rc, err := g.convertTo(r, rt, unified)
	if err != nil {
		return nil, ast.ScalarType{}, err
	}

	if op, ok := cmpOpFor(e.Op); ok {
		return g.b.Cmp(op, unified, lc, rc), ast.ScalarType{Kind: ast.KindBool}, nil
	}
	op, err := binOpFor(e.Op)
	if err != nil {
		return nil, ast.ScalarType{}, err
	}
	return g.b.BinOp(op, unified, lc, rc), unified, nil
}

func cmpOpFor(op string) (irb.CmpOpKind, bool) {
	switch op {
	case "==":
		return irb.CmpEq, true
	case "!=":
		return irb.CmpNe, true
	case "<":
		return irb.CmpLt, true
	case "<=":
		return irb.CmpLe, true
	case ">":
		return irb.CmpGt, true
	case ">=":
		return irb.CmpGe, true
	}
	return 0, false
}

func binOpFor(op string) (irb.BinOpKind, error) {
	switch op {
	case "+":
		return irb.Add, nil
	case "-":
		return irb.Sub, nil
	case "*":
		return irb.Mul, nil
	case "/":
		return irb.Div, nil
	case "%":
		return irb.Rem, nil
	}
	return 0, errors.Errorf("unsupported binary operator %q", op)
}

// constValue lowers a literal to a builder constant in scalar type t. A
// plain integer-looking literal can carry a float type (Sema assigns it
// one from context, e.g. "2" used where a float32 is expected), in which
// case IntValue — not the unset FloatValue — holds its value.
func (g *generator) constValue(c *ast.Const, t ast.ScalarType) (irb.Value, error) {
	switch t.Kind {
	case ast.KindBool:
		iv := int64(0)
		if c.BoolValue {
			iv = 1
		}
		return g.b.ConstInt(iv, 1), nil
	case ast.KindFloatScalar:
		v := c.FloatValue
		if !c.IsFloat {
			v = float64(c.IntValue)
		}
		return g.b.ConstFloat(v, t.Bits), nil
	default:
		return g.b.ConstInt(int64(c.IntValue), t.Bits), nil
	}
}

// convertTo aligns a value from 'from' to 'to' using only lossless
// conversions: float widen, signed-int widen, or int->float when the
// integer's bit width fits the float's mantissa. Anything else is a
// fatal lowering error.
func (g *generator) convertTo(v irb.Value, from, to ast.ScalarType) (irb.Value, error) {
	if from == to {
		return v, nil
	}
	switch {
	case from.Kind == ast.KindFloatScalar && to.Kind == ast.KindFloatScalar && to.Bits >= from.Bits:
		return g.b.Convert(v, irb.WidenFloat, to), nil
	case from.Kind == ast.KindIntScalar && to.Kind == ast.KindIntScalar && to.Bits >= from.Bits:
		return g.b.Convert(v, irb.WidenInt, to), nil
	case from.Kind == ast.KindIntScalar && to.Kind == ast.KindFloatScalar && from.Bits <= mantissaBits(to.Bits):
		return g.b.Convert(v, irb.IntToFloat, to), nil
	}
	return nil, errors.Errorf("no lossless conversion from %s to %s", from, to)
}

func mantissaBits(floatBits int) int {
	switch floatBits {
	case 16:
		return 10
	case 32:
		return 24
	case 64:
		return 53
	}
	return 0
}
