package ir

import (
	"github.com/pkg/errors"

	"github.com/andidr/teckyl/internal/ast"
	"github.com/andidr/teckyl/internal/expr"
	"github.com/andidr/teckyl/internal/ir/irb"
	"github.com/andidr/teckyl/internal/pattern"
	"github.com/andidr/teckyl/internal/rangeinfer"
	"github.com/andidr/teckyl/internal/sema"
)

// canStructure decides the four preconditions for generating stmt as a
// single structured reduction operator rather than falling back to an
// explicit loop nest:
//
//	(a) the body-op option selects structured generation;
//	(b) every RHS index expression is affine in the iterator set;
//	(c) every reduction iterator appears directly as some tensor
//	    dimension's index, not buried in a compound expression;
//	(d) every iterator used to index a tensor dimension directly has a
//	    solved domain exactly equal to that dimension's declared size.
func (g *generator) canStructure(stmt *ast.Comprehension, iters []iterator, problem *rangeinfer.Problem) bool {
	if g.opts.BodyOp != Structured {
		return false
	}

	rangeParams := g.checked.RangeParameters
	accesses := collectAccesses(stmt.RHS)

	for _, acc := range accesses {
		for _, a := range acc.Args {
			se, ok := sema.ExprFromTree(a, rangeParams)
			if !ok || !expr.IsAffineExpr(se) {
				return false
			}
		}
	}

	directIndex := map[string]bool{}
	for _, acc := range accesses {
		for _, a := range acc.Args {
			if id, ok := a.(*ast.Ident); ok {
				directIndex[id.Name] = true
			}
		}
	}
	for _, it := range iters {
		if it.kind == irb.Reduction && !directIndex[it.name] {
			return false
		}
	}

	for _, acc := range accesses {
		tt := g.tensorTypes[acc.Name]
		if tt == nil {
			continue
		}
		for i, a := range acc.Args {
			id, ok := a.(*ast.Ident)
			if !ok {
				continue
			}
			rng, ok := g.iterRanges[id.Name]
			if !ok {
				return false
			}
			dimE, ok := sema.ExprFromTree(tt.Dims[i], rangeParams)
			if !ok {
				return false
			}
			if !isZeroExpr(rng.Low) || !expr.Equal(rng.Up, dimE) {
				return false
			}
		}
	}
	return true
}

// lowerStructured emits stmt as one StructuredReduction operator: one
// operand per distinct tensor read plus the output, each with its own
// affine map built directly from the symbolic expression engine.
func (g *generator) lowerStructured(stmt *ast.Comprehension, iters []iterator, bounds map[string]bound, outVal irb.Value) error {
	rangeParams := g.checked.RangeParameters
	accesses := collectAccesses(stmt.RHS)

	operands := make([]irb.Value, 0, len(accesses)+1)
	maps := make([]irb.AffineMap, 0, len(accesses)+1)
	argIndex := make(map[*ast.Access]int, len(accesses))

	for _, acc := range accesses {
		mem, ok := g.env[acc.Name]
		if !ok {
			return errors.Errorf("unbound tensor %q", acc.Name)
		}
		m := make(irb.AffineMap, len(acc.Args))
		for i, a := range acc.Args {
			se, ok := sema.ExprFromTree(a, rangeParams)
			if !ok {
				return errors.Errorf("index expression for %q is not representable symbolically", acc.Name)
			}
			m[i] = se
		}
		argIndex[acc] = len(operands)
		operands = append(operands, mem)
		maps = append(maps, m)
	}

	outIdx := len(operands)
	operands = append(operands, outVal)
	outMap := make(irb.AffineMap, len(stmt.Indices))
	for i, idx := range stmt.Indices {
		outMap[i] = &expr.Variable{Name: idx.Name}
	}
	maps = append(maps, outMap)

	iterTags := make([]irb.IterKind, len(iters))
	for i, it := range iters {
		iterTags[i] = it.kind
	}

	combiner := combinerFor(stmt.Assignment)
	elem := g.elemTypeOf(stmt.Ident)

	var bodyErr error
	g.b.StructuredReduction(operands, maps, iterTags, combiner, elem, func(args []irb.Value) irb.Value {
		read := func(acc *ast.Access) (irb.Value, ast.ScalarType) {
			return args[argIndex[acc]], g.checked.Types[acc]
		}
		val, _, err := g.evalBody(stmt.RHS, read)
		if err != nil {
			bodyErr = err
			return args[outIdx]
		}
		return val
	})
	return bodyErr
}

// lowerSpecialized emits a recognized matmul/matvec comprehension as one
// NamedOp over its operands in canonical order, skipping the generic
// structured-reduction form entirely.
func (g *generator) lowerSpecialized(stmt *ast.Comprehension, m pattern.Match, outVal irb.Value) error {
	operands := make([]irb.Value, 0, len(m.Operands)+1)
	for _, name := range m.Operands {
		mem, ok := g.env[name]
		if !ok {
			return errors.Errorf("unbound tensor %q", name)
		}
		operands = append(operands, mem)
	}
	operands = append(operands, outVal)
	elem := g.elemTypeOf(stmt.Ident)
	g.b.NamedOp(m.Kind.String(), operands, elem)
	return nil
}

// lowerLoopNest is the fallback generator: a nested Loop per iterator (in
// collected order), with the innermost body loading the current output
// element when reducing, computing the RHS, combining, converting to the
// LHS scalar type, and storing.
func (g *generator) lowerLoopNest(stmt *ast.Comprehension, iters []iterator, bounds map[string]bound, outVal irb.Value) error {
	var bodyErr error

	var rec func(depth int)
	rec = func(depth int) {
		if bodyErr != nil {
			return
		}
		if depth == len(iters) {
			g.lowerLoopBody(stmt, outVal, &bodyErr)
			return
		}
		b := bounds[iters[depth].name]
		g.b.Loop(b.lo, b.hi, func(iv irb.Value) {
			g.iterVals[iters[depth].name] = iv
			rec(depth + 1)
		})
	}
	rec(0)
	return bodyErr
}

func (g *generator) lowerLoopBody(stmt *ast.Comprehension, outVal irb.Value, bodyErr *error) {
	lhsIdx := make([]irb.Value, len(stmt.Indices))
	for i, idx := range stmt.Indices {
		v, ok := g.iterVals[idx.Name]
		if !ok {
			*bodyErr = errors.Errorf("LHS index %q is not bound", idx.Name)
			return
		}
		lhsIdx[i] = v
	}

	read := func(acc *ast.Access) (irb.Value, ast.ScalarType) {
		idxVals := make([]irb.Value, len(acc.Args))
		for i, a := range acc.Args {
			v, err := g.evalIndexArg(a)
			if err != nil {
				*bodyErr = err
				return nil, ast.ScalarType{}
			}
			idxVals[i] = v
		}
		mem, ok := g.env[acc.Name]
		if !ok {
			*bodyErr = errors.Errorf("unbound tensor %q", acc.Name)
			return nil, ast.ScalarType{}
		}
		return g.b.Load(mem, idxVals), g.checked.Types[acc]
	}

	rhsVal, rhsType, err := g.evalBody(stmt.RHS, read)
	if err != nil {
		*bodyErr = err
		return
	}
	if *bodyErr != nil {
		return
	}

	elem := g.elemTypeOf(stmt.Ident)
	var result irb.Value
	if stmt.Assignment.IsReduction() {
		cur := g.b.Load(outVal, lhsIdx)
		result, err = g.combine(stmt.Assignment, cur, elem, rhsVal, rhsType)
	} else {
		result, err = g.convertTo(rhsVal, rhsType, elem)
	}
	if err != nil {
		*bodyErr = err
		return
	}
	g.b.Store(outVal, lhsIdx, result)
}

// combine applies the reduction operator between the loaded prior output
// element cur (already of curType, the LHS scalar type) and the freshly
// computed RHS value.
func (g *generator) combine(op ast.AssignOp, cur irb.Value, curType ast.ScalarType, rhsVal irb.Value, rhsType ast.ScalarType) (irb.Value, error) {
	rhsConv, err := g.convertTo(rhsVal, rhsType, curType)
	if err != nil {
		return nil, err
	}
	bop, err := reductionBinOp(op)
	if err != nil {
		return nil, err
	}
	return g.b.BinOp(bop, curType, cur, rhsConv), nil
}

// evalIndexArg lowers one Access argument (an integral index expression
// over iterators/constants/arithmetic) to an index-typed Value, distinct
// from evalBody's data-value path: an index argument's iterators are
// already index-typed builder Values (loop induction variables), so its
// arithmetic stays in the builder's index type throughout rather than
// being unified against a data scalar type.
func (g *generator) evalIndexArg(e ast.Expr) (irb.Value, error) {
	switch e := e.(type) {
	case *ast.Ident:
		v, ok := g.iterVals[e.Name]
		if !ok {
			return nil, errors.Errorf("iterator %q is not bound", e.Name)
		}
		return v, nil
	case *ast.Const:
		if e.IsFloat || e.IsBool {
			return nil, errors.Errorf("a non-integer constant cannot index a tensor")
		}
		return g.b.ConstIndex(int64(e.IntValue)), nil
	case *ast.UnaryExpr:
		if e.Op != "-" {
			return nil, errors.Errorf("unary operator %q cannot appear in an index expression", e.Op)
		}
		inner, err := g.evalIndexArg(e.Operand)
		if err != nil {
			return nil, err
		}
		return g.b.BinOp(irb.Sub, indexElem, g.b.ConstIndex(0), inner), nil
	case *ast.BinaryExpr:
		l, err := g.evalIndexArg(e.Left)
		if err != nil {
			return nil, err
		}
		r, err := g.evalIndexArg(e.Right)
		if err != nil {
			return nil, err
		}
		op, err := binOpFor(e.Op)
		if err != nil {
			return nil, err
		}
		return g.b.BinOp(op, indexElem, l, r), nil
	}
	return nil, errors.Errorf("unsupported index expression")
}
