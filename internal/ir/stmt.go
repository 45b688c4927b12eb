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

// iterator is one index variable a comprehension's body is generated
// over, tagged parallel (an LHS index) or reduction (an RHS-only
// index).
type iterator struct {
	name string
	kind irb.IterKind
}

// bound is an iterator's solved [lo,hi) range, already lowered to
// builder Values.
type bound struct{ lo, hi irb.Value }

// lowerComprehension generates one statement's body: collect iterators,
// solve their bounds, broadcast the neutral element for an initialized
// reduction, then choose between a structured operator and a loop-nest
// fallback.
func (g *generator) lowerComprehension(stmt *ast.Comprehension) error {
	g.iterVals = map[string]irb.Value{}

	iters := collectIterators(stmt)
	problem := g.checked.Problems[stmt]
	g.iterRanges = g.iteratorRanges(stmt, problem, iters)

	bounds := make(map[string]bound, len(iters))
	for _, it := range iters {
		rng, ok := g.iterRanges[it.name]
		if !ok {
			return errors.Errorf("iterator %q has no solved range", it.name)
		}
		lo, hi, err := g.lowerBoundPair(rng)
		if err != nil {
			return err
		}
		bounds[it.name] = bound{lo, hi}
	}

	outVal, ok := g.env[stmt.Ident]
	if !ok {
		return errors.Errorf("output %q has no bound memref", stmt.Ident)
	}
	outTT := g.tensorTypes[stmt.Ident]

	if stmt.Assignment.IsInitialized() {
		if err := g.broadcastNeutral(stmt, outVal, outTT, bounds); err != nil {
			return errors.Wrapf(err, "broadcasting neutral element for %s", stmt.Ident)
		}
	}

	if g.canStructure(stmt, iters, problem) {
		if g.opts.Specialize {
			if m, ok := pattern.Recognize(stmt); ok {
				return g.lowerSpecialized(stmt, m, outVal)
			}
		}
		return g.lowerStructured(stmt, iters, bounds, outVal)
	}
	return g.lowerLoopNest(stmt, iters, bounds, outVal)
}

// collectIterators returns the statement's iterators in a stable order:
// LHS indices (parallel) first in source order, then reduction variables
// (Sema's discovery order) not already present as an LHS index.
func collectIterators(stmt *ast.Comprehension) []iterator {
	seen := make(map[string]bool, len(stmt.Indices)+len(stmt.ReductionVars))
	iters := make([]iterator, 0, len(stmt.Indices)+len(stmt.ReductionVars))
	for _, idx := range stmt.Indices {
		if seen[idx.Name] {
			continue
		}
		seen[idx.Name] = true
		iters = append(iters, iterator{idx.Name, irb.Parallel})
	}
	for _, name := range stmt.ReductionVars {
		if seen[name] {
			continue
		}
		seen[name] = true
		iters = append(iters, iterator{name, irb.Reduction})
	}
	return iters
}

// iteratorRanges resolves each iterator's effective symbolic [lo,up)
// range for this statement. An explicit where-clause range constraint
// wins over the problem's solved entries — the problem also carries the
// default [0,dim) ranges Sema derives from the LHS declaration, and a
// where-clause narrows those (the halo case). Iterators with no explicit
// constraint fall back to the solved range their tensor accesses imply.
func (g *generator) iteratorRanges(stmt *ast.Comprehension, problem *rangeinfer.Problem, iters []iterator) map[string]rangeinfer.Range {
	out := make(map[string]rangeinfer.Range, len(iters))
	for _, w := range stmt.WhereClauses {
		rc, ok := w.(*ast.RangeConstraint)
		if !ok {
			continue
		}
		lo, ok1 := sema.ExprFromTree(rc.Start, g.checked.RangeParameters)
		hi, ok2 := sema.ExprFromTree(rc.End, g.checked.RangeParameters)
		if ok1 && ok2 {
			out[rc.Ident] = rangeinfer.Range{Name: rc.Ident, Low: lo, Up: hi}
		}
	}
	for _, it := range iters {
		if _, ok := out[it.name]; ok {
			continue
		}
		if rng, ok := findSolvedRange(problem, it.name); ok {
			out[it.name] = rng
		}
	}
	return out
}

func (g *generator) lowerBoundPair(rng rangeinfer.Range) (lo, hi irb.Value, err error) {
	lo, err = g.evalBoundExpr(rng.Low)
	if err != nil {
		return nil, nil, err
	}
	hi, err = g.evalBoundExpr(rng.Up)
	if err != nil {
		return nil, nil, err
	}
	return lo, hi, nil
}

// evalBoundExpr lowers a symbolic range-inference expression (built over
// Constant/Parameter/Variable/BinOp/Neg) to an index-typed builder Value.
// Parameters resolve through dimVals, Variables through an already-bound
// outer iterator (a later iterator's bounds may reference an earlier
// one's induction value, e.g. a triangular loop).
func (g *generator) evalBoundExpr(e expr.Expr) (irb.Value, error) {
	switch e := e.(type) {
	case *expr.Constant:
		return g.b.ConstIndex(int64(e.Val)), nil
	case *expr.Parameter:
		v, ok := g.dimVals[e.Name]
		if !ok {
			return nil, errors.Errorf("range parameter %q is not bound to any tensor dimension", e.Name)
		}
		return v, nil
	case *expr.Variable:
		v, ok := g.iterVals[e.Name]
		if !ok {
			return nil, errors.Errorf("iterator %q is referenced before it is bound", e.Name)
		}
		return v, nil
	case *expr.Neg:
		inner, err := g.evalBoundExpr(e.Expr)
		if err != nil {
			return nil, err
		}
		return g.b.BinOp(irb.Sub, indexElem, g.b.ConstIndex(0), inner), nil
	case *expr.BinOp:
		l, err := g.evalBoundExpr(e.L)
		if err != nil {
			return nil, err
		}
		r, err := g.evalBoundExpr(e.R)
		if err != nil {
			return nil, err
		}
		op, err := symbolicBinOp(e.Op)
		if err != nil {
			return nil, err
		}
		return g.b.BinOp(op, indexElem, l, r), nil
	}
	return nil, errors.Errorf("unsupported range-inference expression kind")
}

func symbolicBinOp(op expr.Op) (irb.BinOpKind, error) {
	switch op {
	case expr.Plus:
		return irb.Add, nil
	case expr.Minus:
		return irb.Sub, nil
	case expr.Times:
		return irb.Mul, nil
	}
	return 0, errors.Errorf("unsupported symbolic operator %s", op)
}

// broadcastNeutral fills outVal (or, for a partial write, the sub-view
// stmt's LHS indices cover) with the assignment operator's neutral
// element before the reduction runs.
func (g *generator) broadcastNeutral(stmt *ast.Comprehension, outVal irb.Value, outTT *ast.TensorType, bounds map[string]bound) error {
	neutral, err := g.neutralElement(stmt)
	if err != nil {
		return err
	}
	if outTT == nil || len(stmt.Indices) == 0 {
		g.b.Store(outVal, nil, neutral)
		return nil
	}

	full, err := g.lhsSpansOutput(stmt, outTT, bounds)
	if err != nil {
		return err
	}
	if full {
		return g.fillRegion(stmt.Indices, bounds, outVal, neutral, false)
	}

	offsets := make([]irb.Value, len(stmt.Indices))
	sizes := make([]irb.Value, len(stmt.Indices))
	strides := make([]irb.Value, len(stmt.Indices))
	for i, idx := range stmt.Indices {
		b := bounds[idx.Name]
		offsets[i] = b.lo
		sizes[i] = g.b.BinOp(irb.Sub, indexElem, b.hi, b.lo)
		strides[i] = g.b.ConstIndex(1)
	}
	view := g.b.SubView(outVal, offsets, sizes, strides)
	return g.fillRegion(stmt.Indices, bounds, view, neutral, true)
}

// fillRegion stores neutral at every point of indices' iteration space
// into target. local selects whether the loop bounds used are target's
// own (0-based, for a sub-view) or the statement's absolute bounds.
func (g *generator) fillRegion(indices []*ast.Ident, bounds map[string]bound, target, neutral irb.Value, local bool) error {
	var rec func(depth int, idxVals []irb.Value)
	rec = func(depth int, idxVals []irb.Value) {
		if depth == len(indices) {
			g.b.Store(target, idxVals, neutral)
			return
		}
		name := indices[depth].Name
		b := bounds[name]
		lo, hi := b.lo, b.hi
		if local {
			lo = g.b.ConstIndex(0)
			hi = g.b.BinOp(irb.Sub, indexElem, b.hi, b.lo)
		}
		g.b.Loop(lo, hi, func(iv irb.Value) {
			rec(depth+1, append(idxVals, iv))
		})
	}
	rec(0, nil)
	return nil
}

func (g *generator) neutralElement(stmt *ast.Comprehension) (irb.Value, error) {
	elem := g.elemTypeOf(stmt.Ident)
	switch stmt.Assignment {
	case ast.OpPlusEqInit:
		return g.constOf(elem, 0)
	case ast.OpStarEqInit:
		return g.constOf(elem, 1)
	}
	return nil, errors.Errorf("assignment operator %s has no neutral element", stmt.Assignment)
}

func (g *generator) constOf(t ast.ScalarType, v float64) (irb.Value, error) {
	switch t.Kind {
	case ast.KindFloatScalar:
		return g.b.ConstFloat(v, t.Bits), nil
	case ast.KindIntScalar, ast.KindUIntScalar:
		return g.b.ConstInt(int64(v), t.Bits), nil
	}
	return nil, errors.Errorf("scalar kind has no constant representation")
}

func (g *generator) elemTypeOf(name string) ast.ScalarType {
	if tt, ok := g.tensorTypes[name]; ok {
		return tt.Scalar
	}
	return g.scalarTypes[name]
}

// lhsSpansOutput reports whether stmt's LHS indices, at their solved
// bounds, cover the output's full declared shape — the same "domain
// exactly equals the declared size" test the structured-vs-loop-nest
// decision uses, reused here to decide whether the neutral-element
// broadcast needs a sub-view at all.
func (g *generator) lhsSpansOutput(stmt *ast.Comprehension, outTT *ast.TensorType, bounds map[string]bound) (bool, error) {
	if len(stmt.Indices) != len(outTT.Dims) {
		return false, nil
	}
	for i, idx := range stmt.Indices {
		rng, ok := g.iterRanges[idx.Name]
		if !ok {
			return false, nil
		}
		if !isZeroExpr(rng.Low) {
			return false, nil
		}
		dimE, ok := sema.ExprFromTree(outTT.Dims[i], g.checked.RangeParameters)
		if !ok || !expr.Equal(rng.Up, dimE) {
			return false, nil
		}
	}
	return true, nil
}
