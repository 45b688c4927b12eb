// Package ir lowers one checked Def (internal/sema's output) into a
// single function against the internal/ir/irb builder interface: a
// single mutable per-function state struct walked top-down by one Lower
// entry point.
package ir

import (
	"github.com/pkg/errors"

	"github.com/andidr/teckyl/internal/ast"
	"github.com/andidr/teckyl/internal/ir/irb"
	"github.com/andidr/teckyl/internal/rangeinfer"
	"github.com/andidr/teckyl/internal/sema"
)

// BodyOp selects how a comprehension's reduction body is generated:
// as a structured reduction operator, or as an explicit loop nest.
type BodyOp int

const (
	Structured BodyOp = iota
	LoopNest
)

// Options configures one Lower call, mirroring the driver's --body-op
// and --specialize-structured-ops flags.
type Options struct {
	BodyOp     BodyOp
	Specialize bool // specialize-structured-ops
}

// Lower translates checked into one function against b. Specialize
// with BodyOp=LoopNest is a fatal configuration error.
func Lower(checked *sema.CheckedDef, b irb.Builder, opts Options) error {
	if opts.Specialize && opts.BodyOp == LoopNest {
		return errors.New("specialize-structured-ops requires body-op=structured")
	}

	def := checked.Def
	g := &generator{
		checked:     checked,
		b:           b,
		opts:        opts,
		env:         map[string]irb.Value{},
		dimVals:     map[string]irb.Value{},
		tensorTypes: map[string]*ast.TensorType{},
		scalarTypes: map[string]ast.ScalarType{},
	}

	// Inferred return types are enough for checking and header emission,
	// but lowering needs every output's declared shape up front.
	for _, r := range def.Returns {
		if r.Type == nil || r.Type.Inferred {
			return errors.Errorf("type for output tensor %q not specified", r.Ident)
		}
	}

	order := make([]*ast.Param, 0, len(def.Params)+len(def.Returns))
	order = append(order, def.Params...)
	order = append(order, def.Returns...)

	paramTypes := make([]irb.MemrefType, len(order))
	for i, p := range order {
		tt, scalar := g.resolveType(p)
		if tt != nil {
			g.tensorTypes[p.Ident] = tt
			paramTypes[i] = irb.MemrefType{Elem: tt.Scalar, Rank: len(tt.Dims)}
		} else {
			g.scalarTypes[p.Ident] = scalar
			paramTypes[i] = irb.MemrefType{Elem: scalar, Rank: 0}
		}
	}

	fn := g.b.CreateFunction(def.Name, paramTypes)
	args := g.b.AddEntryBlock(fn)
	for i, p := range order {
		g.env[p.Ident] = args[i]
	}

	// Symbolic dimension sizes are not passed explicitly: bind every
	// dimension-size symbol to dim(tensor,i) the first time it is seen,
	// walking inputs then outputs in declaration order.
	for i, p := range order {
		tt := g.tensorTypes[p.Ident]
		if tt == nil {
			continue
		}
		for d, dim := range tt.Dims {
			id, ok := dim.(*ast.Ident)
			if !ok {
				continue
			}
			if _, bound := g.dimVals[id.Name]; bound {
				continue
			}
			g.dimVals[id.Name] = g.b.Dim(args[i], d)
		}
	}

	for _, stmt := range def.Statements {
		if err := g.lowerComprehension(stmt); err != nil {
			return errors.Wrapf(err, "lowering %s(...)", stmt.Ident)
		}
	}

	g.b.FinishFunction(fn)
	return nil
}

// resolveType returns p's tensor type (nil if p is a bare scalar) and, if
// scalar, its scalar type — read from p's ast annotation, falling back to
// the Sema-resolved output binding only when p has no annotation.
func (g *generator) resolveType(p *ast.Param) (*ast.TensorType, ast.ScalarType) {
	if p.Type != nil && p.Type.Tensor != nil {
		return p.Type.Tensor, ast.ScalarType{}
	}
	if p.Type != nil && p.Type.Scalar != nil {
		return nil, *p.Type.Scalar
	}
	if b, ok := g.checked.Outputs[p.Ident]; ok {
		if b.Tensor != nil {
			return b.Tensor, ast.ScalarType{}
		}
		return nil, *b.Scalar
	}
	return nil, ast.ScalarType{}
}

// generator holds per-Def lowering state.
type generator struct {
	checked *sema.CheckedDef
	b       irb.Builder
	opts    Options

	env         map[string]irb.Value       // parameter/return name -> its memref (or scalar) block argument
	dimVals     map[string]irb.Value       // range-parameter name -> dim(...) index value
	tensorTypes map[string]*ast.TensorType // parameter/return name -> declared/inferred tensor type
	scalarTypes map[string]ast.ScalarType  // parameter/return name -> declared/inferred scalar type (rank 0)

	// iterVals holds the current statement's iterator induction values,
	// populated as nested loops are entered; reset per statement.
	iterVals map[string]irb.Value

	// iterRanges holds the current statement's effective symbolic range
	// per iterator (explicit where-clause constraint first, solved range
	// problem as fallback); reset per statement.
	iterRanges map[string]rangeinfer.Range
}

// indexElem stands in for the builder's own platform index type, which
// ast.ScalarType has no dedicated kind for; index word width is the
// builder's business, not this generator's.
var indexElem = ast.ScalarType{Kind: ast.KindIntScalar, Bits: 64}
