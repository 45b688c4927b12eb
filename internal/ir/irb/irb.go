// Package irb defines the minimal tensor-IR builder interface the
// generator in internal/ir invokes: function/block creation, constants,
// arithmetic and compare ops, memref loads/stores, a bounded loop, a
// structured reduction operator, named specialized ops, value
// conversions, memref sub-views, and dim queries. There is no concrete
// backend in this repository — internal/irtest supplies the one
// implementation, a recording fake.
package irb

import (
	"github.com/andidr/teckyl/internal/ast"
	"github.com/andidr/teckyl/internal/expr"
)

// Value is an opaque handle to a builder-defined SSA value (a function, a
// block argument, a constant, a loop induction variable, …). Concrete
// builders define their own underlying representation; the generator
// never inspects one beyond passing it back into the builder.
type Value any

// MemrefType describes one tensor parameter's element type and rank.
// The generator never constructs a memref with device layout, leaving
// the (allocated, aligned, offset, sizes, strides) handle itself to the
// builder.
type MemrefType struct {
	Elem ast.ScalarType
	Rank int
}

// BinOpKind is an arithmetic binary operator the builder can lower,
// selected by the generator from the already-unified operand type.
type BinOpKind int

const (
	Add BinOpKind = iota
	Sub
	Mul
	Div
	Rem
)

// CmpOpKind is a comparison operator, used only when lowering a
// comparison in a RHS expression (e.g. a ternary's condition) — never by
// the reduction combiner.
type CmpOpKind int

const (
	CmpEq CmpOpKind = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

// ConvertKind names one of the three lossless conversions allowed when
// aligning mismatched operand types.
type ConvertKind int

const (
	WidenInt ConvertKind = iota
	WidenFloat
	IntToFloat
)

// IterKind tags one iterator of a structured reduction as either
// parallel (an LHS index — produces one output point per value) or
// reduction (an RHS-only index — contracted by the combiner).
type IterKind int

const (
	Parallel IterKind = iota
	Reduction
)

// Combiner names how a structured reduction's body result combines
// with the current output element: +, *, or pure assignment.
type Combiner int

const (
	CombinePlus Combiner = iota
	CombineTimes
	CombineAssign
)

// AffineMap is one operand's per-dimension index expression, reusing the
// symbolic expression engine (internal/expr) instead of an ad hoc
// closure or string template — every component is built from the same
// Variable/Parameter/Constant/BinOp vocabulary range inference already
// uses, so a recording builder (internal/irtest) can compare affine maps
// structurally with go-cmp.
type AffineMap []expr.Expr

// Builder is the tensor-IR construction surface the generator drives.
// Every method operates against the builder's current insertion point;
// Loop and StructuredReduction take the nested body as a callback and
// restore the enclosing insertion point once the callback returns, on
// all exit paths.
type Builder interface {
	// CreateFunction declares a function with the given parameter memref
	// types and no results, and makes it the current function.
	CreateFunction(name string, params []MemrefType) Value

	// AddEntryBlock appends the function's entry block and returns one
	// block-argument Value per parameter, in order.
	AddEntryBlock(fn Value) []Value

	// FinishFunction terminates the current function body.
	FinishFunction(fn Value)

	ConstInt(value int64, bits int) Value
	ConstFloat(value float64, bits int) Value
	ConstIndex(value int64) Value

	// Dim reads dimension i of memref as an index-typed Value.
	Dim(memref Value, i int) Value

	BinOp(op BinOpKind, elem ast.ScalarType, l, r Value) Value
	Cmp(op CmpOpKind, elem ast.ScalarType, l, r Value) Value

	Load(memref Value, indices []Value) Value
	Store(memref Value, indices []Value, v Value)

	// Loop creates a bounded loop [lo,hi) with step 1. body receives the
	// induction value; the insertion point is inside the loop body for
	// the duration of the callback and restored to the enclosing block
	// once it returns.
	Loop(lo, hi Value, body func(iv Value))

	// StructuredReduction creates an indexed-reduction operator over
	// operands (the last of which is the output), each with its own
	// AffineMap and the per-iterator tag in iters (same order as maps'
	// shared iterator list). body receives one element-typed block
	// argument per operand and must return the combined result, which
	// the operator yields. elem is the element scalar type the body
	// computes in.
	StructuredReduction(operands []Value, maps []AffineMap, iters []IterKind,
		combiner Combiner, elem ast.ScalarType, body func(args []Value) Value) Value

	// NamedOp creates a named specialized operator (e.g. "matmul",
	// "matvec") over operands already in canonical order.
	NamedOp(name string, operands []Value, elem ast.ScalarType) Value

	Convert(v Value, kind ConvertKind, target ast.ScalarType) Value

	// SubView creates a memref view into memref at the given per-
	// dimension offsets/sizes/strides (each an index-typed Value).
	SubView(memref Value, offsets, sizes, strides []Value) Value

	// Intrinsic calls one of Sema's fixed-arity math built-ins (exp,
	// log, sqrt, pow, …); the generator emits one per checked
	// *ast.BuiltIn node.
	Intrinsic(name string, elem ast.ScalarType, args []Value) Value

	// Choose lowers a ternary expression's data-level "cond ? t : f"
	// selection; the grammar allows a TernaryExpr anywhere a RHS
	// expression can appear, so the generator needs a value-level
	// select.
	Choose(cond, t, f Value, elem ast.ScalarType) Value
}
