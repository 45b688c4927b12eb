package sema

import "github.com/andidr/teckyl/internal/ast"

// Binding is what a name resolves to in the `env` map: either a tensor
// (rank > 0) or a bare scalar (rank 0).
type Binding struct {
	Tensor *ast.TensorType
	Scalar *ast.ScalarType
}

// Rank reports the tensor rank of b, or 0 for a scalar binding.
func (b Binding) Rank() int {
	if b.Tensor != nil {
		return len(b.Tensor.Dims)
	}
	return 0
}

// ScalarType returns the element scalar type of b, whether it is a
// tensor's element type or a bare scalar.
func (b Binding) ScalarType() ast.ScalarType {
	if b.Tensor != nil {
		return b.Tensor.Scalar
	}
	return *b.Scalar
}

// defaultFloat is the scalar type used when a float-valued literal has
// no suffix and no float-typed context to adopt.
var defaultFloat = ast.ScalarType{Kind: ast.KindFloatScalar, Bits: 32}

// defaultInt is the fallback integer type for an unsuffixed integer
// literal with no surrounding numeric context.
var defaultInt = ast.ScalarType{Kind: ast.KindIntScalar, Bits: 32}

// MatchTypes unifies two scalar types: float wins over integer, the
// wider float/uint wins within its family, int x uint promotes to
// int(max(bits)), and equal types are idempotent. ok is false for a
// bool mixed with a non-bool, which has no unified type.
func MatchTypes(a, b ast.ScalarType) (ast.ScalarType, bool) {
	if a == b {
		return a, true
	}
	if a.Kind == ast.KindBool || b.Kind == ast.KindBool {
		return ast.ScalarType{}, false
	}
	if a.Kind == ast.KindFloatScalar || b.Kind == ast.KindFloatScalar {
		switch {
		case a.Kind == ast.KindFloatScalar && b.Kind == ast.KindFloatScalar:
			return ast.ScalarType{Kind: ast.KindFloatScalar, Bits: maxInt(a.Bits, b.Bits)}, true
		case a.Kind == ast.KindFloatScalar:
			return a, true
		default:
			return b, true
		}
	}
	if a.Kind == ast.KindUIntScalar && b.Kind == ast.KindUIntScalar {
		return ast.ScalarType{Kind: ast.KindUIntScalar, Bits: maxInt(a.Bits, b.Bits)}, true
	}
	if a.Kind == ast.KindIntScalar && b.Kind == ast.KindIntScalar {
		return ast.ScalarType{Kind: ast.KindIntScalar, Bits: maxInt(a.Bits, b.Bits)}, true
	}
	// int x uint -> int(max(bits))
	return ast.ScalarType{Kind: ast.KindIntScalar, Bits: maxInt(a.Bits, b.Bits)}, true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// CanAssignWithoutCast reports whether a value of type src can flow into
// a dst-typed slot without narrowing — i.e. without an explicit Cast.
// Promoting src against dst must land exactly on dst; landing on
// anything wider means the assignment would narrow.
func CanAssignWithoutCast(src, dst ast.ScalarType) bool {
	promoted, ok := MatchTypes(src, dst)
	return ok && promoted == dst
}

// IsIntegral reports whether t is a signed or unsigned integer type.
func IsIntegral(t ast.ScalarType) bool {
	return t.Kind == ast.KindIntScalar || t.Kind == ast.KindUIntScalar
}

// IsNumeric reports whether t is integral or floating point.
func IsNumeric(t ast.ScalarType) bool {
	return IsIntegral(t) || t.Kind == ast.KindFloatScalar
}

// int32Type is the scalar type Sema attaches to every loop iterator and
// reduction variable.
var int32Type = ast.ScalarType{Kind: ast.KindIntScalar, Bits: 32}

// BuiltinInfo describes one intrinsic math function's fixed arity and,
// optionally, a forced result type overriding the float-propagation
// default.
type BuiltinInfo struct {
	Arity      int
	ResultType *ast.ScalarType // nil: result defaults to the (float) argument type
}

// builtins is the fixed-arity table of TC intrinsic math functions.
var builtins = map[string]BuiltinInfo{
	"exp":   {Arity: 1},
	"log":   {Arity: 1},
	"log2":  {Arity: 1},
	"log10": {Arity: 1},
	"sqrt":  {Arity: 1},
	"tanh":  {Arity: 1},
	"sigmoid": {Arity: 1},
	"sin":   {Arity: 1},
	"cos":   {Arity: 1},
	"abs":   {Arity: 1},
	"floor": {Arity: 1},
	"ceil":  {Arity: 1},
	"pow":   {Arity: 2},
	"fmin":  {Arity: 2},
	"fmax":  {Arity: 2},
	"fmod":  {Arity: 2},

	// Expression-level min/max. Distinct from the min=/max= assignment
	// operators, which are rejected outright at check time.
	"min": {Arity: 2},
	"max": {Arity: 2},
}
