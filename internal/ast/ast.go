// Package ast defines the kinded tree nodes produced by the parser and
// consumed by Sema and the IR generator. Every node carries a Kind()
// accessor so later stages can dispatch on an integer kind while still
// getting typed struct fields instead of an untyped payload.
package ast

import "github.com/andidr/teckyl/internal/token"

// Kind tags every AST node shape.
type Kind int

const (
	KindDef Kind = iota
	KindParam
	KindTensorType
	KindScalarTypeExpr
	KindInferredTypeExpr
	KindComprehension
	KindRangeConstraint
	KindLet
	KindExists
	KindConst
	KindIdent
	KindApply
	KindAccess
	KindBuiltIn
	KindCast
	KindSelect
	KindBinary
	KindUnary
	KindTernary
)

// Node is implemented by every AST node.
type Node interface {
	Kind() Kind
	Range() token.SourceRange
}

// Expr is implemented by every expression node (pre- or post-Sema).
type Expr interface {
	Node
	exprNode()
}

// WhereClause is implemented by RangeConstraint, Let, and Exists.
type WhereClause interface {
	Node
	whereNode()
}

// ---------------------------------------------------------------------------
// Top level
// ---------------------------------------------------------------------------

// AssignOp is one of the comprehension assignment operators: plain
// assignment, the four reductions, and their "!"-suffixed initializing
// forms.
type AssignOp int

const (
	OpAssign AssignOp = iota
	OpPlusEq
	OpStarEq
	OpMinEq
	OpMaxEq
	OpPlusEqInit
	OpStarEqInit
	OpMinEqInit
	OpMaxEqInit
)

// IsInitialized reports whether op is one of the "!"-suffixed forms that
// broadcast the neutral element into the LHS before reducing.
func (op AssignOp) IsInitialized() bool {
	switch op {
	case OpPlusEqInit, OpStarEqInit, OpMinEqInit, OpMaxEqInit:
		return true
	}
	return false
}

// IsReduction reports whether op combines into a prior LHS value at all
// (every form except plain "=").
func (op AssignOp) IsReduction() bool {
	return op != OpAssign
}

// IsMinMax reports whether op is a min=/max= family operator. These are
// recognized syntactically but never lowered by the IR generator.
func (op AssignOp) IsMinMax() bool {
	switch op {
	case OpMinEq, OpMaxEq, OpMinEqInit, OpMaxEqInit:
		return true
	}
	return false
}

func (op AssignOp) String() string {
	switch op {
	case OpAssign:
		return "="
	case OpPlusEq:
		return "+="
	case OpStarEq:
		return "*="
	case OpMinEq:
		return "min="
	case OpMaxEq:
		return "max="
	case OpPlusEqInit:
		return "+=!"
	case OpStarEqInit:
		return "*=!"
	case OpMinEqInit:
		return "min=!"
	case OpMaxEqInit:
		return "max=!"
	}
	return "<unknown op>"
}

// ScalarKind is the base kind of a scalar type, independent of bit
// width.
type ScalarKind int

const (
	KindBool ScalarKind = iota
	KindIntScalar
	KindUIntScalar
	KindFloatScalar
)

// ScalarType is a concrete scalar type: bool, an integer of a given
// signedness and width, or a float of a given width.
type ScalarType struct {
	Kind ScalarKind
	Bits int // 0 for bool
}

func (t ScalarType) String() string {
	switch t.Kind {
	case KindBool:
		return "bool"
	case KindIntScalar:
		return intName("int", t.Bits)
	case KindUIntScalar:
		return intName("uint", t.Bits)
	case KindFloatScalar:
		return intName("float", t.Bits)
	}
	return "<unknown scalar type>"
}

func intName(prefix string, bits int) string {
	switch bits {
	case 8:
		return prefix + "8"
	case 16:
		return prefix + "16"
	case 32:
		return prefix + "32"
	case 64:
		return prefix + "64"
	}
	return prefix
}

// TypeExpr is a parsed (not yet checked) type annotation: a tensor type,
// a bare scalar type, or an inferred return type.
type TypeExpr struct {
	// Exactly one of Tensor / Scalar is set, unless Inferred is true.
	Tensor   *TensorType
	Scalar   *ScalarType
	Inferred bool
	SrcRange token.SourceRange
}

func (t *TypeExpr) Kind() Kind { 
	switch {
	case t.Tensor != nil:
		return KindTensorType
	case t.Inferred:
		return KindInferredTypeExpr
	default:
		return KindScalarTypeExpr
	}
}
func (t *TypeExpr) Range() token.SourceRange { return t.SrcRange }

// TensorType: { scalarKind, dims: seq<Ident|Const> }.
type TensorType struct {
	Scalar   ScalarType
	Dims     []Expr // each is *Ident or *Const
	SrcRange token.SourceRange
}

func (t *TensorType) Kind() Kind { return KindTensorType }
func (t *TensorType) Range() token.SourceRange { return t.SrcRange }

// Param: a function parameter or return value.
type Param struct {
	Ident    string
	Type     *TypeExpr
	SrcRange token.SourceRange
}

func (p *Param) Kind() Kind { return KindParam }
func (p *Param) Range() token.SourceRange { return p.SrcRange }

// Def: def name(params...) -> (returns...) { statements }
type Def struct {
	Name       string
	Params     []*Param
	Returns    []*Param
	Statements []*Comprehension
	SrcRange   token.SourceRange
}

func (d *Def) Kind() Kind { return KindDef }
func (d *Def) Range() token.SourceRange { return d.SrcRange }

// Comprehension is one TC statement.
type Comprehension struct {
	Ident         string
	IdentRange    token.SourceRange
	Indices       []*Ident // LHS indices, in source order
	Assignment    AssignOp
	RHS           Expr
	WhereClauses  []WhereClause
	ReductionVars []string // filled in by Sema, in discovery order
	SrcRange      token.SourceRange
}

func (c *Comprehension) Kind() Kind { return KindComprehension }
func (c *Comprehension) Range() token.SourceRange { return c.SrcRange }

// ---------------------------------------------------------------------------
// Where clauses
// ---------------------------------------------------------------------------

// RangeConstraint: "i in lo:hi"
type RangeConstraint struct {
	Ident    string
	Start    Expr
	End      Expr
	SrcRange token.SourceRange
}

func (r *RangeConstraint) Kind() Kind { return KindRangeConstraint }
func (r *RangeConstraint) Range() token.SourceRange { return r.SrcRange }
func (r *RangeConstraint) whereNode() {}

// Let: "let name = expr"
type Let struct {
	Name     string
	RHS      Expr
	SrcRange token.SourceRange
}

func (l *Let) Kind() Kind { return KindLet }
func (l *Let) Range() token.SourceRange { return l.SrcRange }
func (l *Let) whereNode() {}

// Exists: "exists expr"
type Exists struct {
	Exp      Expr
	SrcRange token.SourceRange
}

func (e *Exists) Kind() Kind { return KindExists }
func (e *Exists) Range() token.SourceRange { return e.SrcRange }
func (e *Exists) whereNode() {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Const is a numeric or boolean literal.
type Const struct {
	IsFloat    bool
	IsBool     bool
	IntValue   uint64
	FloatValue float64
	BoolValue  bool
	Suffix     token.NumSuffix
	HasSuffix  bool
	SrcRange   token.SourceRange
}

func (c *Const) Kind() Kind { return KindConst }
func (c *Const) Range() token.SourceRange { return c.SrcRange }
func (c *Const) exprNode() {}

// Ident is a bare identifier reference — a dimension size, iterator,
// reduction variable, or (pre-Sema) the callee of an Apply.
type Ident struct {
	Name     string
	SrcRange token.SourceRange
}

func (i *Ident) Kind() Kind { return KindIdent }
func (i *Ident) Range() token.SourceRange { return i.SrcRange }
func (i *Ident) exprNode() {}

// Apply is the pre-Sema form of a call-like expression: name(args...).
// Sema rewrites every Apply into either an Access (tensor indexing) or a
// BuiltIn (intrinsic math function).
type Apply struct {
	Name     string
	NameRange token.SourceRange
	Args     []Expr
	SrcRange token.SourceRange
}

func (a *Apply) Kind() Kind { return KindApply }
func (a *Apply) Range() token.SourceRange { return a.SrcRange }
func (a *Apply) exprNode() {}

// Access is the post-Sema form of a tensor read or write: name(args...)
// where name resolves to a tensor (or a rank-0 scalar, with no args).
type Access struct {
	Name     string
	Args     []Expr // integral index expressions, len == tensor rank
	SrcRange token.SourceRange
}

func (a *Access) Kind() Kind { return KindAccess }
func (a *Access) Range() token.SourceRange { return a.SrcRange }
func (a *Access) exprNode() {}

// BuiltIn is a call to an intrinsic math function (exp, log, sqrt, …).
type BuiltIn struct {
	Name     string
	Args     []Expr
	SrcRange token.SourceRange
}

func (b *BuiltIn) Kind() Kind { return KindBuiltIn }
func (b *BuiltIn) Range() token.SourceRange { return b.SrcRange }
func (b *BuiltIn) exprNode() {}

// Cast forces an expression's result type.
type Cast struct {
	Target   ScalarType
	Exp      Expr
	SrcRange token.SourceRange
}

func (c *Cast) Kind() Kind { return KindCast }
func (c *Cast) Range() token.SourceRange { return c.SrcRange }
func (c *Cast) exprNode() {}

// Select is dimension access, e.g. "A.0" — the size of dimension 0 of
// tensor A.
type Select struct {
	Tensor   string
	Dim      int
	SrcRange token.SourceRange
}

func (s *Select) Kind() Kind { return KindSelect }
func (s *Select) Range() token.SourceRange { return s.SrcRange }
func (s *Select) exprNode() {}

// BinaryExpr covers arithmetic, comparison, and logical binary operators.
type BinaryExpr struct {
	Op       string // "+","-","*","/","%","==","!=","<",">","<=",">=","&&","||"
	Left     Expr
	Right    Expr
	SrcRange token.SourceRange
}

func (b *BinaryExpr) Kind() Kind { return KindBinary }
func (b *BinaryExpr) Range() token.SourceRange { return b.SrcRange }
func (b *BinaryExpr) exprNode() {}

// UnaryExpr covers unary minus and logical not.
type UnaryExpr struct {
	Op       string // "-" or "!"
	Operand  Expr
	SrcRange token.SourceRange
}

func (u *UnaryExpr) Kind() Kind { return KindUnary }
func (u *UnaryExpr) Range() token.SourceRange { return u.SrcRange }
func (u *UnaryExpr) exprNode() {}

// TernaryExpr: cond ? then : else.
type TernaryExpr struct {
	Cond     Expr
	Then     Expr
	Else     Expr
	SrcRange token.SourceRange
}

func (t *TernaryExpr) Kind() Kind { return KindTernary }
func (t *TernaryExpr) Range() token.SourceRange { return t.SrcRange }
func (t *TernaryExpr) exprNode() {}
