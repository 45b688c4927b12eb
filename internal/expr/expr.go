// Package expr implements the symbolic expression engine used by range
// inference: a small closed sum type (BinOp/Neg/Variable/Parameter/
// Constant) plus atom/monomial analyses and the distribution/
// sign-conversion/normalization transforms that bring an expression into
// a canonical sum-of-monomials form. Tree walks dispatch with plain
// recursive type switches rather than a visitor interface.
package expr

import "strings"

// Op is a binary operator in the symbolic expression language.
type Op int

const (
	Plus Op = iota
	Minus
	Times
)

func (op Op) String() string {
	switch op {
	case Plus:
		return "+"
	case Minus:
		return "-"
	case Times:
		return "*"
	}
	return "?"
}

// Expr is implemented by every node in the symbolic expression tree.
type Expr interface {
	isExpr()
}

// BinOp is a binary operation over two sub-expressions.
type BinOp struct {
	Op    Op
	L, R  Expr
}

func (*BinOp) isExpr() {}

// Neg negates a sub-expression.
type Neg struct {
	Expr Expr
}

func (*Neg) isExpr() {}

// Variable is a named loop iterator (an index bound by a comprehension).
type Variable struct {
	Name string
}

func (*Variable) isExpr() {}

// Parameter is a named compile-time-constant symbol (a tensor dimension
// size passed into the kernel).
type Parameter struct {
	Name string
}

func (*Parameter) isExpr() {}

// Constant is a literal non-negative integer value.
type Constant struct {
	Val uint64
}

func (*Constant) isExpr() {}

// IsConstExpr reports whether e contains no Variable, i.e. is built
// only from constants and parameters.
func IsConstExpr(e Expr) bool {
	switch e := e.(type) {
	case *BinOp:
		return IsConstExpr(e.L) && IsConstExpr(e.R)
	case *Neg:
		return IsConstExpr(e.Expr)
	case *Constant, *Parameter:
		return true
	case *Variable:
		return false
	}
	return false
}

// IsAffineExpr reports whether e is linear in its variables: sums and
// differences of affine expressions are affine, and a product is affine
// only if one side is a constant expression.
func IsAffineExpr(e Expr) bool {
	switch e := e.(type) {
	case *BinOp:
		switch e.Op {
		case Plus, Minus:
			return IsAffineExpr(e.L) && IsAffineExpr(e.R)
		case Times:
			leftAffine := IsAffineExpr(e.L) && IsConstExpr(e.R)
			rightAffine := IsAffineExpr(e.R) && IsConstExpr(e.L)
			return leftAffine || rightAffine
		}
		return false
	case *Neg:
		return IsAffineExpr(e.Expr)
	case *Constant, *Parameter, *Variable:
		return true
	}
	return false
}

// IsSumExpr reports whether e's top-level operator is + or -.
func IsSumExpr(e Expr) bool {
	b, ok := e.(*BinOp)
	return ok && (b.Op == Plus || b.Op == Minus)
}

// IsMonomialExpr reports whether e is a product of atoms (no sums at any
// level): a single atom is trivially a monomial.
func IsMonomialExpr(e Expr) bool {
	switch e := e.(type) {
	case *BinOp:
		return e.Op == Times && IsMonomialExpr(e.L) && IsMonomialExpr(e.R)
	case *Neg:
		return IsMonomialExpr(e.Expr)
	case *Constant, *Parameter, *Variable:
		return true
	}
	return false
}

// Compare defines a total order over expressions, used by the range-
// inference problem to keep its solved/constraint sets deterministically
// sorted (the original keeps them in ordered sets keyed by this same
// relation). The order is structural: leaf kinds before Neg before
// BinOp, then by payload, then by children.
func Compare(a, b Expr) int {
	if ra, rb := kindRank(a), kindRank(b); ra != rb {
		return ra - rb
	}
	switch a := a.(type) {
	case *Constant:
		bb := b.(*Constant)
		switch {
		case a.Val < bb.Val:
			return -1
		case a.Val > bb.Val:
			return 1
		}
		return 0
	case *Parameter:
		return strings.Compare(a.Name, b.(*Parameter).Name)
	case *Variable:
		return strings.Compare(a.Name, b.(*Variable).Name)
	case *Neg:
		return Compare(a.Expr, b.(*Neg).Expr)
	case *BinOp:
		bb := b.(*BinOp)
		if a.Op != bb.Op {
			return int(a.Op) - int(bb.Op)
		}
		if c := Compare(a.L, bb.L); c != 0 {
			return c
		}
		return Compare(a.R, bb.R)
	}
	return 0
}

func kindRank(e Expr) int {
	switch e.(type) {
	case *Constant:
		return 0
	case *Parameter:
		return 1
	case *Variable:
		return 2
	case *Neg:
		return 3
	case *BinOp:
		return 4
	}
	return 5
}

// Equal reports whether a and b are structurally identical expressions.
func Equal(a, b Expr) bool {
	switch a := a.(type) {
	case *BinOp:
		bb, ok := b.(*BinOp)
		return ok && a.Op == bb.Op && Equal(a.L, bb.L) && Equal(a.R, bb.R)
	case *Neg:
		bb, ok := b.(*Neg)
		return ok && Equal(a.Expr, bb.Expr)
	case *Variable:
		bb, ok := b.(*Variable)
		return ok && a.Name == bb.Name
	case *Parameter:
		bb, ok := b.(*Parameter)
		return ok && a.Name == bb.Name
	case *Constant:
		bb, ok := b.(*Constant)
		return ok && a.Val == bb.Val
	}
	return false
}
