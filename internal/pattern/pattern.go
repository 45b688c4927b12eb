// Package pattern recognizes the two specialized reduction shapes the
// IR generator knows how to emit as named structured operators instead
// of a generic indexed reduction: matrix multiplication and matrix-
// vector product, each accepted in either operand order.
package pattern

import "github.com/andidr/teckyl/internal/ast"

// Kind names a recognized specialized reduction shape.
type Kind int

const (
	None Kind = iota
	Matmul
	Matvec
)

func (k Kind) String() string {
	switch k {
	case Matmul:
		return "matmul"
	case Matvec:
		return "matvec"
	}
	return "none"
}

// Match describes a recognized comprehension: its Kind and the operand
// names in the matcher's canonical order (e.g. for Matmul, [A, B] such
// that the kernel computes C(i,j) +=! A(i,k) * B(k,j)).
type Match struct {
	Kind     Kind
	Operands []string
}

// Recognize reports whether stmt has the shape of a matmul or matvec
// reduction, checked after Sema has rewritten every Apply into Access so
// every RHS operand is known to be either a tensor read or a built-in
// call.
func Recognize(stmt *ast.Comprehension) (Match, bool) {
	if stmt.Assignment != ast.OpPlusEqInit {
		return Match{}, false
	}
	mul, ok := stmt.RHS.(*ast.BinaryExpr)
	if !ok || mul.Op != "*" {
		return Match{}, false
	}
	lhs, ok := accessOperand(mul.Left)
	if !ok {
		return Match{}, false
	}
	rhs, ok := accessOperand(mul.Right)
	if !ok {
		return Match{}, false
	}
	if lhs.Name == stmt.Ident || rhs.Name == stmt.Ident {
		return Match{}, false
	}

	switch len(stmt.Indices) {
	case 2:
		return matchMatmul(stmt, lhs, rhs)
	case 1:
		return matchMatvec(stmt, lhs, rhs)
	}
	return Match{}, false
}

// accessOperand requires e to be a tensor read indexed directly by bare
// identifiers (not a nested expression) — the original's "arguments()[i]
// is TK_IDENT" check.
func accessOperand(e ast.Expr) (*ast.Access, bool) {
	acc, ok := e.(*ast.Access)
	if !ok {
		return nil, false
	}
	for _, a := range acc.Args {
		if _, ok := a.(*ast.Ident); !ok {
			return nil, false
		}
	}
	return acc, true
}

func argNames(acc *ast.Access) []string {
	names := make([]string, len(acc.Args))
	for i, a := range acc.Args {
		names[i] = a.(*ast.Ident).Name
	}
	return names
}

// matchMatmul recognizes C(i,j) +=! A(i,k)*B(k,j) or C(i,j) +=! B(k,j)*A(i,k).
func matchMatmul(stmt *ast.Comprehension, lhs, rhs *ast.Access) (Match, bool) {
	if len(lhs.Args) != 2 || len(rhs.Args) != 2 {
		return Match{}, false
	}
	i, j := stmt.Indices[0].Name, stmt.Indices[1].Name
	if i == j {
		return Match{}, false
	}
	l, r := argNames(lhs), argNames(rhs)

	if l[0] == i && l[1] == r[0] && r[1] == j && l[1] != i && l[1] != j {
		return Match{Kind: Matmul, Operands: []string{lhs.Name, rhs.Name}}, true
	}
	if r[0] == i && r[1] == l[0] && l[1] == j && r[1] != i && r[1] != j {
		return Match{Kind: Matmul, Operands: []string{rhs.Name, lhs.Name}}, true
	}
	return Match{}, false
}

// matchMatvec recognizes C(i) +=! A(i,k)*B(k) or C(i) +=! B(k)*A(i,k).
func matchMatvec(stmt *ast.Comprehension, lhs, rhs *ast.Access) (Match, bool) {
	i := stmt.Indices[0].Name

	if len(lhs.Args) == 2 && len(rhs.Args) == 1 {
		l := argNames(lhs)
		if l[0] == i && l[1] == argNames(rhs)[0] && l[1] != i {
			return Match{Kind: Matvec, Operands: []string{lhs.Name, rhs.Name}}, true
		}
	}
	if len(rhs.Args) == 2 && len(lhs.Args) == 1 {
		r := argNames(rhs)
		if r[0] == i && r[1] == argNames(lhs)[0] && r[1] != i {
			return Match{Kind: Matvec, Operands: []string{rhs.Name, lhs.Name}}, true
		}
	}
	return Match{}, false
}
