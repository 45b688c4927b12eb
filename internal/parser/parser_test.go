package parser_test

import (
	"testing"

	"github.com/andidr/teckyl/internal/ast"
	"github.com/andidr/teckyl/internal/diag"
	"github.com/andidr/teckyl/internal/lexer"
	"github.com/andidr/teckyl/internal/parser"
	"github.com/andidr/teckyl/internal/token"
)

func parseInput(t *testing.T, src string) []*ast.Def {
	t.Helper()
	toks, lexDiags := lexer.Lex(token.NewSource("test.tc", src))
	if len(lexDiags) > 0 {
		t.Fatalf("unexpected lex diagnostics: %v", lexDiags)
	}
	defs, parseDiags := parser.Parse(toks)
	if len(parseDiags) > 0 {
		for _, d := range parseDiags {
			t.Errorf("parse diagnostic: %s", d.Error())
		}
		t.FailNow()
	}
	return defs
}

func parseInputExpectDiags(t *testing.T, src string) ([]*ast.Def, []diag.Diagnostic) {
	t.Helper()
	toks, _ := lexer.Lex(token.NewSource("test.tc", src))
	return parser.Parse(toks)
}

func TestParseSimpleMatmul(t *testing.T) {
	defs := parseInput(t, `
def mm(float32(N,K) A, float32(K,M) B) -> (float32(N,M) C) {
	C(i,j) +=! A(i,k) * B(k,j)
}
`)
	if len(defs) != 1 {
		t.Fatalf("expected 1 def, got %d", len(defs))
	}
	d := defs[0]
	if d.Name != "mm" {
		t.Errorf("def name = %q, want mm", d.Name)
	}
	if len(d.Params) != 2 || len(d.Returns) != 1 {
		t.Fatalf("params/returns = %d/%d, want 2/1", len(d.Params), len(d.Returns))
	}
	if d.Params[0].Type.Tensor == nil || len(d.Params[0].Type.Tensor.Dims) != 2 {
		t.Fatalf("param 0 should be a rank-2 tensor type: %+v", d.Params[0].Type)
	}
	if len(d.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(d.Statements))
	}
	stmt := d.Statements[0]
	if stmt.Ident != "C" || stmt.Assignment != ast.OpPlusEqInit {
		t.Errorf("statement = %+v, want C +=!", stmt)
	}
	if len(stmt.Indices) != 2 || stmt.Indices[0].Name != "i" || stmt.Indices[1].Name != "j" {
		t.Errorf("lhs indices = %+v, want [i j]", stmt.Indices)
	}
	bin, ok := stmt.RHS.(*ast.BinaryExpr)
	if !ok || bin.Op != "*" {
		t.Fatalf("rhs = %+v, want a '*' BinaryExpr", stmt.RHS)
	}
}

func TestParseWhereRangeConstraint(t *testing.T) {
	defs := parseInput(t, `
def f(float32(N) x) -> (float32(N) y) {
	y(i) = x(i) where i in 0:N
}
`)
	stmt := defs[0].Statements[0]
	if len(stmt.WhereClauses) != 1 {
		t.Fatalf("expected 1 where-clause, got %d", len(stmt.WhereClauses))
	}
	rc, ok := stmt.WhereClauses[0].(*ast.RangeConstraint)
	if !ok {
		t.Fatalf("where-clause = %T, want *ast.RangeConstraint", stmt.WhereClauses[0])
	}
	if rc.Ident != "i" {
		t.Errorf("range ident = %q, want i", rc.Ident)
	}
}

func TestParseWhereLetAndExists(t *testing.T) {
	defs := parseInput(t, `
def f(float32(N) x) -> (float32(N) y) {
	y(i) = x(i) where let n = N, exists x(i)
}
`)
	stmt := defs[0].Statements[0]
	if len(stmt.WhereClauses) != 2 {
		t.Fatalf("expected 2 where-clauses, got %d", len(stmt.WhereClauses))
	}
	if _, ok := stmt.WhereClauses[0].(*ast.Let); !ok {
		t.Errorf("where-clause[0] = %T, want *ast.Let", stmt.WhereClauses[0])
	}
	if _, ok := stmt.WhereClauses[1].(*ast.Exists); !ok {
		t.Errorf("where-clause[1] = %T, want *ast.Exists", stmt.WhereClauses[1])
	}
}

func TestParseAllAssignmentOperators(t *testing.T) {
	ops := map[string]ast.AssignOp{
		"=":     ast.OpAssign,
		"+=":    ast.OpPlusEq,
		"*=":    ast.OpStarEq,
		"min=":  ast.OpMinEq,
		"max=":  ast.OpMaxEq,
		"+=!":   ast.OpPlusEqInit,
		"*=!":   ast.OpStarEqInit,
		"min=!": ast.OpMinEqInit,
		"max=!": ast.OpMaxEqInit,
	}
	for opStr, want := range ops {
		src := "def f(float32(N) x) -> (float32(N) y) { y(i) " + opStr + " x(i) }"
		defs := parseInput(t, src)
		got := defs[0].Statements[0].Assignment
		if got != want {
			t.Errorf("op %q: parsed as %s, want %s", opStr, got, want)
		}
	}
}

// TestExpressionPrecedence checks the operator precedence table by
// asserting the resulting tree shape for a mixed expression.
func TestExpressionPrecedence(t *testing.T) {
	defs := parseInput(t, `
def f(float32(N) x, float32(N) y) -> (float32(N) z) {
	z(i) = x(i) + y(i) * 2 > 0 && x(i) < 10
}
`)
	rhs := defs[0].Statements[0].RHS
	top, ok := rhs.(*ast.BinaryExpr)
	if !ok || top.Op != "&&" {
		t.Fatalf("top-level op = %+v, want &&", rhs)
	}
	left, ok := top.Left.(*ast.BinaryExpr)
	if !ok || left.Op != ">" {
		t.Fatalf("left of && = %+v, want >", top.Left)
	}
	addMul, ok := left.Left.(*ast.BinaryExpr)
	if !ok || addMul.Op != "+" {
		t.Fatalf("left of > = %+v, want +", left.Left)
	}
	mul, ok := addMul.Right.(*ast.BinaryExpr)
	if !ok || mul.Op != "*" {
		t.Fatalf("right of + = %+v, want * (tighter than +)", addMul.Right)
	}
}

func TestExpressionTernaryIsRightAssociativeAndLowest(t *testing.T) {
	defs := parseInput(t, `
def f(float32(N) x) -> (float32(N) y) {
	y(i) = x(i) > 0 ? 1 : x(i) < 0 ? -1 : 0
}
`)
	rhs := defs[0].Statements[0].RHS
	outer, ok := rhs.(*ast.TernaryExpr)
	if !ok {
		t.Fatalf("rhs = %+v, want *ast.TernaryExpr", rhs)
	}
	if _, ok := outer.Else.(*ast.TernaryExpr); !ok {
		t.Fatalf("else branch = %+v, want a nested ternary (right-associative)", outer.Else)
	}
}

func TestParseUnaryAndParens(t *testing.T) {
	defs := parseInput(t, `
def f(float32(N) x) -> (float32(N) y) {
	y(i) = -(x(i) + 1)
}
`)
	rhs := defs[0].Statements[0].RHS
	u, ok := rhs.(*ast.UnaryExpr)
	if !ok || u.Op != "-" {
		t.Fatalf("rhs = %+v, want unary -", rhs)
	}
	if _, ok := u.Operand.(*ast.BinaryExpr); !ok {
		t.Fatalf("operand = %+v, want parenthesized BinaryExpr", u.Operand)
	}
}

func TestParseSelectDimension(t *testing.T) {
	defs := parseInput(t, `
def f(float32(N) x) -> (float32(N) y) {
	y(i) = x(i) where i in 0:x.0
}
`)
	rc := defs[0].Statements[0].WhereClauses[0].(*ast.RangeConstraint)
	sel, ok := rc.End.(*ast.Select)
	if !ok || sel.Tensor != "x" || sel.Dim != 0 {
		t.Fatalf("range end = %+v, want Select{x,0}", rc.End)
	}
}

func TestParseApplyDeferredToSema(t *testing.T) {
	defs := parseInput(t, `
def f(float32(N) x) -> (float32(N) y) {
	y(i) = exp(x(i))
}
`)
	app, ok := defs[0].Statements[0].RHS.(*ast.Apply)
	if !ok || app.Name != "exp" {
		t.Fatalf("rhs = %+v, want *ast.Apply{Name: exp}", defs[0].Statements[0].RHS)
	}
}

func TestParseCastExpression(t *testing.T) {
	defs := parseInput(t, `
def f(int32(N) x) -> (float32(N) y) {
	y(i) = cast(float32, x(i))
}
`)
	cast, ok := defs[0].Statements[0].RHS.(*ast.Cast)
	if !ok {
		t.Fatalf("rhs = %+v, want *ast.Cast", defs[0].Statements[0].RHS)
	}
	if cast.Target.Kind != ast.KindFloatScalar || cast.Target.Bits != 32 {
		t.Errorf("cast target = %+v, want float32", cast.Target)
	}
	if _, ok := cast.Exp.(*ast.Apply); !ok {
		t.Errorf("cast.Exp = %+v, want *ast.Apply (x(i))", cast.Exp)
	}
}

func TestParseBoolLiterals(t *testing.T) {
	defs := parseInput(t, `
def f(bool x) -> (bool y) {
	y() = x() && true
}
`)
	bin := defs[0].Statements[0].RHS.(*ast.BinaryExpr)
	c, ok := bin.Right.(*ast.Const)
	if !ok || !c.IsBool || !c.BoolValue {
		t.Fatalf("rhs right = %+v, want Const{true}", bin.Right)
	}
}

func TestParseErrorRecoveryAcrossDefs(t *testing.T) {
	defs, diags := parseInputExpectDiags(t, `
def bad(float32(N) x) -> (float32(N) y) {
	y(i) ===== x(i)
}
def good(float32(N) x) -> (float32(N) y) {
	y(i) = x(i)
}
`)
	if len(diags) == 0 {
		t.Fatalf("expected at least one diagnostic for the malformed def")
	}
	var foundGood bool
	for _, d := range defs {
		if d.Name == "good" {
			foundGood = true
		}
	}
	if !foundGood {
		t.Errorf("parser should still recover and parse 'good' after a malformed def, got defs: %v", defs)
	}
}
