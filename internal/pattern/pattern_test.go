package pattern_test

import (
	"testing"

	"github.com/andidr/teckyl/internal/lexer"
	"github.com/andidr/teckyl/internal/parser"
	"github.com/andidr/teckyl/internal/pattern"
	"github.com/andidr/teckyl/internal/sema"
	"github.com/andidr/teckyl/internal/token"
)

func checkedStmt(t *testing.T, src string) *sema.CheckedDef {
	t.Helper()
	toks, lexDiags := lexer.Lex(token.NewSource("test.tc", src))
	if len(lexDiags) > 0 {
		t.Fatalf("unexpected lex diagnostics: %v", lexDiags)
	}
	defs, parseDiags := parser.Parse(toks)
	if len(parseDiags) > 0 {
		t.Fatalf("unexpected parse diagnostics: %v", parseDiags)
	}
	checked, semaDiags := sema.Check(defs[0])
	if len(semaDiags) > 0 {
		t.Fatalf("unexpected sema diagnostics: %v", semaDiags)
	}
	return checked
}

func TestRecognizeMatmulCanonicalOrder(t *testing.T) {
	checked := checkedStmt(t, `
def mm(float32(N,K) A, float32(K,M) B) -> (float32(N,M) C) {
	C(i,j) +=! A(i,k) * B(k,j)
}
`)
	m, ok := pattern.Recognize(checked.Def.Statements[0])
	if !ok {
		t.Fatalf("expected matmul pattern to match")
	}
	if m.Kind != pattern.Matmul || m.Operands[0] != "A" || m.Operands[1] != "B" {
		t.Fatalf("match = %+v, want matmul [A B]", m)
	}
}

func TestRecognizeMatmulReversedOperandOrder(t *testing.T) {
	checked := checkedStmt(t, `
def mm(float32(N,K) A, float32(K,M) B) -> (float32(N,M) C) {
	C(i,j) +=! B(k,j) * A(i,k)
}
`)
	m, ok := pattern.Recognize(checked.Def.Statements[0])
	if !ok {
		t.Fatalf("expected matmul pattern to match the reversed operand order")
	}
	if m.Operands[0] != "A" || m.Operands[1] != "B" {
		t.Fatalf("canonical order = %v, want [A B]", m.Operands)
	}
}

func TestRecognizeMatvec(t *testing.T) {
	checked := checkedStmt(t, `
def mv(float32(N,K) A, float32(K) x) -> (float32(N) y) {
	y(i) +=! A(i,k) * x(k)
}
`)
	m, ok := pattern.Recognize(checked.Def.Statements[0])
	if !ok {
		t.Fatalf("expected matvec pattern to match")
	}
	if m.Kind != pattern.Matvec || m.Operands[0] != "A" || m.Operands[1] != "x" {
		t.Fatalf("match = %+v, want matvec [A x]", m)
	}
}

func TestRecognizeRejectsOutputUsedAsInput(t *testing.T) {
	checked := checkedStmt(t, `
def selfref(float32(N,K) A) -> (float32(N,K) C) {
	C(i,k) +=! A(i,k) * C(i,k)
}
`)
	if _, ok := pattern.Recognize(checked.Def.Statements[0]); ok {
		t.Fatalf("expected pattern match to reject the output used as an input operand")
	}
}

func TestRecognizeRejectsHaloCompoundIndex(t *testing.T) {
	checked := checkedStmt(t, `
def conv(float32(N,K) A, float32(K) x) -> (float32(N) y) {
	y(i) +=! A(i,k) * x(k+1)
}
`)
	if _, ok := pattern.Recognize(checked.Def.Statements[0]); ok {
		t.Fatalf("expected pattern match to reject a compound index expression")
	}
}
