package sema_test

import (
	"testing"

	"github.com/andidr/teckyl/internal/ast"
	"github.com/andidr/teckyl/internal/diag"
	"github.com/andidr/teckyl/internal/expr"
	"github.com/andidr/teckyl/internal/lexer"
	"github.com/andidr/teckyl/internal/parser"
	"github.com/andidr/teckyl/internal/sema"
	"github.com/andidr/teckyl/internal/token"
)

func checkSource(t *testing.T, src string) (*sema.CheckedDef, []diag.Diagnostic) {
	t.Helper()
	toks, lexDiags := lexer.Lex(token.NewSource("test.tc", src))
	if len(lexDiags) > 0 {
		t.Fatalf("unexpected lex diagnostics: %v", lexDiags)
	}
	defs, parseDiags := parser.Parse(toks)
	if len(parseDiags) > 0 {
		t.Fatalf("unexpected parse diagnostics: %v", parseDiags)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 def, got %d", len(defs))
	}
	return sema.Check(defs[0])
}

func TestCheckMatmulNoDiagnostics(t *testing.T) {
	_, diags := checkSource(t, `
def mm(float32(N,K) A, float32(K,M) B) -> (float32(N,M) C) {
	C(i,j) +=! A(i,k) * B(k,j)
}
`)
	if diag.HasErrors(diags) {
		t.Fatalf("unexpected error diagnostics: %v", diags)
	}
}

func TestCheckMatmulDiscoversReductionVariable(t *testing.T) {
	checked, diags := checkSource(t, `
def mm(float32(N,K) A, float32(K,M) B) -> (float32(N,M) C) {
	C(i,j) +=! A(i,k) * B(k,j)
}
`)
	if diag.HasErrors(diags) {
		t.Fatalf("unexpected error diagnostics: %v", diags)
	}
	stmt := checked.Def.Statements[0]
	if len(stmt.ReductionVars) != 1 || stmt.ReductionVars[0] != "k" {
		t.Fatalf("ReductionVars = %v, want [k]", stmt.ReductionVars)
	}
	if _, ok := checked.Problems[stmt]; !ok {
		t.Fatalf("no range problem recorded for statement")
	}
}

func TestCheckReductionWithoutInitWarns(t *testing.T) {
	_, diags := checkSource(t, `
def sum(float32(N) A) -> (float32() s) {
	s += A(i)
}
`)
	var warned bool
	for _, d := range diags {
		if d.Severity == diag.Warning {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected a warning for a reduction with no prior value: %v", diags)
	}
}

func TestCheckReductionAfterInitDoesNotWarnAgain(t *testing.T) {
	_, diags := checkSource(t, `
def twoPass(float32(N) A, float32(N) B) -> (float32() s) {
	s +=! A(i)
	s += B(i)
}
`)
	for _, d := range diags {
		if d.Severity == diag.Warning {
			t.Fatalf("unexpected warning for reduction following an earlier initializing write: %v", diags)
		}
	}
}

func TestCheckPlainAssignWithReductionVarIsError(t *testing.T) {
	_, diags := checkSource(t, `
def bad(float32(N,K) A) -> (float32(N) C) {
	C(i) = A(i,k)
}
`)
	if !diag.HasErrors(diags) {
		t.Fatalf("expected an error diagnostic for '=' used with a reduction variable")
	}
}

func TestCheckInitializedReductionWithNoReductionVarDowngrades(t *testing.T) {
	checked, diags := checkSource(t, `
def addOne(float32(N) A) -> (float32(N) C) {
	C(i) +=! A(i)
}
`)
	if diag.HasErrors(diags) {
		t.Fatalf("unexpected error diagnostics: %v", diags)
	}
	stmt := checked.Def.Statements[0]
	if stmt.Assignment != ast.OpAssign {
		t.Fatalf("assignment = %v, want plain '=' after downgrade", stmt.Assignment)
	}
}

func TestCheckNarrowingAssignmentWithoutCastIsError(t *testing.T) {
	_, diags := checkSource(t, `
def narrow(float64(N) A) -> (float32(N) C) {
	C(i) = A(i)
}
`)
	if !diag.HasErrors(diags) {
		t.Fatalf("expected an error diagnostic for narrowing float64 -> float32 without a cast")
	}
}

func TestCheckExplicitCastAllowsNarrowing(t *testing.T) {
	_, diags := checkSource(t, `
def narrow(float64(N) A) -> (float32(N) C) {
	C(i) = cast(float32, A(i))
}
`)
	if diag.HasErrors(diags) {
		t.Fatalf("unexpected error diagnostics: %v", diags)
	}
}

func TestCheckMinEqIsRejected(t *testing.T) {
	_, diags := checkSource(t, `
def m(float32(N,K) A) -> (float32(N) C) {
	C(i) min=! A(i,k)
}
`)
	if !diag.HasErrors(diags) {
		t.Fatalf("expected min=! to be rejected by this generator")
	}
}

func TestCheckWriteToInputParameterIsError(t *testing.T) {
	_, diags := checkSource(t, `
def bad(float32(N) A) -> (float32(N) C) {
	A(i) = C(i)
}
`)
	if !diag.HasErrors(diags) {
		t.Fatalf("expected an error diagnostic for writing to input parameter A")
	}
}

func TestCheckRangeConstraintNarrowsIndexDomain(t *testing.T) {
	checked, diags := checkSource(t, `
def halo(float32(N) A) -> (float32(N) C) {
	C(i) = A(i) where i in 1:N-1
}
`)
	if diag.HasErrors(diags) {
		t.Fatalf("unexpected error diagnostics: %v", diags)
	}
	stmt := checked.Def.Statements[0]
	p := checked.Problems[stmt]
	if p == nil {
		t.Fatalf("no range problem recorded")
	}
	var narrowed bool
	for _, r := range p.Solved {
		if r.Name == "i" && expr.Equal(r.Low, &expr.Constant{Val: 1}) {
			narrowed = true
		}
	}
	if !narrowed {
		t.Fatalf("expected a solved range for i starting at 1, got %+v", p.Solved)
	}
}

func TestCheckBareFloatAndDoubleTypeNames(t *testing.T) {
	_, diags := checkSource(t, `
def f(float(N) A) -> (double(N) C) {
	C(i) = cast(double, A(i))
}
`)
	if diag.HasErrors(diags) {
		t.Fatalf("unexpected error diagnostics for bare float/double spellings: %v", diags)
	}
}
