package headergen_test

import (
	"strings"
	"testing"

	"github.com/andidr/teckyl/internal/diag"
	"github.com/andidr/teckyl/internal/headergen"
	"github.com/andidr/teckyl/internal/lexer"
	"github.com/andidr/teckyl/internal/parser"
	"github.com/andidr/teckyl/internal/sema"
	"github.com/andidr/teckyl/internal/token"
)

func checkedDef(t *testing.T, src string) *sema.CheckedDef {
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
	checked, diags := sema.Check(defs[0])
	if diag.HasErrors(diags) {
		t.Fatalf("unexpected error diagnostics: %v", diags)
	}
	return checked
}

func TestGenerateMatmulSignatureAndWrapper(t *testing.T) {
	checked := checkedDef(t, `
def mm(float32(M,K) A, float32(K,N) B) -> (float32(M,N) C) {
	C(i,j) +=! A(i,k) * B(k,j)
}
`)

	out := headergen.Generate(map[string]*sema.CheckedDef{"mm": checked}, "MM_H")

	for _, want := range []string{
		"#ifndef MM_H",
		"#define MM_H",
		"void mm(const float* A_allocatedPtr, const float* A_alignedPtr, int64_t A_offset, int64_t A_size0, int64_t A_size1, int64_t A_stride0, int64_t A_stride1",
		"float* C_allocatedPtr",
		"static inline void mm_wrap(const float* A, const float* B, float* C, uint64_t M, uint64_t K, uint64_t N) {",
		"mm(A, A, 0, M, K, K, 1, B, B, 0, K, N, N, 1, C, C, 0, M, N, N, 1);",
		"#endif /* MM_H */",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("generated header missing %q\nfull output:\n%s", want, out)
		}
	}
}

func TestGenerateOrdersKernelsByName(t *testing.T) {
	a := checkedDef(t, `def a(float32(N) x) -> (float32(N) y) { y(i) = x(i) }`)
	b := checkedDef(t, `def b(float32(N) x) -> (float32(N) y) { y(i) = x(i) }`)

	out := headergen.Generate(map[string]*sema.CheckedDef{"b": b, "a": a}, "G")
	if strings.Index(out, "void a(") > strings.Index(out, "void b(") {
		t.Errorf("expected kernel a before kernel b in deterministic output:\n%s", out)
	}
}
