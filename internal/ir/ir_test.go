package ir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/andidr/teckyl/internal/ast"
	"github.com/andidr/teckyl/internal/diag"
	"github.com/andidr/teckyl/internal/ir"
	"github.com/andidr/teckyl/internal/ir/irb"
	"github.com/andidr/teckyl/internal/irtest"
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

func countEvents(events []irtest.Event, op string) int {
	n := 0
	for _, e := range events {
		if e.Op == op {
			n++
		}
	}
	return n
}

// TestLowerCopyExactEventTrace pins the complete builder-call sequence
// for the smallest interesting kernel, so a regression anywhere in the
// signature/dim-binding/loop-nest path shows up as a structural diff
// rather than a changed count.
func TestLowerCopyExactEventTrace(t *testing.T) {
	checked := checkedDef(t, `
def copy(float32(N) x) -> (float32(N) y) {
	y(i) = x(i)
}
`)
	rec := irtest.New()
	if err := ir.Lower(checked, rec, ir.Options{BodyOp: ir.LoopNest}); err != nil {
		t.Fatalf("Lower: %v", err)
	}

	f32 := ast.ScalarType{Kind: ast.KindFloatScalar, Bits: 32}
	memref := irb.MemrefType{Elem: f32, Rank: 1}
	want := []irtest.Event{
		{Op: "CreateFunction", Name: "copy", Params: []irb.MemrefType{memref, memref}, Result: 0},
		{Op: "AddEntryBlock", Args: []irtest.Val{0, 1, 2}},
		{Op: "Dim", Int: 0, Args: []irtest.Val{1}, Result: 3},
		{Op: "ConstIndex", Int: 0, Result: 4},
		{Op: "LoopBegin", Args: []irtest.Val{4, 3}, Result: 5},
		{Op: "Load", Args: []irtest.Val{1, 5}, Result: 6},
		{Op: "Store", Args: []irtest.Val{2, 5, 6}},
		{Op: "LoopEnd"},
		{Op: "FinishFunction", Args: []irtest.Val{0}},
	}
	if diff := cmp.Diff(want, rec.Events); diff != "" {
		t.Errorf("event trace mismatch (-want +got):\n%s", diff)
	}
}

func TestLowerMatmulStructuredWithSpecialization(t *testing.T) {
	checked := checkedDef(t, `
def mm(float32(N,K) A, float32(K,M) B) -> (float32(N,M) C) {
	C(i,j) +=! A(i,k) * B(k,j)
}
`)
	rec := irtest.New()
	err := ir.Lower(checked, rec, ir.Options{BodyOp: ir.Structured, Specialize: true})
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}

	if n := countEvents(rec.Events, "NamedOp"); n != 1 {
		t.Fatalf("expected exactly one NamedOp for the recognized matmul, got %d (events: %+v)", n, rec.Events)
	}
	if n := countEvents(rec.Events, "StructuredReductionBegin"); n != 0 {
		t.Fatalf("specialization should bypass the generic structured reduction, got %d", n)
	}

	var named *irtest.Event
	for i := range rec.Events {
		if rec.Events[i].Op == "NamedOp" {
			named = &rec.Events[i]
		}
	}
	if named.Name != "matmul" {
		t.Fatalf("expected NamedOp(\"matmul\", ...), got %q", named.Name)
	}
}

func TestLowerMatmulStructuredWithoutSpecialization(t *testing.T) {
	checked := checkedDef(t, `
def mm(float32(N,K) A, float32(K,M) B) -> (float32(N,M) C) {
	C(i,j) +=! A(i,k) * B(k,j)
}
`)
	rec := irtest.New()
	err := ir.Lower(checked, rec, ir.Options{BodyOp: ir.Structured, Specialize: false})
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}

	if n := countEvents(rec.Events, "StructuredReductionBegin"); n != 1 {
		t.Fatalf("expected exactly one structured reduction, got %d (events: %+v)", n, rec.Events)
	}
	for _, e := range rec.Events {
		if e.Op == "StructuredReductionBegin" {
			if len(e.Iters) != 3 {
				t.Fatalf("expected 3 iterators (i,j,k), got %d", len(e.Iters))
			}
			parallel, reduction := 0, 0
			for _, k := range e.Iters {
				if k == irb.Parallel {
					parallel++
				} else {
					reduction++
				}
			}
			if parallel != 2 || reduction != 1 {
				t.Fatalf("expected 2 parallel + 1 reduction iterator, got %d parallel, %d reduction", parallel, reduction)
			}
			if e.Combiner != irb.CombinePlus {
				t.Fatalf("expected the plus combiner, got %v", e.Combiner)
			}
		}
	}
}

func TestLowerMatvecCanonicalOrder(t *testing.T) {
	// Operands appear reversed in source (the vector before the matrix)
	// — the recognizer must still produce a single NamedOp with no
	// sub-view or loop-nest fallback, taking the matrix first.
	checked := checkedDef(t, `
def mv(float32(K) x, float32(N,K) A) -> (float32(N) y) {
	y(i) +=! x(k) * A(i,k)
}
`)
	rec := irtest.New()
	err := ir.Lower(checked, rec, ir.Options{BodyOp: ir.Structured, Specialize: true})
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if n := countEvents(rec.Events, "NamedOp"); n != 1 {
		t.Fatalf("expected exactly one NamedOp, got %d", n)
	}

	var entry, named *irtest.Event
	for i := range rec.Events {
		switch rec.Events[i].Op {
		case "AddEntryBlock":
			entry = &rec.Events[i]
		case "NamedOp":
			named = &rec.Events[i]
		}
	}
	// Entry-block args follow the function value: x, A, y.
	x, a, y := entry.Args[1], entry.Args[2], entry.Args[3]
	if diff := cmp.Diff([]irtest.Val{a, x, y}, named.Args); diff != "" {
		t.Fatalf("NamedOp operands not in canonical (matrix, vector, output) order (-want +got):\n%s", diff)
	}
}

func TestLowerHaloSubViewAndLoopNestFallback(t *testing.T) {
	// C only writes its interior [1,N-1)x[1,M-1): the neutral-element
	// broadcast must target a SubView. The reduction's compound index
	// expressions (i+kh, j+kw) mean kh/kw never appear as a bare tensor
	// index, failing precondition (c) of the structured-vs-loop-nest
	// decision — so the reduction itself falls back to a loop nest.
	checked := checkedDef(t, `
def halo(float32(N,M) A) -> (float32(N,M) C) {
	C(i,j) +=! A(i+kh,j+kw) where i in 1:N-1, j in 1:M-1, kh in 0:1, kw in 0:1
}
`)
	rec := irtest.New()
	err := ir.Lower(checked, rec, ir.Options{BodyOp: ir.Structured, Specialize: false})
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if n := countEvents(rec.Events, "SubView"); n != 1 {
		t.Fatalf("expected the neutral-element broadcast to use exactly one SubView, got %d (events: %+v)", n, rec.Events)
	}
	if n := countEvents(rec.Events, "StructuredReductionBegin"); n != 0 {
		t.Fatalf("a compound reduction index must fall back to a loop nest, got %d structured reductions", n)
	}
	if n := countEvents(rec.Events, "LoopBegin"); n != 6 {
		t.Fatalf("expected 2 broadcast loops (i,j) + 4 reduction loops (i,j,kh,kw), got %d (events: %+v)", n, rec.Events)
	}
}

func TestLowerMatmulHaloFallsBackAndInitializesSubView(t *testing.T) {
	// All three iterator domains are strict sub-ranges of the tensor
	// dimensions they index, so the structured form (and therefore the
	// matmul specialization) is off the table, and the neutral-element
	// broadcast covers only C's interior via a sub-view with offsets
	// (1,1).
	checked := checkedDef(t, `
def mm_halo(float32(N,K) A, float32(K,M) B) -> (float32(N,M) C) {
	C(i,j) +=! A(i,k) * B(k,j) where i in 1:N-1, j in 1:M-1, k in 1:K-1
}
`)
	rec := irtest.New()
	err := ir.Lower(checked, rec, ir.Options{BodyOp: ir.Structured, Specialize: true})
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if n := countEvents(rec.Events, "SubView"); n != 1 {
		t.Fatalf("expected one SubView for the interior initialization, got %d", n)
	}
	if n := countEvents(rec.Events, "NamedOp"); n != 0 {
		t.Fatalf("a halo matmul must not specialize, got %d NamedOps", n)
	}
	if n := countEvents(rec.Events, "StructuredReductionBegin"); n != 0 {
		t.Fatalf("a halo matmul must fall back to a loop nest, got %d structured reductions", n)
	}
	// 2 broadcast loops over the sub-view plus 3 reduction loops.
	if n := countEvents(rec.Events, "LoopBegin"); n != 5 {
		t.Fatalf("expected 5 LoopBegin events, got %d", n)
	}
}

func TestLowerReductionWithoutInitDoesNotBroadcastNeutral(t *testing.T) {
	// s is a scalar, so both statements reduce over i and the first keeps
	// its "!". The second statement reduces into s without a "!" (legal
	// once s already has a prior value from the first statement — see
	// sema_test.go's TestCheckReductionAfterInitDoesNotWarnAgain) and
	// must not repeat the neutral-element broadcast.
	checked := checkedDef(t, `
def acc(float32(N) A, float32(N) B) -> (float32 s) {
	s() +=! A(i)
	s() += B(i)
}
`)
	rec := irtest.New()
	err := ir.Lower(checked, rec, ir.Options{BodyOp: ir.Structured})
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if n := countEvents(rec.Events, "Store"); n != 1 {
		t.Fatalf("expected exactly one Store (the first statement's neutral-element broadcast), got %d", n)
	}
	if n := countEvents(rec.Events, "StructuredReductionBegin"); n != 2 {
		t.Fatalf("expected one structured reduction per statement, got %d", n)
	}
}

func TestLowerLoopNestFallbackWhenBodyOpSelectsIt(t *testing.T) {
	checked := checkedDef(t, `
def mm(float32(N,K) A, float32(K,M) B) -> (float32(N,M) C) {
	C(i,j) +=! A(i,k) * B(k,j)
}
`)
	rec := irtest.New()
	err := ir.Lower(checked, rec, ir.Options{BodyOp: ir.LoopNest})
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if n := countEvents(rec.Events, "StructuredReductionBegin"); n != 0 {
		t.Fatalf("body-op=loop-nest must never emit a structured reduction, got %d", n)
	}
	// 2 loops (i,j) for the neutral-element broadcast fill, plus 3
	// nested loops (i,j,k) for the reduction itself.
	if n := countEvents(rec.Events, "LoopBegin"); n != 5 {
		t.Fatalf("expected 5 total LoopBegin events (2 broadcast + 3 reduction), got %d (events: %+v)", n, rec.Events)
	}
}

func TestLowerSpecializeWithLoopNestIsConfigError(t *testing.T) {
	checked := checkedDef(t, `
def mm(float32(N,K) A, float32(K,M) B) -> (float32(N,M) C) {
	C(i,j) +=! A(i,k) * B(k,j)
}
`)
	rec := irtest.New()
	err := ir.Lower(checked, rec, ir.Options{BodyOp: ir.LoopNest, Specialize: true})
	if err == nil {
		t.Fatal("expected an error for specialize-structured-ops with body-op=loop-nest")
	}
}

func TestLowerScalarReductionStoresDirectlyNoSubView(t *testing.T) {
	checked := checkedDef(t, `
def sum(float32(N) A) -> (float32 s) {
	s() +=! A(i)
}
`)
	rec := irtest.New()
	err := ir.Lower(checked, rec, ir.Options{BodyOp: ir.Structured})
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if n := countEvents(rec.Events, "SubView"); n != 0 {
		t.Fatalf("a scalar output never needs a sub-view, got %d", n)
	}
	if n := countEvents(rec.Events, "Store"); n == 0 {
		t.Fatalf("expected at least one Store (the neutral-element broadcast)")
	}
}
