package lexer

import (
	"testing"

	"github.com/andidr/teckyl/internal/token"
)

func lexAll(t *testing.T, src string) []token.Token {
	t.Helper()
	toks, diags := Lex(token.NewSource("test.tc", src))
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	return toks
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tk := range toks {
		out[i] = tk.Kind
	}
	return out
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks := lexAll(t, "def where let in exists foo _bar baz42")
	want := []token.Kind{
		token.DEF, token.WHERE, token.LET, token.IN, token.EXISTS,
		token.IDENT, token.IDENT, token.IDENT, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("token count: got %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d]: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestAssignmentOperatorTrieLongestMatch(t *testing.T) {
	toks := lexAll(t, "C(i,j) +=! A(i,k) * B(k,j)")
	var assign *token.Token
	for i := range toks {
		if toks[i].Kind == token.PLUS_EQ_BANG {
			assign = &toks[i]
		}
	}
	if assign == nil {
		t.Fatalf("expected a PLUS_EQ_BANG token, got %v", kinds(toks))
	}
	if assign.Lexeme != "+=!" {
		t.Errorf("lexeme = %q, want %q", assign.Lexeme, "+=!")
	}
}

func TestMinMaxAssignmentOperators(t *testing.T) {
	toks := lexAll(t, "s min= x(i) s max=! y(i)")
	want := []token.Kind{token.IDENT, token.MIN_EQ, token.IDENT, token.LPAREN, token.IDENT, token.RPAREN,
		token.IDENT, token.MAX_EQ_BANG, token.IDENT, token.LPAREN, token.IDENT, token.RPAREN, token.EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("token count: got %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d]: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestIdentifierNotSwallowedByOperatorPrefix(t *testing.T) {
	toks := lexAll(t, "minx maximum")
	if toks[0].Kind != token.IDENT || toks[0].Lexeme != "minx" {
		t.Errorf("token[0] = %+v, want IDENT minx", toks[0])
	}
	if toks[1].Kind != token.IDENT || toks[1].Lexeme != "maximum" {
		t.Errorf("token[1] = %+v, want IDENT maximum", toks[1])
	}
}

func TestIntegerLiterals(t *testing.T) {
	toks := lexAll(t, "0 42 7u8 9i64 3z")
	want := []struct {
		lex    string
		suffix token.NumSuffix
		has    bool
	}{
		{"0", 0, false},
		{"42", 0, false},
		{"7", token.SuffixU8, true},
		{"9", token.SuffixI64, true},
		{"3", token.SuffixZ, true},
	}
	for i, w := range want {
		tk := toks[i]
		if tk.Kind != token.INT || tk.Lexeme != w.lex || tk.Suffix != w.suffix || tk.HasSuffix != w.has {
			t.Errorf("token[%d] = %+v, want lexeme %q suffix %v has %v", i, tk, w.lex, w.suffix, w.has)
		}
	}
}

func TestFloatLiteralsRequireFloatSuffix(t *testing.T) {
	_, diags := Lex(token.NewSource("t", "3.14"))
	if len(diags) != 0 {
		t.Fatalf("bare float literal should be legal: %v", diags)
	}

	_, diags = Lex(token.NewSource("t", "3.14f32"))
	if len(diags) != 0 {
		t.Fatalf("float literal with f32 suffix should be legal: %v", diags)
	}

	_, diags = Lex(token.NewSource("t", "3.14u8"))
	if len(diags) == 0 {
		t.Fatalf("float literal with non-float suffix should be a lex error")
	}
}

func TestFloatScientificNotation(t *testing.T) {
	toks := lexAll(t, "1.5e10 2.0E-3 3e4 5E+2")
	for i, want := range []string{"1.5e10", "2.0E-3", "3e4", "5E+2"} {
		if toks[i].Kind != token.FLOAT || toks[i].Lexeme != want {
			t.Errorf("token[%d] = %+v, want FLOAT %q", i, toks[i], want)
		}
	}
}

func TestCommentsAndWhitespace(t *testing.T) {
	toks := lexAll(t, "def  # this is a comment\n  foo")
	want := []token.Kind{token.DEF, token.IDENT, token.EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("token count: got %d, want %d (%v)", len(got), len(want), got)
	}
}

// TestLexerRoundTrip checks that the concatenation of lexemes,
// interleaved with the original separator text between token ranges,
// reproduces the source exactly.
func TestLexerRoundTrip(t *testing.T) {
	src := "def mm(float(N,K) A, float(K,M) B) -> (float(N,M) C) { C(i,j) +=! A(i,k) * B(k,j) }"
	toks := lexAll(t, src)
	var rebuilt string
	prev := 0
	for _, tk := range toks {
		if tk.Kind == token.EOF {
			continue
		}
		rebuilt += src[prev:tk.Range.Start]
		rebuilt += tk.Lexeme
		prev = tk.Range.End
	}
	rebuilt += src[prev:]
	if rebuilt != src {
		t.Errorf("round-trip failed:\n got: %q\nwant: %q", rebuilt, src)
	}
}

func TestPositionTracking(t *testing.T) {
	toks := lexAll(t, "def\n  foo")
	fooTok := toks[1]
	if fooTok.Range.StartLine != 2 || fooTok.Range.StartCol != 3 {
		t.Errorf("foo position = %d:%d, want 2:3", fooTok.Range.StartLine, fooTok.Range.StartCol)
	}
}

func TestIllegalCharacter(t *testing.T) {
	_, diags := Lex(token.NewSource("t", "a @ b"))
	if len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %v", diags)
	}
}
