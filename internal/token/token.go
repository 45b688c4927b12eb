package token

// Kind identifies the lexical class of a Token.
type Kind int

const (
	EOF Kind = iota
	ILLEGAL

	IDENT
	INT
	FLOAT

	// Keywords
	DEF
	WHERE
	LET
	IN
	EXISTS

	// Delimiters
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	COMMA
	COLON
	DOT

	// Operators
	ARROW // ->
	ASSIGN
	PLUS_EQ
	STAR_EQ
	MIN_EQ
	MAX_EQ
	PLUS_EQ_BANG // +=!
	STAR_EQ_BANG // *=!
	MIN_EQ_BANG  // min=!
	MAX_EQ_BANG  // max=!

	PLUS
	MINUS
	STAR
	SLASH
	PERCENT

	QUESTION

	OROR
	ANDAND
	BANG

	EQ
	NEQ
	LT
	GT
	LE
	GE
)

var kindNames = map[Kind]string{
	EOF: "EOF", ILLEGAL: "ILLEGAL", IDENT: "IDENT", INT: "INT", FLOAT: "FLOAT",
	DEF: "def", WHERE: "where", LET: "let", IN: "in", EXISTS: "exists",
	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}",
	LBRACKET: "[", RBRACKET: "]", COMMA: ",", COLON: ":", DOT: ".",
	ARROW: "->", ASSIGN: "=",
	PLUS_EQ: "+=", STAR_EQ: "*=", MIN_EQ: "min=", MAX_EQ: "max=",
	PLUS_EQ_BANG: "+=!", STAR_EQ_BANG: "*=!", MIN_EQ_BANG: "min=!", MAX_EQ_BANG: "max=!",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	QUESTION: "?", OROR: "||", ANDAND: "&&", BANG: "!",
	EQ: "==", NEQ: "!=", LT: "<", GT: ">", LE: "<=", GE: ">=",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "<unknown token kind>"
}

// NumSuffix is the optional typed suffix on a numeric literal, one of
// u8/u16/u32/u64, i8/i16/i32/i64, f16/f32/f64, or z (size_t).
type NumSuffix int

const (
	SuffixNone NumSuffix = iota
	SuffixU8
	SuffixU16
	SuffixU32
	SuffixU64
	SuffixI8
	SuffixI16
	SuffixI32
	SuffixI64
	SuffixF16
	SuffixF32
	SuffixF64
	SuffixZ // size_t
)

var suffixNames = map[string]NumSuffix{
	"u8": SuffixU8, "u16": SuffixU16, "u32": SuffixU32, "u64": SuffixU64,
	"i8": SuffixI8, "i16": SuffixI16, "i32": SuffixI32, "i64": SuffixI64,
	"f16": SuffixF16, "f32": SuffixF32, "f64": SuffixF64,
	"z": SuffixZ,
}

// LookupSuffix resolves a suffix lexeme, reporting ok=false for anything
// not in the fixed set.
func LookupSuffix(s string) (NumSuffix, bool) {
	suf, ok := suffixNames[s]
	return suf, ok
}

// IsFloatSuffix reports whether suf is one of the f16/f32/f64 family.
func (s NumSuffix) IsFloatSuffix() bool {
	return s == SuffixF16 || s == SuffixF32 || s == SuffixF64
}

// Token is a single lexical token produced by the lexer.
type Token struct {
	Kind   Kind
	Lexeme string
	Range  SourceRange

	// Set only for Kind == INT or Kind == FLOAT.
	Suffix    NumSuffix
	HasSuffix bool
}
