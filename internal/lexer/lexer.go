// Package lexer tokenizes the Tensor Comprehensions surface syntax,
// driven by the trie of multi-character operators/keywords built in
// trie.go merged with the single-character operator set.
package lexer

import (
	"strings"
	"unicode"

	"github.com/andidr/teckyl/internal/diag"
	"github.com/andidr/teckyl/internal/token"
)

// Lexer holds the state for a single tokenization pass over one Source.
// Every emitted token's range shares the *token.Source by reference;
// the source must outlive all ranges derived from it.
type Lexer struct {
	src  *token.Source
	text string
	pos  int
	line int
	col  int

	diags []diag.Diagnostic
}

// New creates a Lexer over src.
func New(src *token.Source) *Lexer {
	return &Lexer{src: src, text: src.Text, line: 1, col: 1}
}

// Lex tokenizes the entire source and returns every token (including a
// trailing EOF) plus any lexical diagnostics collected along the way.
func Lex(src *token.Source) ([]token.Token, []diag.Diagnostic) {
	l := New(src)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks, l.diags
}

func (l *Lexer) errorf(r token.SourceRange, format string, args ...any) {
	l.diags = append(l.diags, diag.New(r, format, args...))
}

func (l *Lexer) atEnd() bool { return l.pos >= len(l.text) }

func (l *Lexer) peekByte() byte {
	if l.atEnd() {
		return 0
	}
	return l.text[l.pos]
}

func (l *Lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.text) {
		return 0
	}
	return l.text[l.pos+off]
}

func (l *Lexer) advanceByte() byte {
	c := l.text[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *Lexer) here() (pos, line, col int) {
	return l.pos, l.line, l.col
}

func (l *Lexer) rangeFrom(startPos, startLine, startCol int) token.SourceRange {
	return token.SourceRange{
		Source: l.src, Start: startPos, End: l.pos,
		StartLine: startLine, StartCol: startCol,
		EndLine: l.line, EndCol: l.col,
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isWhitespace(c byte) bool {
	return unicode.IsSpace(rune(c))
}

// Next scans and returns the next token, skipping whitespace and `#…\n`
// comments.
func (l *Lexer) Next() token.Token {
	for !l.atEnd() {
		c := l.peekByte()
		if isWhitespace(c) {
			l.advanceByte()
			continue
		}
		if c == '#' {
			for !l.atEnd() && l.peekByte() != '\n' {
				l.advanceByte()
			}
			continue
		}
		break
	}

	startPos, startLine, startCol := l.here()

	if l.atEnd() {
		return token.Token{Kind: token.EOF, Range: l.rangeFrom(startPos, startLine, startCol)}
	}

	c := l.peekByte()

	// A '.' directly after an identifier character is the dimension-select
	// operator ("A.0"), not the start of a leading-dot float literal.
	afterIdent := l.pos > 0 && isIdentCont(l.text[l.pos-1])
	if isDigit(c) || (c == '.' && isDigit(l.peekByteAt(1)) && !afterIdent) {
		return l.lexNumber(startPos, startLine, startCol)
	}

	// Simultaneously compute the longest trie match and the longest
	// identifier prefix; a tie favors the trie, so keyword lexemes like
	// "def" or "where" never lex as identifiers.
	trieLex, trieKind, trieOK := tokenTrie.longestMatch(l.text, l.pos)
	identLen := 0
	if isIdentStart(c) {
		for identLen < len(l.text)-l.pos && isIdentCont(l.text[l.pos+identLen]) {
			identLen++
		}
	}

	if trieOK && len(trieLex) >= identLen {
		for range trieLex {
			l.advanceByte()
		}
		return token.Token{Kind: trieKind, Lexeme: trieLex, Range: l.rangeFrom(startPos, startLine, startCol)}
	}
	if identLen > 0 {
		for i := 0; i < identLen; i++ {
			l.advanceByte()
		}
		lex := l.text[startPos:l.pos]
		return token.Token{Kind: token.IDENT, Lexeme: lex, Range: l.rangeFrom(startPos, startLine, startCol)}
	}

	// Neither a trie operator nor an identifier: an illegal character.
	l.advanceByte()
	r := l.rangeFrom(startPos, startLine, startCol)
	l.errorf(r, "unexpected character %q", string(c))
	return token.Token{Kind: token.ILLEGAL, Lexeme: string(c), Range: r}
}

// lexNumber scans a decimal integer or float literal, plus an optional
// typed suffix.
func (l *Lexer) lexNumber(startPos, startLine, startCol int) token.Token {
	isFloat := false

	for isDigit(l.peekByte()) {
		l.advanceByte()
	}
	if l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		isFloat = true
		l.advanceByte() // '.'
		for isDigit(l.peekByte()) {
			l.advanceByte()
		}
	}
	if l.peekByte() == 'e' || l.peekByte() == 'E' {
		save := l.pos
		saveLine, saveCol := l.line, l.col
		l.advanceByte() // e/E
		if l.peekByte() == '+' || l.peekByte() == '-' {
			l.advanceByte()
		}
		if isDigit(l.peekByte()) {
			isFloat = true
			for isDigit(l.peekByte()) {
				l.advanceByte()
			}
		} else {
			// Not actually an exponent; back out.
			l.pos, l.line, l.col = save, saveLine, saveCol
		}
	}

	lexEnd := l.pos
	lexeme := l.text[startPos:lexEnd]

	// Optional suffix: a run of identifier characters immediately
	// following the digits, matched against the fixed suffix set.
	suffixStart := l.pos
	for isIdentCont(l.peekByte()) {
		l.advanceByte()
	}
	suffixText := l.text[suffixStart:l.pos]

	tok := token.Token{Lexeme: lexeme}
	if isFloat {
		tok.Kind = token.FLOAT
	} else {
		tok.Kind = token.INT
	}

	if suffixText != "" {
		suf, ok := token.LookupSuffix(strings.ToLower(suffixText))
		if !ok {
			r := l.rangeFrom(startPos, startLine, startCol)
			l.errorf(r, "invalid numeric literal suffix %q", suffixText)
			tok.Range = r
			return tok
		}
		if isFloat && !suf.IsFloatSuffix() {
			r := l.rangeFrom(startPos, startLine, startCol)
			l.errorf(r, "float literal %q requires an f*-family suffix, found %q", lexeme, suffixText)
			tok.Range = r
			return tok
		}
		tok.Suffix = suf
		tok.HasSuffix = true
	}

	tok.Range = l.rangeFrom(startPos, startLine, startCol)
	return tok
}
