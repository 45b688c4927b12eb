// Package parser implements a Pratt expression parser and recursive-
// descent declaration parser for the Tensor Comprehensions surface
// syntax: top-level defs with parameter and return lists, comprehension
// statements with where-clauses, and the full expression grammar.
package parser

import (
	"strconv"

	"github.com/andidr/teckyl/internal/ast"
	"github.com/andidr/teckyl/internal/diag"
	"github.com/andidr/teckyl/internal/token"
)

// Precedence levels for the Pratt expression parser, low to high:
// ||, &&, comparisons, + -, * / %. The ternary ?: sits below all of
// them and is handled in parseExpression.
const (
	precNone = iota
	precOr
	precAnd
	precCompare
	precAdditive
	precMultiply
	precUnary
)

// Parser holds the state for a single parse pass over a token stream.
type Parser struct {
	toks  []token.Token
	pos   int
	diags []diag.Diagnostic
}

// Parse tokenizes nothing itself — it consumes a token slice (as produced
// by lexer.Lex) and returns every top-level Def plus any diagnostics
// collected along the way.
func Parse(toks []token.Token) ([]*ast.Def, []diag.Diagnostic) {
	p := &Parser{toks: toks}
	var defs []*ast.Def
	for !p.check(token.EOF) {
		if p.check(token.DEF) {
			if d := p.parseDef(); d != nil {
				defs = append(defs, d)
			}
			continue
		}
		p.errorf(p.peek().Range, "expected 'def', found %s", p.peek().Kind)
		p.synchronize()
	}
	return defs, p.diags
}

// ---------------------------------------------------------------------------
// Token cursor helpers
// ---------------------------------------------------------------------------

func (p *Parser) peek() token.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return token.Token{Kind: token.EOF}
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if tok.Kind != token.EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) check(k token.Kind) bool { return p.peek().Kind == k }

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(k token.Kind, msg string) token.Token {
	if p.check(k) {
		return p.advance()
	}
	tok := p.peek()
	p.errorf(tok.Range, "%s (found %s %q)", msg, tok.Kind, tok.Lexeme)
	return tok
}

func (p *Parser) errorf(r token.SourceRange, format string, args ...any) {
	p.diags = append(p.diags, diag.New(r, format, args...))
}

// synchronize advances past tokens until it reaches a likely def
// boundary, so one malformed def doesn't prevent parsing the rest.
func (p *Parser) synchronize() {
	p.advance()
	for !p.check(token.EOF) {
		if p.check(token.DEF) {
			return
		}
		p.advance()
	}
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// parseDef parses "def name(params...) -> (returns...) { statements }".
func (p *Parser) parseDef() *ast.Def {
	start := p.expect(token.DEF, "expected 'def'").Range
	nameTok := p.expect(token.IDENT, "expected def name")

	p.expect(token.LPAREN, "expected '(' after def name")
	params := p.parseParamList()
	p.expect(token.RPAREN, "expected ')' after params")

	var returns []*ast.Param
	if p.match(token.ARROW) {
		p.expect(token.LPAREN, "expected '(' after '->'")
		returns = p.parseParamList()
		p.expect(token.RPAREN, "expected ')' after returns")
	}

	p.expect(token.LBRACE, "expected '{' to start def body")
	var stmts []*ast.Comprehension
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		if c := p.parseComprehension(); c != nil {
			stmts = append(stmts, c)
		}
	}
	end := p.expect(token.RBRACE, "expected '}' to close def body").Range

	return &ast.Def{
		Name:       nameTok.Lexeme,
		Params:     params,
		Returns:    returns,
		Statements: stmts,
		SrcRange:   token.SourceRange{Source: start.Source, Start: start.Start, End: end.End, StartLine: start.StartLine, StartCol: start.StartCol, EndLine: end.EndLine, EndCol: end.EndCol},
	}
}

// parseParamList parses a comma-separated "type ident" list. Empty lists
// are legal (a def with no params, or no explicit returns).
func (p *Parser) parseParamList() []*ast.Param {
	var params []*ast.Param
	if p.check(token.RPAREN) {
		return params
	}
	for {
		params = append(params, p.parseParam())
		if !p.match(token.COMMA) {
			break
		}
	}
	return params
}

// parseParam parses "type ident" (the TC surface order is type first,
// then the bound name).
func (p *Parser) parseParam() *ast.Param {
	typ := p.parseType()
	nameTok := p.expect(token.IDENT, "expected parameter name")
	return &ast.Param{
		Ident:    nameTok.Lexeme,
		Type:     typ,
		SrcRange: token.SourceRange{Source: typ.SrcRange.Source, Start: typ.SrcRange.Start, End: nameTok.Range.End, StartLine: typ.SrcRange.StartLine, StartCol: typ.SrcRange.StartCol, EndLine: nameTok.Range.EndLine, EndCol: nameTok.Range.EndCol},
	}
}

// parseType parses a scalar type name optionally followed by a
// parenthesized dimension list, e.g. "float32" or "float32(N,M)". An
// unparenthesized scalar type is a rank-0 (scalar) parameter.
func (p *Parser) parseType() *ast.TypeExpr {
	nameTok := p.expect(token.IDENT, "expected type name")
	scalar, ok := parseScalarTypeName(nameTok.Lexeme)
	if !ok {
		p.errorf(nameTok.Range, "unknown scalar type name %q", nameTok.Lexeme)
		scalar = ast.ScalarType{Kind: ast.KindFloatScalar, Bits: 32}
	}

	if !p.check(token.LPAREN) {
		return &ast.TypeExpr{Scalar: &scalar, SrcRange: nameTok.Range}
	}

	p.advance() // '('
	var dims []ast.Expr
	if !p.check(token.RPAREN) {
		for {
			dims = append(dims, p.parseDimExpr())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	end := p.expect(token.RPAREN, "expected ')' to close tensor dimensions").Range

	r := token.SourceRange{Source: nameTok.Range.Source, Start: nameTok.Range.Start, End: end.End, StartLine: nameTok.Range.StartLine, StartCol: nameTok.Range.StartCol, EndLine: end.EndLine, EndCol: end.EndCol}
	tt := &ast.TensorType{Scalar: scalar, Dims: dims, SrcRange: r}
	return &ast.TypeExpr{Tensor: tt, SrcRange: r}
}

// parseDimExpr parses a single tensor-dimension expression: either a
// bare identifier (a symbolic dimension parameter) or an integer
// constant.
func (p *Parser) parseDimExpr() ast.Expr {
	if p.check(token.IDENT) {
		tok := p.advance()
		return &ast.Ident{Name: tok.Lexeme, SrcRange: tok.Range}
	}
	if p.check(token.INT) {
		return p.parseIntConst()
	}
	tok := p.peek()
	p.errorf(tok.Range, "expected dimension size (identifier or integer), found %s", tok.Kind)
	p.advance()
	return &ast.Ident{Name: "<error>", SrcRange: tok.Range}
}

func parseScalarTypeName(name string) (ast.ScalarType, bool) {
	return ast.ScalarTypeByName(name)
}

// ---------------------------------------------------------------------------
// Comprehensions and where-clauses
// ---------------------------------------------------------------------------

var assignOpKinds = map[token.Kind]ast.AssignOp{
	token.ASSIGN:       ast.OpAssign,
	token.PLUS_EQ:      ast.OpPlusEq,
	token.STAR_EQ:      ast.OpStarEq,
	token.MIN_EQ:       ast.OpMinEq,
	token.MAX_EQ:       ast.OpMaxEq,
	token.PLUS_EQ_BANG: ast.OpPlusEqInit,
	token.STAR_EQ_BANG: ast.OpStarEqInit,
	token.MIN_EQ_BANG:  ast.OpMinEqInit,
	token.MAX_EQ_BANG:  ast.OpMaxEqInit,
}

// parseComprehension parses one TC statement:
// "lhs(idx,...) OP expr [where clause, clause, ...]".
func (p *Parser) parseComprehension() *ast.Comprehension {
	identTok := p.expect(token.IDENT, "expected tensor name at start of statement")
	// The index list is optional: a rank-0 (scalar) output is written as
	// either "s(...)" with an empty list or a bare "s".
	var indices []*ast.Ident
	if p.match(token.LPAREN) {
		if !p.check(token.RPAREN) {
			for {
				idxTok := p.expect(token.IDENT, "expected index variable")
				indices = append(indices, &ast.Ident{Name: idxTok.Lexeme, SrcRange: idxTok.Range})
				if !p.match(token.COMMA) {
					break
				}
			}
		}
		p.expect(token.RPAREN, "expected ')' after indices")
	}

	opTok := p.advance()
	op, ok := assignOpKinds[opTok.Kind]
	if !ok {
		p.errorf(opTok.Range, "expected an assignment operator, found %s", opTok.Kind)
		p.synchronizeStatement()
		return nil
	}

	rhs := p.parseExpression()

	var wheres []ast.WhereClause
	endRange := rhs.Range()
	if p.match(token.WHERE) {
		for {
			w := p.parseWhereClause()
			if w != nil {
				wheres = append(wheres, w)
				endRange = w.Range()
			}
			if !p.match(token.COMMA) {
				break
			}
		}
	}

	return &ast.Comprehension{
		Ident:        identTok.Lexeme,
		IdentRange:   identTok.Range,
		Indices:      indices,
		Assignment:   op,
		RHS:          rhs,
		WhereClauses: wheres,
		SrcRange:     token.SourceRange{Source: identTok.Range.Source, Start: identTok.Range.Start, End: endRange.End, StartLine: identTok.Range.StartLine, StartCol: identTok.Range.StartCol, EndLine: endRange.EndLine, EndCol: endRange.EndCol},
	}
}

// synchronizeStatement skips tokens until the next likely statement or
// def boundary, without consuming the boundary token itself.
func (p *Parser) synchronizeStatement() {
	for !p.check(token.EOF) && !p.check(token.RBRACE) && !p.check(token.DEF) {
		p.advance()
	}
}

// parseWhereClause parses one of "i in lo:hi", "let name = expr", or
// "exists expr".
func (p *Parser) parseWhereClause() ast.WhereClause {
	switch {
	case p.check(token.LET):
		start := p.advance().Range
		nameTok := p.expect(token.IDENT, "expected name after 'let'")
		p.expect(token.ASSIGN, "expected '=' in let clause")
		rhs := p.parseExpression()
		return &ast.Let{Name: nameTok.Lexeme, RHS: rhs, SrcRange: token.Join(start, rhs.Range())}
	case p.check(token.EXISTS):
		start := p.advance().Range
		exp := p.parseExpression()
		return &ast.Exists{Exp: exp, SrcRange: token.Join(start, exp.Range())}
	case p.check(token.IDENT):
		nameTok := p.advance()
		p.expect(token.IN, "expected 'in' after range-constraint identifier")
		lo := p.parseExpression()
		p.expect(token.COLON, "expected ':' between range bounds")
		hi := p.parseExpression()
		return &ast.RangeConstraint{Ident: nameTok.Lexeme, Start: lo, End: hi, SrcRange: token.Join(nameTok.Range, hi.Range())}
	default:
		tok := p.peek()
		p.errorf(tok.Range, "expected a where-clause (range constraint, let, or exists), found %s", tok.Kind)
		p.advance()
		return nil
	}
}

// ---------------------------------------------------------------------------
// Pratt expression parser
// ---------------------------------------------------------------------------

// parseExpression parses a full expression including the ternary `?:`,
// which binds loosest of all operators and associates to the right, so
// "a + b ? c : d" is "(a + b) ? c : d".
func (p *Parser) parseExpression() ast.Expr {
	cond := p.parsePrecedence(precOr)
	if !p.check(token.QUESTION) {
		return cond
	}
	p.advance()
	thenExpr := p.parseExpression()
	p.expect(token.COLON, "expected ':' in ternary expression")
	elseExpr := p.parseExpression()
	return &ast.TernaryExpr{Cond: cond, Then: thenExpr, Else: elseExpr, SrcRange: token.Join(cond.Range(), elseExpr.Range())}
}

func (p *Parser) parsePrecedence(minPrec int) ast.Expr {
	left := p.parsePrefix()
	for {
		prec := infixPrecedence(p.peek().Kind)
		if prec == precNone || prec < minPrec {
			return left
		}
		left = p.parseInfix(left, prec)
	}
}

func infixPrecedence(k token.Kind) int {
	switch k {
	case token.OROR:
		return precOr
	case token.ANDAND:
		return precAnd
	case token.EQ, token.NEQ, token.LT, token.GT, token.LE, token.GE:
		return precCompare
	case token.PLUS, token.MINUS:
		return precAdditive
	case token.STAR, token.SLASH, token.PERCENT:
		return precMultiply
	}
	return precNone
}

// parseInfix consumes the operator already found at minPrec and parses
// its right operand; every binary operator is left-associative.
func (p *Parser) parseInfix(left ast.Expr, prec int) ast.Expr {
	opTok := p.advance()
	right := p.parsePrecedence(prec + 1)
	return &ast.BinaryExpr{
		Op:       opTok.Lexeme,
		Left:     left,
		Right:    right,
		SrcRange: token.Join(left.Range(), right.Range()),
	}
}

// parsePrefix parses a unary expression or a postfix-decorated primary;
// unary `-`/`!` bind tighter than any binary operator.
func (p *Parser) parsePrefix() ast.Expr {
	if p.check(token.MINUS) || p.check(token.BANG) {
		opTok := p.advance()
		operand := p.parsePrecedence(precUnary)
		return &ast.UnaryExpr{Op: opTok.Lexeme, Operand: operand, SrcRange: token.Join(opTok.Range, operand.Range())}
	}
	return p.parsePostfix(p.parsePrimary())
}

// parsePostfix handles the ".N" dimension-select suffix (e.g. "A.0",
// the size of dimension 0 of tensor A).
func (p *Parser) parsePostfix(expr ast.Expr) ast.Expr {
	for p.check(token.DOT) {
		ident, ok := expr.(*ast.Ident)
		if !ok {
			tok := p.peek()
			p.errorf(tok.Range, "'.' select is only valid after a tensor name")
			p.advance()
			continue
		}
		p.advance() // '.'
		dimTok := p.expect(token.INT, "expected a dimension index after '.'")
		dim, err := strconv.Atoi(dimTok.Lexeme)
		if err != nil {
			p.errorf(dimTok.Range, "invalid dimension index %q", dimTok.Lexeme)
		}
		expr = &ast.Select{Tensor: ident.Name, Dim: dim, SrcRange: token.Join(ident.Range(), dimTok.Range)}
	}
	return expr
}

// parsePrimary parses a literal, a parenthesized expression, or a bare
// identifier possibly followed by a call-argument list — which yields an
// *ast.Apply, to be resolved into Access or BuiltIn by Sema.
func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.INT:
		return p.parseIntConst()
	case token.FLOAT:
		return p.parseFloatConst()
	case token.LPAREN:
		p.advance()
		inner := p.parseExpression()
		p.expect(token.RPAREN, "expected ')' to close parenthesized expression")
		return inner
	case token.IDENT:
		return p.parseIdentOrApply()
	default:
		p.errorf(tok.Range, "expected an expression, found %s", tok.Kind)
		p.advance()
		return &ast.Ident{Name: "<error>", SrcRange: tok.Range}
	}
}

func (p *Parser) parseIntConst() ast.Expr {
	tok := p.advance()
	v, err := strconv.ParseUint(tok.Lexeme, 10, 64)
	if err != nil {
		p.errorf(tok.Range, "invalid integer literal %q: %v", tok.Lexeme, err)
	}
	return &ast.Const{IntValue: v, Suffix: tok.Suffix, HasSuffix: tok.HasSuffix, SrcRange: tok.Range}
}

func (p *Parser) parseFloatConst() ast.Expr {
	tok := p.advance()
	v, err := strconv.ParseFloat(tok.Lexeme, 64)
	if err != nil {
		p.errorf(tok.Range, "invalid float literal %q: %v", tok.Lexeme, err)
	}
	return &ast.Const{IsFloat: true, FloatValue: v, Suffix: tok.Suffix, HasSuffix: tok.HasSuffix, SrcRange: tok.Range}
}

// parseIdentOrApply parses a bare identifier, or — if immediately
// followed by '(' — a call-like expression. "true"/"false" are
// recognized here as boolean constants rather than identifiers, and
// "cast" as its own grammar production (see parseCast).
func (p *Parser) parseIdentOrApply() ast.Expr {
	tok := p.advance()
	if tok.Lexeme == "true" || tok.Lexeme == "false" {
		return &ast.Const{IsBool: true, BoolValue: tok.Lexeme == "true", SrcRange: tok.Range}
	}
	if tok.Lexeme == "cast" && p.check(token.LPAREN) {
		return p.parseCast(tok)
	}
	if !p.check(token.LPAREN) {
		return &ast.Ident{Name: tok.Lexeme, SrcRange: tok.Range}
	}
	p.advance() // '('
	var args []ast.Expr
	if !p.check(token.RPAREN) {
		for {
			args = append(args, p.parseExpression())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	end := p.expect(token.RPAREN, "expected ')' to close call arguments").Range
	return &ast.Apply{
		Name:      tok.Lexeme,
		NameRange: tok.Range,
		Args:      args,
		SrcRange:  token.Join(tok.Range, end),
	}
}

// parseCast parses "cast(type, expr)" (the keyword "cast" has already
// been consumed into castTok).
func (p *Parser) parseCast(castTok token.Token) ast.Expr {
	p.advance() // '('
	typeTok := p.expect(token.IDENT, "expected a scalar type name as the first argument to cast")
	scalar, ok := parseScalarTypeName(typeTok.Lexeme)
	if !ok {
		p.errorf(typeTok.Range, "unknown scalar type name %q in cast", typeTok.Lexeme)
		scalar = ast.ScalarType{Kind: ast.KindFloatScalar, Bits: 32}
	}
	p.expect(token.COMMA, "expected ',' between cast's type and expression")
	inner := p.parseExpression()
	end := p.expect(token.RPAREN, "expected ')' to close cast").Range
	return &ast.Cast{Target: scalar, Exp: inner, SrcRange: token.Join(castTok.Range, end)}
}
