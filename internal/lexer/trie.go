package lexer

import "github.com/andidr/teckyl/internal/token"

// trieNode is one node of the multi-character-token trie: keywords and
// operator lexemes of differing lengths (e.g. "+", "+=", "+=!") are all
// recognized by one longest-match walk instead of a flat map lookup.
type trieNode struct {
	children map[byte]*trieNode
	kind     token.Kind
	isEnd    bool
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[byte]*trieNode)}
}

func (n *trieNode) insert(lexeme string, kind token.Kind) {
	cur := n
	for i := 0; i < len(lexeme); i++ {
		c := lexeme[i]
		child, ok := cur.children[c]
		if !ok {
			child = newTrieNode()
			cur.children[c] = child
		}
		cur = child
	}
	cur.isEnd = true
	cur.kind = kind
}

// longestMatch walks s starting at pos and returns the longest lexeme in
// the trie that matches a prefix of s[pos:], plus its kind. ok is false
// if no trie entry matches at all.
func (n *trieNode) longestMatch(s string, pos int) (lexeme string, kind token.Kind, ok bool) {
	cur := n
	bestLen := 0
	var bestKind token.Kind
	for i := pos; i < len(s); i++ {
		child, exists := cur.children[s[i]]
		if !exists {
			break
		}
		cur = child
		if cur.isEnd {
			bestLen = i - pos + 1
			bestKind = cur.kind
		}
	}
	if bestLen == 0 {
		return "", 0, false
	}
	return s[pos : pos+bestLen], bestKind, true
}

// tokenTrie is built once at package init and is read-only thereafter,
// so concurrent compilations can share it.
var tokenTrie = buildTrie()

func buildTrie() *trieNode {
	root := newTrieNode()

	keywords := map[string]token.Kind{
		"def":    token.DEF,
		"where":  token.WHERE,
		"let":    token.LET,
		"in":     token.IN,
		"exists": token.EXISTS,
	}
	for lex, k := range keywords {
		root.insert(lex, k)
	}

	operators := map[string]token.Kind{
		"(": token.LPAREN, ")": token.RPAREN,
		"{": token.LBRACE, "}": token.RBRACE,
		"[": token.LBRACKET, "]": token.RBRACKET,
		",": token.COMMA, ":": token.COLON, ".": token.DOT,
		"->": token.ARROW,
		"=":  token.ASSIGN,
		"+=": token.PLUS_EQ, "*=": token.STAR_EQ,
		"min=": token.MIN_EQ, "max=": token.MAX_EQ,
		"+=!": token.PLUS_EQ_BANG, "*=!": token.STAR_EQ_BANG,
		"min=!": token.MIN_EQ_BANG, "max=!": token.MAX_EQ_BANG,
		"+": token.PLUS, "-": token.MINUS, "*": token.STAR,
		"/": token.SLASH, "%": token.PERCENT,
		"?": token.QUESTION,
		"||": token.OROR, "&&": token.ANDAND, "!": token.BANG,
		"==": token.EQ, "!=": token.NEQ,
		"<": token.LT, ">": token.GT, "<=": token.LE, ">=": token.GE,
	}
	for lex, k := range operators {
		root.insert(lex, k)
	}

	return root
}
