package expr

import (
	"strings"
	"unicode"
)

var keywords = map[string]bool{
	"and":   true,
	"or":    true,
	"not":   true,
	"in":    true,
	"true":  true,
	"false": true,
}

// sizeSuffixes maps a size-literal suffix to its byte multiplier. Matching is
// case-insensitive; single letters are shorthand for the two-letter forms.
var sizeSuffixes = map[string]int64{
	"kb": 1_000,
	"mb": 1_000_000,
	"gb": 1_000_000_000,
	"tb": 1_000_000_000_000,
	"k":  1_000,
	"m":  1_000_000,
	"g":  1_000_000_000,
	"t":  1_000_000_000_000,
}

const allowedSizeSuffixes = "KB, MB, GB, TB, k, m, g, t"

type lexer struct {
	src    string
	offset int
	line   int
	column int
}

// Lex scans source into a token stream terminated by an end-of-input token.
func Lex(source string) ([]Token, error) {
	lx := &lexer{src: source, line: 1, column: 1}
	var tokens []Token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == KindEOF {
			return tokens, nil
		}
	}
}

func (lx *lexer) pos() Position {
	return Position{Offset: lx.offset, Line: lx.line, Column: lx.column}
}

func (lx *lexer) peek() byte {
	if lx.offset >= len(lx.src) {
		return 0
	}
	return lx.src[lx.offset]
}

func (lx *lexer) peekAt(n int) byte {
	if lx.offset+n >= len(lx.src) {
		return 0
	}
	return lx.src[lx.offset+n]
}

func (lx *lexer) advance(n int) {
	for i := 0; i < n && lx.offset < len(lx.src); i++ {
		if lx.src[lx.offset] == '\n' {
			lx.line++
			lx.column = 1
		} else {
			lx.column++
		}
		lx.offset++
	}
}

func (lx *lexer) skipWhitespace() {
	for lx.offset < len(lx.src) && unicode.IsSpace(rune(lx.src[lx.offset])) {
		lx.advance(1)
	}
}

func (lx *lexer) next() (Token, error) {
	lx.skipWhitespace()
	start := lx.pos()

	if lx.offset >= len(lx.src) {
		return Token{Kind: KindEOF, Pos: start}, nil
	}

	c := lx.peek()

	// Two-character operators before their single-character prefixes.
	if two := lx.src[lx.offset:min(lx.offset+2, len(lx.src))]; two == "==" || two == "!=" || two == "<=" || two == ">=" {
		lx.advance(2)
		return Token{Kind: KindOperator, Text: two, Pos: start}, nil
	}

	switch c {
	case '<', '>':
		lx.advance(1)
		return Token{Kind: KindOperator, Text: string(c), Pos: start}, nil
	case '(':
		lx.advance(1)
		return Token{Kind: KindLParen, Text: "(", Pos: start}, nil
	case ')':
		lx.advance(1)
		return Token{Kind: KindRParen, Text: ")", Pos: start}, nil
	case '[':
		lx.advance(1)
		return Token{Kind: KindLBracket, Text: "[", Pos: start}, nil
	case ']':
		lx.advance(1)
		return Token{Kind: KindRBracket, Text: "]", Pos: start}, nil
	case ',':
		lx.advance(1)
		return Token{Kind: KindComma, Text: ",", Pos: start}, nil
	case '\'', '"':
		return lx.lexString(start)
	}

	if c >= '0' && c <= '9' {
		return lx.lexNumber(start)
	}

	if isIdentStart(c) {
		return lx.lexIdentifier(start)
	}

	return Token{}, lexErrorf(start, "unexpected character %q", string(c))
}

// lexString scans a quoted string. Quotes carry no escape processing; the
// string runs to the next matching quote on any line.
func (lx *lexer) lexString(start Position) (Token, error) {
	quote := lx.peek()
	lx.advance(1)
	from := lx.offset
	for lx.offset < len(lx.src) {
		if lx.peek() == quote {
			text := lx.src[from:lx.offset]
			lx.advance(1)
			return Token{Kind: KindString, Text: text, Pos: start}, nil
		}
		lx.advance(1)
	}
	return Token{}, lexErrorf(start, "unterminated string literal")
}

// lexNumber scans an integer, float, or size literal. A size suffix is tried
// greedily first so "4.2GB" lexes as one token rather than a number followed
// by an identifier.
func (lx *lexer) lexNumber(start Position) (Token, error) {
	from := lx.offset
	for lx.offset < len(lx.src) && isDigit(lx.peek()) {
		lx.advance(1)
	}
	if lx.peek() == '.' && isDigit(lx.peekAt(1)) {
		lx.advance(1)
		for lx.offset < len(lx.src) && isDigit(lx.peek()) {
			lx.advance(1)
		}
	}

	suffixFrom := lx.offset
	for lx.offset < len(lx.src) && isAlpha(lx.peek()) {
		lx.advance(1)
	}
	suffix := lx.src[suffixFrom:lx.offset]
	text := lx.src[from:lx.offset]

	if suffix == "" {
		return Token{Kind: KindNumber, Text: text, Pos: start}, nil
	}
	if _, ok := sizeSuffixes[strings.ToLower(suffix)]; ok {
		return Token{Kind: KindSize, Text: text, Pos: start}, nil
	}
	return Token{}, lexErrorf(start, "invalid size suffix %q in %q (allowed: %s)", suffix, text, allowedSizeSuffixes)
}

// lexIdentifier scans an identifier and promotes it to a keyword only on an
// exact lower-case match, so "And" stays an identifier.
func (lx *lexer) lexIdentifier(start Position) (Token, error) {
	from := lx.offset
	lx.advance(1)
	for lx.offset < len(lx.src) && isIdentPart(lx.peek()) {
		lx.advance(1)
	}
	text := lx.src[from:lx.offset]
	if keywords[text] {
		return Token{Kind: KindKeyword, Text: text, Pos: start}, nil
	}
	return Token{Kind: KindIdentifier, Text: text, Pos: start}, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentStart(c byte) bool {
	return isAlpha(c) || c == '_'
}

func isIdentPart(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_' || c == '-'
}
