package expr

import "fmt"

// Kind classifies a lexed token.
type Kind int

const (
	KindOperator Kind = iota
	KindNumber
	KindSize
	KindString
	KindIdentifier
	KindKeyword
	KindLParen
	KindRParen
	KindLBracket
	KindRBracket
	KindComma
	KindEOF
)

func (k Kind) String() string {
	switch k {
	case KindOperator:
		return "operator"
	case KindNumber:
		return "number"
	case KindSize:
		return "size"
	case KindString:
		return "string"
	case KindIdentifier:
		return "identifier"
	case KindKeyword:
		return "keyword"
	case KindLParen:
		return "("
	case KindRParen:
		return ")"
	case KindLBracket:
		return "["
	case KindRBracket:
		return "]"
	case KindComma:
		return ","
	case KindEOF:
		return "end of input"
	default:
		return "unknown"
	}
}

// Position locates a token within the source expression.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Token is a single lexed unit. Tokens are produced only by the Lexer and
// never mutated afterwards.
type Token struct {
	Kind Kind
	Text string
	Pos  Position
}

func (t Token) String() string {
	if t.Kind == KindEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Text)
}
