package expr

import (
	"errors"
	"fmt"

	"medley/internal/services"
)

// LexError reports a malformed character sequence in an expression source.
type LexError struct {
	Message string
	Pos     Position
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %s: %s", e.Pos, e.Message)
}

func (e *LexError) Is(target error) bool {
	return target == services.ErrValidation
}

// ParseError reports a token stream that does not match the grammar. Expected
// describes what the parser was looking for when it stopped.
type ParseError struct {
	Message  string
	Expected string
	Token    Token
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse error at %s: %s", e.Token.Pos, e.Message)
	if e.Expected != "" {
		msg += fmt.Sprintf(" (expected %s, found %s)", e.Expected, e.Token)
	}
	return msg
}

func (e *ParseError) Is(target error) bool {
	return target == services.ErrValidation
}

func lexErrorf(pos Position, format string, args ...any) error {
	return &LexError{Message: fmt.Sprintf(format, args...), Pos: pos}
}

// IsSyntaxError reports whether err originated from lexing or parsing.
func IsSyntaxError(err error) bool {
	var lexErr *LexError
	var parseErr *ParseError
	return errors.As(err, &lexErr) || errors.As(err, &parseErr)
}
