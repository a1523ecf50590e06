package compiler

import (
	"errors"
	"fmt"
)

// LexErrorKind classifies lexical failures.
type LexErrorKind int

const (
	UnexpectedCharacter LexErrorKind = iota
	UnterminatedString
	MalformedNumber
)

func (k LexErrorKind) String() string {
	switch k {
	case UnexpectedCharacter:
		return "unexpected character"
	case UnterminatedString:
		return "unterminated string"
	case MalformedNumber:
		return "malformed number"
	}
	return fmt.Sprintf("LexErrorKind(%d)", int(k))
}

// LexError is returned by the lexer. Char is set for UnexpectedCharacter,
// Text for MalformedNumber.
type LexError struct {
	Kind LexErrorKind
	Char rune
	Text string
	Pos  Position
}

func (e *LexError) Error() string {
	switch e.Kind {
	case UnexpectedCharacter:
		return fmt.Sprintf("%s: unexpected character %q", e.Pos, e.Char)
	case MalformedNumber:
		return fmt.Sprintf("%s: malformed number %q", e.Pos, e.Text)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Pos)
}

// SyntaxError is returned by the parser at the first unmet expectation.
type SyntaxError struct {
	Expected string // what the parser needed, e.g. "'{'" or "expression"
	Rule     string // the rule being parsed, if known
	Found    Token
	Pos      Position
}

func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("%s: expected %s, found %s", e.Pos, e.Expected, e.Found)
	if e.Rule != "" {
		msg += " in " + e.Rule
	}
	return msg
}

// UnsupportedConstructError is returned by the generator for an AST shape it
// cannot lower.
type UnsupportedConstructError struct {
	Construct string
	Pos       Position
}

func (e *UnsupportedConstructError) Error() string {
	if e.Pos.Line == 0 {
		return fmt.Sprintf("unsupported construct: %s", e.Construct)
	}
	return fmt.Sprintf("%s: unsupported construct: %s", e.Pos, e.Construct)
}

// IsIncomplete reports whether err was caused by input ending too early, so
// that more text could make it parse.
func IsIncomplete(err error) bool {
	var lexErr *LexError
	if errors.As(err, &lexErr) {
		return lexErr.Kind == UnterminatedString
	}
	var synErr *SyntaxError
	if errors.As(err, &synErr) {
		return synErr.Found.Type == TokenEOF
	}
	return false
}

// ErrorPosition extracts the source position from a pipeline error.
func ErrorPosition(err error) (Position, bool) {
	var lexErr *LexError
	if errors.As(err, &lexErr) {
		return lexErr.Pos, true
	}
	var synErr *SyntaxError
	if errors.As(err, &synErr) {
		return synErr.Pos, true
	}
	var unsErr *UnsupportedConstructError
	if errors.As(err, &unsErr) && unsErr.Pos.Line > 0 {
		return unsErr.Pos, true
	}
	return Position{}, false
}
