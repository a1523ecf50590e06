package compiler

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for PBR source text
// ---------------------------------------------------------------------------

// Lexer tokenizes PBR source code.
//
// All state is held by value so that a snapshot of the struct is enough to
// roll back a speculative read (see readWord).
type Lexer struct {
	input   string
	pos     int  // offset of ch
	readPos int  // offset after ch
	ch      rune // current character, 0 at EOF
	line    int  // line of ch (1-based)
	col     int  // column of ch (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	l.readChar()
	return l
}

// readChar advances to the next character, tracking line and column.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = len(l.input)
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// position returns the position of the current character.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

// NextToken returns the next token, or a *LexError.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespaceAndComments()

	pos := l.position()
	single := func(t TokenType) (Token, error) {
		lit := string(l.ch)
		l.readChar()
		return Token{Type: t, Literal: lit, Pos: pos}, nil
	}

	switch {
	case l.ch == 0 && l.pos >= len(l.input):
		return Token{Type: TokenEOF, Pos: pos}, nil

	case l.ch == '{':
		return single(TokenLBrace)
	case l.ch == '}':
		return single(TokenRBrace)
	case l.ch == '(':
		return single(TokenLParen)
	case l.ch == ')':
		return single(TokenRParen)
	case l.ch == '[':
		return single(TokenLBracket)
	case l.ch == ']':
		return single(TokenRBracket)
	case l.ch == ',':
		return single(TokenComma)
	case l.ch == ':':
		return single(TokenColon)
	case l.ch == ';':
		return single(TokenSemicolon)
	case l.ch == '.':
		return single(TokenDot)
	case l.ch == '?':
		return single(TokenQuestion)
	case l.ch == '+':
		return single(TokenPlus)
	case l.ch == '-':
		return single(TokenMinus)
	case l.ch == '*':
		return single(TokenStar)
	case l.ch == '/':
		return single(TokenSlash)
	case l.ch == '%':
		return single(TokenPercent)
	case l.ch == '≠':
		return single(TokenNotEqual)
	case l.ch == '≥':
		return single(TokenGreaterEqual)
	case l.ch == '≤':
		return single(TokenLessEqual)

	case l.ch == '=':
		// "==" is deliberately not a token; equality is "é igual a".
		return single(TokenAssign)

	case l.ch == '>':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return Token{Type: TokenGreaterEqual, Literal: ">=", Pos: pos}, nil
		}
		return Token{Type: TokenGreater, Literal: ">", Pos: pos}, nil

	case l.ch == '<':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return Token{Type: TokenLessEqual, Literal: "<=", Pos: pos}, nil
		}
		return Token{Type: TokenLess, Literal: "<", Pos: pos}, nil

	case l.ch == '!':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Type: TokenNotEqual, Literal: "!=", Pos: pos}, nil
		}
		return Token{}, &LexError{Kind: UnexpectedCharacter, Char: '!', Pos: pos}

	case l.ch == '"':
		return l.readText(pos)

	case isDigit(l.ch):
		return l.readNumber(pos)

	case isLetter(l.ch) || l.ch == '_':
		return l.readWord(pos), nil

	default:
		return Token{}, &LexError{Kind: UnexpectedCharacter, Char: l.ch, Pos: pos}
	}
}

// skipWhitespaceAndComments skips whitespace and // line comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		l.skipWhitespace()
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		return
	}
}

func (l *Lexer) skipWhitespace() {
	for unicode.IsSpace(l.ch) {
		l.readChar()
	}
}

// isTripleQuote reports whether the input at the current character starts
// with `"""`.
func (l *Lexer) isTripleQuote() bool {
	return l.ch == '"' && strings.HasPrefix(l.input[l.pos:], `"""`)
}

// readText reads a "..." or """...""" literal. The literal is returned raw:
// no escape sequences are processed.
func (l *Lexer) readText(pos Position) (Token, error) {
	if l.isTripleQuote() {
		l.readChar()
		l.readChar()
		l.readChar()
		start := l.pos
		for l.ch != 0 {
			if l.isTripleQuote() {
				text := l.input[start:l.pos]
				l.readChar()
				l.readChar()
				l.readChar()
				return Token{Type: TokenText, Literal: text, Pos: pos}, nil
			}
			l.readChar()
		}
		return Token{}, &LexError{Kind: UnterminatedString, Pos: pos}
	}

	l.readChar() // consume opening "
	start := l.pos
	for l.ch != 0 {
		if l.ch == '"' {
			text := l.input[start:l.pos]
			l.readChar() // consume closing "
			return Token{Type: TokenText, Literal: text, Pos: pos}, nil
		}
		l.readChar()
	}
	return Token{}, &LexError{Kind: UnterminatedString, Pos: pos}
}

// readNumber reads digits with at most one decimal point.
func (l *Lexer) readNumber(pos Position) (Token, error) {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' {
		l.readChar() // consume .; "1." reads as 1.0
		for isDigit(l.ch) {
			l.readChar()
		}
		if l.ch == '.' && isDigit(l.peekChar()) {
			l.readChar()
			for isDigit(l.ch) {
				l.readChar()
			}
			return Token{}, &LexError{Kind: MalformedNumber, Text: l.input[start:l.pos], Pos: pos}
		}
	}

	literal := l.input[start:l.pos]
	if _, err := strconv.ParseFloat(literal, 64); err != nil {
		return Token{}, &LexError{Kind: MalformedNumber, Text: literal, Pos: pos}
	}
	return Token{Type: TokenNumber, Literal: literal, Pos: pos}, nil
}

// scanWord consumes an identifier-shaped run and returns it.
func (l *Lexer) scanWord() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readWord reads an identifier, a keyword, or a multi-word keyword.
func (l *Lexer) readWord(pos Position) Token {
	start := l.pos
	word := l.scanWord()

	if candidates, ok := multiWords[word]; ok {
		var lookahead string
		for _, mw := range candidates {
			saved := *l
			seen, ok := l.matchContinuation(mw.rest)
			if ok {
				return Token{Type: mw.typ, Literal: l.input[start:l.pos], Pos: pos}
			}
			*l = saved
			if len(seen) > len(lookahead) {
				lookahead = seen
			}
		}
		fallback := candidates[0].fallback
		return Token{Type: fallback, Literal: word, Pos: pos, Lookahead: lookahead}
	}

	if typ, ok := reservedWords[word]; ok {
		return Token{Type: typ, Literal: word, Pos: pos}
	}
	return Token{Type: TokenIdentifier, Literal: word, Pos: pos}
}

// matchContinuation speculatively reads the words of a multi-word keyword.
// It returns the words actually read (space separated) and whether they all
// matched. The caller restores the lexer on failure.
func (l *Lexer) matchContinuation(rest []string) (string, bool) {
	var seen []string
	for _, want := range rest {
		l.skipWhitespace()
		if !isLetter(l.ch) && l.ch != '_' {
			return strings.Join(seen, " "), false
		}
		got := l.scanWord()
		seen = append(seen, got)
		if got != want {
			return strings.Join(seen, " "), false
		}
	}
	return strings.Join(seen, " "), true
}

// Helper functions

func isLetter(r rune) bool {
	return unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Tokenize returns all tokens from the input, ending with TokenEOF.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}
