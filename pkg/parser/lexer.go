package parser

import (
	"unicode/utf8"

	"github.com/corentel/stackval/pkg/types"
)

const eof = -1

// Lexer converts a stackval program into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	err     error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all
// subsequent calls.
func (l *Lexer) Next() Token {
	l.skipWhitespace()

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	switch {
	case ch == '[':
		return l.newToken(TokenBracketOpen)
	case ch == ']':
		return l.newToken(TokenBracketClose)
	case ch == '"':
		l.ignore()
		return l.scanString(ch)
	case ch == '=':
		l.ignore()
		return l.scanStore()
	case isDigit(ch):
		l.backup()
		return l.scanNumber()
	case ch == '-':
		// A minus sign is only valid as the start of a number literal.
		if isDigit(l.peekRune()) {
			l.backup()
			return l.scanNumber()
		}
		return l.error(types.ErrNumberMalformed, "Expected digits after '-'")
	case isNameStart(ch):
		l.backup()
		return l.scanName()
	default:
		return l.error(types.ErrIllegalCharacter, "Illegal character in program")
	}
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// scanString reads a string literal from the current position.
// The opening quote has already been consumed.
func (l *Lexer) scanString(quote rune) Token {
Loop:
	for {
		switch l.nextRune() {
		case quote:
			break Loop
		case '\\':
			// Consume escaped character
			if r := l.nextRune(); r != eof {
				break
			}
			fallthrough
		case eof:
			return l.error(types.ErrStringNotClosed, "Unterminated string literal")
		}
	}

	l.backup()
	t := l.newToken(TokenString)
	l.acceptRune(quote)
	l.ignore()
	return t
}

// scanNumber reads a number literal from the current position.
// Format: [-]?[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?
func (l *Lexer) scanNumber() Token {
	l.acceptRune('-')
	l.acceptAll(isDigit)

	if l.acceptRune('.') {
		if !l.acceptAll(isDigit) {
			return l.error(types.ErrNumberMalformed, "Expected digits after decimal point")
		}
	}

	if l.acceptRunes2('e', 'E') {
		l.acceptRunes2('+', '-')
		if !l.acceptAll(isDigit) {
			return l.error(types.ErrNumberMalformed, "Expected digits in exponent")
		}
	}

	// A number must be followed by a delimiter, not by trailing name runes
	// (e.g. "3x" is malformed rather than two tokens).
	if r := l.peekRune(); isNameRune(r) {
		l.nextRune()
		return l.error(types.ErrNumberMalformed, "Malformed number literal")
	}

	return l.newToken(TokenNumber)
}

// scanStore reads the binding name of a store token.
// The leading '=' has already been consumed and ignored.
func (l *Lexer) scanStore() Token {
	if !l.accept(isNameStart) {
		return l.error(types.ErrEmptyBindingName, "Expected binding name after '='")
	}
	l.acceptAll(isNameRune)
	return l.newToken(TokenStore)
}

// scanName reads a word or binding name from the current position.
// Names start with a letter or underscore and may contain digits.
func (l *Lexer) scanName() Token {
	l.accept(isNameStart)
	l.acceptAll(isNameRune)
	return l.newToken(TokenName)
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
	}
}

func (l *Lexer) error(code types.ErrorCode, message string) Token {
	t := l.newToken(TokenError)
	l.err = &types.Error{
		Code:     code,
		Message:  message,
		Position: t.Position,
		Token:    t.Value,
	}
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) peekRune() rune {
	if l.err != nil || l.current >= l.length {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.current:])
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// skipWhitespace consumes whitespace and line comments ('#' to end of line).
func (l *Lexer) skipWhitespace() {
	for {
		l.acceptAll(isWhitespace)
		l.ignore()

		if !l.acceptRune('#') {
			return
		}
		for {
			ch := l.nextRune()
			if ch == eof || ch == '\n' {
				break
			}
		}
		l.ignore()
	}
}
