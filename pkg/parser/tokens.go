package parser

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenNumber // 123, -2.5, 1e-10
	TokenString // "hello"

	// Words and bindings
	TokenName  // dup, sum, result
	TokenStore // =result

	// Array literal delimiters
	TokenBracketOpen  // [
	TokenBracketClose // ]
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenNumber:
		return "(number)"
	case TokenString:
		return "(string)"
	case TokenName:
		return "(name)"
	case TokenStore:
		return "(store)"
	case TokenBracketOpen:
		return "["
	case TokenBracketClose:
		return "]"
	default:
		return "(unknown)"
	}
}

// Token represents a lexical token in a stackval program.
type Token struct {
	Type     TokenType // Type of the token
	Value    string    // Literal value of the token
	Position int       // Starting position in the input string
}

// isNameStart reports whether r can start an identifier.
func isNameStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// isNameRune reports whether r can continue an identifier.
func isNameRune(r rune) bool {
	return isNameStart(r) || (r >= '0' && r <= '9')
}

// isDigit reports whether r is an ASCII digit.
func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
