package types

import "fmt"

// ErrorCode identifies a stackval error class and condition.
type ErrorCode string

// Error codes. The leading letter is the class: S for syntax errors raised
// while lexing or compiling, D for runtime errors raised while executing,
// P for sandbox capability violations, U for lookup failures on the stack.
const (
	// S0xxx: Lexer/Parser errors
	ErrStringNotClosed  ErrorCode = "S0101"
	ErrNumberMalformed  ErrorCode = "S0102"
	ErrIllegalCharacter ErrorCode = "S0103"
	ErrUnexpectedEnd    ErrorCode = "S0104"
	ErrSyntaxError      ErrorCode = "S0201"
	ErrUnmatchedBracket ErrorCode = "S0202"
	ErrEmptyBindingName ErrorCode = "S0203"

	// D1xxx: Execution errors
	ErrStackUnderflow ErrorCode = "D1001"
	ErrTypeMismatch   ErrorCode = "D1002"
	ErrShapeMismatch  ErrorCode = "D1003"
	ErrByteRange      ErrorCode = "D1004"
	ErrStepBudget     ErrorCode = "D1005"
	ErrElemBudget     ErrorCode = "D1006"
	ErrNotInteger     ErrorCode = "D1007"
	ErrCancelled      ErrorCode = "D1008"
	ErrEmptyArray     ErrorCode = "D1009"
	ErrIO             ErrorCode = "D1010"

	// P1xxx: Sandbox violations
	ErrPermissionDenied ErrorCode = "P1001"

	// U1xxx: Stack lookup failures
	ErrUnboundName ErrorCode = "U1001"
	ErrEmptyStack  ErrorCode = "U1002"
)

// Error is a structured stackval error.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Token    string
	Err      error
}

// NewError creates a new error. position is a byte offset into the source,
// or -1 when the error is not tied to a source location.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithToken adds the offending token text to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// Class returns the leading letter of the error code: 'S' for syntax,
// 'D' for runtime, 'P' for permission, 'U' for lookup.
func (e *Error) Class() byte {
	if len(e.Code) == 0 {
		return 0
	}
	return e.Code[0]
}
