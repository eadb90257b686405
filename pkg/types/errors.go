package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an Error.
type ErrorKind uint8

const (
	// KindSyntax covers lexing and parsing failures.
	KindSyntax ErrorKind = iota + 1
	// KindValidity covers type conflicts and operator misuse.
	KindValidity
	// KindEvaluation covers failures while running a compiled expression.
	KindEvaluation
	// KindCancellation marks aborts caused by a done context.
	KindCancellation
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindValidity:
		return "validity"
	case KindEvaluation:
		return "evaluation"
	case KindCancellation:
		return "cancellation"
	default:
		return "unknown"
	}
}

// ErrorCode identifies a specific failure.
type ErrorCode string

// Error codes.
const (
	// S0xxx: syntax
	ErrCodeStringNotClosed  ErrorCode = "S0101"
	ErrCodeNumberOutOfRange ErrorCode = "S0102"
	ErrCodeBadEscape        ErrorCode = "S0103"
	ErrCodeUnexpectedEnd    ErrorCode = "S0104"
	ErrCodeCommentNotClosed ErrorCode = "S0106"
	ErrCodeBadBytes         ErrorCode = "S0107"
	ErrCodeSyntax           ErrorCode = "S0201"
	ErrCodeUnbalanced       ErrorCode = "S0202"
	ErrCodeUnknownFunction  ErrorCode = "S0301"
	ErrCodeTooDeep          ErrorCode = "S0302"

	// T0xxx: logical validity
	ErrCodeArity         ErrorCode = "T0410"
	ErrCodeTypeConflict  ErrorCode = "T1001"
	ErrCodeOperandType   ErrorCode = "T1003"
	ErrCodeParamConflict ErrorCode = "T2001"

	// D0xxx: evaluation
	ErrCodeDivisionByZero  ErrorCode = "D1001"
	ErrCodeOverflow        ErrorCode = "D1002"
	ErrCodeMissingParam    ErrorCode = "D2001"
	ErrCodeBindingType     ErrorCode = "D2002"
	ErrCodeDataFinder      ErrorCode = "D2003"
	ErrCodeFunctionFailed  ErrorCode = "D3001"
	ErrCodeDomain          ErrorCode = "D3002"
	ErrCodeNotRecognized   ErrorCode = "D3003"
	ErrCodeCanceled        ErrorCode = "C0001"
	ErrCodeInvalidArgument ErrorCode = "D3004"
)

// Sentinel errors usable with errors.Is.
var (
	ErrSyntax            = errors.New("syntax error")
	ErrNotLogicallyValid = errors.New("expression not logically valid")
	ErrEvaluation        = errors.New("evaluation error")
	ErrMissingParameter  = errors.New("missing parameter binding")
	ErrIncompatibleType  = errors.New("incompatible value type")
	ErrDivisionByZero    = errors.New("division by zero")
	ErrOverflow          = errors.New("integer overflow")
	ErrDataFinder        = errors.New("data finder lookup failed")
	ErrFunctionNotFound  = errors.New("function not found")
	ErrArityMismatch     = errors.New("function arity mismatch")
	ErrTableFrozen       = errors.New("function table is frozen")
	ErrNotRecognized     = errors.New("expression not recognized")
)

// Error is a structured interpretation or evaluation error.
type Error struct {
	Kind     ErrorKind
	Code     ErrorCode
	Message  string
	Position int
	Token    string
	Err      error
}

// NewError creates an Error. Use a negative position when none applies.
func NewError(kind ErrorKind, code ErrorCode, message string, position int) *Error {
	return &Error{
		Kind:     kind,
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Syntaxf builds a syntax error at position.
func Syntaxf(code ErrorCode, position int, format string, args ...any) *Error {
	return NewError(KindSyntax, code, fmt.Sprintf(format, args...), position)
}

// Validityf builds a logical-validity error at position.
func Validityf(code ErrorCode, position int, format string, args ...any) *Error {
	return NewError(KindValidity, code, fmt.Sprintf(format, args...), position)
}

// Evalf builds an evaluation error without position.
func Evalf(code ErrorCode, format string, args ...any) *Error {
	return NewError(KindEvaluation, code, fmt.Sprintf(format, args...), -1)
}

// Canceled wraps a context error.
func Canceled(err error) *Error {
	return &Error{
		Kind:     KindCancellation,
		Code:     ErrCodeCanceled,
		Message:  "operation canceled",
		Position: -1,
		Err:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil && e.Kind == KindCancellation {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel errors by kind and code.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrSyntax:
		return e.Kind == KindSyntax
	case ErrNotLogicallyValid:
		return e.Kind == KindValidity
	case ErrEvaluation:
		return e.Kind == KindEvaluation
	case ErrDivisionByZero:
		return e.Code == ErrCodeDivisionByZero
	case ErrOverflow:
		return e.Code == ErrCodeOverflow
	case ErrMissingParameter:
		return e.Code == ErrCodeMissingParam
	case ErrIncompatibleType:
		return e.Code == ErrCodeBindingType
	case ErrDataFinder:
		return e.Code == ErrCodeDataFinder
	case ErrFunctionNotFound:
		return e.Code == ErrCodeUnknownFunction
	case ErrArityMismatch:
		return e.Code == ErrCodeArity
	case ErrNotRecognized:
		return e.Code == ErrCodeNotRecognized
	}
	return false
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// AsError returns err as *Error when it is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
