package diagnostics

import (
	"fmt"

	"github.com/rowan-lang/rowan/internal/token"
)

// Code identifies a diagnostic class. Codes are stable: tooling and tests
// key on them, messages are free to change.
type Code string

const (
	// Unification errors (recoverable at the unify call site).
	ErrU001 Code = "U001" // shape mismatch
	ErrU002 Code = "U002" // kind mismatch
	ErrU003 Code = "U003" // occurs check failure
	ErrU004 Code = "U004" // row label mismatch

	// Inference errors (terminate the compilation unit).
	ErrT001 Code = "T001" // unbound variable
	ErrT002 Code = "T002" // unknown effect operation
	ErrT003 Code = "T003" // ambiguous effect
	ErrT004 Code = "T004" // unhandled effect at top level (strict mode)

	// Lowering/runtime invariant violations (fatal).
	ErrL001 Code = "L001" // unhandled effect
	ErrL002 Code = "L002" // continuation reused
)

// DiagnosticError is a classified error value with a source-location tag.
// The middle-end never formats user-facing text beyond Message; rendering
// (color, file context) is the caller's job.
type DiagnosticError struct {
	Code    Code
	Token   token.Token
	Message string
	File    string
}

func (e *DiagnosticError) Error() string {
	if e.Token.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %d:%d: %s", e.Code, e.Token.Line, e.Token.Column, e.Message)
}

// NewError creates a diagnostic with a formatted message.
func NewError(code Code, tok token.Token, format string, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{
		Code:    code,
		Token:   tok,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsFatal reports whether the code is a runtime contract violation rather
// than an ordinary type error.
func IsFatal(code Code) bool {
	return code == ErrL001 || code == ErrL002
}
