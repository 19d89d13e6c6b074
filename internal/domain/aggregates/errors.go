package aggregates

import (
	"errors"
	"strings"
)

// ErrorCode is the stable failure kind surfaced to terminals. Transport layers
// map codes to statuses; nothing below them should.
type ErrorCode string

const (
	CodeAuth               ErrorCode = "auth_error"
	CodeTenantMismatch     ErrorCode = "tenant_mismatch"
	CodeForbidden          ErrorCode = "forbidden"
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeInvalidTransition  ErrorCode = "invalid_transition"
	CodeConflict           ErrorCode = "conflict"
	CodePaymentRejected    ErrorCode = "payment_rejected"
	CodePaymentExhausted   ErrorCode = "payment_exhausted"
	CodeInvariantViolation ErrorCode = "invariant_violation"
	CodeRetryable          ErrorCode = "retryable"
	CodeInternal           ErrorCode = "internal"
)

// Transient reports whether repeating the same request may succeed.
func (c ErrorCode) Transient() bool {
	return c == CodeRetryable
}

// Issue names one offending input of a validation failure, e.g. a line item SKU.
type Issue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Issues  []Issue
	Cause   error
}

// Error renders "op: message (code)", dropping whichever parts are empty.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		if e.Message != "" {
			b.WriteString(": ")
		}
	}
	b.WriteString(e.Message)
	if b.Len() == 0 {
		return string(e.Code)
	}
	b.WriteString(" (")
	b.WriteString(string(e.Code))
	b.WriteString(")")
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// NewValidationError lists every offending input rather than only the first.
func NewValidationError(op, message string, issues []Issue) error {
	return &Error{
		Code:    CodeValidation,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Issues:  issues,
	}
}

// Wrap tags err with code, reusing its text as the message. Nil stays nil.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

func IsCode(err error, code ErrorCode) bool {
	e := asError(err)
	return e != nil && e.Code == code
}

// CodeOf returns the outermost code in err's chain, or "" when there is none.
func CodeOf(err error) ErrorCode {
	if e := asError(err); e != nil {
		return e.Code
	}
	return ""
}

func IssuesOf(err error) []Issue {
	if e := asError(err); e != nil {
		return e.Issues
	}
	return nil
}

// Retryable reports whether err is a transient infrastructure failure.
func Retryable(err error) bool {
	return CodeOf(err).Transient()
}
