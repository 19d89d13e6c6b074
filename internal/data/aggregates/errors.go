package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
)

var (
	ErrValidation = errors.New("aggregate validation")
	ErrInvariant  = errors.New("aggregate invariant violation")
	ErrConflict   = errors.New("aggregate conflict")
	ErrRetryable  = errors.New("aggregate retryable")
)

// kindError tags a message with one of the sentinels above.
type kindError struct {
	kind error
	msg  string
}

func (e kindError) Error() string { return e.kind.Error() + ": " + e.msg }
func (e kindError) Unwrap() error { return e.kind }

func ValidationError(msg string) error {
	return kindError{kind: ErrValidation, msg: strings.TrimSpace(msg)}
}

func InvariantError(msg string) error {
	return kindError{kind: ErrInvariant, msg: strings.TrimSpace(msg)}
}

func ConflictError(msg string) error {
	return kindError{kind: ErrConflict, msg: strings.TrimSpace(msg)}
}

func RetryableError(msg string) error {
	return kindError{kind: ErrRetryable, msg: strings.TrimSpace(msg)}
}

// Checked in order; the first match wins.
var sentinelCodes = []struct {
	target error
	code   domainagg.ErrorCode
}{
	{ErrValidation, domainagg.CodeValidation},
	{ErrInvariant, domainagg.CodeInvariantViolation},
	{ErrConflict, domainagg.CodeConflict},
	{ErrRetryable, domainagg.CodeRetryable},
	{gorm.ErrRecordNotFound, domainagg.CodeNotFound},
	{gorm.ErrDuplicatedKey, domainagg.CodeConflict},
	{gorm.ErrForeignKeyViolated, domainagg.CodeInvariantViolation},
	{context.Canceled, domainagg.CodeRetryable},
	{context.DeadlineExceeded, domainagg.CodeRetryable},
}

// SQLSTATE codes from Postgres.
var pgCodes = map[string]domainagg.ErrorCode{
	"23505": domainagg.CodeConflict,           // unique_violation
	"23503": domainagg.CodeInvariantViolation, // foreign_key_violation
	"23514": domainagg.CodeInvariantViolation, // check_violation
	"40001": domainagg.CodeRetryable,          // serialization_failure
	"40P01": domainagg.CodeRetryable,          // deadlock_detected
	"55P03": domainagg.CodeRetryable,          // lock_not_available
}

// Driver messages that carry no typed error, mostly from SQLite.
var messageCodes = []struct {
	fragment string
	code     domainagg.ErrorCode
}{
	{"unique constraint failed", domainagg.CodeConflict},
	{"duplicate key", domainagg.CodeConflict},
	{"foreign key constraint failed", domainagg.CodeInvariantViolation},
	{"database is locked", domainagg.CodeRetryable},
	{"database table is locked", domainagg.CodeRetryable},
	{"deadlock", domainagg.CodeRetryable},
	{"connection refused", domainagg.CodeRetryable},
	{"connection reset", domainagg.CodeRetryable},
}

// Classify turns any write failure into a *domainagg.Error. Errors that
// already carry a code pass through untouched.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		return aggErr
	}
	return domainagg.Wrap(codeFor(err), op, err)
}

func codeFor(err error) domainagg.ErrorCode {
	for _, s := range sentinelCodes {
		if errors.Is(err, s.target) {
			return s.code
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code, ok := pgCodes[pgErr.Code]; ok {
			return code
		}
	}
	msg := strings.ToLower(err.Error())
	for _, m := range messageCodes {
		if strings.Contains(msg, m.fragment) {
			return m.code
		}
	}
	return domainagg.CodeInternal
}
