package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domainagg.ErrorCode
	}{
		{"validation", ValidationError("expected_version must be >= 0"), domainagg.CodeValidation},
		{"conflict", ConflictError("stale"), domainagg.CodeConflict},
		{"wrapped conflict", fmt.Errorf("commit: %w", ConflictError("stale")), domainagg.CodeConflict},
		{"not found", gorm.ErrRecordNotFound, domainagg.CodeNotFound},
		{"deadline", context.DeadlineExceeded, domainagg.CodeRetryable},
		{"pg unique", &pgconn.PgError{Code: "23505"}, domainagg.CodeConflict},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, domainagg.CodeRetryable},
		{"pg check", &pgconn.PgError{Code: "23514"}, domainagg.CodeInvariantViolation},
		{"sqlite unique", errors.New("UNIQUE constraint failed: pos_payment_attempt.order_id"), domainagg.CodeConflict},
		{"sqlite busy", errors.New("database is locked"), domainagg.CodeRetryable},
		{"unknown", errors.New("something odd"), domainagg.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify("op", tc.err)
			if !domainagg.IsCode(got, tc.want) {
				t.Fatalf("code: want=%q got=%q (%v)", tc.want, domainagg.CodeOf(got), got)
			}
		})
	}
}

func TestClassifyKeepsExistingCode(t *testing.T) {
	if Classify("op", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
	in := domainagg.NewError(domainagg.CodePaymentRejected, "payments.charge", "declined", nil)
	if out := Classify("other", in); out != in {
		t.Fatalf("coded error must pass through unchanged")
	}
	inner := domainagg.NewError(domainagg.CodeInvalidTransition, "order.commit_transition", "not allowed", nil)
	out := Classify("tx", errors.Join(errors.New("tx failed"), inner))
	if !domainagg.IsCode(out, domainagg.CodeInvalidTransition) {
		t.Fatalf("joined: want=invalid_transition got=%q", domainagg.CodeOf(out))
	}
}
