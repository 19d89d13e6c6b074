package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsCodeThroughWrapping(t *testing.T) {
	base := NewError(CodeConflict, "orders.apply", "version mismatch", nil)
	wrapped := fmt.Errorf("handler: %w", base)
	if !IsCode(wrapped, CodeConflict) {
		t.Fatalf("expected conflict code through wrap, got=%q", CodeOf(wrapped))
	}
	if IsCode(errors.New("plain"), CodeConflict) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestValidationErrorCarriesIssues(t *testing.T) {
	err := NewValidationError("orders.validate", "line items rejected", []Issue{
		{Field: "line_items[0]", Reason: "price mismatch"},
	})
	issues := IssuesOf(err)
	if len(issues) != 1 || issues[0].Field != "line_items[0]" {
		t.Fatalf("unexpected issues: %+v", issues)
	}
	if got := err.Error(); got != "orders.validate: line items rejected (validation)" {
		t.Fatalf("message: got=%q", got)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(CodeInternal, "op", nil) != nil {
		t.Fatalf("wrap(nil) must be nil")
	}
}

func TestErrorTextDropsEmptyParts(t *testing.T) {
	cases := []struct {
		err  *Error
		want string
	}{
		{&Error{Code: CodeNotFound}, "not_found"},
		{&Error{Code: CodeNotFound, Op: "orders.get"}, "orders.get (not_found)"},
		{&Error{Code: CodeNotFound, Message: "order not found"}, "order not found (not_found)"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("Error(): want=%q got=%q", tc.want, got)
		}
	}
}

func TestRetryableOnlyForTransientCode(t *testing.T) {
	if !Retryable(NewError(CodeRetryable, "payments.charge", "provider timeout", nil)) {
		t.Fatalf("retryable code must be transient")
	}
	if Retryable(NewError(CodePaymentRejected, "payments.charge", "declined", nil)) || Retryable(nil) {
		t.Fatalf("only the retryable code is transient")
	}
}
