package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/apierr"
)

func render(err error) (*httptest.ResponseRecorder, ErrorEnvelope) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondDomainError(c, err)
	var env ErrorEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestRespondDomainErrorStatuses(t *testing.T) {
	cases := []struct {
		code domainagg.ErrorCode
		want int
	}{
		{domainagg.CodeAuth, http.StatusUnauthorized},
		{domainagg.CodeTenantMismatch, http.StatusForbidden},
		{domainagg.CodeForbidden, http.StatusForbidden},
		{domainagg.CodeValidation, http.StatusUnprocessableEntity},
		{domainagg.CodeInvalidTransition, http.StatusConflict},
		{domainagg.CodeConflict, http.StatusConflict},
		{domainagg.CodePaymentRejected, http.StatusPaymentRequired},
		{domainagg.CodePaymentExhausted, http.StatusBadGateway},
		{domainagg.CodeNotFound, http.StatusNotFound},
		{domainagg.CodeRetryable, http.StatusServiceUnavailable},
		{domainagg.CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec, env := render(domainagg.NewError(tc.code, "op", "msg", nil))
		if rec.Code != tc.want {
			t.Fatalf("%s: want=%d got=%d", tc.code, tc.want, rec.Code)
		}
		if env.Error.Retryable != (tc.code == domainagg.CodeRetryable) {
			t.Fatalf("%s: retryable flag=%v", tc.code, env.Error.Retryable)
		}
	}
}

func TestRespondDomainErrorCarriesIssuesAndHidesInternals(t *testing.T) {
	_, env := render(domainagg.NewValidationError("op", "bad", []domainagg.Issue{{Field: "line_items[0]", Reason: "unknown"}}))
	if len(env.Error.Issues) != 1 || env.Error.Issues[0].Field != "line_items[0]" {
		t.Fatalf("issues: got=%+v", env.Error.Issues)
	}

	rec, env := render(errors.New("pq: password authentication failed"))
	if rec.Code != http.StatusInternalServerError || env.Error.Message != "internal error" {
		t.Fatalf("internal: status=%d message=%q", rec.Code, env.Error.Message)
	}

	rec, env = render(apierr.BadRequest("invalid_order_id", errors.New("bad uuid")))
	if rec.Code != http.StatusBadRequest || env.Error.Code != "invalid_order_id" {
		t.Fatalf("apierr: status=%d code=%q", rec.Code, env.Error.Code)
	}
}
