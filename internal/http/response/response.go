package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/apierr"
)

type APIError struct {
	Message   string            `json:"message"`
	Code      string            `json:"code,omitempty"`
	Retryable bool              `json:"retryable"`
	Issues    []domainagg.Issue `json:"issues,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message:   msg,
			Code:      code,
			Retryable: code == string(domainagg.CodeRetryable),
			Issues:    domainagg.IssuesOf(err),
		},
	})
}

// StatusFor maps a domain error code onto its HTTP status.
func StatusFor(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeAuth:
		return http.StatusUnauthorized
	case domainagg.CodeTenantMismatch, domainagg.CodeForbidden:
		return http.StatusForbidden
	case domainagg.CodeValidation:
		return http.StatusUnprocessableEntity
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeInvalidTransition, domainagg.CodeConflict:
		return http.StatusConflict
	case domainagg.CodePaymentRejected:
		return http.StatusPaymentRequired
	case domainagg.CodePaymentExhausted:
		return http.StatusBadGateway
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondDomainError renders err with the status its code implies. Internal
// failures never leak their message.
func RespondDomainError(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeInternal
	}
	status := StatusFor(code)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, status, string(domainagg.CodeInternal), errors.New("internal error"))
		return
	}
	RespondError(c, status, string(code), err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
