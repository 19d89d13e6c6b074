package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	paydomain "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/payments"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/http/response"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/apierr"
	ordersvc "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/orders"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/payments"
)

type PaymentHandler struct {
	orders     ordersvc.Service
	router     *payments.Router
	settlement *payments.Settlement
}

func NewPaymentHandler(orderService ordersvc.Service, router *payments.Router, settlement *payments.Settlement) *PaymentHandler {
	return &PaymentHandler{orders: orderService, router: router, settlement: settlement}
}

// POST /api/tenants/:tenant_id/orders/:order_id/charge
func (h *PaymentHandler) Charge(c *gin.Context) {
	p, tenantID, orderID, err := scope(c, true)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	var req payments.SettlementInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondDomainError(c, apierr.BadRequest("invalid_body", err))
		return
	}
	req.IdempotencyKey = idempotencyKey(c, req.IdempotencyKey)
	res, err := h.settlement.ChargeAndMarkPaid(c.Request.Context(), p, tenantID, orderID, req)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/tenants/:tenant_id/orders/:order_id/payments
func (h *PaymentHandler) ListAttempts(c *gin.Context) {
	p, tenantID, orderID, err := scope(c, true)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if _, err := h.orders.Get(c.Request.Context(), p, tenantID, orderID); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	rows, err := h.router.ListAttempts(c.Request.Context(), tenantID, orderID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"attempts": rows})
}

type refundRequest struct {
	TransactionRef string `json:"transaction_ref"`
	Amount         int64  `json:"amount"`
	IdempotencyKey string `json:"idempotency_key"`
}

// POST /api/tenants/:tenant_id/refunds
func (h *PaymentHandler) Refund(c *gin.Context) {
	p, tenantID, _, err := scope(c, false)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if !p.EntitledTo(tenantID) {
		response.RespondDomainError(c, domainagg.NewError(domainagg.CodeTenantMismatch, "payments.refund", "principal is not entitled to tenant", nil))
		return
	}
	if !p.CanRefund() {
		response.RespondDomainError(c, domainagg.NewError(domainagg.CodeForbidden, "payments.refund", "refunds require manager or owner role", nil))
		return
	}
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondDomainError(c, apierr.BadRequest("invalid_body", errors.New("malformed refund request")))
		return
	}
	res, err := h.router.Refund(c.Request.Context(), payments.RefundRequest{
		TenantID:       tenantID,
		TransactionRef: req.TransactionRef,
		Amount:         req.Amount,
		IdempotencyKey: idempotencyKey(c, req.IdempotencyKey),
		Reason:         paydomain.RefundReasonCustomer,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"refund": res})
}
