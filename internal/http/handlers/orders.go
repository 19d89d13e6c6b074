package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/orders"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/http/response"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/apierr"
	ordersvc "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/orders"
)

type OrderHandler struct {
	orders ordersvc.Service
}

func NewOrderHandler(orderService ordersvc.Service) *OrderHandler {
	return &OrderHandler{orders: orderService}
}

// POST /api/tenants/:tenant_id/orders
func (h *OrderHandler) Create(c *gin.Context) {
	p, tenantID, _, err := scope(c, false)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	var req ordersvc.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondDomainError(c, apierr.BadRequest("invalid_body", err))
		return
	}
	o, err := h.orders.Create(c.Request.Context(), p, tenantID, req)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"order": o})
}

// GET /api/tenants/:tenant_id/orders/:order_id
func (h *OrderHandler) Get(c *gin.Context) {
	p, tenantID, orderID, err := scope(c, true)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	o, err := h.orders.Get(c.Request.Context(), p, tenantID, orderID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": o})
}

// GET /api/tenants/:tenant_id/orders/:order_id/transitions
func (h *OrderHandler) ListTransitions(c *gin.Context) {
	p, tenantID, orderID, err := scope(c, true)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	trs, err := h.orders.ListTransitions(c.Request.Context(), p, tenantID, orderID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"transitions": trs})
}

type applyEventRequest struct {
	Event           orders.Event `json:"event"`
	ExpectedVersion *int         `json:"expected_version"`
	Reason          string       `json:"reason"`
}

// POST /api/tenants/:tenant_id/orders/:order_id/events
func (h *OrderHandler) ApplyEvent(c *gin.Context) {
	p, tenantID, orderID, err := scope(c, true)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	var req applyEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondDomainError(c, apierr.BadRequest("invalid_body", err))
		return
	}
	if req.ExpectedVersion == nil {
		response.RespondDomainError(c, apierr.BadRequest("missing_expected_version", errors.New("expected_version is required")))
		return
	}
	// payment outcomes only arrive through POST .../charge
	if req.Event.SystemOnly() {
		response.RespondDomainError(c, domainagg.NewError(domainagg.CodeForbidden, "order.apply", fmt.Sprintf("%s cannot be submitted by clients", req.Event), nil))
		return
	}
	o, err := h.orders.Transition(c.Request.Context(), p, ordersvc.TransitionInput{
		TenantID:        tenantID,
		OrderID:         orderID,
		ExpectedVersion: *req.ExpectedVersion,
		Event:           req.Event,
		Reason:          req.Reason,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"order": o})
}
