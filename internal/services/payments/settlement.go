package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/auth"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/orders"
	paydomain "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/payments"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
	ordersvc "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/orders"
)

type SettlementInput struct {
	Amount         int64  `json:"amount"`
	Method         string `json:"method"`
	IdempotencyKey string `json:"idempotency_key"`
}

type SettlementResult struct {
	Order   *orders.Order `json:"order"`
	Payment PaymentResult `json:"payment"`
}

// Settlement couples one charge with the order's payment transition.
type Settlement struct {
	log           *logger.Logger
	orders        ordersvc.Service
	router        *Router
	commitRetries int
}

func NewSettlement(log *logger.Logger, orderService ordersvc.Service, router *Router) *Settlement {
	return &Settlement{
		log:           log.With("service", "Settlement"),
		orders:        orderService,
		router:        router,
		commitRetries: 5,
	}
}

// ChargeAndMarkPaid charges the order total and commits payment_succeeded.
// If the order left awaiting_payment while the charge was in flight the
// capture is refunded and invalid_transition is returned.
func (s *Settlement) ChargeAndMarkPaid(ctx context.Context, actor auth.Principal, tenantID, orderID uuid.UUID, in SettlementInput) (SettlementResult, error) {
	const op = "settlement.charge_and_mark_paid"
	order, err := s.orders.Get(ctx, actor, tenantID, orderID)
	if err != nil {
		return SettlementResult{}, err
	}
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)

	existing, err := s.router.SucceededAttempt(ctx, tenantID, orderID)
	if err != nil {
		return SettlementResult{}, err
	}
	switch {
	case existing != nil && existing.IdempotencyKey != in.IdempotencyKey:
		return SettlementResult{}, domainagg.NewError(domainagg.CodeConflict, op, "order already has a succeeded payment", nil)
	case existing == nil && order.State != orders.StateAwaitingPayment:
		return SettlementResult{}, domainagg.NewError(
			domainagg.CodeInvalidTransition,
			op,
			fmt.Sprintf("order is %s, not %s", order.State, orders.StateAwaitingPayment),
			nil,
		)
	}

	amount := in.Amount
	if amount == 0 {
		amount = order.Totals.Total
	}
	if amount != order.Totals.Total {
		return SettlementResult{}, domainagg.NewValidationError(op, "charge amount must equal the order total", []domainagg.Issue{{
			Field:  "amount",
			Reason: fmt.Sprintf("order total is %d", order.Totals.Total),
		}})
	}

	res, err := s.router.Charge(ctx, ChargeRequest{
		TenantID:        tenantID,
		OrderID:         orderID,
		Amount:          amount,
		Currency:        order.Currency,
		PreferredMethod: in.Method,
		IdempotencyKey:  in.IdempotencyKey,
	})
	if err != nil {
		if domainagg.IsCode(err, domainagg.CodePaymentExhausted) {
			s.markFailed(ctx, actor, tenantID, orderID, err)
		}
		return SettlementResult{}, err
	}
	return s.commitPaid(ctx, op, actor, tenantID, orderID, in, res)
}

func (s *Settlement) commitPaid(ctx context.Context, op string, actor auth.Principal, tenantID, orderID uuid.UUID, in SettlementInput, res PaymentResult) (SettlementResult, error) {
	var lastErr error
	for i := 0; i < s.commitRetries; i++ {
		current, err := s.orders.Get(ctx, actor, tenantID, orderID)
		if err != nil {
			if domainagg.Retryable(err) {
				lastErr = err
				continue
			}
			return SettlementResult{}, err
		}
		switch current.State {
		case orders.StateAwaitingPayment:
			next, err := s.orders.ApplySystem(ctx, actor, ordersvc.TransitionInput{
				TenantID:        tenantID,
				OrderID:         orderID,
				ExpectedVersion: current.Version,
				Event:           orders.EventPaymentSucceeded,
				Reason:          fmt.Sprintf("%s via %s", res.TransactionRef, res.Provider),
			})
			if err == nil {
				return SettlementResult{Order: next, Payment: res}, nil
			}
			if domainagg.IsCode(err, domainagg.CodeConflict) || domainagg.Retryable(err) {
				lastErr = err
				continue
			}
			return SettlementResult{}, err
		case orders.StatePaid, orders.StatePreparing, orders.StateReady, orders.StateCompleted:
			return SettlementResult{Order: current, Payment: res}, nil
		default:
			return SettlementResult{}, s.compensate(ctx, op, tenantID, current, in, res)
		}
	}
	s.log.Error("Payment captured but order could not be marked paid",
		"order_id", orderID,
		"tenant_id", tenantID,
		"transaction_ref", res.TransactionRef,
		"error", lastErr,
	)
	return SettlementResult{}, domainagg.NewError(domainagg.CodeRetryable, op, "payment captured; marking the order paid did not complete", lastErr)
}

func (s *Settlement) compensate(ctx context.Context, op string, tenantID uuid.UUID, current *orders.Order, in SettlementInput, res PaymentResult) error {
	_, err := s.router.Refund(ctx, RefundRequest{
		TenantID:       tenantID,
		TransactionRef: res.TransactionRef,
		Amount:         res.Amount,
		IdempotencyKey: in.IdempotencyKey + ":compensation",
		Reason:         paydomain.RefundReasonCompensation,
	})
	if err != nil {
		s.log.Error("Compensating refund failed", "order_id", current.ID, "transaction_ref", res.TransactionRef, "error", err)
		return domainagg.NewError(
			domainagg.CodeInvalidTransition,
			op,
			fmt.Sprintf("order became %s during payment; compensating refund failed", current.State),
			err,
		)
	}
	s.log.Warn("Order left awaiting_payment during charge; payment refunded",
		"order_id", current.ID,
		"state", current.State,
		"transaction_ref", res.TransactionRef,
	)
	return domainagg.NewError(
		domainagg.CodeInvalidTransition,
		op,
		fmt.Sprintf("order became %s during payment; charge refunded", current.State),
		nil,
	)
}

func (s *Settlement) markFailed(ctx context.Context, actor auth.Principal, tenantID, orderID uuid.UUID, cause error) {
	for i := 0; i < s.commitRetries; i++ {
		current, err := s.orders.Get(ctx, actor, tenantID, orderID)
		if err != nil || current.State != orders.StateAwaitingPayment {
			return
		}
		_, err = s.orders.ApplySystem(ctx, actor, ordersvc.TransitionInput{
			TenantID:        tenantID,
			OrderID:         orderID,
			ExpectedVersion: current.Version,
			Event:           orders.EventPaymentFailed,
			Reason:          cause.Error(),
		})
		if err == nil {
			return
		}
		if !domainagg.IsCode(err, domainagg.CodeConflict) && !domainagg.Retryable(err) {
			s.log.Warn("Failed to mark order payment_failed", "order_id", orderID, "error", err)
			return
		}
	}
}
