package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/orders"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/payments"
)

func SeedOrder(tb testing.TB, ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, state orders.State, version int) *orders.Order {
	tb.Helper()
	items := []orders.LineItem{{SKU: "flat-white", Name: "Flat White", Quantity: 1, UnitPrice: 1000}}
	now := time.Now().UTC()
	o := &orders.Order{
		ID:        uuid.New(),
		TenantID:  tenantID,
		State:     state,
		LineItems: items,
		Totals:    orders.ComputeTotals(items, 0),
		Currency:  "GBP",
		Version:   version,
		CreatedBy: "staff-1",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed order: %v", err)
	}
	return o
}

func SeedSucceededAttempt(tb testing.TB, ctx context.Context, tx *gorm.DB, o *orders.Order, provider, ref string) *payments.PaymentAttempt {
	tb.Helper()
	a := &payments.PaymentAttempt{
		ID:             uuid.New(),
		TenantID:       o.TenantID,
		OrderID:        o.ID,
		Hop:            1,
		Provider:       provider,
		Method:         "card",
		Amount:         o.Totals.Total,
		Currency:       o.Currency,
		NetAmount:      o.Totals.Total,
		Status:         payments.AttemptSucceeded,
		TransactionRef: ref,
		IdempotencyKey: "seed-" + ref,
		CreatedAt:      time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed attempt: %v", err)
	}
	return a
}
