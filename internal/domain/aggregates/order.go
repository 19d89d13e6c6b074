package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/orders"
)

var OrderAggregateContract = Contract{
	Name:   "OrderAggregate",
	Tables: []string{"pos_order", "pos_order_transition"},
	Invariants: []string{
		"state changes only along an allowed lifecycle edge",
		"version advances by exactly one per committed transition",
		"each committed transition appends one audit row in the same transaction",
	},
}

// CommitTransitionInput carries one lifecycle step guarded by ExpectedVersion.
type CommitTransitionInput struct {
	TenantID        uuid.UUID
	OrderID         uuid.UUID
	ExpectedVersion int
	Event           orders.Event
	Actor           string
	Reason          string
	At              time.Time
}

type CommitTransitionResult struct {
	Order      orders.Order
	Transition orders.OrderTransition
}

// OrderAggregate commits lifecycle transitions.
type OrderAggregate interface {
	Aggregate
	CommitTransition(ctx context.Context, in CommitTransitionInput) (CommitTransitionResult, error)
}
