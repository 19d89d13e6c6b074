package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	orderrepos "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/repos/orders"
	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/orders"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
)

type OrderAggregateDeps struct {
	Base        BaseDeps
	Orders      orderrepos.OrderRepo
	Transitions orderrepos.OrderTransitionRepo
}

type orderAggregate struct {
	deps OrderAggregateDeps
}

func NewOrderAggregate(deps OrderAggregateDeps) domainagg.OrderAggregate {
	deps.Base = deps.Base.withDefaults()
	return &orderAggregate{deps: deps}
}

func (a *orderAggregate) Contract() domainagg.Contract {
	return domainagg.OrderAggregateContract
}

func (a *orderAggregate) CommitTransition(ctx context.Context, in domainagg.CommitTransitionInput) (domainagg.CommitTransitionResult, error) {
	const op = "order.commit_transition"
	var out domainagg.CommitTransitionResult

	if in.TenantID == uuid.Nil || in.OrderID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "tenant_id and order_id are required", nil)
	}
	if !in.Event.Valid() {
		return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown event %q", in.Event), nil)
	}
	actor := strings.TrimSpace(in.Actor)
	if actor == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "actor is required", nil)
	}
	at := in.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if dbc.Tx == nil {
			return InvariantError("order transitions require an aggregate-owned transaction")
		}
		row, err := a.deps.Orders.GetByID(dbc, in.TenantID, in.OrderID)
		if err != nil {
			return err
		}
		if row == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, "order not found", nil)
		}
		if err := checkVersion(row.Version, in.ExpectedVersion); err != nil {
			return err
		}
		to, ok := orders.Next(row.State, in.Event)
		if !ok {
			return domainagg.NewError(
				domainagg.CodeInvalidTransition,
				op,
				fmt.Sprintf("event %s is not allowed from state %s", in.Event, row.State),
				nil,
			)
		}

		nextVersion, err := a.deps.Base.Versions.Advance(dbc, row.TableName(), in.TenantID, in.OrderID, in.ExpectedVersion, map[string]any{
			"state":      string(to),
			"updated_at": at,
		})
		if err != nil {
			return err
		}

		tr := &orders.OrderTransition{
			TenantID:  in.TenantID,
			OrderID:   in.OrderID,
			Version:   nextVersion,
			FromState: row.State,
			ToState:   to,
			Event:     in.Event,
			Actor:     actor,
			Reason:    strings.TrimSpace(in.Reason),
			Timestamp: at,
		}
		if err := a.deps.Transitions.Append(dbc, tr); err != nil {
			return err
		}

		row.State = to
		row.Version = nextVersion
		row.UpdatedAt = at
		out = domainagg.CommitTransitionResult{Order: *row, Transition: *tr}
		return nil
	})
	if err != nil {
		return domainagg.CommitTransitionResult{}, err
	}
	return out, nil
}
