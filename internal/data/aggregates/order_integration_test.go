package aggregates_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/aggregates"
	aggtest "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/aggregates/testutil"
	orderrepos "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/repos/orders"
	repotest "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/repos/testutil"
	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/orders"
	paydomain "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/payments"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
)

type orderFixture struct {
	agg         domainagg.OrderAggregate
	orders      orderrepos.OrderRepo
	transitions orderrepos.OrderTransitionRepo
	writes      *aggtest.WriteRecorder
	tenantID    uuid.UUID
	orderID     uuid.UUID
}

func newOrderFixture(t *testing.T, runner aggregates.TxRunner) orderFixture {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	writes := &aggtest.WriteRecorder{}
	ordersRepo := orderrepos.NewOrderRepo(db, log)
	transitions := orderrepos.NewOrderTransitionRepo(db, log)
	if runner == nil {
		runner = aggregates.NewGormTxRunner(db)
	}
	if fr, ok := runner.(*aggtest.FaultRunner); ok && fr.DB == nil {
		fr.DB = db
	}
	agg := aggregates.NewOrderAggregate(aggregates.OrderAggregateDeps{
		Base:        aggregates.BaseDeps{DB: db, Log: log, Runner: runner, Hooks: writes},
		Orders:      ordersRepo,
		Transitions: transitions,
	})

	tenantID := uuid.New()
	items := []orders.LineItem{{SKU: "soup", Name: "Soup", Quantity: 1, UnitPrice: 650}}
	o, err := ordersRepo.Create(dbctx.Context{Ctx: context.Background()}, &orders.Order{
		TenantID:  tenantID,
		State:     orders.StateDraft,
		LineItems: items,
		Totals:    orders.ComputeTotals(items, 0),
		Currency:  "GBP",
		CreatedBy: "staff-1",
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return orderFixture{agg: agg, orders: ordersRepo, transitions: transitions, writes: writes, tenantID: tenantID, orderID: o.ID}
}

func (f orderFixture) commit(ev orders.Event, expected int) (domainagg.CommitTransitionResult, error) {
	return f.agg.CommitTransition(context.Background(), domainagg.CommitTransitionInput{
		TenantID:        f.tenantID,
		OrderID:         f.orderID,
		ExpectedVersion: expected,
		Event:           ev,
		Actor:           "staff-1",
	})
}

func TestOrderAggregateCommitTransitionHappyPath(t *testing.T) {
	f := newOrderFixture(t, nil)

	res, err := f.commit(orders.EventValidate, 0)
	if err != nil {
		t.Fatalf("CommitTransition validate: %v", err)
	}
	if res.Order.State != orders.StateValidated || res.Order.Version != 1 {
		t.Fatalf("result: want=(validated,1) got=(%s,%d)", res.Order.State, res.Order.Version)
	}
	if res.Transition.Version != 1 || res.Transition.FromState != orders.StateDraft {
		t.Fatalf("unexpected transition: %+v", res.Transition)
	}

	if _, err := f.commit(orders.EventRequestPayment, 1); err != nil {
		t.Fatalf("CommitTransition request_payment: %v", err)
	}

	stored, err := f.orders.GetByID(dbctx.Context{Ctx: context.Background()}, f.tenantID, f.orderID)
	if err != nil || stored == nil {
		t.Fatalf("GetByID: %v", err)
	}
	trs, err := f.transitions.ListByOrder(dbctx.Context{Ctx: context.Background()}, f.tenantID, f.orderID)
	if err != nil {
		t.Fatalf("ListByOrder: %v", err)
	}
	flat := make([]orders.OrderTransition, 0, len(trs))
	for _, tr := range trs {
		flat = append(flat, *tr)
	}
	state, version, err := orders.Replay(flat)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if state != stored.State || version != stored.Version {
		t.Fatalf("replay mismatch: replay=(%s,%d) stored=(%s,%d)", state, version, stored.State, stored.Version)
	}
	if got := f.writes.Count(""); got != 2 {
		t.Fatalf("successful writes: want=2 got=%d", got)
	}
}

func TestOrderAggregateRejectsStaleVersionAndBadEdge(t *testing.T) {
	f := newOrderFixture(t, nil)

	if _, err := f.commit(orders.EventValidate, 0); err != nil {
		t.Fatalf("validate: %v", err)
	}
	_, err := f.commit(orders.EventRequestPayment, 0)
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("stale version: want=conflict got=%v", err)
	}
	_, err = f.commit(orders.EventComplete, 1)
	if !domainagg.IsCode(err, domainagg.CodeInvalidTransition) {
		t.Fatalf("bad edge: want=invalid_transition got=%v", err)
	}
	if got := f.writes.Count(domainagg.CodeConflict); got != 1 {
		t.Fatalf("conflicted writes: want=1 got=%d", got)
	}

	_, err = f.agg.CommitTransition(context.Background(), domainagg.CommitTransitionInput{
		TenantID: uuid.New(), OrderID: f.orderID, ExpectedVersion: 1, Event: orders.EventRequestPayment, Actor: "x",
	})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("foreign tenant: want=not_found got=%v", err)
	}
}

func TestOrderAggregateConcurrentCommitsExactlyOneWins(t *testing.T) {
	f := newOrderFixture(t, nil)

	const racers = 2
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.commit(orders.EventValidate, 0)
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case domainagg.IsCode(err, domainagg.CodeConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("race outcome: want=(1 win,1 conflict) got=(%d,%d)", wins, conflicts)
	}
}

func TestOrderAggregateRollsBackOnCommitFailure(t *testing.T) {
	runner := &aggtest.FaultRunner{Fault: aggtest.FaultCommit}
	f := newOrderFixture(t, runner)

	_, err := f.commit(orders.EventValidate, 0)
	if !errors.Is(err, aggtest.ErrInjected) {
		t.Fatalf("commit fault: want=%v got=%v", aggtest.ErrInjected, err)
	}
	if _, _, rollbacks := runner.Stats(); rollbacks != 1 {
		t.Fatalf("rollbacks: want=1 got=%d", rollbacks)
	}
	stored, err := f.orders.GetByID(dbctx.Context{Ctx: context.Background()}, f.tenantID, f.orderID)
	if err != nil || stored == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.State != orders.StateDraft || stored.Version != 0 {
		t.Fatalf("rolled back order: want=(draft,0) got=(%s,%d)", stored.State, stored.Version)
	}
	trs, _ := f.transitions.ListByOrder(dbctx.Context{Ctx: context.Background()}, f.tenantID, f.orderID)
	if len(trs) != 0 {
		t.Fatalf("transitions after rollback: want=0 got=%d", len(trs))
	}
}

func TestOrderAggregateContractCoversWrittenTables(t *testing.T) {
	f := newOrderFixture(t, nil)
	c := f.agg.Contract()
	for _, table := range []string{(orders.Order{}).TableName(), (orders.OrderTransition{}).TableName()} {
		if !c.Owns(table) {
			t.Fatalf("contract %s does not own %s", c.Name, table)
		}
	}
	if c.Owns((paydomain.PaymentAttempt{}).TableName()) {
		t.Fatalf("payment attempts are written outside the order aggregate")
	}
}
