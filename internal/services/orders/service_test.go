package orders

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	dataagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/aggregates"
	orderrepos "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/repos/orders"
	repotest "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/repos/testutil"
	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/auth"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/orders"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/realtime"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/catalog"
)

type fakeCatalog struct {
	items map[string]catalog.Item
	err   error
	calls atomic.Int32
}

func (c *fakeCatalog) Lookup(_ context.Context, _ uuid.UUID, skus []string) (map[string]catalog.Item, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	out := map[string]catalog.Item{}
	for _, s := range skus {
		if it, ok := c.items[s]; ok {
			out[s] = it
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ uuid.UUID, ev realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []realtime.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]realtime.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	svc      Service
	cat      *fakeCatalog
	pub      *recordingPublisher
	tenantID uuid.UUID
	staff    auth.Principal
	manager  auth.Principal
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	ordersRepo := orderrepos.NewOrderRepo(db, log)
	transitions := orderrepos.NewOrderTransitionRepo(db, log)
	agg := dataagg.NewOrderAggregate(dataagg.OrderAggregateDeps{
		Base:        dataagg.BaseDeps{DB: db, Log: log},
		Orders:      ordersRepo,
		Transitions: transitions,
	})
	cat := &fakeCatalog{items: map[string]catalog.Item{
		"burger": {SKU: "burger", Name: "Burger", Price: 1200, Available: true},
		"fries":  {SKU: "fries", Name: "Fries", Price: 350, Available: true},
	}}
	pub := &recordingPublisher{}
	tenantID := uuid.New()
	return fixture{
		svc:      NewService(log, ordersRepo, transitions, agg, cat, pub, nil, Config{TaxBasisPoints: 2000}),
		cat:      cat,
		pub:      pub,
		tenantID: tenantID,
		staff:    auth.Principal{ID: "staff-1", Role: auth.RoleStaff, Tenants: []uuid.UUID{tenantID}},
		manager:  auth.Principal{ID: "mgr-1", Role: auth.RoleManager, Tenants: []uuid.UUID{tenantID}},
	}
}

func (f fixture) create(t *testing.T) *orders.Order {
	t.Helper()
	o, err := f.svc.Create(context.Background(), f.staff, f.tenantID, CreateInput{
		Currency: "gbp",
		LineItems: []orders.LineItem{
			{SKU: "burger", Name: "Burger", Quantity: 2, UnitPrice: 1200},
			{SKU: "fries", Name: "Fries", Quantity: 1, UnitPrice: 350},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return o
}

func TestCreateComputesTotalsAndPublishes(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)
	if o.State != orders.StateDraft || o.Version != 0 {
		t.Fatalf("new order: want=draft@0 got=%s@%d", o.State, o.Version)
	}
	if o.Totals.Subtotal != 2750 || o.Totals.Tax != 550 || o.Totals.Total != 3300 {
		t.Fatalf("totals: got=%+v", o.Totals)
	}
	if o.Currency != "GBP" || o.CreatedBy != "staff-1" {
		t.Fatalf("currency/creator: got=%s/%s", o.Currency, o.CreatedBy)
	}
	if got := f.pub.types(); len(got) != 1 || got[0] != realtime.EventOrderCreated {
		t.Fatalf("events: want=[order.created] got=%v", got)
	}
}

func TestCreateRejectsInvalidInputWithIssues(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.staff, f.tenantID, CreateInput{
		Currency:  "GBP",
		LineItems: []orders.LineItem{{SKU: "burger", Quantity: 0, UnitPrice: 1200}},
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("code: want=%s got=%s", domainagg.CodeValidation, domainagg.CodeOf(err))
	}
	issues := domainagg.IssuesOf(err)
	if len(issues) != 1 || issues[0].Field != "line_items[0].quantity" {
		t.Fatalf("issues: got=%+v", issues)
	}
}

func TestAuthorizationIsCheckedFirst(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)

	_, err := f.svc.Get(context.Background(), auth.Principal{}, f.tenantID, o.ID)
	if !domainagg.IsCode(err, domainagg.CodeAuth) {
		t.Fatalf("anonymous: want=%s got=%v", domainagg.CodeAuth, err)
	}
	outsider := auth.Principal{ID: "x", Role: auth.RoleOwner, Tenants: []uuid.UUID{uuid.New()}}
	_, err = f.svc.Apply(context.Background(), outsider, f.tenantID, o.ID, 0, orders.EventValidate)
	if !domainagg.IsCode(err, domainagg.CodeTenantMismatch) {
		t.Fatalf("outsider: want=%s got=%v", domainagg.CodeTenantMismatch, err)
	}
	admin := auth.Principal{ID: "root", Role: auth.RolePlatformAdmin}
	if _, err := f.svc.Get(context.Background(), admin, f.tenantID, o.ID); err != nil {
		t.Fatalf("admin Get: %v", err)
	}
}

func TestLifecycleEmitsEventsInOrder(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)
	ctx := context.Background()

	steps := []orders.Event{
		orders.EventValidate,
		orders.EventRequestPayment,
		orders.EventPaymentSucceeded,
		orders.EventStartPreparing,
		orders.EventMarkReady,
	}
	version := 0
	for _, ev := range steps {
		apply := f.svc.Transition
		if ev.SystemOnly() {
			apply = f.svc.ApplySystem
		}
		next, err := apply(ctx, f.staff, TransitionInput{TenantID: f.tenantID, OrderID: o.ID, ExpectedVersion: version, Event: ev})
		if err != nil {
			t.Fatalf("Apply %s: %v", ev, err)
		}
		version = next.Version
	}
	if version != len(steps) {
		t.Fatalf("version: want=%d got=%d", len(steps), version)
	}

	got := f.pub.types()
	want := []realtime.EventType{
		realtime.EventOrderCreated,
		realtime.EventOrderUpdated,
		realtime.EventOrderUpdated,
		realtime.EventOrderUpdated,
		realtime.EventOrderUpdated,
		realtime.EventOrderUpdated,
		realtime.EventKitchenOrderReady,
	}
	if len(got) != len(want) {
		t.Fatalf("events: want=%v got=%v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event[%d]: want=%s got=%s", i, want[i], got[i])
		}
	}
	if err := f.svc.Reconcile(ctx, f.staff, f.tenantID, o.ID); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	trs, err := f.svc.ListTransitions(ctx, f.staff, f.tenantID, o.ID)
	if err != nil {
		t.Fatalf("ListTransitions: %v", err)
	}
	if len(trs) != len(steps) || trs[len(trs)-1].ToState != orders.StateReady {
		t.Fatalf("transitions: got=%d last=%s", len(trs), trs[len(trs)-1].ToState)
	}
}

func TestValidateReportsCatalogDrift(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)
	f.cat.items["burger"] = catalog.Item{SKU: "burger", Price: 1300, Available: true}
	f.cat.items["fries"] = catalog.Item{SKU: "fries", Price: 350, Available: false}

	_, err := f.svc.Apply(context.Background(), f.staff, f.tenantID, o.ID, 0, orders.EventValidate)
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("code: want=%s got=%v", domainagg.CodeValidation, err)
	}
	if issues := domainagg.IssuesOf(err); len(issues) != 2 {
		t.Fatalf("issues: want=2 got=%+v", issues)
	}
	stored, err := f.svc.Get(context.Background(), f.staff, f.tenantID, o.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.State != orders.StateDraft || stored.LineItems[0].UnitPrice != 1200 {
		t.Fatalf("stored order changed: %+v", stored)
	}
}

func TestValidateCatalogOutageIsRetryable(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)
	f.cat.err = errors.New("catalog down")

	_, err := f.svc.Apply(context.Background(), f.staff, f.tenantID, o.ID, 0, orders.EventValidate)
	if !domainagg.Retryable(err) {
		t.Fatalf("want retryable got=%v", err)
	}
}

func TestInvalidTransitionLeavesOrderUnchanged(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)

	_, err := f.svc.Apply(context.Background(), f.staff, f.tenantID, o.ID, 0, orders.EventMarkReady)
	if !domainagg.IsCode(err, domainagg.CodeInvalidTransition) {
		t.Fatalf("code: want=%s got=%v", domainagg.CodeInvalidTransition, err)
	}
	stored, _ := f.svc.Get(context.Background(), f.staff, f.tenantID, o.ID)
	if stored.Version != 0 {
		t.Fatalf("version: want=0 got=%d", stored.Version)
	}
	if got := f.pub.types(); len(got) != 1 {
		t.Fatalf("events after rejected transition: got=%v", got)
	}
}

func TestClientCannotSubmitPaymentOutcomes(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)
	ctx := context.Background()
	for v, ev := range []orders.Event{orders.EventValidate, orders.EventRequestPayment} {
		if _, err := f.svc.Apply(ctx, f.staff, f.tenantID, o.ID, v, ev); err != nil {
			t.Fatalf("Apply %s: %v", ev, err)
		}
	}

	for _, ev := range []orders.Event{orders.EventPaymentSucceeded, orders.EventPaymentFailed, orders.EventFail} {
		_, err := f.svc.Apply(ctx, f.manager, f.tenantID, o.ID, 2, ev)
		if !domainagg.IsCode(err, domainagg.CodeForbidden) {
			t.Fatalf("%s: want=%s got=%v", ev, domainagg.CodeForbidden, err)
		}
	}
	stored, _ := f.svc.Get(ctx, f.staff, f.tenantID, o.ID)
	if stored.State != orders.StateAwaitingPayment || stored.Version != 2 {
		t.Fatalf("stored: want=awaiting_payment@2 got=%s@%d", stored.State, stored.Version)
	}
	trs, _ := f.svc.ListTransitions(ctx, f.staff, f.tenantID, o.ID)
	if len(trs) != 2 {
		t.Fatalf("transitions: want=2 got=%d", len(trs))
	}
}

func TestApplySystemRefusesClientEvents(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)

	_, err := f.svc.ApplySystem(context.Background(), f.staff, TransitionInput{
		TenantID: f.tenantID,
		OrderID:  o.ID,
		Event:    orders.EventValidate,
	})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("code: want=%s got=%v", domainagg.CodeValidation, err)
	}
}

func TestApplyWithRetryGivesUpOnTransientFailure(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)
	f.cat.err = errors.New("catalog down")

	_, err := f.svc.ApplyWithRetry(context.Background(), f.staff, TransitionInput{
		TenantID: f.tenantID,
		OrderID:  o.ID,
		Event:    orders.EventValidate,
	})
	if !domainagg.Retryable(err) {
		t.Fatalf("want retryable got=%v", err)
	}
	if got := f.cat.calls.Load(); got != 3 {
		t.Fatalf("catalog calls: want=3 got=%d", got)
	}
}

func TestCancelRequiresRoleOrCreator(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)
	other := auth.Principal{ID: "staff-2", Role: auth.RoleStaff, Tenants: []uuid.UUID{f.tenantID}}

	_, err := f.svc.Apply(context.Background(), other, f.tenantID, o.ID, 0, orders.EventCancel)
	if !domainagg.IsCode(err, domainagg.CodeForbidden) {
		t.Fatalf("other staff: want=%s got=%v", domainagg.CodeForbidden, err)
	}
	got, err := f.svc.Apply(context.Background(), f.manager, f.tenantID, o.ID, 0, orders.EventCancel)
	if err != nil {
		t.Fatalf("manager cancel: %v", err)
	}
	if got.State != orders.StateCancelled {
		t.Fatalf("state: want=%s got=%s", orders.StateCancelled, got.State)
	}

	o2 := f.create(t)
	if _, err := f.svc.Apply(context.Background(), f.staff, f.tenantID, o2.ID, 0, orders.EventCancel); err != nil {
		t.Fatalf("creator cancel: %v", err)
	}
}

func TestConcurrentApplyExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)

	const workers = 4
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Apply(context.Background(), f.staff, f.tenantID, o.ID, 0, orders.EventValidate)
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
	if wins != 1 || conflicts != workers-1 {
		t.Fatalf("outcomes: want=1 win got wins=%d conflicts=%d", wins, conflicts)
	}
	trs, _ := f.svc.ListTransitions(context.Background(), f.staff, f.tenantID, o.ID)
	if len(trs) != 1 {
		t.Fatalf("transitions: want=1 got=%d", len(trs))
	}
}

func TestApplyWithRetryDoesNotRetryConflicts(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)

	_, err := f.svc.ApplyWithRetry(context.Background(), f.staff, TransitionInput{
		TenantID:        f.tenantID,
		OrderID:         o.ID,
		ExpectedVersion: 3,
		Event:           orders.EventValidate,
	})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("code: want=%s got=%v", domainagg.CodeConflict, err)
	}
}

func TestGetForeignTenantIsNotFound(t *testing.T) {
	f := newFixture(t)
	o := f.create(t)
	other := uuid.New()
	admin := auth.Principal{ID: "root", Role: auth.RolePlatformAdmin}

	_, err := f.svc.Get(context.Background(), admin, other, o.ID)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("code: want=%s got=%v", domainagg.CodeNotFound, err)
	}
}
