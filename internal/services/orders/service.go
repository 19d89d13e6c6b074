package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	dataagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/aggregates"
	orderrepos "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/repos/orders"
	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/auth"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/orders"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/observability"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/realtime"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/realtime/bus"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/catalog"
)

type CreateInput struct {
	LineItems []orders.LineItem `json:"line_items"`
	Currency  string            `json:"currency"`
}

// TransitionInput is one lifecycle command. Reason is recorded on the
// transition row.
type TransitionInput struct {
	TenantID        uuid.UUID
	OrderID         uuid.UUID
	ExpectedVersion int
	Event           orders.Event
	Reason          string
}

type Service interface {
	Create(ctx context.Context, actor auth.Principal, tenantID uuid.UUID, in CreateInput) (*orders.Order, error)
	Get(ctx context.Context, actor auth.Principal, tenantID, orderID uuid.UUID) (*orders.Order, error)
	ListTransitions(ctx context.Context, actor auth.Principal, tenantID, orderID uuid.UUID) ([]*orders.OrderTransition, error)
	Apply(ctx context.Context, actor auth.Principal, tenantID, orderID uuid.UUID, expectedVersion int, ev orders.Event) (*orders.Order, error)
	Transition(ctx context.Context, actor auth.Principal, in TransitionInput) (*orders.Order, error)
	ApplySystem(ctx context.Context, actor auth.Principal, in TransitionInput) (*orders.Order, error)
	ApplyWithRetry(ctx context.Context, actor auth.Principal, in TransitionInput) (*orders.Order, error)
	Reconcile(ctx context.Context, actor auth.Principal, tenantID, orderID uuid.UUID) error
}

type Config struct {
	TaxBasisPoints int64
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

type service struct {
	log         *logger.Logger
	orders      orderrepos.OrderRepo
	transitions orderrepos.OrderTransitionRepo
	aggregate   domainagg.OrderAggregate
	catalog     catalog.Catalog
	publisher   bus.Publisher
	metrics     *observability.Metrics
	cfg         Config
}

func NewService(
	log *logger.Logger,
	ordersRepo orderrepos.OrderRepo,
	transitions orderrepos.OrderTransitionRepo,
	aggregate domainagg.OrderAggregate,
	cat catalog.Catalog,
	publisher bus.Publisher,
	metrics *observability.Metrics,
	cfg Config,
) Service {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 50 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = time.Second
	}
	return &service{
		log:         log.With("service", "OrderService"),
		orders:      ordersRepo,
		transitions: transitions,
		aggregate:   aggregate,
		catalog:     cat,
		publisher:   publisher,
		metrics:     metrics,
		cfg:         cfg,
	}
}

func authorize(op string, actor auth.Principal, tenantID uuid.UUID) error {
	if !actor.Valid() {
		return domainagg.NewError(domainagg.CodeAuth, op, "principal is not authenticated", nil)
	}
	if !actor.EntitledTo(tenantID) {
		return domainagg.NewError(domainagg.CodeTenantMismatch, op, "principal is not entitled to tenant", nil)
	}
	return nil
}

func (s *service) Create(ctx context.Context, actor auth.Principal, tenantID uuid.UUID, in CreateInput) (*orders.Order, error) {
	const op = "order.create"
	if err := authorize(op, actor, tenantID); err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	var issues []domainagg.Issue
	if len(currency) != 3 {
		issues = append(issues, domainagg.Issue{Field: "currency", Reason: "must be a 3-letter ISO code"})
	}
	if len(in.LineItems) == 0 {
		issues = append(issues, domainagg.Issue{Field: "line_items", Reason: "at least one line item is required"})
	}
	for i, it := range in.LineItems {
		field := fmt.Sprintf("line_items[%d]", i)
		if strings.TrimSpace(it.SKU) == "" {
			issues = append(issues, domainagg.Issue{Field: field + ".sku", Reason: "required"})
		}
		if it.Quantity <= 0 {
			issues = append(issues, domainagg.Issue{Field: field + ".quantity", Reason: "must be positive"})
		}
		if it.UnitPrice < 0 {
			issues = append(issues, domainagg.Issue{Field: field + ".unit_price", Reason: "must not be negative"})
		}
	}
	if len(issues) > 0 {
		return nil, domainagg.NewValidationError(op, "order input is invalid", issues)
	}

	order := &orders.Order{
		TenantID:  tenantID,
		State:     orders.StateDraft,
		LineItems: in.LineItems,
		Totals:    orders.ComputeTotals(in.LineItems, s.cfg.TaxBasisPoints),
		Currency:  currency,
		Version:   0,
		CreatedBy: actor.ID,
	}
	created, err := s.orders.Create(dbctx.Context{Ctx: ctx}, order)
	if err != nil {
		return nil, dataagg.Classify(op, err)
	}
	s.publish(ctx, realtime.EventOrderCreated, created)
	return created, nil
}

func (s *service) Get(ctx context.Context, actor auth.Principal, tenantID, orderID uuid.UUID) (*orders.Order, error) {
	const op = "order.get"
	if err := authorize(op, actor, tenantID); err != nil {
		return nil, err
	}
	return s.load(ctx, op, tenantID, orderID)
}

func (s *service) load(ctx context.Context, op string, tenantID, orderID uuid.UUID) (*orders.Order, error) {
	o, err := s.orders.GetByID(dbctx.Context{Ctx: ctx}, tenantID, orderID)
	if err != nil {
		return nil, dataagg.Classify(op, err)
	}
	if o == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "order not found", nil)
	}
	return o, nil
}

func (s *service) ListTransitions(ctx context.Context, actor auth.Principal, tenantID, orderID uuid.UUID) ([]*orders.OrderTransition, error) {
	const op = "order.list_transitions"
	if err := authorize(op, actor, tenantID); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, op, tenantID, orderID); err != nil {
		return nil, err
	}
	out, err := s.transitions.ListByOrder(dbctx.Context{Ctx: ctx}, tenantID, orderID)
	if err != nil {
		return nil, dataagg.Classify(op, err)
	}
	return out, nil
}

func (s *service) Apply(ctx context.Context, actor auth.Principal, tenantID, orderID uuid.UUID, expectedVersion int, ev orders.Event) (*orders.Order, error) {
	return s.Transition(ctx, actor, TransitionInput{
		TenantID:        tenantID,
		OrderID:         orderID,
		ExpectedVersion: expectedVersion,
		Event:           ev,
	})
}

// Transition applies a client-submitted event. Payment outcomes and fail are
// refused here; they are committed through ApplySystem.
func (s *service) Transition(ctx context.Context, actor auth.Principal, in TransitionInput) (*orders.Order, error) {
	const op = "order.apply"
	if err := s.precheck(op, actor, in); err != nil {
		return nil, err
	}
	if in.Event.SystemOnly() {
		return nil, domainagg.NewError(domainagg.CodeForbidden, op, fmt.Sprintf("%s is committed by payment settlement, not by clients", in.Event), nil)
	}
	return s.commit(ctx, op, actor, in)
}

// ApplySystem commits payment_succeeded, payment_failed and fail. Callers are
// the settlement flow and internal failure handling.
func (s *service) ApplySystem(ctx context.Context, actor auth.Principal, in TransitionInput) (*orders.Order, error) {
	const op = "order.apply_system"
	if err := s.precheck(op, actor, in); err != nil {
		return nil, err
	}
	if !in.Event.SystemOnly() {
		return nil, domainagg.NewValidationError(op, "event is not a system event", []domainagg.Issue{{Field: "event", Reason: fmt.Sprintf("%q must be submitted through Transition", in.Event)}})
	}
	return s.commit(ctx, op, actor, in)
}

func (s *service) precheck(op string, actor auth.Principal, in TransitionInput) error {
	if err := authorize(op, actor, in.TenantID); err != nil {
		return err
	}
	if !in.Event.Valid() {
		return domainagg.NewValidationError(op, "unknown event", []domainagg.Issue{{Field: "event", Reason: fmt.Sprintf("%q is not a lifecycle event", in.Event)}})
	}
	return nil
}

func (s *service) commit(ctx context.Context, op string, actor auth.Principal, in TransitionInput) (*orders.Order, error) {
	switch in.Event {
	case orders.EventValidate:
		current, err := s.load(ctx, op, in.TenantID, in.OrderID)
		if err != nil {
			return nil, err
		}
		if current.State == orders.StateDraft && current.Version == in.ExpectedVersion {
			if err := s.revalidate(ctx, current); err != nil {
				return nil, err
			}
		}
	case orders.EventCancel:
		current, err := s.load(ctx, op, in.TenantID, in.OrderID)
		if err != nil {
			return nil, err
		}
		if !actor.CanCancelFor(current.CreatedBy) {
			return nil, domainagg.NewError(domainagg.CodeForbidden, op, "cancel requires manager or owner role, or the order creator", nil)
		}
	}

	res, err := s.aggregate.CommitTransition(ctx, domainagg.CommitTransitionInput{
		TenantID:        in.TenantID,
		OrderID:         in.OrderID,
		ExpectedVersion: in.ExpectedVersion,
		Event:           in.Event,
		Actor:           actor.ID,
		Reason:          in.Reason,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderTransition(string(res.Transition.FromState), string(res.Transition.ToState))
	s.log.Info("Order transitioned",
		"order_id", res.Order.ID,
		"tenant_id", res.Order.TenantID,
		"from", res.Transition.FromState,
		"to", res.Transition.ToState,
		"version", res.Order.Version,
	)

	order := res.Order
	s.publish(ctx, realtime.EventOrderUpdated, &order)
	switch order.State {
	case orders.StateReady:
		s.publish(ctx, realtime.EventKitchenOrderReady, &order)
	case orders.StateFailed:
		if in.Event == orders.EventPaymentFailed {
			s.publish(ctx, realtime.EventOrderPaymentFailed, &order)
		}
	}
	return &order, nil
}

// revalidate checks every line item against the catalog. Stored prices are
// never corrected; mismatches are reported back to the caller.
func (s *service) revalidate(ctx context.Context, o *orders.Order) error {
	const op = "order.validate"
	skus := make([]string, 0, len(o.LineItems))
	for _, it := range o.LineItems {
		skus = append(skus, it.SKU)
	}
	items, err := s.catalog.Lookup(ctx, o.TenantID, skus)
	if err != nil {
		if domainagg.CodeOf(err) == "" {
			return domainagg.Wrap(domainagg.CodeRetryable, op, err)
		}
		return err
	}
	var issues []domainagg.Issue
	for i, it := range o.LineItems {
		field := fmt.Sprintf("line_items[%d]", i)
		cur, ok := items[it.SKU]
		switch {
		case !ok:
			issues = append(issues, domainagg.Issue{Field: field, Reason: fmt.Sprintf("sku %s is not in the catalog", it.SKU)})
		case !cur.Available:
			issues = append(issues, domainagg.Issue{Field: field, Reason: fmt.Sprintf("sku %s is unavailable", it.SKU)})
		case cur.Price != it.UnitPrice:
			issues = append(issues, domainagg.Issue{Field: field, Reason: fmt.Sprintf("sku %s price %d differs from catalog price %d", it.SKU, it.UnitPrice, cur.Price)})
		}
	}
	if len(issues) > 0 {
		return domainagg.NewValidationError(op, "line items do not match the catalog", issues)
	}
	return nil
}

// ApplyWithRetry retries transient infrastructure failures with capped
// exponential backoff. Conflicts are returned immediately.
func (s *service) ApplyWithRetry(ctx context.Context, actor auth.Principal, in TransitionInput) (*orders.Order, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.RetryBaseDelay
	b.MaxInterval = s.cfg.RetryMaxDelay

	o, err := backoff.Retry(ctx, func() (*orders.Order, error) {
		o, err := s.Transition(ctx, actor, in)
		if err != nil && !domainagg.Retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return o, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(s.cfg.RetryAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.log.Warn("Retrying order transition", "order_id", in.OrderID, "event", in.Event, "delay", next, "error", err)
		}),
	)
	if err == nil {
		return o, nil
	}
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	if domainagg.CodeOf(err) == "" {
		return nil, domainagg.Wrap(domainagg.CodeRetryable, "order.apply", err)
	}
	return nil, err
}

// Reconcile replays the transition log and reports drift from the stored row.
func (s *service) Reconcile(ctx context.Context, actor auth.Principal, tenantID, orderID uuid.UUID) error {
	const op = "order.reconcile"
	trs, err := s.ListTransitions(ctx, actor, tenantID, orderID)
	if err != nil {
		return err
	}
	current, err := s.load(ctx, op, tenantID, orderID)
	if err != nil {
		return err
	}
	flat := make([]orders.OrderTransition, 0, len(trs))
	for _, tr := range trs {
		flat = append(flat, *tr)
	}
	state, version, err := orders.Replay(flat)
	if err != nil {
		return domainagg.NewError(domainagg.CodeInvariantViolation, op, err.Error(), err)
	}
	if state != current.State || version != current.Version {
		return domainagg.NewError(
			domainagg.CodeInvariantViolation,
			op,
			fmt.Sprintf("replay reached %s@%d, stored %s@%d", state, version, current.State, current.Version),
			nil,
		)
	}
	return nil
}

func (s *service) publish(ctx context.Context, typ realtime.EventType, o *orders.Order) {
	if s.publisher == nil || o == nil {
		return
	}
	ev := realtime.Event{
		Type:      typ,
		TenantID:  o.TenantID,
		OrderID:   o.ID,
		NewState:  string(o.State),
		Version:   o.Version,
		Timestamp: o.UpdatedAt,
	}
	if err := s.publisher.Publish(ctx, o.TenantID, ev); err != nil {
		s.log.Warn("Failed to publish order event", "order_id", o.ID, "event", typ, "error", err)
	}
}
