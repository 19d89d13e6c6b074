package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	dataagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/aggregates"
	paymentrepos "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/repos/payments"
	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	paydomain "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/payments"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/observability"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

var tracer = otel.Tracer("github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/payments")

type ChargeRequest struct {
	TenantID        uuid.UUID `json:"tenant_id"`
	OrderID         uuid.UUID `json:"order_id"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	PreferredMethod string    `json:"preferred_method"`
	IdempotencyKey  string    `json:"idempotency_key"`
}

type PaymentResult struct {
	AttemptID      uuid.UUID `json:"attempt_id"`
	OrderID        uuid.UUID `json:"order_id"`
	Provider       string    `json:"provider"`
	TransactionRef string    `json:"transaction_ref"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	Fee            int64     `json:"fee"`
	NetAmount      int64     `json:"net_amount"`
}

type RefundRequest struct {
	TenantID       uuid.UUID `json:"tenant_id"`
	TransactionRef string    `json:"transaction_ref"`
	Amount         int64     `json:"amount"`
	IdempotencyKey string    `json:"idempotency_key"`
	Reason         string    `json:"reason,omitempty"`
}

type RefundResult struct {
	RefundID       uuid.UUID `json:"refund_id"`
	OrderID        uuid.UUID `json:"order_id"`
	Provider       string    `json:"provider"`
	TransactionRef string    `json:"transaction_ref"`
	RefundRef      string    `json:"refund_ref"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	Remaining      int64     `json:"remaining"`
}

type RouterConfig struct {
	AttemptTimeout        time.Duration
	MaxHops               int
	PlatformFeePercentage string
}

type RouterDeps struct {
	Log          *logger.Logger
	Registry     *Registry
	Availability *Availability
	Configs      paymentrepos.ProviderConfigRepo
	Settings     paymentrepos.TenantPaymentSettingsRepo
	Attempts     paymentrepos.PaymentAttemptRepo
	Refunds      paymentrepos.PaymentRefundRepo
	Cache        IdempotencyCache
	Metrics      *observability.Metrics
}

// Router charges through a tenant's providers in priority order with fallback.
type Router struct {
	log      *logger.Logger
	deps     RouterDeps
	cfg      RouterConfig
	flight   singleflight.Group
	refundMu sync.Map // tenant:transaction_ref -> *sync.Mutex
}

func NewRouter(deps RouterDeps, cfg RouterConfig) (*Router, error) {
	if deps.Log == nil || deps.Registry == nil || deps.Configs == nil || deps.Attempts == nil || deps.Refunds == nil {
		return nil, fmt.Errorf("payment router: missing dependency")
	}
	if deps.Availability == nil {
		deps.Availability = NewAvailability()
	}
	if deps.Cache == nil {
		deps.Cache = NewMemoryCache(0, 0)
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 10 * time.Second
	}
	if cfg.MaxHops <= 0 {
		cfg.MaxHops = 3
	}
	if !ValidPercent(cfg.PlatformFeePercentage) {
		return nil, fmt.Errorf("payment router: invalid platform fee percentage %q", cfg.PlatformFeePercentage)
	}
	return &Router{
		log:  deps.Log.With("service", "PaymentRouter"),
		deps: deps,
		cfg:  cfg,
	}, nil
}

func cacheKey(kind string, tenantID uuid.UUID, key string) string {
	return kind + ":" + tenantID.String() + ":" + key
}

func (req ChargeRequest) validate(op string) error {
	var issues []domainagg.Issue
	if req.TenantID == uuid.Nil {
		issues = append(issues, domainagg.Issue{Field: "tenant_id", Reason: "required"})
	}
	if req.OrderID == uuid.Nil {
		issues = append(issues, domainagg.Issue{Field: "order_id", Reason: "required"})
	}
	if req.Amount <= 0 {
		issues = append(issues, domainagg.Issue{Field: "amount", Reason: "must be positive"})
	}
	if len(strings.TrimSpace(req.Currency)) != 3 {
		issues = append(issues, domainagg.Issue{Field: "currency", Reason: "must be a 3-letter ISO code"})
	}
	if strings.TrimSpace(req.PreferredMethod) == "" {
		issues = append(issues, domainagg.Issue{Field: "preferred_method", Reason: "required"})
	}
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		issues = append(issues, domainagg.Issue{Field: "idempotency_key", Reason: "required"})
	}
	if len(issues) > 0 {
		return domainagg.NewValidationError(op, "charge request is invalid", issues)
	}
	return nil
}

// Charge settles req.Amount. A repeated key within a tenant returns the prior
// succeeded result without invoking any provider.
func (r *Router) Charge(ctx context.Context, req ChargeRequest) (PaymentResult, error) {
	const op = "payments.charge"
	if err := req.validate(op); err != nil {
		return PaymentResult{}, err
	}
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	key := cacheKey("charge", req.TenantID, req.IdempotencyKey)

	v, err, _ := r.flight.Do(key, func() (interface{}, error) {
		return r.chargeOnce(ctx, op, key, req)
	})
	if err != nil {
		return PaymentResult{}, err
	}
	res := v.(PaymentResult)
	if res.OrderID != req.OrderID {
		return PaymentResult{}, domainagg.NewError(domainagg.CodeValidation, op, "idempotency key already used for another order", nil)
	}
	return res, nil
}

func (r *Router) chargeOnce(ctx context.Context, op, key string, req ChargeRequest) (PaymentResult, error) {
	var cached PaymentResult
	if r.recall(ctx, key, &cached) {
		return cached, nil
	}
	prior, err := r.deps.Attempts.GetSucceededByIdempotencyKey(dbctx.Context{Ctx: ctx}, req.TenantID, req.IdempotencyKey)
	if err != nil {
		return PaymentResult{}, dataagg.Classify(op, err)
	}
	if prior != nil {
		res := resultFromAttempt(prior)
		r.remember(ctx, key, res)
		return res, nil
	}
	res, err := r.route(ctx, op, req)
	if err != nil {
		return PaymentResult{}, err
	}
	r.remember(ctx, key, res)
	return res, nil
}

type candidate struct {
	cfg      *paydomain.ProviderConfig
	provider Provider
	fee      Fee
}

// candidates returns the routable providers in priority order; supported
// counts configured providers for the method whether or not they are up.
func (r *Router) candidates(ctx context.Context, op string, req ChargeRequest) (out []candidate, supported int, err error) {
	cfgs, err := r.deps.Configs.ListByTenant(dbctx.Context{Ctx: ctx}, req.TenantID)
	if err != nil {
		return nil, 0, dataagg.Classify(op, err)
	}
	platformPct, err := r.platformFee(ctx, op, req.TenantID)
	if err != nil {
		return nil, 0, err
	}
	out = make([]candidate, 0, len(cfgs))
	for _, c := range cfgs {
		if !c.Supports(req.PreferredMethod) {
			continue
		}
		supported++
		if len(out) == r.cfg.MaxHops || !c.Available || !r.deps.Availability.IsAvailable(req.TenantID, c.Name) {
			continue
		}
		p, ok := r.deps.Registry.Get(c.Name)
		if !ok {
			r.log.Warn("Skipping provider without adapter", "provider", c.Name, "tenant_id", req.TenantID)
			continue
		}
		fee, err := ComputeFee(req.Amount, c.PercentageFee, c.FixedFee, platformPct)
		if err != nil {
			r.log.Warn("Skipping provider with invalid fee config", "provider", c.Name, "tenant_id", req.TenantID, "error", err)
			continue
		}
		out = append(out, candidate{cfg: c, provider: p, fee: fee})
	}
	return out, supported, nil
}

func (r *Router) platformFee(ctx context.Context, op string, tenantID uuid.UUID) (string, error) {
	if r.deps.Settings == nil {
		return r.cfg.PlatformFeePercentage, nil
	}
	s, err := r.deps.Settings.Get(dbctx.Context{Ctx: ctx}, tenantID)
	if err != nil {
		return "", dataagg.Classify(op, err)
	}
	if s == nil || strings.TrimSpace(s.PlatformFeePercentage) == "" {
		return r.cfg.PlatformFeePercentage, nil
	}
	if !ValidPercent(s.PlatformFeePercentage) {
		return "", domainagg.NewError(domainagg.CodeInternal, op, "tenant platform fee is not a valid percentage", nil)
	}
	return s.PlatformFeePercentage, nil
}

func (r *Router) route(ctx context.Context, op string, req ChargeRequest) (PaymentResult, error) {
	cands, supported, err := r.candidates(ctx, op, req)
	if err != nil {
		return PaymentResult{}, err
	}
	switch {
	case supported == 0:
		return PaymentResult{}, domainagg.NewValidationError(op, "no provider supports method", []domainagg.Issue{{
			Field:  "method",
			Reason: fmt.Sprintf("no provider for this tenant supports %q", req.PreferredMethod),
		}})
	case len(cands) == 0:
		return PaymentResult{}, domainagg.NewError(
			domainagg.CodeRetryable,
			op,
			fmt.Sprintf("no provider for method %s is currently available", req.PreferredMethod),
			nil,
		)
	}

	var lastErr error
	for i, c := range cands {
		hop := i + 1
		in := ChargeInput{
			Amount:         req.Amount,
			Currency:       req.Currency,
			Method:         req.PreferredMethod,
			IdempotencyKey: req.IdempotencyKey + ":" + c.cfg.Name,
		}
		start := time.Now()
		ref, callErr := r.call(ctx, "payments.charge_attempt", c.cfg.Name, hop, func(actx context.Context) (string, error) {
			return c.provider.Charge(actx, in)
		})
		outcome := Classify(callErr)
		r.deps.Metrics.ObservePaymentAttempt(c.cfg.Name, string(outcome), time.Since(start))

		attempt := &paydomain.PaymentAttempt{
			TenantID:       req.TenantID,
			OrderID:        req.OrderID,
			Hop:            hop,
			Provider:       c.cfg.Name,
			Method:         req.PreferredMethod,
			Amount:         req.Amount,
			Currency:       req.Currency,
			IdempotencyKey: req.IdempotencyKey,
		}

		if outcome == OutcomeSuccess {
			attempt.Status = paydomain.AttemptSucceeded
			attempt.TransactionRef = ref
			attempt.Fee = c.fee.Fee
			attempt.NetAmount = c.fee.NetAmount
			if _, err := r.deps.Attempts.Create(dbctx.Context{Ctx: ctx}, attempt); err != nil {
				mapped := dataagg.Classify(op, err)
				if domainagg.IsCode(mapped, domainagg.CodeConflict) {
					r.compensateDuplicate(ctx, c, attempt)
					return PaymentResult{}, domainagg.NewError(domainagg.CodeConflict, op, "order already has a succeeded payment", err)
				}
				r.log.Error("Payment captured but audit row failed", "provider", c.cfg.Name, "order_id", req.OrderID, "transaction_ref", ref, "error", err)
				return PaymentResult{}, mapped
			}
			r.deps.Metrics.AddPaymentFee(attempt.Fee)
			r.log.Info("Payment succeeded", "provider", c.cfg.Name, "order_id", req.OrderID, "hop", hop, "fee", attempt.Fee)
			return resultFromAttempt(attempt), nil
		}

		attempt.ErrorDetail = callErr.Error()
		if outcome == OutcomeTerminal {
			attempt.Status = paydomain.AttemptTerminalFailed
		} else {
			attempt.Status = paydomain.AttemptRetryableFailed
		}
		if _, err := r.deps.Attempts.Create(dbctx.Context{Ctx: ctx}, attempt); err != nil {
			return PaymentResult{}, dataagg.Classify(op, err)
		}
		r.log.Warn("Payment attempt failed", "provider", c.cfg.Name, "order_id", req.OrderID, "hop", hop, "outcome", outcome, "error", callErr)

		if outcome == OutcomeTerminal {
			return PaymentResult{}, domainagg.NewError(domainagg.CodePaymentRejected, op, callErr.Error(), callErr)
		}
		if ctx.Err() != nil {
			return PaymentResult{}, domainagg.Wrap(domainagg.CodeRetryable, op, ctx.Err())
		}
		lastErr = callErr
	}
	return PaymentResult{}, domainagg.NewError(
		domainagg.CodePaymentExhausted,
		op,
		fmt.Sprintf("all %d provider(s) failed, last: %v", len(cands), lastErr),
		lastErr,
	)
}

// compensateDuplicate voids a capture that lost the one-success-per-order race.
// The capture keeps its own audit row so the refund points at real money.
func (r *Router) compensateDuplicate(ctx context.Context, c candidate, lost *paydomain.PaymentAttempt) {
	dup := &paydomain.PaymentAttempt{
		TenantID:       lost.TenantID,
		OrderID:        lost.OrderID,
		Hop:            lost.Hop,
		Provider:       lost.Provider,
		Method:         lost.Method,
		Amount:         lost.Amount,
		Currency:       lost.Currency,
		Fee:            lost.Fee,
		NetAmount:      lost.NetAmount,
		Status:         paydomain.AttemptCapturedDuplicate,
		TransactionRef: lost.TransactionRef,
		IdempotencyKey: lost.IdempotencyKey,
		ErrorDetail:    "order already has a succeeded payment; capture refunded",
	}
	if _, err := r.deps.Attempts.Create(dbctx.Context{Ctx: ctx}, dup); err != nil {
		r.log.Error("Failed to record duplicate capture", "order_id", dup.OrderID, "transaction_ref", dup.TransactionRef, "error", err)
	}
	refundRef, err := r.call(ctx, "payments.refund_attempt", c.cfg.Name, dup.Hop, func(actx context.Context) (string, error) {
		return c.provider.Refund(actx, RefundInput{
			TransactionRef: dup.TransactionRef,
			Amount:         dup.Amount,
			Currency:       dup.Currency,
			IdempotencyKey: dup.IdempotencyKey + ":duplicate",
		})
	})
	row := &paydomain.PaymentRefund{
		TenantID:       dup.TenantID,
		OrderID:        dup.OrderID,
		AttemptID:      dup.ID,
		Provider:       c.cfg.Name,
		TransactionRef: dup.TransactionRef,
		RefundRef:      refundRef,
		Amount:         dup.Amount,
		Currency:       dup.Currency,
		Status:         paydomain.RefundSucceeded,
		Reason:         paydomain.RefundReasonCompensation,
		IdempotencyKey: dup.IdempotencyKey + ":duplicate",
	}
	if err != nil {
		row.Status = paydomain.RefundFailed
		row.ErrorDetail = err.Error()
		r.log.Error("Failed to refund duplicate capture", "order_id", dup.OrderID, "transaction_ref", dup.TransactionRef, "error", err)
	}
	if _, err := r.deps.Refunds.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		r.log.Error("Failed to record duplicate capture refund", "order_id", dup.OrderID, "transaction_ref", dup.TransactionRef, "error", err)
	}
}

// call runs fn on its own goroutine bounded by the attempt timeout. A timeout
// is reported as retryable; the late reply is discarded.
func (r *Router) call(ctx context.Context, span, provider string, hop int, fn func(context.Context) (string, error)) (string, error) {
	ctx, sp := tracer.Start(ctx, span, trace.WithAttributes(
		attribute.String("payment.provider", provider),
		attribute.Int("payment.hop", hop),
	))
	defer sp.End()

	actx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout)
	defer cancel()

	type reply struct {
		ref string
		err error
	}
	done := make(chan reply, 1)
	go func() {
		ref, err := fn(actx)
		done <- reply{ref: ref, err: err}
	}()

	var out reply
	select {
	case out = <-done:
	case <-actx.Done():
		out.err = Retryable("timeout", fmt.Sprintf("no response within %s: %v", r.cfg.AttemptTimeout, actx.Err()))
	}
	if out.err == nil && strings.TrimSpace(out.ref) == "" {
		out.err = Retryable("empty_reference", "provider returned no reference")
	}
	outcome := Classify(out.err)
	sp.SetAttributes(attribute.String("payment.outcome", string(outcome)))
	if out.err != nil {
		sp.SetStatus(codes.Error, out.err.Error())
		return "", out.err
	}
	return out.ref, nil
}

func (req RefundRequest) validate(op string) error {
	var issues []domainagg.Issue
	if req.TenantID == uuid.Nil {
		issues = append(issues, domainagg.Issue{Field: "tenant_id", Reason: "required"})
	}
	if strings.TrimSpace(req.TransactionRef) == "" {
		issues = append(issues, domainagg.Issue{Field: "transaction_ref", Reason: "required"})
	}
	if req.Amount <= 0 {
		issues = append(issues, domainagg.Issue{Field: "amount", Reason: "must be positive"})
	}
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		issues = append(issues, domainagg.Issue{Field: "idempotency_key", Reason: "required"})
	}
	if len(issues) > 0 {
		return domainagg.NewValidationError(op, "refund request is invalid", issues)
	}
	return nil
}

// Refund returns part or all of a succeeded charge through the provider that
// captured it.
func (r *Router) Refund(ctx context.Context, req RefundRequest) (RefundResult, error) {
	const op = "payments.refund"
	if err := req.validate(op); err != nil {
		return RefundResult{}, err
	}
	if strings.TrimSpace(req.Reason) == "" {
		req.Reason = paydomain.RefundReasonCustomer
	}
	key := cacheKey("refund", req.TenantID, req.IdempotencyKey)
	v, err, _ := r.flight.Do(key, func() (interface{}, error) {
		return r.refundOnce(ctx, op, key, req)
	})
	if err != nil {
		return RefundResult{}, err
	}
	res := v.(RefundResult)
	if res.TransactionRef != req.TransactionRef {
		return RefundResult{}, domainagg.NewError(domainagg.CodeValidation, op, "idempotency key already used for another transaction", nil)
	}
	return res, nil
}

func (r *Router) refundOnce(ctx context.Context, op, key string, req RefundRequest) (RefundResult, error) {
	var cached RefundResult
	if r.recall(ctx, key, &cached) {
		return cached, nil
	}
	dbc := dbctx.Context{Ctx: ctx}
	prior, err := r.deps.Refunds.GetSucceededByIdempotencyKey(dbc, req.TenantID, req.IdempotencyKey)
	if err != nil {
		return RefundResult{}, dataagg.Classify(op, err)
	}

	ref := req.TransactionRef
	if prior != nil {
		ref = prior.TransactionRef
	}
	attempt, err := r.deps.Attempts.GetSucceededByTransactionRef(dbc, req.TenantID, ref)
	if err != nil {
		return RefundResult{}, dataagg.Classify(op, err)
	}
	if attempt == nil {
		return RefundResult{}, domainagg.NewError(domainagg.CodeNotFound, op, "no succeeded payment with that transaction reference", nil)
	}

	lock := r.refundLock(req.TenantID, attempt.TransactionRef)
	lock.Lock()
	defer lock.Unlock()

	refunded, err := r.deps.Refunds.SumSucceededByAttempt(dbc, req.TenantID, attempt.ID)
	if err != nil {
		return RefundResult{}, dataagg.Classify(op, err)
	}
	if prior != nil {
		res := refundResult(prior, attempt.Amount-refunded)
		r.remember(ctx, key, res)
		return res, nil
	}
	remaining := attempt.Amount - refunded
	if req.Amount > remaining {
		return RefundResult{}, domainagg.NewValidationError(op, "refund exceeds remaining captured amount", []domainagg.Issue{{
			Field:  "amount",
			Reason: fmt.Sprintf("at most %d remains refundable", remaining),
		}})
	}

	p, ok := r.deps.Registry.Get(attempt.Provider)
	if !ok {
		return RefundResult{}, domainagg.NewError(domainagg.CodeInternal, op, fmt.Sprintf("no adapter registered for provider %s", attempt.Provider), nil)
	}
	start := time.Now()
	refundRef, callErr := r.call(ctx, "payments.refund_attempt", attempt.Provider, attempt.Hop, func(actx context.Context) (string, error) {
		return p.Refund(actx, RefundInput{
			TransactionRef: attempt.TransactionRef,
			Amount:         req.Amount,
			Currency:       attempt.Currency,
			IdempotencyKey: req.IdempotencyKey,
		})
	})
	r.deps.Metrics.ObservePaymentAttempt(attempt.Provider, "refund_"+string(Classify(callErr)), time.Since(start))

	row := &paydomain.PaymentRefund{
		TenantID:       req.TenantID,
		OrderID:        attempt.OrderID,
		AttemptID:      attempt.ID,
		Provider:       attempt.Provider,
		TransactionRef: attempt.TransactionRef,
		RefundRef:      refundRef,
		Amount:         req.Amount,
		Currency:       attempt.Currency,
		Status:         paydomain.RefundSucceeded,
		Reason:         req.Reason,
		IdempotencyKey: req.IdempotencyKey,
	}
	if callErr != nil {
		row.Status = paydomain.RefundFailed
		row.ErrorDetail = callErr.Error()
	}
	if _, err := r.deps.Refunds.Create(dbc, row); err != nil {
		r.log.Error("Failed to record refund", "transaction_ref", attempt.TransactionRef, "status", row.Status, "error", err)
		return RefundResult{}, dataagg.Classify(op, err)
	}
	if callErr != nil {
		r.log.Warn("Refund failed", "provider", attempt.Provider, "transaction_ref", attempt.TransactionRef, "error", callErr)
		if Classify(callErr) == OutcomeTerminal {
			return RefundResult{}, domainagg.NewError(domainagg.CodePaymentRejected, op, callErr.Error(), callErr)
		}
		return RefundResult{}, domainagg.NewError(domainagg.CodeRetryable, op, callErr.Error(), callErr)
	}

	res := refundResult(row, remaining-req.Amount)
	r.remember(ctx, key, res)
	r.log.Info("Refund succeeded", "provider", attempt.Provider, "transaction_ref", attempt.TransactionRef, "amount", req.Amount, "reason", req.Reason)
	return res, nil
}

// ListAttempts returns the audit trail of an order's provider invocations.
func (r *Router) ListAttempts(ctx context.Context, tenantID, orderID uuid.UUID) ([]*paydomain.PaymentAttempt, error) {
	rows, err := r.deps.Attempts.ListByOrder(dbctx.Context{Ctx: ctx}, tenantID, orderID)
	if err != nil {
		return nil, dataagg.Classify("payments.list_attempts", err)
	}
	return rows, nil
}

// SucceededAttempt returns the order's captured payment, or nil.
func (r *Router) SucceededAttempt(ctx context.Context, tenantID, orderID uuid.UUID) (*paydomain.PaymentAttempt, error) {
	row, err := r.deps.Attempts.GetSucceededByOrder(dbctx.Context{Ctx: ctx}, tenantID, orderID)
	if err != nil {
		return nil, dataagg.Classify("payments.succeeded_attempt", err)
	}
	return row, nil
}

func (r *Router) refundLock(tenantID uuid.UUID, ref string) *sync.Mutex {
	v, _ := r.refundMu.LoadOrStore(tenantID.String()+":"+ref, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (r *Router) recall(ctx context.Context, key string, out interface{}) bool {
	raw, ok, err := r.deps.Cache.Get(ctx, key)
	if err != nil {
		r.log.Warn("Idempotency cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		r.log.Warn("Idempotency cache entry undecodable", "key", key, "error", err)
		return false
	}
	return true
}

func (r *Router) remember(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.deps.Cache.Set(ctx, key, raw); err != nil {
		r.log.Warn("Idempotency cache write failed", "key", key, "error", err)
	}
}

func resultFromAttempt(a *paydomain.PaymentAttempt) PaymentResult {
	return PaymentResult{
		AttemptID:      a.ID,
		OrderID:        a.OrderID,
		Provider:       a.Provider,
		TransactionRef: a.TransactionRef,
		Amount:         a.Amount,
		Currency:       a.Currency,
		Fee:            a.Fee,
		NetAmount:      a.NetAmount,
	}
}

func refundResult(row *paydomain.PaymentRefund, remaining int64) RefundResult {
	return RefundResult{
		RefundID:       row.ID,
		OrderID:        row.OrderID,
		Provider:       row.Provider,
		TransactionRef: row.TransactionRef,
		RefundRef:      row.RefundRef,
		Amount:         row.Amount,
		Currency:       row.Currency,
		Remaining:      remaining,
	}
}
