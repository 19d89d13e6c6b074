package payments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Outcome is the normalized three-way classification of a provider call.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeRetryable Outcome = "retryable"
	OutcomeTerminal  Outcome = "terminal"
)

type ChargeInput struct {
	Amount         int64
	Currency       string
	Method         string
	IdempotencyKey string
}

type RefundInput struct {
	TransactionRef string
	Amount         int64
	Currency       string
	IdempotencyKey string
}

// Provider is the capability set every payment processor adapter offers.
// Charge and Refund return a *ProviderError to classify failures; any other
// error is treated as retryable.
type Provider interface {
	Name() string
	Charge(ctx context.Context, in ChargeInput) (transactionRef string, err error)
	Refund(ctx context.Context, in RefundInput) (refundRef string, err error)
	HealthCheck(ctx context.Context) error
}

// ProviderError carries the provider's own failure detail with its class.
type ProviderError struct {
	Outcome Outcome
	Code    string
	Detail  string
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Outcome, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Outcome, e.Detail)
}

func Retryable(code, detail string) error {
	return &ProviderError{Outcome: OutcomeRetryable, Code: code, Detail: detail}
}

func Terminal(code, detail string) error {
	return &ProviderError{Outcome: OutcomeTerminal, Code: code, Detail: detail}
}

// Classify maps a provider error to its outcome. Timeouts, cancellations and
// unclassified errors are retryable.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Outcome == OutcomeTerminal {
		return OutcomeTerminal
	}
	return OutcomeRetryable
}

// Registry resolves provider adapters by configured name.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: map[string]Provider{}}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

func (r *Registry) Register(p Provider) {
	if p == nil {
		return
	}
	name := strings.TrimSpace(p.Name())
	if name == "" {
		return
	}
	r.mu.Lock()
	r.providers[name] = p
	r.mu.Unlock()
}

func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[strings.TrimSpace(name)]
	return p, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
