package aggregates

import (
	"time"

	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/observability"
)

// WriteOutcome describes one finished aggregate write. Code is empty on success.
type WriteOutcome struct {
	Op       string
	Code     domainagg.ErrorCode
	Duration time.Duration
}

func (o WriteOutcome) Status() string {
	if o.Code == "" {
		return "success"
	}
	return string(o.Code)
}

func (o WriteOutcome) Conflict() bool  { return o.Code == domainagg.CodeConflict }
func (o WriteOutcome) Retryable() bool { return o.Code == domainagg.CodeRetryable }

// Hooks receives every write outcome.
type Hooks interface {
	RecordWrite(WriteOutcome)
}

type noopHooks struct{}

func (noopHooks) RecordWrite(WriteOutcome) {}

type metricsHooks struct {
	metrics *observability.Metrics
}

// NewObservabilityHooks reports write outcomes to Prometheus.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return metricsHooks{metrics: metrics}
}

func (h metricsHooks) RecordWrite(o WriteOutcome) {
	h.metrics.ObserveAggregateOperation(o.Op, o.Status(), o.Duration)
	switch {
	case o.Conflict():
		h.metrics.IncAggregateConflict(o.Op)
	case o.Retryable():
		h.metrics.IncAggregateRetry(o.Op)
	}
}
