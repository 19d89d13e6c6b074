package observability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

// Metrics owns a private registry; all methods are safe on a nil receiver so
// callers never branch on whether metrics are enabled.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	paymentAttempts *prometheus.CounterVec
	paymentAttemptS *prometheus.HistogramVec
	paymentFees     prometheus.Counter

	orderTransitions *prometheus.CounterVec
	aggregateOps     *prometheus.CounterVec
	aggregateLatency *prometheus.HistogramVec
	aggregateConflct *prometheus.CounterVec
	aggregateRetry   *prometheus.CounterVec

	realtimeConns     prometheus.Gauge
	realtimeEvictions *prometheus.CounterVec
	realtimeDropped   prometheus.Counter

	dbStats *prometheus.GaugeVec
	redisUp prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_http_requests_total",
			Help: "Total HTTP requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pos_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by method/route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		paymentAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_payment_attempts_total",
			Help: "Payment provider invocations by provider and outcome.",
		}, []string{"provider", "status"}),
		paymentAttemptS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pos_payment_attempt_duration_seconds",
			Help:    "Payment provider invocation latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"provider"}),
		paymentFees: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_payment_fee_minor_total",
			Help: "Fees charged on succeeded payments, in minor currency units.",
		}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_order_transitions_total",
			Help: "Committed order transitions by source and target state.",
		}, []string{"from", "to"}),
		aggregateOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_aggregate_operations_total",
			Help: "Aggregate write operations by name and status.",
		}, []string{"op", "status"}),
		aggregateLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pos_aggregate_operation_duration_seconds",
			Help:    "Aggregate write latency in seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op"}),
		aggregateConflct: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_aggregate_conflicts_total",
			Help: "Optimistic concurrency conflicts by aggregate operation.",
		}, []string{"op"}),
		aggregateRetry: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_aggregate_retries_total",
			Help: "Retryable aggregate failures by operation.",
		}, []string{"op"}),
		realtimeConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pos_realtime_connections",
			Help: "Live realtime connections across all tenants.",
		}),
		realtimeEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_realtime_evictions_total",
			Help: "Evicted realtime connections by reason.",
		}, []string{"reason"}),
		realtimeDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_realtime_bus_errors_total",
			Help: "Cross-instance bus publish or decode failures.",
		}),
		dbStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pos_db_pool",
			Help: "Database pool statistics.",
		}, []string{"stat"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pos_redis_up",
			Help: "1 when the last Redis ping succeeded.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpLatency,
		m.paymentAttempts,
		m.paymentAttemptS,
		m.paymentFees,
		m.orderTransitions,
		m.aggregateOps,
		m.aggregateLatency,
		m.aggregateConflct,
		m.aggregateRetry,
		m.realtimeConns,
		m.realtimeEvictions,
		m.realtimeDropped,
		m.dbStats,
		m.redisUp,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ObservePaymentAttempt(provider, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.paymentAttempts.WithLabelValues(provider, status).Inc()
	m.paymentAttemptS.WithLabelValues(provider).Observe(dur.Seconds())
}

func (m *Metrics) AddPaymentFee(minor int64) {
	if m == nil || minor <= 0 {
		return
	}
	m.paymentFees.Add(float64(minor))
}

func (m *Metrics) IncOrderTransition(from, to string) {
	if m == nil {
		return
	}
	m.orderTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.WithLabelValues(op, status).Inc()
	m.aggregateLatency.WithLabelValues(op).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggregateConflct.WithLabelValues(op).Inc()
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggregateRetry.WithLabelValues(op).Inc()
}

func (m *Metrics) SetRealtimeConnections(n int) {
	if m == nil {
		return
	}
	m.realtimeConns.Set(float64(n))
}

func (m *Metrics) IncRealtimeEviction(reason string) {
	if m == nil {
		return
	}
	m.realtimeEvictions.WithLabelValues(strings.TrimSpace(reason)).Inc()
}

func (m *Metrics) IncRealtimeBusError() {
	if m == nil {
		return
	}
	m.realtimeDropped.Inc()
}

func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.dbStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.dbStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.dbStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.dbStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
			}
		}
	}()
}
