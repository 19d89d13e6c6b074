package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/observability"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/realtime"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/realtime/bus"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/auth"
	ordersvc "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/orders"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/payments"
)

type Services struct {
	Auth          *auth.JWTAuthenticator
	Hub           *realtime.Hub
	Broadcaster   *bus.Broadcaster
	Orders        ordersvc.Service
	Availability  *payments.Availability
	HealthChecker *payments.HealthChecker
	PaymentRouter *payments.Router
	Settlement    *payments.Settlement
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	authenticator, err := auth.NewJWTAuthenticator(log, cfg.Auth.JWTSecretKey, cfg.Auth.JWTIssuer)
	if err != nil {
		return Services{}, fmt.Errorf("init authenticator: %w", err)
	}

	hub := realtime.NewHub(log, realtime.Options{
		HeartbeatInterval: cfg.Realtime.HeartbeatInterval,
		QueueSize:         cfg.Realtime.QueueSize,
		SendTimeout:       cfg.Realtime.SendTimeout,
		Metrics:           metrics,
	})
	broadcaster := bus.NewBroadcaster(hub, c.Bus)

	orderAgg := aggregates.NewOrderAggregate(aggregates.OrderAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: aggregates.NewObservabilityHooks(metrics),
		},
		Orders:      r.Orders,
		Transitions: r.OrderTransitions,
	})
	orderService := ordersvc.NewService(log, r.Orders, r.OrderTransitions, orderAgg, c.Catalog, broadcaster, metrics, ordersvc.Config{
		TaxBasisPoints: cfg.Orders.TaxBasisPoints,
		RetryAttempts:  cfg.Orders.RetryAttempts,
	})

	var cache payments.IdempotencyCache
	switch cfg.Payments.IdempotencyBackend {
	case "redis":
		cache, err = payments.NewRedisCache(c.Redis, cfg.Payments.IdempotencyTTL, "")
		if err != nil {
			return Services{}, fmt.Errorf("init idempotency cache: %w", err)
		}
	default:
		cache = payments.NewMemoryCache(cfg.Payments.IdempotencyTTL, cfg.Payments.IdempotencyMaxEntries)
	}

	avail := payments.NewAvailability()
	router, err := payments.NewRouter(payments.RouterDeps{
		Log:          log,
		Registry:     c.Providers,
		Availability: avail,
		Configs:      r.ProviderConfigs,
		Settings:     r.TenantPaymentSettings,
		Attempts:     r.PaymentAttempts,
		Refunds:      r.PaymentRefunds,
		Cache:        cache,
		Metrics:      metrics,
	}, payments.RouterConfig{
		AttemptTimeout:        cfg.Payments.AttemptTimeout,
		MaxHops:               cfg.Payments.MaxProviderHops,
		PlatformFeePercentage: cfg.Payments.PlatformFeePercentage,
	})
	if err != nil {
		return Services{}, err
	}
	checker := payments.NewHealthChecker(log, c.Providers, r.ProviderConfigs, avail, payments.HealthCheckerConfig{
		Interval: cfg.Payments.HealthCheckInterval,
		Timeout:  cfg.Payments.HealthCheckTimeout,
	})

	return Services{
		Auth:          authenticator,
		Hub:           hub,
		Broadcaster:   broadcaster,
		Orders:        orderService,
		Availability:  avail,
		HealthChecker: checker,
		PaymentRouter: router,
		Settlement:    payments.NewSettlement(log, orderService, router),
	}, nil
}
