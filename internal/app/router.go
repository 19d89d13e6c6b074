package app

import (
	"github.com/gin-gonic/gin"

	server "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/http"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/observability"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

func wireRouterConfig(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) server.RouterConfig {
	log.Info("Wiring router...")
	serviceName := ""
	if cfg.Observability.OtelEnabled {
		serviceName = cfg.Observability.ServiceName
	}
	if cfg.LogMode == "production" || cfg.LogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	return server.RouterConfig{
		Log:             log,
		ServiceName:     serviceName,
		AllowedOrigins:  cfg.HTTP.AllowedOrigins,
		Metrics:         metrics,
		AuthMiddleware:  handlers.Auth,
		OrderHandler:    handlers.Orders,
		PaymentHandler:  handlers.Payments,
		RealtimeHandler: handlers.Realtime,
		HealthHandler:   handlers.Health,
	}
}
