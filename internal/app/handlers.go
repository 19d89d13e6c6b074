package app

import (
	httpH "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/http/handlers"
	httpMW "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/http/middleware"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

type Handlers struct {
	Orders   *httpH.OrderHandler
	Payments *httpH.PaymentHandler
	Realtime *httpH.RealtimeHandler
	Health   *httpH.HealthHandler

	// Auth guards every /api route; the websocket authenticates its own hello frame.
	Auth *httpMW.AuthMiddleware
}

func wireHandlers(log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Orders:   httpH.NewOrderHandler(services.Orders),
		Payments: httpH.NewPaymentHandler(services.Orders, services.PaymentRouter, services.Settlement),
		Realtime: httpH.NewRealtimeHandler(log, services.Hub, services.Auth, cfg.HTTP.AllowedOrigins),
		Health:   httpH.NewHealthHandler(services.Hub),
		Auth:     httpMW.NewAuthMiddleware(log, services.Auth),
	}
}
