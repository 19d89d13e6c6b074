package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/http/handlers"
	httpMW "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/http/middleware"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/observability"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics

	AuthMiddleware  *httpMW.AuthMiddleware
	OrderHandler    *httpH.OrderHandler
	PaymentHandler  *httpH.PaymentHandler
	RealtimeHandler *httpH.RealtimeHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics, "/ws", "/metrics"))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Realtime authenticates inside the socket via the hello frame.
	if cfg.RealtimeHandler != nil {
		r.GET("/ws", cfg.RealtimeHandler.Connect)
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	tenant := api.Group("/tenants/:tenant_id")
	{
		// Orders
		if cfg.OrderHandler != nil {
			tenant.POST("/orders", cfg.OrderHandler.Create)
			tenant.GET("/orders/:order_id", cfg.OrderHandler.Get)
			tenant.GET("/orders/:order_id/transitions", cfg.OrderHandler.ListTransitions)
			tenant.POST("/orders/:order_id/events", cfg.OrderHandler.ApplyEvent)
		}

		// Payments
		if cfg.PaymentHandler != nil {
			tenant.POST("/orders/:order_id/charge", cfg.PaymentHandler.Charge)
			tenant.GET("/orders/:order_id/payments", cfg.PaymentHandler.ListAttempts)
			tenant.POST("/refunds", cfg.PaymentHandler.Refund)
		}
	}

	return r
}
