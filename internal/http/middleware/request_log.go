package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/ctxutil"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

// Requests slower than this are logged at warn even when they succeed.
const slowRequest = 2 * time.Second

// RequestLogger writes one line per request once the handler chain returns.
// Idempotency keys are passed through the logger, which digests them.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		ctx := c.Request.Context()

		kv := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		}
		kv = append(kv, ctxutil.GetTraceData(ctx).LogFields()...)
		if tenant := c.Param("tenant_id"); tenant != "" {
			kv = append(kv, "tenant_id", tenant)
		}
		if order := c.Param("order_id"); order != "" {
			kv = append(kv, "order_id", order)
		}
		if key := c.GetHeader("Idempotency-Key"); key != "" {
			kv = append(kv, "idempotency_key", key)
		}
		if p, ok := ctxutil.GetPrincipal(ctx); ok {
			kv = append(kv, "principal_id", p.ID, "role", string(p.Role))
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("Request failed", kv...)
		case status >= 400:
			log.Warn("Request rejected", kv...)
		case elapsed > slowRequest:
			log.Warn("Slow request", kv...)
		default:
			log.Info("Request served", kv...)
		}
	}
}
