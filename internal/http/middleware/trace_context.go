package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/ctxutil"
)

const (
	headerTraceID    = "X-Trace-Id"
	headerRequestID  = "X-Request-Id"
	headerTerminalID = "X-Terminal-Id"
)

// AttachTraceContext stamps every request with trace and request ids, echoes
// them back to the terminal and tags the active span with them. An active
// OpenTelemetry span wins over a caller-supplied trace id so logs and traces
// line up.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span := trace.SpanFromContext(ctx)

		td := &ctxutil.TraceData{
			TraceID:    headerOr(c, headerTraceID, ""),
			RequestID:  headerOr(c, headerRequestID, uuid.NewString()),
			TerminalID: headerOr(c, headerTerminalID, ""),
		}
		if sc := span.SpanContext(); sc.HasTraceID() {
			td.TraceID = sc.TraceID().String()
		}
		if td.TraceID == "" {
			td.TraceID = uuid.NewString()
		}

		attrs := []attribute.KeyValue{attribute.String("pos.request_id", td.RequestID)}
		if td.TerminalID != "" {
			attrs = append(attrs, attribute.String("pos.terminal_id", td.TerminalID))
		}
		if tenant := c.Param("tenant_id"); tenant != "" {
			attrs = append(attrs, attribute.String("pos.tenant_id", tenant))
		}
		span.SetAttributes(attrs...)

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(ctx, td))
		c.Set("trace_id", td.TraceID)
		c.Set("request_id", td.RequestID)
		c.Header(headerTraceID, td.TraceID)
		c.Header(headerRequestID, td.RequestID)
		c.Next()
	}
}

func headerOr(c *gin.Context, name, fallback string) string {
	if v := strings.TrimSpace(c.GetHeader(name)); v != "" {
		return v
	}
	return fallback
}
