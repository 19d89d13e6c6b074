package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/observability"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/ctxutil"
)

func TestAttachTraceContextKeepsTerminalIdentifiers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	r.GET("/api/tenants/:tenant_id/orders/:order_id", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/tenants/t-1/orders/o-1", nil)
	req.Header.Set(headerRequestID, "req-42")
	req.Header.Set(headerTerminalID, "till-3")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen == nil {
		t.Fatalf("trace data missing from request context")
	}
	if seen.RequestID != "req-42" || seen.TerminalID != "till-3" {
		t.Fatalf("trace data: want=(req-42,till-3) got=(%s,%s)", seen.RequestID, seen.TerminalID)
	}
	if seen.TraceID == "" || rec.Header().Get(headerTraceID) != seen.TraceID {
		t.Fatalf("trace id: header=%q ctx=%q", rec.Header().Get(headerTraceID), seen.TraceID)
	}
	if got := rec.Header().Get(headerRequestID); got != "req-42" {
		t.Fatalf("request id echo: want=req-42 got=%q", got)
	}
	if got := len(seen.LogFields()); got != 6 {
		t.Fatalf("log fields: want=6 got=%d", got)
	}
}

func TestAttachTraceContextGeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/healthcheck", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Header().Get(headerRequestID) == "" || rec.Header().Get(headerTraceID) == "" {
		t.Fatalf("ids must be generated when absent: %v", rec.Header())
	}
}

func TestMetricsSkipsNamedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.New()
	r := gin.New()
	r.Use(Metrics(m, "/metrics"))
	r.GET("/api/tenants/:tenant_id/orders/:order_id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/tenants/t-1/orders/o-1", nil))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `pos_http_requests_total{method="GET",route="/api/tenants/:tenant_id/orders/:order_id",status="200"} 1`) {
		t.Fatalf("order route not recorded:\n%s", body)
	}
	if strings.Contains(body, `route="/metrics"`) {
		t.Fatalf("skipped route was recorded")
	}
}
