package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func preflight(t *testing.T, origins []string, origin string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(origins))
	r.POST("/api/tenants/:tenant_id/orders", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodOptions, "/api/tenants/t-1/orders", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCORSOrigins(t *testing.T) {
	cases := []struct {
		name    string
		origins []string
		origin  string
		allowed string
	}{
		{name: "dev default vite", origin: "http://localhost:5173", allowed: "http://localhost:5173"},
		{name: "dev default loopback", origin: "http://127.0.0.1:3000", allowed: "http://127.0.0.1:3000"},
		{name: "configured", origins: []string{"https://backoffice.example.com"}, origin: "https://backoffice.example.com", allowed: "https://backoffice.example.com"},
		{name: "configured rejects dev", origins: []string{"https://backoffice.example.com"}, origin: "http://localhost:5173"},
		{name: "wildcard", origins: []string{"*"}, origin: "https://anything.example.com", allowed: "*"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := preflight(t, tc.origins, tc.origin)
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.allowed {
				t.Fatalf("allow-origin: want=%q got=%q", tc.allowed, got)
			}
		})
	}
}

func TestCORSWildcardDropsCredentials(t *testing.T) {
	rec := preflight(t, []string{"*"}, "https://anything.example.com")
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("allow-credentials with wildcard: want empty got=%q", got)
	}
	rec = preflight(t, nil, "http://localhost:3000")
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("allow-credentials for dev origins: want=true got=%q", got)
	}
}
