package app

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DB.Driver != "postgres" {
		t.Fatalf("driver: want=postgres got=%q", cfg.DB.Driver)
	}
	if cfg.HTTP.Port != "8080" {
		t.Fatalf("port: want=8080 got=%q", cfg.HTTP.Port)
	}
	if cfg.Payments.AttemptTimeout != 10*time.Second || cfg.Payments.MaxProviderHops != 3 {
		t.Fatalf("payments defaults: got=%+v", cfg.Payments)
	}
	if cfg.Realtime.HeartbeatInterval != 15*time.Second {
		t.Fatalf("heartbeat: want=15s got=%s", cfg.Realtime.HeartbeatInterval)
	}
	if cfg.Payments.IdempotencyBackend != "memory" {
		t.Fatalf("idempotency backend: want=memory got=%q", cfg.Payments.IdempotencyBackend)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://pos.example.com,https://admin.example.com")
	t.Setenv("PAYMENT_PLATFORM_FEE_PERCENTAGE", "0.5")
	t.Setenv("REALTIME_HEARTBEAT_INTERVAL", "5s")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DB.Driver != "sqlite" {
		t.Fatalf("driver: want=sqlite got=%q", cfg.DB.Driver)
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 || cfg.HTTP.AllowedOrigins[1] != "https://admin.example.com" {
		t.Fatalf("origins: got=%v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.Payments.PlatformFeePercentage != "0.5" {
		t.Fatalf("platform fee: want=0.5 got=%q", cfg.Payments.PlatformFeePercentage)
	}
	if cfg.Realtime.HeartbeatInterval != 5*time.Second {
		t.Fatalf("heartbeat: want=5s got=%s", cfg.Realtime.HeartbeatInterval)
	}
}

func TestLoadConfigRejectsInvalidSettings(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"driver", "DB_DRIVER", "mysql"},
		{"redis idempotency without addr", "PAYMENT_IDEMPOTENCY_BACKEND", "redis"},
		{"negative platform fee", "PAYMENT_PLATFORM_FEE_PERCENTAGE", "-1"},
		{"zero hops", "PAYMENT_MAX_PROVIDER_HOPS", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("REDIS_ADDR", "")
			t.Setenv(tc.key, tc.val)
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("%s=%s: want error", tc.key, tc.val)
			}
		})
	}
}
