package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/db"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/observability"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/payments"
)

type Config struct {
	LogMode string `env:"LOG_MODE" envDefault:"development"`

	HTTP          HTTPConfig
	DB            DBConfig
	Redis         RedisConfig
	Auth          AuthConfig
	Catalog       CatalogConfig
	Realtime      RealtimeConfig
	Payments      PaymentsConfig
	Orders        OrdersConfig
	Observability ObservabilityConfig
}

type HTTPConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

type DBConfig struct {
	Driver     string `env:"DB_DRIVER" envDefault:"postgres"`
	Host       string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port       string `env:"POSTGRES_PORT" envDefault:"5432"`
	User       string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password   string `env:"POSTGRES_PASSWORD"`
	Name       string `env:"POSTGRES_NAME" envDefault:"pos"`
	SSLMode    string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"file:pos.db?_busy_timeout=5000"`
}

func (c DBConfig) Postgres() db.PostgresConfig {
	return db.PostgresConfig{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Name:     c.Name,
		SSLMode:  c.SSLMode,
	}
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	Channel  string `env:"REDIS_CHANNEL" envDefault:"pos-realtime"`
}

type AuthConfig struct {
	JWTSecretKey string `env:"JWT_SECRET_KEY"`
	JWTIssuer    string `env:"JWT_ISSUER"`
}

type CatalogConfig struct {
	BaseURL string        `env:"CATALOG_BASE_URL"`
	Timeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"3s"`
}

type RealtimeConfig struct {
	HeartbeatInterval time.Duration `env:"REALTIME_HEARTBEAT_INTERVAL" envDefault:"15s"`
	QueueSize         int           `env:"REALTIME_QUEUE_SIZE" envDefault:"64"`
	SendTimeout       time.Duration `env:"REALTIME_SEND_TIMEOUT" envDefault:"5s"`
}

type PaymentsConfig struct {
	AttemptTimeout        time.Duration `env:"PAYMENT_ATTEMPT_TIMEOUT" envDefault:"10s"`
	MaxProviderHops       int           `env:"PAYMENT_MAX_PROVIDER_HOPS" envDefault:"3"`
	PlatformFeePercentage string        `env:"PAYMENT_PLATFORM_FEE_PERCENTAGE" envDefault:"0"`
	IdempotencyTTL        time.Duration `env:"PAYMENT_IDEMPOTENCY_TTL" envDefault:"24h"`
	IdempotencyBackend    string        `env:"PAYMENT_IDEMPOTENCY_BACKEND" envDefault:"memory"`
	IdempotencyMaxEntries int           `env:"PAYMENT_IDEMPOTENCY_MAX_ENTRIES" envDefault:"100000"`
	HealthCheckInterval   time.Duration `env:"PAYMENT_HEALTHCHECK_INTERVAL" envDefault:"30s"`
	HealthCheckTimeout    time.Duration `env:"PAYMENT_HEALTHCHECK_TIMEOUT" envDefault:"5s"`
	ProvidersFile         string        `env:"PAYMENT_PROVIDERS_FILE"`
}

type OrdersConfig struct {
	TaxBasisPoints int64 `env:"ORDER_TAX_BASIS_POINTS" envDefault:"2000"`
	RetryAttempts  int   `env:"ORDER_RETRY_ATTEMPTS" envDefault:"3"`
}

type ObservabilityConfig struct {
	MetricsEnabled bool    `env:"METRICS_ENABLED" envDefault:"true"`
	OtelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	ServiceName    string  `env:"OTEL_SERVICE_NAME" envDefault:"pos-core"`
	Environment    string  `env:"OTEL_ENVIRONMENT" envDefault:"development"`
	Version        string  `env:"OTEL_SERVICE_VERSION"`
	Endpoint       string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Headers        string  `env:"OTEL_EXPORTER_OTLP_HEADERS"`
	Insecure       bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"false"`
	SampleRatio    float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`
	StdoutPretty   bool    `env:"OTEL_STDOUT_PRETTY" envDefault:"false"`
}

func (c ObservabilityConfig) Tracing() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:      c.OtelEnabled,
		ServiceName:  c.ServiceName,
		Environment:  c.Environment,
		Version:      c.Version,
		Endpoint:     c.Endpoint,
		Headers:      observability.ParseHeaders(c.Headers),
		Insecure:     c.Insecure,
		SampleRatio:  c.SampleRatio,
		StdoutPretty: c.StdoutPretty,
	}
}

// LoadConfig reads the environment and rejects settings the services cannot
// start with.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.DB.Driver = strings.ToLower(strings.TrimSpace(c.DB.Driver))
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DB.Driver)
	}
	c.Payments.IdempotencyBackend = strings.ToLower(strings.TrimSpace(c.Payments.IdempotencyBackend))
	switch c.Payments.IdempotencyBackend {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return fmt.Errorf("PAYMENT_IDEMPOTENCY_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("PAYMENT_IDEMPOTENCY_BACKEND must be memory or redis, got %q", c.Payments.IdempotencyBackend)
	}
	if c.Payments.MaxProviderHops <= 0 {
		return fmt.Errorf("PAYMENT_MAX_PROVIDER_HOPS must be positive")
	}
	if !payments.ValidPercent(c.Payments.PlatformFeePercentage) {
		return fmt.Errorf("PAYMENT_PLATFORM_FEE_PERCENTAGE %q is not a valid percentage", c.Payments.PlatformFeePercentage)
	}
	if c.Realtime.HeartbeatInterval <= 0 {
		return fmt.Errorf("REALTIME_HEARTBEAT_INTERVAL must be positive")
	}
	if c.Orders.TaxBasisPoints < 0 {
		return fmt.Errorf("ORDER_TAX_BASIS_POINTS must not be negative")
	}
	return nil
}
