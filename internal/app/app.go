package app

import (
	"context"
	"fmt"
	"net"

	"gorm.io/gorm"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/db"
	server "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/http"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/observability"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *server.Server
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// OpenDB connects to the configured driver without migrating.
func OpenDB(cfg Config, log *logger.Logger) (*gorm.DB, error) {
	switch cfg.DB.Driver {
	case "sqlite":
		s, err := db.NewSQLiteService(cfg.DB.SQLitePath, log)
		if err != nil {
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
		return s.DB(), nil
	default:
		pg, err := db.NewPostgresService(cfg.DB.Postgres(), log)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		return pg.DB(), nil
	}
}

func New(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	otelShutdown, err := observability.StartTracing(ctx, log, cfg.Observability.Tracing())
	if err != nil {
		log.Warn("Tracing disabled", "error", err)
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.New()
	}

	theDB, err := OpenDB(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	pf, err := LoadProvidersFile(cfg.Payments.ProvidersFile)
	if err != nil {
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	clientset, err := wireClients(log, cfg, pf, metrics)
	if err != nil {
		return nil, err
	}
	serviceset, err := wireServices(theDB, log, cfg, reposet, clientset, metrics)
	if err != nil {
		clientset.Close()
		return nil, err
	}
	handlerset := wireHandlers(log, cfg, serviceset)
	srv := server.NewServer(wireRouterConfig(log, cfg, handlerset, metrics))

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       srv,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clientset,
		Services:     serviceset,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches background loops: heartbeat sweeping, the cross-instance
// forwarder, provider health probing and metrics collectors.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.Services.Hub.StartSweeper(ctx)
	if err := a.Services.Broadcaster.Start(ctx); err != nil {
		cancel()
		a.cancel = nil
		return fmt.Errorf("start realtime forwarder: %w", err)
	}
	a.Services.HealthChecker.Start(ctx)
	a.Metrics.StartDBCollector(ctx, a.Log, a.DB, 0)
	if a.Clients.Redis != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis, 0)
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := net.JoinHostPort("", a.Cfg.HTTP.Port)
	a.Log.Info("HTTP server listening", "addr", addr)
	return a.Server.Run(ctx, addr, a.Cfg.HTTP.ShutdownTimeout)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.Hub != nil {
		a.Services.Hub.Close()
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
