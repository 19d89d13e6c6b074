package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/observability"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/realtime/bus"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/catalog"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/payments"
)

type Clients struct {
	Redis     goredis.UniversalClient
	Bus       bus.Bus
	Catalog   catalog.Catalog
	Providers *payments.Registry
}

func wireClients(log *logger.Logger, cfg Config, pf *ProvidersFile, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	if addr := strings.TrimSpace(cfg.Redis.Addr); addr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("redis ping: %w", err)
		}
		out.Redis = rdb

		b, err := bus.NewRedisBus(log, rdb, bus.RedisBusConfig{Channel: cfg.Redis.Channel, Metrics: metrics})
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init redis realtime bus: %w", err)
		}
		out.Bus = b
	}

	// Catalog
	cat, err := catalog.NewHTTPCatalog(log, cfg.Catalog.BaseURL, cfg.Catalog.Timeout)
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init catalog client: %w", err)
	}
	out.Catalog = cat

	// Payment providers
	reg, err := BuildRegistry(log, pf)
	if err != nil {
		out.Close()
		return Clients{}, fmt.Errorf("init payment providers: %w", err)
	}
	if len(reg.Names()) == 0 {
		log.Warn("No payment providers configured; charges will be exhausted")
	}
	out.Providers = reg
	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
