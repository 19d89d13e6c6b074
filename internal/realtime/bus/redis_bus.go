package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	goredis "github.com/redis/go-redis/v9"

	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/observability"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/realtime"
)

type RedisBusConfig struct {
	Channel        string
	PublishRetries int
	RetryBackoff   time.Duration
	Metrics        *observability.Metrics
}

type redisBus struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	cfg     RedisBusConfig
	channel string
}

// NewRedisBus uses a single channel so one publisher's events stay ordered.
func NewRedisBus(log *logger.Logger, rdb goredis.UniversalClient, cfg RedisBusConfig) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = "pos-realtime"
	}
	if cfg.PublishRetries <= 0 {
		cfg.PublishRetries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 50 * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisBus{
		log:     log.With("service", "RedisRealtimeBus"),
		rdb:     rdb,
		cfg:     cfg,
		channel: ch,
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, ev realtime.Event) error {
	const op = "realtime.bus.publish"
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis realtime bus not initialized")
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = b.cfg.RetryBackoff
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, b.rdb.Publish(ctx, b.channel, raw).Err()
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(b.cfg.PublishRetries)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			b.log.Warn("redis publish failed", "retry_in", next, "error", err)
		}),
	)
	if err == nil {
		return nil
	}
	b.cfg.Metrics.IncRealtimeBusError()
	return domainagg.Wrap(domainagg.CodeRetryable, op, err)
}

func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(ev realtime.Event)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis realtime bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var ev realtime.Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.cfg.Metrics.IncRealtimeBusError()
					b.log.Warn("bad redis realtime payload", "error", err)
					continue
				}
				onMsg(ev)
			}
		}
	}()

	return nil
}

// Close is a no-op; the Redis client is owned and closed by the caller.
func (b *redisBus) Close() error {
	return nil
}
