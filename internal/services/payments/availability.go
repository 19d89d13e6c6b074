package payments

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	paymentrepos "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/data/repos/payments"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/dbctx"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

type availabilityKey struct {
	tenantID uuid.UUID
	provider string
}

// Availability holds per-(tenant, provider) health flags. Readers never lock;
// unknown pairs read as available until the first health check lands.
type Availability struct {
	flags sync.Map // availabilityKey -> *atomic.Bool
}

func NewAvailability() *Availability {
	return &Availability{}
}

func (a *Availability) IsAvailable(tenantID uuid.UUID, provider string) bool {
	v, ok := a.flags.Load(availabilityKey{tenantID, provider})
	if !ok {
		return true
	}
	return v.(*atomic.Bool).Load()
}

// set flips the flag with CompareAndSwap and reports whether it changed.
func (a *Availability) set(tenantID uuid.UUID, provider string, available bool) bool {
	fresh := &atomic.Bool{}
	fresh.Store(available)
	v, loaded := a.flags.LoadOrStore(availabilityKey{tenantID, provider}, fresh)
	if !loaded {
		return !available
	}
	return v.(*atomic.Bool).CompareAndSwap(!available, available)
}

type HealthCheckerConfig struct {
	Interval    time.Duration
	Timeout     time.Duration
	Concurrency int
}

// HealthChecker is the only writer of Availability.
type HealthChecker struct {
	log      *logger.Logger
	registry *Registry
	configs  paymentrepos.ProviderConfigRepo
	avail    *Availability
	cfg      HealthCheckerConfig
}

func NewHealthChecker(log *logger.Logger, registry *Registry, configs paymentrepos.ProviderConfigRepo, avail *Availability, cfg HealthCheckerConfig) *HealthChecker {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &HealthChecker{
		log:      log.With("service", "PaymentHealthChecker"),
		registry: registry,
		configs:  configs,
		avail:    avail,
		cfg:      cfg,
	}
}

// Start runs one check immediately and then on every interval until ctx ends.
func (h *HealthChecker) Start(ctx context.Context) {
	go func() {
		h.CheckOnce(ctx)
		ticker := time.NewTicker(h.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.CheckOnce(ctx)
			}
		}
	}()
}

// CheckOnce probes every configured provider once and applies the result to
// each tenant configured with it.
func (h *HealthChecker) CheckOnce(ctx context.Context) {
	cfgs, err := h.configs.ListAll(dbctx.Context{Ctx: ctx})
	if err != nil {
		h.log.Warn("Failed to list provider configs", "error", err)
		return
	}
	byName := map[string][]uuid.UUID{}
	for _, c := range cfgs {
		byName[c.Name] = append(byName[c.Name], c.TenantID)
	}

	var mu sync.Mutex
	healthy := make(map[string]bool, len(byName))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.Concurrency)
	for name := range byName {
		name := name
		g.Go(func() error {
			ok := h.probe(gctx, name)
			mu.Lock()
			healthy[name] = ok
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for name, tenants := range byName {
		for _, tenantID := range tenants {
			if h.avail.set(tenantID, name, healthy[name]) {
				h.log.Info("Provider availability changed", "provider", name, "tenant_id", tenantID, "available", healthy[name])
			}
		}
	}
}

func (h *HealthChecker) probe(ctx context.Context, name string) bool {
	p, ok := h.registry.Get(name)
	if !ok {
		h.log.Warn("No adapter registered for configured provider", "provider", name)
		return false
	}
	cctx, cancel := context.WithTimeout(ctx, h.cfg.Timeout)
	defer cancel()
	if err := p.HealthCheck(cctx); err != nil {
		h.log.Warn("Provider health check failed", "provider", name, "error", err)
		return false
	}
	return true
}
