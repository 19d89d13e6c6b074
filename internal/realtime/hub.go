package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/auth"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/observability"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

const (
	EvictQueueFull        = "queue_full"
	EvictSendError        = "send_error"
	EvictHeartbeatTimeout = "heartbeat_timeout"
	EvictUnregistered     = "unregistered"
	EvictShutdown         = "shutdown"
)

type Options struct {
	HeartbeatInterval time.Duration
	QueueSize         int
	SendTimeout       time.Duration
	Now               func() time.Time
	Metrics           *observability.Metrics
}

func (o Options) withDefaults() Options {
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 15 * time.Second
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = 5 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Hub is the connection registry and per-tenant broadcaster.
//
// Each tenant has its own connection set and mutex; there is no lock spanning
// tenants. Every connection owns a bounded queue drained by one sender
// goroutine, so a slow or broken consumer only ever affects itself.
type Hub struct {
	log  *logger.Logger
	opts Options

	tenants sync.Map // uuid.UUID -> *tenantSet
	conns   sync.Map // uuid.UUID -> *Connection
	count   atomic.Int64
}

type tenantSet struct {
	mu    sync.Mutex
	conns map[uuid.UUID]*Connection
}

func NewHub(log *logger.Logger, opts Options) *Hub {
	return &Hub{
		log:  log.With("component", "RealtimeHub"),
		opts: opts.withDefaults(),
	}
}

func (h *Hub) HeartbeatInterval() time.Duration {
	return h.opts.HeartbeatInterval
}

func (h *Hub) tenantSetFor(tenantID uuid.UUID) *tenantSet {
	if v, ok := h.tenants.Load(tenantID); ok {
		return v.(*tenantSet)
	}
	v, _ := h.tenants.LoadOrStore(tenantID, &tenantSet{conns: make(map[uuid.UUID]*Connection)})
	return v.(*tenantSet)
}

// Register admits a connection for tenantID after checking the principal's
// entitlement, and starts its sender.
func (h *Hub) Register(ctx context.Context, tenantID uuid.UUID, principal auth.Principal, transport Transport) (uuid.UUID, error) {
	const op = "realtime.register"
	if !principal.Valid() {
		return uuid.Nil, domainagg.NewError(domainagg.CodeAuth, op, "principal is not authenticated", nil)
	}
	if !principal.EntitledTo(tenantID) {
		return uuid.Nil, domainagg.NewError(domainagg.CodeTenantMismatch, op, "principal is not entitled to tenant", nil)
	}
	if transport == nil {
		return uuid.Nil, domainagg.NewError(domainagg.CodeValidation, op, "transport is required", nil)
	}
	if ctx != nil && ctx.Err() != nil {
		return uuid.Nil, domainagg.Wrap(domainagg.CodeRetryable, op, ctx.Err())
	}

	now := h.opts.Now()
	c := &Connection{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Principal: principal,
		JoinedAt:  now,
		queue:     make(chan Frame, h.opts.QueueSize),
		transport: transport,
		done:      make(chan struct{}),
	}
	c.log = h.log.With("connection_id", c.ID, "tenant_id", tenantID)
	c.touch(now)

	set := h.tenantSetFor(tenantID)
	set.mu.Lock()
	set.conns[c.ID] = c
	set.mu.Unlock()
	h.conns.Store(c.ID, c)
	h.opts.Metrics.SetRealtimeConnections(int(h.count.Add(1)))

	go h.runSender(c)
	c.log.Debug("Realtime connection registered", "principal_id", principal.ID)
	return c.ID, nil
}

// Heartbeat resets the connection's liveness deadline.
func (h *Hub) Heartbeat(connectionID uuid.UUID) error {
	v, ok := h.conns.Load(connectionID)
	if !ok {
		return domainagg.NewError(domainagg.CodeNotFound, "realtime.heartbeat", "connection not registered", nil)
	}
	v.(*Connection).touch(h.opts.Now())
	return nil
}

// Publish enqueues ev to every live connection of tenantID without blocking.
// Connections whose queue is full are evicted.
func (h *Hub) Publish(ctx context.Context, tenantID uuid.UUID, ev Event) error {
	v, ok := h.tenants.Load(tenantID)
	if !ok {
		return nil
	}
	set := v.(*tenantSet)
	ev.TenantID = tenantID
	frame := Frame{Type: FrameEvent, Event: &ev}

	var overflow []*Connection
	set.mu.Lock()
	for _, c := range set.conns {
		select {
		case c.queue <- frame:
		default:
			overflow = append(overflow, c)
		}
	}
	set.mu.Unlock()

	for _, c := range overflow {
		h.evict(c, EvictQueueFull)
	}
	return nil
}

// Unregister is idempotent.
func (h *Hub) Unregister(connectionID uuid.UUID) {
	if v, ok := h.conns.Load(connectionID); ok {
		h.evict(v.(*Connection), EvictUnregistered)
	}
}

// Sweep evicts connections that missed two consecutive heartbeat intervals
// and returns how many were evicted.
func (h *Hub) Sweep() int {
	cutoff := h.opts.Now().Add(-2 * h.opts.HeartbeatInterval)
	var stale []*Connection
	h.conns.Range(func(_, v any) bool {
		c := v.(*Connection)
		if c.LastHeartbeat().Before(cutoff) {
			stale = append(stale, c)
		}
		return true
	})
	for _, c := range stale {
		h.evict(c, EvictHeartbeatTimeout)
	}
	return len(stale)
}

// StartSweeper runs Sweep every half heartbeat interval until ctx is done.
func (h *Hub) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(h.opts.HeartbeatInterval / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := h.Sweep(); n > 0 {
					h.log.Info("Evicted stale realtime connections", "count", n)
				}
			}
		}
	}()
}

// Stats returns the live connection count per tenant.
func (h *Hub) Stats() map[uuid.UUID]int {
	out := map[uuid.UUID]int{}
	h.tenants.Range(func(k, v any) bool {
		set := v.(*tenantSet)
		set.mu.Lock()
		n := len(set.conns)
		set.mu.Unlock()
		if n > 0 {
			out[k.(uuid.UUID)] = n
		}
		return true
	})
	return out
}

// Close tears down every connection.
func (h *Hub) Close() {
	h.conns.Range(func(_, v any) bool {
		h.evict(v.(*Connection), EvictShutdown)
		return true
	})
}

func (h *Hub) evict(c *Connection, reason string) {
	c.closeOnce.Do(func() {
		h.conns.Delete(c.ID)
		if v, ok := h.tenants.Load(c.TenantID); ok {
			set := v.(*tenantSet)
			set.mu.Lock()
			delete(set.conns, c.ID)
			set.mu.Unlock()
		}
		close(c.done)
		if err := c.transport.Close(); err != nil {
			c.log.Debug("Realtime transport close failed", "error", err)
		}
		h.opts.Metrics.SetRealtimeConnections(int(h.count.Add(-1)))
		h.opts.Metrics.IncRealtimeEviction(reason)
		c.log.Debug("Realtime connection removed", "reason", reason)
	})
}

func (h *Hub) runSender(c *Connection) {
	ticker := time.NewTicker(h.opts.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case f := <-c.queue:
			if err := h.send(c, f); err != nil {
				c.log.Warn("Realtime send failed; evicting", "error", err)
				h.evict(c, EvictSendError)
				return
			}
		case <-ticker.C:
			if err := h.send(c, Frame{Type: FrameHeartbeat}); err != nil {
				h.evict(c, EvictSendError)
				return
			}
		}
	}
}

func (h *Hub) send(c *Connection, f Frame) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.SendTimeout)
	defer cancel()
	return c.transport.Send(ctx, f)
}
