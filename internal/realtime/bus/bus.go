package bus

import (
	"context"

	"github.com/google/uuid"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/realtime"
)

// Bus fans events out across instances.
type Bus interface {
	Publish(ctx context.Context, ev realtime.Event) error
	StartForwarder(ctx context.Context, onMsg func(ev realtime.Event)) error
	Close() error
}

// Publisher is what write paths use to announce committed state changes.
type Publisher interface {
	Publish(ctx context.Context, tenantID uuid.UUID, ev realtime.Event) error
}

// Broadcaster routes events through the bus when one is configured, and
// straight to the local hub otherwise.
type Broadcaster struct {
	hub *realtime.Hub
	bus Bus
}

func NewBroadcaster(hub *realtime.Hub, b Bus) *Broadcaster {
	return &Broadcaster{hub: hub, bus: b}
}

func (b *Broadcaster) Publish(ctx context.Context, tenantID uuid.UUID, ev realtime.Event) error {
	ev.TenantID = tenantID
	if b.bus != nil {
		return b.bus.Publish(ctx, ev)
	}
	return b.hub.Publish(ctx, tenantID, ev)
}

// Start wires the bus forwarder into the local hub. It is a no-op without a bus.
func (b *Broadcaster) Start(ctx context.Context) error {
	if b.bus == nil {
		return nil
	}
	return b.bus.StartForwarder(ctx, func(ev realtime.Event) {
		_ = b.hub.Publish(ctx, ev.TenantID, ev)
	})
}
