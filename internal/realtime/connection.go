package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/auth"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

// Transport is the outbound side of one client connection. Send must honour
// ctx cancellation; Close must unblock a pending Send.
type Transport interface {
	Send(ctx context.Context, f Frame) error
	Close() error
}

// Connection is an in-memory registration. It is never persisted.
type Connection struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Principal auth.Principal
	JoinedAt  time.Time

	lastHeartbeat atomic.Int64
	queue         chan Frame
	transport     Transport
	done          chan struct{}
	closeOnce     sync.Once
	log           *logger.Logger
}

func (c *Connection) LastHeartbeat() time.Time {
	return time.Unix(0, c.lastHeartbeat.Load())
}

func (c *Connection) touch(at time.Time) {
	c.lastHeartbeat.Store(at.UnixNano())
}

// Done is closed once the connection has been evicted or unregistered.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}
