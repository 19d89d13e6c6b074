package realtime

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderUpdated       EventType = "order.updated"
	EventOrderPaymentFailed EventType = "order.payment_failed"
	EventKitchenOrderReady  EventType = "kitchen.order_ready"
)

// Event is a tenant-scoped state change broadcast to live connections.
type Event struct {
	Type      EventType `json:"type"`
	TenantID  uuid.UUID `json:"tenant_id"`
	OrderID   uuid.UUID `json:"order_id"`
	NewState  string    `json:"new_state"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

type FrameType string

const (
	FrameHello        FrameType = "hello"
	FrameConnected    FrameType = "connected"
	FrameHeartbeat    FrameType = "heartbeat"
	FrameHeartbeatAck FrameType = "heartbeat_ack"
	FrameEvent        FrameType = "event"
	FrameError        FrameType = "error"
)

// Frame is the wire envelope exchanged with clients.
type Frame struct {
	Type         FrameType `json:"type"`
	ConnectionID string    `json:"connection_id,omitempty"`
	Code         string    `json:"code,omitempty"`
	Message      string    `json:"message,omitempty"`
	Event        *Event    `json:"event,omitempty"`
}
