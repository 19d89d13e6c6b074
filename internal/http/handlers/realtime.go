package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/realtime"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/services/auth"
)

const helloTimeout = 10 * time.Second

type helloFrame struct {
	Type     realtime.FrameType `json:"type"`
	Token    string             `json:"token"`
	TenantID string             `json:"tenant_id"`
}

type RealtimeHandler struct {
	log     *logger.Logger
	hub     *realtime.Hub
	auth    auth.Authenticator
	origins []string
	ws      websocket.Server
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.Hub, authenticator auth.Authenticator, origins []string) *RealtimeHandler {
	h := &RealtimeHandler{
		log:     log.With("handler", "RealtimeHandler"),
		hub:     hub,
		auth:    authenticator,
		origins: origins,
	}
	h.ws = websocket.Server{Handshake: h.checkOrigin, Handler: h.serve}
	return h
}

// GET /ws
func (h *RealtimeHandler) Connect(c *gin.Context) {
	h.ws.ServeHTTP(c.Writer, c.Request)
}

func (h *RealtimeHandler) checkOrigin(cfg *websocket.Config, r *http.Request) error {
	if len(h.origins) == 0 {
		return nil
	}
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	for _, o := range h.origins {
		if o == "*" || strings.EqualFold(o, origin) {
			return nil
		}
	}
	return errors.New("origin not allowed")
}

func (h *RealtimeHandler) serve(conn *websocket.Conn) {
	defer conn.Close()
	ctx := conn.Request().Context()

	var hello helloFrame
	_ = conn.SetReadDeadline(time.Now().Add(helloTimeout))
	if err := websocket.JSON.Receive(conn, &hello); err != nil || hello.Type != realtime.FrameHello {
		h.reject(conn, domainagg.NewError(domainagg.CodeValidation, "realtime.hello", "expected hello frame", err))
		return
	}
	principal, err := h.auth.Authenticate(ctx, hello.Token)
	if err != nil {
		h.reject(conn, err)
		return
	}
	tenantID, err := uuid.Parse(strings.TrimSpace(hello.TenantID))
	if err != nil {
		h.reject(conn, domainagg.NewError(domainagg.CodeValidation, "realtime.hello", "tenant_id must be a uuid", err))
		return
	}

	tr := newWSTransport(conn)
	connID, err := h.hub.Register(ctx, tenantID, principal, tr)
	if err != nil {
		h.reject(conn, err)
		return
	}
	defer h.hub.Unregister(connID)
	if err := tr.write(realtime.Frame{Type: realtime.FrameConnected, ConnectionID: connID.String()}, time.Now().Add(helloTimeout)); err != nil {
		return
	}
	tr.open()
	h.log.Debug("realtime client connected", "connection_id", connID, "tenant_id", tenantID)

	interval := h.hub.HeartbeatInterval()
	for {
		_ = conn.SetReadDeadline(time.Now().Add(2*interval + time.Second))
		var in realtime.Frame
		if err := websocket.JSON.Receive(conn, &in); err != nil {
			return
		}
		if in.Type != realtime.FrameHeartbeat {
			continue
		}
		if err := h.hub.Heartbeat(connID); err != nil {
			return
		}
		if err := tr.Send(ctx, realtime.Frame{Type: realtime.FrameHeartbeatAck}); err != nil {
			return
		}
	}
}

func (h *RealtimeHandler) reject(conn *websocket.Conn, err error) {
	code := string(domainagg.CodeOf(err))
	h.log.Debug("realtime handshake rejected", "code", code, "error", err)
	_ = conn.SetWriteDeadline(time.Now().Add(helloTimeout))
	_ = websocket.JSON.Send(conn, realtime.Frame{Type: realtime.FrameError, Code: code, Message: err.Error()})
}

// wsTransport serialises writes to one websocket. Frames queued by the hub
// wait until the connected frame has gone out.
type wsTransport struct {
	conn      *websocket.Conn
	mu        sync.Mutex
	ready     chan struct{}
	readyOnce sync.Once
	closed    chan struct{}
	closeOnce sync.Once
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	return &wsTransport{conn: conn, ready: make(chan struct{}), closed: make(chan struct{})}
}

func (t *wsTransport) open() {
	t.readyOnce.Do(func() { close(t.ready) })
}

func (t *wsTransport) Send(ctx context.Context, f realtime.Frame) error {
	select {
	case <-t.ready:
	case <-t.closed:
		return errors.New("transport closed")
	case <-ctx.Done():
		return ctx.Err()
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(helloTimeout)
	}
	return t.write(f, deadline)
}

func (t *wsTransport) write(f realtime.Frame, deadline time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	select {
	case <-t.closed:
		return errors.New("transport closed")
	default:
	}
	_ = t.conn.SetWriteDeadline(deadline)
	return websocket.JSON.Send(t.conn, f)
}

func (t *wsTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.closed)
		err = t.conn.Close()
	})
	return err
}
