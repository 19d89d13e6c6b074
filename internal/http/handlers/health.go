package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/realtime"
)

type HealthHandler struct {
	hub *realtime.Hub
}

func NewHealthHandler(hub *realtime.Hub) *HealthHandler { return &HealthHandler{hub: hub} }

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	conns := 0
	if h.hub != nil {
		for _, n := range h.hub.Stats() {
			conns += n
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "realtime_connections": conns})
}
