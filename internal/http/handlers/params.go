package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/auth"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/apierr"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/ctxutil"
)

func principalFrom(c *gin.Context) (auth.Principal, error) {
	p, ok := ctxutil.GetPrincipal(c.Request.Context())
	if !ok || !p.Valid() {
		return auth.Principal{}, apierr.Unauthorized(errors.New("not authenticated"))
	}
	return p, nil
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apierr.BadRequest("invalid_"+name, errors.New(name+" must be a uuid"))
	}
	return id, nil
}

// scope resolves the caller and the tenant (and order when routed) of a request.
func scope(c *gin.Context, withOrder bool) (auth.Principal, uuid.UUID, uuid.UUID, error) {
	p, err := principalFrom(c)
	if err != nil {
		return auth.Principal{}, uuid.Nil, uuid.Nil, err
	}
	tenantID, err := uuidParam(c, "tenant_id")
	if err != nil {
		return auth.Principal{}, uuid.Nil, uuid.Nil, err
	}
	if !withOrder {
		return p, tenantID, uuid.Nil, nil
	}
	orderID, err := uuidParam(c, "order_id")
	if err != nil {
		return auth.Principal{}, uuid.Nil, uuid.Nil, err
	}
	return p, tenantID, orderID, nil
}

func idempotencyKey(c *gin.Context, fromBody string) string {
	if k := strings.TrimSpace(fromBody); k != "" {
		return k
	}
	return strings.TrimSpace(c.GetHeader("Idempotency-Key"))
}
