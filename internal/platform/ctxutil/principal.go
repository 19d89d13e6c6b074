package ctxutil

import (
	"context"

	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/auth"
)

type principalKey struct{}

func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// GetPrincipal returns the principal attached by the auth middleware.
func GetPrincipal(ctx context.Context) (auth.Principal, bool) {
	if ctx == nil {
		return auth.Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(auth.Principal)
	return p, ok
}
