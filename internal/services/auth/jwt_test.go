package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	domainauth "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/auth"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

func TestJWTAuthenticatorRoundTrip(t *testing.T) {
	a, err := NewJWTAuthenticator(logger.Nop(), "test-secret", "pos")
	if err != nil {
		t.Fatalf("NewJWTAuthenticator: %v", err)
	}
	tenant := uuid.New()
	tok, err := a.Issue(domainauth.Principal{ID: "staff-9", Role: domainauth.RoleManager, Tenants: []uuid.UUID{tenant}}, time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	p, err := a.Authenticate(context.Background(), tok)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.ID != "staff-9" || p.Role != domainauth.RoleManager || !p.EntitledTo(tenant) {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestJWTAuthenticatorRejectsBadTokens(t *testing.T) {
	a, _ := NewJWTAuthenticator(logger.Nop(), "test-secret", "")
	other, _ := NewJWTAuthenticator(logger.Nop(), "other-secret", "")

	foreign, _ := other.Issue(domainauth.Principal{ID: "x"}, time.Minute)
	expired, _ := a.Issue(domainauth.Principal{ID: "x"}, -time.Minute)
	for name, tok := range map[string]string{
		"empty":   "",
		"garbage": "not-a-jwt",
		"foreign": foreign,
		"expired": expired,
	} {
		if _, err := a.Authenticate(context.Background(), tok); !domainagg.IsCode(err, domainagg.CodeAuth) {
			t.Fatalf("%s: want=auth_error got=%v", name, err)
		}
	}
}
