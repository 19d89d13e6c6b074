package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainagg "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/aggregates"
	domainauth "github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/domain/auth"
	"github.com/Lucid-Directions/cashapp-fynlo-sub003/internal/platform/logger"
)

// Authenticator turns a bearer token into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domainauth.Principal, error)
}

type JWTClaims struct {
	Role    string   `json:"role"`
	Tenants []string `json:"tenants"`
	jwt.RegisteredClaims
}

type JWTAuthenticator struct {
	log    *logger.Logger
	secret []byte
	issuer string
}

func NewJWTAuthenticator(log *logger.Logger, secret, issuer string) (*JWTAuthenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &JWTAuthenticator{
		log:    log.With("service", "JWTAuthenticator"),
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
	}, nil
}

// Authenticate verifies an HS256 token. Claims are trusted as issued.
func (a *JWTAuthenticator) Authenticate(ctx context.Context, tokenString string) (domainauth.Principal, error) {
	const op = "auth.authenticate"
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return domainauth.Principal{}, domainagg.NewError(domainagg.CodeAuth, op, "missing token", nil)
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return domainauth.Principal{}, domainagg.NewError(domainagg.CodeAuth, op, "invalid token", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return domainauth.Principal{}, domainagg.NewError(domainagg.CodeAuth, op, "invalid or expired token", nil)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return domainauth.Principal{}, domainagg.NewError(domainagg.CodeAuth, op, "token has no subject", nil)
	}

	tenants := make([]uuid.UUID, 0, len(claims.Tenants))
	for _, raw := range claims.Tenants {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			a.log.Warn("Ignoring malformed tenant claim", "tenant", raw)
			continue
		}
		tenants = append(tenants, id)
	}
	return domainauth.Principal{
		ID:      claims.Subject,
		Role:    domainauth.Role(strings.ToLower(strings.TrimSpace(claims.Role))),
		Tenants: tenants,
	}, nil
}

// Issue signs a token for p. Token issuance belongs to the identity service;
// this exists for local tooling and tests.
func (a *JWTAuthenticator) Issue(p domainauth.Principal, ttl time.Duration) (string, error) {
	tenants := make([]string, 0, len(p.Tenants))
	for _, t := range p.Tenants {
		tenants = append(tenants, t.String())
	}
	now := time.Now()
	claims := JWTClaims{
		Role:    string(p.Role),
		Tenants: tenants,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
