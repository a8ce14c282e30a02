package reqctx

import (
	"context"

	"github.com/google/uuid"
)

// AuthClaims is the view of a verified access token the middleware and the
// authorization layer depend on.
type AuthClaims interface {
	GetUserID() uuid.UUID
	GetSessionID() *uuid.UUID // nil for tokens minted without a login session
	GetRole() string
	GetName() string
	GetLocale() string
	GetTokenType() string
	IsExpired() bool
}

func WithClaims(ctx context.Context, claims AuthClaims) context.Context {
	return with(ctx, claims)
}

// ClaimsFromContext returns nil for anonymous requests.
func ClaimsFromContext(ctx context.Context) AuthClaims {
	claims, _ := from[AuthClaims](ctx)
	return claims
}
