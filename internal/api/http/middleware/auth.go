package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	pasetotoken "github.com/Alijeyrad/teleclinic_backend/pkg/paseto"
	"github.com/Alijeyrad/teleclinic_backend/pkg/reqctx"
)

const LocalsSession = "session"

// SessionChecker reports whether a token's login session is still active.
type SessionChecker interface {
	SessionActive(ctx context.Context, sessionID uuid.UUID) (bool, error)
}

// AuthRequired validates a Bearer PASETO access token and checks the session in Redis.
// On success the caller's reqctx.Session is stored in Locals and in the request context.
func AuthRequired(mgr *pasetotoken.Manager, sessions SessionChecker) fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return fiber.ErrUnauthorized
		}
		if err := authenticate(c, mgr, sessions); err != nil {
			return err
		}
		return c.Next()
	}
}

// OptionalAuth attaches a session when a valid token is present and lets
// anonymous requests through. A present but invalid token is rejected.
func OptionalAuth(mgr *pasetotoken.Manager, sessions SessionChecker) fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		if err := authenticate(c, mgr, sessions); err != nil {
			return err
		}
		return c.Next()
	}
}

func authenticate(c fiber.Ctx, mgr *pasetotoken.Manager, sessions SessionChecker) error {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return fiber.ErrUnauthorized
	}

	claims, err := mgr.Verify(strings.TrimSpace(parts[1]))
	if err != nil {
		return fiber.ErrUnauthorized
	}

	// Only access tokens are accepted on protected routes
	if claims.Type != pasetotoken.TokenTypeAccess {
		return fiber.ErrUnauthorized
	}

	role, err := reqctx.ParseRole(claims.Role)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	if claims.SessionID != nil && sessions != nil {
		active, err := sessions.SessionActive(c.Context(), *claims.SessionID)
		if err != nil {
			slog.Error("session lookup failed", "error", err, "request_id", requestID(c))
			return fiber.ErrServiceUnavailable
		}
		if !active {
			return fiber.ErrUnauthorized
		}
	}

	sess := reqctx.Session{
		UserID: claims.UserID,
		Role:   role,
		Name:   claims.Name,
		Locale: sessionLocale(c, claims.Locale),
	}

	c.Locals(LocalsSession, sess)
	ctx := reqctx.WithClaims(c.Context(), claims)
	c.SetContext(reqctx.WithSession(ctx, sess))
	return nil
}

// sessionLocale prefers an explicit Accept-Language over the locale saved in
// the token.
func sessionLocale(c fiber.Ctx, fromToken string) string {
	if c.Get(fiber.HeaderAcceptLanguage) == "" && fromToken != "" {
		return MatchLocale(fromToken)
	}
	return LocaleFromFiber(c)
}

// SessionFromFiber returns the session stored by AuthRequired or OptionalAuth.
func SessionFromFiber(c fiber.Ctx) (reqctx.Session, bool) {
	sess, ok := c.Locals(LocalsSession).(reqctx.Session)
	return sess, ok
}
