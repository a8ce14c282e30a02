package authorize

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/teleclinic_backend/pkg/reqctx"
)

// AuditedAuthorization logs every decision and every policy change made
// through the wrapped IAuthorization. Denials log at warn so refused chat
// and booking actions stand out next to the request id.
type AuditedAuthorization struct {
	inner  IAuthorization
	logger *slog.Logger
}

func NewAuditedAuthorization(inner IAuthorization, logger *slog.Logger) IAuthorization {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditedAuthorization{inner: inner, logger: logger.With("component", "authz")}
}

func (a *AuditedAuthorization) Enforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) (bool, error) {
	start := time.Now()
	allowed, err := a.inner.Enforce(ctx, subject, domain, object, action)

	level := slog.LevelInfo
	switch {
	case err != nil:
		level = slog.LevelError
	case !allowed:
		level = slog.LevelWarn
	}
	a.logger.Log(ctx, level, "authz_decision", append(callerAttrs(ctx),
		"subject", subject,
		"domain", domain,
		"resource", object,
		"action", action,
		"allowed", allowed,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", errString(err),
	)...)
	return allowed, err
}

func (a *AuditedAuthorization) MustEnforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, subject, domain, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (a *AuditedAuthorization) AddRoleForUserInDomain(ctx context.Context, subject GroupSubject, role Role, domain Domain) (bool, error) {
	changed, err := a.inner.AddRoleForUserInDomain(ctx, subject, role, domain)
	a.change(ctx, "add_role", changed, err, "subject", subject, "role", role, "domain", domain)
	return changed, err
}

func (a *AuditedAuthorization) RemoveRoleForUserInDomain(ctx context.Context, subject GroupSubject, role Role, domain Domain) (bool, error) {
	changed, err := a.inner.RemoveRoleForUserInDomain(ctx, subject, role, domain)
	a.change(ctx, "remove_role", changed, err, "subject", subject, "role", role, "domain", domain)
	return changed, err
}

func (a *AuditedAuthorization) GetRolesForUserInDomain(ctx context.Context, subject GroupSubject, domain Domain) ([]Role, error) {
	return a.inner.GetRolesForUserInDomain(ctx, subject, domain)
}

func (a *AuditedAuthorization) AddPermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	changed, err := a.inner.AddPermission(ctx, role, domain, object, action, effect)
	a.change(ctx, "add_permission", changed, err, "role", role, "domain", domain, "resource", object, "action", action, "effect", effect)
	return changed, err
}

func (a *AuditedAuthorization) RemovePermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	changed, err := a.inner.RemovePermission(ctx, role, domain, object, action, effect)
	a.change(ctx, "remove_permission", changed, err, "role", role, "domain", domain, "resource", object, "action", action, "effect", effect)
	return changed, err
}

func (a *AuditedAuthorization) change(ctx context.Context, op string, changed bool, err error, kv ...any) {
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	attrs := append([]any{"operation", op, "changed", changed, "error", errString(err)}, kv...)
	a.logger.Log(ctx, level, "authz_policy_change", append(callerAttrs(ctx), attrs...)...)
}

// callerAttrs tags audit lines with the request id and acting user when the
// call came through the HTTP stack.
func callerAttrs(ctx context.Context) []any {
	var out []any
	if rid := reqctx.RequestIDFromContext(ctx); rid != "" {
		out = append(out, "request_id", rid)
	}
	if s, ok := reqctx.SessionFromContext(ctx); ok && s.UserID != uuid.Nil {
		out = append(out, "user_id", s.UserID.String(), "user_role", string(s.Role))
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
