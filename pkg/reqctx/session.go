package reqctx

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

var ErrUnknownRole = errors.New("unknown role")

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) String() string { return string(r) }

// Session identifies the caller of a domain operation. Locale is a BCP 47 tag
// such as "fa" or "en".
type Session struct {
	UserID uuid.UUID
	Role   Role
	Name   string
	Locale string
}

func (s Session) IsPatient() bool { return s.Role == RolePatient }
func (s Session) IsDoctor() bool  { return s.Role == RoleDoctor }
func (s Session) IsAdmin() bool   { return s.Role == RoleAdmin }

// Owns reports whether the session acts for userID: the user itself or an admin.
func (s Session) Owns(userID uuid.UUID) bool {
	return s.IsAdmin() || (s.UserID != uuid.Nil && s.UserID == userID)
}

func WithSession(ctx context.Context, s Session) context.Context {
	return with(ctx, s)
}

// SessionFromContext returns the caller session set by the auth middleware.
func SessionFromContext(ctx context.Context) (Session, bool) {
	return from[Session](ctx)
}
