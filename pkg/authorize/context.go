package authorize

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Alijeyrad/teleclinic_backend/pkg/reqctx"
)

var ErrNoSubjectInContext = errors.New("no subject found in context")

// SubjectFromContext returns the verified user id as a policy subject.
func SubjectFromContext(ctx context.Context) (GroupSubject, error) {
	claims := reqctx.ClaimsFromContext(ctx)
	if claims == nil || claims.GetUserID() == uuid.Nil {
		return "", ErrNoSubjectInContext
	}
	return GroupSubject(claims.GetUserID().String()), nil
}

// RoleSubjectFromContext returns the policy subject for the session role, so
// a token role needs no grouping row to be exercised.
func RoleSubjectFromContext(ctx context.Context) (GroupSubject, error) {
	sess, ok := reqctx.SessionFromContext(ctx)
	if !ok {
		return "", ErrNoSubjectInContext
	}
	if role, ok := RoleFor(sess.Role); ok {
		return GroupSubject(role), nil
	}
	return "", ErrNoSubjectInContext
}

// CallerSubjects lists the subjects a request may be authorized as: its
// session role, then its user id for roles granted through grouping rows.
func CallerSubjects(ctx context.Context) ([]GroupSubject, error) {
	var out []GroupSubject
	if s, err := RoleSubjectFromContext(ctx); err == nil {
		out = append(out, s)
	}
	if s, err := SubjectFromContext(ctx); err == nil {
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, ErrNoSubjectInContext
	}
	return out, nil
}
