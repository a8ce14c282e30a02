package authorize

import (
	"context"
	"errors"
	"fmt"

	casbin "github.com/casbin/casbin/v2"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrInvalidArgs = errors.New("invalid authorization arguments")
)

// IAuthorization is what handlers and services depend on. Subjects are user
// ids or, for checks made from token claims alone, role names.
type IAuthorization interface {
	Enforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) (bool, error)
	// MustEnforce returns ErrForbidden when the check fails.
	MustEnforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) error

	// g rows
	AddRoleForUserInDomain(ctx context.Context, subject GroupSubject, role Role, domain Domain) (bool, error)
	RemoveRoleForUserInDomain(ctx context.Context, subject GroupSubject, role Role, domain Domain) (bool, error)
	GetRolesForUserInDomain(ctx context.Context, subject GroupSubject, domain Domain) ([]Role, error)

	// p rows
	AddPermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error)
	RemovePermission(ctx context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error)
}

type Authorization struct {
	enforcer *casbin.DistributedEnforcer
	// bypass is empty unless admins skip policy evaluation.
	bypass Role
}

// NewAuthorization loads policies into e and wraps it. With adminBypass,
// holders of role:admin in the sys domain pass every check.
func NewAuthorization(e *casbin.DistributedEnforcer, adminBypass bool) (IAuthorization, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: enforcer is nil", ErrInvalidArgs)
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load policies: %w", err)
	}
	a := &Authorization{enforcer: e}
	if adminBypass {
		a.bypass = RoleAdmin
	}
	return a, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgs}, args...)...)
}

func checkSubject(s GroupSubject) error {
	if s == "" {
		return invalid("empty subject")
	}
	return nil
}

func checkDomain(d Domain) error {
	if !IsValidDomain(d) {
		return invalid("invalid domain %q", d)
	}
	return nil
}

func checkTuple(domain Domain, object Resource, action Action) error {
	if err := checkDomain(domain); err != nil {
		return err
	}
	if _, ok := KnownResources[object]; !ok && object != WildcardResource {
		return invalid("unknown resource %q", object)
	}
	if _, ok := KnownActions[action]; !ok && action != WildcardAction {
		return invalid("unknown action %q", action)
	}
	return nil
}

func checkRole(role Role) error {
	if _, ok := KnownRoles[role]; !ok && role != WildcardRole {
		return invalid("unknown role %q", role)
	}
	return nil
}

func checkEffect(e PolicyEffect) error {
	if e != EffectAllow && e != EffectDeny {
		return invalid("invalid effect %q", e)
	}
	return nil
}

func (a *Authorization) isAdmin(subject GroupSubject) bool {
	if a.bypass == "" {
		return false
	}
	return subject == GroupSubject(a.bypass) ||
		a.enforcer.HasGroupingPolicy(string(subject), string(a.bypass), string(DomainSys))
}

func (a *Authorization) Enforce(_ context.Context, subject GroupSubject, domain Domain, object Resource, action Action) (bool, error) {
	if err := checkSubject(subject); err != nil {
		return false, err
	}
	if err := checkTuple(domain, object, action); err != nil {
		return false, err
	}
	if a.isAdmin(subject) {
		return true, nil
	}
	return a.enforcer.Enforce(string(subject), string(domain), string(object), string(action))
}

func (a *Authorization) MustEnforce(ctx context.Context, subject GroupSubject, domain Domain, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, subject, domain, object, action)
	switch {
	case err != nil:
		return err
	case !ok:
		return ErrForbidden
	}
	return nil
}

func (a *Authorization) AddRoleForUserInDomain(_ context.Context, subject GroupSubject, role Role, domain Domain) (bool, error) {
	if err := errors.Join(checkSubject(subject), checkRole(role), checkDomain(domain)); err != nil {
		return false, err
	}
	return a.enforcer.AddGroupingPolicy(string(subject), string(role), string(domain))
}

func (a *Authorization) RemoveRoleForUserInDomain(_ context.Context, subject GroupSubject, role Role, domain Domain) (bool, error) {
	if err := errors.Join(checkSubject(subject), checkRole(role), checkDomain(domain)); err != nil {
		return false, err
	}
	return a.enforcer.RemoveGroupingPolicy(string(subject), string(role), string(domain))
}

func (a *Authorization) GetRolesForUserInDomain(_ context.Context, subject GroupSubject, domain Domain) ([]Role, error) {
	if err := errors.Join(checkSubject(subject), checkDomain(domain)); err != nil {
		return nil, err
	}
	names := a.enforcer.GetRolesForUserInDomain(string(subject), string(domain))
	roles := make([]Role, len(names))
	for i, n := range names {
		roles[i] = Role(n)
	}
	return roles, nil
}

func (a *Authorization) AddPermission(_ context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	if err := errors.Join(checkRole(role), checkTuple(domain, object, action), checkEffect(effect)); err != nil {
		return false, err
	}
	return a.enforcer.AddPolicy(string(role), string(domain), string(object), string(action), string(effect))
}

func (a *Authorization) RemovePermission(_ context.Context, role Role, domain Domain, object Resource, action Action, effect PolicyEffect) (bool, error) {
	if err := errors.Join(checkRole(role), checkTuple(domain, object, action), checkEffect(effect)); err != nil {
		return false, err
	}
	return a.enforcer.RemovePolicy(string(role), string(domain), string(object), string(action), string(effect))
}
