package authorize

import (
	"context"
	"fmt"

	casbin "github.com/casbin/casbin/v2"
)

// NewInMemoryAuthorization builds an enforcer over the default model with no
// adapter, seeded with DefaultPolicies. Policy changes are not persisted.
func NewInMemoryAuthorization(adminBypass bool) (IAuthorization, error) {
	m, err := LoadModel("")
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewDistributedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	e.EnableAutoSave(false)

	auth, err := NewAuthorization(e, adminBypass)
	if err != nil {
		return nil, err
	}
	if err := SeedDefaultPolicies(context.Background(), auth); err != nil {
		return nil, err
	}
	return auth, nil
}
