package authorize

import (
	"testing"

	"github.com/Alijeyrad/teleclinic_backend/pkg/reqctx"
)

func TestIsValidDomain(t *testing.T) {
	tests := []struct {
		name     string
		domain   Domain
		expected bool
	}{
		// Valid domains
		{"sys domain", DomainSys, true},
		{"wildcard domain", WildcardDomain, true},
		{"valid user domain", Domain("user:550e8400-e29b-41d4-a716-446655440000"), true},

		// Invalid domains
		{"empty domain", Domain(""), false},
		{"random string", Domain("random"), false},
		{"user without uuid", Domain("user:"), false},
		{"user with invalid uuid", Domain("user:not-a-uuid"), false},
		{"unknown prefix", Domain("clinic:550e8400-e29b-41d4-a716-446655440000"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidDomain(tt.domain)
			if result != tt.expected {
				t.Errorf("IsValidDomain(%q) = %v, want %v", tt.domain, result, tt.expected)
			}
		})
	}
}

func TestUserDomain(t *testing.T) {
	userID := "550e8400-e29b-41d4-a716-446655440000"
	expected := Domain("user:550e8400-e29b-41d4-a716-446655440000")

	result := UserDomain(userID)
	if result != expected {
		t.Errorf("UserDomain(%q) = %q, want %q", userID, result, expected)
	}
}

func TestRoleFor(t *testing.T) {
	tests := map[reqctx.Role]Role{
		reqctx.RolePatient: RolePatient,
		reqctx.RoleDoctor:  RoleDoctor,
		reqctx.RoleAdmin:   RoleAdmin,
	}
	for in, want := range tests {
		got, ok := RoleFor(in)
		if !ok || got != want {
			t.Errorf("RoleFor(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := RoleFor("nurse"); ok {
		t.Error("RoleFor(nurse) should not resolve")
	}
}

func TestDefaultPoliciesUseKnownConstants(t *testing.T) {
	for _, p := range DefaultPolicies() {
		if _, ok := KnownRoles[p.Subject]; !ok {
			t.Errorf("policy %v: unknown role", p)
		}
		if _, ok := KnownResources[p.Object]; !ok && p.Object != WildcardResource {
			t.Errorf("policy %v: unknown resource", p)
		}
		if _, ok := KnownActions[p.Action]; !ok && p.Action != WildcardAction {
			t.Errorf("policy %v: unknown action", p)
		}
	}
}

func TestRoleDisplayNamesComplete(t *testing.T) {
	for r := range KnownRoles {
		if RoleDisplayNamesFA[r] == "" {
			t.Errorf("missing display name for %q", r)
		}
	}
}
