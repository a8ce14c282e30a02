package authorize

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	casbin "github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

// createTestEnforcer creates a file-backed Casbin enforcer for testing
func createTestEnforcer(t *testing.T) *casbin.DistributedEnforcer {
	t.Helper()

	// Write empty policy file
	policyPath := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(policyPath, []byte(""), 0644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	m, err := LoadModel("")
	if err != nil {
		t.Fatalf("failed to load model: %v", err)
	}

	e, err := casbin.NewDistributedEnforcer(m, fileadapter.NewAdapter(policyPath))
	if err != nil {
		t.Fatalf("failed to create enforcer: %v", err)
	}

	e.EnableAutoSave(false)
	e.EnableEnforce(true)

	return e
}

func seededAuth(t *testing.T, adminBypass bool) IAuthorization {
	t.Helper()
	auth, err := NewAuthorization(createTestEnforcer(t), adminBypass)
	if err != nil {
		t.Fatalf("NewAuthorization: %v", err)
	}
	if err := SeedDefaultPolicies(context.Background(), auth); err != nil {
		t.Fatalf("SeedDefaultPolicies: %v", err)
	}
	return auth
}

func TestNewAuthorization(t *testing.T) {
	t.Run("returns error for nil enforcer", func(t *testing.T) {
		_, err := NewAuthorization(nil, true)
		if err == nil {
			t.Error("Expected error for nil enforcer")
		}
	})

	t.Run("succeeds with valid enforcer", func(t *testing.T) {
		auth, err := NewAuthorization(createTestEnforcer(t), true)
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		if auth == nil {
			t.Error("Expected non-nil authorization")
		}
	})
}

func TestEnforceRoleSubjects(t *testing.T) {
	auth := seededAuth(t, false)
	ctx := context.Background()

	tests := []struct {
		name     string
		role     Role
		resource Resource
		action   Action
		want     bool
	}{
		{"patient creates booking", RolePatient, ResourceBooking, ActionCreate, true},
		{"patient cannot edit schedule", RolePatient, ResourceSchedule, ActionUpdate, false},
		{"patient cannot answer chats", RolePatient, ResourceChat, ActionAnswer, false},
		{"patient sends messages via manage", RolePatient, ResourceChatMessage, ActionCreate, true},
		{"doctor edits schedule", RoleDoctor, ResourceSchedule, ActionUpdate, true},
		{"doctor answers chats", RoleDoctor, ResourceChat, ActionAnswer, true},
		{"doctor cannot start chats", RoleDoctor, ResourceChat, ActionCreate, false},
		{"doctor cannot manage rbac", RoleDoctor, ResourceRBAC, ActionGrant, false},
		{"admin wildcard", RoleAdmin, ResourceRBAC, ActionGrant, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.Enforce(ctx, GroupSubject(tt.role), DomainSys, tt.resource, tt.action)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnforceGroupedUser(t *testing.T) {
	auth := seededAuth(t, true)
	ctx := context.Background()

	doctorID := "550e8400-e29b-41d4-a716-446655440000"
	if err := AssignRole(ctx, auth, doctorID, RoleDoctor); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}

	ok, err := auth.Enforce(ctx, GroupSubject(doctorID), DomainSys, ResourceSchedule, ActionUpdate)
	if err != nil || !ok {
		t.Errorf("grouped doctor: Enforce() = %v, %v", ok, err)
	}

	// permissions are granted in the sys domain only
	ok, err = auth.Enforce(ctx, GroupSubject(doctorID), UserDomain(doctorID), ResourceChat, ActionAnswer)
	if err != nil || ok {
		t.Errorf("policies are sys-scoped: Enforce() = %v, %v", ok, err)
	}

	roles, err := auth.GetRolesForUserInDomain(ctx, GroupSubject(doctorID), DomainSys)
	if err != nil || len(roles) != 1 || roles[0] != RoleDoctor {
		t.Errorf("GetRolesForUserInDomain = %v, %v", roles, err)
	}

	if err := RemoveRole(ctx, auth, doctorID, RoleDoctor); err != nil {
		t.Fatalf("RemoveRole: %v", err)
	}
	ok, _ = auth.Enforce(ctx, GroupSubject(doctorID), DomainSys, ResourceSchedule, ActionUpdate)
	if ok {
		t.Error("expected access to be revoked")
	}
}

func TestEnforceArgumentErrors(t *testing.T) {
	auth := seededAuth(t, true)
	ctx := context.Background()

	tests := []struct {
		name     string
		subject  GroupSubject
		domain   Domain
		resource Resource
		action   Action
	}{
		{"empty subject", "", DomainSys, ResourceChat, ActionRead},
		{"invalid domain", "user-1", Domain("invalid"), ResourceChat, ActionRead},
		{"unknown resource", "user-1", DomainSys, Resource("unknown"), ActionRead},
		{"unknown action", "user-1", DomainSys, ResourceChat, Action("unknown")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.Enforce(ctx, tt.subject, tt.domain, tt.resource, tt.action); err == nil {
				t.Error("Expected error but got nil")
			}
		})
	}
}

func TestMustEnforce(t *testing.T) {
	auth := seededAuth(t, true)
	ctx := context.Background()

	if err := auth.MustEnforce(ctx, GroupSubject(RoleDoctor), DomainSys, ResourceBooking, ActionUpdate); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if err := auth.MustEnforce(ctx, GroupSubject(RolePatient), DomainSys, ResourceBooking, ActionUpdate); err != ErrForbidden {
		t.Errorf("Expected ErrForbidden, got: %v", err)
	}
}

func TestAddPermissionValidation(t *testing.T) {
	auth, _ := NewAuthorization(createTestEnforcer(t), true)
	ctx := context.Background()

	if _, err := auth.AddPermission(ctx, Role("role:ghost"), DomainSys, ResourceChat, ActionRead, EffectAllow); err == nil {
		t.Error("expected unknown role to be rejected")
	}
	if _, err := auth.AddPermission(ctx, RolePatient, DomainSys, ResourceChat, ActionRead, PolicyEffect("maybe")); err == nil {
		t.Error("expected invalid effect to be rejected")
	}
	if err := AssignRole(ctx, auth, "u", Role("role:ghost")); err != ErrInvalidArgs {
		t.Errorf("AssignRole unknown role err = %v", err)
	}
}

func TestAuditedAuthorizationLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	auth := NewAuditedAuthorization(seededAuth(t, true), logger)

	_, _ = auth.Enforce(context.Background(), GroupSubject(RolePatient), DomainSys, ResourceSchedule, ActionUpdate)

	out := buf.String()
	if !strings.Contains(out, "authz_decision") || !strings.Contains(out, "allowed=false") {
		t.Errorf("audit log missing decision: %s", out)
	}
}

func TestLoadModelFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.conf")
	if err := os.WriteFile(path, []byte(DefaultModel), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadModel(path); err != nil {
		t.Errorf("LoadModel(file) error: %v", err)
	}
	if _, err := LoadModel(filepath.Join(t.TempDir(), "missing.conf")); err != nil {
		t.Errorf("LoadModel(missing) should fall back to the default: %v", err)
	}
}

func TestNewInMemoryAuthorization(t *testing.T) {
	auth, err := NewInMemoryAuthorization(false)
	if err != nil {
		t.Fatalf("NewInMemoryAuthorization: %v", err)
	}
	ctx := context.Background()

	ok, err := auth.Enforce(ctx, GroupSubject(RolePatient), DomainSys, ResourceBooking, ActionCreate)
	if err != nil || !ok {
		t.Errorf("patient booking create = %v, %v; want allowed", ok, err)
	}
	ok, err = auth.Enforce(ctx, GroupSubject(RolePatient), DomainSys, ResourceSchedule, ActionUpdate)
	if err != nil || ok {
		t.Errorf("patient schedule update = %v, %v; want denied", ok, err)
	}
}
