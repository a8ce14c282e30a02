package authorize

import (
	"context"
	"log/slog"
)

// DefaultPolicies is the baseline permission set. Ownership checks (a doctor
// acting on their own schedule, a participant on their own chat) stay in the
// services; these rows only gate which role may call an operation at all.
func DefaultPolicies() []PermissionPolicy {
	return []PermissionPolicy{
		// Admin: everything
		{RoleAdmin, DomainSys, WildcardResource, WildcardAction, EffectAllow},

		// Doctor: own practice
		{RoleDoctor, DomainSys, ResourceDoctor, ActionRead, EffectAllow},
		{RoleDoctor, DomainSys, ResourceSchedule, ActionUpdate, EffectAllow},
		{RoleDoctor, DomainSys, ResourceBooking, ActionRead, EffectAllow},
		{RoleDoctor, DomainSys, ResourceBooking, ActionList, EffectAllow},
		{RoleDoctor, DomainSys, ResourceBooking, ActionUpdate, EffectAllow},
		{RoleDoctor, DomainSys, ResourceChat, ActionRead, EffectAllow},
		{RoleDoctor, DomainSys, ResourceChat, ActionList, EffectAllow},
		{RoleDoctor, DomainSys, ResourceChat, ActionStream, EffectAllow},
		{RoleDoctor, DomainSys, ResourceChat, ActionAnswer, EffectAllow},
		{RoleDoctor, DomainSys, ResourceChat, ActionDelete, EffectAllow},
		{RoleDoctor, DomainSys, ResourceChatMessage, ActionManage, EffectAllow},

		// Patient: own bookings and chats
		{RolePatient, DomainSys, ResourceDoctor, ActionRead, EffectAllow},
		{RolePatient, DomainSys, ResourceBooking, ActionCreate, EffectAllow},
		{RolePatient, DomainSys, ResourceBooking, ActionRead, EffectAllow},
		{RolePatient, DomainSys, ResourceBooking, ActionList, EffectAllow},
		{RolePatient, DomainSys, ResourceChat, ActionCreate, EffectAllow},
		{RolePatient, DomainSys, ResourceChat, ActionRead, EffectAllow},
		{RolePatient, DomainSys, ResourceChat, ActionList, EffectAllow},
		{RolePatient, DomainSys, ResourceChat, ActionStream, EffectAllow},
		{RolePatient, DomainSys, ResourceChat, ActionDelete, EffectAllow},
		{RolePatient, DomainSys, ResourceChatMessage, ActionManage, EffectAllow},
	}
}

// SeedDefaultPolicies sets up the baseline RBAC policies for the system.
func SeedDefaultPolicies(ctx context.Context, auth IAuthorization) error {
	logger := slog.Default()

	policies := DefaultPolicies()
	for _, p := range policies {
		added, err := auth.AddPermission(ctx, p.Subject, p.Domain, p.Object, p.Action, p.Effect)
		if err != nil {
			logger.Error("failed to add policy", "policy", p, "error", err)
			return err
		}
		if added {
			logger.Debug("added policy", "role", p.Subject, "domain", p.Domain, "resource", p.Object, "action", p.Action)
		}
	}

	logger.Info("seeded default RBAC policies", "count", len(policies))
	return nil
}

// AssignRole groups a user under a platform role in the sys domain.
// Call this when registering a doctor or an admin.
func AssignRole(ctx context.Context, auth IAuthorization, userID string, role Role) error {
	if _, ok := KnownRoles[role]; !ok {
		return ErrInvalidArgs
	}
	_, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(userID), role, DomainSys)
	return err
}

// RemoveRole removes a platform role from a user.
func RemoveRole(ctx context.Context, auth IAuthorization, userID string, role Role) error {
	_, err := auth.RemoveRoleForUserInDomain(ctx, GroupSubject(userID), role, DomainSys)
	return err
}
