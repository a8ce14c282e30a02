package authorize

import (
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/teleclinic_backend/pkg/reqctx"
)

type (
	Action       string
	Resource     string
	Role         string
	Domain       string
	PolicyEffect string

	// GroupSubject is the principal in a grouping row: a user id, or a role
	// when the check runs on token claims alone.
	GroupSubject string
)

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
	ActionManage Action = "manage"
	ActionStream Action = "stream" // SSE subscriptions
	ActionAnswer Action = "answer" // accept or reject a chat request
	ActionGrant  Action = "grant"
	ActionRevoke Action = "revoke"

	WildcardAction Action = "*"
)

const (
	ResourceDoctor      Resource = "doctor"
	ResourceSchedule    Resource = "schedule"
	ResourceBooking     Resource = "booking"
	ResourceChat        Resource = "chat"
	ResourceChatMessage Resource = "chat_message"
	ResourceRBAC        Resource = "rbac"

	WildcardResource Resource = "*"
)

// Policy subjects. Each session role maps onto exactly one.
const (
	RolePatient Role = "role:patient"
	RoleDoctor  Role = "role:doctor"
	RoleAdmin   Role = "role:admin"

	WildcardRole Role = "*"
)

const (
	DomainSys      Domain = "sys"
	WildcardDomain Domain = "*"

	userDomainPrefix = "user:"
)

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

func set[T comparable](vs ...T) map[T]struct{} {
	m := make(map[T]struct{}, len(vs))
	for _, v := range vs {
		m[v] = struct{}{}
	}
	return m
}

var (
	KnownActions = set(ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionList,
		ActionManage, ActionStream, ActionAnswer, ActionGrant, ActionRevoke)
	KnownResources = set(ResourceDoctor, ResourceSchedule, ResourceBooking,
		ResourceChat, ResourceChatMessage, ResourceRBAC)
	KnownRoles = set(RolePatient, RoleDoctor, RoleAdmin)
)

var RoleDisplayNamesFA = map[Role]string{
	RolePatient: "بیمار",
	RoleDoctor:  "پزشک",
	RoleAdmin:   "مدیر سامانه",
}

var sessionRoles = map[reqctx.Role]Role{
	reqctx.RolePatient: RolePatient,
	reqctx.RoleDoctor:  RoleDoctor,
	reqctx.RoleAdmin:   RoleAdmin,
}

// RoleFor maps a session role to its policy subject.
func RoleFor(r reqctx.Role) (Role, bool) {
	role, ok := sessionRoles[r]
	return role, ok
}

func UserDomain(userID string) Domain {
	return Domain(userDomainPrefix + userID)
}

// IsValidDomain accepts sys, the wildcard and user:<uuid>.
func IsValidDomain(d Domain) bool {
	switch d {
	case DomainSys, WildcardDomain:
		return true
	}
	id, ok := strings.CutPrefix(string(d), userDomainPrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// PermissionPolicy is one p row: subject, domain, object, action, effect.
type PermissionPolicy struct {
	Subject Role
	Domain  Domain
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
