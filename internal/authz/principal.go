package authz

import "context"

type ctxKey string

const ContextPrincipalKey ctxKey = "principal"

type RoleName string

const (
	RoleAdmin   RoleName = "admin"
	RoleDoctor  RoleName = "doctor"
	RoleNurse   RoleName = "nurse"
	RolePatient RoleName = "patient"
	RoleStaff   RoleName = "staff"
)

// DefaultRole is assigned whenever a role lookup fails or finds nothing.
// Degrading to the least-privileged role keeps a broken assignment store from
// escalating access.
const DefaultRole = RolePatient

// Principal is the authenticated actor for a single request. It is built
// fresh by the session resolver and discarded with the response; it is never
// persisted in this shape.
type Principal struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Role        RoleName `json:"role"`
	Department  string   `json:"department,omitempty"`
	Location    string   `json:"location,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

func (p *Principal) HasPermission(permission string) bool {
	for _, perm := range p.Permissions {
		if perm == permission {
			return true
		}
	}
	return false
}

func (p *Principal) HasAllPermissions(permissions []string) bool {
	for _, required := range permissions {
		if !p.HasPermission(required) {
			return false
		}
	}
	return true
}

func (p *Principal) HasAnyPermission(permissions []string) bool {
	for _, required := range permissions {
		if p.HasPermission(required) {
			return true
		}
	}
	return false
}

func (p *Principal) HasRole(roles ...RoleName) bool {
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ContextPrincipalKey).(*Principal)
	return p, ok
}

func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ContextPrincipalKey, p)
}
