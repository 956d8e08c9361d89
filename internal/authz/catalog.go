package authz

// Permission names are namespaced "<verb>:<resource>" strings. The set is
// static and seeded once; administrative flows are the only writers of the
// persisted copy.
const (
	PermViewPatient   = "view:patient"
	PermCreatePatient = "create:patient"
	PermEditPatient   = "edit:patient"
	PermDeletePatient = "delete:patient"

	PermViewDischarge   = "view:discharge"
	PermCreateDischarge = "create:discharge"
	PermEditDischarge   = "edit:discharge"

	PermViewAssessment   = "view:assessment"
	PermCreateAssessment = "create:assessment"
	PermEditAssessment   = "edit:assessment"

	PermViewOwnRecord = "view:own-record"

	PermManageUsers  = "manage:users"
	PermViewAuditLog = "view:audit-log"
)

// Catalog is the static role -> permission table. It is built once at process
// start and passed by reference into the gate and the session resolver; it is
// read-only afterwards.
type Catalog struct {
	grants map[RoleName][]string
}

func DefaultCatalog() *Catalog {
	return &Catalog{grants: map[RoleName][]string{
		RoleAdmin: {
			PermViewPatient, PermCreatePatient, PermEditPatient, PermDeletePatient,
			PermViewDischarge, PermCreateDischarge, PermEditDischarge,
			PermViewAssessment, PermCreateAssessment, PermEditAssessment,
			PermManageUsers, PermViewAuditLog,
		},
		RoleDoctor: {
			PermViewPatient, PermCreatePatient, PermEditPatient,
			PermViewDischarge, PermCreateDischarge, PermEditDischarge,
			PermViewAssessment, PermCreateAssessment, PermEditAssessment,
		},
		RoleNurse: {
			PermViewPatient,
			PermViewAssessment, PermCreateAssessment, PermEditAssessment,
		},
		RoleStaff: {
			PermViewPatient, PermViewDischarge,
		},
		RolePatient: {
			PermViewOwnRecord,
		},
	}}
}

// PermissionsForRole returns a copy so callers cannot mutate the catalog.
func (c *Catalog) PermissionsForRole(role RoleName) []string {
	perms, ok := c.grants[role]
	if !ok {
		return nil
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

func (c *Catalog) RoleHasPermission(role RoleName, permission string) bool {
	for _, perm := range c.grants[role] {
		if perm == permission {
			return true
		}
	}
	return false
}

func (c *Catalog) Roles() []RoleName {
	return []RoleName{RoleAdmin, RoleDoctor, RoleNurse, RolePatient, RoleStaff}
}

// AllPermissions returns the deduplicated union across roles, used by the
// seeder to populate the permissions table.
func (c *Catalog) AllPermissions() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, role := range c.Roles() {
		for _, perm := range c.grants[role] {
			if _, ok := seen[perm]; ok {
				continue
			}
			seen[perm] = struct{}{}
			out = append(out, perm)
		}
	}
	return out
}
