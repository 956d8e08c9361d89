package authz

type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

type Subject string

const (
	SubjectPatient    Subject = "Patient"
	SubjectDischarge  Subject = "Discharge"
	SubjectAssessment Subject = "Assessment"
	SubjectUser       Subject = "User"
	SubjectAuditLog   Subject = "AuditLog"
	SubjectAll        Subject = "all"
)

type Ability struct {
	Action  Action
	Subject Subject
}

// AbilityMap is the fixed permission -> (action, subject) table. Like the
// catalog it is constructed once at startup and never mutated.
type AbilityMap struct {
	byPermission map[string]Ability
}

func DefaultAbilityMap() *AbilityMap {
	return &AbilityMap{byPermission: map[string]Ability{
		PermViewPatient:   {ActionView, SubjectPatient},
		PermCreatePatient: {ActionCreate, SubjectPatient},
		PermEditPatient:   {ActionUpdate, SubjectPatient},
		PermDeletePatient: {ActionDelete, SubjectPatient},

		PermViewDischarge:   {ActionView, SubjectDischarge},
		PermCreateDischarge: {ActionCreate, SubjectDischarge},
		PermEditDischarge:   {ActionUpdate, SubjectDischarge},

		PermViewAssessment:   {ActionView, SubjectAssessment},
		PermCreateAssessment: {ActionCreate, SubjectAssessment},
		PermEditAssessment:   {ActionUpdate, SubjectAssessment},

		PermViewOwnRecord: {ActionView, SubjectPatient},

		PermManageUsers:  {ActionManage, SubjectUser},
		PermViewAuditLog: {ActionView, SubjectAuditLog},
	}}
}

// Lookup resolves a single permission string; ok is false for permissions
// outside the fixed table.
func (m *AbilityMap) Lookup(permission string) (Ability, bool) {
	a, ok := m.byPermission[permission]
	return a, ok
}

// AbilitySet is the per-principal capability set. Derived per request, never
// stored.
type AbilitySet struct {
	grants map[Ability]struct{}
}

// For maps each held permission through the table and layers the hardcoded
// role extras on top. The extras are strictly additive: a role can end up
// with abilities the permission catalog alone would not grant.
func (m *AbilityMap) For(p *Principal) *AbilitySet {
	set := &AbilitySet{grants: make(map[Ability]struct{})}
	if p == nil {
		return set
	}

	for _, perm := range p.Permissions {
		if ability, ok := m.byPermission[perm]; ok {
			set.grants[ability] = struct{}{}
		}
	}

	switch p.Role {
	case RoleAdmin:
		set.grants[Ability{ActionManage, SubjectAll}] = struct{}{}
	case RoleDoctor:
		set.grants[Ability{ActionView, SubjectPatient}] = struct{}{}
	case RolePatient:
		set.grants[Ability{ActionView, SubjectPatient}] = struct{}{}
	}

	return set
}

// Can passes on an exact grant, the manage-all wildcard, or a manage grant on
// the same subject.
func (s *AbilitySet) Can(action Action, subject Subject) bool {
	if _, ok := s.grants[Ability{action, subject}]; ok {
		return true
	}
	if _, ok := s.grants[Ability{ActionManage, SubjectAll}]; ok {
		return true
	}
	if _, ok := s.grants[Ability{ActionManage, subject}]; ok {
		return true
	}
	return false
}

func (s *AbilitySet) CanAny(actions []Action, subject Subject) bool {
	for _, action := range actions {
		if s.Can(action, subject) {
			return true
		}
	}
	return false
}

func (s *AbilitySet) CanAll(actions []Action, subject Subject) bool {
	for _, action := range actions {
		if !s.Can(action, subject) {
			return false
		}
	}
	return true
}

// Abilities lists the direct grants, extras included, without wildcard
// expansion.
func (s *AbilitySet) Abilities() []Ability {
	out := make([]Ability, 0, len(s.grants))
	for a := range s.grants {
		out = append(out, a)
	}
	return out
}
