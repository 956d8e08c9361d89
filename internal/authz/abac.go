package authz

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

const (
	ResourceTypePatientRecord = "patient_record"
	ResourceTypeDischarge     = "discharge"
	ResourceTypeAssessment    = "assessment"
)

// Resource describes the thing being accessed. OwnerID zero means ownership
// is unknown, which never satisfies an ownership policy.
type Resource struct {
	Type       string
	ID         int64
	OwnerID    int64
	Department string
}

// Environment carries request-time attributes into policy evaluation. The
// hour is stamped when the environment is built rather than read inside a
// predicate, so evaluation is deterministic under test.
type Environment struct {
	Hour       int
	IPLocation string
	Timestamp  time.Time
}

func EnvironmentAt(t time.Time) Environment {
	return Environment{Hour: t.Hour(), Timestamp: t}
}

func EnvironmentNow() Environment {
	return EnvironmentAt(time.Now())
}

type PolicyContext struct {
	Principal   *Principal
	Resource    Resource
	Environment Environment
}

type PolicyFunc func(PolicyContext) (bool, error)

type Policy struct {
	Name  string
	Check PolicyFunc
}

const (
	PolicyPatientViewOwnRecords = "patientViewOwnRecords"
	PolicyDoctorViewAllPatients = "doctorViewAllPatients"
	PolicyBusinessHoursOnly     = "businessHoursOnly"
	PolicyStaffDepartmentAccess = "healthcareStaffDepartmentAccess"
	PolicyAdminFullAccess       = "adminFullAccess"
	PolicyLocationBasedAccess   = "locationBasedAccess"
)

// PolicyRegistry holds the named attribute predicates. It is populated at
// startup and read-only afterwards; policies are never user-editable.
type PolicyRegistry struct {
	policies map[string]Policy
	logger   *slog.Logger
}

func NewPolicyRegistry(logger *slog.Logger) *PolicyRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &PolicyRegistry{
		policies: make(map[string]Policy),
		logger:   logger,
	}
}

func (r *PolicyRegistry) Register(name string, check PolicyFunc) {
	r.policies[name] = Policy{Name: name, Check: check}
}

func (r *PolicyRegistry) Lookup(name string) (Policy, bool) {
	p, ok := r.policies[name]
	return p, ok
}

// DefaultPolicyRegistry registers the built-in predicates.
// locationBasedAccess is registered but not chosen by the default selector.
func DefaultPolicyRegistry(logger *slog.Logger) *PolicyRegistry {
	r := NewPolicyRegistry(logger)

	r.Register(PolicyPatientViewOwnRecords, func(ctx PolicyContext) (bool, error) {
		if ctx.Principal.Role != RolePatient {
			return false, nil
		}
		if ctx.Resource.OwnerID == 0 {
			return false, nil
		}
		return strconv.FormatInt(ctx.Resource.OwnerID, 10) == ctx.Principal.ID, nil
	})

	r.Register(PolicyDoctorViewAllPatients, func(ctx PolicyContext) (bool, error) {
		return ctx.Principal.Role == RoleDoctor && ctx.Resource.Type == ResourceTypePatientRecord, nil
	})

	r.Register(PolicyBusinessHoursOnly, func(ctx PolicyContext) (bool, error) {
		return ctx.Environment.Hour >= 9 && ctx.Environment.Hour < 17, nil
	})

	r.Register(PolicyStaffDepartmentAccess, func(ctx PolicyContext) (bool, error) {
		if !ctx.Principal.HasRole(RoleDoctor, RoleNurse, RoleStaff) {
			return false, nil
		}
		if ctx.Resource.Department == "" {
			return false, fmt.Errorf("resource %s/%d has no department", ctx.Resource.Type, ctx.Resource.ID)
		}
		return ctx.Principal.Department == ctx.Resource.Department, nil
	})

	r.Register(PolicyAdminFullAccess, func(ctx PolicyContext) (bool, error) {
		return ctx.Principal.Role == RoleAdmin, nil
	})

	r.Register(PolicyLocationBasedAccess, func(ctx PolicyContext) (bool, error) {
		if ctx.Principal.Location == "" || ctx.Environment.IPLocation == "" {
			return false, nil
		}
		return ctx.Principal.Location == ctx.Environment.IPLocation, nil
	})

	return r
}

// SelectFor chooses which predicates apply to a (principal, resource) pair.
// Admin is exclusive: adminFullAccess replaces every role-specific rule. An
// empty selection means deny.
func (r *PolicyRegistry) SelectFor(p *Principal, res Resource) []Policy {
	if p == nil {
		return nil
	}

	if p.Role == RoleAdmin {
		return r.collect(PolicyAdminFullAccess)
	}

	var names []string
	if p.Role == RoleDoctor && res.Type == ResourceTypePatientRecord {
		names = append(names, PolicyDoctorViewAllPatients, PolicyBusinessHoursOnly)
	}
	if p.Role == RolePatient && res.Type == ResourceTypePatientRecord {
		names = append(names, PolicyPatientViewOwnRecords)
	}
	if p.HasRole(RoleDoctor, RoleNurse, RoleStaff) && res.Department != "" {
		names = append(names, PolicyStaffDepartmentAccess)
	}
	return r.collect(names...)
}

func (r *PolicyRegistry) collect(names ...string) []Policy {
	var out []Policy
	for _, name := range names {
		if p, ok := r.policies[name]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Evaluate runs the selected predicates as a conjunction. No selected policy
// means deny. A predicate error counts as false and is logged server-side;
// it never surfaces to the client as anything but a denial.
func (r *PolicyRegistry) Evaluate(ctx PolicyContext) bool {
	selected := r.SelectFor(ctx.Principal, ctx.Resource)
	if len(selected) == 0 {
		return false
	}

	for _, policy := range selected {
		allowed, err := policy.Check(ctx)
		if err != nil {
			r.logger.Error("policy evaluation failed, treating as deny",
				"policy", policy.Name,
				"resource_type", ctx.Resource.Type,
				"resource_id", ctx.Resource.ID,
				"error", err)
			return false
		}
		if !allowed {
			return false
		}
	}
	return true
}
