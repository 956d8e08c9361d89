package authz

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// CombineMode picks how the RBAC and ABAC outcomes merge into one decision.
type CombineMode int

const (
	// CombineAnd requires both models to allow. RBAC runs first; an RBAC
	// denial skips ABAC evaluation entirely.
	CombineAnd CombineMode = iota
	// CombineOr allows if either model allows.
	CombineOr
	CombineRBACOnly
	CombineABACOnly
)

// Gate composes the three access-control models behind one decision point.
// The model fields are fixed at construction; the environment source may be
// swapped with WithEnvironmentFunc before the gate is shared across requests.
type Gate struct {
	catalog   *Catalog
	policies  *PolicyRegistry
	abilities *AbilityMap
	logger    *slog.Logger
	envFn     func(r *http.Request) Environment
}

func NewGate(catalog *Catalog, policies *PolicyRegistry, abilities *AbilityMap, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		catalog:   catalog,
		policies:  policies,
		abilities: abilities,
		logger:    logger,
		envFn:     defaultEnvironment,
	}
}

func defaultEnvironment(_ *http.Request) Environment {
	return EnvironmentAt(time.Now())
}

// WithEnvironmentFunc overrides how the per-request environment is built.
// Tests use this to pin the evaluation hour.
func (g *Gate) WithEnvironmentFunc(fn func(r *http.Request) Environment) *Gate {
	g.envFn = fn
	return g
}

func (g *Gate) Catalog() *Catalog         { return g.catalog }
func (g *Gate) Policies() *PolicyRegistry { return g.policies }
func (g *Gate) Abilities() *AbilityMap    { return g.abilities }

// Authorize runs the combined RBAC/ABAC decision. A nil principal is
// unauthenticated and short-circuits before either model runs.
func (g *Gate) Authorize(p *Principal, requiredPermissions []string, res Resource, env Environment, mode CombineMode) error {
	if p == nil {
		return ErrUnauthenticated
	}

	rbacAllowed := func() bool {
		return p.HasAllPermissions(requiredPermissions)
	}
	abacAllowed := func() bool {
		return g.policies.Evaluate(PolicyContext{Principal: p, Resource: res, Environment: env})
	}

	switch mode {
	case CombineAnd:
		if !rbacAllowed() {
			return ErrForbidden
		}
		if !abacAllowed() {
			return ErrForbidden
		}
		return nil
	case CombineOr:
		if rbacAllowed() || abacAllowed() {
			return nil
		}
		return ErrForbidden
	case CombineRBACOnly:
		if rbacAllowed() {
			return nil
		}
		return ErrForbidden
	case CombineABACOnly:
		if abacAllowed() {
			return nil
		}
		return ErrForbidden
	default:
		return ErrForbidden
	}
}

// Can is the single-model ability check.
func (g *Gate) Can(p *Principal, action Action, subject Subject) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if g.abilities.For(p).Can(action, subject) {
		return nil
	}
	return ErrForbidden
}
