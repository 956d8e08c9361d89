package auth

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/healthrecord-management/internal"
	"github.com/frahmantamala/healthrecord-management/internal/authz"
)

// TokenValidator is the slice of the token service the resolver needs.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*Claims, error)
}

// Resolver turns a raw session token into an enriched principal. Every
// external lookup after token validation is a best-effort enrichment step:
// failures there degrade toward the most restrictive safe default instead of
// failing the request.
type Resolver struct {
	tokens        TokenValidator
	repo          RepositoryAPI
	catalog       *authz.Catalog
	lookupTimeout time.Duration
	logger        *slog.Logger
}

func NewResolver(tokens TokenValidator, repo RepositoryAPI, catalog *authz.Catalog, lookupTimeout time.Duration, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		tokens:        tokens,
		repo:          repo,
		catalog:       catalog,
		lookupTimeout: lookupTimeout,
		logger:        logger,
	}
}

// Resolve validates the token and builds the per-request principal. The only
// terminal failure is an invalid or expired token; everything downstream
// degrades.
func (rs *Resolver) Resolve(ctx context.Context, token string) (*authz.Principal, error) {
	claims, err := rs.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	principal := &authz.Principal{
		ID:    claims.UserID,
		Email: claims.Email,
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		rs.logger.Warn("token carries non-numeric user id, skipping enrichment",
			"user_id", claims.UserID, "error", err)
		return rs.withRole(ctx, principal, 0), nil
	}

	rs.enrichFromUserRecord(ctx, principal, userID, claims.Email)
	return rs.withRole(ctx, principal, userID), nil
}

// enrichFromUserRecord recovers attributes the token does not carry. A failed
// lookup leaves the token-derived fields as-is.
func (rs *Resolver) enrichFromUserRecord(ctx context.Context, principal *authz.Principal, userID int64, assertedEmail string) {
	lookupCtx, cancel := internal.WithTimeout(ctx, rs.lookupTimeout)
	defer cancel()

	user, err := rs.repo.FindUserByID(lookupCtx, userID)
	if err != nil {
		rs.logger.Warn("user enrichment lookup failed, using token fields",
			"user_id", userID, "error", err)
		return
	}

	principal.Department = user.Department
	principal.Location = user.Location

	// Best-effort writeback: the token's email casing wins. Last writer wins
	// across concurrent logins; the end state is stable either way.
	if user.Email != assertedEmail && strings.EqualFold(user.Email, assertedEmail) {
		if err := rs.repo.UpdateEmailCasing(lookupCtx, userID, assertedEmail); err != nil {
			rs.logger.Warn("email casing update failed",
				"user_id", userID, "error", err)
		}
	}
}

// withRole resolves the single honored role assignment and its permission
// grants. Missing or failed lookups assign the default role; this path must
// never error.
func (rs *Resolver) withRole(ctx context.Context, principal *authz.Principal, userID int64) *authz.Principal {
	lookupCtx, cancel := internal.WithTimeout(ctx, rs.lookupTimeout)
	defer cancel()

	role, err := rs.repo.FindRoleAssignment(lookupCtx, userID)
	if err != nil || role == nil {
		if err != nil {
			rs.logger.Warn("role lookup failed, assigning default role",
				"user_id", userID,
				"default_role", authz.DefaultRole,
				"error", err)
		} else {
			// No assignment on record: make sure the fallback role row
			// exists so a later assignment has something to point at.
			if _, ensureErr := rs.repo.EnsureRole(lookupCtx, authz.DefaultRole); ensureErr != nil {
				rs.logger.Warn("default role creation failed",
					"role", authz.DefaultRole, "error", ensureErr)
			}
		}
		principal.Role = authz.DefaultRole
		principal.Permissions = rs.catalog.PermissionsForRole(authz.DefaultRole)
		return principal
	}

	principal.Role = authz.RoleName(role.Name)

	perms, err := rs.repo.FindRolePermissions(lookupCtx, role.ID)
	if err != nil || len(perms) == 0 {
		if err != nil {
			rs.logger.Warn("role permission lookup failed, falling back to catalog",
				"role", role.Name, "error", err)
		}
		principal.Permissions = rs.catalog.PermissionsForRole(principal.Role)
		return principal
	}

	principal.Permissions = perms
	return principal
}
