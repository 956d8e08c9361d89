package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/frahmantamala/healthrecord-management/internal/authz"
	rbacDatamodel "github.com/frahmantamala/healthrecord-management/internal/core/datamodel/rbac"
	userDatamodel "github.com/frahmantamala/healthrecord-management/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetPasswordForUsername(email string) (string, string, error) {
	var passwordHash string
	var userID string
	query := `SELECT id, password_hash FROM users WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", fmt.Errorf("user not found")
		}
		return "", "", err
	}
	return passwordHash, userID, nil
}

func (r *Repository) FindUserByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var user userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d not found", id)
		}
		return nil, err
	}
	return &user, nil
}

// FindRoleAssignment returns the single honored role for the user. The join
// table allows several rows historically, so the earliest assignment wins.
func (r *Repository) FindRoleAssignment(ctx context.Context, userID int64) (*rbacDatamodel.Role, error) {
	var role rbacDatamodel.Role
	query := `SELECT r.id, r.name, r.guard_name, r.created_at
	          FROM roles r
	          JOIN user_roles ur ON ur.role_id = r.id
	          WHERE ur.user_id = ?
	          ORDER BY ur.id
	          LIMIT 1`

	row := r.db.WithContext(ctx).Raw(query, userID).Row()
	if err := row.Scan(&role.ID, &role.Name, &role.GuardName, &role.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *Repository) FindRolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	query := `SELECT p.name
	          FROM permissions p
	          JOIN role_permissions rp ON rp.permission_id = p.id
	          WHERE rp.role_id = ?`

	rows, err := r.db.WithContext(ctx).Raw(query, roleID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		permissions = append(permissions, name)
	}
	return permissions, rows.Err()
}

// UpdateEmailCasing rewrites the stored email with the token-asserted casing.
// Non-transactional by design of the caller; last writer wins.
func (r *Repository) UpdateEmailCasing(ctx context.Context, userID int64, email string) error {
	return r.db.WithContext(ctx).
		Exec(`UPDATE users SET email = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, email, userID).Error
}

// EnsureRole creates the named role if it does not exist yet. Roles are never
// deleted at runtime.
func (r *Repository) EnsureRole(ctx context.Context, name authz.RoleName) (*rbacDatamodel.Role, error) {
	var role rbacDatamodel.Role
	err := r.db.WithContext(ctx).
		Where(rbacDatamodel.Role{Name: string(name)}).
		Attrs(rbacDatamodel.Role{GuardName: "api"}).
		FirstOrCreate(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}
