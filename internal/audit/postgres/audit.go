package postgres

import (
	"context"

	"gorm.io/gorm"

	auditDatamodel "github.com/frahmantamala/healthrecord-management/internal/core/datamodel/audit"
)

// Repository appends audit rows. There is deliberately no update or delete.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, row *auditDatamodel.AuditLog) error {
	return r.db.WithContext(ctx).Create(row).Error
}
