package repository

import (
	"context"

	"gorm.io/gorm"

	"hosting-storefront/internal/model"
)

// AuditLogRepository has no update or delete: audit rows are append-only.
type AuditLogRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *model.AuditLog) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.AuditLog, error)
}

type auditLogRepoImpl struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepoImpl{
		db: db,
	}
}

func (r *auditLogRepoImpl) Create(ctx context.Context, tx *gorm.DB, entry *model.AuditLog) error {
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *auditLogRepoImpl) ListByUser(ctx context.Context, userID string, limit int) ([]*model.AuditLog, error) {
	var entries []*model.AuditLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}
