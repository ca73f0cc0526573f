package repository

import (
	"context"

	"gorm.io/gorm"

	"hosting-storefront/internal/model"
)

type EmailLogRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *model.EmailLog) error
	CountByUser(ctx context.Context, userID string) (int64, error)
}

type emailLogRepoImpl struct {
	db *gorm.DB
}

func NewEmailLogRepository(db *gorm.DB) EmailLogRepository {
	return &emailLogRepoImpl{
		db: db,
	}
}

func (r *emailLogRepoImpl) Create(ctx context.Context, tx *gorm.DB, entry *model.EmailLog) error {
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *emailLogRepoImpl) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.EmailLog{}).
		Where("user_id = ?", userID).
		Count(&count).Error

	return count, err
}
