package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hosting-storefront/internal/model"
)

type PaymentEventRepository interface {
	// MarkProcessed inserts the event and reports false when it was already recorded.
	MarkProcessed(ctx context.Context, eventID, provider string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, eventID string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type paymentEventRepoImpl struct {
	db *gorm.DB
}

func NewPaymentEventRepository(db *gorm.DB) PaymentEventRepository {
	return &paymentEventRepoImpl{db: db}
}

func (r *paymentEventRepoImpl) MarkProcessed(ctx context.Context, eventID, provider string, ttl time.Duration) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model.PaymentEvent{
		EventID:     eventID,
		Provider:    provider,
		ProcessedAt: now,
		ExpiresAt:   now.Add(ttl),
	})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *paymentEventRepoImpl) Delete(ctx context.Context, eventID string) error {
	return r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&model.PaymentEvent{}).Error
}

func (r *paymentEventRepoImpl) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&model.PaymentEvent{})

	return result.RowsAffected, result.Error
}
