package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hosting-storefront/internal/model"
)

type HostingAccountRepository interface {
	// CreateOnce inserts the account unless one already exists for its order.
	// It reports whether a row was written.
	CreateOnce(ctx context.Context, tx *gorm.DB, account *model.HostingAccount) (bool, error)
	FindByOrderID(ctx context.Context, tx *gorm.DB, orderID string) (*model.HostingAccount, error)
	ListByUser(ctx context.Context, userID string) ([]*model.HostingAccount, error)
	ListDueForRenewal(ctx context.Context, before time.Time) ([]*model.HostingAccount, error)
	MarkReminderSent(ctx context.Context, tx *gorm.DB, accountID string, at time.Time) error
}

type hostingAccountRepoImpl struct {
	db *gorm.DB
}

func NewHostingAccountRepository(db *gorm.DB) HostingAccountRepository {
	return &hostingAccountRepoImpl{
		db: db,
	}
}

func (r *hostingAccountRepoImpl) CreateOnce(ctx context.Context, tx *gorm.DB, account *model.HostingAccount) (bool, error) {
	result := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoNothing: true,
	}).Create(account)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *hostingAccountRepoImpl) FindByOrderID(ctx context.Context, tx *gorm.DB, orderID string) (*model.HostingAccount, error) {
	var account model.HostingAccount
	err := tx.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&account).Error
	if err != nil {
		return nil, notFound(err)
	}

	return &account, nil
}

func (r *hostingAccountRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.HostingAccount, error) {
	var accounts []*model.HostingAccount
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

const notReminded = "(reminder_for IS NULL OR reminder_for <> renews_at)"

// ListDueForRenewal returns active accounts renewing before the cutoff that have not been
// reminded about their current renewal date.
func (r *hostingAccountRepoImpl) ListDueForRenewal(ctx context.Context, before time.Time) ([]*model.HostingAccount, error) {
	var accounts []*model.HostingAccount
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("renews_at <= ?", before).
		Where(notReminded).
		Order("renews_at").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *hostingAccountRepoImpl) MarkReminderSent(ctx context.Context, tx *gorm.DB, accountID string, at time.Time) error {
	result := tx.WithContext(ctx).Model(&model.HostingAccount{}).
		Where("id = ?", accountID).
		Where(notReminded).
		Updates(map[string]interface{}{
			"reminder_sent_at": at,
			"reminder_for":     gorm.Expr("renews_at"),
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
