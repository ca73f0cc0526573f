package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hosting-storefront/internal/model"
)

var ErrNotFound = errors.New("record not found")

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []model.OrderItem) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*model.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Order, error)
	LockByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error)
	SaveGateway(ctx context.Context, tx *gorm.DB, orderID, provider, gatewayOrderID string) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, from []model.OrderStatus, to model.OrderStatus, gatewayPaymentID string) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	// items are inserted separately by CreateOrderItems
	return tx.WithContext(ctx).Omit("Items").Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, notFound(err)
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByIdempotencyKey(ctx context.Context, userID, key string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&order).Error
	if err != nil {
		return nil, notFound(err)
	}

	return &order, nil
}

func (r *orderRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}

// LockByID reads the order with a row lock where the dialect supports one.
func (r *orderRepoImpl) LockByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error) {
	var order model.Order
	q := tx.WithContext(ctx)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, notFound(err)
	}

	return &order, nil
}

func (r *orderRepoImpl) SaveGateway(ctx context.Context, tx *gorm.DB, orderID, provider, gatewayOrderID string) error {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, model.PayableStatuses()).
		Updates(map[string]interface{}{
			"payment_provider": provider,
			"gateway_order_id": gatewayOrderID,
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

// UpdateStatus moves the order to status `to` only while it is in one of the `from` states.
func (r *orderRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, from []model.OrderStatus, to model.OrderStatus, gatewayPaymentID string) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if gatewayPaymentID != "" {
		updates["gateway_payment_id"] = gatewayPaymentID
	}

	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
