package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hosting-storefront/internal/apperr"
	"hosting-storefront/internal/dto"
	"hosting-storefront/internal/model"
	"hosting-storefront/internal/repository"
	"hosting-storefront/internal/telemetry"
)

func newOrderService(db *gorm.DB) OrderService {
	return NewOrderService(db, repository.NewOrderRepository(db), repository.NewAuditLogRepository(db), telemetry.Nop{}, zap.NewNop())
}

func twoItemOrder() *dto.CreateOrderRequest {
	return &dto.CreateOrderRequest{
		Items: []dto.Item{
			{ServiceID: "shared-hosting", Name: "Shared hosting", Quantity: 2, UnitPrice: 500},
			{ServiceID: "ssl", Name: "SSL certificate", Quantity: 1, UnitPrice: 300},
		},
		Amount:   1300,
		Currency: "INR",
	}
}

func TestCreateOrder_WritesOrderItemsAndAudit(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db)

	order, err := svc.CreateOrder(context.Background(), alice, twoItemOrder())
	require.NoError(t, err)

	assert.Equal(t, int64(130000), order.AmountCents)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, alice.UserID, order.UserID)
	assert.Equal(t, model.BillingCycleMonthly, order.BillingCycle)

	assert.Equal(t, int64(1), count(t, db, &model.Order{}))
	assert.Equal(t, int64(2), count(t, db, &model.OrderItem{}, "order_id = ?", order.ID))
	assert.Equal(t, int64(1), count(t, db, &model.AuditLog{}, "action = ?", ActionOrderCreated))

	var items []model.OrderItem
	require.NoError(t, db.Where("order_id = ?", order.ID).Order("id").Find(&items).Error)
	assert.Equal(t, int64(100000), items[0].TotalPriceCents)
	assert.Equal(t, int64(30000), items[1].TotalPriceCents)
}

func TestCreateOrder_WithoutKeyIsNotIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db)

	first, err := svc.CreateOrder(context.Background(), alice, twoItemOrder())
	require.NoError(t, err)
	second, err := svc.CreateOrder(context.Background(), alice, twoItemOrder())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, int64(2), count(t, db, &model.Order{}))
}

func TestCreateOrder_IdempotencyKeyReturnsOriginal(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db)

	req := twoItemOrder()
	req.IdempotencyKey = "cart-7f3a"

	first, err := svc.CreateOrder(context.Background(), alice, req)
	require.NoError(t, err)
	second, err := svc.CreateOrder(context.Background(), alice, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(1), count(t, db, &model.Order{}))
	assert.Equal(t, int64(1), count(t, db, &model.AuditLog{}))

	// keys are scoped per user
	other, err := svc.CreateOrder(context.Background(), bob, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestCreateOrder_ForeignUserIDIsForbidden(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db)

	req := twoItemOrder()
	req.UserID = bob.UserID

	_, err := svc.CreateOrder(context.Background(), alice, req)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
	assert.Equal(t, int64(0), count(t, db, &model.Order{}))
	assert.Equal(t, int64(0), count(t, db, &model.AuditLog{}))

	req.UserID = alice.UserID
	_, err = svc.CreateOrder(context.Background(), alice, req)
	assert.NoError(t, err)
}

func TestCreateOrder_AmountMustMatchItems(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db)

	req := twoItemOrder()
	req.Amount = 1200

	_, err := svc.CreateOrder(context.Background(), alice, req)
	require.True(t, apperr.IsKind(err, apperr.KindValidationFailed))

	fields := apperr.From(err).Details.(map[string]string)
	assert.Equal(t, "Must equal the sum of item totals (1300.00)", fields["amount"])
	assert.Equal(t, int64(0), count(t, db, &model.Order{}))
}

func TestCreateOrder_FractionalPrices(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db)

	order, err := svc.CreateOrder(context.Background(), alice, &dto.CreateOrderRequest{
		Items:    []dto.Item{{ServiceID: "domain", Name: "Domain", Quantity: 3, UnitPrice: 0.1}},
		Amount:   0.3,
		Currency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(30), order.AmountCents)
}

func TestCreateOrder_RollsBackWhenAuditFails(t *testing.T) {
	db := newTestDB(t)
	svc := newOrderService(db)

	require.NoError(t, db.Migrator().DropTable(&model.AuditLog{}))

	_, err := svc.CreateOrder(context.Background(), alice, twoItemOrder())
	assert.True(t, apperr.IsKind(err, apperr.KindEffectFailed))
	assert.Equal(t, int64(0), count(t, db, &model.Order{}))
	assert.Equal(t, int64(0), count(t, db, &model.OrderItem{}))
}
