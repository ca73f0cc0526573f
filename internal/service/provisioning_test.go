package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hosting-storefront/internal/apperr"
	"hosting-storefront/internal/dto"
	"hosting-storefront/internal/guard"
	"hosting-storefront/internal/model"
	"hosting-storefront/internal/repository"
	"hosting-storefront/internal/telemetry"
)

func newProvisioningService(db *gorm.DB, now time.Time) ProvisioningService {
	svc := NewProvisioningService(
		db,
		guard.NewOrderGuard(repository.NewOrderRepository(db)),
		repository.NewHostingAccountRepository(db),
		repository.NewAuditLogRepository(db),
		telemetry.Nop{},
		zap.NewNop(),
	)
	svc.(*provisioningServiceImpl).now = func() time.Time { return now }
	return svc
}

func TestProvision_PaidOrderCreatesAccount(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newProvisioningService(db, now)
	order := seedOrder(t, db, alice, model.OrderStatusPaid)

	account, err := svc.Provision(context.Background(), alice, &dto.ProvisionHostingRequest{
		OrderID: order.ID,
		Plan:    "pro",
		Domain:  "Shop.Example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, alice.UserID, account.UserID)
	assert.Equal(t, order.ID, account.OrderID)
	assert.Equal(t, "shop.example.com", account.Domain)
	assert.Equal(t, "shop.example.com", account.DisplayName)
	assert.Equal(t, alice.Email, account.ContactEmail)
	assert.True(t, account.Active)
	assert.True(t, now.AddDate(1, 0, 0).Equal(account.RenewsAt))

	assert.Equal(t, int64(1), count(t, db, &model.HostingAccount{}))
	assert.Equal(t, int64(1), count(t, db, &model.AuditLog{}, "action = ?", ActionHostingProvisioned))
}

func TestProvision_RepeatReturnsSameAccount(t *testing.T) {
	db := newTestDB(t)
	svc := newProvisioningService(db, time.Now())
	order := seedOrder(t, db, alice, model.OrderStatusPaid)
	req := &dto.ProvisionHostingRequest{OrderID: order.ID, Plan: "pro"}

	first, err := svc.Provision(context.Background(), alice, req)
	require.NoError(t, err)
	second, err := svc.Provision(context.Background(), alice, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Pro hosting", second.DisplayName)
	assert.Equal(t, int64(1), count(t, db, &model.HostingAccount{}))
	assert.Equal(t, int64(1), count(t, db, &model.AuditLog{}))
}

func TestProvision_ForeignOrderIsForbidden(t *testing.T) {
	db := newTestDB(t)
	svc := newProvisioningService(db, time.Now())
	order := seedOrder(t, db, bob, model.OrderStatusPaid)

	_, err := svc.Provision(context.Background(), alice, &dto.ProvisionHostingRequest{OrderID: order.ID, Plan: "pro"})
	require.Error(t, err)
	assert.Equal(t, 403, apperr.From(err).Status())
	assert.Equal(t, int64(0), count(t, db, &model.HostingAccount{}))
	assert.Equal(t, int64(0), count(t, db, &model.AuditLog{}))
}

func TestProvision_MissingOrderLooksForbidden(t *testing.T) {
	db := newTestDB(t)
	svc := newProvisioningService(db, time.Now())

	_, err := svc.Provision(context.Background(), alice, &dto.ProvisionHostingRequest{
		OrderID: "1b4e28ba-2fa1-11d2-883f-0016d3cca427",
		Plan:    "pro",
	})
	require.Error(t, err)
	assert.Equal(t, 403, apperr.From(err).Status())
	assert.Contains(t, apperr.From(err).PublicMessage(), "not found or unauthorized")
}

func TestProvision_UnpaidOrderRequiresPayment(t *testing.T) {
	db := newTestDB(t)
	svc := newProvisioningService(db, time.Now())

	for _, status := range []model.OrderStatus{model.OrderStatusPending, model.OrderStatusFailed} {
		order := seedOrder(t, db, alice, status)
		_, err := svc.Provision(context.Background(), alice, &dto.ProvisionHostingRequest{OrderID: order.ID, Plan: "pro"})
		assert.True(t, apperr.IsKind(err, apperr.KindPaymentRequired), status)
	}
	assert.Equal(t, int64(0), count(t, db, &model.HostingAccount{}))
}

func TestProvision_PlanMustMatchOrder(t *testing.T) {
	db := newTestDB(t)
	svc := newProvisioningService(db, time.Now())
	order := seedOrder(t, db, alice, model.OrderStatusPaid)

	_, err := svc.Provision(context.Background(), alice, &dto.ProvisionHostingRequest{OrderID: order.ID, Plan: "business"})
	require.True(t, apperr.IsKind(err, apperr.KindValidationFailed))
	assert.Contains(t, apperr.From(err).Details.(map[string]string), "plan")
}
