package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hosting-storefront/internal/client"
	"hosting-storefront/internal/identity"
	"hosting-storefront/internal/mailer"
	"hosting-storefront/internal/model"
	"hosting-storefront/internal/payment"
)

var (
	alice = &identity.Identity{UserID: "user-alice", Email: "alice@example.com", Role: "authenticated"}
	bob   = &identity.Identity{UserID: "user-bob", Email: "bob@example.com", Role: "authenticated"}
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := client.NewDB(client.MemoryDatabase(), zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func count(t *testing.T, db *gorm.DB, m interface{}, query ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(m)
	if len(query) > 0 {
		q = q.Where(query[0], query[1:]...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func seedOrder(t *testing.T, db *gorm.DB, owner *identity.Identity, status model.OrderStatus) *model.Order {
	t.Helper()
	order := &model.Order{
		ID:           uuid.NewString(),
		UserID:       owner.UserID,
		AmountCents:  99900,
		Currency:     "INR",
		Status:       status,
		PlanTier:     "pro",
		BillingCycle: model.BillingCycleYearly,
	}
	require.NoError(t, db.Omit("Items").Create(order).Error)
	return order
}

// MockMailer records every dispatched message.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockProvider is a mock implementation of payment.Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	return "mockpay"
}

func (m *MockProvider) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (*payment.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Session), args.Error(1)
}

func (m *MockProvider) VerifyPayment(ctx context.Context, req payment.VerifyRequest) (*payment.Verification, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Verification), args.Error(1)
}
