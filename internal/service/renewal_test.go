package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hosting-storefront/internal/mailer"
	"hosting-storefront/internal/model"
	"hosting-storefront/internal/repository"
	"hosting-storefront/internal/telemetry"
)

func seedAccount(t *testing.T, db *gorm.DB, email string, renewsAt time.Time) *model.HostingAccount {
	t.Helper()
	order := seedOrder(t, db, alice, model.OrderStatusPaid)
	account := &model.HostingAccount{
		ID:           uuid.NewString(),
		UserID:       alice.UserID,
		OrderID:      order.ID,
		DisplayName:  "<Alice's> site",
		PlanTier:     "pro",
		ContactEmail: email,
		Active:       true,
		RenewsAt:     renewsAt,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func TestSendReminders_OncePerAccount(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	due := seedAccount(t, db, alice.Email, now.Add(72*time.Hour))
	seedAccount(t, db, alice.Email, now.Add(30*24*time.Hour))
	seedAccount(t, db, "", now.Add(24*time.Hour))

	m := new(MockMailer)
	m.On("Send", mock.Anything, mock.Anything).Return(nil)

	svc := NewRenewalService(
		db,
		repository.NewHostingAccountRepository(db),
		repository.NewEmailLogRepository(db),
		repository.NewAuditLogRepository(db),
		m,
		7*24*time.Hour,
		telemetry.Nop{},
		zap.NewNop(),
	)
	svc.(*renewalServiceImpl).now = func() time.Time { return now }

	sent, err := svc.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	m.AssertNumberOfCalls(t, "Send", 1)
	msg := m.Calls[0].Arguments.Get(1).(mailer.Message)
	assert.Equal(t, alice.Email, msg.To)
	assert.Contains(t, msg.HTML, "&lt;Alice&#39;s&gt; site")

	var stored model.HostingAccount
	require.NoError(t, db.First(&stored, "id = ?", due.ID).Error)
	require.NotNil(t, stored.ReminderSentAt)

	assert.Equal(t, int64(1), count(t, db, &model.EmailLog{}))
	assert.Equal(t, int64(1), count(t, db, &model.AuditLog{}, "action = ?", ActionRenewalReminderSent))

	sent, err = svc.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	m.AssertNumberOfCalls(t, "Send", 1)
}

func TestSendReminders_OncePerRenewalDate(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	account := seedAccount(t, db, alice.Email, now.Add(48*time.Hour))

	m := new(MockMailer)
	m.On("Send", mock.Anything, mock.Anything).Return(nil)

	svc := NewRenewalService(
		db,
		repository.NewHostingAccountRepository(db),
		repository.NewEmailLogRepository(db),
		repository.NewAuditLogRepository(db),
		m,
		7*24*time.Hour,
		telemetry.Nop{},
		zap.NewNop(),
	)
	impl := svc.(*renewalServiceImpl)
	impl.now = func() time.Time { return now }

	sent, err := svc.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	// the account renews and its next cycle comes due a year later
	next := model.BillingCycleYearly.Next(account.RenewsAt)
	require.NoError(t, db.Model(&model.HostingAccount{}).Where("id = ?", account.ID).Update("renews_at", next).Error)
	impl.now = func() time.Time { return next.Add(-72 * time.Hour) }

	sent, err = svc.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	sent, err = svc.SendReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	m.AssertNumberOfCalls(t, "Send", 2)
	assert.Equal(t, int64(2), count(t, db, &model.AuditLog{}, "action = ?", ActionRenewalReminderSent))

	var stored model.HostingAccount
	require.NoError(t, db.First(&stored, "id = ?", account.ID).Error)
	require.NotNil(t, stored.ReminderFor)
	assert.True(t, stored.ReminderFor.Equal(next))
}
