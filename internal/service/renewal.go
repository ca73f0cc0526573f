package service

import (
	"context"
	"fmt"
	"html"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hosting-storefront/internal/mailer"
	"hosting-storefront/internal/model"
	"hosting-storefront/internal/repository"
	"hosting-storefront/internal/telemetry"
)

type RenewalService interface {
	// SendReminders emails every account renewing within the window once and
	// returns how many reminders went out.
	SendReminders(ctx context.Context) (int, error)
}

type renewalServiceImpl struct {
	db           *gorm.DB
	accountRepo  repository.HostingAccountRepository
	emailLogRepo repository.EmailLogRepository
	auditRepo    repository.AuditLogRepository
	mailer       mailer.Mailer
	window       time.Duration
	sink         telemetry.Sink
	log          *zap.Logger
	now          func() time.Time
}

func NewRenewalService(
	db *gorm.DB,
	accountRepo repository.HostingAccountRepository,
	emailLogRepo repository.EmailLogRepository,
	auditRepo repository.AuditLogRepository,
	m mailer.Mailer,
	window time.Duration,
	sink telemetry.Sink,
	log *zap.Logger,
) RenewalService {
	return &renewalServiceImpl{
		db:           db,
		accountRepo:  accountRepo,
		emailLogRepo: emailLogRepo,
		auditRepo:    auditRepo,
		mailer:       m,
		window:       window,
		sink:         sink,
		log:          log,
		now:          time.Now,
	}
}

func (s *renewalServiceImpl) SendReminders(ctx context.Context) (int, error) {
	now := s.now()
	accounts, err := s.accountRepo.ListDueForRenewal(ctx, now.Add(s.window))
	if err != nil {
		return 0, fmt.Errorf("list accounts due for renewal: %w", err)
	}

	sent := 0
	for _, account := range accounts {
		if account.ContactEmail == "" {
			s.log.Warn("no contact email for renewal reminder", zap.String("account_id", account.ID))
			continue
		}

		if err := s.remind(ctx, account, now); err != nil {
			s.log.Error("renewal reminder failed", zap.String("account_id", account.ID), zap.Error(err))
			s.sink.CaptureError(ctx, err, map[string]any{"operation": "renewal_reminder", "account_id": account.ID})
			continue
		}
		sent++
	}

	s.log.Info("renewal reminders sent", zap.Int("due", len(accounts)), zap.Int("sent", sent))
	return sent, nil
}

func (s *renewalServiceImpl) remind(ctx context.Context, account *model.HostingAccount, now time.Time) error {
	msg := mailer.Message{
		To:      account.ContactEmail,
		Subject: fmt.Sprintf("Your %s hosting renews on %s", account.PlanTier, account.RenewsAt.Format("2 Jan 2006")),
		HTML: fmt.Sprintf("<p>Hello,</p><p>Your hosting account <strong>%s</strong> renews on %s.</p>",
			html.EscapeString(account.DisplayName), account.RenewsAt.Format("2 Jan 2006")),
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.accountRepo.MarkReminderSent(ctx, tx, account.ID, now); err != nil {
			return fmt.Errorf("mark reminder sent: %w", err)
		}

		entry, err := deliverEmail(ctx, tx, s.emailLogRepo, s.mailer, account.UserID, msg)
		if err != nil {
			return err
		}

		return writeAudit(ctx, tx, s.auditRepo, account.UserID, ActionRenewalReminderSent, map[string]interface{}{
			"account_id":   account.ID,
			"email_log_id": entry.ID,
			"renews_at":    account.RenewsAt,
		})
	})
}
