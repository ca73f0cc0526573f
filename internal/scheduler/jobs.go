package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"hosting-storefront/internal/repository"
	"hosting-storefront/internal/service"
)

func RenewalReminders(renewals service.RenewalService) Job {
	return func(ctx context.Context) error {
		if _, err := renewals.SendReminders(ctx); err != nil {
			return fmt.Errorf("send renewal reminders: %w", err)
		}
		return nil
	}
}

// PurgePaymentEvents drops dedupe records past their expiry.
func PurgePaymentEvents(events repository.PaymentEventRepository, log *zap.Logger) Job {
	return func(ctx context.Context) error {
		n, err := events.PurgeExpired(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("purge payment events: %w", err)
		}
		if n > 0 {
			log.Info("expired payment events purged", zap.Int64("count", n))
		}
		return nil
	}
}
