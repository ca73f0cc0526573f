package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hosting-storefront/internal/apperr"
	"hosting-storefront/internal/model"
	"hosting-storefront/internal/repository"
)

// Audit actions.
const (
	ActionOrderCreated        = "order.created"
	ActionHostingProvisioned  = "hosting.provisioned"
	ActionEmailSent           = "email.sent"
	ActionCheckoutCreated     = "payment.checkout_created"
	ActionPaymentVerified     = "payment.verified"
	ActionPaymentFailed       = "payment.failed"
	ActionRenewalReminderSent = "renewal.reminder_sent"
)

const maxMinorUnits int64 = 1 << 50

func writeAudit(ctx context.Context, tx *gorm.DB, audits repository.AuditLogRepository, userID, action string, details map[string]interface{}) error {
	if err := audits.Create(ctx, tx, &model.AuditLog{
		UserID:  userID,
		Action:  action,
		Details: datatypes.JSONMap(details),
	}); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// effectErr keeps already classified errors and wraps the rest as EffectFailed.
func effectErr(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.EffectFailed("", err)
}

// toMinorUnits converts a major-unit amount to cents, rounding half away from zero.
func toMinorUnits(amount float64) (int64, bool) {
	cents := decimal.NewFromFloat(amount).Shift(2).Round(0)
	if cents.GreaterThan(decimal.NewFromInt(maxMinorUnits)) {
		return 0, false
	}
	return cents.IntPart(), true
}

func majorUnits(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
