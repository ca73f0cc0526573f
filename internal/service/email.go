package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hosting-storefront/internal/apperr"
	"hosting-storefront/internal/dto"
	"hosting-storefront/internal/identity"
	"hosting-storefront/internal/mailer"
	"hosting-storefront/internal/model"
	"hosting-storefront/internal/repository"
	"hosting-storefront/internal/telemetry"
)

type EmailService interface {
	Send(ctx context.Context, subject *identity.Identity, req *dto.SendEmailRequest) (*dto.SendEmailResponse, error)
}

type emailServiceImpl struct {
	db           *gorm.DB
	emailLogRepo repository.EmailLogRepository
	auditRepo    repository.AuditLogRepository
	mailer       mailer.Mailer
	policy       *bluemonday.Policy
	sink         telemetry.Sink
	log          *zap.Logger
}

func NewEmailService(
	db *gorm.DB,
	emailLogRepo repository.EmailLogRepository,
	auditRepo repository.AuditLogRepository,
	m mailer.Mailer,
	sink telemetry.Sink,
	log *zap.Logger,
) EmailService {
	return &emailServiceImpl{
		db:           db,
		emailLogRepo: emailLogRepo,
		auditRepo:    auditRepo,
		mailer:       m,
		policy:       bluemonday.UGCPolicy(),
		sink:         sink,
		log:          log,
	}
}

// Send strips active content from the body, then logs, audits and dispatches the
// message as one unit. A dispatch failure rolls the log entries back.
func (s *emailServiceImpl) Send(ctx context.Context, subject *identity.Identity, req *dto.SendEmailRequest) (*dto.SendEmailResponse, error) {
	html := s.policy.Sanitize(req.HTML)
	if strings.TrimSpace(html) == "" {
		return nil, apperr.ValidationFailed(map[string]string{"html": "Must contain content after sanitization"})
	}

	msg := mailer.Message{To: req.To, Subject: req.Subject, HTML: html}

	var entry *model.EmailLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = deliverEmail(ctx, tx, s.emailLogRepo, s.mailer, subject.UserID, msg)
		if err != nil {
			return err
		}

		return writeAudit(ctx, tx, s.auditRepo, subject.UserID, ActionEmailSent, map[string]interface{}{
			"email_log_id": entry.ID,
			"recipient":    msg.To,
			"subject":      msg.Subject,
			"sanitized":    html != req.HTML,
		})
	})
	if err != nil {
		s.sink.CaptureError(ctx, err, map[string]any{"operation": "send_email"})
		return nil, apperr.EffectFailed("", err)
	}

	s.sink.Track(ctx, ActionEmailSent, subject.UserID, nil)
	return &dto.SendEmailResponse{EmailLogID: entry.ID, Status: entry.Status}, nil
}

// deliverEmail records the log row and hands the message to the mailer inside tx.
func deliverEmail(ctx context.Context, tx *gorm.DB, emailLogs repository.EmailLogRepository, m mailer.Mailer, userID string, msg mailer.Message) (*model.EmailLog, error) {
	entry := &model.EmailLog{
		UserID:    userID,
		Recipient: msg.To,
		Subject:   msg.Subject,
		Status:    model.EmailStatusSent,
	}
	if err := emailLogs.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("store email log in db: %w", err)
	}

	if err := m.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("dispatch email: %w", err)
	}
	return entry, nil
}
