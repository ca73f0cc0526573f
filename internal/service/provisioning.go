package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hosting-storefront/internal/apperr"
	"hosting-storefront/internal/dto"
	"hosting-storefront/internal/guard"
	"hosting-storefront/internal/identity"
	"hosting-storefront/internal/model"
	"hosting-storefront/internal/repository"
	"hosting-storefront/internal/telemetry"
)

type ProvisioningService interface {
	Provision(ctx context.Context, subject *identity.Identity, req *dto.ProvisionHostingRequest) (*model.HostingAccount, error)
}

type provisioningServiceImpl struct {
	db          *gorm.DB
	orderGuard  *guard.OrderGuard
	accountRepo repository.HostingAccountRepository
	auditRepo   repository.AuditLogRepository
	sink        telemetry.Sink
	log         *zap.Logger
	now         func() time.Time
}

func NewProvisioningService(
	db *gorm.DB,
	orderGuard *guard.OrderGuard,
	accountRepo repository.HostingAccountRepository,
	auditRepo repository.AuditLogRepository,
	sink telemetry.Sink,
	log *zap.Logger,
) ProvisioningService {
	return &provisioningServiceImpl{
		db:          db,
		orderGuard:  orderGuard,
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
		sink:        sink,
		log:         log,
		now:         time.Now,
	}
}

// Provision creates the hosting account for a paid order owned by the subject.
// Each order provisions at most one account; repeats return the existing one.
func (s *provisioningServiceImpl) Provision(ctx context.Context, subject *identity.Identity, req *dto.ProvisionHostingRequest) (*model.HostingAccount, error) {
	order, err := s.orderGuard.Authorize(ctx, subject, req.OrderID)
	if err != nil {
		return nil, err
	}

	if order.Status != model.OrderStatusPaid {
		return nil, apperr.PaymentRequired("order "+order.ID+" is not paid", nil)
	}
	if order.PlanTier != "" && order.PlanTier != req.Plan {
		return nil, apperr.ValidationFailed(map[string]string{"plan": "Must match the ordered plan: " + order.PlanTier})
	}

	now := s.now()
	account := &model.HostingAccount{
		ID:           uuid.NewString(),
		UserID:       subject.UserID,
		OrderID:      order.ID,
		DisplayName:  displayName(req),
		Domain:       strings.ToLower(req.Domain),
		PlanTier:     req.Plan,
		ContactEmail: subject.Email,
		Active:       true,
		RenewsAt:     order.BillingCycle.Next(now),
	}

	var created bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.accountRepo.FindByOrderID(ctx, tx, order.ID)
		if err == nil {
			account = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("look up hosting account: %w", err)
		}

		created, err = s.accountRepo.CreateOnce(ctx, tx, account)
		if err != nil {
			return fmt.Errorf("store hosting account in db: %w", err)
		}
		if !created {
			existing, err := s.accountRepo.FindByOrderID(ctx, tx, order.ID)
			if err != nil {
				return fmt.Errorf("reload hosting account: %w", err)
			}
			account = existing
			return nil
		}

		return writeAudit(ctx, tx, s.auditRepo, subject.UserID, ActionHostingProvisioned, map[string]interface{}{
			"order_id":   order.ID,
			"account_id": account.ID,
			"plan":       account.PlanTier,
			"domain":     account.Domain,
		})
	})
	if err != nil {
		s.sink.CaptureError(ctx, err, map[string]any{"operation": "provision_hosting"})
		return nil, apperr.EffectFailed("", err)
	}

	if created {
		s.log.Info("hosting provisioned",
			zap.String("account_id", account.ID),
			zap.String("order_id", order.ID),
			zap.String("user_id", subject.UserID),
		)
		s.sink.Track(ctx, ActionHostingProvisioned, subject.UserID, map[string]any{
			"order_id": order.ID,
			"plan":     account.PlanTier,
		})
	}

	return account, nil
}

func displayName(req *dto.ProvisionHostingRequest) string {
	if name := strings.TrimSpace(req.DisplayName); name != "" {
		return name
	}
	if req.Domain != "" {
		return strings.ToLower(req.Domain)
	}
	return strings.ToUpper(req.Plan[:1]) + req.Plan[1:] + " hosting"
}
