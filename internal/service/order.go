package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hosting-storefront/internal/apperr"
	"hosting-storefront/internal/dto"
	"hosting-storefront/internal/identity"
	"hosting-storefront/internal/model"
	"hosting-storefront/internal/repository"
	"hosting-storefront/internal/telemetry"
)

type OrderService interface {
	CreateOrder(ctx context.Context, subject *identity.Identity, req *dto.CreateOrderRequest) (*model.Order, error)
}

type orderServiceImpl struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	auditRepo repository.AuditLogRepository
	sink      telemetry.Sink
	log       *zap.Logger
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditLogRepository,
	sink telemetry.Sink,
	log *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		db:        db,
		orderRepo: orderRepo,
		auditRepo: auditRepo,
		sink:      sink,
		log:       log,
	}
}

// CreateOrder writes a pending order, its items and the audit entry as one unit.
// With an idempotency key a repeated request returns the order created first.
func (s *orderServiceImpl) CreateOrder(ctx context.Context, subject *identity.Identity, req *dto.CreateOrderRequest) (*model.Order, error) {
	if err := identity.EnsureSubject(subject, req.UserID); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.orderRepo.FindByIdempotencyKey(ctx, subject.UserID, req.IdempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.EffectFailed("", fmt.Errorf("look up idempotency key: %w", err))
		}
	}

	order, err := s.buildOrder(subject.UserID, req)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}

		if err := s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
			return fmt.Errorf("store order items in db: %w", err)
		}

		return writeAudit(ctx, tx, s.auditRepo, subject.UserID, ActionOrderCreated, map[string]interface{}{
			"order_id":     order.ID,
			"amount_cents": order.AmountCents,
			"currency":     order.Currency,
			"item_count":   len(order.Items),
		})
	})
	if err != nil {
		if req.IdempotencyKey != "" && errors.Is(err, gorm.ErrDuplicatedKey) {
			// a concurrent request with the same key won the insert
			if existing, findErr := s.orderRepo.FindByIdempotencyKey(ctx, subject.UserID, req.IdempotencyKey); findErr == nil {
				return existing, nil
			}
		}
		s.sink.CaptureError(ctx, err, map[string]any{"operation": "create_order"})
		return nil, apperr.EffectFailed("", err)
	}

	s.log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", subject.UserID),
		zap.Int64("amount_cents", order.AmountCents),
	)
	s.sink.Track(ctx, ActionOrderCreated, subject.UserID, map[string]any{
		"order_id":     order.ID,
		"amount_cents": order.AmountCents,
	})

	return order, nil
}

func (s *orderServiceImpl) buildOrder(userID string, req *dto.CreateOrderRequest) (*model.Order, error) {
	amountCents, ok := toMinorUnits(req.Amount)
	if !ok {
		return nil, apperr.ValidationFailed(map[string]string{"amount": "Amount is too large"})
	}

	billingCycle := model.BillingCycle(req.BillingCycle)
	if billingCycle == "" {
		billingCycle = model.BillingCycleMonthly
	}

	order := &model.Order{
		ID:           uuid.NewString(),
		UserID:       userID,
		AmountCents:  amountCents,
		Currency:     req.Currency,
		Status:       model.OrderStatusPending,
		PlanTier:     req.PlanTier,
		BillingCycle: billingCycle,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		order.IdempotencyKey = &key
	}

	fields := map[string]string{}
	var itemsTotal int64
	for i, item := range req.Items {
		unitCents, ok := toMinorUnits(item.UnitPrice)
		if !ok || unitCents <= 0 {
			fields["items["+strconv.Itoa(i)+"].unit_price"] = "Must be at least 0.01"
			continue
		}
		orderItem := model.NewOrderItem(order.ID, item.ServiceID, item.Name, item.Quantity, unitCents)
		itemsTotal += orderItem.TotalPriceCents
		order.Items = append(order.Items, orderItem)
	}
	if len(fields) > 0 {
		return nil, apperr.ValidationFailed(fields)
	}

	if itemsTotal != amountCents {
		return nil, apperr.ValidationFailed(map[string]string{
			"amount": fmt.Sprintf("Must equal the sum of item totals (%s)", majorUnits(itemsTotal)),
		})
	}

	return order, nil
}
