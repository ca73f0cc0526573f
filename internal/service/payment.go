package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hosting-storefront/internal/apperr"
	"hosting-storefront/internal/dto"
	"hosting-storefront/internal/guard"
	"hosting-storefront/internal/idempotency"
	"hosting-storefront/internal/identity"
	"hosting-storefront/internal/model"
	"hosting-storefront/internal/payment"
	"hosting-storefront/internal/repository"
	"hosting-storefront/internal/telemetry"
)

type PaymentService interface {
	CreateCheckout(ctx context.Context, subject *identity.Identity, req *dto.CreateCheckoutRequest) (*dto.CheckoutSession, error)
	VerifyPayment(ctx context.Context, subject *identity.Identity, req *dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error)
}

type paymentServiceImpl struct {
	db         *gorm.DB
	provider   payment.Provider
	orderGuard *guard.OrderGuard
	orderRepo  repository.OrderRepository
	auditRepo  repository.AuditLogRepository
	events     idempotency.Store
	sink       telemetry.Sink
	log        *zap.Logger
}

func NewPaymentService(
	db *gorm.DB,
	provider payment.Provider,
	orderGuard *guard.OrderGuard,
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditLogRepository,
	events idempotency.Store,
	sink telemetry.Sink,
	log *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		db:         db,
		provider:   provider,
		orderGuard: orderGuard,
		orderRepo:  orderRepo,
		auditRepo:  auditRepo,
		events:     events,
		sink:       sink,
		log:        log,
	}
}

func customerOf(subject *identity.Identity) payment.Customer {
	return payment.Customer{UserID: subject.UserID, Email: subject.Email}
}

func notAwaitingPayment(order *model.Order) error {
	return apperr.ValidationFailed(map[string]string{
		"order_id": fmt.Sprintf("Order is %s and cannot be paid", order.Status),
	})
}

func isPayable(status model.OrderStatus) bool {
	return status.CanTransition(model.OrderStatusPaid)
}

func (s *paymentServiceImpl) CreateCheckout(ctx context.Context, subject *identity.Identity, req *dto.CreateCheckoutRequest) (*dto.CheckoutSession, error) {
	order, err := s.orderGuard.Authorize(ctx, subject, req.OrderID)
	if err != nil {
		return nil, err
	}
	if !isPayable(order.Status) {
		return nil, notAwaitingPayment(order)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		Order:    order,
		Customer: customerOf(subject),
	})
	if err != nil {
		s.sink.CaptureError(ctx, err, map[string]any{"operation": "create_checkout", "provider": s.provider.Name()})
		return nil, effectErr(fmt.Errorf("create checkout session: %w", err))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.SaveGateway(ctx, tx, order.ID, s.provider.Name(), session.GatewayOrderID); err != nil {
			return fmt.Errorf("store gateway order: %w", err)
		}

		return writeAudit(ctx, tx, s.auditRepo, subject.UserID, ActionCheckoutCreated, map[string]interface{}{
			"order_id":         order.ID,
			"provider":         s.provider.Name(),
			"gateway_order_id": session.GatewayOrderID,
		})
	})
	if err != nil {
		return nil, apperr.EffectFailed("", err)
	}

	s.sink.Track(ctx, ActionCheckoutCreated, subject.UserID, map[string]any{"provider": s.provider.Name()})

	return &dto.CheckoutSession{
		Provider:       s.provider.Name(),
		OrderID:        order.ID,
		GatewayOrderID: session.GatewayOrderID,
		AmountCents:    order.AmountCents,
		Currency:       order.Currency,
		KeyID:          session.KeyID,
		RedirectURL:    session.RedirectURL,
		FormParams:     session.FormParams,
		ClientToken:    session.ClientToken,
		SessionID:      session.SessionID,
		UPIIntent:      session.UPIIntent,
	}, nil
}

// VerifyPayment settles the order from the gateway's verdict. Each gateway payment id is
// processed at most once; a repeat reports the order's current status.
func (s *paymentServiceImpl) VerifyPayment(ctx context.Context, subject *identity.Identity, req *dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error) {
	order, err := s.orderGuard.Authorize(ctx, subject, req.OrderID)
	if err != nil {
		return nil, err
	}

	if order.Status == model.OrderStatusPaid && order.GatewayPaymentID == req.GatewayPaymentID {
		return &dto.VerifyPaymentResponse{OrderID: order.ID, Status: order.Status, Duplicate: true}, nil
	}
	if !isPayable(order.Status) {
		return nil, notAwaitingPayment(order)
	}

	provider := s.provider.Name()
	claimed, err := s.events.MarkProcessed(ctx, provider, req.GatewayPaymentID)
	if err != nil {
		return nil, apperr.EffectFailed("", err)
	}
	if !claimed {
		current, err := s.orderRepo.FindByID(ctx, order.ID)
		if err != nil {
			return nil, apperr.EffectFailed("", fmt.Errorf("reload order: %w", err))
		}
		return &dto.VerifyPaymentResponse{OrderID: current.ID, Status: current.Status, Duplicate: true}, nil
	}

	verification, err := s.provider.VerifyPayment(ctx, payment.VerifyRequest{
		Order:              order,
		Customer:           customerOf(subject),
		GatewayOrderID:     req.GatewayOrderID,
		GatewayPaymentID:   req.GatewayPaymentID,
		Signature:          req.Signature,
		PaymentMethodNonce: req.PaymentMethodNonce,
		Status:             req.Status,
	})
	if err != nil {
		s.release(ctx, provider, req.GatewayPaymentID)
		s.sink.CaptureError(ctx, err, map[string]any{"operation": "verify_payment", "provider": provider})
		return nil, effectErr(fmt.Errorf("verify payment: %w", err))
	}

	switch verification.Outcome {
	case payment.OutcomePending:
		s.release(ctx, provider, req.GatewayPaymentID)
		return &dto.VerifyPaymentResponse{OrderID: order.ID, Status: order.Status, Pending: true}, nil

	case payment.OutcomeVerified:
		paymentID := verification.GatewayPaymentID
		if paymentID == "" {
			paymentID = req.GatewayPaymentID
		}
		current, changed, err := s.settle(ctx, subject, order, model.OrderStatusPaid, ActionPaymentVerified, map[string]interface{}{
			"order_id":           order.ID,
			"provider":           provider,
			"gateway_payment_id": paymentID,
			"amount_cents":       order.AmountCents,
		}, paymentID)
		if err != nil {
			s.release(ctx, provider, req.GatewayPaymentID)
			return nil, err
		}
		if !changed {
			// another verification settled the order first
			if current.GatewayPaymentID != paymentID {
				s.log.Warn("order already paid by another payment",
					zap.String("order_id", order.ID),
					zap.String("payment_id", paymentID),
					zap.String("settled_payment_id", current.GatewayPaymentID),
				)
				return nil, notAwaitingPayment(current)
			}
			return &dto.VerifyPaymentResponse{OrderID: current.ID, Status: current.Status, Duplicate: true}, nil
		}

		s.log.Info("payment verified", zap.String("order_id", order.ID), zap.String("provider", provider))
		s.sink.Track(ctx, ActionPaymentVerified, subject.UserID, map[string]any{"provider": provider})
		return &dto.VerifyPaymentResponse{OrderID: order.ID, Status: model.OrderStatusPaid}, nil

	default:
		_, changed, err := s.settle(ctx, subject, order, model.OrderStatusFailed, ActionPaymentFailed, map[string]interface{}{
			"order_id":           order.ID,
			"provider":           provider,
			"gateway_payment_id": req.GatewayPaymentID,
			"reason":             verification.Reason,
		}, "")
		if err != nil {
			s.release(ctx, provider, req.GatewayPaymentID)
			return nil, err
		}
		s.log.Warn("payment rejected",
			zap.String("order_id", order.ID),
			zap.String("provider", provider),
			zap.String("reason", verification.Reason),
		)
		if changed {
			s.sink.Track(ctx, ActionPaymentFailed, subject.UserID, map[string]any{"provider": provider})
		}
		return nil, apperr.PaymentRequired("payment verification failed: "+verification.Reason, nil)
	}
}

// settle moves the order to the target status and writes the audit entry in one transaction.
// When the locked order already holds the outcome it writes nothing and reports changed=false
// with the order as it stands.
func (s *paymentServiceImpl) settle(ctx context.Context, subject *identity.Identity, order *model.Order, to model.OrderStatus, action string, details map[string]interface{}, paymentID string) (*model.Order, bool, error) {
	var (
		current *model.Order
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		current, err = s.orderRepo.LockByID(ctx, tx, order.ID)
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}

		from := current.Status
		if from == to || (to == model.OrderStatusFailed && !from.CanTransition(to)) {
			return nil
		}
		if err := current.TransitionTo(to); err != nil {
			return notAwaitingPayment(current)
		}
		if err := s.orderRepo.UpdateStatus(ctx, tx, order.ID, []model.OrderStatus{from}, to, paymentID); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if paymentID != "" {
			current.GatewayPaymentID = paymentID
		}
		changed = true

		return writeAudit(ctx, tx, s.auditRepo, subject.UserID, action, details)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, apperr.NotFound("order")
		}
		return nil, false, effectErr(err)
	}
	return current, changed, nil
}

func (s *paymentServiceImpl) release(ctx context.Context, provider, paymentID string) {
	if err := s.events.Release(ctx, provider, paymentID); err != nil {
		s.log.Warn("release payment claim", zap.String("payment_id", paymentID), zap.Error(err))
	}
}
