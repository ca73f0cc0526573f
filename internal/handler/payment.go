package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"hosting-storefront/internal/dto"
	"hosting-storefront/internal/identity"
	"hosting-storefront/internal/service"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) CreateCheckout(ctx context.Context, _ echo.Context, subject *identity.Identity, req *dto.CreateCheckoutRequest) (*dto.CheckoutSession, error) {
	return h.paymentService.CreateCheckout(ctx, subject, req)
}

// VerifyPayment answers 200 for verified, pending and duplicate payments; a rejected
// payment comes back as a 402.
func (h *PaymentHandler) VerifyPayment(ctx context.Context, _ echo.Context, subject *identity.Identity, req *dto.VerifyPaymentRequest) (*dto.VerifyPaymentResponse, error) {
	return h.paymentService.VerifyPayment(ctx, subject, req)
}
