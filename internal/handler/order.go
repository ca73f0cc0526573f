package handler

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"hosting-storefront/internal/apperr"
	"hosting-storefront/internal/dto"
	"hosting-storefront/internal/identity"
	"hosting-storefront/internal/service"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	maxIdempotencyKeyLen = 128
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) CreateOrder(ctx context.Context, c echo.Context, subject *identity.Identity, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	key := strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))
	if len(key) > maxIdempotencyKeyLen {
		return nil, apperr.ValidationFailed(map[string]string{"idempotency_key": "Must be at most 128 characters"})
	}
	req.IdempotencyKey = key

	order, err := h.orderService.CreateOrder(ctx, subject, req)
	if err != nil {
		return nil, err
	}

	return &dto.CreateOrderResponse{Order: order}, nil
}
