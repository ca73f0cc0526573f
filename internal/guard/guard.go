// Package guard decides whether a verified subject may act on a referenced resource.
package guard

import (
	"context"
	"errors"
	"fmt"

	"hosting-storefront/internal/apperr"
	"hosting-storefront/internal/identity"
	"hosting-storefront/internal/model"
	"hosting-storefront/internal/repository"
)

type OrderGuard struct {
	orders repository.OrderRepository
}

func NewOrderGuard(orders repository.OrderRepository) *OrderGuard {
	return &OrderGuard{orders: orders}
}

// Authorize returns the order when it exists and belongs to the subject.
// A missing order and a foreign order yield the same client-visible failure.
func (g *OrderGuard) Authorize(ctx context.Context, subject *identity.Identity, orderID string) (*model.Order, error) {
	order, err := g.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("order")
		}
		return nil, apperr.EffectFailed("", fmt.Errorf("load order: %w", err))
	}

	if order.UserID != subject.UserID {
		return nil, apperr.Forbidden("order not found or unauthorized")
	}
	return order, nil
}
