package service

import (
	"context"
	"fmt"

	"hosting-storefront/internal/apperr"
	"hosting-storefront/internal/identity"
	"hosting-storefront/internal/model"
	"hosting-storefront/internal/repository"
)

// AccountService answers the signed-in user's read-only queries.
type AccountService interface {
	ListOrders(ctx context.Context, subject *identity.Identity) ([]*model.Order, error)
	ListHostingAccounts(ctx context.Context, subject *identity.Identity) ([]*model.HostingAccount, error)
}

type accountServiceImpl struct {
	orderRepo   repository.OrderRepository
	accountRepo repository.HostingAccountRepository
}

func NewAccountService(
	orderRepo repository.OrderRepository,
	accountRepo repository.HostingAccountRepository,
) AccountService {
	return &accountServiceImpl{
		orderRepo:   orderRepo,
		accountRepo: accountRepo,
	}
}

func (s *accountServiceImpl) ListOrders(ctx context.Context, subject *identity.Identity) ([]*model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, subject.UserID)
	if err != nil {
		return nil, apperr.EffectFailed("", fmt.Errorf("list orders: %w", err))
	}
	return orders, nil
}

func (s *accountServiceImpl) ListHostingAccounts(ctx context.Context, subject *identity.Identity) ([]*model.HostingAccount, error) {
	accounts, err := s.accountRepo.ListByUser(ctx, subject.UserID)
	if err != nil {
		return nil, apperr.EffectFailed("", fmt.Errorf("list hosting accounts: %w", err))
	}
	return accounts, nil
}
