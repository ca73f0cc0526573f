package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"hosting-storefront/internal/apperr"
	"hosting-storefront/internal/dto"
	"hosting-storefront/internal/middleware"
	"hosting-storefront/internal/service"
)

type AccountHandler struct {
	accountService service.AccountService
}

func NewAccountHandler(accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

func (h *AccountHandler) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()

	subject := middleware.IdentityFrom(c)
	if subject == nil {
		return apperr.Unauthenticated("", nil)
	}

	orders, err := h.accountService.ListOrders(ctx, subject)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.Response{Success: true, Data: dto.ListOrdersResponse{Orders: orders}})
}

func (h *AccountHandler) ListHostingAccounts(c echo.Context) error {
	ctx := c.Request().Context()

	subject := middleware.IdentityFrom(c)
	if subject == nil {
		return apperr.Unauthenticated("", nil)
	}

	accounts, err := h.accountService.ListHostingAccounts(ctx, subject)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.Response{Success: true, Data: dto.ListAccountsResponse{Accounts: accounts}})
}
