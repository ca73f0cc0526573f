package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"hosting-storefront/internal/dto"
	"hosting-storefront/internal/identity"
	"hosting-storefront/internal/service"
)

type ProvisioningHandler struct {
	provisioningService service.ProvisioningService
}

func NewProvisioningHandler(provisioningService service.ProvisioningService) *ProvisioningHandler {
	return &ProvisioningHandler{
		provisioningService: provisioningService,
	}
}

func (h *ProvisioningHandler) ProvisionHosting(ctx context.Context, _ echo.Context, subject *identity.Identity, req *dto.ProvisionHostingRequest) (*dto.ProvisionHostingResponse, error) {
	account, err := h.provisioningService.Provision(ctx, subject, req)
	if err != nil {
		return nil, err
	}

	return &dto.ProvisionHostingResponse{Account: account}, nil
}
