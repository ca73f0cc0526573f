package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"hosting-storefront/internal/dto"
	"hosting-storefront/internal/identity"
	"hosting-storefront/internal/service"
)

type EmailHandler struct {
	emailService service.EmailService
}

func NewEmailHandler(emailService service.EmailService) *EmailHandler {
	return &EmailHandler{
		emailService: emailService,
	}
}

func (h *EmailHandler) SendEmail(ctx context.Context, _ echo.Context, subject *identity.Identity, req *dto.SendEmailRequest) (*dto.SendEmailResponse, error) {
	return h.emailService.Send(ctx, subject, req)
}
