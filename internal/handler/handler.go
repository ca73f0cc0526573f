// Package handler runs each request through the endpoint pipeline and renders
// every outcome in the response envelope.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"hosting-storefront/internal/apperr"
	"hosting-storefront/internal/dto"
	"hosting-storefront/internal/identity"
	"hosting-storefront/internal/middleware"
	"hosting-storefront/internal/validation"
)

type Pipeline struct {
	validator *validation.Validator
	resolver  identity.Resolver
}

func NewPipeline(v *validation.Validator, resolver identity.Resolver) *Pipeline {
	return &Pipeline{validator: v, resolver: resolver}
}

// Action is the authorized effect of an endpoint. It runs only after the caller
// authenticated and the body validated.
type Action[Req any, Res any] func(ctx context.Context, c echo.Context, subject *identity.Identity, req *Req) (Res, error)

// Handle builds an endpoint that resolves the bearer token, validates the body,
// runs the action and answers with the success envelope. Any stage may stop the
// request; the error handler renders the failure.
func Handle[Req any, Res any](p *Pipeline, action Action[Req, Res]) echo.HandlerFunc {
	return func(c echo.Context) error {
		subject, err := middleware.Resolve(c, p.resolver)
		if err != nil {
			return err
		}

		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return apperr.ValidationFailed(map[string]string{"body": "Request body could not be read"})
		}

		req := new(Req)
		if err := p.validator.Decode(body, req); err != nil {
			return err
		}

		res, err := action(c.Request().Context(), c, subject, req)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, dto.Response{Success: true, Data: res})
	}
}
