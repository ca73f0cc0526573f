package middleware

import (
	"github.com/labstack/echo/v4"

	"hosting-storefront/internal/identity"
)

const identityKey = "identity"

// Authenticate resolves the bearer token and stores the subject on the context.
// Routes built on handler.Handle call Resolve themselves instead.
func Authenticate(resolver identity.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := Resolve(c, resolver); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// Resolve authenticates the request once; later calls reuse the stored subject.
func Resolve(c echo.Context, resolver identity.Resolver) (*identity.Identity, error) {
	if subject := IdentityFrom(c); subject != nil {
		return subject, nil
	}

	token, err := identity.ExtractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return nil, err
	}

	subject, err := resolver.Resolve(c.Request().Context(), token)
	if err != nil {
		return nil, err
	}

	c.Set(identityKey, subject)
	return subject, nil
}

func IdentityFrom(c echo.Context) *identity.Identity {
	subject, _ := c.Get(identityKey).(*identity.Identity)
	return subject
}
