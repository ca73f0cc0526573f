package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

var allowedHeaders = strings.Join([]string{
	"authorization",
	"x-client-info",
	"apikey",
	"content-type",
	"idempotency-key",
}, ", ")

// CORS allows every origin and answers pre-flight requests with an empty 200
// before the request is routed.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			h.Set(echo.HeaderAccessControlAllowHeaders, allowedHeaders)
			h.Set(echo.HeaderAccessControlAllowMethods, "GET, POST, OPTIONS")

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
