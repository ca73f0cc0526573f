package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"hosting-storefront/internal/apperr"
	"hosting-storefront/internal/dto"
)

// ErrorHandler replaces echo's default so every failure leaves in the envelope.
// Anything unclassified becomes a 500 with the generic message.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, resp := render(err)

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			log.Error("request failed", fields...)
		} else {
			log.Debug("request rejected", fields...)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, resp)
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}

func render(err error) (int, dto.Response) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		// routing, body limit and other framework errors keep their status
		if httpErr.Internal != nil {
			var appErr *apperr.Error
			if errors.As(httpErr.Internal, &appErr) {
				return render(appErr)
			}
		}
		msg := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok && m != "" {
			msg = m
		}
		if httpErr.Code >= http.StatusInternalServerError {
			msg = apperr.From(err).PublicMessage()
		}
		return httpErr.Code, dto.Response{Error: msg}
	}

	appErr := apperr.From(err)
	resp := dto.Response{Error: appErr.PublicMessage()}
	if appErr.Kind == apperr.KindValidationFailed {
		resp.Details = appErr.Details
	}
	return appErr.Status(), resp
}
