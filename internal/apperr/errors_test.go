package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		status int
	}{
		{"validation", ValidationFailed(map[string]string{"amount": "required"}), http.StatusBadRequest},
		{"unauthenticated", Unauthenticated("", nil), http.StatusUnauthorized},
		{"payment required", PaymentRequired("", nil), http.StatusPaymentRequired},
		{"forbidden", Forbidden(""), http.StatusForbidden},
		{"not found merges with forbidden", NotFound("order"), http.StatusForbidden},
		{"rate limited", RateLimited("", nil), http.StatusTooManyRequests},
		{"effect failed", EffectFailed("", errors.New("db down")), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, tc.err.Status())
		})
	}
}

func TestFrom(t *testing.T) {
	wrapped := fmt.Errorf("create order: %w", Forbidden("nope"))
	assert.Equal(t, KindForbidden, From(wrapped).Kind)

	unknown := From(errors.New("boom"))
	assert.Equal(t, KindEffectFailed, unknown.Kind)
	assert.Equal(t, "internal server error", unknown.PublicMessage())

	assert.Nil(t, From(nil))
}

func TestNotFoundMessageDoesNotLeakExistence(t *testing.T) {
	assert.Equal(t, "order not found or unauthorized", NotFound("order").PublicMessage())
}

func TestFromUpstreamStatus(t *testing.T) {
	assert.Equal(t, KindRateLimited, FromUpstreamStatus(http.StatusTooManyRequests, "").Kind)
	assert.Equal(t, KindPaymentRequired, FromUpstreamStatus(http.StatusPaymentRequired, "").Kind)
	assert.Nil(t, FromUpstreamStatus(http.StatusBadGateway, ""))
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Unauthenticated("bad token", nil))
	assert.True(t, IsKind(err, KindUnauthenticated))
	assert.False(t, IsKind(err, KindForbidden))
	assert.False(t, IsKind(errors.New("plain"), KindForbidden))
}
