package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hosting-storefront/internal/apperr"
	"hosting-storefront/internal/client"
	"hosting-storefront/internal/config"
	"hosting-storefront/internal/dto"
	"hosting-storefront/internal/guard"
	"hosting-storefront/internal/idempotency"
	"hosting-storefront/internal/identity"
	"hosting-storefront/internal/mailer"
	"hosting-storefront/internal/middleware"
	"hosting-storefront/internal/model"
	"hosting-storefront/internal/payment"
	"hosting-storefront/internal/repository"
	"hosting-storefront/internal/service"
	"hosting-storefront/internal/telemetry"
)

type tokenResolver map[string]*identity.Identity

func (r tokenResolver) Resolve(_ context.Context, token string) (*identity.Identity, error) {
	if id, ok := r[token]; ok {
		return id, nil
	}
	return nil, apperr.Unauthenticated("invalid or expired token", nil)
}

type testEnv struct {
	db      *gorm.DB
	handler http.Handler
}

func newTestEnv(t *testing.T, limiter *middleware.RateLimiter) *testEnv {
	t.Helper()

	db, err := client.NewDB(client.MemoryDatabase(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := zap.NewNop()
	reg := prometheus.NewRegistry()
	sink := telemetry.NewPrometheusSink(reg)

	orders := repository.NewOrderRepository(db)
	accounts := repository.NewHostingAccountRepository(db)
	audits := repository.NewAuditLogRepository(db)
	emailLogs := repository.NewEmailLogRepository(db)
	events := idempotency.NewDBStore(repository.NewPaymentEventRepository(db), time.Hour)
	orderGuard := guard.NewOrderGuard(orders)
	upi := payment.NewUPI(&config.UPI{VPA: "storefront@upi", PayeeName: "Storefront"})

	services := Services{
		Orders:       service.NewOrderService(db, orders, audits, sink, log),
		Provisioning: service.NewProvisioningService(db, orderGuard, accounts, audits, sink, log),
		Email:        service.NewEmailService(db, emailLogs, audits, mailer.NewLogMailer(log), sink, log),
		Payments:     service.NewPaymentService(db, upi, orderGuard, orders, audits, events, sink, log),
		Accounts:     service.NewAccountService(orders, accounts),
	}

	resolver := tokenResolver{
		"alice-token": {UserID: "user-alice", Email: "alice@example.com"},
		"bob-token":   {UserID: "user-bob", Email: "bob@example.com"},
	}

	cfg := &config.HTTPServer{BodyLimit: "256K", ReadTimeout: time.Second, WriteTimeout: time.Second}
	srv := NewServer(cfg, services, resolver, limiter, reg, log)
	return &testEnv{db: db, handler: srv.Handler()}
}

func (env *testEnv) call(method, path, token, body string, headers ...string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	var resp dto.Response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func (env *testEnv) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Model(m).Count(&n).Error)
	return n
}

const orderBody = `{
	"items": [
		{"service_id": "shared-hosting", "name": "Shared hosting", "quantity": 2, "unit_price": 500},
		{"service_id": "ssl", "name": "SSL certificate", "quantity": 1, "unit_price": 300}
	],
	"amount": 1300,
	"currency": "INR",
	"plan_tier": "pro"
}`

func TestPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, _ := env.call(http.MethodOptions, "/functions/v1/create-order", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowHeaders), "authorization")

	rec, _ = env.call(http.MethodPost, "/functions/v1/create-order", "", orderBody)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.call(http.MethodPost, "/functions/v1/create-order", "", orderBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, int64(0), env.count(t, &model.Order{}))

	rec, resp = env.call(http.MethodPost, "/functions/v1/create-order", "alice-token", orderBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, resp.Success)
	order := resp.Data.(map[string]any)["order"].(map[string]any)
	assert.Equal(t, float64(130000), order["amount_cents"])
	assert.Equal(t, "pending", order["status"])
	assert.Len(t, order["items"], 2)

	assert.Equal(t, int64(2), env.count(t, &model.OrderItem{}))
	assert.Equal(t, int64(1), env.count(t, &model.AuditLog{}))

	rec, resp = env.call(http.MethodGet, "/functions/v1/orders", "alice-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data.(map[string]any)["orders"], 1)

	rec, resp = env.call(http.MethodGet, "/functions/v1/orders", "bob-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, resp.Data.(map[string]any)["orders"])
}

func TestCreateOrder_Rejections(t *testing.T) {
	env := newTestEnv(t, nil)

	bad := strings.Replace(orderBody, `"quantity": 2`, `"quantity": 0`, 1)
	rec, resp := env.call(http.MethodPost, "/functions/v1/create-order", "alice-token", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Details, "items[0].quantity")

	foreign := strings.Replace(orderBody, `"plan_tier": "pro"`, `"plan_tier": "pro", "user_id": "user-bob"`, 1)
	rec, _ = env.call(http.MethodPost, "/functions/v1/create-order", "alice-token", foreign)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Equal(t, int64(0), env.count(t, &model.Order{}))
	assert.Equal(t, int64(0), env.count(t, &model.AuditLog{}))
}

func TestCreateOrder_IdempotencyKeyHeader(t *testing.T) {
	env := newTestEnv(t, nil)

	_, first := env.call(http.MethodPost, "/functions/v1/create-order", "alice-token", orderBody, "Idempotency-Key", "cart-1")
	_, second := env.call(http.MethodPost, "/functions/v1/create-order", "alice-token", orderBody, "Idempotency-Key", "cart-1")
	_, third := env.call(http.MethodPost, "/functions/v1/create-order", "alice-token", orderBody)

	id := func(r dto.Response) any { return r.Data.(map[string]any)["order"].(map[string]any)["id"] }
	assert.Equal(t, id(first), id(second))
	assert.NotEqual(t, id(first), id(third))
	assert.Equal(t, int64(2), env.count(t, &model.Order{}))
}

func TestCheckoutVerifyAndProvision(t *testing.T) {
	env := newTestEnv(t, nil)

	_, resp := env.call(http.MethodPost, "/functions/v1/create-order", "alice-token", orderBody)
	orderID := resp.Data.(map[string]any)["order"].(map[string]any)["id"].(string)
	ref := `{"order_id":"` + orderID + `"}`

	rec, resp := env.call(http.MethodPost, "/functions/v1/create-checkout", "alice-token", ref)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session := resp.Data.(map[string]any)
	assert.Equal(t, "upi", session["provider"])
	assert.True(t, strings.HasPrefix(session["upi_intent"].(string), "upi://pay?"))

	rec, resp = env.call(http.MethodPost, "/functions/v1/verify-payment", "alice-token",
		`{"order_id":"`+orderID+`","gateway_payment_id":"UTR123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp.Data.(map[string]any)["pending"])

	provision := `{"order_id":"` + orderID + `","plan":"pro","domain":"alice.example.com"}`
	rec, _ = env.call(http.MethodPost, "/functions/v1/provision-hosting", "alice-token", provision)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	require.NoError(t, env.db.Model(&model.Order{}).Where("id = ?", orderID).Update("status", model.OrderStatusPaid).Error)

	rec, resp = env.call(http.MethodPost, "/functions/v1/provision-hosting", "bob-token", provision)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "order not found or unauthorized", resp.Error)
	assert.Equal(t, int64(0), env.count(t, &model.HostingAccount{}))

	rec, resp = env.call(http.MethodPost, "/functions/v1/provision-hosting", "alice-token", provision)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	account := resp.Data.(map[string]any)["account"].(map[string]any)
	assert.Equal(t, "alice.example.com", account["domain"])

	rec, resp = env.call(http.MethodGet, "/functions/v1/hosting-accounts", "alice-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Data.(map[string]any)["accounts"], 1)
}

func TestSendEmail(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, resp := env.call(http.MethodPost, "/functions/v1/send-email", "alice-token",
		`{"to":"customer@example.com","subject":"Hi","html":"<p onclick=\"x()\">Hello</p><script>alert(1)</script>"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "sent", resp.Data.(map[string]any)["status"])
	assert.Equal(t, int64(1), env.count(t, &model.EmailLog{}))

	rec, resp = env.call(http.MethodPost, "/functions/v1/send-email", "alice-token", `{"to":"not-an-email","subject":"","html":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Details, "to")
	assert.Contains(t, resp.Details, "subject")
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, _ := env.call(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	env.call(http.MethodPost, "/functions/v1/create-order", "alice-token", orderBody)

	rec, _ = env.call(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storefront_events_total{event="order.created"} 1`)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, middleware.NewRateLimiter(0.001, 1, zap.NewNop()))

	rec, _ := env.call(http.MethodGet, "/functions/v1/orders", "alice-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp := env.call(http.MethodGet, "/functions/v1/orders", "alice-token", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "too many requests", resp.Error)
}
