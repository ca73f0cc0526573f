package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"hosting-storefront/internal/config"
)

type cashfreeOrder struct {
	CFOrderID        string `json:"cf_order_id"`
	OrderID          string `json:"order_id"`
	OrderStatus      string `json:"order_status"`
	PaymentSessionID string `json:"payment_session_id"`
}

type Cashfree struct {
	httpClient   *http.Client
	baseApiURL   string
	clientID     string
	clientSecret string
	apiVersion   string
	returnURL    string
}

func NewCashfree(cfg *config.Cashfree) *Cashfree {
	return &Cashfree{
		httpClient:   newHTTPClient(),
		baseApiURL:   strings.TrimRight(cfg.BaseApiURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		apiVersion:   cfg.APIVersion,
		returnURL:    cfg.ReturnURL,
	}
}

func (c *Cashfree) Name() string { return "cashfree" }

func (c *Cashfree) headers() map[string]string {
	return map[string]string{
		"x-client-id":     c.clientID,
		"x-client-secret": c.clientSecret,
		"x-api-version":   c.apiVersion,
	}
}

func (c *Cashfree) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	payload := map[string]interface{}{
		"order_id":       req.Order.ID,
		"order_amount":   decimal.New(req.Order.AmountCents, -2).InexactFloat64(),
		"order_currency": req.Order.Currency,
		"customer_details": map[string]string{
			"customer_id":    req.Customer.UserID,
			"customer_email": req.Customer.Email,
		},
	}
	if c.returnURL != "" {
		payload["order_meta"] = map[string]string{
			"return_url": c.returnURL,
		}
	}

	var result cashfreeOrder
	err := doJSON(ctx, c.httpClient, c.Name(), http.MethodPost, c.baseApiURL+"/pg/orders", c.headers(), payload, &result)
	if err != nil {
		return nil, fmt.Errorf("cashfree create order: %w", err)
	}

	return &Session{
		GatewayOrderID: result.OrderID,
		SessionID:      result.PaymentSessionID,
	}, nil
}

// VerifyPayment asks Cashfree for the order status instead of trusting the browser.
func (c *Cashfree) VerifyPayment(ctx context.Context, req VerifyRequest) (*Verification, error) {
	gatewayOrderID := req.Order.GatewayOrderID
	if gatewayOrderID == "" {
		return rejected("no checkout session for this order"), nil
	}

	var result cashfreeOrder
	err := doJSON(ctx, c.httpClient, c.Name(), http.MethodGet,
		c.baseApiURL+"/pg/orders/"+url.PathEscape(gatewayOrderID), c.headers(), nil, &result)
	if err != nil {
		return nil, fmt.Errorf("cashfree get order: %w", err)
	}

	switch result.OrderStatus {
	case "PAID":
		return &Verification{Outcome: OutcomeVerified, GatewayPaymentID: req.GatewayPaymentID}, nil
	case "ACTIVE":
		return &Verification{Outcome: OutcomePending, Reason: "payment not completed yet"}, nil
	default:
		return rejected("order status " + result.OrderStatus), nil
	}
}
