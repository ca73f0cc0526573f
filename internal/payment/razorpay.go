package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"hosting-storefront/internal/config"
)

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type Razorpay struct {
	httpClient *http.Client
	baseApiURL string
	keyID      string
	keySecret  string
}

func NewRazorpay(cfg *config.Razorpay) *Razorpay {
	return &Razorpay{
		httpClient: newHTTPClient(),
		baseApiURL: strings.TrimRight(cfg.BaseApiURL, "/"),
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
	}
}

func (r *Razorpay) Name() string { return "razorpay" }

func (r *Razorpay) authHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(r.keyID+":"+r.keySecret))
}

func (r *Razorpay) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	payload := map[string]interface{}{
		"amount":   req.Order.AmountCents,
		"currency": req.Order.Currency,
		"receipt":  req.Order.ID,
		"notes": map[string]string{
			"user_id": req.Customer.UserID,
		},
	}

	var result razorpayOrder
	err := doJSON(ctx, r.httpClient, r.Name(), http.MethodPost, r.baseApiURL+"/v1/orders",
		map[string]string{"Authorization": r.authHeader()}, payload, &result)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	return &Session{
		GatewayOrderID: result.ID,
		KeyID:          r.keyID,
	}, nil
}

// VerifyPayment checks the checkout signature: hex(HMAC-SHA256(order_id|payment_id, key_secret)).
func (r *Razorpay) VerifyPayment(_ context.Context, req VerifyRequest) (*Verification, error) {
	gatewayOrderID := req.Order.GatewayOrderID
	if gatewayOrderID == "" {
		return rejected("no checkout session for this order"), nil
	}
	if req.GatewayOrderID != "" && req.GatewayOrderID != gatewayOrderID {
		return rejected("gateway order id mismatch"), nil
	}
	if req.Signature == "" {
		return rejected("missing signature"), nil
	}

	expected := r.sign(gatewayOrderID + "|" + req.GatewayPaymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(req.Signature))) {
		return rejected("signature mismatch"), nil
	}

	return &Verification{Outcome: OutcomeVerified, GatewayPaymentID: req.GatewayPaymentID}, nil
}

func (r *Razorpay) sign(message string) string {
	mac := hmac.New(sha256.New, []byte(r.keySecret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
