// Package payment implements the checkout and verification contract against the supported
// gateways. Exactly one Provider is selected at startup from PAYMENT_PROVIDER.
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"hosting-storefront/internal/config"
	"hosting-storefront/internal/model"
)

type Outcome string

const (
	OutcomeVerified Outcome = "verified"
	OutcomeRejected Outcome = "rejected"
	// OutcomePending means the gateway cannot confirm yet and the order stays as it is.
	OutcomePending Outcome = "pending"
)

type Customer struct {
	UserID string
	Email  string
}

// FirstName is derived from the email so checkout and verification agree on it.
func (c Customer) FirstName() string {
	if local, _, ok := strings.Cut(c.Email, "@"); ok && local != "" {
		return local
	}
	return "customer"
}

type CheckoutRequest struct {
	Order    *model.Order
	Customer Customer
}

type Session struct {
	GatewayOrderID string
	KeyID          string
	RedirectURL    string
	FormParams     map[string]string
	ClientToken    string
	SessionID      string
	UPIIntent      string
}

type VerifyRequest struct {
	Order              *model.Order
	Customer           Customer
	GatewayOrderID     string
	GatewayPaymentID   string
	Signature          string
	PaymentMethodNonce string
	Status             string
}

type Verification struct {
	Outcome          Outcome
	GatewayPaymentID string
	Reason           string
}

type Provider interface {
	Name() string
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error)
	VerifyPayment(ctx context.Context, req VerifyRequest) (*Verification, error)
}

// New returns the provider named by cfg.Provider.
func New(cfg *config.Payment) (Provider, error) {
	switch cfg.Provider {
	case "razorpay":
		return NewRazorpay(&cfg.Razorpay), nil
	case "payu":
		return NewPayU(&cfg.PayU), nil
	case "cashfree":
		return NewCashfree(&cfg.Cashfree), nil
	case "upi":
		return NewUPI(&cfg.UPI), nil
	case "braintree":
		return NewBraintree(&cfg.Braintree), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}

// majorUnits renders minor units as a fixed two-decimal amount, e.g. 130000 -> "1300.00".
func majorUnits(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

func rejected(reason string) *Verification {
	return &Verification{Outcome: OutcomeRejected, Reason: reason}
}
