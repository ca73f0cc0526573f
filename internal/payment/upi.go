package payment

import (
	"context"
	"net/url"
	"strings"

	"hosting-storefront/internal/config"
)

// UPI produces a upi://pay intent. Settlement is reconciled by hand, so verification
// never completes on its own.
type UPI struct {
	vpa       string
	payeeName string
}

func NewUPI(cfg *config.UPI) *UPI {
	return &UPI{vpa: cfg.VPA, payeeName: cfg.PayeeName}
}

func (u *UPI) Name() string { return "upi" }

func (u *UPI) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*Session, error) {
	ref := strings.ReplaceAll(req.Order.ID, "-", "")

	params := []string{
		"pa=" + url.QueryEscape(u.vpa),
		"pn=" + url.PathEscape(u.payeeName),
		"am=" + majorUnits(req.Order.AmountCents),
		"cu=" + req.Order.Currency,
		"tn=" + url.PathEscape("Order "+req.Order.ID),
		"tr=" + ref,
	}

	return &Session{
		GatewayOrderID: ref,
		UPIIntent:      "upi://pay?" + strings.Join(params, "&"),
	}, nil
}

func (u *UPI) VerifyPayment(_ context.Context, _ VerifyRequest) (*Verification, error) {
	return &Verification{Outcome: OutcomePending, Reason: "awaiting manual reconciliation"}, nil
}
