package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"

	"hosting-storefront/internal/config"
	"hosting-storefront/internal/model"
)

const payuProductInfo = "Web hosting order"

// PayU hands the browser a signed form that posts straight to the hosted payment page.
type PayU struct {
	baseURL     string
	merchantKey string
	salt        string
	successURL  string
	failureURL  string
}

func NewPayU(cfg *config.PayU) *PayU {
	return &PayU{
		baseURL:     cfg.BaseURL,
		merchantKey: cfg.MerchantKey,
		salt:        cfg.Salt,
		successURL:  cfg.SuccessURL,
		failureURL:  cfg.FailureURL,
	}
}

func (p *PayU) Name() string { return "payu" }

// payuTxnID fits the order id into PayU's 25 character transaction id.
func payuTxnID(order *model.Order) string {
	id := strings.ReplaceAll(order.ID, "-", "")
	if len(id) > 23 {
		id = id[:23]
	}
	return "hs" + id
}

func (p *PayU) CreateCheckoutSession(_ context.Context, req CheckoutRequest) (*Session, error) {
	txnID := payuTxnID(req.Order)
	amount := majorUnits(req.Order.AmountCents)
	firstName := req.Customer.FirstName()

	params := map[string]string{
		"key":         p.merchantKey,
		"txnid":       txnID,
		"amount":      amount,
		"productinfo": payuProductInfo,
		"firstname":   firstName,
		"email":       req.Customer.Email,
		"surl":        p.successURL,
		"furl":        p.failureURL,
		"udf1":        req.Order.ID,
	}
	params["hash"] = p.requestHash(txnID, amount, firstName, req.Customer.Email, req.Order.ID)

	return &Session{
		GatewayOrderID: txnID,
		RedirectURL:    p.baseURL,
		FormParams:     params,
	}, nil
}

// VerifyPayment recomputes the reverse hash PayU posts back with the transaction status.
func (p *PayU) VerifyPayment(_ context.Context, req VerifyRequest) (*Verification, error) {
	if req.Signature == "" || req.Status == "" {
		return rejected("missing hash or status"), nil
	}

	txnID := payuTxnID(req.Order)
	if req.GatewayOrderID != "" && req.GatewayOrderID != txnID {
		return rejected("transaction id mismatch"), nil
	}

	expected := p.responseHash(req.Status, txnID, majorUnits(req.Order.AmountCents),
		req.Customer.FirstName(), req.Customer.Email, req.Order.ID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(req.Signature))) {
		return rejected("hash mismatch"), nil
	}

	if req.Status != "success" {
		return rejected("payment status " + req.Status), nil
	}
	return &Verification{Outcome: OutcomeVerified, GatewayPaymentID: req.GatewayPaymentID}, nil
}

// key|txnid|amount|productinfo|firstname|email|udf1|udf2|udf3|udf4|udf5||||||salt
func (p *PayU) requestHash(txnID, amount, firstName, email, udf1 string) string {
	fields := []string{p.merchantKey, txnID, amount, payuProductInfo, firstName, email,
		udf1, "", "", "", "", "", "", "", "", "", p.salt}
	return sha512Hex(strings.Join(fields, "|"))
}

// salt|status||||||udf5|udf4|udf3|udf2|udf1|email|firstname|productinfo|amount|txnid|key
func (p *PayU) responseHash(status, txnID, amount, firstName, email, udf1 string) string {
	fields := []string{p.salt, status, "", "", "", "", "", "", "", "", "", udf1,
		email, firstName, payuProductInfo, amount, txnID, p.merchantKey}
	return sha512Hex(strings.Join(fields, "|"))
}

func sha512Hex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}
