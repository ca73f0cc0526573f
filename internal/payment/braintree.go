package payment

import (
	"context"
	"fmt"

	"github.com/braintree-go/braintree-go"

	"hosting-storefront/internal/config"
)

type Braintree struct {
	gateway *braintree.Braintree
}

func NewBraintree(cfg *config.Braintree) *Braintree {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	return &Braintree{
		gateway: braintree.New(env, cfg.MerchantID, cfg.PublicKey, cfg.PrivateKey),
	}
}

func (b *Braintree) Name() string { return "braintree" }

// CreateCheckoutSession returns a client token for the drop-in UI; the sale happens on verify.
func (b *Braintree) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	token, err := b.gateway.ClientToken().Generate(ctx)
	if err != nil {
		return nil, fmt.Errorf("braintree client token: %w", err)
	}

	return &Session{
		GatewayOrderID: req.Order.ID,
		ClientToken:    token,
	}, nil
}

func (b *Braintree) VerifyPayment(ctx context.Context, req VerifyRequest) (*Verification, error) {
	if req.PaymentMethodNonce == "" {
		return rejected("missing payment method nonce"), nil
	}

	tx, err := b.gateway.Transaction().Create(ctx, &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             braintree.NewDecimal(req.Order.AmountCents, 2),
		PaymentMethodNonce: req.PaymentMethodNonce,
		OrderId:            req.Order.ID,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("braintree sale: %w", err)
	}

	switch tx.Status {
	case braintree.TransactionStatusProcessorDeclined, braintree.TransactionStatusGatewayRejected,
		braintree.TransactionStatusFailed:
		return rejected(fmt.Sprintf("transaction %s: %s", tx.Status, tx.ProcessorResponseText)), nil
	}

	return &Verification{Outcome: OutcomeVerified, GatewayPaymentID: tx.Id}, nil
}
