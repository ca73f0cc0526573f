package dto

import (
	"time"

	"hosting-storefront/internal/model"
)

// Response is the single envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Item prices arrive in major currency units and are stored in minor units.
type Item struct {
	ServiceID string  `json:"service_id" validate:"required,slug"`
	Name      string  `json:"name" validate:"required,min=1,max=200"`
	Quantity  int32   `json:"quantity" validate:"required,min=1,max=100"`
	UnitPrice float64 `json:"unit_price" validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	Items        []Item  `json:"items" validate:"required,min=1,max=50,dive"`
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	Currency     string  `json:"currency" validate:"required,len=3,uppercase,iso4217"`
	UserID       string  `json:"user_id" validate:"omitempty,max=64"`
	PlanTier     string  `json:"plan_tier" validate:"omitempty,oneof=starter pro business"`
	BillingCycle string  `json:"billing_cycle" validate:"omitempty,oneof=monthly yearly"`

	// From the Idempotency-Key header, never from the body.
	IdempotencyKey string `json:"-"`
}

type CreateOrderResponse struct {
	Order *model.Order `json:"order"`
}

type ProvisionHostingRequest struct {
	OrderID     string `json:"order_id" validate:"required,uuid"`
	Plan        string `json:"plan" validate:"required,oneof=starter pro business"`
	Domain      string `json:"domain" validate:"omitempty,max=253,fqdn"`
	DisplayName string `json:"display_name" validate:"omitempty,min=1,max=200"`
}

type ProvisionHostingResponse struct {
	Account *model.HostingAccount `json:"account"`
}

type SendEmailRequest struct {
	To      string `json:"to" validate:"required,email,max=320"`
	Subject string `json:"subject" validate:"required,min=1,max=200"`
	HTML    string `json:"html" validate:"required,min=1,max=100000"`
}

type SendEmailResponse struct {
	EmailLogID uint              `json:"email_log_id"`
	Status     model.EmailStatus `json:"status"`
}

type CreateCheckoutRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid"`
}

// CheckoutSession is what the browser needs to hand the buyer to the gateway.
type CheckoutSession struct {
	Provider       string            `json:"provider"`
	OrderID        string            `json:"order_id"`
	GatewayOrderID string            `json:"gateway_order_id,omitempty"`
	AmountCents    int64             `json:"amount_cents"`
	Currency       string            `json:"currency"`
	KeyID          string            `json:"key_id,omitempty"`
	RedirectURL    string            `json:"redirect_url,omitempty"`
	FormParams     map[string]string `json:"form_params,omitempty"`
	ClientToken    string            `json:"client_token,omitempty"`
	SessionID      string            `json:"payment_session_id,omitempty"`
	UPIIntent      string            `json:"upi_intent,omitempty"`
}

type VerifyPaymentRequest struct {
	OrderID            string `json:"order_id" validate:"required,uuid"`
	GatewayOrderID     string `json:"gateway_order_id" validate:"omitempty,max=128"`
	GatewayPaymentID   string `json:"gateway_payment_id" validate:"required,max=128"`
	Signature          string `json:"signature" validate:"omitempty,max=512"`
	PaymentMethodNonce string `json:"payment_method_nonce" validate:"omitempty,max=512"`
	Status             string `json:"status" validate:"omitempty,max=32"`
}

type VerifyPaymentResponse struct {
	OrderID string            `json:"order_id"`
	Status  model.OrderStatus `json:"status"`
	Pending bool              `json:"pending,omitempty"`
	// Duplicate is set when this payment id was already processed.
	Duplicate bool `json:"duplicate,omitempty"`
}

type ListOrdersResponse struct {
	Orders []*model.Order `json:"orders"`
}

type ListAccountsResponse struct {
	Accounts []*model.HostingAccount `json:"accounts"`
}

type HealthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}
