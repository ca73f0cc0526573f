package model

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusFailed, OrderStatusCancelled},
	OrderStatusFailed:  {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusCancelled},
}

// CanTransition reports whether an order may move from one status to another.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// PayableStatuses lists the states from which a payment may complete the order.
func PayableStatuses() []OrderStatus {
	var out []OrderStatus
	for _, from := range []OrderStatus{OrderStatusPending, OrderStatusFailed, OrderStatusPaid, OrderStatusCancelled} {
		if from.CanTransition(OrderStatusPaid) {
			out = append(out, from)
		}
	}
	return out
}

type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

// Next returns the renewal date one cycle after from.
func (b BillingCycle) Next(from time.Time) time.Time {
	if b == BillingCycleYearly {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}

type Order struct {
	ID               string       `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID           string       `gorm:"size:64;index;not null;uniqueIndex:idx_orders_user_idempotency,priority:1" json:"user_id"`
	AmountCents      int64        `gorm:"not null" json:"amount_cents"`
	Currency         string       `gorm:"size:8;not null" json:"currency"`
	Status           OrderStatus  `gorm:"size:16;index;not null" json:"status"`
	PlanTier         string       `gorm:"size:32" json:"plan_tier,omitempty"`
	BillingCycle     BillingCycle `gorm:"size:16" json:"billing_cycle,omitempty"`
	PaymentProvider  string       `gorm:"size:32" json:"payment_provider,omitempty"`
	GatewayOrderID   string       `gorm:"size:128;index" json:"gateway_order_id,omitempty"`
	GatewayPaymentID string       `gorm:"size:128" json:"gateway_payment_id,omitempty"`

	// nil when the client did not send an Idempotency-Key; NULLs never collide in the unique index.
	IdempotencyKey *string `gorm:"size:128;uniqueIndex:idx_orders_user_idempotency,priority:2" json:"-"`

	Items     []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (o *Order) TransitionTo(to OrderStatus) error {
	if !o.Status.CanTransition(to) {
		return fmt.Errorf("order %s cannot move from %s to %s", o.ID, o.Status, to)
	}
	o.Status = to
	return nil
}

type OrderItem struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	OrderID         string `gorm:"size:36;index;not null" json:"order_id"`
	ServiceID       string `gorm:"size:64;not null" json:"service_id"`
	Name            string `gorm:"size:200;not null" json:"name"`
	Quantity        int32  `gorm:"not null" json:"quantity"`
	UnitPriceCents  int64  `gorm:"not null" json:"unit_price_cents"`
	TotalPriceCents int64  `gorm:"not null" json:"total_price_cents"`

	CreatedAt time.Time `json:"created_at"`
}

// NewOrderItem computes the line total so it always equals quantity × unit price.
func NewOrderItem(orderID, serviceID, name string, quantity int32, unitPriceCents int64) OrderItem {
	return OrderItem{
		OrderID:         orderID,
		ServiceID:       serviceID,
		Name:            name,
		Quantity:        quantity,
		UnitPriceCents:  unitPriceCents,
		TotalPriceCents: int64(quantity) * unitPriceCents,
	}
}
