package model

import (
	"time"

	"gorm.io/datatypes"
)

type HostingAccount struct {
	ID           string `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID       string `gorm:"size:64;index;not null" json:"user_id"`
	OrderID      string `gorm:"size:36;uniqueIndex;not null" json:"order_id"` // 1:1 with a paid order
	DisplayName  string `gorm:"size:200;not null" json:"display_name"`
	Domain       string `gorm:"size:253" json:"domain,omitempty"`
	PlanTier     string `gorm:"size:32;not null" json:"plan_tier"`
	ContactEmail string `gorm:"size:320" json:"contact_email,omitempty"` // renewal reminders go here
	Active       bool   `gorm:"not null;default:true" json:"active"`

	RenewsAt       time.Time  `gorm:"index" json:"renews_at"`
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
	// ReminderFor is the renews_at value the last reminder covered; a new renewal date re-arms it.
	ReminderFor *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AuditLog is append-only: repositories expose Create and reads, nothing else.
type AuditLog struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    string            `gorm:"size:64;index;not null" json:"user_id"`
	Action    string            `gorm:"size:64;index;not null" json:"action"` // order.created, hosting.provisioned, ...
	Details   datatypes.JSONMap `json:"details"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
}

type EmailStatus string

// EmailStatusSent is the only persisted status; a failed dispatch rolls its row back.
const EmailStatusSent EmailStatus = "sent"

type EmailLog struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    string      `gorm:"size:64;index;not null" json:"user_id"`
	Recipient string      `gorm:"size:320;not null" json:"recipient"`
	Subject   string      `gorm:"size:200;not null" json:"subject"`
	Status    EmailStatus `gorm:"size:16;not null" json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// PaymentEvent records a processed gateway payment so verification runs at most once per payment.
type PaymentEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	Provider    string `gorm:"size:32;index"`
	ProcessedAt time.Time
	ExpiresAt   time.Time `gorm:"index"`
	CreatedAt   time.Time
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&Order{},
		&OrderItem{},
		&HostingAccount{},
		&AuditLog{},
		&EmailLog{},
		&PaymentEvent{},
	}
}
