package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ReceiptStatus string

const (
	ReceiptStatusDraft     ReceiptStatus = "draft"
	ReceiptStatusSent      ReceiptStatus = "sent"
	ReceiptStatusCompleted ReceiptStatus = "completed"
	ReceiptStatusCancelled ReceiptStatus = "cancelled"
)

// Receipt acknowledges a payment or delivery for a customer.
type Receipt struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID  `gorm:"not null;index" json:"org_id"`
	CustomerID  snowflake.ID  `gorm:"not null;index" json:"customer_id"`
	InvoiceID   *snowflake.ID `gorm:"index" json:"invoice_id,omitempty"`
	Status      ReceiptStatus `gorm:"type:text;not null;default:'draft'" json:"status"`
	AmountCents int64         `gorm:"not null" json:"amount_cents"`
	Currency    string        `gorm:"type:text;not null" json:"currency"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Receipt) TableName() string { return "receipts" }
