package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// InvoiceStatus tracks an invoice through its lifecycle.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice is a customer-facing bill with a due date.
type Invoice struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID      `gorm:"not null;index" json:"org_id"`
	CustomerID snowflake.ID      `gorm:"not null;index" json:"customer_id"`
	Number     string            `gorm:"type:text;not null" json:"number"`
	Status     InvoiceStatus     `gorm:"type:text;not null;default:'draft'" json:"status"`
	Currency   string            `gorm:"type:text;not null" json:"currency"`
	TotalCents int64             `gorm:"not null" json:"total_cents"`
	DueDate    *time.Time        `gorm:"index" json:"due_date"`
	SentAt     *time.Time        `json:"sent_at,omitempty"`
	PaidAt     *time.Time        `json:"paid_at,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }
