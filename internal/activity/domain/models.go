package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ReferenceType tags what an activity points at. The detail payload is
// interpreted according to this tag, never as an untyped blob.
type ReferenceType string

const (
	ReferenceProject   ReferenceType = "project"
	ReferenceInvoice   ReferenceType = "invoice"
	ReferenceReceipt   ReferenceType = "receipt"
	ReferenceFeedback  ReferenceType = "feedback"
	ReferenceAgreement ReferenceType = "agreement"
	ReferenceRating    ReferenceType = "rating"
)

// Activity event types recorded by the CRUD layer.
const (
	TypeInvoiceSent       = "invoice.sent"
	TypeInvoicePaid       = "invoice.paid"
	TypeInvoiceOverdue    = "invoice.overdue"
	TypeInvoiceCancelled  = "invoice.cancelled"
	TypeReceiptCompleted  = "receipt.completed"
	TypeProjectCompleted  = "project.completed"
	TypeFeedbackSent      = "feedback.sent"
	TypeFeedbackCompleted = "feedback.completed"
	TypeFeedbackOverdue   = "feedback.overdue"
	TypeFeedbackCancelled = "feedback.cancelled"
	TypeRatingComputed    = "rating.computed"
)

// Activity is an append-only event in a customer's history.
type Activity struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID      `gorm:"not null;index" json:"org_id"`
	CustomerID    snowflake.ID      `gorm:"not null;index" json:"customer_id"`
	Type          string            `gorm:"type:text;not null" json:"type"`
	ReferenceType ReferenceType     `gorm:"type:text" json:"reference_type,omitempty"`
	ReferenceID   *snowflake.ID     `gorm:"index" json:"reference_id,omitempty"`
	Detail        datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"detail"`
	OccurredAt    time.Time         `gorm:"not null;index" json:"occurred_at"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Activity) TableName() string { return "activities" }
