// Package domain defines the inputs and outputs of the payment-reliability
// rating engine. All record types are read-only views assembled by the
// service layer; the engine never mutates or persists them.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Invoice states relevant to scoring. Status strings are matched
// case-insensitively; "settled" is accepted as a synonym for paid.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusSettled   = "settled"
	InvoiceStatusOverdue   = "overdue"
	InvoiceStatusCancelled = "cancelled"
)

const (
	RecordStatusCompleted = "completed"
	RecordStatusOverdue   = "overdue"
	RecordStatusCancelled = "cancelled"
)

// Activity is a timestamped customer event. The reference fields form a
// tagged union keyed by reference type.
type Activity struct {
	Type          string     `json:"type"`
	OccurredAt    *time.Time `json:"occurred_at"`
	ReferenceType string     `json:"reference_type,omitempty"`
	ReferenceID   string     `json:"reference_id,omitempty"`
}

// InvoiceRecord carries the invoice attributes the engine scores on.
// Nil timestamps mean "unknown" and exclude the record from lateness
// computation only, never from counting.
type InvoiceRecord struct {
	Status     string     `json:"status"`
	DueDate    *time.Time `json:"due_date"`
	CreatedAt  *time.Time `json:"created_at"`
	PaidAt     *time.Time `json:"paid_at"`
	TotalCents int64      `json:"total_cents"`
}

// ReceiptRecord is a secondary engagement signal.
type ReceiptRecord struct {
	Status    string     `json:"status"`
	CreatedAt *time.Time `json:"created_at"`
}

// ProjectRecord is carried for completeness; it contributes no score signal.
type ProjectRecord struct {
	Status    string     `json:"status"`
	CreatedAt *time.Time `json:"created_at"`
}

// FeedbackRecord is a secondary engagement signal.
type FeedbackRecord struct {
	Status    string     `json:"status"`
	CreatedAt *time.Time `json:"created_at"`
}

// CustomerRatingData bundles a customer's history for one scoring pass.
type CustomerRatingData struct {
	CustomerID        string           `json:"customer_id"`
	Activities        []Activity       `json:"activities"`
	Invoices          []InvoiceRecord  `json:"invoices"`
	Receipts          []ReceiptRecord  `json:"receipts"`
	Projects          []ProjectRecord  `json:"projects"`
	ServiceAgreements []any            `json:"service_agreements"` // reserved
	Feedbacks         []FeedbackRecord `json:"feedbacks"`
	CustomerCreatedAt *time.Time       `json:"customer_created_at"`
}

// RatingCategory is the display banding of a numeric score.
type RatingCategory struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// Rating is the scored result returned to callers.
type Rating struct {
	CustomerID string         `json:"customer_id"`
	Score      int            `json:"score"`
	Category   RatingCategory `json:"category"`
	Degraded   bool           `json:"degraded"`
	ComputedAt time.Time      `json:"computed_at"`
}

// BulkRatingResult summarizes a rate-all run.
type BulkRatingResult struct {
	Rated    int      `json:"rated"`
	Degraded int      `json:"degraded"`
	Ratings  []Rating `json:"ratings"`
}

// CustomerRating is the persisted snapshot of the latest score per customer.
type CustomerRating struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID `gorm:"not null;index;uniqueIndex:ux_customer_ratings_org_customer,priority:1" json:"org_id"`
	CustomerID snowflake.ID `gorm:"not null;uniqueIndex:ux_customer_ratings_org_customer,priority:2" json:"customer_id"`
	Score      int          `gorm:"not null" json:"score"`
	Category   string       `gorm:"type:text;not null" json:"category"`
	Degraded   bool         `gorm:"not null;default:false" json:"degraded"`
	ComputedAt time.Time    `gorm:"not null" json:"computed_at"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (CustomerRating) TableName() string { return "customer_ratings" }

// NormalizeStatus lowercases and trims a status for comparison.
func NormalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// ParseTimestamp parses an ISO-8601 timestamp, returning nil for anything
// missing or malformed rather than an error.
func ParseTimestamp(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			ts = ts.UTC()
			return &ts
		}
	}
	return nil
}
