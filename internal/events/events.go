package events

// Event types stored in the outbox for async delivery.
const (
	EventRatingComputed   = "rating.computed"
	EventInvoiceOverdue   = "invoice.overdue"
	EventFeedbackOverdue  = "feedback.overdue"
	EventCustomerDegraded = "rating.degraded"
)

// RatingComputedPayload captures the minimal data a subscriber needs to
// react to a new reliability score.
type RatingComputedPayload struct {
	CustomerID string  `json:"customer_id"`
	OrgID      string  `json:"org_id"`
	Score      int     `json:"score"`
	Category   string  `json:"category"`
	Previous   *int    `json:"previous,omitempty"`
	ComputedAt string  `json:"computed_at"`
	RequestID  *string `json:"request_id,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p RatingComputedPayload) ToMap() map[string]any {
	payload := map[string]any{
		"customer_id": p.CustomerID,
		"org_id":      p.OrgID,
		"score":       p.Score,
		"category":    p.Category,
		"computed_at": p.ComputedAt,
	}
	if p.Previous != nil {
		payload["previous"] = *p.Previous
	}
	if p.RequestID != nil {
		payload["request_id"] = *p.RequestID
	}
	return payload
}
