package domain

import "time"

// CategoryCount is one slice of the rating distribution.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// RatingDistributionResponse is the API response for the score distribution.
type RatingDistributionResponse struct {
	Total      int64           `json:"total"`
	Degraded   int64           `json:"degraded"`
	Categories []CategoryCount `json:"categories"`
}

// RiskCustomer is a customer whose payment behavior needs attention.
type RiskCustomer struct {
	CustomerID   string `json:"customer_id"`
	Name         string `json:"name"`
	Score        int    `json:"score"`
	Category     string `json:"category"`
	OverdueCount int64  `json:"overdue_count"`
	OverdueCents int64  `json:"overdue_cents"`
}

// RiskCustomersResponse is the API response for at-risk customers.
type RiskCustomersResponse struct {
	Customers []RiskCustomer `json:"customers"`
}

// RatingActivity represents a human-readable rating event.
type RatingActivity struct {
	CustomerID string    `json:"customer_id"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RatingActivityResponse is the API response for recent rating activity.
type RatingActivityResponse struct {
	Activity []RatingActivity `json:"activity"`
}
