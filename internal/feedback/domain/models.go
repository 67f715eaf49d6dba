package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type FeedbackStatus string

const (
	FeedbackStatusDraft     FeedbackStatus = "draft"
	FeedbackStatusSent      FeedbackStatus = "sent"
	FeedbackStatusCompleted FeedbackStatus = "completed"
	FeedbackStatusOverdue   FeedbackStatus = "overdue"
	FeedbackStatusCancelled FeedbackStatus = "cancelled"
)

// Feedback is a form sent to a customer with a response deadline.
type Feedback struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID   `gorm:"not null;index" json:"org_id"`
	CustomerID  snowflake.ID   `gorm:"not null;index" json:"customer_id"`
	Subject     string         `gorm:"type:text;not null" json:"subject"`
	Status      FeedbackStatus `gorm:"type:text;not null;default:'draft'" json:"status"`
	DueDate     *time.Time     `gorm:"index" json:"due_date,omitempty"`
	SentAt      *time.Time     `json:"sent_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Feedback) TableName() string { return "feedbacks" }
