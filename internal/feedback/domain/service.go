package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/credora/pkg/db/pagination"
)

type CreateFeedbackRequest struct {
	CustomerID string     `json:"customer_id"`
	Subject    string     `json:"subject"`
	DueDate    *time.Time `json:"due_date"`
}

type ListFeedbackRequest struct {
	PageToken  string
	PageSize   int32
	CustomerID string
	Status     string
}

type ListFeedbackResponse struct {
	pagination.PageInfo
	Feedbacks []Feedback `json:"feedbacks"`
}

type Service interface {
	Create(ctx context.Context, req CreateFeedbackRequest) (Feedback, error)
	List(ctx context.Context, req ListFeedbackRequest) (ListFeedbackResponse, error)
	Send(ctx context.Context, id string) (Feedback, error)
	Complete(ctx context.Context, id string) (Feedback, error)
	Cancel(ctx context.Context, id string) (Feedback, error)
	MarkOverdue(ctx context.Context, asOf time.Time, limit int) (int, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidCustomer     = errors.New("invalid_customer_id")
	ErrInvalidFeedbackID   = errors.New("invalid_feedback_id")
	ErrInvalidSubject      = errors.New("invalid_subject")
	ErrFeedbackNotFound    = errors.New("feedback_not_found")
	ErrFeedbackNotDraft    = errors.New("feedback_not_draft")
	ErrFeedbackFinalized   = errors.New("feedback_finalized")
)
