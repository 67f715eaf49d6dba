package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/credora/pkg/db/pagination"
)

type CreateInvoiceRequest struct {
	CustomerID string     `json:"customer_id"`
	Currency   string     `json:"currency"`
	TotalCents int64      `json:"total_cents"`
	DueDate    *time.Time `json:"due_date"`
}

type ListInvoiceRequest struct {
	PageToken  string
	PageSize   int32
	CustomerID string
	Status     string
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	Send(ctx context.Context, id string) (Invoice, error)
	MarkPaid(ctx context.Context, id string, paidAt *time.Time) (Invoice, error)
	Cancel(ctx context.Context, id string, reason string) (Invoice, error)
	MarkOverdue(ctx context.Context, asOf time.Time, limit int) (int, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidCustomer     = errors.New("invalid_customer_id")
	ErrInvalidInvoiceID    = errors.New("invalid_invoice_id")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvoiceNotFound     = errors.New("invoice_not_found")
	ErrInvoiceNotDraft     = errors.New("invoice_not_draft")
	ErrInvoiceNotPayable   = errors.New("invoice_not_payable")
	ErrInvoiceFinalized    = errors.New("invoice_finalized")
)
