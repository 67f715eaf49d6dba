package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/credora/pkg/db/pagination"
)

type CreateReceiptRequest struct {
	CustomerID  string `json:"customer_id"`
	InvoiceID   string `json:"invoice_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

type ListReceiptRequest struct {
	PageToken  string
	PageSize   int32
	CustomerID string
	Status     string
}

type ListReceiptResponse struct {
	pagination.PageInfo
	Receipts []Receipt `json:"receipts"`
}

type Service interface {
	Create(ctx context.Context, req CreateReceiptRequest) (Receipt, error)
	List(ctx context.Context, req ListReceiptRequest) (ListReceiptResponse, error)
	Complete(ctx context.Context, id string) (Receipt, error)
	Cancel(ctx context.Context, id string) (Receipt, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidCustomer     = errors.New("invalid_customer_id")
	ErrInvalidReceiptID    = errors.New("invalid_receipt_id")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrReceiptNotFound     = errors.New("receipt_not_found")
	ErrReceiptFinalized    = errors.New("receipt_finalized")
)
