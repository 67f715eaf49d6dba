package domain

import (
	"context"
	"errors"
)

type Service interface {
	RateCustomer(ctx context.Context, customerID string) (Rating, error)
	RateAll(ctx context.Context) (BulkRatingResult, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization_id")
	ErrInvalidCustomer     = errors.New("invalid_customer_id")
	ErrCustomerNotFound    = errors.New("customer_not_found")
)
