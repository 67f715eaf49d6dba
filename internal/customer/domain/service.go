package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/credora/pkg/db/pagination"
)

type CreateCustomerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Currency string `json:"currency"`
}

type UpdateCustomerRequest struct {
	ID       string  `json:"id"`
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Currency *string `json:"currency"`
}

type GetCustomerRequest struct {
	ID string `json:"id"`
}

type ListCustomerRequest struct {
	PageToken   string
	PageSize    int32
	Name        string
	Email       string
	Currency    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type Service interface {
	Create(ctx context.Context, req CreateCustomerRequest) (Customer, error)
	Update(ctx context.Context, req UpdateCustomerRequest) (Customer, error)
	GetByID(ctx context.Context, req GetCustomerRequest) (Customer, error)
	List(ctx context.Context, req ListCustomerRequest) (ListCustomerResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidID           = errors.New("invalid_customer_id")
	ErrCustomerNotFound    = errors.New("customer_not_found")
)
