package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/credora/pkg/db/pagination"
)

type CreateProjectRequest struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
}

type ListProjectRequest struct {
	PageToken  string
	PageSize   int32
	CustomerID string
	Status     string
}

type ListProjectResponse struct {
	pagination.PageInfo
	Projects []Project `json:"projects"`
}

type Service interface {
	Create(ctx context.Context, req CreateProjectRequest) (Project, error)
	List(ctx context.Context, req ListProjectRequest) (ListProjectResponse, error)
	Complete(ctx context.Context, id string) (Project, error)
	Archive(ctx context.Context, id string) (Project, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidCustomer     = errors.New("invalid_customer_id")
	ErrInvalidProjectID    = errors.New("invalid_project_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrProjectNotFound     = errors.New("project_not_found")
	ErrProjectNotActive    = errors.New("project_not_active")
)
