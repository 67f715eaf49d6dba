package domain

import (
	"context"
	"errors"
)

// Service exposes aggregated reliability data for the admin dashboard.
type Service interface {
	RatingDistribution(ctx context.Context) (RatingDistributionResponse, error)
	ListRiskCustomers(ctx context.Context, limit int) (RiskCustomersResponse, error)
	ListRatingActivity(ctx context.Context, limit int) (RatingActivityResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
)
