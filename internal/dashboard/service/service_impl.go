package service

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	activitydomain "github.com/smallbiznis/credora/internal/activity/domain"
	dashboarddomain "github.com/smallbiznis/credora/internal/dashboard/domain"
	"github.com/smallbiznis/credora/internal/orgcontext"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

func NewService(p Params) dashboarddomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("dashboard.service"),
	}
}

func (s *Service) RatingDistribution(ctx context.Context) (dashboarddomain.RatingDistributionResponse, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return dashboarddomain.RatingDistributionResponse{}, dashboarddomain.ErrInvalidOrganization
	}

	var categories []dashboarddomain.CategoryCount
	err := s.db.WithContext(ctx).Raw(
		`SELECT category, COUNT(*) AS count
		 FROM customer_ratings
		 WHERE org_id = ?
		 GROUP BY category
		 ORDER BY count DESC`,
		orgID,
	).Scan(&categories).Error
	if err != nil {
		return dashboarddomain.RatingDistributionResponse{}, err
	}

	response := dashboarddomain.RatingDistributionResponse{
		Categories: categories,
	}
	for _, c := range categories {
		response.Total += c.Count
	}

	err = s.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM customer_ratings WHERE org_id = ? AND degraded = ?`,
		orgID, true,
	).Scan(&response.Degraded).Error
	if err != nil {
		return dashboarddomain.RatingDistributionResponse{}, err
	}

	return response, nil
}

func (s *Service) ListRiskCustomers(ctx context.Context, limit int) (dashboarddomain.RiskCustomersResponse, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return dashboarddomain.RiskCustomersResponse{}, dashboarddomain.ErrInvalidOrganization
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var customers []dashboarddomain.RiskCustomer
	err := s.db.WithContext(ctx).Raw(
		`SELECT c.id AS customer_id,
		        c.name,
		        COALESCE(r.score, 75) AS score,
		        COALESCE(r.category, 'Good') AS category,
		        COUNT(i.id) AS overdue_count,
		        COALESCE(SUM(i.total_cents), 0) AS overdue_cents
		 FROM customers c
		 JOIN invoices i
		   ON i.org_id = c.org_id AND i.customer_id = c.id AND i.status = 'overdue'
		 LEFT JOIN customer_ratings r
		   ON r.org_id = c.org_id AND r.customer_id = c.id
		 WHERE c.org_id = ?
		 GROUP BY c.id, c.name, r.score, r.category
		 ORDER BY score ASC, overdue_cents DESC
		 LIMIT ?`,
		orgID, limit,
	).Scan(&customers).Error
	if err != nil {
		return dashboarddomain.RiskCustomersResponse{}, err
	}

	return dashboarddomain.RiskCustomersResponse{Customers: customers}, nil
}

func (s *Service) ListRatingActivity(ctx context.Context, limit int) (dashboarddomain.RatingActivityResponse, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return dashboarddomain.RatingActivityResponse{}, dashboarddomain.ErrInvalidOrganization
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var activities []activitydomain.Activity
	err := s.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return dashboarddomain.RatingActivityResponse{}, err
	}

	response := dashboarddomain.RatingActivityResponse{
		Activity: make([]dashboarddomain.RatingActivity, 0, len(activities)),
	}
	for _, act := range activities {
		response.Activity = append(response.Activity, dashboarddomain.RatingActivity{
			CustomerID: act.CustomerID.String(),
			Message:    describeActivity(act),
			OccurredAt: act.OccurredAt,
		})
	}
	return response, nil
}

func describeActivity(act activitydomain.Activity) string {
	switch act.Type {
	case activitydomain.TypeRatingComputed:
		if score, ok := act.Detail["score"]; ok {
			return fmt.Sprintf("reliability score updated to %v", score)
		}
		return "reliability score updated"
	case activitydomain.TypeInvoiceOverdue:
		return "invoice became overdue"
	case activitydomain.TypeInvoicePaid:
		return "invoice paid"
	case activitydomain.TypeInvoiceSent:
		return "invoice sent"
	case activitydomain.TypeInvoiceCancelled:
		return "invoice cancelled"
	case activitydomain.TypeReceiptCompleted:
		return "receipt completed"
	case activitydomain.TypeProjectCompleted:
		return "project completed"
	case activitydomain.TypeFeedbackCompleted:
		return "feedback completed"
	case activitydomain.TypeFeedbackOverdue:
		return "feedback request became overdue"
	default:
		return act.Type
	}
}
