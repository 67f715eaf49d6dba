package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/credora/internal/activity"
	activitydomain "github.com/smallbiznis/credora/internal/activity/domain"
	"github.com/smallbiznis/credora/internal/cache"
	customerdomain "github.com/smallbiznis/credora/internal/customer/domain"
	"github.com/smallbiznis/credora/internal/events"
	feedbackdomain "github.com/smallbiznis/credora/internal/feedback/domain"
	invoicedomain "github.com/smallbiznis/credora/internal/invoice/domain"
	obscontext "github.com/smallbiznis/credora/internal/observability/context"
	"github.com/smallbiznis/credora/internal/observability/metrics"
	"github.com/smallbiznis/credora/internal/orgcontext"
	projectdomain "github.com/smallbiznis/credora/internal/project/domain"
	ratingdomain "github.com/smallbiznis/credora/internal/rating/domain"
	"github.com/smallbiznis/credora/internal/rating/engine"
	receiptdomain "github.com/smallbiznis/credora/internal/receipt/domain"
)

const historyLimit = 500

// RatingCache caches scored ratings keyed by "<org_id>:<customer_id>".
type RatingCache = cache.Cache[string, ratingdomain.Rating]

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	outbox   *events.Outbox
	recorder *activity.Recorder
	cache    RatingCache
	cacheTTL time.Duration
	metrics  *metrics.RatingMetrics
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Outbox   *events.Outbox
	Recorder *activity.Recorder
	Cache    RatingCache
	CacheTTL time.Duration `name:"rating_cache_ttl"`
	Metrics  *metrics.RatingMetrics
}

func NewService(p Params) ratingdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("rating.service"),
		genID:    p.GenID,
		outbox:   p.Outbox,
		recorder: p.Recorder,
		cache:    p.Cache,
		cacheTTL: p.CacheTTL,
		metrics:  p.Metrics,
	}
}

// RateCustomer scores one customer from their full persisted history. The
// call never fails on history problems: when loading breaks partway the
// customer gets the neutral default score flagged as degraded.
func (s *Service) RateCustomer(ctx context.Context, customerID string) (ratingdomain.Rating, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return ratingdomain.Rating{}, ratingdomain.ErrInvalidOrganization
	}
	id, err := snowflake.ParseString(strings.TrimSpace(customerID))
	if err != nil {
		return ratingdomain.Rating{}, ratingdomain.ErrInvalidCustomer
	}

	cacheKey := fmt.Sprintf("%s:%s", orgID.String(), id.String())
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached, nil
	}

	rating, err := s.rate(ctx, orgID, id)
	if err != nil {
		return ratingdomain.Rating{}, err
	}
	if !rating.Degraded {
		s.cache.Set(cacheKey, rating, s.cacheTTL)
	}
	return rating, nil
}

// RateAll scores every customer of the caller's organization sequentially.
// Individual degraded results do not abort the run.
func (s *Service) RateAll(ctx context.Context) (ratingdomain.BulkRatingResult, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return ratingdomain.BulkRatingResult{}, ratingdomain.ErrInvalidOrganization
	}

	started := time.Now()
	var customerIDs []snowflake.ID
	err := s.db.WithContext(ctx).
		Model(&customerdomain.Customer{}).
		Where("org_id = ?", orgID).
		Order("id ASC").
		Pluck("id", &customerIDs).Error
	if err != nil {
		return ratingdomain.BulkRatingResult{}, err
	}

	result := ratingdomain.BulkRatingResult{Ratings: make([]ratingdomain.Rating, 0, len(customerIDs))}
	for _, id := range customerIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rating, err := s.rate(ctx, orgID, id)
		if err != nil {
			s.log.Warn("bulk rating skipped customer",
				zap.String("customer_id", id.String()),
				zap.Error(err))
			continue
		}
		result.Rated++
		if rating.Degraded {
			result.Degraded++
		} else {
			s.cache.Set(fmt.Sprintf("%s:%s", orgID.String(), id.String()), rating, s.cacheTTL)
		}
		result.Ratings = append(result.Ratings, rating)
	}

	s.metrics.ObserveRatingDuration("bulk", time.Since(started))
	s.log.Info("bulk rating finished",
		zap.String("org_id", orgID.String()),
		zap.Int("rated", result.Rated),
		zap.Int("degraded", result.Degraded))
	return result, nil
}

func (s *Service) rate(ctx context.Context, orgID, customerID snowflake.ID) (ratingdomain.Rating, error) {
	started := time.Now()

	var customer customerdomain.Customer
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, customerID).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ratingdomain.Rating{}, ratingdomain.ErrCustomerNotFound
		}
		return ratingdomain.Rating{}, err
	}

	now := time.Now().UTC()
	data, err := s.loadHistory(ctx, orgID, customer)
	if err != nil {
		// History could not be assembled; fall back to the neutral score
		// without invoking the engine on partial data.
		s.log.Warn("rating degraded, history load failed",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
		s.metrics.IncRatingComputed("degraded")
		return ratingdomain.Rating{
			CustomerID: customerID.String(),
			Score:      int(engine.DefaultScore),
			Category:   engine.Categorize(engine.DefaultScore),
			Degraded:   true,
			ComputedAt: now,
		}, nil
	}

	score := engine.Score(data)
	category := engine.Categorize(score)
	rating := ratingdomain.Rating{
		CustomerID: customerID.String(),
		Score:      int(score + 0.5),
		Category:   category,
		ComputedAt: now,
	}

	if err := s.persist(ctx, orgID, customerID, rating); err != nil {
		s.log.Warn("rating snapshot persist failed",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
	}

	s.metrics.ObserveRatingDuration("single", time.Since(started))
	s.metrics.IncRatingComputed("scored")
	s.metrics.ObserveScore(category.Category, score)
	return rating, nil
}

// loadHistory assembles the scoring input from the persisted entity tables.
// Any query error aborts assembly so the caller can degrade cleanly.
func (s *Service) loadHistory(ctx context.Context, orgID snowflake.ID, customer customerdomain.Customer) (ratingdomain.CustomerRatingData, error) {
	var data ratingdomain.CustomerRatingData
	data.CustomerID = customer.ID.String()
	createdAt := customer.CreatedAt.UTC()
	data.CustomerCreatedAt = &createdAt

	var invoices []invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND customer_id = ?", orgID, customer.ID).
		Order("created_at DESC").
		Limit(historyLimit).
		Find(&invoices).Error
	if err != nil {
		return ratingdomain.CustomerRatingData{}, fmt.Errorf("load invoices: %w", err)
	}
	for _, inv := range invoices {
		created := inv.CreatedAt
		data.Invoices = append(data.Invoices, ratingdomain.InvoiceRecord{
			Status:     string(inv.Status),
			DueDate:    inv.DueDate,
			CreatedAt:  &created,
			PaidAt:     inv.PaidAt,
			TotalCents: inv.TotalCents,
		})
	}

	var receipts []receiptdomain.Receipt
	err = s.db.WithContext(ctx).
		Where("org_id = ? AND customer_id = ?", orgID, customer.ID).
		Order("created_at DESC").
		Limit(historyLimit).
		Find(&receipts).Error
	if err != nil {
		return ratingdomain.CustomerRatingData{}, fmt.Errorf("load receipts: %w", err)
	}
	for _, rec := range receipts {
		created := rec.CreatedAt
		data.Receipts = append(data.Receipts, ratingdomain.ReceiptRecord{
			Status:    string(rec.Status),
			CreatedAt: &created,
		})
	}

	var projects []projectdomain.Project
	err = s.db.WithContext(ctx).
		Where("org_id = ? AND customer_id = ?", orgID, customer.ID).
		Order("created_at DESC").
		Limit(historyLimit).
		Find(&projects).Error
	if err != nil {
		return ratingdomain.CustomerRatingData{}, fmt.Errorf("load projects: %w", err)
	}
	for _, proj := range projects {
		created := proj.CreatedAt
		data.Projects = append(data.Projects, ratingdomain.ProjectRecord{
			Status:    string(proj.Status),
			CreatedAt: &created,
		})
	}

	var feedbacks []feedbackdomain.Feedback
	err = s.db.WithContext(ctx).
		Where("org_id = ? AND customer_id = ?", orgID, customer.ID).
		Order("created_at DESC").
		Limit(historyLimit).
		Find(&feedbacks).Error
	if err != nil {
		return ratingdomain.CustomerRatingData{}, fmt.Errorf("load feedbacks: %w", err)
	}
	for _, fb := range feedbacks {
		created := fb.CreatedAt
		data.Feedbacks = append(data.Feedbacks, ratingdomain.FeedbackRecord{
			Status:    string(fb.Status),
			CreatedAt: &created,
		})
	}

	acts, err := s.recorder.ListByCustomer(ctx, orgID, customer.ID, historyLimit)
	if err != nil {
		return ratingdomain.CustomerRatingData{}, fmt.Errorf("load activities: %w", err)
	}
	for _, act := range acts {
		occurred := act.OccurredAt
		refID := ""
		if act.ReferenceID != nil {
			refID = act.ReferenceID.String()
		}
		data.Activities = append(data.Activities, ratingdomain.Activity{
			Type:          act.Type,
			OccurredAt:    &occurred,
			ReferenceType: string(act.ReferenceType),
			ReferenceID:   refID,
		})
	}

	return data, nil
}

// persist upserts the score snapshot and, inside the same transaction,
// records the activity and queues the outbox event. The dedupe key folds in
// the score so an unchanged rating does not re-notify subscribers.
func (s *Service) persist(ctx context.Context, orgID, customerID snowflake.ID, rating ratingdomain.Rating) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var previous *int
		var existing ratingdomain.CustomerRating
		err := tx.Where("org_id = ? AND customer_id = ?", orgID, customerID).
			First(&existing).Error
		switch {
		case err == nil:
			prev := existing.Score
			previous = &prev
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		err = tx.Exec(
			`INSERT INTO customer_ratings (id, org_id, customer_id, score, category, degraded, computed_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, false, ?, ?, ?)
			 ON CONFLICT (org_id, customer_id) DO UPDATE SET
			   score = excluded.score,
			   category = excluded.category,
			   degraded = excluded.degraded,
			   computed_at = excluded.computed_at,
			   updated_at = excluded.updated_at`,
			s.genID.Generate(),
			orgID,
			customerID,
			rating.Score,
			rating.Category.Category,
			rating.ComputedAt,
			rating.ComputedAt,
			rating.ComputedAt,
		).Error
		if err != nil {
			return err
		}

		if previous == nil || *previous != rating.Score {
			if err := s.recorder.RecordTx(ctx, tx, activity.Entry{
				OrgID:         orgID,
				CustomerID:    customerID,
				Type:          activitydomain.TypeRatingComputed,
				ReferenceType: activitydomain.ReferenceRating,
				Detail: map[string]any{
					"score":    rating.Score,
					"category": rating.Category.Category,
				},
			}); err != nil {
				return err
			}
		}

		payload := events.RatingComputedPayload{
			CustomerID: customerID.String(),
			OrgID:      orgID.String(),
			Score:      rating.Score,
			Category:   rating.Category.Category,
			Previous:   previous,
			ComputedAt: rating.ComputedAt.Format(time.RFC3339),
		}
		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			payload.RequestID = &requestID
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			OrgID:     orgID,
			Type:      events.EventRatingComputed,
			Payload:   payload.ToMap(),
			DedupeKey: fmt.Sprintf("%s:%s:%d", events.EventRatingComputed, customerID.String(), rating.Score),
		})
	})
}
