// Package sweep runs the periodic maintenance pass: marking overdue
// records, refreshing stale ratings, and draining the event outbox.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/credora/internal/events"
	feedbackdomain "github.com/smallbiznis/credora/internal/feedback/domain"
	invoicedomain "github.com/smallbiznis/credora/internal/invoice/domain"
	"github.com/smallbiznis/credora/internal/observability/metrics"
	"github.com/smallbiznis/credora/internal/orgcontext"
	ratingdomain "github.com/smallbiznis/credora/internal/rating/domain"
	ratingservice "github.com/smallbiznis/credora/internal/rating/service"
	"github.com/smallbiznis/credora/internal/webhook"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	InvoiceSvc  invoicedomain.Service
	FeedbackSvc feedbackdomain.Service
	RatingSvc   ratingdomain.Service
	Cache       ratingservice.RatingCache
	Outbox      *events.Outbox
	Notifier    *webhook.Notifier
	Metrics     *metrics.RatingMetrics
	Config      Config `optional:"true"`
}

type Worker struct {
	db          *gorm.DB
	log         *zap.Logger
	invoiceSvc  invoicedomain.Service
	feedbackSvc feedbackdomain.Service
	ratingSvc   ratingdomain.Service
	cache       ratingservice.RatingCache
	outbox      *events.Outbox
	notifier    *webhook.Notifier
	metrics     *metrics.RatingMetrics
	cfg         Config

	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorker(p Params) *Worker {
	cfg := p.Config.withDefaults()
	return &Worker{
		db:          p.DB,
		log:         p.Log.Named("rating.sweep"),
		invoiceSvc:  p.InvoiceSvc,
		feedbackSvc: p.FeedbackSvc,
		ratingSvc:   p.RatingSvc,
		cache:       p.Cache,
		outbox:      p.Outbox,
		notifier:    p.Notifier,
		metrics:     p.Metrics,
		cfg:         cfg,
	}
}

// Start launches the sweep loop on a context owned by the worker. The
// lifecycle start context carries a deadline, so the loop must not wait
// on it; it runs until Stop.
func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go func() {
		defer close(w.done)
		w.RunForever(ctx)
	}()
}

// Stop cancels the sweep loop and waits for the in-flight pass to finish.
func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(); err != nil {
			w.log.Warn("rating sweep run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	started := time.Now()
	err := w.sweep(ctx)
	w.metrics.ObserveSweepDuration(time.Since(started))
	return err
}

func (w *Worker) sweep(ctx context.Context) error {
	if w.db == nil || w.invoiceSvc == nil || w.feedbackSvc == nil || w.ratingSvc == nil {
		return errors.New("sweep_worker_unavailable")
	}

	now := time.Now().UTC()

	invoices, err := w.invoiceSvc.MarkOverdue(ctx, now, w.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("mark overdue invoices: %w", err)
	}
	w.metrics.IncOverdueMarked("invoice", invoices)

	feedbacks, err := w.feedbackSvc.MarkOverdue(ctx, now, w.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("mark overdue feedbacks: %w", err)
	}
	w.metrics.IncOverdueMarked("feedback", feedbacks)

	refreshed, err := w.refreshStaleRatings(ctx)
	if err != nil {
		return fmt.Errorf("refresh ratings: %w", err)
	}

	drained, err := w.drainOutbox(ctx)
	if err != nil {
		return fmt.Errorf("drain outbox: %w", err)
	}

	if invoices+feedbacks+refreshed+drained > 0 {
		w.log.Info("rating sweep pass",
			zap.Int("invoices_overdue", invoices),
			zap.Int("feedbacks_overdue", feedbacks),
			zap.Int("ratings_refreshed", refreshed),
			zap.Int("events_drained", drained))
	}
	return nil
}

type staleCustomer struct {
	OrgID      int64 `gorm:"column:org_id"`
	CustomerID int64 `gorm:"column:customer_id"`
}

// refreshStaleRatings re-scores customers whose newest activity postdates
// their snapshot, or who have activity but no snapshot yet.
func (w *Worker) refreshStaleRatings(ctx context.Context) (int, error) {
	var stale []staleCustomer
	err := w.db.WithContext(ctx).Raw(
		`SELECT a.org_id, a.customer_id
		 FROM activities a
		 LEFT JOIN customer_ratings r
		   ON r.org_id = a.org_id AND r.customer_id = a.customer_id
		 GROUP BY a.org_id, a.customer_id, r.computed_at
		 HAVING r.computed_at IS NULL OR MAX(a.occurred_at) > r.computed_at
		 LIMIT ?`,
		w.cfg.BatchSize,
	).Scan(&stale).Error
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, row := range stale {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		// Drop the cached rating so the refresh hits the engine.
		w.cache.Delete(fmt.Sprintf("%d:%d", row.OrgID, row.CustomerID))

		orgCtx := orgcontext.WithOrgID(ctx, row.OrgID)
		if _, err := w.ratingSvc.RateCustomer(orgCtx, fmt.Sprint(row.CustomerID)); err != nil {
			w.log.Warn("sweep rating refresh failed",
				zap.Int64("org_id", row.OrgID),
				zap.Int64("customer_id", row.CustomerID),
				zap.Error(err))
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// drainOutbox pushes pending events to webhook subscribers. Events whose
// delivery fails stay pending for the next pass.
func (w *Worker) drainOutbox(ctx context.Context) (int, error) {
	if w.outbox == nil || w.notifier == nil {
		return 0, nil
	}

	pending, err := w.outbox.FetchPending(ctx, w.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	drained := 0
	for _, event := range pending {
		if _, err := w.notifier.Deliver(ctx, event); err != nil {
			continue
		}
		if err := w.outbox.MarkPublished(ctx, event.ID); err != nil {
			w.log.Warn("mark published failed",
				zap.String("event_id", event.ID.String()),
				zap.Error(err))
			continue
		}
		drained++
	}
	return drained, nil
}
