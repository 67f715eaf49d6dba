package sweep

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smallbiznis/credora/internal/activity"
	"github.com/smallbiznis/credora/internal/cache"
	"github.com/smallbiznis/credora/internal/config"
	"github.com/smallbiznis/credora/internal/events"
	feedbackservice "github.com/smallbiznis/credora/internal/feedback/service"
	invoiceservice "github.com/smallbiznis/credora/internal/invoice/service"
	"github.com/smallbiznis/credora/internal/observability/metrics"
	ratingdomain "github.com/smallbiznis/credora/internal/rating/domain"
	ratingservice "github.com/smallbiznis/credora/internal/rating/service"
	"github.com/smallbiznis/credora/internal/webhook"
)

func setupSweepTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS invoices (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			customer_id BIGINT NOT NULL,
			number TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			currency TEXT NOT NULL,
			total_cents BIGINT NOT NULL,
			due_date TIMESTAMP,
			sent_at TIMESTAMP,
			paid_at TIMESTAMP,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS receipts (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			customer_id BIGINT NOT NULL,
			invoice_id BIGINT,
			status TEXT NOT NULL DEFAULT 'draft',
			amount_cents BIGINT NOT NULL,
			currency TEXT NOT NULL,
			completed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			customer_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			completed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS feedbacks (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			customer_id BIGINT NOT NULL,
			subject TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			due_date TIMESTAMP,
			sent_at TIMESTAMP,
			completed_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			customer_id BIGINT NOT NULL,
			type TEXT NOT NULL,
			reference_type TEXT,
			reference_id BIGINT,
			detail TEXT NOT NULL DEFAULT '{}',
			occurred_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS customer_ratings (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			customer_id BIGINT NOT NULL,
			score INTEGER NOT NULL,
			category TEXT NOT NULL,
			degraded BOOLEAN NOT NULL DEFAULT false,
			computed_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (org_id, customer_id)
		)`,
		`CREATE TABLE IF NOT EXISTS rating_events (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '{}',
			dedupe_key TEXT,
			published BOOLEAN NOT NULL DEFAULT false,
			published_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (org_id, dedupe_key)
		)`,
		`CREATE TABLE IF NOT EXISTS webhook_subscriptions (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			url TEXT NOT NULL,
			event_type TEXT NOT NULL DEFAULT '*',
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func newSweepTestWorker(t *testing.T, db *gorm.DB) *Worker {
	t.Helper()
	return newSweepTestWorkerWithConfig(t, db, Config{BatchSize: 50, PollInterval: time.Minute})
}

func newSweepTestWorkerWithConfig(t *testing.T, db *gorm.DB, cfg Config) *Worker {
	t.Helper()
	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("new snowflake node: %v", err)
	}
	log := zap.NewNop()
	recorder := activity.NewRecorder(activity.RecorderParams{DB: db, Log: log, GenID: node})
	outbox := events.NewOutbox(db, node)
	ratingCache := cache.NewTTLCache[string, ratingdomain.Rating]()
	m := metrics.Rating()

	ratingSvc := ratingservice.NewService(ratingservice.Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Outbox:   outbox,
		Recorder: recorder,
		Cache:    ratingCache,
		CacheTTL: time.Minute,
		Metrics:  m,
	})
	invoiceSvc := invoiceservice.NewService(invoiceservice.Params{
		DB: db, Log: log, GenID: node, Recorder: recorder,
	})
	feedbackSvc := feedbackservice.NewService(feedbackservice.Params{
		DB: db, Log: log, GenID: node, Recorder: recorder,
	})
	notifier := webhook.NewNotifier(webhook.Params{
		DB:  db,
		Log: log,
		Config: config.Config{
			Webhook: config.WebhookConfig{Timeout: time.Second},
		},
		Metrics: m,
	})

	return NewWorker(Params{
		DB:          db,
		Log:         log,
		InvoiceSvc:  invoiceSvc,
		FeedbackSvc: feedbackSvc,
		RatingSvc:   ratingSvc,
		Cache:       ratingCache,
		Outbox:      outbox,
		Notifier:    notifier,
		Metrics:     m,
		Config:      cfg,
	})
}

func TestRunOnceMarksOverdueAndRefreshesRatings(t *testing.T) {
	db := setupSweepTestDB(t)
	worker := newSweepTestWorker(t, db)

	orgID := int64(7001)
	customerID := int64(8001)
	now := time.Now().UTC()
	created := now.Add(-365 * 24 * time.Hour)

	err := db.Exec(
		`INSERT INTO customers (id, org_id, name, email, currency, metadata, created_at, updated_at)
		 VALUES (?, ?, 'acme', 'acme@example.test', 'USD', '{}', ?, ?)`,
		customerID, orgID, created, created,
	).Error
	if err != nil {
		t.Fatalf("insert customer: %v", err)
	}

	pastDue := now.Add(-10 * 24 * time.Hour)
	sentAt := now.Add(-20 * 24 * time.Hour)
	err = db.Exec(
		`INSERT INTO invoices (id, org_id, customer_id, number, status, currency, total_cents, due_date, sent_at, metadata, created_at, updated_at)
		 VALUES (9001, ?, ?, 'INV-9001', 'sent', 'USD', 5000, ?, ?, '{}', ?, ?)`,
		orgID, customerID, pastDue, sentAt, sentAt, sentAt,
	).Error
	if err != nil {
		t.Fatalf("insert invoice: %v", err)
	}
	err = db.Exec(
		`INSERT INTO feedbacks (id, org_id, customer_id, subject, status, due_date, sent_at, created_at, updated_at)
		 VALUES (9002, ?, ?, 'quarterly survey', 'sent', ?, ?, ?, ?)`,
		orgID, customerID, pastDue, sentAt, sentAt, sentAt,
	).Error
	if err != nil {
		t.Fatalf("insert feedback: %v", err)
	}

	if err := worker.RunOnce(); err != nil {
		t.Fatalf("run once: %v", err)
	}

	var invoiceStatus string
	if err := db.Table("invoices").Where("id = 9001").Pluck("status", &invoiceStatus).Error; err != nil {
		t.Fatalf("read invoice: %v", err)
	}
	if invoiceStatus != "overdue" {
		t.Fatalf("expected invoice overdue, got %q", invoiceStatus)
	}

	var feedbackStatus string
	if err := db.Table("feedbacks").Where("id = 9002").Pluck("status", &feedbackStatus).Error; err != nil {
		t.Fatalf("read feedback: %v", err)
	}
	if feedbackStatus != "overdue" {
		t.Fatalf("expected feedback overdue, got %q", feedbackStatus)
	}

	var score int
	err = db.Table("customer_ratings").
		Where("org_id = ? AND customer_id = ?", orgID, customerID).
		Pluck("score", &score).Error
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if score >= 75 {
		t.Fatalf("expected overdue history to pull score below baseline, got %d", score)
	}

	// No subscribers, so drained events are marked published immediately.
	var unpublished int64
	if err := db.Table("rating_events").Where("published = ?", false).Count(&unpublished).Error; err != nil {
		t.Fatalf("count unpublished: %v", err)
	}
	if unpublished != 0 {
		t.Fatalf("expected outbox drained, %d events pending", unpublished)
	}
}

func TestRunOnceIsIdempotentWhenNothingChanged(t *testing.T) {
	db := setupSweepTestDB(t)
	worker := newSweepTestWorker(t, db)

	if err := worker.RunOnce(); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := worker.RunOnce(); err != nil {
		t.Fatalf("second run: %v", err)
	}

	var snapshots int64
	if err := db.Table("customer_ratings").Count(&snapshots).Error; err != nil {
		t.Fatalf("count snapshots: %v", err)
	}
	if snapshots != 0 {
		t.Fatalf("expected no snapshots without customers, got %d", snapshots)
	}
}

func TestStartKeepsSweepingAfterStartupReturns(t *testing.T) {
	db := setupSweepTestDB(t)
	worker := newSweepTestWorkerWithConfig(t, db, Config{BatchSize: 50, PollInterval: 20 * time.Millisecond})

	worker.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := worker.Stop(stopCtx); err != nil {
			t.Fatalf("stop worker: %v", err)
		}
	}()

	// Let the initial pass finish, then seed work that only a later tick
	// can pick up.
	time.Sleep(60 * time.Millisecond)

	now := time.Now().UTC()
	created := now.Add(-365 * 24 * time.Hour)
	if err := db.Exec(
		`INSERT INTO customers (id, org_id, name, email, currency, metadata, created_at, updated_at)
		 VALUES (8101, 7101, 'globex', 'globex@example.test', 'USD', '{}', ?, ?)`,
		created, created,
	).Error; err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	pastDue := now.Add(-10 * 24 * time.Hour)
	sentAt := now.Add(-20 * 24 * time.Hour)
	if err := db.Exec(
		`INSERT INTO invoices (id, org_id, customer_id, number, status, currency, total_cents, due_date, sent_at, metadata, created_at, updated_at)
		 VALUES (9101, 7101, 8101, 'INV-9101', 'sent', 'USD', 5000, ?, ?, '{}', ?, ?)`,
		pastDue, sentAt, sentAt, sentAt,
	).Error; err != nil {
		t.Fatalf("insert invoice: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		var status string
		if err := db.Table("invoices").Where("id = 9101").Pluck("status", &status).Error; err != nil {
			t.Fatalf("read invoice: %v", err)
		}
		if status == "overdue" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("sweep loop never marked the invoice overdue, status %q", status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStopHaltsSweepLoop(t *testing.T) {
	db := setupSweepTestDB(t)
	worker := newSweepTestWorkerWithConfig(t, db, Config{BatchSize: 50, PollInterval: 20 * time.Millisecond})

	worker.Start()
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := worker.Stop(stopCtx); err != nil {
		t.Fatalf("stop worker: %v", err)
	}

	now := time.Now().UTC()
	pastDue := now.Add(-10 * 24 * time.Hour)
	sentAt := now.Add(-20 * 24 * time.Hour)
	if err := db.Exec(
		`INSERT INTO invoices (id, org_id, customer_id, number, status, currency, total_cents, due_date, sent_at, metadata, created_at, updated_at)
		 VALUES (9201, 7201, 8201, 'INV-9201', 'sent', 'USD', 5000, ?, ?, '{}', ?, ?)`,
		pastDue, sentAt, sentAt, sentAt,
	).Error; err != nil {
		t.Fatalf("insert invoice: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	var status string
	if err := db.Table("invoices").Where("id = 9201").Pluck("status", &status).Error; err != nil {
		t.Fatalf("read invoice: %v", err)
	}
	if status != "sent" {
		t.Fatalf("expected stopped loop to leave invoice untouched, got %q", status)
	}
}
