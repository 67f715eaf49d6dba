package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dashboarddomain "github.com/smallbiznis/credora/internal/dashboard/domain"
	"github.com/smallbiznis/credora/internal/orgcontext"
)

func setupDashboardTestDB(t *testing.T) *gorm.DB {
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
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func newDashboardTestService(t *testing.T, db *gorm.DB) dashboarddomain.Service {
	t.Helper()
	return NewService(Params{DB: db, Log: zap.NewNop()})
}

func seedDashboardCustomer(t *testing.T, db *gorm.DB, id, orgID int64, name string) {
	t.Helper()
	now := time.Now().UTC()
	err := db.Exec(
		`INSERT INTO customers (id, org_id, name, email, currency, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 'USD', '{}', ?, ?)`,
		id, orgID, name, name+"@example.test", now, now,
	).Error
	if err != nil {
		t.Fatalf("insert customer: %v", err)
	}
}

func seedDashboardRating(t *testing.T, db *gorm.DB, id, orgID, customerID int64, score int, category string, degraded bool) {
	t.Helper()
	now := time.Now().UTC()
	err := db.Exec(
		`INSERT INTO customer_ratings (id, org_id, customer_id, score, category, degraded, computed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, orgID, customerID, score, category, degraded, now, now, now,
	).Error
	if err != nil {
		t.Fatalf("insert rating: %v", err)
	}
}

func seedOverdueInvoice(t *testing.T, db *gorm.DB, id, orgID, customerID, cents int64) {
	t.Helper()
	now := time.Now().UTC()
	err := db.Exec(
		`INSERT INTO invoices (id, org_id, customer_id, number, status, currency, total_cents, due_date, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 'overdue', 'USD', ?, ?, '{}', ?, ?)`,
		id, orgID, customerID, fmt.Sprintf("INV-%d", id), cents, now.Add(-10*24*time.Hour), now, now,
	).Error
	if err != nil {
		t.Fatalf("insert invoice: %v", err)
	}
}

func TestRatingDistribution(t *testing.T) {
	db := setupDashboardTestDB(t)
	svc := newDashboardTestService(t, db)

	orgID := int64(7301)
	seedDashboardRating(t, db, 1, orgID, 101, 30, "Poor", false)
	seedDashboardRating(t, db, 2, orgID, 102, 35, "Poor", false)
	seedDashboardRating(t, db, 3, orgID, 103, 82, "Excellent", false)
	seedDashboardRating(t, db, 4, orgID, 104, 75, "Good", true)
	// Another org's snapshots must not appear.
	seedDashboardRating(t, db, 5, 9999, 105, 10, "Very Poor", false)

	ctx := orgcontext.WithOrgID(context.Background(), orgID)
	resp, err := svc.RatingDistribution(ctx)
	if err != nil {
		t.Fatalf("rating distribution: %v", err)
	}

	if resp.Total != 4 {
		t.Fatalf("expected 4 rated customers, got %d", resp.Total)
	}
	if resp.Degraded != 1 {
		t.Fatalf("expected 1 degraded snapshot, got %d", resp.Degraded)
	}
	counts := map[string]int64{}
	for _, c := range resp.Categories {
		counts[c.Category] = c.Count
	}
	if counts["Poor"] != 2 || counts["Excellent"] != 1 || counts["Good"] != 1 {
		t.Fatalf("unexpected category counts: %v", counts)
	}
	if _, ok := counts["Very Poor"]; ok {
		t.Fatalf("expected foreign org snapshots to be excluded")
	}
}

func TestRatingDistributionRequiresOrg(t *testing.T) {
	db := setupDashboardTestDB(t)
	svc := newDashboardTestService(t, db)

	_, err := svc.RatingDistribution(context.Background())
	if !errors.Is(err, dashboarddomain.ErrInvalidOrganization) {
		t.Fatalf("expected ErrInvalidOrganization, got %v", err)
	}
}

func TestListRiskCustomersOrdersByScoreAndExposure(t *testing.T) {
	db := setupDashboardTestDB(t)
	svc := newDashboardTestService(t, db)

	orgID := int64(7302)
	seedDashboardCustomer(t, db, 201, orgID, "late-and-low")
	seedDashboardCustomer(t, db, 202, orgID, "late-but-unrated")
	seedDashboardCustomer(t, db, 203, orgID, "paid-up")

	seedDashboardRating(t, db, 21, orgID, 201, 22, "Poor", false)
	seedOverdueInvoice(t, db, 31, orgID, 201, 4000)
	seedOverdueInvoice(t, db, 32, orgID, 201, 6000)
	seedOverdueInvoice(t, db, 33, orgID, 202, 2500)

	ctx := orgcontext.WithOrgID(context.Background(), orgID)
	resp, err := svc.ListRiskCustomers(ctx, 0)
	if err != nil {
		t.Fatalf("list risk customers: %v", err)
	}

	if len(resp.Customers) != 2 {
		t.Fatalf("expected 2 at-risk customers, got %d", len(resp.Customers))
	}
	first := resp.Customers[0]
	if first.Name != "late-and-low" || first.Score != 22 || first.Category != "Poor" {
		t.Fatalf("unexpected first risk row: %+v", first)
	}
	if first.OverdueCount != 2 || first.OverdueCents != 10000 {
		t.Fatalf("expected summed exposure 2/10000, got %d/%d", first.OverdueCount, first.OverdueCents)
	}
	second := resp.Customers[1]
	if second.Name != "late-but-unrated" {
		t.Fatalf("unexpected second risk row: %+v", second)
	}
	if second.Score != 75 || second.Category != "Good" {
		t.Fatalf("expected unrated customer to default to 75/Good, got %d/%q", second.Score, second.Category)
	}
}

func TestListRatingActivityDescribesEvents(t *testing.T) {
	db := setupDashboardTestDB(t)
	svc := newDashboardTestService(t, db)

	orgID := int64(7303)
	now := time.Now().UTC()
	rows := []struct {
		id         int64
		eventType  string
		detail     string
		occurredAt time.Time
	}{
		{41, "invoice.overdue", `{}`, now.Add(-2 * time.Hour)},
		{42, "rating.computed", `{"score": 62}`, now.Add(-1 * time.Hour)},
		{43, "invoice.paid", `{}`, now.Add(-3 * time.Hour)},
	}
	for _, row := range rows {
		err := db.Exec(
			`INSERT INTO activities (id, org_id, customer_id, type, detail, occurred_at, created_at)
			 VALUES (?, ?, 301, ?, ?, ?, ?)`,
			row.id, orgID, row.eventType, row.detail, row.occurredAt, row.occurredAt,
		).Error
		if err != nil {
			t.Fatalf("insert activity: %v", err)
		}
	}

	ctx := orgcontext.WithOrgID(context.Background(), orgID)
	resp, err := svc.ListRatingActivity(ctx, 10)
	if err != nil {
		t.Fatalf("list rating activity: %v", err)
	}

	if len(resp.Activity) != 3 {
		t.Fatalf("expected 3 activity rows, got %d", len(resp.Activity))
	}
	if resp.Activity[0].Message != "reliability score updated to 62" {
		t.Fatalf("expected score message first, got %q", resp.Activity[0].Message)
	}
	if resp.Activity[1].Message != "invoice became overdue" {
		t.Fatalf("expected overdue message second, got %q", resp.Activity[1].Message)
	}
	if resp.Activity[2].Message != "invoice paid" {
		t.Fatalf("expected paid message third, got %q", resp.Activity[2].Message)
	}
}
