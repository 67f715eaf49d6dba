package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smallbiznis/credora/internal/config"
	"github.com/smallbiznis/credora/internal/events"
	"github.com/smallbiznis/credora/internal/observability/metrics"
)

func setupWebhookTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.Exec(
		`CREATE TABLE IF NOT EXISTS webhook_subscriptions (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			url TEXT NOT NULL,
			event_type TEXT NOT NULL DEFAULT '*',
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL
		)`,
	).Error
	if err != nil {
		t.Fatalf("create webhook_subscriptions: %v", err)
	}
	return db
}

func newTestNotifier(t *testing.T, db *gorm.DB, secret string) *Notifier {
	t.Helper()
	return NewNotifier(Params{
		DB:  db,
		Log: zap.NewNop(),
		Config: config.Config{
			Webhook: config.WebhookConfig{
				SigningSecret: secret,
				Timeout:       2 * time.Second,
				RetryCount:    0,
			},
		},
		Metrics: metrics.Rating(),
	})
}

func insertSubscription(t *testing.T, db *gorm.DB, id, orgID int64, url, eventType string, active bool) {
	t.Helper()
	err := db.Exec(
		`INSERT INTO webhook_subscriptions (id, org_id, url, event_type, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, orgID, url, eventType, active, time.Now().UTC(),
	).Error
	if err != nil {
		t.Fatalf("insert subscription: %v", err)
	}
}

func pendingEvent(orgID int64) events.PendingEvent {
	return events.PendingEvent{
		ID:        snowflake.ID(42),
		OrgID:     snowflake.ID(orgID),
		EventType: events.EventRatingComputed,
		Payload:   datatypes.JSONMap{"customer_id": "7", "score": float64(82)},
		CreatedAt: time.Now().UTC(),
	}
}

func TestDeliverSignsAndPosts(t *testing.T) {
	db := setupWebhookTestDB(t)

	var gotSignature, gotEvent string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Credora-Signature")
		gotEvent = r.Header.Get("X-Credora-Event")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	orgID := int64(501)
	insertSubscription(t, db, 1, orgID, server.URL, "*", true)

	notifier := newTestNotifier(t, db, "test-secret")
	delivered, err := notifier.Deliver(context.Background(), pendingEvent(orgID))
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if delivered != 1 {
		t.Fatalf("expected 1 delivery, got %d", delivered)
	}
	if gotEvent != events.EventRatingComputed {
		t.Fatalf("unexpected event header %q", gotEvent)
	}
	if !VerifySignature("test-secret", gotBody, gotSignature) {
		t.Fatalf("signature does not verify")
	}

	var env envelope
	if err := json.Unmarshal(gotBody, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Type != events.EventRatingComputed || env.Data["customer_id"] != "7" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestDeliverSkipsInactiveAndForeignSubscriptions(t *testing.T) {
	db := setupWebhookTestDB(t)

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	orgID := int64(502)
	insertSubscription(t, db, 1, orgID, server.URL, "*", false)               // inactive
	insertSubscription(t, db, 2, orgID+1, server.URL, "*", true)              // other org
	insertSubscription(t, db, 3, orgID, server.URL, "invoice.overdue", true) // other event

	notifier := newTestNotifier(t, db, "")
	delivered, err := notifier.Deliver(context.Background(), pendingEvent(orgID))
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if delivered != 0 {
		t.Fatalf("expected 0 deliveries, got %d", delivered)
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no endpoint hits, got %d", hits.Load())
	}
}

func TestDeliverReportsEndpointFailure(t *testing.T) {
	db := setupWebhookTestDB(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	orgID := int64(503)
	insertSubscription(t, db, 1, orgID, server.URL, "*", true)

	notifier := newTestNotifier(t, db, "")
	delivered, err := notifier.Deliver(context.Background(), pendingEvent(orgID))
	if err == nil {
		t.Fatalf("expected error for 5xx endpoint")
	}
	if delivered != 0 {
		t.Fatalf("expected 0 deliveries, got %d", delivered)
	}
}
