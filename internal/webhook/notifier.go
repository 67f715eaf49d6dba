// Package webhook delivers outbox events to subscriber endpoints over HTTP.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smallbiznis/credora/internal/config"
	"github.com/smallbiznis/credora/internal/events"
	"github.com/smallbiznis/credora/internal/observability/metrics"
	"github.com/smallbiznis/credora/internal/observability/tracing"
)

// Subscription registers an endpoint for event delivery. EventType "*"
// subscribes to everything.
type Subscription struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"org_id"`
	URL       string       `gorm:"type:text;not null" json:"url"`
	EventType string       `gorm:"type:text;not null;default:'*'" json:"event_type"`
	Active    bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "webhook_subscriptions" }

// envelope is the wire format posted to subscriber endpoints.
type envelope struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	CreatedAt string         `json:"created_at"`
	Data      map[string]any `json:"data"`
}

type Notifier struct {
	db      *gorm.DB
	log     *zap.Logger
	client  *resty.Client
	secret  string
	metrics *metrics.RatingMetrics
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Config  config.Config
	Metrics *metrics.RatingMetrics
}

func NewNotifier(p Params) *Notifier {
	client := resty.NewWithClient(tracing.WrapHTTPClient(nil)).
		SetTimeout(p.Config.Webhook.Timeout).
		SetRetryCount(p.Config.Webhook.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "credora-webhook/1.0")

	return &Notifier{
		db:      p.DB,
		log:     p.Log.Named("webhook.notifier"),
		client:  client,
		secret:  p.Config.Webhook.SigningSecret,
		metrics: p.Metrics,
	}
}

// Deliver posts one outbox event to every matching active subscription and
// reports how many endpoints accepted it. A partial failure returns the
// delivered count alongside the first error so the caller can retry later.
func (n *Notifier) Deliver(ctx context.Context, event events.PendingEvent) (int, error) {
	var subscriptions []Subscription
	err := n.db.WithContext(ctx).
		Where("org_id = ? AND active = ? AND (event_type = ? OR event_type = '*')",
			event.OrgID, true, event.EventType).
		Find(&subscriptions).Error
	if err != nil {
		return 0, err
	}
	if len(subscriptions) == 0 {
		return 0, nil
	}

	body, err := json.Marshal(envelope{
		ID:        event.ID.String(),
		Type:      event.EventType,
		CreatedAt: event.CreatedAt.UTC().Format(time.RFC3339),
		Data:      event.Payload,
	})
	if err != nil {
		return 0, err
	}

	delivered := 0
	var firstErr error
	for _, sub := range subscriptions {
		if err := n.post(ctx, sub.URL, event.EventType, body); err != nil {
			n.metrics.IncWebhookDelivery("failed")
			n.log.Warn("webhook delivery failed",
				zap.String("event_id", event.ID.String()),
				zap.String("url", sub.URL),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		n.metrics.IncWebhookDelivery("delivered")
		delivered++
	}
	return delivered, firstErr
}

func (n *Notifier) post(ctx context.Context, url, eventType string, body []byte) error {
	req := n.client.R().
		SetContext(ctx).
		SetHeader("X-Credora-Event", eventType).
		SetBody(body)
	if n.secret != "" {
		req.SetHeader("X-Credora-Signature", Sign(n.secret, body))
	}

	resp, err := req.Post(url)
	if err != nil {
		return err
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return fmt.Errorf("webhook endpoint status: %d", resp.StatusCode())
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 of the request body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature in constant time. Exposed so
// subscribers embedding this package can validate deliveries.
func VerifySignature(secret string, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}
