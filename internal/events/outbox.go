package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var Module = fx.Module("events",
	fx.Provide(NewOutbox),
)

// Event describes a rating event to store in the outbox.
type Event struct {
	OrgID     snowflake.ID
	Type      string
	Payload   map[string]any
	DedupeKey string
}

// PendingEvent is an undelivered outbox row.
type PendingEvent struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	OrgID     snowflake.ID      `gorm:"column:org_id"`
	EventType string            `gorm:"column:event_type"`
	Payload   datatypes.JSONMap `gorm:"column:payload"`
	CreatedAt time.Time         `gorm:"column:created_at"`
}

// TableName sets the database table name.
func (PendingEvent) TableName() string { return "rating_events" }

// Outbox inserts rating events into the rating_events table so delivery
// can happen asynchronously from the sweep loop.
type Outbox struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func NewOutbox(db *gorm.DB, genID *snowflake.Node) *Outbox {
	return &Outbox{db: db, genID: genID}
}

// Publish stores an event using the default database connection.
func (o *Outbox) Publish(ctx context.Context, event Event) error {
	return o.publish(ctx, o.db, event)
}

// PublishTx stores an event using an existing transaction.
func (o *Outbox) PublishTx(ctx context.Context, tx *gorm.DB, event Event) error {
	if tx == nil {
		return errors.New("missing_transaction")
	}
	return o.publish(ctx, tx, event)
}

func (o *Outbox) publish(ctx context.Context, db *gorm.DB, event Event) error {
	if o == nil || db == nil || o.genID == nil {
		return errors.New("outbox_unavailable")
	}
	if event.OrgID == 0 {
		return errors.New("invalid_org_id")
	}
	name := strings.TrimSpace(event.Type)
	if name == "" {
		return errors.New("missing_event_type")
	}

	payload := datatypes.JSONMap{}
	for key, value := range event.Payload {
		if strings.TrimSpace(key) == "" {
			continue
		}
		payload[key] = value
	}

	dedupe := strings.TrimSpace(event.DedupeKey)
	var dedupeValue any
	if dedupe != "" {
		dedupeValue = dedupe
	}

	now := time.Now().UTC()
	return db.WithContext(ctx).Exec(
		`INSERT INTO rating_events (id, org_id, event_type, payload, dedupe_key, published, created_at)
		 VALUES (?, ?, ?, ?, ?, false, ?)
		 ON CONFLICT (org_id, dedupe_key) DO NOTHING`,
		o.genID.Generate(),
		event.OrgID,
		name,
		payload,
		dedupeValue,
		now,
	).Error
}

// FetchPending returns undelivered events, oldest first.
func (o *Outbox) FetchPending(ctx context.Context, limit int) ([]PendingEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var pending []PendingEvent
	err := o.db.WithContext(ctx).Raw(
		`SELECT id, org_id, event_type, payload, created_at
		 FROM rating_events
		 WHERE published = false
		 ORDER BY created_at ASC
		 LIMIT ?`,
		limit,
	).Scan(&pending).Error
	if err != nil {
		return nil, err
	}
	return pending, nil
}

// MarkPublished flags an event as delivered.
func (o *Outbox) MarkPublished(ctx context.Context, id snowflake.ID) error {
	return o.db.WithContext(ctx).Exec(
		`UPDATE rating_events SET published = true, published_at = ? WHERE id = ?`,
		time.Now().UTC(),
		id,
	).Error
}
