// Package activity records append-only customer history events.
package activity

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/smallbiznis/credora/internal/activity/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var Module = fx.Module("activity",
	fx.Provide(NewRecorder),
)

// Recorder appends activities inside the caller's transaction so a status
// transition and its history entry commit together.
type Recorder struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

type RecorderParams struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

func NewRecorder(p RecorderParams) *Recorder {
	return &Recorder{
		db:    p.DB,
		log:   p.Log.Named("activity.recorder"),
		genID: p.GenID,
	}
}

// Entry describes one activity to append.
type Entry struct {
	OrgID         snowflake.ID
	CustomerID    snowflake.ID
	Type          string
	ReferenceType activitydomain.ReferenceType
	ReferenceID   snowflake.ID
	Detail        map[string]any
}

// Record appends an entry using the default connection.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	return r.record(ctx, r.db, entry)
}

// RecordTx appends an entry inside an existing transaction.
func (r *Recorder) RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return errors.New("missing_transaction")
	}
	return r.record(ctx, tx, entry)
}

func (r *Recorder) record(ctx context.Context, db *gorm.DB, entry Entry) error {
	if entry.OrgID == 0 || entry.CustomerID == 0 || entry.Type == "" {
		return errors.New("invalid_activity")
	}

	detail := datatypes.JSONMap{}
	for key, value := range entry.Detail {
		detail[key] = value
	}

	var refID *snowflake.ID
	if entry.ReferenceID != 0 {
		refID = &entry.ReferenceID
	}

	now := time.Now().UTC()
	return db.WithContext(ctx).Create(&activitydomain.Activity{
		ID:            r.genID.Generate(),
		OrgID:         entry.OrgID,
		CustomerID:    entry.CustomerID,
		Type:          entry.Type,
		ReferenceType: entry.ReferenceType,
		ReferenceID:   refID,
		Detail:        detail,
		OccurredAt:    now,
		CreatedAt:     now,
	}).Error
}

// ListByCustomer returns a customer's activities, newest first.
func (r *Recorder) ListByCustomer(ctx context.Context, orgID, customerID snowflake.ID, limit int) ([]activitydomain.Activity, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var activities []activitydomain.Activity
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND customer_id = ?", orgID, customerID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}
