package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// AuditCursor marks a position in the (created_at, id) ordering for
// keyset pagination.
type AuditCursor struct {
	CreatedAt time.Time
	ID        snowflake.ID
}

// ListFilter narrows an audit log listing. Zero values mean "any".
type ListFilter struct {
	OrgID      snowflake.ID
	Action     string
	ActorType  string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *AuditCursor
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
}
