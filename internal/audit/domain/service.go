package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Service records immutable audit entries. Implementations must never fail
// the caller's request path; errors are logged and swallowed upstream.
type Service interface {
	AuditLog(ctx context.Context, orgID *snowflake.ID, actorID string, ip *string, action, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}
