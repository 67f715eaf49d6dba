// Package orgcontext propagates the authenticated organization through
// request contexts. Services read it instead of trusting request input.
package orgcontext

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type contextKey string

const orgIDKey contextKey = "org_id"

// WithOrgID attaches the authenticated org id to the context.
func WithOrgID(ctx context.Context, orgID int64) context.Context {
	if ctx == nil || orgID == 0 {
		return ctx
	}
	return context.WithValue(ctx, orgIDKey, orgID)
}

// OrgID returns the authenticated org id, or false when absent.
func OrgID(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	value, ok := ctx.Value(orgIDKey).(int64)
	if !ok || value == 0 {
		return 0, false
	}
	return snowflake.ID(value), true
}
