package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidAPIKey = errors.New("invalid_api_key")
	ErrKeyNotFound   = errors.New("api_key_not_found")
)

// CreatedKey carries the one-time plaintext token alongside the stored record.
type CreatedKey struct {
	Key   APIKey
	Token string
}

type Service interface {
	Create(ctx context.Context, orgID snowflake.ID, name string) (CreatedKey, error)
	List(ctx context.Context, orgID snowflake.ID) ([]APIKey, error)
	Revoke(ctx context.Context, orgID snowflake.ID, keyID string) error
	// Authenticate resolves a presented bearer token to its owning key,
	// rejecting revoked or unknown tokens.
	Authenticate(ctx context.Context, token string) (*APIKey, error)
}
