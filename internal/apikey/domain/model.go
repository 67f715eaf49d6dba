package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/bwmarrin/snowflake"
)

// APIKey grants programmatic access scoped to a single organization. Only the
// SHA-256 digest of the secret is stored; the plaintext token is shown once at
// creation time.
type APIKey struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	OrgID      snowflake.ID `gorm:"index;not null"`
	Name       string       `gorm:"type:text;not null"`
	KeyID      string       `gorm:"type:text;not null;uniqueIndex"`
	KeyHash    string       `gorm:"type:text;not null;uniqueIndex"`
	LastUsedAt *time.Time
	RevokedAt  *time.Time
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (APIKey) TableName() string { return "api_keys" }

// Revoked reports whether the key can no longer authenticate.
func (k *APIKey) Revoked() bool { return k.RevokedAt != nil }

// HashAPIKey derives the stored digest for a plaintext token.
func HashAPIKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
