// Package seed bootstraps the default organization and, outside cloud
// mode, a first API key so a fresh install is immediately usable.
package seed

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apikeydomain "github.com/smallbiznis/credora/internal/apikey/domain"
	organizationdomain "github.com/smallbiznis/credora/internal/organization/domain"
)

const (
	defaultOrgName = "Main"
	defaultOrgSlug = "main"
	bootstrapKey   = "bootstrap"
)

// EnsureMainOrg seeds the default organization for startup bootstrap.
func EnsureMainOrg(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := ensureMainOrgTx(ctx, tx, node)
		return err
	})
}

// EnsureMainOrgAndKey seeds the default organization plus a bootstrap API
// key when none exist. The plaintext token is logged exactly once.
func EnsureMainOrgAndKey(db *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := ensureMainOrgTx(ctx, tx, node)
		if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&apikeydomain.APIKey{}).
			Where("org_id = ?", org.ID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		token, key, err := newBootstrapKey(node, org.ID)
		if err != nil {
			return err
		}
		if err := tx.Create(key).Error; err != nil {
			return err
		}

		log.Info("bootstrap api key created; store it now, it is not shown again",
			zap.String("org", org.Slug),
			zap.String("token", token))
		return nil
	})
}

func ensureMainOrgTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (organizationdomain.Organization, error) {
	var org organizationdomain.Organization
	err := tx.WithContext(ctx).
		Where("slug = ?", defaultOrgSlug).
		First(&org).Error
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return organizationdomain.Organization{}, err
	}

	now := time.Now().UTC()
	org = organizationdomain.Organization{
		ID:        node.Generate(),
		Name:      defaultOrgName,
		Slug:      defaultOrgSlug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&org).Error; err != nil {
		return organizationdomain.Organization{}, err
	}
	return org, nil
}

func newBootstrapKey(node *snowflake.Node, orgID snowflake.ID) (string, *apikeydomain.APIKey, error) {
	keyID, err := randomHex(8)
	if err != nil {
		return "", nil, err
	}
	secret, err := randomHex(24)
	if err != nil {
		return "", nil, err
	}
	token := fmt.Sprintf("crda_%s_%s", keyID, secret)

	return token, &apikeydomain.APIKey{
		ID:        node.Generate(),
		OrgID:     orgID,
		Name:      bootstrapKey,
		KeyID:     keyID,
		KeyHash:   apikeydomain.HashAPIKey(token),
		CreatedAt: time.Now().UTC(),
	}, nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
