package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/smallbiznis/credora/internal/apikey/domain"
)

type apiKeyRepository struct{}

// Provide builds the api key repository.
func Provide() domain.Repository {
	return &apiKeyRepository{}
}

func (r *apiKeyRepository) Insert(ctx context.Context, db *gorm.DB, key *domain.APIKey) error {
	return db.WithContext(ctx).Create(key).Error
}

func (r *apiKeyRepository) Update(ctx context.Context, db *gorm.DB, key *domain.APIKey) error {
	return db.WithContext(ctx).Save(key).Error
}

func (r *apiKeyRepository) FindByKeyID(ctx context.Context, db *gorm.DB, orgID snowflake.ID, keyID string) (*domain.APIKey, error) {
	var key domain.APIKey
	err := db.WithContext(ctx).
		Where("org_id = ? AND key_id = ?", orgID, keyID).
		First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, err
	}
	return &key, nil
}

func (r *apiKeyRepository) FindByHash(ctx context.Context, db *gorm.DB, keyHash string) (*domain.APIKey, error) {
	var key domain.APIKey
	err := db.WithContext(ctx).
		Where("key_hash = ?", keyHash).
		First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, err
	}
	return &key, nil
}

func (r *apiKeyRepository) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]domain.APIKey, error) {
	var keys []domain.APIKey
	err := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at DESC").
		Find(&keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}
