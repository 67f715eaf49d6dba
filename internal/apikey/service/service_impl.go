package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/credora/internal/apikey/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tokenPrefix = "crda"

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("apikey.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, orgID snowflake.ID, name string) (domain.CreatedKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.CreatedKey{}, domain.ErrInvalidName
	}

	keyID, err := randomHex(8)
	if err != nil {
		return domain.CreatedKey{}, err
	}
	secret, err := randomHex(24)
	if err != nil {
		return domain.CreatedKey{}, err
	}
	token := fmt.Sprintf("%s_%s_%s", tokenPrefix, keyID, secret)

	key := domain.APIKey{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Name:      name,
		KeyID:     keyID,
		KeyHash:   domain.HashAPIKey(token),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, &key); err != nil {
		return domain.CreatedKey{}, err
	}

	s.log.Info("api key created",
		zap.String("org_id", orgID.String()),
		zap.String("key_id", keyID))
	return domain.CreatedKey{Key: key, Token: token}, nil
}

func (s *Service) List(ctx context.Context, orgID snowflake.ID) ([]domain.APIKey, error) {
	return s.repo.List(ctx, s.db, orgID)
}

func (s *Service) Revoke(ctx context.Context, orgID snowflake.ID, keyID string) error {
	key, err := s.repo.FindByKeyID(ctx, s.db, orgID, keyID)
	if err != nil {
		return err
	}
	if key.Revoked() {
		return nil
	}
	now := time.Now().UTC()
	key.RevokedAt = &now
	if err := s.repo.Update(ctx, s.db, key); err != nil {
		return err
	}
	s.log.Info("api key revoked",
		zap.String("org_id", orgID.String()),
		zap.String("key_id", keyID))
	return nil
}

func (s *Service) Authenticate(ctx context.Context, token string) (*domain.APIKey, error) {
	token = strings.TrimSpace(token)
	if token == "" || !strings.HasPrefix(token, tokenPrefix+"_") {
		return nil, domain.ErrInvalidAPIKey
	}

	key, err := s.repo.FindByHash(ctx, s.db, domain.HashAPIKey(token))
	if err != nil {
		return nil, domain.ErrInvalidAPIKey
	}
	if key.Revoked() {
		return nil, domain.ErrInvalidAPIKey
	}

	now := time.Now().UTC()
	key.LastUsedAt = &now
	if err := s.repo.Update(ctx, s.db, key); err != nil {
		// Authentication already succeeded; a failed touch is not fatal.
		s.log.Warn("api key last_used update failed", zap.Error(err))
	}
	return key, nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
