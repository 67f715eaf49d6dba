package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/credora/internal/audit/domain"
	"github.com/smallbiznis/credora/internal/auditcontext"
	"github.com/smallbiznis/credora/internal/observability/logger"
	"github.com/smallbiznis/credora/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

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

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// AuditLog writes one audit entry. Missing org, actor and client details are
// resolved from the request context so call sites stay terse.
func (s *Service) AuditLog(ctx context.Context, orgID *snowflake.ID, actorID string, ip *string, action, targetType string, targetID *string, metadata map[string]any) error {
	if orgID == nil {
		if id, ok := orgcontext.OrgID(ctx); ok {
			orgID = &id
		}
	}

	actorType, ctxActorID := auditcontext.ActorFromContext(ctx)
	if actorType == "" {
		actorType = string(domain.ActorTypeSystem)
	}
	if actorID == "" {
		actorID = ctxActorID
	}
	if ip == nil {
		if addr := auditcontext.IPAddressFromContext(ctx); addr != "" {
			ip = &addr
		}
	}
	var userAgent *string
	if ua := auditcontext.UserAgentFromContext(ctx); ua != "" {
		userAgent = &ua
	}

	entry := &domain.AuditLog{
		ID:         s.genID.Generate(),
		OrgID:      orgID,
		ActorType:  actorType,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   datatypes.JSONMap(logger.MaskJSON(metadata)),
		IPAddress:  ip,
		UserAgent:  userAgent,
		CreatedAt:  time.Now().UTC(),
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	if entry.Metadata == nil {
		entry.Metadata = datatypes.JSONMap{}
	}

	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		s.log.Warn("audit insert failed",
			zap.String("action", action),
			zap.String("target_type", targetType),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	if filter.OrgID == 0 {
		if id, ok := orgcontext.OrgID(ctx); ok {
			filter.OrgID = id
		}
	}
	return s.repo.List(ctx, s.db, filter)
}
