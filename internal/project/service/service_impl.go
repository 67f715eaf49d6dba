package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/credora/internal/activity"
	activitydomain "github.com/smallbiznis/credora/internal/activity/domain"
	"github.com/smallbiznis/credora/internal/orgcontext"
	projectdomain "github.com/smallbiznis/credora/internal/project/domain"
	"github.com/smallbiznis/credora/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	recorder *activity.Recorder
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Recorder *activity.Recorder
}

func NewService(p Params) projectdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("project.service"),
		genID:    p.GenID,
		recorder: p.Recorder,
	}
}

func (s *Service) Create(ctx context.Context, req projectdomain.CreateProjectRequest) (projectdomain.Project, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return projectdomain.Project{}, projectdomain.ErrInvalidOrganization
	}
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil {
		return projectdomain.Project{}, projectdomain.ErrInvalidCustomer
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return projectdomain.Project{}, projectdomain.ErrInvalidName
	}

	now := time.Now().UTC()
	project := projectdomain.Project{
		ID:         s.genID.Generate(),
		OrgID:      orgID,
		CustomerID: customerID,
		Name:       name,
		Status:     projectdomain.ProjectStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return projectdomain.Project{}, err
	}
	return project, nil
}

func (s *Service) List(ctx context.Context, req projectdomain.ListProjectRequest) (projectdomain.ListProjectResponse, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return projectdomain.ListProjectResponse{}, projectdomain.ErrInvalidOrganization
	}

	cursor, err := pagination.DecodeToken(req.PageToken)
	if err != nil {
		return projectdomain.ListProjectResponse{}, err
	}
	limit := pagination.Pagination{PageSize: int(req.PageSize)}.Limit()

	query := s.db.WithContext(ctx).
		Model(&projectdomain.Project{}).
		Where("org_id = ?", orgID)
	if cursor > 0 {
		query = query.Where("id > ?", cursor)
	}
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		customerID, err := snowflake.ParseString(raw)
		if err != nil {
			return projectdomain.ListProjectResponse{}, projectdomain.ErrInvalidCustomer
		}
		query = query.Where("customer_id = ?", customerID)
	}
	if status := strings.ToLower(strings.TrimSpace(req.Status)); status != "" {
		query = query.Where("status = ?", status)
	}

	var projects []projectdomain.Project
	if err := query.Order("id ASC").Limit(limit + 1).Find(&projects).Error; err != nil {
		return projectdomain.ListProjectResponse{}, err
	}

	resp := projectdomain.ListProjectResponse{}
	if len(projects) > limit {
		projects = projects[:limit]
		resp.NextPageToken = pagination.EncodeToken(int64(projects[limit-1].ID))
	}
	resp.Projects = projects
	return resp, nil
}

func (s *Service) Complete(ctx context.Context, id string) (projectdomain.Project, error) {
	return s.transition(ctx, id, projectdomain.ProjectStatusCompleted)
}

func (s *Service) Archive(ctx context.Context, id string) (projectdomain.Project, error) {
	return s.transition(ctx, id, projectdomain.ProjectStatusArchived)
}

func (s *Service) transition(ctx context.Context, id string, target projectdomain.ProjectStatus) (projectdomain.Project, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return projectdomain.Project{}, projectdomain.ErrInvalidOrganization
	}
	projectID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return projectdomain.Project{}, projectdomain.ErrInvalidProjectID
	}

	var updated projectdomain.Project
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project projectdomain.Project
		err := tx.WithContext(ctx).
			Where("org_id = ? AND id = ?", orgID, projectID).
			First(&project).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return projectdomain.ErrProjectNotFound
		}
		if err != nil {
			return err
		}
		if project.Status != projectdomain.ProjectStatusActive {
			return projectdomain.ErrProjectNotActive
		}

		now := time.Now().UTC()
		project.Status = target
		project.UpdatedAt = now
		if target == projectdomain.ProjectStatusCompleted {
			project.CompletedAt = &now
		}
		if err := tx.Save(&project).Error; err != nil {
			return err
		}

		if target == projectdomain.ProjectStatusCompleted {
			if err := s.recorder.RecordTx(ctx, tx, activity.Entry{
				OrgID:         orgID,
				CustomerID:    project.CustomerID,
				Type:          activitydomain.TypeProjectCompleted,
				ReferenceType: activitydomain.ReferenceProject,
				ReferenceID:   project.ID,
				Detail:        map[string]any{"name": project.Name},
			}); err != nil {
				return err
			}
		}
		updated = project
		return nil
	})
	if err != nil {
		return projectdomain.Project{}, err
	}
	return updated, nil
}
