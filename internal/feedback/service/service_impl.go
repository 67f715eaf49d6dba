package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/credora/internal/activity"
	activitydomain "github.com/smallbiznis/credora/internal/activity/domain"
	feedbackdomain "github.com/smallbiznis/credora/internal/feedback/domain"
	"github.com/smallbiznis/credora/internal/orgcontext"
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

func NewService(p Params) feedbackdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("feedback.service"),
		genID:    p.GenID,
		recorder: p.Recorder,
	}
}

func (s *Service) Create(ctx context.Context, req feedbackdomain.CreateFeedbackRequest) (feedbackdomain.Feedback, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return feedbackdomain.Feedback{}, feedbackdomain.ErrInvalidOrganization
	}
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil {
		return feedbackdomain.Feedback{}, feedbackdomain.ErrInvalidCustomer
	}
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return feedbackdomain.Feedback{}, feedbackdomain.ErrInvalidSubject
	}

	now := time.Now().UTC()
	fb := feedbackdomain.Feedback{
		ID:         s.genID.Generate(),
		OrgID:      orgID,
		CustomerID: customerID,
		Subject:    subject,
		Status:     feedbackdomain.FeedbackStatusDraft,
		DueDate:    req.DueDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(&fb).Error; err != nil {
		return feedbackdomain.Feedback{}, err
	}
	return fb, nil
}

func (s *Service) List(ctx context.Context, req feedbackdomain.ListFeedbackRequest) (feedbackdomain.ListFeedbackResponse, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return feedbackdomain.ListFeedbackResponse{}, feedbackdomain.ErrInvalidOrganization
	}

	cursor, err := pagination.DecodeToken(req.PageToken)
	if err != nil {
		return feedbackdomain.ListFeedbackResponse{}, err
	}
	limit := pagination.Pagination{PageSize: int(req.PageSize)}.Limit()

	query := s.db.WithContext(ctx).
		Model(&feedbackdomain.Feedback{}).
		Where("org_id = ?", orgID)
	if cursor > 0 {
		query = query.Where("id > ?", cursor)
	}
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		customerID, err := snowflake.ParseString(raw)
		if err != nil {
			return feedbackdomain.ListFeedbackResponse{}, feedbackdomain.ErrInvalidCustomer
		}
		query = query.Where("customer_id = ?", customerID)
	}
	if status := strings.ToLower(strings.TrimSpace(req.Status)); status != "" {
		query = query.Where("status = ?", status)
	}

	var feedbacks []feedbackdomain.Feedback
	if err := query.Order("id ASC").Limit(limit + 1).Find(&feedbacks).Error; err != nil {
		return feedbackdomain.ListFeedbackResponse{}, err
	}

	resp := feedbackdomain.ListFeedbackResponse{}
	if len(feedbacks) > limit {
		feedbacks = feedbacks[:limit]
		resp.NextPageToken = pagination.EncodeToken(int64(feedbacks[limit-1].ID))
	}
	resp.Feedbacks = feedbacks
	return resp, nil
}

func (s *Service) Send(ctx context.Context, id string) (feedbackdomain.Feedback, error) {
	return s.transition(ctx, id, func(fb *feedbackdomain.Feedback, now time.Time) (string, error) {
		if fb.Status != feedbackdomain.FeedbackStatusDraft {
			return "", feedbackdomain.ErrFeedbackNotDraft
		}
		fb.Status = feedbackdomain.FeedbackStatusSent
		fb.SentAt = &now
		return activitydomain.TypeFeedbackSent, nil
	})
}

func (s *Service) Complete(ctx context.Context, id string) (feedbackdomain.Feedback, error) {
	return s.transition(ctx, id, func(fb *feedbackdomain.Feedback, now time.Time) (string, error) {
		switch fb.Status {
		case feedbackdomain.FeedbackStatusSent, feedbackdomain.FeedbackStatusOverdue:
		default:
			return "", feedbackdomain.ErrFeedbackFinalized
		}
		fb.Status = feedbackdomain.FeedbackStatusCompleted
		fb.CompletedAt = &now
		return activitydomain.TypeFeedbackCompleted, nil
	})
}

func (s *Service) Cancel(ctx context.Context, id string) (feedbackdomain.Feedback, error) {
	return s.transition(ctx, id, func(fb *feedbackdomain.Feedback, now time.Time) (string, error) {
		switch fb.Status {
		case feedbackdomain.FeedbackStatusCompleted, feedbackdomain.FeedbackStatusCancelled:
			return "", feedbackdomain.ErrFeedbackFinalized
		}
		fb.Status = feedbackdomain.FeedbackStatusCancelled
		return activitydomain.TypeFeedbackCancelled, nil
	})
}

// MarkOverdue flips sent feedback requests past their due date to overdue.
// Cross-org, used by the rating sweep.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}

	var due []feedbackdomain.Feedback
	err := s.db.WithContext(ctx).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", feedbackdomain.FeedbackStatusSent, asOf).
		Order("due_date ASC").
		Limit(limit).
		Find(&due).Error
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, fb := range due {
		fb := fb
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&feedbackdomain.Feedback{}).
				Where("id = ? AND status = ?", fb.ID, feedbackdomain.FeedbackStatusSent).
				Updates(map[string]any{
					"status":     feedbackdomain.FeedbackStatusOverdue,
					"updated_at": asOf,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return nil
			}
			return s.recorder.RecordTx(ctx, tx, activity.Entry{
				OrgID:         fb.OrgID,
				CustomerID:    fb.CustomerID,
				Type:          activitydomain.TypeFeedbackOverdue,
				ReferenceType: activitydomain.ReferenceFeedback,
				ReferenceID:   fb.ID,
			})
		})
		if err != nil {
			s.log.Warn("mark feedback overdue failed", zap.String("feedback_id", fb.ID.String()), zap.Error(err))
			continue
		}
		marked++
	}
	return marked, nil
}

func (s *Service) transition(ctx context.Context, id string, mutate func(*feedbackdomain.Feedback, time.Time) (string, error)) (feedbackdomain.Feedback, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return feedbackdomain.Feedback{}, feedbackdomain.ErrInvalidOrganization
	}
	feedbackID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return feedbackdomain.Feedback{}, feedbackdomain.ErrInvalidFeedbackID
	}

	var updated feedbackdomain.Feedback
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var fb feedbackdomain.Feedback
		err := tx.WithContext(ctx).
			Where("org_id = ? AND id = ?", orgID, feedbackID).
			First(&fb).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return feedbackdomain.ErrFeedbackNotFound
		}
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		activityType, err := mutate(&fb, now)
		if err != nil {
			return err
		}
		fb.UpdatedAt = now

		if err := tx.Save(&fb).Error; err != nil {
			return err
		}
		if err := s.recorder.RecordTx(ctx, tx, activity.Entry{
			OrgID:         orgID,
			CustomerID:    fb.CustomerID,
			Type:          activityType,
			ReferenceType: activitydomain.ReferenceFeedback,
			ReferenceID:   fb.ID,
			Detail:        map[string]any{"subject": fb.Subject, "status": string(fb.Status)},
		}); err != nil {
			return err
		}
		updated = fb
		return nil
	})
	if err != nil {
		return feedbackdomain.Feedback{}, err
	}
	return updated, nil
}
