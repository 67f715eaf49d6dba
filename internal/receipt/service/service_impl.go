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
	receiptdomain "github.com/smallbiznis/credora/internal/receipt/domain"
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

func NewService(p Params) receiptdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("receipt.service"),
		genID:    p.GenID,
		recorder: p.Recorder,
	}
}

func (s *Service) Create(ctx context.Context, req receiptdomain.CreateReceiptRequest) (receiptdomain.Receipt, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return receiptdomain.Receipt{}, receiptdomain.ErrInvalidOrganization
	}
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil {
		return receiptdomain.Receipt{}, receiptdomain.ErrInvalidCustomer
	}
	if req.AmountCents <= 0 {
		return receiptdomain.Receipt{}, receiptdomain.ErrInvalidAmount
	}

	var invoiceID *snowflake.ID
	if raw := strings.TrimSpace(req.InvoiceID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil {
			return receiptdomain.Receipt{}, receiptdomain.ErrInvalidReceiptID
		}
		invoiceID = &parsed
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	now := time.Now().UTC()
	receipt := receiptdomain.Receipt{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		CustomerID:  customerID,
		InvoiceID:   invoiceID,
		Status:      receiptdomain.ReceiptStatusDraft,
		AmountCents: req.AmountCents,
		Currency:    currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(&receipt).Error; err != nil {
		return receiptdomain.Receipt{}, err
	}
	return receipt, nil
}

func (s *Service) List(ctx context.Context, req receiptdomain.ListReceiptRequest) (receiptdomain.ListReceiptResponse, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return receiptdomain.ListReceiptResponse{}, receiptdomain.ErrInvalidOrganization
	}

	cursor, err := pagination.DecodeToken(req.PageToken)
	if err != nil {
		return receiptdomain.ListReceiptResponse{}, err
	}
	limit := pagination.Pagination{PageSize: int(req.PageSize)}.Limit()

	query := s.db.WithContext(ctx).
		Model(&receiptdomain.Receipt{}).
		Where("org_id = ?", orgID)
	if cursor > 0 {
		query = query.Where("id > ?", cursor)
	}
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		customerID, err := snowflake.ParseString(raw)
		if err != nil {
			return receiptdomain.ListReceiptResponse{}, receiptdomain.ErrInvalidCustomer
		}
		query = query.Where("customer_id = ?", customerID)
	}
	if status := strings.ToLower(strings.TrimSpace(req.Status)); status != "" {
		query = query.Where("status = ?", status)
	}

	var receipts []receiptdomain.Receipt
	if err := query.Order("id ASC").Limit(limit + 1).Find(&receipts).Error; err != nil {
		return receiptdomain.ListReceiptResponse{}, err
	}

	resp := receiptdomain.ListReceiptResponse{}
	if len(receipts) > limit {
		receipts = receipts[:limit]
		resp.NextPageToken = pagination.EncodeToken(int64(receipts[limit-1].ID))
	}
	resp.Receipts = receipts
	return resp, nil
}

func (s *Service) Complete(ctx context.Context, id string) (receiptdomain.Receipt, error) {
	return s.transition(ctx, id, receiptdomain.ReceiptStatusCompleted, activitydomain.TypeReceiptCompleted)
}

func (s *Service) Cancel(ctx context.Context, id string) (receiptdomain.Receipt, error) {
	return s.transition(ctx, id, receiptdomain.ReceiptStatusCancelled, "")
}

func (s *Service) transition(ctx context.Context, id string, target receiptdomain.ReceiptStatus, activityType string) (receiptdomain.Receipt, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return receiptdomain.Receipt{}, receiptdomain.ErrInvalidOrganization
	}
	receiptID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return receiptdomain.Receipt{}, receiptdomain.ErrInvalidReceiptID
	}

	var updated receiptdomain.Receipt
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var receipt receiptdomain.Receipt
		err := tx.WithContext(ctx).
			Where("org_id = ? AND id = ?", orgID, receiptID).
			First(&receipt).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return receiptdomain.ErrReceiptNotFound
		}
		if err != nil {
			return err
		}

		switch receipt.Status {
		case receiptdomain.ReceiptStatusCompleted, receiptdomain.ReceiptStatusCancelled:
			return receiptdomain.ErrReceiptFinalized
		}

		now := time.Now().UTC()
		receipt.Status = target
		receipt.UpdatedAt = now
		if target == receiptdomain.ReceiptStatusCompleted {
			receipt.CompletedAt = &now
		}

		if err := tx.Save(&receipt).Error; err != nil {
			return err
		}
		if activityType != "" {
			if err := s.recorder.RecordTx(ctx, tx, activity.Entry{
				OrgID:         orgID,
				CustomerID:    receipt.CustomerID,
				Type:          activityType,
				ReferenceType: activitydomain.ReferenceReceipt,
				ReferenceID:   receipt.ID,
			}); err != nil {
				return err
			}
		}
		updated = receipt
		return nil
	})
	if err != nil {
		return receiptdomain.Receipt{}, err
	}
	return updated, nil
}
