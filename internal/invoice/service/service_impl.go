package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/credora/internal/activity"
	activitydomain "github.com/smallbiznis/credora/internal/activity/domain"
	customerdomain "github.com/smallbiznis/credora/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/credora/internal/invoice/domain"
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

func NewService(p Params) invoicedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		recorder: p.Recorder,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidOrganization
	}
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidCustomer
	}
	if req.TotalCents <= 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidAmount
	}

	var customer customerdomain.Customer
	err = s.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, customerID).
		First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidCustomer
	}
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = customer.Currency
	}

	now := time.Now().UTC()
	inv := invoicedomain.Invoice{
		ID:         s.genID.Generate(),
		OrgID:      orgID,
		CustomerID: customerID,
		Number:     fmt.Sprintf("INV-%s", s.genID.Generate().String()),
		Status:     invoicedomain.InvoiceStatusDraft,
		Currency:   currency,
		TotalCents: req.TotalCents,
		DueDate:    req.DueDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(&inv).Error; err != nil {
		return invoicedomain.Invoice{}, err
	}
	return inv, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidOrganization
	}

	cursor, err := pagination.DecodeToken(req.PageToken)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}
	limit := pagination.Pagination{PageSize: int(req.PageSize)}.Limit()

	query := s.db.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("org_id = ?", orgID)
	if cursor > 0 {
		query = query.Where("id > ?", cursor)
	}
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		customerID, err := snowflake.ParseString(raw)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidCustomer
		}
		query = query.Where("customer_id = ?", customerID)
	}
	if status := strings.ToLower(strings.TrimSpace(req.Status)); status != "" {
		query = query.Where("status = ?", status)
	}

	var invoices []invoicedomain.Invoice
	if err := query.Order("id ASC").Limit(limit + 1).Find(&invoices).Error; err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	resp := invoicedomain.ListInvoiceResponse{}
	if len(invoices) > limit {
		invoices = invoices[:limit]
		resp.NextPageToken = pagination.EncodeToken(int64(invoices[limit-1].ID))
	}
	resp.Invoices = invoices
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidOrganization
	}
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}
	return s.findByID(ctx, s.db, orgID, invoiceID)
}

func (s *Service) Send(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	return s.transition(ctx, id, func(inv *invoicedomain.Invoice, now time.Time) (string, error) {
		if inv.Status != invoicedomain.InvoiceStatusDraft {
			return "", invoicedomain.ErrInvoiceNotDraft
		}
		inv.Status = invoicedomain.InvoiceStatusSent
		inv.SentAt = &now
		return activitydomain.TypeInvoiceSent, nil
	})
}

func (s *Service) MarkPaid(ctx context.Context, id string, paidAt *time.Time) (invoicedomain.Invoice, error) {
	return s.transition(ctx, id, func(inv *invoicedomain.Invoice, now time.Time) (string, error) {
		switch inv.Status {
		case invoicedomain.InvoiceStatusSent, invoicedomain.InvoiceStatusOverdue:
		default:
			return "", invoicedomain.ErrInvoiceNotPayable
		}
		ts := now
		if paidAt != nil && !paidAt.IsZero() {
			ts = paidAt.UTC()
		}
		inv.Status = invoicedomain.InvoiceStatusPaid
		inv.PaidAt = &ts
		return activitydomain.TypeInvoicePaid, nil
	})
}

func (s *Service) Cancel(ctx context.Context, id string, reason string) (invoicedomain.Invoice, error) {
	return s.transition(ctx, id, func(inv *invoicedomain.Invoice, now time.Time) (string, error) {
		switch inv.Status {
		case invoicedomain.InvoiceStatusPaid, invoicedomain.InvoiceStatusCancelled:
			return "", invoicedomain.ErrInvoiceFinalized
		}
		inv.Status = invoicedomain.InvoiceStatusCancelled
		if reason = strings.TrimSpace(reason); reason != "" {
			if inv.Metadata == nil {
				inv.Metadata = map[string]any{}
			}
			inv.Metadata["cancel_reason"] = reason
		}
		return activitydomain.TypeInvoiceCancelled, nil
	})
}

// MarkOverdue flips sent invoices past their due date to overdue and
// records an activity for each. Used by the rating sweep; it operates
// across all orgs, so it does not read org identity from the context.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}

	var due []invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", invoicedomain.InvoiceStatusSent, asOf).
		Order("due_date ASC").
		Limit(limit).
		Find(&due).Error
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, inv := range due {
		inv := inv
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&invoicedomain.Invoice{}).
				Where("id = ? AND status = ?", inv.ID, invoicedomain.InvoiceStatusSent).
				Updates(map[string]any{
					"status":     invoicedomain.InvoiceStatusOverdue,
					"updated_at": asOf,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return nil
			}
			return s.recorder.RecordTx(ctx, tx, activity.Entry{
				OrgID:         inv.OrgID,
				CustomerID:    inv.CustomerID,
				Type:          activitydomain.TypeInvoiceOverdue,
				ReferenceType: activitydomain.ReferenceInvoice,
				ReferenceID:   inv.ID,
				Detail:        map[string]any{"number": inv.Number},
			})
		})
		if err != nil {
			s.log.Warn("mark overdue failed", zap.String("invoice_id", inv.ID.String()), zap.Error(err))
			continue
		}
		marked++
	}
	return marked, nil
}

func (s *Service) transition(ctx context.Context, id string, mutate func(*invoicedomain.Invoice, time.Time) (string, error)) (invoicedomain.Invoice, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidOrganization
	}
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}

	var updated invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.findByID(ctx, tx, orgID, invoiceID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		activityType, err := mutate(&inv, now)
		if err != nil {
			return err
		}
		inv.UpdatedAt = now

		if err := tx.Save(&inv).Error; err != nil {
			return err
		}
		if err := s.recorder.RecordTx(ctx, tx, activity.Entry{
			OrgID:         orgID,
			CustomerID:    inv.CustomerID,
			Type:          activityType,
			ReferenceType: activitydomain.ReferenceInvoice,
			ReferenceID:   inv.ID,
			Detail:        map[string]any{"number": inv.Number, "status": string(inv.Status)},
		}); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return updated, nil
}

func (s *Service) findByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (invoicedomain.Invoice, error) {
	var inv invoicedomain.Invoice
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
	}
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return inv, nil
}
