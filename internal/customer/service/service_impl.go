package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/credora/internal/customer/domain"
	"github.com/smallbiznis/credora/internal/orgcontext"
	"github.com/smallbiznis/credora/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

func NewService(p Params) customerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req customerdomain.CreateCustomerRequest) (customerdomain.Customer, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return customerdomain.Customer{}, customerdomain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return customerdomain.Customer{}, customerdomain.ErrInvalidName
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return customerdomain.Customer{}, customerdomain.ErrInvalidEmail
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	now := time.Now().UTC()
	customer := customerdomain.Customer{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Name:      name,
		Email:     email,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&customer).Error; err != nil {
		return customerdomain.Customer{}, err
	}
	return customer, nil
}

func (s *Service) Update(ctx context.Context, req customerdomain.UpdateCustomerRequest) (customerdomain.Customer, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return customerdomain.Customer{}, customerdomain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return customerdomain.Customer{}, customerdomain.ErrInvalidID
	}

	customer, err := s.findByID(ctx, orgID, id)
	if err != nil {
		return customerdomain.Customer{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return customerdomain.Customer{}, customerdomain.ErrInvalidName
		}
		customer.Name = name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" || !strings.Contains(email, "@") {
			return customerdomain.Customer{}, customerdomain.ErrInvalidEmail
		}
		customer.Email = email
	}
	if req.Currency != nil {
		if currency := strings.ToUpper(strings.TrimSpace(*req.Currency)); currency != "" {
			customer.Currency = currency
		}
	}
	customer.UpdatedAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Save(&customer).Error; err != nil {
		return customerdomain.Customer{}, err
	}
	return customer, nil
}

func (s *Service) GetByID(ctx context.Context, req customerdomain.GetCustomerRequest) (customerdomain.Customer, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return customerdomain.Customer{}, customerdomain.ErrInvalidOrganization
	}
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return customerdomain.Customer{}, customerdomain.ErrInvalidID
	}
	return s.findByID(ctx, orgID, id)
}

func (s *Service) List(ctx context.Context, req customerdomain.ListCustomerRequest) (customerdomain.ListCustomerResponse, error) {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return customerdomain.ListCustomerResponse{}, customerdomain.ErrInvalidOrganization
	}

	cursor, err := pagination.DecodeToken(req.PageToken)
	if err != nil {
		return customerdomain.ListCustomerResponse{}, err
	}
	limit := pagination.Pagination{PageSize: int(req.PageSize)}.Limit()

	query := s.db.WithContext(ctx).
		Model(&customerdomain.Customer{}).
		Where("org_id = ?", orgID)
	if cursor > 0 {
		query = query.Where("id > ?", cursor)
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		query = query.Where("email = ?", email)
	}
	if currency := strings.ToUpper(strings.TrimSpace(req.Currency)); currency != "" {
		query = query.Where("currency = ?", currency)
	}
	if req.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *req.CreatedFrom)
	}
	if req.CreatedTo != nil {
		query = query.Where("created_at < ?", *req.CreatedTo)
	}

	var customers []customerdomain.Customer
	if err := query.Order("id ASC").Limit(limit + 1).Find(&customers).Error; err != nil {
		return customerdomain.ListCustomerResponse{}, err
	}

	resp := customerdomain.ListCustomerResponse{}
	if len(customers) > limit {
		customers = customers[:limit]
		resp.NextPageToken = pagination.EncodeToken(int64(customers[limit-1].ID))
	}
	resp.Customers = customers
	return resp, nil
}

func (s *Service) findByID(ctx context.Context, orgID, id snowflake.ID) (customerdomain.Customer, error) {
	var customer customerdomain.Customer
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return customerdomain.Customer{}, customerdomain.ErrCustomerNotFound
	}
	if err != nil {
		return customerdomain.Customer{}, err
	}
	return customer, nil
}
