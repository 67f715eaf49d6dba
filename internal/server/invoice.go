package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	customerdomain "github.com/smallbiznis/credora/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/credora/internal/invoice/domain"
	"github.com/smallbiznis/credora/internal/invoice/render"
	"github.com/smallbiznis/credora/internal/orgcontext"
	"github.com/smallbiznis/credora/pkg/db/pagination"
)

type createInvoiceRequest struct {
	CustomerID string `json:"customer_id"`
	Currency   string `json:"currency"`
	TotalCents int64  `json:"total_cents"`
	DueDate    string `json:"due_date"`
}

// @Summary      Create Invoice
// @Description  Create a draft invoice for a customer
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        request body createInvoiceRequest true "Create Invoice Request"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices [post]
func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dueDate, err := parseOptionalTime(req.DueDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		CustomerID: strings.TrimSpace(req.CustomerID),
		Currency:   strings.TrimSpace(req.Currency),
		TotalCents: req.TotalCents,
		DueDate:    dueDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Invoices
// @Description  List invoices with optional customer and status filters
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        customer_id  query  string  false  "Customer ID"
// @Param        status       query  string  false  "Status"
// @Param        page_token   query  string  false  "Page Token"
// @Param        page_size    query  int     false  "Page Size"
// @Success      200  {object}  invoicedomain.ListInvoiceResponse
// @Router       /invoices [get]
func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		pagination.Pagination
		CustomerID string `form:"customer_id"`
		Status     string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), invoicedomain.ListInvoiceRequest{
		PageToken:  query.PageToken,
		PageSize:   int32(query.PageSize),
		CustomerID: strings.TrimSpace(query.CustomerID),
		Status:     strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Invoice
// @Description  Get invoice by ID
// @Tags         invoices
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices/{id} [get]
func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Render Invoice HTML
// @Description  Render a printable HTML view of the invoice
// @Tags         invoices
// @Produce      html
// @Security     ApiKeyAuth
// @Param        id   path  string  true  "Invoice ID"
// @Success      200  {string}  string
// @Router       /invoices/{id}/html [get]
func (s *Server) RenderInvoiceHTML(c *gin.Context) {
	ctx := c.Request.Context()
	invoice, err := s.invoiceSvc.GetByID(ctx, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	customer, err := s.customerSvc.GetByID(ctx, customerdomain.GetCustomerRequest{
		ID: invoice.CustomerID.String(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	orgName := s.orgDisplayName(ctx)
	html, err := s.renderer.RenderHTML(render.RenderInput{
		OrgName: orgName,
		Invoice: render.InvoiceView{
			Number:     invoice.Number,
			Status:     string(invoice.Status),
			Currency:   invoice.Currency,
			TotalCents: invoice.TotalCents,
			DueDate:    invoice.DueDate,
			PaidAt:     invoice.PaidAt,
			CreatedAt:  invoice.CreatedAt,
		},
		Customer: render.CustomerView{
			Name:  customer.Name,
			Email: customer.Email,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// @Summary      Send Invoice
// @Tags         invoices
// @Security     ApiKeyAuth
// @Param        id   path  string  true  "Invoice ID"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices/{id}/send [post]
func (s *Server) SendInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.Send(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type payInvoiceRequest struct {
	PaidAt string `json:"paid_at"`
}

// @Summary      Pay Invoice
// @Description  Mark an invoice as paid, defaulting paid_at to now
// @Tags         invoices
// @Security     ApiKeyAuth
// @Param        id      path  string             true   "Invoice ID"
// @Param        request body  payInvoiceRequest  false  "Pay Invoice Request"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices/{id}/pay [post]
func (s *Server) PayInvoice(c *gin.Context) {
	var req payInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	var paidAt *time.Time
	if strings.TrimSpace(req.PaidAt) != "" {
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(req.PaidAt))
		if err != nil {
			AbortWithError(c, newValidationError("paid_at", "invalid_paid_at", "invalid paid_at"))
			return
		}
		ts = ts.UTC()
		paidAt = &ts
	}

	resp, err := s.invoiceSvc.MarkPaid(c.Request.Context(), strings.TrimSpace(c.Param("id")), paidAt)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type cancelInvoiceRequest struct {
	Reason string `json:"reason"`
}

// @Summary      Cancel Invoice
// @Tags         invoices
// @Security     ApiKeyAuth
// @Param        id      path  string                true   "Invoice ID"
// @Param        request body  cancelInvoiceRequest  false  "Cancel Invoice Request"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices/{id}/cancel [post]
func (s *Server) CancelInvoice(c *gin.Context) {
	var req cancelInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := s.invoiceSvc.Cancel(c.Request.Context(), strings.TrimSpace(c.Param("id")), strings.TrimSpace(req.Reason))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// orgDisplayName resolves the organization name for rendered documents.
// A missing name degrades to an empty header rather than failing the render.
func (s *Server) orgDisplayName(ctx context.Context) string {
	orgID, ok := orgcontext.OrgID(ctx)
	if !ok {
		return ""
	}
	var name string
	err := s.db.WithContext(ctx).
		Table("organizations").
		Select("name").
		Where("id = ?", orgID).
		Scan(&name).Error
	if err != nil {
		return ""
	}
	return name
}
