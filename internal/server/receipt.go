package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	receiptdomain "github.com/smallbiznis/credora/internal/receipt/domain"
	"github.com/smallbiznis/credora/pkg/db/pagination"
)

type createReceiptRequest struct {
	CustomerID  string `json:"customer_id"`
	InvoiceID   string `json:"invoice_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// @Summary      Create Receipt
// @Tags         receipts
// @Security     ApiKeyAuth
// @Param        request body createReceiptRequest true "Create Receipt Request"
// @Success      200  {object}  receiptdomain.Receipt
// @Router       /receipts [post]
func (s *Server) CreateReceipt(c *gin.Context) {
	var req createReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.receiptSvc.Create(c.Request.Context(), receiptdomain.CreateReceiptRequest{
		CustomerID:  strings.TrimSpace(req.CustomerID),
		InvoiceID:   strings.TrimSpace(req.InvoiceID),
		AmountCents: req.AmountCents,
		Currency:    strings.TrimSpace(req.Currency),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Receipts
// @Tags         receipts
// @Security     ApiKeyAuth
// @Param        customer_id  query  string  false  "Customer ID"
// @Param        status       query  string  false  "Status"
// @Param        page_token   query  string  false  "Page Token"
// @Param        page_size    query  int     false  "Page Size"
// @Success      200  {object}  receiptdomain.ListReceiptResponse
// @Router       /receipts [get]
func (s *Server) ListReceipts(c *gin.Context) {
	var query struct {
		pagination.Pagination
		CustomerID string `form:"customer_id"`
		Status     string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.receiptSvc.List(c.Request.Context(), receiptdomain.ListReceiptRequest{
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

// @Summary      Complete Receipt
// @Tags         receipts
// @Security     ApiKeyAuth
// @Param        id   path  string  true  "Receipt ID"
// @Success      200  {object}  receiptdomain.Receipt
// @Router       /receipts/{id}/complete [post]
func (s *Server) CompleteReceipt(c *gin.Context) {
	resp, err := s.receiptSvc.Complete(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Cancel Receipt
// @Tags         receipts
// @Security     ApiKeyAuth
// @Param        id   path  string  true  "Receipt ID"
// @Success      200  {object}  receiptdomain.Receipt
// @Router       /receipts/{id}/cancel [post]
func (s *Server) CancelReceipt(c *gin.Context) {
	resp, err := s.receiptSvc.Cancel(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
