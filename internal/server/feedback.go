package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	feedbackdomain "github.com/smallbiznis/credora/internal/feedback/domain"
	"github.com/smallbiznis/credora/pkg/db/pagination"
)

type createFeedbackRequest struct {
	CustomerID string `json:"customer_id"`
	Subject    string `json:"subject"`
	DueDate    string `json:"due_date"`
}

// @Summary      Create Feedback Request
// @Tags         feedbacks
// @Security     ApiKeyAuth
// @Param        request body createFeedbackRequest true "Create Feedback Request"
// @Success      200  {object}  feedbackdomain.Feedback
// @Router       /feedbacks [post]
func (s *Server) CreateFeedback(c *gin.Context) {
	var req createFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dueDate, err := parseOptionalTime(req.DueDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	resp, err := s.feedbackSvc.Create(c.Request.Context(), feedbackdomain.CreateFeedbackRequest{
		CustomerID: strings.TrimSpace(req.CustomerID),
		Subject:    strings.TrimSpace(req.Subject),
		DueDate:    dueDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Feedback Requests
// @Tags         feedbacks
// @Security     ApiKeyAuth
// @Param        customer_id  query  string  false  "Customer ID"
// @Param        status       query  string  false  "Status"
// @Param        page_token   query  string  false  "Page Token"
// @Param        page_size    query  int     false  "Page Size"
// @Success      200  {object}  feedbackdomain.ListFeedbackResponse
// @Router       /feedbacks [get]
func (s *Server) ListFeedbacks(c *gin.Context) {
	var query struct {
		pagination.Pagination
		CustomerID string `form:"customer_id"`
		Status     string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.feedbackSvc.List(c.Request.Context(), feedbackdomain.ListFeedbackRequest{
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

// @Summary      Send Feedback Request
// @Tags         feedbacks
// @Security     ApiKeyAuth
// @Param        id   path  string  true  "Feedback ID"
// @Success      200  {object}  feedbackdomain.Feedback
// @Router       /feedbacks/{id}/send [post]
func (s *Server) SendFeedback(c *gin.Context) {
	resp, err := s.feedbackSvc.Send(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Complete Feedback Request
// @Tags         feedbacks
// @Security     ApiKeyAuth
// @Param        id   path  string  true  "Feedback ID"
// @Success      200  {object}  feedbackdomain.Feedback
// @Router       /feedbacks/{id}/complete [post]
func (s *Server) CompleteFeedback(c *gin.Context) {
	resp, err := s.feedbackSvc.Complete(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Cancel Feedback Request
// @Tags         feedbacks
// @Security     ApiKeyAuth
// @Param        id   path  string  true  "Feedback ID"
// @Success      200  {object}  feedbackdomain.Feedback
// @Router       /feedbacks/{id}/cancel [post]
func (s *Server) CancelFeedback(c *gin.Context) {
	resp, err := s.feedbackSvc.Cancel(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
