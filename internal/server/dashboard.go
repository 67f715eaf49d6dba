package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// @Summary      Rating Distribution
// @Description  Count of customers per rating category
// @Tags         dashboard
// @Security     ApiKeyAuth
// @Success      200  {object}  dashboarddomain.RatingDistributionResponse
// @Router       /dashboard/ratings [get]
func (s *Server) GetRatingDistribution(c *gin.Context) {
	resp, err := s.dashboardSvc.RatingDistribution(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      At-Risk Customers
// @Description  Customers with overdue invoices ordered by score
// @Tags         dashboard
// @Security     ApiKeyAuth
// @Param        limit  query  int  false  "Limit"
// @Success      200  {object}  dashboarddomain.RiskCustomersResponse
// @Router       /dashboard/risk [get]
func (s *Server) ListRiskCustomers(c *gin.Context) {
	limit, err := optionalLimit(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.dashboardSvc.ListRiskCustomers(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Recent Rating Activity
// @Tags         dashboard
// @Security     ApiKeyAuth
// @Param        limit  query  int  false  "Limit"
// @Success      200  {object}  dashboarddomain.RatingActivityResponse
// @Router       /dashboard/activity [get]
func (s *Server) ListRatingActivity(c *gin.Context) {
	limit, err := optionalLimit(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.dashboardSvc.ListRatingActivity(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func optionalLimit(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, newValidationError("limit", "invalid_limit", "invalid limit")
	}
	return limit, nil
}
