package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// @Summary      Get Customer Rating
// @Description  Compute or fetch the customer's payment reliability rating
// @Tags         ratings
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  ratingdomain.Rating
// @Router       /customers/{id}/rating [get]
func (s *Server) GetCustomerRating(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.ratingSvc.RateCustomer(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Run Bulk Rating
// @Description  Re-score every customer of the organization
// @Tags         ratings
// @Accept       json
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  ratingdomain.BulkRatingResult
// @Router       /ratings/run [post]
func (s *Server) RunBulkRating(c *gin.Context) {
	resp, err := s.ratingSvc.RateAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(c.Request.Context(), nil, "", nil, "rating.run_all", "rating", nil, map[string]any{
			"rated":    resp.Rated,
			"degraded": resp.Degraded,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
