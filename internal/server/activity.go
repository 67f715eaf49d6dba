package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/smallbiznis/credora/internal/orgcontext"
)

// @Summary      List Customer Activities
// @Description  List a customer's history events, newest first
// @Tags         activities
// @Security     ApiKeyAuth
// @Param        id     path   string  true   "Customer ID"
// @Param        limit  query  int     false  "Limit"
// @Success      200  {object}  []activitydomain.Activity
// @Router       /customers/{id}/activities [get]
func (s *Server) ListCustomerActivities(c *gin.Context) {
	orgID, ok := orgcontext.OrgID(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	customerID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_customer_id", "invalid customer id"))
		return
	}

	limit, err := optionalLimit(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.recorder.ListByCustomer(c.Request.Context(), orgID, customerID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
