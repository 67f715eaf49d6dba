package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	auditdomain "github.com/smallbiznis/credora/internal/audit/domain"
)

// @Summary      List Audit Logs
// @Description  List audit entries for the organization, newest first
// @Tags         audit
// @Security     ApiKeyAuth
// @Param        action       query  string  false  "Action"
// @Param        target_type  query  string  false  "Target Type"
// @Param        target_id    query  string  false  "Target ID"
// @Param        from         query  string  false  "Start Time"
// @Param        to           query  string  false  "End Time"
// @Param        limit        query  int     false  "Limit"
// @Success      200  {object}  []auditdomain.AuditLog
// @Router       /audit [get]
func (s *Server) ListAuditLogs(c *gin.Context) {
	limit, err := optionalLimit(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	startAt, err := parseOptionalTime(c.Query("from"), false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	endAt, err := parseOptionalTime(c.Query("to"), true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListFilter{
		Action:     strings.TrimSpace(c.Query("action")),
		TargetType: strings.TrimSpace(c.Query("target_type")),
		TargetID:   strings.TrimSpace(c.Query("target_id")),
		StartAt:    startAt,
		EndAt:      endAt,
		Limit:      limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
