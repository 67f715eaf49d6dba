package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type testCleanupRequest struct {
	Prefix string `json:"prefix"`
}

// TestCleanup wipes data for organizations whose name matches the prefix.
// Exposed outside production only; integration suites use it to reset state.
func (s *Server) TestCleanup(c *gin.Context) {
	if s.cfg.Environment == "production" {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req testCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	prefix := strings.TrimSpace(req.Prefix)
	if prefix == "" {
		AbortWithError(c, newValidationError("prefix", "required", "prefix is required"))
		return
	}

	ctx := c.Request.Context()
	orgIDs, err := s.loadOrgIDsByPrefix(ctx, prefix)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.deleteOrgData(ctx, orgIDs); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) loadOrgIDsByPrefix(ctx context.Context, prefix string) ([]int64, error) {
	like := strings.TrimSpace(prefix) + "%"
	var orgIDs []int64
	if err := s.db.WithContext(ctx).
		Table("organizations").
		Select("id").
		Where("name LIKE ?", like).
		Scan(&orgIDs).Error; err != nil {
		return nil, err
	}
	return orgIDs, nil
}

func (s *Server) deleteOrgData(ctx context.Context, orgIDs []int64) error {
	if len(orgIDs) == 0 {
		return nil
	}
	queries := []string{
		`DELETE FROM rating_events WHERE org_id IN ?`,
		`DELETE FROM customer_ratings WHERE org_id IN ?`,
		`DELETE FROM activities WHERE org_id IN ?`,
		`DELETE FROM audit_logs WHERE org_id IN ?`,
		`DELETE FROM webhook_subscriptions WHERE org_id IN ?`,
		`DELETE FROM feedbacks WHERE org_id IN ?`,
		`DELETE FROM projects WHERE org_id IN ?`,
		`DELETE FROM receipts WHERE org_id IN ?`,
		`DELETE FROM invoices WHERE org_id IN ?`,
		`DELETE FROM customers WHERE org_id IN ?`,
		`DELETE FROM api_keys WHERE org_id IN ?`,
		`DELETE FROM organizations WHERE id IN ?`,
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, query := range queries {
			if err := tx.Exec(query, orgIDs).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
