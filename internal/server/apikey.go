package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smallbiznis/credora/internal/orgcontext"
)

type createAPIKeyRequest struct {
	Name string `json:"name"`
}

// @Summary      Create API Key
// @Description  Create a new API key; the token is returned once
// @Tags         apikeys
// @Security     ApiKeyAuth
// @Param        request body createAPIKeyRequest true "Create API Key Request"
// @Success      200  {object}  apikeydomain.CreatedKey
// @Router       /apikeys [post]
func (s *Server) CreateAPIKey(c *gin.Context) {
	orgID, ok := orgcontext.OrgID(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.apikeySvc.Create(c.Request.Context(), orgID, strings.TrimSpace(req.Name))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.Key.KeyID
		_ = s.auditSvc.AuditLog(c.Request.Context(), nil, "", nil, "apikey.create", "api_key", &targetID, map[string]any{
			"name": resp.Key.Name,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"key":   resp.Key,
		"token": resp.Token,
	}})
}

// @Summary      List API Keys
// @Tags         apikeys
// @Security     ApiKeyAuth
// @Success      200  {object}  []apikeydomain.APIKey
// @Router       /apikeys [get]
func (s *Server) ListAPIKeys(c *gin.Context) {
	orgID, ok := orgcontext.OrgID(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.apikeySvc.List(c.Request.Context(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Revoke API Key
// @Tags         apikeys
// @Security     ApiKeyAuth
// @Param        key_id  path  string  true  "Key ID"
// @Success      200  {object}  map[string]string
// @Router       /apikeys/{key_id} [delete]
func (s *Server) RevokeAPIKey(c *gin.Context) {
	orgID, ok := orgcontext.OrgID(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	keyID := strings.TrimSpace(c.Param("key_id"))
	if keyID == "" {
		AbortWithError(c, newValidationError("key_id", "invalid_key_id", "key id is required"))
		return
	}

	if err := s.apikeySvc.Revoke(c.Request.Context(), orgID, keyID); err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(c.Request.Context(), nil, "", nil, "apikey.revoke", "api_key", &keyID, nil)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
