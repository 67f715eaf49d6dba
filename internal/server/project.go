package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	projectdomain "github.com/smallbiznis/credora/internal/project/domain"
	"github.com/smallbiznis/credora/pkg/db/pagination"
)

type createProjectRequest struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
}

// @Summary      Create Project
// @Tags         projects
// @Security     ApiKeyAuth
// @Param        request body createProjectRequest true "Create Project Request"
// @Success      200  {object}  projectdomain.Project
// @Router       /projects [post]
func (s *Server) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.projectSvc.Create(c.Request.Context(), projectdomain.CreateProjectRequest{
		CustomerID: strings.TrimSpace(req.CustomerID),
		Name:       strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Projects
// @Tags         projects
// @Security     ApiKeyAuth
// @Param        customer_id  query  string  false  "Customer ID"
// @Param        status       query  string  false  "Status"
// @Param        page_token   query  string  false  "Page Token"
// @Param        page_size    query  int     false  "Page Size"
// @Success      200  {object}  projectdomain.ListProjectResponse
// @Router       /projects [get]
func (s *Server) ListProjects(c *gin.Context) {
	var query struct {
		pagination.Pagination
		CustomerID string `form:"customer_id"`
		Status     string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.projectSvc.List(c.Request.Context(), projectdomain.ListProjectRequest{
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

// @Summary      Complete Project
// @Tags         projects
// @Security     ApiKeyAuth
// @Param        id   path  string  true  "Project ID"
// @Success      200  {object}  projectdomain.Project
// @Router       /projects/{id}/complete [post]
func (s *Server) CompleteProject(c *gin.Context) {
	resp, err := s.projectSvc.Complete(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Archive Project
// @Tags         projects
// @Security     ApiKeyAuth
// @Param        id   path  string  true  "Project ID"
// @Success      200  {object}  projectdomain.Project
// @Router       /projects/{id}/archive [post]
func (s *Server) ArchiveProject(c *gin.Context) {
	resp, err := s.projectSvc.Archive(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
