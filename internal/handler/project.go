package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trackboard/backend/internal/middleware"
	"github.com/trackboard/backend/internal/model"
	"github.com/trackboard/backend/internal/service"
)

type ProjectHandler struct {
	projectService *service.ProjectService
}

func NewProjectHandler(projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req struct {
		Key         string `json:"key" binding:"required,alphanum,min=2,max=10"`
		Name        string `json:"name" binding:"required,max=128"`
		Description string `json:"description" binding:"max=5000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingFail(c, err)
		return
	}

	project, err := h.projectService.Create(middleware.GetCurrentUserID(c), service.CreateProjectInput{
		Key:         req.Key,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projectService.List(middleware.GetCurrentUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// GET /projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.projectService.Get(middleware.GetProjectID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// PUT /projects/:id: admin and up.
func (h *ProjectHandler) Update(c *gin.Context) {
	var req struct {
		Name        *string `json:"name" binding:"omitempty,max=128"`
		Description *string `json:"description" binding:"omitempty,max=5000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingFail(c, err)
		return
	}

	project, err := h.projectService.Update(middleware.GetProjectID(c), service.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// PUT /projects/:id/archive: owner only.
func (h *ProjectHandler) Archive(c *gin.Context) {
	if err := h.projectService.Archive(middleware.GetProjectID(c)); err != nil {
		Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /projects/:id/members: admin and up.
func (h *ProjectHandler) AddMember(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Role  string `json:"role" binding:"required,oneof=admin member"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingFail(c, err)
		return
	}

	membership, err := h.projectService.AddMember(middleware.GetProjectID(c), req.Email, model.Role(req.Role))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, membership)
}

// PUT /projects/:id/members/:user_id: admin and up.
func (h *ProjectHandler) UpdateMemberRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required,oneof=admin member"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingFail(c, err)
		return
	}

	membership, err := h.projectService.UpdateMemberRole(
		middleware.GetProjectID(c), parseID(c.Param("user_id")), model.Role(req.Role))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, membership)
}

// DELETE /projects/:id/members/:user_id: the required rank depends on the
// target's role, so the policy lives in the service.
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	err := h.projectService.RemoveMember(
		middleware.GetProjectID(c), parseID(c.Param("user_id")), middleware.GetCurrentRole(c))
	if err != nil {
		Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
