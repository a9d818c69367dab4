package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trackboard/backend/internal/middleware"
	"github.com/trackboard/backend/internal/service"
)

type BoardHandler struct {
	boardService *service.BoardService
}

func NewBoardHandler(boardService *service.BoardService) *BoardHandler {
	return &BoardHandler{boardService: boardService}
}

// GET /projects/:id/board
func (h *BoardHandler) Get(c *gin.Context) {
	board, err := h.boardService.Get(middleware.GetProjectID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// POST /projects/:id/statuses: admin and up.
func (h *BoardHandler) CreateStatus(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,max=64"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingFail(c, err)
		return
	}

	status, err := h.boardService.CreateStatus(middleware.GetProjectID(c), req.Name)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, status)
}

// PUT /projects/:id/statuses/:status_id: admin and up.
func (h *BoardHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Name    *string `json:"name" binding:"omitempty,max=64"`
		Default *bool   `json:"default"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingFail(c, err)
		return
	}

	status, err := h.boardService.UpdateStatus(
		middleware.GetProjectID(c), parseID(c.Param("status_id")),
		service.UpdateStatusInput{Name: req.Name, Default: req.Default})
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// DELETE /projects/:id/statuses/:status_id: admin and up.
func (h *BoardHandler) DeleteStatus(c *gin.Context) {
	err := h.boardService.DeleteStatus(middleware.GetProjectID(c), parseID(c.Param("status_id")))
	if err != nil {
		Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
