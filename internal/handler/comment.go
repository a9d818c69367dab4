package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/trackboard/backend/internal/apperr"
	"github.com/trackboard/backend/internal/middleware"
	"github.com/trackboard/backend/internal/service"
)

type CommentHandler struct {
	commentService *service.CommentService
	ticketService  *service.TicketService
}

func NewCommentHandler(commentService *service.CommentService, ticketService *service.TicketService) *CommentHandler {
	return &CommentHandler{commentService: commentService, ticketService: ticketService}
}

// POST /projects/:id/tickets/:number/comments
func (h *CommentHandler) Create(c *gin.Context) {
	var req struct {
		Body     string `json:"body" binding:"required,max=20000"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingFail(c, err)
		return
	}

	ticketID, err := h.resolveTicketID(c)
	if err != nil {
		Fail(c, err)
		return
	}

	comment, err := h.commentService.Create(middleware.GetProjectID(c), ticketID,
		middleware.GetCurrentUserID(c), req.Body, req.ParentID)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// GET /projects/:id/tickets/:number/comments
func (h *CommentHandler) List(c *gin.Context) {
	ticketID, err := h.resolveTicketID(c)
	if err != nil {
		Fail(c, err)
		return
	}

	comments, err := h.commentService.ListByTicket(middleware.GetProjectID(c), ticketID)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// PATCH /projects/:id/comments/:comment_id: author only.
func (h *CommentHandler) Update(c *gin.Context) {
	var req struct {
		Body string `json:"body" binding:"required,max=20000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingFail(c, err)
		return
	}

	comment, err := h.commentService.Update(middleware.GetProjectID(c),
		parseID(c.Param("comment_id")), middleware.GetCurrentUserID(c), req.Body)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DELETE /projects/:id/comments/:comment_id: author or admin.
func (h *CommentHandler) Delete(c *gin.Context) {
	err := h.commentService.Delete(middleware.GetProjectID(c),
		parseID(c.Param("comment_id")), middleware.GetCurrentUserID(c), middleware.GetCurrentRole(c))
	if err != nil {
		Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CommentHandler) resolveTicketID(c *gin.Context) (uint, error) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		return 0, apperr.BadRequest("Invalid ticket number")
	}
	ticket, terr := h.ticketService.GetByNumber(middleware.GetProjectID(c), number)
	if terr != nil {
		return 0, terr
	}
	return ticket.ID, nil
}
