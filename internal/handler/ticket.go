package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/trackboard/backend/internal/apperr"
	"github.com/trackboard/backend/internal/middleware"
	"github.com/trackboard/backend/internal/model"
	"github.com/trackboard/backend/internal/service"
)

// Ticket routes address tickets by their project-scoped number (the tail
// of refs like PAY-17), never by row id.
type TicketHandler struct {
	ticketService *service.TicketService
}

func NewTicketHandler(ticketService *service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// POST /projects/:id/tickets
func (h *TicketHandler) Create(c *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required,max=256"`
		Description string `json:"description" binding:"max=20000"`
		Priority    string `json:"priority" binding:"omitempty,oneof=low medium high"`
		StatusID    *uint  `json:"status_id"`
		AssigneeID  *uint  `json:"assignee_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingFail(c, err)
		return
	}

	ticket, err := h.ticketService.Create(middleware.GetProjectID(c), middleware.GetCurrentUserID(c),
		service.CreateTicketInput{
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
			StatusID:    req.StatusID,
			AssigneeID:  req.AssigneeID,
		})
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// GET /projects/:id/tickets
func (h *TicketHandler) List(c *gin.Context) {
	tickets, err := h.ticketService.List(middleware.GetProjectID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

// GET /projects/:id/tickets/:number
func (h *TicketHandler) Get(c *gin.Context) {
	ticket, err := h.resolve(c)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// PATCH /projects/:id/tickets/:number
func (h *TicketHandler) Update(c *gin.Context) {
	var req struct {
		Title         *string `json:"title" binding:"omitempty,max=256"`
		Description   *string `json:"description" binding:"omitempty,max=20000"`
		Priority      *string `json:"priority" binding:"omitempty,oneof=low medium high"`
		AssigneeID    *uint   `json:"assignee_id"`
		ClearAssignee bool    `json:"clear_assignee"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingFail(c, err)
		return
	}

	ticket, err := h.resolve(c)
	if err != nil {
		Fail(c, err)
		return
	}

	updated, err := h.ticketService.Update(middleware.GetProjectID(c), ticket.ID, service.UpdateTicketInput{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		AssigneeID:    req.AssigneeID,
		ClearAssignee: req.ClearAssignee,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// POST /projects/:id/tickets/:number/move
func (h *TicketHandler) Move(c *gin.Context) {
	var req struct {
		StatusID uint `json:"status_id" binding:"required"`
		Position *int `json:"position" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BindingFail(c, err)
		return
	}

	ticket, err := h.resolve(c)
	if err != nil {
		Fail(c, err)
		return
	}

	moved, err := h.ticketService.Move(middleware.GetProjectID(c), ticket.ID, req.StatusID, *req.Position)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, moved)
}

// DELETE /projects/:id/tickets/:number
func (h *TicketHandler) Delete(c *gin.Context) {
	ticket, err := h.resolve(c)
	if err != nil {
		Fail(c, err)
		return
	}

	err = h.ticketService.Delete(middleware.GetProjectID(c), ticket.ID,
		middleware.GetCurrentUserID(c), middleware.GetCurrentRole(c))
	if err != nil {
		Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TicketHandler) resolve(c *gin.Context) (*model.Ticket, error) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		return nil, apperr.BadRequest("Invalid ticket number")
	}
	return h.ticketService.GetByNumber(middleware.GetProjectID(c), number)
}
