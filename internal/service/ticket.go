package service

import (
	"errors"
	"fmt"

	"github.com/trackboard/backend/internal/apperr"
	"github.com/trackboard/backend/internal/model"
	"github.com/trackboard/backend/internal/sse"
	"gorm.io/gorm"
)

// TicketService owns sequence assignment and column ordering. Correctness
// under concurrent writers comes from the store: the (project, number)
// unique constraint is the arbiter for the sequencer, and the reorder
// engine's shift-then-place runs inside one transaction. The preceding
// reads are optimizations, never locks.
type TicketService struct {
	db  *gorm.DB
	hub *sse.Hub
}

func NewTicketService(db *gorm.DB, hub *sse.Hub) *TicketService {
	return &TicketService{db: db, hub: hub}
}

type CreateTicketInput struct {
	Title       string
	Description string
	Priority    string
	StatusID    *uint
	AssigneeID  *uint
}

// Create assigns the next project-scoped number and appends the ticket to
// the end of the target column (the board's default column when none is
// given). If two creations race, one insert fails the unique constraint and
// surfaces as Conflict; retrying is the caller's contract.
func (s *TicketService) Create(projectID, reporterID uint, in CreateTicketInput) (*model.Ticket, error) {
	ticket := &model.Ticket{
		ProjectID:   projectID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		ReporterID:  reporterID,
		AssigneeID:  in.AssigneeID,
	}
	if ticket.Priority == "" {
		ticket.Priority = model.PriorityMedium
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var status *model.Status
		var err error
		if in.StatusID != nil {
			status, err = statusInProject(tx, projectID, *in.StatusID)
		} else {
			status, err = defaultStatus(tx, projectID)
		}
		if err != nil {
			return err
		}
		ticket.StatusID = status.ID

		// Best-effort read; the (project, number) unique index is the
		// real arbiter if another creation lands in between. Unscoped:
		// deleted tickets keep their numbers reserved.
		var maxNumber int
		if err := tx.Unscoped().Model(&model.Ticket{}).Where("project_id = ?", projectID).
			Select("COALESCE(MAX(number), 0)").Scan(&maxNumber).Error; err != nil {
			return fmt.Errorf("read max number: %w", err)
		}
		ticket.Number = maxNumber + 1

		var count int64
		if err := tx.Model(&model.Ticket{}).Where("status_id = ?", status.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("count column: %w", err)
		}
		ticket.Position = int(count)

		if err := tx.Create(ticket).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("Ticket number already assigned, retry")
			}
			return fmt.Errorf("create ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(projectID, "ticket.created", ticket)
	return ticket, nil
}

// Move places the ticket at the given zero-based index of the target
// column. Within one transaction every ticket of the target column at or
// past the index shifts down by one, then the moved ticket takes the slot,
// leaving the target column dense 0..k-1. A same-column move closes the
// vacated slot before reinserting, so that column stays dense in both
// directions. A cross-column move may leave a gap in the source column;
// only relative order matters there, so the gap is kept as upstream
// behavior.
func (s *TicketService) Move(projectID, ticketID, statusID uint, position int) (*model.Ticket, error) {
	var ticket model.Ticket
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := loadTicket(tx, projectID, ticketID, &ticket); err != nil {
			return err
		}
		status, err := statusInProject(tx, projectID, statusID)
		if err != nil {
			return err
		}

		// A same-column move vacates a slot below the insertion point; close
		// it first so the reinsert sees a dense column and the ticket lands
		// exactly at the requested index.
		if status.ID == ticket.StatusID {
			err = tx.Model(&model.Ticket{}).
				Where("status_id = ? AND position > ? AND id != ?", status.ID, ticket.Position, ticket.ID).
				UpdateColumn("position", gorm.Expr("position - 1")).Error
			if err != nil {
				return fmt.Errorf("close vacated slot: %w", err)
			}
		}

		var count int64
		if err := tx.Model(&model.Ticket{}).
			Where("status_id = ? AND id != ?", status.ID, ticket.ID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("count column: %w", err)
		}
		if position < 0 {
			position = 0
		}
		if position > int(count) {
			position = int(count)
		}

		err = tx.Model(&model.Ticket{}).
			Where("status_id = ? AND position >= ? AND id != ?", status.ID, position, ticket.ID).
			UpdateColumn("position", gorm.Expr("position + 1")).Error
		if err != nil {
			return fmt.Errorf("shift column: %w", err)
		}

		ticket.StatusID = status.ID
		ticket.Position = position
		err = tx.Model(&ticket).Updates(map[string]interface{}{
			"status_id": status.ID,
			"position":  position,
		}).Error
		if err != nil {
			return fmt.Errorf("place ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(projectID, "ticket.moved", &ticket)
	return &ticket, nil
}

type UpdateTicketInput struct {
	Title         *string
	Description   *string
	Priority      *string
	AssigneeID    *uint
	ClearAssignee bool
}

func (s *TicketService) Update(projectID, ticketID uint, in UpdateTicketInput) (*model.Ticket, error) {
	var ticket model.Ticket
	if err := loadTicket(s.db, projectID, ticketID, &ticket); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Priority != nil {
		updates["priority"] = *in.Priority
	}
	if in.ClearAssignee {
		updates["assignee_id"] = nil
	} else if in.AssigneeID != nil {
		updates["assignee_id"] = *in.AssigneeID
	}
	if len(updates) > 0 {
		if err := s.db.Model(&ticket).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update ticket: %w", err)
		}
	}

	s.publish(projectID, "ticket.updated", &ticket)
	return &ticket, nil
}

// Delete removes a ticket; only its reporter or an admin may. The vacated
// column is compacted so the remaining positions stay dense.
func (s *TicketService) Delete(projectID, ticketID, actorID uint, actorRole model.Role) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ticket model.Ticket
		if err := loadTicket(tx, projectID, ticketID, &ticket); err != nil {
			return err
		}
		if ticket.ReporterID != actorID {
			if err := AssertRole(actorRole, model.RoleAdmin, "Only the reporter or an admin can delete a ticket"); err != nil {
				return err
			}
		}

		if err := tx.Delete(&ticket).Error; err != nil {
			return fmt.Errorf("delete ticket: %w", err)
		}
		err := tx.Model(&model.Ticket{}).
			Where("status_id = ? AND position > ?", ticket.StatusID, ticket.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
		if err != nil {
			return fmt.Errorf("compact column: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(projectID, "ticket.deleted", map[string]uint{"id": ticketID})
	return nil
}

// GetByNumber is the point lookup behind ticket URLs like PAY-17.
func (s *TicketService) GetByNumber(projectID uint, number int) (*model.Ticket, error) {
	var ticket model.Ticket
	err := s.db.Preload("Reporter").Preload("Assignee").
		Where("project_id = ? AND number = ?", projectID, number).
		First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Ticket not found")
		}
		return nil, err
	}
	return &ticket, nil
}

func (s *TicketService) List(projectID uint) ([]model.Ticket, error) {
	var tickets []model.Ticket
	err := s.db.Where("project_id = ?", projectID).
		Order("status_id ASC, position ASC").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (s *TicketService) publish(projectID uint, eventType string, data interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(projectID, sse.Event{Type: eventType, Data: data})
}

func loadTicket(tx *gorm.DB, projectID, ticketID uint, out *model.Ticket) error {
	err := tx.Where("project_id = ? AND id = ?", projectID, ticketID).First(out).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Ticket not found")
		}
		return err
	}
	return nil
}

// defaultStatus finds the board's default column, falling back to the
// lowest-positioned one if no default flag is set.
func defaultStatus(tx *gorm.DB, projectID uint) (*model.Status, error) {
	board, err := boardForProject(tx, projectID)
	if err != nil {
		return nil, err
	}
	var status model.Status
	err = tx.Where("board_id = ? AND is_default = ?", board.ID, true).First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = tx.Where("board_id = ?", board.ID).Order("position ASC").First(&status).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.BadRequest("Board has no columns")
		}
		return nil, err
	}
	return &status, nil
}
