package service

import (
	"errors"
	"fmt"

	"github.com/trackboard/backend/internal/apperr"
	"github.com/trackboard/backend/internal/model"
	"gorm.io/gorm"
)

type BoardService struct {
	db *gorm.DB
}

func NewBoardService(db *gorm.DB) *BoardService {
	return &BoardService{db: db}
}

// Get loads the project's board with columns and tickets in display order.
func (s *BoardService) Get(projectID uint) (*model.Board, error) {
	board, err := boardForProject(s.db, projectID)
	if err != nil {
		return nil, err
	}
	err = s.db.Preload("Statuses", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Preload("Statuses.Tickets", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Preload("Statuses.Tickets.Assignee").
		First(board, board.ID).Error
	if err != nil {
		return nil, err
	}
	return board, nil
}

// CreateStatus appends a new column at the end of the board.
func (s *BoardService) CreateStatus(projectID uint, name string) (*model.Status, error) {
	var status *model.Status
	err := s.db.Transaction(func(tx *gorm.DB) error {
		board, err := boardForProject(tx, projectID)
		if err != nil {
			return err
		}

		var maxPos int
		if err := tx.Model(&model.Status{}).Where("board_id = ?", board.ID).
			Select("COALESCE(MAX(position), -1)").Scan(&maxPos).Error; err != nil {
			return fmt.Errorf("read max position: %w", err)
		}

		status = &model.Status{BoardID: board.ID, Name: name, Position: maxPos + 1}
		if err := tx.Create(status).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("A column with that name or position already exists")
			}
			return fmt.Errorf("create status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

type UpdateStatusInput struct {
	Name    *string
	Default *bool
}

// UpdateStatus renames a column or moves the default flag. Setting a column
// default unsets every other column of the board in the same transaction,
// so at most one default exists at all times.
func (s *BoardService) UpdateStatus(projectID, statusID uint, in UpdateStatusInput) (*model.Status, error) {
	var status model.Status
	err := s.db.Transaction(func(tx *gorm.DB) error {
		st, err := statusInProject(tx, projectID, statusID)
		if err != nil {
			return err
		}
		status = *st

		if in.Name != nil {
			status.Name = *in.Name
		}
		if in.Default != nil && *in.Default {
			if err := tx.Model(&model.Status{}).
				Where("board_id = ? AND id != ?", status.BoardID, status.ID).
				Update("is_default", false).Error; err != nil {
				return fmt.Errorf("unset default: %w", err)
			}
			status.IsDefault = true
		}

		if err := tx.Save(&status).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("A column with that name already exists")
			}
			return fmt.Errorf("save status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// DeleteStatus removes an empty, non-default column.
func (s *BoardService) DeleteStatus(projectID, statusID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		status, err := statusInProject(tx, projectID, statusID)
		if err != nil {
			return err
		}
		if status.IsDefault {
			return apperr.BadRequest("The default column cannot be deleted")
		}

		var count int64
		if err := tx.Model(&model.Ticket{}).Where("status_id = ?", status.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.BadRequest("Cannot delete a column that still has tickets")
		}

		return tx.Delete(status).Error
	})
}

// boardForProject resolves the project's board; NotFound covers both a
// missing project and its (impossible outside broken data) missing board.
func boardForProject(tx *gorm.DB, projectID uint) (*model.Board, error) {
	var board model.Board
	err := tx.Where("project_id = ?", projectID).First(&board).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Board not found")
		}
		return nil, err
	}
	return &board, nil
}

// statusInProject loads a column and confirms it is attached to the
// project's board. Cross-project column references fail here, before any
// mutation.
func statusInProject(tx *gorm.DB, projectID, statusID uint) (*model.Status, error) {
	board, err := boardForProject(tx, projectID)
	if err != nil {
		return nil, err
	}
	var status model.Status
	if err := tx.First(&status, statusID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Column not found")
		}
		return nil, err
	}
	if status.BoardID != board.ID {
		return nil, apperr.BadRequest("Column does not belong to this project")
	}
	return &status, nil
}
