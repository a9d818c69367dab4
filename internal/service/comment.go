package service

import (
	"errors"
	"fmt"

	"github.com/trackboard/backend/internal/apperr"
	"github.com/trackboard/backend/internal/model"
	"gorm.io/gorm"
)

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// Create adds a comment to a ticket, optionally threaded under a parent
// comment of the same ticket.
func (s *CommentService) Create(projectID, ticketID, authorID uint, body string, parentID *uint) (*model.Comment, error) {
	var ticket model.Ticket
	if err := loadTicket(s.db, projectID, ticketID, &ticket); err != nil {
		return nil, err
	}

	if parentID != nil {
		var parent model.Comment
		if err := s.db.First(&parent, *parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("Parent comment not found")
			}
			return nil, err
		}
		if parent.TicketID != ticketID {
			return nil, apperr.BadRequest("Parent comment belongs to a different ticket")
		}
	}

	comment := &model.Comment{
		TicketID: ticketID,
		AuthorID: authorID,
		ParentID: parentID,
		Body:     body,
	}
	if err := s.db.Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// Update edits a comment body; authors only, regardless of role.
func (s *CommentService) Update(projectID, commentID, actorID uint, body string) (*model.Comment, error) {
	comment, err := s.load(projectID, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != actorID {
		return nil, apperr.Forbidden("Only the author can edit a comment")
	}

	comment.Body = body
	if err := s.db.Save(comment).Error; err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return comment, nil
}

// Delete removes a comment; the author or any admin may.
func (s *CommentService) Delete(projectID, commentID, actorID uint, actorRole model.Role) error {
	comment, err := s.load(projectID, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != actorID {
		if err := AssertRole(actorRole, model.RoleAdmin, "Only the author or an admin can delete a comment"); err != nil {
			return err
		}
	}
	return s.db.Delete(comment).Error
}

// ListByTicket returns a ticket's comments oldest first; threading is a
// client concern over parent_id.
func (s *CommentService) ListByTicket(projectID, ticketID uint) ([]model.Comment, error) {
	var ticket model.Ticket
	if err := loadTicket(s.db, projectID, ticketID, &ticket); err != nil {
		return nil, err
	}

	var comments []model.Comment
	err := s.db.Preload("Author").
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// load scopes the lookup to the project so comment ids cannot be probed
// across projects.
func (s *CommentService) load(projectID, commentID uint) (*model.Comment, error) {
	var comment model.Comment
	err := s.db.
		Joins("JOIN tickets ON tickets.id = comments.ticket_id").
		Where("comments.id = ? AND tickets.project_id = ?", commentID, projectID).
		First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Comment not found")
		}
		return nil, err
	}
	return &comment, nil
}
