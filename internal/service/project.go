package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/trackboard/backend/internal/apperr"
	"github.com/trackboard/backend/internal/model"
	"gorm.io/gorm"
)

// AssertRole fails closed when the actual role ranks below the required
// one. Pure hierarchy comparison, no I/O.
func AssertRole(actual, required model.Role, msg string) error {
	if actual.AtLeast(required) {
		return nil
	}
	if msg == "" {
		msg = fmt.Sprintf("Requires %s role or above", required)
	}
	return apperr.Forbidden(msg)
}

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type CreateProjectInput struct {
	Key         string
	Name        string
	Description string
}

// Create sets up a project with its creator as sole OWNER, one board and
// the four seeded columns, all in one transaction.
func (s *ProjectService) Create(ownerID uint, in CreateProjectInput) (*model.Project, error) {
	project := &model.Project{
		Key:         strings.ToUpper(in.Key),
		Name:        in.Name,
		Description: in.Description,
		Status:      model.ProjectActive,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("Project key already in use")
			}
			return fmt.Errorf("create project: %w", err)
		}

		owner := &model.Membership{
			ProjectID: project.ID,
			UserID:    ownerID,
			Role:      model.RoleOwner,
		}
		if err := tx.Create(owner).Error; err != nil {
			return fmt.Errorf("create owner membership: %w", err)
		}

		board := &model.Board{ProjectID: project.ID, Name: project.Name}
		if err := tx.Create(board).Error; err != nil {
			return fmt.Errorf("create board: %w", err)
		}
		for _, seed := range model.DefaultStatuses {
			status := model.Status{
				BoardID:   board.ID,
				Name:      seed.Name,
				Position:  seed.Position,
				IsDefault: seed.IsDefault,
			}
			if err := tx.Create(&status).Error; err != nil {
				return fmt.Errorf("seed status %q: %w", seed.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(project.ID)
}

func (s *ProjectService) Get(projectID uint) (*model.Project, error) {
	var project model.Project
	err := s.db.Preload("Members.User").
		Preload("Board.Statuses", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&project, projectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Project not found")
		}
		return nil, err
	}
	return &project, nil
}

// List returns the projects the user is a member of.
func (s *ProjectService) List(userID uint) ([]model.Project, error) {
	var projects []model.Project
	err := s.db.
		Where("id IN (SELECT project_id FROM memberships WHERE user_id = ?)", userID).
		Order("updated_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

type UpdateProjectInput struct {
	Name        *string
	Description *string
}

func (s *ProjectService) Update(projectID uint, in UpdateProjectInput) (*model.Project, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if len(updates) > 0 {
		if err := s.db.Model(&model.Project{}).Where("id = ?", projectID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update project: %w", err)
		}
	}
	return s.Get(projectID)
}

func (s *ProjectService) Archive(projectID uint) error {
	return s.db.Model(&model.Project{}).Where("id = ?", projectID).
		Update("status", model.ProjectArchived).Error
}

// ResolveMembership is the single choke point for project access: NotFound
// when the project does not exist, Forbidden when the caller is not a
// member. Callers learn of a project's existence only once they belong to
// it.
func (s *ProjectService) ResolveMembership(projectID, userID uint) (*model.Membership, error) {
	var count int64
	if err := s.db.Model(&model.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperr.NotFound("Project not found")
	}

	var membership model.Membership
	err := s.db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Forbidden("Not a member of this project")
		}
		return nil, err
	}
	return &membership, nil
}

// AddMember invites a user by email. The OWNER role is never grantable
// here: the only owner-granting path is project creation.
func (s *ProjectService) AddMember(projectID uint, email string, role model.Role) (*model.Membership, error) {
	if role == model.RoleOwner {
		return nil, apperr.BadRequest("Cannot invite as owner")
	}
	if !role.Valid() {
		return nil, apperr.BadRequest("Unknown role")
	}

	var user model.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("No account with that email")
		}
		return nil, err
	}

	membership := &model.Membership{
		ProjectID: projectID,
		UserID:    user.ID,
		Role:      role,
	}
	if err := s.db.Create(membership).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("Already a member of this project")
		}
		return nil, fmt.Errorf("create membership: %w", err)
	}
	membership.User = &user
	return membership, nil
}

// UpdateMemberRole switches a member between MEMBER and ADMIN. Granting
// OWNER is refused to keep the single-owner invariant; demoting the owner
// is likewise refused.
func (s *ProjectService) UpdateMemberRole(projectID, targetUserID uint, role model.Role) (*model.Membership, error) {
	if role == model.RoleOwner {
		return nil, apperr.BadRequest("Ownership cannot be granted")
	}
	if !role.Valid() {
		return nil, apperr.BadRequest("Unknown role")
	}

	var membership model.Membership
	err := s.db.Where("project_id = ? AND user_id = ?", projectID, targetUserID).First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Member not found")
		}
		return nil, err
	}
	if membership.Role == model.RoleOwner {
		return nil, apperr.Forbidden("The project owner's role cannot be changed")
	}

	membership.Role = role
	if err := s.db.Save(&membership).Error; err != nil {
		return nil, fmt.Errorf("update membership: %w", err)
	}
	return &membership, nil
}

// RemoveMember applies the removal policy: removing a MEMBER needs ADMIN,
// removing an ADMIN needs OWNER, removing the OWNER is never permitted.
func (s *ProjectService) RemoveMember(projectID, targetUserID uint, actorRole model.Role) error {
	var membership model.Membership
	err := s.db.Where("project_id = ? AND user_id = ?", projectID, targetUserID).First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Member not found")
		}
		return err
	}

	switch membership.Role {
	case model.RoleOwner:
		return apperr.Forbidden("The project owner cannot be removed")
	case model.RoleAdmin:
		if err := AssertRole(actorRole, model.RoleOwner, "Only the owner can remove an admin"); err != nil {
			return err
		}
	default:
		if err := AssertRole(actorRole, model.RoleAdmin, "Requires admin role to remove a member"); err != nil {
			return err
		}
	}

	return s.db.Delete(&membership).Error
}
