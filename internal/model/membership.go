package model

import "time"

// Role is the closed set of project roles, totally ordered by Level.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Level gives the numeric hierarchy used for permission comparisons.
// Unknown roles rank below everything, so checks fail closed.
func (r Role) Level() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}

func (r Role) AtLeast(required Role) bool { return r.Level() >= required.Level() }

func (r Role) Valid() bool { return r.Level() > 0 }

type Membership struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;uniqueIndex:uk_project_user" json:"project_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uk_project_user;index:idx_member_user" json:"user_id"`
	Role      Role      `gorm:"type:varchar(10);not null" json:"role"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Membership) TableName() string { return "memberships" }
