package model

import (
	"time"

	"gorm.io/gorm"
)

type Comment struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	TicketID uint `gorm:"not null;index:idx_comment_ticket" json:"ticket_id"`
	AuthorID uint `gorm:"not null" json:"author_id"`
	// ParentID threads replies; the parent must be a comment on the same
	// ticket.
	ParentID  *uint          `json:"parent_id"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (Comment) TableName() string { return "comments" }

// All is the model list handed to AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Project{},
		&Membership{},
		&Board{},
		&Status{},
		&Ticket{},
		&Comment{},
	}
}
