package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Ticket struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ProjectID uint `gorm:"not null;uniqueIndex:uk_ticket_number" json:"project_id"`
	StatusID  uint `gorm:"not null;index:idx_ticket_status" json:"status_id"`
	// Number is the project-scoped sequence number; the unique index is
	// the arbiter when concurrent creations race.
	Number int `gorm:"not null;uniqueIndex:uk_ticket_number" json:"number"`
	// Position is the zero-based column index. Kept dense by the reorder
	// engine, not by a constraint: the shift update passes through
	// transient duplicates.
	Position    int            `gorm:"not null" json:"position"`
	Title       string         `gorm:"type:varchar(256);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Priority    string         `gorm:"type:varchar(10);default:medium" json:"priority"`
	ReporterID  uint           `gorm:"not null" json:"reporter_id"`
	AssigneeID  *uint          `json:"assignee_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Reporter *User `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	Assignee *User `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
}

func (Ticket) TableName() string { return "tickets" }

// Ref renders the human-readable reference, e.g. "PAY-17".
func (t *Ticket) Ref(projectKey string) string {
	return fmt.Sprintf("%s-%d", projectKey, t.Number)
}
