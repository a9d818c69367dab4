package model

import "time"

// Board is the single kanban board of a project.
type Board struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;uniqueIndex:uk_board_project" json:"project_id"`
	Name      string    `gorm:"type:varchar(128);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Statuses []Status `gorm:"foreignKey:BoardID" json:"statuses,omitempty"`
}

func (Board) TableName() string { return "boards" }

// Status is a board column. Name and position are unique per board; at
// most one column per board carries the default flag.
type Status struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BoardID   uint      `gorm:"not null;uniqueIndex:uk_status_name;uniqueIndex:uk_status_position" json:"board_id"`
	Name      string    `gorm:"type:varchar(64);not null;uniqueIndex:uk_status_name" json:"name"`
	Position  int       `gorm:"not null;uniqueIndex:uk_status_position" json:"position"`
	IsDefault bool      `gorm:"default:false" json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tickets []Ticket `gorm:"foreignKey:StatusID" json:"tickets,omitempty"`
}

func (Status) TableName() string { return "statuses" }

// DefaultStatuses are seeded, in order, on every new board.
var DefaultStatuses = []Status{
	{Name: "To Do", Position: 0, IsDefault: true},
	{Name: "In Progress", Position: 1},
	{Name: "In Review", Position: 2},
	{Name: "Done", Position: 3},
}
