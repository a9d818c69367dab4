package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	ProjectActive   = "active"
	ProjectArchived = "archived"
)

type Project struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Key         string         `gorm:"type:varchar(10);uniqueIndex:uk_project_key;not null" json:"key"`
	Name        string         `gorm:"type:varchar(128);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Status      string         `gorm:"type:varchar(10);default:active;index:idx_status" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Members []Membership `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Board   *Board       `gorm:"foreignKey:ProjectID" json:"board,omitempty"`
}

func (Project) TableName() string { return "projects" }
