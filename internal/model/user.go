package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"type:varchar(128);uniqueIndex:uk_email;not null" json:"email"`
	Username     string `gorm:"type:varchar(64);uniqueIndex:uk_username;not null" json:"username"`
	FirstName    string `gorm:"type:varchar(64)" json:"first_name"`
	LastName     string `gorm:"type:varchar(64)" json:"last_name"`
	PasswordHash string `gorm:"type:varchar(128);not null" json:"-"`
	// RefreshHash is the bcrypt hash of the single outstanding refresh
	// token; nil means no active session.
	RefreshHash *string        `gorm:"type:varchar(128)" json:"-"`
	Active      bool           `gorm:"default:true" json:"active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// PublicUser is the account view handed to everything outside the auth
// core: no password hash, no refresh hash.
type PublicUser struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Active    bool   `json:"active"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Active:    u.Active,
	}
}
