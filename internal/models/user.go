package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// Profile is the local record of an authenticated user. The role stored here
// is authoritative for access control regardless of what the token claims.
type Profile struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:100"`
	Role     UserRole `json:"role" gorm:"not null;size:20;default:student;index"`

	AvatarURL *string `json:"avatar_url" gorm:"size:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Role == "" {
		p.Role = RoleStudent
	}
	return nil
}
