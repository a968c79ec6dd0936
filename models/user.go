package models

import (
	"gorm.io/gorm"
)

// User represents a registered account. Unauthenticated requests carry a nil
// user as their principal.
type User struct {
	gorm.Model

	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	// Relations
	Teams []Team `gorm:"many2many:team_members" json:"teams,omitempty"`
}
