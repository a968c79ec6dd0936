package models

import (
	"gorm.io/gorm"
)

// Team is a named collaboration group. The creator owns the team and is always
// a member. A team with a password is private; everything else is public.
type Team struct {
	gorm.Model

	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`

	CreatedByID uint `gorm:"not null;index" json:"-"`
	CreatedBy   User `json:"created_by"`

	Members []User `gorm:"many2many:team_members" json:"members,omitempty"`

	Public bool `gorm:"default:true" json:"public"`
	// Bcrypt hash of the join password. Only meaningful when Public is false.
	Password string `gorm:"column:password" json:"-"`
}
