package models

import (
	"gorm.io/gorm"
)

// Dragable is a captured web fragment. It belongs to exactly one team and is
// addressed externally by its content hash, which never changes after create.
type Dragable struct {
	gorm.Model

	Hash string `gorm:"uniqueIndex;not null" json:"hash"`

	CreatedByID uint `gorm:"not null;index" json:"-"`
	CreatedBy   User `json:"created_by"`

	TeamID uint `gorm:"not null;index" json:"-"`
	Team   Team `json:"team"`

	URL   string `gorm:"not null" json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
	XPath string `gorm:"not null" json:"xpath"`

	ConnectedToID *uint     `json:"-"`
	ConnectedTo   *Dragable `json:"connected_to,omitempty"`
}
