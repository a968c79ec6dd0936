package models

import (
	"gorm.io/gorm"
)

// Annotation types. The type tags which payload columns are populated.
const (
	AnnotationNote       = "note"
	AnnotationURL        = "url"
	AnnotationImage      = "image"
	AnnotationVideo      = "video"
	AnnotationFile       = "file"
	AnnotationConnection = "connection"
)

// AnnotationTypes lists the valid annotation type tags.
var AnnotationTypes = []string{
	AnnotationNote,
	AnnotationURL,
	AnnotationImage,
	AnnotationVideo,
	AnnotationFile,
	AnnotationConnection,
}

// ValidAnnotationType reports whether t is one of the six annotation types.
func ValidAnnotationType(t string) bool {
	for _, known := range AnnotationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Annotation is typed metadata attached to a dragable. All six types share one
// table; Type decides which payload columns are meaningful. Annotations are
// read-only after creation.
type Annotation struct {
	gorm.Model

	Hash string `gorm:"uniqueIndex;not null" json:"hash"`

	DragableID uint     `gorm:"not null;index" json:"-"`
	Dragable   Dragable `json:"dragable"`

	CreatedByID uint `gorm:"not null;index" json:"-"`
	CreatedBy   User `json:"created_by"`

	Type string `gorm:"not null" json:"type"`

	// note
	Note string `json:"note,omitempty"`

	// url / image / video
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`

	// file (upload itself is not implemented)
	Filename string `json:"filename,omitempty"`

	// connection
	ConnectedDragableID *uint     `json:"-"`
	ConnectedDragable   *Dragable `json:"connected_dragable,omitempty"`
}
