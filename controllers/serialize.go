package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"minddrag/models"
)

// Serialized resources embed only shallow references to related entities:
// usernames for users, names for teams, hashes for dragables. Full nested
// objects and the team password never leave the API.

type UserRef struct {
	Username string `json:"username"`
}

type TeamRef struct {
	Name string `json:"name"`
}

type DragableRef struct {
	Hash string `json:"hash"`
}

type TeamResponse struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Public      bool      `json:"public"`
	CreatedBy   UserRef   `json:"created_by"`
	Members     []UserRef `json:"members"`

	// Only shown to authenticated viewers.
	Created *time.Time `json:"created,omitempty"`
}

type DragableResponse struct {
	Hash        string       `json:"hash"`
	CreatedBy   UserRef      `json:"created_by"`
	Team        TeamRef      `json:"team"`
	Created     time.Time    `json:"created"`
	Updated     time.Time    `json:"updated"`
	URL         string       `json:"url"`
	Title       string       `json:"title"`
	Text        string       `json:"text"`
	XPath       string       `json:"xpath"`
	ConnectedTo *DragableRef `json:"connected_to,omitempty"`
}

type AnnotationResponse struct {
	Hash      string      `json:"hash"`
	Dragable  DragableRef `json:"dragable"`
	CreatedBy UserRef     `json:"created_by"`
	Created   time.Time   `json:"created"`
	Updated   time.Time   `json:"updated"`
	Type      string      `json:"type"`

	Note              string       `json:"note,omitempty"`
	URL               string       `json:"url,omitempty"`
	Description       string       `json:"description,omitempty"`
	Filename          string       `json:"filename,omitempty"`
	ConnectedDragable *DragableRef `json:"connected_dragable,omitempty"`
}

func serializeTeam(team *models.Team, authenticated bool) TeamResponse {
	members := make([]UserRef, 0, len(team.Members))
	for _, m := range team.Members {
		members = append(members, UserRef{Username: m.Username})
	}

	resp := TeamResponse{
		Name:        team.Name,
		Description: team.Description,
		Public:      team.Public,
		CreatedBy:   UserRef{Username: team.CreatedBy.Username},
		Members:     members,
	}
	if authenticated {
		created := team.CreatedAt
		resp.Created = &created
	}
	return resp
}

func serializeTeams(teams []models.Team, authenticated bool) []TeamResponse {
	out := make([]TeamResponse, 0, len(teams))
	for i := range teams {
		out = append(out, serializeTeam(&teams[i], authenticated))
	}
	return out
}

func serializeDragable(d *models.Dragable) DragableResponse {
	resp := DragableResponse{
		Hash:      d.Hash,
		CreatedBy: UserRef{Username: d.CreatedBy.Username},
		Team:      TeamRef{Name: d.Team.Name},
		Created:   d.CreatedAt,
		Updated:   d.UpdatedAt,
		URL:       d.URL,
		Title:     d.Title,
		Text:      d.Text,
		XPath:     d.XPath,
	}
	if d.ConnectedTo != nil {
		resp.ConnectedTo = &DragableRef{Hash: d.ConnectedTo.Hash}
	}
	return resp
}

func serializeDragables(dragables []models.Dragable) []DragableResponse {
	out := make([]DragableResponse, 0, len(dragables))
	for i := range dragables {
		out = append(out, serializeDragable(&dragables[i]))
	}
	return out
}

func serializeAnnotation(a *models.Annotation) AnnotationResponse {
	resp := AnnotationResponse{
		Hash:        a.Hash,
		Dragable:    DragableRef{Hash: a.Dragable.Hash},
		CreatedBy:   UserRef{Username: a.CreatedBy.Username},
		Created:     a.CreatedAt,
		Updated:     a.UpdatedAt,
		Type:        a.Type,
		Note:        a.Note,
		URL:         a.URL,
		Description: a.Description,
		Filename:    a.Filename,
	}
	if a.ConnectedDragable != nil {
		resp.ConnectedDragable = &DragableRef{Hash: a.ConnectedDragable.Hash}
	}
	return resp
}

func serializeAnnotations(annotations []models.Annotation) []AnnotationResponse {
	out := make([]AnnotationResponse, 0, len(annotations))
	for i := range annotations {
		out = append(out, serializeAnnotation(&annotations[i]))
	}
	return out
}

// principal returns the authenticated user set by the JWT middleware, or nil
// for anonymous requests behind OptionalAuth.
func principal(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}
