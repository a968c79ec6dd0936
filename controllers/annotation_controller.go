package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"minddrag/config"
	"minddrag/models"
	"minddrag/policy"
	"minddrag/utils"
)

type AnnotationController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewAnnotationController(db *gorm.DB, logger *log.Logger) *AnnotationController {
	return &AnnotationController{DB: db, Logger: logger}
}

func (ac *AnnotationController) annotationByHash(hash string) (*models.Annotation, error) {
	var annotation models.Annotation
	err := ac.DB.Preload("CreatedBy").Preload("ConnectedDragable").
		Preload("Dragable.Team.CreatedBy").Preload("Dragable.Team.Members").
		Where("hash = ?", hash).First(&annotation).Error
	if err != nil {
		return nil, err
	}
	return &annotation, nil
}

// ListAnnotations returns annotations on dragables the caller can see,
// optionally narrowed to one dragable with ?dragable=<hash>.
func (ac *AnnotationController) ListAnnotations(c *fiber.Ctx) error {
	user := principal(c)

	query := ac.DB.Preload("CreatedBy").Preload("Dragable").Preload("ConnectedDragable")

	if dragableHash := c.Query("dragable"); dragableHash != "" {
		var dragable models.Dragable
		err := ac.DB.Preload("Team.Members").Preload("Team.CreatedBy").
			Where("hash = ?", dragableHash).First(&dragable).Error
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown dragable",
			})
		}
		if !policy.CanViewDragable(user, &dragable) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Not a member of this dragable's team",
			})
		}
		query = query.Where("annotations.dragable_id = ?", dragable.ID)
	} else {
		query = query.
			Joins("JOIN dragables d ON d.id = annotations.dragable_id").
			Joins("JOIN team_members tm ON tm.team_id = d.team_id").
			Where("tm.user_id = ?", user.ID)
	}

	var annotations []models.Annotation
	if err := query.Find(&annotations).Error; err != nil {
		ac.Logger.Printf("Failed to list annotations: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch annotations",
		})
	}

	return c.JSON(serializeAnnotations(annotations))
}

func (ac *AnnotationController) GetAnnotation(c *fiber.Ctx) error {
	user := principal(c)

	annotation, err := ac.annotationByHash(c.Params("hash"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown annotation",
		})
	}

	if !policy.CanViewAnnotation(user, annotation) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not a member of this annotation's team",
		})
	}

	return c.JSON(serializeAnnotation(annotation))
}

// CreateAnnotation creates an annotation of one of the six types. The type
// decides which payload fields are required; any construction failure is a
// client input error. Annotations cannot be changed once created.
func (ac *AnnotationController) CreateAnnotation(c *fiber.Ctx) error {
	user := principal(c)

	var input struct {
		Hash        string `json:"hash" validate:"required,max=128"`
		Dragable    string `json:"dragable" validate:"required"`
		Type        string `json:"type" validate:"required"`
		Note        string `json:"note"`
		URL         string `json:"url"`
		Description string `json:"description"`
		Filename    string `json:"filename"`
		ConnectedTo string `json:"connected_to"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if !models.ValidAnnotationType(input.Type) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown annotation type",
		})
	}

	var dragable models.Dragable
	err := ac.DB.Preload("Team.CreatedBy").Preload("Team.Members").
		Where("hash = ?", input.Dragable).First(&dragable).Error
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown dragable",
		})
	}

	var existing models.Annotation
	if err := ac.DB.Where("hash = ?", input.Hash).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Annotation hash already in use",
		})
	}

	if !policy.IsTeamMember(user, &dragable.Team) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not a member of this dragable's team",
		})
	}

	annotation := models.Annotation{
		Hash:        input.Hash,
		DragableID:  dragable.ID,
		CreatedByID: user.ID,
		Type:        input.Type,
	}

	switch input.Type {
	case models.AnnotationNote:
		if input.Note == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "note is required for note annotations",
			})
		}
		annotation.Note = input.Note

	case models.AnnotationURL, models.AnnotationImage, models.AnnotationVideo, models.AnnotationFile:
		// Image and video share the url path until they grow their own
		// handling. File annotations go through it too: the upload itself
		// is not implemented, only the reference is stored.
		if input.URL == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "url is required for this annotation type",
			})
		}
		annotation.URL = input.URL
		annotation.Description = input.Description
		// Only file annotations carry a filename.
		if input.Type == models.AnnotationFile {
			annotation.Filename = input.Filename
		}

	case models.AnnotationConnection:
		if input.ConnectedTo == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "connected_to is required for connection annotations",
			})
		}
		if input.ConnectedTo == dragable.Hash {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "A dragable cannot be connected to itself",
			})
		}
		var target models.Dragable
		if err := ac.DB.Where("hash = ?", input.ConnectedTo).First(&target).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown connected dragable",
			})
		}
		if config.AppConfig.EnforceSameTeamConnections && target.TeamID != dragable.TeamID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Connected dragable belongs to a different team",
			})
		}
		annotation.ConnectedDragableID = &target.ID
		annotation.ConnectedDragable = &target
		annotation.Description = input.Description
	}

	// Constraint violations (concurrent duplicate hash included) collapse
	// into the same client error as the checks above.
	if err := ac.DB.Create(&annotation).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Could not create annotation",
		})
	}

	annotation.Dragable = dragable
	annotation.CreatedBy = *user

	return c.Status(fiber.StatusCreated).JSON(serializeAnnotation(&annotation))
}
