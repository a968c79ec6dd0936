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

type DragableController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewDragableController(db *gorm.DB, logger *log.Logger) *DragableController {
	return &DragableController{DB: db, Logger: logger}
}

// dragableByHash loads a dragable with everything its policy checks and
// serialization need: creator, owning team (with members) and connection.
func (dc *DragableController) dragableByHash(hash string) (*models.Dragable, error) {
	var dragable models.Dragable
	err := dc.DB.Preload("CreatedBy").Preload("ConnectedTo").
		Preload("Team.CreatedBy").Preload("Team.Members").
		Where("hash = ?", hash).First(&dragable).Error
	if err != nil {
		return nil, err
	}
	return &dragable, nil
}

// ListDragables returns the dragables of every team the caller belongs to,
// optionally narrowed to a single team with ?team=<name>.
func (dc *DragableController) ListDragables(c *fiber.Ctx) error {
	user := principal(c)

	query := dc.DB.Preload("CreatedBy").Preload("ConnectedTo").Preload("Team")

	if teamName := c.Query("team"); teamName != "" {
		var team models.Team
		err := dc.DB.Preload("Members").Where("name = ?", teamName).First(&team).Error
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown team",
			})
		}
		// Dragable visibility is membership-scoped even for public teams.
		if !policy.IsTeamMember(user, &team) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Not a member of this team",
			})
		}
		query = query.Where("dragables.team_id = ?", team.ID)
	} else {
		query = query.
			Joins("JOIN team_members tm ON tm.team_id = dragables.team_id").
			Where("tm.user_id = ?", user.ID)
	}

	var dragables []models.Dragable
	if err := query.Find(&dragables).Error; err != nil {
		dc.Logger.Printf("Failed to list dragables: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch dragables",
		})
	}

	return c.JSON(serializeDragables(dragables))
}

func (dc *DragableController) GetDragable(c *fiber.Ctx) error {
	user := principal(c)

	dragable, err := dc.dragableByHash(c.Params("hash"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown dragable",
		})
	}

	if !policy.CanViewDragable(user, dragable) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not a member of this dragable's team",
		})
	}

	return c.JSON(serializeDragable(dragable))
}

func (dc *DragableController) CreateDragable(c *fiber.Ctx) error {
	user := principal(c)

	var input struct {
		Hash        string `json:"hash" validate:"required,max=128"`
		URL         string `json:"url" validate:"required"`
		XPath       string `json:"xpath" validate:"required"`
		Team        string `json:"team" validate:"required"`
		Title       string `json:"title"`
		Text        string `json:"text"`
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

	var team models.Team
	if err := dc.DB.Preload("Members").Where("name = ?", input.Team).First(&team).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown team",
		})
	}

	if !policy.IsTeamMember(user, &team) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not a member of this team",
		})
	}

	dragable := models.Dragable{
		Hash:        input.Hash,
		CreatedByID: user.ID,
		TeamID:      team.ID,
		URL:         input.URL,
		XPath:       input.XPath,
		Title:       input.Title,
		Text:        input.Text,
	}

	if input.ConnectedTo != "" {
		target, err := dc.connectionTarget(input.ConnectedTo, team.ID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		dragable.ConnectedToID = &target.ID
		dragable.ConnectedTo = target
	}

	// A duplicate hash trips the unique constraint; collapse store errors
	// into one client error so concurrent creates fail cleanly.
	if err := dc.DB.Create(&dragable).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Could not create dragable",
		})
	}

	dragable.CreatedBy = *user
	dragable.Team = team

	return c.Status(fiber.StatusCreated).JSON(serializeDragable(&dragable))
}

// connectionTarget resolves a connected_to hash, applying the same-team rule
// when it is switched on.
func (dc *DragableController) connectionTarget(hash string, teamID uint) (*models.Dragable, error) {
	var target models.Dragable
	if err := dc.DB.Where("hash = ?", hash).First(&target).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Unknown connected dragable")
	}
	if config.AppConfig.EnforceSameTeamConnections && target.TeamID != teamID {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Connected dragable belongs to a different team")
	}
	return &target, nil
}

func (dc *DragableController) UpdateDragable(c *fiber.Ctx) error {
	user := principal(c)

	dragable, err := dc.dragableByHash(c.Params("hash"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown dragable",
		})
	}

	if !policy.CanMutateDragable(user, dragable) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not allowed to modify this dragable",
		})
	}

	var input struct {
		Team        *string `json:"team"`
		URL         *string `json:"url"`
		XPath       *string `json:"xpath"`
		Title       *string `json:"title"`
		Text        *string `json:"text"`
		ConnectedTo *string `json:"connected_to"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Team != nil {
		var team models.Team
		if err := dc.DB.Preload("Members").Where("name = ?", *input.Team).First(&team).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown team",
			})
		}
		// Reassignment must target a team the caller belongs to.
		if !policy.IsTeamMember(user, &team) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Not a member of the target team",
			})
		}
		dragable.TeamID = team.ID
		dragable.Team = team
	}

	if input.ConnectedTo != nil {
		target, err := dc.connectionTarget(*input.ConnectedTo, dragable.TeamID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		dragable.ConnectedToID = &target.ID
		dragable.ConnectedTo = target
	}

	if input.URL != nil {
		dragable.URL = *input.URL
	}
	if input.XPath != nil {
		dragable.XPath = *input.XPath
	}
	if input.Title != nil {
		dragable.Title = *input.Title
	}
	if input.Text != nil {
		dragable.Text = *input.Text
	}

	if err := dc.DB.Save(dragable).Error; err != nil {
		dc.Logger.Printf("Failed to update dragable %q: %v", dragable.Hash, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update dragable",
		})
	}

	return c.JSON(serializeDragable(dragable))
}

// DeleteDragable removes a dragable, its annotations, and any references
// pointing at it from other dragables or connection annotations.
func (dc *DragableController) DeleteDragable(c *fiber.Ctx) error {
	user := principal(c)

	dragable, err := dc.dragableByHash(c.Params("hash"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown dragable",
		})
	}

	if !policy.CanMutateDragable(user, dragable) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Not allowed to delete this dragable",
		})
	}

	err = dc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dragable_id = ? OR connected_dragable_id = ?",
			dragable.ID, dragable.ID).Delete(&models.Annotation{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Dragable{}).Where("connected_to_id = ?", dragable.ID).
			Update("connected_to_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(dragable).Error
	})
	if err != nil {
		dc.Logger.Printf("Failed to delete dragable %q: %v", dragable.Hash, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete dragable",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
