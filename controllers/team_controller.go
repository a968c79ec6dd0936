package controller

import (
	"errors"
	"log"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"minddrag/models"
	"minddrag/policy"
	"minddrag/utils"
)

type TeamController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewTeamController(db *gorm.DB, logger *log.Logger) *TeamController {
	return &TeamController{DB: db, Logger: logger}
}

// teamByName loads a team with its owner and members. Returns
// gorm.ErrRecordNotFound when no team has that name.
func (tc *TeamController) teamByName(name string) (*models.Team, error) {
	var team models.Team
	err := tc.DB.Preload("CreatedBy").Preload("Members").
		Where("name = ?", name).First(&team).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// nameParam returns the :name route parameter, path-unescaped so team names
// with spaces round-trip.
func nameParam(c *fiber.Ctx) string {
	name := c.Params("name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}

// ListTeams returns every team, to anonymous and authenticated callers alike.
// Teams are discoverable but not enterable: the listing is unfiltered and only
// the password is withheld by projection.
func (tc *TeamController) ListTeams(c *fiber.Ctx) error {
	var teams []models.Team
	if err := tc.DB.Preload("CreatedBy").Preload("Members").Find(&teams).Error; err != nil {
		tc.Logger.Printf("Failed to list teams: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch teams",
		})
	}

	return c.JSON(serializeTeams(teams, principal(c) != nil))
}

// GetTeam returns the named team as a single-element list, or an empty list
// when the name is unknown. A name lookup is filter semantics, not a key
// lookup.
func (tc *TeamController) GetTeam(c *fiber.Ctx) error {
	team, err := tc.teamByName(nameParam(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON([]TeamResponse{})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch team",
		})
	}

	return c.JSON([]TeamResponse{serializeTeam(team, principal(c) != nil)})
}

func (tc *TeamController) CreateTeam(c *fiber.Ctx) error {
	user := principal(c)

	var input struct {
		Name        string `json:"name" validate:"required,max=64"`
		Description string `json:"description"`
		Password    string `json:"password"`
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

	var existing models.Team
	if err := tc.DB.Where("name = ?", input.Name).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A team with that name already exists",
		})
	}

	team := models.Team{
		Name:        input.Name,
		Description: input.Description,
		CreatedByID: user.ID,
		Public:      true,
	}

	// A non-blank password makes the team private.
	if !utils.IsBlank(input.Password) {
		hashed, err := utils.HashPassword(input.Password)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to hash password",
			})
		}
		team.Public = false
		team.Password = hashed
	}

	// Team row and owner membership commit together or not at all.
	err := tc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		return tx.Model(&team).Association("Members").Append(user)
	})
	if err != nil {
		// The unique constraint is the serialization point for concurrent
		// creates: the racing loser gets the same answer as a plain duplicate.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A team with that name already exists",
			})
		}
		tc.Logger.Printf("Failed to create team %q: %v", input.Name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create team",
		})
	}

	team.CreatedBy = *user
	team.Members = []models.User{*user}

	return c.Status(fiber.StatusCreated).JSON(serializeTeam(&team, true))
}

func (tc *TeamController) UpdateTeam(c *fiber.Ctx) error {
	user := principal(c)

	team, err := tc.teamByName(nameParam(c))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown team",
		})
	}

	if !policy.CanMutateTeam(user, team) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the team owner may modify a team",
		})
	}

	var input struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Password    *string `json:"password"`
	}

	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Name != nil && *input.Name != team.Name {
		if utils.IsBlank(*input.Name) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Team name must not be blank",
			})
		}
		var existing models.Team
		if err := tc.DB.Where("name = ?", *input.Name).First(&existing).Error; err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A team with that name already exists",
			})
		}
		team.Name = *input.Name
	}

	if input.Description != nil {
		team.Description = *input.Description
	}

	// A non-blank password flips the team private. A blank one changes
	// nothing; teams do not silently become public again.
	if input.Password != nil && !utils.IsBlank(*input.Password) {
		hashed, err := utils.HashPassword(*input.Password)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to hash password",
			})
		}
		team.Public = false
		team.Password = hashed
	}

	if err := tc.DB.Save(team).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A team with that name already exists",
			})
		}
		tc.Logger.Printf("Failed to update team %q: %v", team.Name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update team",
		})
	}

	return c.JSON(serializeTeam(team, true))
}

// DeleteTeam removes a team and cascades to its dragables and their
// annotations. Orphaned dragables would be invisible to everyone, so they go
// with the team.
func (tc *TeamController) DeleteTeam(c *fiber.Ctx) error {
	user := principal(c)

	team, err := tc.teamByName(nameParam(c))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown team",
		})
	}

	if !policy.CanMutateTeam(user, team) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the team owner may delete a team",
		})
	}

	err = tc.DB.Transaction(func(tx *gorm.DB) error {
		var dragableIDs []uint
		if err := tx.Model(&models.Dragable{}).Where("team_id = ?", team.ID).
			Pluck("id", &dragableIDs).Error; err != nil {
			return err
		}

		if len(dragableIDs) > 0 {
			if err := tx.Where("dragable_id IN ? OR connected_dragable_id IN ?",
				dragableIDs, dragableIDs).Delete(&models.Annotation{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Dragable{}).Where("connected_to_id IN ?", dragableIDs).
				Update("connected_to_id", nil).Error; err != nil {
				return err
			}
			if err := tx.Where("team_id = ?", team.ID).Delete(&models.Dragable{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(team).Association("Members").Clear(); err != nil {
			return err
		}
		return tx.Delete(team).Error
	})
	if err != nil {
		tc.Logger.Printf("Failed to delete team %q: %v", team.Name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete team",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// JoinTeam adds the caller to a team's membership. Public teams are open;
// private teams require the join password.
func (tc *TeamController) JoinTeam(c *fiber.Ctx) error {
	user := principal(c)

	team, err := tc.teamByName(nameParam(c))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown team",
		})
	}

	if policy.IsTeamMember(user, team) {
		return c.JSON(serializeTeam(team, true))
	}

	if !team.Public {
		var input struct {
			Password string `json:"password"`
		}
		if err := c.BodyParser(&input); err != nil || !utils.CheckPassword(team.Password, input.Password) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Wrong team password",
			})
		}
	}

	if err := tc.DB.Model(team).Association("Members").Append(user); err != nil {
		tc.Logger.Printf("Failed to add %q to team %q: %v", user.Username, team.Name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to join team",
		})
	}

	team.Members = append(team.Members, *user)
	return c.JSON(serializeTeam(team, true))
}

// LeaveTeam removes the caller from a team's membership. The owner cannot
// leave; a team always has its owner as a member.
func (tc *TeamController) LeaveTeam(c *fiber.Ctx) error {
	user := principal(c)

	team, err := tc.teamByName(nameParam(c))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown team",
		})
	}

	if team.CreatedByID == user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "The team owner cannot leave the team",
		})
	}

	if !policy.IsTeamMember(user, team) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Not a member of this team",
		})
	}

	if err := tc.DB.Model(team).Association("Members").Delete(user); err != nil {
		tc.Logger.Printf("Failed to remove %q from team %q: %v", user.Username, team.Name, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to leave team",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
