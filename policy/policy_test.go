package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"minddrag/models"
)

func user(id uint) *models.User {
	return &models.User{Model: gorm.Model{ID: id}}
}

func TestIsTeamMember(t *testing.T) {
	team := &models.Team{
		CreatedByID: 1,
		Members:     []models.User{*user(1), *user(2)},
	}

	assert.True(t, IsTeamMember(user(1), team), "owner is a member")
	assert.True(t, IsTeamMember(user(2), team))
	assert.False(t, IsTeamMember(user(3), team))
	assert.False(t, IsTeamMember(nil, team), "anonymous is never a member")
}

func TestIsTeamMemberOwnerWithoutJoinRow(t *testing.T) {
	// The owner counts even when the membership rows are not loaded.
	team := &models.Team{CreatedByID: 7}
	assert.True(t, IsTeamMember(user(7), team))
}

func TestCanViewTeam(t *testing.T) {
	public := &models.Team{CreatedByID: 1, Public: true}
	private := &models.Team{
		CreatedByID: 1,
		Public:      false,
		Members:     []models.User{*user(1), *user(2)},
	}

	assert.True(t, CanViewTeam(nil, public))
	assert.True(t, CanViewTeam(user(3), public))
	assert.False(t, CanViewTeam(nil, private))
	assert.False(t, CanViewTeam(user(3), private))
	assert.True(t, CanViewTeam(user(2), private))
	assert.True(t, CanViewTeam(user(1), private))
}

func TestCanMutateTeam(t *testing.T) {
	team := &models.Team{
		CreatedByID: 1,
		Members:     []models.User{*user(1), *user(2)},
	}

	assert.True(t, CanMutateTeam(user(1), team))
	assert.False(t, CanMutateTeam(user(2), team), "membership alone does not allow team mutation")
	assert.False(t, CanMutateTeam(user(3), team))
	assert.False(t, CanMutateTeam(nil, team))
}

func TestCanViewDragable(t *testing.T) {
	d := &models.Dragable{
		CreatedByID: 1,
		Team: models.Team{
			CreatedByID: 1,
			Public:      true, // public team does not open up its dragables
			Members:     []models.User{*user(1), *user(2)},
		},
	}

	assert.True(t, CanViewDragable(user(1), d))
	assert.True(t, CanViewDragable(user(2), d))
	assert.False(t, CanViewDragable(user(3), d), "no public bypass for dragables")
	assert.False(t, CanViewDragable(nil, d))
}

func TestCanMutateDragable(t *testing.T) {
	d := &models.Dragable{
		CreatedByID: 3, // creator has since left the team
		Team: models.Team{
			CreatedByID: 1,
			Members:     []models.User{*user(1), *user(2)},
		},
	}

	assert.True(t, CanMutateDragable(user(3), d), "creator may always mutate")
	assert.True(t, CanMutateDragable(user(2), d), "any team member may mutate")
	assert.True(t, CanMutateDragable(user(1), d))
	assert.False(t, CanMutateDragable(user(4), d))
	assert.False(t, CanMutateDragable(nil, d))
}

func TestCanViewAnnotation(t *testing.T) {
	a := &models.Annotation{
		CreatedByID: 2,
		Dragable: models.Dragable{
			CreatedByID: 2,
			Team: models.Team{
				CreatedByID: 1,
				Members:     []models.User{*user(1), *user(2)},
			},
		},
	}

	assert.True(t, CanViewAnnotation(user(1), a))
	assert.True(t, CanViewAnnotation(user(2), a))
	assert.False(t, CanViewAnnotation(user(3), a))
	assert.False(t, CanViewAnnotation(nil, a))
}
