// Package policy decides who may see and change what. Every function is a pure
// predicate over a principal and a resource; callers load the resource (with
// its membership relations) and check existence first, so that an unknown
// resource surfaces as a client input error rather than a permission error.
package policy

import (
	"minddrag/models"
)

// IsTeamMember reports whether u is in the team's membership set. The owner
// counts as a member even if the join row is missing. A nil principal is never
// a member.
func IsTeamMember(u *models.User, team *models.Team) bool {
	if u == nil {
		return false
	}
	if team.CreatedByID == u.ID {
		return true
	}
	for _, m := range team.Members {
		if m.ID == u.ID {
			return true
		}
	}
	return false
}

// CanViewTeam reports whether u may see team. Public teams are visible to
// everyone, anonymous principals included; private teams only to members.
// The current read surface never consults it: the team listing is unfiltered
// and the dragable team filter requires full membership.
func CanViewTeam(u *models.User, team *models.Team) bool {
	if team.Public {
		return true
	}
	return IsTeamMember(u, team)
}

// CanMutateTeam reports whether u may update or delete team. Only the owner
// may; membership is not enough.
func CanMutateTeam(u *models.User, team *models.Team) bool {
	if u == nil {
		return false
	}
	return team.CreatedByID == u.ID
}

// CanViewDragable reports whether u may see d. Visibility is strictly
// team-scoped: there is no public bypass like there is for teams.
func CanViewDragable(u *models.User, d *models.Dragable) bool {
	return IsTeamMember(u, &d.Team)
}

// CanMutateDragable reports whether u may update or delete d. The creator may,
// and so may any member of the owning team. Dragables are collectively
// editable; do not confuse this with the owner-only team rule.
func CanMutateDragable(u *models.User, d *models.Dragable) bool {
	if u == nil {
		return false
	}
	if d.CreatedByID == u.ID {
		return true
	}
	return IsTeamMember(u, &d.Team)
}

// CanViewAnnotation reports whether u may see a, which is exactly whether u
// may see the dragable it annotates.
func CanViewAnnotation(u *models.User, a *models.Annotation) bool {
	return CanViewDragable(u, &a.Dragable)
}
