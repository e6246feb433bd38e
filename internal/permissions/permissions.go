// Package permissions implements the role-based permission model for groups.
// It is pure: callers fetch the membership record and persist any outcome.
package permissions

import "time"

// Role is a member's role within a group.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

// Rank maps a role to its position in the hierarchy. Unknown roles rank
// below member so they never pass a threshold check.
func (r Role) Rank() int {
	switch r {
	case RoleOwner:
		return 4
	case RoleAdmin:
		return 3
	case RoleModerator:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.Rank() > 0
}

// Action is a gated group operation. The set is closed; adding an action
// forces a decision in Evaluate.
type Action int

const (
	// DeleteGroup destroys the group. Owner only.
	DeleteGroup Action = iota
	// UpdateSettings changes the group's name, icon or description.
	UpdateSettings
	// ManageMembers covers kicking, banning and inviting members.
	ManageMembers
	// ModerateContent removes other members' items, notes and polls.
	ModerateContent
	// ModifyOwnResource edits a resource; moderators may edit anyone's.
	ModifyOwnResource
	// CreateAndView covers creating content and reading the group.
	CreateAndView
)

// Membership is the caller-fetched membership record the evaluator runs
// against. UserID is the string form of the member's id.
type Membership struct {
	UserID   string
	Role     Role
	JoinedAt time.Time
}

// Evaluate decides whether the member may perform action. A nil membership
// (user not in the group) always denies, owners always pass, and anything
// unrecognized fails closed. resourceAuthorID is consulted only for
// ModifyOwnResource; pass "" when there is no resource author.
func Evaluate(m *Membership, action Action, resourceAuthorID string) bool {
	if m == nil {
		return false
	}

	rank := m.Role.Rank()
	if m.Role == RoleOwner {
		return true
	}

	switch action {
	case DeleteGroup:
		return false
	case UpdateSettings, ManageMembers:
		return rank >= RoleAdmin.Rank()
	case ModerateContent:
		return rank >= RoleModerator.Rank()
	case ModifyOwnResource:
		if rank >= RoleModerator.Rank() {
			return true
		}
		if resourceAuthorID == "" {
			return false
		}
		return resourceAuthorID == m.UserID
	case CreateAndView:
		return true
	default:
		return false
	}
}

// CanManageTarget reports whether actor outranks target. Equal ranks deny,
// so peers cannot demote or kick each other.
func CanManageTarget(actor, target Membership) bool {
	return actor.Role.Rank() > target.Role.Rank()
}
