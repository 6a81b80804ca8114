package services

import "group-actions-backend/internal/models"

// Decision is the outcome of an authorization check
type Decision int

const (
	// Allow permits the operation
	Allow Decision = iota
	// DenyUnauthenticated rejects because no valid caller identity was presented
	DenyUnauthenticated
	// DenyForbidden rejects because the caller lacks the required rights
	DenyForbidden
)

// isActiveMember reports whether a membership row counts as membership.
// Banned members do not count.
func isActiveMember(m *models.GroupUser) bool {
	return m != nil && !m.Banned
}

// CanViewGroup decides whether the caller may see a group's details.
// Public groups are visible to everyone. Private groups require an
// authenticated caller with a membership row.
func CanViewGroup(group *models.Group, authenticated bool, membership *models.GroupUser) Decision {
	if !group.Private {
		return Allow
	}
	if !authenticated {
		return DenyUnauthenticated
	}
	if isActiveMember(membership) {
		return Allow
	}
	return DenyForbidden
}

// CanViewGroupActions decides whether the caller may list a group's
// actions. Same rule as viewing the group itself.
func CanViewGroupActions(group *models.Group, authenticated bool, membership *models.GroupUser) Decision {
	return CanViewGroup(group, authenticated, membership)
}

// CanCreateAction decides whether a member may post an action to the
// group. Allowed with the submit_action flag, or when the group opens
// member actions and the member has earned at least the configured
// point level on the group's actions. No membership row denies.
func CanCreateAction(membership *models.GroupUser, setting *models.GroupSetting, earnedPoints int) Decision {
	if !isActiveMember(membership) {
		return DenyForbidden
	}
	if membership.SubmitAction {
		return Allow
	}
	if setting != nil && setting.AllowMemberAction && earnedPoints >= setting.MemberActionLevel {
		return Allow
	}
	return DenyForbidden
}

// CanModifyGroupSettings decides whether a member may update the group
// and its settings
func CanModifyGroupSettings(membership *models.GroupUser) Decision {
	if isActiveMember(membership) && membership.AdminSettings {
		return Allow
	}
	return DenyForbidden
}

// CanModifyAction decides whether the caller may update or delete an
// action: its creator, or a member with mod_actions on the owning group
func CanModifyAction(action *models.Action, userID int64, membership *models.GroupUser) Decision {
	if action.CreatedByUserID == userID {
		return Allow
	}
	if isActiveMember(membership) && membership.ModActions {
		return Allow
	}
	return DenyForbidden
}
