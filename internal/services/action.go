package services

import (
	"context"
	"time"

	"group-actions-backend/internal/apperr"
	"group-actions-backend/internal/models"
)

const (
	// defaultActionDuration is applied when end_at is not supplied
	defaultActionDuration = 7 * 24 * time.Hour

	// openGraceMonths keeps recently-ended actions in the open listing
	openGraceMonths = 2
)

// ActionService handles action-related business logic
type ActionService struct {
	actions ActionStore
	groups  GroupStore
	now     func() time.Time
}

// NewActionService creates a new action service
func NewActionService(actions ActionStore, groups GroupStore) *ActionService {
	return &ActionService{
		actions: actions,
		groups:  groups,
		now:     time.Now,
	}
}

// CreateActionInput carries the fields for action creation. StartAt,
// EndAt and Points default per the lifecycle rules when absent.
type CreateActionInput struct {
	Title        string
	Subtitle     string
	Description  string
	ThanksMsg    string
	ActionTypeID int64
	Points       int
	StartAt      *time.Time
	EndAt        *time.Time
}

// applyActionDefaults validates the date range and fills the creation
// defaults, in order: reject start_at > end_at; reject an end_at that
// is already past when start_at is absent; default start_at to now;
// default end_at to start_at + 7 days; default points from the action
// type.
func applyActionDefaults(in CreateActionInput, actionType *models.ActionType, now time.Time) (start, end time.Time, points int, err error) {
	if in.StartAt != nil && in.EndAt != nil && in.StartAt.After(*in.EndAt) {
		return start, end, 0, apperr.New(apperr.Validation, "EndDate cannot be earlier than StartDate")
	}
	if in.StartAt == nil && in.EndAt != nil && in.EndAt.Before(now) {
		return start, end, 0, apperr.New(apperr.Validation, "EndDate cannot be earlier than StartDate")
	}

	start = now
	if in.StartAt != nil {
		start = *in.StartAt
	}
	end = start.Add(defaultActionDuration)
	if in.EndAt != nil {
		end = *in.EndAt
	}
	points = in.Points
	if points == 0 {
		points = actionType.DefaultPoints
	}
	return start, end, points, nil
}

// openCutoff is the oldest end_at still considered open
func (s *ActionService) openCutoff() time.Time {
	return s.now().AddDate(0, -openGraceMonths, 0)
}

// ListGroupActions returns the open actions of a group the caller may
// view: ended within the last two months or still running, and not
// deleted
func (s *ActionService) ListGroupActions(ctx context.Context, groupID, userID int64) ([]*models.Action, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	membership := s.membershipOrNil(ctx, groupID, userID)
	if CanViewGroupActions(group, true, membership) != Allow {
		return nil, apperr.New(apperr.Forbidden, "You are not member of this group")
	}
	return s.actions.ListOpen(ctx, groupID, s.openCutoff())
}

// CreateAction creates a new action in a group. The caller must hold
// submit_action, or clear the member-action point threshold when the
// group allows member actions. group_id and created_by_user_id are
// stamped server-side.
func (s *ActionService) CreateAction(ctx context.Context, groupID, userID int64, in CreateActionInput) (*models.Action, error) {
	if in.Title == "" || in.Subtitle == "" || in.Description == "" || in.ThanksMsg == "" || in.ActionTypeID == 0 {
		return nil, apperr.New(apperr.Validation, "title, subtitle, description, thanks_msg and action_type_id are required")
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	actionType, err := s.actions.GetActionType(ctx, in.ActionTypeID)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return nil, apperr.New(apperr.Validation, "unknown action_type_id")
		}
		return nil, err
	}

	membership := s.membershipOrNil(ctx, groupID, userID)
	if membership == nil {
		return nil, apperr.New(apperr.Forbidden, "You are not member of this group")
	}
	setting, err := s.groups.GetSetting(ctx, groupID)
	if err != nil {
		return nil, err
	}
	earned := 0
	if setting.AllowMemberAction {
		earned, err = s.actions.EarnedPoints(ctx, groupID, userID)
		if err != nil {
			return nil, err
		}
	}
	if CanCreateAction(membership, setting, earned) != Allow {
		return nil, apperr.New(apperr.Forbidden, "Sorry, You don't have permission to create actions for this group")
	}

	start, end, points, err := applyActionDefaults(in, actionType, s.now())
	if err != nil {
		return nil, err
	}

	action := &models.Action{
		GroupID:         group.GroupID,
		Title:           in.Title,
		Subtitle:        in.Subtitle,
		Description:     in.Description,
		ThanksMsg:       in.ThanksMsg,
		ActionTypeID:    actionType.ActionTypeID,
		Points:          points,
		StartAt:         start,
		EndAt:           end,
		CreatedByUserID: userID,
	}
	if err := s.actions.Create(ctx, action); err != nil {
		return nil, err
	}
	return action, nil
}

// GetAction returns a single non-deleted action of a group the caller
// may view
func (s *ActionService) GetAction(ctx context.Context, groupID, actionID, userID int64) (*models.Action, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	membership := s.membershipOrNil(ctx, groupID, userID)
	if CanViewGroupActions(group, true, membership) != Allow {
		return nil, apperr.New(apperr.Forbidden, "You are not member of this group")
	}
	return s.actions.Get(ctx, groupID, actionID)
}

// UpdateActionInput carries the partial-update fields for an action
type UpdateActionInput struct {
	Title       *string
	Subtitle    *string
	Description *string
	ThanksMsg   *string
	Points      *int
	StartAt     *time.Time
	EndAt       *time.Time
}

// UpdateAction applies a partial update to an action. Allowed for the
// action's creator or a member with mod_actions.
func (s *ActionService) UpdateAction(ctx context.Context, groupID, actionID, userID int64, in UpdateActionInput) (*models.Action, error) {
	action, err := s.actions.Get(ctx, groupID, actionID)
	if err != nil {
		return nil, err
	}
	membership := s.membershipOrNil(ctx, groupID, userID)
	if CanModifyAction(action, userID, membership) != Allow {
		return nil, apperr.New(apperr.Forbidden, "Sorry, You don't have permission to modify this action")
	}

	if in.Title != nil {
		action.Title = *in.Title
	}
	if in.Subtitle != nil {
		action.Subtitle = *in.Subtitle
	}
	if in.Description != nil {
		action.Description = *in.Description
	}
	if in.ThanksMsg != nil {
		action.ThanksMsg = *in.ThanksMsg
	}
	if in.Points != nil {
		action.Points = *in.Points
	}
	if in.StartAt != nil {
		action.StartAt = *in.StartAt
	}
	if in.EndAt != nil {
		action.EndAt = *in.EndAt
	}
	if action.StartAt.After(action.EndAt) {
		return nil, apperr.New(apperr.Validation, "EndDate cannot be earlier than StartDate")
	}

	if err := s.actions.Update(ctx, action); err != nil {
		return nil, err
	}
	return action, nil
}

// DeleteAction soft-deletes an action. Allowed for the action's
// creator or a member with mod_actions.
func (s *ActionService) DeleteAction(ctx context.Context, groupID, actionID, userID int64) (*models.Action, error) {
	action, err := s.actions.Get(ctx, groupID, actionID)
	if err != nil {
		return nil, err
	}
	membership := s.membershipOrNil(ctx, groupID, userID)
	if CanModifyAction(action, userID, membership) != Allow {
		return nil, apperr.New(apperr.Forbidden, "Sorry, You don't have permission to modify this action")
	}
	if err := s.actions.SoftDelete(ctx, actionID, s.now()); err != nil {
		return nil, err
	}
	return action, nil
}

// CompleteAction records the caller's completion of an action. One
// completion per (action, user); a repeat is a conflict.
func (s *ActionService) CompleteAction(ctx context.Context, groupID, actionID, userID int64) error {
	membership := s.membershipOrNil(ctx, groupID, userID)
	if !isActiveMember(membership) {
		return apperr.New(apperr.Forbidden, "You are not member of this group")
	}
	action, err := s.actions.Get(ctx, groupID, actionID)
	if err != nil {
		return err
	}
	return s.actions.MarkComplete(ctx, action.ActionID, userID)
}

// ListActionTypes returns all supported action types
func (s *ActionService) ListActionTypes(ctx context.Context) ([]*models.ActionType, error) {
	return s.actions.ListActionTypes(ctx)
}

func (s *ActionService) membershipOrNil(ctx context.Context, groupID, userID int64) *models.GroupUser {
	membership, err := s.groups.GetMembership(ctx, groupID, userID)
	if err != nil {
		return nil
	}
	return membership
}
