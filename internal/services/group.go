package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"

	"group-actions-backend/internal/apperr"
	"group-actions-backend/internal/models"
)

const (
	groupCodeLength = 9
	groupCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// codeMaxAttempts bounds the regenerate-on-conflict loop backed by
	// the unique index on groups.group_code
	codeMaxAttempts = 10
)

// GroupService handles group-related business logic
type GroupService struct {
	groups  GroupStore
	banners BannerStore
}

// NewGroupService creates a new group service
func NewGroupService(groups GroupStore, banners BannerStore) *GroupService {
	return &GroupService{
		groups:  groups,
		banners: banners,
	}
}

// BannerUpload is an uploaded banner image file
type BannerUpload struct {
	Filename string
	Data     []byte
}

// ext returns the lower-cased file extension of the upload
func (b *BannerUpload) ext() string {
	return strings.ToLower(filepath.Ext(b.Filename))
}

func validateBannerExt(b *BannerUpload) error {
	if ext := b.ext(); ext != ".jpg" && ext != ".png" {
		return apperr.New(apperr.Validation, "Only jpg/png are acceptable")
	}
	return nil
}

// CreateGroupInput carries the fields for group creation
type CreateGroupInput struct {
	Name        string
	Description string
	Welcome     string
	Private     bool
	Latitude    *float64
	Longitude   *float64
	Tags        []string
	Banner      *BannerUpload
}

// CreateGroup creates a group together with its setting row (member
// actions closed), the creator's all-permission membership and a
// unique group code, atomically. The banner image, if any, is stored
// after the rows are committed; a banner failure leaves the group
// standing without a banner and is surfaced to the caller.
func (s *GroupService) CreateGroup(ctx context.Context, userID int64, in CreateGroupInput) (*models.Group, error) {
	if in.Name == "" {
		return nil, apperr.New(apperr.Validation, "name is required")
	}
	if in.Banner != nil {
		if err := validateBannerExt(in.Banner); err != nil {
			return nil, err
		}
	}

	group := &models.Group{
		Name:            in.Name,
		Description:     in.Description,
		Welcome:         in.Welcome,
		Private:         in.Private,
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
		CreatedByUserID: userID,
		Tags:            in.Tags,
	}
	setting := &models.GroupSetting{
		AllowMemberAction: false,
		MemberActionLevel: 0,
	}
	owner := &models.GroupUser{
		UserID:        userID,
		AdminSettings: true,
		AdminMembers:  true,
		ModActions:    true,
		ModComments:   true,
		SubmitAction:  true,
	}

	var err error
	for attempt := 0; attempt < codeMaxAttempts; attempt++ {
		group.GroupCode = generateGroupCode()
		err = s.groups.CreateWithOwner(ctx, group, setting, owner)
		if err == nil {
			break
		}
		if apperr.KindOf(err) != apperr.Conflict {
			return nil, err
		}
		// Code collision, regenerate and retry
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal,
			fmt.Sprintf("failed to generate a unique group code after %d attempts", codeMaxAttempts), err)
	}

	if in.Banner != nil {
		url, err := s.banners.Store(ctx, group.GroupID, in.Banner.ext(), in.Banner.Data)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "Upload failed", err)
		}
		if err := s.groups.UpdateBanner(ctx, group.GroupID, url); err != nil {
			return nil, err
		}
		group.BannerImageFile = &url
	}

	return group, nil
}

// generateGroupCode generates a random alphanumeric group code
func generateGroupCode() string {
	code := make([]byte, groupCodeLength)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(groupCodeChars))))
		code[i] = groupCodeChars[n.Int64()]
	}
	return string(code)
}

// ListGroups returns the public set narrowed by the filter, unioned
// with the caller's member groups when a caller is present
func (s *GroupService) ListGroups(ctx context.Context, filter GroupFilter, callerID *int64) ([]*models.Group, error) {
	public, err := s.groups.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	filtered := FilterPublicGroups(public, filter)

	if callerID == nil {
		return filtered, nil
	}
	member, err := s.groups.ListByMember(ctx, *callerID)
	if err != nil {
		return nil, err
	}
	return MergeMemberGroups(filtered, member), nil
}

// GetGroup returns a group if the caller may view it. Private groups
// deny anonymous callers with Unauthenticated and non-members with
// Forbidden.
func (s *GroupService) GetGroup(ctx context.Context, groupID int64, callerID *int64) (*models.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	membership := s.membershipOrNil(ctx, groupID, callerID)
	switch CanViewGroup(group, callerID != nil, membership) {
	case DenyUnauthenticated:
		return nil, apperr.New(apperr.Unauthenticated, "You are not allowed to access private group")
	case DenyForbidden:
		return nil, apperr.New(apperr.Forbidden, "You are not member of this group")
	}
	return group, nil
}

// GetGroupByCode returns a group by its share code, privacy-gated the
// same way as GetGroup
func (s *GroupService) GetGroupByCode(ctx context.Context, code string, callerID *int64) (*models.Group, error) {
	group, err := s.groups.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	membership := s.membershipOrNil(ctx, group.GroupID, callerID)
	switch CanViewGroup(group, callerID != nil, membership) {
	case DenyUnauthenticated:
		return nil, apperr.New(apperr.Unauthenticated, "You are not allowed to access private group")
	case DenyForbidden:
		return nil, apperr.New(apperr.Forbidden, "You are not member of this group")
	}
	return group, nil
}

func (s *GroupService) membershipOrNil(ctx context.Context, groupID int64, callerID *int64) *models.GroupUser {
	if callerID == nil {
		return nil
	}
	membership, err := s.groups.GetMembership(ctx, groupID, *callerID)
	if err != nil {
		return nil
	}
	return membership
}

// UpdateGroupInput carries the partial-update fields. Nil pointers
// leave the stored value unchanged.
type UpdateGroupInput struct {
	Name        *string
	Description *string
	Welcome     *string
	Private     *bool
	Latitude    *float64
	Longitude   *float64
	Banner      *BannerUpload

	// Setting fields, persisted on the group_settings row
	AllowMemberAction *bool
	MemberActionLevel *int
}

// UpdateGroup applies a partial update to a group and its setting.
// Requires the caller's membership to carry admin_settings.
func (s *GroupService) UpdateGroup(ctx context.Context, groupID, userID int64, in UpdateGroupInput) (*models.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	membership, err := s.groups.GetMembership(ctx, groupID, userID)
	if err != nil && apperr.KindOf(err) != apperr.NotFound {
		return nil, err
	}
	if CanModifyGroupSettings(membership) != Allow {
		return nil, apperr.New(apperr.Forbidden, "Sorry, You don't have permission to update the group")
	}
	if in.Banner != nil {
		if err := validateBannerExt(in.Banner); err != nil {
			return nil, err
		}
	}

	if in.Name != nil {
		group.Name = *in.Name
	}
	if in.Description != nil {
		group.Description = *in.Description
	}
	if in.Welcome != nil {
		group.Welcome = *in.Welcome
	}
	if in.Private != nil {
		group.Private = *in.Private
	}
	if in.Latitude != nil {
		group.Latitude = in.Latitude
	}
	if in.Longitude != nil {
		group.Longitude = in.Longitude
	}
	if err := s.groups.Update(ctx, group); err != nil {
		return nil, err
	}

	if in.Banner != nil {
		url, err := s.banners.Store(ctx, group.GroupID, in.Banner.ext(), in.Banner.Data)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "Upload failed", err)
		}
		if err := s.groups.UpdateBanner(ctx, group.GroupID, url); err != nil {
			return nil, err
		}
		group.BannerImageFile = &url
	}

	if in.AllowMemberAction != nil || in.MemberActionLevel != nil {
		setting, err := s.groups.GetSetting(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if in.AllowMemberAction != nil {
			setting.AllowMemberAction = *in.AllowMemberAction
		}
		if in.MemberActionLevel != nil {
			setting.MemberActionLevel = *in.MemberActionLevel
		}
		if err := s.groups.UpdateSetting(ctx, setting); err != nil {
			return nil, err
		}
		group.Setting = setting
	}

	return group, nil
}

// JoinGroup adds the caller to a group as a plain member, all
// permission flags off. Joining a private group requires its share
// code.
func (s *GroupService) JoinGroup(ctx context.Context, groupID, userID int64, groupCode string) (*models.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Private && groupCode != group.GroupCode {
		return nil, apperr.New(apperr.Forbidden, "group code is required to join a private group")
	}

	gu := &models.GroupUser{
		GroupID: groupID,
		UserID:  userID,
	}
	if err := s.groups.AddMember(ctx, gu); err != nil {
		return nil, err
	}
	return group, nil
}

// ListMembers returns the membership rows of a group the caller may
// view
func (s *GroupService) ListMembers(ctx context.Context, groupID, userID int64) ([]*models.GroupUser, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	membership := s.membershipOrNil(ctx, groupID, &userID)
	if CanViewGroup(group, true, membership) != Allow {
		return nil, apperr.New(apperr.Forbidden, "You are not member of this group")
	}
	return s.groups.ListMembers(ctx, groupID)
}
