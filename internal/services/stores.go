package services

import (
	"context"
	"time"

	"group-actions-backend/internal/models"
)

// The store interfaces decouple the services from the pgx-backed
// repositories so tests can run against in-memory fakes. The
// repository package provides the production implementations.

// UserStore persists user accounts
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// GroupStore persists groups, settings, memberships and tags
type GroupStore interface {
	CreateWithOwner(ctx context.Context, group *models.Group, setting *models.GroupSetting, owner *models.GroupUser) error
	GetByID(ctx context.Context, id int64) (*models.Group, error)
	GetByCode(ctx context.Context, code string) (*models.Group, error)
	ListPublic(ctx context.Context) ([]*models.Group, error)
	ListByMember(ctx context.Context, userID int64) ([]*models.Group, error)
	Update(ctx context.Context, group *models.Group) error
	UpdateBanner(ctx context.Context, groupID int64, url string) error
	GetSetting(ctx context.Context, groupID int64) (*models.GroupSetting, error)
	UpdateSetting(ctx context.Context, setting *models.GroupSetting) error
	GetMembership(ctx context.Context, groupID, userID int64) (*models.GroupUser, error)
	AddMember(ctx context.Context, gu *models.GroupUser) error
	ListMembers(ctx context.Context, groupID int64) ([]*models.GroupUser, error)
}

// ActionStore persists actions, action types and completions
type ActionStore interface {
	Create(ctx context.Context, action *models.Action) error
	Get(ctx context.Context, groupID, actionID int64) (*models.Action, error)
	ListOpen(ctx context.Context, groupID int64, endedSince time.Time) ([]*models.Action, error)
	Update(ctx context.Context, action *models.Action) error
	SoftDelete(ctx context.Context, actionID int64, at time.Time) error
	MarkComplete(ctx context.Context, actionID, userID int64) error
	EarnedPoints(ctx context.Context, groupID, userID int64) (int, error)
	GetActionType(ctx context.Context, id int64) (*models.ActionType, error)
	ListActionTypes(ctx context.Context) ([]*models.ActionType, error)
}

// BannerStore persists group banner images and returns the public URL
type BannerStore interface {
	Store(ctx context.Context, groupID int64, ext string, data []byte) (string, error)
}
