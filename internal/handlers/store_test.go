package handlers

import (
	"context"
	"fmt"
	"time"

	"group-actions-backend/internal/apperr"
	"group-actions-backend/internal/models"
	"group-actions-backend/internal/services"
)

// fakeStore backs the router tests with an in-memory implementation of
// the service store interfaces, mirroring the repository contracts
type fakeStore struct {
	users       map[int64]*models.User
	nextUserID  int64
	groups      map[int64]*models.Group
	settings    map[int64]*models.GroupSetting
	memberships map[[2]int64]*models.GroupUser
	nextGroupID int64

	actions      map[int64]*models.Action
	nextActionID int64
	actionTypes  map[int64]*models.ActionType
	completions  map[[2]int64]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[int64]*models.User),
		groups:       make(map[int64]*models.Group),
		settings:     make(map[int64]*models.GroupSetting),
		memberships:  make(map[[2]int64]*models.GroupUser),
		actions:      make(map[int64]*models.Action),
		actionTypes:  make(map[int64]*models.ActionType),
		completions:  make(map[[2]int64]bool),
		nextUserID:   1,
		nextGroupID:  2, // group ID 1 is reserved
		nextActionID: 1,
	}
}

// --- services.UserStore ---

func (f *fakeStore) Create(ctx context.Context, user *models.User) error {
	for _, u := range f.users {
		if u.Email == user.Email || u.Username == user.Username {
			return apperr.New(apperr.Conflict, "email or username already registered")
		}
	}
	user.UserID = f.nextUserID
	f.nextUserID++
	user.CreatedAt = time.Now()
	f.users[user.UserID] = user
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperr.New(apperr.NotFound, "user not found")
}

func (f *fakeStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "user not found")
}

func (f *fakeStore) userStore() services.UserStore { return f }

// --- services.GroupStore ---

type fakeGroupStore struct{ *fakeStore }

func (f *fakeStore) groupStore() services.GroupStore { return fakeGroupStore{f} }

func (v fakeGroupStore) CreateWithOwner(ctx context.Context, group *models.Group, setting *models.GroupSetting, owner *models.GroupUser) error {
	for _, g := range v.groups {
		if g.GroupCode == group.GroupCode {
			return apperr.New(apperr.Conflict, "group code already exists")
		}
	}
	group.GroupID = v.nextGroupID
	v.nextGroupID++
	group.CreatedAt = time.Now()
	v.groups[group.GroupID] = group

	setting.GroupID = group.GroupID
	v.settings[group.GroupID] = setting
	group.Setting = setting

	owner.GroupID = group.GroupID
	owner.CreatedAt = time.Now()
	v.memberships[[2]int64{group.GroupID, owner.UserID}] = owner
	return nil
}

func (v fakeGroupStore) GetByID(ctx context.Context, id int64) (*models.Group, error) {
	g, ok := v.groups[id]
	if !ok || g.DeletedAt != nil {
		return nil, apperr.New(apperr.NotFound, "group not found")
	}
	return g, nil
}

func (v fakeGroupStore) GetByCode(ctx context.Context, code string) (*models.Group, error) {
	for _, g := range v.groups {
		if g.GroupCode == code && g.DeletedAt == nil {
			return g, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "group not found")
}

func (v fakeGroupStore) ListPublic(ctx context.Context) ([]*models.Group, error) {
	var out []*models.Group
	for id := int64(0); id < v.nextGroupID; id++ {
		g, ok := v.groups[id]
		if !ok || g.Private || g.DeletedAt != nil || g.GroupID == 1 {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (v fakeGroupStore) ListByMember(ctx context.Context, userID int64) ([]*models.Group, error) {
	var out []*models.Group
	for id := int64(0); id < v.nextGroupID; id++ {
		g, ok := v.groups[id]
		if !ok || g.DeletedAt != nil {
			continue
		}
		gu, ok := v.memberships[[2]int64{g.GroupID, userID}]
		if ok && !gu.Banned {
			out = append(out, g)
		}
	}
	return out, nil
}

func (v fakeGroupStore) Update(ctx context.Context, group *models.Group) error {
	if _, ok := v.groups[group.GroupID]; !ok {
		return apperr.New(apperr.NotFound, "group not found")
	}
	v.groups[group.GroupID] = group
	return nil
}

func (v fakeGroupStore) UpdateBanner(ctx context.Context, groupID int64, url string) error {
	g, ok := v.groups[groupID]
	if !ok {
		return apperr.New(apperr.NotFound, "group not found")
	}
	g.BannerImageFile = &url
	return nil
}

func (v fakeGroupStore) GetSetting(ctx context.Context, groupID int64) (*models.GroupSetting, error) {
	if s, ok := v.settings[groupID]; ok {
		return s, nil
	}
	return nil, apperr.New(apperr.NotFound, "group setting not found")
}

func (v fakeGroupStore) UpdateSetting(ctx context.Context, setting *models.GroupSetting) error {
	if _, ok := v.settings[setting.GroupID]; !ok {
		return apperr.New(apperr.NotFound, "group setting not found")
	}
	v.settings[setting.GroupID] = setting
	return nil
}

func (v fakeGroupStore) GetMembership(ctx context.Context, groupID, userID int64) (*models.GroupUser, error) {
	if gu, ok := v.memberships[[2]int64{groupID, userID}]; ok {
		return gu, nil
	}
	return nil, apperr.New(apperr.NotFound, "membership not found")
}

func (v fakeGroupStore) AddMember(ctx context.Context, gu *models.GroupUser) error {
	key := [2]int64{gu.GroupID, gu.UserID}
	if _, ok := v.memberships[key]; ok {
		return apperr.New(apperr.Conflict, "user is already a member of this group")
	}
	gu.CreatedAt = time.Now()
	v.memberships[key] = gu
	return nil
}

func (v fakeGroupStore) ListMembers(ctx context.Context, groupID int64) ([]*models.GroupUser, error) {
	var out []*models.GroupUser
	for key, gu := range v.memberships {
		if key[0] == groupID {
			out = append(out, gu)
		}
	}
	return out, nil
}

// --- services.ActionStore ---

type fakeActionStore struct{ *fakeStore }

func (f *fakeStore) actionStore() services.ActionStore { return fakeActionStore{f} }

func (v fakeActionStore) Create(ctx context.Context, action *models.Action) error {
	action.ActionID = v.nextActionID
	v.nextActionID++
	action.CreatedAt = time.Now()
	v.actions[action.ActionID] = action
	return nil
}

func (v fakeActionStore) Get(ctx context.Context, groupID, actionID int64) (*models.Action, error) {
	a, ok := v.actions[actionID]
	if !ok || a.GroupID != groupID || a.DeletedAt != nil {
		return nil, apperr.New(apperr.NotFound, "action not found")
	}
	return a, nil
}

func (v fakeActionStore) ListOpen(ctx context.Context, groupID int64, endedSince time.Time) ([]*models.Action, error) {
	var out []*models.Action
	for id := int64(0); id < v.nextActionID; id++ {
		a, ok := v.actions[id]
		if !ok {
			continue
		}
		if a.GroupID == groupID && a.DeletedAt == nil && !a.EndAt.Before(endedSince) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (v fakeActionStore) Update(ctx context.Context, action *models.Action) error {
	if _, ok := v.actions[action.ActionID]; !ok {
		return apperr.New(apperr.NotFound, "action not found")
	}
	v.actions[action.ActionID] = action
	return nil
}

func (v fakeActionStore) SoftDelete(ctx context.Context, actionID int64, at time.Time) error {
	a, ok := v.actions[actionID]
	if !ok || a.DeletedAt != nil {
		return apperr.New(apperr.NotFound, "action not found")
	}
	a.DeletedAt = &at
	return nil
}

func (v fakeActionStore) MarkComplete(ctx context.Context, actionID, userID int64) error {
	key := [2]int64{actionID, userID}
	if v.completions[key] {
		return apperr.New(apperr.Conflict, "action already completed")
	}
	v.completions[key] = true
	return nil
}

func (v fakeActionStore) EarnedPoints(ctx context.Context, groupID, userID int64) (int, error) {
	total := 0
	for key := range v.completions {
		if key[1] != userID {
			continue
		}
		if a, ok := v.actions[key[0]]; ok && a.GroupID == groupID {
			total += a.Points
		}
	}
	return total, nil
}

func (v fakeActionStore) GetActionType(ctx context.Context, id int64) (*models.ActionType, error) {
	if at, ok := v.actionTypes[id]; ok {
		return at, nil
	}
	return nil, apperr.New(apperr.NotFound, "action type not found")
}

func (v fakeActionStore) ListActionTypes(ctx context.Context) ([]*models.ActionType, error) {
	var out []*models.ActionType
	for id := int64(0); id < 1000; id++ {
		if at, ok := v.actionTypes[id]; ok {
			out = append(out, at)
		}
	}
	return out, nil
}

// --- services.BannerStore ---

type fakeBannerStore struct{}

func (fakeBannerStore) Store(ctx context.Context, groupID int64, ext string, data []byte) (string, error) {
	return fmt.Sprintf("https://cdn.test/groups/banners/%d%s", groupID, ext), nil
}
