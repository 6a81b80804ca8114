package services

import (
	"context"
	"fmt"
	"time"

	"group-actions-backend/internal/apperr"
	"group-actions-backend/internal/models"
)

// memStore is an in-memory implementation of the store interfaces,
// mirroring the repository contracts (reserved group exclusion,
// conflict and not-found kinds)
type memStore struct {
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

	// codeConflicts makes the next N group creations fail with a
	// group-code conflict, simulating unique-index collisions
	codeConflicts int
}

func newMemStore() *memStore {
	return &memStore{
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

// --- UserStore ---

func (m *memStore) Create(ctx context.Context, user *models.User) error {
	for _, u := range m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return apperr.New(apperr.Conflict, "email or username already registered")
		}
	}
	user.UserID = m.nextUserID
	m.nextUserID++
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, apperr.New(apperr.NotFound, "user not found")
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "user not found")
}

// addUser seeds a user directly
func (m *memStore) addUser() *models.User {
	u := &models.User{Email: fmt.Sprintf("u%d@test", m.nextUserID), Username: fmt.Sprintf("u%d", m.nextUserID)}
	u.UserID = m.nextUserID
	m.nextUserID++
	m.users[u.UserID] = u
	return u
}

// --- GroupStore ---

func (m *memStore) CreateWithOwner(ctx context.Context, group *models.Group, setting *models.GroupSetting, owner *models.GroupUser) error {
	if m.codeConflicts > 0 {
		m.codeConflicts--
		return apperr.New(apperr.Conflict, "group code already exists")
	}
	for _, g := range m.groups {
		if g.GroupCode == group.GroupCode {
			return apperr.New(apperr.Conflict, "group code already exists")
		}
	}
	group.GroupID = m.nextGroupID
	m.nextGroupID++
	group.CreatedAt = time.Now()
	m.groups[group.GroupID] = group

	setting.GroupID = group.GroupID
	m.settings[group.GroupID] = setting
	group.Setting = setting

	owner.GroupID = group.GroupID
	owner.CreatedAt = time.Now()
	m.memberships[[2]int64{group.GroupID, owner.UserID}] = owner
	return nil
}

// memStore satisfies UserStore directly; group and action methods with
// clashing names live on view types below.

type groupView struct{ *memStore }

func (m *memStore) groupStore() GroupStore { return groupView{m} }
func (m *memStore) userStore() UserStore   { return m }

func (v groupView) GetByID(ctx context.Context, id int64) (*models.Group, error) {
	g, ok := v.groups[id]
	if !ok || g.DeletedAt != nil {
		return nil, apperr.New(apperr.NotFound, "group not found")
	}
	return g, nil
}

func (v groupView) GetByCode(ctx context.Context, code string) (*models.Group, error) {
	for _, g := range v.groups {
		if g.GroupCode == code && g.DeletedAt == nil {
			return g, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "group not found")
}

func (v groupView) ListPublic(ctx context.Context) ([]*models.Group, error) {
	var out []*models.Group
	for id := int64(0); id < v.nextGroupID; id++ {
		g, ok := v.groups[id]
		if !ok {
			continue
		}
		if g.Private || g.DeletedAt != nil || g.GroupID == 1 {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (v groupView) ListByMember(ctx context.Context, userID int64) ([]*models.Group, error) {
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

func (v groupView) Update(ctx context.Context, group *models.Group) error {
	if _, ok := v.groups[group.GroupID]; !ok {
		return apperr.New(apperr.NotFound, "group not found")
	}
	v.groups[group.GroupID] = group
	return nil
}

func (v groupView) UpdateBanner(ctx context.Context, groupID int64, url string) error {
	g, ok := v.groups[groupID]
	if !ok {
		return apperr.New(apperr.NotFound, "group not found")
	}
	g.BannerImageFile = &url
	return nil
}

func (v groupView) GetSetting(ctx context.Context, groupID int64) (*models.GroupSetting, error) {
	if s, ok := v.settings[groupID]; ok {
		return s, nil
	}
	return nil, apperr.New(apperr.NotFound, "group setting not found")
}

func (v groupView) UpdateSetting(ctx context.Context, setting *models.GroupSetting) error {
	if _, ok := v.settings[setting.GroupID]; !ok {
		return apperr.New(apperr.NotFound, "group setting not found")
	}
	v.settings[setting.GroupID] = setting
	return nil
}

func (v groupView) GetMembership(ctx context.Context, groupID, userID int64) (*models.GroupUser, error) {
	if gu, ok := v.memberships[[2]int64{groupID, userID}]; ok {
		return gu, nil
	}
	return nil, apperr.New(apperr.NotFound, "membership not found")
}

func (v groupView) AddMember(ctx context.Context, gu *models.GroupUser) error {
	key := [2]int64{gu.GroupID, gu.UserID}
	if _, ok := v.memberships[key]; ok {
		return apperr.New(apperr.Conflict, "user is already a member of this group")
	}
	gu.CreatedAt = time.Now()
	v.memberships[key] = gu
	return nil
}

func (v groupView) ListMembers(ctx context.Context, groupID int64) ([]*models.GroupUser, error) {
	var out []*models.GroupUser
	for key, gu := range v.memberships {
		if key[0] == groupID {
			out = append(out, gu)
		}
	}
	return out, nil
}

func (v groupView) CreateWithOwner(ctx context.Context, group *models.Group, setting *models.GroupSetting, owner *models.GroupUser) error {
	return v.memStore.CreateWithOwner(ctx, group, setting, owner)
}

// --- ActionStore ---

type actionView struct{ *memStore }

func (m *memStore) actionStore() ActionStore { return actionView{m} }

func (v actionView) Create(ctx context.Context, action *models.Action) error {
	action.ActionID = v.nextActionID
	v.nextActionID++
	action.CreatedAt = time.Now()
	v.actions[action.ActionID] = action
	return nil
}

func (v actionView) Get(ctx context.Context, groupID, actionID int64) (*models.Action, error) {
	a, ok := v.actions[actionID]
	if !ok || a.GroupID != groupID || a.DeletedAt != nil {
		return nil, apperr.New(apperr.NotFound, "action not found")
	}
	return a, nil
}

func (v actionView) ListOpen(ctx context.Context, groupID int64, endedSince time.Time) ([]*models.Action, error) {
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

func (v actionView) Update(ctx context.Context, action *models.Action) error {
	if _, ok := v.actions[action.ActionID]; !ok {
		return apperr.New(apperr.NotFound, "action not found")
	}
	v.actions[action.ActionID] = action
	return nil
}

func (v actionView) SoftDelete(ctx context.Context, actionID int64, at time.Time) error {
	a, ok := v.actions[actionID]
	if !ok || a.DeletedAt != nil {
		return apperr.New(apperr.NotFound, "action not found")
	}
	a.DeletedAt = &at
	return nil
}

func (v actionView) MarkComplete(ctx context.Context, actionID, userID int64) error {
	key := [2]int64{actionID, userID}
	if v.completions[key] {
		return apperr.New(apperr.Conflict, "action already completed")
	}
	v.completions[key] = true
	return nil
}

func (v actionView) EarnedPoints(ctx context.Context, groupID, userID int64) (int, error) {
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

func (v actionView) GetActionType(ctx context.Context, id int64) (*models.ActionType, error) {
	if at, ok := v.actionTypes[id]; ok {
		return at, nil
	}
	return nil, apperr.New(apperr.NotFound, "action type not found")
}

func (v actionView) ListActionTypes(ctx context.Context) ([]*models.ActionType, error) {
	var out []*models.ActionType
	for id := int64(0); id < 1000; id++ {
		if at, ok := v.actionTypes[id]; ok {
			out = append(out, at)
		}
	}
	return out, nil
}

// --- BannerStore ---

type fakeBannerStore struct {
	fail bool
}

func (f *fakeBannerStore) Store(ctx context.Context, groupID int64, ext string, data []byte) (string, error) {
	if f.fail {
		return "", fmt.Errorf("s3 unavailable")
	}
	return fmt.Sprintf("https://cdn.test/groups/banners/%d%s", groupID, ext), nil
}
