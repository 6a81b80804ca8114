package repository

import (
	"context"
	"fmt"

	"group-actions-backend/internal/apperr"
	"group-actions-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// reservedGroupID is excluded from every public listing
const reservedGroupID = 1

const groupColumns = `group_id, name, description, welcome, group_code, private,
	latitude, longitude, banner_image_file, created_by_user_id, created_at, deleted_at`

// GroupRepository handles database operations for groups, their
// settings, memberships and tags
type GroupRepository struct {
	db *pgxpool.Pool
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{db: db}
}

func scanGroup(row pgx.Row, group *models.Group) error {
	return row.Scan(
		&group.GroupID, &group.Name, &group.Description, &group.Welcome,
		&group.GroupCode, &group.Private, &group.Latitude, &group.Longitude,
		&group.BannerImageFile, &group.CreatedByUserID, &group.CreatedAt, &group.DeletedAt,
	)
}

// CreateWithOwner creates a group, its setting row, its tags and the
// creator's membership in a single transaction. A duplicate group_code
// surfaces as a Conflict error so the caller can regenerate and retry.
func (r *GroupRepository) CreateWithOwner(
	ctx context.Context,
	group *models.Group,
	setting *models.GroupSetting,
	owner *models.GroupUser,
) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO groups (name, description, welcome, group_code, private, latitude, longitude, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING group_id, created_at
	`
	err = tx.QueryRow(ctx, query,
		group.Name, group.Description, group.Welcome, group.GroupCode,
		group.Private, group.Latitude, group.Longitude, group.CreatedByUserID,
	).Scan(&group.GroupID, &group.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.Conflict, "group code already exists", err)
		}
		return fmt.Errorf("failed to create group: %w", err)
	}

	for _, tag := range group.Tags {
		if _, err := tx.Exec(ctx,
			`INSERT INTO group_tags (group_id, tag) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			group.GroupID, tag,
		); err != nil {
			return fmt.Errorf("failed to create group tag: %w", err)
		}
	}

	setting.GroupID = group.GroupID
	if _, err := tx.Exec(ctx,
		`INSERT INTO group_settings (group_id, allow_member_action, member_action_level) VALUES ($1, $2, $3)`,
		setting.GroupID, setting.AllowMemberAction, setting.MemberActionLevel,
	); err != nil {
		return fmt.Errorf("failed to create group setting: %w", err)
	}

	owner.GroupID = group.GroupID
	if err := insertMembership(ctx, tx, owner); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit group creation: %w", err)
	}
	group.Setting = setting
	return nil
}

func insertMembership(ctx context.Context, tx pgx.Tx, gu *models.GroupUser) error {
	query := `
		INSERT INTO group_users (group_id, user_id, admin_settings, admin_members, mod_actions, mod_comments, submit_action, banned)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err := tx.QueryRow(ctx, query,
		gu.GroupID, gu.UserID, gu.AdminSettings, gu.AdminMembers,
		gu.ModActions, gu.ModComments, gu.SubmitAction, gu.Banned,
	).Scan(&gu.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.Conflict, "user is already a member of this group", err)
		}
		return fmt.Errorf("failed to create membership: %w", err)
	}
	return nil
}

// GetByID retrieves a non-deleted group by ID with its setting and tags
func (r *GroupRepository) GetByID(ctx context.Context, id int64) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE group_id = $1 AND deleted_at IS NULL`
	var group models.Group
	if err := scanGroup(r.db.QueryRow(ctx, query, id), &group); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.Wrap(apperr.NotFound, "group not found", err)
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if err := r.loadRelations(ctx, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// GetByCode retrieves a non-deleted group by its group code
func (r *GroupRepository) GetByCode(ctx context.Context, code string) (*models.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE group_code = $1 AND deleted_at IS NULL`
	var group models.Group
	if err := scanGroup(r.db.QueryRow(ctx, query, code), &group); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.Wrap(apperr.NotFound, "group not found", err)
		}
		return nil, fmt.Errorf("failed to get group by code: %w", err)
	}
	if err := r.loadRelations(ctx, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListPublic retrieves all non-deleted public groups, excluding the
// reserved group, with settings and tags loaded
func (r *GroupRepository) ListPublic(ctx context.Context) ([]*models.Group, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM groups
		WHERE private = FALSE AND deleted_at IS NULL AND group_id <> $1
		ORDER BY group_id
	`
	return r.queryGroups(ctx, query, reservedGroupID)
}

// ListByMember retrieves all non-deleted groups the user is a
// non-banned member of
func (r *GroupRepository) ListByMember(ctx context.Context, userID int64) ([]*models.Group, error) {
	query := `
		SELECT g.group_id, g.name, g.description, g.welcome, g.group_code, g.private,
			g.latitude, g.longitude, g.banner_image_file, g.created_by_user_id, g.created_at, g.deleted_at
		FROM groups g
		INNER JOIN group_users gu ON gu.group_id = g.group_id
		WHERE gu.user_id = $1 AND gu.banned = FALSE AND g.deleted_at IS NULL
		ORDER BY g.group_id
	`
	return r.queryGroups(ctx, query, userID)
}

func (r *GroupRepository) queryGroups(ctx context.Context, query string, args ...interface{}) ([]*models.Group, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		var group models.Group
		if err := scanGroup(rows, &group); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, &group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}

	for _, group := range groups {
		if err := r.loadRelations(ctx, group); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (r *GroupRepository) loadRelations(ctx context.Context, group *models.Group) error {
	setting, err := r.GetSetting(ctx, group.GroupID)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return fmt.Errorf("group %d has no setting row", group.GroupID)
		}
		return err
	}
	group.Setting = setting

	rows, err := r.db.Query(ctx, `SELECT tag FROM group_tags WHERE group_id = $1 ORDER BY tag`, group.GroupID)
	if err != nil {
		return fmt.Errorf("failed to load group tags: %w", err)
	}
	defer rows.Close()

	group.Tags = nil
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return fmt.Errorf("failed to scan tag: %w", err)
		}
		group.Tags = append(group.Tags, tag)
	}
	return rows.Err()
}

// Update persists the mutable group fields
func (r *GroupRepository) Update(ctx context.Context, group *models.Group) error {
	query := `
		UPDATE groups
		SET name = $1, description = $2, welcome = $3, private = $4, latitude = $5, longitude = $6
		WHERE group_id = $7 AND deleted_at IS NULL
	`
	result, err := r.db.Exec(ctx, query,
		group.Name, group.Description, group.Welcome, group.Private,
		group.Latitude, group.Longitude, group.GroupID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "group not found")
	}
	return nil
}

// UpdateBanner sets the banner image URL for a group
func (r *GroupRepository) UpdateBanner(ctx context.Context, groupID int64, url string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE groups SET banner_image_file = $1 WHERE group_id = $2`, url, groupID)
	if err != nil {
		return fmt.Errorf("failed to update group banner: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "group not found")
	}
	return nil
}

// GetSetting retrieves the setting row for a group
func (r *GroupRepository) GetSetting(ctx context.Context, groupID int64) (*models.GroupSetting, error) {
	query := `SELECT group_id, allow_member_action, member_action_level FROM group_settings WHERE group_id = $1`
	var setting models.GroupSetting
	err := r.db.QueryRow(ctx, query, groupID).Scan(
		&setting.GroupID, &setting.AllowMemberAction, &setting.MemberActionLevel,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.Wrap(apperr.NotFound, "group setting not found", err)
		}
		return nil, fmt.Errorf("failed to get group setting: %w", err)
	}
	return &setting, nil
}

// UpdateSetting persists the setting row for a group
func (r *GroupRepository) UpdateSetting(ctx context.Context, setting *models.GroupSetting) error {
	result, err := r.db.Exec(ctx,
		`UPDATE group_settings SET allow_member_action = $1, member_action_level = $2 WHERE group_id = $3`,
		setting.AllowMemberAction, setting.MemberActionLevel, setting.GroupID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group setting: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "group setting not found")
	}
	return nil
}

// GetMembership retrieves the membership row for a (group, user) pair
func (r *GroupRepository) GetMembership(ctx context.Context, groupID, userID int64) (*models.GroupUser, error) {
	query := `
		SELECT group_id, user_id, admin_settings, admin_members, mod_actions, mod_comments, submit_action, banned, created_at
		FROM group_users
		WHERE group_id = $1 AND user_id = $2
	`
	var gu models.GroupUser
	err := r.db.QueryRow(ctx, query, groupID, userID).Scan(
		&gu.GroupID, &gu.UserID, &gu.AdminSettings, &gu.AdminMembers,
		&gu.ModActions, &gu.ModComments, &gu.SubmitAction, &gu.Banned, &gu.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.Wrap(apperr.NotFound, "membership not found", err)
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &gu, nil
}

// AddMember creates a membership row. A second join for the same
// (group, user) pair surfaces as a Conflict error.
func (r *GroupRepository) AddMember(ctx context.Context, gu *models.GroupUser) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertMembership(ctx, tx, gu); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListMembers retrieves all membership rows for a group
func (r *GroupRepository) ListMembers(ctx context.Context, groupID int64) ([]*models.GroupUser, error) {
	query := `
		SELECT group_id, user_id, admin_settings, admin_members, mod_actions, mod_comments, submit_action, banned, created_at
		FROM group_users
		WHERE group_id = $1
		ORDER BY user_id
	`
	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.GroupUser
	for rows.Next() {
		var gu models.GroupUser
		err := rows.Scan(
			&gu.GroupID, &gu.UserID, &gu.AdminSettings, &gu.AdminMembers,
			&gu.ModActions, &gu.ModComments, &gu.SubmitAction, &gu.Banned, &gu.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, &gu)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return members, nil
}
