package repository

import (
	"context"
	"fmt"
	"time"

	"group-actions-backend/internal/apperr"
	"group-actions-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const actionColumns = `action_id, group_id, title, subtitle, description, thanks_msg,
	action_type_id, points, start_at, end_at, created_by_user_id, created_at, deleted_at`

// ActionRepository handles database operations for actions, action
// types and completion records
type ActionRepository struct {
	db *pgxpool.Pool
}

// NewActionRepository creates a new action repository
func NewActionRepository(db *pgxpool.Pool) *ActionRepository {
	return &ActionRepository{db: db}
}

func scanAction(row pgx.Row, action *models.Action) error {
	return row.Scan(
		&action.ActionID, &action.GroupID, &action.Title, &action.Subtitle,
		&action.Description, &action.ThanksMsg, &action.ActionTypeID, &action.Points,
		&action.StartAt, &action.EndAt, &action.CreatedByUserID, &action.CreatedAt,
		&action.DeletedAt,
	)
}

// Create creates a new action and populates its generated fields
func (r *ActionRepository) Create(ctx context.Context, action *models.Action) error {
	query := `
		INSERT INTO actions (group_id, title, subtitle, description, thanks_msg, action_type_id, points, start_at, end_at, created_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING action_id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		action.GroupID, action.Title, action.Subtitle, action.Description,
		action.ThanksMsg, action.ActionTypeID, action.Points,
		action.StartAt, action.EndAt, action.CreatedByUserID,
	).Scan(&action.ActionID, &action.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create action: %w", err)
	}
	return nil
}

// Get retrieves a non-deleted action by ID within a group
func (r *ActionRepository) Get(ctx context.Context, groupID, actionID int64) (*models.Action, error) {
	query := `SELECT ` + actionColumns + `
		FROM actions
		WHERE action_id = $1 AND group_id = $2 AND deleted_at IS NULL`
	var action models.Action
	if err := scanAction(r.db.QueryRow(ctx, query, actionID, groupID), &action); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.Wrap(apperr.NotFound, "action not found", err)
		}
		return nil, fmt.Errorf("failed to get action: %w", err)
	}
	return &action, nil
}

// ListOpen retrieves the non-deleted actions of a group whose end_at
// is at or after the given cutoff
func (r *ActionRepository) ListOpen(ctx context.Context, groupID int64, endedSince time.Time) ([]*models.Action, error) {
	query := `SELECT ` + actionColumns + `
		FROM actions
		WHERE group_id = $1 AND deleted_at IS NULL AND end_at >= $2
		ORDER BY start_at DESC`
	rows, err := r.db.Query(ctx, query, groupID, endedSince)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var actions []*models.Action
	for rows.Next() {
		var action models.Action
		if err := scanAction(rows, &action); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, &action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating actions: %w", err)
	}
	return actions, nil
}

// Update persists the mutable action fields
func (r *ActionRepository) Update(ctx context.Context, action *models.Action) error {
	query := `
		UPDATE actions
		SET title = $1, subtitle = $2, description = $3, thanks_msg = $4, points = $5, start_at = $6, end_at = $7
		WHERE action_id = $8 AND deleted_at IS NULL
	`
	result, err := r.db.Exec(ctx, query,
		action.Title, action.Subtitle, action.Description, action.ThanksMsg,
		action.Points, action.StartAt, action.EndAt, action.ActionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update action: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "action not found")
	}
	return nil
}

// SoftDelete stamps deleted_at on an action
func (r *ActionRepository) SoftDelete(ctx context.Context, actionID int64, at time.Time) error {
	result, err := r.db.Exec(ctx,
		`UPDATE actions SET deleted_at = $1 WHERE action_id = $2 AND deleted_at IS NULL`, at, actionID)
	if err != nil {
		return fmt.Errorf("failed to delete action: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "action not found")
	}
	return nil
}

// MarkComplete records a completion for a (action, user) pair. A
// repeated completion surfaces as a Conflict error.
func (r *ActionRepository) MarkComplete(ctx context.Context, actionID, userID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO action_users (action_id, user_id) VALUES ($1, $2)`, actionID, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.Conflict, "action already completed", err)
		}
		return fmt.Errorf("failed to mark action complete: %w", err)
	}
	return nil
}

// EarnedPoints sums the points of the group's actions the user has
// completed
func (r *ActionRepository) EarnedPoints(ctx context.Context, groupID, userID int64) (int, error) {
	query := `
		SELECT COALESCE(SUM(a.points), 0)
		FROM action_users au
		INNER JOIN actions a ON a.action_id = au.action_id
		WHERE a.group_id = $1 AND au.user_id = $2
	`
	var points int
	if err := r.db.QueryRow(ctx, query, groupID, userID).Scan(&points); err != nil {
		return 0, fmt.Errorf("failed to sum earned points: %w", err)
	}
	return points, nil
}

// GetActionType retrieves an action type by ID
func (r *ActionRepository) GetActionType(ctx context.Context, id int64) (*models.ActionType, error) {
	query := `SELECT action_type_id, name, default_points FROM action_types WHERE action_type_id = $1`
	var at models.ActionType
	err := r.db.QueryRow(ctx, query, id).Scan(&at.ActionTypeID, &at.Name, &at.DefaultPoints)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.Wrap(apperr.NotFound, "action type not found", err)
		}
		return nil, fmt.Errorf("failed to get action type: %w", err)
	}
	return &at, nil
}

// ListActionTypes retrieves all action types
func (r *ActionRepository) ListActionTypes(ctx context.Context) ([]*models.ActionType, error) {
	rows, err := r.db.Query(ctx, `SELECT action_type_id, name, default_points FROM action_types ORDER BY action_type_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list action types: %w", err)
	}
	defer rows.Close()

	var types []*models.ActionType
	for rows.Next() {
		var at models.ActionType
		if err := rows.Scan(&at.ActionTypeID, &at.Name, &at.DefaultPoints); err != nil {
			return nil, fmt.Errorf("failed to scan action type: %w", err)
		}
		types = append(types, &at)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating action types: %w", err)
	}
	return types, nil
}
