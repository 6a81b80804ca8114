package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist. The unique index on
// groups.group_code backs the retry-on-conflict loop in the group
// service, and the composite primary keys on group_users/action_users
// enforce the one-row-per-pair invariants.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id BIGSERIAL PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    first_name TEXT NOT NULL DEFAULT '',
    last_name TEXT NOT NULL DEFAULT '',
    avatar_url TEXT,
    bio TEXT,
    latitude DOUBLE PRECISION,
    longitude DOUBLE PRECISION,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS groups (
    group_id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    welcome TEXT NOT NULL DEFAULT '',
    group_code TEXT NOT NULL UNIQUE,
    private BOOLEAN NOT NULL DEFAULT FALSE,
    latitude DOUBLE PRECISION,
    longitude DOUBLE PRECISION,
    banner_image_file TEXT,
    created_by_user_id BIGINT NOT NULL REFERENCES users(user_id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS group_settings (
    group_id BIGINT PRIMARY KEY REFERENCES groups(group_id) ON DELETE CASCADE,
    allow_member_action BOOLEAN NOT NULL DEFAULT FALSE,
    member_action_level INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS group_users (
    group_id BIGINT NOT NULL REFERENCES groups(group_id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    admin_settings BOOLEAN NOT NULL DEFAULT FALSE,
    admin_members BOOLEAN NOT NULL DEFAULT FALSE,
    mod_actions BOOLEAN NOT NULL DEFAULT FALSE,
    mod_comments BOOLEAN NOT NULL DEFAULT FALSE,
    submit_action BOOLEAN NOT NULL DEFAULT FALSE,
    banned BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (group_id, user_id)
);

CREATE TABLE IF NOT EXISTS group_tags (
    group_id BIGINT NOT NULL REFERENCES groups(group_id) ON DELETE CASCADE,
    tag TEXT NOT NULL,
    PRIMARY KEY (group_id, tag)
);

CREATE TABLE IF NOT EXISTS action_types (
    action_type_id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    default_points INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS actions (
    action_id BIGSERIAL PRIMARY KEY,
    group_id BIGINT NOT NULL REFERENCES groups(group_id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    subtitle TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    thanks_msg TEXT NOT NULL DEFAULT '',
    action_type_id BIGINT NOT NULL REFERENCES action_types(action_type_id),
    points INTEGER NOT NULL DEFAULT 0,
    start_at TIMESTAMPTZ NOT NULL,
    end_at TIMESTAMPTZ NOT NULL,
    created_by_user_id BIGINT NOT NULL REFERENCES users(user_id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS action_users (
    action_id BIGINT NOT NULL REFERENCES actions(action_id) ON DELETE CASCADE,
    user_id BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (action_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_groups_private ON groups(private) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_actions_group_id ON actions(group_id);
CREATE INDEX IF NOT EXISTS idx_actions_end_at ON actions(end_at) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_group_users_user_id ON group_users(user_id);
`

// Migrate applies the schema to the database
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
