package models

import "time"

// User represents a registered account
type User struct {
	UserID       int64     `json:"user_id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	Bio          *string   `json:"bio,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Group represents a community group
type Group struct {
	GroupID         int64      `json:"group_id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Welcome         string     `json:"welcome"`
	GroupCode       string     `json:"group_code"`
	Private         bool       `json:"private"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	BannerImageFile *string    `json:"banner_image_file,omitempty"`
	CreatedByUserID int64      `json:"created_by_user_id"`
	CreatedAt       time.Time  `json:"created_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`

	// Loaded relations, populated by the repository when requested
	Tags    []string      `json:"tags,omitempty"`
	Setting *GroupSetting `json:"setting,omitempty"`
}

// GroupSetting holds per-group configuration. Exactly one row exists
// per group, created together with the group.
type GroupSetting struct {
	GroupID           int64 `json:"group_id"`
	AllowMemberAction bool  `json:"allow_member_action"`
	MemberActionLevel int   `json:"member_action_level"`
}

// GroupUser is a membership record carrying per-group role flags.
// One row per (group_id, user_id) pair.
type GroupUser struct {
	GroupID       int64     `json:"group_id"`
	UserID        int64     `json:"user_id"`
	AdminSettings bool      `json:"admin_settings"`
	AdminMembers  bool      `json:"admin_members"`
	ModActions    bool      `json:"mod_actions"`
	ModComments   bool      `json:"mod_comments"`
	SubmitAction  bool      `json:"submit_action"`
	Banned        bool      `json:"banned"`
	CreatedAt     time.Time `json:"created_at"`
}

// Action is a time-bounded task posted within a group
type Action struct {
	ActionID        int64      `json:"action_id"`
	GroupID         int64      `json:"group_id"`
	Title           string     `json:"title"`
	Subtitle        string     `json:"subtitle"`
	Description     string     `json:"description"`
	ThanksMsg       string     `json:"thanks_msg"`
	ActionTypeID    int64      `json:"action_type_id"`
	Points          int        `json:"points"`
	StartAt         time.Time  `json:"start_at"`
	EndAt           time.Time  `json:"end_at"`
	CreatedByUserID int64      `json:"created_by_user_id"`
	CreatedAt       time.Time  `json:"created_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// ActionType is a category of action with a default point value
type ActionType struct {
	ActionTypeID  int64  `json:"action_type_id"`
	Name          string `json:"name"`
	DefaultPoints int    `json:"default_points"`
}

// ActionUser marks an action complete for a user. One row per
// (action_id, user_id) completion.
type ActionUser struct {
	ActionID  int64     `json:"action_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
