package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"group-actions-backend/internal/apperr"
	"group-actions-backend/internal/middleware"
	"group-actions-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// maxBannerBytes bounds multipart parsing for banner uploads
const maxBannerBytes = 10 << 20

// GroupHandler handles group-related HTTP requests
type GroupHandler struct {
	groupService *services.GroupService
	userService  *services.UserService
	wsHub        *services.WSHub
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groupService *services.GroupService, userService *services.UserService, wsHub *services.WSHub) *GroupHandler {
	return &GroupHandler{
		groupService: groupService,
		userService:  userService,
		wsHub:        wsHub,
	}
}

func callerID(r *http.Request) *int64 {
	if id, ok := middleware.GetUserID(r.Context()); ok {
		return &id
	}
	return nil
}

// ListGroups handles GET /api/v1/groups
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := services.GroupFilter{
		GroupCode: q.Get("group_code"),
		Query:     q.Get("query"),
		Tag:       q.Get("tag"),
	}
	var err error
	if filter.Lat, err = optionalFloat(q.Get("lat")); err != nil {
		respondError(w, apperr.Validation, "invalid lat")
		return
	}
	if filter.Long, err = optionalFloat(q.Get("long")); err != nil {
		respondError(w, apperr.Validation, "invalid long")
		return
	}
	if filter.Distance, err = optionalFloat(q.Get("distance")); err != nil {
		respondError(w, apperr.Validation, "invalid distance")
		return
	}

	groups, err := h.groupService.ListGroups(ctx, filter, callerID(r))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list groups")
		respondAppError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"groups": groups,
	})
}

func optionalFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateGroup handles POST /api/v1/groups
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := middleware.GetUserID(ctx)

	in, err := parseCreateGroupRequest(r)
	if err != nil {
		respondAppError(w, err)
		return
	}

	group, err := h.groupService.CreateGroup(ctx, userID, in)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Str("name", in.Name).Msg("Failed to create group")
		respondAppError(w, err)
		return
	}

	token, err := h.userService.IssueToken(userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	log.Info().
		Int64("user_id", userID).
		Int64("group_id", group.GroupID).
		Str("group_code", group.GroupCode).
		Msg("Group created")

	respondSuccess(w, http.StatusCreated, map[string]interface{}{
		"token":   token,
		"group":   group,
		"message": "Success",
	})
}

type createGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Welcome     string   `json:"welcome"`
	Private     bool     `json:"private"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Tags        []string `json:"tags"`
}

func parseCreateGroupRequest(r *http.Request) (services.CreateGroupInput, error) {
	var in services.CreateGroupInput

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxBannerBytes); err != nil {
			return in, apperr.Wrap(apperr.Validation, "Invalid multipart body", err)
		}
		in.Name = r.FormValue("name")
		in.Description = r.FormValue("description")
		in.Welcome = r.FormValue("welcome")
		in.Private = parseBool(r.FormValue("private"))
		var err error
		if in.Latitude, err = optionalFloat(r.FormValue("latitude")); err != nil {
			return in, apperr.New(apperr.Validation, "invalid latitude")
		}
		if in.Longitude, err = optionalFloat(r.FormValue("longitude")); err != nil {
			return in, apperr.New(apperr.Validation, "invalid longitude")
		}
		in.Tags = splitTags(r.FormValue("tags"))

		banner, err := readBannerFile(r)
		if err != nil {
			return in, err
		}
		in.Banner = banner
		return in, nil
	}

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return in, apperr.Wrap(apperr.Validation, "Invalid request body", err)
	}
	return services.CreateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		Welcome:     req.Welcome,
		Private:     req.Private,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Tags:        req.Tags,
	}, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func parseBool(raw string) bool {
	return raw == "1" || strings.EqualFold(raw, "true")
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// readBannerFile extracts the optional banner_image_file upload
func readBannerFile(r *http.Request) (*services.BannerUpload, error) {
	file, header, err := r.FormFile("banner_image_file")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.Validation, "Unknown error prevented from uploading", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, "Unknown error prevented from uploading", err)
	}
	return &services.BannerUpload{
		Filename: header.Filename,
		Data:     data,
	}, nil
}

// GetGroup handles GET /api/v1/groups/{group_id}
func (h *GroupHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	groupID, err := pathID(r, "group_id")
	if err != nil {
		respondAppError(w, err)
		return
	}

	group, err := h.groupService.GetGroup(ctx, groupID, callerID(r))
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"group": group,
	})
}

// GetGroupByCode handles GET /api/v1/groups/code/{group_code}
func (h *GroupHandler) GetGroupByCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := chi.URLParam(r, "group_code")
	if code == "" {
		respondError(w, apperr.Validation, "invalid group_code")
		return
	}

	group, err := h.groupService.GetGroupByCode(ctx, code, callerID(r))
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"group": group,
	})
}

// UpdateGroup handles PUT /api/v1/groups/{group_id}
func (h *GroupHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := middleware.GetUserID(ctx)

	groupID, err := pathID(r, "group_id")
	if err != nil {
		respondAppError(w, err)
		return
	}

	in, err := parseUpdateGroupRequest(r)
	if err != nil {
		respondAppError(w, err)
		return
	}

	group, err := h.groupService.UpdateGroup(ctx, groupID, userID, in)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Int64("group_id", groupID).Msg("Failed to update group")
		respondAppError(w, err)
		return
	}

	token, err := h.userService.IssueToken(userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	h.wsHub.NotifyGroupUpdated(ctx, group)

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"token":   token,
		"group":   group,
		"message": "Success",
	})
}

type updateGroupRequest struct {
	Name              *string  `json:"name"`
	Description       *string  `json:"description"`
	Welcome           *string  `json:"welcome"`
	Private           *bool    `json:"private"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	AllowMemberAction *bool    `json:"allow_member_action"`
	MemberActionLevel *int     `json:"member_action_level"`
}

func parseUpdateGroupRequest(r *http.Request) (services.UpdateGroupInput, error) {
	var in services.UpdateGroupInput

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxBannerBytes); err != nil {
			return in, apperr.Wrap(apperr.Validation, "Invalid multipart body", err)
		}
		form := r.MultipartForm.Value
		if v, ok := formValue(form, "name"); ok {
			in.Name = &v
		}
		if v, ok := formValue(form, "description"); ok {
			in.Description = &v
		}
		if v, ok := formValue(form, "welcome"); ok {
			in.Welcome = &v
		}
		if v, ok := formValue(form, "private"); ok {
			b := parseBool(v)
			in.Private = &b
		}
		if v, ok := formValue(form, "latitude"); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return in, apperr.New(apperr.Validation, "invalid latitude")
			}
			in.Latitude = &f
		}
		if v, ok := formValue(form, "longitude"); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return in, apperr.New(apperr.Validation, "invalid longitude")
			}
			in.Longitude = &f
		}
		if v, ok := formValue(form, "allow_member_action"); ok {
			b := parseBool(v)
			in.AllowMemberAction = &b
		}
		if v, ok := formValue(form, "member_action_level"); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return in, apperr.New(apperr.Validation, "invalid member_action_level")
			}
			in.MemberActionLevel = &n
		}

		banner, err := readBannerFile(r)
		if err != nil {
			return in, err
		}
		in.Banner = banner
		return in, nil
	}

	var req updateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return in, apperr.Wrap(apperr.Validation, "Invalid request body", err)
	}
	return services.UpdateGroupInput{
		Name:              req.Name,
		Description:       req.Description,
		Welcome:           req.Welcome,
		Private:           req.Private,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		AllowMemberAction: req.AllowMemberAction,
		MemberActionLevel: req.MemberActionLevel,
	}, nil
}

func formValue(form map[string][]string, key string) (string, bool) {
	if vs, ok := form[key]; ok && len(vs) > 0 {
		return vs[0], true
	}
	return "", false
}

// JoinGroupRequest represents the request body for joining a group
type JoinGroupRequest struct {
	GroupCode string `json:"group_code"`
}

// JoinGroup handles POST /api/v1/groups/{group_id}/members
func (h *GroupHandler) JoinGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := middleware.GetUserID(ctx)

	groupID, err := pathID(r, "group_id")
	if err != nil {
		respondAppError(w, err)
		return
	}

	var req JoinGroupRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, apperr.Validation, "Invalid request body")
			return
		}
	}

	group, err := h.groupService.JoinGroup(ctx, groupID, userID, req.GroupCode)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Int64("group_id", groupID).Msg("Failed to join group")
		respondAppError(w, err)
		return
	}

	token, err := h.userService.IssueToken(userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	log.Info().Int64("user_id", userID).Int64("group_id", groupID).Msg("User joined group")

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"group": group,
	})
}

// ListMembers handles GET /api/v1/groups/{group_id}/members
func (h *GroupHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := middleware.GetUserID(ctx)

	groupID, err := pathID(r, "group_id")
	if err != nil {
		respondAppError(w, err)
		return
	}

	members, err := h.groupService.ListMembers(ctx, groupID, userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	token, err := h.userService.IssueToken(userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"token":   token,
		"members": members,
	})
}
