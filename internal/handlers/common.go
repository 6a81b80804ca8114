package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"group-actions-backend/internal/apperr"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// respondSuccess sends a success envelope, merging the given fields
// into {"success": 1}
func respondSuccess(w http.ResponseWriter, statusCode int, fields map[string]interface{}) {
	payload := map[string]interface{}{"success": 1}
	for k, v := range fields {
		payload[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondError sends an error envelope with a stable machine-readable
// kind alongside the human-readable message
func respondError(w http.ResponseWriter, kind apperr.Kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPStatus(kind))
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": 0,
		"error":   string(kind),
		"message": message,
	})
}

// respondAppError translates a service error into the error envelope
func respondAppError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		log.Error().Err(err).Msg("Internal error")
	}
	respondError(w, kind, apperr.MessageOf(err))
}

// pathID parses a numeric URL parameter
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Newf(apperr.Validation, "invalid %s", name)
	}
	return id, nil
}
