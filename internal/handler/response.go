package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/greenm01/ec4x-sub006/internal/service"
	"github.com/greenm01/ec4x-sub006/pkg/ec4x"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps a turn-service failure onto the HTTP surface.
// Engine validation errors keep their structured shape so the client
// can point at the offending order; service sentinels map to fixed
// statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	var verr *ec4x.ValidationError
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		writeError(w, http.StatusNotFound, "game not found")
	case errors.Is(err, service.ErrNotInGame):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrGameNotActive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &verr):
		writeJSON(w, validationStatus(verr.Code), verr)
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// validationStatus picks the HTTP status for a rejected command. Most
// rejections are the client's fault; missing entities and ownership
// breaches get their conventional codes.
func validationStatus(code ec4x.ErrorCode) int {
	switch code {
	case ec4x.ErrNotFound:
		return http.StatusNotFound
	case ec4x.ErrNotOwner:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// decodeJSON reads and decodes JSON from a request body.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
