package handler

import (
	"net/http"
	"strconv"

	"github.com/greenm01/ec4x-sub006/internal/auth"
	"github.com/greenm01/ec4x-sub006/internal/service"
)

// ViewHandler serves fog-filtered player views and the turn log.
type ViewHandler struct {
	turnSvc *service.TurnService
}

// NewViewHandler creates a ViewHandler.
func NewViewHandler(turnSvc *service.TurnService) *ViewHandler {
	return &ViewHandler{turnSvc: turnSvc}
}

// GetView handles GET /api/v1/games/{id}/view?turn=N
// Without a turn parameter it returns the caller's current view.
func (h *ViewHandler) GetView(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	playerID := auth.PlayerIDFromContext(r.Context())

	turn := -1
	if q := r.URL.Query().Get("turn"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "turn must be an integer")
			return
		}
		turn = v
	}

	view, err := h.turnSvc.GetView(r.Context(), gameID, playerID, turn)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ListTurns handles GET /api/v1/games/{id}/turns
func (h *ViewHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")

	turns, err := h.turnSvc.ListTurns(r.Context(), gameID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if turns == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, turns)
}
