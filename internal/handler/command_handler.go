package handler

import (
	"io"
	"net/http"

	"github.com/greenm01/ec4x-sub006/internal/auth"
	"github.com/greenm01/ec4x-sub006/internal/service"
)

// CommandHandler handles command packet submission and ready marks.
type CommandHandler struct {
	turnSvc *service.TurnService
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(turnSvc *service.TurnService) *CommandHandler {
	return &CommandHandler{turnSvc: turnSvc}
}

// SubmitCommands handles POST /api/v1/games/{id}/commands
func (h *CommandHandler) SubmitCommands(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	playerID := auth.PlayerIDFromContext(r.Context())

	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	if err := h.turnSvc.SubmitCommands(r.Context(), gameID, playerID, body); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

// MarkReady handles POST /api/v1/games/{id}/commands/ready
func (h *CommandHandler) MarkReady(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	playerID := auth.PlayerIDFromContext(r.Context())

	if err := h.turnSvc.MarkReady(r.Context(), gameID, playerID); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// UnmarkReady handles DELETE /api/v1/games/{id}/commands/ready
func (h *CommandHandler) UnmarkReady(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	playerID := auth.PlayerIDFromContext(r.Context())

	if err := h.turnSvc.UnmarkReady(r.Context(), gameID, playerID); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "not ready"})
}
