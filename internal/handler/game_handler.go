package handler

import (
	"errors"
	"net/http"

	"github.com/greenm01/ec4x-sub006/internal/auth"
	"github.com/greenm01/ec4x-sub006/internal/service"
)

// GameHandler handles game lobby endpoints.
type GameHandler struct {
	gameSvc *service.GameService
	turnSvc *service.TurnService
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(gameSvc *service.GameService, turnSvc *service.TurnService) *GameHandler {
	return &GameHandler{gameSvc: gameSvc, turnSvc: turnSvc}
}

// CreateGame handles POST /api/v1/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	playerID := auth.PlayerIDFromContext(r.Context())
	var req struct {
		Name         string `json:"name"`
		HouseName    string `json:"house_name"`
		TurnDuration string `json:"turn_duration,omitempty"`
		Seed         int64  `json:"seed,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	game, err := h.gameSvc.CreateGame(r.Context(), req.Name, playerID, req.HouseName, req.TurnDuration, req.Seed)
	if err != nil {
		if errors.Is(err, service.ErrHouseNameNeeded) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

// ListGames handles GET /api/v1/games
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	playerID := auth.PlayerIDFromContext(r.Context())
	filter := r.URL.Query().Get("filter")
	games, err := h.gameSvc.ListGames(r.Context(), playerID, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if games == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// GetGame handles GET /api/v1/games/{id}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	game, err := h.gameSvc.GetGame(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, service.ErrGameNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if game.Status == "active" {
		if count, err := h.turnSvc.ReadyCount(r.Context(), gameID); err == nil {
			game.ReadyCount = count
		}
	}
	writeJSON(w, http.StatusOK, game)
}

// JoinGame handles POST /api/v1/games/{id}/join
func (h *GameHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	playerID := auth.PlayerIDFromContext(r.Context())
	var req struct {
		HouseName string `json:"house_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.gameSvc.JoinGame(r.Context(), gameID, playerID, req.HouseName); err != nil {
		switch {
		case errors.Is(err, service.ErrGameNotFound):
			writeError(w, http.StatusNotFound, "game not found")
		case errors.Is(err, service.ErrGameNotWaiting),
			errors.Is(err, service.ErrGameFull),
			errors.Is(err, service.ErrAlreadyJoined),
			errors.Is(err, service.ErrHouseNameTaken),
			errors.Is(err, service.ErrHouseNameNeeded):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

// StartGame handles POST /api/v1/games/{id}/start
func (h *GameHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	playerID := auth.PlayerIDFromContext(r.Context())

	game, err := h.turnSvc.StartGame(r.Context(), gameID, playerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGameNotFound):
			writeError(w, http.StatusNotFound, "game not found")
		case errors.Is(err, service.ErrGameNotWaiting),
			errors.Is(err, service.ErrNotEnough):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotCreator):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// StopGame handles POST /api/v1/games/{id}/stop
func (h *GameHandler) StopGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	playerID := auth.PlayerIDFromContext(r.Context())

	game, err := h.gameSvc.StopGame(r.Context(), gameID, playerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGameNotFound):
			writeError(w, http.StatusNotFound, "game not found")
		case errors.Is(err, service.ErrGameNotActive):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotCreator):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// DeleteGame handles DELETE /api/v1/games/{id}
func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	playerID := auth.PlayerIDFromContext(r.Context())

	if err := h.gameSvc.DeleteGame(r.Context(), gameID, playerID); err != nil {
		switch {
		case errors.Is(err, service.ErrGameNotFound):
			writeError(w, http.StatusNotFound, "game not found")
		case errors.Is(err, service.ErrGameNotWaiting):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNotCreator):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
