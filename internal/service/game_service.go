package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/greenm01/ec4x-sub006/internal/model"
	"github.com/greenm01/ec4x-sub006/internal/repository"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrGameNotWaiting  = errors.New("game is not in waiting status")
	ErrGameNotActive   = errors.New("game is not active")
	ErrGameFull        = errors.New("game already has 12 houses")
	ErrNotEnough       = errors.New("need at least 2 houses to start")
	ErrNotCreator      = errors.New("only the creator can do that")
	ErrAlreadyJoined   = errors.New("already joined this game")
	ErrNotInGame       = errors.New("you are not in this game")
	ErrHouseNameTaken  = errors.New("house name already taken in this game")
	ErrHouseNameNeeded = errors.New("a house name is required to join")
)

// GameService handles lobby lifecycle: create, join, list, stop, delete.
// Starting a game and everything after is TurnService territory.
type GameService struct {
	gameRepo repository.GameRepository
}

// NewGameService creates a GameService.
func NewGameService(gameRepo repository.GameRepository) *GameService {
	return &GameService{gameRepo: gameRepo}
}

// CreateGame creates a new game in "waiting" status. The creator takes the
// first seat under the given house name. A zero seed stays zero and the
// engine derives one from the game id at start.
func (s *GameService) CreateGame(ctx context.Context, name, creatorID, houseName, turnDur string, seed int64) (*model.Game, error) {
	if houseName == "" {
		return nil, ErrHouseNameNeeded
	}
	turnDur = toPgInterval(turnDur, "24 hours")

	id := uuid.NewString()
	game, err := s.gameRepo.Create(ctx, id, name, creatorID, turnDur, seed)
	if err != nil {
		return nil, err
	}
	if err := s.gameRepo.JoinGame(ctx, game.ID, creatorID, houseName); err != nil {
		return nil, err
	}
	return s.gameRepo.FindByID(ctx, game.ID)
}

// JoinGame seats a player in a waiting game.
func (s *GameService) JoinGame(ctx context.Context, gameID, userID, houseName string) error {
	if houseName == "" {
		return ErrHouseNameNeeded
	}
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "waiting" {
		return ErrGameNotWaiting
	}
	for _, p := range game.Players {
		if p.UserID == userID {
			return ErrAlreadyJoined
		}
		if p.HouseName == houseName {
			return ErrHouseNameTaken
		}
	}

	count, err := s.gameRepo.PlayerCount(ctx, gameID)
	if err != nil {
		return err
	}
	if count >= 12 {
		return ErrGameFull
	}
	return s.gameRepo.JoinGame(ctx, gameID, userID, houseName)
}

// GetGame returns a game by ID.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// ListGames returns open games or games the user is in.
func (s *GameService) ListGames(ctx context.Context, userID string, filter string) ([]model.Game, error) {
	if filter == "my" {
		return s.gameRepo.ListByUser(ctx, userID)
	}
	return s.gameRepo.ListOpen(ctx)
}

// DeleteGame removes a waiting game. Only the creator can delete one.
func (s *GameService) DeleteGame(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "waiting" {
		return ErrGameNotWaiting
	}
	if game.CreatorID != userID {
		return ErrNotCreator
	}
	return s.gameRepo.Delete(ctx, gameID)
}

// StopGame ends an active game with no winner. Only the creator can stop one.
func (s *GameService) StopGame(ctx context.Context, gameID, userID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != "active" {
		return nil, ErrGameNotActive
	}
	if game.CreatorID != userID {
		return nil, ErrNotCreator
	}
	if err := s.gameRepo.SetFinished(ctx, gameID, ""); err != nil {
		return nil, err
	}
	return s.gameRepo.FindByID(ctx, gameID)
}

// toPgInterval converts Go-style duration strings (e.g. "5m", "1h") to
// PostgreSQL interval format. Returns defaultVal if input is empty or bad.
func toPgInterval(s, defaultVal string) string {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%d seconds", totalSeconds)
	}
	return fmt.Sprintf("%d minutes", totalSeconds/60)
}
