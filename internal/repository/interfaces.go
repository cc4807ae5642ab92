package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/greenm01/ec4x-sub006/internal/model"
)

// GameRepository defines game and seat data operations.
type GameRepository interface {
	Create(ctx context.Context, id, name, creatorID, turnDur string, seed int64) (*model.Game, error)
	FindByID(ctx context.Context, id string) (*model.Game, error)
	ListOpen(ctx context.Context) ([]model.Game, error)
	ListByUser(ctx context.Context, userID string) ([]model.Game, error)
	ListActive(ctx context.Context) ([]model.Game, error)
	JoinGame(ctx context.Context, gameID, userID, houseName string) error
	PlayerCount(ctx context.Context, gameID string) (int, error)
	AssignHouses(ctx context.Context, gameID string, houseIDs map[string]uint32, rules json.RawMessage) error
	SetFinished(ctx context.Context, gameID, winner string) error
	Delete(ctx context.Context, gameID string) error
}

// TurnRepository defines the append-only turn log operations.
type TurnRepository interface {
	CreateTurn(ctx context.Context, gameID string, number int, stateBefore json.RawMessage, deadline time.Time) (*model.TurnRecord, error)
	CurrentTurn(ctx context.Context, gameID string) (*model.TurnRecord, error)
	FindTurn(ctx context.Context, gameID string, number int) (*model.TurnRecord, error)
	ListTurns(ctx context.Context, gameID string) ([]model.TurnRecord, error)
	ResolveTurn(ctx context.Context, turnID string, stateAfter, events json.RawMessage, stateHash string) error
	ListExpired(ctx context.Context) ([]model.TurnRecord, error)
}

// TurnCache defines live turn state operations (Redis).
type TurnCache interface {
	SetGameState(ctx context.Context, gameID string, state json.RawMessage) error
	GetGameState(ctx context.Context, gameID string) (json.RawMessage, error)
	SetPacket(ctx context.Context, gameID string, house uint32, packet json.RawMessage) error
	GetPacket(ctx context.Context, gameID string, house uint32) (json.RawMessage, error)
	GetAllPackets(ctx context.Context, gameID string, houses []uint32) (map[uint32]json.RawMessage, error)
	MarkReady(ctx context.Context, gameID string, house uint32) error
	UnmarkReady(ctx context.Context, gameID string, house uint32) error
	ReadyCount(ctx context.Context, gameID string) (int64, error)
	ReadyHouses(ctx context.Context, gameID string) ([]uint32, error)
	SetTimer(ctx context.Context, gameID string, deadline time.Time) error
	ClearTimer(ctx context.Context, gameID string) error
	ClearTurnData(ctx context.Context, gameID string, houses []uint32) error
	DeleteGameData(ctx context.Context, gameID string, houses []uint32) error
}
