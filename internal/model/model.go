package model

import (
	"encoding/json"
	"time"
)

// Game is one hosted EC4X game.
type Game struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	CreatorID    string          `json:"creator_id"`
	Status       string          `json:"status"` // waiting, active, finished
	Winner       string          `json:"winner,omitempty"`
	TurnDuration string          `json:"turn_duration"`
	Seed         int64           `json:"seed"`
	Rules        json.RawMessage `json:"rules,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	Players      []HousePlayer   `json:"players,omitempty"`
	ReadyCount   int             `json:"ready_count,omitempty"`
}

// HousePlayer is one seat in a game: a user and the house they command.
// HouseID is zero until the game starts and houses are minted.
type HousePlayer struct {
	GameID    string    `json:"game_id"`
	UserID    string    `json:"user_id"`
	HouseName string    `json:"house_name"`
	HouseID   uint32    `json:"house_id,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}

// TurnRecord is one row of the append-only turn log. StateBefore is the
// authoritative state when the turn opened; StateAfter and Events are set
// when the turn resolves. StateHash is the resolved state's digest, kept
// for replay verification.
type TurnRecord struct {
	ID          string          `json:"id"`
	GameID      string          `json:"game_id"`
	Number      int             `json:"number"`
	StateBefore json.RawMessage `json:"state_before"`
	StateAfter  json.RawMessage `json:"state_after,omitempty"`
	Events      json.RawMessage `json:"events,omitempty"`
	StateHash   string          `json:"state_hash,omitempty"`
	Deadline    time.Time       `json:"deadline"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
