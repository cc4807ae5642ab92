package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/greenm01/ec4x-sub006/internal/model"
)

// GameRepo handles game and game_player database operations.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo creates a GameRepo.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

// Create inserts a new game in waiting status.
func (r *GameRepo) Create(ctx context.Context, id, name, creatorID, turnDur string, seed int64) (*model.Game, error) {
	var g model.Game
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO games (id, name, creator_id, turn_duration, seed)
		 VALUES ($1, $2, $3, $4::interval, $5)
		 RETURNING id, name, creator_id, status, turn_duration, seed, created_at`,
		id, name, creatorID, turnDur, seed,
	).Scan(&g.ID, &g.Name, &g.CreatorID, &g.Status, &g.TurnDuration, &g.Seed, &g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	return &g, nil
}

// FindByID returns a game by ID with its players.
func (r *GameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	var g model.Game
	var winner sql.NullString
	var rules []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, creator_id, status, winner, turn_duration, seed, rules,
		        created_at, started_at, finished_at
		 FROM games WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.CreatorID, &g.Status, &winner, &g.TurnDuration, &g.Seed, &rules,
		&g.CreatedAt, &g.StartedAt, &g.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	g.Winner = winner.String
	g.Rules = json.RawMessage(rules)

	players, err := r.ListPlayers(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Players = players
	return &g, nil
}

// ListOpen returns games in "waiting" status.
func (r *GameRepo) ListOpen(ctx context.Context) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, creator_id, status, turn_duration, seed, created_at
		 FROM games WHERE status = 'waiting' ORDER BY created_at DESC LIMIT 50`)
	if err != nil {
		return nil, fmt.Errorf("list open games: %w", err)
	}
	defer rows.Close()
	return scanGames(rows)
}

// ListByUser returns all games a user is part of (as player or creator).
func (r *GameRepo) ListByUser(ctx context.Context, userID string) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT g.id, g.name, g.creator_id, g.status, g.turn_duration, g.seed, g.created_at
		 FROM games g LEFT JOIN game_players gp ON g.id = gp.game_id AND gp.user_id = $1
		 WHERE gp.user_id = $1 OR g.creator_id = $1
		 ORDER BY g.created_at DESC LIMIT 50`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user games: %w", err)
	}
	defer rows.Close()
	return scanGames(rows)
}

// ListActive returns all games with status 'active', including their players.
func (r *GameRepo) ListActive(ctx context.Context) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, creator_id, status, turn_duration, seed, created_at
		 FROM games WHERE status = 'active' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list active games: %w", err)
	}
	defer rows.Close()

	games, err := scanGames(rows)
	if err != nil {
		return nil, err
	}
	for i := range games {
		players, err := r.ListPlayers(ctx, games[i].ID)
		if err != nil {
			return nil, err
		}
		games[i].Players = players
	}
	return games, nil
}

func scanGames(rows *sql.Rows) ([]model.Game, error) {
	var games []model.Game
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatorID, &g.Status, &g.TurnDuration, &g.Seed, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// JoinGame seats a player in a game under the given house name.
func (r *GameRepo) JoinGame(ctx context.Context, gameID, userID, houseName string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO game_players (game_id, user_id, house_name) VALUES ($1, $2, $3)
		 ON CONFLICT DO NOTHING`,
		gameID, userID, houseName,
	)
	if err != nil {
		return fmt.Errorf("join game: %w", err)
	}
	return nil
}

// ListPlayers returns all seats in a game in join order.
func (r *GameRepo) ListPlayers(ctx context.Context, gameID string) ([]model.HousePlayer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT game_id, user_id, house_name, COALESCE(house_id, 0), joined_at
		 FROM game_players WHERE game_id = $1 ORDER BY joined_at`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []model.HousePlayer
	for rows.Next() {
		var p model.HousePlayer
		if err := rows.Scan(&p.GameID, &p.UserID, &p.HouseName, &p.HouseID, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// PlayerCount returns the number of seats taken in a game.
func (r *GameRepo) PlayerCount(ctx context.Context, gameID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM game_players WHERE game_id = $1`, gameID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("player count: %w", err)
	}
	return count, nil
}

// AssignHouses records the minted house ids per seat, stores the rules the
// game was started with, and flips the game to active.
func (r *GameRepo) AssignHouses(ctx context.Context, gameID string, houseIDs map[string]uint32, rules json.RawMessage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for userID, houseID := range houseIDs {
		_, err := tx.ExecContext(ctx,
			`UPDATE game_players SET house_id = $1 WHERE game_id = $2 AND user_id = $3`,
			houseID, gameID, userID,
		)
		if err != nil {
			return fmt.Errorf("assign house: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE games SET status = 'active', started_at = now(), rules = $1 WHERE id = $2`,
		[]byte(rules), gameID,
	)
	if err != nil {
		return fmt.Errorf("update game status: %w", err)
	}

	return tx.Commit()
}

// SetFinished marks a game as finished.
func (r *GameRepo) SetFinished(ctx context.Context, gameID, winner string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = 'finished', winner = $1, finished_at = now() WHERE id = $2`,
		winner, gameID,
	)
	if err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	return nil
}

// Delete removes a game and all associated data (cascades to players and turns).
func (r *GameRepo) Delete(ctx context.Context, gameID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}
