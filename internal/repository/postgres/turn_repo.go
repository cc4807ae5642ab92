package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/greenm01/ec4x-sub006/internal/model"
)

// TurnRepo handles the append-only turn log.
type TurnRepo struct {
	db *sql.DB
}

// NewTurnRepo creates a TurnRepo.
func NewTurnRepo(db *sql.DB) *TurnRepo {
	return &TurnRepo{db: db}
}

// CreateTurn inserts the row for a newly opened turn.
func (r *TurnRepo) CreateTurn(ctx context.Context, gameID string, number int, stateBefore json.RawMessage, deadline time.Time) (*model.TurnRecord, error) {
	var t model.TurnRecord
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO turns (game_id, number, state_before, deadline)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, game_id, number, state_before, deadline, created_at`,
		gameID, number, []byte(stateBefore), deadline,
	).Scan(&t.ID, &t.GameID, &t.Number, &t.StateBefore, &t.Deadline, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create turn: %w", err)
	}
	return &t, nil
}

// CurrentTurn returns the latest unresolved turn for a game.
func (r *TurnRepo) CurrentTurn(ctx context.Context, gameID string) (*model.TurnRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, game_id, number, state_before, state_after, events, state_hash, deadline, resolved_at, created_at
		 FROM turns WHERE game_id = $1 AND resolved_at IS NULL
		 ORDER BY number DESC LIMIT 1`, gameID)
	return scanTurn(row)
}

// FindTurn returns one turn of a game by number.
func (r *TurnRepo) FindTurn(ctx context.Context, gameID string, number int) (*model.TurnRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, game_id, number, state_before, state_after, events, state_hash, deadline, resolved_at, created_at
		 FROM turns WHERE game_id = $1 AND number = $2`, gameID, number)
	return scanTurn(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTurn(row rowScanner) (*model.TurnRecord, error) {
	var t model.TurnRecord
	var stateAfter, events sql.NullString
	var hash sql.NullString
	err := row.Scan(&t.ID, &t.GameID, &t.Number, &t.StateBefore, &stateAfter, &events, &hash,
		&t.Deadline, &t.ResolvedAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan turn: %w", err)
	}
	if stateAfter.Valid {
		t.StateAfter = json.RawMessage(stateAfter.String)
	}
	if events.Valid {
		t.Events = json.RawMessage(events.String)
	}
	t.StateHash = hash.String
	return &t, nil
}

// ListTurns returns all turns of a game in order.
func (r *TurnRepo) ListTurns(ctx context.Context, gameID string) ([]model.TurnRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, game_id, number, state_before, state_after, events, state_hash, deadline, resolved_at, created_at
		 FROM turns WHERE game_id = $1 ORDER BY number`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []model.TurnRecord
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, *t)
	}
	return turns, rows.Err()
}

// ResolveTurn marks a turn as resolved with its outcome.
func (r *TurnRepo) ResolveTurn(ctx context.Context, turnID string, stateAfter, events json.RawMessage, stateHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE turns SET state_after = $1, events = $2, state_hash = $3, resolved_at = now() WHERE id = $4`,
		[]byte(stateAfter), []byte(events), stateHash, turnID,
	)
	if err != nil {
		return fmt.Errorf("resolve turn: %w", err)
	}
	return nil
}

// ListExpired returns the latest unresolved turn per active game whose
// deadline has passed. DISTINCT ON guards against orphaned older rows.
func (r *TurnRepo) ListExpired(ctx context.Context) ([]model.TurnRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT ON (t.game_id) t.id, t.game_id, t.number, t.state_before, t.deadline, t.created_at
		 FROM turns t
		 JOIN games g ON g.id = t.game_id
		 WHERE t.resolved_at IS NULL AND t.deadline < now() AND g.status = 'active'
		 ORDER BY t.game_id, t.number DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expired turns: %w", err)
	}
	defer rows.Close()

	var turns []model.TurnRecord
	for rows.Next() {
		var t model.TurnRecord
		if err := rows.Scan(&t.ID, &t.GameID, &t.Number, &t.StateBefore, &t.Deadline, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expired turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
