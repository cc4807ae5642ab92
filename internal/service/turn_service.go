package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/greenm01/ec4x-sub006/internal/model"
	"github.com/greenm01/ec4x-sub006/internal/repository"
	"github.com/greenm01/ec4x-sub006/pkg/ec4x"
)

// TurnService orchestrates the turn cycle: game start, packet submission,
// deadline-driven resolution, and the persisted turn log. It owns the
// in-memory engine and keeps it consistent with Postgres and Redis.
type TurnService struct {
	engine    *ec4x.Engine
	baseRules *ec4x.Rules

	gameRepo    repository.GameRepository
	turnRepo    repository.TurnRepository
	cache       repository.TurnCache
	broadcaster Broadcaster

	// gameLocks prevents concurrent resolution for the same game. The
	// keyspace listener, the poller, and an early all-ready close can all
	// fire at once; without locking they would race past the turn log.
	gameLocks sync.Map
}

// NewTurnService creates a TurnService around a fresh engine.
func NewTurnService(
	baseRules *ec4x.Rules,
	gameRepo repository.GameRepository,
	turnRepo repository.TurnRepository,
	cache repository.TurnCache,
	broadcaster Broadcaster,
) *TurnService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	if baseRules == nil {
		baseRules = ec4x.DefaultRules()
	}
	return &TurnService{
		engine:      ec4x.NewEngine(),
		baseRules:   baseRules,
		gameRepo:    gameRepo,
		turnRepo:    turnRepo,
		cache:       cache,
		broadcaster: broadcaster,
	}
}

func (s *TurnService) gameLock(gameID string) *sync.Mutex {
	v, _ := s.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// cloneRules deep-copies the base tables so the engine's per-game scaling
// never leaks between games.
func cloneRules(r *ec4x.Rules) (*ec4x.Rules, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal rules: %w", err)
	}
	out := &ec4x.Rules{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}
	return out, nil
}

// StartGame generates the starmap and houses, assigns each seat its house
// id, opens turn 0 in the log, and arms the deadline timer.
func (s *TurnService) StartGame(ctx context.Context, gameID, userID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != "waiting" {
		return nil, ErrGameNotWaiting
	}
	if game.CreatorID != userID {
		return nil, ErrNotCreator
	}
	if len(game.Players) < 2 {
		return nil, ErrNotEnough
	}

	rules, err := cloneRules(s.baseRules)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(game.Players))
	for i, p := range game.Players {
		names[i] = p.HouseName
	}

	_, state, _, err := s.engine.NewGame(ec4x.GameConfig{
		ID:         gameID,
		HouseNames: names,
		Seed:       uint64(game.Seed),
		Rules:      rules,
	})
	if err != nil {
		return nil, err
	}

	// houses are minted in seat order, so SortedHouses lines up with Players
	houseIDs := make(map[string]uint32, len(game.Players))
	for i, hid := range state.SortedHouses() {
		houseIDs[game.Players[i].UserID] = uint32(hid)
	}
	rulesJSON, err := json.Marshal(rules)
	if err != nil {
		return nil, fmt.Errorf("marshal game rules: %w", err)
	}
	if err := s.gameRepo.AssignHouses(ctx, gameID, houseIDs, rulesJSON); err != nil {
		return nil, err
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal initial state: %w", err)
	}
	deadline := time.Now().Add(parseDuration(game.TurnDuration))
	if _, err := s.turnRepo.CreateTurn(ctx, gameID, 0, stateJSON, deadline); err != nil {
		return nil, err
	}
	if err := s.cache.SetGameState(ctx, gameID, stateJSON); err != nil {
		return nil, fmt.Errorf("set game state: %w", err)
	}
	if err := s.cache.SetTimer(ctx, gameID, deadline); err != nil {
		return nil, fmt.Errorf("set timer: %w", err)
	}

	s.broadcaster.BroadcastGameEvent(gameID, "game_started", map[string]any{
		"turn":     0,
		"deadline": deadline.Format(time.RFC3339),
	})

	log.Info().Str("gameId", gameID).Int("houses", len(names)).
		Time("deadline", deadline).Msg("Game started")
	return s.gameRepo.FindByID(ctx, gameID)
}

// houseFor resolves a user's house id in a game.
func houseFor(game *model.Game, userID string) (ec4x.HouseID, error) {
	for _, p := range game.Players {
		if p.UserID == userID {
			return ec4x.HouseID(p.HouseID), nil
		}
	}
	return 0, ErrNotInGame
}

// SubmitCommands validates and stores a house's packet for the open turn.
// The packet is cached in Redis so a restart can replay it into the engine.
func (s *TurnService) SubmitCommands(ctx context.Context, gameID, userID string, raw json.RawMessage) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "active" {
		return ErrGameNotActive
	}
	house, err := houseFor(game, userID)
	if err != nil {
		return err
	}

	var pkt ec4x.CommandPacket
	if err := json.Unmarshal(raw, &pkt); err != nil {
		return &ec4x.ValidationError{Code: ec4x.ErrBadCommand, Message: "malformed command packet"}
	}
	// the authenticated seat decides the house, not the payload
	pkt.House = house

	if err := s.engine.SubmitCommands(gameID, house, &pkt, pkt.Turn); err != nil {
		return err
	}

	stored, err := json.Marshal(&pkt)
	if err != nil {
		return fmt.Errorf("marshal packet: %w", err)
	}
	if err := s.cache.SetPacket(ctx, gameID, uint32(house), stored); err != nil {
		return fmt.Errorf("cache packet: %w", err)
	}
	log.Debug().Str("gameId", gameID).Uint32("house", uint32(house)).
		Int("turn", pkt.Turn).Msg("Command packet accepted")
	return nil
}

// MarkReady records a house's ready mark and closes the turn early when
// every house that still owes a packet is ready.
func (s *TurnService) MarkReady(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "active" {
		return ErrGameNotActive
	}
	house, err := houseFor(game, userID)
	if err != nil {
		return err
	}
	if err := s.cache.MarkReady(ctx, gameID, uint32(house)); err != nil {
		return fmt.Errorf("mark ready: %w", err)
	}

	readyCount, err := s.cache.ReadyCount(ctx, gameID)
	if err != nil {
		return fmt.Errorf("ready count: %w", err)
	}
	needed, err := s.activeHouseCount(gameID)
	if err != nil {
		return err
	}
	s.broadcaster.BroadcastGameEvent(gameID, "player_ready", map[string]any{
		"ready_count":  readyCount,
		"total_houses": needed,
	})

	if int(readyCount) >= needed {
		log.Info().Str("gameId", gameID).Msg("All houses ready, closing turn early")
		return s.closeTurnInternal(ctx, gameID, true)
	}
	return nil
}

// UnmarkReady withdraws a house's ready mark.
func (s *TurnService) UnmarkReady(ctx context.Context, gameID, userID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return ErrGameNotFound
	}
	house, err := houseFor(game, userID)
	if err != nil {
		return err
	}
	return s.cache.UnmarkReady(ctx, gameID, uint32(house))
}

// ReadyCount returns the number of houses that have marked ready.
func (s *TurnService) ReadyCount(ctx context.Context, gameID string) (int, error) {
	count, err := s.cache.ReadyCount(ctx, gameID)
	return int(count), err
}

// activeHouseCount counts houses that must act this turn: not eliminated
// and not on autopilot.
func (s *TurnService) activeHouseCount(gameID string) (int, error) {
	state, err := s.engine.State(gameID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, hid := range state.SortedHouses() {
		h := state.Houses[hid]
		if !h.Eliminated && !h.Autopilot {
			n++
		}
	}
	return n, nil
}

// CloseDueTurn resolves a game's open turn once its deadline has passed.
// Used by the timer listener and the poller.
func (s *TurnService) CloseDueTurn(ctx context.Context, gameID string) error {
	return s.closeTurnInternal(ctx, gameID, false)
}

func (s *TurnService) closeTurnInternal(ctx context.Context, gameID string, early bool) error {
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("find game: %w", err)
	}
	if game == nil {
		return ErrGameNotFound
	}
	if game.Status != "active" {
		log.Info().Str("gameId", gameID).Str("status", game.Status).Msg("Skipping resolution for non-active game")
		return nil
	}

	rec, err := s.turnRepo.CurrentTurn(ctx, gameID)
	if err != nil {
		return fmt.Errorf("current turn: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("game %s has no open turn", gameID)
	}
	if !early && time.Now().Before(rec.Deadline) {
		log.Debug().Str("gameId", gameID).Time("deadline", rec.Deadline).Msg("Turn deadline not yet reached, skipping")
		return nil
	}

	log.Info().Str("gameId", gameID).Int("turn", rec.Number).Bool("early", early).Msg("Closing turn")

	res, err := s.engine.CloseTurn(gameID, rec.Number)
	if err != nil {
		return fmt.Errorf("close turn %d: %w", rec.Number, err)
	}

	stateAfter, err := json.Marshal(res.State)
	if err != nil {
		return fmt.Errorf("marshal state after: %w", err)
	}
	events, err := json.Marshal(res.Log)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}
	hash := strconv.FormatUint(res.Hash, 16)
	if err := s.turnRepo.ResolveTurn(ctx, rec.ID, stateAfter, events, hash); err != nil {
		return fmt.Errorf("persist turn result: %w", err)
	}

	houses := seatHouses(game)

	if res.State.Finished {
		winner := winnerName(res.State)
		log.Info().Str("gameId", gameID).Str("winner", winner).Msg("Game finished")
		if err := s.gameRepo.SetFinished(ctx, gameID, winner); err != nil {
			return fmt.Errorf("set finished: %w", err)
		}
		s.broadcaster.BroadcastGameEvent(gameID, "game_ended", map[string]any{
			"winner": winner,
			"turn":   rec.Number,
		})
		return s.cache.DeleteGameData(ctx, gameID, houses)
	}

	deadline := time.Now().Add(parseDuration(game.TurnDuration))
	if _, err := s.turnRepo.CreateTurn(ctx, gameID, res.State.Turn, stateAfter, deadline); err != nil {
		return fmt.Errorf("create next turn: %w", err)
	}
	if err := s.cache.ClearTurnData(ctx, gameID, houses); err != nil {
		return fmt.Errorf("clear turn data: %w", err)
	}
	if err := s.cache.SetGameState(ctx, gameID, stateAfter); err != nil {
		return fmt.Errorf("set new state: %w", err)
	}
	if err := s.cache.SetTimer(ctx, gameID, deadline); err != nil {
		return fmt.Errorf("set timer: %w", err)
	}
	if err := s.autoReadyInactiveHouses(ctx, gameID); err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to auto-ready inactive houses")
	}

	log.Info().Str("gameId", gameID).Int("turn", res.State.Turn).
		Time("deadline", deadline).Str("hash", hash).Msg("Turn opened")

	s.broadcaster.BroadcastGameEvent(gameID, "turn_resolved", map[string]any{
		"turn":     rec.Number,
		"next":     res.State.Turn,
		"deadline": deadline.Format(time.RFC3339),
	})
	// each seat gets its own filtered view, never anyone else's
	for _, p := range game.Players {
		if v, ok := res.Views[ec4x.HouseID(p.HouseID)]; ok {
			s.broadcaster.BroadcastToUserEvent(p.UserID, gameID, "view", v)
		}
	}
	return nil
}

// winnerName renders the winning house's name, or empty on a no-winner end.
func winnerName(state *ec4x.GameState) string {
	if h, ok := state.Houses[state.Winner]; ok {
		return h.Name
	}
	return ""
}

func seatHouses(game *model.Game) []uint32 {
	out := make([]uint32, 0, len(game.Players))
	for _, p := range game.Players {
		out = append(out, p.HouseID)
	}
	return out
}

// autoReadyInactiveHouses marks eliminated and autopilot houses ready so
// the turn never stalls waiting for a seat that cannot act.
func (s *TurnService) autoReadyInactiveHouses(ctx context.Context, gameID string) error {
	state, err := s.engine.State(gameID)
	if err != nil {
		return err
	}
	for _, hid := range state.SortedHouses() {
		h := state.Houses[hid]
		if h.Eliminated || h.Autopilot {
			if err := s.cache.MarkReady(ctx, gameID, uint32(hid)); err != nil {
				return fmt.Errorf("auto-ready house %d: %w", hid, err)
			}
		}
	}
	return nil
}

// GetView returns the caller's view for the current or a past turn.
// Pass turn -1 for the current view.
func (s *TurnService) GetView(ctx context.Context, gameID, userID string, turn int) (*ec4x.PlayerView, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	house, err := houseFor(game, userID)
	if err != nil {
		return nil, err
	}
	return s.engine.GetView(gameID, house, turn)
}

// ListTurns returns the resolved turn envelopes without their state blobs.
func (s *TurnService) ListTurns(ctx context.Context, gameID string) ([]model.TurnRecord, error) {
	turns, err := s.turnRepo.ListTurns(ctx, gameID)
	if err != nil {
		return nil, err
	}
	for i := range turns {
		turns[i].StateBefore = nil
		turns[i].StateAfter = nil
	}
	return turns, nil
}

// RecoverActiveGames rehydrates the engine and Redis for all active games
// after a restart, replaying any packets submitted before it.
func (s *TurnService) RecoverActiveGames(ctx context.Context) error {
	games, err := s.gameRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active games: %w", err)
	}
	if len(games) == 0 {
		log.Info().Msg("No active games to recover")
		return nil
	}
	log.Info().Int("count", len(games)).Msg("Recovering active games after restart")

	for _, game := range games {
		rec, err := s.turnRepo.CurrentTurn(ctx, game.ID)
		if err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to get current turn during recovery")
			continue
		}
		if rec == nil {
			log.Warn().Str("gameId", game.ID).Msg("Active game has no open turn, skipping")
			continue
		}

		var state ec4x.GameState
		if err := json.Unmarshal(rec.StateBefore, &state); err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to unmarshal state for recovery")
			continue
		}
		state.Reindex()

		var rules *ec4x.Rules
		if len(game.Rules) > 0 {
			rules = &ec4x.Rules{}
			if err := json.Unmarshal(game.Rules, rules); err != nil {
				log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to unmarshal rules for recovery")
				continue
			}
		}
		if err := s.engine.LoadGame(&state, rules); err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to load game into engine")
			continue
		}

		if err := s.cache.SetGameState(ctx, game.ID, rec.StateBefore); err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore game state")
			continue
		}
		if time.Now().Before(rec.Deadline) {
			if err := s.cache.SetTimer(ctx, game.ID, rec.Deadline); err != nil {
				log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore timer")
			}
		}

		s.replayCachedPackets(ctx, &game, state.Turn)
		if err := s.autoReadyInactiveHouses(ctx, game.ID); err != nil {
			log.Warn().Err(err).Str("gameId", game.ID).Msg("Failed to auto-ready inactive houses during recovery")
		}

		log.Info().Str("gameId", game.ID).Int("turn", rec.Number).
			Time("deadline", rec.Deadline).Msg("Recovered game")
	}
	return nil
}

// replayCachedPackets feeds packets cached in Redis back into the engine.
// The engine's packet map is in-memory only, so it empties on restart.
func (s *TurnService) replayCachedPackets(ctx context.Context, game *model.Game, turn int) {
	raw, err := s.cache.GetAllPackets(ctx, game.ID, seatHouses(game))
	if err != nil {
		log.Warn().Err(err).Str("gameId", game.ID).Msg("Failed to read cached packets")
		return
	}
	for house, data := range raw {
		var pkt ec4x.CommandPacket
		if err := json.Unmarshal(data, &pkt); err != nil {
			log.Warn().Uint32("house", house).Str("gameId", game.ID).Msg("Invalid cached packet, dropping")
			continue
		}
		if pkt.Turn != turn {
			continue // stale packet from before the restart's last close
		}
		if err := s.engine.SubmitCommands(game.ID, ec4x.HouseID(house), &pkt, pkt.Turn); err != nil {
			log.Warn().Err(err).Uint32("house", house).Str("gameId", game.ID).Msg("Cached packet rejected on replay")
		}
	}
}

// parseDuration converts Postgres interval strings like "24:00:00" or Go
// duration strings like "5m" to time.Duration.
func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err == nil {
		return d
	}
	parts := strings.Split(s, ":")
	if len(parts) == 3 {
		h, e1 := strconv.Atoi(parts[0])
		m, e2 := strconv.Atoi(parts[1])
		sec, e3 := strconv.Atoi(parts[2])
		if e1 == nil && e2 == nil && e3 == nil {
			return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
		}
	}
	return 24 * time.Hour
}
