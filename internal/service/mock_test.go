package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/greenm01/ec4x-sub006/internal/model"
)

// In-memory fakes for the repository interfaces. They mirror the Postgres
// and Redis behavior closely enough for service-level tests.

type mockGameRepo struct {
	mu    sync.Mutex
	games map[string]*model.Game
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{games: make(map[string]*model.Game)}
}

func (m *mockGameRepo) Create(ctx context.Context, id, name, creatorID, turnDur string, seed int64) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := &model.Game{
		ID: id, Name: name, CreatorID: creatorID, Status: "waiting",
		TurnDuration: turnDur, Seed: seed, CreatedAt: time.Now(),
	}
	m.games[id] = g
	return copyGame(g), nil
}

func (m *mockGameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	return copyGame(g), nil
}

func (m *mockGameRepo) ListOpen(ctx context.Context) ([]model.Game, error) {
	return m.list(func(g *model.Game) bool { return g.Status == "waiting" })
}

func (m *mockGameRepo) ListByUser(ctx context.Context, userID string) ([]model.Game, error) {
	return m.list(func(g *model.Game) bool {
		for _, p := range g.Players {
			if p.UserID == userID {
				return true
			}
		}
		return false
	})
}

func (m *mockGameRepo) ListActive(ctx context.Context) ([]model.Game, error) {
	return m.list(func(g *model.Game) bool { return g.Status == "active" })
}

func (m *mockGameRepo) list(keep func(*model.Game) bool) ([]model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Game
	for _, g := range m.games {
		if keep(g) {
			out = append(out, *copyGame(g))
		}
	}
	return out, nil
}

func (m *mockGameRepo) JoinGame(ctx context.Context, gameID, userID, houseName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("game %s not found", gameID)
	}
	g.Players = append(g.Players, model.HousePlayer{
		GameID: gameID, UserID: userID, HouseName: houseName, JoinedAt: time.Now(),
	})
	return nil
}

func (m *mockGameRepo) PlayerCount(ctx context.Context, gameID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return 0, nil
	}
	return len(g.Players), nil
}

func (m *mockGameRepo) AssignHouses(ctx context.Context, gameID string, houseIDs map[string]uint32, rules json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("game %s not found", gameID)
	}
	for i := range g.Players {
		if hid, ok := houseIDs[g.Players[i].UserID]; ok {
			g.Players[i].HouseID = hid
		}
	}
	g.Rules = rules
	g.Status = "active"
	now := time.Now()
	g.StartedAt = &now
	return nil
}

func (m *mockGameRepo) SetFinished(ctx context.Context, gameID, winner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return fmt.Errorf("game %s not found", gameID)
	}
	g.Status = "finished"
	g.Winner = winner
	now := time.Now()
	g.FinishedAt = &now
	return nil
}

func (m *mockGameRepo) Delete(ctx context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, gameID)
	return nil
}

func copyGame(g *model.Game) *model.Game {
	out := *g
	out.Players = append([]model.HousePlayer(nil), g.Players...)
	return &out
}

type mockTurnRepo struct {
	mu    sync.Mutex
	turns map[string][]*model.TurnRecord
	next  int
}

func newMockTurnRepo() *mockTurnRepo {
	return &mockTurnRepo{turns: make(map[string][]*model.TurnRecord)}
}

func (m *mockTurnRepo) CreateTurn(ctx context.Context, gameID string, number int, stateBefore json.RawMessage, deadline time.Time) (*model.TurnRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	rec := &model.TurnRecord{
		ID: fmt.Sprintf("turn-%d", m.next), GameID: gameID, Number: number,
		StateBefore: stateBefore, Deadline: deadline, CreatedAt: time.Now(),
	}
	m.turns[gameID] = append(m.turns[gameID], rec)
	return copyTurn(rec), nil
}

func (m *mockTurnRepo) CurrentTurn(ctx context.Context, gameID string) (*model.TurnRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.turns[gameID]
	if len(recs) == 0 {
		return nil, nil
	}
	return copyTurn(recs[len(recs)-1]), nil
}

func (m *mockTurnRepo) FindTurn(ctx context.Context, gameID string, number int) (*model.TurnRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.turns[gameID] {
		if rec.Number == number {
			return copyTurn(rec), nil
		}
	}
	return nil, nil
}

func (m *mockTurnRepo) ListTurns(ctx context.Context, gameID string) ([]model.TurnRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.TurnRecord, 0, len(m.turns[gameID]))
	for _, rec := range m.turns[gameID] {
		out = append(out, *copyTurn(rec))
	}
	return out, nil
}

func (m *mockTurnRepo) ResolveTurn(ctx context.Context, turnID string, stateAfter, events json.RawMessage, stateHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, recs := range m.turns {
		for _, rec := range recs {
			if rec.ID == turnID {
				rec.StateAfter = stateAfter
				rec.Events = events
				rec.StateHash = stateHash
				now := time.Now()
				rec.ResolvedAt = &now
				return nil
			}
		}
	}
	return fmt.Errorf("turn %s not found", turnID)
}

func (m *mockTurnRepo) ListExpired(ctx context.Context) ([]model.TurnRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.TurnRecord
	now := time.Now()
	for _, recs := range m.turns {
		rec := recs[len(recs)-1]
		if rec.ResolvedAt == nil && rec.Deadline.Before(now) {
			out = append(out, *copyTurn(rec))
		}
	}
	return out, nil
}

func copyTurn(rec *model.TurnRecord) *model.TurnRecord {
	out := *rec
	return &out
}

type mockTurnCache struct {
	mu      sync.Mutex
	states  map[string]json.RawMessage
	packets map[string]json.RawMessage // gameID/house
	ready   map[string]map[uint32]bool
	timers  map[string]time.Time
}

func newMockTurnCache() *mockTurnCache {
	return &mockTurnCache{
		states:  make(map[string]json.RawMessage),
		packets: make(map[string]json.RawMessage),
		ready:   make(map[string]map[uint32]bool),
		timers:  make(map[string]time.Time),
	}
}

func packetKey(gameID string, house uint32) string {
	return fmt.Sprintf("%s/%d", gameID, house)
}

func (m *mockTurnCache) SetGameState(ctx context.Context, gameID string, state json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[gameID] = state
	return nil
}

func (m *mockTurnCache) GetGameState(ctx context.Context, gameID string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[gameID], nil
}

func (m *mockTurnCache) SetPacket(ctx context.Context, gameID string, house uint32, packet json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packets[packetKey(gameID, house)] = packet
	return nil
}

func (m *mockTurnCache) GetPacket(ctx context.Context, gameID string, house uint32) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.packets[packetKey(gameID, house)], nil
}

func (m *mockTurnCache) GetAllPackets(ctx context.Context, gameID string, houses []uint32) (map[uint32]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uint32]json.RawMessage)
	for _, h := range houses {
		if p, ok := m.packets[packetKey(gameID, h)]; ok {
			out[h] = p
		}
	}
	return out, nil
}

func (m *mockTurnCache) MarkReady(ctx context.Context, gameID string, house uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ready[gameID] == nil {
		m.ready[gameID] = make(map[uint32]bool)
	}
	m.ready[gameID][house] = true
	return nil
}

func (m *mockTurnCache) UnmarkReady(ctx context.Context, gameID string, house uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ready[gameID], house)
	return nil
}

func (m *mockTurnCache) ReadyCount(ctx context.Context, gameID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.ready[gameID])), nil
}

func (m *mockTurnCache) ReadyHouses(ctx context.Context, gameID string) ([]uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uint32
	for h := range m.ready[gameID] {
		out = append(out, h)
	}
	return out, nil
}

func (m *mockTurnCache) SetTimer(ctx context.Context, gameID string, deadline time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timers[gameID] = deadline
	return nil
}

func (m *mockTurnCache) ClearTimer(ctx context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.timers, gameID)
	return nil
}

func (m *mockTurnCache) ClearTurnData(ctx context.Context, gameID string, houses []uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range houses {
		delete(m.packets, packetKey(gameID, h))
	}
	delete(m.ready, gameID)
	delete(m.timers, gameID)
	return nil
}

func (m *mockTurnCache) DeleteGameData(ctx context.Context, gameID string, houses []uint32) error {
	if err := m.ClearTurnData(ctx, gameID, houses); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, gameID)
	return nil
}

type broadcastEvent struct {
	UserID    string
	GameID    string
	EventType string
	Data      any
}

type mockBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (m *mockBroadcaster) BroadcastGameEvent(gameID string, eventType string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, broadcastEvent{GameID: gameID, EventType: eventType, Data: data})
}

func (m *mockBroadcaster) BroadcastToUserEvent(userID string, gameID string, eventType string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, broadcastEvent{UserID: userID, GameID: gameID, EventType: eventType, Data: data})
}

func (m *mockBroadcaster) eventsOfType(eventType string) []broadcastEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []broadcastEvent
	for _, e := range m.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
