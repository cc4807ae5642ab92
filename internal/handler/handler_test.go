package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/greenm01/ec4x-sub006/internal/auth"
	"github.com/greenm01/ec4x-sub006/internal/model"
	"github.com/greenm01/ec4x-sub006/internal/service"
)

// End-to-end tests over the HTTP surface with in-memory stores. Identity is
// injected from the X-Test-User header instead of a JWT.

type fakeGameRepo struct {
	mu    sync.Mutex
	games map[string]*model.Game
}

func (f *fakeGameRepo) Create(ctx context.Context, id, name, creatorID, turnDur string, seed int64) (*model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := &model.Game{ID: id, Name: name, CreatorID: creatorID, Status: "waiting",
		TurnDuration: turnDur, Seed: seed, CreatedAt: time.Now()}
	f.games[id] = g
	return f.copyLocked(id), nil
}

func (f *fakeGameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copyLocked(id), nil
}

func (f *fakeGameRepo) copyLocked(id string) *model.Game {
	g, ok := f.games[id]
	if !ok {
		return nil
	}
	out := *g
	out.Players = append([]model.HousePlayer(nil), g.Players...)
	return &out
}

func (f *fakeGameRepo) ListOpen(ctx context.Context) ([]model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Game
	for id, g := range f.games {
		if g.Status == "waiting" {
			out = append(out, *f.copyLocked(id))
		}
	}
	return out, nil
}

func (f *fakeGameRepo) ListByUser(ctx context.Context, userID string) ([]model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Game
	for id, g := range f.games {
		for _, p := range g.Players {
			if p.UserID == userID {
				out = append(out, *f.copyLocked(id))
				break
			}
		}
	}
	return out, nil
}

func (f *fakeGameRepo) ListActive(ctx context.Context) ([]model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Game
	for id, g := range f.games {
		if g.Status == "active" {
			out = append(out, *f.copyLocked(id))
		}
	}
	return out, nil
}

func (f *fakeGameRepo) JoinGame(ctx context.Context, gameID, userID, houseName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.games[gameID]
	g.Players = append(g.Players, model.HousePlayer{GameID: gameID, UserID: userID,
		HouseName: houseName, JoinedAt: time.Now()})
	return nil
}

func (f *fakeGameRepo) PlayerCount(ctx context.Context, gameID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.games[gameID].Players), nil
}

func (f *fakeGameRepo) AssignHouses(ctx context.Context, gameID string, houseIDs map[string]uint32, rules json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.games[gameID]
	for i := range g.Players {
		g.Players[i].HouseID = houseIDs[g.Players[i].UserID]
	}
	g.Rules = rules
	g.Status = "active"
	return nil
}

func (f *fakeGameRepo) SetFinished(ctx context.Context, gameID, winner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.games[gameID]
	g.Status = "finished"
	g.Winner = winner
	return nil
}

func (f *fakeGameRepo) Delete(ctx context.Context, gameID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.games, gameID)
	return nil
}

type fakeTurnRepo struct {
	mu   sync.Mutex
	recs map[string][]*model.TurnRecord
	seq  int
}

func (f *fakeTurnRepo) CreateTurn(ctx context.Context, gameID string, number int, stateBefore json.RawMessage, deadline time.Time) (*model.TurnRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	rec := &model.TurnRecord{ID: fmt.Sprintf("t%d", f.seq), GameID: gameID, Number: number,
		StateBefore: stateBefore, Deadline: deadline, CreatedAt: time.Now()}
	f.recs[gameID] = append(f.recs[gameID], rec)
	out := *rec
	return &out, nil
}

func (f *fakeTurnRepo) CurrentTurn(ctx context.Context, gameID string) (*model.TurnRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rs := f.recs[gameID]
	if len(rs) == 0 {
		return nil, nil
	}
	out := *rs[len(rs)-1]
	return &out, nil
}

func (f *fakeTurnRepo) FindTurn(ctx context.Context, gameID string, number int) (*model.TurnRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recs[gameID] {
		if r.Number == number {
			out := *r
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeTurnRepo) ListTurns(ctx context.Context, gameID string) ([]model.TurnRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.TurnRecord
	for _, r := range f.recs[gameID] {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeTurnRepo) ResolveTurn(ctx context.Context, turnID string, stateAfter, events json.RawMessage, stateHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rs := range f.recs {
		for _, r := range rs {
			if r.ID == turnID {
				r.StateAfter = stateAfter
				r.Events = events
				r.StateHash = stateHash
				now := time.Now()
				r.ResolvedAt = &now
				return nil
			}
		}
	}
	return fmt.Errorf("turn %s not found", turnID)
}

func (f *fakeTurnRepo) ListExpired(ctx context.Context) ([]model.TurnRecord, error) {
	return nil, nil
}

type fakeTurnCache struct {
	mu      sync.Mutex
	states  map[string]json.RawMessage
	packets map[string]json.RawMessage
	ready   map[string]map[uint32]bool
}

func newFakeTurnCache() *fakeTurnCache {
	return &fakeTurnCache{
		states:  make(map[string]json.RawMessage),
		packets: make(map[string]json.RawMessage),
		ready:   make(map[string]map[uint32]bool),
	}
}

func (f *fakeTurnCache) SetGameState(ctx context.Context, gameID string, state json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[gameID] = state
	return nil
}

func (f *fakeTurnCache) GetGameState(ctx context.Context, gameID string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[gameID], nil
}

func (f *fakeTurnCache) SetPacket(ctx context.Context, gameID string, house uint32, packet json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.packets[fmt.Sprintf("%s/%d", gameID, house)] = packet
	return nil
}

func (f *fakeTurnCache) GetPacket(ctx context.Context, gameID string, house uint32) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.packets[fmt.Sprintf("%s/%d", gameID, house)], nil
}

func (f *fakeTurnCache) GetAllPackets(ctx context.Context, gameID string, houses []uint32) (map[uint32]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uint32]json.RawMessage)
	for _, h := range houses {
		if p, ok := f.packets[fmt.Sprintf("%s/%d", gameID, h)]; ok {
			out[h] = p
		}
	}
	return out, nil
}

func (f *fakeTurnCache) MarkReady(ctx context.Context, gameID string, house uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ready[gameID] == nil {
		f.ready[gameID] = make(map[uint32]bool)
	}
	f.ready[gameID][house] = true
	return nil
}

func (f *fakeTurnCache) UnmarkReady(ctx context.Context, gameID string, house uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ready[gameID], house)
	return nil
}

func (f *fakeTurnCache) ReadyCount(ctx context.Context, gameID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.ready[gameID])), nil
}

func (f *fakeTurnCache) ReadyHouses(ctx context.Context, gameID string) ([]uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []uint32
	for h := range f.ready[gameID] {
		out = append(out, h)
	}
	return out, nil
}

func (f *fakeTurnCache) SetTimer(ctx context.Context, gameID string, deadline time.Time) error {
	return nil
}

func (f *fakeTurnCache) ClearTimer(ctx context.Context, gameID string) error { return nil }

func (f *fakeTurnCache) ClearTurnData(ctx context.Context, gameID string, houses []uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range houses {
		delete(f.packets, fmt.Sprintf("%s/%d", gameID, h))
	}
	delete(f.ready, gameID)
	return nil
}

func (f *fakeTurnCache) DeleteGameData(ctx context.Context, gameID string, houses []uint32) error {
	f.ClearTurnData(ctx, gameID, houses)
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, gameID)
	return nil
}

// testServer wires the real handlers and services over the fakes.
func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	gameRepo := &fakeGameRepo{games: make(map[string]*model.Game)}
	turnRepo := &fakeTurnRepo{recs: make(map[string][]*model.TurnRecord)}
	cache := newFakeTurnCache()

	gameSvc := service.NewGameService(gameRepo)
	turnSvc := service.NewTurnService(nil, gameRepo, turnRepo, cache, nil)

	gameHandler := NewGameHandler(gameSvc, turnSvc)
	commandHandler := NewCommandHandler(turnSvc)
	viewHandler := NewViewHandler(turnSvc)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /games", gameHandler.CreateGame)
	mux.HandleFunc("GET /games", gameHandler.ListGames)
	mux.HandleFunc("GET /games/{id}", gameHandler.GetGame)
	mux.HandleFunc("POST /games/{id}/join", gameHandler.JoinGame)
	mux.HandleFunc("POST /games/{id}/start", gameHandler.StartGame)
	mux.HandleFunc("POST /games/{id}/stop", gameHandler.StopGame)
	mux.HandleFunc("DELETE /games/{id}", gameHandler.DeleteGame)
	mux.HandleFunc("POST /games/{id}/commands", commandHandler.SubmitCommands)
	mux.HandleFunc("POST /games/{id}/commands/ready", commandHandler.MarkReady)
	mux.HandleFunc("DELETE /games/{id}/commands/ready", commandHandler.UnmarkReady)
	mux.HandleFunc("GET /games/{id}/view", viewHandler.GetView)
	mux.HandleFunc("GET /games/{id}/turns", viewHandler.ListTurns)

	identity := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u := r.Header.Get("X-Test-User"); u != "" {
				r = r.WithContext(auth.SetPlayerIDForTest(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}

	srv := httptest.NewServer(identity(mux))
	t.Cleanup(srv.Close)
	return srv
}

func doReq(t *testing.T, srv *httptest.Server, method, path, user, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func TestGameLifecycleOverHTTP(t *testing.T) {
	srv := testServer(t)

	// create
	status, body := doReq(t, srv, http.MethodPost, "/games", "alice",
		`{"name":"test game","house_name":"Atreides","seed":7}`)
	if status != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", status, body)
	}
	var game model.Game
	if err := json.Unmarshal(body, &game); err != nil {
		t.Fatalf("decode game: %v", err)
	}
	if game.Status != "waiting" {
		t.Errorf("expected waiting, got %s", game.Status)
	}

	// join
	status, body = doReq(t, srv, http.MethodPost, "/games/"+game.ID+"/join", "bob",
		`{"house_name":"Harkonnen"}`)
	if status != http.StatusOK {
		t.Fatalf("join: expected 200, got %d: %s", status, body)
	}

	// only the creator may start
	status, _ = doReq(t, srv, http.MethodPost, "/games/"+game.ID+"/start", "bob", "")
	if status != http.StatusForbidden {
		t.Errorf("start by non-creator: expected 403, got %d", status)
	}
	status, body = doReq(t, srv, http.MethodPost, "/games/"+game.ID+"/start", "alice", "")
	if status != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", status, body)
	}

	// both seats submit and ready up
	status, body = doReq(t, srv, http.MethodPost, "/games/"+game.ID+"/commands", "alice", `{"turn":0}`)
	if status != http.StatusOK {
		t.Fatalf("submit alice: expected 200, got %d: %s", status, body)
	}
	status, body = doReq(t, srv, http.MethodPost, "/games/"+game.ID+"/commands", "bob", `{"turn":0}`)
	if status != http.StatusOK {
		t.Fatalf("submit bob: expected 200, got %d: %s", status, body)
	}
	status, _ = doReq(t, srv, http.MethodPost, "/games/"+game.ID+"/commands/ready", "alice", "")
	if status != http.StatusOK {
		t.Fatalf("ready alice: expected 200, got %d", status)
	}
	status, _ = doReq(t, srv, http.MethodPost, "/games/"+game.ID+"/commands/ready", "bob", "")
	if status != http.StatusOK {
		t.Fatalf("ready bob: expected 200, got %d", status)
	}

	// the turn resolved, both the log and the view reflect turn 1
	status, body = doReq(t, srv, http.MethodGet, "/games/"+game.ID+"/turns", "alice", "")
	if status != http.StatusOK {
		t.Fatalf("turns: expected 200, got %d", status)
	}
	var turns []model.TurnRecord
	if err := json.Unmarshal(body, &turns); err != nil {
		t.Fatalf("decode turns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turn records, got %d", len(turns))
	}
	if turns[0].StateBefore != nil {
		t.Error("turn log should not include state blobs")
	}

	status, body = doReq(t, srv, http.MethodGet, "/games/"+game.ID+"/view", "alice", "")
	if status != http.StatusOK {
		t.Fatalf("view: expected 200, got %d: %s", status, body)
	}
	var view struct {
		Turn int `json:"turn"`
	}
	if err := json.Unmarshal(body, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.Turn != 1 {
		t.Errorf("expected view for turn 1, got %d", view.Turn)
	}
}

func TestSubmitCommandsValidationErrorShape(t *testing.T) {
	srv := testServer(t)

	_, body := doReq(t, srv, http.MethodPost, "/games", "alice",
		`{"name":"test","house_name":"Atreides"}`)
	var game model.Game
	json.Unmarshal(body, &game)
	doReq(t, srv, http.MethodPost, "/games/"+game.ID+"/join", "bob", `{"house_name":"Harkonnen"}`)
	doReq(t, srv, http.MethodPost, "/games/"+game.ID+"/start", "alice", "")

	// submitting for a closed turn yields a structured validation error
	status, body := doReq(t, srv, http.MethodPost, "/games/"+game.ID+"/commands", "alice", `{"turn":9}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", status, body)
	}
	var verr struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &verr); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if verr.Code == "" {
		t.Errorf("expected a validation error code, got %s", body)
	}
}

func TestViewForbiddenForStrangers(t *testing.T) {
	srv := testServer(t)

	_, body := doReq(t, srv, http.MethodPost, "/games", "alice",
		`{"name":"test","house_name":"Atreides"}`)
	var game model.Game
	json.Unmarshal(body, &game)
	doReq(t, srv, http.MethodPost, "/games/"+game.ID+"/join", "bob", `{"house_name":"Harkonnen"}`)
	doReq(t, srv, http.MethodPost, "/games/"+game.ID+"/start", "alice", "")

	status, _ := doReq(t, srv, http.MethodGet, "/games/"+game.ID+"/view", "mallory", "")
	if status != http.StatusForbidden {
		t.Errorf("expected 403 for a non-player, got %d", status)
	}
}

func TestGetGameNotFound(t *testing.T) {
	srv := testServer(t)
	status, _ := doReq(t, srv, http.MethodGet, "/games/no-such-id", "alice", "")
	if status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}
