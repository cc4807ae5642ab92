package ec4x

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// GameConfig is everything needed to start a game. Rules defaults to the
// stock tables when nil; a zero Seed is replaced with one derived from the
// game id so replays stay reproducible either way. An empty ID mints a
// fresh UUID; callers that persist the game elsewhere can fix it up front.
type GameConfig struct {
	ID         string   `json:"id,omitempty"`
	HouseNames []string `json:"house_names"` // 2..12 entries
	Seed       uint64   `json:"seed"`
	Rules      *Rules   `json:"rules,omitempty"`
}

// Engine hosts game instances and exposes the stable four-call contract:
// NewGame, SubmitCommands, CloseTurn, GetView.
type Engine struct {
	mu    sync.RWMutex
	games map[string]*gameInstance
}

type gameInstance struct {
	mu       sync.Mutex
	state    *GameState
	rules    *Rules
	doctrine *Doctrine

	packets map[HouseID]*CommandPacket
	results map[int]*TurnResult // resolved turns, keyed by the turn they closed
	views   map[HouseID]*PlayerView
	prev    map[HouseID]*PlayerView
}

// NewEngine returns an empty engine.
func NewEngine() *Engine {
	return &Engine{games: make(map[string]*gameInstance)}
}

// NewGame creates a game, generates its starmap and homeworlds, and
// returns the id, the initial state, and the per-house starting views.
func (e *Engine) NewGame(cfg GameConfig) (string, *GameState, map[HouseID]*PlayerView, error) {
	if len(cfg.HouseNames) < 2 || len(cfg.HouseNames) > 12 {
		return "", nil, nil, &ValidationError{Code: ErrBadCommand,
			Message: fmt.Sprintf("need 2..12 houses, got %d", len(cfg.HouseNames))}
	}
	rules := cfg.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	doctrine, err := CompileDoctrine(rules.AutopilotDoctrine)
	if err != nil {
		return "", nil, nil, err
	}

	gameID := cfg.ID
	if gameID == "" {
		gameID = uuid.NewString()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = SubSeed(0, 0, gameID)
	}

	gs := NewGameState(gameID, seed)
	homeworlds := GenerateStarmap(gs, len(cfg.HouseNames))
	for i, name := range cfg.HouseNames {
		setupHouse(gs, rules, name, homeworlds[i])
	}
	gs.Reindex()
	// map size fixes the prestige scale for the whole game
	rules.MapScale = 1.0 + 0.1*float64(MapRadius(len(cfg.HouseNames))-3)

	inst := &gameInstance{
		state: gs, rules: rules, doctrine: doctrine,
		packets: make(map[HouseID]*CommandPacket),
		results: make(map[int]*TurnResult),
		views:   ProjectViews(gs, rules, nil),
		prev:    make(map[HouseID]*PlayerView),
	}
	e.mu.Lock()
	e.games[gameID] = inst
	e.mu.Unlock()
	return gameID, gs, inst.views, nil
}

// setupHouse creates one house with its homeworld colony and starting fleet.
func setupHouse(gs *GameState, rules *Rules, name string, home SystemID) {
	h := &House{
		ID: gs.IDs.House(), Name: name, Homeworld: home,
		Treasury: 500, TaxRate: 50, Prestige: 50,
		Tech:      TechState{Tiers: make(map[TechField]int)},
		Relations: make(map[HouseID]Relation),
	}
	gs.Houses[h.ID] = h

	c := &Colony{
		ID: gs.IDs.Colony(), System: home, Owner: h.ID,
		PU: 400, IU: 150, Infrastructure: 3, TaxOverride: -1,
	}
	c.Souls = c.PU * 1_000_000
	gs.Colonies[c.ID] = c

	for _, class := range []string{FacSpaceport, FacShipyard} {
		def := rules.Facilities[class]
		f := &Facility{ID: gs.IDs.Facility(), Class: class, Kind: def.Kind, Colony: c.ID, Tier: 1}
		gs.Facilities[f.ID] = f
		c.Facilities = append(c.Facilities, f.ID)
	}
	for _, class := range []string{GroundArmy, GroundArmy, GroundBattery} {
		def := rules.GroundClasses[class]
		g := &GroundUnit{ID: gs.IDs.GroundUnit(), Class: class, Kind: def.Kind, Owner: h.ID, Colony: c.ID}
		gs.GroundUnits[g.ID] = g
		c.Ground = append(c.Ground, g.ID)
	}

	fleet := &Fleet{ID: gs.IDs.Fleet(), Owner: h.ID, System: home, ROE: 5}
	gs.Fleets[fleet.ID] = fleet
	for _, class := range []string{ShipScout, ShipCorvette, ShipCorvette, ShipFrigate, ShipETAC} {
		cls := rules.ShipClasses[class]
		s := &Ship{ID: gs.IDs.Ship(), Class: class, Owner: h.ID, Fleet: fleet.ID}
		if cls.ETAC {
			s.Cargo = Cargo{Type: CargoColonists, Quantity: 50}
		}
		gs.Ships[s.ID] = s
		sq := &Squadron{ID: gs.IDs.Squadron(), Owner: h.ID, Flagship: s.ID, Bucket: cls.Bucket}
		gs.Squadrons[sq.ID] = sq
		s.Squadron = sq.ID
		fleet.Squadrons = append(fleet.Squadrons, sq.ID)
	}
}

// LoadGame rehydrates a persisted game into the engine, replacing any
// instance already registered under the same id. Views are rebuilt from
// the loaded state; submitted packets must be replayed by the caller.
func (e *Engine) LoadGame(state *GameState, rules *Rules) error {
	if state == nil || state.GameID == "" {
		return &ValidationError{Code: ErrBadCommand, Message: "state without a game id"}
	}
	if rules == nil {
		rules = DefaultRules()
	}
	doctrine, err := CompileDoctrine(rules.AutopilotDoctrine)
	if err != nil {
		return err
	}
	gs := state.Clone()
	inst := &gameInstance{
		state: gs, rules: rules, doctrine: doctrine,
		packets: make(map[HouseID]*CommandPacket),
		results: make(map[int]*TurnResult),
		views:   ProjectViews(gs, rules, nil),
		prev:    make(map[HouseID]*PlayerView),
	}
	e.mu.Lock()
	e.games[gs.GameID] = inst
	e.mu.Unlock()
	return nil
}

func (e *Engine) instance(gameID string) (*gameInstance, error) {
	e.mu.RLock()
	inst, ok := e.games[gameID]
	e.mu.RUnlock()
	if !ok {
		return nil, &ValidationError{Code: ErrNotFound, Message: "game " + gameID + " not found"}
	}
	return inst, nil
}

// SubmitCommands validates and stores a house's packet for the open turn.
// Resubmission before the turn closes replaces the earlier packet.
func (e *Engine) SubmitCommands(gameID string, house HouseID, pkt *CommandPacket, turn int) error {
	inst, err := e.instance(gameID)
	if err != nil {
		return err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	if inst.state.Finished {
		return &ValidationError{Code: ErrBadCommand, Message: "game is finished"}
	}
	if turn != inst.state.Turn {
		return &ValidationError{Code: ErrAfterDeadline,
			Message: fmt.Sprintf("turn %d is closed, current turn is %d", turn, inst.state.Turn)}
	}
	if pkt.House != house {
		return &ValidationError{Code: ErrNotOwner, Message: "packet house mismatch"}
	}
	if err := ValidatePacket(inst.state, inst.rules, pkt); err != nil {
		return err
	}
	inst.packets[house] = pkt
	return nil
}

// AllSubmitted reports whether every active non-autopilot house has a
// packet in for the open turn.
func (e *Engine) AllSubmitted(gameID string) (bool, error) {
	inst, err := e.instance(gameID)
	if err != nil {
		return false, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	for _, hid := range inst.state.SortedHouses() {
		h := inst.state.Houses[hid]
		if h.Eliminated || h.Autopilot {
			continue
		}
		if _, ok := inst.packets[hid]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// CloseTurn resolves the named turn. Calling it again for an already
// resolved turn returns the cached result unchanged, so retries after a
// lost response are safe.
func (e *Engine) CloseTurn(gameID string, turn int) (*TurnResult, error) {
	inst, err := e.instance(gameID)
	if err != nil {
		return nil, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	if res, done := inst.results[turn]; done {
		return res, nil
	}
	if turn != inst.state.Turn {
		return nil, &ValidationError{Code: ErrBadCommand,
			Message: fmt.Sprintf("turn %d is not open, current turn is %d", turn, inst.state.Turn)}
	}
	res, err := ResolveTurn(inst.state, inst.rules, inst.doctrine, inst.packets)
	if err != nil {
		return nil, err
	}
	inst.results[turn] = res
	inst.prev = inst.views
	inst.views = res.Views
	inst.state = res.State
	inst.packets = make(map[HouseID]*CommandPacket)
	return res, nil
}

// GetView returns a house's current view, or the view after a given past
// turn when turn >= 0.
func (e *Engine) GetView(gameID string, house HouseID, turn int) (*PlayerView, error) {
	inst, err := e.instance(gameID)
	if err != nil {
		return nil, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	if _, ok := inst.state.Houses[house]; !ok {
		return nil, &ValidationError{Code: ErrNotFound, Message: fmt.Sprintf("house %d not found", house)}
	}
	if turn < 0 || turn >= inst.state.Turn {
		return inst.views[house], nil
	}
	if res, ok := inst.results[turn]; ok {
		return res.Views[house], nil
	}
	return nil, &ValidationError{Code: ErrNotFound, Message: fmt.Sprintf("no view recorded for turn %d", turn)}
}

// Delta computes the change set between a house's previous and current
// views.
func (e *Engine) Delta(gameID string, house HouseID) (*ViewDelta, error) {
	inst, err := e.instance(gameID)
	if err != nil {
		return nil, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return DiffViews(inst.prev[house], inst.views[house]), nil
}

// State exposes the authoritative state, for persistence and testing.
func (e *Engine) State(gameID string) (*GameState, error) {
	inst, err := e.instance(gameID)
	if err != nil {
		return nil, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.state, nil
}
