package ec4x

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// GameState is the complete authoritative state of one game. Resolvers
// receive it via the orchestrator and mutate it through the store API,
// which keeps secondary indexes consistent with the primary tables.
//
// Only exported fields are serialized; indexes are rebuilt after load.
type GameState struct {
	GameID string `json:"game_id"`
	Seed   uint64 `json:"seed"`
	Turn   int    `json:"turn"`
	IDs    IDGen  `json:"ids"`

	Houses      map[HouseID]*House           `json:"houses"`
	Systems     map[SystemID]*System         `json:"systems"`
	Colonies    map[ColonyID]*Colony         `json:"colonies"`
	Fleets      map[FleetID]*Fleet           `json:"fleets"`
	Ships       map[ShipID]*Ship             `json:"ships"`
	Squadrons   map[SquadronID]*Squadron     `json:"squadrons"`
	GroundUnits map[GroundUnitID]*GroundUnit `json:"ground_units"`
	Facilities  map[FacilityID]*Facility     `json:"facilities"`
	Projects    map[ProjectID]*Project       `json:"projects"`

	Finished bool    `json:"finished"`
	Winner   HouseID `json:"winner"`

	// indexes; never serialized, rebuilt by Reindex.
	colonyBySystem  map[SystemID]ColonyID
	coloniesByOwner map[HouseID][]ColonyID
	fleetsBySystem  map[SystemID][]FleetID
	fleetsByOwner   map[HouseID][]FleetID
}

// NewGameState creates an empty state with initialized tables.
func NewGameState(gameID string, seed uint64) *GameState {
	gs := &GameState{
		GameID:      gameID,
		Seed:        seed,
		IDs:         NewIDGen(),
		Houses:      make(map[HouseID]*House),
		Systems:     make(map[SystemID]*System),
		Colonies:    make(map[ColonyID]*Colony),
		Fleets:      make(map[FleetID]*Fleet),
		Ships:       make(map[ShipID]*Ship),
		Squadrons:   make(map[SquadronID]*Squadron),
		GroundUnits: make(map[GroundUnitID]*GroundUnit),
		Facilities:  make(map[FacilityID]*Facility),
		Projects:    make(map[ProjectID]*Project),
	}
	gs.Reindex()
	return gs
}

// Reindex rebuilds every secondary index from the primary tables.
func (gs *GameState) Reindex() {
	gs.colonyBySystem = make(map[SystemID]ColonyID, len(gs.Colonies))
	gs.coloniesByOwner = make(map[HouseID][]ColonyID)
	gs.fleetsBySystem = make(map[SystemID][]FleetID)
	gs.fleetsByOwner = make(map[HouseID][]FleetID)

	for _, id := range sortedKeys(gs.Colonies) {
		c := gs.Colonies[id]
		gs.colonyBySystem[c.System] = c.ID
		gs.coloniesByOwner[c.Owner] = append(gs.coloniesByOwner[c.Owner], c.ID)
	}
	for _, id := range sortedKeys(gs.Fleets) {
		f := gs.Fleets[id]
		gs.fleetsBySystem[f.System] = append(gs.fleetsBySystem[f.System], f.ID)
		gs.fleetsByOwner[f.Owner] = append(gs.fleetsByOwner[f.Owner], f.ID)
	}
}

// Clone returns a deep copy with rebuilt indexes. The engine clones the
// previous state at the top of each turn so resolution stays pure.
func (gs *GameState) Clone() *GameState {
	raw, err := json.Marshal(gs)
	if err != nil {
		panic(fmt.Sprintf("state clone marshal: %v", err))
	}
	var c GameState
	if err := json.Unmarshal(raw, &c); err != nil {
		panic(fmt.Sprintf("state clone unmarshal: %v", err))
	}
	c.Reindex()
	return &c
}

// Hash returns the canonical digest of the state. encoding/json emits map
// keys in sorted order, so equal states hash equal regardless of history.
func (gs *GameState) Hash() uint64 {
	raw, err := json.Marshal(gs)
	if err != nil {
		panic(fmt.Sprintf("state hash marshal: %v", err))
	}
	return xxhash.Sum64(raw)
}

// sortedKeys returns map keys in ascending order for deterministic iteration.
func sortedKeys[K ~uint32, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// SortedHouses returns house ids in ascending order.
func (gs *GameState) SortedHouses() []HouseID { return sortedKeys(gs.Houses) }

// SortedSystems returns system ids in ascending order.
func (gs *GameState) SortedSystems() []SystemID { return sortedKeys(gs.Systems) }

// SortedFleets returns fleet ids in ascending order.
func (gs *GameState) SortedFleets() []FleetID { return sortedKeys(gs.Fleets) }

// SortedColonies returns colony ids in ascending order.
func (gs *GameState) SortedColonies() []ColonyID { return sortedKeys(gs.Colonies) }

// SortedProjects returns project ids in ascending order.
func (gs *GameState) SortedProjects() []ProjectID { return sortedKeys(gs.Projects) }

// --- Lookups ---

func (gs *GameState) House(id HouseID) (*House, bool) {
	h, ok := gs.Houses[id]
	return h, ok
}

func (gs *GameState) System(id SystemID) (*System, bool) {
	s, ok := gs.Systems[id]
	return s, ok
}

func (gs *GameState) Colony(id ColonyID) (*Colony, bool) {
	c, ok := gs.Colonies[id]
	return c, ok
}

func (gs *GameState) Fleet(id FleetID) (*Fleet, bool) {
	f, ok := gs.Fleets[id]
	return f, ok
}

func (gs *GameState) Ship(id ShipID) (*Ship, bool) {
	s, ok := gs.Ships[id]
	return s, ok
}

func (gs *GameState) Squadron(id SquadronID) (*Squadron, bool) {
	s, ok := gs.Squadrons[id]
	return s, ok
}

func (gs *GameState) GroundUnit(id GroundUnitID) (*GroundUnit, bool) {
	g, ok := gs.GroundUnits[id]
	return g, ok
}

func (gs *GameState) Facility(id FacilityID) (*Facility, bool) {
	f, ok := gs.Facilities[id]
	return f, ok
}

func (gs *GameState) Project(id ProjectID) (*Project, bool) {
	p, ok := gs.Projects[id]
	return p, ok
}

// ColonyBySystem returns the colony settled in a system, if any.
func (gs *GameState) ColonyBySystem(sys SystemID) (*Colony, bool) {
	id, ok := gs.colonyBySystem[sys]
	if !ok {
		return nil, false
	}
	return gs.Colonies[id], true
}

// ColoniesByOwner returns a house's colony ids in ascending order.
func (gs *GameState) ColoniesByOwner(h HouseID) []ColonyID {
	return append([]ColonyID(nil), gs.coloniesByOwner[h]...)
}

// FleetsInSystem returns the fleet ids present in a system, ascending.
func (gs *GameState) FleetsInSystem(sys SystemID) []FleetID {
	return append([]FleetID(nil), gs.fleetsBySystem[sys]...)
}

// FleetsByOwner returns a house's fleet ids in ascending order.
func (gs *GameState) FleetsByOwner(h HouseID) []FleetID {
	return append([]FleetID(nil), gs.fleetsByOwner[h]...)
}

// ShipsInSquadron returns the flagship followed by escorts, skipping
// destroyed hulls.
func (gs *GameState) ShipsInSquadron(id SquadronID) []*Ship {
	sq, ok := gs.Squadrons[id]
	if !ok {
		return nil
	}
	var ships []*Ship
	if s, ok := gs.Ships[sq.Flagship]; ok && s.Hull != HullDestroyed {
		ships = append(ships, s)
	}
	for _, sid := range sq.Escorts {
		if s, ok := gs.Ships[sid]; ok && s.Hull != HullDestroyed {
			ships = append(ships, s)
		}
	}
	return ships
}

// ShipsInFleet returns all live ships across a fleet's squadrons.
func (gs *GameState) ShipsInFleet(id FleetID) []*Ship {
	f, ok := gs.Fleets[id]
	if !ok {
		return nil
	}
	var ships []*Ship
	for _, sqID := range f.Squadrons {
		ships = append(ships, gs.ShipsInSquadron(sqID)...)
	}
	return ships
}

// SystemControlledBy reports whether a house holds the colony in a system.
func (gs *GameState) SystemControlledBy(sys SystemID, h HouseID) bool {
	c, ok := gs.ColonyBySystem(sys)
	return ok && c.Owner == h
}

// --- Mutations ---

// CreateColony settles a system. Fails when the system is unknown or
// already colonized.
func (gs *GameState) CreateColony(c *Colony) error {
	if _, ok := gs.Systems[c.System]; !ok {
		return &ValidationError{Code: ErrNotFound, Message: fmt.Sprintf("system %d not found", c.System)}
	}
	if _, taken := gs.colonyBySystem[c.System]; taken {
		return &ValidationError{Code: ErrOccupied, Message: fmt.Sprintf("system %d already colonized", c.System)}
	}
	gs.Colonies[c.ID] = c
	gs.colonyBySystem[c.System] = c.ID
	gs.coloniesByOwner[c.Owner] = append(gs.coloniesByOwner[c.Owner], c.ID)
	return nil
}

// DestroyColony removes a colony and everything bound to it.
func (gs *GameState) DestroyColony(id ColonyID) {
	c, ok := gs.Colonies[id]
	if !ok {
		return
	}
	for _, fid := range c.Facilities {
		delete(gs.Facilities, fid)
	}
	for _, gid := range c.Ground {
		delete(gs.GroundUnits, gid)
	}
	for _, pid := range append(append([]ProjectID(nil), c.BuildQueue...), c.RepairQueue...) {
		delete(gs.Projects, pid)
	}
	for _, sqID := range append(append([]SquadronID(nil), c.Unassigned...), c.Fighters...) {
		gs.DestroySquadron(sqID)
	}
	delete(gs.Colonies, id)
	delete(gs.colonyBySystem, c.System)
	gs.coloniesByOwner[c.Owner] = removeID(gs.coloniesByOwner[c.Owner], id)
}

// TransferColony hands a colony to a new owner, updating indexes.
func (gs *GameState) TransferColony(id ColonyID, to HouseID) {
	c, ok := gs.Colonies[id]
	if !ok {
		return
	}
	gs.coloniesByOwner[c.Owner] = removeID(gs.coloniesByOwner[c.Owner], id)
	c.Owner = to
	gs.coloniesByOwner[to] = insertSortedID(gs.coloniesByOwner[to], id)
	for _, gid := range c.Ground {
		if g, ok := gs.GroundUnits[gid]; ok {
			g.Owner = to
		}
	}
}

// CreateFleet registers a fleet in its system.
func (gs *GameState) CreateFleet(f *Fleet) {
	gs.Fleets[f.ID] = f
	gs.fleetsBySystem[f.System] = insertSortedID(gs.fleetsBySystem[f.System], f.ID)
	gs.fleetsByOwner[f.Owner] = insertSortedID(gs.fleetsByOwner[f.Owner], f.ID)
}

// DestroyFleet removes a fleet and its squadrons and ships.
func (gs *GameState) DestroyFleet(id FleetID) {
	f, ok := gs.Fleets[id]
	if !ok {
		return
	}
	for _, sqID := range append([]SquadronID(nil), f.Squadrons...) {
		gs.DestroySquadron(sqID)
	}
	delete(gs.Fleets, id)
	gs.fleetsBySystem[f.System] = removeID(gs.fleetsBySystem[f.System], id)
	gs.fleetsByOwner[f.Owner] = removeID(gs.fleetsByOwner[f.Owner], id)
}

// MoveFleet relocates a fleet, maintaining the system index and trail.
func (gs *GameState) MoveFleet(id FleetID, to SystemID) {
	f, ok := gs.Fleets[id]
	if !ok {
		return
	}
	gs.fleetsBySystem[f.System] = removeID(gs.fleetsBySystem[f.System], id)
	f.Trail = append(f.Trail, f.System)
	f.System = to
	gs.fleetsBySystem[to] = insertSortedID(gs.fleetsBySystem[to], id)
}

// DestroySquadron removes a squadron and all its ships.
func (gs *GameState) DestroySquadron(id SquadronID) {
	sq, ok := gs.Squadrons[id]
	if !ok {
		return
	}
	delete(gs.Ships, sq.Flagship)
	for _, sid := range sq.Escorts {
		delete(gs.Ships, sid)
	}
	delete(gs.Squadrons, id)
	// detach from any fleet or colony holding it
	for _, f := range gs.Fleets {
		f.Squadrons = removeID(f.Squadrons, id)
	}
	for _, c := range gs.Colonies {
		c.Unassigned = removeID(c.Unassigned, id)
		c.Fighters = removeID(c.Fighters, id)
	}
}

// DestroyShip removes one hull. A destroyed flagship promotes the highest
// command-rated escort so no squadron ever references a dead flagship.
func (gs *GameState) DestroyShip(id ShipID, rules *Rules) {
	s, ok := gs.Ships[id]
	if !ok {
		return
	}
	sq, hasSq := gs.Squadrons[s.Squadron]
	delete(gs.Ships, id)
	if !hasSq {
		return
	}
	if sq.Flagship == id {
		if len(sq.Escorts) == 0 {
			gs.DestroySquadron(sq.ID)
			return
		}
		best := sq.Escorts[0]
		bestCR := -1
		for _, eid := range sq.Escorts {
			if e, ok := gs.Ships[eid]; ok {
				if cr := rules.ShipClasses[e.Class].CR; cr > bestCR {
					best, bestCR = eid, cr
				}
			}
		}
		sq.Flagship = best
		sq.Escorts = removeID(sq.Escorts, best)
		return
	}
	sq.Escorts = removeID(sq.Escorts, id)
}

// DestroyGroundUnit removes a ground unit from its colony.
func (gs *GameState) DestroyGroundUnit(id GroundUnitID) {
	g, ok := gs.GroundUnits[id]
	if !ok {
		return
	}
	if c, ok := gs.Colonies[g.Colony]; ok {
		c.Ground = removeID(c.Ground, id)
	}
	delete(gs.GroundUnits, id)
}

// DestroyFacility removes a facility; projects hosted on it forfeit their PP.
func (gs *GameState) DestroyFacility(id FacilityID) []ProjectID {
	f, ok := gs.Facilities[id]
	if !ok {
		return nil
	}
	var forfeited []ProjectID
	for _, pid := range gs.SortedProjects() {
		if p := gs.Projects[pid]; p.Host == id || p.TargetFac == id {
			forfeited = append(forfeited, pid)
			gs.removeProject(pid)
		}
	}
	if c, ok := gs.Colonies[f.Colony]; ok {
		c.Facilities = removeID(c.Facilities, id)
	}
	delete(gs.Facilities, id)
	return forfeited
}

func (gs *GameState) removeProject(id ProjectID) {
	p, ok := gs.Projects[id]
	if !ok {
		return
	}
	if c, ok := gs.Colonies[p.Colony]; ok {
		c.BuildQueue = removeID(c.BuildQueue, id)
		c.RepairQueue = removeID(c.RepairQueue, id)
	}
	delete(gs.Projects, id)
}

// RemoveProject deletes a project from state and its colony queues.
func (gs *GameState) RemoveProject(id ProjectID) { gs.removeProject(id) }

// CheckInvariants verifies index consistency and core referential rules.
// A failure is a programmer error; the orchestrator treats it as fatal.
func (gs *GameState) CheckInvariants() error {
	fresh := gs.Clone()
	if len(fresh.colonyBySystem) != len(gs.colonyBySystem) {
		return fmt.Errorf("colonyBySystem desynchronized: %d vs rebuilt %d", len(gs.colonyBySystem), len(fresh.colonyBySystem))
	}
	for sys, id := range fresh.colonyBySystem {
		if gs.colonyBySystem[sys] != id {
			return fmt.Errorf("colonyBySystem desynchronized at system %d", sys)
		}
	}
	for _, sq := range gs.Squadrons {
		if _, ok := gs.Ships[sq.Flagship]; !ok {
			return fmt.Errorf("squadron %d references missing flagship %d", sq.ID, sq.Flagship)
		}
	}
	for _, f := range gs.Fleets {
		for _, s := range gs.ShipsInFleet(f.ID) {
			if s.Owner != f.Owner {
				return fmt.Errorf("fleet %d contains foreign ship %d", f.ID, s.ID)
			}
		}
	}
	for _, c := range gs.Colonies {
		if h, ok := gs.Houses[c.Owner]; !ok || h.Eliminated {
			return fmt.Errorf("colony %d owned by missing or eliminated house %d", c.ID, c.Owner)
		}
	}
	for _, h := range gs.Houses {
		if h.Treasury < 0 {
			return fmt.Errorf("house %d has negative treasury %d", h.ID, h.Treasury)
		}
	}
	return nil
}

func removeID[T ~uint32](s []T, id T) []T {
	for i, v := range s {
		if v == id {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

func insertSortedID[T ~uint32](s []T, id T) []T {
	i := sort.Search(len(s), func(i int) bool { return s[i] >= id })
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = id
	return s
}
