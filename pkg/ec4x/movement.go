package ec4x

import (
	"fmt"
	"sort"
)

// stageFleetCommand records an accepted order on the fleet itself so it
// survives across turns until completion. Runs during the Command Phase.
func stageFleetCommand(gs *GameState, rules *Rules, fc *FleetCommand) {
	f, ok := gs.Fleets[fc.Fleet]
	if !ok {
		return
	}
	if fc.ROE != nil {
		f.ROE = *fc.ROE
	}
	f.Mission = fc.Type
	f.Destination = 0
	f.MissionFleet = 0
	f.SplitOut = nil

	switch fc.Type {
	case CmdHold:
		f.Standing = StandingHold
	case CmdPatrol:
		f.Standing = StandingPatrol
		f.Destination = fc.TargetSystem
	case CmdGuardStarbase:
		f.Standing = StandingGuardBase
	case CmdGuardColony:
		f.Standing = StandingGuardCol
	case CmdBlockade:
		f.Standing = StandingBlockade
		f.Destination = fc.TargetSystem
	case CmdReserve:
		f.Standing = StandingReserve
	case CmdMothball:
		f.Standing = StandingMothball
	case CmdSeekHome:
		f.Standing = StandingSeekHome
		if dst, ok := NearestOwned(gs, f.Owner, f.System); ok {
			f.Destination = dst
		}
	case CmdMove, CmdColonize, CmdBombard, CmdInvade, CmdBlitz,
		CmdSpyColony, CmdSpySystem, CmdHackStarbase, CmdRendezvous, CmdView:
		f.Standing = StandingNone
		f.Destination = fc.TargetSystem
	case CmdJoinFleet:
		f.Standing = StandingNone
		f.MissionFleet = fc.TargetFleet
		if tgt, ok := gs.Fleets[fc.TargetFleet]; ok {
			f.Destination = tgt.System
		}
	case CmdSalvage:
		f.Standing = StandingNone
	case CmdSplitFleet:
		f.Standing = StandingNone
		f.SplitOut = append([]SquadronID(nil), fc.Squadrons...)
	}
}

// runFleetOps executes fleet movement and structural orders during the
// Production Phase: salvage, movement along staged paths, joins, and
// colonization (with contested-landing resolution).
func runFleetOps(gs *GameState, rules *Rules, log *EventLog) {
	// salvage first so disbanded hulls never move
	for _, fid := range gs.SortedFleets() {
		f := gs.Fleets[fid]
		if f.Mission == CmdSalvage {
			salvageFleet(gs, rules, fid, log)
		}
	}

	// splits before movement so detached fleets act on their own this turn
	for _, fid := range gs.SortedFleets() {
		f := gs.Fleets[fid]
		if f.Mission == CmdSplitFleet {
			trySplit(gs, fid, log)
		}
	}

	for _, fid := range gs.SortedFleets() {
		advanceFleet(gs, rules, fid, log)
	}

	for _, fid := range gs.SortedFleets() {
		f := gs.Fleets[fid]
		if f.Mission == CmdJoinFleet {
			tryJoin(gs, fid, log)
		}
	}

	resolveColonization(gs, rules, log)
}

// salvageFleet disbands a fleet at a friendly colony, refunding half the
// production cost of every hull.
func salvageFleet(gs *GameState, rules *Rules, fid FleetID, log *EventLog) {
	f := gs.Fleets[fid]
	h := gs.Houses[f.Owner]
	refund := 0
	for _, s := range gs.ShipsInFleet(fid) {
		refund += rules.ShipClasses[s.Class].PC / 2
	}
	h.Treasury += refund
	log.Add(gs.Turn, Event{Kind: EventFleetSalvaged, House: f.Owner, System: f.System,
		Amount: refund, VisibleTo: []HouseID{f.Owner}})
	gs.DestroyFleet(fid)
}

// advanceFleet moves a fleet toward its destination, honoring lane
// restrictions and the two-jump rule. Arrival clears the destination;
// patrol fleets keep cycling between origin and target.
func advanceFleet(gs *GameState, rules *Rules, fid FleetID, log *EventLog) {
	f, ok := gs.Fleets[fid]
	if !ok {
		return
	}
	f.Trail = f.Trail[:0]
	if f.Standing == StandingMothball || f.Standing == StandingReserve {
		return
	}
	if f.Destination == 0 || f.Destination == f.System {
		f.Destination = 0
		return
	}
	profile := ProfileFleet(gs, rules, fid)
	path := FindPath(gs, profile, f.System, f.Destination)
	if path == nil {
		// lanes may have become impassable since the order was accepted
		log.Add(gs.Turn, Event{Kind: EventFleetHeld, House: f.Owner, System: f.System,
			Detail: fmt.Sprintf("no route to system %d", f.Destination), VisibleTo: []HouseID{f.Owner}})
		f.Destination = 0
		return
	}
	gs.MoveFleet(fid, path[0])
	if len(path) > 1 && canDoubleJump(gs, f, path[1]) {
		gs.MoveFleet(fid, path[1])
	}
	if f.System == f.Destination {
		log.Add(gs.Turn, Event{Kind: EventFleetMoved, House: f.Owner, System: f.System,
			VisibleTo: []HouseID{f.Owner}})
		if f.Standing != StandingPatrol {
			f.Destination = 0
		}
	}
}

// trySplit detaches the staged squadrons into a new fleet in the same
// system. The new fleet inherits ROE and holds; the source keeps the
// remainder. A split naming every squadron (or none that still exist)
// is a no-op.
func trySplit(gs *GameState, fid FleetID, log *EventLog) {
	f, ok := gs.Fleets[fid]
	if !ok || len(f.SplitOut) == 0 {
		return
	}
	member := make(map[SquadronID]bool, len(f.Squadrons))
	for _, sqID := range f.Squadrons {
		member[sqID] = true
	}
	var out []SquadronID
	for _, sqID := range f.SplitOut {
		if member[sqID] {
			out = append(out, sqID)
			member[sqID] = false
		}
	}
	f.SplitOut = nil
	f.Mission = CmdHold
	if len(out) == 0 || len(out) == len(f.Squadrons) {
		return
	}
	nf := &Fleet{
		ID:       gs.IDs.Fleet(),
		Owner:    f.Owner,
		System:   f.System,
		Standing: StandingHold,
		ROE:      f.ROE,
		Mission:  CmdHold,
	}
	gs.CreateFleet(nf)
	for _, sqID := range out {
		f.Squadrons = removeID(f.Squadrons, sqID)
		nf.Squadrons = insertSortedID(nf.Squadrons, sqID)
		for _, s := range gs.ShipsInSquadron(sqID) {
			s.Fleet = nf.ID
		}
	}
	log.Add(gs.Turn, Event{Kind: EventFleetSplit, House: f.Owner, System: f.System,
		Detail:    fmt.Sprintf("fleet %d detached %d squadrons into %d", fid, len(out), nf.ID),
		VisibleTo: []HouseID{f.Owner}})
}

// tryJoin merges a fleet into its join target when co-located.
func tryJoin(gs *GameState, fid FleetID, log *EventLog) {
	f, ok := gs.Fleets[fid]
	if !ok {
		return
	}
	tgt, ok := gs.Fleets[f.MissionFleet]
	if !ok || tgt.Owner != f.Owner {
		f.Mission = CmdHold
		f.MissionFleet = 0
		return
	}
	if tgt.System != f.System {
		f.Destination = tgt.System // keep chasing
		return
	}
	for _, sqID := range f.Squadrons {
		tgt.Squadrons = insertSortedID(tgt.Squadrons, sqID)
		for _, s := range gs.ShipsInSquadron(sqID) {
			s.Fleet = tgt.ID
		}
	}
	f.Squadrons = nil
	log.Add(gs.Turn, Event{Kind: EventFleetJoined, House: f.Owner, System: f.System,
		Detail: fmt.Sprintf("fleet %d merged into %d", fid, tgt.ID), VisibleTo: []HouseID{f.Owner}})
	gs.DestroyFleet(fid)
}

// resolveColonization lands ETACs on uncolonized systems. When several
// houses contest the same system in one turn, the highest total fleet
// attack strength wins; ties break toward the lower house id. Losers keep
// their ETACs and are told the landing failed.
func resolveColonization(gs *GameState, rules *Rules, log *EventLog) {
	type attempt struct {
		fleet FleetID
		house HouseID
		as    int
	}
	bySystem := make(map[SystemID][]attempt)
	for _, fid := range gs.SortedFleets() {
		f := gs.Fleets[fid]
		if f.Mission != CmdColonize {
			continue
		}
		if f.Destination != 0 && f.Destination != f.System {
			continue // still in transit
		}
		if _, settled := gs.ColonyBySystem(f.System); settled {
			f.Mission = CmdHold
			log.Add(gs.Turn, Event{Kind: EventColonizeFailed, House: f.Owner, System: f.System,
				Detail: "system already colonized", VisibleTo: []HouseID{f.Owner}})
			continue
		}
		if !hasLoadedETAC(gs, rules, fid) {
			f.Mission = CmdHold
			continue
		}
		as := 0
		for _, s := range gs.ShipsInFleet(fid) {
			as += shipAS(rules, gs.Houses[f.Owner], s)
		}
		bySystem[f.System] = append(bySystem[f.System], attempt{fleet: fid, house: f.Owner, as: as})
	}

	var systems []SystemID
	for sys := range bySystem {
		systems = append(systems, sys)
	}
	sort.Slice(systems, func(i, j int) bool { return systems[i] < systems[j] })

	for _, sys := range systems {
		attempts := bySystem[sys]
		sort.Slice(attempts, func(i, j int) bool {
			if attempts[i].as != attempts[j].as {
				return attempts[i].as > attempts[j].as
			}
			return attempts[i].house < attempts[j].house
		})
		winner := attempts[0]
		foundColony(gs, rules, winner.fleet, sys, log)
		for _, a := range attempts[1:] {
			f := gs.Fleets[a.fleet]
			f.Mission = CmdHold
			log.Add(gs.Turn, Event{Kind: EventColonizeFailed, House: a.house, System: sys,
				Detail: "landing contested and lost", VisibleTo: []HouseID{a.house}})
		}
	}
}

// foundColony consumes one loaded ETAC and settles the system.
func foundColony(gs *GameState, rules *Rules, fid FleetID, sys SystemID, log *EventLog) {
	f := gs.Fleets[fid]
	var etac *Ship
	for _, s := range gs.ShipsInFleet(fid) {
		if rules.ShipClasses[s.Class].ETAC && s.Cargo.Type == CargoColonists && s.Cargo.Quantity > 0 {
			etac = s
			break
		}
	}
	if etac == nil {
		return
	}
	c := &Colony{
		ID:          gs.IDs.Colony(),
		System:      sys,
		Owner:       f.Owner,
		PU:          etac.Cargo.Quantity,
		TaxOverride: -1,
	}
	c.Souls = c.PU * 1_000_000
	if err := gs.CreateColony(c); err != nil {
		return
	}
	gs.DestroyShip(etac.ID, rules)
	sweepEmptyFleets(gs, f.Owner)
	if live, ok := gs.Fleets[fid]; ok {
		live.Mission = CmdHold
	}
	log.Add(gs.Turn, Event{Kind: EventColonyFounded, House: c.Owner, System: sys, Public: true})
	log.Award(c.Owner, rules.Prestige.ColonyFounded, ReasonColonyFounded, sys)
}

// shipAS is the effective attack strength of one hull: class AS scaled by
// the owner's weapons tier, halved when crippled.
func shipAS(rules *Rules, h *House, s *Ship) int {
	cls := rules.ShipClasses[s.Class]
	as := cls.AS + cls.AS*h.Tech.Tier(TechWEP)/4
	if s.Hull == HullCrippled {
		as /= 2
	}
	return as
}

// shipDS is the effective defense strength of one hull.
func shipDS(rules *Rules, h *House, s *Ship) int {
	cls := rules.ShipClasses[s.Class]
	ds := cls.DS + cls.DS*h.Tech.Tier(TechWEP)/4
	if s.Hull == HullCrippled {
		ds /= 2
	}
	return ds
}

// updateBlockades recomputes every colony's blockade flag from hostile
// blockading fleets present in its system.
func updateBlockades(gs *GameState) {
	for _, cid := range gs.SortedColonies() {
		c := gs.Colonies[cid]
		owner := gs.Houses[c.Owner]
		c.Blockaded = false
		for _, fid := range gs.FleetsInSystem(c.System) {
			f := gs.Fleets[fid]
			if f.Owner == c.Owner || f.Standing != StandingBlockade {
				continue
			}
			if owner.RelationTo(f.Owner) != RelationNeutral || gs.Houses[f.Owner].RelationTo(c.Owner) != RelationNeutral {
				c.Blockaded = true
				break
			}
		}
	}
}
