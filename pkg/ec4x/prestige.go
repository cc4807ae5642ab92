package ec4x

import (
	"fmt"
	"math"
	"sort"
)

// applyPrestige folds the turn's prestige events into house totals, scaled
// by the map-size multiplier fixed at game creation.
func applyPrestige(gs *GameState, rules *Rules, log *EventLog) {
	for _, pe := range log.Prestige {
		h, ok := gs.Houses[pe.House]
		if !ok || h.Eliminated {
			continue
		}
		amount := pe.Amount
		if rules.MapScale != 1.0 && amount != 0 {
			scaled := float64(amount) * rules.MapScale
			if scaled > 0 {
				amount = int(math.Ceil(scaled))
			} else {
				amount = int(math.Floor(scaled))
			}
		}
		h.Prestige += amount
		log.Add(gs.Turn, Event{Kind: EventPrestige, House: pe.House, System: pe.Source,
			Detail: string(pe.Reason), Amount: amount, VisibleTo: []HouseID{pe.House}})
	}
}

// runLifecycle evaluates collapse, elimination, and victory at the end of
// the Income Phase.
func runLifecycle(gs *GameState, rules *Rules, log *EventLog) {
	for _, hid := range gs.SortedHouses() {
		h := gs.Houses[hid]
		if h.Eliminated {
			continue
		}

		if h.Prestige < 0 {
			h.NegativeTurns++
		} else {
			h.NegativeTurns = 0
			if h.DefensiveCollapse {
				h.DefensiveCollapse = false
			}
		}
		if h.NegativeTurns >= 3 && !h.DefensiveCollapse {
			h.DefensiveCollapse = true
			forceFleetsHome(gs, hid)
			log.Add(gs.Turn, Event{Kind: EventCollapse, House: hid, Public: true,
				Detail: fmt.Sprintf("house %d falls into defensive collapse", hid)})
		}

		if eliminated(gs, rules, hid) {
			eliminateHouse(gs, hid, log)
		}
	}

	checkTwoHouseLock(gs, log)
	checkVictory(gs, rules, log)
}

// eliminated is true when a house holds no colonies and no loaded marine
// transports anywhere. Loaded colonists do not count: without a colony to
// tax, an ETAC cannot retake the game.
func eliminated(gs *GameState, rules *Rules, hid HouseID) bool {
	if len(gs.ColoniesByOwner(hid)) > 0 {
		return false
	}
	for _, fid := range gs.FleetsByOwner(hid) {
		if hasLoadedMarines(gs, rules, fid) {
			return false
		}
	}
	return true
}

// eliminateHouse flags the house and removes its remaining forces.
func eliminateHouse(gs *GameState, hid HouseID, log *EventLog) {
	h := gs.Houses[hid]
	h.Eliminated = true
	h.Autopilot = false
	for _, fid := range gs.FleetsByOwner(hid) {
		gs.DestroyFleet(fid)
	}
	log.Add(gs.Turn, Event{Kind: EventEliminated, House: hid, Public: true,
		Detail: fmt.Sprintf("house %d has fallen", hid)})
}

// forceFleetsHome overrides every fleet of a collapsing house with a
// seek-home order.
func forceFleetsHome(gs *GameState, hid HouseID) {
	for _, fid := range gs.FleetsByOwner(hid) {
		f := gs.Fleets[fid]
		f.Mission = CmdSeekHome
		f.Standing = StandingSeekHome
		if dst, ok := NearestOwned(gs, hid, f.System); ok {
			f.Destination = dst
		}
	}
}

// activeHouses lists houses still in the game.
func activeHouses(gs *GameState) []HouseID {
	var out []HouseID
	for _, hid := range gs.SortedHouses() {
		if !gs.Houses[hid].Eliminated {
			out = append(out, hid)
		}
	}
	return out
}

// checkTwoHouseLock forces and locks the Enemy relation once exactly two
// houses remain.
func checkTwoHouseLock(gs *GameState, log *EventLog) {
	active := activeHouses(gs)
	if len(active) != 2 {
		return
	}
	a, b := gs.Houses[active[0]], gs.Houses[active[1]]
	if a.Relations == nil {
		a.Relations = make(map[HouseID]Relation)
	}
	if b.Relations == nil {
		b.Relations = make(map[HouseID]Relation)
	}
	a.Relations[b.ID] = RelationEnemy
	b.Relations[a.ID] = RelationEnemy
}

// checkVictory ends the game on last-house-standing, prestige threshold,
// or the turn limit.
func checkVictory(gs *GameState, rules *Rules, log *EventLog) {
	if gs.Finished {
		return
	}
	active := activeHouses(gs)

	if rules.Victory.LastHouseStanding && len(active) == 1 {
		declareWinner(gs, active[0], "last house standing", log)
		return
	}
	if len(active) == 0 {
		gs.Finished = true
		log.Add(gs.Turn, Event{Kind: EventVictory, Public: true, Detail: "mutual annihilation"})
		return
	}
	if th := rules.Victory.PrestigeThreshold; th > 0 {
		for _, hid := range active {
			if gs.Houses[hid].Prestige >= th {
				declareWinner(gs, highestPrestige(gs, active), "prestige threshold reached", log)
				return
			}
		}
	}
	if rules.Victory.TurnLimit > 0 && gs.Turn >= rules.Victory.TurnLimit {
		declareWinner(gs, highestPrestige(gs, active), "turn limit reached", log)
	}
}

// highestPrestige breaks ties toward the lower house id.
func highestPrestige(gs *GameState, houses []HouseID) HouseID {
	sorted := append([]HouseID(nil), houses...)
	sort.Slice(sorted, func(i, j int) bool {
		pi, pj := gs.Houses[sorted[i]].Prestige, gs.Houses[sorted[j]].Prestige
		if pi != pj {
			return pi > pj
		}
		return sorted[i] < sorted[j]
	})
	return sorted[0]
}

func declareWinner(gs *GameState, hid HouseID, reason string, log *EventLog) {
	gs.Finished = true
	gs.Winner = hid
	log.Add(gs.Turn, Event{Kind: EventVictory, House: hid, Public: true,
		Detail: fmt.Sprintf("house %d wins: %s", hid, reason)})
}
