package ec4x

import "fmt"

// TurnResult is the outcome of resolving one turn: the new authoritative
// state, the event log, and the per-house filtered views.
type TurnResult struct {
	State *GameState              `json:"state"`
	Log   *EventLog               `json:"log"`
	Views map[HouseID]*PlayerView `json:"views"`
	Hash  uint64                  `json:"hash"`
}

// ResolveTurn advances the game by one full turn. The previous state is
// never mutated; resolution runs on a clone. Missing packets trigger the
// missed-turn ladder and, after three misses, the autopilot doctrine.
//
// Phase order: Command, Production, Conflict, Income.
func ResolveTurn(prev *GameState, rules *Rules, doctrine *Doctrine, packets map[HouseID]*CommandPacket) (*TurnResult, error) {
	gs := prev.Clone()
	log := &EventLog{}

	actions := runCommandPhase(gs, rules, doctrine, packets, log)
	if err := gs.CheckInvariants(); err != nil {
		invariantPanic("command", 0, err.Error())
	}

	runProductionPhase(gs, rules, log)
	if err := gs.CheckInvariants(); err != nil {
		invariantPanic("production", 0, err.Error())
	}

	resolveEspionage(gs, rules, actions, log)
	resolveConflicts(gs, rules, log)
	if err := gs.CheckInvariants(); err != nil {
		invariantPanic("conflict", 0, err.Error())
	}

	runIncomePhase(gs, rules, log)
	if err := gs.CheckInvariants(); err != nil {
		invariantPanic("income", 0, err.Error())
	}

	gs.Turn++
	views := ProjectViews(gs, rules, log)
	return &TurnResult{State: gs, Log: log, Views: views, Hash: gs.Hash()}, nil
}

// runCommandPhase applies every house's packet in ascending house order
// and returns the collected espionage actions for the conflict phase.
func runCommandPhase(gs *GameState, rules *Rules, doctrine *Doctrine, packets map[HouseID]*CommandPacket, log *EventLog) map[HouseID]*EspionageAction {
	actions := make(map[HouseID]*EspionageAction)

	for _, hid := range gs.SortedHouses() {
		h := gs.Houses[hid]
		if h.Eliminated {
			continue
		}
		pkt := packets[hid]
		if pkt == nil {
			h.MissedTurns++
			if h.MissedTurns >= 3 && !h.Autopilot {
				h.Autopilot = true
				log.Add(gs.Turn, Event{Kind: EventAutopilot, House: hid, Public: true,
					Detail: fmt.Sprintf("house %d has gone silent", hid)})
			}
			if h.Autopilot && doctrine != nil {
				pkt = AutopilotPacket(gs, rules, doctrine, hid)
			}
			if pkt == nil {
				continue
			}
		} else {
			h.MissedTurns = 0
			if h.Autopilot {
				h.Autopilot = false
				log.Add(gs.Turn, Event{Kind: EventAutopilot, House: hid, Public: true,
					Detail: fmt.Sprintf("house %d has resumed command", hid)})
			}
		}
		applyPacket(gs, rules, h, pkt, log)
		if pkt.Espionage != nil {
			actions[hid] = pkt.Espionage
		}
	}
	return actions
}

// applyPacket folds one accepted packet into state. Orders that became
// impossible since validation degrade into events, never aborts.
func applyPacket(gs *GameState, rules *Rules, h *House, pkt *CommandPacket, log *EventLog) {
	if pkt.TaxRate != nil {
		h.TaxRate = clampInt(*pkt.TaxRate, 0, 100)
	}

	for _, dc := range pkt.Diplomacy {
		if dc.Toward == h.ID {
			continue
		}
		if _, ok := gs.Houses[dc.Toward]; !ok {
			continue
		}
		if len(activeHouses(gs)) == 2 {
			continue // relation locked at Enemy
		}
		if h.Relations == nil {
			h.Relations = make(map[HouseID]Relation)
		}
		h.Relations[dc.Toward] = dc.Relation
	}

	applyResearchAllocation(gs, h, pkt.Research, log)
	advanceSL(gs, rules, h, log)
	for _, tp := range pkt.Purchases {
		if err := buyTech(gs, rules, h, tp.Field, log); err != nil {
			log.Add(gs.Turn, Event{Kind: EventUnusualActivity, House: h.ID,
				Detail: "tech purchase rejected: " + err.Error(), VisibleTo: []HouseID{h.ID}})
		}
	}

	invest := func(n int) int {
		if n > h.Treasury {
			n = h.Treasury
		}
		h.Treasury -= n
		return n
	}
	h.EBP += invest(pkt.EBPInvest)
	h.CIP += invest(pkt.CIPInvest)

	for i := range pkt.Cancels {
		if err := cancelProject(gs, h, pkt.Cancels[i].Project, log); err != nil {
			log.Add(gs.Turn, Event{Kind: EventUnusualActivity, House: h.ID,
				Detail: "cancel rejected: " + err.Error(), VisibleTo: []HouseID{h.ID}})
		}
	}
	for i := range pkt.Builds {
		if err := applyBuildOrder(gs, rules, h, &pkt.Builds[i], log); err != nil {
			log.Add(gs.Turn, Event{Kind: EventUnusualActivity, House: h.ID,
				Detail: "build rejected: " + err.Error(), VisibleTo: []HouseID{h.ID}})
		}
	}
	for i := range pkt.Repairs {
		if err := applyRepairOrder(gs, rules, h, &pkt.Repairs[i], log); err != nil {
			log.Add(gs.Turn, Event{Kind: EventUnusualActivity, House: h.ID,
				Detail: "repair rejected: " + err.Error(), VisibleTo: []HouseID{h.ID}})
		}
	}

	for i := range pkt.FleetOrders {
		fc := &pkt.FleetOrders[i]
		f, ok := gs.Fleets[fc.Fleet]
		if !ok || f.Owner != h.ID {
			continue
		}
		if h.DefensiveCollapse && (fc.Type.Provocative() || fc.Type == CmdMove || fc.Type == CmdPatrol) {
			continue
		}
		stageFleetCommand(gs, rules, fc)
	}
}

// runProductionPhase: completions, growth, maintenance, then movement.
func runProductionPhase(gs *GameState, rules *Rules, log *EventLog) {
	runConstruction(gs, rules, log)
	runGrowth(gs, rules)
	runMaintenance(gs, rules, log)
	runFleetOps(gs, rules, log)
	enforceCapacity(gs, rules, log)
}

// runIncomePhase: economy, prestige application, lifecycle checks.
func runIncomePhase(gs *GameState, rules *Rules, log *EventLog) {
	runIncomeEconomy(gs, rules, log)
	applyPrestige(gs, rules, log)
	runLifecycle(gs, rules, log)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
