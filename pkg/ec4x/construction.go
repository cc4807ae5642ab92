package ec4x

import (
	"fmt"
	"math"
	"sort"
)

const capacityGraceTurns = 2

// applyBuildOrder debits the treasury and queues a construction project.
// IU investment applies immediately instead of queueing.
func applyBuildOrder(gs *GameState, rules *Rules, h *House, b *BuildOrder, log *EventLog) error {
	cost, err := buildCost(gs, rules, h.ID, b)
	if err != nil {
		return err
	}
	if cost > h.Treasury {
		return &ValidationError{Code: ErrInsufficientFunds,
			Message: fmt.Sprintf("build costs %d PP, treasury holds %d", cost, h.Treasury)}
	}
	h.Treasury -= cost
	c := gs.Colonies[b.Colony]

	if b.Subject == SubjectIU {
		c.IU += b.Amount
		log.Add(gs.Turn, Event{Kind: EventBuilt, House: h.ID, System: c.System,
			Detail: fmt.Sprintf("%d IU", b.Amount), Amount: b.Amount, VisibleTo: []HouseID{h.ID}})
		return nil
	}

	turns := 1
	if b.Subject == SubjectFacility {
		turns = rules.Facilities[b.Class].Turns
	}
	p := &Project{
		ID:        gs.IDs.Project(),
		Kind:      ProjectBuild,
		Colony:    b.Colony,
		Owner:     h.ID,
		Subject:   b.Subject,
		Class:     b.Class,
		Host:      b.Host,
		Cost:      cost,
		TurnsLeft: turns,
	}
	gs.Projects[p.ID] = p
	c.BuildQueue = append(c.BuildQueue, p.ID)
	return nil
}

// applyRepairOrder debits the treasury and queues a one-turn repair job.
func applyRepairOrder(gs *GameState, rules *Rules, h *House, r *RepairOrder, log *EventLog) error {
	cost, err := repairCost(gs, rules, h.ID, r)
	if err != nil {
		return err
	}
	if cost > h.Treasury {
		return &ValidationError{Code: ErrInsufficientFunds,
			Message: fmt.Sprintf("repair costs %d PP, treasury holds %d", cost, h.Treasury)}
	}
	h.Treasury -= cost
	c := gs.Colonies[r.Colony]

	host := r.Host
	if host == 0 {
		kind := FacilityKindDrydock
		if r.Facility != 0 {
			kind = FacilityKindSpaceport
		}
		for _, fid := range c.Facilities {
			if f, ok := gs.Facilities[fid]; ok && f.Kind == kind && f.Hull == HullUndamaged {
				host = fid
				break
			}
		}
	}
	p := &Project{
		ID:         gs.IDs.Project(),
		Kind:       ProjectRepair,
		Colony:     r.Colony,
		Owner:      h.ID,
		Host:       host,
		TargetShip: r.Ship,
		TargetFac:  r.Facility,
		Cost:       cost,
		TurnsLeft:  1,
	}
	gs.Projects[p.ID] = p
	c.RepairQueue = append(c.RepairQueue, p.ID)
	return nil
}

// cancelProject removes a queued project and refunds half its cost.
func cancelProject(gs *GameState, h *House, id ProjectID, log *EventLog) error {
	p, ok := gs.Projects[id]
	if !ok {
		return &ValidationError{Code: ErrNotFound, Message: fmt.Sprintf("project %d not found", id), Refs: []uint32{uint32(id)}}
	}
	if p.Owner != h.ID {
		return &ValidationError{Code: ErrNotOwner, Message: fmt.Sprintf("project %d not owned", id), Refs: []uint32{uint32(id)}}
	}
	h.Treasury += p.Cost / 2
	colony := p.Colony
	gs.RemoveProject(id)
	log.Add(gs.Turn, Event{Kind: EventProjectCancelled, House: h.ID,
		Detail: fmt.Sprintf("project %d at colony %d", id, colony), VisibleTo: []HouseID{h.ID}})
	return nil
}

// dockCapacity is the number of projects a facility may progress per turn.
func dockCapacity(rules *Rules, f *Facility, cst int) int {
	def := rules.Facilities[f.Class]
	return int(math.Floor(float64(def.DockBase) * CSTMod(cst)))
}

// runConstruction advances every colony's build and repair queues during the
// Production Phase. Projects whose host facility is crippled or destroyed
// forfeit their investment. Dock capacity defers excess projects; ground
// units and starbase repairs bypass the dock.
func runConstruction(gs *GameState, rules *Rules, log *EventLog) {
	for _, cid := range gs.SortedColonies() {
		c := gs.Colonies[cid]
		owner, ok := gs.Houses[c.Owner]
		if !ok || owner.Eliminated {
			continue
		}
		used := make(map[FacilityID]int)
		queues := [][]ProjectID{c.BuildQueue, c.RepairQueue}
		for qi, queue := range queues {
			var remaining []ProjectID
			for _, pid := range queue {
				p, ok := gs.Projects[pid]
				if !ok {
					continue
				}
				if lost := hostLost(gs, p); lost {
					log.Add(gs.Turn, Event{Kind: EventProjectLost, House: p.Owner, System: c.System,
						Detail: fmt.Sprintf("project %d lost with its facility", pid), VisibleTo: []HouseID{p.Owner}})
					gs.RemoveProject(pid)
					continue
				}
				if needsDock(gs, p) {
					host := gs.Facilities[p.Host]
					if used[p.Host] >= dockCapacity(rules, host, owner.Tech.Tier(TechCST)) {
						remaining = append(remaining, pid) // deferred
						continue
					}
					used[p.Host]++
				}
				p.TurnsLeft--
				if p.TurnsLeft > 0 {
					remaining = append(remaining, pid)
					continue
				}
				completeProject(gs, rules, c, p, log)
				delete(gs.Projects, pid)
			}
			if qi == 0 {
				c.BuildQueue = remaining
			} else {
				c.RepairQueue = remaining
			}
		}
	}
}

// hostLost reports whether a project's bound facility is gone or crippled.
func hostLost(gs *GameState, p *Project) bool {
	if p.Host == 0 {
		return false
	}
	f, ok := gs.Facilities[p.Host]
	return !ok || f.Hull != HullUndamaged
}

// needsDock reports whether a project consumes host dock capacity.
// Starbase repairs and ground units do not.
func needsDock(gs *GameState, p *Project) bool {
	if p.Host == 0 {
		return false
	}
	if p.Kind == ProjectRepair && p.TargetFac != 0 {
		return false
	}
	if p.Kind == ProjectBuild && p.Subject == SubjectGround {
		return false
	}
	return true
}

// completeProject spawns the finished entity or restores the repaired one.
func completeProject(gs *GameState, rules *Rules, c *Colony, p *Project, log *EventLog) {
	switch p.Kind {
	case ProjectRepair:
		if p.TargetShip != 0 {
			if s, ok := gs.Ships[p.TargetShip]; ok && s.Hull == HullCrippled {
				s.Hull = HullUndamaged
			}
		}
		if p.TargetFac != 0 {
			if f, ok := gs.Facilities[p.TargetFac]; ok && f.Hull == HullCrippled {
				f.Hull = HullUndamaged
			}
		}
		log.Add(gs.Turn, Event{Kind: EventRepaired, House: p.Owner, System: c.System,
			VisibleTo: []HouseID{p.Owner}})
		return
	}

	switch p.Subject {
	case SubjectShip:
		commissionShip(gs, rules, c, p.Owner, p.Class)
	case SubjectFacility:
		def := rules.Facilities[p.Class]
		f := &Facility{ID: gs.IDs.Facility(), Class: p.Class, Kind: def.Kind, Colony: c.ID, Tier: 1}
		gs.Facilities[f.ID] = f
		c.Facilities = append(c.Facilities, f.ID)
	case SubjectGround:
		def := rules.GroundClasses[p.Class]
		g := &GroundUnit{ID: gs.IDs.GroundUnit(), Class: p.Class, Kind: def.Kind, Owner: p.Owner, Colony: c.ID}
		gs.GroundUnits[g.ID] = g
		c.Ground = append(c.Ground, g.ID)
	}
	log.Add(gs.Turn, Event{Kind: EventBuilt, House: p.Owner, System: c.System,
		Detail: p.Class, VisibleTo: []HouseID{p.Owner}})
}

// commissionShip creates a hull in its own one-ship squadron parked at the
// colony. Fighters join the colony's fighter wing instead.
func commissionShip(gs *GameState, rules *Rules, c *Colony, owner HouseID, class string) *Ship {
	cls := rules.ShipClasses[class]
	s := &Ship{ID: gs.IDs.Ship(), Class: class, Owner: owner, Hull: HullUndamaged}
	gs.Ships[s.ID] = s
	sq := &Squadron{ID: gs.IDs.Squadron(), Owner: owner, Flagship: s.ID, Bucket: cls.Bucket}
	gs.Squadrons[sq.ID] = sq
	s.Squadron = sq.ID
	if cls.Bucket == BucketFighter {
		c.Fighters = append(c.Fighters, sq.ID)
	} else {
		c.Unassigned = append(c.Unassigned, sq.ID)
	}
	return s
}

// enforceCapacity applies the fighter and capital squadron caps with their
// two-turn grace window.
func enforceCapacity(gs *GameState, rules *Rules, log *EventLog) {
	for _, cid := range gs.SortedColonies() {
		enforceFighterCap(gs, rules, gs.Colonies[cid], log)
	}
	for _, hid := range gs.SortedHouses() {
		enforceCapitalCap(gs, rules, gs.Houses[hid], log)
	}
}

func enforceFighterCap(gs *GameState, rules *Rules, c *Colony, log *EventLog) {
	owner, ok := gs.Houses[c.Owner]
	if !ok {
		return
	}
	n := len(c.Fighters)
	max := (c.PU / 100) * FDMult(owner.Tech.Tier(TechFD))
	needSB := (n + 4) / 5
	ok = n <= max && operationalStarbases(gs, c) >= needSB
	if ok {
		if c.Violation != nil && c.Violation.Kind == "fighter" {
			c.Violation = nil
		}
		return
	}
	excess := n - max
	if excess < 1 {
		excess = 1
	}
	if c.Violation == nil || c.Violation.Kind != "fighter" {
		c.Violation = &CapacityViolation{Kind: "fighter", Grace: capacityGraceTurns, Excess: excess}
		log.Add(gs.Turn, Event{Kind: EventCapacityBreach, House: c.Owner, System: c.System,
			Detail: "fighter capacity exceeded", Amount: excess, VisibleTo: []HouseID{c.Owner}})
		return
	}
	c.Violation.Grace--
	c.Violation.Excess = excess
	if c.Violation.Grace > 0 {
		return
	}
	// grace expired: disband oldest wings first
	sort.Slice(c.Fighters, func(i, j int) bool { return c.Fighters[i] < c.Fighters[j] })
	for len(c.Fighters) > max && len(c.Fighters) > 0 {
		sq := c.Fighters[0]
		c.Fighters = c.Fighters[1:]
		gs.DestroySquadron(sq)
		log.Add(gs.Turn, Event{Kind: EventCapacityBreach, House: c.Owner, System: c.System,
			Detail: "fighter wing disbanded", VisibleTo: []HouseID{c.Owner}})
	}
	c.Violation = nil
}

// capitalSquadrons lists a house's squadrons whose flagship commands CR >= 7.
func capitalSquadrons(gs *GameState, rules *Rules, h HouseID) []SquadronID {
	var out []SquadronID
	for _, id := range sortedKeys(gs.Squadrons) {
		sq := gs.Squadrons[id]
		if sq.Owner != h {
			continue
		}
		flag, ok := gs.Ships[sq.Flagship]
		if !ok {
			continue
		}
		if rules.ShipClasses[flag.Class].CR >= 7 {
			out = append(out, id)
		}
	}
	return out
}

func enforceCapitalCap(gs *GameState, rules *Rules, h *House, log *EventLog) {
	if h.Eliminated {
		return
	}
	totalIU := 0
	for _, cid := range gs.ColoniesByOwner(h.ID) {
		totalIU += gs.Colonies[cid].IU
	}
	max := maxInt(8, (totalIU/100)*2)
	caps := capitalSquadrons(gs, rules, h.ID)
	if len(caps) <= max {
		h.CapitalViolation = nil
		return
	}
	excess := len(caps) - max
	if h.CapitalViolation == nil {
		h.CapitalViolation = &CapacityViolation{Kind: "capital", Grace: capacityGraceTurns, Excess: excess}
		log.Add(gs.Turn, Event{Kind: EventCapacityBreach, House: h.ID,
			Detail: "capital squadron cap exceeded", Amount: excess, VisibleTo: []HouseID{h.ID}})
		return
	}
	h.CapitalViolation.Grace--
	h.CapitalViolation.Excess = excess
	if h.CapitalViolation.Grace > 0 {
		return
	}
	// guild claims excess capitals: crippled flagships first, then lowest AS
	sort.Slice(caps, func(i, j int) bool {
		a := gs.Ships[gs.Squadrons[caps[i]].Flagship]
		b := gs.Ships[gs.Squadrons[caps[j]].Flagship]
		ac, bc := a.Hull == HullCrippled, b.Hull == HullCrippled
		if ac != bc {
			return ac
		}
		aAS, bAS := rules.ShipClasses[a.Class].AS, rules.ShipClasses[b.Class].AS
		if aAS != bAS {
			return aAS < bAS
		}
		return caps[i] < caps[j]
	})
	for i := 0; i < excess && i < len(caps); i++ {
		sq := caps[i]
		for _, s := range gs.ShipsInSquadron(sq) {
			h.Treasury += rules.ShipClasses[s.Class].PC / 2
		}
		gs.DestroySquadron(sq)
		log.Add(gs.Turn, Event{Kind: EventGuildClaim, House: h.ID,
			Detail: "guild claimed capital squadron", VisibleTo: []HouseID{h.ID}})
	}
	sweepEmptyFleets(gs, h.ID)
	h.CapitalViolation = nil
}
