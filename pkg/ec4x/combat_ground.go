package ec4x

import (
	"fmt"
	"sort"
)

const (
	maxBombardRounds = 3
	maxGroundRounds  = 10
)

// resolvePlanetary runs bombardment, invasion, or blitz for every attacker
// that fought through to the planet, in ascending house order.
func resolvePlanetary(gs *GameState, rules *Rules, sys SystemID, colony *Colony, attackers []HouseID, moral map[HouseID]*taskForce, log *EventLog) TheaterReport {
	report := TheaterReport{Theater: "planetary"}
	for _, hid := range attackers {
		if _, alive := gs.Colonies[colony.ID]; !alive || colony.Owner == hid {
			break
		}
		for _, fid := range gs.FleetsInSystem(sys) {
			f, ok := gs.Fleets[fid]
			if !ok || f.Owner != hid {
				continue
			}
			mod := 0
			if m := moral[hid]; m != nil {
				mod = m.moraleMod
			}
			switch f.Mission {
			case CmdBombard:
				runBombardment(gs, rules, sys, colony, fid, mod, maxBombardRounds, &report, log)
			case CmdInvade:
				runInvasion(gs, rules, sys, colony, fid, mod, false, &report, log)
			case CmdBlitz:
				runInvasion(gs, rules, sys, colony, fid, mod, true, &report, log)
			}
		}
	}
	return report
}

// groundDefense tracks cumulative ground-combat damage per unit this turn.
// A unit cripples once damage reaches its DS and dies at twice DS.
type groundDefense struct {
	taken map[GroundUnitID]int
}

func (gd *groundDefense) absorb(gs *GameState, rules *Rules, units []GroundUnitID, hits int) (int, []GroundUnitID) {
	var killed []GroundUnitID
	for _, gid := range units {
		if hits <= 0 {
			break
		}
		g, ok := gs.GroundUnits[gid]
		if !ok {
			continue
		}
		ds := rules.GroundClasses[g.Class].DS
		if ds < 1 {
			ds = 1
		}
		cap := 2*ds - gd.taken[gid]
		if cap <= 0 {
			continue
		}
		soak := minInt(hits, cap)
		gd.taken[gid] += soak
		hits -= soak
		if gd.taken[gid] >= 2*ds {
			killed = append(killed, gid)
		} else if gd.taken[gid] >= ds {
			g.Crippled = true
		}
	}
	return hits, killed
}

// splitBatteries partitions a colony's live ground units into batteries
// and field forces, ascending by id.
func splitBatteries(gs *GameState, colony *Colony) (batteries, field []GroundUnitID) {
	ids := append([]GroundUnitID(nil), colony.Ground...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, gid := range ids {
		g, ok := gs.GroundUnits[gid]
		if !ok {
			continue
		}
		if g.Kind == GroundKindBattery {
			batteries = append(batteries, gid)
		} else {
			field = append(field, gid)
		}
	}
	return batteries, field
}

// runBombardment shells the colony for up to the given rounds. Each
// squadron rolls its own CER; hits flow through the battery line, then
// the field force, and reach industry only once the garrison is gone.
// Batteries return fire each round.
func runBombardment(gs *GameState, rules *Rules, sys SystemID, colony *Colony, fid FleetID, moraleMod, rounds int, report *TheaterReport, log *EventLog) {
	f, ok := gs.Fleets[fid]
	if !ok {
		return
	}
	h := gs.Houses[f.Owner]

	for round := 1; round <= rounds; round++ {
		shield := rules.Shield(colony.ShieldLevel)
		blocked := false
		if shield.Threshold > 0 {
			sr := NewRoller(gs.Seed, gs.Turn, fmt.Sprintf("shield:%d:%d:%d", sys, f.Owner, round))
			blocked = sr.D20() >= shield.Threshold
		}

		sqs := append([]SquadronID(nil), f.Squadrons...)
		sort.Slice(sqs, func(i, j int) bool { return sqs[i] < sqs[j] })
		hits := 0
		fired := false
		for _, sqID := range sqs {
			conventional, breaker := squadronBombardAS(gs, rules, h, sqID)
			if conventional+breaker == 0 {
				continue
			}
			fired = true
			roller := NewRoller(gs.Seed, gs.Turn, fmt.Sprintf("bombard:%d:%d:%d", sys, sqID, round))
			mult := SpaceCER(roller.D10() + moraleMod)
			hits += bombardVolley(conventional, breaker, mult, blocked, shield.Block)
		}
		if !fired {
			break
		}
		report.Rounds++
		applyBombardment(gs, rules, colony, hits, report)

		roller := NewRoller(gs.Seed, gs.Turn, fmt.Sprintf("battery:%d:%d:%d", sys, f.Owner, round))
		batteryReturnFire(gs, rules, sys, colony, fid, round, roller, report, log)

		if _, alive := gs.Fleets[fid]; !alive {
			break
		}
	}
	log.Add(gs.Turn, Event{Kind: EventBombardment, House: f.Owner, System: sys, Public: true,
		Detail: fmt.Sprintf("colony %d bombarded", colony.ID)})
}

// squadronBombardAS sums one squadron's attack strength, split into
// conventional fire and planet-breaker ordnance that bypasses shields.
func squadronBombardAS(gs *GameState, rules *Rules, h *House, sqID SquadronID) (conventional, breaker int) {
	for _, s := range gs.ShipsInSquadron(sqID) {
		as := shipAS(rules, h, s)
		if rules.ShipClasses[s.Class].Breaker {
			breaker += as
		} else {
			conventional += as
		}
	}
	return conventional, breaker
}

// bombardVolley converts one squadron's split AS into hits. The shield,
// when it holds this round, soaks its block fraction of conventional fire;
// planet-breaker ordnance goes through untouched.
func bombardVolley(conventional, breaker int, mult float64, blocked bool, block float64) int {
	pb := ceilMul(breaker, mult)
	if blocked {
		return ceilMul(conventional, mult*(1-block)) + pb
	}
	return ceilMul(conventional, mult) + pb
}

// applyBombardment flows one round's hits through the colony. The battery
// line absorbs its combined DS to lose one gun and passes the remainder to
// the field force, where units cripple at DS and die at half again, with
// overkill on a destroyed field unit lost. Industry and population take
// damage only when the colony has no ground defense left.
func applyBombardment(gs *GameState, rules *Rules, colony *Colony, hits int, report *TheaterReport) {
	batteries, field := splitBatteries(gs, colony)
	if len(batteries) > 0 {
		lineDS := 0
		for _, gid := range batteries {
			g := gs.GroundUnits[gid]
			ds := maxInt(1, rules.GroundClasses[g.Class].DS)
			if g.Crippled {
				ds = maxInt(1, ds/2)
			}
			lineDS += ds
		}
		if hits < lineDS {
			return
		}
		hits -= lineDS
		report.Losses = append(report.Losses, fmt.Sprintf("house %d lost ground unit %d", colony.Owner, batteries[0]))
		gs.DestroyGroundUnit(batteries[0])
	}
	if len(field) > 0 {
		for _, gid := range field {
			if hits <= 0 {
				return
			}
			g := gs.GroundUnits[gid]
			ds := maxInt(1, rules.GroundClasses[g.Class].DS)
			if !g.Crippled {
				if hits < ds {
					return
				}
				hits -= ds
				g.Crippled = true
			}
			if hits >= maxInt(1, ds/2) {
				report.Losses = append(report.Losses, fmt.Sprintf("house %d lost ground unit %d", colony.Owner, gid))
				gs.DestroyGroundUnit(gid)
				return // overkill dies with the unit
			}
		}
		return
	}
	if len(batteries) > 0 || hits <= 0 {
		return
	}
	iuLoss := minInt(hits, colony.IU)
	colony.IU -= iuLoss
	hits -= iuLoss
	if hits > 0 {
		puLoss := minInt(hits, colony.PU)
		colony.PU -= puLoss
		colony.Souls = colony.PU * 1_000_000
	}
}

// batteryReturnFire lets surviving ground batteries shoot back at the
// orbiting squadrons. A natural 9 bypasses destruction protection.
func batteryReturnFire(gs *GameState, rules *Rules, sys SystemID, colony *Colony, fid FleetID, round int, roller *Roller, report *TheaterReport, log *EventLog) {
	batteries, _ := splitBatteries(gs, colony)
	as := 0
	for _, gid := range batteries {
		g := gs.GroundUnits[gid]
		ba := rules.GroundClasses[g.Class].AS
		if g.Crippled {
			ba /= 2
		}
		as += ba
	}
	if as == 0 {
		return
	}
	f, ok := gs.Fleets[fid]
	if !ok {
		return
	}
	roll := roller.D10()
	critical := roll == 9
	hits := ceilMul(as, SpaceCER(roll))

	// weighted pick over orbiting squadrons, crippled preferred
	sqs := append([]SquadronID(nil), f.Squadrons...)
	sort.Slice(sqs, func(i, j int) bool { return sqs[i] < sqs[j] })
	var weights []float64
	owner := gs.Houses[f.Owner]
	for _, sqID := range sqs {
		w := 1.0
		for _, s := range gs.ShipsInSquadron(sqID) {
			if s.Hull == HullCrippled {
				w = 2.0
			}
		}
		weights = append(weights, w)
	}
	idx := roller.WeightedPick(weights)
	if idx < 0 {
		return
	}
	target := sqs[idx]
	ds := 0
	crippled := true
	for _, s := range gs.ShipsInSquadron(target) {
		ds += shipDS(rules, owner, s)
		if s.Hull != HullCrippled {
			crippled = false
		}
	}
	if hits < ds {
		return
	}
	if crippled || critical {
		report.Losses = append(report.Losses, fmt.Sprintf("house %d lost squadron %d to batteries", f.Owner, target))
		log.Award(colony.Owner, rules.Prestige.SquadronKill, ReasonCombatKill, sys)
		log.Award(f.Owner, -rules.Prestige.SquadronKill, ReasonCombatLoss, sys)
		gs.DestroySquadron(target)
		sweepEmptyFleets(gs, f.Owner)
		return
	}
	for _, s := range gs.ShipsInSquadron(target) {
		s.Hull = HullCrippled
	}
}

// marineForce counts the marine divisions riding a fleet's transports.
func marineForce(gs *GameState, rules *Rules, fid FleetID) int {
	n := 0
	for _, s := range gs.ShipsInFleet(fid) {
		if s.Cargo.Type == CargoMarines {
			n += s.Cargo.Quantity
		}
	}
	return n
}

// runInvasion lands marines after the batteries fall. A blitz combines the
// bombardment and landing in one stroke: batteries may savage the
// transports and the marines fight at half strength, but a win hands over
// the colony's facilities intact.
func runInvasion(gs *GameState, rules *Rules, sys SystemID, colony *Colony, fid FleetID, moraleMod int, blitz bool, report *TheaterReport, log *EventLog) {
	f, ok := gs.Fleets[fid]
	if !ok {
		return
	}
	attacker := f.Owner

	runBombardment(gs, rules, sys, colony, fid, moraleMod, 1, report, log)
	if _, alive := gs.Fleets[fid]; !alive {
		return
	}
	batteries, field := splitBatteries(gs, colony)
	if len(batteries) > 0 && !blitz {
		// invasion needs the guns silenced first
		log.Add(gs.Turn, Event{Kind: EventInvasion, House: attacker, System: sys,
			Detail: "landing aborted, batteries active", VisibleTo: []HouseID{attacker}})
		return
	}

	marines := marineForce(gs, rules, fid)
	if marines == 0 {
		return
	}
	mdClass, ok := rules.GroundClasses[GroundMarine]
	if !ok {
		return
	}
	atkPerDiv := mdClass.AS
	if blitz {
		atkPerDiv = maxInt(1, atkPerDiv/2)
	}

	defenders := append(batteries, field...)
	gd := &groundDefense{taken: make(map[GroundUnitID]int)}
	marineHits := 0 // cumulative damage on the landing force

	report.Rounds++
	for round := 1; round <= maxGroundRounds; round++ {
		if marines <= 0 || len(liveGround(gs, defenders)) == 0 {
			break
		}
		roller := NewRoller(gs.Seed, gs.Turn, fmt.Sprintf("ground:%d:%d:%d", sys, attacker, round))

		atkHits := ceilMul(marines*atkPerDiv, GroundCER(roller.D10()+moraleMod))
		var killed []GroundUnitID
		_, killed = gd.absorb(gs, rules, liveGround(gs, defenders), atkHits)
		for _, gid := range killed {
			report.Losses = append(report.Losses, fmt.Sprintf("house %d lost ground unit %d", colony.Owner, gid))
			gs.DestroyGroundUnit(gid)
		}

		defAS := 0
		for _, gid := range liveGround(gs, defenders) {
			g := gs.GroundUnits[gid]
			a := rules.GroundClasses[g.Class].AS
			if g.Crippled {
				a /= 2
			}
			defAS += a
		}
		if defAS > 0 {
			marineHits += ceilMul(defAS, GroundCER(roller.D10()))
			lost := marineHits / maxInt(1, 2*mdClass.DS)
			marineHits %= maxInt(1, 2*mdClass.DS)
			marines -= lost
		}
	}

	if marines > 0 && len(liveGround(gs, defenders)) == 0 {
		captureColony(gs, rules, sys, colony, fid, attacker, marines, blitz, log)
	} else {
		// landing repulsed, the transports come home empty
		for _, s := range gs.ShipsInFleet(fid) {
			if s.Cargo.Type == CargoMarines {
				s.Cargo = Cargo{}
			}
		}
		log.Add(gs.Turn, Event{Kind: EventInvasion, House: attacker, System: sys, Public: true,
			Detail: fmt.Sprintf("invasion of colony %d repulsed", colony.ID)})
		log.Award(colony.Owner, rules.Prestige.RetreatForced, ReasonCombatKill, sys)
		log.Award(attacker, -rules.Prestige.RetreatForced, ReasonCombatLoss, sys)
	}
}

func liveGround(gs *GameState, ids []GroundUnitID) []GroundUnitID {
	var out []GroundUnitID
	for _, gid := range ids {
		if _, ok := gs.GroundUnits[gid]; ok {
			out = append(out, gid)
		}
	}
	return out
}

// captureColony transfers ownership, lands the surviving marines, and
// applies scorched-earth losses unless the colony was blitzed.
func captureColony(gs *GameState, rules *Rules, sys SystemID, colony *Colony, fid FleetID, attacker HouseID, marines int, blitz bool, log *EventLog) {
	prev := colony.Owner
	if !blitz {
		colony.IU /= 2 // loyal citizens wreck what they can
		colony.ShieldLevel = 0
	}
	gs.TransferColony(colony.ID, attacker)

	for _, s := range gs.ShipsInFleet(fid) {
		if s.Cargo.Type == CargoMarines {
			s.Cargo = Cargo{}
		}
	}
	for i := 0; i < marines; i++ {
		g := &GroundUnit{ID: gs.IDs.GroundUnit(), Class: GroundMarine,
			Kind: GroundKindMarine, Owner: attacker, Colony: colony.ID}
		gs.GroundUnits[g.ID] = g
		colony.Ground = append(colony.Ground, g.ID)
	}
	if f, ok := gs.Fleets[fid]; ok {
		f.Mission = CmdHold
	}

	log.Add(gs.Turn, Event{Kind: EventColonyCaptured, House: attacker, System: sys, Public: true,
		Detail: fmt.Sprintf("colony %d captured from house %d", colony.ID, prev)})
	log.Award(attacker, rules.Prestige.ColonyCaptured, ReasonColonyCaptured, sys)
	log.Award(prev, rules.Prestige.ColonyLost, ReasonColonyLost, sys)
}
