package ec4x

import (
	"fmt"
	"sort"
)

// EspionageCost returns the EBP price of a budget action.
func EspionageCost(kind EspionageKind) int {
	switch kind {
	case EspSabotageLow:
		return 10
	case EspSabotageHigh:
		return 25
	case EspTechTheft:
		return 30
	case EspAssassination:
		return 40
	case EspEconomicManipulation:
		return 20
	case EspCyberAttack:
		return 15
	case EspPsyopsCampaign:
		return 15
	case EspIntelTheft:
		return 20
	case EspPlantDisinformation:
		return 10
	case EspCounterIntelSweep:
		return 10
	default:
		return 1 << 30 // unknown kinds never afford
	}
}

// spyIntent is one collected covert action awaiting simultaneous resolution.
type spyIntent struct {
	attacker HouseID
	fleet    FleetID // scout missions only
	kind     EspionageKind
	mission  FleetCommandType
	target   HouseID
	system   SystemID
	detected bool
}

// suspicionCIP is the counter-intel level at which a house is tipped off
// that something slipped past its watch, without learning who or what.
const suspicionCIP = 10

// resolveEspionage opens the Conflict Phase, after production and
// movement. All intents are collected first and every detection roll
// completes before any effect applies, so no house gains a first-mover
// edge.
func resolveEspionage(gs *GameState, rules *Rules, actions map[HouseID]*EspionageAction, log *EventLog) {
	var intents []*spyIntent

	// scout missions: single-scout fleets that reached their target
	for _, fid := range gs.SortedFleets() {
		f := gs.Fleets[fid]
		switch f.Mission {
		case CmdSpyColony, CmdSpySystem, CmdHackStarbase:
		default:
			continue
		}
		if f.Destination != 0 && f.Destination != f.System {
			continue // still in transit
		}
		if !isSingleScout(gs, rules, fid) {
			f.Mission = CmdHold
			continue
		}
		target := NoHouse
		if c, ok := gs.ColonyBySystem(f.System); ok {
			target = c.Owner
		}
		intents = append(intents, &spyIntent{
			attacker: f.Owner, fleet: fid, mission: f.Mission,
			target: target, system: f.System,
		})
	}

	// budget actions, one per house
	for _, hid := range gs.SortedHouses() {
		act := actions[hid]
		if act == nil {
			continue
		}
		h := gs.Houses[hid]
		cost := EspionageCost(act.Kind)
		if cost > h.EBP {
			continue
		}
		h.EBP -= cost
		tgt, ok := gs.Houses[act.Target]
		if !ok || tgt.Eliminated {
			continue
		}
		intents = append(intents, &spyIntent{attacker: hid, kind: act.Kind, target: act.Target})
	}

	sort.Slice(intents, func(i, j int) bool {
		if intents[i].attacker != intents[j].attacker {
			return intents[i].attacker < intents[j].attacker
		}
		return intents[i].fleet < intents[j].fleet
	})

	// detection pass
	for _, in := range intents {
		roller := NewRoller(gs.Seed, gs.Turn, EspionageTag(in.attacker, in.system)+":"+string(in.kind)+in.mission.String())
		if in.fleet != 0 {
			in.detected = detectScout(gs, rules, roller, in)
		} else {
			in.detected = detectCovert(gs, rules, roller, in)
		}
	}

	// effect pass
	for _, in := range intents {
		if in.fleet != 0 {
			applyScoutMission(gs, rules, in, log)
		} else {
			applyCovertAction(gs, rules, in, log)
		}
	}
}

// detectScout rolls every defending ELI asset in the system against the
// intruding scout. Starbases add +2 to their owner's ELI tier.
func detectScout(gs *GameState, rules *Rules, roller *Roller, in *spyIntent) bool {
	if in.target == NoHouse {
		return false // nobody home to notice
	}
	attacker := gs.Houses[in.attacker]
	clk := attacker.Tech.Tier(TechCLK)
	defender := gs.Houses[in.target]
	eli := defender.Tech.Tier(TechELI)

	// scout pickets in-system
	for _, fid := range gs.FleetsInSystem(in.system) {
		f := gs.Fleets[fid]
		if f.Owner != in.target {
			continue
		}
		for _, s := range gs.ShipsInFleet(fid) {
			if rules.ShipClasses[s.Class].Scout && roller.D20() >= DetectionThreshold(eli, clk) {
				return true
			}
		}
	}
	// starbases watch with sharper eyes
	if c, ok := gs.ColonyBySystem(in.system); ok && c.Owner == in.target {
		for _, facID := range c.Facilities {
			fac := gs.Facilities[facID]
			if fac != nil && fac.Kind == FacilityKindStarbase && fac.Hull != HullDestroyed {
				if roller.D20() >= DetectionThreshold(eli+2, clk) {
					return true
				}
			}
		}
	}
	return false
}

// detectCovert rolls the target's counter-intelligence against a budget
// action: base 10, plus CIC tier, plus a point per 10 banked CIP.
func detectCovert(gs *GameState, rules *Rules, roller *Roller, in *spyIntent) bool {
	tgt := gs.Houses[in.target]
	threshold := 10 + tgt.Tech.Tier(TechCIC) + tgt.CIP/10
	if threshold > 19 {
		threshold = 19
	}
	return roller.D20() > threshold
}

// applyScoutMission consumes the scout and either files an intel report or
// reports the loss. The scout never comes home.
func applyScoutMission(gs *GameState, rules *Rules, in *spyIntent, log *EventLog) {
	if _, ok := gs.Fleets[in.fleet]; !ok {
		return
	}
	sys := in.system
	report := buildSpyReport(gs, rules, in)
	gs.DestroyFleet(in.fleet)

	if in.detected {
		log.Add(gs.Turn, Event{Kind: EventSpyCaught, House: in.attacker, System: sys,
			Detail: "scout destroyed on station", VisibleTo: []HouseID{in.attacker, in.target}})
		log.Award(in.attacker, rules.Prestige.EspionageCaught, ReasonCaughtSpying, sys)
		if in.target != NoHouse {
			log.Add(gs.Turn, Event{Kind: EventCounterIntel, House: in.target, System: sys,
				Detail:    fmt.Sprintf("intruding scout of house %d destroyed", in.attacker),
				VisibleTo: []HouseID{in.target}})
		}
		return
	}

	attacker := gs.Houses[in.attacker]
	attacker.Intel = append(attacker.Intel, report)
	log.Add(gs.Turn, Event{Kind: EventSpySuccess, House: in.attacker, System: sys,
		Detail: report.Summary, VisibleTo: []HouseID{in.attacker}})
	log.Award(in.attacker, rules.Prestige.EspionageSuccess, ReasonEspionage, sys)

	// a watchful defender senses the visit without learning whose it was
	if in.target != NoHouse && gs.Houses[in.target].CIP >= suspicionCIP {
		log.Add(gs.Turn, Event{Kind: EventUnusualActivity, House: in.target, System: sys,
			Detail: "unusual activity reported", VisibleTo: []HouseID{in.target}})
	}
}

// buildSpyReport snapshots what the mission saw.
func buildSpyReport(gs *GameState, rules *Rules, in *spyIntent) IntelReport {
	r := IntelReport{
		Turn:    gs.Turn,
		Quality: IntelSpy,
		House:   in.target,
		System:  in.system,
	}
	switch in.mission {
	case CmdSpyColony:
		if c, ok := gs.ColonyBySystem(in.system); ok {
			r.Colony = &ColonyIntel{
				PU: c.PU, IU: c.IU, TechSL: gs.Houses[c.Owner].Tech.SL,
				ShieldLevel: c.ShieldLevel,
				Facilities:  len(c.Facilities), GroundUnits: len(c.Ground),
			}
			r.Summary = fmt.Sprintf("colony survey of system %d", in.system)
		} else {
			r.Summary = fmt.Sprintf("system %d is uncolonized", in.system)
		}
	case CmdSpySystem:
		for _, fid := range gs.FleetsInSystem(in.system) {
			f := gs.Fleets[fid]
			r.Fleets = append(r.Fleets, FleetIntel{
				House: f.Owner, Squadrons: len(f.Squadrons),
			})
		}
		r.Summary = fmt.Sprintf("fleet census of system %d", in.system)
	case CmdHackStarbase:
		if tgt, ok := gs.Houses[in.target]; ok {
			r.TechSL = tgt.Tech.SL
			r.Treasury = tgt.Treasury
			r.Quality = IntelHack
			r.Summary = fmt.Sprintf("starbase records of house %d", in.target)
		}
	}
	return r
}

// applyCovertAction applies a budget action's effect or burns the agent.
func applyCovertAction(gs *GameState, rules *Rules, in *spyIntent, log *EventLog) {
	attacker := gs.Houses[in.attacker]
	tgt := gs.Houses[in.target]

	if in.detected {
		log.Award(in.attacker, rules.Prestige.EspionageCaught, ReasonCaughtSpying, 0)
		log.Add(gs.Turn, Event{Kind: EventCounterIntel, House: in.target,
			Detail:    fmt.Sprintf("agents of house %d exposed (%s)", in.attacker, in.kind),
			VisibleTo: []HouseID{in.target, in.attacker}})
		return
	}

	roller := NewRoller(gs.Seed, gs.Turn, fmt.Sprintf("covert:%d:%s", in.attacker, in.kind))
	detail := string(in.kind)

	switch in.kind {
	case EspSabotageLow, EspSabotageHigh:
		colonies := gs.ColoniesByOwner(in.target)
		if len(colonies) == 0 {
			return
		}
		c := gs.Colonies[colonies[roller.Intn(len(colonies))]]
		loss := minInt(5, c.IU)
		if in.kind == EspSabotageHigh {
			loss = minInt(15, c.IU)
			c.InfraDamage = minFloat(1, c.InfraDamage+0.1)
		}
		c.IU -= loss
		detail = fmt.Sprintf("sabotage destroyed %d IU at colony %d", loss, c.ID)
		log.Add(gs.Turn, Event{Kind: EventUnusualActivity, House: in.target, System: c.System,
			Detail: "industrial accident", VisibleTo: []HouseID{in.target}})
	case EspTechTheft:
		if f, ok := techToSteal(attacker, tgt); ok && grantTechTier(rules, attacker, f) {
			detail = fmt.Sprintf("stole %s research", f)
			break
		}
		stolen := minInt(50, tgt.Tech.AvailableSRP)
		tgt.Tech.AvailableSRP -= stolen
		attacker.Tech.AvailableSRP += stolen
		attacker.Tech.LifetimeSRP += stolen
		detail = fmt.Sprintf("stole %d SRP", stolen)
	case EspAssassination:
		log.Award(in.target, -10, ReasonEspionage, 0)
		detail = "assassination shook the court"
	case EspEconomicManipulation:
		stolen := minInt(tgt.Treasury/5, 60)
		tgt.Treasury -= stolen
		attacker.Treasury += stolen
		detail = fmt.Sprintf("diverted %d PP", stolen)
	case EspCyberAttack:
		drained := minInt(20, tgt.EBP)
		tgt.EBP -= drained
		tgt.CIP -= minInt(10, tgt.CIP)
		detail = fmt.Sprintf("crippled espionage networks (%d EBP burned)", drained)
	case EspPsyopsCampaign:
		log.Award(in.target, -5, ReasonEspionage, 0)
		detail = "psyops campaign eroded standing"
	case EspIntelTheft:
		if n := len(tgt.Intel); n > 0 {
			attacker.Intel = append(attacker.Intel, tgt.Intel[roller.Intn(n)])
			detail = "copied a rival intelligence file"
		} else {
			detail = "intel theft found empty archives"
		}
	case EspPlantDisinformation:
		fake := IntelReport{
			Turn: gs.Turn, Quality: IntelDisinfo, House: in.attacker,
			Summary: "fleet buildup reported near the frontier",
		}
		tgt.Intel = append(tgt.Intel, fake)
		detail = "disinformation planted"
	case EspCounterIntelSweep:
		attacker.CIP += 15
		// purge any planted lies from our own archives
		var clean []IntelReport
		for _, r := range attacker.Intel {
			if r.Quality != IntelDisinfo {
				clean = append(clean, r)
			}
		}
		attacker.Intel = clean
		detail = "counterintelligence sweep complete"
	}

	log.Add(gs.Turn, Event{Kind: EventCovertAction, House: in.attacker,
		Detail: detail, VisibleTo: []HouseID{in.attacker}})
	log.Award(in.attacker, rules.Prestige.EspionageSuccess, ReasonEspionage, 0)
}

// techToSteal picks the first tech line where the target is ahead of the
// thief, in canonical field order.
func techToSteal(thief, tgt *House) (TechField, bool) {
	for _, f := range AllTechFields() {
		if tgt.Tech.Tier(f) > thief.Tech.Tier(f) {
			return f, true
		}
	}
	return "", false
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
