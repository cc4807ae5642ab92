package ec4x

import (
	"fmt"
	"sort"
)

const maxCombatRounds = 20

// TheaterReport summarizes one theater of a system battle.
type TheaterReport struct {
	Theater string   `json:"theater"`
	Rounds  int      `json:"rounds"`
	Losses  []string `json:"losses,omitempty"`
}

// CombatReport is the per-system battle record delivered to participants
// through their filtered views.
type CombatReport struct {
	System   SystemID        `json:"system"`
	Turn     int             `json:"turn"`
	Houses   []HouseID       `json:"houses"`
	Theaters []TheaterReport `json:"theaters"`
	Outcome  string          `json:"outcome"`
}

// combatUnit is one squadron or starbase inside a theater. Damage runs on
// the unit during rounds and is flushed to game state afterward.
type combatUnit struct {
	sq       SquadronID
	facility FacilityID // set for starbases
	house    HouseID
	fleet    FleetID // 0 for colony-bound units
	bucket   Bucket

	as, ds int
	state  HullState

	screened     bool
	raider       bool
	detected     bool
	scout        bool
	neverRetreat bool
	holds        bool

	crippledBy    HouseID
	crippledRound int
	hitBy         map[HouseID]bool
}

func (u *combatUnit) live() bool { return u.state != HullDestroyed }

// taskForce is one house's force in one theater.
type taskForce struct {
	house      HouseID
	units      []*combatUnit
	roe        int
	moraleMod  int
	moraleCrit bool
	critSpent  bool
	retreated  bool
	engaged    map[HouseID]bool
}

func (tf *taskForce) liveAS() int {
	total := 0
	for _, u := range tf.units {
		if u.live() && !u.screened {
			total += u.as
		}
	}
	return total
}

func (tf *taskForce) defeated() bool {
	if tf.retreated {
		return true
	}
	for _, u := range tf.units {
		if u.live() && !u.screened {
			return false
		}
	}
	return true
}

// resolveConflicts runs the Conflict Phase: every system where hostile
// forces meet resolves Space, then Orbital, then Planetary theaters.
func resolveConflicts(gs *GameState, rules *Rules, log *EventLog) {
	for _, sys := range gs.SortedSystems() {
		resolveSystemCombat(gs, rules, sys, log)
	}
	updateBlockades(gs)
}

func resolveSystemCombat(gs *GameState, rules *Rules, sys SystemID, log *EventLog) {
	present := housesPresent(gs, sys)
	if len(present) < 2 && !hasPlanetaryMission(gs, sys) {
		return
	}
	hostile := hostilityMatrix(gs, sys, present)
	anyHostile := false
	for _, row := range hostile {
		for _, v := range row {
			if v {
				anyHostile = true
			}
		}
	}
	if !anyHostile && !hasPlanetaryMission(gs, sys) {
		return
	}

	discloseCombatants(gs, rules, sys, present, hostile)

	report := CombatReport{System: sys, Turn: gs.Turn, Houses: present}
	moral := rollMorale(gs, rules, present, log)

	spaceTFs := buildSpaceForces(gs, rules, sys, present, moral)
	if countHostileSides(spaceTFs, hostile) >= 2 {
		tr := runTheater(gs, rules, sys, "space", spaceTFs, hostile, log)
		report.Theaters = append(report.Theaters, tr)
		flushTheater(gs, rules, sys, spaceTFs, log)
	}

	// orbital runs only when an attacker survived space and the colony
	// owner still has something to defend
	colony, hasColony := gs.ColonyBySystem(sys)
	if hasColony {
		attackers := survivingAttackers(gs, spaceTFs, sys, colony.Owner, hostile)
		if len(attackers) > 0 {
			orbTFs := buildOrbitalForces(gs, rules, sys, colony, attackers, moral)
			if countHostileSides(orbTFs, hostile) >= 2 {
				tr := runTheater(gs, rules, sys, "orbital", orbTFs, hostile, log)
				report.Theaters = append(report.Theaters, tr)
				flushTheater(gs, rules, sys, orbTFs, log)
			}
			if orbitalDefenderDefeated(orbTFs, colony.Owner) {
				tr := resolvePlanetary(gs, rules, sys, colony, attackers, moral, log)
				if tr.Rounds > 0 {
					report.Theaters = append(report.Theaters, tr)
				}
			}
		}
	}

	if len(report.Theaters) > 0 {
		log.Reports = append(log.Reports, report)
		log.Add(gs.Turn, Event{Kind: EventCombat, System: sys, Public: true,
			Detail: fmt.Sprintf("battle in system %d", sys), VisibleTo: present})
	}
}

// discloseCombatants files a Perfect intel report with each combatant
// covering every enemy force in the system. Battle lines are visible to
// both sides before the first shot.
func discloseCombatants(gs *GameState, rules *Rules, sys SystemID, present []HouseID, hostile map[HouseID]map[HouseID]bool) {
	colony, hasColony := gs.ColonyBySystem(sys)
	for _, hid := range present {
		h := gs.Houses[hid]
		for _, enemy := range present {
			if enemy == hid || !hostile[hid][enemy] {
				continue
			}
			r := IntelReport{
				Turn: gs.Turn, Quality: IntelPerfect, House: enemy, System: sys,
				Summary: fmt.Sprintf("battle line of house %d in system %d", enemy, sys),
			}
			for _, fid := range gs.FleetsInSystem(sys) {
				f := gs.Fleets[fid]
				if f.Owner != enemy {
					continue
				}
				fi := FleetIntel{Fleet: fid, House: enemy, Squadrons: len(f.Squadrons)}
				for _, s := range gs.ShipsInFleet(fid) {
					cls := rules.ShipClasses[s.Class]
					if cls.ETAC || cls.Transport {
						fi.Transports++
					}
				}
				r.Fleets = append(r.Fleets, fi)
			}
			if hasColony && colony.Owner == enemy {
				r.Colony = &ColonyIntel{
					PU: colony.PU, IU: colony.IU,
					TechSL:      gs.Houses[enemy].Tech.SL,
					ShieldLevel: colony.ShieldLevel,
					Facilities:  len(colony.Facilities), GroundUnits: len(colony.Ground),
				}
			}
			if r.Colony == nil && len(r.Fleets) == 0 {
				continue
			}
			h.Intel = append(h.Intel, r)
		}
	}
}

// housesPresent lists houses with fleets in the system, plus the colony
// owner, ascending.
func housesPresent(gs *GameState, sys SystemID) []HouseID {
	seen := make(map[HouseID]bool)
	for _, fid := range gs.FleetsInSystem(sys) {
		seen[gs.Fleets[fid].Owner] = true
	}
	if c, ok := gs.ColonyBySystem(sys); ok {
		seen[c.Owner] = true
	}
	var out []HouseID
	for h := range seen {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func hasPlanetaryMission(gs *GameState, sys SystemID) bool {
	for _, fid := range gs.FleetsInSystem(sys) {
		switch gs.Fleets[fid].Mission {
		case CmdBombard, CmdInvade, CmdBlitz:
			return true
		}
	}
	return false
}

// hostilityMatrix evaluates the hostile-targeting predicate pairwise.
func hostilityMatrix(gs *GameState, sys SystemID, houses []HouseID) map[HouseID]map[HouseID]bool {
	m := make(map[HouseID]map[HouseID]bool, len(houses))
	for _, a := range houses {
		m[a] = make(map[HouseID]bool)
		for _, b := range houses {
			if a != b {
				m[a][b] = hostileTo(gs, sys, a, b)
			}
		}
	}
	// engagement is mutual
	for _, a := range houses {
		for _, b := range houses {
			if a != b && m[a][b] {
				m[b][a] = true
			}
		}
	}
	return m
}

func hostileTo(gs *GameState, sys SystemID, a, b HouseID) bool {
	ha := gs.Houses[a]
	switch ha.RelationTo(b) {
	case RelationEnemy:
		return true
	case RelationHostile:
		return provocativeIn(gs, sys, b) && inTerritory(gs, sys, a)
	default:
		return provocativeIn(gs, sys, b) && gs.SystemControlledBy(sys, a)
	}
}

// provocativeIn reports whether a house has fleets on aggressive missions
// in the system.
func provocativeIn(gs *GameState, sys SystemID, h HouseID) bool {
	for _, fid := range gs.FleetsInSystem(sys) {
		f := gs.Fleets[fid]
		if f.Owner != h {
			continue
		}
		if f.Mission.Provocative() || f.Standing == StandingBlockade {
			return true
		}
	}
	return false
}

// inTerritory reports whether the system is controlled by the house or
// adjacent to one of its colonies.
func inTerritory(gs *GameState, sys SystemID, h HouseID) bool {
	if gs.SystemControlledBy(sys, h) {
		return true
	}
	s, ok := gs.Systems[sys]
	if !ok {
		return false
	}
	for _, l := range s.Lanes {
		if gs.SystemControlledBy(l.To, h) {
			return true
		}
	}
	return false
}

// rollMorale runs the per-house morale check for this turn's combats.
// Non-positive prestige forces a -1 and puts one random fleet on hold.
func rollMorale(gs *GameState, rules *Rules, houses []HouseID, log *EventLog) map[HouseID]*taskForce {
	out := make(map[HouseID]*taskForce, len(houses))
	for _, hid := range houses {
		h := gs.Houses[hid]
		tf := &taskForce{house: hid, engaged: make(map[HouseID]bool)}
		roller := NewRoller(gs.Seed, gs.Turn, fmt.Sprintf("morale:%d", hid))
		if h.Prestige <= 0 {
			tf.moraleMod = -1
			fleets := gs.FleetsByOwner(hid)
			if len(fleets) > 0 {
				held := fleets[roller.Intn(len(fleets))]
				if f, ok := gs.Fleets[held]; ok {
					f.Standing = StandingHold
				}
			}
		} else {
			tier := rules.MoraleTierFor(h.Prestige)
			if roller.D20() >= tier.Threshold {
				tf.moraleMod = tier.Modifier
				tf.moraleCrit = tier.Critical
			}
		}
		out[hid] = tf
	}
	return out
}

// buildSpaceForces forms per-house task forces from mobile fleets only.
func buildSpaceForces(gs *GameState, rules *Rules, sys SystemID, houses []HouseID, moral map[HouseID]*taskForce) []*taskForce {
	var tfs []*taskForce
	for _, hid := range houses {
		tmpl := moral[hid]
		tf := &taskForce{house: hid, roe: -1, moraleMod: tmpl.moraleMod,
			moraleCrit: tmpl.moraleCrit, engaged: make(map[HouseID]bool)}
		for _, fid := range gs.FleetsInSystem(sys) {
			f := gs.Fleets[fid]
			if f.Owner != hid || !mobileStanding(f.Standing) {
				continue
			}
			if f.ROE > tf.roe {
				tf.roe = f.ROE
			}
			for _, sqID := range f.Squadrons {
				if u := unitFromSquadron(gs, rules, sqID, fid, 1.0); u != nil {
					u.holds = f.Standing == StandingHold && gs.Houses[hid].Prestige <= 0
					tf.units = append(tf.units, u)
				}
			}
		}
		if tf.roe < 0 {
			tf.roe = 5
		}
		if len(tf.units) > 0 {
			tfs = append(tfs, tf)
		}
	}
	return tfs
}

func mobileStanding(s StandingCommand) bool {
	switch s {
	case StandingGuardBase, StandingGuardCol, StandingReserve, StandingMothball:
		return false
	default:
		return true
	}
}

// buildOrbitalForces forms the attacker TFs that survived space plus the
// defender's orbital assets: guard fleets, reserve fleets at half strength,
// unassigned squadrons, colony fighters, and starbases. Mothballed fleets
// and spacelift hulls are screened.
func buildOrbitalForces(gs *GameState, rules *Rules, sys SystemID, colony *Colony, attackers []HouseID, moral map[HouseID]*taskForce) []*taskForce {
	var tfs []*taskForce
	isAttacker := make(map[HouseID]bool, len(attackers))
	for _, a := range attackers {
		isAttacker[a] = true
	}
	houses := append(append([]HouseID(nil), attackers...), colony.Owner)
	sort.Slice(houses, func(i, j int) bool { return houses[i] < houses[j] })

	homeDefense := gs.Houses[colony.Owner].Homeworld == sys

	for _, hid := range houses {
		tmpl := moral[hid]
		if tmpl == nil {
			tmpl = &taskForce{}
		}
		tf := &taskForce{house: hid, roe: 0, moraleMod: tmpl.moraleMod,
			moraleCrit: tmpl.moraleCrit, engaged: make(map[HouseID]bool)}

		for _, fid := range gs.FleetsInSystem(sys) {
			f := gs.Fleets[fid]
			if f.Owner != hid {
				continue
			}
			scale := 1.0
			screenedFleet := false
			switch {
			case isAttacker[hid] && mobileStanding(f.Standing):
			case f.Standing == StandingGuardBase || f.Standing == StandingGuardCol:
			case f.Standing == StandingReserve:
				scale = 0.5
			case f.Standing == StandingMothball:
				screenedFleet = true
			default:
				if !isAttacker[hid] {
					continue
				}
			}
			if f.ROE > tf.roe {
				tf.roe = f.ROE
			}
			for _, sqID := range f.Squadrons {
				u := unitFromSquadron(gs, rules, sqID, fid, scale)
				if u == nil {
					continue
				}
				if screenedFleet || isSpaceliftSquadron(gs, rules, sqID) {
					u.screened = true
				}
				if hid == colony.Owner && homeDefense {
					u.neverRetreat = true
				}
				tf.units = append(tf.units, u)
			}
		}

		if hid == colony.Owner {
			for _, sqID := range colony.Unassigned {
				if u := unitFromSquadron(gs, rules, sqID, 0, 1.0); u != nil {
					u.neverRetreat = homeDefense
					tf.units = append(tf.units, u)
				}
			}
			for _, sqID := range colony.Fighters {
				if u := unitFromSquadron(gs, rules, sqID, 0, 1.0); u != nil {
					u.neverRetreat = true
					tf.units = append(tf.units, u)
				}
			}
			for _, facID := range colony.Facilities {
				fac := gs.Facilities[facID]
				if fac == nil || fac.Kind != FacilityKindStarbase || fac.Hull == HullDestroyed {
					continue
				}
				def := rules.Facilities[fac.Class]
				u := &combatUnit{
					facility: facID, house: hid, bucket: BucketStarbase,
					as: def.AS, ds: def.DS, state: fac.Hull,
					scout: true, neverRetreat: true, hitBy: make(map[HouseID]bool),
				}
				if fac.Hull == HullCrippled {
					u.as /= 2
					u.ds /= 2
				}
				tf.units = append(tf.units, u)
			}
		}
		if len(tf.units) > 0 {
			tfs = append(tfs, tf)
		}
	}
	return tfs
}

func isSpaceliftSquadron(gs *GameState, rules *Rules, sqID SquadronID) bool {
	ships := gs.ShipsInSquadron(sqID)
	if len(ships) == 0 {
		return false
	}
	for _, s := range ships {
		cls := rules.ShipClasses[s.Class]
		if !cls.ETAC && !cls.Transport {
			return false
		}
	}
	return true
}

// unitFromSquadron aggregates a squadron into a combat unit. Returns nil
// for empty squadrons.
func unitFromSquadron(gs *GameState, rules *Rules, sqID SquadronID, fleet FleetID, scale float64) *combatUnit {
	sq, ok := gs.Squadrons[sqID]
	if !ok {
		return nil
	}
	ships := gs.ShipsInSquadron(sqID)
	if len(ships) == 0 {
		return nil
	}
	h := gs.Houses[sq.Owner]
	u := &combatUnit{
		sq: sqID, house: sq.Owner, fleet: fleet, bucket: sq.Bucket,
		hitBy: make(map[HouseID]bool),
	}
	allCrippled := true
	for _, s := range ships {
		cls := rules.ShipClasses[s.Class]
		u.as += shipAS(rules, h, s)
		u.ds += shipDS(rules, h, s)
		if cls.Raider {
			u.raider = true
		}
		if cls.Scout {
			u.scout = true
		}
		if s.Hull != HullCrippled {
			allCrippled = false
		}
	}
	u.as = int(float64(u.as) * scale)
	u.ds = int(float64(u.ds) * scale)
	if allCrippled {
		u.state = HullCrippled
	}
	return u
}

func countHostileSides(tfs []*taskForce, hostile map[HouseID]map[HouseID]bool) int {
	n := 0
	for _, tf := range tfs {
		for _, other := range tfs {
			if tf != other && hostile[tf.house][other.house] {
				n++
				break
			}
		}
	}
	return n
}

// runTheater resolves one theater's rounds and returns its report.
func runTheater(gs *GameState, rules *Rules, sys SystemID, theater string, tfs []*taskForce, hostile map[HouseID]map[HouseID]bool, log *EventLog) TheaterReport {
	report := TheaterReport{Theater: theater}
	detectRaiders(gs, rules, sys, tfs, hostile)

	for round := 1; round <= maxCombatRounds; round++ {
		if activeSides(tfs, hostile) < 2 {
			break
		}
		report.Rounds = round
		fireRound(gs, rules, sys, round, tfs, hostile, &report, log)
		checkRetreats(gs, rules, tfs, hostile)
	}
	return report
}

func activeSides(tfs []*taskForce, hostile map[HouseID]map[HouseID]bool) int {
	n := 0
	for _, tf := range tfs {
		if tf.defeated() {
			continue
		}
		for _, other := range tfs {
			if other != tf && !other.defeated() && hostile[tf.house][other.house] {
				n++
				break
			}
		}
	}
	return n
}

// detectRaiders rolls each defender ELI unit against each cloaked raider on
// theater entry. Starbases carry a +2 ELI bonus through their scout flag.
func detectRaiders(gs *GameState, rules *Rules, sys SystemID, tfs []*taskForce, hostile map[HouseID]map[HouseID]bool) {
	for _, tf := range tfs {
		for _, u := range tf.units {
			if !u.raider || u.state == HullDestroyed {
				continue
			}
			clk := gs.Houses[u.house].Tech.Tier(TechCLK)
			roller := NewRoller(gs.Seed, gs.Turn, fmt.Sprintf("detect:%d:%d", sys, u.sq))
			for _, def := range tfs {
				if def == tf || !hostile[def.house][u.house] || u.detected {
					continue
				}
				eli := gs.Houses[def.house].Tech.Tier(TechELI)
				for _, du := range def.units {
					if !du.scout || du.state == HullDestroyed {
						continue
					}
					bonus := 0
					if du.bucket == BucketStarbase {
						bonus = 2
					}
					if roller.D20() >= DetectionThreshold(eli+bonus, clk) {
						u.detected = true
						break
					}
				}
			}
		}
	}
}

// fireRound runs the four initiative phases of one round.
func fireRound(gs *GameState, rules *Rules, sys SystemID, round int, tfs []*taskForce, hostile map[HouseID]map[HouseID]bool, report *TheaterReport, log *EventLog) {
	type phaseUnit struct {
		tf *taskForce
		u  *combatUnit
		cr int
	}
	var phases [4][]phaseUnit
	for _, tf := range tfs {
		if tf.retreated {
			continue
		}
		for _, u := range tf.units {
			if !u.live() || u.screened || (u.holds && round == 1) {
				continue
			}
			switch {
			case u.raider && !u.detected:
				phases[0] = append(phases[0], phaseUnit{tf, u, 0})
			case u.bucket == BucketFighter:
				phases[1] = append(phases[1], phaseUnit{tf, u, 0})
			case u.raider:
				phases[2] = append(phases[2], phaseUnit{tf, u, 0})
			default:
				phases[3] = append(phases[3], phaseUnit{tf, u, flagshipCR(gs, rules, u)})
			}
		}
	}
	sort.SliceStable(phases[3], func(i, j int) bool { return phases[3][i].cr > phases[3][j].cr })

	for pi, phase := range phases {
		for _, pu := range phase {
			if !pu.u.live() || pu.tf.retreated {
				continue
			}
			fireUnit(gs, rules, sys, round, pi == 0, pu.tf, pu.u, tfs, hostile, report, log)
		}
	}
}

func flagshipCR(gs *GameState, rules *Rules, u *combatUnit) int {
	sq, ok := gs.Squadrons[u.sq]
	if !ok {
		return 0
	}
	flag, ok := gs.Ships[sq.Flagship]
	if !ok {
		return 0
	}
	return rules.ShipClasses[flag.Class].CR
}

// fireUnit resolves one squadron's shot: CER roll, target pick, damage.
func fireUnit(gs *GameState, rules *Rules, sys SystemID, round int, surprise bool, tf *taskForce, u *combatUnit, tfs []*taskForce, hostile map[HouseID]map[HouseID]bool, report *TheaterReport, log *EventLog) {
	roller := NewRoller(gs.Seed, gs.Turn, CombatTag(sys, round, u.sq))

	target := pickTarget(roller, u, tf, tfs, hostile)
	if target == nil {
		return
	}
	tf.engaged[target.house] = true

	var mult float64
	critical := false
	if u.bucket == BucketFighter {
		mult = 1.0
	} else {
		roll := roller.D10()
		critical = roll == 9
		if tf.moraleCrit && !tf.critSpent {
			critical = true
			tf.critSpent = true
		}
		mod := roll + tf.moraleMod
		if tfScoutBonus(tf, u) {
			mod++
		}
		if surprise && round == 1 {
			mod += 4
		}
		mult = SpaceCER(mod)
	}

	hits := ceilMul(u.as, mult)
	applyHit(gs, rules, round, u.house, target, hits, critical, tfs, hostile, report, log)
}

// tfScoutBonus grants the single +1 scout modifier per task force.
func tfScoutBonus(tf *taskForce, firing *combatUnit) bool {
	for _, u := range tf.units {
		if u.live() && u.scout {
			return true
		}
	}
	return false
}

func ceilMul(as int, mult float64) int {
	v := float64(as) * mult
	n := int(v)
	if v > float64(n) {
		n++
	}
	return n
}

var bucketPriority = []Bucket{BucketRaider, BucketCapital, BucketEscort, BucketFighter, BucketStarbase}

// pickTarget selects a hostile unit: first non-empty bucket in priority
// order, weighted random inside the bucket. Fighters look at enemy
// fighters first.
func pickTarget(roller *Roller, firing *combatUnit, tf *taskForce, tfs []*taskForce, hostile map[HouseID]map[HouseID]bool) *combatUnit {
	var candidates []*combatUnit
	for _, other := range tfs {
		if other == tf || other.retreated || !hostile[tf.house][other.house] {
			continue
		}
		for _, u := range other.units {
			if u.live() && !u.screened {
				candidates = append(candidates, u)
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	order := bucketPriority
	if firing.bucket == BucketFighter {
		order = []Bucket{BucketFighter, BucketRaider, BucketCapital, BucketEscort, BucketStarbase}
	}
	for _, b := range order {
		var bucket []*combatUnit
		for _, c := range candidates {
			if c.bucket == b {
				bucket = append(bucket, c)
			}
		}
		if len(bucket) == 0 {
			continue
		}
		sort.Slice(bucket, func(i, j int) bool { return unitOrd(bucket[i]) < unitOrd(bucket[j]) })
		weights := make([]float64, len(bucket))
		for i, c := range bucket {
			w := 1.0
			if c.state == HullCrippled {
				w *= 2.0
			}
			weights[i] = w
		}
		idx := roller.WeightedPick(weights)
		if idx < 0 {
			idx = 0
		}
		return bucket[idx]
	}
	return nil
}

func unitOrd(u *combatUnit) uint64 {
	if u.facility != 0 {
		return 1<<32 | uint64(u.facility)
	}
	return uint64(u.sq)
}

// applyHit reduces the target when hits meet its defense. Criticals bypass
// destruction protection and spill onto the lowest-DS enemy when the picked
// target holds.
func applyHit(gs *GameState, rules *Rules, round int, shooter HouseID, target *combatUnit, hits int, critical bool, tfs []*taskForce, hostile map[HouseID]map[HouseID]bool, report *TheaterReport, log *EventLog) {
	target.hitBy[shooter] = true
	if hits < target.ds {
		if critical {
			// spill to the weakest hostile unit instead
			weak := lowestDS(tfs, shooter, hostile)
			if weak != nil && weak != target {
				weak.hitBy[shooter] = true
				reduceUnit(gs, rules, round, shooter, weak, true, report, log)
			}
		}
		return
	}
	reduceUnit(gs, rules, round, shooter, target, critical, report, log)
}

func lowestDS(tfs []*taskForce, shooter HouseID, hostile map[HouseID]map[HouseID]bool) *combatUnit {
	var best *combatUnit
	for _, tf := range tfs {
		if tf.house == shooter || !hostile[shooter][tf.house] {
			continue
		}
		for _, u := range tf.units {
			if !u.live() || u.screened {
				continue
			}
			if best == nil || u.ds < best.ds || (u.ds == best.ds && unitOrd(u) < unitOrd(best)) {
				best = u
			}
		}
	}
	return best
}

// reduceUnit steps a unit's damage state. Fighters skip Crippled. A unit
// crippled this round cannot be destroyed the same round except by a
// critical; overkill is lost.
func reduceUnit(gs *GameState, rules *Rules, round int, shooter HouseID, u *combatUnit, critical bool, report *TheaterReport, log *EventLog) {
	switch u.state {
	case HullUndamaged:
		if u.bucket == BucketFighter {
			destroyUnit(gs, rules, shooter, u, report, log)
			return
		}
		u.state = HullCrippled
		u.crippledBy = shooter
		u.crippledRound = round
		u.as /= 2
		u.ds /= 2
	case HullCrippled:
		if u.crippledRound == round && !critical {
			return // destruction protection
		}
		destroyUnit(gs, rules, shooter, u, report, log)
	}
}

// destroyUnit marks the unit dead and settles prestige: the crippling
// house takes full credit, otherwise every house that fired splits it.
func destroyUnit(gs *GameState, rules *Rules, shooter HouseID, u *combatUnit, report *TheaterReport, log *EventLog) {
	u.state = HullDestroyed

	award := rules.Prestige.SquadronKill
	label := "squadron"
	if u.facility != 0 {
		award = rules.Prestige.FacilityKill
		label = "starbase"
	}
	report.Losses = append(report.Losses, fmt.Sprintf("house %d lost %s %d", u.house, label, unitOrd(u)))

	if u.crippledBy == shooter || u.crippledBy == 0 {
		log.Award(shooter, award, ReasonCombatKill, 0)
		log.Award(u.house, -award, ReasonCombatLoss, 0)
		return
	}
	var firers []HouseID
	for h := range u.hitBy {
		if h != u.house {
			firers = append(firers, h)
		}
	}
	sort.Slice(firers, func(i, j int) bool { return firers[i] < firers[j] })
	share := maxInt(1, award/maxInt(1, len(firers)))
	credited := 0
	for _, h := range firers {
		log.Award(h, share, ReasonCombatKill, 0)
		credited += share
	}
	// the loss mirrors what was actually credited, so combat stays zero-sum
	log.Award(u.house, -credited, ReasonCombatLoss, 0)
}

// checkRetreats evaluates the ROE ratio for every task force between
// rounds. Units flagged never-retreat hold the line regardless.
func checkRetreats(gs *GameState, rules *Rules, tfs []*taskForce, hostile map[HouseID]map[HouseID]bool) {
	for _, tf := range tfs {
		if tf.retreated || tf.defeated() {
			continue
		}
		anchored := false
		for _, u := range tf.units {
			if u.live() && u.neverRetreat {
				anchored = true
				break
			}
		}
		if anchored {
			continue
		}
		hostileAS := 0
		for _, other := range tfs {
			if other != tf && !other.defeated() && hostile[tf.house][other.house] {
				hostileAS += other.liveAS()
			}
		}
		if hostileAS == 0 {
			continue
		}
		ratio := float64(tf.liveAS()) / float64(hostileAS)
		if ratio < rules.ROEThreshold(tf.roe) {
			tf.retreated = true
		}
	}
}

// flushTheater writes unit outcomes back to game state: cripples hulls,
// destroys squadrons and starbases, kills screened units of defeated
// forces, and walks retreating fleets one hop toward home.
func flushTheater(gs *GameState, rules *Rules, sys SystemID, tfs []*taskForce, log *EventLog) {
	for _, tf := range tfs {
		beaten := tf.defeated()
		for _, u := range tf.units {
			if u.screened && beaten && u.state != HullDestroyed {
				u.state = HullDestroyed
			}
			switch {
			case u.state == HullDestroyed && u.facility != 0:
				for _, pid := range gs.DestroyFacility(u.facility) {
					log.Add(gs.Turn, Event{Kind: EventProjectLost, System: sys,
						Detail: fmt.Sprintf("project %d lost with facility", pid)})
				}
			case u.state == HullDestroyed:
				gs.DestroySquadron(u.sq)
			case u.state == HullCrippled && u.facility != 0:
				if fac, ok := gs.Facilities[u.facility]; ok {
					fac.Hull = HullCrippled
				}
			case u.state == HullCrippled:
				for _, s := range gs.ShipsInSquadron(u.sq) {
					s.Hull = HullCrippled
				}
			}
		}
	}

	// retreats move after damage settles
	for _, tf := range tfs {
		if !tf.retreated {
			continue
		}
		moved := make(map[FleetID]bool)
		for _, u := range tf.units {
			if u.fleet == 0 || moved[u.fleet] {
				continue
			}
			moved[u.fleet] = true
			f, ok := gs.Fleets[u.fleet]
			if !ok || f.System != sys {
				continue
			}
			if dst, ok := NearestOwned(gs, tf.house, sys); ok && dst != sys {
				profile := ProfileFleet(gs, rules, u.fleet)
				if path := FindPath(gs, profile, sys, dst); len(path) > 0 {
					gs.MoveFleet(u.fleet, path[0])
				}
			}
			f.Mission = CmdSeekHome
			f.Standing = StandingSeekHome
			log.Add(gs.Turn, Event{Kind: EventRetreat, House: tf.house, System: sys,
				VisibleTo: []HouseID{tf.house}})
		}
		// engagers split the forced-retreat award
		var engagers []HouseID
		for h := range tf.engaged {
			engagers = append(engagers, h)
		}
		for _, other := range tfs {
			if other != tf && other.engaged[tf.house] {
				engagers = append(engagers, other.house)
			}
		}
		engagers = dedupeHouses(engagers)
		if len(engagers) > 0 {
			share := maxInt(1, rules.Prestige.RetreatForced/len(engagers))
			credited := 0
			for _, h := range engagers {
				if h != tf.house {
					log.Award(h, share, ReasonRetreatForced, sys)
					credited += share
				}
			}
			if credited > 0 {
				log.Award(tf.house, -credited, ReasonRetreated, sys)
			}
		}
	}
	sweepAllEmptyFleets(gs)
}

func dedupeHouses(in []HouseID) []HouseID {
	seen := make(map[HouseID]bool)
	var out []HouseID
	for _, h := range in {
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sweepAllEmptyFleets(gs *GameState) {
	for _, hid := range gs.SortedHouses() {
		sweepEmptyFleets(gs, hid)
	}
}

// survivingAttackers lists houses that still hold aggressive fleets in the
// system against the colony owner after the space theater.
func survivingAttackers(gs *GameState, tfs []*taskForce, sys SystemID, owner HouseID, hostile map[HouseID]map[HouseID]bool) []HouseID {
	var out []HouseID
	for _, hid := range housesPresent(gs, sys) {
		if hid == owner || !hostile[hid][owner] && !hostile[owner][hid] {
			continue
		}
		beaten := false
		for _, tf := range tfs {
			if tf.house == hid && tf.defeated() {
				beaten = true
				break
			}
		}
		if !beaten && provocativeIn(gs, sys, hid) {
			out = append(out, hid)
		}
	}
	return out
}

// orbitalDefenderDefeated reports whether the colony owner's orbital force
// is gone or never existed.
func orbitalDefenderDefeated(tfs []*taskForce, owner HouseID) bool {
	for _, tf := range tfs {
		if tf.house == owner {
			return tf.defeated()
		}
	}
	return true
}
