package ec4x

import "testing"

func setEnemies(gs *GameState, a, b HouseID) {
	gs.Houses[a].Relations[b] = RelationEnemy
	gs.Houses[b].Relations[a] = RelationEnemy
}

func TestHostileToEnemy(t *testing.T) {
	gs, _ := testState()
	h1, h2 := twoHouses(gs)
	if hostileTo(gs, 2, h1, h2) {
		t.Fatal("neutral houses with no provocation should not engage")
	}
	setEnemies(gs, h1, h2)
	if !hostileTo(gs, 2, h1, h2) {
		t.Fatal("declared enemies always engage")
	}
}

func TestHostileToNeutralProvocation(t *testing.T) {
	gs, rules := testState()
	h1, h2 := twoHouses(gs)
	// a neutral blockade of h1's home system provokes the defender
	f := addFleet(gs, rules, h2, 1, ShipCruiser)
	f.Standing = StandingBlockade
	if !hostileTo(gs, 1, h1, h2) {
		t.Fatal("blockading a controlled system should provoke its owner")
	}
	if hostileTo(gs, 2, h1, h2) {
		t.Fatal("no provocation in a system the defender does not control")
	}
}

func TestHostilityMatrixMutual(t *testing.T) {
	gs, rules := testState()
	h1, h2 := twoHouses(gs)
	f := addFleet(gs, rules, h2, 1, ShipCruiser)
	f.Standing = StandingBlockade
	m := hostilityMatrix(gs, 1, []HouseID{h1, h2})
	if !m[h1][h2] || !m[h2][h1] {
		t.Fatal("engagement must be mutual")
	}
}

func TestUnitFromSquadron(t *testing.T) {
	gs, rules := testState()
	h1, _ := twoHouses(gs)
	f := addFleet(gs, rules, h1, 1, ShipCruiser)
	sq := f.Squadrons[0]
	u := unitFromSquadron(gs, rules, sq, f.ID, 1.0)
	cls := rules.ShipClasses[ShipCruiser]
	if u.as != cls.AS || u.ds != cls.DS || u.state != HullUndamaged {
		t.Fatalf("unit aggregation wrong: %+v", u)
	}
	half := unitFromSquadron(gs, rules, sq, f.ID, 0.5)
	if half.as != cls.AS/2 {
		t.Fatalf("reserve scaling: got %d, want %d", half.as, cls.AS/2)
	}
	for _, s := range gs.ShipsInSquadron(sq) {
		s.Hull = HullCrippled
	}
	crip := unitFromSquadron(gs, rules, sq, f.ID, 1.0)
	if crip.state != HullCrippled {
		t.Fatal("all-crippled squadron should enter combat crippled")
	}
}

func TestDestructionProtection(t *testing.T) {
	gs, rules := testState()
	h1, h2 := twoHouses(gs)
	u := &combatUnit{sq: 1, house: h2, bucket: BucketEscort, as: 4, ds: 4, hitBy: make(map[HouseID]bool)}
	report := &TheaterReport{}
	log := &EventLog{}

	reduceUnit(gs, rules, 1, h1, u, false, report, log)
	if u.state != HullCrippled || u.ds != 2 {
		t.Fatalf("first reduction should cripple and halve: %+v", u)
	}
	reduceUnit(gs, rules, 1, h1, u, false, report, log)
	if u.state != HullCrippled {
		t.Fatal("same-round second reduction must not destroy without a critical")
	}
	reduceUnit(gs, rules, 1, h1, u, true, report, log)
	if u.state != HullDestroyed {
		t.Fatal("critical bypasses destruction protection")
	}
}

func TestFighterSkipsCrippled(t *testing.T) {
	gs, rules := testState()
	h1, h2 := twoHouses(gs)
	u := &combatUnit{sq: 2, house: h2, bucket: BucketFighter, as: 6, ds: 3, hitBy: make(map[HouseID]bool)}
	reduceUnit(gs, rules, 1, h1, u, false, &TheaterReport{}, &EventLog{})
	if u.state != HullDestroyed {
		t.Fatal("fighters go straight from undamaged to destroyed")
	}
}

func TestDestroyUnitPrestigeSplit(t *testing.T) {
	gs, rules := testState()
	h1, h2 := twoHouses(gs)
	third := addHouse(gs, rules, "Ordos", 2)
	gs.Reindex()

	// h1 crippled it earlier, the third house lands the kill: full credit
	// stays with the crippler's round; otherwise firers split
	u := &combatUnit{sq: 3, house: h2, bucket: BucketEscort, state: HullCrippled,
		crippledBy: h1, hitBy: map[HouseID]bool{h1: true, third.ID: true}}
	log := &EventLog{}
	destroyUnit(gs, rules, third.ID, u, &TheaterReport{}, log)

	var gains []PrestigeEvent
	for _, p := range log.Prestige {
		if p.Reason == ReasonCombatKill {
			gains = append(gains, p)
		}
	}
	if len(gains) != 2 {
		t.Fatalf("kill credit entries: got %d, want 2 (split)", len(gains))
	}
	loss := false
	for _, p := range log.Prestige {
		if p.Reason == ReasonCombatLoss && p.House == h2 && p.Amount == -rules.Prestige.SquadronKill {
			loss = true
		}
	}
	if !loss {
		t.Fatal("owner should lose the full kill value")
	}
}

func TestDestroyUnitSplitStaysZeroSum(t *testing.T) {
	gs, rules := testState()
	h1, h2 := twoHouses(gs)
	third := addHouse(gs, rules, "Ordos", 2)
	fourth := addHouse(gs, rules, "Corrino", 2)
	gs.Reindex()

	// three firers split a 2-point kill at the 1-point floor; the owner
	// must lose the 3 points actually credited
	u := &combatUnit{sq: 5, house: h2, bucket: BucketEscort, state: HullCrippled,
		crippledBy: h1, hitBy: map[HouseID]bool{h1: true, third.ID: true, fourth.ID: true}}
	log := &EventLog{}
	destroyUnit(gs, rules, third.ID, u, &TheaterReport{}, log)

	credited, sum := 0, 0
	for _, p := range log.Prestige {
		sum += p.Amount
		if p.Reason == ReasonCombatKill {
			if p.Amount != 1 {
				t.Fatalf("floor share: got %+d, want +1", p.Amount)
			}
			credited += p.Amount
		}
		if p.Reason == ReasonCombatLoss && p.Amount != -3 {
			t.Fatalf("owner loss: got %+d, want -3", p.Amount)
		}
	}
	if credited != 3 {
		t.Fatalf("credited total: got %d, want 3", credited)
	}
	if sum != 0 {
		t.Fatalf("combat prestige must sum to zero, got %+d", sum)
	}
}

func TestResolveConflictsPrestigeZeroSum(t *testing.T) {
	gs, rules := testState()
	h1, h2 := twoHouses(gs)
	setEnemies(gs, h1, h2)
	addFleet(gs, rules, h1, 2, ShipBattleship, ShipCruiser, ShipDestroyer)
	addFleet(gs, rules, h2, 2, ShipCruiser, ShipFrigate, ShipCorvette)
	log := &EventLog{}

	resolveConflicts(gs, rules, log)

	if len(log.Prestige) == 0 {
		t.Fatal("a battle should move prestige")
	}
	sum := 0
	for _, p := range log.Prestige {
		switch p.Reason {
		case ReasonCombatKill, ReasonCombatLoss, ReasonRetreatForced, ReasonRetreated:
			sum += p.Amount
		}
	}
	if sum != 0 {
		t.Fatalf("combat prestige must sum to zero, got %+d", sum)
	}
}

func TestCombatDisclosesBattleLines(t *testing.T) {
	gs, rules := testState()
	h1, h2 := twoHouses(gs)
	setEnemies(gs, h1, h2)
	addFleet(gs, rules, h1, 2, ShipCruiser)
	addFleet(gs, rules, h2, 2, ShipFrigate)

	resolveConflicts(gs, rules, &EventLog{})

	for _, pair := range [][2]HouseID{{h1, h2}, {h2, h1}} {
		found := false
		for _, r := range gs.Houses[pair[0]].Intel {
			if r.Quality == IntelPerfect && r.House == pair[1] && r.System == 2 && len(r.Fleets) > 0 {
				found = true
			}
		}
		if !found {
			t.Fatalf("house %d should hold a perfect report on house %d", pair[0], pair[1])
		}
	}
}

func TestDestroyUnitCripplerFullCredit(t *testing.T) {
	gs, rules := testState()
	h1, h2 := twoHouses(gs)
	u := &combatUnit{sq: 4, house: h2, bucket: BucketEscort, state: HullCrippled,
		crippledBy: h1, hitBy: map[HouseID]bool{h1: true}}
	log := &EventLog{}
	destroyUnit(gs, rules, h1, u, &TheaterReport{}, log)
	if len(log.Prestige) != 2 {
		t.Fatalf("prestige entries: got %d, want kill + loss", len(log.Prestige))
	}
	if log.Prestige[0].House != h1 || log.Prestige[0].Amount != rules.Prestige.SquadronKill {
		t.Fatal("crippler who finishes takes full credit")
	}
}

func TestCheckRetreats(t *testing.T) {
	gs, rules := testState()
	h1, h2 := twoHouses(gs)
	weak := &taskForce{house: h1, roe: 5, engaged: make(map[HouseID]bool),
		units: []*combatUnit{{sq: 1, house: h1, bucket: BucketEscort, as: 2, ds: 2, hitBy: map[HouseID]bool{}}}}
	strong := &taskForce{house: h2, roe: 5, engaged: make(map[HouseID]bool),
		units: []*combatUnit{{sq: 2, house: h2, bucket: BucketCapital, as: 40, ds: 20, hitBy: map[HouseID]bool{}}}}
	hostile := map[HouseID]map[HouseID]bool{h1: {h2: true}, h2: {h1: true}}

	checkRetreats(gs, rules, []*taskForce{weak, strong}, hostile)
	if !weak.retreated {
		t.Fatal("outgunned force below its ROE threshold should retreat")
	}
	if strong.retreated {
		t.Fatal("dominant force should stand")
	}

	weak.retreated = false
	weak.units[0].neverRetreat = true
	checkRetreats(gs, rules, []*taskForce{weak, strong}, hostile)
	if weak.retreated {
		t.Fatal("anchored force must hold regardless of the odds")
	}
}

func TestPickTargetBucketPriority(t *testing.T) {
	gs, _ := testState()
	h1, h2 := twoHouses(gs)
	roller := NewRoller(gs.Seed, 0, "targeting")
	firing := &combatUnit{sq: 1, house: h1, bucket: BucketCapital}
	tf := &taskForce{house: h1, units: []*combatUnit{firing}}
	enemy := &taskForce{house: h2, units: []*combatUnit{
		{sq: 2, house: h2, bucket: BucketEscort, as: 3, ds: 3, hitBy: map[HouseID]bool{}},
		{sq: 3, house: h2, bucket: BucketRaider, as: 14, ds: 9, hitBy: map[HouseID]bool{}},
	}}
	hostile := map[HouseID]map[HouseID]bool{h1: {h2: true}, h2: {h1: true}}

	got := pickTarget(roller, firing, tf, []*taskForce{tf, enemy}, hostile)
	if got == nil || got.bucket != BucketRaider {
		t.Fatal("raiders outrank escorts in the priority order")
	}

	fighter := &combatUnit{sq: 4, house: h1, bucket: BucketFighter}
	enemy.units = append(enemy.units, &combatUnit{sq: 5, house: h2, bucket: BucketFighter, as: 6, ds: 3, hitBy: map[HouseID]bool{}})
	got = pickTarget(roller, fighter, tf, []*taskForce{tf, enemy}, hostile)
	if got == nil || got.bucket != BucketFighter {
		t.Fatal("fighters hunt enemy fighters first")
	}
}

func TestResolveSystemCombatLopsided(t *testing.T) {
	gs, rules := testState()
	h1, h2 := twoHouses(gs)
	setEnemies(gs, h1, h2)
	addFleet(gs, rules, h1, 2, ShipBattleship, ShipCruiser)
	prey := addFleet(gs, rules, h2, 2, ShipCorvette)
	log := &EventLog{}

	resolveConflicts(gs, rules, log)

	if len(log.Reports) != 1 {
		t.Fatalf("combat reports: got %d, want 1", len(log.Reports))
	}
	r := log.Reports[0]
	if r.System != 2 || len(r.Theaters) == 0 {
		t.Fatalf("report: %+v", r)
	}
	// the corvette either died or fell back toward home crippled
	if f, ok := gs.Fleets[prey.ID]; ok {
		if f.System == 2 && f.Mission != CmdSeekHome {
			t.Fatalf("outmatched fleet neither destroyed nor retreating: %+v", f)
		}
	}
}

func TestResolveConflictsDeterministic(t *testing.T) {
	build := func() *GameState {
		gs, rules := testState()
		h1, h2 := twoHouses(gs)
		setEnemies(gs, h1, h2)
		addFleet(gs, rules, h1, 2, ShipCruiser, ShipDestroyer)
		addFleet(gs, rules, h2, 2, ShipCruiser, ShipFrigate)
		resolveConflicts(gs, rules, &EventLog{})
		return gs
	}
	if build().Hash() != build().Hash() {
		t.Fatal("identical battles must resolve identically")
	}
}
