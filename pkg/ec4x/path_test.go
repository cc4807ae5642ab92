package ec4x

import "testing"

// chainState builds a four-system line 1-2-3-4 with configurable lane
// classes and one house owning a colony on system 1.
func chainState(classes ...LaneClass) (*GameState, *Rules, []SystemID) {
	gs := NewGameState("chain", 7)
	rules := DefaultRules()
	var ids []SystemID
	for i := 0; i < len(classes)+1; i++ {
		s := &System{ID: gs.IDs.System(), Q: i, R: 0, StarClass: "G", Planet: PlanetBenign, Resources: ResourceAbundant}
		gs.Systems[s.ID] = s
		ids = append(ids, s.ID)
	}
	for i, class := range classes {
		link(gs.Systems[ids[i]], gs.Systems[ids[i+1]], class)
	}
	addHouse(gs, rules, "Corrino", ids[0])
	gs.Reindex()
	return gs, rules, ids
}

func TestTraversable(t *testing.T) {
	clean := FleetProfile{}
	crippled := FleetProfile{HasCrippled: true}
	lift := FleetProfile{HasSpacelift: true}

	if !clean.Traversable(LaneRestricted) {
		t.Fatal("clean fleet should use restricted lanes")
	}
	if crippled.Traversable(LaneMinor) {
		t.Fatal("crippled fleet must not use minor lanes")
	}
	if !crippled.Traversable(LaneMajor) {
		t.Fatal("major lanes are always open")
	}
	if lift.Traversable(LaneRestricted) {
		t.Fatal("spacelift hulls must not use restricted lanes")
	}
	if !lift.Traversable(LaneMinor) {
		t.Fatal("spacelift hulls may use minor lanes")
	}
}

func TestProfileFleet(t *testing.T) {
	gs, rules, ids := chainState(LaneMajor)
	h := gs.SortedHouses()[0]
	f := addFleet(gs, rules, h, ids[0], ShipCorvette, ShipETAC)
	p := ProfileFleet(gs, rules, f.ID)
	if p.HasCrippled || !p.HasSpacelift {
		t.Fatalf("profile: got %+v, want spacelift only", p)
	}
	for _, s := range gs.ShipsInFleet(f.ID) {
		if s.Class == ShipCorvette {
			s.Hull = HullCrippled
		}
	}
	if p := ProfileFleet(gs, rules, f.ID); !p.HasCrippled {
		t.Fatal("crippled hull not reflected in profile")
	}
}

func TestFindPathAvoidsBlockedLanes(t *testing.T) {
	gs, _, ids := chainState(LaneMajor, LaneRestricted, LaneMajor)
	path := FindPath(gs, FleetProfile{HasSpacelift: true}, ids[0], ids[3])
	if path != nil {
		t.Fatalf("spacelift fleet found a path through a restricted lane: %v", path)
	}
	path = FindPath(gs, FleetProfile{}, ids[0], ids[3])
	want := []SystemID{ids[1], ids[2], ids[3]}
	if len(path) != len(want) {
		t.Fatalf("path length: got %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("path: got %v, want %v", path, want)
		}
	}
}

func TestFindPathSameSystem(t *testing.T) {
	gs, _, ids := chainState(LaneMajor)
	path := FindPath(gs, FleetProfile{}, ids[0], ids[0])
	if path == nil || len(path) != 0 {
		t.Fatalf("src==dst should yield an empty non-nil path, got %v", path)
	}
}

func TestCanDoubleJump(t *testing.T) {
	gs, _, ids := chainState(LaneMajor, LaneMajor, LaneMinor)
	h := gs.SortedHouses()[0]
	f := &Fleet{ID: gs.IDs.Fleet(), Owner: h, System: ids[1], Trail: []SystemID{ids[0]}}
	gs.CreateFleet(f)

	// friendly territory needed for the double jump
	if canDoubleJump(gs, f, ids[2]) {
		t.Fatal("unowned corridor should not allow a second jump")
	}
	for _, sys := range []SystemID{ids[1], ids[2]} {
		c := &Colony{ID: gs.IDs.Colony(), System: sys, Owner: h, PU: 10, TaxOverride: -1}
		gs.Colonies[c.ID] = c
	}
	gs.Reindex()
	if !canDoubleJump(gs, f, ids[2]) {
		t.Fatal("owned major corridor should allow a second jump")
	}
	// second hop over a minor lane never doubles
	f.Trail = []SystemID{ids[1]}
	f.System = ids[2]
	if canDoubleJump(gs, f, ids[3]) {
		t.Fatal("minor second hop should not double")
	}
	// no hop taken yet means no double jump to decide
	f.Trail = nil
	f.System = ids[1]
	if canDoubleJump(gs, f, ids[2]) {
		t.Fatal("fleet without a departure this turn cannot double jump")
	}
}

func TestNearestOwned(t *testing.T) {
	gs, _, ids := chainState(LaneMajor, LaneMajor, LaneMajor)
	h := gs.SortedHouses()[0]
	got, ok := NearestOwned(gs, h, ids[3])
	if !ok || got != ids[0] {
		t.Fatalf("nearest owned: got %d ok=%v, want %d", got, ok, ids[0])
	}
	if cur, ok := NearestOwned(gs, h, ids[0]); !ok || cur != ids[0] {
		t.Fatal("standing on an owned system should return it directly")
	}
	stranger := HouseID(9999)
	if _, ok := NearestOwned(gs, stranger, ids[3]); ok {
		t.Fatal("house with no colonies should find nothing")
	}
}
