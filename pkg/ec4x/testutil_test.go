package ec4x

// Shared fixtures for engine tests. testState builds a two-house, three
// system map: home systems 1 and 3 joined through system 2 by major lanes.

func testState() (*GameState, *Rules) {
	gs := NewGameState("test-game", 42)
	rules := DefaultRules()

	s1 := &System{ID: gs.IDs.System(), Q: -1, R: 0, StarClass: "G", Planet: PlanetBenign, Resources: ResourceAbundant}
	s2 := &System{ID: gs.IDs.System(), Q: 0, R: 0, StarClass: "K", Planet: PlanetHarsh, Resources: ResourceRich}
	s3 := &System{ID: gs.IDs.System(), Q: 1, R: 0, StarClass: "M", Planet: PlanetBenign, Resources: ResourceAbundant}
	for _, s := range []*System{s1, s2, s3} {
		gs.Systems[s.ID] = s
	}
	link(s1, s2, LaneMajor)
	link(s2, s3, LaneMajor)

	addHouse(gs, rules, "Atreides", s1.ID)
	addHouse(gs, rules, "Harkonnen", s3.ID)
	gs.Reindex()
	return gs, rules
}

func link(a, b *System, class LaneClass) {
	a.Lanes = append(a.Lanes, Lane{To: b.ID, Class: class})
	b.Lanes = append(b.Lanes, Lane{To: a.ID, Class: class})
}

func addHouse(gs *GameState, rules *Rules, name string, home SystemID) *House {
	h := &House{
		ID: gs.IDs.House(), Name: name, Homeworld: home,
		Treasury: 1000, TaxRate: 50, Prestige: 50,
		Tech:      TechState{Tiers: make(map[TechField]int)},
		Relations: make(map[HouseID]Relation),
	}
	gs.Houses[h.ID] = h

	c := &Colony{ID: gs.IDs.Colony(), System: home, Owner: h.ID,
		PU: 400, IU: 100, Infrastructure: 2, TaxOverride: -1}
	c.Souls = c.PU * 1_000_000
	gs.Colonies[c.ID] = c

	def := rules.Facilities[FacSpaceport]
	f := &Facility{ID: gs.IDs.Facility(), Class: FacSpaceport, Kind: def.Kind, Colony: c.ID, Tier: 1}
	gs.Facilities[f.ID] = f
	c.Facilities = append(c.Facilities, f.ID)
	return h
}

// addFleet creates a fleet of single-ship squadrons in the given system.
func addFleet(gs *GameState, rules *Rules, owner HouseID, sys SystemID, classes ...string) *Fleet {
	f := &Fleet{ID: gs.IDs.Fleet(), Owner: owner, System: sys, ROE: 5}
	for _, class := range classes {
		cls := rules.ShipClasses[class]
		s := &Ship{ID: gs.IDs.Ship(), Class: class, Owner: owner, Fleet: f.ID}
		gs.Ships[s.ID] = s
		sq := &Squadron{ID: gs.IDs.Squadron(), Owner: owner, Flagship: s.ID, Bucket: cls.Bucket}
		gs.Squadrons[sq.ID] = sq
		s.Squadron = sq.ID
		f.Squadrons = append(f.Squadrons, sq.ID)
	}
	gs.Fleets[f.ID] = f
	gs.Reindex()
	return f
}

// twoHouses returns the fixture's house ids in creation order.
func twoHouses(gs *GameState) (HouseID, HouseID) {
	ids := gs.SortedHouses()
	return ids[0], ids[1]
}

func firstColony(gs *GameState, h HouseID) *Colony {
	ids := gs.ColoniesByOwner(h)
	if len(ids) == 0 {
		return nil
	}
	return gs.Colonies[ids[0]]
}

// loadCargo fills the first hull of a class with cargo.
func loadCargo(gs *GameState, f *Fleet, class string, cargo Cargo) {
	for _, s := range gs.ShipsInFleet(f.ID) {
		if s.Class == class {
			s.Cargo = cargo
			return
		}
	}
}
