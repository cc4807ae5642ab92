package ec4x

// Typed entity identifiers. All ids are opaque unsigned integers minted by
// the per-game generator; ids are never reused, even after destruction.
type (
	HouseID      uint32
	SystemID     uint32
	ColonyID     uint32
	FleetID      uint32
	ShipID       uint32
	SquadronID   uint32
	GroundUnitID uint32
	FacilityID   uint32
	ProjectID    uint32
)

// NoHouse marks an unowned entity (neutral systems, empty colonies slots).
const NoHouse HouseID = 0

// IDGen mints monotonically increasing entity ids for one game.
// The zero value is not valid; use NewIDGen so id 0 stays reserved.
type IDGen struct {
	Next uint32
}

// NewIDGen returns a generator whose first minted id is 1.
func NewIDGen() IDGen {
	return IDGen{Next: 1}
}

func (g *IDGen) mint() uint32 {
	id := g.Next
	g.Next++
	return id
}

func (g *IDGen) House() HouseID           { return HouseID(g.mint()) }
func (g *IDGen) System() SystemID         { return SystemID(g.mint()) }
func (g *IDGen) Colony() ColonyID         { return ColonyID(g.mint()) }
func (g *IDGen) Fleet() FleetID           { return FleetID(g.mint()) }
func (g *IDGen) Ship() ShipID             { return ShipID(g.mint()) }
func (g *IDGen) Squadron() SquadronID     { return SquadronID(g.mint()) }
func (g *IDGen) GroundUnit() GroundUnitID { return GroundUnitID(g.mint()) }
func (g *IDGen) Facility() FacilityID     { return FacilityID(g.mint()) }
func (g *IDGen) Project() ProjectID       { return ProjectID(g.mint()) }
