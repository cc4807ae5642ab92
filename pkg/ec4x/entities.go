package ec4x

// HullState tracks damage on ships, facilities, and ground units.
type HullState int

const (
	HullUndamaged HullState = iota
	HullCrippled
	HullDestroyed
)

func (h HullState) String() string {
	switch h {
	case HullUndamaged:
		return "undamaged"
	case HullCrippled:
		return "crippled"
	case HullDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Bucket is the combat targeting class of a squadron.
type Bucket int

const (
	BucketRaider Bucket = iota + 1
	BucketCapital
	BucketEscort
	BucketFighter
	BucketStarbase
)

func (b Bucket) String() string {
	switch b {
	case BucketRaider:
		return "raider"
	case BucketCapital:
		return "capital"
	case BucketEscort:
		return "escort"
	case BucketFighter:
		return "fighter"
	case BucketStarbase:
		return "starbase"
	default:
		return "unknown"
	}
}

// PlanetClass runs from uninhabitable rock to garden world.
type PlanetClass int

const (
	PlanetExtreme PlanetClass = iota
	PlanetDesolate
	PlanetHostile
	PlanetHarsh
	PlanetBenign
	PlanetLush
	PlanetEden
)

// ResourceRating grades a system's mineral wealth.
type ResourceRating int

const (
	ResourcePoor ResourceRating = iota
	ResourceAbundant
	ResourceRich
	ResourceVeryRich
)

// LaneClass grades a jump lane.
type LaneClass int

const (
	LaneMajor LaneClass = iota
	LaneMinor
	LaneRestricted
)

// Relation is one house's diplomatic posture toward another.
type Relation int

const (
	RelationNeutral Relation = iota
	RelationHostile
	RelationEnemy
)

// CargoType enumerates what a transport hull can carry.
type CargoType int

const (
	CargoNone CargoType = iota
	CargoColonists
	CargoMarines
	CargoFighters
)

// GroundUnitKind enumerates planetary forces.
type GroundUnitKind int

const (
	GroundKindArmy GroundUnitKind = iota
	GroundKindMarine
	GroundKindBattery
)

// FacilityKind enumerates colony facilities.
type FacilityKind int

const (
	FacilityKindSpaceport FacilityKind = iota
	FacilityKindShipyard
	FacilityKindDrydock
	FacilityKindStarbase
)

// TechState holds one house's research position.
type TechState struct {
	SL    int               `json:"sl"`
	Tiers map[TechField]int `json:"tiers"`
	// Lifetime pool totals gate SL; Available is what's left to spend.
	LifetimeERP  int `json:"lifetime_erp"`
	LifetimeSRP  int `json:"lifetime_srp"`
	LifetimeTRP  int `json:"lifetime_trp"`
	AvailableERP int `json:"available_erp"`
	AvailableSRP int `json:"available_srp"`
	AvailableTRP int `json:"available_trp"`
}

// Tier returns the owned tier of a tech line (0 when unresearched).
func (t *TechState) Tier(f TechField) int {
	if t.Tiers == nil {
		return 0
	}
	return t.Tiers[f]
}

// House is a player faction. Houses are created at game init and only
// ever flagged, never deleted.
type House struct {
	ID        HouseID  `json:"id"`
	Name      string   `json:"name"`
	Homeworld SystemID `json:"homeworld"`

	Prestige int `json:"prestige"`
	Treasury int `json:"treasury"`
	TaxRate  int `json:"tax_rate"` // 0..100

	Tech TechState `json:"tech"`

	EBP int `json:"ebp"` // espionage budget points
	CIP int `json:"cip"` // counter-intel points

	Relations map[HouseID]Relation `json:"relations"`

	Eliminated        bool `json:"eliminated"`
	Autopilot         bool `json:"autopilot"`
	DefensiveCollapse bool `json:"defensive_collapse"`
	MissedTurns       int  `json:"missed_turns"`
	NegativeTurns     int  `json:"negative_turns"`
	ShortfallTurns    int  `json:"shortfall_turns"`

	// TaxHistory is the rolling window of recent tax rates, most recent last.
	TaxHistory []int `json:"tax_history"`

	// CapitalViolation tracks the house-wide capital squadron cap breach.
	CapitalViolation *CapacityViolation `json:"capital_violation,omitempty"`

	// Intel is the house's accumulated intelligence database.
	Intel []IntelReport `json:"intel"`
}

// RelationTo returns the posture toward another house (Neutral by default).
func (h *House) RelationTo(other HouseID) Relation {
	if h.Relations == nil {
		return RelationNeutral
	}
	return h.Relations[other]
}

// AvgTax returns the rolling average tax rate over the last n turns.
func (h *House) AvgTax(n int) int {
	hist := h.TaxHistory
	if len(hist) == 0 {
		return h.TaxRate
	}
	if len(hist) > n {
		hist = hist[len(hist)-n:]
	}
	sum := 0
	for _, t := range hist {
		sum += t
	}
	return sum / len(hist)
}

// Lane is one jump connection out of a system.
type Lane struct {
	To    SystemID  `json:"to"`
	Class LaneClass `json:"class"`
}

// System is one hex of the starmap.
type System struct {
	ID        SystemID       `json:"id"`
	Q         int            `json:"q"`
	R         int            `json:"r"`
	StarClass string         `json:"star_class"`
	Planet    PlanetClass    `json:"planet"`
	Resources ResourceRating `json:"resources"`
	Lanes     []Lane         `json:"lanes"`
	Hub       bool           `json:"hub"`
}

// CapacityViolation records an over-limit condition with its grace window.
type CapacityViolation struct {
	Kind   string `json:"kind"` // "fighter" or "capital"
	Grace  int    `json:"grace"`
	Excess int    `json:"excess"`
}

// Colony is a settled system. At most one colony per system.
type Colony struct {
	ID     ColonyID `json:"id"`
	System SystemID `json:"system"`
	Owner  HouseID  `json:"owner"`

	Souls int `json:"souls"` // raw population count
	PU    int `json:"pu"`
	IU    int `json:"iu"`

	Infrastructure  int     `json:"infrastructure"`
	InfraDamage     float64 `json:"infra_damage"` // 0..1
	TaxOverride     int     `json:"tax_override"` // -1 = use house rate
	ShieldLevel     int     `json:"shield_level"` // 0..6
	ActiveTerraform bool    `json:"active_terraform"`
	Blockaded       bool    `json:"blockaded"`

	Facilities  []FacilityID   `json:"facilities"`
	Ground      []GroundUnitID `json:"ground"`
	Unassigned  []SquadronID   `json:"unassigned"` // squadrons parked in orbit
	Fighters    []SquadronID   `json:"fighters"`   // colony-owned fighter squadrons
	BuildQueue  []ProjectID    `json:"build_queue"`
	RepairQueue []ProjectID    `json:"repair_queue"`

	Violation *CapacityViolation `json:"violation,omitempty"`
}

// PTU derives population transfer units from PU (exponential relation).
func (c *Colony) PTU() int {
	ptu := 1
	pu := c.PU
	for pu >= 50 {
		ptu *= 2
		pu /= 2
	}
	return ptu
}

// TaxRate returns the colony's effective tax rate given its owner's rate.
func (c *Colony) TaxRate(houseRate int) int {
	if c.TaxOverride >= 0 {
		return c.TaxOverride
	}
	return houseRate
}

// Cargo is an optional transport load.
type Cargo struct {
	Type     CargoType `json:"type"`
	Quantity int       `json:"quantity"`
}

// Ship is a single hull.
type Ship struct {
	ID       ShipID     `json:"id"`
	Class    string     `json:"class"`
	Owner    HouseID    `json:"owner"`
	Fleet    FleetID    `json:"fleet"`
	Squadron SquadronID `json:"squadron"`
	Hull     HullState  `json:"hull"`
	Cargo    Cargo      `json:"cargo"`
}

// Squadron groups a flagship with escorts under one command rating.
type Squadron struct {
	ID       SquadronID `json:"id"`
	Owner    HouseID    `json:"owner"`
	Flagship ShipID     `json:"flagship"`
	Escorts  []ShipID   `json:"escorts"`
	Bucket   Bucket     `json:"bucket"`
}

// StandingCommand is a fleet's persistent order between turns.
type StandingCommand string

const (
	StandingNone      StandingCommand = ""
	StandingHold      StandingCommand = "hold"
	StandingPatrol    StandingCommand = "patrol"
	StandingGuardBase StandingCommand = "guard_starbase"
	StandingGuardCol  StandingCommand = "guard_colony"
	StandingBlockade  StandingCommand = "blockade"
	StandingSeekHome  StandingCommand = "seek_home"
	StandingReserve   StandingCommand = "reserve"
	StandingMothball  StandingCommand = "mothball"
)

// Fleet is a house's force in one system.
type Fleet struct {
	ID        FleetID         `json:"id"`
	Owner     HouseID         `json:"owner"`
	System    SystemID        `json:"system"`
	Squadrons []SquadronID    `json:"squadrons"`
	Standing  StandingCommand `json:"standing"`
	ROE       int             `json:"roe"` // 0..10

	// Mission carries the active order across turns until it completes.
	Mission      FleetCommandType `json:"mission,omitempty"`
	Destination  SystemID         `json:"destination,omitempty"`
	MissionFleet FleetID          `json:"mission_fleet,omitempty"`
	// SplitOut holds the squadrons a staged split order detaches.
	SplitOut []SquadronID `json:"split_out,omitempty"`
	// Trail records the systems departed this turn; the two-jump
	// ownership rule reads it to decide whether a second hop is allowed.
	Trail []SystemID `json:"trail,omitempty"`
}

// Facility is a colony installation: spaceport, shipyard, drydock, starbase.
type Facility struct {
	ID     FacilityID   `json:"id"`
	Class  string       `json:"class"`
	Kind   FacilityKind `json:"kind"`
	Colony ColonyID     `json:"colony"`
	Hull   HullState    `json:"hull"`
	Tier   int          `json:"tier"`
}

// GroundUnit is an army, marine division, or ground battery.
type GroundUnit struct {
	ID       GroundUnitID   `json:"id"`
	Class    string         `json:"class"`
	Kind     GroundUnitKind `json:"kind"`
	Owner    HouseID        `json:"owner"`
	Colony   ColonyID       `json:"colony"`
	Crippled bool           `json:"crippled"`
}

// ProjectKind separates new construction from repair work.
type ProjectKind int

const (
	ProjectBuild ProjectKind = iota
	ProjectRepair
	ProjectInvestIU
)

// SubjectKind says what a project produces.
type SubjectKind int

const (
	SubjectShip SubjectKind = iota
	SubjectFacility
	SubjectGround
	SubjectIU
)

// Project is a queued construction or repair job. Treasury is debited in
// full at queue time; cancellation refunds half; a destroyed host facility
// forfeits the rest.
type Project struct {
	ID      ProjectID   `json:"id"`
	Kind    ProjectKind `json:"kind"`
	Colony  ColonyID    `json:"colony"`
	Owner   HouseID     `json:"owner"`
	Subject SubjectKind `json:"subject"`
	Class   string      `json:"class"` // ship/facility/ground class key
	Host    FacilityID  `json:"host"`  // 0 = no facility binding
	// Target identifies the entity under repair (ship or facility id).
	TargetShip ShipID     `json:"target_ship,omitempty"`
	TargetFac  FacilityID `json:"target_fac,omitempty"`
	Cost       int        `json:"cost"`
	TurnsLeft  int        `json:"turns_left"`
	Amount     int        `json:"amount"` // IU investment size
}
