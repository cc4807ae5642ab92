package ec4x

// Canonical ship class keys.
const (
	ShipScout          = "SC"
	ShipCorvette       = "CT"
	ShipFrigate        = "FF"
	ShipDestroyer      = "DD"
	ShipCruiser        = "CA"
	ShipBattlecruiser  = "BC"
	ShipBattleship     = "BB"
	ShipDreadnought    = "DN"
	ShipCarrier        = "CV"
	ShipFighter        = "FS"
	ShipRaider         = "RR"
	ShipETAC           = "ET"
	ShipTroopTransport = "TT"
	ShipPlanetBreaker  = "PB"
)

// Canonical ground class keys.
const (
	GroundArmy    = "AA"
	GroundMarine  = "MD"
	GroundBattery = "GB"
)

// Canonical facility keys.
const (
	FacSpaceport = "SP"
	FacShipyard  = "SY"
	FacDrydock   = "DY"
	FacStarbase  = "SB"
)

// DefaultRules returns the stock rule tables. Operators can override
// individual tables from a YAML file; anything absent falls back to these.
func DefaultRules() *Rules {
	return &Rules{
		ShipClasses: map[string]ShipClass{
			ShipScout:          {Name: "Scout", PC: 15, MC: 0.05, AS: 1, DS: 2, CC: 1, CR: 1, Bucket: BucketEscort, Scout: true},
			ShipCorvette:       {Name: "Corvette", PC: 20, MC: 0.05, AS: 3, DS: 3, CC: 1, CR: 2, Bucket: BucketEscort},
			ShipFrigate:        {Name: "Frigate", PC: 30, MC: 0.05, AS: 5, DS: 5, CC: 2, CR: 3, Bucket: BucketEscort},
			ShipDestroyer:      {Name: "Destroyer", PC: 45, MC: 0.06, AS: 8, DS: 7, CC: 2, CR: 4, Bucket: BucketEscort},
			ShipCruiser:        {Name: "Cruiser", PC: 70, MC: 0.06, AS: 12, DS: 11, CC: 3, CR: 6, Bucket: BucketCapital},
			ShipBattlecruiser:  {Name: "Battlecruiser", PC: 95, MC: 0.07, AS: 17, DS: 14, CC: 4, CR: 7, Bucket: BucketCapital, Yard: true},
			ShipBattleship:     {Name: "Battleship", PC: 130, MC: 0.08, AS: 24, DS: 20, CC: 5, CR: 8, Bucket: BucketCapital, Yard: true},
			ShipDreadnought:    {Name: "Dreadnought", PC: 180, MC: 0.09, AS: 32, DS: 28, CC: 6, CR: 9, Bucket: BucketCapital, Yard: true},
			ShipCarrier:        {Name: "Carrier", PC: 110, MC: 0.08, AS: 6, DS: 16, CC: 5, CR: 8, Bucket: BucketCapital, Carrier: true, Hangar: 3, Yard: true},
			ShipFighter:        {Name: "Fighter Squadron", PC: 25, MC: 0.04, AS: 6, DS: 3, CC: 1, CR: 1, Bucket: BucketFighter},
			ShipRaider:         {Name: "Raider", PC: 85, MC: 0.08, AS: 14, DS: 9, CC: 3, CR: 5, Bucket: BucketRaider, Raider: true},
			ShipETAC:           {Name: "ETAC", PC: 60, MC: 0.05, AS: 0, DS: 6, CC: 2, CR: 1, CL: 2, Bucket: BucketEscort, ETAC: true},
			ShipTroopTransport: {Name: "Troop Transport", PC: 50, MC: 0.05, AS: 0, DS: 6, CC: 2, CR: 1, CL: 2, Bucket: BucketEscort, Transport: true},
			ShipPlanetBreaker:  {Name: "Planet Breaker", PC: 250, MC: 0.10, AS: 40, DS: 24, CC: 7, CR: 8, Bucket: BucketCapital, Breaker: true, Yard: true},
		},
		GroundClasses: map[string]GroundClass{
			GroundArmy:    {Name: "Army", PC: 20, AS: 6, DS: 10, Kind: GroundKindArmy},
			GroundMarine:  {Name: "Marine Division", PC: 30, AS: 10, DS: 8, Kind: GroundKindMarine},
			GroundBattery: {Name: "Ground Battery", PC: 15, AS: 6, DS: 8, Kind: GroundKindBattery},
		},
		Facilities: map[string]FacilityDef{
			FacSpaceport: {Name: "Spaceport", PC: 100, DS: 12, Kind: FacilityKindSpaceport, DockBase: 2, Turns: 2},
			FacShipyard:  {Name: "Shipyard", PC: 150, DS: 16, Kind: FacilityKindShipyard, DockBase: 3, Turns: 3},
			FacDrydock:   {Name: "Drydock", PC: 80, DS: 10, Kind: FacilityKindDrydock, DockBase: 2, Turns: 2},
			FacStarbase:  {Name: "Starbase", PC: 200, AS: 30, DS: 35, Kind: FacilityKindStarbase, Turns: 3},
		},
		Techs: map[TechField]TechDef{
			TechEL:  {Pool: PoolERP, MaxTier: 10, BaseCost: 40, SLGate: []int{0, 1, 1, 2, 3, 4, 5, 6, 7, 8}},
			TechCST: {Pool: PoolERP, MaxTier: 8, BaseCost: 35, SLGate: []int{0, 1, 2, 3, 4, 5, 6, 7}},
			TechTER: {Pool: PoolERP, MaxTier: 5, BaseCost: 60, SLGate: []int{1, 2, 3, 5, 7}},
			TechSTL: {Pool: PoolERP, MaxTier: 5, BaseCost: 30, SLGate: []int{0, 1, 2, 4, 6}},
			TechWEP: {Pool: PoolTRP, MaxTier: 8, BaseCost: 50, SLGate: []int{0, 1, 2, 3, 4, 5, 6, 7}},
			TechSLD: {Pool: PoolTRP, MaxTier: 6, BaseCost: 55, SLGate: []int{1, 2, 3, 4, 5, 6}},
			TechCLK: {Pool: PoolTRP, MaxTier: 5, BaseCost: 65, SLGate: []int{2, 3, 4, 6, 8}},
			TechCMD: {Pool: PoolTRP, MaxTier: 5, BaseCost: 45, SLGate: []int{0, 1, 3, 5, 7}},
			TechFD:  {Pool: PoolTRP, MaxTier: 4, BaseCost: 40, SLGate: []int{1, 2, 4, 6}},
			TechACO: {Pool: PoolTRP, MaxTier: 4, BaseCost: 45, SLGate: []int{1, 3, 5, 7}},
			TechELI: {Pool: PoolSRP, MaxTier: 6, BaseCost: 40, SLGate: []int{0, 1, 2, 3, 5, 7}},
			TechCIC: {Pool: PoolSRP, MaxTier: 6, BaseCost: 40, SLGate: []int{0, 1, 2, 3, 5, 7}},
		},
		SLThresholds: []PoolThreshold{
			{ERP: 100, SRP: 60},
			{ERP: 250, SRP: 150},
			{ERP: 450, SRP: 280},
			{ERP: 700, SRP: 450},
			{ERP: 1000, SRP: 650},
			{ERP: 1400, SRP: 900},
			{ERP: 1900, SRP: 1200},
			{ERP: 2500, SRP: 1600},
			{ERP: 3200, SRP: 2100},
		},
		Prestige: PrestigeTable{
			ColonyFounded:    5,
			ColonyCaptured:   10,
			ColonyLost:       -10,
			SquadronKill:     2,
			FacilityKill:     3,
			RetreatForced:    1,
			LowTaxPerColony:  1,
			EspionageSuccess: 2,
			EspionageCaught:  -3,
			MaintShortfall:   -5,
			MaintEscalation:  -2,
			TaxPenalty:       []int{-1, -2, -3, -5, -7, -9, -11},
		},
		Morale: []MoraleTier{
			{MinPrestige: 200, Threshold: 8, Modifier: 2, Critical: true},
			{MinPrestige: 100, Threshold: 10, Modifier: 2},
			{MinPrestige: 50, Threshold: 12, Modifier: 1},
			{MinPrestige: 1, Threshold: 14, Modifier: 1},
			{MinPrestige: -1 << 31, Threshold: 21, Modifier: -1},
		},
		ROEThresholds: [11]float64{0.0, 0.1, 0.2, 0.35, 0.5, 0.75, 1.0, 1.5, 2.0, 3.0, 1e9},
		Shields: []ShieldLevel{
			{Threshold: 13, Block: 0.15},
			{Threshold: 12, Block: 0.25},
			{Threshold: 11, Block: 0.35},
			{Threshold: 10, Block: 0.45},
			{Threshold: 9, Block: 0.55},
			{Threshold: 8, Block: 0.65},
		},
		Victory: VictoryRules{
			TurnLimit:         60,
			PrestigeThreshold: 0,
			LastHouseStanding: true,
		},
		MapScale: 1.0,
		AutopilotDoctrine: []DoctrineRule{
			{Name: "limp-home", When: "Crippled && !AtHome", Command: "seek_home"},
			{Name: "fall-back", When: "HostileAS > OwnAS * 2", Command: "seek_home"},
			{Name: "hold-the-line", When: "AtColony && HostilesPresent", Command: "guard_colony"},
			{Name: "stand-fast", When: "true", Command: "hold"},
		},
	}
}

// RawIndex returns the per-PU raw output for a planet class and resource
// rating. Planet classes run Extreme..Eden, resources Poor..VeryRich.
func RawIndex(planet PlanetClass, resource ResourceRating) float64 {
	base := map[PlanetClass]float64{
		PlanetExtreme:  0.2,
		PlanetDesolate: 0.35,
		PlanetHostile:  0.5,
		PlanetHarsh:    0.7,
		PlanetBenign:   0.9,
		PlanetLush:     1.1,
		PlanetEden:     1.3,
	}[planet]
	mult := map[ResourceRating]float64{
		ResourcePoor:     0.6,
		ResourceAbundant: 1.0,
		ResourceRich:     1.4,
		ResourceVeryRich: 1.8,
	}[resource]
	return base * mult
}
