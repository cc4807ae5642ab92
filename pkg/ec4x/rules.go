package ec4x

// Rules is the immutable per-game configuration: unit stat tables, tech cost
// progressions, prestige sources, combat tables, and victory settings.
// A Rules value is fixed at game creation and injected into every phase.
type Rules struct {
	ShipClasses   map[string]ShipClass   `json:"ship_classes"`
	GroundClasses map[string]GroundClass `json:"ground_classes"`
	Facilities    map[string]FacilityDef `json:"facilities"`
	Techs         map[TechField]TechDef  `json:"techs"`
	SLThresholds  []PoolThreshold        `json:"sl_thresholds"`
	Prestige      PrestigeTable          `json:"prestige"`
	Morale        []MoraleTier           `json:"morale"`
	ROEThresholds [11]float64            `json:"roe_thresholds"`
	Shields       []ShieldLevel          `json:"shields"`
	Victory       VictoryRules           `json:"victory"`
	MapScale      float64                `json:"map_scale"`

	// AutopilotDoctrine holds the expr rules driving silent houses.
	// Evaluated in order; the first matching rule picks the fleet command.
	AutopilotDoctrine []DoctrineRule `json:"autopilot_doctrine"`
}

// ShipClass describes one row of the ship table.
type ShipClass struct {
	Name      string  `json:"name"`
	PC        int     `json:"pc"`        // production cost
	MC        float64 `json:"mc"`        // maintenance, fraction of PC per turn
	AS        int     `json:"as"`        // attack strength
	DS        int     `json:"ds"`        // defense strength
	CC        int     `json:"cc"`        // command cost
	CR        int     `json:"cr"`        // command rating as flagship
	CL        int     `json:"cl"`        // cargo level (ETAC / transports)
	Bucket    Bucket  `json:"bucket"`    // combat targeting bucket
	Scout     bool    `json:"scout"`     // carries ELI suite
	Raider    bool    `json:"raider"`    // carries CLK suite
	ETAC      bool    `json:"etac"`      // colonization transport
	Transport bool    `json:"transport"` // troop transport
	Carrier   bool    `json:"carrier"`   // ACO-scaled hangar
	Breaker   bool    `json:"breaker"`   // planet-breaker ordnance
	Hangar    int     `json:"hangar"`    // base fighter capacity (carriers)
	Yard      bool    `json:"yard_only"` // too large for spaceport construction
}

// GroundClass describes one row of the ground unit table.
type GroundClass struct {
	Name string         `json:"name"`
	PC   int            `json:"pc"`
	AS   int            `json:"as"`
	DS   int            `json:"ds"`
	Kind GroundUnitKind `json:"kind"`
}

// FacilityDef describes one row of the facility table.
type FacilityDef struct {
	Name     string       `json:"name"`
	PC       int          `json:"pc"`
	AS       int          `json:"as"` // starbases fight in orbit
	DS       int          `json:"ds"`
	Kind     FacilityKind `json:"kind"`
	DockBase int          `json:"dock_base"` // build slots before CST scaling
	Turns    int          `json:"turns"`
}

// TechField enumerates the individual technology lines.
type TechField string

const (
	TechEL  TechField = "EL"  // economic level
	TechWEP TechField = "WEP" // weapons
	TechCST TechField = "CST" // construction
	TechSLD TechField = "SLD" // planetary shields
	TechTER TechField = "TER" // terraforming
	TechCLK TechField = "CLK" // cloaking
	TechELI TechField = "ELI" // electronic intelligence
	TechSTL TechField = "STL" // spacelift
	TechCMD TechField = "CMD" // command
	TechFD  TechField = "FD"  // fighter doctrine
	TechACO TechField = "ACO" // advanced carrier ops
	TechCIC TechField = "CIC" // counter-intel capability
)

// AllTechFields lists tech lines in canonical order.
func AllTechFields() []TechField {
	return []TechField{TechEL, TechWEP, TechCST, TechSLD, TechTER, TechCLK,
		TechELI, TechSTL, TechCMD, TechFD, TechACO, TechCIC}
}

// Pool enumerates the research point pools.
type Pool string

const (
	PoolERP Pool = "ERP" // economic
	PoolSRP Pool = "SRP" // science
	PoolTRP Pool = "TRP" // technology
)

// TechDef describes one technology line: its funding pool, max tier,
// base cost (cost of tier n is BaseCost * n * n), and SL gate per tier
// (tier n requires SL >= SLGate[n-1]).
type TechDef struct {
	Pool     Pool  `json:"pool"`
	MaxTier  int   `json:"max_tier"`
	BaseCost int   `json:"base_cost"`
	SLGate   []int `json:"sl_gate"`
}

// PoolThreshold gates SL advancement: both pools must have accumulated
// the listed lifetime totals before SL tier N+1 unlocks.
type PoolThreshold struct {
	ERP int `json:"erp"`
	SRP int `json:"srp"`
}

// PrestigeTable maps prestige sources to base awards, plus the stepped
// tax penalty rows (index = rolling average tax above 50%, in 5% steps).
type PrestigeTable struct {
	ColonyFounded    int   `json:"colony_founded"`
	ColonyCaptured   int   `json:"colony_captured"`
	ColonyLost       int   `json:"colony_lost"`
	SquadronKill     int   `json:"squadron_kill"`
	FacilityKill     int   `json:"facility_kill"`
	RetreatForced    int   `json:"retreat_forced"`
	LowTaxPerColony  int   `json:"low_tax_per_colony"`
	EspionageSuccess int   `json:"espionage_success"`
	EspionageCaught  int   `json:"espionage_caught"`
	MaintShortfall   int   `json:"maint_shortfall"`  // first-turn penalty (negative)
	MaintEscalation  int   `json:"maint_escalation"` // added per consecutive turn
	TaxPenalty       []int `json:"tax_penalty"`      // rolling-average > 50% steps
}

// MoraleTier maps a minimum prestige to a d20 threshold and the CER
// modifier granted on success. Tiers are ordered descending by MinPrestige.
type MoraleTier struct {
	MinPrestige int  `json:"min_prestige"`
	Threshold   int  `json:"threshold"` // d20 >= Threshold succeeds
	Modifier    int  `json:"modifier"`  // CER modifier on success
	Critical    bool `json:"critical"`  // grants one guaranteed critical
}

// ShieldLevel describes a planetary shield tier: the d20 threshold the
// shield roll must exceed and the fraction of conventional hits blocked.
type ShieldLevel struct {
	Threshold int     `json:"threshold"`
	Block     float64 `json:"block"`
}

// VictoryRules controls game end conditions.
type VictoryRules struct {
	TurnLimit         int  `json:"turn_limit"`
	PrestigeThreshold int  `json:"prestige_threshold"` // 0 disables threshold victory
	LastHouseStanding bool `json:"last_house_standing"`
}

// DoctrineRule is one autopilot standing order: an expr condition over the
// fleet environment and the command issued when it matches.
type DoctrineRule struct {
	Name    string `json:"name"`
	When    string `json:"when"`
	Command string `json:"command"`
}

// ELMod returns the stepped industrial multiplier for an EL tier.
func ELMod(el int) float64 { return 1.0 + 0.5*float64(el) }

// CSTMod returns the stepped construction multiplier for a CST tier.
func CSTMod(cst int) float64 { return 1.0 + 0.1*float64(cst) }

// FDMult returns the fighter capacity multiplier for an FD tier.
func FDMult(fd int) int {
	if fd < 1 {
		return 1
	}
	return fd
}

// Shield returns the shield row for a level, or a zero row when unshielded.
func (r *Rules) Shield(level int) ShieldLevel {
	if level <= 0 || level > len(r.Shields) {
		return ShieldLevel{}
	}
	return r.Shields[level-1]
}

// ROEThreshold returns the own/hostile AS ratio below which a task force
// with the given ROE retreats.
func (r *Rules) ROEThreshold(roe int) float64 {
	if roe < 0 {
		roe = 0
	}
	if roe > 10 {
		roe = 10
	}
	return r.ROEThresholds[roe]
}

// MoraleTierFor returns the morale row matching a prestige total.
func (r *Rules) MoraleTierFor(prestige int) MoraleTier {
	for _, t := range r.Morale {
		if prestige >= t.MinPrestige {
			return t
		}
	}
	if len(r.Morale) == 0 {
		return MoraleTier{Threshold: 21}
	}
	return r.Morale[len(r.Morale)-1]
}

// TechCost returns the pool cost of buying the given tier of a tech line.
func (r *Rules) TechCost(f TechField, tier int) int {
	def, ok := r.Techs[f]
	if !ok || tier < 1 {
		return 0
	}
	return def.BaseCost * tier * tier
}

// DetectionThreshold returns the d20 value an ELI unit must meet or beat to
// detect a cloaked raider. Higher CLK raises the bar, higher ELI lowers it.
func DetectionThreshold(eli, clk int) int {
	t := 14 + 2*(clk-eli)
	if t < 2 {
		t = 2
	}
	if t > 20 {
		t = 20
	}
	return t
}

// SpaceCER maps a modified d10 roll to a damage multiplier.
// Natural 9 is handled by the caller as a critical.
func SpaceCER(roll int) float64 {
	switch {
	case roll <= 2:
		return 0.25
	case roll <= 5:
		return 0.50
	case roll <= 8:
		return 0.75
	default:
		return 1.00
	}
}

// GroundCER maps a modified d10 roll to the ground combat multiplier.
func GroundCER(roll int) float64 {
	switch {
	case roll <= 2:
		return 0.5
	case roll <= 5:
		return 1.0
	case roll <= 8:
		return 1.5
	default:
		return 2.0
	}
}
