package ec4x

// FleetCommandType enumerates the per-fleet orders a house may submit.
type FleetCommandType int

const (
	CmdHold FleetCommandType = iota
	CmdMove
	CmdSeekHome
	CmdPatrol
	CmdGuardStarbase
	CmdGuardColony
	CmdBlockade
	CmdBombard
	CmdInvade
	CmdBlitz
	CmdSpyColony
	CmdSpySystem
	CmdHackStarbase
	CmdColonize
	CmdJoinFleet
	CmdRendezvous
	CmdSalvage
	CmdReserve
	CmdMothball
	CmdView
	CmdSplitFleet
)

func (c FleetCommandType) String() string {
	switch c {
	case CmdHold:
		return "hold"
	case CmdMove:
		return "move"
	case CmdSeekHome:
		return "seek_home"
	case CmdPatrol:
		return "patrol"
	case CmdGuardStarbase:
		return "guard_starbase"
	case CmdGuardColony:
		return "guard_colony"
	case CmdBlockade:
		return "blockade"
	case CmdBombard:
		return "bombard"
	case CmdInvade:
		return "invade"
	case CmdBlitz:
		return "blitz"
	case CmdSpyColony:
		return "spy_colony"
	case CmdSpySystem:
		return "spy_system"
	case CmdHackStarbase:
		return "hack_starbase"
	case CmdColonize:
		return "colonize"
	case CmdJoinFleet:
		return "join_fleet"
	case CmdRendezvous:
		return "rendezvous"
	case CmdSalvage:
		return "salvage"
	case CmdReserve:
		return "reserve"
	case CmdMothball:
		return "mothball"
	case CmdView:
		return "view"
	case CmdSplitFleet:
		return "split_fleet"
	default:
		return "unknown"
	}
}

// Provocative reports whether the command reads as an act of war when
// executed inside another house's territory.
func (c FleetCommandType) Provocative() bool {
	switch c {
	case CmdBlockade, CmdBombard, CmdInvade, CmdBlitz, CmdColonize:
		return true
	default:
		return false
	}
}

// FleetCommand is one order for one fleet.
type FleetCommand struct {
	Fleet        FleetID          `json:"fleet"`
	Type         FleetCommandType `json:"type"`
	TargetSystem SystemID         `json:"target_system,omitempty"`
	TargetFleet  FleetID          `json:"target_fleet,omitempty"`
	// Squadrons names the squadrons a split detaches into a new fleet.
	Squadrons []SquadronID `json:"squadrons,omitempty"`
	ROE       *int         `json:"roe,omitempty"` // 0..10, nil keeps current
}

// BuildOrder queues construction at a colony.
type BuildOrder struct {
	Colony  ColonyID    `json:"colony"`
	Subject SubjectKind `json:"subject"`
	Class   string      `json:"class"`
	Host    FacilityID  `json:"host,omitempty"`
	Amount  int         `json:"amount,omitempty"` // IU investment size
}

// RepairOrder queues a repair job at a colony.
type RepairOrder struct {
	Colony   ColonyID   `json:"colony"`
	Ship     ShipID     `json:"ship,omitempty"`
	Facility FacilityID `json:"facility,omitempty"`
	Host     FacilityID `json:"host,omitempty"`
}

// CancelOrder cancels a queued project for a 50% refund.
type CancelOrder struct {
	Project ProjectID `json:"project"`
}

// EspionageKind enumerates covert actions.
type EspionageKind string

const (
	EspSabotageLow          EspionageKind = "sabotage_low"
	EspSabotageHigh         EspionageKind = "sabotage_high"
	EspTechTheft            EspionageKind = "tech_theft"
	EspAssassination        EspionageKind = "assassination"
	EspEconomicManipulation EspionageKind = "economic_manipulation"
	EspCyberAttack          EspionageKind = "cyber_attack"
	EspPsyopsCampaign       EspionageKind = "psyops"
	EspIntelTheft           EspionageKind = "intel_theft"
	EspPlantDisinformation  EspionageKind = "disinformation"
	EspCounterIntelSweep    EspionageKind = "counterintel_sweep"
)

// EspionageAction is the single optional budget action per packet.
type EspionageAction struct {
	Kind   EspionageKind `json:"kind"`
	Target HouseID       `json:"target"`
}

// ResearchAllocation splits PP into the three pools.
type ResearchAllocation struct {
	ERP int `json:"erp"`
	SRP int `json:"srp"`
	TRP int `json:"trp"`
}

// TechPurchase buys the next tier of a tech line from its pool.
type TechPurchase struct {
	Field TechField `json:"field"`
}

// DiplomaticChange updates posture toward another house.
type DiplomaticChange struct {
	Toward   HouseID  `json:"toward"`
	Relation Relation `json:"relation"`
}

// CommandPacket is one house's complete submission for a turn.
type CommandPacket struct {
	House HouseID `json:"house"`
	Turn  int     `json:"turn"`

	TaxRate     *int               `json:"tax_rate,omitempty"` // nil keeps current
	Research    ResearchAllocation `json:"research"`
	Purchases   []TechPurchase     `json:"purchases,omitempty"`
	Diplomacy   []DiplomaticChange `json:"diplomacy,omitempty"`
	EBPInvest   int                `json:"ebp_invest"`
	CIPInvest   int                `json:"cip_invest"`
	Espionage   *EspionageAction   `json:"espionage,omitempty"`
	Builds      []BuildOrder       `json:"builds,omitempty"`
	Repairs     []RepairOrder      `json:"repairs,omitempty"`
	Cancels     []CancelOrder      `json:"cancels,omitempty"`
	FleetOrders []FleetCommand     `json:"fleet_orders,omitempty"`
}
