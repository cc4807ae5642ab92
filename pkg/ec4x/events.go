package ec4x

import "fmt"

// EventKind enumerates in-game events emitted during resolution.
type EventKind string

const (
	EventBuilt            EventKind = "built"
	EventRepaired         EventKind = "repaired"
	EventProjectLost      EventKind = "project_lost"
	EventProjectCancelled EventKind = "project_cancelled"
	EventColonyFounded    EventKind = "colony_founded"
	EventColonyCaptured   EventKind = "colony_captured"
	EventColonyLost       EventKind = "colony_lost"
	EventColonizeFailed   EventKind = "colonize_failed"
	EventFleetMoved       EventKind = "fleet_moved"
	EventFleetHeld        EventKind = "fleet_held"
	EventFleetJoined      EventKind = "fleet_joined"
	EventFleetSplit       EventKind = "fleet_split"
	EventFleetSalvaged    EventKind = "fleet_salvaged"
	EventCombat           EventKind = "combat"
	EventRetreat          EventKind = "retreat"
	EventBombardment      EventKind = "bombardment"
	EventInvasion         EventKind = "invasion"
	EventSpySuccess       EventKind = "spy_success"
	EventSpyCaught        EventKind = "spy_caught"
	EventCovertAction     EventKind = "covert_action"
	EventCounterIntel     EventKind = "counter_intel"
	EventUnusualActivity  EventKind = "unusual_activity"
	EventMaintShortfall   EventKind = "maintenance_shortfall"
	EventGuildClaim       EventKind = "guild_claim"
	EventCapacityBreach   EventKind = "capacity_breach"
	EventTechUnlocked     EventKind = "tech_unlocked"
	EventSLAdvanced       EventKind = "sl_advanced"
	EventPrestige         EventKind = "prestige"
	EventCollapse         EventKind = "defensive_collapse"
	EventEliminated       EventKind = "eliminated"
	EventAutopilot        EventKind = "autopilot"
	EventVictory          EventKind = "victory"
)

// Event is one entry of the turn's event log. Visibility controls which
// houses receive it through the fog-of-war projector.
type Event struct {
	Kind   EventKind `json:"kind"`
	Turn   int       `json:"turn"`
	House  HouseID   `json:"house,omitempty"` // primary subject
	System SystemID  `json:"system,omitempty"`
	Detail string    `json:"detail,omitempty"`
	Amount int       `json:"amount,omitempty"`
	// VisibleTo restricts delivery; empty means all participants/owner.
	VisibleTo []HouseID `json:"visible_to,omitempty"`
	Public    bool      `json:"public,omitempty"`
}

// PrestigeReason names the source of a prestige event.
type PrestigeReason string

const (
	ReasonColonyFounded  PrestigeReason = "colony_founded"
	ReasonColonyCaptured PrestigeReason = "colony_captured"
	ReasonColonyLost     PrestigeReason = "colony_lost"
	ReasonCombatKill     PrestigeReason = "combat_kill"
	ReasonCombatLoss     PrestigeReason = "combat_loss"
	ReasonRetreatForced  PrestigeReason = "retreat_forced"
	ReasonRetreated      PrestigeReason = "retreated"
	ReasonLowTax         PrestigeReason = "low_tax"
	ReasonHighTax        PrestigeReason = "high_tax"
	ReasonEspionage      PrestigeReason = "espionage"
	ReasonCaughtSpying   PrestigeReason = "caught_spying"
	ReasonShortfall      PrestigeReason = "maintenance_shortfall"
)

// PrestigeEvent is the canonical prestige mutation. All resolvers emit
// these; the prestige engine applies them after dynamic scaling.
type PrestigeEvent struct {
	House  HouseID        `json:"house"`
	Amount int            `json:"amount"`
	Reason PrestigeReason `json:"reason"`
	Source SystemID       `json:"source,omitempty"`
}

func (p PrestigeEvent) String() string {
	return fmt.Sprintf("%s %+d house=%d", p.Reason, p.Amount, p.House)
}

// EventLog accumulates events and prestige mutations during a phase.
type EventLog struct {
	Events   []Event         `json:"events"`
	Prestige []PrestigeEvent `json:"prestige"`
	Reports  []CombatReport  `json:"reports,omitempty"`
}

// Add appends an event, stamping the turn number.
func (l *EventLog) Add(turn int, e Event) {
	e.Turn = turn
	l.Events = append(l.Events, e)
}

// Award records a prestige mutation.
func (l *EventLog) Award(h HouseID, amount int, reason PrestigeReason, src SystemID) {
	if amount == 0 {
		return
	}
	l.Prestige = append(l.Prestige, PrestigeEvent{House: h, Amount: amount, Reason: reason, Source: src})
}
