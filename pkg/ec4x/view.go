package ec4x

import (
	"fmt"
	"sort"
)

// IntelQuality grades how a report was obtained.
type IntelQuality string

const (
	IntelVisual  IntelQuality = "visual"  // co-located fleet sighting
	IntelSpy     IntelQuality = "spy"     // scout mission product
	IntelHack    IntelQuality = "hack"    // starbase records
	IntelPerfect IntelQuality = "perfect" // pre-combat disclosure
	IntelDisinfo IntelQuality = "disinfo" // planted by a rival
)

// ColonyIntel is the colony slice of a report. Corrupt flags mark fields
// the projector fuzzed under disinformation.
type ColonyIntel struct {
	PU          int  `json:"pu"`
	IU          int  `json:"iu"`
	TechSL      int  `json:"tech_sl,omitempty"`
	ShieldLevel int  `json:"shield_level"`
	Facilities  int  `json:"facilities"`
	GroundUnits int  `json:"ground_units"`
	Corrupt     bool `json:"corrupt,omitempty"`
}

// FleetIntel is a sighted foreign fleet: composition only, no hull state,
// no tech, no cargo contents.
type FleetIntel struct {
	Fleet      FleetID `json:"fleet,omitempty"`
	House      HouseID `json:"house"`
	Squadrons  int     `json:"squadrons"`
	Transports int     `json:"transports,omitempty"`
	Corrupt    bool    `json:"corrupt,omitempty"`
}

// IntelReport is one entry of a house's intelligence database.
type IntelReport struct {
	Turn    int          `json:"turn"` // snapshot turn, for staleness
	Quality IntelQuality `json:"quality"`
	House   HouseID      `json:"house,omitempty"`  // subject house
	System  SystemID     `json:"system,omitempty"` // subject system
	Summary string       `json:"summary,omitempty"`

	Colony   *ColonyIntel `json:"colony,omitempty"`
	Fleets   []FleetIntel `json:"fleets,omitempty"`
	TechSL   int          `json:"tech_sl,omitempty"`
	Treasury int          `json:"treasury,omitempty"`
}

// SystemVisibility says how much of a system a house currently sees.
type SystemVisibility string

const (
	VisibilityVisible SystemVisibility = "visible"
	VisibilityCached  SystemVisibility = "cached"
	VisibilityNone    SystemVisibility = "none"
)

// SystemView is one starmap hex as a house sees it.
type SystemView struct {
	ID         SystemID         `json:"id"`
	Q          int              `json:"q"`
	R          int              `json:"r"`
	StarClass  string           `json:"star_class"`
	Visibility SystemVisibility `json:"visibility"`
	Lanes      []Lane           `json:"lanes,omitempty"`

	Planet    PlanetClass    `json:"planet,omitempty"`
	Resources ResourceRating `json:"resources,omitempty"`

	ColonyOwner HouseID      `json:"colony_owner,omitempty"`
	Sightings   []FleetIntel `json:"sightings,omitempty"`
}

// LeaderboardRow is public standing data every house receives.
type LeaderboardRow struct {
	House      HouseID `json:"house"`
	Name       string  `json:"name"`
	Prestige   int     `json:"prestige"`
	Eliminated bool    `json:"eliminated"`
	Collapsed  bool    `json:"collapsed"`
}

// PlayerView is everything one house is allowed to know after a turn.
type PlayerView struct {
	House HouseID `json:"house"`
	Turn  int     `json:"turn"`

	Treasury int       `json:"treasury"`
	Prestige int       `json:"prestige"`
	TaxRate  int       `json:"tax_rate"`
	Tech     TechState `json:"tech"`
	EBP      int       `json:"ebp"`
	CIP      int       `json:"cip"`

	Collapsed bool `json:"collapsed,omitempty"`
	Autopilot bool `json:"autopilot,omitempty"`

	Colonies []*Colony    `json:"colonies"`
	Fleets   []*Fleet     `json:"fleets"`
	Ships    []*Ship      `json:"ships"`
	Projects []*Project   `json:"projects"`
	Systems  []SystemView `json:"systems"`

	Intel       []IntelReport    `json:"intel,omitempty"`
	Events      []Event          `json:"events,omitempty"`
	Reports     []CombatReport   `json:"combat_reports,omitempty"`
	Leaderboard []LeaderboardRow `json:"leaderboard"`

	Finished bool    `json:"finished,omitempty"`
	Winner   HouseID `json:"winner,omitempty"`
}

// ProjectViews builds the per-house filtered views for the current state.
func ProjectViews(gs *GameState, rules *Rules, log *EventLog) map[HouseID]*PlayerView {
	out := make(map[HouseID]*PlayerView, len(gs.Houses))
	board := leaderboard(gs)
	for _, hid := range gs.SortedHouses() {
		out[hid] = buildView(gs, rules, hid, log, board)
	}
	return out
}

func leaderboard(gs *GameState) []LeaderboardRow {
	var rows []LeaderboardRow
	for _, hid := range gs.SortedHouses() {
		h := gs.Houses[hid]
		rows = append(rows, LeaderboardRow{
			House: hid, Name: h.Name, Prestige: h.Prestige,
			Eliminated: h.Eliminated, Collapsed: h.DefensiveCollapse,
		})
	}
	return rows
}

// buildView assembles one house's view. Own entities are exact; foreign
// data passes through the visibility predicates.
func buildView(gs *GameState, rules *Rules, hid HouseID, log *EventLog, board []LeaderboardRow) *PlayerView {
	h := gs.Houses[hid]
	v := &PlayerView{
		House: hid, Turn: gs.Turn,
		Treasury: h.Treasury, Prestige: h.Prestige, TaxRate: h.TaxRate,
		Tech: h.Tech, EBP: h.EBP, CIP: h.CIP,
		Collapsed: h.DefensiveCollapse, Autopilot: h.Autopilot,
		Intel:       corruptIntel(gs, hid, h.Intel),
		Leaderboard: board,
		Finished:    gs.Finished, Winner: gs.Winner,
	}

	visible := visibleSystems(gs, hid)

	for _, cid := range gs.ColoniesByOwner(hid) {
		v.Colonies = append(v.Colonies, gs.Colonies[cid])
	}
	for _, fid := range gs.FleetsByOwner(hid) {
		v.Fleets = append(v.Fleets, gs.Fleets[fid])
		v.Ships = append(v.Ships, gs.ShipsInFleet(fid)...)
	}
	for _, pid := range gs.SortedProjects() {
		if p := gs.Projects[pid]; p.Owner == hid {
			v.Projects = append(v.Projects, p)
		}
	}

	for _, sid := range gs.SortedSystems() {
		sys := gs.Systems[sid]
		sv := SystemView{ID: sid, Q: sys.Q, R: sys.R, StarClass: sys.StarClass,
			Visibility: VisibilityNone}
		if visible[sid] {
			sv.Visibility = VisibilityVisible
			sv.Lanes = sys.Lanes
			sv.Planet = sys.Planet
			sv.Resources = sys.Resources
			if c, ok := gs.ColonyBySystem(sid); ok {
				sv.ColonyOwner = c.Owner
			}
			sv.Sightings = sightForeignFleets(gs, rules, hid, sid)
		} else if hasCachedIntel(h, sid) {
			sv.Visibility = VisibilityCached
		}
		v.Systems = append(v.Systems, sv)
	}

	if log != nil {
		v.Events = filterEvents(log.Events, hid, visible)
		for _, r := range log.Reports {
			for _, participant := range r.Houses {
				if participant == hid {
					v.Reports = append(v.Reports, r)
					break
				}
			}
		}
	}
	return v
}

// corruptIntel projects a house's intel archive through any planted
// disinformation: while a disinfo report sits in the archive, every
// colony and fleet figure is fuzzed and flagged Corrupt. A counter-intel
// sweep purges the plant and restores clean projections.
func corruptIntel(gs *GameState, hid HouseID, in []IntelReport) []IntelReport {
	out := append([]IntelReport(nil), in...)
	planted := false
	for _, r := range in {
		if r.Quality == IntelDisinfo {
			planted = true
			break
		}
	}
	if !planted {
		return out
	}
	roller := NewRoller(gs.Seed, gs.Turn, fmt.Sprintf("disinfo:%d", hid))
	fuzz := func(v int) int {
		if v <= 0 {
			return v
		}
		return maxInt(0, v+roller.Intn(v+1)-v/2)
	}
	for i := range out {
		r := &out[i]
		if r.Colony != nil {
			c := *r.Colony
			c.PU, c.IU, c.GroundUnits = fuzz(c.PU), fuzz(c.IU), fuzz(c.GroundUnits)
			c.Corrupt = true
			r.Colony = &c
		}
		if len(r.Fleets) > 0 {
			fs := append([]FleetIntel(nil), r.Fleets...)
			for j := range fs {
				fs[j].Squadrons = fuzz(fs[j].Squadrons)
				fs[j].Corrupt = true
			}
			r.Fleets = fs
		}
	}
	return out
}

// visibleSystems marks systems holding the house's fleets or colonies.
func visibleSystems(gs *GameState, hid HouseID) map[SystemID]bool {
	vis := make(map[SystemID]bool)
	for _, cid := range gs.ColoniesByOwner(hid) {
		vis[gs.Colonies[cid].System] = true
	}
	for _, fid := range gs.FleetsByOwner(hid) {
		vis[gs.Fleets[fid].System] = true
	}
	return vis
}

func hasCachedIntel(h *House, sid SystemID) bool {
	for _, r := range h.Intel {
		if r.System == sid {
			return true
		}
	}
	return false
}

// sightForeignFleets produces Visual intel for co-located foreign fleets:
// squadron and transport counts only.
func sightForeignFleets(gs *GameState, rules *Rules, hid HouseID, sid SystemID) []FleetIntel {
	var out []FleetIntel
	for _, fid := range gs.FleetsInSystem(sid) {
		f := gs.Fleets[fid]
		if f.Owner == hid {
			continue
		}
		fi := FleetIntel{Fleet: fid, House: f.Owner, Squadrons: len(f.Squadrons)}
		for _, s := range gs.ShipsInFleet(fid) {
			cls := rules.ShipClasses[s.Class]
			if cls.ETAC || cls.Transport {
				fi.Transports++
			}
		}
		out = append(out, fi)
	}
	return out
}

// filterEvents keeps events addressed to the house, public events, and
// events in systems the house can see.
func filterEvents(events []Event, hid HouseID, visible map[SystemID]bool) []Event {
	var out []Event
	for _, e := range events {
		if len(e.VisibleTo) > 0 {
			for _, to := range e.VisibleTo {
				if to == hid {
					out = append(out, e)
					break
				}
			}
			continue
		}
		if e.Public || e.House == hid || (e.System != 0 && visible[e.System]) {
			out = append(out, e)
		}
	}
	return out
}

// ViewDelta is the per-house change set between two turns' views.
type ViewDelta struct {
	House HouseID `json:"house"`
	Turn  int     `json:"turn"`

	Events  []Event        `json:"events,omitempty"`
	Reports []CombatReport `json:"combat_reports,omitempty"`

	ChangedSystems []SystemView     `json:"changed_systems,omitempty"`
	NewIntel       []IntelReport    `json:"new_intel,omitempty"`
	Leaderboard    []LeaderboardRow `json:"leaderboard"`

	Treasury int `json:"treasury"`
	Prestige int `json:"prestige"`
}

// DiffViews computes the delta a client needs to advance from the previous
// view to the current one.
func DiffViews(prev, cur *PlayerView) *ViewDelta {
	d := &ViewDelta{
		House: cur.House, Turn: cur.Turn,
		Events: cur.Events, Reports: cur.Reports,
		Leaderboard: cur.Leaderboard,
		Treasury:    cur.Treasury, Prestige: cur.Prestige,
	}
	if prev == nil {
		d.ChangedSystems = cur.Systems
		d.NewIntel = cur.Intel
		return d
	}
	prevSys := make(map[SystemID]SystemView, len(prev.Systems))
	for _, sv := range prev.Systems {
		prevSys[sv.ID] = sv
	}
	for _, sv := range cur.Systems {
		if !systemViewEqual(prevSys[sv.ID], sv) {
			d.ChangedSystems = append(d.ChangedSystems, sv)
		}
	}
	if len(cur.Intel) > len(prev.Intel) {
		d.NewIntel = cur.Intel[len(prev.Intel):]
	}
	return d
}

func systemViewEqual(a, b SystemView) bool {
	if a.ID != b.ID || a.Visibility != b.Visibility || a.ColonyOwner != b.ColonyOwner {
		return false
	}
	if len(a.Sightings) != len(b.Sightings) {
		return false
	}
	for i := range a.Sightings {
		if a.Sightings[i] != b.Sightings[i] {
			return false
		}
	}
	return true
}

// SortIntel orders a report list by turn then subject for stable output.
func SortIntel(reports []IntelReport) {
	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].Turn != reports[j].Turn {
			return reports[i].Turn < reports[j].Turn
		}
		return reports[i].System < reports[j].System
	})
}
