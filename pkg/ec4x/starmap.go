package ec4x

import (
	"fmt"
	"sort"
)

// hexDirs are the six axial neighbor offsets.
var hexDirs = [6][2]int{{1, 0}, {1, -1}, {0, -1}, {-1, 0}, {-1, 1}, {0, 1}}

// hexDistance returns the grid distance between two axial coordinates.
func hexDistance(q1, r1, q2, r2 int) int {
	dq := q1 - q2
	dr := r1 - r2
	ds := -(q1 + r1) - (-(q2 + r2))
	return (abs(dq) + abs(dr) + abs(ds)) / 2
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// MapRadius picks the hex disk radius for a player count.
func MapRadius(players int) int {
	switch {
	case players <= 4:
		return 3
	case players <= 8:
		return 4
	default:
		return 5
	}
}

var starClasses = []string{"G", "K", "M", "F", "A", "B"}

// GenerateStarmap builds the hex disk, places one homeworld per house on
// the outer ring with maximal spacing, and classifies every lane. The hub
// gets exactly six Major lanes to ring one; each homeworld gets exactly
// three Major lanes; remaining lanes target 50% Major, 35% Minor,
// 15% Restricted.
//
// Returned homeworld systems are in house submission order.
func GenerateStarmap(gs *GameState, players int) []SystemID {
	radius := MapRadius(players)
	roller := NewRoller(gs.Seed, 0, "mapgen")

	// Hex disk, hub first, then rings outward. Ring-major creation keeps
	// system ids stable for a given radius.
	type hex struct{ q, r int }
	byCoord := make(map[hex]SystemID)

	addSystem := func(q, r int, hub bool) SystemID {
		id := gs.IDs.System()
		sys := &System{
			ID:        id,
			Q:         q,
			R:         r,
			StarClass: starClasses[roller.Intn(len(starClasses))],
			Planet:    PlanetClass(roller.Intn(int(PlanetEden) + 1)),
			Resources: ResourceRating(roller.Intn(int(ResourceVeryRich) + 1)),
			Hub:       hub,
		}
		gs.Systems[id] = sys
		byCoord[hex{q, r}] = id
		return id
	}

	addSystem(0, 0, true)
	for ring := 1; ring <= radius; ring++ {
		q, r := -ring, ring // start corner, then walk the ring
		for side := 0; side < 6; side++ {
			for step := 0; step < ring; step++ {
				addSystem(q, r, false)
				q += hexDirs[side][0]
				r += hexDirs[side][1]
			}
		}
	}

	// Outer-ring homeworld placement with even spacing.
	outer := outerRing(gs, radius)
	var homeworlds []SystemID
	for i := 0; i < players; i++ {
		pick := outer[(i*len(outer))/players]
		homeworlds = append(homeworlds, pick)
		sys := gs.Systems[pick]
		sys.Planet = PlanetBenign
		sys.Resources = ResourceAbundant
	}

	// Lanes between every adjacent hex pair, classified once per pair.
	isHome := make(map[SystemID]bool, len(homeworlds))
	for _, h := range homeworlds {
		isHome[h] = true
	}
	majorCount := make(map[SystemID]int)

	for _, id := range gs.SortedSystems() {
		sys := gs.Systems[id]
		for _, d := range hexDirs {
			nb, ok := byCoord[hex{sys.Q + d[0], sys.R + d[1]}]
			if !ok || nb <= id {
				continue // classify each undirected pair once
			}
			class := classifyLane(gs, roller, id, nb, isHome, majorCount)
			sys.Lanes = append(sys.Lanes, Lane{To: nb, Class: class})
			gs.Systems[nb].Lanes = append(gs.Systems[nb].Lanes, Lane{To: id, Class: class})
			if class == LaneMajor {
				majorCount[id]++
				majorCount[nb]++
			}
		}
	}
	for _, sys := range gs.Systems {
		sort.Slice(sys.Lanes, func(i, j int) bool { return sys.Lanes[i].To < sys.Lanes[j].To })
	}
	return homeworlds
}

// classifyLane decides a lane class honoring the hub and homeworld quotas.
func classifyLane(gs *GameState, roller *Roller, a, b SystemID, isHome map[SystemID]bool, majorCount map[SystemID]int) LaneClass {
	sysA, sysB := gs.Systems[a], gs.Systems[b]
	if sysA.Hub || sysB.Hub {
		return LaneMajor
	}
	for _, id := range []SystemID{a, b} {
		if isHome[id] {
			if majorCount[id] < 3 {
				return LaneMajor
			}
			return LaneMinor
		}
	}
	roll := roller.Intn(100)
	switch {
	case roll < 50:
		return LaneMajor
	case roll < 85:
		return LaneMinor
	default:
		return LaneRestricted
	}
}

// outerRing returns the system ids at exactly the given ring distance.
func outerRing(gs *GameState, radius int) []SystemID {
	var ids []SystemID
	for _, id := range gs.SortedSystems() {
		sys := gs.Systems[id]
		if hexDistance(sys.Q, sys.R, 0, 0) == radius {
			ids = append(ids, id)
		}
	}
	return ids
}

// LaneBetween returns the lane connecting two systems, if any.
func LaneBetween(gs *GameState, from, to SystemID) (Lane, bool) {
	sys, ok := gs.Systems[from]
	if !ok {
		return Lane{}, false
	}
	for _, l := range sys.Lanes {
		if l.To == to {
			return l, true
		}
	}
	return Lane{}, false
}

// DescribeSystem renders a short human-readable system summary.
func DescribeSystem(sys *System) string {
	return fmt.Sprintf("system %d (%d,%d) %s-class", sys.ID, sys.Q, sys.R, sys.StarClass)
}
