package ec4x

// FleetProfile summarizes the movement-relevant composition of a fleet.
type FleetProfile struct {
	HasCrippled  bool
	HasSpacelift bool // ETAC or troop transport present
}

// ProfileFleet inspects a fleet's live ships for lane restrictions.
func ProfileFleet(gs *GameState, rules *Rules, id FleetID) FleetProfile {
	var p FleetProfile
	for _, s := range gs.ShipsInFleet(id) {
		if s.Hull == HullCrippled {
			p.HasCrippled = true
		}
		cls := rules.ShipClasses[s.Class]
		if cls.ETAC || cls.Transport {
			p.HasSpacelift = true
		}
	}
	return p
}

// Traversable reports whether the profile may use a lane class.
// Restricted lanes block crippled ships and spacelift hulls; minor lanes
// block crippled ships; major lanes are always open.
func (p FleetProfile) Traversable(class LaneClass) bool {
	switch class {
	case LaneMajor:
		return true
	case LaneMinor:
		return !p.HasCrippled
	case LaneRestricted:
		return !p.HasCrippled && !p.HasSpacelift
	default:
		return false
	}
}

// FindPath runs a breadth-first search over the lane graph from src to dst,
// honoring the fleet profile. Returns the system sequence excluding src,
// or nil when no path exists. Neighbor expansion follows the sorted lane
// lists, so equal-length paths resolve deterministically.
func FindPath(gs *GameState, profile FleetProfile, src, dst SystemID) []SystemID {
	if src == dst {
		return []SystemID{}
	}
	prev := make(map[SystemID]SystemID)
	visited := map[SystemID]bool{src: true}
	queue := []SystemID{src}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		sys, ok := gs.Systems[cur]
		if !ok {
			continue
		}
		for _, lane := range sys.Lanes {
			if visited[lane.To] || !profile.Traversable(lane.Class) {
				continue
			}
			visited[lane.To] = true
			prev[lane.To] = cur
			if lane.To == dst {
				return reconstruct(prev, src, dst)
			}
			queue = append(queue, lane.To)
		}
	}
	return nil
}

func reconstruct(prev map[SystemID]SystemID, src, dst SystemID) []SystemID {
	var path []SystemID
	for at := dst; at != src; at = prev[at] {
		path = append(path, at)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// canDoubleJump decides whether a fleet that has made one hop this turn
// may take a second. Both hops must be Major lanes and both the current
// system and the next must be controlled by the owner. The fleet's trail
// holds the system it departed this turn.
func canDoubleJump(gs *GameState, f *Fleet, next SystemID) bool {
	if len(f.Trail) != 1 {
		return false
	}
	origin := f.Trail[0]
	l1, ok1 := LaneBetween(gs, origin, f.System)
	l2, ok2 := LaneBetween(gs, f.System, next)
	if !ok1 || !ok2 || l1.Class != LaneMajor || l2.Class != LaneMajor {
		return false
	}
	return gs.SystemControlledBy(f.System, f.Owner) && gs.SystemControlledBy(next, f.Owner)
}

// NearestOwned returns the closest system holding a colony of the given
// house, searching over all lanes (retreat ignores composition limits).
// Returns false when the house holds nothing reachable.
func NearestOwned(gs *GameState, h HouseID, from SystemID) (SystemID, bool) {
	if gs.SystemControlledBy(from, h) {
		return from, true
	}
	visited := map[SystemID]bool{from: true}
	queue := []SystemID{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		sys, ok := gs.Systems[cur]
		if !ok {
			continue
		}
		for _, lane := range sys.Lanes {
			if visited[lane.To] {
				continue
			}
			visited[lane.To] = true
			if gs.SystemControlledBy(lane.To, h) {
				return lane.To, true
			}
			queue = append(queue, lane.To)
		}
	}
	return 0, false
}
