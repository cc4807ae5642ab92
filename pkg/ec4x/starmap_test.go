package ec4x

import "testing"

func TestGenerateStarmapDeterministic(t *testing.T) {
	a := NewGameState("a", 77)
	b := NewGameState("b", 77)
	ha := GenerateStarmap(a, 4)
	hb := GenerateStarmap(b, 4)
	if len(ha) != len(hb) {
		t.Fatalf("homeworld counts differ: %d vs %d", len(ha), len(hb))
	}
	for i := range ha {
		if ha[i] != hb[i] {
			t.Fatalf("homeworld %d differs: %d vs %d", i, ha[i], hb[i])
		}
	}
	if len(a.Systems) != len(b.Systems) {
		t.Fatal("system counts differ under equal seeds")
	}
	for _, id := range a.SortedSystems() {
		sa, sb := a.Systems[id], b.Systems[id]
		if sa.Planet != sb.Planet || sa.Resources != sb.Resources || len(sa.Lanes) != len(sb.Lanes) {
			t.Fatalf("system %d generated differently under equal seeds", id)
		}
	}
}

func TestStarmapSize(t *testing.T) {
	for _, tc := range []struct{ players, radius int }{
		{2, 3}, {4, 3}, {6, 4}, {8, 4}, {12, 5},
	} {
		gs := NewGameState("size", 1)
		GenerateStarmap(gs, tc.players)
		want := 1 + 3*tc.radius*(tc.radius+1) // hex disk size
		if len(gs.Systems) != want {
			t.Fatalf("players=%d: got %d systems, want %d", tc.players, len(gs.Systems), want)
		}
	}
}

func TestHubLanesAllMajor(t *testing.T) {
	gs := NewGameState("hub", 9)
	GenerateStarmap(gs, 4)
	var hub *System
	for _, s := range gs.Systems {
		if s.Hub {
			hub = s
			break
		}
	}
	if hub == nil {
		t.Fatal("no hub system generated")
	}
	if len(hub.Lanes) != 6 {
		t.Fatalf("hub lane count: got %d, want 6", len(hub.Lanes))
	}
	for _, l := range hub.Lanes {
		if l.Class != LaneMajor {
			t.Fatalf("hub lane to %d is %v, want major", l.To, l.Class)
		}
	}
}

func TestHomeworldMajorQuota(t *testing.T) {
	gs := NewGameState("homes", 13)
	homes := GenerateStarmap(gs, 6)
	if len(homes) != 6 {
		t.Fatalf("homeworld count: got %d, want 6", len(homes))
	}
	for _, id := range homes {
		sys := gs.Systems[id]
		major := 0
		for _, l := range sys.Lanes {
			if l.Class == LaneMajor {
				major++
			}
		}
		if major != minInt(3, len(sys.Lanes)) {
			t.Fatalf("homeworld %d has %d major lanes of %d, want %d",
				id, major, len(sys.Lanes), minInt(3, len(sys.Lanes)))
		}
		if sys.Planet != PlanetBenign || sys.Resources != ResourceAbundant {
			t.Fatalf("homeworld %d not normalized to benign/abundant", id)
		}
	}
}

func TestLanesSymmetric(t *testing.T) {
	gs := NewGameState("sym", 21)
	GenerateStarmap(gs, 8)
	for _, id := range gs.SortedSystems() {
		for _, l := range gs.Systems[id].Lanes {
			back, ok := LaneBetween(gs, l.To, id)
			if !ok {
				t.Fatalf("lane %d->%d has no mirror", id, l.To)
			}
			if back.Class != l.Class {
				t.Fatalf("lane %d<->%d class mismatch", id, l.To)
			}
		}
	}
}

func TestHexDistance(t *testing.T) {
	if d := hexDistance(0, 0, 0, 0); d != 0 {
		t.Fatalf("self distance: %d", d)
	}
	if d := hexDistance(0, 0, 3, -3); d != 3 {
		t.Fatalf("ring distance: got %d, want 3", d)
	}
	if d := hexDistance(-2, 1, 2, -1); d != 4 {
		t.Fatalf("got %d, want 4", d)
	}
}
