package ec4x

import (
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

// Roller produces reproducible randomness for one rolling context.
// Every randomized decision in the engine derives its own Roller from
// (gameSeed, turnNumber, eventTag), so resolution order and parallel
// execution cannot change outcomes.
type Roller struct {
	rng *rand.Rand
	tag string
}

// SubSeed derives the deterministic sub-seed for a rolling context.
func SubSeed(gameSeed uint64, turn int, eventTag string) uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], gameSeed)
	d.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(turn))
	d.Write(buf[:])
	d.WriteString(eventTag)
	return d.Sum64()
}

// NewRoller creates a Roller for the given context.
func NewRoller(gameSeed uint64, turn int, eventTag string) *Roller {
	seed := SubSeed(gameSeed, turn, eventTag)
	return &Roller{
		rng: rand.New(rand.NewSource(int64(seed))),
		tag: eventTag,
	}
}

// Tag returns the event tag this roller was derived from.
func (r *Roller) Tag() string { return r.tag }

// D10 rolls a ten-sided die numbered 0..9.
func (r *Roller) D10() int { return r.rng.Intn(10) }

// D20 rolls a twenty-sided die numbered 1..20.
func (r *Roller) D20() int { return r.rng.Intn(20) + 1 }

// Intn returns a value in [0, n). Panics if n <= 0.
func (r *Roller) Intn(n int) int { return r.rng.Intn(n) }

// Float64 returns a value in [0.0, 1.0).
func (r *Roller) Float64() float64 { return r.rng.Float64() }

// WeightedPick selects an index from weights proportionally.
// Returns -1 when all weights are zero or the slice is empty.
func (r *Roller) WeightedPick(weights []float64) int {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	roll := r.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		roll -= w
		if roll < 0 {
			return i
		}
	}
	return len(weights) - 1
}

// CombatTag names a per-squadron combat rolling context.
func CombatTag(sys SystemID, round int, sq SquadronID) string {
	return fmt.Sprintf("combat:%d:%d:%d", sys, round, sq)
}

// EspionageTag names an espionage rolling context.
func EspionageTag(spy HouseID, target SystemID) string {
	return fmt.Sprintf("espionage:%d:%d", spy, target)
}
