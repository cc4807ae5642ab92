package ec4x

import (
	"fmt"
	"math"
	"sort"
)

// taxGrowthMult maps the current tax rate to a population growth multiplier
// and the per-colony prestige award for low taxation.
func taxGrowthMult(rate int) (float64, bool) {
	switch {
	case rate <= 20:
		return 1.5, true
	case rate <= 40:
		return 1.25, true
	case rate <= 60:
		return 1.0, false
	case rate <= 80:
		return 0.75, false
	default:
		return 0.5, false
	}
}

// operationalStarbases counts undamaged starbases at a colony.
func operationalStarbases(gs *GameState, c *Colony) int {
	n := 0
	for _, fid := range c.Facilities {
		if f, ok := gs.Facilities[fid]; ok && f.Kind == FacilityKindStarbase && f.Hull == HullUndamaged {
			n++
		}
	}
	return n
}

// starbaseBonus is min(3, operational starbases) x 5%.
func starbaseBonus(gs *GameState, c *Colony) float64 {
	n := operationalStarbases(gs, c)
	if n > 3 {
		n = 3
	}
	return float64(n) * 0.05
}

// ColonyGCO computes a colony's gross output for the turn.
// Blockaded colonies produce 40% of normal.
func ColonyGCO(gs *GameState, rules *Rules, c *Colony, h *House) float64 {
	sys := gs.Systems[c.System]
	raw := float64(c.PU) * RawIndex(sys.Planet, sys.Resources)

	rate := c.TaxRate(h.TaxRate)
	prodGrowth := 0.0
	if rate <= 40 {
		prodGrowth = 0.1
	}
	industrial := float64(c.IU) * ELMod(h.Tech.Tier(TechEL)) * CSTMod(h.Tech.Tier(TechCST)) *
		(1 + prodGrowth + starbaseBonus(gs, c))

	gco := raw + industrial
	gco *= 1 - c.InfraDamage
	if c.Blockaded {
		gco *= 0.4
	}
	return gco
}

// runIncomeEconomy collects NCV into treasuries and applies the tax
// prestige penalty/bonus. Runs during the Income Phase, after conflict.
func runIncomeEconomy(gs *GameState, rules *Rules, log *EventLog) {
	for _, hid := range gs.SortedHouses() {
		h := gs.Houses[hid]
		if h.Eliminated {
			continue
		}
		if h.DefensiveCollapse {
			// collapse suspends income but the books still roll forward
			h.TaxHistory = append(h.TaxHistory, h.TaxRate)
			trimTaxHistory(h)
			continue
		}

		gain := 0.0
		lowTaxColonies := 0
		for _, cid := range gs.ColoniesByOwner(hid) {
			c := gs.Colonies[cid]
			rate := c.TaxRate(h.TaxRate)
			gco := ColonyGCO(gs, rules, c, h)
			gain += gco * float64(rate) / 100.0
			if _, low := taxGrowthMult(rate); low {
				lowTaxColonies++
			}
		}
		h.Treasury += int(math.Floor(gain))

		h.TaxHistory = append(h.TaxHistory, h.TaxRate)
		trimTaxHistory(h)

		if avg := h.AvgTax(6); avg > 50 {
			step := (avg - 50 - 1) / 5
			if step >= len(rules.Prestige.TaxPenalty) {
				step = len(rules.Prestige.TaxPenalty) - 1
			}
			log.Award(hid, rules.Prestige.TaxPenalty[step], ReasonHighTax, 0)
		}
		if lowTaxColonies > 0 {
			log.Award(hid, lowTaxColonies*rules.Prestige.LowTaxPerColony, ReasonLowTax, 0)
		}
	}
}

func trimTaxHistory(h *House) {
	if len(h.TaxHistory) > 12 {
		h.TaxHistory = h.TaxHistory[len(h.TaxHistory)-12:]
	}
}

// runGrowth applies passive IU and PU growth during the Production Phase.
func runGrowth(gs *GameState, rules *Rules) {
	for _, hid := range gs.SortedHouses() {
		h := gs.Houses[hid]
		if h.Eliminated {
			continue
		}
		for _, cid := range gs.ColoniesByOwner(hid) {
			c := gs.Colonies[cid]
			rate := c.TaxRate(h.TaxRate)
			sb := starbaseBonus(gs, c)

			iuGain := float64(maxInt(1, c.PU/200)) * (1 - float64(rate)/100.0) * (1 + sb)
			c.IU += int(math.Floor(iuGain))

			mult, _ := taxGrowthMult(rate)
			puGain := maxInt(1, int(math.Floor(float64(c.PU)*0.02*mult*(1+sb))))
			c.PU += puGain
			c.Souls = c.PU * 1_000_000
		}
	}
}

// shipUpkeep prices one hull's turn maintenance; crippled hulls pay half.
func shipUpkeep(rules *Rules, s *Ship) int {
	cls := rules.ShipClasses[s.Class]
	up := int(math.Ceil(cls.MC * float64(cls.PC)))
	if s.Hull == HullCrippled {
		up = (up + 1) / 2
	}
	return up
}

// runMaintenance debits fleet upkeep during the Production Phase. A house
// that cannot pay takes an escalating prestige penalty and the Space Guild
// claims excess hulls, crippled first then lowest attack strength, each
// claim refunding half the hull's production cost.
func runMaintenance(gs *GameState, rules *Rules, log *EventLog) {
	for _, hid := range gs.SortedHouses() {
		h := gs.Houses[hid]
		if h.Eliminated {
			continue
		}

		var ships []*Ship
		for _, fid := range gs.FleetsByOwner(hid) {
			ships = append(ships, gs.ShipsInFleet(fid)...)
		}
		due := 0
		for _, s := range ships {
			due += shipUpkeep(rules, s)
		}

		if due <= h.Treasury {
			h.Treasury -= due
			h.ShortfallTurns = 0
			continue
		}

		h.ShortfallTurns++
		penalty := rules.Prestige.MaintShortfall + rules.Prestige.MaintEscalation*(h.ShortfallTurns-1)
		log.Award(hid, penalty, ReasonShortfall, 0)
		log.Add(gs.Turn, Event{Kind: EventMaintShortfall, House: hid,
			Detail: fmt.Sprintf("owed %d PP, treasury %d", due, h.Treasury)})

		// Guild claim order: crippled first, then ascending AS, id as tiebreak.
		sort.Slice(ships, func(i, j int) bool {
			a, b := ships[i], ships[j]
			ac, bc := a.Hull == HullCrippled, b.Hull == HullCrippled
			if ac != bc {
				return ac
			}
			aAS, bAS := rules.ShipClasses[a.Class].AS, rules.ShipClasses[b.Class].AS
			if aAS != bAS {
				return aAS < bAS
			}
			return a.ID < b.ID
		})
		for _, s := range ships {
			if due <= h.Treasury {
				break
			}
			due -= shipUpkeep(rules, s)
			h.Treasury += rules.ShipClasses[s.Class].PC / 2
			log.Add(gs.Turn, Event{Kind: EventGuildClaim, House: hid,
				Detail: fmt.Sprintf("guild claimed %s", rules.ShipClasses[s.Class].Name)})
			gs.DestroyShip(s.ID, rules)
		}
		if due > h.Treasury {
			due = h.Treasury // nothing left to claim
		}
		h.Treasury -= due
		sweepEmptyFleets(gs, hid)
	}
}

// sweepEmptyFleets removes fleets whose every squadron is gone.
func sweepEmptyFleets(gs *GameState, h HouseID) {
	for _, fid := range gs.FleetsByOwner(h) {
		f := gs.Fleets[fid]
		live := f.Squadrons[:0]
		for _, sqID := range f.Squadrons {
			if _, ok := gs.Squadrons[sqID]; ok {
				live = append(live, sqID)
			}
		}
		f.Squadrons = live
		if len(f.Squadrons) == 0 {
			gs.DestroyFleet(fid)
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
