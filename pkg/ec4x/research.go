package ec4x

import "fmt"

// applyResearchAllocation debits the treasury and credits the three pools.
// Allocations exceeding the remaining treasury are clamped in pool order
// ERP, SRP, TRP rather than rejected; validation normally prevents that.
func applyResearchAllocation(gs *GameState, h *House, alloc ResearchAllocation, log *EventLog) {
	spend := func(n int) int {
		if n < 0 {
			n = 0
		}
		if n > h.Treasury {
			n = h.Treasury
		}
		h.Treasury -= n
		return n
	}
	erp := spend(alloc.ERP)
	srp := spend(alloc.SRP)
	trp := spend(alloc.TRP)

	h.Tech.LifetimeERP += erp
	h.Tech.LifetimeSRP += srp
	h.Tech.LifetimeTRP += trp
	h.Tech.AvailableERP += erp
	h.Tech.AvailableSRP += srp
	h.Tech.AvailableTRP += trp
}

// advanceSL recomputes a house's service level from lifetime pool totals.
// SL never regresses. Each threshold row gates one tier and requires both
// the ERP and SRP lifetime totals.
func advanceSL(gs *GameState, rules *Rules, h *House, log *EventLog) {
	sl := 0
	for _, th := range rules.SLThresholds {
		if h.Tech.LifetimeERP >= th.ERP && h.Tech.LifetimeSRP >= th.SRP {
			sl++
		} else {
			break
		}
	}
	if sl > h.Tech.SL {
		h.Tech.SL = sl
		log.Add(gs.Turn, Event{Kind: EventSLAdvanced, House: h.ID,
			Detail: fmt.Sprintf("service level %d", sl), Amount: sl,
			VisibleTo: []HouseID{h.ID}})
	}
}

// buyTech purchases the next tier of a tech line from its funding pool.
func buyTech(gs *GameState, rules *Rules, h *House, f TechField, log *EventLog) error {
	def, ok := rules.Techs[f]
	if !ok {
		return &ValidationError{Code: ErrBadCommand, Message: fmt.Sprintf("unknown tech line %s", f)}
	}
	next := h.Tech.Tier(f) + 1
	if next > def.MaxTier {
		return &ValidationError{Code: ErrBadCommand, Message: fmt.Sprintf("%s already at max tier", f)}
	}
	if next <= len(def.SLGate) && h.Tech.SL < def.SLGate[next-1] {
		return &ValidationError{Code: ErrSLGated,
			Message: fmt.Sprintf("%s tier %d requires SL %d", f, next, def.SLGate[next-1])}
	}
	cost := rules.TechCost(f, next)

	var avail *int
	switch def.Pool {
	case PoolERP:
		avail = &h.Tech.AvailableERP
	case PoolSRP:
		avail = &h.Tech.AvailableSRP
	default:
		avail = &h.Tech.AvailableTRP
	}
	if *avail < cost {
		return &ValidationError{Code: ErrInsufficientPool,
			Message: fmt.Sprintf("%s tier %d costs %d %s", f, next, cost, def.Pool)}
	}
	*avail -= cost

	if h.Tech.Tiers == nil {
		h.Tech.Tiers = make(map[TechField]int)
	}
	h.Tech.Tiers[f] = next
	log.Add(gs.Turn, Event{Kind: EventTechUnlocked, House: h.ID,
		Detail: fmt.Sprintf("%s tier %d", f, next), Amount: next,
		VisibleTo: []HouseID{h.ID}})
	return nil
}

// grantTechTier raises a tech line without charging a pool. Used by tech
// theft; clamps at max tier.
func grantTechTier(rules *Rules, h *House, f TechField) bool {
	def, ok := rules.Techs[f]
	if !ok {
		return false
	}
	cur := h.Tech.Tier(f)
	if cur >= def.MaxTier {
		return false
	}
	if h.Tech.Tiers == nil {
		h.Tech.Tiers = make(map[TechField]int)
	}
	h.Tech.Tiers[f] = cur + 1
	return true
}
