package ec4x

import "fmt"

// ValidatePacket checks a command packet against the current state.
// Returns nil when acceptable. Validation is intentionally shallow about
// future state: orders that become impossible during resolution degrade
// into in-game events instead of rejections.
func ValidatePacket(gs *GameState, rules *Rules, pkt *CommandPacket) error {
	house, ok := gs.Houses[pkt.House]
	if !ok {
		return &ValidationError{Code: ErrNotFound, Message: fmt.Sprintf("house %d not found", pkt.House), Refs: []uint32{uint32(pkt.House)}}
	}
	if house.Eliminated {
		return &ValidationError{Code: ErrBadCommand, Message: "house is eliminated"}
	}
	if pkt.Turn != gs.Turn {
		return &ValidationError{Code: ErrAfterDeadline, Message: fmt.Sprintf("packet for turn %d, current turn is %d", pkt.Turn, gs.Turn)}
	}
	if pkt.TaxRate != nil && (*pkt.TaxRate < 0 || *pkt.TaxRate > 100) {
		return &ValidationError{Code: ErrBadCommand, Message: "tax rate must be 0..100"}
	}
	if pkt.Research.ERP < 0 || pkt.Research.SRP < 0 || pkt.Research.TRP < 0 {
		return &ValidationError{Code: ErrBadCommand, Message: "negative research allocation"}
	}
	if pkt.EBPInvest < 0 || pkt.CIPInvest < 0 {
		return &ValidationError{Code: ErrBadCommand, Message: "negative espionage investment"}
	}

	spend := pkt.Research.ERP + pkt.Research.SRP + pkt.Research.TRP + pkt.EBPInvest + pkt.CIPInvest
	for _, b := range pkt.Builds {
		cost, err := buildCost(gs, rules, pkt.House, &b)
		if err != nil {
			return err
		}
		spend += cost
	}
	for _, r := range pkt.Repairs {
		cost, err := repairCost(gs, rules, pkt.House, &r)
		if err != nil {
			return err
		}
		spend += cost
	}
	if spend > house.Treasury {
		return &ValidationError{Code: ErrInsufficientFunds,
			Message: fmt.Sprintf("packet spends %d PP, treasury holds %d", spend, house.Treasury)}
	}

	if house.DefensiveCollapse {
		for _, fc := range pkt.FleetOrders {
			if fc.Type.Provocative() || fc.Type == CmdMove || fc.Type == CmdPatrol {
				return &ValidationError{Code: ErrBadCommand, Message: "house in defensive collapse may not issue offensive orders"}
			}
		}
	}

	for _, fc := range pkt.FleetOrders {
		if err := validateFleetCommand(gs, rules, pkt.House, &fc); err != nil {
			return err
		}
	}
	for _, c := range pkt.Cancels {
		p, ok := gs.Projects[c.Project]
		if !ok {
			return &ValidationError{Code: ErrNotFound, Message: fmt.Sprintf("project %d not found", c.Project), Refs: []uint32{uint32(c.Project)}}
		}
		if p.Owner != pkt.House {
			return &ValidationError{Code: ErrNotOwner, Message: fmt.Sprintf("project %d not owned", c.Project), Refs: []uint32{uint32(c.Project)}}
		}
	}
	if pkt.Espionage != nil {
		if _, ok := gs.Houses[pkt.Espionage.Target]; !ok {
			return &ValidationError{Code: ErrNotFound, Message: "espionage target house not found"}
		}
		if pkt.Espionage.Target == pkt.House {
			return &ValidationError{Code: ErrBadCommand, Message: "cannot target own house"}
		}
		if cost := EspionageCost(pkt.Espionage.Kind); cost > house.EBP+pkt.EBPInvest {
			return &ValidationError{Code: ErrInsufficientFunds,
				Message: fmt.Sprintf("%s costs %d EBP", pkt.Espionage.Kind, cost)}
		}
	}
	return nil
}

func validateFleetCommand(gs *GameState, rules *Rules, h HouseID, fc *FleetCommand) error {
	fleet, ok := gs.Fleets[fc.Fleet]
	if !ok {
		return &ValidationError{Code: ErrNotFound, Message: fmt.Sprintf("fleet %d not found", fc.Fleet), Refs: []uint32{uint32(fc.Fleet)}}
	}
	if fleet.Owner != h {
		return &ValidationError{Code: ErrNotOwner, Message: fmt.Sprintf("fleet %d not owned", fc.Fleet), Refs: []uint32{uint32(fc.Fleet)}}
	}
	if fc.ROE != nil && (*fc.ROE < 0 || *fc.ROE > 10) {
		return &ValidationError{Code: ErrInvalidROE, Message: "roe must be 0..10"}
	}

	switch fc.Type {
	case CmdMove, CmdPatrol, CmdColonize, CmdBombard, CmdInvade, CmdBlitz,
		CmdSpyColony, CmdSpySystem, CmdHackStarbase, CmdBlockade, CmdRendezvous:
		if _, ok := gs.Systems[fc.TargetSystem]; !ok {
			return &ValidationError{Code: ErrNotFound, Message: fmt.Sprintf("target system %d not found", fc.TargetSystem)}
		}
		profile := ProfileFleet(gs, rules, fc.Fleet)
		if fleet.System != fc.TargetSystem && FindPath(gs, profile, fleet.System, fc.TargetSystem) == nil {
			return &ValidationError{Code: ErrNoPath,
				Message: fmt.Sprintf("no traversable path from system %d to %d", fleet.System, fc.TargetSystem)}
		}
	case CmdJoinFleet:
		tgt, ok := gs.Fleets[fc.TargetFleet]
		if !ok {
			return &ValidationError{Code: ErrNotFound, Message: fmt.Sprintf("target fleet %d not found", fc.TargetFleet)}
		}
		if tgt.Owner != h {
			return &ValidationError{Code: ErrNotOwner, Message: "cannot join a foreign fleet"}
		}
	case CmdSplitFleet:
		if len(fc.Squadrons) == 0 {
			return &ValidationError{Code: ErrBadCommand, Message: "split names no squadrons", Refs: []uint32{uint32(fc.Fleet)}}
		}
		member := make(map[SquadronID]bool, len(fleet.Squadrons))
		for _, sqID := range fleet.Squadrons {
			member[sqID] = true
		}
		for _, sqID := range fc.Squadrons {
			if !member[sqID] {
				return &ValidationError{Code: ErrNotFound,
					Message: fmt.Sprintf("squadron %d not in fleet %d", sqID, fc.Fleet), Refs: []uint32{uint32(sqID)}}
			}
		}
		if len(fc.Squadrons) >= len(fleet.Squadrons) {
			return &ValidationError{Code: ErrBadCommand, Message: "split must leave the fleet at least one squadron"}
		}
	}

	switch fc.Type {
	case CmdSpyColony, CmdSpySystem, CmdHackStarbase:
		if !isSingleScout(gs, rules, fc.Fleet) {
			return &ValidationError{Code: ErrWrongShipKind, Message: "espionage missions require a single-scout fleet", Refs: []uint32{uint32(fc.Fleet)}}
		}
	case CmdColonize:
		if !hasLoadedETAC(gs, rules, fc.Fleet) {
			return &ValidationError{Code: ErrWrongShipKind, Message: "colonization requires a loaded ETAC", Refs: []uint32{uint32(fc.Fleet)}}
		}
	case CmdInvade, CmdBlitz:
		if !hasLoadedMarines(gs, rules, fc.Fleet) {
			return &ValidationError{Code: ErrWrongShipKind, Message: "invasion requires loaded marines", Refs: []uint32{uint32(fc.Fleet)}}
		}
	}
	return nil
}

// isSingleScout reports whether a fleet is exactly one scout hull.
func isSingleScout(gs *GameState, rules *Rules, id FleetID) bool {
	ships := gs.ShipsInFleet(id)
	return len(ships) == 1 && rules.ShipClasses[ships[0].Class].Scout
}

func hasLoadedETAC(gs *GameState, rules *Rules, id FleetID) bool {
	for _, s := range gs.ShipsInFleet(id) {
		if rules.ShipClasses[s.Class].ETAC && s.Cargo.Type == CargoColonists && s.Cargo.Quantity > 0 {
			return true
		}
	}
	return false
}

func hasLoadedMarines(gs *GameState, rules *Rules, id FleetID) bool {
	for _, s := range gs.ShipsInFleet(id) {
		if rules.ShipClasses[s.Class].Transport && s.Cargo.Type == CargoMarines && s.Cargo.Quantity > 0 {
			return true
		}
	}
	return false
}

// buildCost prices a build order, checking ownership and class existence.
func buildCost(gs *GameState, rules *Rules, h HouseID, b *BuildOrder) (int, error) {
	colony, ok := gs.Colonies[b.Colony]
	if !ok {
		return 0, &ValidationError{Code: ErrNotFound, Message: fmt.Sprintf("colony %d not found", b.Colony), Refs: []uint32{uint32(b.Colony)}}
	}
	if colony.Owner != h {
		return 0, &ValidationError{Code: ErrNotOwner, Message: fmt.Sprintf("colony %d not owned", b.Colony), Refs: []uint32{uint32(b.Colony)}}
	}
	switch b.Subject {
	case SubjectShip:
		cls, ok := rules.ShipClasses[b.Class]
		if !ok {
			return 0, &ValidationError{Code: ErrBadCommand, Message: "unknown ship class " + b.Class}
		}
		host, ok := gs.Facilities[b.Host]
		if !ok || host.Colony != b.Colony {
			return 0, &ValidationError{Code: ErrNotFound, Message: "ship construction requires a host facility at the colony"}
		}
		switch host.Kind {
		case FacilityKindSpaceport:
			if cls.Yard {
				return 0, &ValidationError{Code: ErrBadCommand, Message: b.Class + " is too large for spaceport construction"}
			}
			return 2 * cls.PC, nil // planet-side premium
		case FacilityKindShipyard:
			return cls.PC, nil
		default:
			return 0, &ValidationError{Code: ErrBadCommand, Message: "ships build at spaceports or shipyards"}
		}
	case SubjectFacility:
		def, ok := rules.Facilities[b.Class]
		if !ok {
			return 0, &ValidationError{Code: ErrBadCommand, Message: "unknown facility class " + b.Class}
		}
		return def.PC, nil
	case SubjectGround:
		def, ok := rules.GroundClasses[b.Class]
		if !ok {
			return 0, &ValidationError{Code: ErrBadCommand, Message: "unknown ground class " + b.Class}
		}
		return def.PC, nil
	case SubjectIU:
		if b.Amount <= 0 {
			return 0, &ValidationError{Code: ErrBadCommand, Message: "IU investment must be positive"}
		}
		return b.Amount, nil // 1 PP per IU
	default:
		return 0, &ValidationError{Code: ErrBadCommand, Message: "unknown build subject"}
	}
}

// repairCost prices a repair order: 25% of production cost.
func repairCost(gs *GameState, rules *Rules, h HouseID, r *RepairOrder) (int, error) {
	colony, ok := gs.Colonies[r.Colony]
	if !ok {
		return 0, &ValidationError{Code: ErrNotFound, Message: fmt.Sprintf("colony %d not found", r.Colony)}
	}
	if colony.Owner != h {
		return 0, &ValidationError{Code: ErrNotOwner, Message: fmt.Sprintf("colony %d not owned", r.Colony)}
	}
	if r.Ship != 0 {
		ship, ok := gs.Ships[r.Ship]
		if !ok {
			return 0, &ValidationError{Code: ErrNotFound, Message: fmt.Sprintf("ship %d not found", r.Ship)}
		}
		if ship.Owner != h {
			return 0, &ValidationError{Code: ErrNotOwner, Message: fmt.Sprintf("ship %d not owned", r.Ship)}
		}
		if ship.Hull != HullCrippled {
			return 0, &ValidationError{Code: ErrBadCommand, Message: "only crippled ships can be repaired"}
		}
		if !colonyHasFacility(gs, colony, FacilityKindDrydock) {
			return 0, &ValidationError{Code: ErrBadCommand, Message: "ship repair requires a drydock"}
		}
		return rules.ShipClasses[ship.Class].PC / 4, nil
	}
	if r.Facility != 0 {
		fac, ok := gs.Facilities[r.Facility]
		if !ok || fac.Colony != r.Colony {
			return 0, &ValidationError{Code: ErrNotFound, Message: fmt.Sprintf("facility %d not found at colony", r.Facility)}
		}
		if fac.Hull != HullCrippled {
			return 0, &ValidationError{Code: ErrBadCommand, Message: "only crippled facilities can be repaired"}
		}
		if fac.Kind == FacilityKindStarbase && !colonyHasFacility(gs, colony, FacilityKindSpaceport) {
			return 0, &ValidationError{Code: ErrBadCommand, Message: "starbase repair requires a spaceport"}
		}
		return rules.Facilities[fac.Class].PC / 4, nil
	}
	return 0, &ValidationError{Code: ErrBadCommand, Message: "repair order names no subject"}
}

func colonyHasFacility(gs *GameState, c *Colony, kind FacilityKind) bool {
	for _, fid := range c.Facilities {
		if f, ok := gs.Facilities[fid]; ok && f.Kind == kind && f.Hull == HullUndamaged {
			return true
		}
	}
	return false
}
