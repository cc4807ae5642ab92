package ec4x

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Doctrine is a compiled autopilot rulebook. Rules are evaluated in order
// against each fleet's environment; the first match wins.
type Doctrine struct {
	rules []compiledRule
}

type compiledRule struct {
	name    string
	when    *vm.Program
	command FleetCommandType
}

// fleetEnv is the variable set doctrine conditions may reference.
type fleetEnv struct {
	Crippled        bool `expr:"Crippled"`
	AtHome          bool `expr:"AtHome"`
	AtColony        bool `expr:"AtColony"`
	HostilesPresent bool `expr:"HostilesPresent"`
	OwnAS           int  `expr:"OwnAS"`
	HostileAS       int  `expr:"HostileAS"`
}

// CompileDoctrine builds a Doctrine from rule definitions.
func CompileDoctrine(defs []DoctrineRule) (*Doctrine, error) {
	d := &Doctrine{}
	for _, def := range defs {
		prog, err := expr.Compile(def.When, expr.Env(fleetEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile doctrine rule %q: %w", def.Name, err)
		}
		cmd, ok := commandFromName(def.Command)
		if !ok {
			return nil, fmt.Errorf("doctrine rule %q names unknown command %q", def.Name, def.Command)
		}
		d.rules = append(d.rules, compiledRule{name: def.Name, when: prog, command: cmd})
	}
	return d, nil
}

func commandFromName(name string) (FleetCommandType, bool) {
	for c := CmdHold; c <= CmdView; c++ {
		if c.String() == name {
			return c, true
		}
	}
	return CmdHold, false
}

// Decide returns the first matching rule's command for a fleet environment.
func (d *Doctrine) Decide(env fleetEnv) (FleetCommandType, string, bool) {
	for _, r := range d.rules {
		out, err := expr.Run(r.when, env)
		if err != nil {
			continue
		}
		if match, ok := out.(bool); ok && match {
			return r.command, r.name, true
		}
	}
	return CmdHold, "", false
}

// buildFleetEnv inspects one fleet for doctrine evaluation.
func buildFleetEnv(gs *GameState, rules *Rules, fid FleetID) fleetEnv {
	f := gs.Fleets[fid]
	h := gs.Houses[f.Owner]
	env := fleetEnv{
		AtHome:   f.System == h.Homeworld,
		AtColony: gs.SystemControlledBy(f.System, f.Owner),
	}
	for _, s := range gs.ShipsInFleet(fid) {
		if s.Hull == HullCrippled {
			env.Crippled = true
		}
		env.OwnAS += shipAS(rules, h, s)
	}
	for _, ofid := range gs.FleetsInSystem(f.System) {
		of := gs.Fleets[ofid]
		if of.Owner == f.Owner {
			continue
		}
		if h.RelationTo(of.Owner) == RelationNeutral && gs.Houses[of.Owner].RelationTo(f.Owner) == RelationNeutral {
			continue
		}
		env.HostilesPresent = true
		oh := gs.Houses[of.Owner]
		for _, s := range gs.ShipsInFleet(ofid) {
			env.HostileAS += shipAS(rules, oh, s)
		}
	}
	return env
}

// AutopilotPacket synthesizes a command packet for a silent house: doctrine
// standing orders for every fleet, no spending, current tax held.
func AutopilotPacket(gs *GameState, rules *Rules, d *Doctrine, hid HouseID) *CommandPacket {
	pkt := &CommandPacket{House: hid, Turn: gs.Turn}
	for _, fid := range gs.FleetsByOwner(hid) {
		env := buildFleetEnv(gs, rules, fid)
		cmd, _, ok := d.Decide(env)
		if !ok {
			cmd = CmdHold
		}
		fc := FleetCommand{Fleet: fid, Type: cmd}
		if cmd == CmdSeekHome || cmd == CmdGuardColony || cmd == CmdHold {
			pkt.FleetOrders = append(pkt.FleetOrders, fc)
		} else {
			pkt.FleetOrders = append(pkt.FleetOrders, FleetCommand{Fleet: fid, Type: CmdHold})
		}
	}
	return pkt
}
