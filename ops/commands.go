// ops/commands.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ops

import (
	"fmt"
	"strings"

	"groundctl/airport"
	"groundctl/clearance"
	"groundctl/util"
)

type CommandKind int

const (
	CommandHoldPosition CommandKind = iota
	CommandAdjustSpeed
	CommandTaxiRoute
	CommandClearance
)

func (k CommandKind) String() string {
	return [...]string{"hold position", "adjust speed", "taxi route", "clearance"}[k]
}

// Command is one control instruction for the host application to deliver
// to an aircraft. Text carries the equivalent human-readable phrasing.
type Command struct {
	Kind     CommandKind
	Callsign string

	Speed     float32          // CommandAdjustSpeed: target, m/s
	Route     []airport.NodeID // CommandTaxiRoute
	Clearance clearance.Type   // CommandClearance
	State     clearance.State  // CommandClearance
	Runway    string

	Text string
}

// commandText renders the human-readable instruction for a command.
func commandText(ap *airport.Airport, c Command) string {
	switch c.Kind {
	case CommandHoldPosition:
		return fmt.Sprintf("%s, hold position", c.Callsign)

	case CommandAdjustSpeed:
		if c.Speed == 0 {
			return fmt.Sprintf("%s, hold position", c.Callsign)
		}
		return fmt.Sprintf("%s, taxi at %d meters per second or less", c.Callsign, int(c.Speed))

	case CommandTaxiRoute:
		return fmt.Sprintf("%s, taxi via %s", c.Callsign, routeNames(ap, c.Route))

	case CommandClearance:
		return clearanceText(ap, c)
	}
	return ""
}

func clearanceText(ap *airport.Airport, c Command) string {
	switch c.State {
	case clearance.Granted:
		switch c.Clearance {
		case clearance.Pushback:
			return fmt.Sprintf("%s, pushback approved", c.Callsign)
		case clearance.Taxi:
			return fmt.Sprintf("%s, taxi via %s", c.Callsign, routeNames(ap, c.Route))
		case clearance.Takeoff:
			return fmt.Sprintf("%s, runway %s, cleared for takeoff", c.Callsign, c.Runway)
		case clearance.Landing:
			return fmt.Sprintf("%s, runway %s, cleared to land", c.Callsign, c.Runway)
		case clearance.HoldPosition:
			return fmt.Sprintf("%s, hold position", c.Callsign)
		}
	case clearance.Rejected:
		return fmt.Sprintf("%s, unable %s, standby", c.Callsign, c.Clearance)
	case clearance.Aborted:
		switch c.Clearance {
		case clearance.Takeoff:
			return fmt.Sprintf("%s, cancel takeoff clearance", c.Callsign)
		case clearance.Landing:
			return fmt.Sprintf("%s, go around", c.Callsign)
		default:
			return fmt.Sprintf("%s, hold position, %s clearance canceled", c.Callsign, c.Clearance)
		}
	}
	return fmt.Sprintf("%s, %s %s", c.Callsign, c.Clearance, c.State)
}

// routeNames renders a route as the named waypoints along it; unnamed
// junctions are skipped.
func routeNames(ap *airport.Airport, nodes []airport.NodeID) string {
	named := util.FilterSlice(nodes, func(nid airport.NodeID) bool {
		n, ok := ap.Node(nid)
		return ok && n.Name != ""
	})
	names := util.MapSlice(named, func(nid airport.NodeID) string { return ap.Nodes[nid].Name })
	return util.Select(len(names) == 0, "present position", strings.Join(names, " "))
}
