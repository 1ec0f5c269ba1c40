// clearance/clearance.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package clearance implements the per-aircraft clearance lifecycle:
// a clearance is requested, granted (or rejected), becomes active when the
// aircraft begins executing it, and ends completed or aborted. Every
// transition must match an enumerated legal edge; anything else is
// rejected with the state left unchanged.
package clearance

import (
	"errors"
	"time"
)

var ErrTransitionRejected = errors.New("illegal clearance state transition")

type Type int

const (
	Pushback Type = iota
	Taxi
	Takeoff
	Landing
	HoldPosition
)

func (t Type) String() string {
	return [...]string{"pushback", "taxi", "takeoff", "landing", "hold position"}[t]
}

type State int

const (
	Requested State = iota
	Granted
	Active
	Completed
	Rejected
	Aborted
)

func (s State) String() string {
	return [...]string{"requested", "granted", "active", "completed", "rejected", "aborted"}[s]
}

// Terminal reports whether no further transitions are possible from s.
func (s State) Terminal() bool {
	return s == Completed || s == Rejected || s == Aborted
}

// legalTransitions enumerates the allowed state edges; these are common to
// all clearance types. Type-specific conditions are layered on top as
// guards checked against a Context.
var legalTransitions = map[State][]State{
	Requested: {Granted, Rejected},
	Granted:   {Active, Aborted},
	Active:    {Completed, Aborted},
}

func legal(from, to State) bool {
	for _, s := range legalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Context carries the external conditions that transition guards check.
// The caller fills in the fields relevant to the clearance type; zero
// values are the conservative ("not verified") defaults.
type Context struct {
	// RunwayClear is true when the clearance's runway has no current
	// occupant.
	RunwayClear bool
	// RouteEndsAtRunway is true when the aircraft's assigned route
	// terminates at a threshold of the clearance's runway.
	RouteEndsAtRunway bool
}

// Clearance is a single clearance instance. It is owned by a Machine and
// mutated only through it.
type Clearance struct {
	Type        Type
	State       State
	Runway      string // takeoff and landing only
	RequestedAt time.Time
	Emergency   bool
}

// guardOK checks the type-specific conditions for a transition that has
// already passed the legal-edge check.
func (c *Clearance) guardOK(to State, ctx Context) bool {
	if to != Active {
		return true
	}
	switch c.Type {
	case Takeoff:
		// An aircraft may not take the runway while it is occupied or if
		// its taxi route doesn't actually end there.
		return ctx.RunwayClear && ctx.RouteEndsAtRunway
	case Landing:
		return ctx.RunwayClear
	default:
		return true
	}
}
