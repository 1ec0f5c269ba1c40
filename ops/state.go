// ops/state.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ops

import (
	"time"

	"groundctl/airport"
	"groundctl/clearance"
	"groundctl/conflict"
	"groundctl/math"
	"groundctl/route"
)

// Telemetry is one position report from the surveillance feed.
type Telemetry struct {
	Callsign string
	Class    airport.SizeClass
	P        [2]float32
	Heading  float32 // degrees
	Speed    float32 // m/s
	Time     time.Time
}

// Aircraft is the coordinator's mutable per-aircraft record. It is owned
// exclusively by the coordinator; everything else sees read-only snapshots.
type Aircraft struct {
	Callsign string
	Class    airport.SizeClass

	P       [2]float32
	Heading float32
	Speed   float32

	// TargetSpeed is the most recently commanded speed; zero while held.
	// It is nil when no speed instruction is outstanding.
	TargetSpeed *float32

	Route     *route.Route
	Goal      airport.NodeID
	Runway    string
	Clearance clearance.Machine
	Emergency bool

	LastUpdate time.Time
}

// Track returns the aircraft's conflict-prediction snapshot.
func (ac *Aircraft) Track() conflict.Track {
	return conflict.Track{
		ID:        ac.Callsign,
		P:         ac.P,
		Heading:   ac.Heading,
		Speed:     ac.Speed,
		Footprint: FootprintForClass(ac.Class),
	}
}

// Rank orders aircraft by progress toward a terminal clearance state; the
// conflict resolver maneuvers the lower-ranked aircraft of a pair.
func (ac *Aircraft) Rank() int {
	s, ok := ac.Clearance.State()
	if !ok {
		return 0
	}
	switch s {
	case clearance.Requested:
		return 1
	case clearance.Granted:
		return 2
	case clearance.Active:
		return 3
	default: // terminal
		return 4
	}
}

// AtNode returns the graph node the aircraft is on top of, if any; the
// tolerance is generous enough to absorb surveillance jitter.
func (ac *Aircraft) AtNode(ap *airport.Airport) (airport.NodeID, bool) {
	const tol = 15 // meters
	for _, n := range ap.Nodes {
		if math.Distance2f(ac.P, n.P.P) < tol {
			return n.ID, true
		}
	}
	return airport.NoNode, false
}

// NearestNode returns the graph node closest to the aircraft.
func (ac *Aircraft) NearestNode(ap *airport.Airport) airport.NodeID {
	best, bestDist := airport.NoNode, float32(1e30)
	for _, n := range ap.Nodes {
		if d := math.Distance2f(ac.P, n.P.P); d < bestDist {
			best, bestDist = n.ID, d
		}
	}
	return best
}

// Canonical footprint half-extents (wing, nose) in meters, indexed by size
// class; roughly wingspan/length of representative types per design group.
var classHalfExtents = [...][2]float32{
	airport.ClassSmall:  {6, 5},
	airport.ClassMedium: {14, 10},
	airport.ClassLarge:  {18, 14},
	airport.ClassHeavy:  {33, 28},
}

var classFootprints [len(classHalfExtents)]math.Polygon

func init() {
	for i, he := range classHalfExtents {
		p, err := math.MakePolygon([][2]float32{
			{-he[0], -he[1]}, {he[0], -he[1]}, {he[0], he[1]}, {-he[0], he[1]}})
		if err != nil {
			panic(err)
		}
		classFootprints[i] = p
	}
}

// FootprintForClass returns the canonical convex footprint for a size
// class: origin-centered, nose along +y.
func FootprintForClass(c airport.SizeClass) math.Polygon {
	return classFootprints[c]
}
