// conflict/resolve.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package conflict

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"groundctl/airport"
	"groundctl/log"
	"groundctl/math"
	"groundctl/route"
)

type ManeuverKind int

const (
	ManeuverHold ManeuverKind = iota
	ManeuverReroute
	ManeuverSpeed
)

func (k ManeuverKind) String() string {
	return [...]string{"hold", "reroute", "speed"}[k]
}

// Maneuver is an avoidance instruction for one aircraft, produced by
// Resolve and applied by the coordinator, then discarded.
type Maneuver struct {
	Kind          ManeuverKind
	Aircraft      string
	TargetSpeed   float32      // ManeuverSpeed: new speed, m/s
	Route         *route.Route // ManeuverReroute: replacement route
	TargetHeading float32      // ManeuverReroute: heading of the new route's first leg

	// Escalated marks a hold issued because no maneuver restored the
	// separation minima; the conflict persists and needs attention.
	Escalated bool
}

// Plan is what Resolve needs to know about an aircraft's routing in order
// to consider a reroute: where it is going and under which constraints.
type Plan struct {
	Start, Goal airport.NodeID
	Constraints route.Constraints
}

// Environment is the read-only context a resolution pass runs against.
type Environment struct {
	Tracks map[string]Track
	// Rank orders the aircraft by progress toward a terminal clearance
	// state; in a conflicting pair, the lower-ranked aircraft is the one
	// maneuvered. Ties go against the lexicographically larger identity
	// so resolution is deterministic.
	Rank    map[string]int
	Plans   map[string]Plan
	Airport *airport.Airport
	Finder  *route.Finder
}

type Resolver struct {
	predictor *Predictor
	lg        *log.Logger
}

func NewResolver(p *Predictor, lg *log.Logger) *Resolver {
	return &Resolver{predictor: p, lg: lg}
}

// Resolve selects an avoidance maneuver for each predicted conflict,
// trying in order: hold the lower-priority aircraft, reroute it around the
// conflict point, and slow the trailing aircraft. A maneuver is accepted
// only if re-prediction with it applied restores the separation minima.
// If nothing qualifies, the aircraft is held anyway with the maneuver
// marked Escalated and ErrConflictUnresolved is returned alongside the
// maneuvers. Multi-aircraft conflicts are handled pairwise, highest
// severity first, re-predicting each pair against the maneuvers already
// accepted.
func (r *Resolver) Resolve(records []Record, env Environment) ([]Maneuver, error) {
	recs := slices.Clone(records)
	slices.SortFunc(recs, func(a, b Record) int {
		if a.Severity != b.Severity {
			return int(b.Severity - a.Severity)
		}
		if a.TimeToCPA != b.TimeToCPA {
			return int(math.Sign(a.TimeToCPA - b.TimeToCPA))
		}
		if c := strings.Compare(a.A, b.A); c != 0 {
			return c
		}
		return strings.Compare(a.B, b.B)
	})

	// Working copies of the tracks, updated as maneuvers are accepted so
	// that later pairs are resolved against the already-decided actions.
	working := make(map[string]Track, len(env.Tracks))
	for id, t := range env.Tracks {
		working[id] = t
	}

	var maneuvers []Maneuver
	var errs []error
	for _, rec := range recs {
		ta, oka := working[rec.A]
		tb, okb := working[rec.B]
		if !oka || !okb {
			continue
		}

		// Earlier maneuvers may have already cleared this pair.
		if _, still := r.predictor.Predict(ta, tb); !still {
			continue
		}

		low, other := lowerPriority(ta, tb, env.Rank)

		if m, ok := r.tryHold(low, other); ok {
			maneuvers = append(maneuvers, m)
			working[low.ID] = applied(low, m)
			continue
		}
		if m, ok := r.tryReroute(low, other, rec, env); ok {
			maneuvers = append(maneuvers, m)
			working[low.ID] = applied(low, m)
			continue
		}
		if m, ok := r.trySlow(ta, tb, env.Rank); ok {
			maneuvers = append(maneuvers, m)
			working[m.Aircraft] = applied(working[m.Aircraft], m)
			continue
		}

		// Nothing restores separation; hold and escalate.
		r.lg.Warn("escalating unresolved conflict", "a", rec.A, "b", rec.B,
			"severity", rec.Severity.String(), "tcpa", rec.TimeToCPA)
		m := Maneuver{Kind: ManeuverHold, Aircraft: low.ID, Escalated: true}
		maneuvers = append(maneuvers, m)
		working[low.ID] = applied(low, m)
		errs = append(errs, fmt.Errorf("%s/%s: %w", rec.A, rec.B, ErrConflictUnresolved))
	}

	return maneuvers, errors.Join(errs...)
}

// lowerPriority picks the aircraft to maneuver: the one further from a
// terminal clearance state, with identity as the deterministic tie-break.
func lowerPriority(a, b Track, rank map[string]int) (low, other Track) {
	ra, rb := rank[a.ID], rank[b.ID]
	if ra < rb || (ra == rb && a.ID > b.ID) {
		return a, b
	}
	return b, a
}

// applied returns the track as it will move once the maneuver takes
// effect, for re-prediction purposes.
func applied(t Track, m Maneuver) Track {
	switch m.Kind {
	case ManeuverHold:
		t.Speed = 0
	case ManeuverSpeed:
		t.Speed = m.TargetSpeed
	case ManeuverReroute:
		// Approximate the new path by its first leg.
		if m.Route != nil && len(m.Route.Nodes) > 1 {
			t.Heading = m.TargetHeading
		}
	}
	return t
}

func (r *Resolver) tryHold(low, other Track) (Maneuver, bool) {
	m := Maneuver{Kind: ManeuverHold, Aircraft: low.ID}
	if _, conflict := r.predictor.Predict(applied(low, m), other); conflict {
		return Maneuver{}, false
	}
	return m, true
}

func (r *Resolver) tryReroute(low, other Track, rec Record, env Environment) (Maneuver, bool) {
	plan, ok := env.Plans[low.ID]
	if !ok || env.Finder == nil || env.Airport == nil {
		return Maneuver{}, false
	}

	// Block the edge nearest the predicted closest-approach point and ask
	// for a fresh route around it.
	cpa := math.Mid2f(low.PositionAt(rec.TimeToCPA), other.PositionAt(rec.TimeToCPA))
	eid, ok := nearestEdge(env.Airport, cpa)
	if !ok {
		return Maneuver{}, false
	}

	c := plan.Constraints
	blocked := make(map[airport.EdgeID]interface{}, len(c.BlockedEdges)+1)
	for e := range c.BlockedEdges {
		blocked[e] = nil
	}
	blocked[eid] = nil
	c.BlockedEdges = blocked

	nr, err := env.Finder.FindRoute(plan.Start, plan.Goal, c)
	if err != nil {
		return Maneuver{}, false
	}

	m := Maneuver{Kind: ManeuverReroute, Aircraft: low.ID, Route: &nr}
	if len(nr.Nodes) > 1 {
		m.TargetHeading = math.Heading2f(env.Airport.Nodes[nr.Nodes[0]].P.P,
			env.Airport.Nodes[nr.Nodes[1]].P.P)
	}
	if _, conflict := r.predictor.Predict(applied(low, m), other); conflict {
		return Maneuver{}, false
	}
	return m, true
}

// trySlow halves the speed of the trailing aircraft of the pair.
func (r *Resolver) trySlow(a, b Track, rank map[string]int) (Maneuver, bool) {
	var trailing, lead Track
	switch aToward, bToward := movingToward(a, b), movingToward(b, a); {
	case aToward && !bToward:
		trailing, lead = a, b
	case bToward && !aToward:
		trailing, lead = b, a
	default:
		trailing, lead = lowerPriority(a, b, rank)
	}
	if trailing.Speed == 0 {
		return Maneuver{}, false
	}

	m := Maneuver{Kind: ManeuverSpeed, Aircraft: trailing.ID, TargetSpeed: trailing.Speed / 2}
	if _, conflict := r.predictor.Predict(applied(trailing, m), lead); conflict {
		return Maneuver{}, false
	}
	return m, true
}

func movingToward(t, other Track) bool {
	return math.Dot(math.HeadingVector(t.Heading), math.Sub2f(other.P, t.P)) > 0
}

// nearestEdge returns the graph edge closest to the given point.
func nearestEdge(ap *airport.Airport, p [2]float32) (airport.EdgeID, bool) {
	best, bestDist := airport.EdgeID(-1), float32(1e30)
	for _, e := range ap.Edges {
		d := math.PointSegmentDistance(p, ap.Nodes[e.A].P.P, ap.Nodes[e.B].P.P)
		if d < bestDist {
			best, bestDist = e.ID, d
		}
	}
	return best, best != -1
}
