// conflict/predict.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package conflict predicts losses of separation between aircraft moving
// on the airport surface and selects avoidance maneuvers to restore the
// configured minima.
package conflict

import (
	"errors"

	"groundctl/log"
	"groundctl/math"
)

var ErrConflictUnresolved = errors.New("conflict not resolvable within separation minima")

// Track is a read-only snapshot of one aircraft's surface motion, taken by
// the coordinator at the start of a fast cycle. Footprint is the canonical
// convex outline, centered at the origin with the nose along +y; it is
// placed at the projected position and heading for each step of the
// prediction.
type Track struct {
	ID        string
	P         [2]float32
	Heading   float32 // degrees
	Speed     float32 // m/s over the ground
	Footprint math.Polygon
}

// PositionAt projects the track's position dt seconds ahead along its
// current heading and speed.
func (t Track) PositionAt(dt float32) [2]float32 {
	return math.Add2f(t.P, math.Scale2f(math.HeadingVector(t.Heading), t.Speed*dt))
}

// FootprintAt returns the track's footprint placed at its projected
// position dt seconds ahead.
func (t Track) FootprintAt(dt float32) math.Polygon {
	return t.Footprint.Place(t.PositionAt(dt), t.Heading)
}

func (t Track) velocity() [2]float32 {
	return math.Scale2f(math.HeadingVector(t.Heading), t.Speed)
}

type Severity int

const (
	SeverityLow      Severity = iota // separation minimum violated, no contact
	SeverityHigh                     // within half the separation minimum
	SeverityCritical                 // footprints predicted to touch
)

func (s Severity) String() string {
	return [...]string{"low", "high", "critical"}[s]
}

// Record describes one predicted loss of separation between a pair of
// aircraft. Records are recomputed every fast cycle and never stored.
type Record struct {
	A, B          string
	TimeToCPA     float32 // seconds from now to minimum separation
	MinSeparation float32 // meters between footprints at closest approach
	Severity      Severity
}

// Params are the prediction tuning knobs; the defaults suit typical taxi
// speeds.
type Params struct {
	Horizon       float32 `yaml:"horizon"`        // seconds to project ahead
	Step          float32 `yaml:"step"`           // seconds per projection step
	MinSeparation float32 `yaml:"min_separation"` // meters between footprints
	MinSepTime    float32 `yaml:"min_sep_time"`   // seconds to CPA below which a violation is high severity
}

func DefaultParams() Params {
	return Params{Horizon: 60, Step: 0.5, MinSeparation: 30, MinSepTime: 10}
}

type Predictor struct {
	Params
	lg *log.Logger
}

func NewPredictor(p Params, lg *log.Logger) *Predictor {
	return &Predictor{Params: p, lg: lg}
}

// Predict projects both aircraft forward along their current headings and
// speeds in fixed steps up to the horizon and reports the closest approach
// found. It returns false if separation never drops below the configured
// minimum within the horizon. The reported time to closest approach is the
// time of the minimum-separation step, so it is always finite and in
// [0, Horizon], including when the relative velocity is near zero and the
// closest approach degenerates to the current separation.
func (p *Predictor) Predict(a, b Track) (Record, bool) {
	ra, rb := a.Footprint.BoundingRadius(), b.Footprint.BoundingRadius()

	// Cheap whole-horizon rejection: center distance over time is convex
	// for straight-line motion, so its minimum over the horizon is at the
	// clamped ray-ray closest approach. If even that leaves the bounding
	// circles separated by the minimum, skip the stepped footprint tests.
	tStar := math.Clamp(math.RayRayMinimumDistance(a.P, a.velocity(), b.P, b.velocity()), 0, p.Horizon)
	if math.Distance2f(a.PositionAt(tStar), b.PositionAt(tStar))-ra-rb >= p.MinSeparation {
		return Record{}, false
	}

	minSep := float32(1e30)
	var tMin float32
	for t := float32(0); t <= p.Horizon; t += p.Step {
		pa, pb := a.PositionAt(t), b.PositionAt(t)

		var sep float32
		if math.CirclesOverlap(pa, ra+p.MinSeparation, pb, rb) {
			sep = math.PolygonSeparation(a.FootprintAt(t), b.FootprintAt(t))
		} else {
			// Circle pre-filter: a conservative lower bound suffices.
			sep = math.Distance2f(pa, pb) - ra - rb
		}

		if sep < minSep {
			minSep, tMin = sep, t
			if sep <= 0 {
				break
			}
		}
	}

	if minSep >= p.MinSeparation {
		return Record{}, false
	}

	sev := SeverityLow
	if minSep <= 0 {
		minSep = 0
		sev = SeverityCritical
	} else if minSep < p.MinSeparation/2 || tMin < p.MinSepTime {
		sev = SeverityHigh
	}

	return Record{A: a.ID, B: b.ID, TimeToCPA: tMin, MinSeparation: minSep, Severity: sev}, true
}
