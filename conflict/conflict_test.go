// conflict/conflict_test.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package conflict

import (
	"errors"
	"testing"

	"groundctl/log"
	"groundctl/math"
)

// footprint returns a square canonical footprint with the given half-width.
func footprint(t *testing.T, hw float32) math.Polygon {
	t.Helper()
	p, err := math.MakePolygon([][2]float32{{-hw, -hw}, {hw, -hw}, {hw, hw}, {-hw, hw}})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestHeadOnClosure(t *testing.T) {
	// Two aircraft 50m apart closing at a combined 10 m/s must conflict
	// within a 5 second horizon.
	pr := NewPredictor(Params{Horizon: 5, Step: 0.25, MinSeparation: 10, MinSepTime: 5},
		log.Discard())

	a := Track{ID: "AAL1", P: [2]float32{0, 0}, Heading: 0, Speed: 5, Footprint: footprint(t, 4)}
	b := Track{ID: "UAL2", P: [2]float32{0, 50}, Heading: 180, Speed: 5, Footprint: footprint(t, 4)}

	rec, ok := pr.Predict(a, b)
	if !ok {
		t.Fatal("expected a conflict")
	}
	if rec.TimeToCPA > 5 {
		t.Errorf("time to closest approach %g > horizon", rec.TimeToCPA)
	}
	if rec.Severity != SeverityCritical {
		t.Errorf("expected critical severity for predicted contact, got %s", rec.Severity)
	}
}

func TestPredictNoConflict(t *testing.T) {
	pr := NewPredictor(DefaultParams(), log.Discard())

	// Parallel tracks well apart.
	a := Track{ID: "A", P: [2]float32{0, 0}, Heading: 0, Speed: 10, Footprint: footprint(t, 4)}
	b := Track{ID: "B", P: [2]float32{500, 0}, Heading: 0, Speed: 10, Footprint: footprint(t, 4)}

	if rec, ok := pr.Predict(a, b); ok {
		t.Errorf("unexpected conflict: %+v", rec)
	}
}

func TestPredictTCPAWellFormed(t *testing.T) {
	pr := NewPredictor(DefaultParams(), log.Discard())

	// Zero relative velocity: closest approach must degenerate to the
	// current separation rather than anything non-finite.
	a := Track{ID: "A", P: [2]float32{0, 0}, Footprint: footprint(t, 4)}
	b := Track{ID: "B", P: [2]float32{20, 0}, Footprint: footprint(t, 4)}

	rec, ok := pr.Predict(a, b)
	if !ok {
		t.Fatal("expected a separation violation for stationary aircraft 20m apart")
	}
	if rec.TimeToCPA != 0 {
		t.Errorf("expected zero time to closest approach, got %g", rec.TimeToCPA)
	}
	if !math.IsFinite(rec.TimeToCPA) || !math.IsFinite(rec.MinSeparation) || rec.MinSeparation < 0 {
		t.Errorf("ill-formed record: %+v", rec)
	}
}

func TestPredictSymmetric(t *testing.T) {
	pr := NewPredictor(DefaultParams(), log.Discard())

	a := Track{ID: "A", P: [2]float32{0, 0}, Heading: 45, Speed: 8, Footprint: footprint(t, 4)}
	b := Track{ID: "B", P: [2]float32{100, 100}, Heading: 225, Speed: 8, Footprint: footprint(t, 4)}

	r0, ok0 := pr.Predict(a, b)
	r1, ok1 := pr.Predict(b, a)
	if ok0 != ok1 {
		t.Fatalf("asymmetric detection: %v vs %v", ok0, ok1)
	}
	if r0.TimeToCPA != r1.TimeToCPA || r0.MinSeparation != r1.MinSeparation || r0.Severity != r1.Severity {
		t.Errorf("asymmetric records: %+v vs %+v", r0, r1)
	}
}

func TestResolveHoldsLowerPriority(t *testing.T) {
	pr := NewPredictor(DefaultParams(), log.Discard())
	res := NewResolver(pr, log.Discard())

	// B crosses A's path; B is further from a terminal clearance state so
	// it is the one held, which clears the conflict.
	a := Track{ID: "A", P: [2]float32{0, 0}, Heading: 90, Speed: 10, Footprint: footprint(t, 4)}
	b := Track{ID: "B", P: [2]float32{50, -50}, Heading: 0, Speed: 10, Footprint: footprint(t, 4)}

	rec, ok := pr.Predict(a, b)
	if !ok {
		t.Fatal("expected a conflict")
	}

	env := Environment{
		Tracks: map[string]Track{"A": a, "B": b},
		Rank:   map[string]int{"A": 1, "B": 0},
	}
	ms, err := res.Resolve([]Record{rec}, env)
	if err != nil {
		t.Fatalf("unexpected resolution error: %v", err)
	}
	if len(ms) != 1 {
		t.Fatalf("expected one maneuver, got %d", len(ms))
	}
	if ms[0].Kind != ManeuverHold || ms[0].Aircraft != "B" || ms[0].Escalated {
		t.Errorf("expected clean hold of B, got %+v", ms[0])
	}
}

func TestResolveSlowsTrailing(t *testing.T) {
	pr := NewPredictor(Params{Horizon: 10, Step: 0.5, MinSeparation: 3, MinSepTime: 2},
		log.Discard())
	res := NewResolver(pr, log.Discard())

	// C is overtaking L from behind; holding L makes things worse, so the
	// resolver should fall through to slowing the trailing aircraft.
	lead := Track{ID: "L", P: [2]float32{0, 40}, Heading: 0, Speed: 5, Footprint: footprint(t, 4)}
	chase := Track{ID: "C", P: [2]float32{0, 0}, Heading: 0, Speed: 15, Footprint: footprint(t, 4)}

	rec, ok := pr.Predict(lead, chase)
	if !ok {
		t.Fatal("expected a conflict")
	}

	env := Environment{
		Tracks: map[string]Track{"L": lead, "C": chase},
		Rank:   map[string]int{"L": 0, "C": 1},
	}
	ms, err := res.Resolve([]Record{rec}, env)
	if err != nil {
		t.Fatalf("unexpected resolution error: %v", err)
	}
	if len(ms) != 1 {
		t.Fatalf("expected one maneuver, got %d", len(ms))
	}
	if ms[0].Kind != ManeuverSpeed || ms[0].Aircraft != "C" {
		t.Errorf("expected speed reduction of C, got %+v", ms[0])
	}
	if ms[0].TargetSpeed >= chase.Speed {
		t.Errorf("target speed %g is not a reduction", ms[0].TargetSpeed)
	}
}

func TestResolveEscalates(t *testing.T) {
	pr := NewPredictor(DefaultParams(), log.Discard())
	res := NewResolver(pr, log.Discard())

	// Two stationary aircraft already in contact: no maneuver can restore
	// separation, so the resolver holds and escalates.
	a := Track{ID: "A", P: [2]float32{0, 0}, Footprint: footprint(t, 4)}
	b := Track{ID: "B", P: [2]float32{3, 0}, Footprint: footprint(t, 4)}

	rec, ok := pr.Predict(a, b)
	if !ok {
		t.Fatal("expected a conflict")
	}

	env := Environment{
		Tracks: map[string]Track{"A": a, "B": b},
		Rank:   map[string]int{"A": 0, "B": 0},
	}
	ms, err := res.Resolve([]Record{rec}, env)
	if !errors.Is(err, ErrConflictUnresolved) {
		t.Errorf("expected ErrConflictUnresolved, got %v", err)
	}
	if len(ms) != 1 || ms[0].Kind != ManeuverHold || !ms[0].Escalated {
		t.Errorf("expected escalated hold, got %+v", ms)
	}
}
