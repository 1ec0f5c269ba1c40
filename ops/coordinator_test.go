// ops/coordinator_test.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ops

import (
	"errors"
	"testing"
	"time"

	"groundctl/airport"
	"groundctl/clearance"
	"groundctl/conflict"
	"groundctl/log"

	"github.com/google/uuid"
)

// opsAirport is a gate, a taxiway, and a single runway in a line:
//
//	GATE1 -- A1 -- A2 -- RW09 ===== RW27
func opsAirport(t *testing.T) *airport.Airport {
	t.Helper()
	ap := &airport.Airport{
		Name: "TST",
		Nodes: []airport.Node{
			{ID: 0, Name: "GATE1", P: airport.Position{P: [2]float32{0, 0}}, Kind: airport.ParkingNode},
			{ID: 1, Name: "A1", P: airport.Position{P: [2]float32{100, 0}}, Kind: airport.Junction},
			{ID: 2, Name: "A2", P: airport.Position{P: [2]float32{200, 0}}, Kind: airport.Junction},
			{ID: 3, Name: "RW09", P: airport.Position{P: [2]float32{300, 0}}, Kind: airport.RunwayThreshold},
			{ID: 4, Name: "RW27", P: airport.Position{P: [2]float32{1300, 0}}, Kind: airport.RunwayThreshold},
		},
		Edges: []airport.Edge{
			{ID: 0, A: 0, B: 1, Width: 25, MaxClass: airport.ClassHeavy},
			{ID: 1, A: 1, B: 2, Width: 25, MaxClass: airport.ClassHeavy},
			{ID: 2, A: 2, B: 3, Width: 25, MaxClass: airport.ClassHeavy},
			{ID: 3, A: 3, B: 4, Width: 45, MaxClass: airport.ClassHeavy},
		},
		Runways: []airport.Runway{
			{ID: "09/27", Thresholds: [2]airport.NodeID{3, 4}, Heading: 90, Length: 1000, Width: 45},
		},
		Parking: []airport.ParkingSpot{
			{ID: "GATE1", Node: 0, Class: airport.ClassLarge},
		},
	}
	if err := ap.Validate(); err != nil {
		t.Fatal(err)
	}
	return ap
}

func drainCommands(c *Coordinator) []Command {
	var cmds []Command
	for {
		select {
		case cmd := <-c.Commands():
			cmds = append(cmds, cmd)
		default:
			return cmds
		}
	}
}

func TestCoordinatorTracksAircraft(t *testing.T) {
	ap := opsAirport(t)
	cfg := DefaultConfig()
	c := NewCoordinator(ap, cfg, log.Discard())
	defer c.Events().Destroy()

	now := time.Now()
	c.AddTelemetry(Telemetry{Callsign: "AAL1", Class: airport.ClassLarge,
		P: [2]float32{0, 0}, Time: now})
	c.FastCycle(now)

	if _, err := c.QueryClearanceState("AAL1"); !errors.Is(err, ErrNoClearance) {
		t.Errorf("expected ErrNoClearance for tracked aircraft, got %v", err)
	}
	if _, err := c.QueryClearanceState("XYZ"); !errors.Is(err, ErrUnknownAircraft) {
		t.Errorf("expected ErrUnknownAircraft, got %v", err)
	}

	// No telemetry for longer than the stale timeout: the aircraft is
	// treated as having left the managed area.
	c.FastCycle(now.Add(cfg.StaleTimeout + time.Second))
	if _, err := c.QueryClearanceState("AAL1"); !errors.Is(err, ErrUnknownAircraft) {
		t.Errorf("expected stale aircraft to be dropped, got %v", err)
	}
}

func TestTakeoffClearanceFlow(t *testing.T) {
	ap := opsAirport(t)
	c := NewCoordinator(ap, DefaultConfig(), log.Discard())
	defer c.Events().Destroy()
	sub := c.Events().Subscribe()

	now := time.Now()
	c.AddTelemetry(Telemetry{Callsign: "AAL1", Class: airport.ClassLarge,
		P: [2]float32{0, 0}, Time: now})
	c.FastCycle(now)

	if _, err := c.RequestClearance("AAL1", clearance.Takeoff); !errors.Is(err, ErrNoRoute) {
		t.Errorf("expected ErrNoRoute for takeoff without a route, got %v", err)
	}

	id, err := c.AssignRoute("AAL1", "RW09")
	if err != nil {
		t.Fatal(err)
	}
	if id == (uuid.UUID{}) {
		t.Error("expected a route id")
	}
	if _, err := c.AssignRoute("AAL1", "NOWHERE"); !errors.Is(err, ErrUnknownDestination) {
		t.Errorf("expected ErrUnknownDestination, got %v", err)
	}

	s, err := c.RequestClearance("AAL1", clearance.Takeoff)
	if err != nil || s != clearance.Requested {
		t.Fatalf("expected requested state, got %s, %v", s, err)
	}

	// One slow cycle assigns the runway, grants the clearance, and, with
	// the runway clear and the route ending at its threshold, activates it.
	c.SlowCycle(now)

	s, err = c.QueryClearanceState("AAL1")
	if err != nil || s != clearance.Active {
		t.Fatalf("expected active takeoff clearance, got %s, %v", s, err)
	}

	var sawClearance bool
	for _, cmd := range drainCommands(c) {
		if cmd.Kind == CommandClearance && cmd.Callsign == "AAL1" {
			sawClearance = true
			if cmd.Text == "" {
				t.Error("clearance command has no instruction text")
			}
		}
	}
	if !sawClearance {
		t.Error("no clearance command emitted")
	}

	var sawRunway bool
	for _, ev := range sub.Get() {
		if ev.Type == RunwayAssignedEvent && ev.Callsign == "AAL1" && ev.Runway == "09/27" {
			sawRunway = true
		}
	}
	if !sawRunway {
		t.Error("no runway assignment event posted")
	}
}

func TestTelemetryClampsBadSizeClass(t *testing.T) {
	ap := opsAirport(t)
	c := NewCoordinator(ap, DefaultConfig(), log.Discard())
	defer c.Events().Destroy()

	// A garbage size class from the host must not take down the fast
	// cycle; the aircraft is tracked with the most conservative footprint
	// instead.
	now := time.Now()
	c.AddTelemetry(Telemetry{Callsign: "AAL1", Class: airport.ClassLarge,
		P: [2]float32{0, 0}, Time: now})
	c.AddTelemetry(Telemetry{Callsign: "BAD9", Class: airport.SizeClass(99),
		P: [2]float32{200, 0}, Time: now})
	c.FastCycle(now)

	snap := c.Snapshot()
	ac, ok := snap.Aircraft["BAD9"]
	if !ok {
		t.Fatal("aircraft with bad size class not tracked")
	}
	if ac.Class != airport.ClassHeavy {
		t.Errorf("expected heavy fallback class, got %s", ac.Class)
	}
}

func TestConflictFlow(t *testing.T) {
	ap := opsAirport(t)
	cfg := DefaultConfig()
	cfg.Prediction = conflict.Params{Horizon: 5, Step: 0.25, MinSeparation: 25, MinSepTime: 5}
	c := NewCoordinator(ap, cfg, log.Discard())
	defer c.Events().Destroy()

	var detected []conflict.Record
	c.OnConflictDetected(func(r conflict.Record) { detected = append(detected, r) })

	// Head-on on the taxiway, closing at a combined 10 m/s.
	now := time.Now()
	c.AddTelemetry(Telemetry{Callsign: "AAL1", Class: airport.ClassLarge,
		P: [2]float32{100, 0}, Heading: 90, Speed: 5, Time: now})
	c.AddTelemetry(Telemetry{Callsign: "UAL2", Class: airport.ClassLarge,
		P: [2]float32{200, 0}, Heading: 270, Speed: 5, Time: now})
	c.FastCycle(now)

	if len(detected) == 0 {
		t.Fatal("no conflict detected")
	}

	// UAL2 has no clearance progress and the larger callsign, so it is the
	// one held.
	var sawHold bool
	for _, cmd := range drainCommands(c) {
		if cmd.Kind == CommandHoldPosition && cmd.Callsign == "UAL2" {
			sawHold = true
		}
	}
	if !sawHold {
		t.Error("expected a hold command for UAL2")
	}

	snap := c.Snapshot()
	if ac, ok := snap.Aircraft["UAL2"]; !ok || ac.TargetSpeed == nil || *ac.TargetSpeed != 0 {
		t.Errorf("expected zero target speed for held aircraft, got %+v", ac.TargetSpeed)
	}
}

func TestAbortClearsRoute(t *testing.T) {
	ap := opsAirport(t)
	c := NewCoordinator(ap, DefaultConfig(), log.Discard())
	defer c.Events().Destroy()

	now := time.Now()
	c.AddTelemetry(Telemetry{Callsign: "AAL1", Class: airport.ClassLarge,
		P: [2]float32{0, 0}, Time: now})
	c.FastCycle(now)

	if _, err := c.AssignRoute("AAL1", "A2"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.RequestClearance("AAL1", clearance.Taxi); err != nil {
		t.Fatal(err)
	}
	c.SlowCycle(now)

	if err := c.AbortClearance("AAL1"); err != nil {
		t.Fatal(err)
	}
	if s, err := c.QueryClearanceState("AAL1"); err != nil || s != clearance.Aborted {
		t.Errorf("expected aborted, got %s, %v", s, err)
	}
	if snap := c.Snapshot(); snap.Aircraft["AAL1"].Route != nil {
		t.Error("abort left a route assigned")
	}
}
