// ops/runway_test.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ops

import (
	"testing"

	"groundctl/airport"
)

// crossRunwayAirport builds two crossing runways, 09/27 (east-west) and
// 18/36 (north-south).
func crossRunwayAirport(t *testing.T) *airport.Airport {
	t.Helper()
	ap := &airport.Airport{
		Name: "XTST",
		Nodes: []airport.Node{
			{ID: 0, Name: "RW09", P: airport.Position{P: [2]float32{-500, 0}}, Kind: airport.RunwayThreshold},
			{ID: 1, Name: "RW27", P: airport.Position{P: [2]float32{500, 0}}, Kind: airport.RunwayThreshold},
			{ID: 2, Name: "RW36", P: airport.Position{P: [2]float32{0, -500}}, Kind: airport.RunwayThreshold},
			{ID: 3, Name: "RW18", P: airport.Position{P: [2]float32{0, 500}}, Kind: airport.RunwayThreshold},
		},
		Edges: []airport.Edge{
			{ID: 0, A: 0, B: 1, Width: 45, MaxClass: airport.ClassHeavy},
			{ID: 1, A: 2, B: 3, Width: 45, MaxClass: airport.ClassHeavy},
		},
		Runways: []airport.Runway{
			{ID: "09/27", Thresholds: [2]airport.NodeID{0, 1}, Heading: 90, Length: 1000, Width: 45},
			{ID: "18/36", Thresholds: [2]airport.NodeID{2, 3}, Heading: 0, Length: 1000, Width: 45},
		},
	}
	if err := ap.Validate(); err != nil {
		t.Fatal(err)
	}
	return ap
}

func TestSelectRunwayHeadwind(t *testing.T) {
	ap := crossRunwayAirport(t)
	cfg := DefaultConfig()

	// Wind straight down 09/27: that runway gives a full headwind with no
	// crosswind.
	id, caution := SelectRunway(ap, airport.WindVector{Direction: 90, Speed: 10}, nil, cfg)
	if id != "09/27" || caution {
		t.Errorf("got %q (caution %v), want 09/27", id, caution)
	}

	id, caution = SelectRunway(ap, airport.WindVector{Direction: 180, Speed: 10}, nil, cfg)
	if id != "18/36" || caution {
		t.Errorf("got %q (caution %v), want 18/36", id, caution)
	}
}

func TestSelectRunwayLoadBalancing(t *testing.T) {
	ap := crossRunwayAirport(t)
	cfg := DefaultConfig()
	wind := airport.WindVector{Direction: 90, Speed: 10}

	// A long enough queue on the into-wind runway outweighs its headwind
	// advantage.
	id, caution := SelectRunway(ap, wind, TrafficLoad{"09/27": 6}, cfg)
	if id != "18/36" || caution {
		t.Errorf("got %q (caution %v), want 18/36 under load", id, caution)
	}
}

func TestSelectRunwayAllExcluded(t *testing.T) {
	ap := crossRunwayAirport(t)
	cfg := DefaultConfig()

	// A 40kt wind at 045 puts ~28kt of crosswind on both runways,
	// exceeding the 25kt limit; a runway must still be returned, with
	// caution.
	id, caution := SelectRunway(ap, airport.WindVector{Direction: 45, Speed: 40}, nil, cfg)
	if id == "" {
		t.Fatal("no runway returned for a forced decision")
	}
	if !caution {
		t.Errorf("expected caution when every runway exceeds crosswind limits")
	}
}
