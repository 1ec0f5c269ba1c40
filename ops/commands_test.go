// ops/commands_test.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ops

import (
	"testing"

	"groundctl/airport"
)

func TestRouteNames(t *testing.T) {
	ap := opsAirport(t)
	ap.Nodes[1].Name = ""
	ap.Nodes[2].Name = ""

	if s := routeNames(ap, []airport.NodeID{0, 1, 2, 3}); s != "GATE1 RW09" {
		t.Errorf("got %q, want %q", s, "GATE1 RW09")
	}
	if s := routeNames(ap, []airport.NodeID{1, 2}); s != "present position" {
		t.Errorf("got %q for a route with no named waypoints", s)
	}
	if s := routeNames(ap, nil); s != "present position" {
		t.Errorf("got %q for an empty route", s)
	}
}
