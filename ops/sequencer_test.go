// ops/sequencer_test.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ops

import (
	"slices"
	"testing"
)

func TestOrderPriorities(t *testing.T) {
	reqs := []Request{
		{Callsign: "AAL1", RequestedAt: 100},
		{Callsign: "UAL2", RequestedAt: 50},
		{Callsign: "DAL3", RequestedAt: 200, Emergency: true},
		{Callsign: "SWA4", RequestedAt: 150, Blocking: true},
	}

	got := Order(reqs)
	want := []string{"DAL3", "SWA4", "UAL2", "AAL1"}
	if !slices.Equal(got, want) {
		t.Errorf("got order %v, want %v", got, want)
	}
}

func TestOrderDeterministic(t *testing.T) {
	// Identical request times: the callsign tie-break must give the same
	// order regardless of input permutation.
	reqs := []Request{
		{Callsign: "UAL2", RequestedAt: 100},
		{Callsign: "AAL1", RequestedAt: 100},
		{Callsign: "DAL3", RequestedAt: 100},
	}

	want := Order(reqs)
	for i := 0; i < 10; i++ {
		slices.Reverse(reqs)
		if got := Order(reqs); !slices.Equal(got, want) {
			t.Fatalf("non-deterministic order: %v vs %v", got, want)
		}
	}
	if !slices.Equal(want, []string{"AAL1", "DAL3", "UAL2"}) {
		t.Errorf("unexpected tie-break order %v", want)
	}
}

func TestOrderDoesNotMutateInput(t *testing.T) {
	reqs := []Request{
		{Callsign: "UAL2", RequestedAt: 200},
		{Callsign: "AAL1", RequestedAt: 100},
	}
	saved := slices.Clone(reqs)

	Order(reqs)
	if !slices.Equal(reqs, saved) {
		t.Errorf("input mutated: %v", reqs)
	}
}
