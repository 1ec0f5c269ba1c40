// ops/sequencer.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ops

import (
	"slices"
	"strings"
)

// Request is one aircraft's pending claim on a shared resource (a runway
// or a taxiway segment).
type Request struct {
	Callsign    string
	RequestedAt int64 // unix nanos of the clearance request
	Emergency   bool
	// Blocking marks an aircraft holding in a position that prevents
	// others from moving; it jumps the queue to clear congestion.
	Blocking bool
}

// Order produces the service order for the given requests: emergencies
// first, then aircraft blocking others, then first-requested-first-served.
// Ties are broken by callsign so that identical inputs always produce
// identical orders.
func Order(requests []Request) []string {
	reqs := slices.Clone(requests)
	slices.SortFunc(reqs, func(a, b Request) int {
		if a.Emergency != b.Emergency {
			if a.Emergency {
				return -1
			}
			return 1
		}
		if a.Blocking != b.Blocking {
			if a.Blocking {
				return -1
			}
			return 1
		}
		if a.RequestedAt != b.RequestedAt {
			if a.RequestedAt < b.RequestedAt {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Callsign, b.Callsign)
	})

	order := make([]string, len(reqs))
	for i, r := range reqs {
		order[i] = r.Callsign
	}
	return order
}
