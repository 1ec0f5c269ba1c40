// ops/runway.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ops

import (
	"slices"
	"strings"

	"groundctl/airport"
	"groundctl/math"
)

// TrafficLoad maps runway id to the number of aircraft queued for it.
type TrafficLoad map[string]int

// knots of score penalty per queued aircraft
const queuePenalty = 2

// SelectRunway picks the runway to operate on given the current wind and
// per-runway queues: larger headwind scores higher, crosswind beyond
// cfg.CrosswindPenaltyAbove is penalized, and longer queues are penalized
// for load balancing. Runways whose crosswind exceeds cfg.MaxCrosswind are
// excluded; if that excludes everything, the least-bad runway is returned
// anyway with caution set, since a forced decision must still name a
// runway. The heading evaluated for each runway is whichever of its two
// operating directions faces the wind.
func SelectRunway(ap *airport.Airport, wind airport.WindVector, load TrafficLoad,
	cfg Config) (id string, caution bool) {
	if len(ap.Runways) == 0 {
		return "", true
	}

	type scored struct {
		id       string
		score    float32
		excluded bool
	}

	scores := make([]scored, 0, len(ap.Runways))
	for _, r := range ap.Runways {
		hw := wind.Headwind(r.Heading)
		if opp := wind.Headwind(math.OppositeHeading(r.Heading)); opp > hw {
			hw = opp
		}
		xw := wind.Crosswind(r.Heading)

		s := hw
		if xw > cfg.CrosswindPenaltyAbove {
			s -= 2 * (xw - cfg.CrosswindPenaltyAbove)
		}
		s -= queuePenalty * float32(load[r.ID])

		scores = append(scores, scored{id: r.ID, score: s, excluded: xw > cfg.MaxCrosswind})
	}

	slices.SortFunc(scores, func(a, b scored) int {
		if a.excluded != b.excluded {
			if a.excluded {
				return 1
			}
			return -1
		}
		if a.score != b.score {
			return int(math.Sign(b.score - a.score))
		}
		return strings.Compare(a.id, b.id)
	})

	return scores[0].id, scores[0].excluded
}
