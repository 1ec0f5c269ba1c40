// route/pathfind.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package route

import (
	"container/heap"
	"errors"
	"fmt"
	"strings"

	"groundctl/airport"
	"groundctl/log"
	"groundctl/math"
	"groundctl/util"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

var ErrNoRouteFound = errors.New("no route found between nodes")

// Constraints restricts which parts of the surface graph a route may use;
// blocked nodes and edges are typically transient (an occupied runway, a
// conflict being resolved) while Class filters out taxiways too narrow for
// the aircraft.
type Constraints struct {
	BlockedNodes map[airport.NodeID]interface{}
	BlockedEdges map[airport.EdgeID]interface{}
	Class        airport.SizeClass
}

// Signature returns a deterministic string encoding of the constraints,
// suitable for use in a cache key.
func (c Constraints) Signature() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "c%d", c.Class)
	for _, n := range util.SortedMapKeys(c.BlockedNodes) {
		fmt.Fprintf(&sb, "/n%d", n)
	}
	for _, e := range util.SortedMapKeys(c.BlockedEdges) {
		fmt.Fprintf(&sb, "/e%d", e)
	}
	return sb.String()
}

func (c Constraints) usable(e airport.Edge) bool {
	if _, ok := c.BlockedEdges[e.ID]; ok {
		return false
	}
	return e.MaxClass >= c.Class
}

// Route is an ordered walk over the surface graph. Routes are replaced
// wholesale on reroute, never patched in place.
type Route struct {
	ID    uuid.UUID
	Nodes []airport.NodeID
	Cost  float32 // meters of taxi distance
}

// Finder computes lowest-cost surface routes. It is safe for concurrent
// use; the underlying airport model is immutable and the cache locks
// internally.
type Finder struct {
	ap *airport.Airport
	lg *log.Logger

	// Heading changes above TurnThreshold degrees between consecutive
	// edges count as a turn; among equal-length routes the one with fewer
	// turns wins, so route choices don't oscillate between parallel
	// taxiways from one cycle to the next.
	TurnThreshold float32

	cache *lru.Cache[string, Route]
}

const defaultTurnThreshold = 30 // degrees
const routeCacheSize = 512

func NewFinder(ap *airport.Airport, lg *log.Logger) *Finder {
	cache, _ := lru.New[string, Route](routeCacheSize)
	return &Finder{ap: ap, lg: lg, TurnThreshold: defaultTurnThreshold, cache: cache}
}

// FindRoute returns a lowest-cost route from start to goal under the given
// constraints, using A* with straight-line distance as the heuristic.
// Straight-line distance never overestimates the remaining taxi distance,
// so the result cost always matches FindRouteDijkstra. Returns
// ErrNoRouteFound if the goal is unreachable; callers are expected to hold
// the aircraft in place and retry later rather than treating that as fatal.
func (f *Finder) FindRoute(start, goal airport.NodeID, c Constraints) (Route, error) {
	goalNode, ok := f.ap.Node(goal)
	if !ok {
		return Route{}, fmt.Errorf("goal node %d: %w", goal, airport.ErrInvalidGraphReference)
	}
	h := func(n airport.NodeID) float32 {
		return math.Distance2f(f.ap.Nodes[n].P.P, goalNode.P.P)
	}

	key := fmt.Sprintf("%d-%d/%s", start, goal, c.Signature())
	if r, ok := f.cache.Get(key); ok {
		return Route{ID: r.ID, Nodes: util.DuplicateSlice(r.Nodes), Cost: r.Cost}, nil
	}

	r, err := f.search(start, goal, c, h)
	if err != nil {
		return Route{}, err
	}
	f.cache.Add(key, r)
	return Route{ID: r.ID, Nodes: util.DuplicateSlice(r.Nodes), Cost: r.Cost}, nil
}

// FindRouteDijkstra is the uniform-cost variant of FindRoute; it expands
// more nodes than A* but serves as the reference for verifying the
// heuristic's admissibility.
func (f *Finder) FindRouteDijkstra(start, goal airport.NodeID, c Constraints) (Route, error) {
	return f.search(start, goal, c, func(airport.NodeID) float32 { return 0 })
}

// searchCost orders candidate paths first by taxi distance and then, for
// distances that are equal to within float tolerance, by turn count.
type searchCost struct {
	dist  float32
	turns int
}

func (a searchCost) less(b searchCost) bool {
	const eps = 1e-3
	if math.Abs(a.dist-b.dist) > eps {
		return a.dist < b.dist
	}
	return a.turns < b.turns
}

func (f *Finder) search(start, goal airport.NodeID, c Constraints,
	h func(airport.NodeID) float32) (Route, error) {
	if _, ok := f.ap.Node(start); !ok {
		return Route{}, fmt.Errorf("start node %d: %w", start, airport.ErrInvalidGraphReference)
	}
	if _, ok := f.ap.Node(goal); !ok {
		return Route{}, fmt.Errorf("goal node %d: %w", goal, airport.ErrInvalidGraphReference)
	}
	if _, blocked := c.BlockedNodes[goal]; blocked {
		return Route{}, fmt.Errorf("goal node %d is blocked: %w", goal, ErrNoRouteFound)
	}
	if start == goal {
		return Route{ID: uuid.New(), Nodes: []airport.NodeID{start}}, nil
	}

	best := make(map[airport.NodeID]searchCost)
	prev := make(map[airport.NodeID]airport.NodeID)
	best[start] = searchCost{}

	pq := &searchQueue{{node: start, priority: h(start)}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(searchItem)
		if cur.node == goal {
			break
		}
		if cur.cost.dist > best[cur.node].dist { // stale queue entry
			continue
		}

		// Heading of arrival at cur, for turn counting.
		var arrival float32
		haveArrival := false
		if p, ok := prev[cur.node]; ok {
			arrival = math.Heading2f(f.ap.Nodes[p].P.P, f.ap.Nodes[cur.node].P.P)
			haveArrival = true
		}

		for _, eid := range f.ap.EdgesFrom(cur.node) {
			e := f.ap.Edges[eid]
			if !c.usable(e) {
				continue
			}
			next := e.Other(cur.node)
			if _, blocked := c.BlockedNodes[next]; blocked {
				continue
			}

			nc := searchCost{dist: cur.cost.dist + e.Length, turns: cur.cost.turns}
			if haveArrival {
				dep := math.Heading2f(f.ap.Nodes[cur.node].P.P, f.ap.Nodes[next].P.P)
				if math.HeadingDifference(arrival, dep) > f.TurnThreshold {
					nc.turns++
				}
			}

			if old, seen := best[next]; !seen || nc.less(old) {
				best[next] = nc
				prev[next] = cur.node
				heap.Push(pq, searchItem{node: next, cost: nc, priority: nc.dist + h(next)})
			}
		}
	}

	if _, ok := best[goal]; !ok {
		f.lg.Debugf("no route %d -> %d under %s", start, goal, c.Signature())
		return Route{}, fmt.Errorf("%d -> %d: %w", start, goal, ErrNoRouteFound)
	}

	var nodes []airport.NodeID
	for n := goal; ; n = prev[n] {
		nodes = append(nodes, n)
		if n == start {
			break
		}
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}

	return Route{ID: uuid.New(), Nodes: nodes, Cost: best[goal].dist}, nil
}

///////////////////////////////////////////////////////////////////////////
// priority queue

type searchItem struct {
	node     airport.NodeID
	cost     searchCost
	priority float32
}

type searchQueue []searchItem

func (q searchQueue) Len() int { return len(q) }
func (q searchQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].cost.turns < q[j].cost.turns
}
func (q searchQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *searchQueue) Push(x any) { *q = append(*q, x.(searchItem)) }
func (q *searchQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}
