// airport/model.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package airport

import (
	"errors"
	"fmt"

	"groundctl/math"
)

var (
	ErrInvalidGraphReference = errors.New("reference to node or edge not present in airport model")
	ErrDuplicateIdentifier   = errors.New("duplicate identifier in airport model")
)

// The surface graph is stored as a flat node/edge arena addressed by
// integer ids rather than as a pointer-linked structure; the model is
// immutable after Validate and is shared freely across the parallel
// conflict checks without locking.

type NodeID int32
type EdgeID int32

const NoNode NodeID = -1

type NodeKind int

const (
	Junction NodeKind = iota
	RunwayThreshold
	ParkingNode
)

func (k NodeKind) String() string {
	return [...]string{"junction", "runway threshold", "parking"}[k]
}

// SizeClass follows the usual wingspan-based airplane design groups;
// larger classes need wider taxiways and bigger footprints.
type SizeClass int

const (
	ClassSmall SizeClass = iota
	ClassMedium
	ClassLarge
	ClassHeavy
)

func (c SizeClass) String() string {
	return [...]string{"small", "medium", "large", "heavy"}[c]
}

type Node struct {
	ID   NodeID   `json:"id"`
	Name string   `json:"name"`
	P    Position `json:"position"`
	Kind NodeKind `json:"kind"`
}

// Position is a point on the locally-projected surface plane (meters east
// and north of the airport reference point) plus an optional heading for
// oriented features like parking spots.
type Position struct {
	P       [2]float32 `json:"p"`
	Heading float32    `json:"heading,omitempty"`
}

type Edge struct {
	ID       EdgeID    `json:"id"`
	A        NodeID    `json:"a"` // A->B is the legal direction for one-way edges
	B        NodeID    `json:"b"`
	OneWay   bool      `json:"one_way,omitempty"`
	Length   float32   `json:"length"` // meters; zero means "derive from node positions"
	Width    float32   `json:"width"`  // meters of pavement
	MaxClass SizeClass `json:"max_class"`
}

type Runway struct {
	ID         string    `json:"id"` // e.g. "13/31"
	Thresholds [2]NodeID `json:"thresholds"`
	Heading    float32   `json:"heading"` // degrees true, threshold 0 -> threshold 1
	Length     float32   `json:"length"`  // meters
	Width      float32   `json:"width"`
	Surface    string    `json:"surface,omitempty"`
	Lighted    bool      `json:"lighted,omitempty"`
}

type ParkingSpot struct {
	ID    string    `json:"id"`
	Node  NodeID    `json:"node"`
	Class SizeClass `json:"class"`
}

type Airport struct {
	Name    string        `json:"name"`
	Nodes   []Node        `json:"nodes"`
	Edges   []Edge        `json:"edges"`
	Runways []Runway      `json:"runways"`
	Parking []ParkingSpot `json:"parking"`

	// adjacency[n] lists the edges that may be traversed starting at node
	// n, respecting one-way restrictions. Built by Validate.
	adjacency [][]EdgeID
}

// Validate checks the referential integrity of the model and builds the
// adjacency table. A model that fails validation must not be used; at
// startup a validation failure is fatal.
func (a *Airport) Validate() error {
	for i, n := range a.Nodes {
		if int(n.ID) != i {
			return fmt.Errorf("node %q: id %d at index %d: %w", n.Name, n.ID, i, ErrInvalidGraphReference)
		}
	}

	seen := make(map[string]bool)
	for _, n := range a.Nodes {
		if n.Name != "" && seen[n.Name] {
			return fmt.Errorf("node %q: %w", n.Name, ErrDuplicateIdentifier)
		}
		seen[n.Name] = true
	}

	valid := func(id NodeID) bool { return id >= 0 && int(id) < len(a.Nodes) }

	a.adjacency = make([][]EdgeID, len(a.Nodes))
	for i, e := range a.Edges {
		if int(e.ID) != i {
			return fmt.Errorf("edge %d at index %d: %w", e.ID, i, ErrInvalidGraphReference)
		}
		if !valid(e.A) || !valid(e.B) {
			return fmt.Errorf("edge %d references nodes %d-%d: %w", e.ID, e.A, e.B, ErrInvalidGraphReference)
		}
		if e.A == e.B {
			return fmt.Errorf("edge %d is a self loop at node %d: %w", e.ID, e.A, ErrInvalidGraphReference)
		}

		if a.Edges[i].Length == 0 {
			a.Edges[i].Length = math.Distance2f(a.Nodes[e.A].P.P, a.Nodes[e.B].P.P)
		}

		a.adjacency[e.A] = append(a.adjacency[e.A], e.ID)
		if !e.OneWay {
			a.adjacency[e.B] = append(a.adjacency[e.B], e.ID)
		}
	}

	for _, r := range a.Runways {
		for _, th := range r.Thresholds {
			if !valid(th) {
				return fmt.Errorf("runway %q threshold node %d: %w", r.ID, th, ErrInvalidGraphReference)
			}
			if a.Nodes[th].Kind != RunwayThreshold {
				return fmt.Errorf("runway %q node %d is a %s, not a threshold: %w",
					r.ID, th, a.Nodes[th].Kind, ErrInvalidGraphReference)
			}
		}
	}

	for _, p := range a.Parking {
		if !valid(p.Node) {
			return fmt.Errorf("parking %q node %d: %w", p.ID, p.Node, ErrInvalidGraphReference)
		}
		if a.Nodes[p.Node].Kind != ParkingNode {
			return fmt.Errorf("parking %q node %d is a %s: %w", p.ID, p.Node, a.Nodes[p.Node].Kind,
				ErrInvalidGraphReference)
		}
	}

	return nil
}

func (a *Airport) Node(id NodeID) (Node, bool) {
	if id < 0 || int(id) >= len(a.Nodes) {
		return Node{}, false
	}
	return a.Nodes[id], true
}

func (a *Airport) Edge(id EdgeID) (Edge, bool) {
	if id < 0 || int(id) >= len(a.Edges) {
		return Edge{}, false
	}
	return a.Edges[id], true
}

// EdgesFrom returns the ids of the edges that may be traversed starting at
// the given node. The returned slice is owned by the Airport and must not
// be modified.
func (a *Airport) EdgesFrom(n NodeID) []EdgeID {
	if n < 0 || int(n) >= len(a.adjacency) {
		return nil
	}
	return a.adjacency[n]
}

// EdgeBetween returns the edge connecting from to to in that direction of
// travel, if there is one.
func (a *Airport) EdgeBetween(from, to NodeID) (Edge, bool) {
	for _, eid := range a.EdgesFrom(from) {
		e := a.Edges[eid]
		if e.Other(from) == to {
			return e, true
		}
	}
	return Edge{}, false
}

// Other returns the node at the other end of the edge from n.
func (e Edge) Other(n NodeID) NodeID {
	if e.A == n {
		return e.B
	}
	return e.A
}

// NodeByName looks a node up by its name; names are optional so this is a
// linear scan for convenience in configuration and tests.
func (a *Airport) NodeByName(name string) (Node, bool) {
	for _, n := range a.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return Node{}, false
}

// RunwayByID returns the named runway.
func (a *Airport) RunwayByID(id string) (Runway, bool) {
	for _, r := range a.Runways {
		if r.ID == id {
			return r, true
		}
	}
	return Runway{}, false
}

// ValidRoute reports whether every consecutive pair of the given nodes is
// connected by a traversable edge. An empty or single-node route is
// trivially valid (a stationary aircraft).
func (a *Airport) ValidRoute(nodes []NodeID) error {
	for _, n := range nodes {
		if _, ok := a.Node(n); !ok {
			return fmt.Errorf("route node %d: %w", n, ErrInvalidGraphReference)
		}
	}
	for i := 0; i+1 < len(nodes); i++ {
		if _, ok := a.EdgeBetween(nodes[i], nodes[i+1]); !ok {
			return fmt.Errorf("route nodes %d-%d not connected: %w", nodes[i], nodes[i+1],
				ErrInvalidGraphReference)
		}
	}
	return nil
}
