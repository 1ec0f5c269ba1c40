// math/polygon.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"errors"
	"fmt"
)

var ErrDegenerateGeometry = errors.New("degenerate polygon geometry")

// Polygon is a convex polygon, vertices in counter-clockwise order with no
// repeat of the first vertex at the end. Construction goes through
// MakePolygon, which rejects degenerate input, so all Polygon values have
// non-zero area and well-defined edge normals for the separating axis
// test.
type Polygon struct {
	Verts [][2]float32
}

// MakePolygon validates the provided vertices and returns the
// corresponding Polygon. Vertices may be given in either winding order;
// clockwise input is reversed. Degenerate input (fewer than 3 vertices,
// zero area, or a concave chain) gets ErrDegenerateGeometry.
func MakePolygon(verts [][2]float32) (Polygon, error) {
	if len(verts) < 3 {
		return Polygon{}, fmt.Errorf("%d vertices: %w", len(verts), ErrDegenerateGeometry)
	}

	v := make([][2]float32, len(verts))
	copy(v, verts)
	if signedArea(v) < 0 {
		for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
			v[i], v[j] = v[j], v[i]
		}
	}

	if a := signedArea(v); a < 1e-6 {
		return Polygon{}, fmt.Errorf("area %g: %w", a, ErrDegenerateGeometry)
	}

	// Convexity: all cross products of consecutive edges must be
	// non-negative for a CCW chain.
	n := len(v)
	for i := 0; i < n; i++ {
		e0 := Sub2f(v[(i+1)%n], v[i])
		e1 := Sub2f(v[(i+2)%n], v[(i+1)%n])
		if Cross2f(e0, e1) < 0 {
			return Polygon{}, fmt.Errorf("concave at vertex %d: %w", (i+1)%n, ErrDegenerateGeometry)
		}
	}

	return Polygon{Verts: v}, nil
}

// signedArea computes the shoelace area; positive for counter-clockwise
// winding.
func signedArea(verts [][2]float32) float32 {
	var sum float32
	n := len(verts)
	for i := 0; i < n; i++ {
		sum += Cross2f(verts[i], verts[(i+1)%n])
	}
	return sum / 2
}

func (p Polygon) Area() float32 {
	return signedArea(p.Verts)
}

func (p Polygon) Centroid() [2]float32 {
	var c [2]float32
	for _, v := range p.Verts {
		c = Add2f(c, v)
	}
	return Scale2f(c, 1/float32(len(p.Verts)))
}

// BoundingRadius returns the radius of the smallest circle centered at the
// centroid that contains the polygon.
func (p Polygon) BoundingRadius() float32 {
	c := p.Centroid()
	var r float32
	for _, v := range p.Verts {
		r = max(r, Distance2f(c, v))
	}
	return r
}

func (p Polygon) Bounds() Extent2D {
	return Extent2DFromPoints(p.Verts)
}

// Place returns the polygon translated to the given position and rotated
// to the given compass heading; the receiver is treated as a canonical
// footprint centered at the origin with its nose along +y.
func (p Polygon) Place(pos [2]float32, heading float32) Polygon {
	rot := Rotator2f(heading)
	verts := make([][2]float32, len(p.Verts))
	for i, v := range p.Verts {
		verts[i] = Add2f(pos, rot(v))
	}
	return Polygon{Verts: verts}
}

// CirclesOverlap returns whether the two circles overlap; it is used as a
// cheap pre-filter before the full polygon intersection test.
func CirclesOverlap(ca [2]float32, ra float32, cb [2]float32, rb float32) bool {
	d := Sub2f(ca, cb)
	return Dot(d, d) <= Sqr(ra+rb)
}

// PolygonsIntersect implements the separating axis test for two convex
// polygons: they do not intersect iff there is an edge normal of either
// polygon onto which their projections do not overlap. The test
// short-circuits as soon as a separating axis is found. It is symmetric in
// its arguments by construction.
func PolygonsIntersect(a, b Polygon) bool {
	// Bounding boxes first; the axes are rejected one comparison each.
	if !Overlaps(a.Bounds(), b.Bounds()) {
		return false
	}
	return !hasSeparatingAxis(a, b) && !hasSeparatingAxis(b, a)
}

// hasSeparatingAxis checks the edge normals of a against both polygons.
func hasSeparatingAxis(a, b Polygon) bool {
	n := len(a.Verts)
	for i := 0; i < n; i++ {
		edge := Sub2f(a.Verts[(i+1)%n], a.Verts[i])
		axis := Perp2f(edge)

		amin, amax := projectOntoAxis(a.Verts, axis)
		bmin, bmax := projectOntoAxis(b.Verts, axis)
		if amax < bmin || bmax < amin {
			return true
		}
	}
	return false
}

func projectOntoAxis(verts [][2]float32, axis [2]float32) (pmin, pmax float32) {
	pmin = Dot(verts[0], axis)
	pmax = pmin
	for _, v := range verts[1:] {
		p := Dot(v, axis)
		pmin = min(pmin, p)
		pmax = max(pmax, p)
	}
	return
}

// PolygonSeparation returns the minimum distance between the two convex
// polygons, or 0 if they intersect. It considers each vertex of one
// against each edge of the other; for convex polygons that covers the
// closest features.
func PolygonSeparation(a, b Polygon) float32 {
	if PolygonsIntersect(a, b) {
		return 0
	}

	sep := float32(1e30)
	edgeDist := func(p Polygon, q Polygon) {
		n := len(q.Verts)
		for _, v := range p.Verts {
			for i := 0; i < n; i++ {
				d := PointSegmentDistance(v, q.Verts[i], q.Verts[(i+1)%n])
				sep = min(sep, d)
			}
		}
	}
	edgeDist(a, b)
	edgeDist(b, a)
	return sep
}
