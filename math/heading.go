// math/heading.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

///////////////////////////////////////////////////////////////////////////
// headings and directions

// Headings are expressed in degrees from true north, increasing clockwise,
// over a locally-projected 2D plane where +x is east and +y is north.

// HeadingVector returns the unit direction vector for the given compass
// heading.
func HeadingVector(heading float32) [2]float32 {
	r := Radians(heading)
	return [2]float32{Sin(r), Cos(r)}
}

// VectorHeading returns the compass heading that the vector v points
// toward.
func VectorHeading(v [2]float32) float32 {
	// Note that atan2() normally measures w.r.t. the +x axis and angles
	// are positive for counter-clockwise. We want to measure w.r.t. +y and
	// to have positive angles be clockwise. Happily, swapping the order of
	// values passed to atan2()--passing (x,y), gives what we want.
	return NormalizeHeading(Degrees(Atan2(v[0], v[1])))
}

// Heading2f returns the compass heading from the point from to the point to.
func Heading2f(from, to [2]float32) float32 {
	return VectorHeading(Sub2f(to, from))
}

// HeadingDifference returns the minimum difference between two
// headings. (i.e., the result is always in the range [0,180].)
func HeadingDifference(a float32, b float32) float32 {
	var d float32
	if a > b {
		d = a - b
	} else {
		d = b - a
	}
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Reduces it to [0,360).
func NormalizeHeading(h float32) float32 {
	if h < 0 {
		return 360 - NormalizeHeading(-h)
	}
	return Mod(h, 360)
}

func OppositeHeading(h float32) float32 {
	return NormalizeHeading(h + 180)
}
