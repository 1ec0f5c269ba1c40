// airport/wind.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package airport

import (
	"fmt"

	"groundctl/math"
)

// WindVector is the current surface wind: the direction the wind is
// blowing from, in degrees true, and its speed in knots.
type WindVector struct {
	Direction float32 `json:"direction"`
	Speed     float32 `json:"speed"`
}

// Headwind returns the headwind component in knots for an aircraft on the
// given heading; negative values are a tailwind.
func (w WindVector) Headwind(heading float32) float32 {
	return w.Speed * math.Cos(math.Radians(w.Direction-heading))
}

// Crosswind returns the magnitude of the crosswind component in knots for
// an aircraft on the given heading.
func (w WindVector) Crosswind(heading float32) float32 {
	return math.Abs(w.Speed * math.Sin(math.Radians(w.Direction-heading)))
}

func (w WindVector) String() string {
	return fmt.Sprintf("%03d@%d", int(math.NormalizeHeading(w.Direction)), int(w.Speed))
}
