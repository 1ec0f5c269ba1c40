// ops/errors.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ops

import (
	"errors"
)

var (
	ErrNoClearance        = errors.New("No clearance on file")
	ErrNoRoute            = errors.New("No route assigned")
	ErrUnknownAircraft    = errors.New("Unknown aircraft")
	ErrUnknownDestination = errors.New("Unknown destination")
)
