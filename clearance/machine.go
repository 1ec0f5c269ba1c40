// clearance/machine.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package clearance

import (
	"fmt"
	"time"
)

// Machine tracks one aircraft's clearances and enforces the invariant that
// it has at most one non-terminal clearance at a time. Machines are not
// safe for concurrent use; the coordinator serializes access.
type Machine struct {
	current *Clearance
}

// Current returns the aircraft's current clearance, which may be in a
// terminal state, or nil if none has ever been requested.
func (m *Machine) Current() *Clearance { return m.current }

// State returns the state of the current clearance; ok is false if there
// is none.
func (m *Machine) State() (State, bool) {
	if m.current == nil {
		return 0, false
	}
	return m.current.State, true
}

// Request files a new clearance request. Requesting the same type again
// while the previous request is still pending or granted is idempotent and
// returns the existing state; requesting a different type while another
// clearance is in progress is rejected.
func (m *Machine) Request(t Type, runway string, now time.Time) (State, error) {
	if m.current != nil && !m.current.State.Terminal() {
		if m.current.Type == t {
			return m.current.State, nil
		}
		return m.current.State, fmt.Errorf("%s clearance still %s: %w",
			m.current.Type, m.current.State, ErrTransitionRejected)
	}

	m.current = &Clearance{Type: t, State: Requested, Runway: runway, RequestedAt: now}
	return Requested, nil
}

// Transition attempts to move the current clearance to the given state.
// Transitions that don't match a legal edge, or whose type-specific guard
// fails, return ErrTransitionRejected and leave the state unchanged.
func (m *Machine) Transition(to State, ctx Context) error {
	if m.current == nil {
		return fmt.Errorf("no clearance requested: %w", ErrTransitionRejected)
	}
	if !legal(m.current.State, to) {
		return fmt.Errorf("%s: %s -> %s: %w", m.current.Type, m.current.State, to,
			ErrTransitionRejected)
	}
	if !m.current.guardOK(to, ctx) {
		return fmt.Errorf("%s: %s -> %s: guard failed: %w", m.current.Type,
			m.current.State, to, ErrTransitionRejected)
	}

	m.current.State = to
	return nil
}
