// clearance/machine_test.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package clearance

import (
	"errors"
	"testing"
	"time"
)

func TestRequestedRejectsDirectActive(t *testing.T) {
	var m Machine
	if _, err := m.Request(Taxi, "", time.Now()); err != nil {
		t.Fatal(err)
	}

	if err := m.Transition(Active, Context{}); !errors.Is(err, ErrTransitionRejected) {
		t.Errorf("expected ErrTransitionRejected, got %v", err)
	}
	if s, _ := m.State(); s != Requested {
		t.Errorf("state changed to %s after rejected transition", s)
	}
}

func TestNormalLifecycle(t *testing.T) {
	var m Machine
	if _, err := m.Request(Taxi, "", time.Now()); err != nil {
		t.Fatal(err)
	}
	for _, to := range []State{Granted, Active, Completed} {
		if err := m.Transition(to, Context{}); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}
	if s, _ := m.State(); s != Completed {
		t.Errorf("expected completed, got %s", s)
	}
	if err := m.Transition(Aborted, Context{}); !errors.Is(err, ErrTransitionRejected) {
		t.Errorf("expected terminal state to reject transitions, got %v", err)
	}
}

func TestTakeoffGuard(t *testing.T) {
	var m Machine
	if _, err := m.Request(Takeoff, "13", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(Granted, Context{}); err != nil {
		t.Fatal(err)
	}

	// Occupied runway: may not go active.
	err := m.Transition(Active, Context{RunwayClear: false, RouteEndsAtRunway: true})
	if !errors.Is(err, ErrTransitionRejected) {
		t.Errorf("expected guard rejection for occupied runway, got %v", err)
	}
	if s, _ := m.State(); s != Granted {
		t.Errorf("state changed to %s after guard rejection", s)
	}

	// Route doesn't end at the runway: may not go active.
	err = m.Transition(Active, Context{RunwayClear: true, RouteEndsAtRunway: false})
	if !errors.Is(err, ErrTransitionRejected) {
		t.Errorf("expected guard rejection for mismatched route, got %v", err)
	}

	if err := m.Transition(Active, Context{RunwayClear: true, RouteEndsAtRunway: true}); err != nil {
		t.Errorf("expected takeoff to go active with clear runway: %v", err)
	}
}

func TestIdempotentRequest(t *testing.T) {
	var m Machine
	if _, err := m.Request(Pushback, "", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(Granted, Context{}); err != nil {
		t.Fatal(err)
	}

	// Re-requesting the same type returns the existing state.
	s, err := m.Request(Pushback, "", time.Now())
	if err != nil || s != Granted {
		t.Errorf("expected idempotent request to return granted, got %s, %v", s, err)
	}

	// A different type while one is in progress is rejected.
	if _, err := m.Request(Takeoff, "13", time.Now()); !errors.Is(err, ErrTransitionRejected) {
		t.Errorf("expected second clearance type to be rejected, got %v", err)
	}
}

func TestAbortPaths(t *testing.T) {
	for _, from := range []State{Granted, Active} {
		var m Machine
		if _, err := m.Request(Taxi, "", time.Now()); err != nil {
			t.Fatal(err)
		}
		if err := m.Transition(Granted, Context{}); err != nil {
			t.Fatal(err)
		}
		if from == Active {
			if err := m.Transition(Active, Context{}); err != nil {
				t.Fatal(err)
			}
		}
		if err := m.Transition(Aborted, Context{}); err != nil {
			t.Errorf("abort from %s: %v", from, err)
		}
	}

	// But not from Requested.
	var m Machine
	if _, err := m.Request(Taxi, "", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(Aborted, Context{}); !errors.Is(err, ErrTransitionRejected) {
		t.Errorf("expected abort from requested to be rejected, got %v", err)
	}
}
