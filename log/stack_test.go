// log/stack_test.go
// Copyright(c) 2025-2026 groundctl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import "testing"

func TestCallstack(t *testing.T) {
	// Both with and without a caller-provided slice; a zero-length slice
	// with spare capacity must be re-extended, not indexed out of range.
	for _, buf := range [][]StackFrame{nil, make([]StackFrame, 0, 32)} {
		frames := Callstack(buf)
		if len(frames) == 0 {
			t.Fatal("expected at least one stack frame")
		}
		for _, f := range frames {
			if f.File == "" || f.Line == 0 {
				t.Errorf("incomplete frame: %s", f)
			}
		}
	}
}
