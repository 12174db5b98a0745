// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

package analysis

import (
	"errors"
	"testing"
)

func TestNavigator_ZoomPath(t *testing.T) {
	e := newFixtureEngine(t)
	nav := NewNavigator(e)

	if nav.Depth() != 0 {
		t.Fatalf("Fresh navigator depth: got %d, want 0", nav.Depth())
	}
	if nav.Focus() != e.Root() {
		t.Fatal("Fresh navigator should focus the root")
	}

	year := descend(t, e, "2024")
	if err := nav.ZoomIn(year); err != nil {
		t.Fatalf("ZoomIn(year) failed: %v", err)
	}
	month := findChild(t, e, year, "2024-01")
	if err := nav.ZoomIn(month); err != nil {
		t.Fatalf("ZoomIn(month) failed: %v", err)
	}
	day := findChild(t, e, month, "2024-01-02")
	if err := nav.ZoomIn(day); err != nil {
		t.Fatalf("ZoomIn(day) failed: %v", err)
	}

	if nav.Depth() != 3 {
		t.Errorf("Depth: got %d, want 3", nav.Depth())
	}
	path := nav.Path()
	if len(path) != 4 || path[0] != e.Root() || path[3] != day {
		t.Errorf("Path wrong: %v", path)
	}

	nav.ZoomOut()
	if nav.Focus() != month {
		t.Error("ZoomOut should return to the month")
	}
	nav.ZoomOut()
	nav.ZoomOut()
	if nav.Depth() != 0 {
		t.Errorf("Depth after zooming all the way out: got %d", nav.Depth())
	}

	// Root is the floor.
	nav.ZoomOut()
	if nav.Depth() != 0 || nav.Focus() != e.Root() {
		t.Error("ZoomOut at root must be a no-op")
	}
}

func TestNavigator_RejectsNonChild(t *testing.T) {
	e := newFixtureEngine(t)
	nav := NewNavigator(e)

	// A grandchild is not a direct child.
	month := descend(t, e, "2024", "2024-01")
	if err := nav.ZoomIn(month); !errors.Is(err, ErrNotAChild) {
		t.Errorf("ZoomIn(grandchild): got %v, want ErrNotAChild", err)
	}
	if nav.Depth() != 0 {
		t.Error("Failed ZoomIn must not move the focus")
	}

	// A sibling is not a child either.
	year := descend(t, e, "2024")
	if err := nav.ZoomIn(year); err != nil {
		t.Fatalf("ZoomIn(year) failed: %v", err)
	}
	other := descend(t, e, "2023")
	if err := nav.ZoomIn(other); !errors.Is(err, ErrNotAChild) {
		t.Errorf("ZoomIn(sibling): got %v, want ErrNotAChild", err)
	}
}

func TestNavigator_StalePathAfterRebuild(t *testing.T) {
	e := newFixtureEngine(t)
	nav := NewNavigator(e)

	if err := nav.ZoomIn(descend(t, e, "2024")); err != nil {
		t.Fatalf("ZoomIn failed: %v", err)
	}

	tree, err := Build(fixtureRecords(), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	e.Install(tree)

	// Any navigation against the stale path fails until Reset.
	child := descend(t, e, "2024") // fresh ref, stale focus
	if err := nav.ZoomIn(child); !errors.Is(err, ErrStaleRef) {
		t.Errorf("ZoomIn on stale path: got %v, want ErrStaleRef", err)
	}

	nav.Reset()
	if nav.Depth() != 0 || nav.Focus() != e.Root() {
		t.Error("Reset should re-anchor to the fresh root")
	}
	if err := nav.ZoomIn(descend(t, e, "2024")); err != nil {
		t.Errorf("ZoomIn after Reset failed: %v", err)
	}
}
