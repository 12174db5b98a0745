// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

package analysis

import (
	"errors"
	"testing"
	"time"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

func mkTime(y, m, d, h int) time.Time {
	return time.Date(y, time.Month(m), d, h, 0, 0, 0, time.UTC)
}

// fixtureRecords spans two calendar years, three months and five days.
// Total raw cost is 315.
func fixtureRecords() []Record {
	return []Record{
		{ID: "1", Timestamp: mkTime(2023, 12, 31, 10), Cost: 5},
		{ID: "2", Timestamp: mkTime(2024, 1, 1, 9), Cost: 10},
		{ID: "3", Timestamp: mkTime(2024, 1, 1, 12), Cost: 20},
		{ID: "4", Timestamp: mkTime(2024, 1, 2, 8), Cost: 40},
		{ID: "5", Timestamp: mkTime(2024, 3, 15, 8), Cost: 80},
		{ID: "6", Timestamp: mkTime(2025, 7, 4, 8), Cost: 160},
	}
}

func newFixtureEngine(t *testing.T) *Engine {
	t.Helper()
	tree, err := Build(fixtureRecords(), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	e := NewEngine()
	e.Install(tree)
	return e
}

// findChild locates a direct child of parent by its formatted key.
func findChild(t *testing.T, e *Engine, parent NodeRef, key string) NodeRef {
	t.Helper()
	snap, err := e.Snapshot(parent)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	for _, c := range snap.Children {
		if c.Key.String() == key {
			return c.Ref
		}
	}
	t.Fatalf("child %q not found under %v", key, parent)
	return NodeRef{}
}

// descend follows a key path from the root.
func descend(t *testing.T, e *Engine, keys ...string) NodeRef {
	t.Helper()
	ref := e.Root()
	for _, k := range keys {
		ref = findChild(t, e, ref, k)
	}
	return ref
}

// =============================================================================
// BUILD TESTS
// =============================================================================

func TestBuild_CalendarShape(t *testing.T) {
	e := newFixtureEngine(t)

	root, err := e.Snapshot(e.Root())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(root.Children) != 3 {
		t.Fatalf("Expected 3 year nodes, got %d", len(root.Children))
	}

	// Years in chronological order
	wantYears := []string{"2023", "2024", "2025"}
	for i, c := range root.Children {
		if c.Key.String() != wantYears[i] {
			t.Errorf("Year %d: got %s, want %s", i, c.Key.String(), wantYears[i])
		}
		if c.Level != LevelYear {
			t.Errorf("Year %d: wrong level %v", i, c.Level)
		}
	}

	y2024, err := e.Snapshot(root.Children[1].Ref)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	wantMonths := []string{"2024-01", "2024-03"}
	if len(y2024.Children) != len(wantMonths) {
		t.Fatalf("Expected %d months under 2024, got %d", len(wantMonths), len(y2024.Children))
	}
	for i, c := range y2024.Children {
		if c.Key.String() != wantMonths[i] {
			t.Errorf("Month %d: got %s, want %s", i, c.Key.String(), wantMonths[i])
		}
	}

	jan := descend(t, e, "2024", "2024-01", "2024-01-01")
	recs, err := e.RecordsOfDay(jan)
	if err != nil {
		t.Fatalf("RecordsOfDay failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("Expected 2 records on 2024-01-01, got %d", len(recs))
	}
	if recs[0].ID != "2" || recs[1].ID != "3" {
		t.Errorf("Records out of order: %s, %s", recs[0].ID, recs[1].ID)
	}
}

func TestBuild_RawAggregates(t *testing.T) {
	e := newFixtureEngine(t)

	if got := e.TotalRawCost(); got != 315 {
		t.Errorf("Root raw cost: got %d, want 315", got)
	}

	sum, err := e.NodeSummary(descend(t, e, "2024"))
	if err != nil {
		t.Fatalf("NodeSummary failed: %v", err)
	}
	if sum.TotalRawCost != 150 {
		t.Errorf("2024 raw cost: got %d, want 150", sum.TotalRawCost)
	}

	sum, err = e.NodeSummary(descend(t, e, "2024", "2024-01"))
	if err != nil {
		t.Fatalf("NodeSummary failed: %v", err)
	}
	if sum.TotalRawCost != 70 {
		t.Errorf("2024-01 raw cost: got %d, want 70", sum.TotalRawCost)
	}
}

func TestBuild_AllEnabledByDefault(t *testing.T) {
	e := newFixtureEngine(t)

	if got := e.TotalExportCost(); got != 315 {
		t.Errorf("Export cost: got %d, want 315 (everything enabled)", got)
	}
	sum, err := e.NodeSummary(e.Root())
	if err != nil {
		t.Fatalf("NodeSummary failed: %v", err)
	}
	if sum.State != StateAll {
		t.Errorf("Root state: got %v, want all", sum.State)
	}
}

func TestBuild_UnsortedInput(t *testing.T) {
	recs := fixtureRecords()
	// Reverse the input; the tree must come out identical.
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}

	tree, err := Build(recs, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	e := NewEngine()
	e.Install(tree)

	snap, err := e.Snapshot(e.Root())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Children) != 3 || snap.Children[0].Key.String() != "2023" {
		t.Errorf("Unsorted input produced wrong year ordering")
	}
	if e.TotalRawCost() != 315 {
		t.Errorf("Raw total: got %d, want 315", e.TotalRawCost())
	}
}

func TestBuild_PriorBits(t *testing.T) {
	bits := map[string]bool{
		"2": false,
		"5": false,
		// "ghost" belongs to no record and must be ignored
		"ghost": false,
	}
	tree, err := Build(fixtureRecords(), bits)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	e := NewEngine()
	e.Install(tree)

	// 315 - 10 - 80
	if got := e.TotalExportCost(); got != 225 {
		t.Errorf("Export cost with prior bits: got %d, want 225", got)
	}

	sum, err := e.NodeSummary(descend(t, e, "2024", "2024-03"))
	if err != nil {
		t.Fatalf("NodeSummary failed: %v", err)
	}
	if sum.State != StateNone {
		t.Errorf("2024-03 state: got %v, want none", sum.State)
	}

	sum, err = e.NodeSummary(e.Root())
	if err != nil {
		t.Fatalf("NodeSummary failed: %v", err)
	}
	if sum.State != StatePartial {
		t.Errorf("Root state: got %v, want partial", sum.State)
	}
}

func TestBuild_Empty(t *testing.T) {
	tree, err := Build(nil, nil)
	if err != nil {
		t.Fatalf("Empty build failed: %v", err)
	}
	e := NewEngine()
	e.Install(tree)

	snap, err := e.Snapshot(e.Root())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Children) != 0 {
		t.Errorf("Empty tree has %d children", len(snap.Children))
	}
	sum, err := e.NodeSummary(e.Root())
	if err != nil {
		t.Fatalf("NodeSummary failed: %v", err)
	}
	if sum.State != StateAll {
		t.Errorf("Empty root state: got %v, want all", sum.State)
	}
	if e.TotalExportCost() != 0 {
		t.Errorf("Empty export cost: got %d", e.TotalExportCost())
	}
}

func TestBuild_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		wantErr error
	}{
		{
			name:    "zero timestamp",
			records: []Record{{ID: "1", Timestamp: time.Time{}, Cost: 1}},
			wantErr: ErrZeroTimestamp,
		},
		{
			name: "duplicate id",
			records: []Record{
				{ID: "1", Timestamp: mkTime(2024, 1, 1, 0), Cost: 1},
				{ID: "1", Timestamp: mkTime(2024, 1, 2, 0), Cost: 2},
			},
			wantErr: ErrDuplicateRecord,
		},
		{
			name:    "negative cost",
			records: []Record{{ID: "1", Timestamp: mkTime(2024, 1, 1, 0), Cost: -1}},
			wantErr: ErrNegativeCost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.records, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Build error: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}
