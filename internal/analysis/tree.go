// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package analysis provides the calendar aggregation tree for chat analysis.
package analysis

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// LEVELS AND TRI-STATE
// =============================================================================

// Level identifies a node's depth in the calendar hierarchy.
type Level int

const (
	LevelRoot Level = iota
	LevelYear
	LevelMonth
	LevelDay
)

// String returns a human-readable level name.
func (l Level) String() string {
	switch l {
	case LevelRoot:
		return "root"
	case LevelYear:
		return "year"
	case LevelMonth:
		return "month"
	case LevelDay:
		return "day"
	default:
		return "unknown"
	}
}

// TriState is a node's derived display state, computed from its enabled
// vs. total leaf counts. It is never stored; see node.state().
type TriState int

const (
	// StateNone means no leaf record under the node is enabled.
	StateNone TriState = iota
	// StatePartial means some, but not all, leaf records are enabled.
	StatePartial
	// StateAll means every leaf record under the node is enabled.
	StateAll
)

// String returns a human-readable state name.
func (s TriState) String() string {
	switch s {
	case StateNone:
		return "none"
	case StatePartial:
		return "partial"
	case StateAll:
		return "all"
	default:
		return "unknown"
	}
}

// =============================================================================
// TIME KEYS
// =============================================================================

// TimeKey orders and identifies a node within the calendar hierarchy.
// Year nodes use Year only; month nodes Year+Month; day nodes all three.
// The root's key is the zero value.
type TimeKey struct {
	Year  int
	Month int // 1-12, zero above month level
	Day   int // 1-31, zero above day level
}

// Less reports whether k sorts before o chronologically.
func (k TimeKey) Less(o TimeKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	if k.Month != o.Month {
		return k.Month < o.Month
	}
	return k.Day < o.Day
}

// String formats the key as "2024", "2024-01" or "2024-01-02" depending on
// which components are set.
func (k TimeKey) String() string {
	switch {
	case k.Day != 0:
		return fmt.Sprintf("%04d-%02d-%02d", k.Year, k.Month, k.Day)
	case k.Month != 0:
		return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
	case k.Year != 0:
		return fmt.Sprintf("%04d", k.Year)
	default:
		return "total"
	}
}

// =============================================================================
// RECORDS
// =============================================================================

// Record is one costed leaf supplied to the builder: a single chat message
// with its timestamp and the cost assigned by the active cost provider.
type Record struct {
	ID        string
	Timestamp time.Time
	Cost      int64
}

// leafRecord is a record as stored inside a day node, tagged with its
// enabled bit.
type leafRecord struct {
	id        string
	timestamp time.Time
	cost      int64
	enabled   bool
}

// RecordView is the read-only per-record view returned by RecordsOfDay.
type RecordView struct {
	ID        string
	Timestamp time.Time
	Cost      int64
	Enabled   bool
}

// =============================================================================
// NODES AND ARENA
// =============================================================================

// noParent marks the root's parent index.
const noParent = -1

// node is one entry in the tree arena. Parent and child links are indices,
// not pointers, so a rebuild invalidates the whole arena in one swap.
type node struct {
	level    Level
	key      TimeKey
	parent   int
	children []int // ascending by key

	// Only day nodes own records, in chronological order.
	records []leafRecord

	// Fixed at build time.
	totalLeafCount int
	totalRawCost   int64

	// Maintained by every toggle.
	enabledLeafCount int
	enabledCost      int64
}

// state derives the tri-state from the leaf counts.
func (n *node) state() TriState {
	switch {
	case n.enabledLeafCount == 0:
		if n.totalLeafCount == 0 {
			// An empty root (no records at all) displays as fully enabled.
			return StateAll
		}
		return StateNone
	case n.enabledLeafCount == n.totalLeafCount:
		return StateAll
	default:
		return StatePartial
	}
}

// Tree is one immutable-shape build of the calendar hierarchy. Node shape and
// raw aggregates never change after Build; enabled bits and enabled aggregates
// are mutated in place by toggles. The engine owns the tree exclusively.
type Tree struct {
	// generation identifies this build. NodeRefs are bound to it and become
	// stale when a rebuild installs a tree with a higher generation.
	generation uint64

	// revision increments on every toggle so renderers can detect stale
	// snapshots without comparing contents.
	revision uint64

	nodes []node
}

// rootIndex is always 0: the builder appends the root first.
const rootIndex = 0

// =============================================================================
// NODE REFERENCES
// =============================================================================

// NodeRef is an opaque handle to a node in a specific tree generation.
// Refs do not outlive a rebuild; callers must re-fetch them afterwards.
type NodeRef struct {
	generation uint64
	index      int
}

// IsZero reports whether the ref has never been assigned.
func (r NodeRef) IsZero() bool {
	return r.generation == 0
}

// Version identifies the engine's current tree state.
// Generation changes on rebuild, Revision on every toggle.
type Version struct {
	Generation uint64
	Revision   uint64
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrStaleRef is returned when a NodeRef from a superseded tree
	// generation is used. The caller must re-fetch refs from a fresh
	// snapshot and retry.
	ErrStaleRef = errors.New("node reference is from a superseded tree")

	// ErrInvalidRef is returned for refs that do not address any node.
	ErrInvalidRef = errors.New("invalid node reference")

	// ErrNotADay is returned when a day-only operation is applied to a
	// higher-level node.
	ErrNotADay = errors.New("node is not a day node")

	// ErrNotAChild is returned by Navigator.ZoomIn when the target is not a
	// direct child of the current focus.
	ErrNotAChild = errors.New("node is not a child of the current focus")

	// ErrRecordNotFound is returned when a record ID does not occur on the
	// given day.
	ErrRecordNotFound = errors.New("record not found on day")
)
