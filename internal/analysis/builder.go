// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

package analysis

import (
	"errors"
	"fmt"
	"sort"
)

// =============================================================================
// TREE BUILDER
// =============================================================================

// Build errors.
var (
	// ErrZeroTimestamp is returned when a record carries no usable timestamp.
	ErrZeroTimestamp = errors.New("record has a zero timestamp")

	// ErrDuplicateRecord is returned when two records share an ID. IDs must
	// be unique so enabled bits and the export filter stay unambiguous.
	ErrDuplicateRecord = errors.New("duplicate record ID")

	// ErrNegativeCost is returned when a cost provider produced a negative
	// cost for a record.
	ErrNegativeCost = errors.New("record has a negative cost")
)

// Build partitions records into the Root/Year/Month/Day hierarchy and
// computes raw aggregates bottom-up. Input order is irrelevant; records are
// sorted by timestamp (then ID, for records in the same instant).
//
// priorBits carries enabled bits across rebuilds, keyed by record ID. A
// record absent from the map defaults to enabled. Pass nil on first build.
//
// Build fails atomically: on any error no tree is produced and the caller's
// previously installed tree stays untouched. An empty record slice is not an
// error; it yields a tree with a single root node and zero totals.
//
// Timestamps are taken at face value. Whatever timezone policy applies must
// be resolved by the message source before records reach the builder.
func Build(records []Record, priorBits map[string]bool) (*Tree, error) {
	for i := range records {
		if records[i].Timestamp.IsZero() {
			return nil, fmt.Errorf("%w: %s", ErrZeroTimestamp, records[i].ID)
		}
		if records[i].Cost < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNegativeCost, records[i].ID)
		}
	}

	seen := make(map[string]struct{}, len(records))
	for i := range records {
		if _, dup := seen[records[i].ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRecord, records[i].ID)
		}
		seen[records[i].ID] = struct{}{}
	}

	// Sort a copy; the caller's slice is left alone.
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].ID < sorted[j].ID
	})

	t := &Tree{nodes: make([]node, 1, 1+len(sorted)/4)}
	t.nodes[rootIndex] = node{level: LevelRoot, parent: noParent}

	// A single chronological pass creates year/month/day nodes as the date
	// components change. Sorted input guarantees each node is created once.
	curYear, curMonth, curDay := -1, -1, -1
	for i := range sorted {
		rec := &sorted[i]
		y, m, d := rec.Timestamp.Date()

		if y != curYear {
			curYear, curMonth, curDay = y, -1, -1
			t.appendNode(rootIndex, LevelYear, TimeKey{Year: y})
		}
		if int(m) != curMonth {
			curMonth, curDay = int(m), -1
			t.appendNode(t.lastChild(rootIndex), LevelMonth, TimeKey{Year: y, Month: int(m)})
		}
		if d != curDay {
			curDay = d
			yearIdx := t.lastChild(rootIndex)
			t.appendNode(t.lastChild(yearIdx), LevelDay, TimeKey{Year: y, Month: int(m), Day: d})
		}

		enabled := true
		if prior, ok := priorBits[rec.ID]; ok {
			enabled = prior
		}

		dayIdx := t.lastChild(t.lastChild(t.lastChild(rootIndex)))
		t.nodes[dayIdx].records = append(t.nodes[dayIdx].records, leafRecord{
			id:        rec.ID,
			timestamp: rec.Timestamp,
			cost:      rec.Cost,
			enabled:   enabled,
		})
	}

	t.aggregate(rootIndex)
	return t, nil
}

// appendNode adds a child node under parent and returns its index.
func (t *Tree) appendNode(parent int, level Level, key TimeKey) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{level: level, key: key, parent: parent})
	t.nodes[parent].children = append(t.nodes[parent].children, idx)
	return idx
}

// lastChild returns the most recently appended child of a node.
func (t *Tree) lastChild(idx int) int {
	children := t.nodes[idx].children
	return children[len(children)-1]
}

// aggregate computes all four aggregates bottom-up for the subtree at idx.
func (t *Tree) aggregate(idx int) {
	n := &t.nodes[idx]

	if n.level == LevelDay {
		for i := range n.records {
			rec := &n.records[i]
			n.totalLeafCount++
			n.totalRawCost += rec.cost
			if rec.enabled {
				n.enabledLeafCount++
				n.enabledCost += rec.cost
			}
		}
		return
	}

	for _, child := range n.children {
		t.aggregate(child)
		c := &t.nodes[child]
		n.totalLeafCount += c.totalLeafCount
		n.totalRawCost += c.totalRawCost
		n.enabledLeafCount += c.enabledLeafCount
		n.enabledCost += c.enabledCost
	}
}
