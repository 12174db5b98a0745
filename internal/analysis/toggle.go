// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

package analysis

// =============================================================================
// TOGGLE OPERATIONS
// =============================================================================
//
// Toggles are the only mutation the live tree sees between rebuilds. Both
// operations follow the same shape: flip bits at the leaves, set the toggled
// node's enabled aggregates directly, then walk parent links to the root
// applying the exact delta. The ancestor walk is O(depth) because the
// subtree's totals are known before the flip; nothing is ever re-summed.
//
// Policy: toggling an internal node is a bulk overwrite. Every leaf under it
// is set to the target state, discarding any per-record overrides made
// earlier within that subtree. A record toggled off individually and then
// caught by an ancestor "enable all" comes back enabled.

// ToggleSubtree flips a node and its entire subtree. If the node's derived
// state is All, every leaf under it is disabled; otherwise (None or Partial)
// every leaf is enabled. Returns the node's new tri-state.
//
// The tree revision increments, so snapshots taken before the toggle report
// as stale. Node refs stay valid: only rebuilds invalidate refs.
func (e *Engine) ToggleSubtree(ref NodeRef) (TriState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, err := e.resolve(ref)
	if err != nil {
		return StateNone, err
	}

	n := &e.tree.nodes[idx]
	target := n.state() != StateAll

	oldCount, oldCost := n.enabledLeafCount, n.enabledCost
	e.tree.overwriteSubtree(idx, target)
	e.tree.applyAncestorDelta(idx, n.enabledLeafCount-oldCount, n.enabledCost-oldCost)

	e.tree.revision++
	return n.state(), nil
}

// ToggleRecord flips the enabled bit of a single record on the given day,
// adjusting the day's aggregates and every ancestor's by the record's exact
// cost. Returns the record's new enabled bit.
func (e *Engine) ToggleRecord(day NodeRef, recordID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx, err := e.resolve(day)
	if err != nil {
		return false, err
	}
	n := &e.tree.nodes[idx]
	if n.level != LevelDay {
		return false, ErrNotADay
	}

	for i := range n.records {
		rec := &n.records[i]
		if rec.id != recordID {
			continue
		}

		rec.enabled = !rec.enabled
		deltaCount, deltaCost := 1, rec.cost
		if !rec.enabled {
			deltaCount, deltaCost = -1, -rec.cost
		}
		n.enabledLeafCount += deltaCount
		n.enabledCost += deltaCost
		e.tree.applyAncestorDelta(idx, deltaCount, deltaCost)

		e.tree.revision++
		return rec.enabled, nil
	}
	return false, ErrRecordNotFound
}

// overwriteSubtree sets every record bit under idx to target and snaps each
// node's enabled aggregates to all-or-nothing. Ancestors of idx are not
// touched here.
func (t *Tree) overwriteSubtree(idx int, target bool) {
	n := &t.nodes[idx]

	if n.level == LevelDay {
		for i := range n.records {
			n.records[i].enabled = target
		}
	} else {
		for _, child := range n.children {
			t.overwriteSubtree(child, target)
		}
	}

	if target {
		n.enabledLeafCount = n.totalLeafCount
		n.enabledCost = n.totalRawCost
	} else {
		n.enabledLeafCount = 0
		n.enabledCost = 0
	}
}

// applyAncestorDelta walks from idx's parent up to the root, applying the
// already-computed enabled delta at each level.
func (t *Tree) applyAncestorDelta(idx int, deltaCount int, deltaCost int64) {
	for p := t.nodes[idx].parent; p != noParent; p = t.nodes[p].parent {
		t.nodes[p].enabledLeafCount += deltaCount
		t.nodes[p].enabledCost += deltaCost
	}
}
