// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

package analysis

// =============================================================================
// EXPORT FILTER EXTRACTION
// =============================================================================

// IncludedRecordIDs returns the set of record IDs whose enabled bit is
// currently true, read from the same per-leaf bits the toggle operations
// maintain. There is no separate bookkeeping, so the returned set always
// matches the contributing set of TotalExportCost exactly.
//
// The set reflects the tree at the moment of the call; after any toggle or
// rebuild the caller must request it again.
func (e *Engine) IncludedRecordIDs() map[string]bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	included := make(map[string]bool, e.tree.nodes[rootIndex].enabledLeafCount)
	for i := range e.tree.nodes {
		n := &e.tree.nodes[i]
		if n.level != LevelDay {
			continue
		}
		for j := range n.records {
			if n.records[j].enabled {
				included[n.records[j].id] = true
			}
		}
	}
	return included
}

// DisabledRecordIDs returns the IDs of every currently disabled record, in
// tree order. This is what the toggle store persists: enabled is the default,
// so only exclusions need to be written down.
func (e *Engine) DisabledRecordIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	root := &e.tree.nodes[rootIndex]
	disabled := make([]string, 0, root.totalLeafCount-root.enabledLeafCount)
	for i := range e.tree.nodes {
		n := &e.tree.nodes[i]
		if n.level != LevelDay {
			continue
		}
		for j := range n.records {
			if !n.records[j].enabled {
				disabled = append(disabled, n.records[j].id)
			}
		}
	}
	return disabled
}
