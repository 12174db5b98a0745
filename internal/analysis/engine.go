// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

package analysis

import (
	"sync"
)

// =============================================================================
// AGGREGATION ENGINE
// =============================================================================

// Engine owns the single live tree. Reads take a shared lock; toggles and
// installs take the exclusive lock. The engine never recomputes aggregates
// itself: Build fixes the raw aggregates and the toggle operations maintain
// the enabled aggregates incrementally.
type Engine struct {
	mu      sync.RWMutex
	tree    *Tree
	nextGen uint64
}

// NewEngine creates an engine serving an empty tree (root only, zero totals)
// until the first real build is installed.
func NewEngine() *Engine {
	e := &Engine{}
	empty, err := Build(nil, nil)
	if err != nil {
		// Build of zero records cannot fail.
		panic("analysis: empty build failed: " + err.Error())
	}
	e.Install(empty)
	return e
}

// Install atomically replaces the live tree with a fully-built one and stamps
// it with the next generation. All NodeRefs handed out before Install become
// stale. The previous tree is discarded.
func (e *Engine) Install(t *Tree) Version {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextGen++
	t.generation = e.nextGen
	t.revision = 0
	e.tree = t

	return Version{Generation: t.generation, Revision: t.revision}
}

// Version returns the current tree version. Renderers compare this against
// the version captured with their last snapshot to detect staleness.
func (e *Engine) Version() Version {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Version{Generation: e.tree.generation, Revision: e.tree.revision}
}

// Root returns a ref to the current tree's root node.
func (e *Engine) Root() NodeRef {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return NodeRef{generation: e.tree.generation, index: rootIndex}
}

// resolve validates a ref against the current tree and returns its index.
// Callers must hold at least the read lock.
func (e *Engine) resolve(ref NodeRef) (int, error) {
	if ref.generation != e.tree.generation {
		return 0, ErrStaleRef
	}
	if ref.index < 0 || ref.index >= len(e.tree.nodes) {
		return 0, ErrInvalidRef
	}
	return ref.index, nil
}

// =============================================================================
// SNAPSHOT QUERIES
// =============================================================================

// ChildSummary is one row of a snapshot: the numeric and tri-state view of a
// single child node, ready for a renderer.
type ChildSummary struct {
	Ref          NodeRef
	Level        Level
	Key          TimeKey
	TotalRawCost int64
	EnabledCost  int64
	State        TriState
}

// Snapshot captures the focus node's children at one tree version.
type Snapshot struct {
	Focus    NodeRef
	Version  Version
	Children []ChildSummary
}

// Snapshot returns the ordered child summaries of the focus node. Children
// are in chronological TimeKey order as fixed at build time. Day nodes have
// no child summaries; their detail view is RecordsOfDay.
func (e *Engine) Snapshot(focus NodeRef) (Snapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	idx, err := e.resolve(focus)
	if err != nil {
		return Snapshot{}, err
	}

	n := &e.tree.nodes[idx]
	snap := Snapshot{
		Focus:    focus,
		Version:  Version{Generation: e.tree.generation, Revision: e.tree.revision},
		Children: make([]ChildSummary, 0, len(n.children)),
	}
	for _, child := range n.children {
		c := &e.tree.nodes[child]
		snap.Children = append(snap.Children, ChildSummary{
			Ref:          NodeRef{generation: e.tree.generation, index: child},
			Level:        c.level,
			Key:          c.key,
			TotalRawCost: c.totalRawCost,
			EnabledCost:  c.enabledCost,
			State:        c.state(),
		})
	}
	return snap, nil
}

// NodeSummary returns the summary of a single node.
func (e *Engine) NodeSummary(ref NodeRef) (ChildSummary, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	idx, err := e.resolve(ref)
	if err != nil {
		return ChildSummary{}, err
	}

	n := &e.tree.nodes[idx]
	return ChildSummary{
		Ref:          ref,
		Level:        n.level,
		Key:          n.key,
		TotalRawCost: n.totalRawCost,
		EnabledCost:  n.enabledCost,
		State:        n.state(),
	}, nil
}

// TotalExportCost returns the root's enabled cost: the exact cost of what the
// export stage will emit under the current toggle state.
func (e *Engine) TotalExportCost() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.nodes[rootIndex].enabledCost
}

// TotalRawCost returns the root's raw cost over every record, enabled or not.
func (e *Engine) TotalRawCost() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tree.nodes[rootIndex].totalRawCost
}

// RecordsOfDay returns the ordered records of a day node for the detail
// panel, each with its current enabled bit.
func (e *Engine) RecordsOfDay(day NodeRef) ([]RecordView, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	idx, err := e.resolve(day)
	if err != nil {
		return nil, err
	}
	n := &e.tree.nodes[idx]
	if n.level != LevelDay {
		return nil, ErrNotADay
	}

	views := make([]RecordView, len(n.records))
	for i := range n.records {
		rec := &n.records[i]
		views[i] = RecordView{
			ID:        rec.id,
			Timestamp: rec.timestamp,
			Cost:      rec.cost,
			Enabled:   rec.enabled,
		}
	}
	return views, nil
}

// IsChildOf reports whether child is a direct child of parent in the current
// tree. Used by the navigator to validate zoom targets.
func (e *Engine) IsChildOf(parent, child NodeRef) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	pIdx, err := e.resolve(parent)
	if err != nil {
		return false, err
	}
	cIdx, err := e.resolve(child)
	if err != nil {
		return false, err
	}
	return e.tree.nodes[cIdx].parent == pIdx, nil
}

// EnabledBits returns the enabled bit of every record in the tree, keyed by
// record ID. Rebuilds feed this map back into Build so toggle choices survive
// a cost-metric change, and the toggle store persists it across runs.
func (e *Engine) EnabledBits() map[string]bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	bits := make(map[string]bool, e.tree.nodes[rootIndex].totalLeafCount)
	for i := range e.tree.nodes {
		n := &e.tree.nodes[i]
		if n.level != LevelDay {
			continue
		}
		for j := range n.records {
			bits[n.records[j].id] = n.records[j].enabled
		}
	}
	return bits
}
