// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

package analysis

// =============================================================================
// NAVIGATION
// =============================================================================

// Navigator tracks the zoom focus as an ordered path of node refs from the
// root down. It holds no cost data; it only decides which node's Snapshot the
// renderer should request next.
type Navigator struct {
	engine *Engine
	path   []NodeRef
}

// NewNavigator creates a navigator focused on the engine's current root.
func NewNavigator(e *Engine) *Navigator {
	return &Navigator{engine: e, path: []NodeRef{e.Root()}}
}

// Focus returns the current focus node.
func (nav *Navigator) Focus() NodeRef {
	return nav.path[len(nav.path)-1]
}

// Path returns a copy of the focus path, root first.
func (nav *Navigator) Path() []NodeRef {
	out := make([]NodeRef, len(nav.path))
	copy(out, nav.path)
	return out
}

// Depth returns how many levels below the root the focus sits.
func (nav *Navigator) Depth() int {
	return len(nav.path) - 1
}

// ZoomIn pushes a direct child of the current focus onto the path. A ref
// from a superseded tree generation fails with ErrStaleRef; after a rebuild
// the caller must Reset and re-fetch refs from a fresh snapshot.
func (nav *Navigator) ZoomIn(child NodeRef) error {
	ok, err := nav.engine.IsChildOf(nav.Focus(), child)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAChild
	}
	nav.path = append(nav.path, child)
	return nil
}

// ZoomOut pops one level. At the root it is a no-op.
func (nav *Navigator) ZoomOut() {
	if len(nav.path) > 1 {
		nav.path = nav.path[:len(nav.path)-1]
	}
}

// Reset clears the path back to the engine's current root. This is also the
// recovery step after a rebuild made the old path stale.
func (nav *Navigator) Reset() {
	nav.path = []NodeRef{nav.engine.Root()}
}
