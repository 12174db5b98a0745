// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package analysis maintains the calendar aggregation tree behind the chat
// analysis view: a Root/Year/Month/Day hierarchy over costed chat records,
// with cascading enable/disable toggles and an exact derivation of the
// export set from the same toggle state the on-screen totals use.
//
// # Key Types
//
//   - Engine: owns the live tree; read-only snapshot queries plus the toggle
//     operations that mutate it
//   - Build: one-shot construction of a tree from unsorted costed records
//   - Navigator: zoom focus path for the renderer
//   - Rebuilder: cancellable background rebuild when the cost strategy or
//     the underlying chat export changes
//
// # Aggregates
//
// Every node carries two pairs of aggregates: the raw pair (all records,
// fixed at build time) and the enabled pair (currently enabled records,
// maintained incrementally by toggles in O(depth)). A node's tri-state
// display value (all/partial/none) is derived from the enabled leaf count,
// never stored.
//
// # Reference lifetime
//
// Nodes are addressed through NodeRef handles bound to a tree generation.
// Installing a rebuilt tree bumps the generation; operations against old
// refs fail with ErrStaleRef instead of touching the wrong tree.
package analysis
