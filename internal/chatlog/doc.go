// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatlog is the message source for the analysis tree: it loads a
// Telegram chat export (result.json) into flat records with a stable record
// ID, a timestamp normalized to one configured timezone, and the plain text
// the cost providers count. It also watches the export file so the owner can
// rebuild when Telegram re-exports it.
//
// Rich text entities (bold, links, mentions) are flattened to their visible
// text; service messages become bracketed placeholders. Loading is atomic:
// one malformed message fails the whole load and the previous chat stays in
// use.
package chatlog
