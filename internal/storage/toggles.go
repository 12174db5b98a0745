// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists toggle state between runs.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// TOGGLE STORE
// =============================================================================

// schema holds disabled record IDs per chat. Enabled is the default state,
// so only exclusions are written down; an empty table means everything is
// exported.
const schema = `
CREATE TABLE IF NOT EXISTS disabled_records (
	chat_id     TEXT NOT NULL,
	record_id   TEXT NOT NULL,
	disabled_at TIMESTAMP NOT NULL,
	PRIMARY KEY (chat_id, record_id)
);
`

// ToggleStore persists which records the user excluded from export, keyed by
// chat ID, so a rebuild or a fresh process start carries the choices over.
type ToggleStore struct {
	db *sql.DB
}

// NewToggleStore opens (creating if needed) the store at dbPath.
func NewToggleStore(dbPath string) (*ToggleStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &ToggleStore{db: db}, nil
}

// Close releases the database.
func (s *ToggleStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// SAVE / LOAD
// =============================================================================

// SaveDisabled replaces the chat's stored exclusions with disabledIDs. The
// replace runs in one transaction so a crash never leaves a mixed state.
func (s *ToggleStore) SaveDisabled(chatID string, disabledIDs []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM disabled_records WHERE chat_id = ?", chatID); err != nil {
		return fmt.Errorf("clear exclusions: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO disabled_records (chat_id, record_id, disabled_at) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, id := range disabledIDs {
		if _, err := stmt.Exec(chatID, id, now); err != nil {
			return fmt.Errorf("insert exclusion %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// LoadEnabledBits returns the chat's stored exclusions as a prior-bit map
// for the tree builder: every stored record ID maps to false. Records not in
// the map default to enabled inside the builder.
func (s *ToggleStore) LoadEnabledBits(chatID string) (map[string]bool, error) {
	rows, err := s.db.Query("SELECT record_id FROM disabled_records WHERE chat_id = ?", chatID)
	if err != nil {
		return nil, fmt.Errorf("load exclusions: %w", err)
	}
	defer rows.Close()

	bits := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan exclusion: %w", err)
		}
		bits[id] = false
	}
	return bits, rows.Err()
}

// DisabledCount returns how many records are excluded for the chat.
func (s *ToggleStore) DisabledCount(chatID string) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM disabled_records WHERE chat_id = ?", chatID).Scan(&n)
	return n, err
}
