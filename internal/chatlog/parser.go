// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatlog loads Telegram chat export JSON into costable records.
package chatlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// =============================================================================
// DOMAIN TYPES
// =============================================================================

// Chat is one loaded chat export.
type Chat struct {
	Name    string
	Type    string // "personal_chat", "private_group", "channel", ...
	ID      int64
	Records []Record
}

// Record is one message, flattened to the plain text the cost providers
// consume. Service messages (joins, pins, calls) are kept as bracketed
// placeholders so they are counted the same way the export renders them.
type Record struct {
	ID        string
	Timestamp time.Time
	Author    string
	Text      string
	Service   bool
}

// Parse errors.
var (
	ErrBadDate   = errors.New("unparseable message date")
	ErrNoRecords = errors.New("export contains no messages field")
)

// =============================================================================
// EXPORT FILE SHAPE
// =============================================================================

// exportFile mirrors the top level of Telegram's result.json.
type exportFile struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	ID       int64           `json:"id"`
	Messages json.RawMessage `json:"messages"`
}

// exportMessage mirrors one message entry. Text is raw because Telegram
// emits either a plain string or an array of strings and entity objects.
type exportMessage struct {
	ID     int64           `json:"id"`
	Type   string          `json:"type"`
	Date   string          `json:"date"`
	From   string          `json:"from"`
	Actor  string          `json:"actor"`
	Action string          `json:"action"`
	Text   json.RawMessage `json:"text"`
}

// textEntity is one element of a rich-text array.
type textEntity struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads a Telegram export file. Naive message dates are taken as wall
// clock in loc; offset-carrying dates are converted into loc. Loading is
// atomic: any malformed message fails the whole load, so a half-parsed chat
// is never returned.
func Load(path string, loc *time.Location) (*Chat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()
	return Parse(f, loc)
}

// Parse decodes an export from r. See Load.
func Parse(r io.Reader, loc *time.Location) (*Chat, error) {
	if loc == nil {
		loc = time.Local
	}

	var file exportFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	if file.Messages == nil {
		return nil, ErrNoRecords
	}

	var raw []exportMessage
	if err := json.Unmarshal(file.Messages, &raw); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	chat := &Chat{
		Name:    file.Name,
		Type:    file.Type,
		ID:      file.ID,
		Records: make([]Record, 0, len(raw)),
	}

	for i := range raw {
		msg := &raw[i]

		ts, err := parseDate(msg.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", msg.ID, err)
		}

		rec := Record{
			ID:        strconv.FormatInt(msg.ID, 10),
			Timestamp: ts,
		}

		if msg.Type == "service" {
			rec.Service = true
			rec.Author = msg.Actor
			rec.Text = serviceText(msg.Action)
		} else {
			rec.Author = msg.From
			rec.Text = flattenText(msg.Text)
		}

		chat.Records = append(chat.Records, rec)
	}

	return chat, nil
}

// parseDate accepts the formats Telegram has emitted over time. Naive dates
// (no offset, the dominant format) are wall-clock times in the export's own
// locale: they are interpreted directly in loc so a midnight message stays on
// its export day. Dates that carry an offset are converted into loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrBadDate)
	}
	if ts, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
}

// flattenText reduces Telegram's text field to plain text. The field is
// either a string, or an array mixing strings with typed entities (bold,
// links, mentions); only the visible text survives.
func flattenText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}

	var out []byte
	for _, part := range parts {
		var s string
		if err := json.Unmarshal(part, &s); err == nil {
			out = append(out, s...)
			continue
		}
		var ent textEntity
		if err := json.Unmarshal(part, &ent); err == nil {
			out = append(out, ent.Text...)
		}
	}
	return string(out)
}

// serviceText renders a service action the way the plain-text export does.
func serviceText(action string) string {
	if action == "" {
		action = "unknown"
	}
	return "[Service message: " + action + "]"
}
