// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatlog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleExport = `{
  "name": "Test Group",
  "type": "private_group",
  "id": 123456,
  "messages": [
    {
      "id": 1,
      "type": "message",
      "date": "2024-01-15T10:30:00",
      "from": "Alice",
      "text": "hello world"
    },
    {
      "id": 2,
      "type": "message",
      "date": "2024-01-15T10:31:00",
      "from": "Bob",
      "text": [
        "see ",
        {"type": "link", "text": "https://example.com"},
        " and ",
        {"type": "bold", "text": "this"}
      ]
    },
    {
      "id": 3,
      "type": "service",
      "date": "2024-01-16T09:00:00",
      "actor": "Alice",
      "action": "pin_message"
    }
  ]
}`

func TestParse_Basic(t *testing.T) {
	chat, err := Parse(strings.NewReader(sampleExport), time.UTC)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if chat.Name != "Test Group" || chat.Type != "private_group" || chat.ID != 123456 {
		t.Errorf("Chat header wrong: %+v", chat)
	}
	if len(chat.Records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(chat.Records))
	}

	r := chat.Records[0]
	if r.ID != "1" || r.Author != "Alice" || r.Text != "hello world" || r.Service {
		t.Errorf("Record 1 wrong: %+v", r)
	}
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if !r.Timestamp.Equal(want) {
		t.Errorf("Record 1 timestamp: got %v, want %v", r.Timestamp, want)
	}
}

func TestParse_RichTextFlattening(t *testing.T) {
	chat, err := Parse(strings.NewReader(sampleExport), time.UTC)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	got := chat.Records[1].Text
	want := "see https://example.com and this"
	if got != want {
		t.Errorf("Flattened text: got %q, want %q", got, want)
	}
}

func TestParse_ServiceMessage(t *testing.T) {
	chat, err := Parse(strings.NewReader(sampleExport), time.UTC)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	r := chat.Records[2]
	if !r.Service {
		t.Error("Record 3 should be a service record")
	}
	if r.Author != "Alice" {
		t.Errorf("Service actor: got %q", r.Author)
	}
	if r.Text != "[Service message: pin_message]" {
		t.Errorf("Service text: got %q", r.Text)
	}
}

func TestParse_TimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	chat, err := Parse(strings.NewReader(sampleExport), loc)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	ts := chat.Records[0].Timestamp
	if ts.Location() != loc {
		t.Errorf("Timestamp location: got %v, want %v", ts.Location(), loc)
	}
	// Naive export dates are wall clock in loc, so the hour stays as written.
	if ts.Hour() != 10 {
		t.Errorf("Wall-clock hour: got %d, want 10", ts.Hour())
	}
}

func TestParse_MidnightStaysOnExportDay(t *testing.T) {
	input := `{
  "name": "x", "type": "personal_chat", "id": 1,
  "messages": [
    {"id": 1, "type": "message", "date": "2024-01-01T00:30:00", "from": "A", "text": "hi"}
  ]
}`
	loc := time.FixedZone("UTC-5", -5*60*60)
	chat, err := Parse(strings.NewReader(input), loc)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	y, m, d := chat.Records[0].Timestamp.Date()
	if y != 2024 || m != time.January || d != 1 {
		t.Errorf("Calendar day: got %04d-%02d-%02d, want 2024-01-01", y, m, d)
	}
}

func TestParse_BadDateFailsWholeLoad(t *testing.T) {
	bad := `{
  "name": "x", "type": "personal_chat", "id": 1,
  "messages": [
    {"id": 1, "type": "message", "date": "2024-01-15T10:30:00", "from": "A", "text": "ok"},
    {"id": 2, "type": "message", "date": "not-a-date", "from": "B", "text": "bad"}
  ]
}`
	if _, err := Parse(strings.NewReader(bad), time.UTC); !errors.Is(err, ErrBadDate) {
		t.Errorf("Bad date: got %v, want ErrBadDate", err)
	}
}

func TestParse_MissingMessages(t *testing.T) {
	if _, err := Parse(strings.NewReader(`{"name": "x", "type": "y", "id": 1}`), time.UTC); !errors.Is(err, ErrNoRecords) {
		t.Errorf("Missing messages: got %v, want ErrNoRecords", err)
	}
}

func TestParse_RFC3339Dates(t *testing.T) {
	input := `{
  "name": "x", "type": "personal_chat", "id": 1,
  "messages": [
    {"id": 1, "type": "message", "date": "2024-06-01T12:00:00+02:00", "from": "A", "text": "hi"}
  ]
}`
	chat, err := Parse(strings.NewReader(input), time.UTC)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := chat.Records[0].Timestamp.UTC().Hour(); got != 10 {
		t.Errorf("RFC3339 hour in UTC: got %d, want 10", got)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	if err := os.WriteFile(path, []byte(sampleExport), 0644); err != nil {
		t.Fatalf("Write fixture failed: %v", err)
	}

	chat, err := Load(path, time.UTC)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(chat.Records) != 3 {
		t.Errorf("Loaded %d records, want 3", len(chat.Records))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json"), time.UTC); err == nil {
		t.Error("Load of missing file should fail")
	}
}
