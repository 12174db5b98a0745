// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"strconv"

	"github.com/Loganavter/Tkonverter/internal/chatlog"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter writes the filtered chat in the same shape as a Telegram
// export file, so the output round-trips through the parser unchanged.
type JSONExporter struct {
	// Indent enables pretty-printed output.
	Indent bool
}

// NewJSONExporter creates a JSON exporter with pretty-printing enabled.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{Indent: true}
}

// jsonChat mirrors the Telegram export top-level object.
type jsonChat struct {
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	ID       int64         `json:"id"`
	Messages []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
	Date string `json:"date"`
	From string `json:"from,omitempty"`
	Text string `json:"text"`
}

// Export renders the chat as JSON, keeping only included records. Record
// order follows the source chat, not the toggle order.
func (e *JSONExporter) Export(chat *chatlog.Chat, included map[string]bool) ([]byte, error) {
	if chat == nil {
		return nil, ErrNilChat
	}

	out := jsonChat{
		Name:     chat.Name,
		Type:     chat.Type,
		ID:       chat.ID,
		Messages: make([]jsonMessage, 0, len(included)),
	}

	for _, rec := range chat.Records {
		if !included[rec.ID] {
			continue
		}
		id, err := strconv.ParseInt(rec.ID, 10, 64)
		if err != nil {
			// Synthetic IDs (service markers etc.) fall back to zero.
			id = 0
		}
		msgType := "message"
		if rec.Service {
			msgType = "service"
		}
		out.Messages = append(out.Messages, jsonMessage{
			ID:   id,
			Type: msgType,
			Date: rec.Timestamp.Format("2006-01-02T15:04:05"),
			From: rec.Author,
			Text: rec.Text,
		})
	}

	if e.Indent {
		return json.MarshalIndent(out, "", "  ")
	}
	return json.Marshal(out)
}

// FileExtension returns ".json".
func (e *JSONExporter) FileExtension() string { return ".json" }

// MimeType returns the JSON MIME type.
func (e *JSONExporter) MimeType() string { return "application/json" }
