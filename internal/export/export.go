// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the filtered chat export: the records the user kept
// enabled in the analysis tree, in the original order, minus everything
// toggled off. Formatting for reading (plain text, HTML) happens in the
// downstream conversion stage, not here.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Loganavter/Tkonverter/internal/chatlog"
	"github.com/Loganavter/Tkonverter/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter writes a filtered chat to some output format.
type Exporter interface {
	// Export renders the chat keeping only records whose ID is in included.
	Export(chat *chatlog.Chat, included map[string]bool) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g. ".json").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// ErrNilChat is returned when Export is called without a chat.
var ErrNilChat = errors.New("chat is nil")

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures export output.
type Options struct {
	// OutputDir is the directory where files are written. Default: ".".
	OutputDir string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{OutputDir: "."}
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// WriteToFile exports the filtered chat to a timestamped file in the output
// directory and returns its path. The write is atomic so a crash never
// leaves a truncated export behind.
func WriteToFile(exp Exporter, chat *chatlog.Chat, included map[string]bool, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	data, err := exp.Export(chat, included)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	name := fmt.Sprintf("%s_%s%s",
		sanitizeName(chat.Name),
		time.Now().Format("20060102_150405"),
		exp.FileExtension(),
	)
	path := filepath.Join(opts.OutputDir, name)

	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// sanitizeName makes a chat name safe for use as a file name.
func sanitizeName(name string) string {
	if name == "" {
		return "chat"
	}
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
	return util.TruncateRunes(clean, 64)
}
