// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

// analyze.go - Analyze command implementation.
//
// Command: analyze
// Short:   Analyze a chat export and write the filtered output
// Aliases: a
//
// Examples:
//   tkonverter analyze result.json
//   tkonverter analyze result.json --strategy tokens --model llama3
//   tkonverter analyze result.json --out ./filtered --json
//
// Pipeline:
//   parse export -> cost each record -> build calendar tree ->
//   apply persisted toggles -> print summary -> write filtered export
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Loganavter/Tkonverter/internal/analysis"
	"github.com/Loganavter/Tkonverter/internal/chatlog"
	"github.com/Loganavter/Tkonverter/internal/config"
	"github.com/Loganavter/Tkonverter/internal/cost"
	"github.com/Loganavter/Tkonverter/internal/export"
	"github.com/Loganavter/Tkonverter/internal/storage"
	"github.com/Loganavter/Tkonverter/internal/util"
)

// ErrNoInput is returned when a command that needs an export path gets none.
var ErrNoInput = errors.New("no input file (pass a Telegram export path)")

// =============================================================================
// SESSION SETUP
// =============================================================================

// session bundles everything one analysis run needs. The watch command
// reuses a session across re-runs so the toggle store stays open.
type session struct {
	cfg      *config.Config
	provider cost.Provider
	loc      *time.Location
	store    *storage.ToggleStore

	engine *analysis.Engine
	chat   *chatlog.Chat
}

// loadConfig resolves the effective configuration: file, then environment,
// then command-line flags, each layer overriding the previous one.
func loadConfig(args *Args) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if args.Strategy != "" {
		cfg.Analysis.Strategy = args.Strategy
	}
	if args.Model != "" {
		cfg.Analysis.TokenModel = args.Model
	}
	if args.Timezone != "" {
		cfg.Source.Timezone = args.Timezone
	}
	if args.Output != "" {
		cfg.Export.OutputDir = args.Output
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newSession builds a session from parsed arguments.
func newSession(args *Args) (*session, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return nil, err
	}

	provider, err := cfg.Provider()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	store, err := storage.NewToggleStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open toggle store: %w", err)
	}

	return &session{cfg: cfg, provider: provider, loc: loc, store: store}, nil
}

func (s *session) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// =============================================================================
// ANALYSIS RUN
// =============================================================================

// analyze parses the export, costs every record, and installs the resulting
// tree. Toggle bits persisted for this chat survive the run.
func (s *session) analyze(ctx context.Context, path string, quiet bool) error {
	chat, err := chatlog.Load(path, s.loc)
	if err != nil {
		return fmt.Errorf("parse export: %w", err)
	}

	texts := make([]string, len(chat.Records))
	for i, rec := range chat.Records {
		texts[i] = rec.Text
	}

	progress := func(done, total int) {}
	if !quiet {
		progress = func(done, total int) {
			fmt.Fprintf(os.Stderr, "\rCosting records... %d/%d", done, total)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	costs, err := s.provider.BatchCost(ctx, texts, progress)
	if err != nil {
		return fmt.Errorf("cost records: %w", err)
	}

	records := make([]analysis.Record, len(chat.Records))
	for i, rec := range chat.Records {
		records[i] = analysis.Record{
			ID:        rec.ID,
			Timestamp: rec.Timestamp,
			Cost:      costs[i],
		}
	}

	bits, err := s.store.LoadEnabledBits(chatKey(chat))
	if err != nil {
		return fmt.Errorf("load toggles: %w", err)
	}

	tree, err := analysis.Build(records, bits)
	if err != nil {
		return fmt.Errorf("build tree: %w", err)
	}

	if s.engine == nil {
		s.engine = analysis.NewEngine()
	}
	s.engine.Install(tree)
	s.chat = chat
	return nil
}

// writeExport writes the filtered export and returns its path.
func (s *session) writeExport() (string, error) {
	included := s.engine.IncludedRecordIDs()
	opts := &export.Options{OutputDir: s.cfg.Export.OutputDir}
	return export.WriteToFile(export.NewJSONExporter(), s.chat, included, opts)
}

// chatKey identifies a chat in the toggle store.
func chatKey(chat *chatlog.Chat) string {
	return strconv.FormatInt(chat.ID, 10)
}

// =============================================================================
// COMMAND HANDLER
// =============================================================================

// HandleAnalyze runs a single analysis pass over the given export.
func HandleAnalyze(args *Args) error {
	if args.InputPath == "" {
		return ErrNoInput
	}

	sess, err := newSession(args)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.analyze(context.Background(), args.InputPath, args.Quiet); err != nil {
		return err
	}

	if args.JSON {
		if err := printSummaryJSON(sess); err != nil {
			return err
		}
	} else {
		printSummary(sess)
	}

	outPath, err := sess.writeExport()
	if err != nil {
		return fmt.Errorf("write filtered export: %w", err)
	}
	if !args.JSON {
		fmt.Println()
		fmt.Println(SuccessStyle.Render("Filtered export written: ") + ValueStyle.Render(outPath))
	}
	return nil
}

// =============================================================================
// SUMMARY OUTPUT
// =============================================================================

// printSummary renders the calendar tree two levels deep: years with
// their months, each with enabled/raw cost and tri-state marker.
func printSummary(s *session) {
	eng := s.engine
	unit := s.provider.Unit()

	fmt.Println(TitleStyle.Render("Analysis: " + s.chat.Name))
	fmt.Println(LabelStyle.Render("Records:") + " " + ValueStyle.Render(util.FormatCount(int64(len(s.chat.Records)))))
	fmt.Println(LabelStyle.Render("Strategy:") + " " + ValueStyle.Render(s.provider.Name()))
	fmt.Println(LabelStyle.Render("Total:") + " " + ValueStyle.Render(util.FormatCount(eng.TotalRawCost())+" "+unit))
	fmt.Println(LabelStyle.Render("Enabled:") + " " + ValueStyle.Render(util.FormatCount(eng.TotalExportCost())+" "+unit))

	snap, err := eng.Snapshot(eng.Root())
	if err != nil {
		return
	}
	if len(snap.Children) == 0 {
		fmt.Println(DimStyle.Render("  (empty chat)"))
		return
	}

	fmt.Println(SectionStyle.Render("Calendar"))
	for _, year := range snap.Children {
		fmt.Println(summaryLine(1, year, unit))
		ysnap, err := eng.Snapshot(year.Ref)
		if err != nil {
			continue
		}
		for _, month := range ysnap.Children {
			fmt.Println(summaryLine(2, month, unit))
		}
	}
}

// summaryLine formats one calendar node, styled by its enabled state.
func summaryLine(depth int, c analysis.ChildSummary, unit string) string {
	indent := strings.Repeat("  ", depth)
	text := fmt.Sprintf("%s%-10s %s / %s %s",
		indent,
		c.Key.String(),
		util.FormatCount(c.EnabledCost),
		util.FormatCount(c.TotalRawCost),
		unit,
	)
	switch c.State {
	case analysis.StateNone:
		return DimStyle.Render(text + "  [off]")
	case analysis.StatePartial:
		return PartialStyle.Render(text + "  [partial]")
	default:
		return ValueStyle.Render(text)
	}
}

// summaryNode is the JSON shape of one calendar node.
type summaryNode struct {
	Key     string        `json:"key"`
	Raw     int64         `json:"raw_cost"`
	Enabled int64         `json:"enabled_cost"`
	State   string        `json:"state"`
	Months  []summaryNode `json:"months,omitempty"`
}

// printSummaryJSON emits the summary as a single JSON object for scripting.
func printSummaryJSON(s *session) error {
	eng := s.engine
	out := struct {
		Chat     string        `json:"chat"`
		Records  int           `json:"records"`
		Strategy string        `json:"strategy"`
		Unit     string        `json:"unit"`
		Raw      int64         `json:"total_raw_cost"`
		Enabled  int64         `json:"total_enabled_cost"`
		Years    []summaryNode `json:"years"`
	}{
		Chat:     s.chat.Name,
		Records:  len(s.chat.Records),
		Strategy: s.provider.Name(),
		Unit:     s.provider.Unit(),
		Raw:      eng.TotalRawCost(),
		Enabled:  eng.TotalExportCost(),
	}

	snap, err := eng.Snapshot(eng.Root())
	if err != nil {
		return err
	}
	for _, year := range snap.Children {
		yn := summaryNode{
			Key:     year.Key.String(),
			Raw:     year.TotalRawCost,
			Enabled: year.EnabledCost,
			State:   year.State.String(),
		}
		ysnap, err := eng.Snapshot(year.Ref)
		if err == nil {
			for _, month := range ysnap.Children {
				yn.Months = append(yn.Months, summaryNode{
					Key:     month.Key.String(),
					Raw:     month.TotalRawCost,
					Enabled: month.EnabledCost,
					State:   month.State.String(),
				})
			}
		}
		out.Years = append(out.Years, yn)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
