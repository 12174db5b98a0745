// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

// watch.go - Watch command implementation.
//
// Command: watch
// Short:   Analyze an export and re-run whenever the file changes
// Aliases: w
//
// Examples:
//   tkonverter watch result.json
//   tkonverter watch result.json --out ./filtered
//
// The watcher debounces rapid file events (editors and Telegram both
// write exports in bursts). Each change triggers a background rebuild;
// a change arriving mid-rebuild supersedes the one in flight. Toggle
// bits survive every rebuild. Ctrl-C exits cleanly.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Loganavter/Tkonverter/internal/analysis"
	"github.com/Loganavter/Tkonverter/internal/chatlog"
)

// HandleWatch analyzes the export and keeps re-analyzing on changes until
// interrupted.
func HandleWatch(args *Args) error {
	if args.InputPath == "" {
		return ErrNoInput
	}

	sess, err := newSession(args)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initial pass before watching, so a broken export fails fast.
	if err := sess.analyze(ctx, args.InputPath, args.Quiet); err != nil {
		return err
	}
	printSummary(sess)
	if outPath, err := sess.writeExport(); err == nil {
		fmt.Println(SuccessStyle.Render("Filtered export written: ") + ValueStyle.Render(outPath))
	} else {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Export failed: ")+err.Error())
	}

	rebuilder := analysis.NewRebuilder(sess.engine)
	defer rebuilder.Cancel()

	onChange := func() {
		fmt.Println(DimStyle.Render("Export changed, re-analyzing..."))

		chat, err := chatlog.Load(args.InputPath, sess.loc)
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Parse failed: ")+err.Error())
			return
		}

		inputs := make([]analysis.CostInput, len(chat.Records))
		for i, rec := range chat.Records {
			inputs[i] = analysis.CostInput{ID: rec.ID, Timestamp: rec.Timestamp, Text: rec.Text}
		}

		rebuilder.Start(inputs, sess.provider, nil, func(res analysis.RebuildResult) {
			if res.Err != nil {
				if res.Err != analysis.ErrRebuildSuperseded {
					fmt.Fprintln(os.Stderr, ErrorStyle.Render("Rebuild failed: ")+res.Err.Error())
				}
				return
			}
			sess.chat = chat
			printSummary(sess)
			if outPath, err := sess.writeExport(); err == nil {
				fmt.Println(SuccessStyle.Render("Filtered export written: ") + ValueStyle.Render(outPath))
			} else {
				fmt.Fprintln(os.Stderr, ErrorStyle.Render("Export failed: ")+err.Error())
			}
		})
	}

	watcher, err := chatlog.NewWatcher(args.InputPath, sess.cfg.WatchDebounce(), onChange)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Watch(); err != nil {
		return fmt.Errorf("watch %s: %w", args.InputPath, err)
	}

	fmt.Println(SectionStyle.Render("Watching ") + ValueStyle.Render(args.InputPath) + DimStyle.Render("  (Ctrl-C to stop)"))
	<-ctx.Done()
	fmt.Println()
	return nil
}
