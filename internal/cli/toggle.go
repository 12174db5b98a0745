// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

// toggle.go - Toggle command implementation.
//
// Command: toggle
// Short:   Flip a calendar node or single record and persist the result
// Aliases: t
//
// Examples:
//   tkonverter toggle result.json 2024          Toggle the whole year
//   tkonverter toggle result.json 2024-01       Toggle one month
//   tkonverter toggle result.json 2024-01-15    Toggle one day
//   tkonverter toggle result.json 12345         Toggle one message by ID
//
// A calendar key toggles the whole subtree: disabling when every record
// under it is enabled, enabling otherwise. Anything else is treated as a
// record ID. The updated exclusion set is written to the toggle store, so
// the next analyze run picks it up.
package cli

import (
	"context"
	"fmt"
	"regexp"

	"github.com/Loganavter/Tkonverter/internal/analysis"
	"github.com/Loganavter/Tkonverter/internal/util"
)

var calendarKeyRe = regexp.MustCompile(`^\d{4}(-\d{2}){0,2}$`)

// HandleToggle flips the addressed node or record and saves the exclusions.
func HandleToggle(args *Args) error {
	if args.InputPath == "" {
		return ErrNoInput
	}
	if len(args.Raw) < 2 {
		return fmt.Errorf("toggle needs a calendar key or record ID (e.g. 2024-01 or 12345)")
	}
	target := args.Raw[1]

	sess, err := newSession(args)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.analyze(context.Background(), args.InputPath, args.Quiet); err != nil {
		return err
	}
	eng := sess.engine

	if calendarKeyRe.MatchString(target) {
		ref, err := findByKey(eng, target)
		if err != nil {
			return err
		}
		state, err := eng.ToggleSubtree(ref)
		if err != nil {
			return err
		}
		fmt.Println(SuccessStyle.Render("Toggled ") + ValueStyle.Render(target) +
			DimStyle.Render("  state: "+state.String()))
	} else {
		day, err := dayOfRecord(sess, target)
		if err != nil {
			return err
		}
		enabled, err := eng.ToggleRecord(day, target)
		if err != nil {
			return err
		}
		verb := "disabled"
		if enabled {
			verb = "enabled"
		}
		fmt.Println(SuccessStyle.Render("Record "+target+" "+verb))
	}

	if err := sess.store.SaveDisabled(chatKey(sess.chat), eng.DisabledRecordIDs()); err != nil {
		return fmt.Errorf("persist toggles: %w", err)
	}

	unit := sess.provider.Unit()
	fmt.Println(LabelStyle.Render("Enabled:") + " " +
		ValueStyle.Render(util.FormatCount(eng.TotalExportCost())+" / "+
			util.FormatCount(eng.TotalRawCost())+" "+unit))
	return nil
}

// findByKey descends from the root matching formatted keys level by level
// ("2024" -> "2024-01" -> "2024-01-15").
func findByKey(eng *analysis.Engine, key string) (analysis.NodeRef, error) {
	var prefixes []string
	switch len(key) {
	case 4:
		prefixes = []string{key}
	case 7:
		prefixes = []string{key[:4], key}
	case 10:
		prefixes = []string{key[:4], key[:7], key}
	default:
		return analysis.NodeRef{}, fmt.Errorf("bad calendar key %q", key)
	}

	ref := eng.Root()
	for _, want := range prefixes {
		snap, err := eng.Snapshot(ref)
		if err != nil {
			return analysis.NodeRef{}, err
		}
		found := false
		for _, c := range snap.Children {
			if c.Key.String() == want {
				ref = c.Ref
				found = true
				break
			}
		}
		if !found {
			return analysis.NodeRef{}, fmt.Errorf("no calendar node %q in this chat", want)
		}
	}
	return ref, nil
}

// dayOfRecord locates the day node holding the given record ID.
func dayOfRecord(sess *session, recordID string) (analysis.NodeRef, error) {
	for _, rec := range sess.chat.Records {
		if rec.ID != recordID {
			continue
		}
		key := rec.Timestamp.Format("2006-01-02")
		return findByKey(sess.engine, key)
	}
	return analysis.NodeRef{}, fmt.Errorf("no record %q in this chat", recordID)
}
