// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Config command implementation.
//
// Command: config
// Short:   Show or initialize configuration
//
// Examples:
//   tkonverter config show      Print the effective configuration
//   tkonverter config init      Write a default config.toml
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Loganavter/Tkonverter/internal/config"
)

// HandleConfig dispatches config subcommands. The default is "show".
func HandleConfig(args *Args) error {
	switch args.Subcommand {
	case "", "show":
		return configShow(args)
	case "init":
		return configInit(args)
	default:
		return fmt.Errorf("unknown config subcommand: %s (use show or init)", args.Subcommand)
	}
}

func configShow(args *Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	if args.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	dbPath, _ := cfg.DatabasePath()

	fmt.Println(TitleStyle.Render("Configuration"))
	fmt.Println(SectionStyle.Render("Source"))
	fmt.Println(LabelStyle.Render("Export:") + " " + valueOr(cfg.Source.Path, "(not set)"))
	fmt.Println(LabelStyle.Render("Timezone:") + " " + ValueStyle.Render(cfg.Source.Timezone))
	fmt.Println(LabelStyle.Render("Debounce:") + " " + ValueStyle.Render(strconv.Itoa(cfg.Source.WatchDebounceMs)+" ms"))
	fmt.Println(SectionStyle.Render("Analysis"))
	fmt.Println(LabelStyle.Render("Strategy:") + " " + ValueStyle.Render(cfg.Analysis.Strategy))
	fmt.Println(LabelStyle.Render("Token model:") + " " + ValueStyle.Render(cfg.Analysis.TokenModel))
	fmt.Println(SectionStyle.Render("Storage"))
	fmt.Println(LabelStyle.Render("Database:") + " " + ValueStyle.Render(dbPath))
	fmt.Println(SectionStyle.Render("Export"))
	fmt.Println(LabelStyle.Render("Output dir:") + " " + ValueStyle.Render(cfg.Export.OutputDir))
	return nil
}

func configInit(args *Args) error {
	dir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	path := filepath.Join(dir, "config.toml")

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists: %s", path)
	}

	if err := config.SaveTOML(config.Default(), path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Println(SuccessStyle.Render("Config written: ") + ValueStyle.Render(path))
	return nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return DimStyle.Render(fallback)
	}
	return ValueStyle.Render(v)
}
