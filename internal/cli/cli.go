// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for tkonverter.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdAnalyze Command = iota
	CmdWatch
	CmdToggle
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string
	Quiet      bool
	JSON       bool

	// Analysis overrides (take precedence over the config file)
	Strategy string
	Model    string
	Timezone string
	Output   string

	// Command-specific
	InputPath  string
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `tkonverter - chat export analysis and filtering

Tkonverter reads a Telegram JSON export, aggregates message cost
(characters or estimated tokens) into a calendar tree, and writes a
filtered export containing only the records you keep enabled.

Usage:
  tkonverter analyze <export.json>        Analyze a chat export once
  tkonverter watch <export.json>          Analyze and re-run on file changes
  tkonverter toggle <export.json> <key>   Toggle a year/month/day or record
  tkonverter config [show|init]           Configuration management
  tkonverter version                      Show version information
  tkonverter help                         Show this help

Flags:
  --config <path>      Use an explicit config file (TOML or JSON)
  --strategy <name>    Cost strategy: chars or tokens
  --model <id>         Tokenizer model for the tokens strategy
  --tz <name>          IANA timezone for calendar bucketing
  --out <dir>          Output directory for the filtered export
  --json               Machine-readable output
  --quiet, -q          Suppress progress output

Environment:
  TKONVERTER_EXPORT       Default export path
  TKONVERTER_TIMEZONE     Timezone override
  TKONVERTER_STRATEGY     Cost strategy override
  TKONVERTER_TOKEN_MODEL  Tokenizer model override
  TKONVERTER_DB           Toggle database path override

Examples:
  tkonverter analyze result.json
  tkonverter analyze result.json --strategy tokens --model llama3
  tkonverter watch result.json --out ./filtered
  tkonverter config show
`

// Parse parses os.Args into a command and its arguments.
func Parse() (Command, *Args) {
	args := &Args{}
	rest := parseFlags(os.Args[1:], args)

	if len(rest) == 0 {
		return CmdHelp, args
	}

	cmd := rest[0]
	rest = rest[1:]
	args.Raw = rest

	switch cmd {
	case "analyze", "a":
		if len(rest) > 0 {
			args.InputPath = rest[0]
		}
		return CmdAnalyze, args
	case "watch", "w":
		if len(rest) > 0 {
			args.InputPath = rest[0]
		}
		return CmdWatch, args
	case "toggle", "t":
		if len(rest) > 0 {
			args.InputPath = rest[0]
		}
		return CmdToggle, args
	case "config":
		if len(rest) > 0 {
			args.Subcommand = rest[0]
		}
		return CmdConfig, args
	case "version", "-v", "--version":
		return CmdVersion, args
	case "help", "-h", "--help":
		return CmdHelp, args
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		return CmdHelp, args
	}
}

// parseFlags extracts flags from argv and returns the remaining
// positional arguments.
func parseFlags(argv []string, args *Args) []string {
	var rest []string
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--config" && i+1 < len(argv):
			i++
			args.ConfigPath = argv[i]
		case arg == "--strategy" && i+1 < len(argv):
			i++
			args.Strategy = argv[i]
		case arg == "--model" && i+1 < len(argv):
			i++
			args.Model = argv[i]
		case arg == "--tz" && i+1 < len(argv):
			i++
			args.Timezone = argv[i]
		case arg == "--out" && i+1 < len(argv):
			i++
			args.Output = argv[i]
		case arg == "--json":
			args.JSON = true
		case arg == "--quiet" || arg == "-q":
			args.Quiet = true
		case strings.HasPrefix(arg, "--"):
			fmt.Fprintf(os.Stderr, "Warning: unknown flag %s (ignored)\n", arg)
		default:
			rest = append(rest, arg)
		}
	}
	return rest
}

// PrintUsage writes the usage text to stdout.
func PrintUsage() {
	fmt.Print(usageText)
}

// HandleVersion prints version information.
func HandleVersion(args *Args) {
	if args.JSON {
		fmt.Printf(`{"version":%q,"commit":%q,"built":%q}`+"\n", Version, GitCommit, BuildDate)
		return
	}
	fmt.Println(TitleStyle.Render("tkonverter " + Version))
	fmt.Println(LabelStyle.Render("Commit:") + " " + ValueStyle.Render(GitCommit))
	fmt.Println(LabelStyle.Render("Built:") + " " + ValueStyle.Render(BuildDate))
}
