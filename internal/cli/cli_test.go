// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"testing"
)

func TestParseFlags(t *testing.T) {
	args := &Args{}
	rest := parseFlags([]string{
		"analyze", "result.json",
		"--strategy", "tokens",
		"--model", "llama3",
		"--out", "/tmp/x",
		"--quiet",
		"--json",
	}, args)

	if len(rest) != 2 || rest[0] != "analyze" || rest[1] != "result.json" {
		t.Errorf("Positional args wrong: %v", rest)
	}
	if args.Strategy != "tokens" || args.Model != "llama3" {
		t.Errorf("Analysis flags wrong: %+v", args)
	}
	if args.Output != "/tmp/x" {
		t.Errorf("Output flag wrong: %q", args.Output)
	}
	if !args.Quiet || !args.JSON {
		t.Errorf("Boolean flags wrong: %+v", args)
	}
}

func TestParseFlags_UnknownFlagIgnored(t *testing.T) {
	args := &Args{}
	rest := parseFlags([]string{"--frobnicate", "analyze"}, args)
	if len(rest) != 1 || rest[0] != "analyze" {
		t.Errorf("Unknown flag should be skipped: %v", rest)
	}
}

func TestParse_CommandRouting(t *testing.T) {
	tests := []struct {
		argv []string
		want Command
	}{
		{[]string{"tkonverter", "analyze", "x.json"}, CmdAnalyze},
		{[]string{"tkonverter", "a", "x.json"}, CmdAnalyze},
		{[]string{"tkonverter", "watch", "x.json"}, CmdWatch},
		{[]string{"tkonverter", "toggle", "x.json", "2024"}, CmdToggle},
		{[]string{"tkonverter", "config", "show"}, CmdConfig},
		{[]string{"tkonverter", "version"}, CmdVersion},
		{[]string{"tkonverter"}, CmdHelp},
		{[]string{"tkonverter", "bogus"}, CmdHelp},
	}

	orig := os.Args
	defer func() { os.Args = orig }()

	for _, tt := range tests {
		os.Args = tt.argv
		cmd, args := Parse()
		if cmd != tt.want {
			t.Errorf("Parse(%v) = %v, want %v", tt.argv[1:], cmd, tt.want)
		}
		if tt.want == CmdAnalyze && args.InputPath != "x.json" {
			t.Errorf("Parse(%v) input path: %q", tt.argv[1:], args.InputPath)
		}
	}
}
