// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

package cost

import (
	"context"
	"errors"
	"testing"
)

// =============================================================================
// CHARACTER COUNT TESTS
// =============================================================================

func TestCharCount_CostOf(t *testing.T) {
	c := NewCharCount()

	tests := []struct {
		name string
		text string
		want int64
	}{
		{"empty", "", 0},
		{"ascii", "hello", 5},
		{"cyrillic", "привет", 6},
		{"emoji", "hi \U0001F600", 4},
		// "e" + combining acute normalizes to a single precomposed rune
		{"combining accent", "café", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.CostOf(tt.text); got != tt.want {
				t.Errorf("CostOf(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestCharCount_BatchCost(t *testing.T) {
	c := NewCharCount()

	var lastDone, lastTotal int
	costs, err := c.BatchCost(context.Background(), []string{"ab", "", "xyz"}, func(done, total int) {
		lastDone, lastTotal = done, total
	})
	if err != nil {
		t.Fatalf("BatchCost failed: %v", err)
	}
	want := []int64{2, 0, 3}
	for i := range want {
		if costs[i] != want[i] {
			t.Errorf("costs[%d] = %d, want %d", i, costs[i], want[i])
		}
	}
	if lastDone != 3 || lastTotal != 3 {
		t.Errorf("Final progress (%d, %d), want (3, 3)", lastDone, lastTotal)
	}
}

func TestCharCount_BatchCancelled(t *testing.T) {
	c := NewCharCount()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.BatchCost(ctx, []string{"a"}, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Cancelled batch: got %v, want context.Canceled", err)
	}
}

// =============================================================================
// TOKEN COUNT TESTS
// =============================================================================

func TestNewTokenCount_UnknownModel(t *testing.T) {
	if _, err := NewTokenCount("gpt-99"); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("Unknown model: got %v, want ErrUnknownModel", err)
	}
	for _, id := range SupportedModels() {
		if _, err := NewTokenCount(id); err != nil {
			t.Errorf("Supported model %q rejected: %v", id, err)
		}
	}
}

func TestTokenCount_CostOf(t *testing.T) {
	tc, err := NewTokenCount("llama3") // 3.6 chars/token
	if err != nil {
		t.Fatalf("NewTokenCount failed: %v", err)
	}

	if got := tc.CostOf(""); got != 0 {
		t.Errorf("Empty text: got %d, want 0", got)
	}
	// One char still costs a whole token
	if got := tc.CostOf("a"); got != 1 {
		t.Errorf("Single char: got %d, want 1", got)
	}
	// 36 chars / 3.6 = 10 tokens
	if got := tc.CostOf("abcdefghijklmnopqrstuvwxyz0123456789"); got != 10 {
		t.Errorf("36 chars: got %d, want 10", got)
	}
}

func TestTokenCount_BatchMatchesCostOf(t *testing.T) {
	tc, err := NewTokenCount("gpt2")
	if err != nil {
		t.Fatalf("NewTokenCount failed: %v", err)
	}

	texts := []string{"aaaaaaaa", "", "bb"}
	costs, err := tc.BatchCost(context.Background(), texts, nil)
	if err != nil {
		t.Fatalf("BatchCost failed: %v", err)
	}
	if len(costs) != len(texts) {
		t.Fatalf("Short batch: got %d costs", len(costs))
	}
	// The batch form uses the same per-record formula as CostOf.
	for i, text := range texts {
		if want := tc.CostOf(text); costs[i] != want {
			t.Errorf("Record %d: batch costed %d, CostOf says %d", i, costs[i], want)
		}
	}
	if costs[1] != 0 {
		t.Errorf("Empty record costed %d tokens", costs[1])
	}
	// Non-empty records always cost at least one token.
	if costs[0] < 1 || costs[2] < 1 {
		t.Errorf("Non-empty records under one token: %v", costs)
	}
}

func TestTokenCount_BatchEmptyCorpus(t *testing.T) {
	tc, err := NewTokenCount("mistral")
	if err != nil {
		t.Fatalf("NewTokenCount failed: %v", err)
	}

	var finalDone, finalTotal int
	costs, err := tc.BatchCost(context.Background(), []string{"", ""}, func(done, total int) {
		finalDone, finalTotal = done, total
	})
	if err != nil {
		t.Fatalf("BatchCost failed: %v", err)
	}
	if costs[0] != 0 || costs[1] != 0 {
		t.Errorf("Empty corpus costs: %v", costs)
	}
	if finalDone != 2 || finalTotal != 2 {
		t.Errorf("Final progress (%d, %d), want (2, 2)", finalDone, finalTotal)
	}
}

// =============================================================================
// STRATEGY FACTORY TESTS
// =============================================================================

func TestForStrategy(t *testing.T) {
	p, err := ForStrategy(StrategyChars, "")
	if err != nil {
		t.Fatalf("chars strategy failed: %v", err)
	}
	if p.Unit() != "chars" {
		t.Errorf("chars unit: got %q", p.Unit())
	}

	p, err = ForStrategy(StrategyTokens, "qwen2.5")
	if err != nil {
		t.Fatalf("tokens strategy failed: %v", err)
	}
	if p.Unit() != "tokens" {
		t.Errorf("tokens unit: got %q", p.Unit())
	}

	if _, err := ForStrategy("words", ""); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("Unknown strategy: got %v, want ErrUnknownStrategy", err)
	}
	if _, err := ForStrategy(StrategyTokens, "nope"); !errors.Is(err, ErrUnknownModel) {
		t.Errorf("Bad model through factory: got %v, want ErrUnknownModel", err)
	}
}
