// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

package cost

import (
	"context"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// CHARACTER COUNT STRATEGY
// =============================================================================

// CharCount costs a record by its character count. Text is NFC-normalized
// first so decomposed sequences (e.g. "e" + combining accent) count as one
// character, matching what a reader perceives.
type CharCount struct{}

// NewCharCount creates the character-count provider.
func NewCharCount() *CharCount {
	return &CharCount{}
}

// Name implements Provider.
func (c *CharCount) Name() string { return StrategyChars }

// Unit implements Provider.
func (c *CharCount) Unit() string { return "chars" }

// CostOf implements Provider.
func (c *CharCount) CostOf(text string) int64 {
	return int64(utf8.RuneCountInString(norm.NFC.String(text)))
}

// BatchCost implements Provider. Character counting is fast, so progress is
// reported once at the end; cancellation is still checked between records so
// a huge export remains interruptible.
func (c *CharCount) BatchCost(ctx context.Context, texts []string, progress func(done, total int)) ([]int64, error) {
	costs := make([]int64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		costs[i] = c.CostOf(text)
	}
	if progress != nil {
		progress(len(texts), len(texts))
	}
	return costs, nil
}
