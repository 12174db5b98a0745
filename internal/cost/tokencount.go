// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

package cost

import (
	"context"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"
)

// =============================================================================
// TOKEN COUNT STRATEGY
// =============================================================================

// modelRatios maps supported tokenizer model IDs to their calibrated
// characters-per-token ratio. The set is closed on purpose: this provider
// estimates, it does not download or run tokenizer models.
var modelRatios = map[string]float64{
	"gpt2":        3.9,
	"llama3":      3.6,
	"mistral":     3.8,
	"qwen2.5":     3.5,
	"deepseek-v3": 3.4,
}

// ErrUnknownModel is returned for model IDs outside the supported set.
var ErrUnknownModel = fmt.Errorf("unknown tokenizer model")

// SupportedModels returns the IDs the token strategy accepts.
func SupportedModels() []string {
	models := make([]string, 0, len(modelRatios))
	for id := range modelRatios {
		models = append(models, id)
	}
	return models
}

// TokenCount estimates token costs from character counts using a per-model
// ratio: each record costs chars/ratio rounded, with a one-token floor for
// non-empty text.
type TokenCount struct {
	modelID string
	ratio   float64 // characters per token
}

// NewTokenCount creates the token-count provider for a supported model ID.
func NewTokenCount(modelID string) (*TokenCount, error) {
	ratio, ok := modelRatios[modelID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, modelID)
	}
	return &TokenCount{modelID: modelID, ratio: ratio}, nil
}

// Name implements Provider.
func (t *TokenCount) Name() string { return StrategyTokens + ":" + t.modelID }

// Unit implements Provider.
func (t *TokenCount) Unit() string { return "tokens" }

// ModelID returns the tokenizer model this provider estimates for.
func (t *TokenCount) ModelID() string { return t.modelID }

// CostOf implements Provider. A non-empty text costs at least one token.
func (t *TokenCount) CostOf(text string) int64 {
	chars := charLen(text)
	if chars == 0 {
		return 0
	}
	tokens := int64(float64(chars)/t.ratio + 0.5)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// BatchCost implements Provider. Each record is estimated independently with
// the same formula as CostOf. Progress callbacks are rate-limited so a slow
// strategy driving an interactive progress bar does not flood it.
func (t *TokenCount) BatchCost(ctx context.Context, texts []string, progress func(done, total int)) ([]int64, error) {
	total := len(texts)
	limiter := rate.NewLimiter(rate.Limit(20), 1)

	costs := make([]int64, total)
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		costs[i] = t.CostOf(text)

		if progress != nil && limiter.Allow() {
			progress(i+1, total)
		}
	}

	if progress != nil {
		progress(total, total)
	}
	return costs, nil
}

// charLen counts perceived characters after NFC normalization, the same
// measure the character strategy uses.
func charLen(text string) int64 {
	return int64(utf8.RuneCountInString(norm.NFC.String(text)))
}
