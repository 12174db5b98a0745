// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cost provides the swappable cost strategies that map a record's
// text to a numeric cost: plain character counting or model-specific token
// estimation.
package cost

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// PROVIDER INTERFACE
// =============================================================================

// Provider is a cost strategy. The set of implementations is closed: see
// NewCharCount and NewTokenCount. Implementations are stateless and safe for
// concurrent use.
type Provider interface {
	// Name identifies the strategy (e.g. "chars", "tokens:gpt2").
	Name() string

	// Unit is the display unit of the costs this provider produces.
	Unit() string

	// CostOf maps one record's text to its cost.
	CostOf(text string) int64

	// BatchCost costs many records at once. Slow strategies report progress
	// through the callback (which may be nil) and must honor ctx
	// cancellation. On error no partial results are returned.
	BatchCost(ctx context.Context, texts []string, progress func(done, total int)) ([]int64, error)
}

// Strategy names accepted by ForStrategy and the config layer.
const (
	StrategyChars  = "chars"
	StrategyTokens = "tokens"
)

// ErrUnknownStrategy is returned for strategy names outside the closed set.
var ErrUnknownStrategy = errors.New("unknown cost strategy")

// ForStrategy builds the provider for a configured strategy name. The
// modelID is only consulted for the token strategy.
func ForStrategy(strategy, modelID string) (Provider, error) {
	switch strategy {
	case StrategyChars:
		return NewCharCount(), nil
	case StrategyTokens:
		return NewTokenCount(modelID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}
