// Copyright (c) 2024-2025 Loganavter
// SPDX-License-Identifier: AGPL-3.0-or-later

package analysis

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// =============================================================================
// BACKGROUND REBUILD
// =============================================================================

// ErrRebuildSuperseded is reported for a rebuild whose results were discarded
// because a newer rebuild started before it finished.
var ErrRebuildSuperseded = errors.New("rebuild superseded by a newer one")

// CostInput is one uncosted record: the raw input the active cost provider
// turns into a numeric cost during a rebuild.
type CostInput struct {
	ID        string
	Timestamp time.Time
	Text      string
}

// CostProvider is the slice of the cost strategy interface a rebuild needs.
// Implementations must honor context cancellation; a slow tokenizing strategy
// is expected to report progress as it goes.
type CostProvider interface {
	BatchCost(ctx context.Context, texts []string, progress func(done, total int)) ([]int64, error)
}

// RebuildResult reports the outcome of one rebuild task.
type RebuildResult struct {
	TaskID  string
	Version Version // valid only when Err is nil
	Err     error
}

// Rebuilder runs full tree rebuilds as cancellable background tasks against
// one engine. Starting a new rebuild cancels the one in flight; only the
// most recently started task may install its tree, so the engine never
// regresses to a superseded build. While a rebuild runs, the engine's
// current tree stays fully readable and toggleable.
type Rebuilder struct {
	engine *Engine

	mu      sync.Mutex
	current string             // task ID allowed to install
	cancel  context.CancelFunc // cancels the in-flight task
	done    chan struct{}      // closed when the in-flight task exits
}

// NewRebuilder creates a rebuilder for the given engine.
func NewRebuilder(e *Engine) *Rebuilder {
	return &Rebuilder{engine: e}
}

// Start launches a rebuild and returns its task ID immediately. The costs of
// all inputs are computed through the provider, the tree is rebuilt with the
// engine's current enabled bits carried over by record ID, and on success the
// new tree is installed by an atomic swap.
//
// progress may be nil. onDone is invoked exactly once from the task
// goroutine, with ErrRebuildSuperseded if a newer Start cancelled this task,
// or the provider/build error if the rebuild failed. On failure the engine's
// previous tree is untouched; the caller may retry with a fallback provider.
func (r *Rebuilder) Start(inputs []CostInput, provider CostProvider, progress func(done, total int), onDone func(RebuildResult)) string {
	r.mu.Lock()
	taskID := uuid.New().String()
	r.current = taskID
	if r.cancel != nil {
		r.cancel()
	}
	prevDone := r.done

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	go r.run(ctx, taskID, prevDone, done, inputs, provider, progress, onDone)
	return taskID
}

// Cancel aborts any in-flight rebuild without starting a new one. The active
// tree is unchanged.
func (r *Rebuilder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = ""
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Rebuilder) run(ctx context.Context, taskID string, prevDone, done chan struct{}, inputs []CostInput, provider CostProvider, progress func(done, total int), onDone func(RebuildResult)) {
	defer close(done)

	// Never run two rebuilds concurrently against the same engine: the
	// previous task has been cancelled, wait for it to unwind.
	if prevDone != nil {
		<-prevDone
	}

	fail := func(err error) {
		if r.isSuperseded(taskID) {
			err = ErrRebuildSuperseded
		}
		if onDone != nil {
			onDone(RebuildResult{TaskID: taskID, Err: err})
		}
	}

	texts := make([]string, len(inputs))
	for i := range inputs {
		texts[i] = inputs[i].Text
	}

	costs, err := provider.BatchCost(ctx, texts, progress)
	if err != nil {
		fail(err)
		return
	}
	if len(costs) != len(inputs) {
		fail(errors.New("cost provider returned a short batch"))
		return
	}

	records := make([]Record, len(inputs))
	for i := range inputs {
		records[i] = Record{ID: inputs[i].ID, Timestamp: inputs[i].Timestamp, Cost: costs[i]}
	}

	// Carry the live tree's bits over; records new to this build default to
	// enabled inside Build.
	tree, err := Build(records, r.engine.EnabledBits())
	if err != nil {
		fail(err)
		return
	}

	if err := ctx.Err(); err != nil {
		fail(err)
		return
	}

	// Partial or superseded results are never installed.
	r.mu.Lock()
	if r.current != taskID {
		r.mu.Unlock()
		fail(ErrRebuildSuperseded)
		return
	}
	version := r.engine.Install(tree)
	r.cancel = nil
	r.mu.Unlock()

	if onDone != nil {
		onDone(RebuildResult{TaskID: taskID, Version: version})
	}
}

func (r *Rebuilder) isSuperseded(taskID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != taskID
}

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// RebuildDoneMsg indicates a rebuild finished and its tree was installed.
// All node refs held by the UI are stale; re-fetch via a fresh snapshot.
type RebuildDoneMsg struct {
	TaskID  string
	Version Version
}

// RebuildFailedMsg indicates a rebuild aborted; the previous tree is still
// being served. Superseded tasks surface ErrRebuildSuperseded here.
type RebuildFailedMsg struct {
	TaskID string
	Err    error
}

// StartCmd starts a rebuild and resolves to RebuildDoneMsg or
// RebuildFailedMsg when it completes.
func (r *Rebuilder) StartCmd(inputs []CostInput, provider CostProvider, progress func(done, total int)) tea.Cmd {
	return func() tea.Msg {
		ch := make(chan RebuildResult, 1)
		r.Start(inputs, provider, progress, func(res RebuildResult) {
			ch <- res
		})
		res := <-ch
		if res.Err != nil {
			return RebuildFailedMsg{TaskID: res.TaskID, Err: res.Err}
		}
		return RebuildDoneMsg{TaskID: res.TaskID, Version: res.Version}
	}
}
