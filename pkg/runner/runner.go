// Package runner applies a selected sequence of migration units to a target
// store, strictly sequentially and fail-stop.
package runner

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pthm/duotone/pkg/engine"
	"github.com/pthm/duotone/pkg/graph"
	"github.com/pthm/duotone/pkg/record"
)

// Progress is called before each unit is applied. index is 0-based.
type Progress func(u *graph.Unit, index, total int)

// Result reports the outcome of one run. On failure, Applied holds exactly
// the units durably recorded before the failing one, so re-selecting with
// those units marked applied resumes where the run left off.
type Result struct {
	// RunID uniquely identifies this invocation in output and logs.
	RunID string

	// Applied lists unit ids recorded as applied, in application order.
	Applied []string

	// Failed is the id of the unit that aborted the run, empty on success.
	Failed string
}

// Runner executes units one at a time. Later units may depend on schema
// state produced by earlier ones, so a unit starts only after the previous
// unit's application is durably recorded. No unit is retried; the first
// failure halts the run with the store in the state produced by all units
// strictly before the failing one.
//
// The caller must hold an exclusive advisory lock scoped to the target store
// for the duration of Run (see pkg/lock); concurrent unprotected runs
// against the same record store lose updates.
type Runner struct {
	Engine  engine.Engine
	Records record.Store

	// Progress, when set, observes each unit as it starts.
	Progress Progress
}

// Run applies units in order. The returned Result is non-nil even on error.
func (r *Runner) Run(ctx context.Context, units []*graph.Unit) (*Result, error) {
	res := &Result{RunID: uuid.NewString()}
	total := len(units)

	for i, u := range units {
		if r.Progress != nil {
			r.Progress(u, i, total)
		}
		for _, op := range u.Operations {
			if err := r.Engine.Apply(ctx, op); err != nil {
				res.Failed = u.ID
				return res, fmt.Errorf("unit %s: %w", u.ID, err)
			}
		}
		if err := r.Records.MarkApplied(ctx, u.ID); err != nil {
			// The unit's statements succeeded but the record did not stick;
			// report it as the failing unit so the operator reconciles
			// before resuming.
			res.Failed = u.ID
			return res, fmt.Errorf("recording unit %s: %w", u.ID, err)
		}
		res.Applied = append(res.Applied, u.ID)
	}
	return res, nil
}
