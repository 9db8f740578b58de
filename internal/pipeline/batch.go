package pipeline

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// UnitResult is the outcome of one batch unit.
type UnitResult struct {
	Unit   string
	Result *Result
	Err    error
}

// Batch runs independent units with at most jobs in flight. Every unit
// runs to completion or failure regardless of the others; the returned
// error joins all unit failures. Results keep the order of units.
func Batch(ctx context.Context, units []Options, jobs int) ([]UnitResult, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	for _, u := range units {
		emit(u.Progress, unitLabel(u), StageExpandMacro, StatusQueued, nil, 0)
	}
	out := make([]UnitResult, len(units))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, u := range units {
		g.Go(func() error {
			res, err := Run(ctx, u)
			out[i] = UnitResult{Unit: unitLabel(u), Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range out {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return out, errors.Join(errs...)
}

func unitLabel(o Options) string {
	if o.Unit != "" {
		return o.Unit
	}
	return o.Input
}
