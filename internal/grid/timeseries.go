package grid

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hydrofetch/hydrofetch"
)

// StepFunc evaluates a single time-series step. Its error, if any, is
// captured per-item rather than aborting the whole series (§7
// propagation policy).
type StepFunc func(ctx context.Context, t time.Time) (hydrofetch.Value, error)

// TimeSeries implements §4.7 time_series: a finite, ordered sequence of
// {timestamp, value?} with timestamps t0, t0+step, ... strictly
// increasing. len(series) == floor((end-start)/step)+1 regardless of
// per-step failures (§8 property 5).
//
// Steps are evaluated with bounded parallelism (§5: "fan out to an
// internal worker pool with bounded parallelism, default 4") but the
// returned slice preserves input (timestamp) order.
func TimeSeries(ctx context.Context, start, end time.Time, step time.Duration, parallelism int, eval StepFunc) []hydrofetch.TimeSeriesPoint {
	if step <= 0 {
		step = time.Hour
	}
	if parallelism <= 0 {
		parallelism = 4
	}
	n := int(end.Sub(start)/step) + 1
	if n < 1 {
		n = 1
	}
	points := make([]hydrofetch.TimeSeriesPoint, n)
	for i := range points {
		points[i].Timestamp = start.Add(time.Duration(i) * step)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range points {
		i := i
		g.Go(func() error {
			v, err := eval(gctx, points[i].Timestamp)
			points[i].Value = v
			points[i].Err = err
			return nil // per-step errors never abort the group
		})
	}
	_ = g.Wait()
	return points
}
