// Package batch drives path extraction over a list of destinations and
// collects the coordinate sequences for rendering.
package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atharv3903/routemap/internal/model"
	"github.com/atharv3903/routemap/internal/pathfind"
)

// Extractor computes one origin→target path.
type Extractor interface {
	Extract(ctx context.Context, origin, target model.Coordinate) (pathfind.Result, error)
}

// Outcome is the per-destination record kept for reports.
type Outcome struct {
	Index  int
	Target model.Coordinate
	Result pathfind.Result
	Err    error
}

// Results holds the accumulated coordinate lists, one entry per extracted
// path in target order.
type Results struct {
	Lon      [][]float64
	Lat      [][]float64
	Outcomes []Outcome
	Skipped  []int
}

type Runner struct {
	extractor  Extractor
	skipFailed bool
	logger     *slog.Logger
}

func NewRunner(e Extractor, skipFailed bool, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{extractor: e, skipFailed: skipFailed, logger: logger}
}

// Run extracts a path for every target, one after another. By default the
// first failure aborts the run; with skipFailed the target is recorded as
// skipped and the run continues.
func (r *Runner) Run(ctx context.Context, origin model.Coordinate, targets []model.Coordinate) (Results, error) {
	var res Results

	for i, t := range targets {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		r.logger.InfoContext(ctx, "processing destination", "index", i, "total", len(targets), "lat", t.Lat, "lon", t.Lon)

		out, err := r.extractor.Extract(ctx, origin, t)
		if err != nil {
			err = fmt.Errorf("destination %d (%f, %f): %w", i, t.Lat, t.Lon, err)
			res.Outcomes = append(res.Outcomes, Outcome{Index: i, Target: t, Err: err})
			if !r.skipFailed {
				return res, err
			}
			r.logger.WarnContext(ctx, "destination skipped", "index", i, "error", err)
			res.Skipped = append(res.Skipped, i)
			continue
		}

		res.Lon = append(res.Lon, out.Path.Lon)
		res.Lat = append(res.Lat, out.Path.Lat)
		res.Outcomes = append(res.Outcomes, Outcome{Index: i, Target: t, Result: out})

		r.logger.InfoContext(ctx, "destination done",
			"index", i,
			"nodes", len(out.Path.Nodes),
			"length_m", out.Path.LengthM,
			"cache_hit", out.CacheHit,
		)
	}
	return res, nil
}

// Reached returns the targets that produced a path, aligned with Lon/Lat.
func (r Results) Reached() []model.Coordinate {
	out := make([]model.Coordinate, 0, len(r.Lon))
	for _, o := range r.Outcomes {
		if o.Err == nil {
			out = append(out, o.Target)
		}
	}
	return out
}
