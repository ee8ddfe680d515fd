// Package aggregator solves every group of a catalog and turns the results
// into standings, export rows and a printable report.
package aggregator

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	apperrors "roster-optimizer/internal/common/errors"
	"roster-optimizer/internal/common/logger"
	"roster-optimizer/internal/common/metrics"
	"roster-optimizer/internal/roster/catalog"
	"roster-optimizer/internal/roster/solver"
)

// Options controls a league-wide solve.
type Options struct {
	Solver solver.Options
	// Parallelism caps concurrent group solves. Zero or less solves one
	// group at a time.
	Parallelism int
	Logger      logger.Logger
}

// SolveAll solves each group independently against the same requirement.
// Groups never share candidates or solver state, so they run concurrently.
// The returned map has one entry per group.
func SolveAll(ctx context.Context, groups map[string][]catalog.Candidate, req solver.Requirement, opts Options) (map[string]solver.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, g)
	}
	sort.Strings(names)

	limit := opts.Parallelism
	if limit <= 0 {
		limit = 1
	}

	results := make([]solver.Result, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			log.Info("Optimizing group", map[string]interface{}{
				"group":      name,
				"position":   i + 1,
				"groups":     len(names),
				"candidates": len(groups[name]),
			})

			res := solver.SolveContext(gctx, groups[name], req, opts.Solver)
			metrics.ObserveSolve(string(res.Method), res.Complete, res.Stats.Nodes, res.Stats.Pruned, res.Stats.Infeasible, res.Stats.TimedOut, res.Stats.Elapsed)

			if res.Stats.TimedOut {
				log.Warn("Group solve stopped early", map[string]interface{}{
					"group": name,
					"nodes": res.Stats.Nodes,
					"error": apperrors.NewSolveTimeoutError(name).Error(),
				})
			}
			if !res.Complete {
				log.Warn("Group roster incomplete", map[string]interface{}{
					"group":  name,
					"filled": len(res.Assignments),
					"slots":  req.Total(),
				})
			}

			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, apperrors.NewSolveCancelledError(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewSolveCancelledError(err)
	}

	out := make(map[string]solver.Result, len(names))
	for i, name := range names {
		out[name] = results[i]
	}
	return out, nil
}
