// Package sweep runs one scenario across many seeds and summarises how the
// energy drift and collision counts spread. Seeds run concurrently; each run
// owns its own generator and integrates single-threaded.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/papapumpkin/orbitflow/internal/scenario"
)

// ErrNoSeeds is returned when a sweep is asked to run zero seeds.
var ErrNoSeeds = errors.New("sweep: no seeds")

// Options configures a sweep.
type Options struct {
	// Seeds to run. Results keep this order.
	Seeds []uint64
	// Parallel bounds the number of concurrent runs; <= 0 uses GOMAXPROCS.
	Parallel int
	// Observe, when set, is called from worker goroutines with every
	// successful outcome. It must be safe for concurrent use.
	Observe func(*scenario.Outcome)
}

// SeedResult is the outcome of one seed.
type SeedResult struct {
	Seed           uint64
	Drift          float64
	CollisionPairs int
	CollisionSteps int
	Err            error
}

// Summary aggregates a sweep.
type Summary struct {
	Scenario    string
	Results     []SeedResult
	Completed   int
	Failed      int
	DriftMean   float64
	DriftStdDev float64
	DriftMin    float64
	DriftMax    float64
	// SeedsWithCollisions counts seeds that recorded at least one pair.
	SeedsWithCollisions int
	MeanCollisionSteps  float64
}

// Seeds returns n consecutive seeds starting at base.
func Seeds(base uint64, n int) []uint64 {
	out := make([]uint64, 0, max(n, 0))
	for i := range n {
		out = append(out, base+uint64(i))
	}
	return out
}

// Run executes sc once per seed. A seed whose run fails (for example a
// singular configuration) is recorded with its error and does not stop the
// sweep; cancelling ctx does, and Run then returns the context error.
func Run(ctx context.Context, sc *scenario.Scenario, opts Options) (*Summary, error) {
	if len(opts.Seeds) == 0 {
		return nil, ErrNoSeeds
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}
	limit := opts.Parallel
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]SeedResult, len(opts.Seeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, seed := range opts.Seeds {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := SeedResult{Seed: seed}
			out, err := sc.RunWith(seed, scenario.NewRand(seed))
			if err != nil {
				res.Err = err
			} else {
				res.Drift = out.MaxDrift()
				res.CollisionPairs = len(out.Collisions)
				for _, ev := range out.Collisions {
					res.CollisionSteps += len(ev.Steps)
				}
				if opts.Observe != nil {
					opts.Observe(out)
				}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}

	return summarise(sc.Name, results), nil
}

func summarise(name string, results []SeedResult) *Summary {
	s := &Summary{Scenario: name, Results: results}

	var drifts, steps []float64
	for _, r := range results {
		if r.Err != nil {
			s.Failed++
			continue
		}
		s.Completed++
		drifts = append(drifts, r.Drift)
		steps = append(steps, float64(r.CollisionSteps))
		if r.CollisionPairs > 0 {
			s.SeedsWithCollisions++
		}
	}
	if len(drifts) == 0 {
		return s
	}

	s.DriftMean = stat.Mean(drifts, nil)
	if len(drifts) > 1 {
		s.DriftStdDev = stat.StdDev(drifts, nil)
	}
	s.DriftMin = floats.Min(drifts)
	s.DriftMax = floats.Max(drifts)
	s.MeanCollisionSteps = stat.Mean(steps, nil)
	return s
}
