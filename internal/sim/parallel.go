package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Builder constructs a fresh driver for one ensemble member.
type Builder func(seed int64) (*Driver, error)

// Ensemble runs independent copies of a scene concurrently, one world per
// goroutine.
type Ensemble struct {
	build     Builder
	numRuns   int
	seedStart int64
}

func NewEnsemble(build Builder, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			d, err := e.build(cfgCopy.Seed)
			if err != nil {
				return err
			}
			results[idx], err = d.Run(ctx, cfgCopy)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
