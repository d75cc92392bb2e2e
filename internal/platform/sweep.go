package platform

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type SweepConfig struct {
	SweepID string
	// Base is copied for every run; only the seed changes.
	Base    RunConfig
	Seeds   int
	Workers int
}

type SweepResult struct {
	SweepID string
	Runs    []RunResult
}

// Sweep runs Base under seeds Base.Seed, Base.Seed+1, ... with at most
// Workers runs in flight. Results keep seed order. The first failing run
// cancels the rest.
func (p *Polis) Sweep(ctx context.Context, cfg SweepConfig) (SweepResult, error) {
	if cfg.Seeds <= 0 {
		return SweepResult{}, fmt.Errorf("sweep needs at least one seed")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	sweepID := cfg.SweepID
	if sweepID == "" {
		sweepID = uuid.NewString()
	}
	p.logger.Info("sweep started", "sweep_id", sweepID, "seeds", cfg.Seeds, "workers", cfg.Workers)

	results := make([]RunResult, cfg.Seeds)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := 0; i < cfg.Seeds; i++ {
		run := cfg.Base
		run.RunID = ""
		run.SweepID = sweepID
		run.Seed = cfg.Base.Seed + int64(i)
		// each run derives its own dish unless the base pins one
		g.Go(func() error {
			result, err := p.RunSimulation(gctx, run)
			results[i] = result
			if err != nil {
				return fmt.Errorf("seed %d: %w", run.Seed, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SweepResult{SweepID: sweepID, Runs: results}, err
	}
	p.logger.Info("sweep finished", "sweep_id", sweepID, "runs", len(results))
	return SweepResult{SweepID: sweepID, Runs: results}, nil
}
