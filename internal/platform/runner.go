package platform

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"protozoa/internal/agent"
	"protozoa/internal/config"
	"protozoa/internal/logging"
	"protozoa/internal/model"
	"protozoa/internal/morphology"
	"protozoa/internal/params"
	"protozoa/internal/scape"
	"protozoa/internal/stats"
	"protozoa/internal/telemetry"
)

// dishSeedSalt separates the dish stream from the organism stream when a
// run does not pin the dish seed.
const dishSeedSalt int64 = 0x5eed_d15c

type RunConfig struct {
	RunID        string
	SweepID      string
	Seed         int64
	DishSeed     int64
	Ticks        int
	SampleEvery  int
	Profile      string
	StartX       float64
	StartY       float64
	Width        float64
	Height       float64
	TickInterval time.Duration
}

func RunConfigFrom(c config.RunConfig) RunConfig {
	return RunConfig{
		Seed:         c.Seed,
		DishSeed:     c.DishSeed,
		Ticks:        c.Ticks,
		SampleEvery:  c.SampleEvery,
		Profile:      c.Profile,
		StartX:       c.StartX,
		StartY:       c.StartY,
		Width:        c.Width,
		Height:       c.Height,
		TickInterval: c.TickInterval,
	}
}

func (c RunConfig) normalized() RunConfig {
	if c.Width <= 0 {
		c.Width = params.DishWidth
	}
	if c.Height <= 0 {
		c.Height = params.DishHeight
	}
	if c.SampleEvery <= 0 {
		c.SampleEvery = 1
	}
	if c.Profile == "" {
		c.Profile = morphology.DefaultProfile
	}
	if c.DishSeed == 0 {
		c.DishSeed = c.Seed ^ dishSeedSalt
	}
	return c
}

// Runner drives one organism through one dish, tick by tick. It is not safe
// for concurrent use; Polis serializes access for live views.
type Runner struct {
	cfg   RunConfig
	morph morphology.Morphology
	dish  scape.Scape
	org   *agent.Protozoa
	acc   *stats.Accumulator

	samples []model.TickSample
	regs    []model.RegulationRecord
	last    agent.Snapshot

	metrics *telemetry.Metrics
	logger  *slog.Logger
}

func NewRunner(cfg RunConfig, metrics *telemetry.Metrics, logger *slog.Logger) (*Runner, error) {
	cfg = cfg.normalized()
	if cfg.Ticks < 0 {
		return nil, fmt.Errorf("ticks must be non-negative: %d", cfg.Ticks)
	}
	if cfg.StartX < 0 || cfg.StartX > cfg.Width || cfg.StartY < 0 || cfg.StartY > cfg.Height {
		return nil, fmt.Errorf("start position (%g, %g) outside dish %gx%g", cfg.StartX, cfg.StartY, cfg.Width, cfg.Height)
	}
	morph, err := morphology.Profile(cfg.Profile)
	if err != nil {
		return nil, err
	}

	dish := scape.NewPetriDish(cfg.Width, cfg.Height, rand.New(rand.NewSource(cfg.DishSeed)))
	org := agent.New(cfg.StartX, cfg.StartY, rand.New(rand.NewSource(cfg.Seed)),
		agent.WithMorphology(morph),
		agent.WithWorld(cfg.Width, cfg.Height),
	)
	r := &Runner{
		cfg:     cfg,
		morph:   morph,
		dish:    dish,
		org:     org,
		acc:     stats.NewAccumulator(),
		metrics: metrics,
		logger:  logging.OrDefault(logger),
	}
	r.last = org.Snapshot()
	return r, nil
}

func (r *Runner) Config() RunConfig { return r.cfg }

// Dish is the environment the organism senses.
func (r *Runner) Dish() scape.Scape { return r.dish }

// Snapshot is the state after the most recent Step.
func (r *Runner) Snapshot() agent.Snapshot { return r.last }

func (r *Runner) Done() bool {
	return r.org.Tick() >= uint64(r.cfg.Ticks)
}

// Step advances the dish, lets the organism sense it and then updates the
// organism. Samples land every SampleEvery ticks.
func (r *Runner) Step() agent.Snapshot {
	started := time.Now()
	r.dish.Advance()
	r.org.Sense(r.dish)
	r.org.UpdateState(r.dish)
	snap := r.org.Snapshot()
	took := time.Since(started)

	r.acc.Observe(snap)
	if snap.Tick%uint64(r.cfg.SampleEvery) == 0 {
		r.samples = append(r.samples, stats.SampleFromSnapshot(snap))
	}
	if snap.TicksUntilReplan == params.MCTSReplanInterval-1 {
		r.logger.Debug("replanned", "tick", snap.Tick, "action", snap.PlannedAction.String(), "energy", snap.Energy)
	}
	for _, ev := range r.org.DrainEvents() {
		r.regs = append(r.regs, stats.RegulationFromEvent(ev))
		r.logger.Info("morphological regulation",
			"tick", ev.Tick,
			"kind", string(ev.Kind),
			"signal", ev.Signal,
			"cost", ev.Cost,
			"sensor_dist", ev.After.SensorDist,
			"target", ev.After.TargetConcentration,
		)
		if r.metrics != nil {
			r.metrics.ObserveRegulation(ev.Kind)
		}
	}
	if r.metrics != nil {
		r.metrics.ObserveTick(snap, took)
	}
	r.last = snap
	return snap
}

func (r *Runner) Samples() []model.TickSample {
	return append([]model.TickSample(nil), r.samples...)
}

func (r *Runner) Regulations() []model.RegulationRecord {
	return append([]model.RegulationRecord(nil), r.regs...)
}

func (r *Runner) Summary(runID string, nonFinite uint64) model.RunSummary {
	return r.acc.Summary(runID, nonFinite)
}

func (r *Runner) record(runID string, status model.RunStatus, startedAt time.Time) model.RunRecord {
	return model.RunRecord{
		ID:          runID,
		SweepID:     r.cfg.SweepID,
		Seed:        r.cfg.Seed,
		Ticks:       r.cfg.Ticks,
		SampleEvery: r.cfg.SampleEvery,
		Profile:     r.cfg.Profile,
		Start:       stats.MorphologyRecord(r.morph),
		StartX:      r.cfg.StartX,
		StartY:      r.cfg.StartY,
		Status:      status,
		StartedAt:   startedAt,
	}
}
