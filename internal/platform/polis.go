package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"protozoa/internal/agent"
	"protozoa/internal/logging"
	"protozoa/internal/model"
	"protozoa/internal/numeric"
	"protozoa/internal/stats"
	"protozoa/internal/storage"
	"protozoa/internal/telemetry"
)

var ErrNotStarted = errors.New("polis is not initialized")

type Config struct {
	Store   storage.Store
	Metrics *telemetry.Metrics
	Logger  *slog.Logger
	// ArtifactsDir receives per-run artifact directories; empty disables them.
	ArtifactsDir string
}

type StopReason string

const (
	StopReasonNormal   StopReason = "normal"
	StopReasonShutdown StopReason = "shutdown"
)

type RunResult struct {
	Run          model.RunRecord
	Summary      model.RunSummary
	ArtifactsDir string
}

// Polis owns the run store and every run in flight.
type Polis struct {
	store   storage.Store
	metrics *telemetry.Metrics
	logger  *slog.Logger
	config  Config

	mu             sync.RWMutex
	started        bool
	lastStopReason StopReason
	runs           map[string]*activeRun
}

type activeRun struct {
	cancel context.CancelFunc

	mu   sync.RWMutex
	last agent.Snapshot
}

func NewPolis(cfg Config) *Polis {
	return &Polis{
		store:          cfg.Store,
		metrics:        cfg.Metrics,
		logger:         logging.OrDefault(cfg.Logger),
		config:         cfg,
		runs:           make(map[string]*activeRun),
		lastStopReason: StopReasonNormal,
	}
}

func (p *Polis) Init(ctx context.Context) error {
	if p.store == nil {
		return fmt.Errorf("store is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := p.store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	p.started = true
	return nil
}

func (p *Polis) Store() storage.Store { return p.store }

func (p *Polis) Metrics() *telemetry.Metrics { return p.metrics }

func (p *Polis) Started() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started
}

func (p *Polis) LastStopReason() StopReason {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastStopReason
}

func (p *Polis) Stop() {
	_ = p.StopWithReason(StopReasonNormal)
}

func (p *Polis) Shutdown() {
	_ = p.StopWithReason(StopReasonShutdown)
}

// StopWithReason cancels every active run. Canceled runs still persist what
// they produced.
func (p *Polis) StopWithReason(reason StopReason) error {
	if reason == "" {
		reason = StopReasonNormal
	}
	if !isValidStopReason(reason) {
		return fmt.Errorf("unsupported stop reason: %s", reason)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, run := range p.runs {
		run.cancel()
	}
	p.started = false
	p.lastStopReason = reason
	p.runs = make(map[string]*activeRun)
	return nil
}

// RunSimulation executes one run to completion or cancellation and persists
// its record, samples, regulation events and summary. A canceled run returns
// its partial result together with an error wrapping ctx.Err().
func (p *Polis) RunSimulation(ctx context.Context, cfg RunConfig) (RunResult, error) {
	if !p.Started() {
		return RunResult{}, ErrNotStarted
	}
	runner, err := NewRunner(cfg, p.metrics, p.logger)
	if err != nil {
		return RunResult{}, err
	}
	return p.execute(ctx, cfg.RunID, runner)
}

func (p *Polis) execute(ctx context.Context, runID string, runner *Runner) (RunResult, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	cfg := runner.Config()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	live, err := p.registerRun(runID, cancel)
	if err != nil {
		return RunResult{}, err
	}
	defer p.unregisterRun(runID)

	startedAt := time.Now().UTC()
	record := runner.record(runID, model.RunRunning, startedAt)
	record.VersionedRecord = storage.CurrentVersion()
	if err := p.store.SaveRun(ctx, record); err != nil {
		return RunResult{}, fmt.Errorf("save run %s: %w", runID, err)
	}
	logger := p.logger.With("run_id", runID, "seed", cfg.Seed)
	logger.Info("run started", "ticks", cfg.Ticks, "profile", cfg.Profile, "scape", runner.Dish().Name())

	nonFiniteBefore := numeric.NonFiniteCount()
	runErr := p.loop(runCtx, runner, live)

	status := model.RunCompleted
	if runErr != nil {
		status = model.RunCanceled
	}
	record.Status = status
	record.FinishedAt = time.Now().UTC()
	summary := runner.Summary(runID, numeric.NonFiniteCount()-nonFiniteBefore)
	summary.VersionedRecord = storage.CurrentVersion()

	persistCtx := context.WithoutCancel(ctx)
	if err := p.persist(persistCtx, record, runner, summary); err != nil {
		record.Status = model.RunFailed
		p.finish(string(model.RunFailed))
		return RunResult{Run: record, Summary: summary}, err
	}
	result := RunResult{Run: record, Summary: summary}
	if dir := p.config.ArtifactsDir; dir != "" {
		runDir, err := stats.WriteRunArtifacts(dir, stats.RunArtifacts{
			Run:         record,
			Samples:     runner.Samples(),
			Regulations: runner.Regulations(),
			Summary:     summary,
		})
		if err != nil {
			p.finish(string(model.RunFailed))
			return result, fmt.Errorf("write artifacts %s: %w", runID, err)
		}
		if err := stats.AppendRunIndex(dir, stats.IndexEntry(record, summary)); err != nil {
			p.finish(string(model.RunFailed))
			return result, fmt.Errorf("update run index: %w", err)
		}
		result.ArtifactsDir = runDir
	}
	p.finish(string(status))

	logger.Info("run finished",
		"status", string(status),
		"ticks", summary.Ticks,
		"final_energy", summary.FinalEnergy,
		"mean_free_energy", summary.MeanFreeEnergy,
		"landmarks", summary.Landmarks,
		"morphogenesis", summary.Morphogenesis,
		"allostasis", summary.Allostasis,
	)
	if runErr != nil {
		return result, fmt.Errorf("run %s canceled: %w", runID, runErr)
	}
	return result, nil
}

func (p *Polis) loop(ctx context.Context, runner *Runner, live *activeRun) error {
	interval := runner.Config().TickInterval
	var ticker *time.Ticker
	if interval > 0 {
		ticker = time.NewTicker(interval)
		defer ticker.Stop()
	}
	for !runner.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap := runner.Step()
		live.set(snap)
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}
	return nil
}

func (p *Polis) persist(ctx context.Context, record model.RunRecord, runner *Runner, summary model.RunSummary) error {
	if err := p.store.SaveSamples(ctx, record.ID, runner.Samples()); err != nil {
		return fmt.Errorf("save samples %s: %w", record.ID, err)
	}
	if err := p.store.SaveRegulations(ctx, record.ID, runner.Regulations()); err != nil {
		return fmt.Errorf("save regulations %s: %w", record.ID, err)
	}
	if err := p.store.SaveSummary(ctx, summary); err != nil {
		return fmt.Errorf("save summary %s: %w", record.ID, err)
	}
	if err := p.store.SaveRun(ctx, record); err != nil {
		return fmt.Errorf("save run %s: %w", record.ID, err)
	}
	return nil
}

func (p *Polis) finish(status string) {
	if p.metrics != nil {
		p.metrics.RunFinished(status)
	}
}

func (p *Polis) StopRun(runID string) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	p.mu.RLock()
	run, ok := p.runs[runID]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("run not active: %s", runID)
	}
	run.cancel()
	return nil
}

// ActiveRuns lists the IDs of runs in flight, sorted.
func (p *Polis) ActiveRuns() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.runs))
	for id := range p.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LiveSnapshot returns the latest snapshot of an active run.
func (p *Polis) LiveSnapshot(runID string) (agent.Snapshot, bool) {
	p.mu.RLock()
	run, ok := p.runs[runID]
	p.mu.RUnlock()
	if !ok {
		return agent.Snapshot{}, false
	}
	return run.get(), true
}

func (p *Polis) registerRun(runID string, cancel context.CancelFunc) (*activeRun, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return nil, ErrNotStarted
	}
	if _, exists := p.runs[runID]; exists {
		return nil, fmt.Errorf("run already active: %s", runID)
	}
	run := &activeRun{cancel: cancel}
	p.runs[runID] = run
	return run, nil
}

func (p *Polis) unregisterRun(runID string) {
	p.mu.Lock()
	delete(p.runs, runID)
	p.mu.Unlock()
}

func (r *activeRun) set(s agent.Snapshot) {
	r.mu.Lock()
	r.last = s
	r.mu.Unlock()
}

func (r *activeRun) get() agent.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

func isValidStopReason(reason StopReason) bool {
	switch reason {
	case StopReasonNormal, StopReasonShutdown:
		return true
	default:
		return false
	}
}
