// Package protozoa is the programmatic entry point for running organisms,
// sweeping seeds and reading back recorded runs.
package protozoa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"protozoa/internal/logging"
	"protozoa/internal/model"
	"protozoa/internal/morphology"
	"protozoa/internal/params"
	"protozoa/internal/platform"
	"protozoa/internal/stats"
	"protozoa/internal/storage"
	"protozoa/internal/telemetry"
)

const (
	defaultArtifactsDir = "runs"
	defaultExportsDir   = "exports"
	defaultDBPath       = "protozoa.db"
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	Logger       *slog.Logger
}

type Client struct {
	store   storage.Store
	polis   *platform.Polis
	metrics *telemetry.Metrics
	logger  *slog.Logger

	artifactsDir string
	exportsDir   string
}

type RunRequest struct {
	Seed        int64
	DishSeed    int64
	Ticks       int
	SampleEvery int
	Profile     string
	// StartX and StartY default to the dish center when both are zero.
	StartX float64
	StartY float64
	Width  float64
	Height float64
}

type MorphologySummary struct {
	SensorDist          float64
	SensorAngle         float64
	BeliefLearningRate  float64
	TargetConcentration float64
}

type RunSummary struct {
	RunID          string
	SweepID        string
	Seed           int64
	Status         string
	ArtifactsDir   string
	Ticks          uint64
	FinalEnergy    float64
	MinEnergy      float64
	MeanFreeEnergy float64
	FinalX         float64
	FinalY         float64
	Landmarks      int
	Morphogenesis  int
	Allostasis     int
	Morphology     MorphologySummary
	ModeTicks      map[string]int
}

type SweepRequest struct {
	Base    RunRequest
	Seeds   int
	Workers int
}

type SweepSummary struct {
	SweepID string
	Runs    []RunSummary
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	SweepID      string
	CreatedAtUTC string
	Seed         int64
	Profile      string
	Status       string
	Ticks        uint64
	FinalEnergy  float64
	Landmarks    int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type InspectRequest struct {
	RunID  string
	Latest bool
}

// RunDetail is one recorded run with its trace. Source is "store" when the
// run came from this client's store and "artifacts" when it was read back
// from the artifact directory of an earlier process.
type RunDetail struct {
	RunSummary
	Source      string
	Samples     []model.TickSample
	Regulations []model.RegulationRecord
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = "memory"
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		metrics:      telemetry.New(),
		logger:       logging.OrDefault(opts.Logger),
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	if c.polis != nil {
		c.polis.Stop()
	}
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensurePolis(ctx)
	return err
}

// MetricsHandler serves the metrics of every run this client executed.
func (c *Client) MetricsHandler() http.Handler {
	return c.metrics.Handler()
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	cfg, err := runConfigFromRequest(req)
	if err != nil {
		return RunSummary{}, err
	}
	result, err := p.RunSimulation(ctx, cfg)
	if err != nil {
		return summaryFromResult(result), err
	}
	return summaryFromResult(result), nil
}

func (c *Client) Sweep(ctx context.Context, req SweepRequest) (SweepSummary, error) {
	p, err := c.ensurePolis(ctx)
	if err != nil {
		return SweepSummary{}, err
	}
	base, err := runConfigFromRequest(req.Base)
	if err != nil {
		return SweepSummary{}, err
	}
	result, err := p.Sweep(ctx, platform.SweepConfig{Base: base, Seeds: req.Seeds, Workers: req.Workers})
	out := SweepSummary{SweepID: result.SweepID, Runs: make([]RunSummary, 0, len(result.Runs))}
	for _, r := range result.Runs {
		if r.Run.ID == "" {
			continue
		}
		out.Runs = append(out.Runs, summaryFromResult(r))
	}
	return out, err
}

// Runs lists recorded runs newest first. Runs held by the store come first;
// runs only known from the artifact index of earlier processes follow.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return nil, err
	}

	records, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(records))
	out := make([]RunItem, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		run := records[i]
		item := RunItem{
			RunID:        run.ID,
			SweepID:      run.SweepID,
			CreatedAtUTC: run.StartedAt.UTC().Format(time.RFC3339),
			Seed:         run.Seed,
			Profile:      run.Profile,
			Status:       string(run.Status),
		}
		summary, ok, err := c.store.GetSummary(ctx, run.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			item.Ticks = summary.Ticks
			item.FinalEnergy = summary.FinalEnergy
			item.Landmarks = summary.Landmarks
		}
		seen[run.ID] = true
		out = append(out, item)
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if seen[e.RunID] {
			continue
		}
		out = append(out, RunItem{
			RunID:        e.RunID,
			SweepID:      e.SweepID,
			CreatedAtUTC: e.CreatedAtUTC,
			Seed:         e.Seed,
			Profile:      e.Profile,
			Status:       "archived",
			Ticks:        e.Ticks,
			FinalEnergy:  e.FinalEnergy,
			Landmarks:    e.Landmarks,
		})
	}
	if len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.artifactsDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = entries[0].RunID
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// Inspect returns the summary, samples and regulation events of one run,
// preferring the store and falling back to archived artifacts.
func (c *Client) Inspect(ctx context.Context, req InspectRequest) (RunDetail, error) {
	if req.RunID != "" && req.Latest {
		return RunDetail{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return RunDetail{}, errors.New("inspect requires run id or latest")
	}
	if _, err := c.ensurePolis(ctx); err != nil {
		return RunDetail{}, err
	}

	runID := req.RunID
	if req.Latest {
		latest, err := c.Runs(ctx, RunsRequest{Limit: 1})
		if err != nil {
			return RunDetail{}, err
		}
		if len(latest) == 0 {
			return RunDetail{}, errors.New("no runs available")
		}
		runID = latest[0].RunID
	}

	detail, ok, err := c.inspectStore(ctx, runID)
	if err != nil || ok {
		return detail, err
	}
	detail, ok, err = c.inspectArtifacts(runID)
	if err != nil {
		return RunDetail{}, err
	}
	if !ok {
		return RunDetail{}, fmt.Errorf("run not found: %s", runID)
	}
	return detail, nil
}

func (c *Client) inspectStore(ctx context.Context, runID string) (RunDetail, bool, error) {
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil || !ok {
		return RunDetail{}, false, err
	}
	summary, _, err := c.store.GetSummary(ctx, runID)
	if err != nil {
		return RunDetail{}, false, err
	}
	samples, _, err := c.store.GetSamples(ctx, runID)
	if err != nil {
		return RunDetail{}, false, err
	}
	regs, _, err := c.store.GetRegulations(ctx, runID)
	if err != nil {
		return RunDetail{}, false, err
	}
	return RunDetail{
		RunSummary:  summaryFromResult(platform.RunResult{Run: run, Summary: summary}),
		Source:      "store",
		Samples:     samples,
		Regulations: regs,
	}, true, nil
}

func (c *Client) inspectArtifacts(runID string) (RunDetail, bool, error) {
	run, ok, err := stats.ReadRunConfig(c.artifactsDir, runID)
	if err != nil || !ok {
		return RunDetail{}, false, err
	}
	summary, _, err := stats.ReadSummary(c.artifactsDir, runID)
	if err != nil {
		return RunDetail{}, false, err
	}
	samples, _, err := stats.ReadTrace(c.artifactsDir, runID)
	if err != nil {
		return RunDetail{}, false, err
	}
	regs, _, err := stats.ReadRegulations(c.artifactsDir, runID)
	if err != nil {
		return RunDetail{}, false, err
	}
	result := platform.RunResult{Run: run, Summary: summary, ArtifactsDir: filepath.Join(c.artifactsDir, runID)}
	return RunDetail{
		RunSummary:  summaryFromResult(result),
		Source:      "artifacts",
		Samples:     samples,
		Regulations: regs,
	}, true, nil
}

func (c *Client) ensurePolis(ctx context.Context) (*platform.Polis, error) {
	if c.polis != nil {
		return c.polis, nil
	}
	p := platform.NewPolis(platform.Config{
		Store:        c.store,
		Metrics:      c.metrics,
		Logger:       c.logger,
		ArtifactsDir: c.artifactsDir,
	})
	if err := p.Init(ctx); err != nil {
		return nil, err
	}
	c.polis = p
	return c.polis, nil
}

func runConfigFromRequest(req RunRequest) (platform.RunConfig, error) {
	if req.Ticks < 0 {
		return platform.RunConfig{}, fmt.Errorf("ticks must be >= 0")
	}
	if req.Ticks == 0 {
		req.Ticks = 2000
	}
	if req.SampleEvery < 0 {
		return platform.RunConfig{}, fmt.Errorf("sample every must be >= 0")
	}
	if req.Profile == "" {
		req.Profile = morphology.DefaultProfile
	}
	if _, err := morphology.Profile(req.Profile); err != nil {
		return platform.RunConfig{}, err
	}
	if req.Width <= 0 {
		req.Width = params.DishWidth
	}
	if req.Height <= 0 {
		req.Height = params.DishHeight
	}
	if req.StartX == 0 && req.StartY == 0 {
		req.StartX = req.Width / 2
		req.StartY = req.Height / 2
	}
	return platform.RunConfig{
		Seed:        req.Seed,
		DishSeed:    req.DishSeed,
		Ticks:       req.Ticks,
		SampleEvery: req.SampleEvery,
		Profile:     req.Profile,
		StartX:      req.StartX,
		StartY:      req.StartY,
		Width:       req.Width,
		Height:      req.Height,
	}, nil
}

func summaryFromResult(r platform.RunResult) RunSummary {
	s := r.Summary
	return RunSummary{
		RunID:          r.Run.ID,
		SweepID:        r.Run.SweepID,
		Seed:           r.Run.Seed,
		Status:         string(r.Run.Status),
		ArtifactsDir:   r.ArtifactsDir,
		Ticks:          s.Ticks,
		FinalEnergy:    s.FinalEnergy,
		MinEnergy:      s.MinEnergy,
		MeanFreeEnergy: s.MeanFreeEnergy,
		FinalX:         s.FinalX,
		FinalY:         s.FinalY,
		Landmarks:      s.Landmarks,
		Morphogenesis:  s.Morphogenesis,
		Allostasis:     s.Allostasis,
		Morphology: MorphologySummary{
			SensorDist:          s.Morphology.SensorDist,
			SensorAngle:         s.Morphology.SensorAngle,
			BeliefLearningRate:  s.Morphology.BeliefLearningRate,
			TargetConcentration: s.Morphology.TargetConcentration,
		},
		ModeTicks: s.ModeTicks,
	}
}
