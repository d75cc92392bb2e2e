package storage

import (
	"context"
	"errors"

	"protozoa/internal/model"
)

// ErrNotFound is returned by callers that require a record to exist.
var ErrNotFound = errors.New("record not found")

// Store persists run telemetry. Nothing read back from a store is ever used
// to resume an organism.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	DeleteRun(ctx context.Context, id string) error
	SaveSamples(ctx context.Context, runID string, samples []model.TickSample) error
	GetSamples(ctx context.Context, runID string) ([]model.TickSample, bool, error)
	SaveRegulations(ctx context.Context, runID string, events []model.RegulationRecord) error
	GetRegulations(ctx context.Context, runID string) ([]model.RegulationRecord, bool, error)
	SaveSummary(ctx context.Context, summary model.RunSummary) error
	GetSummary(ctx context.Context, runID string) (model.RunSummary, bool, error)
}
