package storage

import (
	"context"
	"errors"
	"sync"

	"protozoa/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	samples     map[string][]model.TickSample
	regulations map[string][]model.RegulationRecord
	summaries   map[string]model.RunSummary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.samples = make(map[string][]model.TickSample)
	s.regulations = make(map[string][]model.RegulationRecord)
	s.summaries = make(map[string]model.RunSummary)
	return nil
}

func (s *MemoryStore) ready() error {
	if !s.initialized {
		return errors.New("store is not initialized")
	}
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(); err != nil {
		return model.RunRecord{}, false, err
	}
	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(); err != nil {
		return nil, err
	}
	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sortRuns(runs)
	return runs, nil
}

func (s *MemoryStore) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}
	delete(s.runs, id)
	delete(s.samples, id)
	delete(s.regulations, id)
	delete(s.summaries, id)
	return nil
}

func (s *MemoryStore) SaveSamples(_ context.Context, runID string, samples []model.TickSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}
	s.samples[runID] = append([]model.TickSample(nil), samples...)
	return nil
}

func (s *MemoryStore) GetSamples(_ context.Context, runID string) ([]model.TickSample, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(); err != nil {
		return nil, false, err
	}
	samples, ok := s.samples[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.TickSample(nil), samples...), true, nil
}

func (s *MemoryStore) SaveRegulations(_ context.Context, runID string, events []model.RegulationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}
	s.regulations[runID] = append([]model.RegulationRecord(nil), events...)
	return nil
}

func (s *MemoryStore) GetRegulations(_ context.Context, runID string) ([]model.RegulationRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(); err != nil {
		return nil, false, err
	}
	events, ok := s.regulations[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.RegulationRecord(nil), events...), true, nil
}

func (s *MemoryStore) SaveSummary(_ context.Context, summary model.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ready(); err != nil {
		return err
	}
	summary.ModeTicks = copyModeTicks(summary.ModeTicks)
	s.summaries[summary.RunID] = summary
	return nil
}

func (s *MemoryStore) GetSummary(_ context.Context, runID string) (model.RunSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.ready(); err != nil {
		return model.RunSummary{}, false, err
	}
	summary, ok := s.summaries[runID]
	if !ok {
		return model.RunSummary{}, false, nil
	}
	summary.ModeTicks = copyModeTicks(summary.ModeTicks)
	return summary, true, nil
}

func copyModeTicks(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
