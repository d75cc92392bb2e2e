package storage

import (
	"context"
	"testing"
	"time"

	"protozoa/internal/model"
)

// exerciseStore runs the behavior every backend must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := []model.RunRecord{
		{VersionedRecord: CurrentVersion(), ID: "b", Seed: 2, Status: model.RunCompleted, StartedAt: base.Add(time.Second)},
		{VersionedRecord: CurrentVersion(), ID: "a", Seed: 1, Status: model.RunRunning, StartedAt: base},
		{VersionedRecord: CurrentVersion(), ID: "c", Seed: 3, Status: model.RunCompleted, StartedAt: base.Add(time.Second)},
	}
	for _, run := range runs {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", run.ID, err)
		}
	}

	listed, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(listed) != 3 || listed[0].ID != "a" || listed[1].ID != "b" || listed[2].ID != "c" {
		t.Fatalf("unexpected run order: %+v", listed)
	}

	runs[1].Status = model.RunCompleted
	if err := store.SaveRun(ctx, runs[1]); err != nil {
		t.Fatalf("update run: %v", err)
	}
	loaded, ok, err := store.GetRun(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("get run: ok=%t err=%v", ok, err)
	}
	if loaded.Status != model.RunCompleted {
		t.Fatalf("expected updated status, got %s", loaded.Status)
	}

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, ok=%t err=%v", ok, err)
	}

	samples := []model.TickSample{{Tick: 0, Energy: 1}, {Tick: 10, Energy: 0.9}}
	if err := store.SaveSamples(ctx, "a", samples); err != nil {
		t.Fatalf("save samples: %v", err)
	}
	samples[0].Energy = -1
	gotSamples, ok, err := store.GetSamples(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("get samples: ok=%t err=%v", ok, err)
	}
	if len(gotSamples) != 2 || gotSamples[0].Energy != 1 {
		t.Fatalf("samples were aliased or lost: %+v", gotSamples)
	}

	events := []model.RegulationRecord{{Tick: 50, Kind: "allostasis", Signal: 1.4}}
	if err := store.SaveRegulations(ctx, "a", events); err != nil {
		t.Fatalf("save regulations: %v", err)
	}
	gotEvents, ok, err := store.GetRegulations(ctx, "a")
	if err != nil || !ok || len(gotEvents) != 1 || gotEvents[0].Kind != "allostasis" {
		t.Fatalf("unexpected regulations: %+v ok=%t err=%v", gotEvents, ok, err)
	}

	summary := model.RunSummary{
		VersionedRecord: CurrentVersion(),
		RunID:           "a",
		Ticks:           20,
		FinalEnergy:     0.9,
		ModeTicks:       map[string]int{"exploring": 20},
	}
	if err := store.SaveSummary(ctx, summary); err != nil {
		t.Fatalf("save summary: %v", err)
	}
	summary.ModeTicks["exploring"] = 0
	gotSummary, ok, err := store.GetSummary(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("get summary: ok=%t err=%v", ok, err)
	}
	if gotSummary.ModeTicks["exploring"] != 20 || gotSummary.FinalEnergy != 0.9 {
		t.Fatalf("unexpected summary: %+v", gotSummary)
	}

	if err := store.DeleteRun(ctx, "a"); err != nil {
		t.Fatalf("delete run: %v", err)
	}
	if _, ok, _ := store.GetRun(ctx, "a"); ok {
		t.Fatal("expected run to be deleted")
	}
	if _, ok, _ := store.GetSamples(ctx, "a"); ok {
		t.Fatal("expected samples to be deleted")
	}
	if _, ok, _ := store.GetSummary(ctx, "a"); ok {
		t.Fatal("expected summary to be deleted")
	}
}
