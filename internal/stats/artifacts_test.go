package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"protozoa/internal/model"
)

func sampleArtifacts(runID string) RunArtifacts {
	return RunArtifacts{
		Run: model.RunRecord{
			ID:          runID,
			Seed:        7,
			Ticks:       3,
			SampleEvery: 1,
			Profile:     "default",
			Status:      model.RunCompleted,
			StartedAt:   time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC),
		},
		Samples: []model.TickSample{
			{Tick: 1, X: 50, Y: 25, Heading: 0.5, Speed: 0.75, Energy: 0.99, FreeEnergy: 1.25, Mode: "exploring"},
			{Tick: 2, X: 50.5, Y: 25.25, Heading: 0.625, Speed: 0.5, Energy: 0.98, FreeEnergy: 0.5, Mode: "exploiting"},
		},
		Regulations: []model.RegulationRecord{{Tick: 2, Kind: "allostasis", Signal: 1.5}},
		Summary:     model.RunSummary{RunID: runID, Ticks: 2, FinalEnergy: 0.98},
	}
}

func TestWriteAndExportRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "exports")

	runDir, err := WriteRunArtifacts(baseDir, sampleArtifacts("run-123"))
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	files := []string{"config.json", "trace.csv", "summary.json", "regulations.json"}
	for _, file := range files {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected file %s: %v", file, err)
		}
	}

	exportedDir, err := ExportRunArtifacts(baseDir, "run-123", outDir)
	if err != nil {
		t.Fatalf("export artifacts: %v", err)
	}
	for _, file := range files {
		if _, err := os.Stat(filepath.Join(exportedDir, file)); err != nil {
			t.Fatalf("expected exported file %s: %v", file, err)
		}
	}
}

func TestWriteRunArtifactsRequiresID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatal("expected missing run id error")
	}
}

func TestTraceCSVRoundTrip(t *testing.T) {
	baseDir := t.TempDir()
	artifacts := sampleArtifacts("run-trace")
	if _, err := WriteRunArtifacts(baseDir, artifacts); err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(baseDir, "run-trace", "trace.csv"))
	if err != nil {
		t.Fatalf("read trace: %v", err)
	}
	want := "tick,x,y,heading,speed,energy,vfe,mode\n" +
		"1,50,25,0.5,0.75,0.99,1.25,exploring\n" +
		"2,50.5,25.25,0.625,0.5,0.98,0.5,exploiting\n"
	if string(data) != want {
		t.Fatalf("unexpected trace:\n%s", data)
	}

	samples, ok, err := ReadTrace(baseDir, "run-trace")
	if err != nil || !ok {
		t.Fatalf("read trace: ok=%t err=%v", ok, err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[1].X != 50.5 || samples[1].FreeEnergy != 0.5 || samples[1].Mode != "exploiting" {
		t.Fatalf("unexpected sample: %+v", samples[1])
	}
}

func TestReadMissingArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	if _, ok, err := ReadTrace(baseDir, "nope"); ok || err != nil {
		t.Fatalf("expected missing trace, ok=%t err=%v", ok, err)
	}
	if _, ok, err := ReadSummary(baseDir, "nope"); ok || err != nil {
		t.Fatalf("expected missing summary, ok=%t err=%v", ok, err)
	}
}

func TestReadSummaryAndConfig(t *testing.T) {
	baseDir := t.TempDir()
	if _, err := WriteRunArtifacts(baseDir, sampleArtifacts("run-s")); err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	summary, ok, err := ReadSummary(baseDir, "run-s")
	if err != nil || !ok {
		t.Fatalf("read summary: ok=%t err=%v", ok, err)
	}
	if summary.FinalEnergy != 0.98 || summary.Ticks != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	run, ok, err := ReadRunConfig(baseDir, "run-s")
	if err != nil || !ok {
		t.Fatalf("read config: ok=%t err=%v", ok, err)
	}
	if run.Seed != 7 || run.Profile != "default" {
		t.Fatalf("unexpected run: %+v", run)
	}
	regs, ok, err := ReadRegulations(baseDir, "run-s")
	if err != nil || !ok || len(regs) != 1 || regs[0].Kind != "allostasis" {
		t.Fatalf("unexpected regulations: %+v ok=%t err=%v", regs, ok, err)
	}
}

func TestRunIndexAppendListAndUpsert(t *testing.T) {
	baseDir := t.TempDir()

	err := AppendRunIndex(baseDir, RunIndexEntry{
		RunID:        "run-1",
		Seed:         1,
		Profile:      "default",
		FinalEnergy:  0.80,
		CreatedAtUTC: "2026-02-10T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("append run-1: %v", err)
	}

	err = AppendRunIndex(baseDir, RunIndexEntry{
		RunID:        "run-2",
		Seed:         2,
		Profile:      "default",
		FinalEnergy:  0.82,
		CreatedAtUTC: "2026-02-10T11:00:00Z",
	})
	if err != nil {
		t.Fatalf("append run-2: %v", err)
	}

	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RunID != "run-2" || entries[1].RunID != "run-1" {
		t.Fatalf("unexpected order: %+v", entries)
	}

	err = AppendRunIndex(baseDir, RunIndexEntry{
		RunID:        "run-1",
		Seed:         1,
		Profile:      "default",
		FinalEnergy:  0.90,
		CreatedAtUTC: "2026-02-10T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("upsert run-1: %v", err)
	}

	entries, err = ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list after upsert: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after upsert, got %d", len(entries))
	}
	if entries[0].RunID != "run-1" || entries[0].FinalEnergy != 0.90 {
		t.Fatalf("unexpected upsert result: %+v", entries[0])
	}
}

func TestRunIndexEqualTimestampPrefersLaterAppend(t *testing.T) {
	baseDir := t.TempDir()
	ts := "2026-02-10T12:00:00Z"

	if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: "run-a", CreatedAtUTC: ts}); err != nil {
		t.Fatalf("append run-a: %v", err)
	}
	if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: "run-b", CreatedAtUTC: ts}); err != nil {
		t.Fatalf("append run-b: %v", err)
	}

	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RunID != "run-b" {
		t.Fatalf("expected latest appended run-b first, got %+v", entries)
	}
}

func TestIndexEntryFromRun(t *testing.T) {
	a := sampleArtifacts("run-i")
	entry := IndexEntry(a.Run, a.Summary)
	if entry.RunID != "run-i" || entry.Seed != 7 || entry.Ticks != 2 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.CreatedAtUTC != "2026-02-10T10:00:00.000000000Z" {
		t.Fatalf("unexpected timestamp: %s", entry.CreatedAtUTC)
	}
}
