package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func execute(ctx context.Context, t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out, io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestRunRunsAndExport(t *testing.T) {
	base := t.TempDir()
	artifacts := filepath.Join(base, "runs")
	ctx := context.Background()

	out, err := execute(ctx, t, "run", "--store", "memory", "--artifacts-dir", artifacts, "--ticks", "40", "--seed", "7", "--sample-every", "5")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "status=completed seed=7 ticks=40") {
		t.Fatalf("unexpected run output:\n%s", out)
	}
	if !strings.Contains(out, "artifacts="+artifacts) {
		t.Fatalf("expected artifacts path in output:\n%s", out)
	}

	out, err = execute(ctx, t, "runs", "--artifacts-dir", artifacts)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(out, "status=archived") || !strings.Contains(out, "seed=7") {
		t.Fatalf("unexpected runs output:\n%s", out)
	}

	out, err = execute(ctx, t, "inspect", "--artifacts-dir", artifacts, "--latest", "--tail", "2")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(out, "source=artifacts samples=8") || !strings.Contains(out, "\ntick=40 ") || strings.Contains(out, "\ntick=30 ") {
		t.Fatalf("unexpected inspect output:\n%s", out)
	}

	exportDir := filepath.Join(base, "exports")
	out, err = execute(ctx, t, "export", "--artifacts-dir", artifacts, "--latest", "--out", exportDir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(out, "exported run_id=") {
		t.Fatalf("unexpected export output:\n%s", out)
	}
	entries, err := os.ReadDir(exportDir)
	if err != nil {
		t.Fatalf("read export dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one exported run, got %d", len(entries))
	}
	if _, err := os.Stat(filepath.Join(exportDir, entries[0].Name(), "summary.json")); err != nil {
		t.Fatalf("exported summary missing: %v", err)
	}
}

func TestRunsWithNothingRecorded(t *testing.T) {
	out, err := execute(context.Background(), t, "runs", "--artifacts-dir", t.TempDir())
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if strings.TrimSpace(out) != "no runs" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestSweepPrintsEverySeed(t *testing.T) {
	out, err := execute(context.Background(), t, "sweep", "--artifacts-dir", t.TempDir(), "--ticks", "20", "--seed", "100", "--seeds", "3", "--workers", "2")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	for _, want := range []string{"runs=3", "seed=100 ", "seed=101 ", "seed=102 ", "survivors="} {
		if !strings.Contains(out, want) {
			t.Fatalf("sweep output missing %q:\n%s", want, out)
		}
	}
}

func TestProfilesAndConfig(t *testing.T) {
	out, err := execute(context.Background(), t, "profiles")
	if err != nil {
		t.Fatalf("profiles: %v", err)
	}
	for _, name := range []string{"default ", "frugal ", "near-sighted ", "wide-scanner "} {
		if !strings.Contains(out, name) {
			t.Fatalf("profiles output missing %q:\n%s", name, out)
		}
	}

	cfgPath := filepath.Join(t.TempDir(), "protozoa.yaml")
	if err := os.WriteFile(cfgPath, []byte("run:\n  profile: frugal\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	out, err = execute(context.Background(), t, "config", "--config", cfgPath, "--ticks", "123")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out, "profile: frugal") || !strings.Contains(out, "ticks: 123") {
		t.Fatalf("unexpected effective config:\n%s", out)
	}
}

func TestCommandErrors(t *testing.T) {
	ctx := context.Background()
	cases := [][]string{
		{"run", "--artifacts-dir", t.TempDir(), "--profile", "nope"},
		{"run", "--ticks", "0"},
		{"run", "--log-level", "loud"},
		{"export", "--artifacts-dir", t.TempDir()},
		{"inspect", "--artifacts-dir", t.TempDir(), "--latest"},
		{"config", "--config", filepath.Join(t.TempDir(), "missing.yaml")},
		{"frobnicate"},
	}
	for _, args := range cases {
		if _, err := execute(ctx, t, args...); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestServeStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	out, err := execute(ctx, t, "serve", "--addr", "127.0.0.1:0", "--artifacts-dir", t.TempDir(), "--ticks", "5")
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if !strings.Contains(out, "serving addr=127.0.0.1:0 store=memory") {
		t.Fatalf("unexpected serve output:\n%s", out)
	}
}
