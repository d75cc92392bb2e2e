package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protozoa/internal/agent"
	"protozoa/internal/logging"
	"protozoa/internal/platform"
	"protozoa/internal/storage"
	"protozoa/internal/telemetry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *platform.Polis) {
	t.Helper()
	polis := platform.NewPolis(platform.Config{
		Store:   storage.NewMemoryStore(),
		Metrics: telemetry.New(),
		Logger:  logging.Discard(),
	})
	require.NoError(t, polis.Init(context.Background()))
	return New(polis, WithLogger(logging.Discard())), polis
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Handler().ServeHTTP(w, req)
	return w
}

func runShort(t *testing.T, polis *platform.Polis) platform.RunResult {
	t.Helper()
	result, err := polis.RunSimulation(context.Background(), platform.RunConfig{
		Seed: 9, Ticks: 30, SampleEvery: 5, StartX: 50, StartY: 25,
	})
	require.NoError(t, err)
	return result
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	w := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestSnapshotWithoutLiveRun(t *testing.T) {
	s, _ := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/snapshot").Code)

	s.SetLiveRun("gone")
	assert.Equal(t, http.StatusNotFound, get(t, s, "/snapshot").Code)
}

func TestRunsEndpoints(t *testing.T) {
	s, polis := newTestServer(t)
	result := runShort(t, polis)
	id := result.Run.ID

	w := get(t, s, "/runs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id)

	w = get(t, s, "/runs/"+id)
	require.Equal(t, http.StatusOK, w.Code)
	var run runResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	assert.Equal(t, id, run.Run.ID)
	require.NotNil(t, run.Summary)
	assert.Equal(t, uint64(30), run.Summary.Ticks)

	w = get(t, s, "/runs/"+id+"/samples")
	require.Equal(t, http.StatusOK, w.Code)
	var samples struct {
		Samples []json.RawMessage `json:"samples"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &samples))
	assert.Len(t, samples.Samples, 6)

	assert.Equal(t, http.StatusOK, get(t, s, "/runs/"+id+"/regulations").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/runs/missing").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/runs/missing/samples").Code)
}

func TestLiveSnapshotAndStop(t *testing.T) {
	s, polis := newTestServer(t)
	s.SetLiveRun("live")

	done := make(chan error, 1)
	go func() {
		_, err := polis.RunSimulation(context.Background(), platform.RunConfig{
			RunID: "live", Seed: 2, Ticks: 1_000_000, StartX: 50, StartY: 25, TickInterval: time.Millisecond,
		})
		done <- err
	}()

	var snap agent.Snapshot
	require.Eventually(t, func() bool {
		w := get(t, s, "/snapshot")
		if w.Code != http.StatusOK {
			return false
		}
		return json.Unmarshal(w.Body.Bytes(), &snap) == nil && snap.Tick > 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, snap.Grid, snap.GridCols*snap.GridRows)

	w := get(t, s, "/active")
	assert.Contains(t, w.Body.String(), "live")

	stop := httptest.NewRecorder()
	s.Handler().ServeHTTP(stop, httptest.NewRequest(http.MethodPost, "/runs/live/stop", nil))
	assert.Equal(t, http.StatusAccepted, stop.Code)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("live run did not stop")
	}

	missing := httptest.NewRecorder()
	s.Handler().ServeHTTP(missing, httptest.NewRequest(http.MethodPost, "/runs/live/stop", nil))
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, polis := newTestServer(t)
	runShort(t, polis)

	w := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "protozoa_ticks_total 30"), body)
	assert.Contains(t, body, `protozoa_runs_total{status="completed"} 1`)
}

func TestChildrenEndpoint(t *testing.T) {
	s, polis := newTestServer(t)
	w := get(t, s, "/children")
	assert.Equal(t, http.StatusOK, w.Code)

	sup := platform.NewSupervisor(platform.SupervisorPolicy{}, logging.Discard())
	s = New(polis, WithSupervisor(sup), WithLogger(logging.Discard()))
	require.NoError(t, sup.Start(context.Background(), platform.ChildSpec{Name: "sim"}, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	defer sup.StopAll()

	w = get(t, s, "/children")
	assert.Contains(t, w.Body.String(), `"name":"sim"`)
}

func TestRunServesUntilCanceled(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}
