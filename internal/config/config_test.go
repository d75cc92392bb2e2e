package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "protozoa.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := writeConfig(t, `
run:
  seed: 99
  ticks: 300
  profile: wide-scanner
  tick_interval: 10ms
store:
  kind: sqlite
  path: /tmp/runs.db
log:
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.Run.Seed)
	assert.Equal(t, 300, cfg.Run.Ticks)
	assert.Equal(t, "wide-scanner", cfg.Run.Profile)
	assert.Equal(t, 10*time.Millisecond, cfg.Run.TickInterval)
	assert.Equal(t, "sqlite", cfg.Store.Kind)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, Default().Run.SampleEvery, cfg.Run.SampleEvery)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"zero ticks":        "run:\n  ticks: 0\n",
		"unknown store":     "store:\n  kind: redis\n",
		"sqlite needs path": "store:\n  kind: sqlite\n",
		"bad level":         "log:\n  level: chatty\n",
		"unknown profile":   "run:\n  profile: giant\n",
		"start outside":     "run:\n  start_x: 500\n",
		"bad addr":          "serve:\n  addr: nowhere\n",
	}
	for name, body := range cases {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PROTOZOA_SEED", "1234")
	t.Setenv("PROTOZOA_LOG_LEVEL", "debug")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), cfg.Run.Seed)
	assert.Equal(t, "debug", cfg.Log.Level)

	t.Setenv("PROTOZOA_SEED", "many")
	_, err = Load("")
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Marshal(Default())
	require.NoError(t, err)
	cfg, err := Load(writeConfig(t, string(data)))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
