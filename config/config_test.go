package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
queue:
  maxDepth: 64
bus:
  source: test-bus
procBus:
  defaultRequestTimeout: 2s
batch:
  minBatchInterval: 25ms
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Queue.MaxDepth)
	assert.Equal(t, "test-bus", cfg.Bus.Source)
	assert.Equal(t, 2*time.Second, cfg.ProcBus.DefaultRequestTimeout)
	assert.Equal(t, 25*time.Millisecond, cfg.Batch.MinBatchInterval)
	// Fields not present in the file keep Default()'s values.
	assert.Equal(t, "process-thread", cfg.Process.Source)
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[queue]
maxDepth = 128

[timer]
source = "toml-timer"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Queue.MaxDepth)
	assert.Equal(t, "toml-timer", cfg.Timer.Source)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	t.Setenv("QUEUE_MAX_DEPTH", "256")
	t.Setenv("BUS_SOURCE", "env-bus")
	t.Setenv("PROCBUS_DEFAULT_REQUEST_TIMEOUT", "750ms")

	require.NoError(t, ApplyEnvOverrides(&cfg))
	assert.Equal(t, 256, cfg.Queue.MaxDepth)
	assert.Equal(t, "env-bus", cfg.Bus.Source)
	assert.Equal(t, 750*time.Millisecond, cfg.ProcBus.DefaultRequestTimeout)
}

func TestApplyEnvOverrides_InvalidDuration(t *testing.T) {
	cfg := Default()
	t.Setenv("PROCBUS_DEFAULT_REQUEST_TIMEOUT", "not-a-duration")

	err := ApplyEnvOverrides(&cfg)
	require.Error(t, err)
}

func TestApplyEnvOverrides_EmptyValueIgnored(t *testing.T) {
	cfg := Default()
	t.Setenv("BUS_SOURCE", "")

	require.NoError(t, ApplyEnvOverrides(&cfg))
	assert.Equal(t, "message-bus", cfg.Bus.Source)
}
