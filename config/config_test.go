package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `mqtt:
  host: broker.internal
  port: 8883
benchmark:
  count: "10:10:50"
  clients: 4
  telemetry_type: alarm
  pretty: true
metrics:
  prometheus_enabled: true
  prometheus_port: 9100
`

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "broker.internal", cfg.MQTT.Host)
	assert.Equal(t, 8883, cfg.MQTT.Port)
	assert.Equal(t, "10:10:50", cfg.Benchmark.Count)
	assert.Equal(t, 4, cfg.Benchmark.Clients)
	assert.Equal(t, "alarm", cfg.Benchmark.TelemetryType)
	assert.True(t, cfg.Benchmark.Pretty)
	assert.True(t, cfg.Metrics.PrometheusEnabled)

	// defaults fill the rest
	assert.Equal(t, "10", cfg.Benchmark.Beats)
	assert.Equal(t, 1, cfg.Benchmark.Iterations)
	assert.Equal(t, "te", cfg.Benchmark.TopicRoot)
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	require.NoError(t, os.Setenv("K_MQTT__HOST", "other.host"))
	defer func() { require.NoError(t, os.Unsetenv("K_MQTT__HOST")) }()

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "other.host", cfg.MQTT.Host)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	_, err := Load("config.toml")
	require.Error(t, err)
}

func TestLoadValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("benchmark:\n  qos: 7\n"), 0644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestTopicLayout(t *testing.T) {
	cfg := New()
	assert.Equal(t, "te/device/main///m/benchmark", cfg.Benchmark.Topic("m"))
}
