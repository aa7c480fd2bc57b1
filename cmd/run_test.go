package cmd

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/mqttbench/config"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestRunRejectsMalformedCountBeforeConnecting(t *testing.T) {
	err := execute(t, "run", "--count", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid parameter range")
}

func TestRunRejectsZeroCountBeforeConnecting(t *testing.T) {
	// A zero count would make every per-message ratio divide by zero and
	// poison the summary with NaN, so it must die as a parameter error.
	err := execute(t, "run", "--count", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid parameter range")

	err = execute(t, "run", "--count", "10", "--beats", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid parameter range")
}

func TestRunRejectsUnknownTelemetryType(t *testing.T) {
	err := execute(t, "run", "--count", "1", "--telemetry-type", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown telemetry type")
}

func TestRunRejectsInvalidQoS(t *testing.T) {
	err := execute(t, "run", "--qos", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qos")
}

func TestExpandSweepBuildsPoints(t *testing.T) {
	b := config.BenchmarkConfig{Count: "10,20", Beats: "5", BeatsDelay: "0", Period: "500"}
	points, xAxis, err := expandSweep(b)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 10, points[0].Count)
	assert.Equal(t, 20, points[1].Count)
	assert.Equal(t, 5, points[1].Beats)
	assert.Equal(t, 500, points[1].Period)
	assert.Equal(t, []int{10, 20}, xAxis)
}
