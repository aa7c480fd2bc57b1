package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/mqttbench/core/model"
)

func result(worker, dropped int, mps float64) model.WorkerResult {
	return model.WorkerResult{
		Worker:            worker,
		Messages:          100,
		Dropped:           dropped,
		DroppedPercent:    float64(dropped),
		TotalSeconds:      1.5,
		MessagesPerSecond: mps,
	}
}

func TestAggregateAllPassed(t *testing.T) {
	s := Aggregate([]model.WorkerResult{result(0, 0, 100), result(1, 0, 200)}, []int{100})
	assert.True(t, s.OK)
	assert.Equal(t, 2, s.Passed)
	assert.Equal(t, 0, s.Failed)
	assert.Equal(t, []int{100}, s.XAxis)
	assert.Equal(t, []float64{0, 0}, s.DroppedPercent)
	assert.Equal(t, []float64{1.5, 1.5}, s.Total)
	assert.Equal(t, []float64{100, 200}, s.MessagesPerSecond)
	assert.InDelta(t, 150, s.ThroughputMean, 0.001)
	assert.Greater(t, s.ThroughputStddev, 0.0)
}

func TestAggregateFailsOnAnyDrop(t *testing.T) {
	s := Aggregate([]model.WorkerResult{result(0, 0, 100), result(1, 2, 100)}, nil)
	assert.False(t, s.OK)
	assert.Equal(t, 1, s.Passed)
	assert.Equal(t, 1, s.Failed)
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil, nil)
	assert.True(t, s.OK)
	assert.Equal(t, 0, s.Passed)
	assert.Equal(t, 0.0, s.ThroughputMean)
	assert.Equal(t, 0.0, s.ThroughputStddev)
}

func TestAggregateSingleResultHasZeroStddev(t *testing.T) {
	s := Aggregate([]model.WorkerResult{result(0, 0, 100)}, nil)
	assert.Equal(t, 0.0, s.ThroughputStddev, "stddev of one sample must stay finite")
}

func TestPointsTupleOrder(t *testing.T) {
	pts := Points([][]int{{50, 10, 0, 500}})
	assert.Equal(t, []model.ParameterPoint{{Count: 50, Beats: 10, BeatsDelay: 0, Period: 500}}, pts)
}
