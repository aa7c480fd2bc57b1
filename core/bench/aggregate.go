package bench

import (
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/mqttbench/core/model"
)

// Aggregate folds the ordered WorkerResult list into the final summary.
// ok is true iff no result shows loss.
func Aggregate(results []model.WorkerResult, xAxis []int) model.BenchmarkSummary {
	summary := model.BenchmarkSummary{
		OK:                true,
		Results:           results,
		XAxis:             xAxis,
		DroppedPercent:    make([]float64, 0, len(results)),
		Total:             make([]float64, 0, len(results)),
		MessagesPerSecond: make([]float64, 0, len(results)),
	}
	for _, r := range results {
		if r.Passed() {
			summary.Passed++
		} else {
			summary.Failed++
			summary.OK = false
		}
		summary.DroppedPercent = append(summary.DroppedPercent, r.DroppedPercent)
		summary.Total = append(summary.Total, r.TotalSeconds)
		summary.MessagesPerSecond = append(summary.MessagesPerSecond, r.MessagesPerSecond)
	}
	if len(summary.MessagesPerSecond) > 0 {
		summary.ThroughputMean = stat.Mean(summary.MessagesPerSecond, nil)
	}
	if len(summary.MessagesPerSecond) > 1 {
		summary.ThroughputStddev = stat.StdDev(summary.MessagesPerSecond, nil)
	}
	return summary
}

// Points converts raw zipped tuples into ParameterPoints. Tuple order is
// (count, beats, beats_delay, period), matching the zipper input order.
func Points(tuples [][]int) []model.ParameterPoint {
	points := make([]model.ParameterPoint, len(tuples))
	for i, t := range tuples {
		points[i] = model.ParameterPoint{Count: t[0], Beats: t[1], BeatsDelay: t[2], Period: t[3]}
	}
	return points
}
