// Package model holds the plain data types shared between the benchmark
// core, the metrics sinks and the CLI.
package model

// ParameterPoint is one concrete tuple drawn from the zipped parameter sweep.
type ParameterPoint struct {
	Count      int `json:"count"`
	Beats      int `json:"beats"`
	BeatsDelay int `json:"beats_delay"`
	Period     int `json:"period"`
}

// WorkerResult is the outcome of a single publish/verify session.
type WorkerResult struct {
	Worker            int            `json:"worker"`
	TelemetryType     TelemetryType  `json:"telemetry_type"`
	Messages          int            `json:"messages"`
	Dropped           int            `json:"dropped"`
	DroppedPercent    float64        `json:"dropped_percent"`
	TotalSeconds      float64        `json:"total_seconds"`
	IdleSeconds       float64        `json:"idle_seconds"`
	NonIdleSeconds    float64        `json:"non_idle_seconds"`
	MessagesPerSecond float64        `json:"messages_per_second"`
	BytesPerMessage   float64        `json:"bytes_per_message"`
	MsPerMessage      float64        `json:"ms_per_message"`
	Parameters        ParameterPoint `json:"parameters"`
}

// Passed reports whether the session completed without loss.
func (r WorkerResult) Passed() bool { return r.DroppedPercent == 0 }

// BenchmarkSummary is the single JSON document emitted on stdout. The
// parallel arrays mirror the ordered Results list for downstream plotting.
type BenchmarkSummary struct {
	OK                bool           `json:"ok"`
	Passed            int            `json:"passed"`
	Failed            int            `json:"failed"`
	Results           []WorkerResult `json:"results"`
	XAxis             []int          `json:"x_axis"`
	DroppedPercent    []float64      `json:"dropped_percent"`
	Total             []float64      `json:"total"`
	MessagesPerSecond []float64      `json:"messages_per_second"`
	ThroughputMean    float64        `json:"throughput_mean"`
	ThroughputStddev  float64        `json:"throughput_stddev"`
}
