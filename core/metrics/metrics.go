// Package metrics defines the sink interface benchmark results are recorded
// into. Implementations live under infra/metrics.
package metrics

import "github.com/kilianp07/mqttbench/core/model"

// MetricsSink receives every WorkerResult as it is produced.
type MetricsSink interface {
	RecordWorkerResult(model.WorkerResult) error
	Close() error
}

// Config selects and configures the optional sinks. It is read from the
// configuration file, not from CLI flags.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    int    `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordWorkerResult(model.WorkerResult) error { return nil }
func (NopSink) Close() error                                { return nil }
