package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/mqttbench/core/metrics"
	"github.com/kilianp07/mqttbench/core/model"
)

// PromSink records benchmark results in Prometheus metrics.
type PromSink struct {
	published  *prometheus.CounterVec
	dropped    *prometheus.CounterVec
	throughput *prometheus.HistogramVec
}

// NewPromSink registers benchmark metrics on the default Prometheus
// registerer. The /metrics server is started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "benchmark_messages_published_total",
		Help: "Total number of telemetry messages published",
	}, []string{"telemetry_type"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "benchmark_messages_dropped_total",
		Help: "Total number of published messages never observed on the verification topic",
	}, []string{"telemetry_type"})
	throughput := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "benchmark_worker_throughput_msgs_per_second",
		Help:    "Per-worker publish throughput",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"telemetry_type"})

	if err := reg.Register(published); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			published = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(dropped); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			dropped = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(throughput); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			throughput = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{published: published, dropped: dropped, throughput: throughput}, nil
}

// RecordWorkerResult updates the counters and the throughput histogram.
func (s *PromSink) RecordWorkerResult(r model.WorkerResult) error {
	tt := r.TelemetryType.String()
	s.published.WithLabelValues(tt).Add(float64(r.Messages))
	s.dropped.WithLabelValues(tt).Add(float64(r.Dropped))
	s.throughput.WithLabelValues(tt).Observe(r.MessagesPerSecond)
	return nil
}

// Close implements MetricsSink; Prometheus collectors need no teardown.
func (s *PromSink) Close() error { return nil }

var _ coremetrics.MetricsSink = (*PromSink)(nil)
