package metrics

import (
	"errors"

	"github.com/kilianp07/mqttbench/core/model"
)

// MultiSink fans records out to several sinks.
type MultiSink struct {
	sinks []MetricsSink
}

// NewMultiSink combines the given sinks into one.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// RecordWorkerResult forwards the result to every sink, collecting errors.
func (m *MultiSink) RecordWorkerResult(r model.WorkerResult) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.RecordWorkerResult(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
