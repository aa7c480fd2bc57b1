package metrics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/mqttbench/core/model"
)

type countingSink struct {
	records int
	closed  bool
	err     error
}

func (s *countingSink) RecordWorkerResult(model.WorkerResult) error {
	s.records++
	return s.err
}

func (s *countingSink) Close() error {
	s.closed = true
	return nil
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	m := NewMultiSink(a, b)

	require.NoError(t, m.RecordWorkerResult(model.WorkerResult{}))
	assert.Equal(t, 1, a.records)
	assert.Equal(t, 1, b.records)

	require.NoError(t, m.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestMultiSinkCollectsErrors(t *testing.T) {
	a := &countingSink{err: fmt.Errorf("sink down")}
	b := &countingSink{}
	m := NewMultiSink(a, b)

	err := m.RecordWorkerResult(model.WorkerResult{})
	require.Error(t, err)
	assert.Equal(t, 1, b.records, "remaining sinks still record")
}

func TestNopSink(t *testing.T) {
	assert.NoError(t, NopSink{}.RecordWorkerResult(model.WorkerResult{}))
	assert.NoError(t, NopSink{}.Close())
}
