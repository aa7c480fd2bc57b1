package bench

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/mqttbench/core/model"
	"github.com/kilianp07/mqttbench/infra/logger"
)

type recordingSink struct {
	mu      sync.Mutex
	results []model.WorkerResult
}

func (s *recordingSink) RecordWorkerResult(r model.WorkerResult) error {
	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) Close() error { return nil }

type fakeServiceManager struct {
	mu        sync.Mutex
	restarts  []string
	waited    []string
	restartFn func() error
}

func (m *fakeServiceManager) Restart(_ context.Context, unit string) error {
	m.mu.Lock()
	m.restarts = append(m.restarts, unit)
	m.mu.Unlock()
	if m.restartFn != nil {
		return m.restartFn()
	}
	return nil
}

func (m *fakeServiceManager) WaitHealthy(_ context.Context, unit string, _ time.Duration) error {
	m.mu.Lock()
	m.waited = append(m.waited, unit)
	m.mu.Unlock()
	return nil
}

func echoFactory() SessionFactory {
	return func(int, model.ParameterPoint) (Session, error) {
		s := newFakeSession(256)
		s.respond = func(id int) [][]byte { return [][]byte{measurementEcho(id)} }
		return s, nil
	}
}

func poolConfig(clients, iterations int) PoolConfig {
	return PoolConfig{
		Clients:       clients,
		Iterations:    iterations,
		Topic:         "te/device/main///m/bench",
		QoS:           0,
		Datapoints:    2,
		TelemetryType: model.Measurement,
		DrainWindow:   100 * time.Millisecond,
	}
}

func TestPoolRunsAllWorkersInOrder(t *testing.T) {
	sink := &recordingSink{}
	pool := NewPool(poolConfig(3, 2), echoFactory(), sink, nil, logger.NopLogger{})

	points := []model.ParameterPoint{{Count: 5, Beats: 5}}
	results, err := pool.Run(context.Background(), points)
	require.NoError(t, err)

	require.Len(t, results, 6, "clients x iterations")
	for i, r := range results {
		assert.Equal(t, i%3, r.Worker, "worker order preserved within each iteration")
		assert.Equal(t, 0, r.Dropped)
	}
	assert.Len(t, sink.results, 6)
}

func TestPoolSweepOrder(t *testing.T) {
	pool := NewPool(poolConfig(1, 1), echoFactory(), nil, nil, logger.NopLogger{})

	points := []model.ParameterPoint{{Count: 2, Beats: 2}, {Count: 4, Beats: 4}}
	results, err := pool.Run(context.Background(), points)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, 2, results[0].Messages)
	assert.Equal(t, 4, results[1].Messages)
}

func TestPoolAbortsOnWorkerError(t *testing.T) {
	var calls atomic.Int32
	factory := func(worker int, point model.ParameterPoint) (Session, error) {
		calls.Add(1)
		if worker == 1 {
			return nil, fmt.Errorf("broker unreachable")
		}
		s := newFakeSession(64)
		s.respond = func(id int) [][]byte { return [][]byte{measurementEcho(id)} }
		return s, nil
	}
	pool := NewPool(poolConfig(2, 1), factory, nil, nil, logger.NopLogger{})

	_, err := pool.Run(context.Background(), []model.ParameterPoint{{Count: 2, Beats: 2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker 1")
	assert.Equal(t, int32(2), calls.Load(), "siblings still join before the error propagates")
}

func TestPoolRestartOnDrop(t *testing.T) {
	factory := func(int, model.ParameterPoint) (Session, error) {
		s := newFakeSession(64)
		s.respond = func(id int) [][]byte {
			if id == 1 {
				return nil // first message is always lost
			}
			return [][]byte{measurementEcho(id)}
		}
		return s, nil
	}
	cfg := poolConfig(1, 1)
	cfg.RestartOnDrop = true
	cfg.ServiceUnit = "tedge-mapper-c8y"
	svc := &fakeServiceManager{}

	pool := NewPool(cfg, factory, nil, svc, logger.NopLogger{})

	results, err := pool.Run(context.Background(), []model.ParameterPoint{{Count: 3, Beats: 3}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Greater(t, results[0].DroppedPercent, 0.0)
	assert.Equal(t, []string{"tedge-mapper-c8y"}, svc.restarts)
	assert.Equal(t, []string{"tedge-mapper-c8y"}, svc.waited)
}

func TestPoolRestartFailureIsNonFatal(t *testing.T) {
	factory := func(int, model.ParameterPoint) (Session, error) {
		s := newFakeSession(64)
		return s, nil // nothing echoed: everything drops
	}
	cfg := poolConfig(1, 1)
	cfg.RestartOnDrop = true
	cfg.ServiceUnit = "tedge-mapper-c8y"
	svc := &fakeServiceManager{restartFn: func() error { return fmt.Errorf("systemctl failed") }}

	pool := NewPool(cfg, factory, nil, svc, logger.NopLogger{})
	_, err := pool.Run(context.Background(), []model.ParameterPoint{{Count: 1, Beats: 1}})
	require.NoError(t, err, "restart failures are logged, not raised")
}
