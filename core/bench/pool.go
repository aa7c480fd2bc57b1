package bench

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/mqttbench/core/metrics"
	"github.com/kilianp07/mqttbench/core/model"
	"github.com/kilianp07/mqttbench/infra/logger"
)

// SessionFactory opens a fresh MQTT session for one worker. Every worker of
// every iteration gets its own connection.
type SessionFactory func(worker int, point model.ParameterPoint) (Session, error)

// ServiceManager restarts the downstream mapper service when the recovery
// policy is enabled. Implemented by infra/broker.
type ServiceManager interface {
	Restart(ctx context.Context, unit string) error
	WaitHealthy(ctx context.Context, unit string, timeout time.Duration) error
}

// PoolConfig configures the worker pool for a whole sweep.
type PoolConfig struct {
	Clients    int
	Iterations int

	Topic         string
	QoS           byte
	Datapoints    int
	TelemetryType model.TelemetryType
	ReadyTimeout  time.Duration
	DrainWindow   time.Duration

	// RestartOnDrop enables the best-effort mapper restart between
	// parameter points that showed loss.
	RestartOnDrop bool
	ServiceUnit   string

	// PointPause separates consecutive parameter points so downstream
	// bridge state from one load level cannot contaminate the next.
	PointPause time.Duration
}

// Pool drives Clients parallel workers per parameter point, Iterations
// times, and collects their results in sweep order.
type Pool struct {
	cfg     PoolConfig
	factory SessionFactory
	sink    metrics.MetricsSink
	svc     ServiceManager
	log     logger.Logger
}

// NewPool builds a pool. sink and svc may be nil.
func NewPool(cfg PoolConfig, factory SessionFactory, sink metrics.MetricsSink, svc ServiceManager, log logger.Logger) *Pool {
	if cfg.Clients < 1 {
		cfg.Clients = 1
	}
	if cfg.Iterations < 1 {
		cfg.Iterations = 1
	}
	if cfg.PointPause < 0 {
		cfg.PointPause = 0
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Pool{cfg: cfg, factory: factory, sink: sink, svc: svc, log: log}
}

// Run executes the sweep. Results collected so far are returned together
// with the first fatal worker error, if any.
func (p *Pool) Run(ctx context.Context, points []model.ParameterPoint) ([]model.WorkerResult, error) {
	var results []model.WorkerResult
	for i, point := range points {
		for iter := 0; iter < p.cfg.Iterations; iter++ {
			p.log.Infof("parameter point %d/%d iteration %d/%d: count=%d beats=%d beats_delay=%d period=%d",
				i+1, len(points), iter+1, p.cfg.Iterations, point.Count, point.Beats, point.BeatsDelay, point.Period)
			res, err := p.runPoint(ctx, point)
			results = append(results, res...)
			if err != nil {
				return results, err
			}
			p.recover(ctx, res)
		}
		if i < len(points)-1 && p.cfg.PointPause > 0 {
			time.Sleep(p.cfg.PointPause)
		}
	}
	return results, nil
}

// runPoint joins Clients workers on one point. The first worker error wins;
// results keep worker order so they stay aligned with the x axis.
func (p *Pool) runPoint(ctx context.Context, point model.ParameterPoint) ([]model.WorkerResult, error) {
	slots := make([]model.WorkerResult, p.cfg.Clients)
	errs := make([]error, p.cfg.Clients)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Clients; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			session, err := p.factory(id, point)
			if err != nil {
				errs[id] = fmt.Errorf("worker %d: open session: %w", id, err)
				return
			}
			worker := NewWorker(id, WorkerConfig{
				Topic:         p.cfg.Topic,
				QoS:           p.cfg.QoS,
				Datapoints:    p.cfg.Datapoints,
				TelemetryType: p.cfg.TelemetryType,
				Point:         point,
				ReadyTimeout:  p.cfg.ReadyTimeout,
				DrainWindow:   p.cfg.DrainWindow,
			}, session, p.log)
			slots[id], errs[id] = worker.Run(ctx)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	for _, r := range slots {
		if err := p.sink.RecordWorkerResult(r); err != nil {
			p.log.Warnf("metrics sink: %v", err)
		}
	}
	return slots, nil
}

// recover restarts the mapper service after a lossy point. Best effort: a
// failed restart is logged and the run continues.
func (p *Pool) recover(ctx context.Context, res []model.WorkerResult) {
	if !p.cfg.RestartOnDrop || p.svc == nil {
		return
	}
	lossy := false
	for _, r := range res {
		if r.DroppedPercent > 0 {
			lossy = true
			break
		}
	}
	if !lossy {
		return
	}
	p.log.Warnf("drops detected, restarting %s", p.cfg.ServiceUnit)
	if err := p.svc.Restart(ctx, p.cfg.ServiceUnit); err != nil {
		p.log.Warnf("restart %s: %v", p.cfg.ServiceUnit, err)
		return
	}
	if err := p.svc.WaitHealthy(ctx, p.cfg.ServiceUnit, 30*time.Second); err != nil {
		p.log.Warnf("wait for %s: %v", p.cfg.ServiceUnit, err)
	}
}
