// Package bench implements the MQTT telemetry throughput benchmark: shaped
// burst publishing, round-trip verification on the mapper's downstream
// topics and aggregation of the per-worker results.
package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/mqttbench/core/model"
	"github.com/kilianp07/mqttbench/infra/logger"
)

// Session is one MQTT connection already subscribing to the verification
// topic. Implemented by infra/mqtt.Session; connections are never shared
// between workers.
type Session interface {
	// WaitReady blocks until both the connection and the verification
	// subscription are acknowledged, or the timeout expires.
	WaitReady(ctx context.Context, timeout time.Duration) error
	Publish(topic string, qos byte, payload []byte) error
	// Messages delivers raw verification payloads pushed by the client's
	// background dispatch goroutine.
	Messages() <-chan []byte
	Close()
}

const (
	// DefaultReadyTimeout bounds the connect+subscribe wait. Exceeding it
	// is fatal for the worker.
	DefaultReadyTimeout = 5 * time.Second
	// DefaultDrainWindow bounds how long a worker waits after the publish
	// loop for in-flight verification messages. Timing out here is not a
	// failure, just residual unobserved drops.
	DefaultDrainWindow = 2 * time.Second
)

// WorkerConfig carries the per-session benchmark parameters.
type WorkerConfig struct {
	Topic         string
	QoS           byte
	Datapoints    int
	TelemetryType model.TelemetryType
	Point         model.ParameterPoint
	ReadyTimeout  time.Duration
	DrainWindow   time.Duration
}

// Worker publishes one shaped burst stream and verifies the round-trips.
type Worker struct {
	id      int
	cfg     WorkerConfig
	session Session
	log     logger.Logger
}

// NewWorker wires a worker to its dedicated session.
func NewWorker(id int, cfg WorkerConfig, session Session, log logger.Logger) *Worker {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	if cfg.DrainWindow <= 0 {
		cfg.DrainWindow = DefaultDrainWindow
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Worker{id: id, cfg: cfg, session: session, log: log}
}

// Run executes the full session lifecycle and returns the WorkerResult.
// A ready-wait timeout or a publish failure is fatal and aborts the
// enclosing pool join; verification mismatches are only counted.
func (w *Worker) Run(ctx context.Context) (model.WorkerResult, error) {
	defer w.session.Close()

	if err := w.session.WaitReady(ctx, w.cfg.ReadyTimeout); err != nil {
		return model.WorkerResult{}, fmt.Errorf("worker %d: %w", w.id, err)
	}

	count := w.cfg.Point.Count
	beats := w.cfg.Point.Beats
	beatsDelay := time.Duration(w.cfg.Point.BeatsDelay) * time.Millisecond
	period := time.Duration(w.cfg.Point.Period) * time.Millisecond

	w.log.Debugw("worker ready", map[string]any{
		"worker": w.id, "count": count, "beats": beats,
		"beats_delay_ms": w.cfg.Point.BeatsDelay, "period_ms": w.cfg.Point.Period,
	})

	var (
		idle       time.Duration
		bytesTotal int
		warned     bool
	)
	start := time.Now()
	burstStart := start

	for msgid := 1; msgid <= count; msgid++ {
		payload, err := telemetryPayload(w.cfg.TelemetryType, msgid, w.cfg.Datapoints, time.Now())
		if err != nil {
			return model.WorkerResult{}, fmt.Errorf("worker %d: build payload: %w", w.id, err)
		}
		bytesTotal += len(payload)
		if err := w.session.Publish(w.cfg.Topic, w.cfg.QoS, payload); err != nil {
			return model.WorkerResult{}, fmt.Errorf("worker %d: publish msgid %d: %w", w.id, msgid, err)
		}

		if msgid == count {
			break
		}
		if beats > 0 && msgid%beats == 0 {
			// Period is measured burst-start to burst-start, so only
			// the remainder of the period is slept.
			if period > 0 {
				remaining := period - time.Since(burstStart)
				if remaining > 0 {
					time.Sleep(remaining)
					idle += remaining
				} else if !warned {
					w.log.Warnf("worker %d: burst of %d messages exceeded the %s period, pacing disabled for overrunning bursts", w.id, beats, period)
					warned = true
				}
			}
			burstStart = time.Now()
		} else if beatsDelay > 0 {
			time.Sleep(beatsDelay)
			idle += beatsDelay
		}
	}
	elapsed := time.Since(start)

	seen := w.drain(count)

	dropped := count - len(seen)
	result := model.WorkerResult{
		Worker:            w.id,
		TelemetryType:     w.cfg.TelemetryType,
		Messages:          count,
		Dropped:           dropped,
		DroppedPercent:    float64(dropped) * 100 / float64(count),
		TotalSeconds:      elapsed.Seconds(),
		IdleSeconds:       idle.Seconds(),
		NonIdleSeconds:    (elapsed - idle).Seconds(),
		MessagesPerSecond: float64(count) / elapsed.Seconds(),
		BytesPerMessage:   float64(bytesTotal) / float64(count),
		MsPerMessage:      elapsed.Seconds() * 1000 / float64(count),
		Parameters:        w.cfg.Point,
	}
	w.log.Infof("worker %d: published %d, dropped %d (%.1f%%) in %.2fs", w.id, count, dropped, result.DroppedPercent, result.TotalSeconds)
	return result, nil
}

// drain collects distinct correlated msgids until every published id has
// been observed or the drain window expires. Duplicate deliveries at QoS>0
// are deduplicated and never double-count.
func (w *Worker) drain(count int) map[int]struct{} {
	seen := make(map[int]struct{}, count)
	deadline := time.NewTimer(w.cfg.DrainWindow)
	defer deadline.Stop()
	for len(seen) < count {
		select {
		case payload, ok := <-w.session.Messages():
			if !ok {
				return seen
			}
			if id, ok := extractMsgID(w.cfg.TelemetryType, payload); ok && id >= 1 && id <= count {
				seen[id] = struct{}{}
			}
		case <-deadline.C:
			return seen
		}
	}
	return seen
}
