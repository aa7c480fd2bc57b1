package broker

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kilianp07/mqttbench/infra/logger"
)

// SystemdManager restarts units through systemctl and polls their health.
type SystemdManager struct {
	log logger.Logger
}

// NewSystemdManager creates a manager logging through the given logger.
func NewSystemdManager(log logger.Logger) *SystemdManager {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &SystemdManager{log: log}
}

// Restart restarts the unit.
func (m *SystemdManager) Restart(ctx context.Context, unit string) error {
	m.log.Infof("restarting %s", unit)
	out, err := exec.CommandContext(ctx, "systemctl", "restart", unit).CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl restart %s: %v: %s", unit, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// WaitHealthy polls `systemctl is-active` until the unit reports active or
// the timeout expires.
func (m *SystemdManager) WaitHealthy(ctx context.Context, unit string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		out, _ := exec.CommandContext(ctx, "systemctl", "is-active", unit).Output()
		if strings.TrimSpace(string(out)) == "active" {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return fmt.Errorf("%s did not report healthy within %s", unit, timeout)
}
