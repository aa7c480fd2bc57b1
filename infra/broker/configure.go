// Package broker manages the local mosquitto broker and the downstream
// mapper service around benchmark runs.
package broker

import (
	"fmt"
	"os"
	"strings"

	"github.com/kilianp07/mqttbench/infra/logger"
)

// DefaultBridgeConfig is where the cloud bridge configuration lives on a
// device with the default mapper installation.
const DefaultBridgeConfig = "/etc/tedge/mosquitto-conf/c8y-bridge.conf"

// DefaultBridgeRule is the upstream forwarding rule disabled during
// benchmarks so local load never reaches the cloud tenant.
const DefaultBridgeRule = "s/us"

// DisableBridgeRule idempotently comments out every `topic` line matching
// rule in the bridge configuration file. It reports whether the file was
// modified; a missing file is a no-op, not an error.
func DisableBridgeRule(path, rule string, log logger.Logger) (bool, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Infof("bridge config %s not present, nothing to do", path)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read bridge config: %w", err)
	}

	lines := strings.Split(string(raw), "\n")
	changed := false
	for i, line := range lines {
		fields := strings.Fields(line)
		// Only the rule's own topic pattern counts, not lines where the
		// rule happens to appear as a substring of another pattern.
		if len(fields) >= 2 && fields[0] == "topic" && fields[1] == rule {
			lines[i] = "#" + line
			changed = true
		}
	}
	if !changed {
		log.Infof("bridge rule %q already disabled in %s", rule, path)
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("write bridge config: %w", err)
	}
	log.Infof("disabled bridge rule %q in %s", rule, path)
	return true, nil
}
