package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/mqttbench/infra/broker"
	"github.com/kilianp07/mqttbench/infra/logger"
)

var configureFlags struct {
	bridgeConfig string
	bridgeRule   string
	brokerUnit   string
}

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Disable the cloud bridge rule so benchmark load stays local",
	RunE:  configureBroker,
}

func init() {
	f := configureCmd.Flags()
	f.StringVar(&configureFlags.bridgeConfig, "bridge-config", broker.DefaultBridgeConfig, "mosquitto bridge configuration file")
	f.StringVar(&configureFlags.bridgeRule, "bridge-rule", broker.DefaultBridgeRule, "bridge topic rule to comment out")
	f.StringVar(&configureFlags.brokerUnit, "broker-service", "mosquitto", "broker service unit to restart after a change")
	rootCmd.AddCommand(configureCmd)
}

// configureBroker is idempotent: the broker is only restarted when the
// bridge file actually changed, and a missing file is a successful no-op.
func configureBroker(cmd *cobra.Command, args []string) error {
	log := logger.New("configure")
	changed, err := broker.DisableBridgeRule(configureFlags.bridgeConfig, configureFlags.bridgeRule, log)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()
	svc := broker.NewSystemdManager(log)
	if err := svc.Restart(ctx, configureFlags.brokerUnit); err != nil {
		return fmt.Errorf("restart broker: %w", err)
	}
	if err := svc.WaitHealthy(ctx, configureFlags.brokerUnit, 30*time.Second); err != nil {
		return fmt.Errorf("broker not healthy after restart: %w", err)
	}
	return nil
}
