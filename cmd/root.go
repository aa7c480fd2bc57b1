package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	verbose bool
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:          "mqttbench",
	Short:        "MQTT telemetry throughput benchmark",
	Long:         "Publishes shaped bursts of telemetry through the local broker and verifies round-trips on the mapper's downstream topics.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		switch {
		case debug:
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		case verbose:
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		default:
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "optional configuration file (yaml or json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress at info level")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }
