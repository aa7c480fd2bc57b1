package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/mqttbench/config"
	"github.com/kilianp07/mqttbench/core/bench"
	coremetrics "github.com/kilianp07/mqttbench/core/metrics"
	"github.com/kilianp07/mqttbench/core/model"
	"github.com/kilianp07/mqttbench/core/sweep"
	"github.com/kilianp07/mqttbench/infra/broker"
	"github.com/kilianp07/mqttbench/infra/logger"
	inframetrics "github.com/kilianp07/mqttbench/infra/metrics"
	"github.com/kilianp07/mqttbench/infra/mqtt"
)

var runFlags struct {
	host          string
	port          int
	iterations    int
	topicID       string
	topicRoot     string
	typeName      string
	clients       int
	qos           int
	datapoints    int
	count         string
	period        string
	beats         string
	beatsDelay    string
	telemetryType string
	restart       bool
	pretty        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the benchmark sweep and print the JSON summary",
	RunE:  runBenchmark,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.host, "host", "localhost", "MQTT broker host")
	f.IntVar(&runFlags.port, "port", 1883, "MQTT broker port")
	f.IntVar(&runFlags.iterations, "iterations", 1, "repetitions per parameter point")
	f.StringVar(&runFlags.topicID, "mqtt-device-topic-id", "device/main//", "device topic identifier")
	f.StringVar(&runFlags.topicRoot, "mqtt-topic-root", "te", "telemetry topic root")
	f.StringVar(&runFlags.typeName, "type_name", "benchmark", "telemetry type name segment")
	f.IntVar(&runFlags.clients, "clients", 1, "parallel publisher clients per parameter point")
	f.IntVar(&runFlags.qos, "qos", 0, "MQTT quality of service")
	f.IntVar(&runFlags.datapoints, "datapoints", 1, "synthetic numeric fields per message")
	f.StringVar(&runFlags.count, "count", "100", "messages per session (range spec)")
	f.StringVar(&runFlags.period, "period", "1000", "burst period in ms (range spec)")
	f.StringVar(&runFlags.beats, "beats", "10", "messages per burst (range spec)")
	f.StringVar(&runFlags.beatsDelay, "beats-delay", "0", "delay between messages within a burst in ms (range spec)")
	f.StringVar(&runFlags.telemetryType, "telemetry-type", "measurement", "telemetry type: measurement, alarm or event")
	f.BoolVar(&runFlags.restart, "restart-service", false, "restart the mapper service after parameter points with drops")
	f.BoolVar(&runFlags.pretty, "pretty", false, "pretty-print the JSON summary")
	rootCmd.AddCommand(runCmd)
}

// loadRunConfig layers explicitly set CLI flags over the optional config
// file so either source can drive a run.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.New()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	set := cmd.Flags().Changed
	if set("host") {
		cfg.MQTT.Host = runFlags.host
	}
	if set("port") {
		cfg.MQTT.Port = runFlags.port
	}
	if set("iterations") {
		cfg.Benchmark.Iterations = runFlags.iterations
	}
	if set("mqtt-device-topic-id") {
		cfg.Benchmark.TopicID = runFlags.topicID
	}
	if set("mqtt-topic-root") {
		cfg.Benchmark.TopicRoot = runFlags.topicRoot
	}
	if set("type_name") {
		cfg.Benchmark.TypeName = runFlags.typeName
	}
	if set("clients") {
		cfg.Benchmark.Clients = runFlags.clients
	}
	if set("qos") {
		cfg.Benchmark.QoS = runFlags.qos
	}
	if set("datapoints") {
		cfg.Benchmark.Datapoints = runFlags.datapoints
	}
	if set("count") {
		cfg.Benchmark.Count = runFlags.count
	}
	if set("period") {
		cfg.Benchmark.Period = runFlags.period
	}
	if set("beats") {
		cfg.Benchmark.Beats = runFlags.beats
	}
	if set("beats-delay") {
		cfg.Benchmark.BeatsDelay = runFlags.beatsDelay
	}
	if set("telemetry-type") {
		cfg.Benchmark.TelemetryType = runFlags.telemetryType
	}
	if set("restart-service") {
		cfg.Benchmark.RestartService = runFlags.restart
	}
	if set("pretty") {
		cfg.Benchmark.Pretty = runFlags.pretty
	}
	if err := cfg.Benchmark.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandSweep turns the four range specs into the zipped sweep. Any
// parameter error surfaces here, before a single connection is opened.
func expandSweep(b config.BenchmarkConfig) ([]model.ParameterPoint, []int, error) {
	counts, err := sweep.ExpandPositive(b.Count)
	if err != nil {
		return nil, nil, err
	}
	beats, err := sweep.ExpandPositive(b.Beats)
	if err != nil {
		return nil, nil, err
	}
	delays, err := sweep.Expand(b.BeatsDelay)
	if err != nil {
		return nil, nil, err
	}
	periods, err := sweep.Expand(b.Period)
	if err != nil {
		return nil, nil, err
	}
	tuples, xAxis := sweep.Zip(counts, beats, delays, periods)
	return bench.Points(tuples), xAxis, nil
}

func buildSink(ctx context.Context, cfg coremetrics.Config, log logger.Logger) coremetrics.MetricsSink {
	var sinks []coremetrics.MetricsSink
	if cfg.PrometheusEnabled {
		sink, err := inframetrics.NewPromSink()
		if err != nil {
			log.Errorf("prom sink: %v", err)
		} else {
			sinks = append(sinks, sink)
			go func() {
				if err := inframetrics.StartPromServer(ctx, cfg.PrometheusPort); err != nil {
					log.Errorf("prom server: %v", err)
				}
			}()
		}
	}
	if cfg.InfluxEnabled {
		sinks = append(sinks, inframetrics.NewInfluxSinkWithFallback(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket))
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}
	case 1:
		return sinks[0]
	default:
		return coremetrics.NewMultiSink(sinks...)
	}
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	ttype, err := model.ParseTelemetryType(cfg.Benchmark.TelemetryType)
	if err != nil {
		return err
	}
	points, xAxis, err := expandSweep(cfg.Benchmark)
	if err != nil {
		return err
	}

	log := logger.New("benchmark")
	sink := buildSink(ctx, cfg.Metrics, log)
	defer func() {
		if err := sink.Close(); err != nil {
			log.Errorf("sink close: %v", err)
		}
	}()

	mqttCfg := cfg.MQTT
	factory := func(worker int, point model.ParameterPoint) (bench.Session, error) {
		return mqtt.Dial(mqttCfg, ttype.VerificationTopic(), byte(cfg.Benchmark.QoS), point.Count*2+64, log)
	}

	var svc bench.ServiceManager
	if cfg.Benchmark.RestartService {
		svc = broker.NewSystemdManager(log)
	}

	pool := bench.NewPool(bench.PoolConfig{
		Clients:       cfg.Benchmark.Clients,
		Iterations:    cfg.Benchmark.Iterations,
		Topic:         cfg.Benchmark.Topic(ttype.ChannelSuffix()),
		QoS:           byte(cfg.Benchmark.QoS),
		Datapoints:    cfg.Benchmark.Datapoints,
		TelemetryType: ttype,
		RestartOnDrop: cfg.Benchmark.RestartService,
		ServiceUnit:   cfg.Benchmark.ServiceUnit,
		PointPause:    time.Second,
	}, factory, sink, svc, log)

	results, err := pool.Run(ctx, points)
	if err != nil {
		return err
	}

	summary := bench.Aggregate(results, xAxis)
	if err := printSummary(cmd, summary, cfg.Benchmark.Pretty); err != nil {
		return err
	}
	if !summary.OK {
		return fmt.Errorf("%d of %d sessions dropped messages", summary.Failed, summary.Failed+summary.Passed)
	}
	return nil
}

func printSummary(cmd *cobra.Command, summary model.BenchmarkSummary, pretty bool) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(summary)
}
