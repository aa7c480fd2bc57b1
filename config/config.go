// Package config loads the optional configuration file and applies the
// defaults CLI flags are layered on top of.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/mqttbench/core/metrics"
	"github.com/kilianp07/mqttbench/infra/mqtt"
)

// Config is the full benchmark configuration.
type Config struct {
	MQTT      mqtt.Config     `json:"mqtt"`
	Benchmark BenchmarkConfig `json:"benchmark"`
	Metrics   metrics.Config  `json:"metrics"`
}

// BenchmarkConfig holds the sweep and topic parameters. Count, Beats,
// BeatsDelay and Period stay textual range specs until the sweep package
// expands them.
type BenchmarkConfig struct {
	Count      string `json:"count"`
	Beats      string `json:"beats"`
	BeatsDelay string `json:"beats_delay"`
	Period     string `json:"period"`

	QoS        int `json:"qos"`
	Datapoints int `json:"datapoints"`
	Clients    int `json:"clients"`
	Iterations int `json:"iterations"`

	TelemetryType string `json:"telemetry_type"`
	TypeName      string `json:"type_name"`
	TopicRoot     string `json:"topic_root"`
	TopicID       string `json:"topic_id"`

	RestartService bool   `json:"restart_service"`
	ServiceUnit    string `json:"service_unit"`
	Pretty         bool   `json:"pretty"`
}

// SetDefaults applies sane defaults.
func (c *BenchmarkConfig) SetDefaults() {
	if c.Count == "" {
		c.Count = "100"
	}
	if c.Beats == "" {
		c.Beats = "10"
	}
	if c.BeatsDelay == "" {
		c.BeatsDelay = "0"
	}
	if c.Period == "" {
		c.Period = "1000"
	}
	if c.Datapoints == 0 {
		c.Datapoints = 1
	}
	if c.Clients == 0 {
		c.Clients = 1
	}
	if c.Iterations == 0 {
		c.Iterations = 1
	}
	if c.TelemetryType == "" {
		c.TelemetryType = "measurement"
	}
	if c.TypeName == "" {
		c.TypeName = "benchmark"
	}
	if c.TopicRoot == "" {
		c.TopicRoot = "te"
	}
	if c.TopicID == "" {
		c.TopicID = "device/main//"
	}
	if c.ServiceUnit == "" {
		c.ServiceUnit = "tedge-mapper-c8y"
	}
}

// Validate checks scalar bounds.
func (c BenchmarkConfig) Validate() error {
	if c.QoS < 0 || c.QoS > 2 {
		return fmt.Errorf("qos must be 0, 1 or 2, got %d", c.QoS)
	}
	if c.Clients < 1 {
		return fmt.Errorf("clients must be at least 1, got %d", c.Clients)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Iterations)
	}
	if c.Datapoints < 0 {
		return fmt.Errorf("datapoints must not be negative, got %d", c.Datapoints)
	}
	return nil
}

// Topic builds the outbound telemetry topic for the configured channel
// suffix ("m", "a" or "e").
func (c BenchmarkConfig) Topic(suffix string) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.TopicRoot, c.TopicID, suffix, c.TypeName)
}

// Load reads a configuration file (yaml or json by extension) with optional
// K_ environment overrides, then applies defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Benchmark.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// New returns a Config with all defaults applied, for flag-only runs.
func New() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	c.MQTT.SetDefaults()
	c.Benchmark.SetDefaults()
}
