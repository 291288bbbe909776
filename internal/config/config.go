// Package config provides configuration loading and validation for the ordtree tooling.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidSampleRatio = errors.New("sample ratio must be within [0, 1]")
	ErrInvalidThreshold   = errors.New("hibernation threshold must not be negative")
	ErrInvalidOps         = errors.New("check operations must be positive")
	ErrInvalidKeySpace    = errors.New("check key space must be positive")
	ErrInvalidVerifyEvery = errors.New("check verify_every must be positive")
	ErrInvalidBenchSizes  = errors.New("bench sizes must be positive")
	ErrInvalidMetricsAddr = errors.New("invalid metrics listen address")
)

// Default configuration values.
const (
	defaultLogLevel             = "info"
	defaultLogFormat            = "text"
	defaultHibernationThreshold = 0
	defaultCheckSeed            = 1
	defaultCheckOps             = 10000
	defaultCheckKeySpace        = 1000
	defaultCheckVerifyEvery     = 1
	maxSampleRatio              = 1.0
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// DefaultBenchSizes are the tree sizes measured by the bench command.
var DefaultBenchSizes = []int{1_000, 10_000, 100_000}

// Config holds all configuration for the ordtree tooling.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Tree      TreeConfig      `mapstructure:"tree"`
	Check     CheckConfig     `mapstructure:"check"`
	Bench     BenchConfig     `mapstructure:"bench"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
}

// TreeConfig holds settings applied to every tree the tooling creates.
type TreeConfig struct {
	HibernationThreshold int `mapstructure:"hibernation_threshold"`
}

// CheckConfig drives randomized property runs.
type CheckConfig struct {
	Seed        int64 `mapstructure:"seed"`
	Ops         int   `mapstructure:"ops"`
	KeySpace    int   `mapstructure:"key_space"`
	VerifyEvery int   `mapstructure:"verify_every"`
}

// BenchConfig drives the bench command.
type BenchConfig struct {
	PlotPath   string `mapstructure:"plot_path"`
	ProfileDir string `mapstructure:"profile_dir"`
	Sizes      []int  `mapstructure:"sizes"`
	Hibernate  bool   `mapstructure:"hibernate"`
}

// MetricsConfig holds the Prometheus scrape endpoint configuration.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	// Set defaults.
	setDefaults(viperCfg)

	// Read config file.
	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("ordtree")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/ordtree")
	}

	// Read environment variables.
	viperCfg.SetEnvPrefix("ORDTREE")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Logging defaults.
	viperCfg.SetDefault("logging.level", defaultLogLevel)
	viperCfg.SetDefault("logging.format", defaultLogFormat)

	// Telemetry defaults.
	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.environment", "")
	viperCfg.SetDefault("telemetry.sample_ratio", 0)

	// Tree defaults.
	viperCfg.SetDefault("tree.hibernation_threshold", defaultHibernationThreshold)

	// Check defaults.
	viperCfg.SetDefault("check.seed", defaultCheckSeed)
	viperCfg.SetDefault("check.ops", defaultCheckOps)
	viperCfg.SetDefault("check.key_space", defaultCheckKeySpace)
	viperCfg.SetDefault("check.verify_every", defaultCheckVerifyEvery)

	// Bench defaults.
	viperCfg.SetDefault("bench.sizes", DefaultBenchSizes)
	viperCfg.SetDefault("bench.hibernate", true)
	viperCfg.SetDefault("bench.plot_path", "")
	viperCfg.SetDefault("bench.profile_dir", "")

	// Metrics defaults.
	viperCfg.SetDefault("metrics.listen_addr", "")
}

// Validate checks the configuration values.
func (config *Config) Validate() error {
	_, err := ParseLogLevel(config.Logging.Level)
	if err != nil {
		return err
	}

	if config.Logging.Format != FormatText && config.Logging.Format != FormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > maxSampleRatio {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, config.Telemetry.SampleRatio)
	}

	if config.Tree.HibernationThreshold < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, config.Tree.HibernationThreshold)
	}

	if config.Check.Ops <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidOps, config.Check.Ops)
	}

	if config.Check.KeySpace <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidKeySpace, config.Check.KeySpace)
	}

	if config.Check.VerifyEvery <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidVerifyEvery, config.Check.VerifyEvery)
	}

	if len(config.Bench.Sizes) == 0 {
		return fmt.Errorf("%w: none given", ErrInvalidBenchSizes)
	}

	for _, size := range config.Bench.Sizes {
		if size <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidBenchSizes, size)
		}
	}

	if config.Metrics.ListenAddr != "" {
		_, _, splitErr := net.SplitHostPort(config.Metrics.ListenAddr)
		if splitErr != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMetricsAddr, splitErr)
		}
	}

	return nil
}

// ParseLogLevel maps a level name to its slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, level)
	}
}
