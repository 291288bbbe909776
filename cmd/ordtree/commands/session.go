// Package commands implements CLI command handlers for ordtree.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/Sumatoshi-tech/ordtree/internal/config"
	"github.com/Sumatoshi-tech/ordtree/internal/observability"
	"github.com/Sumatoshi-tech/ordtree/internal/workload"
	"github.com/Sumatoshi-tech/ordtree/pkg/version"
)

// ErrRunFailed is returned when a replay or check does not pass.
var ErrRunFailed = errors.New("run failed")

// observabilityInit matches observability.Init so tests can substitute providers.
type observabilityInit func(observability.Config, observability.Options) (observability.Providers, error)

// commonFlags are registered on every tree command.
type commonFlags struct {
	configPath string
	logLevel   string
	noColor    bool
}

func (flags *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "path to ordtree.yaml")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "override logging.level")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "disable coloured output")
}

// session holds the configuration and telemetry of one command invocation.
type session struct {
	cfg       *config.Config
	providers observability.Providers
	runner    *workload.Runner
}

func startSession(
	cmd *cobra.Command, flags *commonFlags, mode observability.AppMode, initFn observabilityInit,
) (*session, error) {
	cfg, err := flags.loadConfig()
	if err != nil {
		return nil, err
	}

	return startSessionWithConfig(cmd, cfg, mode, initFn)
}

// loadConfig reads the configuration and applies flag overrides.
func (flags *commonFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}

	return cfg, nil
}

func startSessionWithConfig(
	cmd *cobra.Command, cfg *config.Config, mode observability.AppMode, initFn observabilityInit,
	readers ...sdkmetric.Reader,
) (*session, error) {
	obsCfg, err := observabilityConfig(cfg, mode)
	if err != nil {
		return nil, err
	}

	providers, err := initFn(obsCfg, observability.Options{
		LogOutput:     cmd.ErrOrStderr(),
		MetricReaders: readers,
	})
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	metrics, err := observability.NewTreeMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	return &session{
		cfg:       cfg,
		providers: providers,
		runner: &workload.Runner{
			Tracer:               providers.Tracer,
			Metrics:              metrics,
			Logger:               providers.Logger,
			HibernationThreshold: cfg.Tree.HibernationThreshold,
		},
	}, nil
}

func (s *session) close() {
	err := s.providers.Shutdown(context.Background())
	if err != nil {
		s.providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

func observabilityConfig(cfg *config.Config, mode observability.AppMode) (observability.Config, error) {
	level, err := config.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return observability.Config{}, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.Format == config.FormatJSON

	return obsCfg, nil
}

// colorize reports whether output to out should carry colour escapes.
func colorize(flags *commonFlags, out io.Writer) bool {
	if flags.noColor {
		return false
	}

	file, ok := out.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
