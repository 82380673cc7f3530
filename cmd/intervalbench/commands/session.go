// Package commands implements the intervalbench CLI commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/intervaltree/pkg/alg/interval"
	"github.com/Sumatoshi-tech/intervaltree/pkg/config"
	"github.com/Sumatoshi-tech/intervaltree/pkg/observability"
	"github.com/Sumatoshi-tech/intervaltree/pkg/version"
)

const logFormatJSON = "json"

// commonFlags are registered on every command that loads configuration.
type commonFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func (cf *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cf.configPath, "config", "", "Config file path (default: ./intervalbench.yaml)")
	cmd.Flags().StringVar(&cf.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&cf.logFormat, "log-format", "", "Log format: text, json")
}

// load reads the config file and applies the logging flags.
func (cf *commonFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(cf.configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = cf.logLevel
	}

	if cmd.Flags().Changed("log-format") {
		cfg.Logging.Format = cf.logFormat
	}

	return cfg, nil
}

// session holds the observability providers of one command run.
type session struct {
	providers observability.Providers
}

// startSession initializes telemetry and logging for mode. Logs go to the
// command's error stream.
func startSession(cmd *cobra.Command, cfg *config.Config, mode observability.AppMode, prometheus bool) (*session, error) {
	level, err := config.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Observability.Environment
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Observability.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.SampleRatio = cfg.Observability.SampleRatio
	obsCfg.Prometheus = prometheus
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.Format == logFormatJSON
	obsCfg.LogOutput = cmd.ErrOrStderr()

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return &session{providers: providers}, nil
}

func (s *session) logger() *slog.Logger {
	return s.providers.Logger
}

// treeOptions wires the session's telemetry into every tree.
func (s *session) treeOptions() []interval.Option {
	return []interval.Option{
		interval.WithLogger(s.providers.Logger),
		interval.WithTracer(s.providers.Tracer),
		interval.WithMeter(s.providers.Meter),
	}
}

func (s *session) benchMetrics() *observability.BenchMetrics {
	bm, err := observability.NewBenchMetrics(s.providers.Meter)
	if err != nil {
		s.logger().Warn("bench metrics disabled", "error", err)

		return nil
	}

	return bm
}

// close flushes telemetry, joining err with any shutdown failure.
func (s *session) close(err error) error {
	shutdownErr := s.providers.Shutdown(context.Background())
	if shutdownErr != nil {
		return errors.Join(err, fmt.Errorf("shutdown observability: %w", shutdownErr))
	}

	return err
}

func parseAlgorithms(names []string) ([]interval.Algorithm, error) {
	algos := make([]interval.Algorithm, 0, len(names))

	for _, name := range names {
		algo, err := interval.ParseAlgorithm(name)
		if err != nil {
			return nil, err
		}

		algos = append(algos, algo)
	}

	return algos, nil
}
