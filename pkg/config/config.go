// Package config provides configuration loading and validation for the
// intervalbench tool.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/intervaltree/internal/workload"
	"github.com/Sumatoshi-tech/intervaltree/pkg/alg/interval"
)

// Sentinel validation errors.
var (
	ErrInvalidCount      = errors.New("interval count must be positive")
	ErrInvalidQueries    = errors.New("query count must be positive")
	ErrInvalidWorkers    = errors.New("worker count must be positive")
	ErrInvalidSeeds      = errors.New("seed count must be positive")
	ErrInvalidKeySpace   = errors.New("key space must be positive")
	ErrInvalidStep       = errors.New("interval step must be positive")
	ErrInvalidMemoryMax  = errors.New("invalid memory budget")
	ErrInvalidTreesMax   = errors.New("maximum tree count must be positive")
	ErrInvalidLogFormat  = errors.New("log format must be text or json")
	ErrInvalidLogLevel   = errors.New("invalid log level")
	ErrInvalidSampleRate = errors.New("sample ratio must be within [0, 1]")
)

// Config holds all configuration for intervalbench.
type Config struct {
	Bench         BenchConfig         `mapstructure:"bench" yaml:"bench"`
	Memtest       MemtestConfig       `mapstructure:"memtest" yaml:"memtest"`
	Verify        VerifyConfig        `mapstructure:"verify" yaml:"verify"`
	Logging       LoggingConfig       `mapstructure:"logging" yaml:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability" yaml:"observability"`
}

// BenchConfig holds benchmark settings.
type BenchConfig struct {
	Algorithms []string `mapstructure:"algorithms" yaml:"algorithms"`
	Workload   string   `mapstructure:"workload" yaml:"workload"`
	Chart      string   `mapstructure:"chart" yaml:"chart"`
	Seed       uint64   `mapstructure:"seed" yaml:"seed"`
	Count      int      `mapstructure:"count" yaml:"count"`
	Queries    int      `mapstructure:"queries" yaml:"queries"`
	RangeWidth int64    `mapstructure:"range_width" yaml:"range_width"`
	Workers    int      `mapstructure:"workers" yaml:"workers"`
}

// MemtestConfig holds memory test settings.
type MemtestConfig struct {
	Algorithm       string `mapstructure:"algorithm" yaml:"algorithm"`
	MemoryMax       string `mapstructure:"memory_max" yaml:"memory_max"`
	MetricsAddr     string `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	Seed            uint64 `mapstructure:"seed" yaml:"seed"`
	Count           int    `mapstructure:"count" yaml:"count"`
	Capacity        int    `mapstructure:"capacity" yaml:"capacity"`
	IntervalMax     int64  `mapstructure:"interval_max" yaml:"interval_max"`
	IntervalStep    int64  `mapstructure:"interval_step" yaml:"interval_step"`
	IntervalMaxSize int64  `mapstructure:"interval_max_size" yaml:"interval_max_size"`
	TreesMax        int    `mapstructure:"trees_max" yaml:"trees_max"`
	Hang            bool   `mapstructure:"hang" yaml:"hang"`
}

// VerifyConfig holds cross-check settings.
type VerifyConfig struct {
	Algorithms   []string `mapstructure:"algorithms" yaml:"algorithms"`
	Seeds        int      `mapstructure:"seeds" yaml:"seeds"`
	MaxIntervals int      `mapstructure:"max_intervals" yaml:"max_intervals"`
	KeySpace     int      `mapstructure:"key_space" yaml:"key_space"`
	QuerySpace   int      `mapstructure:"query_space" yaml:"query_space"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ObservabilityConfig holds telemetry export settings.
type ObservabilityConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers" yaml:"otlp_headers"`
	Environment  string  `mapstructure:"environment" yaml:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure" yaml:"otlp_insecure"`
}

// MemoryMaxBytes parses the memory budget, e.g. "1GB" or "512MiB".
func (m MemtestConfig) MemoryMaxBytes() (uint64, error) {
	n, err := humanize.ParseBytes(m.MemoryMax)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidMemoryMax, m.MemoryMax, err)
	}

	if n == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMemoryMax, m.MemoryMax)
	}

	return n, nil
}

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches the default locations and tolerates a
// missing file.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("$HOME/.intervalbench")
	}

	viperCfg.SetEnvPrefix(envPrefix)
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

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Validate checks cfg after command-line overrides were applied.
func (c *Config) Validate() error {
	return validateConfig(c)
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if err := validateBench(&config.Bench); err != nil {
		return err
	}

	if err := validateMemtest(&config.Memtest); err != nil {
		return err
	}

	if err := validateVerify(&config.Verify); err != nil {
		return err
	}

	switch config.Logging.Format {
	case logFormatText, logFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if _, err := ParseLogLevel(config.Logging.Level); err != nil {
		return err
	}

	if config.Observability.SampleRatio < 0 || config.Observability.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, config.Observability.SampleRatio)
	}

	return nil
}

func validateBench(bench *BenchConfig) error {
	if bench.Count <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, bench.Count)
	}

	if bench.Queries <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQueries, bench.Queries)
	}

	if bench.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, bench.Workers)
	}

	if _, err := workload.ParseKind(bench.Workload); err != nil {
		return err
	}

	return validateAlgorithms(bench.Algorithms)
}

func validateMemtest(memtest *MemtestConfig) error {
	if memtest.Count <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, memtest.Count)
	}

	if memtest.IntervalMax <= 0 || memtest.IntervalMaxSize <= 0 {
		return fmt.Errorf("%w: max %d, max size %d", ErrInvalidKeySpace, memtest.IntervalMax, memtest.IntervalMaxSize)
	}

	if memtest.IntervalStep <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidStep, memtest.IntervalStep)
	}

	if memtest.TreesMax <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTreesMax, memtest.TreesMax)
	}

	if _, err := memtest.MemoryMaxBytes(); err != nil {
		return err
	}

	return validateAlgorithms([]string{memtest.Algorithm})
}

func validateVerify(verify *VerifyConfig) error {
	if verify.Seeds <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSeeds, verify.Seeds)
	}

	if verify.MaxIntervals <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, verify.MaxIntervals)
	}

	if verify.KeySpace <= 0 || verify.QuerySpace <= 0 {
		return fmt.Errorf("%w: keys %d, queries %d", ErrInvalidKeySpace, verify.KeySpace, verify.QuerySpace)
	}

	return validateAlgorithms(verify.Algorithms)
}

func validateAlgorithms(names []string) error {
	for _, name := range names {
		if _, err := interval.ParseAlgorithm(name); err != nil {
			return err
		}
	}

	return nil
}
