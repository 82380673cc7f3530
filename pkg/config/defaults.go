package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName = "intervalbench"
	envPrefix  = "INTERVALBENCH"

	logFormatText = "text"
	logFormatJSON = "json"
)

// Bench defaults.
const (
	DefaultBenchWorkload   = "sparse"
	DefaultBenchSeed       = 123123
	DefaultBenchCount      = 300_000
	DefaultBenchQueries    = 1000
	DefaultBenchRangeWidth = 1000
	DefaultBenchWorkers    = 4
)

// Memtest defaults.
const (
	DefaultMemtestAlgorithm       = "augmented"
	DefaultMemtestMemoryMax       = "1GB"
	DefaultMemtestCount           = 100_000
	DefaultMemtestIntervalMax     = 1_000_000
	DefaultMemtestIntervalStep    = 1
	DefaultMemtestIntervalMaxSize = 100
	DefaultMemtestTreesMax        = 25
)

// Verify defaults.
const (
	DefaultVerifySeeds        = 500
	DefaultVerifyMaxIntervals = 100
	DefaultVerifyKeySpace     = 100
	DefaultVerifyQuerySpace   = 200
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = logFormatText
)

// DefaultAlgorithms lists the algorithms benchmarked and verified by default.
func DefaultAlgorithms() []string {
	return []string{"augmented", "centered"}
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Bench defaults.
	viperCfg.SetDefault("bench.algorithms", DefaultAlgorithms())
	viperCfg.SetDefault("bench.workload", DefaultBenchWorkload)
	viperCfg.SetDefault("bench.chart", "")
	viperCfg.SetDefault("bench.seed", DefaultBenchSeed)
	viperCfg.SetDefault("bench.count", DefaultBenchCount)
	viperCfg.SetDefault("bench.queries", DefaultBenchQueries)
	viperCfg.SetDefault("bench.range_width", DefaultBenchRangeWidth)
	viperCfg.SetDefault("bench.workers", DefaultBenchWorkers)

	// Memtest defaults.
	viperCfg.SetDefault("memtest.algorithm", DefaultMemtestAlgorithm)
	viperCfg.SetDefault("memtest.memory_max", DefaultMemtestMemoryMax)
	viperCfg.SetDefault("memtest.metrics_addr", "")
	viperCfg.SetDefault("memtest.seed", 0)
	viperCfg.SetDefault("memtest.count", DefaultMemtestCount)
	viperCfg.SetDefault("memtest.capacity", 0)
	viperCfg.SetDefault("memtest.interval_max", DefaultMemtestIntervalMax)
	viperCfg.SetDefault("memtest.interval_step", DefaultMemtestIntervalStep)
	viperCfg.SetDefault("memtest.interval_max_size", DefaultMemtestIntervalMaxSize)
	viperCfg.SetDefault("memtest.trees_max", DefaultMemtestTreesMax)
	viperCfg.SetDefault("memtest.hang", false)

	// Verify defaults.
	viperCfg.SetDefault("verify.algorithms", DefaultAlgorithms())
	viperCfg.SetDefault("verify.seeds", DefaultVerifySeeds)
	viperCfg.SetDefault("verify.max_intervals", DefaultVerifyMaxIntervals)
	viperCfg.SetDefault("verify.key_space", DefaultVerifyKeySpace)
	viperCfg.SetDefault("verify.query_space", DefaultVerifyQuerySpace)

	// Logging defaults.
	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	// Observability defaults.
	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.environment", "")
	viperCfg.SetDefault("observability.sample_ratio", 0.0)
	viperCfg.SetDefault("observability.otlp_insecure", false)
}

// Default returns the configuration LoadConfig produces without a file or
// environment overrides.
func Default() Config {
	return Config{
		Bench: BenchConfig{
			Algorithms: DefaultAlgorithms(),
			Workload:   DefaultBenchWorkload,
			Seed:       DefaultBenchSeed,
			Count:      DefaultBenchCount,
			Queries:    DefaultBenchQueries,
			RangeWidth: DefaultBenchRangeWidth,
			Workers:    DefaultBenchWorkers,
		},
		Memtest: MemtestConfig{
			Algorithm:       DefaultMemtestAlgorithm,
			MemoryMax:       DefaultMemtestMemoryMax,
			Count:           DefaultMemtestCount,
			IntervalMax:     DefaultMemtestIntervalMax,
			IntervalStep:    DefaultMemtestIntervalStep,
			IntervalMaxSize: DefaultMemtestIntervalMaxSize,
			TreesMax:        DefaultMemtestTreesMax,
		},
		Verify: VerifyConfig{
			Algorithms:   DefaultAlgorithms(),
			Seeds:        DefaultVerifySeeds,
			MaxIntervals: DefaultVerifyMaxIntervals,
			KeySpace:     DefaultVerifyKeySpace,
			QuerySpace:   DefaultVerifyQuerySpace,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// ParseLogLevel maps debug, info, warn and error to an slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	var lvl slog.Level

	err := lvl.UnmarshalText([]byte(strings.TrimSpace(level)))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, level)
	}

	return lvl, nil
}
