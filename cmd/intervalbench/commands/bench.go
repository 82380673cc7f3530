package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/intervaltree/internal/bench"
	"github.com/Sumatoshi-tech/intervaltree/internal/workload"
	"github.com/Sumatoshi-tech/intervaltree/pkg/config"
	"github.com/Sumatoshi-tech/intervaltree/pkg/observability"
)

type benchRunner func(ctx context.Context, opts bench.Options) (*bench.Report, error)

// BenchCommand holds flags and dependencies for the bench command.
type BenchCommand struct {
	common commonFlags

	algorithms []string
	workload   string
	chart      string
	seed       uint64
	count      int
	queries    int
	rangeWidth int64
	workers    int

	run benchRunner
}

// NewBenchCommand creates the bench command.
func NewBenchCommand() *cobra.Command {
	return newBenchCommandWithDeps(bench.Run)
}

func newBenchCommandWithDeps(run benchRunner) *cobra.Command {
	bc := &BenchCommand{run: run}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark load and query throughput",
		Long: `Generate a workload, load it into one tree per algorithm and time
point, range, churn and concurrent queries.`,
		Args: cobra.NoArgs,
		RunE: bc.runE,
	}

	bc.common.register(cmd)

	flags := cmd.Flags()
	flags.StringSliceVarP(&bc.algorithms, "algorithms", "a", nil, "Algorithms: augmented, centered, linear")
	flags.StringVarP(&bc.workload, "workload", "w", "", "Workload: sparse, uniform, wide, skewed")
	flags.StringVar(&bc.chart, "chart", "", "Write an HTML latency chart to this path")
	flags.Uint64Var(&bc.seed, "seed", 0, "Workload seed")
	flags.IntVarP(&bc.count, "count", "n", 0, "Intervals per tree")
	flags.IntVar(&bc.queries, "queries", 0, "Queries per scenario")
	flags.Int64Var(&bc.rangeWidth, "range-width", 0, "Width of range queries")
	flags.IntVar(&bc.workers, "workers", 0, "Concurrent query workers")

	return cmd
}

func (bc *BenchCommand) apply(cmd *cobra.Command, cfg *config.BenchConfig) {
	flags := cmd.Flags()

	if flags.Changed("algorithms") {
		cfg.Algorithms = bc.algorithms
	}

	if flags.Changed("workload") {
		cfg.Workload = bc.workload
	}

	if flags.Changed("chart") {
		cfg.Chart = bc.chart
	}

	if flags.Changed("seed") {
		cfg.Seed = bc.seed
	}

	if flags.Changed("count") {
		cfg.Count = bc.count
	}

	if flags.Changed("queries") {
		cfg.Queries = bc.queries
	}

	if flags.Changed("range-width") {
		cfg.RangeWidth = bc.rangeWidth
	}

	if flags.Changed("workers") {
		cfg.Workers = bc.workers
	}
}

func (bc *BenchCommand) runE(cmd *cobra.Command, _ []string) error {
	cfg, err := bc.common.load(cmd)
	if err != nil {
		return err
	}

	bc.apply(cmd, &cfg.Bench)

	err = cfg.Validate()
	if err != nil {
		return err
	}

	algos, err := parseAlgorithms(cfg.Bench.Algorithms)
	if err != nil {
		return err
	}

	kind, err := workload.ParseKind(cfg.Bench.Workload)
	if err != nil {
		return err
	}

	sess, err := startSession(cmd, cfg, observability.ModeBench, false)
	if err != nil {
		return err
	}

	// Uniform workloads share the memtest key space.
	report, err := bc.run(cmd.Context(), bench.Options{
		Algorithms: algos,
		Workload: workload.Params{
			Kind:    kind,
			Count:   cfg.Bench.Count,
			Seed:    cfg.Bench.Seed,
			KeyMax:  cfg.Memtest.IntervalMax,
			Step:    cfg.Memtest.IntervalStep,
			MaxSize: cfg.Memtest.IntervalMaxSize,
		},
		Queries:     cfg.Bench.Queries,
		RangeWidth:  cfg.Bench.RangeWidth,
		Workers:     cfg.Bench.Workers,
		Logger:      sess.logger(),
		Metrics:     sess.benchMetrics(),
		TreeOptions: sess.treeOptions(),
	})
	if err != nil {
		return sess.close(fmt.Errorf("bench: %w", err))
	}

	err = bench.WriteTable(cmd.OutOrStdout(), report)
	if err == nil && cfg.Bench.Chart != "" {
		err = writeChart(cfg.Bench.Chart, report)
	}

	return sess.close(err)
}

func writeChart(path string, report *bench.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}

	return closeAfter(f, bench.WriteChart(f, report))
}

func closeAfter(c io.Closer, err error) error {
	closeErr := c.Close()
	if err != nil {
		return err
	}

	return closeErr
}
