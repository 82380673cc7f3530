package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/intervaltree/internal/memtest"
	"github.com/Sumatoshi-tech/intervaltree/internal/workload"
	"github.com/Sumatoshi-tech/intervaltree/pkg/alg/interval"
	"github.com/Sumatoshi-tech/intervaltree/pkg/config"
	"github.com/Sumatoshi-tech/intervaltree/pkg/observability"
)

type memtestRunner func(ctx context.Context, opts memtest.Options) (*memtest.Report, error)

// MemtestCommand holds flags and dependencies for the memtest command.
type MemtestCommand struct {
	common commonFlags

	algorithm   string
	memoryMax   string
	metricsAddr string
	seed        uint64
	count       int
	capacity    int
	treesMax    int
	hang        bool

	run memtestRunner
}

// NewMemtestCommand creates the memtest command.
func NewMemtestCommand() *cobra.Command {
	return newMemtestCommandWithDeps(memtest.Run)
}

func newMemtestCommandWithDeps(run memtestRunner) *cobra.Command {
	mc := &MemtestCommand{run: run}

	cmd := &cobra.Command{
		Use:   "memtest",
		Short: "Measure the heap cost of built trees",
		Long: `Build trees of uniform random intervals until the heap grows by the
memory budget or the tree limit is reached, then report the cost per tree
and per interval.`,
		Args: cobra.NoArgs,
		RunE: mc.runE,
	}

	mc.common.register(cmd)

	flags := cmd.Flags()
	flags.StringVar(&mc.algorithm, "algorithm", "", "Algorithm: augmented, centered, linear")
	flags.StringVar(&mc.memoryMax, "memory-max", "", "Heap growth budget (e.g. '512MB', '1GB')")
	flags.StringVar(&mc.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. ':9090')")
	flags.Uint64Var(&mc.seed, "seed", 0, "Workload seed")
	flags.IntVarP(&mc.count, "count", "n", 0, "Intervals per tree")
	flags.IntVar(&mc.capacity, "capacity", 0, "Initial tree capacity (0 = default)")
	flags.IntVar(&mc.treesMax, "trees-max", 0, "Maximum number of trees")
	flags.BoolVar(&mc.hang, "hang", false, "Keep the trees alive until interrupted")

	return cmd
}

func (mc *MemtestCommand) apply(cmd *cobra.Command, cfg *config.MemtestConfig) {
	flags := cmd.Flags()

	if flags.Changed("algorithm") {
		cfg.Algorithm = mc.algorithm
	}

	if flags.Changed("memory-max") {
		cfg.MemoryMax = mc.memoryMax
	}

	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = mc.metricsAddr
	}

	if flags.Changed("seed") {
		cfg.Seed = mc.seed
	}

	if flags.Changed("count") {
		cfg.Count = mc.count
	}

	if flags.Changed("capacity") {
		cfg.Capacity = mc.capacity
	}

	if flags.Changed("trees-max") {
		cfg.TreesMax = mc.treesMax
	}

	if flags.Changed("hang") {
		cfg.Hang = mc.hang
	}
}

func (mc *MemtestCommand) runE(cmd *cobra.Command, _ []string) error {
	cfg, err := mc.common.load(cmd)
	if err != nil {
		return err
	}

	mc.apply(cmd, &cfg.Memtest)

	err = cfg.Validate()
	if err != nil {
		return err
	}

	algo, err := interval.ParseAlgorithm(cfg.Memtest.Algorithm)
	if err != nil {
		return err
	}

	budget, err := cfg.Memtest.MemoryMaxBytes()
	if err != nil {
		return err
	}

	serveMetrics := cfg.Memtest.MetricsAddr != ""

	sess, err := startSession(cmd, cfg, observability.ModeMemtest, serveMetrics)
	if err != nil {
		return err
	}

	if serveMetrics {
		srv, listenErr := memtest.ListenMetrics(cfg.Memtest.MetricsAddr, sess.providers.MetricsHandler)
		if listenErr != nil {
			return sess.close(listenErr)
		}

		sess.logger().Info("serving metrics", "addr", srv.Addr())

		defer func() {
			shutdownErr := srv.Shutdown(context.Background())
			if shutdownErr != nil {
				sess.logger().Warn("metrics server shutdown", "error", shutdownErr)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()

	var writeErr error

	_, err = mc.run(ctx, memtest.Options{
		Algorithm: algo,
		Budget:    budget,
		TreesMax:  cfg.Memtest.TreesMax,
		Capacity:  cfg.Memtest.Capacity,
		Workload: workload.Params{
			Kind:    workload.KindUniform,
			Count:   cfg.Memtest.Count,
			Seed:    cfg.Memtest.Seed,
			KeyMax:  cfg.Memtest.IntervalMax,
			Step:    cfg.Memtest.IntervalStep,
			MaxSize: cfg.Memtest.IntervalMaxSize,
		},
		Hang:        cfg.Memtest.Hang,
		Logger:      sess.logger(),
		Metrics:     sess.benchMetrics(),
		TreeOptions: sess.treeOptions(),
		OnReport:    func(r *memtest.Report) { writeErr = memtest.WriteTable(out, r) },
	})
	if err != nil {
		return sess.close(fmt.Errorf("memtest: %w", err))
	}

	return sess.close(writeErr)
}
