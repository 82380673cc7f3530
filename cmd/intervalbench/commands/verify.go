package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/intervaltree/internal/verify"
	"github.com/Sumatoshi-tech/intervaltree/pkg/config"
	"github.com/Sumatoshi-tech/intervaltree/pkg/observability"
)

// ErrVerifyFailed is returned when any algorithm disagrees with the reference.
var ErrVerifyFailed = errors.New("verification failed")

type verifyRunner func(ctx context.Context, opts verify.Options) (*verify.Report, error)

// VerifyCommand holds flags and dependencies for the verify command.
type VerifyCommand struct {
	common commonFlags

	algorithms   []string
	seeds        int
	maxIntervals int
	keySpace     int
	querySpace   int
	noColor      bool

	run verifyRunner
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand() *cobra.Command {
	return newVerifyCommandWithDeps(verify.Run)
}

func newVerifyCommandWithDeps(run verifyRunner) *cobra.Command {
	vc := &VerifyCommand{run: run}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Cross-check algorithms against the linear reference",
		Long: `Build random interval sets for many seeds and compare every point,
range and exclusive query of each algorithm with a linear scan.`,
		Args: cobra.NoArgs,
		RunE: vc.runE,
	}

	vc.common.register(cmd)

	flags := cmd.Flags()
	flags.StringSliceVarP(&vc.algorithms, "algorithms", "a", nil, "Algorithms to check: augmented, centered")
	flags.IntVar(&vc.seeds, "seeds", 0, "Number of random seeds")
	flags.IntVar(&vc.maxIntervals, "max-intervals", 0, "Maximum intervals per seed")
	flags.IntVar(&vc.keySpace, "key-space", 0, "Interval keys are drawn from [0, key-space)")
	flags.IntVar(&vc.querySpace, "query-space", 0, "Points in [0, query-space) are queried")
	flags.BoolVar(&vc.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (vc *VerifyCommand) apply(cmd *cobra.Command, cfg *config.VerifyConfig) {
	flags := cmd.Flags()

	if flags.Changed("algorithms") {
		cfg.Algorithms = vc.algorithms
	}

	if flags.Changed("seeds") {
		cfg.Seeds = vc.seeds
	}

	if flags.Changed("max-intervals") {
		cfg.MaxIntervals = vc.maxIntervals
	}

	if flags.Changed("key-space") {
		cfg.KeySpace = vc.keySpace
	}

	if flags.Changed("query-space") {
		cfg.QuerySpace = vc.querySpace
	}
}

func (vc *VerifyCommand) runE(cmd *cobra.Command, _ []string) error {
	if vc.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	cfg, err := vc.common.load(cmd)
	if err != nil {
		return err
	}

	vc.apply(cmd, &cfg.Verify)

	err = cfg.Validate()
	if err != nil {
		return err
	}

	algos, err := parseAlgorithms(cfg.Verify.Algorithms)
	if err != nil {
		return err
	}

	sess, err := startSession(cmd, cfg, observability.ModeVerify, false)
	if err != nil {
		return err
	}

	report, err := vc.run(cmd.Context(), verify.Options{
		Algorithms:   algos,
		Seeds:        cfg.Verify.Seeds,
		MaxIntervals: cfg.Verify.MaxIntervals,
		KeySpace:     cfg.Verify.KeySpace,
		QuerySpace:   cfg.Verify.QuerySpace,
		Logger:       sess.logger(),
		Metrics:      sess.benchMetrics(),
	})
	if err != nil {
		return sess.close(fmt.Errorf("verify: %w", err))
	}

	err = verify.Write(cmd.OutOrStdout(), report)
	if err == nil && !report.Passed() {
		err = ErrVerifyFailed
	}

	return sess.close(err)
}
