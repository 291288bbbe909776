package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/ordtree/internal/observability"
	"github.com/Sumatoshi-tech/ordtree/internal/render"
	"github.com/Sumatoshi-tech/ordtree/internal/workload"
)

// NewCheckCommand creates the randomized check command.
func NewCheckCommand() *cobra.Command {
	return newCheckCommandWithDeps(observability.Init)
}

func newCheckCommandWithDeps(initFn observabilityInit) *cobra.Command {
	var (
		flags       commonFlags
		seed        int64
		ops         int
		keySpace    int
		verifyEvery int
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a seeded randomized property check against a sorted-slice oracle",
		Long: `Check applies a seeded random mix of inserts, erases, and lookups to a tree
and to a sorted-slice oracle, verifying invariants and the sorted export as
it goes. Flags override the "check" section of the configuration.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := startSession(cmd, &flags, observability.ModeCLI, initFn)
			if err != nil {
				return err
			}
			defer sess.close()

			opts := workload.CheckOptions{
				Seed:        sess.cfg.Check.Seed,
				Ops:         sess.cfg.Check.Ops,
				KeySpace:    sess.cfg.Check.KeySpace,
				VerifyEvery: sess.cfg.Check.VerifyEvery,
			}

			if cmd.Flags().Changed("seed") {
				opts.Seed = seed
			}

			if cmd.Flags().Changed("ops") {
				opts.Ops = ops
			}

			if cmd.Flags().Changed("key-space") {
				opts.KeySpace = keySpace
			}

			if cmd.Flags().Changed("verify-every") {
				opts.VerifyEvery = verifyEvery
			}

			report, err := sess.runner.Check(cmd.Context(), opts)
			if err != nil {
				return err
			}

			render.CheckTable(cmd.OutOrStdout(), report)

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default from config)")
	cmd.Flags().IntVar(&ops, "ops", 0, "number of operations (default from config)")
	cmd.Flags().IntVar(&keySpace, "key-space", 0, "keys are drawn from [0, key-space) (default from config)")
	cmd.Flags().IntVar(&verifyEvery, "verify-every", 0, "verify invariants every N mutations (default from config)")

	return cmd
}
