package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/ordtree/internal/observability"
	"github.com/Sumatoshi-tech/ordtree/internal/render"
	"github.com/Sumatoshi-tech/ordtree/internal/workload"
)

// NewReplayCommand creates the replay command.
func NewReplayCommand() *cobra.Command {
	return newReplayCommandWithDeps(observability.Init)
}

func newReplayCommandWithDeps(initFn observabilityInit) *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "replay <script.yaml|->",
		Short: "Replay a scripted workload against a fresh tree",
		Long: `Replay decodes a YAML workload script, validates it against the embedded
schema, and applies its steps to a fresh tree. Invariants are verified after
every mutating step unless the script sets "verify: false".

Steps: insert, erase, find, min, max, export, verify, hibernate, destroy.

Examples:
  ordtree replay workload.yaml
  ordtree replay - < workload.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := loadScript(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			sess, err := startSession(cmd, &flags, observability.ModeCLI, initFn)
			if err != nil {
				return err
			}
			defer sess.close()

			report, err := sess.runner.Replay(cmd.Context(), script)
			render.ReplayReport(cmd.OutOrStdout(), report, colorize(&flags, cmd.OutOrStdout()))

			if err != nil {
				return err
			}

			if report.Failed() {
				return fmt.Errorf("%w: %d expectations did not match", ErrRunFailed, len(report.Failures))
			}

			return nil
		},
	}

	flags.register(cmd)

	return cmd
}

func loadScript(stdin io.Reader, path string) (*workload.Script, error) {
	if path == "-" {
		return workload.Decode(stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer file.Close()

	return workload.Decode(file)
}
