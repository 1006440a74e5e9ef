package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	m "github.com/courselab/langs/internal/model"
)

var errGenericRun = errors.New("test run could not produce a verdict")

// testCmd represents the test command.
var testCmd = newTestCmd()

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test [root]",
		Short: "Run the exercise's test suite",
		Long: `Runs the exercise's tests with the ecosystem's toolchain and prints
per-test results. A failing test suite is a normal outcome, not an
error; the exit code is non-zero only when the run could not happen.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := exerciseRoot(args)

			plugin, err := registry.DetectPlugin(root)
			if err != nil {
				return err
			}

			result := plugin.RunTests(cmd.Context(), root)
			ui.DisplayRunResult(cmd.Context(), result)

			if result.Status == m.RunGenericError {
				cmd.SilenceUsage = true
				return errGenericRun
			}

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(testCmd)
}
