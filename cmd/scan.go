package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

var scanNameFlag string

// scanCmd represents the scan command.
var scanCmd = newScanCmd()

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Scan an exercise for tests and points",
		Long:  "Statically inspects the exercise sources and prints the tests and the points they award.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := exerciseRoot(args)

			plugin, err := registry.DetectPlugin(root)
			if err != nil {
				return err
			}

			name := scanNameFlag
			if name == "" {
				abs, err := filepath.Abs(string(root))
				if err != nil {
					return err
				}

				name = filepath.Base(abs)
			}

			desc, err := plugin.ScanExercise(root, name)
			if err != nil {
				return err
			}

			ui.DisplayExerciseDesc(cmd.Context(), desc)

			return nil
		},
	}

	cmd.Flags().StringVarP(&scanNameFlag, "name", "n", "", "exercise name to report (default: root directory name)")

	return cmd
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
