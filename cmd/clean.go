package cmd

import (
	"github.com/spf13/cobra"
)

// cleanCmd represents the clean command.
var cleanCmd = newCleanCmd()

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [root]",
		Short: "Remove build artifacts from an exercise",
		Long:  "Runs the ecosystem's cleanup, removing build output and leftover test result files.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := exerciseRoot(args)

			plugin, err := registry.DetectPlugin(root)
			if err != nil {
				return err
			}

			return plugin.Clean(cmd.Context(), root)
		},
	}
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
