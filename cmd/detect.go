package cmd

import (
	"github.com/spf13/cobra"
)

// detectCmd represents the detect command.
var detectCmd = newDetectCmd()

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [root]",
		Short: "Detect the exercise's language plugin",
		Long:  "Probes the known language ecosystems in priority order and prints the plugin that claims the exercise root.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := exerciseRoot(args)

			plugin, err := registry.DetectPlugin(root)
			if err != nil {
				return err
			}

			ui.DisplayDetectedPlugin(cmd.Context(), root, plugin.Name())

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
