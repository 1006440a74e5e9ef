package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/courselab/langs/internal/adapter"
)

var packOutputFlag string

// packCmd represents the pack command.
var packCmd = newPackCmd()

func newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack [root]",
		Short: "Package an exercise for submission",
		Long: `Zips the student's files of an exercise, as classified by the
ecosystem's student file policy, into a submission archive.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := exerciseRoot(args)

			plugin, err := registry.DetectPlugin(root)
			if err != nil {
				return err
			}

			config, err := adapter.LoadProjectConfigOrDefault(root)
			if err != nil {
				return err
			}

			archive, err := archiver.Compress(root, plugin.Policy(config))
			if err != nil {
				return err
			}

			if err := os.WriteFile(packOutputFlag, archive, 0o644); err != nil {
				return err
			}

			cmd.Printf("wrote %s (%d bytes)\n", packOutputFlag, len(archive))

			return nil
		},
	}

	cmd.Flags().StringVarP(&packOutputFlag, "output", "o", "submission.zip", "output archive path")

	return cmd
}

func init() {
	rootCmd.AddCommand(packCmd)
}
