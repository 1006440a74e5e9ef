package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/courselab/langs/internal/adapter"
)

var submitCourseFlag string
var submitExerciseFlag string

// submitCmd represents the submit command.
var submitCmd = newSubmitCmd()

func newSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit [root]",
		Short: "Package and submit an exercise",
		Long:  "Packages the student's files of an exercise and uploads the archive to the grading server.",
		Args:  cobra.MaximumNArgs(1),
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

			ctx, cancel := context.WithTimeout(cmd.Context(), submitTimeout)
			defer cancel()

			submissionID, err := newExerciseClient().SubmitExercise(ctx, adapter.ExerciseRef{
				CourseSlug:   submitCourseFlag,
				ExerciseSlug: submitExerciseFlag,
			}, archive)
			if err != nil {
				cmd.SilenceUsage = true
				return err
			}

			cmd.Printf("submission: %s\n", submissionID)

			return nil
		},
	}

	cmd.Flags().StringVar(&submitCourseFlag, "course", "", "course slug on the grading server")
	cmd.Flags().StringVar(&submitExerciseFlag, "exercise", "", "exercise slug on the grading server")
	cobra.CheckErr(cmd.MarkFlagRequired("course"))
	cobra.CheckErr(cmd.MarkFlagRequired("exercise"))

	return cmd
}

func init() {
	rootCmd.AddCommand(submitCmd)
}
