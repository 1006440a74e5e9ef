package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/courselab/langs/internal/domain"
	m "github.com/courselab/langs/internal/model"
)

var updateManifestFlag string

// exerciseManifest is the on-disk list of exercises to keep in sync.
type exerciseManifest struct {
	Exercises []struct {
		ID       uint32 `yaml:"id"`
		Course   string `yaml:"course"`
		Exercise string `yaml:"exercise"`
		Path     string `yaml:"path"`
	} `yaml:"exercises"`
}

// updateCmd represents the update command.
var updateCmd = newUpdateCmd()

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Download or update exercises in a batch",
		Long: `Fetches every exercise listed in the manifest, skipping those whose
server checksum is unchanged, and merges updated templates into the
local copies without clobbering student work. One exercise's failure
never aborts the batch; the full report is printed either way.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := loadManifest(updateManifestFlag)
			if err != nil {
				return err
			}

			reporter.Subscribe(func(update m.StatusUpdate) {
				ui.DisplayProgress(cmd.Context(), update)
			})

			updater := domain.NewBatchUpdater(
				newExerciseClient(),
				exerciseFS,
				archiver,
				registry,
				merger,
				m.Path(viper.GetString(cacheDirConfigKey)),
				domain.WithWorkerCount(viper.GetInt(workersConfigKey)),
				domain.WithProgressReporter(reporter),
			)

			report, err := updater.UpdateExercises(cmd.Context(), items)
			ui.DisplayBatchReport(cmd.Context(), report)

			reportPath := m.Path(filepath.Join(viper.GetString(cacheDirConfigKey), "last-report.json"))
			if saveErr := reportStore.SaveReport(reportPath, report); saveErr != nil {
				slog.Warn("could not persist batch report", "path", reportPath, "error", saveErr)
			}

			if err != nil {
				cmd.SilenceUsage = true
			}

			return err
		},
	}

	cmd.Flags().StringVarP(&updateManifestFlag, "manifest", "m", "exercises.yaml", "manifest listing the exercises to update")
	cmd.Flags().StringP(cacheDirFlagName, "c", viper.GetString(cacheDirConfigKey), "directory for cached exercise templates")
	bindFlagToConfig(cmd.Flags().Lookup(cacheDirFlagName), cacheDirConfigKey)

	return cmd
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func loadManifest(path string) ([]m.ExerciseDownload, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %q: %w", path, err)
	}

	var manifest exerciseManifest
	if err := yaml.Unmarshal(content, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest %q: %w", path, err)
	}

	items := make([]m.ExerciseDownload, 0, len(manifest.Exercises))
	for _, entry := range manifest.Exercises {
		items = append(items, m.ExerciseDownload{
			ID:           entry.ID,
			CourseSlug:   entry.Course,
			ExerciseSlug: entry.Exercise,
			Path:         m.Path(entry.Path),
			State:        m.DownloadPending,
		})
	}

	return items, nil
}
