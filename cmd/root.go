// Package cmd provides the root command and CLI setup for langs.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/courselab/langs/internal/adapter"
	"github.com/courselab/langs/internal/controller"
	"github.com/courselab/langs/internal/domain"
	m "github.com/courselab/langs/internal/model"
)

var runner adapter.CommandRunner
var exerciseFS adapter.ExerciseFS
var registry *domain.Registry
var archiver *domain.Archiver
var merger *domain.Merger
var reportStore adapter.ReportStore
var reporter *controller.ProgressReporter
var ui controller.UI

// logFileFlag overrides the log file destination.
var logFileFlag string

// verboseFlag raises the log level to debug.
var verboseFlag bool

// workersFlag bounds parallel exercise processing.
var workersFlag int

// noTestsFlag enables the no-tests fallback plugin.
var noTestsFlag bool

// serverFlag and tokenFlag point at the grading server.
var serverFlag string
var tokenFlag string

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewSimpleUI(rootCmd)
	runner = adapter.NewLocalCommandRunner()
	exerciseFS = adapter.NewLocalExerciseFS()
	registry = newRegistry()
	archiver = domain.NewArchiver(exerciseFS, registry)
	merger = domain.NewMerger(exerciseFS)
	reportStore = adapter.NewJSONReportStore()
	reporter = controller.NewProgressReporter()
}

func newRegistry() *domain.Registry {
	if viper.GetBool(noTestsConfigKey) {
		return domain.NewRegistry(runner, domain.WithNoTestsFallback())
	}

	return domain.NewRegistry(runner)
}

const rootLongDescription = `langs detects the ecosystem of programming exercises, scans them for
tests and points, runs their test suites with per-exercise timeouts,
packages student submissions, and keeps local exercise copies in sync
with the course template without clobbering student work.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "Exercise toolkit for automated grading",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(logFileFlag, verboseFlag || viper.GetBool(logVerboseKey))

			// Flags are parsed by now, so the registry sees the final
			// allow-no-tests value.
			registry = newRegistry()
			archiver = domain.NewArchiver(exerciseFS, registry)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&logFileFlag, "log-file", viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("log-file"), logFilenameKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup("verbose"), logVerboseKey)

	cmd.PersistentFlags().IntVarP(&workersFlag, workersFlagName, "w", viper.GetInt(workersConfigKey), "number of parallel workers for batch operations")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(workersFlagName), workersConfigKey)

	cmd.PersistentFlags().BoolVar(&noTestsFlag, noTestsFlagName, viper.GetBool(noTestsConfigKey), "fall back to the no-tests plugin when no ecosystem matches")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(noTestsFlagName), noTestsConfigKey)

	cmd.PersistentFlags().StringVar(&serverFlag, serverFlagName, viper.GetString(serverConfigKey), "grading server base URL")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(serverFlagName), serverConfigKey)

	cmd.PersistentFlags().StringVar(&tokenFlag, tokenFlagName, viper.GetString(tokenConfigKey), "grading server access token")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(tokenFlagName), tokenConfigKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// exerciseRoot resolves the exercise root argument, defaulting to the
// current directory.
func exerciseRoot(args []string) m.Path {
	if len(args) == 0 {
		return "."
	}

	return m.Path(args[0])
}

func newExerciseClient() adapter.ExerciseClient {
	return adapter.NewHTTPExerciseClient(viper.GetString(serverConfigKey), viper.GetString(tokenConfigKey))
}
