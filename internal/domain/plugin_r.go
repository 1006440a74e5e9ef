package domain

import (
	"context"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/courselab/langs/internal/adapter"
	m "github.com/courselab/langs/internal/model"
)

var (
	rTestPattern         = regexp.MustCompile(`test\(\s*"([^"]+)"\s*(?:,\s*c\(([^)]*)\))?`)
	rPointsForAllPattern = regexp.MustCompile(`points_for_all_tests\(\s*c\(([^)]*)\)\s*\)`)
	rQuotedPattern       = regexp.MustCompile(`"([^"]*)"`)
)

// RPlugin supports R exercises tested with the tmcRtestrunner package.
type RPlugin struct {
	runner adapter.CommandRunner
}

// NewRPlugin constructs an RPlugin using the given runner.
func NewRPlugin(runner adapter.CommandRunner) *RPlugin {
	return &RPlugin{runner: runner}
}

func (p *RPlugin) Name() string { return "r" }

func (p *RPlugin) IsExerciseTypeCorrect(root m.Path) bool {
	return dirExists(root, "R") || dirExists(root, "tests/testthat")
}

func (p *RPlugin) Policy(config m.ProjectConfig) StudentFilePolicy {
	return NewRPolicy(config)
}

// ScanExercise statically inspects the testthat sources. Points can be
// attached to individual tests or to every test in a file via
// points_for_all_tests.
func (p *RPlugin) ScanExercise(root m.Path, exerciseName string) (m.ExerciseDesc, error) {
	desc := m.ExerciseDesc{Name: exerciseName, Tests: []m.TestDesc{}}

	err := scanSources(root,
		func(rel m.Path) bool {
			base := path.Base(string(rel))
			return pathHasPrefix(string(rel), "tests/testthat") &&
				strings.HasPrefix(base, "test") && path.Ext(base) == ".R"
		},
		func(rel m.Path, content string) error {
			content = stripLineComments(content, "#")

			var filePoints []string
			if match := rPointsForAllPattern.FindStringSubmatch(content); match != nil {
				filePoints = quotedValues(match[1])
			}

			for _, match := range rTestPattern.FindAllStringSubmatch(content, -1) {
				points := append(append([]string{}, filePoints...), quotedValues(match[2])...)
				desc.Tests = append(desc.Tests, m.TestDesc{Name: match[1], Points: points})
			}

			return nil
		})
	if err != nil {
		return m.ExerciseDesc{}, &PluginError{Plugin: p.Name(), Err: err}
	}

	return desc, nil
}

func quotedValues(s string) []string {
	var values []string
	for _, match := range rQuotedPattern.FindAllStringSubmatch(s, -1) {
		values = append(values, match[1])
	}

	return values
}

func (p *RPlugin) RunTests(ctx context.Context, root m.Path) m.RunResult {
	config, err := adapter.LoadProjectConfigOrDefault(root)
	if err != nil {
		return m.GenericErrorResult(err.Error(), nil)
	}

	_ = os.Remove(filepath.Join(string(root), TestResultsFile))

	output, terminal := runTestCommand(ctx, p.runner, adapter.CommandSpec{
		Program: "Rscript",
		Args:    []string{"-e", "library(tmcRtestrunner);run_tests()"},
		Dir:     root,
		Timeout: testTimeoutFor(config),
	})
	if terminal != nil {
		return *terminal
	}

	result, err := readTestResultsFile(root, runLogs(output))
	if err != nil {
		return m.GenericErrorResult(err.Error(), runLogs(output))
	}

	return overrideNoTestsFound(result)
}

func (p *RPlugin) CheckCodeStyle(context.Context, m.Path, string) (*m.StyleValidationResult, error) {
	return nil, nil
}

// Clean removes the session artifacts R leaves behind.
func (p *RPlugin) Clean(_ context.Context, root m.Path) error {
	for _, leftover := range []string{".RData", ".Rhistory", TestResultsFile} {
		if err := os.Remove(filepath.Join(string(root), leftover)); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove R artifact", "path", leftover, "error", err)
		}
	}

	return nil
}

func (p *RPlugin) FindProjectDirInArchive(entries []m.Path) (m.Path, bool) {
	// An R exercise is recognized by its R/ source directory or its
	// testthat tests.
	for _, entry := range entries {
		rel := path.Clean(string(entry))
		if idx := strings.Index(rel, "tests/testthat/"); idx >= 0 {
			return m.Path(strings.TrimSuffix(rel[:idx], "/")), true
		}

		if idx := strings.Index(rel, "R/"); idx >= 0 && (idx == 0 || rel[idx-1] == '/') {
			return m.Path(strings.TrimSuffix(rel[:idx], "/")), true
		}
	}

	return "", false
}
