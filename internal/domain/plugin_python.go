package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/courselab/langs/internal/adapter"
	m "github.com/courselab/langs/internal/model"
)

var (
	pythonPointsPattern = regexp.MustCompile(`@points\(\s*['"]([^'"]+)['"]\s*\)`)
	pythonDefPattern    = regexp.MustCompile(`(?m)^\s*def\s+(test_\w+)`)
	pythonClassPattern  = regexp.MustCompile(`(?m)^class\s+(\w+)`)
	flake8LinePattern   = regexp.MustCompile(`^(.+?):(\d+):(\d+): (\S+) (.*)$`)
)

// PythonPlugin supports Python exercises run through the platform's
// tmc test runner package.
type PythonPlugin struct {
	runner adapter.CommandRunner
}

// NewPythonPlugin constructs a PythonPlugin using the given runner.
func NewPythonPlugin(runner adapter.CommandRunner) *PythonPlugin {
	return &PythonPlugin{runner: runner}
}

func (p *PythonPlugin) Name() string { return "python3" }

func (p *PythonPlugin) IsExerciseTypeCorrect(root m.Path) bool {
	return fileExists(root, "setup.py") ||
		fileExists(root, "requirements.txt") ||
		fileExists(root, "test/__init__.py") ||
		fileExists(root, "tmc/__main__.py")
}

func (p *PythonPlugin) Policy(config m.ProjectConfig) StudentFilePolicy {
	return NewPythonPolicy(config)
}

// ScanExercise statically inspects files under test/ for test functions
// and their points decorators.
func (p *PythonPlugin) ScanExercise(root m.Path, exerciseName string) (m.ExerciseDesc, error) {
	desc := m.ExerciseDesc{Name: exerciseName, Tests: []m.TestDesc{}}

	err := scanSources(root,
		func(rel m.Path) bool {
			base := path.Base(string(rel))
			return pathHasPrefix(string(rel), "test") &&
				strings.HasPrefix(base, "test_") && path.Ext(base) == ".py"
		},
		func(rel m.Path, content string) error {
			desc.Tests = append(desc.Tests, scanPythonTests(content)...)
			return nil
		})
	if err != nil {
		return m.ExerciseDesc{}, &PluginError{Plugin: p.Name(), Err: err}
	}

	return desc, nil
}

// scanPythonTests walks the file top to bottom, attaching each points
// decorator to the next test definition. A decorator on a class applies
// to every test in that class.
func scanPythonTests(content string) []m.TestDesc {
	var (
		tests       []m.TestDesc
		classPoints []string
		className   string
		pending     []string
	)

	for _, line := range strings.Split(content, "\n") {
		if match := pythonPointsPattern.FindStringSubmatch(line); match != nil {
			pending = append(pending, strings.Fields(match[1])...)
			continue
		}

		if match := pythonClassPattern.FindStringSubmatch(line); match != nil {
			className = match[1]
			classPoints = pending
			pending = nil
			continue
		}

		if match := pythonDefPattern.FindStringSubmatch(line); match != nil {
			name := match[1]
			if className != "" {
				name = className + ": " + name
			}

			points := append(append([]string{}, classPoints...), pending...)
			pending = nil

			tests = append(tests, m.TestDesc{Name: name, Points: points})
		}
	}

	return tests
}

func (p *PythonPlugin) RunTests(ctx context.Context, root m.Path) m.RunResult {
	config, err := adapter.LoadProjectConfigOrDefault(root)
	if err != nil {
		return m.GenericErrorResult(err.Error(), nil)
	}

	// Stale results from an earlier run must not be mistaken for this
	// run's output.
	_ = os.Remove(filepath.Join(string(root), TestResultsFile))

	output, terminal := runTestCommand(ctx, p.runner, adapter.CommandSpec{
		Program: "python3",
		Args:    []string{"-m", "tmc"},
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

// CheckCodeStyle runs flake8 over the exercise and parses its default
// line oriented output.
func (p *PythonPlugin) CheckCodeStyle(ctx context.Context, root m.Path, locale string) (*m.StyleValidationResult, error) {
	output, err := p.runner.Run(ctx, adapter.CommandSpec{
		Program: "flake8",
		Args:    []string{"."},
		Dir:     root,
		Env:     map[string]string{"LC_ALL": locale},
	})
	if err != nil {
		var start *adapter.StartError
		if errors.As(err, &start) {
			slog.Warn("flake8 not available, skipping style check", "root", root)
			return disabledStyleResult(), nil
		}

		return nil, fmt.Errorf("running flake8: %w", err)
	}

	result := &m.StyleValidationResult{
		Strategy: m.StyleWarn,
		Errors:   map[m.Path][]m.StyleValidationError{},
	}

	for _, line := range strings.Split(string(output.Stdout), "\n") {
		match := flake8LinePattern.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}

		file := m.Path(strings.TrimPrefix(match[1], "./"))
		result.Errors[file] = append(result.Errors[file], m.StyleValidationError{
			Line:       atoiOrZero(match[2]),
			Column:     atoiOrZero(match[3]),
			Message:    match[5],
			SourceName: match[4],
		})
	}

	return result, nil
}

// Clean removes compiled bytecode and runner leftovers.
func (p *PythonPlugin) Clean(_ context.Context, root m.Path) error {
	leftovers := []string{TestResultsFile, ".available_points.json", ".tmc_test_results.hmac.sha256"}
	for _, leftover := range leftovers {
		_ = os.Remove(filepath.Join(string(root), leftover))
	}

	return filepath.Walk(string(root), func(walkPath string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() && info.Name() == "__pycache__" {
			if err := os.RemoveAll(walkPath); err != nil {
				slog.Warn("failed to remove cache dir", "path", walkPath, "error", err)
			}

			return filepath.SkipDir
		}

		if !info.IsDir() && filepath.Ext(walkPath) == ".pyc" {
			if err := os.Remove(walkPath); err != nil {
				slog.Warn("failed to remove bytecode file", "path", walkPath, "error", err)
			}
		}

		return nil
	})
}

func (p *PythonPlugin) FindProjectDirInArchive(entries []m.Path) (m.Path, bool) {
	return findMarkerDir(entries, func(base string, rel m.Path) bool {
		if base == "setup.py" || base == "requirements.txt" {
			return true
		}

		relStr := string(rel)

		return strings.HasSuffix(relStr, "test/__init__.py") || strings.HasSuffix(relStr, "tmc/__main__.py")
	})
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}

	return n
}
