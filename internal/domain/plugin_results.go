package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/courselab/langs/internal/adapter"
	m "github.com/courselab/langs/internal/model"
)

// TestResultsFile is written into the exercise root by the platform's
// per-ecosystem test runners.
const TestResultsFile = ".tmc_test_results.json"

// runnerTestResult is the wire shape of one entry in the results file.
type runnerTestResult struct {
	Name      string   `json:"name"`
	Passed    bool     `json:"passed"`
	Points    []string `json:"points"`
	Message   string   `json:"message"`
	Backtrace []string `json:"backtrace"`
}

// readTestResultsFile parses the results file left behind by a test
// runner and assembles a RunResult from it.
func readTestResultsFile(root m.Path, logs map[string]string) (m.RunResult, error) {
	path := filepath.Join(string(root), TestResultsFile)

	raw, err := os.ReadFile(path)
	if err != nil {
		return m.RunResult{}, fmt.Errorf("reading test results %q: %w", path, err)
	}

	var parsed []runnerTestResult
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return m.RunResult{}, fmt.Errorf("parsing test results %q: %w", path, err)
	}

	// The results file is per-run output, not part of the exercise.
	if err := os.Remove(path); err != nil {
		slog.Warn("failed to remove test results file", "path", path, "error", err)
	}

	status := m.RunPassed
	results := make([]m.TestResult, 0, len(parsed))

	for _, result := range parsed {
		if !result.Passed {
			status = m.RunTestsFailed
		}

		points := result.Points
		if points == nil {
			points = []string{}
		}
		backtrace := result.Backtrace
		if backtrace == nil {
			backtrace = []string{}
		}

		results = append(results, m.TestResult{
			Name:       result.Name,
			Successful: result.Passed,
			Points:     points,
			Message:    result.Message,
			Exception:  backtrace,
		})
	}

	dropFailedPoints(results)

	return m.RunResult{Status: status, TestResults: results, Logs: logs}, nil
}

// runTestCommand executes a toolchain invocation and maps spawn
// failures and timeouts into terminal run results. The returned result
// is non-nil when the run is already decided.
func runTestCommand(ctx context.Context, runner adapter.CommandRunner, spec adapter.CommandSpec) (adapter.CommandOutput, *m.RunResult) {
	output, err := runner.Run(ctx, spec)
	if err == nil {
		return output, nil
	}

	var timeout *adapter.TimeoutError
	if errors.As(err, &timeout) {
		result := m.RunResult{
			Status:      m.RunTestrunInterrupted,
			TestResults: []m.TestResult{},
			Logs: map[string]string{
				m.LogStdout: string(timeout.Stdout),
				m.LogStderr: string(timeout.Stderr),
			},
		}

		return output, &result
	}

	// Spawn failure or wait failure: the environment is at fault, not
	// the submission.
	result := m.GenericErrorResult(err.Error(), nil)

	return output, &result
}
