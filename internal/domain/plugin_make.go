package domain

import (
	"bufio"
	"context"
	"encoding/xml"
	"errors"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/courselab/langs/internal/adapter"
	m "github.com/courselab/langs/internal/model"
)

const (
	makeAvailablePointsFile = "test/tmc_available_points.txt"
	makeTestResultsFile     = "test/tmc_test_results.xml"
	makeValgrindLogFile     = "valgrind.log"
)

var makeRegisterTestPattern = regexp.MustCompile(`tmc_register_test\(\s*\w+\s*,\s*(\w+)\s*,\s*"([^"]*)"\s*\)`)

var errMakeCleanFailed = errors.New("make clean exited non-zero")

// MakePlugin supports C exercises built with Make and the check test
// framework.
type MakePlugin struct {
	runner adapter.CommandRunner
}

// NewMakePlugin constructs a MakePlugin using the given runner.
func NewMakePlugin(runner adapter.CommandRunner) *MakePlugin {
	return &MakePlugin{runner: runner}
}

func (p *MakePlugin) Name() string { return "make" }

func (p *MakePlugin) IsExerciseTypeCorrect(root m.Path) bool {
	return fileExists(root, "Makefile") && dirExists(root, "src")
}

func (p *MakePlugin) Policy(config m.ProjectConfig) StudentFilePolicy {
	return NewMakePolicy(config)
}

// ScanExercise statically inspects the C test sources for
// tmc_register_test calls, which carry the test function and its point.
func (p *MakePlugin) ScanExercise(root m.Path, exerciseName string) (m.ExerciseDesc, error) {
	desc := m.ExerciseDesc{Name: exerciseName, Tests: []m.TestDesc{}}

	err := scanSources(root,
		func(rel m.Path) bool {
			return pathHasPrefix(string(rel), "test") && path.Ext(string(rel)) == ".c"
		},
		func(rel m.Path, content string) error {
			content = stripLineComments(content, "//")
			for _, match := range makeRegisterTestPattern.FindAllStringSubmatch(content, -1) {
				desc.Tests = append(desc.Tests, m.TestDesc{
					Name:   match[1],
					Points: strings.Fields(match[2]),
				})
			}

			return nil
		})
	if err != nil {
		return m.ExerciseDesc{}, &PluginError{Plugin: p.Name(), Err: err}
	}

	return desc, nil
}

func (p *MakePlugin) RunTests(ctx context.Context, root m.Path) m.RunResult {
	config, err := adapter.LoadProjectConfigOrDefault(root)
	if err != nil {
		return m.GenericErrorResult(err.Error(), nil)
	}

	_ = os.Remove(filepath.Join(string(root), makeTestResultsFile))

	// Build separately so a broken submission is reported as a compile
	// failure rather than a failed test run.
	build, terminal := runTestCommand(ctx, p.runner, adapter.CommandSpec{
		Program: "make",
		Args:    []string{"test"},
		Dir:     root,
		Timeout: testTimeoutFor(config),
	})
	if terminal != nil {
		return *terminal
	}

	if build.ExitCode != 0 {
		return m.RunResult{
			Status:      m.RunCompileFailed,
			TestResults: []m.TestResult{},
			Logs:        runLogs(build),
		}
	}

	withValgrind := config.FailOnValgrindError == nil || *config.FailOnValgrindError
	target := "run-test"
	if withValgrind {
		target = "run-test-with-valgrind"
	}

	output, terminal := runTestCommand(ctx, p.runner, adapter.CommandSpec{
		Program: "make",
		Args:    []string{target},
		Dir:     root,
		Timeout: testTimeoutFor(config),
	})
	if terminal != nil {
		return *terminal
	}

	logs := runLogs(output)
	valgrindFailures := map[string]bool{}

	if withValgrind {
		valgrindLog, err := os.ReadFile(filepath.Join(string(root), makeValgrindLogFile))
		if err == nil {
			logs[m.LogValgrind] = string(valgrindLog)
			valgrindFailures = parseValgrindFailures(string(valgrindLog))
		}
	}

	result, err := p.parseCheckResults(root, logs, valgrindFailures)
	if err != nil {
		return m.GenericErrorResult(err.Error(), logs)
	}

	return overrideNoTestsFound(result)
}

// checkReport mirrors the relevant parts of the check framework's XML
// log format.
type checkReport struct {
	XMLName xml.Name `xml:"testsuites"`
	Suites  []struct {
		Tests []struct {
			Result      string `xml:"result,attr"`
			ID          string `xml:"id"`
			Description string `xml:"description"`
			Message     string `xml:"message"`
		} `xml:"test"`
	} `xml:"suite"`
}

func (p *MakePlugin) parseCheckResults(root m.Path, logs map[string]string, valgrindFailures map[string]bool) (m.RunResult, error) {
	raw, err := os.ReadFile(filepath.Join(string(root), makeTestResultsFile))
	if err != nil {
		return m.RunResult{}, &PluginError{Plugin: p.Name(), Err: err}
	}

	var report checkReport
	if err := xml.Unmarshal(raw, &report); err != nil {
		return m.RunResult{}, &PluginError{Plugin: p.Name(), Err: err}
	}

	points, err := p.availablePoints(root)
	if err != nil {
		return m.RunResult{}, err
	}

	status := m.RunPassed
	results := []m.TestResult{}

	for _, suite := range report.Suites {
		for _, test := range suite.Tests {
			successful := test.Result == "success"
			message := test.Message

			if successful && valgrindFailures[test.ID] {
				successful = false
				message = "Valgrind found memory errors, see the valgrind log"
			}

			if !successful {
				status = m.RunTestsFailed
			}

			testPoints := points[test.ID]
			if testPoints == nil {
				testPoints = []string{}
			}

			results = append(results, m.TestResult{
				Name:       test.ID,
				Successful: successful,
				Points:     testPoints,
				Message:    message,
				Exception:  []string{},
			})
		}
	}

	dropFailedPoints(results)

	return m.RunResult{Status: status, TestResults: results, Logs: logs}, nil
}

// availablePoints parses test/tmc_available_points.txt, whose lines
// have the form "[test] [test_name] point_name".
func (p *MakePlugin) availablePoints(root m.Path) (map[string][]string, error) {
	file, err := os.Open(filepath.Join(string(root), makeAvailablePointsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]string{}, nil
		}

		return nil, &PluginError{Plugin: p.Name(), Err: err}
	}
	defer func() { _ = file.Close() }()

	points := map[string][]string{}
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 || fields[0] != "[test]" {
			continue
		}

		name := strings.Trim(fields[1], "[]")
		points[name] = append(points[name], fields[2])
	}

	return points, scanner.Err()
}

// parseValgrindFailures extracts the test names whose valgrind run
// reported a non-zero error summary.
func parseValgrindFailures(log string) map[string]bool {
	failures := map[string]bool{}
	current := ""

	for _, line := range strings.Split(log, "\n") {
		if _, name, ok := strings.Cut(line, "** test: "); ok {
			current = strings.TrimSpace(name)
			continue
		}

		if !strings.Contains(line, "ERROR SUMMARY:") {
			continue
		}

		if current != "" && !strings.Contains(line, "ERROR SUMMARY: 0 errors") {
			failures[current] = true
		}
	}

	return failures
}

func (p *MakePlugin) CheckCodeStyle(context.Context, m.Path, string) (*m.StyleValidationResult, error) {
	return nil, nil
}

func (p *MakePlugin) Clean(ctx context.Context, root m.Path) error {
	// make clean failing is not fatal, the artifacts just stay behind.
	output, err := p.runner.Run(ctx, adapter.CommandSpec{
		Program: "make",
		Args:    []string{"clean"},
		Dir:     root,
	})
	if err != nil {
		return &PluginError{Plugin: p.Name(), Err: err}
	}

	if output.ExitCode != 0 {
		return &PluginError{Plugin: p.Name(), Err: errMakeCleanFailed}
	}

	return nil
}

func (p *MakePlugin) FindProjectDirInArchive(entries []m.Path) (m.Path, bool) {
	return findMarkerDir(entries, func(base string, _ m.Path) bool {
		return base == "Makefile"
	})
}
