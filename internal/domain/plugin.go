package domain

import (
	"context"
	"log/slog"
	"os"
	"path"
	"regexp"
	"sort"
	"time"

	"github.com/courselab/langs/internal/adapter"
	m "github.com/courselab/langs/internal/model"
)

// DefaultTestTimeout bounds test runs when the project configuration
// does not set one.
const DefaultTestTimeout = 2 * time.Minute

// LanguagePlugin implements the operations needed to support one
// language ecosystem: exercise detection, description scanning, test
// execution, style checking and cleanup.
//
// Implementations are stateless beyond constants and must be safe for
// concurrent use.
type LanguagePlugin interface {
	// Name returns the plugin identifier, e.g. "apache-maven".
	Name() string

	// IsExerciseTypeCorrect is a cheap structural probe for marker
	// files; it never parses project files in full.
	IsExerciseTypeCorrect(root m.Path) bool

	// Policy returns the ecosystem's student file policy bound to the
	// given project configuration.
	Policy(config m.ProjectConfig) StudentFilePolicy

	// ScanExercise produces an exercise description by static
	// inspection of the sources, never by running code.
	ScanExercise(root m.Path, exerciseName string) (m.ExerciseDesc, error)

	// RunTests runs the exercise's test suite with the ecosystem's
	// native toolchain. Failing tests are data; environment faults are
	// reported as a GenericError result, never as an error value, so
	// batch processing can always continue.
	RunTests(ctx context.Context, root m.Path) m.RunResult

	// CheckCodeStyle runs the ecosystem's style checker, if any. A nil
	// result means the ecosystem has no style checker; a StyleDisabled
	// result means it has one but the tool is not installed.
	CheckCodeStyle(ctx context.Context, root m.Path, locale string) (*m.StyleValidationResult, error)

	// Clean removes build artifacts, best effort.
	Clean(ctx context.Context, root m.Path) error

	// FindProjectDirInArchive locates the directory inside an archive
	// whose subtree looks like an exercise of this type. Entries are
	// the relative paths of all archive members.
	FindProjectDirInArchive(entries []m.Path) (m.Path, bool)
}

// PackagingConfiguration partitions an exercise's files for packaging:
// student files are copied from the submission, exercise files from the
// template.
type PackagingConfiguration struct {
	StudentFilePaths  []m.Path `json:"student_file_paths"`
	ExerciseFilePaths []m.Path `json:"exercise_file_paths"`
}

// PackagingConfigurationFor walks the exercise once and classifies
// every file with the given policy.
func PackagingConfigurationFor(fs adapter.ExerciseFS, policy StudentFilePolicy, root m.Path) (PackagingConfiguration, error) {
	var config PackagingConfiguration

	err := fs.Walk(root, func(rel m.Path, _ os.FileInfo) error {
		if IsStudentFile(policy, rel) {
			config.StudentFilePaths = append(config.StudentFilePaths, rel)
		} else {
			config.ExerciseFilePaths = append(config.ExerciseFilePaths, rel)
		}

		return nil
	})
	if err != nil {
		return PackagingConfiguration{}, &FileIOError{Op: "walking exercise", Path: root, Err: err}
	}

	sort.Slice(config.StudentFilePaths, func(i, j int) bool {
		return config.StudentFilePaths[i] < config.StudentFilePaths[j]
	})
	sort.Slice(config.ExerciseFilePaths, func(i, j int) bool {
		return config.ExerciseFilePaths[i] < config.ExerciseFilePaths[j]
	})

	return config, nil
}

// testTimeoutFor resolves the effective test timeout for an exercise.
func testTimeoutFor(config m.ProjectConfig) time.Duration {
	if timeout := config.TestsTimeout(); timeout > 0 {
		return timeout
	}

	return DefaultTestTimeout
}

// overrideNoTestsFound turns a passing run with zero test results into
// a failure telling the student no tests were found. Programs that
// never terminate their runner would otherwise pass vacuously.
func overrideNoTestsFound(result m.RunResult) m.RunResult {
	if result.Status != m.RunPassed || len(result.TestResults) > 0 {
		return result
	}

	return m.RunResult{
		Status: m.RunTestsFailed,
		TestResults: []m.TestResult{{
			Name:       "Tests found test",
			Successful: false,
			Points:     []string{},
			Message:    "No tests found. Did you terminate your program with an exit() command?\nYou can also try submitting the exercise to the server.",
			Exception:  []string{},
		}},
		Logs: result.Logs,
	}
}

// disabledStyleResult marks a style check that could not run because
// the checker tool is not installed.
func disabledStyleResult() *m.StyleValidationResult {
	return &m.StyleValidationResult{
		Strategy: m.StyleDisabled,
		Errors:   map[m.Path][]m.StyleValidationError{},
	}
}

// runLogs builds the standard log map from captured command output.
func runLogs(output adapter.CommandOutput) map[string]string {
	return map[string]string{
		m.LogStdout: string(output.Stdout),
		m.LogStderr: string(output.Stderr),
	}
}

// dropFailedPoints removes points awarded by failed tests from every
// result, since a point requires all tests awarding it to pass.
func dropFailedPoints(results []m.TestResult) {
	failed := map[string]bool{}
	for _, result := range results {
		if !result.Successful {
			for _, point := range result.Points {
				failed[point] = true
			}
		}
	}

	for i := range results {
		kept := make([]string, 0, len(results[i].Points))
		for _, point := range results[i].Points {
			if !failed[point] {
				kept = append(kept, point)
			}
		}
		results[i].Points = kept
	}
}

// fileExists is a cheap structural probe helper for detection.
func fileExists(root m.Path, rel string) bool {
	info, err := os.Stat(path.Join(string(root), rel))
	return err == nil && !info.IsDir()
}

func dirExists(root m.Path, rel string) bool {
	info, err := os.Stat(path.Join(string(root), rel))
	return err == nil && info.IsDir()
}

// scanSources walks files under root whose relative path matches the
// filter and hands their contents to collect.
func scanSources(root m.Path, filter func(rel m.Path) bool, collect func(rel m.Path, content string) error) error {
	fs := adapter.NewLocalExerciseFS()

	return fs.Walk(root, func(rel m.Path, _ os.FileInfo) error {
		if !filter(rel) {
			return nil
		}

		content, err := fs.ReadFile(m.Path(path.Join(string(root), string(rel))))
		if err != nil {
			return &FileIOError{Op: "reading source", Path: rel, Err: err}
		}

		return collect(rel, string(content))
	})
}

// findMarkerDir returns the shallowest directory in entries that
// contains a file accepted by marker. The empty path means the archive
// root itself.
func findMarkerDir(entries []m.Path, marker func(base string, rel m.Path) bool) (m.Path, bool) {
	best := ""
	found := false

	for _, entry := range entries {
		rel := path.Clean(string(entry))
		if !marker(path.Base(rel), m.Path(rel)) {
			continue
		}

		dir := path.Dir(rel)
		if dir == "." {
			dir = ""
		}

		if !found || len(dir) < len(best) {
			best = dir
			found = true
		}
	}

	return m.Path(best), found
}

var commentPattern = regexp.MustCompile(`(?m)//[^\n]*$`)

// stripLineComments removes line comments so commented-out annotations
// are not scanned as points.
func stripLineComments(content, lineComment string) string {
	if lineComment == "//" {
		return commentPattern.ReplaceAllString(content, "")
	}

	pattern, err := regexp.Compile(`(?m)` + regexp.QuoteMeta(lineComment) + `[^\n]*$`)
	if err != nil {
		slog.Warn("invalid line comment marker", "marker", lineComment, "error", err)
		return content
	}

	return pattern.ReplaceAllString(content, "")
}
