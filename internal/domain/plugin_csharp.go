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

// CSharpBootstrapEnv points at the platform's C# test runner bootstrap
// assembly.
const CSharpBootstrapEnv = "TMC_CSHARP_BOOTSTRAP_PATH"

var (
	csharpTestPattern   = regexp.MustCompile(`\[Test\][\s\S]*?public\s+\w+\s+(\w+)\s*\(`)
	csharpPointsPattern = regexp.MustCompile(`\[Points\s*\(\s*"([^"]*)"\s*\)\]`)
)

// CSharpPlugin supports C# exercises run through the platform's dotnet
// test runner.
type CSharpPlugin struct {
	runner adapter.CommandRunner
}

// NewCSharpPlugin constructs a CSharpPlugin using the given runner.
func NewCSharpPlugin(runner adapter.CommandRunner) *CSharpPlugin {
	return &CSharpPlugin{runner: runner}
}

func (p *CSharpPlugin) Name() string { return "csharp" }

// IsExerciseTypeCorrect looks for a .csproj file no deeper than two
// levels under src.
func (p *CSharpPlugin) IsExerciseTypeCorrect(root m.Path) bool {
	found := false

	_ = filepath.Walk(filepath.Join(string(root), "src"), func(walkPath string, info os.FileInfo, err error) error {
		if err != nil || found {
			return filepath.SkipAll
		}

		if !info.IsDir() && filepath.Ext(walkPath) == ".csproj" {
			found = true
			return filepath.SkipAll
		}

		return nil
	})

	return found
}

func (p *CSharpPlugin) Policy(config m.ProjectConfig) StudentFilePolicy {
	return NewCSharpPolicy(config)
}

// ScanExercise statically inspects the test sources for [Test] methods
// and their [Points] attributes.
func (p *CSharpPlugin) ScanExercise(root m.Path, exerciseName string) (m.ExerciseDesc, error) {
	desc := m.ExerciseDesc{Name: exerciseName, Tests: []m.TestDesc{}}

	err := scanSources(root,
		func(rel m.Path) bool {
			return pathHasPrefix(string(rel), "test") && path.Ext(string(rel)) == ".cs"
		},
		func(rel m.Path, content string) error {
			content = stripLineComments(content, "//")
			for _, block := range csharpTestPattern.FindAllStringSubmatch(content, -1) {
				var points []string
				for _, pts := range csharpPointsPattern.FindAllStringSubmatch(block[0], -1) {
					points = append(points, strings.Fields(pts[1])...)
				}

				desc.Tests = append(desc.Tests, m.TestDesc{Name: block[1], Points: points})
			}

			return nil
		})
	if err != nil {
		return m.ExerciseDesc{}, &PluginError{Plugin: p.Name(), Err: err}
	}

	return desc, nil
}

func (p *CSharpPlugin) RunTests(ctx context.Context, root m.Path) m.RunResult {
	config, err := adapter.LoadProjectConfigOrDefault(root)
	if err != nil {
		return m.GenericErrorResult(err.Error(), nil)
	}

	bootstrap := os.Getenv(CSharpBootstrapEnv)
	if bootstrap == "" {
		return m.GenericErrorResult("C# test runner not configured: "+CSharpBootstrapEnv+" is unset", nil)
	}

	_ = os.Remove(filepath.Join(string(root), TestResultsFile))

	output, terminal := runTestCommand(ctx, p.runner, adapter.CommandSpec{
		Program: "dotnet",
		Args:    []string{"exec", bootstrap, "run-tests", "."},
		Dir:     root,
		Timeout: testTimeoutFor(config),
	})
	if terminal != nil {
		return *terminal
	}

	// The runner exits non-zero when the submission does not build.
	if output.ExitCode != 0 && !fileExists(root, TestResultsFile) {
		return m.RunResult{
			Status:      m.RunCompileFailed,
			TestResults: []m.TestResult{},
			Logs:        runLogs(output),
		}
	}

	result, err := readTestResultsFile(root, runLogs(output))
	if err != nil {
		return m.GenericErrorResult(err.Error(), runLogs(output))
	}

	return overrideNoTestsFound(result)
}

func (p *CSharpPlugin) CheckCodeStyle(context.Context, m.Path, string) (*m.StyleValidationResult, error) {
	return nil, nil
}

// Clean removes the bin and obj build output directories.
func (p *CSharpPlugin) Clean(_ context.Context, root m.Path) error {
	return filepath.Walk(string(root), func(walkPath string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() && (info.Name() == "bin" || info.Name() == "obj") {
			if err := os.RemoveAll(walkPath); err != nil {
				slog.Warn("failed to remove build output", "path", walkPath, "error", err)
			}

			return filepath.SkipDir
		}

		return nil
	})
}

func (p *CSharpPlugin) FindProjectDirInArchive(entries []m.Path) (m.Path, bool) {
	// Find a directory X containing a X/src/*/*.csproj entry.
	for _, entry := range entries {
		rel := path.Clean(string(entry))
		if path.Ext(rel) != ".csproj" {
			continue
		}

		if idx := strings.Index(rel, "src/"); idx >= 0 && (idx == 0 || rel[idx-1] == '/') {
			return m.Path(strings.TrimSuffix(rel[:idx], "/")), true
		}
	}

	return "", false
}
