package domain

import (
	"context"

	"github.com/courselab/langs/internal/adapter"
	m "github.com/courselab/langs/internal/model"
)

// NoTestsPlugin handles exercises graded without a test suite. It
// accepts any project, so the registry only consults it as a fallback.
type NoTestsPlugin struct{}

// NewNoTestsPlugin constructs a NoTestsPlugin.
func NewNoTestsPlugin() *NoTestsPlugin {
	return &NoTestsPlugin{}
}

func (p *NoTestsPlugin) Name() string { return "No-Tests" }

func (p *NoTestsPlugin) IsExerciseTypeCorrect(m.Path) bool { return true }

func (p *NoTestsPlugin) Policy(config m.ProjectConfig) StudentFilePolicy {
	return NewNoTestsPolicy(config)
}

// ScanExercise reports a single synthetic test carrying the points
// configured for the exercise.
func (p *NoTestsPlugin) ScanExercise(root m.Path, exerciseName string) (m.ExerciseDesc, error) {
	return m.ExerciseDesc{
		Name: exerciseName,
		Tests: []m.TestDesc{
			{Name: exerciseName + "Test", Points: p.configuredPoints(root)},
		},
	}, nil
}

// RunTests always passes, awarding the configured points.
func (p *NoTestsPlugin) RunTests(_ context.Context, root m.Path) m.RunResult {
	return m.RunResult{
		Status: m.RunPassed,
		TestResults: []m.TestResult{
			{
				Name:       "Default test",
				Successful: true,
				Points:     p.configuredPoints(root),
				Message:    "",
			},
		},
		Logs: map[string]string{},
	}
}

func (p *NoTestsPlugin) CheckCodeStyle(context.Context, m.Path, string) (*m.StyleValidationResult, error) {
	return nil, nil
}

func (p *NoTestsPlugin) Clean(context.Context, m.Path) error { return nil }

func (p *NoTestsPlugin) FindProjectDirInArchive(entries []m.Path) (m.Path, bool) {
	return findMarkerDir(entries, func(base string, _ m.Path) bool {
		return base == m.ProjectConfigFile
	})
}

func (p *NoTestsPlugin) configuredPoints(root m.Path) []string {
	config, err := adapter.LoadProjectConfigOrDefault(root)
	if err != nil || config.NoTests == nil {
		return []string{}
	}

	return config.NoTests.Points
}
