package domain

import (
	"context"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/courselab/langs/internal/adapter"
	m "github.com/courselab/langs/internal/model"
)

// JupyterPlugin supports notebook exercises, run through the same tmc
// runner as plain Python projects.
type JupyterPlugin struct {
	runner adapter.CommandRunner
}

// NewJupyterPlugin constructs a JupyterPlugin using the given runner.
func NewJupyterPlugin(runner adapter.CommandRunner) *JupyterPlugin {
	return &JupyterPlugin{runner: runner}
}

func (p *JupyterPlugin) Name() string { return "jupyter" }

// IsExerciseTypeCorrect probes for any notebook in the tree.
func (p *JupyterPlugin) IsExerciseTypeCorrect(root m.Path) bool {
	found := false

	_ = filepath.Walk(string(root), func(walkPath string, info os.FileInfo, err error) error {
		if err != nil || found {
			return filepath.SkipAll
		}

		if !info.IsDir() && filepath.Ext(walkPath) == ".ipynb" {
			found = true
			return filepath.SkipAll
		}

		return nil
	})

	return found
}

func (p *JupyterPlugin) Policy(config m.ProjectConfig) StudentFilePolicy {
	return NewJupyterPolicy(config)
}

// notebook mirrors the parts of the .ipynb JSON format the scanner
// needs.
type notebook struct {
	Cells []struct {
		CellType string   `json:"cell_type"`
		Source   []string `json:"source"`
	} `json:"cells"`
}

// ScanExercise statically inspects code cells of test notebooks for the
// same points decorators the Python runner recognizes.
func (p *JupyterPlugin) ScanExercise(root m.Path, exerciseName string) (m.ExerciseDesc, error) {
	desc := m.ExerciseDesc{Name: exerciseName, Tests: []m.TestDesc{}}

	err := scanSources(root,
		func(rel m.Path) bool {
			return path.Ext(string(rel)) == ".ipynb" && !strings.Contains(string(rel), ".ipynb_checkpoints")
		},
		func(rel m.Path, content string) error {
			var nb notebook
			if err := json.Unmarshal([]byte(content), &nb); err != nil {
				// Not a valid notebook, nothing to scan.
				return nil
			}

			for _, cell := range nb.Cells {
				if cell.CellType != "code" {
					continue
				}

				desc.Tests = append(desc.Tests, scanPythonTests(strings.Join(cell.Source, ""))...)
			}

			return nil
		})
	if err != nil {
		return m.ExerciseDesc{}, &PluginError{Plugin: p.Name(), Err: err}
	}

	return desc, nil
}

func (p *JupyterPlugin) RunTests(ctx context.Context, root m.Path) m.RunResult {
	config, err := adapter.LoadProjectConfigOrDefault(root)
	if err != nil {
		return m.GenericErrorResult(err.Error(), nil)
	}

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

func (p *JupyterPlugin) CheckCodeStyle(context.Context, m.Path, string) (*m.StyleValidationResult, error) {
	return nil, nil
}

// Clean removes notebook checkpoint directories.
func (p *JupyterPlugin) Clean(_ context.Context, root m.Path) error {
	return filepath.Walk(string(root), func(walkPath string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() && info.Name() == ".ipynb_checkpoints" {
			_ = os.RemoveAll(walkPath)
			return filepath.SkipDir
		}

		return nil
	})
}

func (p *JupyterPlugin) FindProjectDirInArchive(entries []m.Path) (m.Path, bool) {
	return findMarkerDir(entries, func(base string, rel m.Path) bool {
		return path.Ext(base) == ".ipynb" && !strings.Contains(string(rel), ".ipynb_checkpoints")
	})
}
