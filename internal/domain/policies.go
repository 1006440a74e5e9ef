package domain

import (
	"path"
	"strings"

	m "github.com/courselab/langs/internal/model"
)

// basePolicy carries the project configuration for the concrete
// policies.
type basePolicy struct {
	config m.ProjectConfig
}

func (p basePolicy) Config() m.ProjectConfig { return p.config }

// MavenPolicy considers files under src/main student files.
type MavenPolicy struct{ basePolicy }

// NewMavenPolicy constructs a MavenPolicy for a project configuration.
func NewMavenPolicy(config m.ProjectConfig) MavenPolicy {
	return MavenPolicy{basePolicy{config: config}}
}

func (MavenPolicy) IsStudentSourceFile(rel m.Path) bool {
	return pathHasPrefix(string(rel), "src/main")
}

// AntPolicy considers files under src student files.
type AntPolicy struct{ basePolicy }

// NewAntPolicy constructs an AntPolicy for a project configuration.
func NewAntPolicy(config m.ProjectConfig) AntPolicy {
	return AntPolicy{basePolicy{config: config}}
}

func (AntPolicy) IsStudentSourceFile(rel m.Path) bool {
	return pathHasPrefix(string(rel), "src")
}

// MakePolicy considers files under src student files.
type MakePolicy struct{ basePolicy }

// NewMakePolicy constructs a MakePolicy for a project configuration.
func NewMakePolicy(config m.ProjectConfig) MakePolicy {
	return MakePolicy{basePolicy{config: config}}
}

func (MakePolicy) IsStudentSourceFile(rel m.Path) bool {
	return pathHasPrefix(string(rel), "src")
}

// PythonPolicy considers all Python sources and notebooks student
// files. Python project structure is more freeform than most languages,
// so there may not be a src directory at all; the venv, test and tmc
// directories are excluded.
type PythonPolicy struct{ basePolicy }

// NewPythonPolicy constructs a PythonPolicy for a project configuration.
func NewPythonPolicy(config m.ProjectConfig) PythonPolicy {
	return PythonPolicy{basePolicy{config: config}}
}

func (PythonPolicy) IsStudentSourceFile(rel m.Path) bool {
	relStr := string(rel)
	for _, excluded := range []string{"venv", ".venv", "test", "tmc"} {
		if pathHasPrefix(relStr, excluded) {
			return false
		}
	}

	ext := path.Ext(relStr)

	return ext == ".py" || ext == ".ipynb"
}

// RPolicy considers files under R student files.
type RPolicy struct{ basePolicy }

// NewRPolicy constructs an RPolicy for a project configuration.
func NewRPolicy(config m.ProjectConfig) RPolicy {
	return RPolicy{basePolicy{config: config}}
}

func (RPolicy) IsStudentSourceFile(rel m.Path) bool {
	return pathHasPrefix(string(rel), "R")
}

// CSharpPolicy considers files under src student files, excluding build
// output directories and project files.
type CSharpPolicy struct{ basePolicy }

// NewCSharpPolicy constructs a CSharpPolicy for a project configuration.
func NewCSharpPolicy(config m.ProjectConfig) CSharpPolicy {
	return CSharpPolicy{basePolicy{config: config}}
}

func (CSharpPolicy) IsStudentSourceFile(rel m.Path) bool {
	relStr := string(rel)
	if !pathHasPrefix(relStr, "src") {
		return false
	}

	if path.Ext(relStr) == ".csproj" {
		return false
	}

	for _, component := range strings.Split(relStr, "/") {
		if component == "bin" || component == "obj" {
			return false
		}
	}

	return true
}

// JupyterPolicy considers all notebooks student files wherever they
// live in the tree.
type JupyterPolicy struct{ basePolicy }

// NewJupyterPolicy constructs a JupyterPolicy for a project configuration.
func NewJupyterPolicy(config m.ProjectConfig) JupyterPolicy {
	return JupyterPolicy{basePolicy{config: config}}
}

func (JupyterPolicy) IsStudentSourceFile(rel m.Path) bool {
	return path.Ext(string(rel)) == ".ipynb"
}

// NoTestsPolicy considers every file a student file by default.
type NoTestsPolicy struct{ basePolicy }

// NewNoTestsPolicy constructs a NoTestsPolicy for a project configuration.
func NewNoTestsPolicy(config m.ProjectConfig) NoTestsPolicy {
	return NoTestsPolicy{basePolicy{config: config}}
}

func (NoTestsPolicy) IsStudentSourceFile(m.Path) bool { return true }

// EverythingIsStudentPolicy classifies every file except the config
// file as student owned. It ignores any project configuration.
type EverythingIsStudentPolicy struct{ basePolicy }

// NewEverythingIsStudentPolicy constructs an EverythingIsStudentPolicy.
func NewEverythingIsStudentPolicy() EverythingIsStudentPolicy {
	return EverythingIsStudentPolicy{}
}

func (EverythingIsStudentPolicy) IsStudentSourceFile(m.Path) bool { return true }

// NothingIsStudentPolicy classifies every file as template owned. It
// ignores any project configuration.
type NothingIsStudentPolicy struct{ basePolicy }

// NewNothingIsStudentPolicy constructs a NothingIsStudentPolicy.
func NewNothingIsStudentPolicy() NothingIsStudentPolicy {
	return NothingIsStudentPolicy{}
}

func (NothingIsStudentPolicy) IsStudentSourceFile(m.Path) bool { return false }
