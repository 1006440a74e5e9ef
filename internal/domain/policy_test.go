package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	m "github.com/courselab/langs/internal/model"
)

func TestClassify_Precedence(t *testing.T) {
	tests := []struct {
		name   string
		policy StudentFilePolicy
		rel    m.Path
		want   m.FileClass
	}{
		{
			name:   "config file is config owned",
			policy: NewMavenPolicy(m.ProjectConfig{}),
			rel:    m.Path(m.ProjectConfigFile),
			want:   m.ConfigOwned,
		},
		{
			name: "config file wins over extra student files",
			policy: NewMavenPolicy(m.ProjectConfig{
				ExtraStudentFiles: []string{m.ProjectConfigFile},
			}),
			rel:  m.Path(m.ProjectConfigFile),
			want: m.ConfigOwned,
		},
		{
			name:   "ecosystem rule makes src/main student owned",
			policy: NewMavenPolicy(m.ProjectConfig{}),
			rel:    "src/main/java/App.java",
			want:   m.StudentOwned,
		},
		{
			name:   "outside ecosystem rule is template owned",
			policy: NewMavenPolicy(m.ProjectConfig{}),
			rel:    "src/test/java/AppTest.java",
			want:   m.TemplateOwned,
		},
		{
			name: "extra student files widen the rule",
			policy: NewMavenPolicy(m.ProjectConfig{
				ExtraStudentFiles: []string{"docs"},
			}),
			rel:  "docs/notes.md",
			want: m.StudentOwned,
		},
		{
			name: "extra exercise files narrow the rule",
			policy: NewMavenPolicy(m.ProjectConfig{
				ExtraExerciseFiles: []string{"src/main/resources"},
			}),
			rel:  "src/main/resources/fixture.json",
			want: m.TemplateOwned,
		},
		{
			name: "extra student beats extra exercise",
			policy: NewMavenPolicy(m.ProjectConfig{
				ExtraStudentFiles:  []string{"src/main/resources/mine.json"},
				ExtraExerciseFiles: []string{"src/main/resources"},
			}),
			rel:  "src/main/resources/mine.json",
			want: m.StudentOwned,
		},
		{
			name: "glob pattern matches by extension",
			policy: NewAntPolicy(m.ProjectConfig{
				ExtraStudentFiles: []string{"*.iml"},
			}),
			rel:  "project.iml",
			want: m.StudentOwned,
		},
		{
			name:   "everything policy claims arbitrary files",
			policy: NewEverythingIsStudentPolicy(),
			rel:    "anything/at/all.bin",
			want:   m.StudentOwned,
		},
		{
			name:   "nothing policy claims nothing",
			policy: NewNothingIsStudentPolicy(),
			rel:    "src/main/App.java",
			want:   m.TemplateOwned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.policy, tt.rel))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	policy := NewPythonPolicy(m.ProjectConfig{
		ExtraStudentFiles:  []string{"extra"},
		ExtraExerciseFiles: []string{"src/generated"},
	})

	paths := []m.Path{
		"src/solution.py",
		"test/test_solution.py",
		"tmc/__main__.py",
		"extra/helper.py",
		".tmcproject.yml",
		"README.md",
	}

	for _, rel := range paths {
		first := Classify(policy, rel)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Classify(policy, rel), "path %s", rel)
		}
	}
}

func TestPolicies_EcosystemRules(t *testing.T) {
	tests := []struct {
		name   string
		policy StudentFilePolicy
		yes    []m.Path
		no     []m.Path
	}{
		{
			name:   "maven",
			policy: NewMavenPolicy(m.ProjectConfig{}),
			yes:    []m.Path{"src/main/java/App.java", "src/main/resources/app.yml"},
			no:     []m.Path{"src/test/AppTest.java", "pom.xml"},
		},
		{
			name:   "ant",
			policy: NewAntPolicy(m.ProjectConfig{}),
			yes:    []m.Path{"src/App.java"},
			no:     []m.Path{"test/AppTest.java", "build.xml"},
		},
		{
			name:   "make",
			policy: NewMakePolicy(m.ProjectConfig{}),
			yes:    []m.Path{"src/main.c"},
			no:     []m.Path{"test/test_main.c", "Makefile"},
		},
		{
			name:   "python",
			policy: NewPythonPolicy(m.ProjectConfig{}),
			yes:    []m.Path{"src/solution.py", "solution.py", "notebook.ipynb"},
			no:     []m.Path{"test/test_solution.py", "tmc/__main__.py", "venv/lib/thing.py", ".venv/lib/thing.py", "setup.py.txt"},
		},
		{
			name:   "r",
			policy: NewRPolicy(m.ProjectConfig{}),
			yes:    []m.Path{"R/solution.R"},
			no:     []m.Path{"tests/testthat/test_solution.R"},
		},
		{
			name:   "csharp",
			policy: NewCSharpPolicy(m.ProjectConfig{}),
			yes:    []m.Path{"src/App/Program.cs"},
			no:     []m.Path{"src/App/App.csproj", "src/App/bin/Debug/App.dll", "src/App/obj/project.json", "test/AppTest.cs"},
		},
		{
			name:   "jupyter",
			policy: NewJupyterPolicy(m.ProjectConfig{}),
			yes:    []m.Path{"deep/dir/notebook.ipynb", "notebook.ipynb"},
			no:     []m.Path{"helper.py"},
		},
		{
			name:   "no-tests",
			policy: NewNoTestsPolicy(m.ProjectConfig{}),
			yes:    []m.Path{"whatever.txt", "src/deep/file.bin"},
			no:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, rel := range tt.yes {
				assert.True(t, tt.policy.IsStudentSourceFile(rel), "expected student source: %s", rel)
			}

			for _, rel := range tt.no {
				assert.False(t, tt.policy.IsStudentSourceFile(rel), "expected non-student source: %s", rel)
			}
		})
	}
}

func TestIsUpdatingForced(t *testing.T) {
	policy := NewMavenPolicy(m.ProjectConfig{
		ForceUpdate: []string{"src/main/resources", "*.lock"},
	})

	assert.True(t, IsUpdatingForced(policy, "src/main/resources/app.yml"))
	assert.True(t, IsUpdatingForced(policy, "deps.lock"))
	assert.False(t, IsUpdatingForced(policy, "src/main/java/App.java"))
}
