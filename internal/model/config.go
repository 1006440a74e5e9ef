package model

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectConfigFile is the name of the per-exercise override file,
// located in the exercise root directory.
const ProjectConfigFile = ".tmcproject.yml"

// ProjectConfig holds the semantic fields of the per-exercise override
// file. The zero value is a valid configuration meaning "all plugin
// defaults".
type ProjectConfig struct {
	// ExtraStudentFiles lists files or directories that are always
	// considered student files, regardless of the plugin's defaults.
	ExtraStudentFiles []string `yaml:"extra_student_files"`
	// ExtraExerciseFiles lists files or directories that are always
	// considered exercise (template) files. ExtraStudentFiles takes
	// precedence when a path matches both.
	ExtraExerciseFiles []string `yaml:"extra_exercise_files"`
	// ForceUpdate lists paths that updates may overwrite even when
	// they are classified as student files.
	ForceUpdate []string `yaml:"force_update"`
	// TestsTimeoutMs forcibly stops test runs after this duration.
	TestsTimeoutMs uint32 `yaml:"tests_timeout_ms"`
	// NoTests marks the exercise as not containing any tests.
	NoTests *NoTests `yaml:"no-tests"`
	// FailOnValgrindError treats Valgrind findings as test errors.
	FailOnValgrindError *bool `yaml:"fail_on_valgrind_error"`
	// SandboxImage overrides the plugin's default sandbox image.
	SandboxImage string `yaml:"sandbox_image"`
}

// NoTests configures the no-tests marker. The file may contain either a
// plain boolean or a mapping with a points list.
type NoTests struct {
	Flag   bool
	Points []string
}

func (n *NoTests) UnmarshalYAML(value *yaml.Node) error {
	var flag bool
	if err := value.Decode(&flag); err == nil {
		n.Flag = flag
		return nil
	}

	var detailed struct {
		Points []any `yaml:"points"`
	}
	if err := value.Decode(&detailed); err != nil {
		return fmt.Errorf("invalid no-tests value: %w", err)
	}

	n.Flag = true
	for _, point := range detailed.Points {
		n.Points = append(n.Points, fmt.Sprint(point))
	}

	return nil
}

// TestsTimeout converts the configured timeout into a duration. Zero
// means no timeout was configured.
func (c ProjectConfig) TestsTimeout() time.Duration {
	return time.Duration(c.TestsTimeoutMs) * time.Millisecond
}

// Merge fills empty or unset fields of c from other. Set values are left
// unchanged and lists are never merged together.
func (c *ProjectConfig) Merge(other ProjectConfig) {
	if len(c.ExtraStudentFiles) == 0 {
		c.ExtraStudentFiles = other.ExtraStudentFiles
	}

	if len(c.ExtraExerciseFiles) == 0 {
		c.ExtraExerciseFiles = other.ExtraExerciseFiles
	}

	if len(c.ForceUpdate) == 0 {
		c.ForceUpdate = other.ForceUpdate
	}

	if c.TestsTimeoutMs == 0 {
		c.TestsTimeoutMs = other.TestsTimeoutMs
	}

	if c.NoTests == nil {
		c.NoTests = other.NoTests
	}

	if c.FailOnValgrindError == nil {
		c.FailOnValgrindError = other.FailOnValgrindError
	}

	if c.SandboxImage == "" {
		c.SandboxImage = other.SandboxImage
	}
}
