package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courselab/langs/internal/adapter"
	m "github.com/courselab/langs/internal/model"
)

func newTestMerger() *Merger {
	return NewMerger(adapter.NewLocalExerciseFS())
}

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()

	files := map[string]string{}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		files[rel] = string(content)

		return nil
	})
	require.NoError(t, err)

	return files
}

func TestMerger_TemplateUpdateKeepsStudentWork(t *testing.T) {
	base := t.TempDir()
	existing := filepath.Join(base, "exercise")
	incoming := filepath.Join(base, "incoming")

	// Existing copy: student has modified Solution.java.
	writeExerciseFile(t, existing, "pom.xml", "<project>old</project>")
	writeExerciseFile(t, existing, "src/main/Solution.java", "class Solution { int work() { return 42; } }")
	writeExerciseFile(t, existing, "src/test/OldTest.java", "class OldTest {}")

	// Incoming template: updated pom, new helper, OldTest removed.
	writeExerciseFile(t, incoming, "pom.xml", "<project>new</project>")
	writeExerciseFile(t, incoming, "src/main/Solution.java", "class Solution {}")
	writeExerciseFile(t, incoming, "src/main/Helper.java", "class Helper {}")

	policy := NewMavenPolicy(m.ProjectConfig{})

	require.NoError(t, newTestMerger().Merge(m.Path(incoming), m.Path(existing), "", policy))

	merged := readTree(t, existing)
	assert.Equal(t, "<project>new</project>", merged["pom.xml"])
	assert.Equal(t, "class Solution { int work() { return 42; } }", merged[filepath.Join("src", "main", "Solution.java")])
	assert.Equal(t, "class Helper {}", merged[filepath.Join("src", "main", "Helper.java")])
	assert.NotContains(t, merged, filepath.Join("src", "test", "OldTest.java"))
}

func TestMerger_Idempotent(t *testing.T) {
	base := t.TempDir()
	existing := filepath.Join(base, "exercise")
	incoming := filepath.Join(base, "incoming")

	writeExerciseFile(t, existing, "pom.xml", "<project>old</project>")
	writeExerciseFile(t, existing, "src/main/Solution.java", "student edit")
	writeExerciseFile(t, incoming, "pom.xml", "<project>new</project>")
	writeExerciseFile(t, incoming, "src/main/Solution.java", "template version")

	policy := NewMavenPolicy(m.ProjectConfig{})
	merger := newTestMerger()

	require.NoError(t, merger.Merge(m.Path(incoming), m.Path(existing), "", policy))
	first := readTree(t, existing)

	require.NoError(t, merger.Merge(m.Path(incoming), m.Path(existing), "", policy))
	second := readTree(t, existing)

	assert.Equal(t, first, second)
}

func TestMerger_StudentFilesOnlyCreated(t *testing.T) {
	base := t.TempDir()
	existing := filepath.Join(base, "exercise")
	incoming := filepath.Join(base, "incoming")

	writeExerciseFile(t, existing, "src/main/Solution.java", "student work")
	writeExerciseFile(t, incoming, "src/main/Solution.java", "template")
	writeExerciseFile(t, incoming, "src/main/New.java", "new file")

	policy := NewMavenPolicy(m.ProjectConfig{})

	require.NoError(t, newTestMerger().Merge(m.Path(incoming), m.Path(existing), "", policy))

	merged := readTree(t, existing)
	assert.Equal(t, "student work", merged[filepath.Join("src", "main", "Solution.java")])
	assert.Equal(t, "new file", merged[filepath.Join("src", "main", "New.java")])
}

func TestMerger_StudentFileAbsentUpstreamIsKept(t *testing.T) {
	base := t.TempDir()
	existing := filepath.Join(base, "exercise")
	incoming := filepath.Join(base, "incoming")

	writeExerciseFile(t, existing, "src/main/Extra.java", "mine")
	writeExerciseFile(t, incoming, "src/main/Solution.java", "template")

	policy := NewMavenPolicy(m.ProjectConfig{})

	require.NoError(t, newTestMerger().Merge(m.Path(incoming), m.Path(existing), "", policy))

	merged := readTree(t, existing)
	assert.Equal(t, "mine", merged[filepath.Join("src", "main", "Extra.java")])
}

func TestMerger_ForceUpdate(t *testing.T) {
	policy := NewMavenPolicy(m.ProjectConfig{
		ForceUpdate: []string{"src/main/Config.java"},
	})

	t.Run("overwrites pristine student copy", func(t *testing.T) {
		base := t.TempDir()
		existing := filepath.Join(base, "exercise")
		incoming := filepath.Join(base, "incoming")
		previous := filepath.Join(base, "previous")

		writeExerciseFile(t, existing, "src/main/Config.java", "v1")
		writeExerciseFile(t, previous, "src/main/Config.java", "v1")
		writeExerciseFile(t, incoming, "src/main/Config.java", "v2")

		require.NoError(t, newTestMerger().Merge(m.Path(incoming), m.Path(existing), m.Path(previous), policy))

		merged := readTree(t, existing)
		assert.Equal(t, "v2", merged[filepath.Join("src", "main", "Config.java")])
	})

	t.Run("keeps diverged student copy", func(t *testing.T) {
		base := t.TempDir()
		existing := filepath.Join(base, "exercise")
		incoming := filepath.Join(base, "incoming")
		previous := filepath.Join(base, "previous")

		writeExerciseFile(t, existing, "src/main/Config.java", "student tweak")
		writeExerciseFile(t, previous, "src/main/Config.java", "v1")
		writeExerciseFile(t, incoming, "src/main/Config.java", "v2")

		require.NoError(t, newTestMerger().Merge(m.Path(incoming), m.Path(existing), m.Path(previous), policy))

		merged := readTree(t, existing)
		assert.Equal(t, "student tweak", merged[filepath.Join("src", "main", "Config.java")])
	})

	t.Run("without previous template degrades to create only", func(t *testing.T) {
		base := t.TempDir()
		existing := filepath.Join(base, "exercise")
		incoming := filepath.Join(base, "incoming")

		writeExerciseFile(t, existing, "src/main/Config.java", "v1")
		writeExerciseFile(t, incoming, "src/main/Config.java", "v2")

		require.NoError(t, newTestMerger().Merge(m.Path(incoming), m.Path(existing), "", policy))

		merged := readTree(t, existing)
		assert.Equal(t, "v1", merged[filepath.Join("src", "main", "Config.java")])
	})
}

func TestMerger_FreshDownload(t *testing.T) {
	base := t.TempDir()
	existing := filepath.Join(base, "exercise")
	incoming := filepath.Join(base, "incoming")

	writeExerciseFile(t, incoming, "pom.xml", "<project/>")
	writeExerciseFile(t, incoming, "src/main/Solution.java", "template")

	policy := NewMavenPolicy(m.ProjectConfig{})

	require.NoError(t, newTestMerger().Merge(m.Path(incoming), m.Path(existing), "", policy))

	merged := readTree(t, existing)
	assert.Len(t, merged, 2)
	assert.Equal(t, "template", merged[filepath.Join("src", "main", "Solution.java")])
}

func TestMerger_MissingIncomingLeavesExistingUntouched(t *testing.T) {
	base := t.TempDir()
	existing := filepath.Join(base, "exercise")

	writeExerciseFile(t, existing, "src/main/Solution.java", "student work")
	before := readTree(t, existing)

	policy := NewMavenPolicy(m.ProjectConfig{})

	err := newTestMerger().Merge(m.Path(filepath.Join(base, "nope")), m.Path(existing), "", policy)

	var ioErr *FileIOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, before, readTree(t, existing))
}
