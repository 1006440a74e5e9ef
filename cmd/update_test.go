package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/courselab/langs/internal/model"
)

func TestLoadManifest(t *testing.T) {
	t.Run("parses exercise entries", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exercises.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`exercises:
  - id: 101
    course: algo-2026
    exercise: part01-ex01
    path: exercises/part01-ex01
  - id: 102
    course: algo-2026
    exercise: part01-ex02
    path: exercises/part01-ex02
`), 0o644))

		items, err := loadManifest(path)

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, m.ExerciseDownload{
			ID:           101,
			CourseSlug:   "algo-2026",
			ExerciseSlug: "part01-ex01",
			Path:         "exercises/part01-ex01",
			State:        m.DownloadPending,
		}, items[0])
	})

	t.Run("missing manifest", func(t *testing.T) {
		_, err := loadManifest(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed manifest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exercises.yaml")
		require.NoError(t, os.WriteFile(path, []byte("exercises: {not a list}"), 0o644))

		_, err := loadManifest(path)
		assert.Error(t, err)
	})
}
