package adapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/courselab/langs/internal/model"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLocalExerciseFS_Walk(t *testing.T) {
	fs := NewLocalExerciseFS()

	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "pom.xml"), "<project/>")
	writeTestFile(t, filepath.Join(root, "src", "main", "App.java"), "class App {}")

	var visited []m.Path
	err := fs.Walk(m.Path(root), func(rel m.Path, info os.FileInfo) error {
		assert.False(t, info.IsDir())
		visited = append(visited, rel)
		return nil
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []m.Path{"pom.xml", m.Path(filepath.Join("src", "main", "App.java"))}, visited)
}

func TestLocalExerciseFS_WriteFileCreatesParents(t *testing.T) {
	fs := NewLocalExerciseFS()

	target := m.Path(filepath.Join(t.TempDir(), "deep", "nested", "file.txt"))
	require.NoError(t, fs.WriteFile(target, []byte("content"), 0o644))

	content, err := fs.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "content", string(content))
}

func TestLocalExerciseFS_HashFile(t *testing.T) {
	fs := NewLocalExerciseFS()

	root := t.TempDir()
	path := filepath.Join(root, "file.txt")
	writeTestFile(t, path, "hello")

	hash, err := fs.HashFile(m.Path(path))
	require.NoError(t, err)

	// sha256 of "hello"
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", hash)

	same := filepath.Join(root, "copy.txt")
	writeTestFile(t, same, "hello")

	hash2, err := fs.HashFile(m.Path(same))
	require.NoError(t, err)
	assert.Equal(t, hash, hash2)
}

func TestLocalExerciseFS_CopyDir(t *testing.T) {
	fs := NewLocalExerciseFS()

	src := t.TempDir()
	writeTestFile(t, filepath.Join(src, "a.txt"), "a")
	writeTestFile(t, filepath.Join(src, "sub", "b.txt"), "b")

	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, fs.CopyDir(m.Path(src), m.Path(dst)))

	content, err := os.ReadFile(filepath.Join(dst, "sub", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(content))
}

func TestLocalExerciseFS_TempDirAndRename(t *testing.T) {
	fs := NewLocalExerciseFS()

	parent := t.TempDir()

	tmp, err := fs.CreateTempDir(m.Path(parent), ".stage-*")
	require.NoError(t, err)
	assert.True(t, fs.Exists(tmp))

	target := m.Path(filepath.Join(parent, "final"))
	require.NoError(t, fs.Rename(tmp, target))
	assert.False(t, fs.Exists(tmp))
	assert.True(t, fs.Exists(target))
}
