package adapter

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	m "github.com/courselab/langs/internal/model"
)

// ExerciseFS abstracts filesystem operations on exercise trees so the
// merge and packaging logic can be tested against a substitute. It
// intentionally hides direct `os` access from the domain layer.
type ExerciseFS interface {
	// Walk traverses the tree rooted at root, calling fn with paths
	// relative to root for every regular file.
	Walk(root m.Path, fn func(rel m.Path, info os.FileInfo) error) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// WriteFile writes content to a file, creating parent directories
	// as needed.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// HashFile returns a stable fingerprint (SHA-256) for the file.
	HashFile(path m.Path) (string, error)

	// Exists reports whether a file or directory exists at path.
	Exists(path m.Path) bool

	// CreateTempDir creates a scratch directory next to dir so that a
	// later rename stays on the same filesystem.
	CreateTempDir(dir m.Path, pattern string) (m.Path, error)

	// Rename moves a file or directory.
	Rename(from, to m.Path) error

	// Remove removes a single file or empty directory.
	Remove(path m.Path) error

	// RemoveAll removes a directory and all its contents.
	RemoveAll(path m.Path) error

	// CopyDir recursively copies a directory tree.
	CopyDir(src, dst m.Path) error
}

// LocalExerciseFS is the os-backed implementation of ExerciseFS.
type LocalExerciseFS struct{}

// NewLocalExerciseFS constructs a LocalExerciseFS ready to be wired into
// the merge and archive logic.
func NewLocalExerciseFS() *LocalExerciseFS {
	return &LocalExerciseFS{}
}

// Walk iterates over regular files under root, reporting paths relative
// to root.
func (a *LocalExerciseFS) Walk(root m.Path, fn func(rel m.Path, info os.FileInfo) error) error {
	rootStr := string(root)

	return filepath.Walk(rootStr, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(rootStr, path)
		if err != nil {
			return err
		}

		return fn(m.Path(rel), info)
	})
}

// ReadFile loads file contents from disk.
func (a *LocalExerciseFS) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// WriteFile writes content to a file, creating parents as needed.
func (a *LocalExerciseFS) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(string(path)), 0o750); err != nil {
		return err
	}

	return os.WriteFile(string(path), content, perm)
}

// HashFile returns the SHA-256 hash of the file at the provided path.
func (a *LocalExerciseFS) HashFile(path m.Path) (string, error) {
	f, err := os.Open(string(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Exists reports whether the path exists.
func (a *LocalExerciseFS) Exists(path m.Path) bool {
	_, err := os.Stat(string(path))
	return err == nil
}

// CreateTempDir creates a scratch directory under dir.
func (a *LocalExerciseFS) CreateTempDir(dir m.Path, pattern string) (m.Path, error) {
	tmpDir, err := os.MkdirTemp(string(dir), pattern)
	if err != nil {
		return "", err
	}

	return m.Path(tmpDir), nil
}

// Rename moves a file or directory.
func (a *LocalExerciseFS) Rename(from, to m.Path) error {
	return os.Rename(string(from), string(to))
}

// Remove removes a single file or empty directory.
func (a *LocalExerciseFS) Remove(path m.Path) error {
	return os.Remove(string(path))
}

// RemoveAll removes a directory and all its contents.
func (a *LocalExerciseFS) RemoveAll(path m.Path) error {
	return os.RemoveAll(string(path))
}

// CopyDir recursively copies a directory tree.
func (a *LocalExerciseFS) CopyDir(src, dst m.Path) error {
	return filepath.Walk(string(src), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(string(src), path)
		if err != nil {
			return err
		}

		targetPath := filepath.Join(string(dst), relPath)

		if info.IsDir() {
			return os.MkdirAll(targetPath, info.Mode())
		}

		return copyFile(path, targetPath, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}

	defer func() { _ = sourceFile.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	defer func() { _ = destFile.Close() }()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return os.Chmod(dst, mode)
}
