// Package domain implements the plugin dispatch, student file policy,
// archive, merge and batch update logic of the langs toolkit.
package domain

import (
	"fmt"
	"strings"

	m "github.com/courselab/langs/internal/model"
)

// PluginNotFoundError means no language plugin recognized the exercise
// root.
type PluginNotFoundError struct {
	Root m.Path
}

func (e *PluginNotFoundError) Error() string {
	return fmt.Sprintf("no language plugin matches exercise at %q", e.Root)
}

// NoProjectDirError means no single plausible project root could be
// located inside an archive.
type NoProjectDirError struct {
	Reason string
}

func (e *NoProjectDirError) Error() string {
	return fmt.Sprintf("no project directory in archive: %s", e.Reason)
}

// ArchiveError means the archive itself is corrupt or otherwise
// unusable: bad central directory, truncated entry, unsupported
// compression method.
type ArchiveError struct {
	Entry string
	Err   error
}

func (e *ArchiveError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("corrupt archive: %v", e.Err)
	}

	return fmt.Sprintf("corrupt archive entry %q: %v", e.Entry, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// FileIOError is a filesystem failure during merge or packaging,
// carrying the path it concerns.
type FileIOError struct {
	Op   string
	Path m.Path
	Err  error
}

func (e *FileIOError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *FileIOError) Unwrap() error { return e.Err }

// PluginError wraps a plugin-originated failure with the plugin's name,
// rather than each plugin growing its own parallel error hierarchy.
type PluginError struct {
	Plugin string
	Err    error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s: %v", e.Plugin, e.Err)
}

func (e *PluginError) Unwrap() error { return e.Err }

// DownloadsFailedError is the aggregate failure of a batch update. It
// carries the full partition so operators can see exactly what
// succeeded even though the overall call failed.
type DownloadsFailedError struct {
	Report m.DownloadBatchReport
}

func (e *DownloadsFailedError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d of %d exercise downloads failed", len(e.Report.Failed), e.Report.Len())

	for _, failed := range e.Report.Failed {
		fmt.Fprintf(&sb, "\n  %s/%s: %s", failed.CourseSlug, failed.ExerciseSlug, strings.Join(failed.Errors, ": "))
	}

	return sb.String()
}
