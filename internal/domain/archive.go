package domain

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/courselab/langs/internal/adapter"
	m "github.com/courselab/langs/internal/model"
)

// noSubmitMarker marks a directory whose contents must never be packaged.
const noSubmitMarker = ".tmcnosubmit"

// ExtractedFile is one file pulled out of an exercise archive, with its
// path relative to the detected project directory.
type ExtractedFile struct {
	Path         m.Path
	Content      []byte
	StudentOwned bool
}

// Archiver packages exercise trees into zip archives and extracts them
// back, locating the project directory inside archives that carry an
// extra wrapping directory.
type Archiver struct {
	fs       adapter.ExerciseFS
	registry *Registry
}

// NewArchiver constructs an Archiver. The registry is consulted during
// extraction to locate the project directory by ecosystem markers.
func NewArchiver(fs adapter.ExerciseFS, registry *Registry) *Archiver {
	return &Archiver{fs: fs, registry: registry}
}

// Compress zips the tree at root, including every file the policy does
// not classify as template owned. Entries are prefixed with the root's
// base name. Directories whose contents are entirely excluded produce
// no entries at all.
func (a *Archiver) Compress(root m.Path, policy StudentFilePolicy) ([]byte, error) {
	var files []m.Path
	err := a.fs.Walk(root, func(rel m.Path, _ os.FileInfo) error {
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, &FileIOError{Op: "walk", Path: root, Err: err}
	}

	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })

	noSubmitDirs := noSubmitDirsOf(files)
	prefix := filepath.Base(string(root))

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)

	for _, rel := range files {
		if underNoSubmitDir(rel, noSubmitDirs) {
			continue
		}

		if Classify(policy, rel) == m.TemplateOwned {
			continue
		}

		content, err := a.fs.ReadFile(m.Path(filepath.Join(string(root), string(rel))))
		if err != nil {
			return nil, &FileIOError{Op: "read", Path: rel, Err: err}
		}

		entry, err := writer.Create(path.Join(prefix, filepath.ToSlash(string(rel))))
		if err != nil {
			return nil, &ArchiveError{Entry: string(rel), Err: err}
		}

		if _, err := entry.Write(content); err != nil {
			return nil, &ArchiveError{Entry: string(rel), Err: err}
		}

		slog.Debug("packaged file", "path", rel)
	}

	if err := writer.Close(); err != nil {
		return nil, &ArchiveError{Err: err}
	}

	return buf.Bytes(), nil
}

// Extract opens the archive, locates the project directory, and returns
// the directory prefix together with every file under it, classified by
// the policy. Entries escaping the project directory are rejected.
func (a *Archiver) Extract(data []byte, policy StudentFilePolicy) (m.Path, []ExtractedFile, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, &ArchiveError{Err: err}
	}

	prefix, err := a.findProjectDir(archiveEntries(reader))
	if err != nil {
		return "", nil, err
	}

	var extracted []ExtractedFile

	for _, file := range reader.File {
		if strings.HasSuffix(file.Name, "/") {
			continue
		}

		rel, inProject := stripArchivePrefix(m.Path(file.Name), prefix)
		if !inProject {
			continue
		}

		if !filepath.IsLocal(string(rel)) {
			return "", nil, &ArchiveError{Entry: file.Name, Err: fmt.Errorf("entry escapes the project directory")}
		}

		content, err := readArchiveFile(file)
		if err != nil {
			return "", nil, err
		}

		extracted = append(extracted, ExtractedFile{
			Path:         rel,
			Content:      content,
			StudentOwned: IsStudentFile(policy, rel),
		})
	}

	return prefix, extracted, nil
}

// ExtractTo unpacks the archive's project directory into dest,
// returning the prefix that was stripped.
func (a *Archiver) ExtractTo(data []byte, dest m.Path) (m.Path, error) {
	prefix, files, err := a.Extract(data, NewEverythingIsStudentPolicy())
	if err != nil {
		return "", err
	}

	for _, file := range files {
		target := m.Path(filepath.Join(string(dest), string(file.Path)))
		if err := a.fs.WriteFile(target, file.Content, 0o644); err != nil {
			return "", &FileIOError{Op: "write", Path: target, Err: err}
		}
	}

	return prefix, nil
}

// findProjectDir locates the single plausible project directory among
// the archive entries. It tries ecosystem markers first, then a
// directory carrying the project config file, then a single wrapping
// directory as long as it is not itself a source directory.
func (a *Archiver) findProjectDir(entries []m.Path) (m.Path, error) {
	if a.registry != nil {
		if _, dir, err := a.registry.DetectPluginFromArchive(entries); err == nil {
			return dir, nil
		}
	}

	if dir, ok := findMarkerDir(entries, func(base string, _ m.Path) bool {
		return base == m.ProjectConfigFile
	}); ok {
		return dir, nil
	}

	if dir, ok := singleWrappingDir(entries); ok {
		return dir, nil
	}

	return "", &NoProjectDirError{Reason: "no recognizable top-level exercise directory"}
}

// singleWrappingDir reports the sole top-level directory containing all
// entries, unless it is named like a source directory.
func singleWrappingDir(entries []m.Path) (m.Path, bool) {
	top := ""

	for _, entry := range entries {
		name := strings.TrimSuffix(string(entry), "/")
		first, rest, found := strings.Cut(name, "/")
		if !found || rest == "" {
			continue
		}

		switch {
		case top == "":
			top = first
		case top != first:
			return "", false
		}
	}

	if top == "" || top == "src" {
		return "", false
	}

	return m.Path(top), true
}

func archiveEntries(reader *zip.Reader) []m.Path {
	entries := make([]m.Path, 0, len(reader.File))
	for _, file := range reader.File {
		entries = append(entries, m.Path(file.Name))
	}

	return entries
}

func stripArchivePrefix(name, prefix m.Path) (m.Path, bool) {
	if prefix == "" {
		return name, true
	}

	rest, found := strings.CutPrefix(string(name), string(prefix)+"/")
	if !found || rest == "" {
		return "", false
	}

	return m.Path(rest), true
}

func readArchiveFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, &ArchiveError{Entry: file.Name, Err: err}
	}

	defer func() { _ = rc.Close() }()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, &ArchiveError{Entry: file.Name, Err: err}
	}

	return content, nil
}

func noSubmitDirsOf(files []m.Path) []m.Path {
	var dirs []m.Path

	for _, rel := range files {
		if path.Base(string(rel)) == noSubmitMarker {
			dirs = append(dirs, m.Path(path.Dir(string(rel))))
		}
	}

	return dirs
}

func underNoSubmitDir(rel m.Path, dirs []m.Path) bool {
	for _, dir := range dirs {
		if dir == "." || pathHasPrefix(string(rel), string(dir)) {
			return true
		}
	}

	return false
}
