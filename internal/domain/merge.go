package domain

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/courselab/langs/internal/adapter"
	m "github.com/courselab/langs/internal/model"
)

// Merger reconciles an incoming template tree with an existing on-disk
// student copy. It stages the merged tree into a temporary sibling
// directory and commits it with a rename swap, so a failure never
// leaves the existing tree partially merged.
type Merger struct {
	fs adapter.ExerciseFS
}

// NewMerger constructs a Merger on top of the given filesystem.
func NewMerger(fs adapter.ExerciseFS) *Merger {
	return &Merger{fs: fs}
}

// Merge applies the incoming tree onto existingRoot under the policy's
// classification rules:
//
//   - template and config files from the incoming tree always overwrite,
//   - student files are only created, never clobbered, except paths the
//     configuration forces to update when the student copy is still byte
//     identical to the previous template version,
//   - template files deleted upstream are removed locally,
//   - student files absent from the incoming tree are kept.
//
// previousTemplate may be empty; force-update then degrades to
// create-only for existing student files.
func (mg *Merger) Merge(incomingRoot, existingRoot, previousTemplate m.Path, policy StudentFilePolicy) error {
	if !mg.fs.Exists(incomingRoot) {
		return &FileIOError{Op: "merge", Path: incomingRoot, Err: os.ErrNotExist}
	}

	staging, err := mg.stage(incomingRoot, existingRoot, previousTemplate, policy)
	if err != nil {
		if staging != "" {
			_ = mg.fs.RemoveAll(staging)
		}

		return err
	}

	return mg.commit(staging, existingRoot)
}

// stage builds the fully merged tree in a temporary sibling of
// existingRoot and returns its path.
func (mg *Merger) stage(incomingRoot, existingRoot, previousTemplate m.Path, policy StudentFilePolicy) (m.Path, error) {
	parent := m.Path(filepath.Dir(string(existingRoot)))
	if err := os.MkdirAll(string(parent), 0o750); err != nil {
		return "", &FileIOError{Op: "mkdir", Path: parent, Err: err}
	}

	staging, err := mg.fs.CreateTempDir(parent, ".merge-"+uuid.NewString()[:8]+"-*")
	if err != nil {
		return "", &FileIOError{Op: "stage", Path: parent, Err: err}
	}

	incoming, err := mg.listFiles(incomingRoot)
	if err != nil {
		return staging, err
	}

	// Start from the incoming tree: template and config files land in
	// their updated form, student files in their template form unless an
	// existing student copy wins below.
	for rel := range incoming {
		keep, err := mg.resolveIncoming(rel, incomingRoot, existingRoot, previousTemplate, policy)
		if err != nil {
			return staging, err
		}

		if err := mg.copyInto(staging, rel, keep); err != nil {
			return staging, err
		}
	}

	// Carry over student files that exist locally but not upstream.
	// Template files absent upstream are dropped here, which is what
	// removes them from the committed tree.
	if mg.fs.Exists(existingRoot) {
		err = mg.fs.Walk(existingRoot, func(rel m.Path, _ os.FileInfo) error {
			if _, ok := incoming[rel]; ok {
				return nil
			}

			if Classify(policy, rel) != m.StudentOwned {
				return nil
			}

			return mg.copyInto(staging, rel, m.Path(filepath.Join(string(existingRoot), string(rel))))
		})
		if err != nil {
			return staging, &FileIOError{Op: "walk", Path: existingRoot, Err: err}
		}
	}

	return staging, nil
}

// resolveIncoming decides which concrete file satisfies rel in the
// merged tree: the incoming version or the student's existing copy.
func (mg *Merger) resolveIncoming(rel m.Path, incomingRoot, existingRoot, previousTemplate m.Path, policy StudentFilePolicy) (m.Path, error) {
	incomingFile := m.Path(filepath.Join(string(incomingRoot), string(rel)))
	existingFile := m.Path(filepath.Join(string(existingRoot), string(rel)))

	if Classify(policy, rel) != m.StudentOwned {
		return incomingFile, nil
	}

	if !mg.fs.Exists(existingFile) {
		return incomingFile, nil
	}

	if IsUpdatingForced(policy, rel) && previousTemplate != "" {
		unchanged, err := mg.sameContent(existingFile, m.Path(filepath.Join(string(previousTemplate), string(rel))))
		if err != nil {
			return "", err
		}

		if unchanged {
			return incomingFile, nil
		}
	}

	return existingFile, nil
}

// sameContent reports whether the student copy is byte identical to the
// previous template version. A missing previous version counts as
// diverged.
func (mg *Merger) sameContent(studentFile, templateFile m.Path) (bool, error) {
	if !mg.fs.Exists(templateFile) {
		return false, nil
	}

	student, err := mg.fs.HashFile(studentFile)
	if err != nil {
		return false, &FileIOError{Op: "hash", Path: studentFile, Err: err}
	}

	template, err := mg.fs.HashFile(templateFile)
	if err != nil {
		return false, &FileIOError{Op: "hash", Path: templateFile, Err: err}
	}

	return student == template, nil
}

func (mg *Merger) copyInto(staging, rel, source m.Path) error {
	content, err := mg.fs.ReadFile(source)
	if err != nil {
		return &FileIOError{Op: "read", Path: source, Err: err}
	}

	target := m.Path(filepath.Join(string(staging), string(rel)))
	if err := mg.fs.WriteFile(target, content, 0o644); err != nil {
		return &FileIOError{Op: "write", Path: target, Err: err}
	}

	return nil
}

// commit swaps the staged tree into place. The old tree is parked next
// to the destination first, so the destination path transitions between
// complete trees only.
func (mg *Merger) commit(staging, existingRoot m.Path) error {
	backup := m.Path(fmt.Sprintf("%s.old-%s", existingRoot, uuid.NewString()[:8]))

	hadExisting := mg.fs.Exists(existingRoot)
	if hadExisting {
		if err := mg.fs.Rename(existingRoot, backup); err != nil {
			_ = mg.fs.RemoveAll(staging)
			return &FileIOError{Op: "rename", Path: existingRoot, Err: err}
		}
	}

	if err := mg.fs.Rename(staging, existingRoot); err != nil {
		if hadExisting {
			_ = mg.fs.Rename(backup, existingRoot)
		}

		_ = mg.fs.RemoveAll(staging)

		return &FileIOError{Op: "rename", Path: staging, Err: err}
	}

	if hadExisting {
		_ = mg.fs.RemoveAll(backup)
	}

	return nil
}

func (mg *Merger) listFiles(root m.Path) (map[m.Path]struct{}, error) {
	files := map[m.Path]struct{}{}

	err := mg.fs.Walk(root, func(rel m.Path, _ os.FileInfo) error {
		files[rel] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, &FileIOError{Op: "walk", Path: root, Err: err}
	}

	return files, nil
}
