package domain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/courselab/langs/internal/adapter"
	m "github.com/courselab/langs/internal/model"
)

// DefaultWorkerCount bounds how many exercises a batch processes in
// parallel.
const DefaultWorkerCount = 4

// checksumFileSuffix names the per-exercise checksum note in the
// template cache.
const checksumFileSuffix = ".checksum"

// ProgressReporter receives status updates as a batch works through its
// items. Implementations must tolerate concurrent calls.
type ProgressReporter interface {
	Report(update m.StatusUpdate)
}

// BatchUpdater downloads and updates exercises in bounded parallel
// batches. Between runs it keeps the last template of each exercise in
// a cache directory, which drives both the checksum skip and the
// force-update comparison of the merge.
type BatchUpdater struct {
	client   adapter.ExerciseClient
	fs       adapter.ExerciseFS
	archiver *Archiver
	registry *Registry
	merger   *Merger
	reporter ProgressReporter
	cacheDir m.Path
	workers  int
}

// BatchOption configures a BatchUpdater.
type BatchOption func(*BatchUpdater)

// WithWorkerCount overrides the parallel worker bound.
func WithWorkerCount(workers int) BatchOption {
	return func(b *BatchUpdater) {
		if workers > 0 {
			b.workers = workers
		}
	}
}

// WithProgressReporter attaches a reporter for per-item progress.
func WithProgressReporter(reporter ProgressReporter) BatchOption {
	return func(b *BatchUpdater) {
		b.reporter = reporter
	}
}

// NewBatchUpdater constructs a BatchUpdater. cacheDir is where the
// previous template trees and checksums are kept between runs.
func NewBatchUpdater(
	client adapter.ExerciseClient,
	fs adapter.ExerciseFS,
	archiver *Archiver,
	registry *Registry,
	merger *Merger,
	cacheDir m.Path,
	options ...BatchOption,
) *BatchUpdater {
	updater := &BatchUpdater{
		client:   client,
		fs:       fs,
		archiver: archiver,
		registry: registry,
		merger:   merger,
		cacheDir: cacheDir,
		workers:  DefaultWorkerCount,
	}

	for _, option := range options {
		option(updater)
	}

	return updater
}

// UpdateExercises processes every item to a terminal state and returns
// the full partition. One item's failure never aborts the batch; when
// any item failed, the report is still complete and the accompanying
// error is a DownloadsFailedError carrying it.
func (b *BatchUpdater) UpdateExercises(ctx context.Context, items []m.ExerciseDownload) (m.DownloadBatchReport, error) {
	var (
		mu     sync.Mutex
		report m.DownloadBatchReport
		done   int
	)

	started := time.Now()

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(b.workers)

	for _, item := range items {
		item := item
		group.Go(func() error {
			resolved := b.processItem(ctx, item)

			mu.Lock()
			defer mu.Unlock()

			switch resolved.State {
			case m.Downloaded:
				report.Downloaded = append(report.Downloaded, resolved)
			case m.DownloadSkipped:
				report.Skipped = append(report.Skipped, resolved)
			default:
				report.Failed = append(report.Failed, resolved)
			}

			done++
			b.report(m.StatusUpdate{
				Message:     fmt.Sprintf("%s/%s: %s", resolved.CourseSlug, resolved.ExerciseSlug, resolved.State),
				PercentDone: float64(done) / float64(len(items)),
				Elapsed:     time.Since(started),
			})

			return nil
		})
	}

	_ = group.Wait()

	b.report(m.StatusUpdate{
		Finished:    true,
		Message:     fmt.Sprintf("processed %d exercises", len(items)),
		PercentDone: 1,
		Elapsed:     time.Since(started),
	})

	if len(report.Failed) > 0 {
		return report, &DownloadsFailedError{Report: report}
	}

	return report, nil
}

// processItem drives one exercise to a terminal state. Errors are
// captured on the item, never returned.
func (b *BatchUpdater) processItem(ctx context.Context, item m.ExerciseDownload) m.ExerciseDownload {
	ref := adapter.ExerciseRef{ID: item.ID, CourseSlug: item.CourseSlug, ExerciseSlug: item.ExerciseSlug}

	checksum, err := b.client.FetchExerciseChecksum(ctx, ref)
	if err != nil {
		return failed(item, err)
	}

	if b.fs.Exists(item.Path) && b.localChecksum(item) == checksum {
		item.State = m.DownloadSkipped
		item.SkipReason = "unchanged since last download"

		slog.Debug("skipping exercise", "course", item.CourseSlug, "exercise", item.ExerciseSlug)

		return item
	}

	item.State = m.DownloadFetching

	archive, err := b.client.FetchExerciseArchive(ctx, ref)
	if err != nil {
		return failed(item, err)
	}

	item.State = m.DownloadMerging

	if err := b.mergeArchive(item, archive); err != nil {
		return failed(item, err)
	}

	item.State = m.Downloaded

	return item
}

// mergeArchive extracts the fetched template next to the destination
// and merges it in, then refreshes the cached template and checksum.
func (b *BatchUpdater) mergeArchive(item m.ExerciseDownload, archive adapter.ExerciseArchive) error {
	parent := m.Path(filepath.Dir(string(item.Path)))

	staging, err := b.fs.CreateTempDir(parent, ".fetch-*")
	if err != nil {
		return &FileIOError{Op: "stage", Path: parent, Err: err}
	}

	defer func() { _ = b.fs.RemoveAll(staging) }()

	if _, err := b.archiver.ExtractTo(archive.Bytes, staging); err != nil {
		return err
	}

	plugin, err := b.registry.DetectPlugin(staging)
	if err != nil {
		return err
	}

	config, err := adapter.LoadProjectConfigOrDefault(staging)
	if err != nil {
		return err
	}

	cached := b.cachePath(item)

	previousTemplate := m.Path("")
	if b.fs.Exists(cached) {
		previousTemplate = cached
	}

	if err := b.merger.Merge(staging, item.Path, previousTemplate, plugin.Policy(config)); err != nil {
		return err
	}

	return b.refreshCache(item, staging, archive.Checksum)
}

// refreshCache replaces the cached template tree and checksum for the
// exercise. A stale cache only degrades the next force-update check, so
// failures here fail the item rather than pass silently.
func (b *BatchUpdater) refreshCache(item m.ExerciseDownload, template m.Path, checksum string) error {
	cached := b.cachePath(item)

	// Drop the old checksum first: an interrupted refresh must not leave
	// a checksum that vouches for a stale cached tree.
	staleChecksum := m.Path(string(cached) + checksumFileSuffix)
	if err := b.fs.Remove(staleChecksum); err != nil && !os.IsNotExist(err) {
		return &FileIOError{Op: "remove", Path: staleChecksum, Err: err}
	}

	if err := b.fs.RemoveAll(cached); err != nil {
		return &FileIOError{Op: "remove", Path: cached, Err: err}
	}

	if err := b.fs.CopyDir(template, cached); err != nil {
		return &FileIOError{Op: "copy", Path: cached, Err: err}
	}

	checksumFile := m.Path(string(cached) + checksumFileSuffix)
	if err := b.fs.WriteFile(checksumFile, []byte(checksum), 0o644); err != nil {
		return &FileIOError{Op: "write", Path: checksumFile, Err: err}
	}

	return nil
}

func (b *BatchUpdater) localChecksum(item m.ExerciseDownload) string {
	content, err := b.fs.ReadFile(m.Path(string(b.cachePath(item)) + checksumFileSuffix))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(content))
}

func (b *BatchUpdater) cachePath(item m.ExerciseDownload) m.Path {
	return m.Path(filepath.Join(string(b.cacheDir), item.CourseSlug, item.ExerciseSlug))
}

func (b *BatchUpdater) report(update m.StatusUpdate) {
	if b.reporter == nil {
		return
	}

	b.reporter.Report(update)
}

func failed(item m.ExerciseDownload, err error) m.ExerciseDownload {
	item.State = m.DownloadFailed
	item.Errors = append(item.Errors, errorChain(err)...)

	slog.Warn("exercise download failed",
		"course", item.CourseSlug, "exercise", item.ExerciseSlug, "error", err)

	return item
}

// errorChain flattens a wrapped error into its messages, outermost
// first.
func errorChain(err error) []string {
	var messages []string

	for err != nil {
		messages = append(messages, err.Error())

		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}

		err = unwrapper.Unwrap()
	}

	return messages
}
