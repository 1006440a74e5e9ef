package model

// DownloadState is the lifecycle state of one batch work unit.
// Transitions: Pending -> Fetching -> Merging -> terminal, where the
// terminal states are Downloaded, Skipped and Failed. A download reaches
// its terminal state exactly once and is never reused.
type DownloadState int

const (
	DownloadPending DownloadState = iota
	DownloadFetching
	DownloadMerging
	Downloaded
	DownloadSkipped
	DownloadFailed
)

func (s DownloadState) String() string {
	switch s {
	case DownloadPending:
		return "pending"
	case DownloadFetching:
		return "fetching"
	case DownloadMerging:
		return "merging"
	case Downloaded:
		return "downloaded"
	case DownloadSkipped:
		return "skipped"
	case DownloadFailed:
		return "failed"
	}

	return "unknown"
}

// Terminal reports whether the state is one of the three end states.
func (s DownloadState) Terminal() bool {
	return s == Downloaded || s == DownloadSkipped || s == DownloadFailed
}

// ExerciseDownload is one unit of batch work: an exercise to download or
// update, plus its terminal classification after processing.
type ExerciseDownload struct {
	ID           uint32 `json:"id"`
	CourseSlug   string `json:"course-slug"`
	ExerciseSlug string `json:"exercise-slug"`
	// Path is the destination directory of the exercise on disk.
	Path Path `json:"path"`

	State DownloadState `json:"state"`
	// SkipReason is set when State is DownloadSkipped.
	SkipReason string `json:"skip-reason,omitempty"`
	// Errors holds the error messages captured for a failed item,
	// outermost first.
	Errors []string `json:"errors,omitempty"`
}

// DownloadBatchReport is the aggregate outcome of one batch invocation.
// It is immutable once returned.
type DownloadBatchReport struct {
	Downloaded []ExerciseDownload `json:"downloaded"`
	Skipped    []ExerciseDownload `json:"skipped"`
	Failed     []ExerciseDownload `json:"failed"`
}

// Len returns the total number of items in the report.
func (r DownloadBatchReport) Len() int {
	return len(r.Downloaded) + len(r.Skipped) + len(r.Failed)
}
