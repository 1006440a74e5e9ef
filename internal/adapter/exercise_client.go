package adapter

import (
	"context"
)

// ExerciseRef identifies an exercise on the grading server.
type ExerciseRef struct {
	ID           uint32
	CourseSlug   string
	ExerciseSlug string
}

// ExerciseArchive is a fetched exercise template archive together with
// the server-side checksum of its contents.
type ExerciseArchive struct {
	Bytes    []byte
	Checksum string
}

// ExerciseClient is the collaborator that talks to the grading server.
// The core treats these as fallible calls with no retry of its own;
// retry and backoff, if desired, are the implementation's concern.
type ExerciseClient interface {
	// FetchExerciseArchive downloads the exercise template archive.
	FetchExerciseArchive(ctx context.Context, ref ExerciseRef) (ExerciseArchive, error)

	// FetchExerciseChecksum returns the server-side checksum of the
	// exercise without downloading the archive.
	FetchExerciseChecksum(ctx context.Context, ref ExerciseRef) (string, error)

	// SubmitExercise uploads a packaged exercise and returns the
	// server-assigned submission id.
	SubmitExercise(ctx context.Context, ref ExerciseRef, archive []byte) (string, error)
}
