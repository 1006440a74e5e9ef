package adapter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPExerciseClient(t *testing.T) {
	ref := ExerciseRef{ID: 7, CourseSlug: "algo-2026", ExerciseSlug: "part01-ex02"}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/api/courses/algo-2026/exercises/part01-ex02":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"checksum": "abc123"}`))
		case "/api/courses/algo-2026/exercises/part01-ex02/download":
			w.Header().Set("X-Exercise-Checksum", "abc123")
			_, _ = w.Write([]byte("zip-bytes"))
		case "/api/courses/algo-2026/exercises/part01-ex02/submissions":
			assert.Equal(t, http.MethodPost, r.Method)
			body, _ := io.ReadAll(r.Body)
			assert.Equal(t, "submission-zip", string(body))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"submission_id": "sub-42"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewHTTPExerciseClient(server.URL, "secret-token")

	t.Run("fetch checksum", func(t *testing.T) {
		checksum, err := client.FetchExerciseChecksum(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, "abc123", checksum)
	})

	t.Run("fetch archive", func(t *testing.T) {
		archive, err := client.FetchExerciseArchive(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, "zip-bytes", string(archive.Bytes))
		assert.Equal(t, "abc123", archive.Checksum)
	})

	t.Run("submit exercise", func(t *testing.T) {
		submissionID, err := client.SubmitExercise(context.Background(), ref, []byte("submission-zip"))
		require.NoError(t, err)
		assert.Equal(t, "sub-42", submissionID)
	})

	t.Run("unknown exercise surfaces status", func(t *testing.T) {
		missing := ExerciseRef{CourseSlug: "algo-2026", ExerciseSlug: "does-not-exist"}

		_, err := client.FetchExerciseChecksum(context.Background(), missing)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})
}
