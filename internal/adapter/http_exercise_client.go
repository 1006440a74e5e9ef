package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

// HTTPExerciseClient talks to the grading server over its JSON API.
type HTTPExerciseClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// HTTPClientOption configures an HTTPExerciseClient.
type HTTPClientOption func(*HTTPExerciseClient)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(client *http.Client) HTTPClientOption {
	return func(c *HTTPExerciseClient) {
		c.client = client
	}
}

// NewHTTPExerciseClient constructs a client for the server at baseURL,
// authenticating every request with the given bearer token.
func NewHTTPExerciseClient(baseURL, token string, options ...HTTPClientOption) *HTTPExerciseClient {
	client := &HTTPExerciseClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: defaultRequestTimeout},
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// FetchExerciseArchive downloads the exercise template archive. The
// server reports the archive checksum in the X-Exercise-Checksum
// header.
func (c *HTTPExerciseClient) FetchExerciseArchive(ctx context.Context, ref ExerciseRef) (ExerciseArchive, error) {
	resp, err := c.get(ctx, c.exerciseURL(ref)+"/download")
	if err != nil {
		return ExerciseArchive{}, err
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ExerciseArchive{}, c.statusError(resp, ref)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return ExerciseArchive{}, fmt.Errorf("reading archive for %s/%s: %w", ref.CourseSlug, ref.ExerciseSlug, err)
	}

	return ExerciseArchive{
		Bytes:    content,
		Checksum: resp.Header.Get("X-Exercise-Checksum"),
	}, nil
}

// FetchExerciseChecksum returns the server-side checksum without
// downloading the archive.
func (c *HTTPExerciseClient) FetchExerciseChecksum(ctx context.Context, ref ExerciseRef) (string, error) {
	resp, err := c.get(ctx, c.exerciseURL(ref))
	if err != nil {
		return "", err
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp, ref)
	}

	var payload struct {
		Checksum string `json:"checksum"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding checksum for %s/%s: %w", ref.CourseSlug, ref.ExerciseSlug, err)
	}

	return payload.Checksum, nil
}

// SubmitExercise uploads a packaged exercise archive and returns the
// server-assigned submission id.
func (c *HTTPExerciseClient) SubmitExercise(ctx context.Context, ref ExerciseRef, archive []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.exerciseURL(ref)+"/submissions", bytes.NewReader(archive))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/zip")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", c.statusError(resp, ref)
	}

	var payload struct {
		SubmissionID string `json:"submission_id"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding submission response for %s/%s: %w", ref.CourseSlug, ref.ExerciseSlug, err)
	}

	return payload.SubmissionID, nil
}

func (c *HTTPExerciseClient) exerciseURL(ref ExerciseRef) string {
	return fmt.Sprintf("%s/api/courses/%s/exercises/%s",
		c.baseURL, url.PathEscape(ref.CourseSlug), url.PathEscape(ref.ExerciseSlug))
}

func (c *HTTPExerciseClient) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	c.authorize(req)

	return c.client.Do(req)
}

func (c *HTTPExerciseClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *HTTPExerciseClient) statusError(resp *http.Response, ref ExerciseRef) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	return fmt.Errorf("server returned %s for %s/%s: %s",
		resp.Status, ref.CourseSlug, ref.ExerciseSlug, bytes.TrimSpace(body))
}
