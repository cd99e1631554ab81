// Package trigger calls protected job endpoints of a running enggist server, for cron style scheduling.
package trigger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
)

// Job names a runnable job
type Job string

// supported jobs
const (
	JobIngest    Job = "ingest"
	JobSummarize Job = "summarize"
)

var jobPaths = map[Job]string{
	JobIngest:    "/api/ingest/run",
	JobSummarize: "/api/summarize/run",
}

// ParseJob converts a raw job name to Job
func ParseJob(s string) (Job, error) {
	j := Job(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := jobPaths[j]; !ok {
		return "", fmt.Errorf("unknown job %q, expected ingest or summarize", s)
	}
	return j, nil
}

// Client triggers jobs over HTTP with the shared bearer secret. It never retries.
type Client struct {
	baseURL string
	secret  string
	client  *http.Client
}

// NewClient makes trigger client for the server at baseURL
func NewClient(baseURL, secret string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		secret:  secret,
		client:  &http.Client{Timeout: timeout},
	}
}

// Trigger runs the job and returns the raw JSON response body. Non-2xx responses are errors.
func (c *Client) Trigger(ctx context.Context, job Job) ([]byte, error) {
	path, ok := jobPaths[job]
	if !ok {
		return nil, fmt.Errorf("unknown job %q", job)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Accept", "application/json")

	st := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		lgr.Printf("[ERROR] trigger %s failed: %v", job, err)
		return nil, fmt.Errorf("trigger %s: %w", job, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", job, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		lgr.Printf("[ERROR] trigger %s returned status %d: %s", job, resp.StatusCode, strings.TrimSpace(string(body)))
		return body, fmt.Errorf("trigger %s: unexpected status %d", job, resp.StatusCode)
	}

	lgr.Printf("[INFO] trigger %s completed in %v", job, time.Since(st).Round(time.Millisecond))
	return body, nil
}
