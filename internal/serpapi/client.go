// Package serpapi is a minimal client for the SerpAPI google_jobs engine.
package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://serpapi.com/search"
	EngineJobs     = "google_jobs"

	// MinBurst lets one fan-out pass over every source start at once
	// regardless of the sustained rate.
	MinBurst = 5

	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
	maxErrorBody   = 200
)

var (
	// ErrMissingKey is returned without any network call when no api key is configured.
	ErrMissingKey = errors.New("serpapi: api key not configured")
	// ErrNoResults means the payload carried no jobs_results array.
	ErrNoResults = errors.New("serpapi: response has no jobs_results")
)

// StatusError reports a non-200 upstream response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("serpapi returned %d: %s", e.Code, e.Body)
}

// APIError carries the "error" field SerpAPI embeds in otherwise valid payloads.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return "serpapi: " + e.Message
}

// Client issues google_jobs searches. It is safe for concurrent use; all
// requests share one rate limiter.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// New constructs a client. rps <= 0 disables pacing; otherwise the limiter
// allows bursts of max(rps, MinBurst).
func New(baseURL, apiKey string, timeout time.Duration, rps int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), max(rps, MinBurst))
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

// Result is one decoded search response. Skipped counts jobs_results entries
// that could not be decoded and were left out of Jobs.
type Result struct {
	Jobs    []JobResult
	Skipped int
}

// SearchJobs runs one google_jobs query.
func (c *Client) SearchJobs(ctx context.Context, query, location string) (*Result, error) {
	if c.apiKey == "" {
		return nil, ErrMissingKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("engine", EngineJobs)
	params.Set("q", query)
	params.Set("location", location)
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(strings.TrimSpace(string(body)), maxErrorBody)}
	}

	return decode(body)
}

func decode(body []byte) (*Result, error) {
	var payload struct {
		JobsResults *[]json.RawMessage `json:"jobs_results"`
		Error       string             `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.JobsResults == nil {
		if payload.Error != "" {
			return nil, &APIError{Message: payload.Error}
		}
		return nil, ErrNoResults
	}

	res := &Result{Jobs: make([]JobResult, 0, len(*payload.JobsResults))}
	for _, raw := range *payload.JobsResults {
		var job JobResult
		if err := json.Unmarshal(raw, &job); err != nil {
			res.Skipped++
			continue
		}
		res.Jobs = append(res.Jobs, job)
	}
	return res, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
