// Package shub provides the HTTP client for the cloud job API: paginated
// finished-job listings, job detail, item and log retrieval, plus a
// session helper that tracks the active project and spider.
package shub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/iAnanich/scrapy-ntk/internal/jobs"
)

const (
	// DefaultBaseURL is the default base URL for the job API.
	DefaultBaseURL = "https://storage.scrapinghub.com"
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second
	// DefaultPageSize is the listing page size.
	DefaultPageSize = 100
)

// Client is an HTTP client for the cloud job API. API keys are sent as
// the basic-auth username, the scheme the hosted job storage uses.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API client.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the timeout for API requests.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithPageSize sets the listing page size.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// NewClient creates a new job API client authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		baseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		pageSize: DefaultPageSize,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// APIKey returns the key the client authenticates with.
func (c *Client) APIKey() string {
	return c.apiKey
}

// Spider is one entry of a project's spider listing.
type Spider struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// listResponse is one page of the finished-jobs listing.
type listResponse struct {
	Jobs []jobs.Summary `json:"jobs"`
}

// ListSpiders retrieves the spiders of a project.
func (c *Client) ListSpiders(ctx context.Context, projectID int) ([]Spider, error) {
	endpoint, err := url.JoinPath(c.baseURL, "spiders", strconv.Itoa(projectID), "list")
	if err != nil {
		return nil, fmt.Errorf("failed to construct URL: %w", err)
	}

	var spiders []Spider
	if doErr := c.doRequest(ctx, endpoint, nil, &spiders); doErr != nil {
		return nil, fmt.Errorf("failed to list spiders: %w", doErr)
	}
	return spiders, nil
}

// IterJobSummaries lazily pulls the finished-job listing of a spider,
// newest job first, one page at a time. The sequence is single-pass; a
// request failure ends it with the error.
func (c *Client) IterJobSummaries(ctx context.Context, projectID, spiderID int) iter.Seq2[jobs.Summary, error] {
	return func(yield func(jobs.Summary, error) bool) {
		for start := 0; ; start += c.pageSize {
			page, err := c.listJobs(ctx, projectID, spiderID, start)
			if err != nil {
				yield(jobs.Summary{}, err)
				return
			}
			for _, summary := range page {
				if !yield(summary, nil) {
					return
				}
			}
			if len(page) < c.pageSize {
				return
			}
		}
	}
}

// listJobs fetches one page of the finished-jobs listing.
func (c *Client) listJobs(ctx context.Context, projectID, spiderID, start int) ([]jobs.Summary, error) {
	endpoint, err := url.JoinPath(c.baseURL, "jobq", strconv.Itoa(projectID), "list")
	if err != nil {
		return nil, fmt.Errorf("failed to construct URL: %w", err)
	}

	query := url.Values{}
	query.Set("spider", strconv.Itoa(spiderID))
	query.Set("state", jobs.StateFinished)
	query.Set("start", strconv.Itoa(start))
	query.Set("count", strconv.Itoa(c.pageSize))

	var response listResponse
	if doErr := c.doRequest(ctx, endpoint, query, &response); doErr != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", doErr)
	}
	return response.Jobs, nil
}

// GetJob retrieves the full metadata of one job.
func (c *Client) GetJob(ctx context.Context, key jobs.JobKey) (map[string]any, error) {
	endpoint, err := url.JoinPath(c.baseURL, "jobs", key.String())
	if err != nil {
		return nil, fmt.Errorf("failed to construct URL: %w", err)
	}

	var job map[string]any
	if doErr := c.doRequest(ctx, endpoint, nil, &job); doErr != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", key, doErr)
	}
	return job, nil
}

// IterItems lazily pulls the scraped items of one job.
func (c *Client) IterItems(ctx context.Context, key jobs.JobKey) iter.Seq2[map[string]any, error] {
	return c.iterRecords(ctx, "items", key)
}

// IterLogs lazily pulls the log entries of one job.
func (c *Client) IterLogs(ctx context.Context, key jobs.JobKey) iter.Seq2[map[string]any, error] {
	return c.iterRecords(ctx, "logs", key)
}

// iterRecords pages through a job's record collection (items or logs).
func (c *Client) iterRecords(ctx context.Context, kind string, key jobs.JobKey) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		for start := 0; ; start += c.pageSize {
			endpoint, err := url.JoinPath(c.baseURL, kind, key.String())
			if err != nil {
				yield(nil, fmt.Errorf("failed to construct URL: %w", err))
				return
			}

			query := url.Values{}
			query.Set("start", strconv.Itoa(start))
			query.Set("count", strconv.Itoa(c.pageSize))

			var records []map[string]any
			if doErr := c.doRequest(ctx, endpoint, query, &records); doErr != nil {
				yield(nil, fmt.Errorf("failed to fetch %s of %s: %w", kind, key, doErr))
				return
			}
			for _, record := range records {
				if !yield(record, nil) {
					return
				}
			}
			if len(records) < c.pageSize {
				return
			}
		}
	}
}

// doRequest performs a GET request and decodes the JSON response into out.
func (c *Client) doRequest(ctx context.Context, endpoint string, query url.Values, out any) error {
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	return nil
}
