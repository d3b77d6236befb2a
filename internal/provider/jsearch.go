package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/jobradar/search-service/internal/domain"
	pkglog "github.com/jobradar/search-service/pkg/log"
)

const (
	searchPath  = "/jsearch/search"
	detailsPath = "/jsearch/job-details"
	salaryPath  = "/jsearch/estimated-salary"
)

// Config holds JSearch client settings.
type Config struct {
	APIKey         string        `mapstructure:"api_key"`
	APIHost        string        `mapstructure:"api_host"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	RateLimitDelay time.Duration `mapstructure:"rate_limit_delay"`
}

// JSearchClient talks to the OpenWeb Ninja JSearch API. It enforces a minimum
// interval between requests and retries transient failures with exponential
// backoff (longer waits when the API answers 429).
type JSearchClient struct {
	cfg     Config
	client  *http.Client
	baseURL string

	mu       sync.Mutex
	lastCall time.Time
}

// NewJSearchClient constructs a client with a shared HTTP client.
func NewJSearchClient(cfg Config) *JSearchClient {
	if cfg.APIHost == "" {
		cfg.APIHost = "api.openwebninja.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	return &JSearchClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: "https://" + cfg.APIHost,
	}
}

// apiResponse mirrors the top-level JSearch envelope.
type apiResponse struct {
	Status string            `json:"status"`
	Data   []json.RawMessage `json:"data"`
}

// SearchJobs fetches raw job records for the given query specification.
func (c *JSearchClient) SearchJobs(ctx context.Context, req domain.SearchRequest) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("query", req.Query)
	params.Set("country", req.Country)
	params.Set("date_posted", req.DatePosted)
	params.Set("num_pages", strconv.Itoa(req.NumPages))
	if req.RemoteOnly {
		params.Set("work_from_home", "true")
	}
	if req.EmploymentTypes != "" {
		params.Set("employment_types", req.EmploymentTypes)
	}

	return c.get(ctx, searchPath, params)
}

// JobDetails fetches the raw record(s) for a single job posting.
func (c *JSearchClient) JobDetails(ctx context.Context, jobID, country string) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("job_id", jobID)
	if country != "" {
		params.Set("country", country)
	}

	return c.get(ctx, detailsPath, params)
}

// EstimatedSalary fetches raw salary observations for a job title.
func (c *JSearchClient) EstimatedSalary(ctx context.Context, jobTitle, location, experience string) ([]json.RawMessage, error) {
	params := url.Values{}
	params.Set("job_title", jobTitle)
	if location != "" {
		params.Set("location", location)
	}
	if experience == "" {
		experience = "ALL"
	}
	params.Set("years_of_experience", experience)

	return c.get(ctx, salaryPath, params)
}

// get performs one API call with rate limiting and retries.
func (c *JSearchClient) get(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	l := pkglog.Ctx(ctx)

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.cfg.RetryDelay << (attempt - 1)
			if perr, ok := lastErr.(*Error); ok && perr.Kind == KindRateLimit {
				// The upstream asked us to slow down; back off twice as far.
				wait *= 2
			}
			l.Warn().Err(lastErr).Dur("wait", wait).Int("attempt", attempt).Msg("retrying provider call")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, newError(KindNetwork, 0, "request cancelled", ctx.Err())
			}
		}

		if err := c.throttle(ctx); err != nil {
			return nil, err
		}

		data, err := c.doRequest(ctx, path, params)
		if err == nil {
			return data, nil
		}

		lastErr = err
		if perr, ok := err.(*Error); ok && perr.Kind == KindAuth {
			// Credentials will not get better on retry.
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *JSearchClient) doRequest(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, newError(KindNetwork, 0, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, newError(KindNetwork, 0, "http get", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(KindNetwork, resp.StatusCode, "read body", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, newError(KindAuth, resp.StatusCode, "invalid or missing API key", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, newError(KindRateLimit, resp.StatusCode, "rate limited by upstream", nil)
	case resp.StatusCode != http.StatusOK:
		return nil, newError(KindNetwork, resp.StatusCode, string(body), nil)
	}

	var api apiResponse
	if err := json.Unmarshal(body, &api); err != nil {
		return nil, newError(KindMalformed, resp.StatusCode, "decode response envelope", err)
	}
	if api.Status != "OK" {
		return nil, newError(KindMalformed, resp.StatusCode, fmt.Sprintf("unexpected api status %q", api.Status), nil)
	}

	return api.Data, nil
}

// throttle enforces the minimum interval between upstream calls.
func (c *JSearchClient) throttle(ctx context.Context) error {
	if c.cfg.RateLimitDelay <= 0 {
		return nil
	}

	c.mu.Lock()
	now := time.Now()
	wait := c.cfg.RateLimitDelay - now.Sub(c.lastCall)
	if wait > 0 {
		// Reserve the next slot; concurrent callers queue behind it.
		c.lastCall = now.Add(wait)
	} else {
		c.lastCall = now
	}
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return newError(KindNetwork, 0, "request cancelled", ctx.Err())
	}
}
