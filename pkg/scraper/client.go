package scraper

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

	"github.com/exosmium/rtu-nodarbibas-api-sub000/pkg/metrics"
)

// DefaultBaseURL is the public RTU timetable site.
const DefaultBaseURL = "https://nodarbibas.rtu.lv"

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "nodarbibas/1.0 (+https://github.com/exosmium/rtu-nodarbibas-api)"

// ErrInvalidParameter is returned before any request is made when a numeric
// parameter is out of range.
var ErrInvalidParameter = errors.New("invalid parameter")

// StatusError reports a non-200 response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d when fetching %s", e.StatusCode, e.URL)
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client handles HTTP requests to the RTU timetable website
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	metrics    metrics.Recorder
}

// NewClient creates a new scraper client. Zero config fields fall back to
// the public site, a 10 second timeout and DefaultUserAgent.
func NewClient(cfg Config, rec metrics.Recorder) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if rec == nil {
		rec = metrics.NopRecorder{}
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		metrics:   rec,
	}
}

// BaseURL returns the site root requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// Get fetches path with the given query and returns the body of a 200 response.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req, endpointName(path))
}

// PostForm posts form to endpoint and returns the body of a 200 response.
func (c *Client) PostForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	u := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	return c.do(req, endpointName(endpoint))
}

// postJSON posts form to endpoint and decodes the JSON response into out.
func (c *Client) postJSON(ctx context.Context, endpoint string, form url.Values, out any) error {
	body, err := c.PostForm(ctx, endpoint, form)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) do(req *http.Request, endpoint string) (body []byte, err error) {
	start := time.Now()
	defer func() {
		c.metrics.UpstreamRequest(endpoint, err, time.Since(start))
	}()

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: req.URL.String()}
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", req.URL, err)
	}
	return body, nil
}

func endpointName(path string) string {
	name := strings.Trim(path, "/")
	if name == "" {
		return "index"
	}
	return name
}
