// Package jina provides a client for the Jina AI reader and search API.
package jina

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-finder/internal/resilience"
)

// Format selects the body Jina returns for a page.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatText     Format = "text"
)

// Client defines the Jina AI Reader operations.
type Client interface {
	// Read fetches a URL through the reader and returns its content.
	Read(ctx context.Context, targetURL string, format Format) (*ReadResponse, error)
	// Search runs a web search and returns result pages.
	Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error)
}

// ReadResponse is the parsed reader response.
type ReadResponse struct {
	Code int      `json:"code"`
	Data ReadData `json:"data"`
}

// ReadData holds the content of one page.
type ReadData struct {
	Title   string            `json:"title"`
	URL     string            `json:"url"`
	Content string            `json:"content"`
	HTML    string            `json:"html,omitempty"`
	Links   map[string]string `json:"links,omitempty"`
}

// SearchResponse is the parsed search response.
type SearchResponse struct {
	Code int            `json:"code"`
	Data []SearchResult `json:"data"`
}

// SearchResult represents a single search hit.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// SearchOption configures a search request.
type SearchOption func(*searchOpts)

type searchOpts struct {
	site  string
	count int
}

// WithSite restricts results to one domain.
func WithSite(domain string) SearchOption {
	return func(o *searchOpts) { o.site = domain }
}

// WithCount caps the number of results.
func WithCount(n int) SearchOption {
	return func(o *searchOpts) { o.count = n }
}

// Option configures the Jina client.
type Option func(*httpClient)

// WithBaseURL sets a custom reader base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithSearchBaseURL sets a custom search base URL.
func WithSearchBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.searchBaseURL = u
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRetryPolicy overrides the retry policy.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *httpClient) { c.policy = p }
}

// WithRateLimit sets the request rate.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *httpClient) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

type httpClient struct {
	apiKey        string
	baseURL       string
	searchBaseURL string
	http          *http.Client
	policy        resilience.Policy
	limiter       *rate.Limiter
}

// NewClient creates a new Jina client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:        apiKey,
		baseURL:       "https://r.jina.ai",
		searchBaseURL: "https://s.jina.ai",
		http:          &http.Client{Timeout: 30 * time.Second},
		policy:        resilience.DefaultPolicy(),
		limiter:       rate.NewLimiter(rate.Limit(10), 5),
	}
	c.policy.OnRetry = resilience.LogRetries("jina", "request")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends a GET built by newReq, retrying transient failures. It returns
// the body and status of the final response.
func (c *httpClient) do(ctx context.Context, newReq func() (*http.Request, error)) ([]byte, int, error) {
	type result struct {
		body   []byte
		status int
	}
	res, err := resilience.Retry(ctx, c.policy, func(ctx context.Context) (result, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return result{}, eris.Wrap(err, "jina: rate limit wait")
		}
		req, err := newReq()
		if err != nil {
			return result{}, eris.Wrap(err, "jina: create request")
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return result{}, err
		}
		defer resp.Body.Close() //nolint:errcheck

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return result{}, eris.Wrap(err, "jina: read response body")
		}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return result{}, &resilience.StatusError{Service: "jina", StatusCode: resp.StatusCode, Body: string(body)}
		}
		return result{body: body, status: resp.StatusCode}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return res.body, res.status, nil
}

func (c *httpClient) Read(ctx context.Context, targetURL string, format Format) (*ReadResponse, error) {
	if format == "" {
		format = FormatMarkdown
	}
	reqURL := fmt.Sprintf("%s/%s", c.baseURL, targetURL)

	body, status, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)
		req.Header.Set("X-Return-Format", string(format))
		req.Header.Set("X-With-Links-Summary", "true")
		return req, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "jina: read")
	}
	if status != http.StatusOK {
		return nil, eris.Wrap(&resilience.StatusError{Service: "jina", StatusCode: status, Body: string(body)}, "jina: read")
	}

	var out ReadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "jina: unmarshal response")
	}
	if format == FormatHTML && out.Data.HTML == "" {
		out.Data.HTML = out.Data.Content
	}
	return &out, nil
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	so := &searchOpts{}
	for _, opt := range opts {
		opt(so)
	}

	params := url.Values{}
	if so.site != "" {
		params.Set("site", so.site)
	}
	if so.count > 0 {
		params.Set("num", strconv.Itoa(so.count))
	}
	reqURL := fmt.Sprintf("%s/%s", c.searchBaseURL, url.PathEscape(query))
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	body, status, err := c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)
		req.Header.Set("X-Respond-With", "no-content")
		return req, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "jina: search")
	}

	// 422 means the query produced no results.
	if status == http.StatusUnprocessableEntity {
		return &SearchResponse{Code: status}, nil
	}
	if status != http.StatusOK {
		return nil, eris.Wrap(&resilience.StatusError{Service: "jina", StatusCode: status, Body: string(body)}, "jina: search")
	}

	var out SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "jina: unmarshal search response")
	}
	if so.count > 0 && len(out.Data) > so.count {
		out.Data = out.Data[:so.count]
	}
	return &out, nil
}

func (c *httpClient) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
}
