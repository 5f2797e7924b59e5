package scrape

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/resilience"
	"github.com/sells-group/lead-finder/pkg/jina"
)

// challengeSignatures mark reader output that is a bot wall, not the page.
var challengeSignatures = []string{
	"checking your browser",
	"enable javascript",
	"please enable cookies",
	"access denied",
	"403 forbidden",
	"just a moment",
	"attention required",
}

// JinaScraper wraps the Jina Reader as a Scraper. Three consecutive
// failures open its breaker for a minute so the chain skips straight to
// the next scraper.
type JinaScraper struct {
	client  jina.Client
	breaker *resilience.Breaker
}

// NewJinaScraper creates a JinaScraper from a Jina client.
func NewJinaScraper(client jina.Client) *JinaScraper {
	return &JinaScraper{
		client:  client,
		breaker: resilience.NewBreaker("jina", 3, time.Minute),
	}
}

func (j *JinaScraper) Name() string { return "jina" }

// Supports returns true unless the breaker is open.
func (j *JinaScraper) Supports(_ string) bool {
	return j.breaker.State() != resilience.StateOpen
}

// Scrape fetches a URL via Jina Reader and validates the response.
func (j *JinaScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	resp, err := resilience.Guard(ctx, j.breaker, func(ctx context.Context) (*jina.ReadResponse, error) {
		resp, err := j.client.Read(ctx, targetURL, jina.FormatMarkdown)
		if err != nil {
			return nil, err
		}
		if needsFallback(resp) {
			return nil, eris.New("jina: response needs fallback")
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	page := model.Page{
		URL:        resp.Data.URL,
		Title:      resp.Data.Title,
		Markdown:   resp.Data.Content,
		StatusCode: resp.Code,
	}
	if page.URL == "" {
		page.URL = targetURL
	}
	if len(resp.Data.Links) > 0 {
		page.Links = slices.Compact(slices.Sorted(maps.Values(resp.Data.Links)))
	}
	return &Result{Page: page, Source: "jina"}, nil
}

// needsFallback reports whether a reader response is unusable: an error
// code, a near-empty body or a short challenge page.
func needsFallback(resp *jina.ReadResponse) bool {
	if resp == nil {
		return true
	}
	if resp.Code != 0 && resp.Code != 200 {
		return true
	}

	content := strings.TrimSpace(resp.Data.Content)
	if len(content) < 100 {
		return true
	}
	if len(content) >= 1000 {
		return false
	}

	lower := strings.ToLower(content)
	for _, sig := range challengeSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}
