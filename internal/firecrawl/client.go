// Package firecrawl wraps the scrape provider's POST /scrape endpoint.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultBaseURL = "https://api.firecrawl.dev/v1"
	// The provider's own render budget; our HTTP client allows a little extra
	// on top for transit.
	scrapeTimeoutMs = 55000
)

var excludedTags = []string{"nav", "footer", "aside", "script", "style"}

// Scraper is what the place lifecycle depends on; *Client is the production
// implementation.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*ScrapeResult, error)
}

type ScrapeResult struct {
	Markdown string
	Metadata map[string]interface{}
}

// CrawlError carries the provider status so the orchestrator can log it and
// persist a truncated summary on the place row.
type CrawlError struct {
	StatusCode int
	Message    string
}

func (e *CrawlError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("scrape provider returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("scrape provider call failed: %s", e.Message)
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent *bool    `json:"onlyMainContent,omitempty"`
	ExcludeTags     []string `json:"excludeTags,omitempty"`
	WaitFor         int      `json:"waitFor,omitempty"`
	Timeout         int      `json:"timeout,omitempty"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string                 `json:"markdown"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"data"`
	Error string `json:"error"`
}

// Scrape fetches a page as markdown. Some provider options are rejected for
// certain targets with a 400/403, so on those (and on transport errors) it
// retries exactly once with a minimal payload before giving up.
func (c *Client) Scrape(ctx context.Context, url string) (*ScrapeResult, error) {
	onlyMain := true
	full := scrapeRequest{
		URL:             url,
		Formats:         []string{"markdown"},
		OnlyMainContent: &onlyMain,
		ExcludeTags:     excludedTags,
		WaitFor:         3000,
		Timeout:         scrapeTimeoutMs,
	}

	result, err := c.doScrape(ctx, full)
	if err == nil {
		return result, nil
	}

	if !shouldFallback(err) {
		return nil, err
	}

	log.Warn().Err(err).Str("url", url).Msg("scrape failed, retrying with minimal payload")
	minimal := scrapeRequest{
		URL:     url,
		Formats: []string{"markdown"},
	}
	return c.doScrape(ctx, minimal)
}

func (c *Client) doScrape(ctx context.Context, payload scrapeRequest) (*ScrapeResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &CrawlError{Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, &CrawlError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &CrawlError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &CrawlError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	var parsed scrapeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &CrawlError{StatusCode: resp.StatusCode, Message: "unparseable provider response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !parsed.Success {
		msg := parsed.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &CrawlError{StatusCode: resp.StatusCode, Message: msg}
	}

	if parsed.Data.Markdown == "" || parsed.Data.Metadata == nil {
		return nil, &CrawlError{StatusCode: resp.StatusCode, Message: "provider response missing markdown or metadata"}
	}

	return &ScrapeResult{
		Markdown: parsed.Data.Markdown,
		Metadata: parsed.Data.Metadata,
	}, nil
}

// shouldFallback: 400/403 mean provider-side option incompatibility for this
// target; status 0 means a transport/timeout error. Both get the one retry.
func shouldFallback(err error) bool {
	ce, ok := err.(*CrawlError)
	if !ok {
		return false
	}
	return ce.StatusCode == 0 || ce.StatusCode == http.StatusBadRequest || ce.StatusCode == http.StatusForbidden
}
