package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/b2bnest/b2bnest-api/config"
	"github.com/b2bnest/b2bnest-api/internal/scraping/domain"
	"github.com/b2bnest/b2bnest-api/internal/upstream"
)

// Client calls the Firecrawl v1 API. Every outbound request waits on a shared token bucket.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg config.FirecrawlConfig) *Client {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: rate.NewLimiter(limit, burst),
	}
}

type scrapeBody struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type document struct {
	Markdown string         `json:"markdown"`
	HTML     string         `json:"html"`
	RawHTML  string         `json:"rawHtml"`
	Links    []string       `json:"links"`
	Metadata map[string]any `json:"metadata"`
}

type scrapeResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Data    document `json:"data"`
}

// Scrape fetches one page. req must already be normalized.
func (c *Client) Scrape(ctx context.Context, req domain.ScrapeRequest) (*domain.ScrapeResult, error) {
	only := true
	if req.OnlyMainContent != nil {
		only = *req.OnlyMainContent
	}

	var out scrapeResponse
	if err := c.do(ctx, http.MethodPost, "/v1/scrape", scrapeBody{URL: req.URL, Formats: req.Formats, OnlyMainContent: only}, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: %s", domain.ErrUpstreamFailed, out.Error)
	}

	return &domain.ScrapeResult{
		URL:       req.URL,
		Markdown:  out.Data.Markdown,
		HTML:      out.Data.HTML,
		RawHTML:   out.Data.RawHTML,
		Links:     out.Data.Links,
		Metadata:  out.Data.Metadata,
		ScrapedAt: time.Now().UTC(),
	}, nil
}

type crawlBody struct {
	URL           string        `json:"url"`
	Limit         int           `json:"limit"`
	ScrapeOptions scrapeOptions `json:"scrapeOptions"`
}

type scrapeOptions struct {
	Formats []string `json:"formats"`
}

type crawlResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	ID      string `json:"id"`
	URL     string `json:"url"`
}

func (c *Client) StartCrawl(ctx context.Context, targetURL string, limit int) (*domain.CrawlJob, error) {
	var out crawlResponse
	body := crawlBody{URL: targetURL, Limit: limit, ScrapeOptions: scrapeOptions{Formats: []string{domain.FormatMarkdown}}}
	if err := c.do(ctx, http.MethodPost, "/v1/crawl", body, &out); err != nil {
		return nil, err
	}
	if !out.Success || out.ID == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrUpstreamFailed, out.Error)
	}
	return &domain.CrawlJob{ID: out.ID, URL: out.URL}, nil
}

type crawlStatusResponse struct {
	Status      string `json:"status"`
	Total       int    `json:"total"`
	Completed   int    `json:"completed"`
	CreditsUsed int    `json:"creditsUsed"`
	ExpiresAt   string `json:"expiresAt"`
	Data        []struct {
		Markdown string         `json:"markdown"`
		Metadata map[string]any `json:"metadata"`
	} `json:"data"`
}

func (c *Client) CrawlStatus(ctx context.Context, id string) (*domain.CrawlStatus, error) {
	var out crawlStatusResponse
	if err := c.do(ctx, http.MethodGet, "/v1/crawl/"+id, nil, &out); err != nil {
		return nil, err
	}

	st := &domain.CrawlStatus{
		ID:          id,
		Status:      out.Status,
		Total:       out.Total,
		Completed:   out.Completed,
		CreditsUsed: out.CreditsUsed,
		ExpiresAt:   out.ExpiresAt,
		Pages:       make([]domain.CrawlPage, 0, len(out.Data)),
	}
	for _, d := range out.Data {
		page := domain.CrawlPage{Markdown: d.Markdown, Metadata: d.Metadata}
		if src, ok := d.Metadata["sourceURL"].(string); ok {
			page.URL = src
		}
		st.Pages = append(st.Pages, page)
	}
	return st, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) (err error) {
	if c.apiKey == "" {
		return domain.ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	defer upstream.Track(upstream.ServiceFirecrawl, time.Now(), &err)

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call firecrawl: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrCrawlNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamFailed, resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
