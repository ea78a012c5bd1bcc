package domain

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

var (
	ErrInvalidURL     = errors.New("url must be an absolute http or https url")
	ErrInvalidFormat  = errors.New("unsupported scrape format")
	ErrNotConfigured  = errors.New("scraping api key not configured")
	ErrCrawlNotFound  = errors.New("crawl job not found")
	ErrUpstreamFailed = errors.New("scraping provider request failed")
)

// Supported output formats.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatRawHTML  = "rawHtml"
	FormatLinks    = "links"
)

var validFormats = map[string]bool{
	FormatMarkdown: true,
	FormatHTML:     true,
	FormatRawHTML:  true,
	FormatLinks:    true,
}

type ScrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats,omitempty"`
	OnlyMainContent *bool    `json:"onlyMainContent,omitempty"`
}

// Normalize validates the request and fills defaults: markdown only, main content only.
func (r *ScrapeRequest) Normalize() error {
	u, err := ValidateURL(r.URL)
	if err != nil {
		return err
	}
	r.URL = u

	if len(r.Formats) == 0 {
		r.Formats = []string{FormatMarkdown}
	}
	seen := make(map[string]bool, len(r.Formats))
	formats := r.Formats[:0]
	for _, f := range r.Formats {
		f = strings.TrimSpace(f)
		if !validFormats[f] {
			return ErrInvalidFormat
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	r.Formats = formats

	if r.OnlyMainContent == nil {
		v := true
		r.OnlyMainContent = &v
	}
	return nil
}

type ScrapeResult struct {
	URL       string         `json:"url"`
	Markdown  string         `json:"markdown,omitempty"`
	HTML      string         `json:"html,omitempty"`
	RawHTML   string         `json:"rawHtml,omitempty"`
	Links     []string       `json:"links,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Cached    bool           `json:"cached"`
	ScrapedAt time.Time      `json:"scrapedAt"`
}

type CrawlRequest struct {
	URL   string `json:"url"`
	Limit int    `json:"limit,omitempty"`
}

type CrawlJob struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type CrawlPage struct {
	URL      string         `json:"url"`
	Markdown string         `json:"markdown,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type CrawlStatus struct {
	ID          string      `json:"id"`
	Status      string      `json:"status"`
	Total       int         `json:"total"`
	Completed   int         `json:"completed"`
	CreditsUsed int         `json:"creditsUsed"`
	ExpiresAt   string      `json:"expiresAt,omitempty"`
	Pages       []CrawlPage `json:"pages"`
}

// ValidateURL accepts only absolute http(s) URLs with a host.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", ErrInvalidURL
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", ErrInvalidURL
	}
	return u.String(), nil
}
