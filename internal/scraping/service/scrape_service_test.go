package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b2bnest/b2bnest-api/internal/scraping/domain"
)

type fakeProvider struct {
	scrapes    int
	crawlLimit int
	err        error
}

func (f *fakeProvider) Scrape(_ context.Context, req domain.ScrapeRequest) (*domain.ScrapeResult, error) {
	f.scrapes++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ScrapeResult{URL: req.URL, Markdown: "# page"}, nil
}

func (f *fakeProvider) StartCrawl(_ context.Context, url string, limit int) (*domain.CrawlJob, error) {
	f.crawlLimit = limit
	return &domain.CrawlJob{ID: "job-1", URL: url}, nil
}

func (f *fakeProvider) CrawlStatus(_ context.Context, id string) (*domain.CrawlStatus, error) {
	return &domain.CrawlStatus{ID: id, Status: "completed"}, nil
}

type mapCache struct {
	m      map[string]domain.ScrapeResult
	getErr error
}

func (c *mapCache) Get(_ context.Context, req domain.ScrapeRequest) (*domain.ScrapeResult, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	if r, ok := c.m[req.URL]; ok {
		return &r, nil
	}
	return nil, nil
}

func (c *mapCache) Set(_ context.Context, req domain.ScrapeRequest, res *domain.ScrapeResult) error {
	c.m[req.URL] = *res
	return nil
}

func TestScrape_CachesResult(t *testing.T) {
	p := &fakeProvider{}
	s := NewScrapeService(p, &mapCache{m: map[string]domain.ScrapeResult{}}, 10)

	first, err := s.Scrape(context.Background(), domain.ScrapeRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := s.Scrape(context.Background(), domain.ScrapeRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, p.scrapes)
}

func TestScrape_CacheErrorFallsThrough(t *testing.T) {
	p := &fakeProvider{}
	s := NewScrapeService(p, &mapCache{m: map[string]domain.ScrapeResult{}, getErr: errors.New("redis down")}, 10)

	res, err := s.Scrape(context.Background(), domain.ScrapeRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "# page", res.Markdown)
	assert.Equal(t, 1, p.scrapes)
}

func TestScrape_Validation(t *testing.T) {
	p := &fakeProvider{}
	s := NewScrapeService(p, nil, 10)

	for _, u := range []string{"", "example.com", "ftp://example.com/file", "/relative", "https://"} {
		_, err := s.Scrape(context.Background(), domain.ScrapeRequest{URL: u})
		assert.ErrorIs(t, err, domain.ErrInvalidURL, u)
	}

	_, err := s.Scrape(context.Background(), domain.ScrapeRequest{URL: "https://example.com", Formats: []string{"pdf"}})
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
	assert.Zero(t, p.scrapes)
}

func TestStartCrawl_ClampsLimit(t *testing.T) {
	p := &fakeProvider{}
	s := NewScrapeService(p, nil, 25)

	job, err := s.StartCrawl(context.Background(), domain.CrawlRequest{URL: "https://example.com", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, 25, p.crawlLimit)

	_, err = s.StartCrawl(context.Background(), domain.CrawlRequest{URL: "mailto:a@b.c"})
	assert.ErrorIs(t, err, domain.ErrInvalidURL)
}

func TestCrawlStatus_RejectsPathyIDs(t *testing.T) {
	s := NewScrapeService(&fakeProvider{}, nil, 25)

	_, err := s.CrawlStatus(context.Background(), "../admin")
	assert.ErrorIs(t, err, domain.ErrCrawlNotFound)

	st, err := s.CrawlStatus(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", st.Status)
}
