package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/b2bnest/b2bnest-api/internal/logging"
	"github.com/b2bnest/b2bnest-api/internal/scraping/domain"
)

type Provider interface {
	Scrape(ctx context.Context, req domain.ScrapeRequest) (*domain.ScrapeResult, error)
	StartCrawl(ctx context.Context, url string, limit int) (*domain.CrawlJob, error)
	CrawlStatus(ctx context.Context, id string) (*domain.CrawlStatus, error)
}

type Cache interface {
	Get(ctx context.Context, req domain.ScrapeRequest) (*domain.ScrapeResult, error)
	Set(ctx context.Context, req domain.ScrapeRequest, res *domain.ScrapeResult) error
}

type ScrapeService struct {
	provider   Provider
	cache      Cache
	crawlLimit int
}

// NewScrapeService wires the provider and an optional cache. crawlLimit caps the pages
// a single crawl may request.
func NewScrapeService(provider Provider, cache Cache, crawlLimit int) *ScrapeService {
	if crawlLimit <= 0 {
		crawlLimit = 25
	}
	return &ScrapeService{provider: provider, cache: cache, crawlLimit: crawlLimit}
}

// Scrape returns a cached result when one exists, otherwise scrapes and caches.
// Cache failures are logged and never fail the call.
func (s *ScrapeService) Scrape(ctx context.Context, req domain.ScrapeRequest) (*domain.ScrapeResult, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	log := logging.NewLogger(ctx)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, req)
		if err != nil {
			log.LogWarn("scraping.cache_get", err.Error(), zap.String("url", req.URL))
		} else if cached != nil {
			cached.Cached = true
			return cached, nil
		}
	}

	res, err := s.provider.Scrape(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, req, res); err != nil {
			log.LogWarn("scraping.cache_set", err.Error(), zap.String("url", req.URL))
		}
	}
	return res, nil
}

func (s *ScrapeService) StartCrawl(ctx context.Context, req domain.CrawlRequest) (*domain.CrawlJob, error) {
	u, err := domain.ValidateURL(req.URL)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 || limit > s.crawlLimit {
		limit = s.crawlLimit
	}
	return s.provider.StartCrawl(ctx, u, limit)
}

func (s *ScrapeService) CrawlStatus(ctx context.Context, id string) (*domain.CrawlStatus, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "/?#") {
		return nil, domain.ErrCrawlNotFound
	}
	return s.provider.CrawlStatus(ctx, id)
}
