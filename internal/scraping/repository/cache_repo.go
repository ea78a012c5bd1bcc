package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/b2bnest/b2bnest-api/internal/scraping/domain"
)

const (
	scrapeKeyPrefix = "b2b:scrape:" // Cached scrape result: b2b:scrape:{sha256 of request}
	defaultTTL      = time.Hour
)

// CacheRepository keeps scrape results in Redis
type CacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheRepository(client *redis.Client, ttl time.Duration) *CacheRepository {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &CacheRepository{client: client, ttl: ttl}
}

// Get returns the cached result for req, or nil when there is none.
func (r *CacheRepository) Get(ctx context.Context, req domain.ScrapeRequest) (*domain.ScrapeResult, error) {
	data, err := r.client.Get(ctx, Key(req)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read scrape cache: %w", err)
	}

	var res domain.ScrapeResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached scrape: %w", err)
	}
	return &res, nil
}

func (r *CacheRepository) Set(ctx context.Context, req domain.ScrapeRequest, res *domain.ScrapeResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal scrape result: %w", err)
	}
	if err := r.client.Set(ctx, Key(req), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write scrape cache: %w", err)
	}
	return nil
}

// Key hashes the fields that change the scrape output.
func Key(req domain.ScrapeRequest) string {
	only := req.OnlyMainContent == nil || *req.OnlyMainContent
	raw := fmt.Sprintf("%s|%s|%t", req.URL, strings.Join(req.Formats, ","), only)
	sum := sha256.Sum256([]byte(raw))
	return scrapeKeyPrefix + hex.EncodeToString(sum[:])
}
