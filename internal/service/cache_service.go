package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storytelling-server/internal/interfaces"
	"storytelling-server/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// DefaultCacheTTL applies when Put is called without a positive ttl.
const DefaultCacheTTL = 7 * 24 * time.Hour

var cacheRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storyengine_cache_requests_total",
		Help: "Generation cache lookups by result.",
	},
	[]string{"result"},
)

// GenerationCache stores AI generation results with lazy expiry.
type GenerationCache interface {
	// Get returns the content for key. Expired entries are deleted and reported as a miss.
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, content string, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
	SweepExpired(ctx context.Context) (int, error)
	Stats(ctx context.Context) (models.CacheStats, error)
	ClearAll(ctx context.Context) (int, error)
}

type generationCacheImpl struct {
	repo       interfaces.GenerationCacheRepository
	defaultTTL time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// NewGenerationCache creates the cache over repo. A non-positive defaultTTL means 7 days.
func NewGenerationCache(repo interfaces.GenerationCacheRepository, defaultTTL time.Duration, logger *zap.Logger) GenerationCache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultCacheTTL
	}
	return &generationCacheImpl{
		repo:       repo,
		defaultTTL: defaultTTL,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.Named("GenerationCache"),
	}
}

func (c *generationCacheImpl) Get(ctx context.Context, key string) (string, bool, error) {
	now := c.now()
	entry, err := c.repo.Hit(ctx, key, now)
	if err == nil {
		cacheRequestsTotal.WithLabelValues("hit").Inc()
		return entry.Content, true, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return "", false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	deleted, err := c.repo.DeleteIfExpired(ctx, key, now)
	if err != nil {
		return "", false, fmt.Errorf("failed to evict expired cache entry: %w", err)
	}
	if deleted {
		cacheRequestsTotal.WithLabelValues("expired").Inc()
		c.logger.Debug("Expired cache entry evicted", zap.String("cacheKey", key))
	} else {
		cacheRequestsTotal.WithLabelValues("miss").Inc()
	}
	return "", false, nil
}

func (c *generationCacheImpl) Put(ctx context.Context, key, content string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	now := c.now()
	if err := c.repo.Upsert(ctx, key, content, now.Add(ttl), now); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	c.logger.Debug("Cache entry stored", zap.String("cacheKey", key), zap.Duration("ttl", ttl))
	return nil
}

func (c *generationCacheImpl) Invalidate(ctx context.Context, key string) error {
	if err := c.repo.Delete(ctx, key); err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to invalidate cache entry: %w", err)
	}
	return nil
}

func (c *generationCacheImpl) SweepExpired(ctx context.Context) (int, error) {
	n, err := c.repo.DeleteExpired(ctx, c.now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired cache entries: %w", err)
	}
	c.logger.Info("Expired cache entries swept", zap.Int64("deleted", n))
	return int(n), nil
}

func (c *generationCacheImpl) Stats(ctx context.Context) (models.CacheStats, error) {
	entries, hits, err := c.repo.Totals(ctx)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("failed to read cache totals: %w", err)
	}
	return models.NewCacheStats(entries, hits), nil
}

func (c *generationCacheImpl) ClearAll(ctx context.Context) (int, error) {
	n, err := c.repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	c.logger.Warn("Generation cache cleared", zap.Int64("deleted", n))
	return int(n), nil
}
