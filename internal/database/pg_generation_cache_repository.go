package database

import (
	"context"
	"fmt"
	"time"

	"storytelling-server/internal/interfaces"
	"storytelling-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"go.uber.org/zap"
)

var _ interfaces.GenerationCacheRepository = (*pgGenerationCacheRepository)(nil)

type pgGenerationCacheRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgGenerationCacheRepository stores generation results in the ai_cache table.
func NewPgGenerationCacheRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.GenerationCacheRepository {
	return &pgGenerationCacheRepository{
		db:     db,
		logger: logger.Named("PgGenerationCacheRepo"),
	}
}

// The hit counter is bumped in the same statement that checks freshness,
// so concurrent hits never lose an increment.
const hitCacheEntryQuery = `
UPDATE ai_cache
SET hit_count = hit_count + 1, last_accessed_at = $2
WHERE cache_key = $1 AND (expires_at IS NULL OR expires_at >= $2)
RETURNING cache_key, content, created_at, expires_at, last_accessed_at, hit_count`

const deleteCacheEntryIfExpiredQuery = `DELETE FROM ai_cache WHERE cache_key = $1 AND expires_at < $2`

const upsertCacheEntryQuery = `
INSERT INTO ai_cache (cache_key, content, created_at, expires_at, last_accessed_at, hit_count)
VALUES ($1, $2, $3, $4, $3, 0)
ON CONFLICT (cache_key) DO UPDATE SET
    content = EXCLUDED.content,
    expires_at = EXCLUDED.expires_at,
    last_accessed_at = EXCLUDED.last_accessed_at`

const deleteCacheEntryQuery = `DELETE FROM ai_cache WHERE cache_key = $1`

const deleteExpiredCacheEntriesQuery = `DELETE FROM ai_cache WHERE expires_at < $1`

const deleteAllCacheEntriesQuery = `DELETE FROM ai_cache`

const cacheTotalsQuery = `SELECT COUNT(*), COALESCE(SUM(hit_count), 0) FROM ai_cache`

func (r *pgGenerationCacheRepository) Hit(ctx context.Context, key string, now time.Time) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	if err := pgxscan.Get(ctx, r.db, &entry, hitCacheEntryQuery, key, now); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to record cache hit", zap.String("cacheKey", key), zap.Error(err))
		return nil, fmt.Errorf("cache hit: %w", err)
	}
	return &entry, nil
}

func (r *pgGenerationCacheRepository) DeleteIfExpired(ctx context.Context, key string, now time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, deleteCacheEntryIfExpiredQuery, key, now)
	if err != nil {
		return false, mapError("delete expired cache entry", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgGenerationCacheRepository) Upsert(ctx context.Context, key, content string, expiresAt, now time.Time) error {
	if _, err := r.db.Exec(ctx, upsertCacheEntryQuery, key, content, now, expiresAt); err != nil {
		r.logger.Error("Failed to upsert cache entry", zap.String("cacheKey", key), zap.Error(err))
		return mapError("upsert cache entry", err)
	}
	return nil
}

func (r *pgGenerationCacheRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.Exec(ctx, deleteCacheEntryQuery, key); err != nil {
		return mapError("delete cache entry", err)
	}
	return nil
}

func (r *pgGenerationCacheRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteExpiredCacheEntriesQuery, now)
	if err != nil {
		return 0, mapError("delete expired cache entries", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgGenerationCacheRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteAllCacheEntriesQuery)
	if err != nil {
		return 0, mapError("delete all cache entries", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgGenerationCacheRepository) Totals(ctx context.Context) (int64, int64, error) {
	var entries, hits int64
	if err := r.db.QueryRow(ctx, cacheTotalsQuery).Scan(&entries, &hits); err != nil {
		return 0, 0, mapError("cache totals", err)
	}
	return entries, hits, nil
}
