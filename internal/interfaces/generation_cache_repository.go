package interfaces

import (
	"context"
	"time"

	"storytelling-server/internal/models"
)

// GenerationCacheRepository stores AI generation results by key.
type GenerationCacheRepository interface {
	// Hit atomically increments hit_count and sets last_accessed_at for a
	// non-expired entry. Returns models.ErrNotFound if there is no fresh entry.
	Hit(ctx context.Context, key string, now time.Time) (*models.CacheEntry, error)
	// DeleteIfExpired removes the entry when it expired before now.
	DeleteIfExpired(ctx context.Context, key string, now time.Time) (bool, error)
	// Upsert inserts the entry with hit_count 0 or overwrites content and expiry.
	Upsert(ctx context.Context, key, content string, expiresAt, now time.Time) error
	// Delete removes the entry. A missing key is not an error.
	Delete(ctx context.Context, key string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	// Totals returns the number of entries and the sum of their hit counts.
	Totals(ctx context.Context) (entries int64, hits int64, err error)
}
