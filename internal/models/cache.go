package models

import "time"

// CacheEntry is a stored AI generation result.
type CacheEntry struct {
	Key            string     `json:"key" db:"cache_key"`
	Content        string     `json:"content" db:"content"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty" db:"expires_at"`
	LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty" db:"last_accessed_at"`
	HitCount       int64      `json:"hitCount" db:"hit_count"`
}

// Expired reports whether the entry is past its expiry at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && e.ExpiresAt.Before(now)
}

// CacheStats summarises the generation cache.
type CacheStats struct {
	TotalEntries        int64   `json:"totalEntries"`
	TotalHits           int64   `json:"totalHits"`
	AverageHitsPerEntry float64 `json:"averageHitsPerEntry"`
}

// NewCacheStats computes the average, which is 0 for an empty cache.
func NewCacheStats(totalEntries, totalHits int64) CacheStats {
	stats := CacheStats{TotalEntries: totalEntries, TotalHits: totalHits}
	if totalEntries > 0 {
		stats.AverageHitsPerEntry = float64(totalHits) / float64(totalEntries)
	}
	return stats
}
