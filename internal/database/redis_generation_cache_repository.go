package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"storytelling-server/internal/interfaces"
	"storytelling-server/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ interfaces.GenerationCacheRepository = (*redisGenerationCacheRepository)(nil)

const (
	redisCacheEntryPrefix = "gencache:entry:"
	redisCacheIndexKey    = "gencache:keys"
)

// Entry hashes hold content, created_at, expires_at, last_accessed_at (unix ms) and hit_count.
var redisHitScript = redis.NewScript(`
local exp = redis.call('HGET', KEYS[1], 'expires_at')
if not exp then
  return false
end
if exp ~= '' and tonumber(exp) < tonumber(ARGV[1]) then
  return false
end
redis.call('HINCRBY', KEYS[1], 'hit_count', 1)
redis.call('HSET', KEYS[1], 'last_accessed_at', ARGV[1])
return redis.call('HGETALL', KEYS[1])
`)

// A hash already evicted by its TTL still has an index member; removing that
// member counts as deleting an expired entry.
var redisDeleteIfExpiredScript = redis.NewScript(`
local exp = redis.call('HGET', KEYS[1], 'expires_at')
if not exp then
  return redis.call('SREM', KEYS[2], ARGV[2])
end
if exp ~= '' and tonumber(exp) < tonumber(ARGV[1]) then
  redis.call('DEL', KEYS[1])
  redis.call('SREM', KEYS[2], ARGV[2])
  return 1
end
return 0
`)

type redisGenerationCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisGenerationCacheRepository stores generation results as Redis hashes
// indexed by a set of keys.
func NewRedisGenerationCacheRepository(client *redis.Client, logger *zap.Logger) interfaces.GenerationCacheRepository {
	return &redisGenerationCacheRepository{
		client: client,
		logger: logger.Named("RedisGenerationCacheRepo"),
	}
}

func entryKey(key string) string {
	return redisCacheEntryPrefix + key
}

func (r *redisGenerationCacheRepository) Hit(ctx context.Context, key string, now time.Time) (*models.CacheEntry, error) {
	fields, err := redisHitScript.Run(ctx, r.client, []string{entryKey(key)}, now.UnixMilli()).StringSlice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to record cache hit", zap.String("cacheKey", key), zap.Error(err))
		return nil, fmt.Errorf("redis cache hit: %w", err)
	}
	return parseRedisEntry(key, fields)
}

func (r *redisGenerationCacheRepository) DeleteIfExpired(ctx context.Context, key string, now time.Time) (bool, error) {
	n, err := redisDeleteIfExpiredScript.Run(ctx, r.client,
		[]string{entryKey(key), redisCacheIndexKey}, now.UnixMilli(), key).Int()
	if err != nil {
		return false, fmt.Errorf("redis delete expired entry: %w", err)
	}
	return n == 1, nil
}

func (r *redisGenerationCacheRepository) Upsert(ctx context.Context, key, content string, expiresAt, now time.Time) error {
	k := entryKey(key)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, k, "created_at", now.UnixMilli())
		pipe.HSetNX(ctx, k, "hit_count", 0)
		pipe.HSet(ctx, k,
			"content", content,
			"expires_at", expiresAt.UnixMilli(),
			"last_accessed_at", now.UnixMilli(),
		)
		pipe.PExpireAt(ctx, k, expiresAt)
		pipe.SAdd(ctx, redisCacheIndexKey, key)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to upsert cache entry", zap.String("cacheKey", key), zap.Error(err))
		return fmt.Errorf("redis upsert cache entry: %w", err)
	}
	return nil
}

func (r *redisGenerationCacheRepository) Delete(ctx context.Context, key string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, entryKey(key))
		pipe.SRem(ctx, redisCacheIndexKey, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete cache entry: %w", err)
	}
	return nil
}

// DeleteExpired removes expired entries. Entries Redis already evicted through
// their TTL are dropped from the index and counted as well.
func (r *redisGenerationCacheRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	keys, err := r.client.SMembers(ctx, redisCacheIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis list cache keys: %w", err)
	}

	var removed int64
	for _, key := range keys {
		exp, err := r.client.HGet(ctx, entryKey(key), "expires_at").Result()
		if errors.Is(err, redis.Nil) {
			if err := r.client.SRem(ctx, redisCacheIndexKey, key).Err(); err != nil {
				return removed, fmt.Errorf("redis prune cache index: %w", err)
			}
			removed++
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("redis read cache entry: %w", err)
		}
		if ms, convErr := strconv.ParseInt(exp, 10, 64); convErr == nil && ms < now.UnixMilli() {
			if err := r.Delete(ctx, key); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

func (r *redisGenerationCacheRepository) DeleteAll(ctx context.Context) (int64, error) {
	keys, err := r.client.SMembers(ctx, redisCacheIndexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis list cache keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	entryKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		entryKeys = append(entryKeys, entryKey(key))
	}
	var deleted *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, entryKeys...)
		pipe.Del(ctx, redisCacheIndexKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis delete all cache entries: %w", err)
	}
	r.logger.Warn("Cleared all cache entries", zap.Int64("deleted", deleted.Val()))
	return deleted.Val(), nil
}

func (r *redisGenerationCacheRepository) Totals(ctx context.Context) (int64, int64, error) {
	keys, err := r.client.SMembers(ctx, redisCacheIndexKey).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis list cache keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, 0, nil
	}

	cmds := make([]*redis.StringCmd, 0, len(keys))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			cmds = append(cmds, pipe.HGet(ctx, entryKey(key), "hit_count"))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, fmt.Errorf("redis read hit counts: %w", err)
	}

	var entries, hits int64
	for _, cmd := range cmds {
		n, err := cmd.Int64()
		if err != nil {
			// evicted by TTL since the index was read
			continue
		}
		entries++
		hits += n
	}
	return entries, hits, nil
}

func parseRedisEntry(key string, fields []string) (*models.CacheEntry, error) {
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("redis cache entry %q: malformed hash", key)
	}
	entry := &models.CacheEntry{Key: key}
	for i := 0; i < len(fields); i += 2 {
		name, value := fields[i], fields[i+1]
		switch name {
		case "content":
			entry.Content = value
		case "hit_count":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("redis cache entry %q: hit_count: %w", key, err)
			}
			entry.HitCount = n
		case "created_at":
			if t, ok := parseUnixMilli(value); ok {
				entry.CreatedAt = t
			}
		case "expires_at":
			if t, ok := parseUnixMilli(value); ok {
				entry.ExpiresAt = &t
			}
		case "last_accessed_at":
			if t, ok := parseUnixMilli(value); ok {
				entry.LastAccessedAt = &t
			}
		}
	}
	return entry, nil
}

func parseUnixMilli(value string) (time.Time, bool) {
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}
