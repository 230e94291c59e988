package mocks

import (
	"context"
	"time"

	"storytelling-server/internal/interfaces"
	"storytelling-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// GenerationCacheRepository mocks interfaces.GenerationCacheRepository.
type GenerationCacheRepository struct {
	mock.Mock
}

func (m *GenerationCacheRepository) Hit(ctx context.Context, key string, now time.Time) (*models.CacheEntry, error) {
	args := m.Called(ctx, key, now)
	entry, _ := args.Get(0).(*models.CacheEntry)
	return entry, args.Error(1)
}
func (m *GenerationCacheRepository) DeleteIfExpired(ctx context.Context, key string, now time.Time) (bool, error) {
	args := m.Called(ctx, key, now)
	return args.Bool(0), args.Error(1)
}
func (m *GenerationCacheRepository) Upsert(ctx context.Context, key, content string, expiresAt, now time.Time) error {
	args := m.Called(ctx, key, content, expiresAt, now)
	return args.Error(0)
}
func (m *GenerationCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
func (m *GenerationCacheRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}
func (m *GenerationCacheRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *GenerationCacheRepository) Totals(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

var _ interfaces.GenerationCacheRepository = (*GenerationCacheRepository)(nil)
