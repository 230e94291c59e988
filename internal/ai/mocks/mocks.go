package mocks

import (
	"context"
	"time"

	"storytelling-server/internal/ai"

	"github.com/stretchr/testify/mock"
)

// TextClient mocks ai.TextClient.
type TextClient struct {
	mock.Mock
}

func (m *TextClient) GenerateText(ctx context.Context, systemPrompt, userPrompt string, params ai.GenerationParams) (string, ai.UsageInfo, error) {
	args := m.Called(ctx, systemPrompt, userPrompt, params)
	usage, _ := args.Get(1).(ai.UsageInfo)
	return args.String(0), usage, args.Error(2)
}
func (m *TextClient) Configured() bool {
	return m.Called().Bool(0)
}
func (m *TextClient) Model() string {
	return m.Called().String(0)
}
func (m *TextClient) Vendor() string {
	return m.Called().String(0)
}

// Cache mocks ai.Cache.
type Cache struct {
	mock.Mock
}

func (m *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}
func (m *Cache) Put(ctx context.Context, key, content string, ttl time.Duration) error {
	args := m.Called(ctx, key, content, ttl)
	return args.Error(0)
}

// StoryGenerator mocks ai.StoryGenerator.
type StoryGenerator struct {
	mock.Mock
}

func (m *StoryGenerator) GenerateStory(ctx context.Context, req ai.StoryRequest) (*ai.StoryResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*ai.StoryResult)
	return res, args.Error(1)
}
func (m *StoryGenerator) GenerateChoices(ctx context.Context, req ai.ChoicesRequest) (*ai.ChoicesResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*ai.ChoicesResult)
	return res, args.Error(1)
}
func (m *StoryGenerator) IsAvailable() bool {
	return m.Called().Bool(0)
}
func (m *StoryGenerator) ProviderName() string {
	return m.Called().String(0)
}

var (
	_ ai.TextClient     = (*TextClient)(nil)
	_ ai.Cache          = (*Cache)(nil)
	_ ai.StoryGenerator = (*StoryGenerator)(nil)
)
