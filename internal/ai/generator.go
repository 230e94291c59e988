package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const cachedSuffix = " (cached)"

// StoryGenerator produces story chapters and choices from an AI provider.
type StoryGenerator interface {
	GenerateStory(ctx context.Context, req StoryRequest) (*StoryResult, error)
	GenerateChoices(ctx context.Context, req ChoicesRequest) (*ChoicesResult, error)
	IsAvailable() bool
	ProviderName() string
}

// Cache is the subset of the generation cache the generator needs.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, content string, ttl time.Duration) error
}

// GeneratorConfig tunes generation calls.
type GeneratorConfig struct {
	Timeout          time.Duration
	MaxTokens        int
	ChoicesMaxTokens int
	Temperature      float64
	CacheTTL         time.Duration
}

type generator struct {
	client TextClient
	cache  Cache
	cfg    GeneratorConfig
	logger *zap.Logger
}

// NewStoryGenerator wraps client with caching, timeouts and metrics.
// cache may be nil, in which case every request reaches the provider.
func NewStoryGenerator(client TextClient, cache Cache, cfg GeneratorConfig, logger *zap.Logger) StoryGenerator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	if cfg.ChoicesMaxTokens <= 0 {
		cfg.ChoicesMaxTokens = 500
	}
	return &generator{
		client: client,
		cache:  cache,
		cfg:    cfg,
		logger: logger.Named("StoryGenerator"),
	}
}

func (g *generator) IsAvailable() bool {
	return g.client.Configured()
}

func (g *generator) ProviderName() string {
	return displayName(g.client.Vendor(), g.client.Model())
}

func (g *generator) GenerateStory(ctx context.Context, req StoryRequest) (*StoryResult, error) {
	if !g.IsAvailable() {
		return nil, ErrProviderUnavailable
	}
	key := storyCacheKey(g.client.Vendor(), req)
	log := g.logger.With(zap.String("cacheKey", key), zap.Stringer("storyID", req.StoryID))

	if content, ok := g.cacheGet(ctx, log, key); ok {
		log.Debug("Story served from cache")
		return &StoryResult{
			Content:   content,
			WordCount: countWords(content),
			Provider:  g.ProviderName() + cachedSuffix,
			Cached:    true,
		}, nil
	}

	content, err := g.call(ctx, log, buildStoryPrompt(req), g.cfg.MaxTokens)
	if err != nil {
		return nil, err
	}
	g.cachePut(ctx, log, key, content)

	log.Info("Story generated", zap.Int("length", len(content)))
	return &StoryResult{
		Content:   content,
		WordCount: countWords(content),
		Provider:  g.ProviderName(),
	}, nil
}

func (g *generator) GenerateChoices(ctx context.Context, req ChoicesRequest) (*ChoicesResult, error) {
	if !g.IsAvailable() {
		return nil, ErrProviderUnavailable
	}
	n := req.count()
	key := choicesCacheKey(g.client.Vendor(), req)
	log := g.logger.With(zap.String("cacheKey", key), zap.Stringer("chapterID", req.ChapterID))

	if raw, ok := g.cacheGet(ctx, log, key); ok {
		if records := parseChoiceRecords(raw); len(records) > 0 {
			return &ChoicesResult{
				Choices:  normalizeChoices(records, n),
				Provider: g.ProviderName() + cachedSuffix,
				Cached:   true,
			}, nil
		}
		log.Warn("Cached choices are not parsable, regenerating")
	}

	raw, err := g.call(ctx, log, buildChoicesPrompt(req), g.cfg.ChoicesMaxTokens)
	if err != nil {
		return nil, err
	}
	records := parseChoiceRecords(raw)
	if len(records) == 0 {
		aiRequestsTotal.With(prometheus.Labels{"model": g.client.Model(), "status": "error_unparsable"}).Inc()
		log.Warn("Provider response contained no choice records", zap.Int("length", len(raw)))
		return nil, fmt.Errorf("%w: no parsable choices in response", ErrGenerationFailed)
	}
	g.cachePut(ctx, log, key, raw)

	log.Info("Choices generated", zap.Int("parsed", len(records)), zap.Int("requested", n))
	return &ChoicesResult{
		Choices:  normalizeChoices(records, n),
		Provider: g.ProviderName(),
	}, nil
}

// call invokes the provider under the generation timeout and records metrics.
func (g *generator) call(ctx context.Context, log *zap.Logger, userPrompt string, maxTokens int) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	modelName := g.client.Model()
	temperature := g.cfg.Temperature
	params := GenerationParams{Temperature: &temperature, MaxTokens: &maxTokens}

	startTime := time.Now()
	content, usage, err := g.client.GenerateText(callCtx, storytellerSystemPrompt, userPrompt, params)
	duration := time.Since(startTime)

	if err == nil && strings.TrimSpace(content) == "" {
		err = fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}
	if err != nil {
		aiRequestsTotal.With(prometheus.Labels{"model": modelName, "status": "error"}).Inc()
		switch {
		case errors.Is(err, ErrProviderUnavailable):
			return "", err
		case errors.Is(callCtx.Err(), context.DeadlineExceeded):
			log.Warn("AI generation timed out", zap.Duration("timeout", g.cfg.Timeout), zap.Error(err))
			return "", fmt.Errorf("%w: timed out after %v", ErrGenerationFailed, g.cfg.Timeout)
		case errors.Is(err, ErrGenerationFailed):
			log.Error("AI generation failed", zap.Duration("duration", duration), zap.Error(err))
			return "", err
		default:
			log.Error("AI generation failed", zap.Duration("duration", duration), zap.Error(err))
			return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
	}

	usage = fillUsage(usage, storytellerSystemPrompt, userPrompt, content)
	aiRequestsTotal.With(prometheus.Labels{"model": modelName, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": modelName}).Observe(duration.Seconds())
	aiPromptTokens.With(prometheus.Labels{"model": modelName}).Observe(float64(usage.PromptTokens))
	aiCompletionTokens.With(prometheus.Labels{"model": modelName}).Observe(float64(usage.CompletionTokens))
	log.Debug("AI response received",
		zap.Duration("duration", duration),
		zap.Int("promptTokens", usage.PromptTokens),
		zap.Int("completionTokens", usage.CompletionTokens),
	)
	return content, nil
}

func (g *generator) cacheGet(ctx context.Context, log *zap.Logger, key string) (string, bool) {
	if g.cache == nil {
		return "", false
	}
	content, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		log.Warn("Generation cache lookup failed, treating as miss", zap.Error(err))
		return "", false
	}
	return content, ok
}

// cachePut stores a successful result. Abandoned requests write nothing.
func (g *generator) cachePut(ctx context.Context, log *zap.Logger, key, content string) {
	if g.cache == nil || ctx.Err() != nil {
		return
	}
	if err := g.cache.Put(ctx, key, content, g.cfg.CacheTTL); err != nil {
		log.Warn("Failed to store generated content in cache", zap.Error(err))
	}
}

func countWords(content string) int {
	return len(strings.Fields(content))
}
