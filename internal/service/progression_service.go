package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storytelling-server/internal/ai"
	"storytelling-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	unavailableMessage  = "AI service is currently unavailable. Please try again later."
	fallbackProvider    = "None"
	fallbackChoiceLabel = "Continue"
)

// AIStatus reports generator availability together with cache statistics.
type AIStatus struct {
	Available  bool              `json:"available"`
	Provider   string            `json:"provider"`
	CacheStats models.CacheStats `json:"cacheStats"`
}

// ProgressionService is the single entry point used by the HTTP layer for
// gameplay and generation. Session operations are scoped to userID.
type ProgressionService struct {
	sessions  SessionService
	generator ai.StoryGenerator
	cache     GenerationCache
	logger    *zap.Logger
}

// NewProgressionService wires the facade.
func NewProgressionService(sessions SessionService, generator ai.StoryGenerator, cache GenerationCache, logger *zap.Logger) *ProgressionService {
	return &ProgressionService{
		sessions:  sessions,
		generator: generator,
		cache:     cache,
		logger:    logger.Named("ProgressionService"),
	}
}

func (p *ProgressionService) StartSession(ctx context.Context, userID, storyID uuid.UUID) (*models.Session, bool, error) {
	return p.sessions.Start(ctx, userID, storyID)
}

func (p *ProgressionService) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.Session, error) {
	return p.sessions.GetSession(ctx, userID, sessionID)
}

func (p *ProgressionService) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	return p.sessions.ListUserSessions(ctx, userID)
}

func (p *ProgressionService) ChoiceHistory(ctx context.Context, userID, sessionID uuid.UUID) (*models.ChoiceHistory, error) {
	return p.sessions.ListChoiceHistory(ctx, userID, sessionID)
}

func (p *ProgressionService) GetCurrentChapter(ctx context.Context, userID, sessionID uuid.UUID) (*models.ChapterView, error) {
	if _, err := p.sessions.GetSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return p.sessions.GetCurrentChapter(ctx, sessionID)
}

func (p *ProgressionService) ResolveChoice(ctx context.Context, userID, sessionID, choiceID uuid.UUID) (*ResolutionResult, error) {
	if _, err := p.sessions.GetSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return p.sessions.ResolveChoice(ctx, sessionID, choiceID)
}

func (p *ProgressionService) AdvanceSequentially(ctx context.Context, userID, sessionID uuid.UUID) (*models.Chapter, *models.Session, error) {
	if _, err := p.sessions.GetSession(ctx, userID, sessionID); err != nil {
		return nil, nil, err
	}
	return p.sessions.AdvanceSequentially(ctx, sessionID)
}

func (p *ProgressionService) UpdateState(ctx context.Context, userID, sessionID uuid.UUID, chapterNumber int, data json.RawMessage) (*models.Session, error) {
	if _, err := p.sessions.GetSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return p.sessions.UpdateState(ctx, sessionID, chapterNumber, data)
}

// GenerateStory never blocks gameplay on the provider. When the provider is
// unavailable it returns the fallback payload together with
// ai.ErrProviderUnavailable; when generation fails it returns the fallback
// payload and no error. The request's session must belong to userID, since
// cached results are keyed by session.
func (p *ProgressionService) GenerateStory(ctx context.Context, userID uuid.UUID, req ai.StoryRequest) (*ai.StoryResult, error) {
	if _, err := p.sessions.GetSession(ctx, userID, req.SessionID); err != nil {
		return nil, err
	}
	if !p.generator.IsAvailable() {
		return FallbackStory(), ai.ErrProviderUnavailable
	}
	res, err := p.generator.GenerateStory(ctx, req)
	if err != nil {
		if errors.Is(err, ai.ErrProviderUnavailable) {
			return FallbackStory(), err
		}
		p.logger.Warn("Story generation failed, serving fallback",
			zap.Stringer("storyID", req.StoryID), zap.Stringer("sessionID", req.SessionID), zap.Error(err))
		return FallbackStory(), nil
	}
	return res, nil
}

// GenerateChoices follows the same fallback policy as GenerateStory.
func (p *ProgressionService) GenerateChoices(ctx context.Context, userID uuid.UUID, req ai.ChoicesRequest) (*ai.ChoicesResult, error) {
	if _, err := p.sessions.GetSession(ctx, userID, req.SessionID); err != nil {
		return nil, err
	}
	if !p.generator.IsAvailable() {
		return FallbackChoices(), ai.ErrProviderUnavailable
	}
	res, err := p.generator.GenerateChoices(ctx, req)
	if err != nil {
		if errors.Is(err, ai.ErrProviderUnavailable) {
			return FallbackChoices(), err
		}
		p.logger.Warn("Choice generation failed, serving fallback",
			zap.Stringer("chapterID", req.ChapterID), zap.Stringer("sessionID", req.SessionID), zap.Error(err))
		return FallbackChoices(), nil
	}
	return res, nil
}

func (p *ProgressionService) AIStatus(ctx context.Context) (*AIStatus, error) {
	stats, err := p.cache.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &AIStatus{
		Available:  p.generator.IsAvailable(),
		Provider:   p.generator.ProviderName(),
		CacheStats: stats,
	}, nil
}

func (p *ProgressionService) CacheStats(ctx context.Context) (models.CacheStats, error) {
	return p.cache.Stats(ctx)
}

// SweepExpiredCache deletes expired entries and logs the resulting statistics.
func (p *ProgressionService) SweepExpiredCache(ctx context.Context) (int, error) {
	n, err := p.cache.SweepExpired(ctx)
	if err != nil {
		return 0, err
	}
	if stats, err := p.cache.Stats(ctx); err == nil {
		p.logger.Info("Cache stats after sweep",
			zap.Int("deleted", n),
			zap.Int64("totalEntries", stats.TotalEntries),
			zap.Int64("totalHits", stats.TotalHits),
			zap.Float64("averageHitsPerEntry", stats.AverageHitsPerEntry),
		)
	}
	return n, nil
}

func (p *ProgressionService) ClearCache(ctx context.Context) (int, error) {
	n, err := p.cache.ClearAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return n, nil
}

// FallbackStory is served when no generated story is available.
func FallbackStory() *ai.StoryResult {
	return &ai.StoryResult{
		Content:   unavailableMessage,
		WordCount: 0,
		Provider:  fallbackProvider,
		Fallback:  true,
	}
}

// FallbackChoices is served when no generated choices are available.
func FallbackChoices() *ai.ChoicesResult {
	return &ai.ChoicesResult{
		Choices:  []ai.GeneratedChoice{{Text: fallbackChoiceLabel, Consequence: unavailableMessage}},
		Provider: fallbackProvider,
		Fallback: true,
	}
}
