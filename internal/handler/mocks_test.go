package handler

import (
	"context"
	"encoding/json"

	"storytelling-server/internal/ai"
	"storytelling-server/internal/models"
	"storytelling-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockContentService struct{ mock.Mock }

var _ service.ContentService = (*mockContentService)(nil)

func (m *mockContentService) CreateStory(ctx context.Context, ownerID uuid.UUID, input service.CreateStoryInput) (*models.Story, error) {
	args := m.Called(ctx, ownerID, input)
	v, _ := args.Get(0).(*models.Story)
	return v, args.Error(1)
}

func (m *mockContentService) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*models.Story)
	return v, args.Error(1)
}

func (m *mockContentService) ListPublicStories(ctx context.Context, filter models.StoryFilter) ([]models.Story, error) {
	args := m.Called(ctx, filter)
	v, _ := args.Get(0).([]models.Story)
	return v, args.Error(1)
}

func (m *mockContentService) SetStoryVisibility(ctx context.Context, ownerID, storyID uuid.UUID, isPublic bool) (*models.Story, error) {
	args := m.Called(ctx, ownerID, storyID, isPublic)
	v, _ := args.Get(0).(*models.Story)
	return v, args.Error(1)
}

func (m *mockContentService) CreateChapter(ctx context.Context, editor service.Editor, storyID uuid.UUID, input service.CreateChapterInput) (*models.Chapter, error) {
	args := m.Called(ctx, editor, storyID, input)
	v, _ := args.Get(0).(*models.Chapter)
	return v, args.Error(1)
}

func (m *mockContentService) ListChapters(ctx context.Context, storyID uuid.UUID) ([]models.Chapter, error) {
	args := m.Called(ctx, storyID)
	v, _ := args.Get(0).([]models.Chapter)
	return v, args.Error(1)
}

func (m *mockContentService) GetChapter(ctx context.Context, id uuid.UUID) (*models.Chapter, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*models.Chapter)
	return v, args.Error(1)
}

func (m *mockContentService) UpdateChapter(ctx context.Context, editor service.Editor, id uuid.UUID, patch models.ChapterPatch) (*models.Chapter, error) {
	args := m.Called(ctx, editor, id, patch)
	v, _ := args.Get(0).(*models.Chapter)
	return v, args.Error(1)
}

func (m *mockContentService) DeleteChapter(ctx context.Context, editor service.Editor, id uuid.UUID) error {
	return m.Called(ctx, editor, id).Error(0)
}

func (m *mockContentService) CreateChoice(ctx context.Context, editor service.Editor, chapterID uuid.UUID, input service.CreateChoiceInput) (*models.Choice, error) {
	args := m.Called(ctx, editor, chapterID, input)
	v, _ := args.Get(0).(*models.Choice)
	return v, args.Error(1)
}

func (m *mockContentService) ListChoices(ctx context.Context, chapterID uuid.UUID) ([]models.Choice, error) {
	args := m.Called(ctx, chapterID)
	v, _ := args.Get(0).([]models.Choice)
	return v, args.Error(1)
}

type mockGameplayService struct{ mock.Mock }

var _ GameplayService = (*mockGameplayService)(nil)

func (m *mockGameplayService) StartSession(ctx context.Context, userID, storyID uuid.UUID) (*models.Session, bool, error) {
	args := m.Called(ctx, userID, storyID)
	v, _ := args.Get(0).(*models.Session)
	return v, args.Bool(1), args.Error(2)
}

func (m *mockGameplayService) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, userID, sessionID)
	v, _ := args.Get(0).(*models.Session)
	return v, args.Error(1)
}

func (m *mockGameplayService) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	args := m.Called(ctx, userID)
	v, _ := args.Get(0).([]models.Session)
	return v, args.Error(1)
}

func (m *mockGameplayService) ChoiceHistory(ctx context.Context, userID, sessionID uuid.UUID) (*models.ChoiceHistory, error) {
	args := m.Called(ctx, userID, sessionID)
	v, _ := args.Get(0).(*models.ChoiceHistory)
	return v, args.Error(1)
}

func (m *mockGameplayService) GetCurrentChapter(ctx context.Context, userID, sessionID uuid.UUID) (*models.ChapterView, error) {
	args := m.Called(ctx, userID, sessionID)
	v, _ := args.Get(0).(*models.ChapterView)
	return v, args.Error(1)
}

func (m *mockGameplayService) ResolveChoice(ctx context.Context, userID, sessionID, choiceID uuid.UUID) (*service.ResolutionResult, error) {
	args := m.Called(ctx, userID, sessionID, choiceID)
	v, _ := args.Get(0).(*service.ResolutionResult)
	return v, args.Error(1)
}

func (m *mockGameplayService) AdvanceSequentially(ctx context.Context, userID, sessionID uuid.UUID) (*models.Chapter, *models.Session, error) {
	args := m.Called(ctx, userID, sessionID)
	ch, _ := args.Get(0).(*models.Chapter)
	s, _ := args.Get(1).(*models.Session)
	return ch, s, args.Error(2)
}

func (m *mockGameplayService) UpdateState(ctx context.Context, userID, sessionID uuid.UUID, chapterNumber int, data json.RawMessage) (*models.Session, error) {
	args := m.Called(ctx, userID, sessionID, chapterNumber, data)
	v, _ := args.Get(0).(*models.Session)
	return v, args.Error(1)
}

func (m *mockGameplayService) GenerateStory(ctx context.Context, userID uuid.UUID, req ai.StoryRequest) (*ai.StoryResult, error) {
	args := m.Called(ctx, userID, req)
	v, _ := args.Get(0).(*ai.StoryResult)
	return v, args.Error(1)
}

func (m *mockGameplayService) GenerateChoices(ctx context.Context, userID uuid.UUID, req ai.ChoicesRequest) (*ai.ChoicesResult, error) {
	args := m.Called(ctx, userID, req)
	v, _ := args.Get(0).(*ai.ChoicesResult)
	return v, args.Error(1)
}

func (m *mockGameplayService) AIStatus(ctx context.Context) (*service.AIStatus, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).(*service.AIStatus)
	return v, args.Error(1)
}

func (m *mockGameplayService) CacheStats(ctx context.Context) (models.CacheStats, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).(models.CacheStats)
	return v, args.Error(1)
}

func (m *mockGameplayService) SweepExpiredCache(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockGameplayService) ClearCache(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
