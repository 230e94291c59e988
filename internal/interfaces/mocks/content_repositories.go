package mocks

import (
	"context"

	"storytelling-server/internal/interfaces"
	"storytelling-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// StoryRepository mocks interfaces.StoryRepository.
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) Create(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}
func (m *StoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}
func (m *StoryRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
func (m *StoryRepository) ListPublic(ctx context.Context, filter models.StoryFilter) ([]models.Story, error) {
	args := m.Called(ctx, filter)
	stories, _ := args.Get(0).([]models.Story)
	return stories, args.Error(1)
}
func (m *StoryRepository) UpdateVisibility(ctx context.Context, id uuid.UUID, isPublic bool) error {
	args := m.Called(ctx, id, isPublic)
	return args.Error(0)
}

// ChapterRepository mocks interfaces.ChapterRepository.
type ChapterRepository struct {
	mock.Mock
}

func (m *ChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	args := m.Called(ctx, chapter)
	return args.Error(0)
}
func (m *ChapterRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error) {
	args := m.Called(ctx, id)
	chapter, _ := args.Get(0).(*models.Chapter)
	return chapter, args.Error(1)
}
func (m *ChapterRepository) GetByStoryAndNumber(ctx context.Context, storyID uuid.UUID, number int) (*models.Chapter, error) {
	args := m.Called(ctx, storyID, number)
	chapter, _ := args.Get(0).(*models.Chapter)
	return chapter, args.Error(1)
}
func (m *ChapterRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Chapter, error) {
	args := m.Called(ctx, storyID)
	chapters, _ := args.Get(0).([]models.Chapter)
	return chapters, args.Error(1)
}
func (m *ChapterRepository) Update(ctx context.Context, chapter *models.Chapter) error {
	args := m.Called(ctx, chapter)
	return args.Error(0)
}
func (m *ChapterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ChoiceRepository mocks interfaces.ChoiceRepository.
type ChoiceRepository struct {
	mock.Mock
}

func (m *ChoiceRepository) Create(ctx context.Context, choice *models.Choice) error {
	args := m.Called(ctx, choice)
	return args.Error(0)
}
func (m *ChoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Choice, error) {
	args := m.Called(ctx, id)
	choice, _ := args.Get(0).(*models.Choice)
	return choice, args.Error(1)
}
func (m *ChoiceRepository) ListByChapter(ctx context.Context, chapterID uuid.UUID) ([]models.Choice, error) {
	args := m.Called(ctx, chapterID)
	choices, _ := args.Get(0).([]models.Choice)
	return choices, args.Error(1)
}
func (m *ChoiceRepository) ListAvailable(ctx context.Context, chapterID, sessionID uuid.UUID) ([]models.Choice, error) {
	args := m.Called(ctx, chapterID, sessionID)
	choices, _ := args.Get(0).([]models.Choice)
	return choices, args.Error(1)
}

var (
	_ interfaces.StoryRepository   = (*StoryRepository)(nil)
	_ interfaces.ChapterRepository = (*ChapterRepository)(nil)
	_ interfaces.ChoiceRepository  = (*ChoiceRepository)(nil)
)
