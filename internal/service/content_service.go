package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storytelling-server/internal/interfaces"
	"storytelling-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Editor identifies who is changing story content. Admins may edit any story.
type Editor struct {
	UserID uuid.UUID
	Admin  bool
}

// CreateStoryInput holds the fields of a new story.
type CreateStoryInput struct {
	Title       string
	Description string
	Genre       string
	Difficulty  models.Difficulty
	IsPublic    bool
}

// CreateChapterInput holds the fields of a new chapter.
type CreateChapterInput struct {
	ChapterNumber int
	Title         string
	Content       string
	AIGenerated   bool
}

// CreateChoiceInput holds the fields of a new choice definition.
type CreateChoiceInput struct {
	OptionNumber      int
	Text              string
	Consequence       *string
	EmotionalTone     *string
	NextChapterNumber *int
}

// ContentService manages stories, chapters and choice definitions.
type ContentService interface {
	CreateStory(ctx context.Context, ownerID uuid.UUID, input CreateStoryInput) (*models.Story, error)
	GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error)
	ListPublicStories(ctx context.Context, filter models.StoryFilter) ([]models.Story, error)
	SetStoryVisibility(ctx context.Context, ownerID, storyID uuid.UUID, isPublic bool) (*models.Story, error)

	CreateChapter(ctx context.Context, editor Editor, storyID uuid.UUID, input CreateChapterInput) (*models.Chapter, error)
	ListChapters(ctx context.Context, storyID uuid.UUID) ([]models.Chapter, error)
	GetChapter(ctx context.Context, id uuid.UUID) (*models.Chapter, error)
	UpdateChapter(ctx context.Context, editor Editor, id uuid.UUID, patch models.ChapterPatch) (*models.Chapter, error)
	DeleteChapter(ctx context.Context, editor Editor, id uuid.UUID) error

	CreateChoice(ctx context.Context, editor Editor, chapterID uuid.UUID, input CreateChoiceInput) (*models.Choice, error)
	ListChoices(ctx context.Context, chapterID uuid.UUID) ([]models.Choice, error)
}

type contentServiceImpl struct {
	stories  interfaces.StoryRepository
	chapters interfaces.ChapterRepository
	choices  interfaces.ChoiceRepository
	sessions interfaces.SessionRepository
	logger   *zap.Logger
}

// NewContentService creates the content store.
func NewContentService(repos interfaces.Repositories, logger *zap.Logger) ContentService {
	return &contentServiceImpl{
		stories:  repos.Stories,
		chapters: repos.Chapters,
		choices:  repos.Choices,
		sessions: repos.Sessions,
		logger:   logger.Named("ContentService"),
	}
}

func (s *contentServiceImpl) CreateStory(ctx context.Context, ownerID uuid.UUID, input CreateStoryInput) (*models.Story, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrInvalidInput)
	}
	difficulty := input.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}
	if !difficulty.Valid() {
		return nil, fmt.Errorf("%w: unknown difficulty %q", models.ErrInvalidInput, difficulty)
	}

	now := time.Now().UTC()
	story := &models.Story{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: input.Description,
		Genre:       input.Genre,
		Difficulty:  difficulty,
		IsPublic:    input.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.stories.Create(ctx, story); err != nil {
		s.logger.Error("Failed to create story", zap.Stringer("ownerID", ownerID), zap.Error(err))
		return nil, fmt.Errorf("failed to create story: %w", err)
	}
	s.logger.Info("Story created", zap.Stringer("storyID", story.ID), zap.Stringer("ownerID", ownerID))
	return story, nil
}

func (s *contentServiceImpl) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	story, err := s.stories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("failed to get story %s: %w", id, err)
	}
	return story, nil
}

func (s *contentServiceImpl) ListPublicStories(ctx context.Context, filter models.StoryFilter) ([]models.Story, error) {
	filter.Genre = strings.TrimSpace(filter.Genre)
	filter.Search = strings.TrimSpace(filter.Search)
	stories, err := s.stories.ListPublic(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list public stories: %w", err)
	}
	if stories == nil {
		stories = []models.Story{}
	}
	return stories, nil
}

func (s *contentServiceImpl) SetStoryVisibility(ctx context.Context, ownerID, storyID uuid.UUID, isPublic bool) (*models.Story, error) {
	story, err := s.GetStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.OwnerID != ownerID {
		s.logger.Warn("Visibility change by non-owner rejected",
			zap.Stringer("storyID", storyID), zap.Stringer("userID", ownerID))
		return nil, ErrNotStoryOwner
	}
	if err := s.stories.UpdateVisibility(ctx, storyID, isPublic); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, fmt.Errorf("failed to update story visibility: %w", err)
	}
	story.IsPublic = isPublic
	story.UpdatedAt = time.Now().UTC()
	return story, nil
}

// authorize loads the story and checks that editor may change it.
func (s *contentServiceImpl) authorize(ctx context.Context, editor Editor, storyID uuid.UUID) (*models.Story, error) {
	story, err := s.GetStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if !editor.Admin && story.OwnerID != editor.UserID {
		return nil, ErrNotStoryOwner
	}
	return story, nil
}

func (s *contentServiceImpl) CreateChapter(ctx context.Context, editor Editor, storyID uuid.UUID, input CreateChapterInput) (*models.Chapter, error) {
	log := s.logger.With(zap.Stringer("storyID", storyID), zap.Int("chapterNumber", input.ChapterNumber))
	if input.ChapterNumber <= 0 {
		return nil, fmt.Errorf("%w: chapter number must be positive", models.ErrInvalidInput)
	}
	if _, err := s.authorize(ctx, editor, storyID); err != nil {
		return nil, err
	}

	_, err := s.chapters.GetByStoryAndNumber(ctx, storyID, input.ChapterNumber)
	if err == nil {
		log.Warn("Chapter number already taken")
		return nil, ErrDuplicateChapterNumber
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check chapter number: %w", err)
	}

	now := time.Now().UTC()
	chapter := &models.Chapter{
		ID:            uuid.New(),
		StoryID:       storyID,
		ChapterNumber: input.ChapterNumber,
		Title:         input.Title,
		Content:       input.Content,
		AIGenerated:   input.AIGenerated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.chapters.Create(ctx, chapter); err != nil {
		// Lost the race against a concurrent insert of the same number.
		if errors.Is(err, models.ErrConflict) {
			return nil, ErrDuplicateChapterNumber
		}
		log.Error("Failed to create chapter", zap.Error(err))
		return nil, fmt.Errorf("failed to create chapter: %w", err)
	}
	log.Info("Chapter created", zap.Stringer("chapterID", chapter.ID))
	return chapter, nil
}

func (s *contentServiceImpl) ListChapters(ctx context.Context, storyID uuid.UUID) ([]models.Chapter, error) {
	exists, err := s.stories.Exists(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to check story: %w", err)
	}
	if !exists {
		return nil, ErrStoryNotFound
	}
	chapters, err := s.chapters.ListByStory(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	if chapters == nil {
		chapters = []models.Chapter{}
	}
	return chapters, nil
}

func (s *contentServiceImpl) GetChapter(ctx context.Context, id uuid.UUID) (*models.Chapter, error) {
	chapter, err := s.chapters.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrChapterNotFound
		}
		return nil, fmt.Errorf("failed to get chapter %s: %w", id, err)
	}
	return chapter, nil
}

func (s *contentServiceImpl) UpdateChapter(ctx context.Context, editor Editor, id uuid.UUID, patch models.ChapterPatch) (*models.Chapter, error) {
	chapter, err := s.GetChapter(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, editor, chapter.StoryID); err != nil {
		return nil, err
	}
	log := s.logger.With(zap.Stringer("chapterID", id), zap.Stringer("storyID", chapter.StoryID))

	if patch.ChapterNumber != nil && *patch.ChapterNumber != chapter.ChapterNumber {
		newNumber := *patch.ChapterNumber
		if newNumber <= 0 {
			return nil, fmt.Errorf("%w: chapter number must be positive", models.ErrInvalidInput)
		}
		_, err := s.chapters.GetByStoryAndNumber(ctx, chapter.StoryID, newNumber)
		if err == nil {
			log.Warn("Renumber target already taken", zap.Int("chapterNumber", newNumber))
			return nil, ErrDuplicateChapterNumber
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("failed to check chapter number: %w", err)
		}
		if err := s.ensureNotCurrent(ctx, chapter); err != nil {
			return nil, err
		}
		chapter.ChapterNumber = newNumber
	}
	if patch.Title != nil {
		chapter.Title = *patch.Title
	}
	if patch.Content != nil {
		chapter.Content = *patch.Content
	}
	chapter.UpdatedAt = time.Now().UTC()

	if err := s.chapters.Update(ctx, chapter); err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			return nil, ErrDuplicateChapterNumber
		case errors.Is(err, models.ErrNotFound):
			return nil, ErrChapterNotFound
		}
		log.Error("Failed to update chapter", zap.Error(err))
		return nil, fmt.Errorf("failed to update chapter: %w", err)
	}
	log.Info("Chapter updated")
	return chapter, nil
}

func (s *contentServiceImpl) DeleteChapter(ctx context.Context, editor Editor, id uuid.UUID) error {
	chapter, err := s.GetChapter(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authorize(ctx, editor, chapter.StoryID); err != nil {
		return err
	}
	if err := s.ensureNotCurrent(ctx, chapter); err != nil {
		return err
	}
	if err := s.chapters.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ErrChapterNotFound
		}
		return fmt.Errorf("failed to delete chapter: %w", err)
	}
	s.logger.Info("Chapter deleted", zap.Stringer("chapterID", id), zap.Stringer("storyID", chapter.StoryID))
	return nil
}

// ensureNotCurrent rejects changes that would strand an active session.
func (s *contentServiceImpl) ensureNotCurrent(ctx context.Context, chapter *models.Chapter) error {
	n, err := s.sessions.CountActiveOnChapter(ctx, chapter.StoryID, chapter.ChapterNumber)
	if err != nil {
		return fmt.Errorf("failed to count sessions on chapter: %w", err)
	}
	if n > 0 {
		s.logger.Warn("Chapter is current for active sessions",
			zap.Stringer("chapterID", chapter.ID), zap.Int("activeSessions", n))
		return ErrChapterInUse
	}
	return nil
}

func (s *contentServiceImpl) CreateChoice(ctx context.Context, editor Editor, chapterID uuid.UUID, input CreateChoiceInput) (*models.Choice, error) {
	if input.OptionNumber <= 0 {
		return nil, fmt.Errorf("%w: option number must be positive", models.ErrInvalidInput)
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, fmt.Errorf("%w: choice text is required", models.ErrInvalidInput)
	}
	if input.NextChapterNumber != nil && *input.NextChapterNumber <= 0 {
		return nil, fmt.Errorf("%w: next chapter number must be positive", models.ErrInvalidInput)
	}
	chapter, err := s.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, editor, chapter.StoryID); err != nil {
		return nil, err
	}

	choice := &models.Choice{
		ID:                uuid.New(),
		ChapterID:         chapterID,
		OptionNumber:      input.OptionNumber,
		Text:              input.Text,
		Consequence:       input.Consequence,
		EmotionalTone:     input.EmotionalTone,
		NextChapterNumber: input.NextChapterNumber,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.choices.Create(ctx, choice); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, ErrDuplicateOptionNumber
		}
		s.logger.Error("Failed to create choice", zap.Stringer("chapterID", chapterID), zap.Error(err))
		return nil, fmt.Errorf("failed to create choice: %w", err)
	}
	s.logger.Info("Choice created",
		zap.Stringer("chapterID", chapterID), zap.Stringer("choiceID", choice.ID), zap.Int("optionNumber", choice.OptionNumber))
	return choice, nil
}

func (s *contentServiceImpl) ListChoices(ctx context.Context, chapterID uuid.UUID) ([]models.Choice, error) {
	if _, err := s.GetChapter(ctx, chapterID); err != nil {
		return nil, err
	}
	choices, err := s.choices.ListByChapter(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list choices: %w", err)
	}
	if choices == nil {
		choices = []models.Choice{}
	}
	return choices, nil
}
