package interfaces

import (
	"context"

	"storytelling-server/internal/models"

	"github.com/google/uuid"
)

// StoryRepository persists stories.
type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	// GetByID returns models.ErrNotFound if the story does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// ListPublic returns public stories matching filter, newest first.
	ListPublic(ctx context.Context, filter models.StoryFilter) ([]models.Story, error)
	UpdateVisibility(ctx context.Context, id uuid.UUID, isPublic bool) error
}

// ChapterRepository persists chapters. Create and Update return
// models.ErrConflict when (story_id, chapter_number) is already taken.
type ChapterRepository interface {
	Create(ctx context.Context, chapter *models.Chapter) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error)
	GetByStoryAndNumber(ctx context.Context, storyID uuid.UUID, number int) (*models.Chapter, error)
	ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Chapter, error)
	Update(ctx context.Context, chapter *models.Chapter) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ChoiceRepository persists choice definitions. Create returns
// models.ErrConflict when (chapter_id, option_number) is already taken.
type ChoiceRepository interface {
	Create(ctx context.Context, choice *models.Choice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Choice, error)
	// ListByChapter returns choices ordered by option number.
	ListByChapter(ctx context.Context, chapterID uuid.UUID) ([]models.Choice, error)
	// ListAvailable returns the chapter's choices the session has not resolved yet,
	// ordered by option number.
	ListAvailable(ctx context.Context, chapterID, sessionID uuid.UUID) ([]models.Choice, error)
}
