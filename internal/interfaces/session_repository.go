package interfaces

import (
	"context"

	"storytelling-server/internal/models"

	"github.com/google/uuid"
)

// SessionRepository persists play sessions.
type SessionRepository interface {
	// Create returns models.ErrConflict if the user already has an active
	// session for the story.
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	// GetByIDForUpdate locks the session row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Session, error)
	// FindActive returns models.ErrNotFound if no active session exists.
	FindActive(ctx context.Context, userID, storyID uuid.UUID) (*models.Session, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
	Update(ctx context.Context, session *models.Session) error
	// CountActiveOnChapter counts active sessions of a story whose current chapter is number.
	CountActiveOnChapter(ctx context.Context, storyID uuid.UUID, number int) (int, error)
}

// ChoiceEventRepository is the append-only per-session resolution log.
type ChoiceEventRepository interface {
	// Append returns models.ErrConflict if the session already resolved the choice.
	Append(ctx context.Context, event *models.ChoiceEvent) error
	// ListHistory returns the session's resolutions joined with chapter title
	// and choice text, oldest first.
	ListHistory(ctx context.Context, sessionID uuid.UUID) ([]models.ChoiceHistoryEntry, error)
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Stories      StoryRepository
	Chapters     ChapterRepository
	Choices      ChoiceRepository
	Sessions     SessionRepository
	ChoiceEvents ChoiceEventRepository
}

// TxManager runs fn inside a single database transaction. The transaction
// commits if fn returns nil and rolls back otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
