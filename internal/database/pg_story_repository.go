package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storytelling-server/internal/interfaces"
	"storytelling-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ interfaces.StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgStoryRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.StoryRepository {
	return &pgStoryRepository{
		db:     db,
		logger: logger.Named("PgStoryRepo"),
	}
}

const storyFields = `id, owner_id, title, description, genre, difficulty, is_public, created_at, updated_at`

const createStoryQuery = `
INSERT INTO stories (` + storyFields + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const getStoryByIDQuery = `SELECT ` + storyFields + ` FROM stories WHERE id = $1`

const storyExistsQuery = `SELECT EXISTS (SELECT 1 FROM stories WHERE id = $1)`

const listPublicStoriesQuery = `
SELECT ` + storyFields + `
FROM stories
WHERE is_public
  AND ($1 = '' OR genre = $1)
  AND ($2 = '' OR title ILIKE $2 ESCAPE '\' OR description ILIKE $2 ESCAPE '\')
ORDER BY created_at DESC`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns free text into an ILIKE pattern matching it anywhere.
func containsPattern(text string) string {
	if text == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(text) + "%"
}

const updateStoryVisibilityQuery = `UPDATE stories SET is_public = $2, updated_at = $3 WHERE id = $1`

func (r *pgStoryRepository) Create(ctx context.Context, story *models.Story) error {
	if story.ID == uuid.Nil {
		story.ID = uuid.New()
	}
	now := time.Now().UTC()
	if story.CreatedAt.IsZero() {
		story.CreatedAt = now
	}
	story.UpdatedAt = story.CreatedAt
	if story.Difficulty == "" {
		story.Difficulty = models.DifficultyMedium
	}

	_, err := r.db.Exec(ctx, createStoryQuery,
		story.ID, story.OwnerID, story.Title, story.Description, story.Genre,
		story.Difficulty, story.IsPublic, story.CreatedAt, story.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create story", zap.String("ownerID", story.OwnerID.String()), zap.Error(err))
		return mapError("create story", err)
	}
	r.logger.Info("Story created", zap.String("storyID", story.ID.String()))
	return nil
}

func (r *pgStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	var story models.Story
	if err := pgxscan.Get(ctx, r.db, &story, getStoryByIDQuery, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get story", zap.String("storyID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("get story %s: %w", id, err)
	}
	return &story, nil
}

func (r *pgStoryRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, storyExistsQuery, id).Scan(&exists); err != nil {
		return false, mapError("check story exists", err)
	}
	return exists, nil
}

func (r *pgStoryRepository) ListPublic(ctx context.Context, filter models.StoryFilter) ([]models.Story, error) {
	stories := make([]models.Story, 0)
	err := pgxscan.Select(ctx, r.db, &stories, listPublicStoriesQuery, filter.Genre, containsPattern(filter.Search))
	if err != nil {
		r.logger.Error("Failed to list public stories",
			zap.String("genre", filter.Genre), zap.String("search", filter.Search), zap.Error(err))
		return nil, fmt.Errorf("list public stories: %w", err)
	}
	return stories, nil
}

func (r *pgStoryRepository) UpdateVisibility(ctx context.Context, id uuid.UUID, isPublic bool) error {
	tag, err := r.db.Exec(ctx, updateStoryVisibilityQuery, id, isPublic, time.Now().UTC())
	if err != nil {
		return mapError("update story visibility", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

