package database

import (
	"context"
	"fmt"
	"time"

	"storytelling-server/internal/interfaces"
	"storytelling-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ interfaces.ChapterRepository = (*pgChapterRepository)(nil)

type pgChapterRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgChapterRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ChapterRepository {
	return &pgChapterRepository{
		db:     db,
		logger: logger.Named("PgChapterRepo"),
	}
}

const chapterFields = `id, story_id, chapter_number, title, content, ai_generated, created_at, updated_at`

const createChapterQuery = `
INSERT INTO story_chapters (` + chapterFields + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const getChapterByIDQuery = `SELECT ` + chapterFields + ` FROM story_chapters WHERE id = $1`

const getChapterByStoryAndNumberQuery = `
SELECT ` + chapterFields + `
FROM story_chapters
WHERE story_id = $1 AND chapter_number = $2`

const listChaptersByStoryQuery = `
SELECT ` + chapterFields + `
FROM story_chapters
WHERE story_id = $1
ORDER BY chapter_number ASC`

const updateChapterQuery = `
UPDATE story_chapters
SET chapter_number = $2, title = $3, content = $4, ai_generated = $5, updated_at = $6
WHERE id = $1`

const deleteChapterQuery = `DELETE FROM story_chapters WHERE id = $1`

func (r *pgChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	if chapter.ID == uuid.Nil {
		chapter.ID = uuid.New()
	}
	if chapter.CreatedAt.IsZero() {
		chapter.CreatedAt = time.Now().UTC()
	}
	chapter.UpdatedAt = chapter.CreatedAt

	_, err := r.db.Exec(ctx, createChapterQuery,
		chapter.ID, chapter.StoryID, chapter.ChapterNumber, chapter.Title,
		chapter.Content, chapter.AIGenerated, chapter.CreatedAt, chapter.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Warn("Chapter number already taken",
				zap.String("storyID", chapter.StoryID.String()),
				zap.Int("chapterNumber", chapter.ChapterNumber),
			)
		} else {
			r.logger.Error("Failed to create chapter", zap.String("storyID", chapter.StoryID.String()), zap.Error(err))
		}
		return mapError("create chapter", err)
	}
	return nil
}

func (r *pgChapterRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Chapter, error) {
	return r.getOne(ctx, getChapterByIDQuery, id)
}

func (r *pgChapterRepository) GetByStoryAndNumber(ctx context.Context, storyID uuid.UUID, number int) (*models.Chapter, error) {
	return r.getOne(ctx, getChapterByStoryAndNumberQuery, storyID, number)
}

func (r *pgChapterRepository) getOne(ctx context.Context, query string, args ...any) (*models.Chapter, error) {
	var chapter models.Chapter
	if err := pgxscan.Get(ctx, r.db, &chapter, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get chapter", zap.Any("args", args), zap.Error(err))
		return nil, fmt.Errorf("get chapter: %w", err)
	}
	return &chapter, nil
}

func (r *pgChapterRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Chapter, error) {
	chapters := make([]models.Chapter, 0)
	if err := pgxscan.Select(ctx, r.db, &chapters, listChaptersByStoryQuery, storyID); err != nil {
		r.logger.Error("Failed to list chapters", zap.String("storyID", storyID.String()), zap.Error(err))
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	return chapters, nil
}

func (r *pgChapterRepository) Update(ctx context.Context, chapter *models.Chapter) error {
	chapter.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx, updateChapterQuery,
		chapter.ID, chapter.ChapterNumber, chapter.Title, chapter.Content, chapter.AIGenerated, chapter.UpdatedAt,
	)
	if err != nil {
		return mapError("update chapter", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgChapterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deleteChapterQuery, id)
	if err != nil {
		return mapError("delete chapter", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	r.logger.Info("Chapter deleted", zap.String("chapterID", id.String()))
	return nil
}
