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

var _ interfaces.ChoiceRepository = (*pgChoiceRepository)(nil)

type pgChoiceRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgChoiceRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ChoiceRepository {
	return &pgChoiceRepository{
		db:     db,
		logger: logger.Named("PgChoiceRepo"),
	}
}

const choiceFields = `id, chapter_id, option_number, choice_text, consequence, emotional_tone, next_chapter_number, created_at`

const createChoiceQuery = `
INSERT INTO chapter_choices (` + choiceFields + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const getChoiceByIDQuery = `SELECT ` + choiceFields + ` FROM chapter_choices WHERE id = $1`

const listChoicesByChapterQuery = `
SELECT ` + choiceFields + `
FROM chapter_choices
WHERE chapter_id = $1
ORDER BY option_number ASC`

const listAvailableChoicesQuery = `
SELECT c.id, c.chapter_id, c.option_number, c.choice_text, c.consequence, c.emotional_tone, c.next_chapter_number, c.created_at
FROM chapter_choices c
WHERE c.chapter_id = $1
  AND NOT EXISTS (
      SELECT 1 FROM choice_events e
      WHERE e.session_id = $2 AND e.choice_id = c.id
  )
ORDER BY c.option_number ASC`

func (r *pgChoiceRepository) Create(ctx context.Context, choice *models.Choice) error {
	if choice.ID == uuid.Nil {
		choice.ID = uuid.New()
	}
	if choice.CreatedAt.IsZero() {
		choice.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, createChoiceQuery,
		choice.ID, choice.ChapterID, choice.OptionNumber, choice.Text,
		choice.Consequence, choice.EmotionalTone, choice.NextChapterNumber, choice.CreatedAt,
	)
	if err != nil {
		if !isUniqueViolation(err) {
			r.logger.Error("Failed to create choice", zap.String("chapterID", choice.ChapterID.String()), zap.Error(err))
		}
		return mapError("create choice", err)
	}
	return nil
}

func (r *pgChoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Choice, error) {
	var choice models.Choice
	if err := pgxscan.Get(ctx, r.db, &choice, getChoiceByIDQuery, id); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get choice", zap.String("choiceID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("get choice %s: %w", id, err)
	}
	return &choice, nil
}

func (r *pgChoiceRepository) ListByChapter(ctx context.Context, chapterID uuid.UUID) ([]models.Choice, error) {
	choices := make([]models.Choice, 0)
	if err := pgxscan.Select(ctx, r.db, &choices, listChoicesByChapterQuery, chapterID); err != nil {
		return nil, fmt.Errorf("list choices: %w", err)
	}
	return choices, nil
}

func (r *pgChoiceRepository) ListAvailable(ctx context.Context, chapterID, sessionID uuid.UUID) ([]models.Choice, error) {
	choices := make([]models.Choice, 0)
	if err := pgxscan.Select(ctx, r.db, &choices, listAvailableChoicesQuery, chapterID, sessionID); err != nil {
		r.logger.Error("Failed to list available choices",
			zap.String("chapterID", chapterID.String()),
			zap.String("sessionID", sessionID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list available choices: %w", err)
	}
	return choices, nil
}
