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

var _ interfaces.ChoiceEventRepository = (*pgChoiceEventRepository)(nil)

type pgChoiceEventRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgChoiceEventRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ChoiceEventRepository {
	return &pgChoiceEventRepository{
		db:     db,
		logger: logger.Named("PgChoiceEventRepo"),
	}
}

const appendChoiceEventQuery = `
INSERT INTO choice_events (id, session_id, choice_id, chapter_id, chapter_number, resolved_at)
VALUES ($1, $2, $3, $4, $5, $6)`

const listChoiceHistoryQuery = `
SELECT e.choice_id, e.chapter_number, ch.title AS chapter_title, c.choice_text, e.resolved_at AS chosen_at
FROM choice_events e
JOIN chapter_choices c ON c.id = e.choice_id
JOIN story_chapters ch ON ch.id = c.chapter_id
WHERE e.session_id = $1
ORDER BY e.resolved_at ASC, e.id ASC`

func (r *pgChoiceEventRepository) Append(ctx context.Context, event *models.ChoiceEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.ResolvedAt.IsZero() {
		event.ResolvedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, appendChoiceEventQuery,
		event.ID, event.SessionID, event.ChoiceID, event.ChapterID, event.ChapterNumber, event.ResolvedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Warn("Choice already resolved by session",
				zap.String("sessionID", event.SessionID.String()),
				zap.String("choiceID", event.ChoiceID.String()),
			)
		}
		return mapError("append choice event", err)
	}
	return nil
}

func (r *pgChoiceEventRepository) ListHistory(ctx context.Context, sessionID uuid.UUID) ([]models.ChoiceHistoryEntry, error) {
	entries := make([]models.ChoiceHistoryEntry, 0)
	if err := pgxscan.Select(ctx, r.db, &entries, listChoiceHistoryQuery, sessionID); err != nil {
		return nil, fmt.Errorf("list choice history: %w", err)
	}
	return entries, nil
}
