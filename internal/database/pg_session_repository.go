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

var _ interfaces.SessionRepository = (*pgSessionRepository)(nil)

type pgSessionRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgSessionRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.SessionRepository {
	return &pgSessionRepository{
		db:     db,
		logger: logger.Named("PgSessionRepo"),
	}
}

const sessionFields = `id, user_id, story_id, current_chapter, session_data, is_completed, created_at, last_played`

const createSessionQuery = `
INSERT INTO story_sessions (` + sessionFields + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const getSessionByIDQuery = `SELECT ` + sessionFields + ` FROM story_sessions WHERE id = $1`

const getSessionByIDForUpdateQuery = `SELECT ` + sessionFields + ` FROM story_sessions WHERE id = $1 FOR UPDATE`

const findActiveSessionQuery = `
SELECT ` + sessionFields + `
FROM story_sessions
WHERE user_id = $1 AND story_id = $2 AND NOT is_completed`

const listSessionsByUserQuery = `
SELECT ` + sessionFields + `
FROM story_sessions
WHERE user_id = $1
ORDER BY last_played DESC`

const updateSessionQuery = `
UPDATE story_sessions
SET current_chapter = $2, session_data = $3, is_completed = $4, last_played = $5
WHERE id = $1`

const countActiveOnChapterQuery = `
SELECT COUNT(*) FROM story_sessions
WHERE story_id = $1 AND current_chapter = $2 AND NOT is_completed`

func (r *pgSessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.LastPlayed.IsZero() {
		session.LastPlayed = session.CreatedAt
	}
	if len(session.SessionData) == 0 {
		session.SessionData = models.DefaultSessionData
	}

	_, err := r.db.Exec(ctx, createSessionQuery,
		session.ID, session.UserID, session.StoryID, session.CurrentChapter,
		session.SessionData, session.IsCompleted, session.CreatedAt, session.LastPlayed,
	)
	if err != nil {
		if !isUniqueViolation(err) {
			r.logger.Error("Failed to create session",
				zap.String("userID", session.UserID.String()),
				zap.String("storyID", session.StoryID.String()),
				zap.Error(err),
			)
		}
		return mapError("create session", err)
	}
	r.logger.Info("Session created", zap.String("sessionID", session.ID.String()))
	return nil
}

func (r *pgSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return r.getOne(ctx, getSessionByIDQuery, id)
}

func (r *pgSessionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return r.getOne(ctx, getSessionByIDForUpdateQuery, id)
}

func (r *pgSessionRepository) FindActive(ctx context.Context, userID, storyID uuid.UUID) (*models.Session, error) {
	return r.getOne(ctx, findActiveSessionQuery, userID, storyID)
}

func (r *pgSessionRepository) getOne(ctx context.Context, query string, args ...any) (*models.Session, error) {
	var session models.Session
	if err := pgxscan.Get(ctx, r.db, &session, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get session", zap.Any("args", args), zap.Error(err))
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

func (r *pgSessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	sessions := make([]models.Session, 0)
	if err := pgxscan.Select(ctx, r.db, &sessions, listSessionsByUserQuery, userID); err != nil {
		r.logger.Error("Failed to list sessions", zap.String("userID", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (r *pgSessionRepository) Update(ctx context.Context, session *models.Session) error {
	tag, err := r.db.Exec(ctx, updateSessionQuery,
		session.ID, session.CurrentChapter, session.SessionData, session.IsCompleted, session.LastPlayed,
	)
	if err != nil {
		r.logger.Error("Failed to update session", zap.String("sessionID", session.ID.String()), zap.Error(err))
		return mapError("update session", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgSessionRepository) CountActiveOnChapter(ctx context.Context, storyID uuid.UUID, number int) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, countActiveOnChapterQuery, storyID, number).Scan(&count); err != nil {
		return 0, mapError("count active sessions on chapter", err)
	}
	return count, nil
}
