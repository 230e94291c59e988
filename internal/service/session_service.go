package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storytelling-server/internal/interfaces"
	"storytelling-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ResolutionResult is the outcome of resolving a choice.
type ResolutionResult struct {
	Session   *models.Session     `json:"session"`
	View      *models.ChapterView `json:"nextChapter,omitempty"`
	Completed bool                `json:"completed"`
}

// SessionService drives sessions through the ACTIVE -> COMPLETED state machine.
type SessionService interface {
	// Start returns the user's active session for the story, creating it if needed.
	// created reports whether a new session was inserted.
	Start(ctx context.Context, userID, storyID uuid.UUID) (session *models.Session, created bool, err error)
	GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.Session, error)
	ListUserSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
	// ListChoiceHistory returns the choices the user's session resolved, oldest first.
	ListChoiceHistory(ctx context.Context, userID, sessionID uuid.UUID) (*models.ChoiceHistory, error)
	GetCurrentChapter(ctx context.Context, sessionID uuid.UUID) (*models.ChapterView, error)
	ResolveChoice(ctx context.Context, sessionID, choiceID uuid.UUID) (*ResolutionResult, error)
	// AdvanceSequentially moves to the next chapter by number. The returned
	// chapter is nil when the story ended.
	AdvanceSequentially(ctx context.Context, sessionID uuid.UUID) (*models.Chapter, *models.Session, error)
	UpdateState(ctx context.Context, sessionID uuid.UUID, chapterNumber int, data json.RawMessage) (*models.Session, error)
}

type sessionServiceImpl struct {
	repos     interfaces.Repositories
	tx        interfaces.TxManager
	publisher interfaces.SessionEventPublisher
	logger    *zap.Logger
}

// NewSessionService creates the session engine. publisher may be nil.
func NewSessionService(repos interfaces.Repositories, tx interfaces.TxManager, publisher interfaces.SessionEventPublisher, logger *zap.Logger) SessionService {
	return &sessionServiceImpl{
		repos:     repos,
		tx:        tx,
		publisher: publisher,
		logger:    logger.Named("SessionService"),
	}
}

func (s *sessionServiceImpl) Start(ctx context.Context, userID, storyID uuid.UUID) (*models.Session, bool, error) {
	log := s.logger.With(zap.Stringer("userID", userID), zap.Stringer("storyID", storyID))

	exists, err := s.repos.Stories.Exists(ctx, storyID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check story: %w", err)
	}
	if !exists {
		return nil, false, ErrStoryNotFound
	}

	active, err := s.repos.Sessions.FindActive(ctx, userID, storyID)
	if err == nil {
		log.Debug("Returning existing active session", zap.Stringer("sessionID", active.ID))
		return active, false, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to find active session: %w", err)
	}

	now := time.Now().UTC()
	data := make(json.RawMessage, len(models.DefaultSessionData))
	copy(data, models.DefaultSessionData)
	session := &models.Session{
		ID:             uuid.New(),
		UserID:         userID,
		StoryID:        storyID,
		CurrentChapter: 1,
		SessionData:    data,
		CreatedAt:      now,
		LastPlayed:     now,
	}
	if err := s.repos.Sessions.Create(ctx, session); err != nil {
		if errors.Is(err, models.ErrConflict) {
			// A concurrent start won the partial unique index; return its session.
			winner, findErr := s.repos.Sessions.FindActive(ctx, userID, storyID)
			if findErr != nil {
				return nil, false, fmt.Errorf("failed to load concurrently started session: %w", findErr)
			}
			log.Info("Concurrent start resolved to existing session", zap.Stringer("sessionID", winner.ID))
			return winner, false, nil
		}
		log.Error("Failed to create session", zap.Error(err))
		return nil, false, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info("Session started", zap.Stringer("sessionID", session.ID))
	s.publish(ctx, interfaces.SessionEventStarted, session, nil)
	return session, true, nil
}

func (s *sessionServiceImpl) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.Session, error) {
	session, err := s.repos.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	// Other users' sessions are reported as missing.
	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *sessionServiceImpl) ListUserSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	sessions, err := s.repos.Sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	return sessions, nil
}

func (s *sessionServiceImpl) ListChoiceHistory(ctx context.Context, userID, sessionID uuid.UUID) (*models.ChoiceHistory, error) {
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repos.ChoiceEvents.ListHistory(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list choice history: %w", err)
	}
	return models.NewChoiceHistory(session.ID, entries), nil
}

func (s *sessionServiceImpl) GetCurrentChapter(ctx context.Context, sessionID uuid.UUID) (*models.ChapterView, error) {
	session, err := s.repos.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	return s.chapterView(ctx, s.repos, session)
}

// chapterView loads the session's current chapter and the choices it can still pick.
func (s *sessionServiceImpl) chapterView(ctx context.Context, repos interfaces.Repositories, session *models.Session) (*models.ChapterView, error) {
	chapter, err := repos.Chapters.GetByStoryAndNumber(ctx, session.StoryID, session.CurrentChapter)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrChapterNotFound
		}
		return nil, fmt.Errorf("failed to get current chapter: %w", err)
	}
	choices, err := repos.Choices.ListAvailable(ctx, chapter.ID, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list available choices: %w", err)
	}
	if choices == nil {
		choices = []models.Choice{}
	}
	return &models.ChapterView{Chapter: *chapter, Choices: choices}, nil
}

func (s *sessionServiceImpl) ResolveChoice(ctx context.Context, sessionID, choiceID uuid.UUID) (*ResolutionResult, error) {
	log := s.logger.With(zap.Stringer("sessionID", sessionID), zap.Stringer("choiceID", choiceID))
	var session *models.Session

	err := s.tx.WithinTx(ctx, func(repos interfaces.Repositories) error {
		var err error
		session, err = lockSession(ctx, repos, sessionID)
		if err != nil {
			return err
		}
		if session.IsCompleted {
			return ErrSessionCompleted
		}

		choice, err := repos.Choices.GetByID(ctx, choiceID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return ErrChoiceNotFound
			}
			return fmt.Errorf("failed to get choice: %w", err)
		}

		current, err := repos.Chapters.GetByStoryAndNumber(ctx, session.StoryID, session.CurrentChapter)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("failed to get current chapter: %w", err)
		}
		if current == nil || choice.ChapterID != current.ID {
			return ErrChoiceNotInCurrentChapter
		}

		now := time.Now().UTC()
		event := &models.ChoiceEvent{
			ID:            uuid.New(),
			SessionID:     session.ID,
			ChoiceID:      choice.ID,
			ChapterID:     current.ID,
			ChapterNumber: current.ChapterNumber,
			ResolvedAt:    now,
		}
		if err := repos.ChoiceEvents.Append(ctx, event); err != nil {
			if errors.Is(err, models.ErrConflict) {
				return ErrChoiceAlreadyResolved
			}
			return fmt.Errorf("failed to record choice: %w", err)
		}

		if choice.EndsStory() {
			session.IsCompleted = true
		} else {
			session.CurrentChapter = *choice.NextChapterNumber
		}
		session.LastPlayed = now
		if err := repos.Sessions.Update(ctx, session); err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}
		return nil
	})
	if err != nil {
		logRejection(log, "Choice resolution rejected", err)
		return nil, err
	}

	result := &ResolutionResult{Session: session, Completed: session.IsCompleted}
	if session.IsCompleted {
		log.Info("Session completed by choice")
		s.publish(ctx, interfaces.SessionEventCompleted, session, &choiceID)
		return result, nil
	}

	log.Info("Choice resolved", zap.Int("currentChapter", session.CurrentChapter))
	s.publish(ctx, interfaces.SessionEventAdvanced, session, &choiceID)
	view, err := s.chapterView(ctx, s.repos, session)
	if err != nil {
		// The transition is committed; a dangling next chapter only loses the preview.
		log.Warn("Failed to load next chapter after resolution", zap.Error(err))
		return result, nil
	}
	result.View = view
	return result, nil
}

func (s *sessionServiceImpl) AdvanceSequentially(ctx context.Context, sessionID uuid.UUID) (*models.Chapter, *models.Session, error) {
	log := s.logger.With(zap.Stringer("sessionID", sessionID))
	var (
		session *models.Session
		next    *models.Chapter
	)

	err := s.tx.WithinTx(ctx, func(repos interfaces.Repositories) error {
		var err error
		session, err = lockSession(ctx, repos, sessionID)
		if err != nil {
			return err
		}
		if session.IsCompleted {
			return ErrSessionCompleted
		}

		next, err = repos.Chapters.GetByStoryAndNumber(ctx, session.StoryID, session.CurrentChapter+1)
		switch {
		case err == nil:
			session.CurrentChapter = next.ChapterNumber
		case errors.Is(err, models.ErrNotFound):
			next = nil
			session.IsCompleted = true
		default:
			return fmt.Errorf("failed to get next chapter: %w", err)
		}
		session.LastPlayed = time.Now().UTC()
		if err := repos.Sessions.Update(ctx, session); err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}
		return nil
	})
	if err != nil {
		logRejection(log, "Sequential advance rejected", err)
		return nil, nil, err
	}

	if session.IsCompleted {
		log.Info("Session completed, no further chapters")
		s.publish(ctx, interfaces.SessionEventCompleted, session, nil)
	} else {
		log.Info("Session advanced", zap.Int("currentChapter", session.CurrentChapter))
		s.publish(ctx, interfaces.SessionEventAdvanced, session, nil)
	}
	return next, session, nil
}

func (s *sessionServiceImpl) UpdateState(ctx context.Context, sessionID uuid.UUID, chapterNumber int, data json.RawMessage) (*models.Session, error) {
	if chapterNumber <= 0 {
		return nil, fmt.Errorf("%w: chapter number must be positive", models.ErrInvalidInput)
	}
	if len(data) > 0 && !json.Valid(data) {
		return nil, ErrInvalidSessionData
	}
	log := s.logger.With(zap.Stringer("sessionID", sessionID))
	var session *models.Session

	err := s.tx.WithinTx(ctx, func(repos interfaces.Repositories) error {
		var err error
		session, err = lockSession(ctx, repos, sessionID)
		if err != nil {
			return err
		}
		if session.IsCompleted {
			return ErrSessionCompleted
		}
		session.CurrentChapter = chapterNumber
		if len(data) > 0 {
			session.SessionData = data
		}
		session.LastPlayed = time.Now().UTC()
		if err := repos.Sessions.Update(ctx, session); err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}
		return nil
	})
	if err != nil {
		logRejection(log, "State update rejected", err)
		return nil, err
	}
	log.Info("Session state updated", zap.Int("currentChapter", chapterNumber))
	return session, nil
}

func lockSession(ctx context.Context, repos interfaces.Repositories, sessionID uuid.UUID) (*models.Session, error) {
	session, err := repos.Sessions.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	return session, nil
}

// logRejection logs expected domain outcomes at Warn and anything else at Error.
func logRejection(log *zap.Logger, msg string, err error) {
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrConflict) {
		log.Warn(msg, zap.Error(err))
		return
	}
	log.Error(msg, zap.Error(err))
}

// publish sends a lifecycle event. Failures are logged and never fail the caller.
func (s *sessionServiceImpl) publish(ctx context.Context, eventType interfaces.SessionEventType, session *models.Session, choiceID *uuid.UUID) {
	if s.publisher == nil {
		return
	}
	event := interfaces.SessionEvent{
		EventType:     eventType,
		SessionID:     session.ID,
		UserID:        session.UserID,
		StoryID:       session.StoryID,
		ChapterNumber: session.CurrentChapter,
		ChoiceID:      choiceID,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish session event",
			zap.String("eventType", string(eventType)),
			zap.Stringer("sessionID", session.ID),
			zap.Error(err),
		)
	}
}
