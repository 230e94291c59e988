package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"storytelling-server/internal/interfaces"
	"storytelling-server/internal/interfaces/mocks"
	"storytelling-server/internal/models"
	"storytelling-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sessionFixture struct {
	repos     *repoMocks
	tx        *mocks.TxManager
	publisher *mocks.SessionEventPublisher
	svc       service.SessionService
}

func newSessionFixture() *sessionFixture {
	r := newRepoMocks()
	tx := &mocks.TxManager{Repos: r.repos()}
	pub := new(mocks.SessionEventPublisher)
	return &sessionFixture{
		repos:     r,
		tx:        tx,
		publisher: pub,
		svc:       service.NewSessionService(r.repos(), tx, pub, zap.NewNop()),
	}
}

func activeSession(storyID uuid.UUID, chapter int) *models.Session {
	return &models.Session{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		StoryID:        storyID,
		CurrentChapter: chapter,
		SessionData:    json.RawMessage(`{}`),
		LastPlayed:     time.Now().Add(-time.Hour),
	}
}

func eventOfType(eventType interfaces.SessionEventType) interface{} {
	return mock.MatchedBy(func(e interfaces.SessionEvent) bool { return e.EventType == eventType })
}

func TestSessionService_Start(t *testing.T) {
	ctx := context.Background()
	userID, storyID := uuid.New(), uuid.New()

	t.Run("story not found", func(t *testing.T) {
		f := newSessionFixture()
		f.repos.stories.On("Exists", mock.Anything, storyID).Return(false, nil).Once()

		session, created, err := f.svc.Start(ctx, userID, storyID)

		assert.Nil(t, session)
		assert.False(t, created)
		assert.ErrorIs(t, err, service.ErrStoryNotFound)
		assert.ErrorIs(t, err, models.ErrNotFound)
		f.repos.assertAll(t)
	})

	t.Run("returns existing active session", func(t *testing.T) {
		f := newSessionFixture()
		existing := activeSession(storyID, 4)
		f.repos.stories.On("Exists", mock.Anything, storyID).Return(true, nil).Once()
		f.repos.sessions.On("FindActive", mock.Anything, userID, storyID).Return(existing, nil).Once()

		session, created, err := f.svc.Start(ctx, userID, storyID)

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, existing, session)
		f.repos.assertAll(t)
		f.publisher.AssertNotCalled(t, "PublishSessionEvent", mock.Anything, mock.Anything)
	})

	t.Run("creates new session with defaults", func(t *testing.T) {
		f := newSessionFixture()
		f.repos.stories.On("Exists", mock.Anything, storyID).Return(true, nil).Once()
		f.repos.sessions.On("FindActive", mock.Anything, userID, storyID).Return(nil, models.ErrNotFound).Once()
		f.repos.sessions.On("Create", mock.Anything, mock.MatchedBy(func(s *models.Session) bool {
			return s.UserID == userID && s.StoryID == storyID && s.CurrentChapter == 1 && !s.IsCompleted
		})).Return(nil).Once()
		f.publisher.On("PublishSessionEvent", mock.Anything, eventOfType(interfaces.SessionEventStarted)).Return(nil).Once()

		session, created, err := f.svc.Start(ctx, userID, storyID)

		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, models.SessionStatusActive, session.Status())
		assert.JSONEq(t, `{"character_name": "", "health": 100, "inventory": []}`, string(session.SessionData))
		f.repos.assertAll(t)
		f.publisher.AssertExpectations(t)
	})

	t.Run("concurrent start returns winner", func(t *testing.T) {
		f := newSessionFixture()
		winner := activeSession(storyID, 1)
		f.repos.stories.On("Exists", mock.Anything, storyID).Return(true, nil).Once()
		f.repos.sessions.On("FindActive", mock.Anything, userID, storyID).Return(nil, models.ErrNotFound).Once()
		f.repos.sessions.On("Create", mock.Anything, mock.Anything).Return(models.ErrConflict).Once()
		f.repos.sessions.On("FindActive", mock.Anything, userID, storyID).Return(winner, nil).Once()

		session, created, err := f.svc.Start(ctx, userID, storyID)

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, winner.ID, session.ID)
		f.repos.assertAll(t)
	})
}

func TestSessionService_GetSession(t *testing.T) {
	f := newSessionFixture()
	session := activeSession(uuid.New(), 1)
	f.repos.sessions.On("GetByID", mock.Anything, session.ID).Return(session, nil)

	got, err := f.svc.GetSession(context.Background(), session.UserID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session, got)

	_, err = f.svc.GetSession(context.Background(), uuid.New(), session.ID)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestSessionService_ListChoiceHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("returns resolved choices oldest first", func(t *testing.T) {
		f := newSessionFixture()
		session := activeSession(uuid.New(), 3)
		chosenAt := time.Now().Add(-10 * time.Minute)
		entries := []models.ChoiceHistoryEntry{
			{ChoiceID: uuid.New(), ChapterNumber: 1, ChapterTitle: "Arrival", ChoiceText: "Open the door", ChosenAt: chosenAt},
			{ChoiceID: uuid.New(), ChapterNumber: 2, ChapterTitle: "The Hall", ChoiceText: "Take the stairs", ChosenAt: chosenAt.Add(time.Minute)},
		}
		f.repos.sessions.On("GetByID", mock.Anything, session.ID).Return(session, nil).Once()
		f.repos.events.On("ListHistory", mock.Anything, session.ID).Return(entries, nil).Once()

		history, err := f.svc.ListChoiceHistory(ctx, session.UserID, session.ID)

		require.NoError(t, err)
		assert.Equal(t, session.ID, history.SessionID)
		assert.Equal(t, 2, history.TotalChoicesMade)
		assert.Equal(t, entries, history.Choices)
	})

	t.Run("no choices yet", func(t *testing.T) {
		f := newSessionFixture()
		session := activeSession(uuid.New(), 1)
		f.repos.sessions.On("GetByID", mock.Anything, session.ID).Return(session, nil).Once()
		f.repos.events.On("ListHistory", mock.Anything, session.ID).Return(nil, nil).Once()

		history, err := f.svc.ListChoiceHistory(ctx, session.UserID, session.ID)

		require.NoError(t, err)
		assert.Empty(t, history.Choices)
		assert.NotNil(t, history.Choices)
		assert.Zero(t, history.TotalChoicesMade)
	})

	t.Run("other user's session is not found", func(t *testing.T) {
		f := newSessionFixture()
		session := activeSession(uuid.New(), 2)
		f.repos.sessions.On("GetByID", mock.Anything, session.ID).Return(session, nil).Once()

		_, err := f.svc.ListChoiceHistory(ctx, uuid.New(), session.ID)

		assert.ErrorIs(t, err, service.ErrSessionNotFound)
		f.repos.events.AssertNotCalled(t, "ListHistory", mock.Anything, mock.Anything)
	})

	t.Run("repository failure is wrapped", func(t *testing.T) {
		f := newSessionFixture()
		session := activeSession(uuid.New(), 2)
		f.repos.sessions.On("GetByID", mock.Anything, session.ID).Return(session, nil).Once()
		f.repos.events.On("ListHistory", mock.Anything, session.ID).Return(nil, errors.New("conn reset")).Once()

		_, err := f.svc.ListChoiceHistory(ctx, session.UserID, session.ID)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list choice history")
	})
}

func TestSessionService_GetCurrentChapter(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	session := activeSession(uuid.New(), 2)
	chapter := &models.Chapter{ID: uuid.New(), StoryID: session.StoryID, ChapterNumber: 2, Title: "The Gate"}
	open := []models.Choice{{ID: uuid.New(), ChapterID: chapter.ID, OptionNumber: 2, Text: "Knock"}}

	f.repos.sessions.On("GetByID", mock.Anything, session.ID).Return(session, nil).Once()
	f.repos.chapters.On("GetByStoryAndNumber", mock.Anything, session.StoryID, 2).Return(chapter, nil).Once()
	f.repos.choices.On("ListAvailable", mock.Anything, chapter.ID, session.ID).Return(open, nil).Once()

	view, err := f.svc.GetCurrentChapter(ctx, session.ID)

	require.NoError(t, err)
	assert.Equal(t, *chapter, view.Chapter)
	assert.Equal(t, open, view.Choices)
	f.repos.assertAll(t)

	t.Run("missing chapter", func(t *testing.T) {
		f := newSessionFixture()
		f.repos.sessions.On("GetByID", mock.Anything, session.ID).Return(session, nil).Once()
		f.repos.chapters.On("GetByStoryAndNumber", mock.Anything, session.StoryID, 2).Return(nil, models.ErrNotFound).Once()

		_, err := f.svc.GetCurrentChapter(ctx, session.ID)
		assert.ErrorIs(t, err, service.ErrChapterNotFound)
	})

	t.Run("missing session", func(t *testing.T) {
		f := newSessionFixture()
		f.repos.sessions.On("GetByID", mock.Anything, mock.Anything).Return(nil, models.ErrNotFound).Once()

		_, err := f.svc.GetCurrentChapter(ctx, uuid.New())
		assert.ErrorIs(t, err, service.ErrSessionNotFound)
	})
}

func TestSessionService_ResolveChoice(t *testing.T) {
	ctx := context.Background()

	setup := func() (*sessionFixture, *models.Session, *models.Chapter) {
		f := newSessionFixture()
		session := activeSession(uuid.New(), 1)
		chapter := &models.Chapter{ID: uuid.New(), StoryID: session.StoryID, ChapterNumber: 1}
		return f, session, chapter
	}

	t.Run("advances to next chapter", func(t *testing.T) {
		f, session, chapter := setup()
		choice := &models.Choice{ID: uuid.New(), ChapterID: chapter.ID, OptionNumber: 1, NextChapterNumber: intPtr(3)}
		next := &models.Chapter{ID: uuid.New(), StoryID: session.StoryID, ChapterNumber: 3}
		before := session.LastPlayed

		f.repos.sessions.On("GetByIDForUpdate", mock.Anything, session.ID).Return(session, nil).Once()
		f.repos.choices.On("GetByID", mock.Anything, choice.ID).Return(choice, nil).Once()
		f.repos.chapters.On("GetByStoryAndNumber", mock.Anything, session.StoryID, 1).Return(chapter, nil).Once()
		f.repos.events.On("Append", mock.Anything, mock.MatchedBy(func(e *models.ChoiceEvent) bool {
			return e.SessionID == session.ID && e.ChoiceID == choice.ID && e.ChapterID == chapter.ID && e.ChapterNumber == 1
		})).Return(nil).Once()
		f.repos.sessions.On("Update", mock.Anything, mock.MatchedBy(func(s *models.Session) bool {
			return s.CurrentChapter == 3 && !s.IsCompleted
		})).Return(nil).Once()
		f.repos.chapters.On("GetByStoryAndNumber", mock.Anything, session.StoryID, 3).Return(next, nil).Once()
		f.repos.choices.On("ListAvailable", mock.Anything, next.ID, session.ID).Return([]models.Choice{}, nil).Once()
		f.publisher.On("PublishSessionEvent", mock.Anything, eventOfType(interfaces.SessionEventAdvanced)).Return(nil).Once()

		res, err := f.svc.ResolveChoice(ctx, session.ID, choice.ID)

		require.NoError(t, err)
		assert.False(t, res.Completed)
		assert.Equal(t, 3, res.Session.CurrentChapter)
		assert.True(t, res.Session.LastPlayed.After(before))
		require.NotNil(t, res.View)
		assert.Equal(t, next.ID, res.View.Chapter.ID)
		assert.Equal(t, 1, f.tx.Calls)
		f.repos.assertAll(t)
		f.publisher.AssertExpectations(t)
	})

	t.Run("terminal choice completes without moving", func(t *testing.T) {
		f, session, chapter := setup()
		choice := &models.Choice{ID: uuid.New(), ChapterID: chapter.ID, OptionNumber: 2}

		f.repos.sessions.On("GetByIDForUpdate", mock.Anything, session.ID).Return(session, nil).Once()
		f.repos.choices.On("GetByID", mock.Anything, choice.ID).Return(choice, nil).Once()
		f.repos.chapters.On("GetByStoryAndNumber", mock.Anything, session.StoryID, 1).Return(chapter, nil).Once()
		f.repos.events.On("Append", mock.Anything, mock.Anything).Return(nil).Once()
		f.repos.sessions.On("Update", mock.Anything, mock.MatchedBy(func(s *models.Session) bool {
			return s.IsCompleted && s.CurrentChapter == 1
		})).Return(nil).Once()
		f.publisher.On("PublishSessionEvent", mock.Anything, eventOfType(interfaces.SessionEventCompleted)).Return(nil).Once()

		res, err := f.svc.ResolveChoice(ctx, session.ID, choice.ID)

		require.NoError(t, err)
		assert.True(t, res.Completed)
		assert.Nil(t, res.View)
		assert.Equal(t, models.SessionStatusCompleted, res.Session.Status())
		assert.Equal(t, 1, res.Session.CurrentChapter)
		f.repos.assertAll(t)
	})

	t.Run("completed session is rejected before any lookup", func(t *testing.T) {
		f, session, _ := setup()
		session.IsCompleted = true
		f.repos.sessions.On("GetByIDForUpdate", mock.Anything, session.ID).Return(session, nil).Once()

		_, err := f.svc.ResolveChoice(ctx, session.ID, uuid.New())

		assert.ErrorIs(t, err, service.ErrSessionCompleted)
		assert.ErrorIs(t, err, models.ErrConflict)
		f.repos.choices.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		f.repos.sessions.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown choice", func(t *testing.T) {
		f, session, _ := setup()
		f.repos.sessions.On("GetByIDForUpdate", mock.Anything, session.ID).Return(session, nil).Once()
		f.repos.choices.On("GetByID", mock.Anything, mock.Anything).Return(nil, models.ErrNotFound).Once()

		_, err := f.svc.ResolveChoice(ctx, session.ID, uuid.New())

		assert.ErrorIs(t, err, service.ErrChoiceNotFound)
		f.repos.sessions.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("choice from another chapter", func(t *testing.T) {
		f, session, chapter := setup()
		choice := &models.Choice{ID: uuid.New(), ChapterID: uuid.New(), OptionNumber: 1, NextChapterNumber: intPtr(2)}
		f.repos.sessions.On("GetByIDForUpdate", mock.Anything, session.ID).Return(session, nil).Once()
		f.repos.choices.On("GetByID", mock.Anything, choice.ID).Return(choice, nil).Once()
		f.repos.chapters.On("GetByStoryAndNumber", mock.Anything, session.StoryID, 1).Return(chapter, nil).Once()

		_, err := f.svc.ResolveChoice(ctx, session.ID, choice.ID)

		assert.ErrorIs(t, err, service.ErrChoiceNotInCurrentChapter)
		f.repos.events.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
		f.repos.sessions.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		assert.Equal(t, 1, session.CurrentChapter)
	})

	t.Run("choice already resolved by this session", func(t *testing.T) {
		f, session, chapter := setup()
		choice := &models.Choice{ID: uuid.New(), ChapterID: chapter.ID, OptionNumber: 1, NextChapterNumber: intPtr(1)}
		f.repos.sessions.On("GetByIDForUpdate", mock.Anything, session.ID).Return(session, nil).Once()
		f.repos.choices.On("GetByID", mock.Anything, choice.ID).Return(choice, nil).Once()
		f.repos.chapters.On("GetByStoryAndNumber", mock.Anything, session.StoryID, 1).Return(chapter, nil).Once()
		f.repos.events.On("Append", mock.Anything, mock.Anything).Return(models.ErrConflict).Once()

		_, err := f.svc.ResolveChoice(ctx, session.ID, choice.ID)

		assert.ErrorIs(t, err, service.ErrChoiceAlreadyResolved)
		f.repos.sessions.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("publisher failure does not fail resolution", func(t *testing.T) {
		f, session, chapter := setup()
		choice := &models.Choice{ID: uuid.New(), ChapterID: chapter.ID, OptionNumber: 1}
		f.repos.sessions.On("GetByIDForUpdate", mock.Anything, session.ID).Return(session, nil).Once()
		f.repos.choices.On("GetByID", mock.Anything, choice.ID).Return(choice, nil).Once()
		f.repos.chapters.On("GetByStoryAndNumber", mock.Anything, session.StoryID, 1).Return(chapter, nil).Once()
		f.repos.events.On("Append", mock.Anything, mock.Anything).Return(nil).Once()
		f.repos.sessions.On("Update", mock.Anything, mock.Anything).Return(nil).Once()
		f.publisher.On("PublishSessionEvent", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

		res, err := f.svc.ResolveChoice(ctx, session.ID, choice.ID)

		require.NoError(t, err)
		assert.True(t, res.Completed)
	})
}

func TestSessionService_AdvanceSequentially(t *testing.T) {
	ctx := context.Background()

	t.Run("moves to the next chapter", func(t *testing.T) {
		f := newSessionFixture()
		session := activeSession(uuid.New(), 1)
		next := &models.Chapter{ID: uuid.New(), StoryID: session.StoryID, ChapterNumber: 2}
		f.repos.sessions.On("GetByIDForUpdate", mock.Anything, session.ID).Return(session, nil).Once()
		f.repos.chapters.On("GetByStoryAndNumber", mock.Anything, session.StoryID, 2).Return(next, nil).Once()
		f.repos.sessions.On("Update", mock.Anything, mock.MatchedBy(func(s *models.Session) bool {
			return s.CurrentChapter == 2 && !s.IsCompleted
		})).Return(nil).Once()
		f.publisher.On("PublishSessionEvent", mock.Anything, eventOfType(interfaces.SessionEventAdvanced)).Return(nil).Once()

		chapter, updated, err := f.svc.AdvanceSequentially(ctx, session.ID)

		require.NoError(t, err)
		assert.Equal(t, next, chapter)
		assert.Equal(t, 2, updated.CurrentChapter)
		f.repos.assertAll(t)
	})

	t.Run("completes after the last chapter", func(t *testing.T) {
		f := newSessionFixture()
		session := activeSession(uuid.New(), 5)
		f.repos.sessions.On("GetByIDForUpdate", mock.Anything, session.ID).Return(session, nil).Once()
		f.repos.chapters.On("GetByStoryAndNumber", mock.Anything, session.StoryID, 6).Return(nil, models.ErrNotFound).Once()
		f.repos.sessions.On("Update", mock.Anything, mock.MatchedBy(func(s *models.Session) bool {
			return s.IsCompleted && s.CurrentChapter == 5
		})).Return(nil).Once()
		f.publisher.On("PublishSessionEvent", mock.Anything, eventOfType(interfaces.SessionEventCompleted)).Return(nil).Once()

		chapter, updated, err := f.svc.AdvanceSequentially(ctx, session.ID)

		require.NoError(t, err)
		assert.Nil(t, chapter)
		assert.True(t, updated.IsCompleted)
		f.repos.assertAll(t)
	})

	t.Run("completed session", func(t *testing.T) {
		f := newSessionFixture()
		session := activeSession(uuid.New(), 2)
		session.IsCompleted = true
		f.repos.sessions.On("GetByIDForUpdate", mock.Anything, session.ID).Return(session, nil).Once()

		_, _, err := f.svc.AdvanceSequentially(ctx, session.ID)

		assert.ErrorIs(t, err, service.ErrSessionCompleted)
		f.repos.chapters.AssertNotCalled(t, "GetByStoryAndNumber", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSessionService_UpdateState(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrites chapter and data", func(t *testing.T) {
		f := newSessionFixture()
		session := activeSession(uuid.New(), 1)
		blob := json.RawMessage(`{"health": 40, "inventory": ["rope"]}`)
		f.repos.sessions.On("GetByIDForUpdate", mock.Anything, session.ID).Return(session, nil).Once()
		f.repos.sessions.On("Update", mock.Anything, mock.MatchedBy(func(s *models.Session) bool {
			return s.CurrentChapter == 7 && string(s.SessionData) == string(blob)
		})).Return(nil).Once()

		updated, err := f.svc.UpdateState(ctx, session.ID, 7, blob)

		require.NoError(t, err)
		assert.Equal(t, 7, updated.CurrentChapter)
		f.repos.assertAll(t)
	})

	t.Run("invalid json", func(t *testing.T) {
		f := newSessionFixture()
		_, err := f.svc.UpdateState(ctx, uuid.New(), 1, json.RawMessage(`{"health":`))
		assert.ErrorIs(t, err, service.ErrInvalidSessionData)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		assert.Equal(t, 0, f.tx.Calls)
	})

	t.Run("missing session", func(t *testing.T) {
		f := newSessionFixture()
		f.repos.sessions.On("GetByIDForUpdate", mock.Anything, mock.Anything).Return(nil, models.ErrNotFound).Once()
		_, err := f.svc.UpdateState(ctx, uuid.New(), 1, json.RawMessage(`{}`))
		assert.ErrorIs(t, err, service.ErrSessionNotFound)
	})

	t.Run("completed session", func(t *testing.T) {
		f := newSessionFixture()
		session := activeSession(uuid.New(), 3)
		session.IsCompleted = true
		f.repos.sessions.On("GetByIDForUpdate", mock.Anything, session.ID).Return(session, nil).Once()
		_, err := f.svc.UpdateState(ctx, session.ID, 1, json.RawMessage(`{}`))
		assert.ErrorIs(t, err, service.ErrSessionCompleted)
		f.repos.sessions.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("empty data keeps existing blob", func(t *testing.T) {
		f := newSessionFixture()
		session := activeSession(uuid.New(), 2)
		original := string(session.SessionData)
		f.repos.sessions.On("GetByIDForUpdate", mock.Anything, session.ID).Return(session, nil).Once()
		f.repos.sessions.On("Update", mock.Anything, mock.MatchedBy(func(s *models.Session) bool {
			return string(s.SessionData) == original
		})).Return(nil).Once()

		_, err := f.svc.UpdateState(ctx, session.ID, 4, nil)

		require.NoError(t, err)
		f.repos.assertAll(t)
	})
}
