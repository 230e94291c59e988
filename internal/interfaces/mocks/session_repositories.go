package mocks

import (
	"context"

	"storytelling-server/internal/interfaces"
	"storytelling-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// SessionRepository mocks interfaces.SessionRepository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}
func (m *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}
func (m *SessionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}
func (m *SessionRepository) FindActive(ctx context.Context, userID, storyID uuid.UUID) (*models.Session, error) {
	args := m.Called(ctx, userID, storyID)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}
func (m *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	args := m.Called(ctx, userID)
	sessions, _ := args.Get(0).([]models.Session)
	return sessions, args.Error(1)
}
func (m *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}
func (m *SessionRepository) CountActiveOnChapter(ctx context.Context, storyID uuid.UUID, number int) (int, error) {
	args := m.Called(ctx, storyID, number)
	return args.Int(0), args.Error(1)
}

// ChoiceEventRepository mocks interfaces.ChoiceEventRepository.
type ChoiceEventRepository struct {
	mock.Mock
}

func (m *ChoiceEventRepository) Append(ctx context.Context, event *models.ChoiceEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
func (m *ChoiceEventRepository) ListHistory(ctx context.Context, sessionID uuid.UUID) ([]models.ChoiceHistoryEntry, error) {
	args := m.Called(ctx, sessionID)
	entries, _ := args.Get(0).([]models.ChoiceHistoryEntry)
	return entries, args.Error(1)
}

// TxManager runs fn directly against Repos, without a real transaction.
type TxManager struct {
	Repos interfaces.Repositories
	Calls int
}

func (m *TxManager) WithinTx(_ context.Context, fn func(repos interfaces.Repositories) error) error {
	m.Calls++
	return fn(m.Repos)
}

// SessionEventPublisher mocks interfaces.SessionEventPublisher.
type SessionEventPublisher struct {
	mock.Mock
}

func (m *SessionEventPublisher) PublishSessionEvent(ctx context.Context, event interfaces.SessionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

var (
	_ interfaces.SessionRepository     = (*SessionRepository)(nil)
	_ interfaces.ChoiceEventRepository = (*ChoiceEventRepository)(nil)
	_ interfaces.TxManager             = (*TxManager)(nil)
	_ interfaces.SessionEventPublisher = (*SessionEventPublisher)(nil)
)
