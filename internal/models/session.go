package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is derived from IsCompleted.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusCompleted SessionStatus = "COMPLETED"
)

// DefaultSessionData seeds the opaque state blob of a new session.
var DefaultSessionData = json.RawMessage(`{"character_name": "", "health": 100, "inventory": []}`)

// Session is one user's play-through of one story.
type Session struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         uuid.UUID       `json:"userId" db:"user_id"`
	StoryID        uuid.UUID       `json:"storyId" db:"story_id"`
	CurrentChapter int             `json:"currentChapter" db:"current_chapter"`
	SessionData    json.RawMessage `json:"sessionData" db:"session_data"`
	IsCompleted    bool            `json:"isCompleted" db:"is_completed"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	LastPlayed     time.Time       `json:"lastPlayed" db:"last_played"`
}

// Status returns the state machine state of the session.
func (s *Session) Status() SessionStatus {
	if s.IsCompleted {
		return SessionStatusCompleted
	}
	return SessionStatusActive
}

// ChoiceEvent is an append-only record of a session resolving a choice.
type ChoiceEvent struct {
	ID            uuid.UUID `json:"id" db:"id"`
	SessionID     uuid.UUID `json:"sessionId" db:"session_id"`
	ChoiceID      uuid.UUID `json:"choiceId" db:"choice_id"`
	ChapterID     uuid.UUID `json:"chapterId" db:"chapter_id"`
	ChapterNumber int       `json:"chapterNumber" db:"chapter_number"`
	ResolvedAt    time.Time `json:"resolvedAt" db:"resolved_at"`
}

// ChoiceHistoryEntry is a resolved choice together with the chapter and option
// text it referred to.
type ChoiceHistoryEntry struct {
	ChoiceID      uuid.UUID `json:"choiceId" db:"choice_id"`
	ChapterNumber int       `json:"chapterNumber" db:"chapter_number"`
	ChapterTitle  string    `json:"chapterTitle" db:"chapter_title"`
	ChoiceText    string    `json:"choiceText" db:"choice_text"`
	ChosenAt      time.Time `json:"chosenAt" db:"chosen_at"`
}

// ChoiceHistory lists a session's resolved choices, oldest first.
type ChoiceHistory struct {
	SessionID        uuid.UUID            `json:"sessionId"`
	Choices          []ChoiceHistoryEntry `json:"choices"`
	TotalChoicesMade int                  `json:"totalChoicesMade"`
}

// NewChoiceHistory builds the history of sessionID from entries in resolution order.
func NewChoiceHistory(sessionID uuid.UUID, entries []ChoiceHistoryEntry) *ChoiceHistory {
	if entries == nil {
		entries = []ChoiceHistoryEntry{}
	}
	return &ChoiceHistory{SessionID: sessionID, Choices: entries, TotalChoicesMade: len(entries)}
}

// ChapterView is a chapter together with the choices still open to a session.
type ChapterView struct {
	Chapter Chapter  `json:"chapter"`
	Choices []Choice `json:"choices"`
}
