package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionEventType names a session lifecycle event.
type SessionEventType string

const (
	SessionEventStarted   SessionEventType = "session.started"
	SessionEventAdvanced  SessionEventType = "session.advanced"
	SessionEventCompleted SessionEventType = "session.completed"
)

// SessionEvent is published after a session transition commits.
type SessionEvent struct {
	EventType     SessionEventType `json:"event_type"`
	SessionID     uuid.UUID        `json:"session_id"`
	UserID        uuid.UUID        `json:"user_id"`
	StoryID       uuid.UUID        `json:"story_id"`
	ChapterNumber int              `json:"chapter_number"`
	ChoiceID      *uuid.UUID       `json:"choice_id,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

// SessionEventPublisher delivers session events to downstream consumers.
type SessionEventPublisher interface {
	PublishSessionEvent(ctx context.Context, event SessionEvent) error
}
