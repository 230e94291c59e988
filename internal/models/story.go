package models

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty of a story.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// StoryFilter narrows the public story listing. Empty fields match everything.
type StoryFilter struct {
	Genre string
	// Search is matched case-insensitively against title and description.
	Search string
}

// Story is an authored piece of interactive fiction.
type Story struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	OwnerID     uuid.UUID  `json:"ownerId" db:"owner_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Genre       string     `json:"genre" db:"genre"`
	Difficulty  Difficulty `json:"difficulty" db:"difficulty"`
	IsPublic    bool       `json:"isPublic" db:"is_public"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// Chapter belongs to exactly one story; ChapterNumber is unique within it.
type Chapter struct {
	ID            uuid.UUID `json:"id" db:"id"`
	StoryID       uuid.UUID `json:"storyId" db:"story_id"`
	ChapterNumber int       `json:"chapterNumber" db:"chapter_number"`
	Title         string    `json:"title" db:"title"`
	Content       string    `json:"content" db:"content"`
	AIGenerated   bool      `json:"aiGenerated" db:"ai_generated"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// ChapterPatch carries the fields of a partial chapter update. Nil fields are left unchanged.
type ChapterPatch struct {
	ChapterNumber *int
	Title         *string
	Content       *string
}

// Choice is an immutable option defined on a chapter. Whether a session has
// picked it lives in ChoiceEvent, not here.
type Choice struct {
	ID                uuid.UUID `json:"id" db:"id"`
	ChapterID         uuid.UUID `json:"chapterId" db:"chapter_id"`
	OptionNumber      int       `json:"optionNumber" db:"option_number"`
	Text              string    `json:"text" db:"choice_text"`
	Consequence       *string   `json:"consequence,omitempty" db:"consequence"`
	EmotionalTone     *string   `json:"emotionalTone,omitempty" db:"emotional_tone"`
	NextChapterNumber *int      `json:"nextChapterNumber,omitempty" db:"next_chapter_number"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
}

// EndsStory reports whether picking the choice completes the session.
func (c *Choice) EndsStory() bool {
	return c.NextChapterNumber == nil
}
