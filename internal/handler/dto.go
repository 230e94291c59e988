package handler

import (
	"encoding/json"

	"storytelling-server/internal/models"

	"github.com/google/uuid"
)

type createStoryRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	Genre       string `json:"genre" validate:"max=100"`
	Difficulty  string `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	IsPublic    bool   `json:"isPublic"`
}

type setVisibilityRequest struct {
	IsPublic *bool `json:"isPublic" validate:"required"`
}

type createChapterRequest struct {
	ChapterNumber int    `json:"chapterNumber" validate:"required,min=1"`
	Title         string `json:"title" validate:"required,max=255"`
	Content       string `json:"content" validate:"required"`
	AIGenerated   bool   `json:"aiGenerated"`
}

type updateChapterRequest struct {
	ChapterNumber *int    `json:"chapterNumber" validate:"omitempty,min=1"`
	Title         *string `json:"title" validate:"omitempty,max=255"`
	Content       *string `json:"content"`
}

type createChoiceRequest struct {
	OptionNumber      int     `json:"optionNumber" validate:"required,min=1"`
	Text              string  `json:"text" validate:"required"`
	Consequence       *string `json:"consequence"`
	EmotionalTone     *string `json:"emotionalTone"`
	NextChapterNumber *int    `json:"nextChapterNumber" validate:"omitempty,min=1"`
}

type startSessionRequest struct {
	StoryID uuid.UUID `json:"storyId" validate:"required"`
}

type resolveChoiceRequest struct {
	ChoiceID uuid.UUID `json:"choiceId" validate:"required"`
}

type updateProgressRequest struct {
	ChapterNumber int             `json:"chapterNumber" validate:"required,min=1"`
	SessionData   json.RawMessage `json:"sessionData"`
}

type generateStoryRequest struct {
	StoryID      uuid.UUID      `json:"storyId" validate:"required"`
	SessionID    uuid.UUID      `json:"sessionId" validate:"required"`
	Genre        string         `json:"genre" validate:"required"`
	Theme        *string        `json:"theme"`
	Tone         *string        `json:"tone"`
	TargetLength *int           `json:"targetLength" validate:"omitempty,min=1,max=10000"`
	Context      map[string]any `json:"context"`
}

type generateChoicesRequest struct {
	ChapterID        uuid.UUID      `json:"chapterId" validate:"required"`
	SessionID        uuid.UUID      `json:"sessionId" validate:"required"`
	CurrentSituation string         `json:"currentSituation" validate:"required"`
	NumberOfChoices  int            `json:"numberOfChoices" validate:"omitempty,min=1,max=10"`
	DifficultyLevel  *string        `json:"difficultyLevel"`
	Context          map[string]any `json:"context"`
}

type choiceHistoryResponse struct {
	SessionID        uuid.UUID                   `json:"sessionId"`
	Choices          []models.ChoiceHistoryEntry `json:"choices"`
	TotalChoicesMade int                         `json:"totalChoicesMade"`
}

func newChoiceHistoryResponse(h *models.ChoiceHistory) choiceHistoryResponse {
	choices := h.Choices
	if choices == nil {
		choices = []models.ChoiceHistoryEntry{}
	}
	return choiceHistoryResponse{SessionID: h.SessionID, Choices: choices, TotalChoicesMade: len(choices)}
}

type advanceResponse struct {
	Chapter *models.Chapter `json:"chapter"`
	Session *models.Session `json:"session"`
}

type deletedEntriesResponse struct {
	DeletedEntries int `json:"deletedEntries"`
}
