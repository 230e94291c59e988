package ai

import "github.com/google/uuid"

// DefaultNumberOfChoices is used when a choices request does not set a count.
const DefaultNumberOfChoices = 3

// StoryRequest describes a chapter to generate.
type StoryRequest struct {
	StoryID      uuid.UUID
	SessionID    uuid.UUID
	Genre        string
	Theme        *string
	Tone         *string
	TargetLength *int
	Context      map[string]any
}

// ChoicesRequest describes a set of player choices to generate.
type ChoicesRequest struct {
	ChapterID        uuid.UUID
	SessionID        uuid.UUID
	CurrentSituation string
	NumberOfChoices  int
	DifficultyLevel  *string
	Context          map[string]any
}

// count returns the requested number of choices, falling back to the default.
func (r ChoicesRequest) count() int {
	if r.NumberOfChoices <= 0 {
		return DefaultNumberOfChoices
	}
	return r.NumberOfChoices
}

// StoryResult is the outcome of GenerateStory.
type StoryResult struct {
	Content   string `json:"content"`
	WordCount int    `json:"wordCount"`
	Provider  string `json:"aiProvider"`
	Cached    bool   `json:"cached"`
	Fallback  bool   `json:"fallback,omitempty"`
}

// GeneratedChoice is one parsed choice record.
type GeneratedChoice struct {
	Text          string `json:"choiceText"`
	Consequence   string `json:"consequence"`
	EmotionalTone string `json:"emotionalTone,omitempty"`
}

// ChoicesResult is the outcome of GenerateChoices.
type ChoicesResult struct {
	Choices  []GeneratedChoice `json:"choices"`
	Provider string            `json:"aiProvider"`
	Cached   bool              `json:"cached"`
	Fallback bool              `json:"fallback,omitempty"`
}

// GenerationParams are per-call sampling parameters.
// Pointers distinguish an explicit zero from "use the vendor default".
type GenerationParams struct {
	Temperature *float64
	MaxTokens   *int
}

// UsageInfo carries token usage reported (or estimated) for one call.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
