package service_test

import (
	"testing"

	"storytelling-server/internal/interfaces"
	"storytelling-server/internal/interfaces/mocks"
)

type repoMocks struct {
	stories  *mocks.StoryRepository
	chapters *mocks.ChapterRepository
	choices  *mocks.ChoiceRepository
	sessions *mocks.SessionRepository
	events   *mocks.ChoiceEventRepository
}

func newRepoMocks() *repoMocks {
	return &repoMocks{
		stories:  new(mocks.StoryRepository),
		chapters: new(mocks.ChapterRepository),
		choices:  new(mocks.ChoiceRepository),
		sessions: new(mocks.SessionRepository),
		events:   new(mocks.ChoiceEventRepository),
	}
}

func (r *repoMocks) repos() interfaces.Repositories {
	return interfaces.Repositories{
		Stories:      r.stories,
		Chapters:     r.chapters,
		Choices:      r.choices,
		Sessions:     r.sessions,
		ChoiceEvents: r.events,
	}
}

func (r *repoMocks) assertAll(t *testing.T) {
	r.stories.AssertExpectations(t)
	r.chapters.AssertExpectations(t)
	r.choices.AssertExpectations(t)
	r.sessions.AssertExpectations(t)
	r.events.AssertExpectations(t)
}

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }
