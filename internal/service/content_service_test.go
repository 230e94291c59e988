package service_test

import (
	"context"
	"testing"

	"storytelling-server/internal/models"
	"storytelling-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newContentFixture() (*repoMocks, service.ContentService) {
	r := newRepoMocks()
	return r, service.NewContentService(r.repos(), zap.NewNop())
}

func TestContentService_CreateStory(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()

	t.Run("defaults difficulty to medium", func(t *testing.T) {
		r, svc := newContentFixture()
		r.stories.On("Create", mock.Anything, mock.MatchedBy(func(s *models.Story) bool {
			return s.OwnerID == ownerID && s.Difficulty == models.DifficultyMedium && !s.IsPublic
		})).Return(nil).Once()

		story, err := svc.CreateStory(ctx, ownerID, service.CreateStoryInput{Title: "  The Keep  ", Genre: "fantasy"})

		require.NoError(t, err)
		assert.Equal(t, "The Keep", story.Title)
		r.assertAll(t)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, svc := newContentFixture()
		_, err := svc.CreateStory(ctx, ownerID, service.CreateStoryInput{Title: ""})
		assert.ErrorIs(t, err, models.ErrInvalidInput)

		_, err = svc.CreateStory(ctx, ownerID, service.CreateStoryInput{Title: "x", Difficulty: "NIGHTMARE"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestContentService_ListPublicStories(t *testing.T) {
	ctx := context.Background()
	r, svc := newContentFixture()
	r.stories.On("ListPublic", mock.Anything, models.StoryFilter{Genre: "horror", Search: "lighthouse"}).
		Return(nil, nil).Once()

	stories, err := svc.ListPublicStories(ctx, models.StoryFilter{Genre: " horror ", Search: "  lighthouse\t"})

	require.NoError(t, err)
	assert.NotNil(t, stories)
	assert.Empty(t, stories)
	r.assertAll(t)
}

func TestContentService_SetStoryVisibility(t *testing.T) {
	ctx := context.Background()
	story := &models.Story{ID: uuid.New(), OwnerID: uuid.New()}

	t.Run("owner toggles", func(t *testing.T) {
		r, svc := newContentFixture()
		r.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()
		r.stories.On("UpdateVisibility", mock.Anything, story.ID, true).Return(nil).Once()

		updated, err := svc.SetStoryVisibility(ctx, story.OwnerID, story.ID, true)

		require.NoError(t, err)
		assert.True(t, updated.IsPublic)
		r.assertAll(t)
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		r, svc := newContentFixture()
		r.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()

		_, err := svc.SetStoryVisibility(ctx, uuid.New(), story.ID, true)

		assert.ErrorIs(t, err, models.ErrForbidden)
		r.stories.AssertNotCalled(t, "UpdateVisibility", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestContentService_CreateChapter(t *testing.T) {
	ctx := context.Background()
	story := &models.Story{ID: uuid.New(), OwnerID: uuid.New()}
	owner := service.Editor{UserID: story.OwnerID}

	t.Run("story not found", func(t *testing.T) {
		r, svc := newContentFixture()
		r.stories.On("GetByID", mock.Anything, story.ID).Return(nil, models.ErrNotFound).Once()

		_, err := svc.CreateChapter(ctx, owner, story.ID, service.CreateChapterInput{ChapterNumber: 1})
		assert.ErrorIs(t, err, service.ErrStoryNotFound)
	})

	t.Run("duplicate number", func(t *testing.T) {
		r, svc := newContentFixture()
		r.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()
		r.chapters.On("GetByStoryAndNumber", mock.Anything, story.ID, 1).Return(&models.Chapter{}, nil).Once()

		_, err := svc.CreateChapter(ctx, owner, story.ID, service.CreateChapterInput{ChapterNumber: 1})
		assert.ErrorIs(t, err, service.ErrDuplicateChapterNumber)
		assert.ErrorIs(t, err, models.ErrConflict)
		r.chapters.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("insert race maps to conflict", func(t *testing.T) {
		r, svc := newContentFixture()
		r.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()
		r.chapters.On("GetByStoryAndNumber", mock.Anything, story.ID, 2).Return(nil, models.ErrNotFound).Once()
		r.chapters.On("Create", mock.Anything, mock.Anything).Return(models.ErrConflict).Once()

		_, err := svc.CreateChapter(ctx, owner, story.ID, service.CreateChapterInput{ChapterNumber: 2})
		assert.ErrorIs(t, err, service.ErrDuplicateChapterNumber)
	})

	t.Run("admin may write to any story", func(t *testing.T) {
		r, svc := newContentFixture()
		r.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()
		r.chapters.On("GetByStoryAndNumber", mock.Anything, story.ID, 3).Return(nil, models.ErrNotFound).Once()
		r.chapters.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Chapter) bool {
			return c.StoryID == story.ID && c.ChapterNumber == 3 && c.AIGenerated
		})).Return(nil).Once()

		chapter, err := svc.CreateChapter(ctx, service.Editor{UserID: uuid.New(), Admin: true}, story.ID,
			service.CreateChapterInput{ChapterNumber: 3, Title: "Night", Content: "# Night", AIGenerated: true})

		require.NoError(t, err)
		assert.Equal(t, "Night", chapter.Title)
		r.assertAll(t)
	})

	t.Run("stranger forbidden", func(t *testing.T) {
		r, svc := newContentFixture()
		r.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()

		_, err := svc.CreateChapter(ctx, service.Editor{UserID: uuid.New()}, story.ID, service.CreateChapterInput{ChapterNumber: 1})
		assert.ErrorIs(t, err, models.ErrForbidden)
	})
}

func TestContentService_ListChapters(t *testing.T) {
	ctx := context.Background()
	storyID := uuid.New()

	r, svc := newContentFixture()
	r.stories.On("Exists", mock.Anything, storyID).Return(false, nil).Once()
	_, err := svc.ListChapters(ctx, storyID)
	assert.ErrorIs(t, err, service.ErrStoryNotFound)

	r, svc = newContentFixture()
	chapters := []models.Chapter{{ChapterNumber: 1}, {ChapterNumber: 2}}
	r.stories.On("Exists", mock.Anything, storyID).Return(true, nil).Once()
	r.chapters.On("ListByStory", mock.Anything, storyID).Return(chapters, nil).Once()
	got, err := svc.ListChapters(ctx, storyID)
	require.NoError(t, err)
	assert.Equal(t, chapters, got)
}

func TestContentService_UpdateChapter(t *testing.T) {
	ctx := context.Background()
	story := &models.Story{ID: uuid.New(), OwnerID: uuid.New()}
	owner := service.Editor{UserID: story.OwnerID}

	newChapter := func() *models.Chapter {
		return &models.Chapter{ID: uuid.New(), StoryID: story.ID, ChapterNumber: 1, Title: "Old", Content: "old body"}
	}

	t.Run("patches only supplied fields", func(t *testing.T) {
		r, svc := newContentFixture()
		chapter := newChapter()
		r.chapters.On("GetByID", mock.Anything, chapter.ID).Return(chapter, nil).Once()
		r.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()
		r.chapters.On("Update", mock.Anything, mock.Anything).Return(nil).Once()

		updated, err := svc.UpdateChapter(ctx, owner, chapter.ID, models.ChapterPatch{Title: strPtr("New")})

		require.NoError(t, err)
		assert.Equal(t, "New", updated.Title)
		assert.Equal(t, "old body", updated.Content)
		assert.Equal(t, 1, updated.ChapterNumber)
		r.assertAll(t)
	})

	t.Run("renumber onto taken number", func(t *testing.T) {
		r, svc := newContentFixture()
		chapter := newChapter()
		r.chapters.On("GetByID", mock.Anything, chapter.ID).Return(chapter, nil).Once()
		r.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()
		r.chapters.On("GetByStoryAndNumber", mock.Anything, story.ID, 2).Return(&models.Chapter{}, nil).Once()

		_, err := svc.UpdateChapter(ctx, owner, chapter.ID, models.ChapterPatch{ChapterNumber: intPtr(2)})
		assert.ErrorIs(t, err, service.ErrDuplicateChapterNumber)
		r.chapters.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("renumber to free number", func(t *testing.T) {
		r, svc := newContentFixture()
		chapter := newChapter()
		r.chapters.On("GetByID", mock.Anything, chapter.ID).Return(chapter, nil).Once()
		r.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()
		r.chapters.On("GetByStoryAndNumber", mock.Anything, story.ID, 4).Return(nil, models.ErrNotFound).Once()
		r.sessions.On("CountActiveOnChapter", mock.Anything, story.ID, 1).Return(0, nil).Once()
		r.chapters.On("Update", mock.Anything, mock.MatchedBy(func(c *models.Chapter) bool {
			return c.ChapterNumber == 4
		})).Return(nil).Once()

		updated, err := svc.UpdateChapter(ctx, owner, chapter.ID, models.ChapterPatch{ChapterNumber: intPtr(4)})
		require.NoError(t, err)
		assert.Equal(t, 4, updated.ChapterNumber)
		r.assertAll(t)
	})

	t.Run("missing chapter", func(t *testing.T) {
		r, svc := newContentFixture()
		r.chapters.On("GetByID", mock.Anything, mock.Anything).Return(nil, models.ErrNotFound).Once()
		_, err := svc.UpdateChapter(ctx, owner, uuid.New(), models.ChapterPatch{})
		assert.ErrorIs(t, err, service.ErrChapterNotFound)
	})
}

func TestContentService_DeleteChapter(t *testing.T) {
	ctx := context.Background()
	story := &models.Story{ID: uuid.New(), OwnerID: uuid.New()}
	owner := service.Editor{UserID: story.OwnerID}
	chapter := &models.Chapter{ID: uuid.New(), StoryID: story.ID, ChapterNumber: 2}

	t.Run("in use by active session", func(t *testing.T) {
		r, svc := newContentFixture()
		r.chapters.On("GetByID", mock.Anything, chapter.ID).Return(chapter, nil).Once()
		r.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()
		r.sessions.On("CountActiveOnChapter", mock.Anything, story.ID, 2).Return(1, nil).Once()

		err := svc.DeleteChapter(ctx, owner, chapter.ID)
		assert.ErrorIs(t, err, service.ErrChapterInUse)
		r.chapters.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("deletes unused chapter", func(t *testing.T) {
		r, svc := newContentFixture()
		r.chapters.On("GetByID", mock.Anything, chapter.ID).Return(chapter, nil).Once()
		r.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()
		r.sessions.On("CountActiveOnChapter", mock.Anything, story.ID, 2).Return(0, nil).Once()
		r.chapters.On("Delete", mock.Anything, chapter.ID).Return(nil).Once()

		require.NoError(t, svc.DeleteChapter(ctx, owner, chapter.ID))
		r.assertAll(t)
	})
}

func TestContentService_CreateChoice(t *testing.T) {
	ctx := context.Background()
	story := &models.Story{ID: uuid.New(), OwnerID: uuid.New()}
	owner := service.Editor{UserID: story.OwnerID}
	chapter := &models.Chapter{ID: uuid.New(), StoryID: story.ID, ChapterNumber: 1}

	t.Run("chapter not found", func(t *testing.T) {
		r, svc := newContentFixture()
		r.chapters.On("GetByID", mock.Anything, chapter.ID).Return(nil, models.ErrNotFound).Once()

		_, err := svc.CreateChoice(ctx, owner, chapter.ID, service.CreateChoiceInput{OptionNumber: 1, Text: "Go"})
		assert.ErrorIs(t, err, service.ErrChapterNotFound)
	})

	t.Run("duplicate option number", func(t *testing.T) {
		r, svc := newContentFixture()
		r.chapters.On("GetByID", mock.Anything, chapter.ID).Return(chapter, nil).Once()
		r.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()
		r.choices.On("Create", mock.Anything, mock.Anything).Return(models.ErrConflict).Once()

		_, err := svc.CreateChoice(ctx, owner, chapter.ID, service.CreateChoiceInput{OptionNumber: 1, Text: "Go"})
		assert.ErrorIs(t, err, service.ErrDuplicateOptionNumber)
	})

	t.Run("creates terminal choice", func(t *testing.T) {
		r, svc := newContentFixture()
		r.chapters.On("GetByID", mock.Anything, chapter.ID).Return(chapter, nil).Once()
		r.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()
		r.choices.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Choice) bool {
			return c.ChapterID == chapter.ID && c.OptionNumber == 2 && c.EndsStory()
		})).Return(nil).Once()

		choice, err := svc.CreateChoice(ctx, owner, chapter.ID, service.CreateChoiceInput{
			OptionNumber: 2, Text: "Jump", Consequence: strPtr("The end"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Jump", choice.Text)
		r.assertAll(t)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, svc := newContentFixture()
		_, err := svc.CreateChoice(ctx, owner, chapter.ID, service.CreateChoiceInput{OptionNumber: 0, Text: "Go"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
		_, err = svc.CreateChoice(ctx, owner, chapter.ID, service.CreateChoiceInput{OptionNumber: 1, Text: "Go", NextChapterNumber: intPtr(0)})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}
