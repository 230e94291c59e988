package handler

import (
	"net/http"

	"storytelling-server/internal/models"
	"storytelling-server/internal/service"

	"github.com/labstack/echo/v4"
)

func (h *StoryHandler) createStory(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	var req createStoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}
	story, err := h.content.CreateStory(c.Request().Context(), userID, service.CreateStoryInput{
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		Difficulty:  models.Difficulty(req.Difficulty),
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, story)
}

func (h *StoryHandler) listPublicStories(c echo.Context) error {
	stories, err := h.content.ListPublicStories(c.Request().Context(), models.StoryFilter{
		Genre:  c.QueryParam("genre"),
		Search: c.QueryParam("search"),
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}
	if stories == nil {
		stories = []models.Story{}
	}
	return c.JSON(http.StatusOK, stories)
}

func (h *StoryHandler) getStory(c echo.Context) error {
	storyID, err := parseUUIDParam(c, "storyId")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	story, err := h.content.GetStory(c.Request().Context(), storyID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, story)
}

func (h *StoryHandler) setStoryVisibility(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	storyID, err := parseUUIDParam(c, "storyId")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	var req setVisibilityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}
	story, err := h.content.SetStoryVisibility(c.Request().Context(), userID, storyID, *req.IsPublic)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, story)
}

func (h *StoryHandler) createChapter(c echo.Context) error {
	editor, err := getEditor(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	storyID, err := parseUUIDParam(c, "storyId")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	var req createChapterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}
	chapter, err := h.content.CreateChapter(c.Request().Context(), editor, storyID, service.CreateChapterInput{
		ChapterNumber: req.ChapterNumber,
		Title:         req.Title,
		Content:       req.Content,
		AIGenerated:   req.AIGenerated,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, chapter)
}

func (h *StoryHandler) listChapters(c echo.Context) error {
	storyID, err := parseUUIDParam(c, "storyId")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	chapters, err := h.content.ListChapters(c.Request().Context(), storyID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	if chapters == nil {
		chapters = []models.Chapter{}
	}
	return c.JSON(http.StatusOK, chapters)
}

func (h *StoryHandler) getChapter(c echo.Context) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	chapter, err := h.content.GetChapter(c.Request().Context(), id)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, chapter)
}

func (h *StoryHandler) updateChapter(c echo.Context) error {
	editor, err := getEditor(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	var req updateChapterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}
	chapter, err := h.content.UpdateChapter(c.Request().Context(), editor, id, models.ChapterPatch{
		ChapterNumber: req.ChapterNumber,
		Title:         req.Title,
		Content:       req.Content,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, chapter)
}

func (h *StoryHandler) deleteChapter(c echo.Context) error {
	editor, err := getEditor(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	if err := h.content.DeleteChapter(c.Request().Context(), editor, id); err != nil {
		return h.handleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *StoryHandler) createChoice(c echo.Context) error {
	editor, err := getEditor(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	chapterID, err := parseUUIDParam(c, "id")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	var req createChoiceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}
	choice, err := h.content.CreateChoice(c.Request().Context(), editor, chapterID, service.CreateChoiceInput{
		OptionNumber:      req.OptionNumber,
		Text:              req.Text,
		Consequence:       req.Consequence,
		EmotionalTone:     req.EmotionalTone,
		NextChapterNumber: req.NextChapterNumber,
	})
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, choice)
}

func (h *StoryHandler) listChoices(c echo.Context) error {
	chapterID, err := parseUUIDParam(c, "id")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	choices, err := h.content.ListChoices(c.Request().Context(), chapterID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	if choices == nil {
		choices = []models.Choice{}
	}
	return c.JSON(http.StatusOK, choices)
}
