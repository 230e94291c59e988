package handler

import (
	"net/http"

	"storytelling-server/internal/models"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// startSession returns 201 for a new session and 200 when the user already
// had an active one for the story.
func (h *StoryHandler) startSession(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	var req startSessionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}
	session, created, err := h.gameplay.StartSession(c.Request().Context(), userID, req.StoryID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, session)
}

func (h *StoryHandler) listSessions(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	sessions, err := h.gameplay.ListSessions(c.Request().Context(), userID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	return c.JSON(http.StatusOK, sessions)
}

func (h *StoryHandler) getSession(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	sessionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	session, err := h.gameplay.GetSession(c.Request().Context(), userID, sessionID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *StoryHandler) getCurrentChapter(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	sessionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	view, err := h.gameplay.GetCurrentChapter(c.Request().Context(), userID, sessionID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *StoryHandler) getChoiceHistory(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	sessionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	history, err := h.gameplay.ChoiceHistory(c.Request().Context(), userID, sessionID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, newChoiceHistoryResponse(history))
}

func (h *StoryHandler) resolveChoice(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	sessionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	var req resolveChoiceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}
	result, err := h.gameplay.ResolveChoice(c.Request().Context(), userID, sessionID, req.ChoiceID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	h.logger.Debug("Choice resolved",
		zap.Stringer("sessionID", sessionID),
		zap.Stringer("choiceID", req.ChoiceID),
		zap.Bool("completed", result.Completed),
	)
	return c.JSON(http.StatusOK, result)
}

// advanceSequentially answers 204 once the story has no further chapter.
func (h *StoryHandler) advanceSequentially(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	sessionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	chapter, session, err := h.gameplay.AdvanceSequentially(c.Request().Context(), userID, sessionID)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	if chapter == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, advanceResponse{Chapter: chapter, Session: session})
}

func (h *StoryHandler) updateProgress(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	sessionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return h.handleServiceError(c, err)
	}
	var req updateProgressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}
	session, err := h.gameplay.UpdateState(c.Request().Context(), userID, sessionID, req.ChapterNumber, req.SessionData)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}
