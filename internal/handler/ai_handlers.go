package handler

import (
	"errors"
	"net/http"

	"storytelling-server/internal/ai"

	"github.com/labstack/echo/v4"
)

// generateStory answers 503 with the fallback payload when no provider is configured.
func (h *StoryHandler) generateStory(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	var req generateStoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}
	result, err := h.gameplay.GenerateStory(c.Request().Context(), userID, ai.StoryRequest{
		StoryID:      req.StoryID,
		SessionID:    req.SessionID,
		Genre:        req.Genre,
		Theme:        req.Theme,
		Tone:         req.Tone,
		TargetLength: req.TargetLength,
		Context:      req.Context,
	})
	if err != nil {
		if errors.Is(err, ai.ErrProviderUnavailable) && result != nil {
			return c.JSON(http.StatusServiceUnavailable, result)
		}
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *StoryHandler) generateChoices(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return h.handleServiceError(c, err)
	}
	var req generateChoicesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.handleServiceError(c, err)
	}
	result, err := h.gameplay.GenerateChoices(c.Request().Context(), userID, ai.ChoicesRequest{
		ChapterID:        req.ChapterID,
		SessionID:        req.SessionID,
		CurrentSituation: req.CurrentSituation,
		NumberOfChoices:  req.NumberOfChoices,
		DifficultyLevel:  req.DifficultyLevel,
		Context:          req.Context,
	})
	if err != nil {
		if errors.Is(err, ai.ErrProviderUnavailable) && result != nil {
			return c.JSON(http.StatusServiceUnavailable, result)
		}
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *StoryHandler) aiStatus(c echo.Context) error {
	status, err := h.gameplay.AIStatus(c.Request().Context())
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

func (h *StoryHandler) cacheStats(c echo.Context) error {
	stats, err := h.gameplay.CacheStats(c.Request().Context())
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *StoryHandler) sweepExpiredCache(c echo.Context) error {
	n, err := h.gameplay.SweepExpiredCache(c.Request().Context())
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, deletedEntriesResponse{DeletedEntries: n})
}

func (h *StoryHandler) clearCache(c echo.Context) error {
	n, err := h.gameplay.ClearCache(c.Request().Context())
	if err != nil {
		return h.handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, deletedEntriesResponse{DeletedEntries: n})
}
