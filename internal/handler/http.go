package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"storytelling-server/internal/ai"
	"storytelling-server/internal/models"
	"storytelling-server/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// APIError is the body of every error response.
type APIError struct {
	Message string `json:"message"`
}

// GameplayService is the part of service.ProgressionService the HTTP layer uses.
type GameplayService interface {
	StartSession(ctx context.Context, userID, storyID uuid.UUID) (*models.Session, bool, error)
	GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.Session, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
	ChoiceHistory(ctx context.Context, userID, sessionID uuid.UUID) (*models.ChoiceHistory, error)
	GetCurrentChapter(ctx context.Context, userID, sessionID uuid.UUID) (*models.ChapterView, error)
	ResolveChoice(ctx context.Context, userID, sessionID, choiceID uuid.UUID) (*service.ResolutionResult, error)
	AdvanceSequentially(ctx context.Context, userID, sessionID uuid.UUID) (*models.Chapter, *models.Session, error)
	UpdateState(ctx context.Context, userID, sessionID uuid.UUID, chapterNumber int, data json.RawMessage) (*models.Session, error)

	GenerateStory(ctx context.Context, userID uuid.UUID, req ai.StoryRequest) (*ai.StoryResult, error)
	GenerateChoices(ctx context.Context, userID uuid.UUID, req ai.ChoicesRequest) (*ai.ChoicesResult, error)
	AIStatus(ctx context.Context) (*service.AIStatus, error)
	CacheStats(ctx context.Context) (models.CacheStats, error)
	SweepExpiredCache(ctx context.Context) (int, error)
	ClearCache(ctx context.Context) (int, error)
}

var _ GameplayService = (*service.ProgressionService)(nil)

// StoryHandler serves the story engine REST API.
type StoryHandler struct {
	content  service.ContentService
	gameplay GameplayService
	logger   *zap.Logger
}

func NewStoryHandler(content service.ContentService, gameplay GameplayService, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{
		content:  content,
		gameplay: gameplay,
		logger:   logger.Named("StoryHandler"),
	}
}

// RegisterRoutes mounts the API under /api/v1. authMiddleware authenticates
// the caller; adminMiddleware additionally requires the admin role.
func (h *StoryHandler) RegisterRoutes(e *echo.Echo, authMiddleware, adminMiddleware echo.MiddlewareFunc) {
	api := e.Group("/api/v1", authMiddleware)

	stories := api.Group("/stories")
	{
		stories.POST("", h.createStory)
		stories.GET("", h.listPublicStories)
		stories.GET("/:storyId", h.getStory)
		stories.PATCH("/:storyId/visibility", h.setStoryVisibility)
		stories.POST("/:storyId/chapters", h.createChapter)
		stories.GET("/:storyId/chapters", h.listChapters)
	}

	chapters := api.Group("/chapters")
	{
		chapters.GET("/:id", h.getChapter)
		chapters.PATCH("/:id", h.updateChapter)
		chapters.DELETE("/:id", h.deleteChapter)
		chapters.POST("/:id/choices", h.createChoice)
		chapters.GET("/:id/choices", h.listChoices)
	}

	sessions := api.Group("/sessions")
	{
		sessions.POST("", h.startSession)
		sessions.GET("", h.listSessions)
		sessions.GET("/:id", h.getSession)
		sessions.GET("/:id/current", h.getCurrentChapter)
		sessions.GET("/:id/history", h.getChoiceHistory)
		sessions.POST("/:id/choices", h.resolveChoice)
		sessions.POST("/:id/next", h.advanceSequentially)
		sessions.PUT("/:id/progress", h.updateProgress)
	}

	aiGroup := api.Group("/ai")
	{
		aiGroup.POST("/generate-story", h.generateStory)
		aiGroup.POST("/generate-choices", h.generateChoices)
		aiGroup.GET("/status", h.aiStatus)
		aiGroup.GET("/cache/stats", h.cacheStats)
		aiGroup.DELETE("/cache/expired", h.sweepExpiredCache)
		aiGroup.DELETE("/cache", h.clearCache, adminMiddleware)
	}
}

// --- helpers --- //

func getUserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok || userID == uuid.Nil {
		return uuid.Nil, models.ErrUnauthorized
	}
	return userID, nil
}

func getEditor(c echo.Context) (service.Editor, error) {
	userID, err := getUserID(c)
	if err != nil {
		return service.Editor{}, err
	}
	roles, _ := models.GetRolesFromContext(c.Request().Context())
	return service.Editor{UserID: userID, Admin: models.HasRole(roles, models.RoleAdmin)}, nil
}

func parseUUIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, &validationError{msg: "invalid " + name}
	}
	return id, nil
}

// bindAndValidate decodes the JSON body into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return &validationError{msg: "invalid request body"}
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}

func (h *StoryHandler) handleServiceError(c echo.Context, err error) error {
	var (
		status int
		msg    string
		verr   *validationError
		herr   *echo.HTTPError
	)
	switch {
	case errors.As(err, &verr):
		status, msg = http.StatusBadRequest, verr.Error()
	case errors.As(err, &herr):
		return herr
	case errors.Is(err, models.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, models.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, models.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, models.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, ai.ErrProviderUnavailable):
		status, msg = http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, ai.ErrGenerationFailed):
		status, msg = http.StatusBadGateway, err.Error()
	default:
		status, msg = http.StatusInternalServerError, "Internal server error"
		h.logger.Error("Unhandled service error",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.JSON(status, APIError{Message: msg})
}
