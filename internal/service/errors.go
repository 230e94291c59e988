package service

import (
	"fmt"

	"storytelling-server/internal/models"
)

// Domain errors wrap the models taxonomy so handlers classify them with errors.Is.
var (
	ErrStoryNotFound   = fmt.Errorf("%w: story", models.ErrNotFound)
	ErrChapterNotFound = fmt.Errorf("%w: chapter", models.ErrNotFound)
	ErrChoiceNotFound  = fmt.Errorf("%w: choice", models.ErrNotFound)
	ErrSessionNotFound = fmt.Errorf("%w: session", models.ErrNotFound)

	ErrSessionCompleted          = fmt.Errorf("%w: session is already completed", models.ErrConflict)
	ErrChoiceNotInCurrentChapter = fmt.Errorf("%w: choice does not belong to the current chapter", models.ErrConflict)
	ErrChoiceAlreadyResolved     = fmt.Errorf("%w: choice already resolved in this session", models.ErrConflict)
	ErrDuplicateChapterNumber    = fmt.Errorf("%w: chapter number already exists in story", models.ErrConflict)
	ErrDuplicateOptionNumber     = fmt.Errorf("%w: option number already exists in chapter", models.ErrConflict)
	ErrChapterInUse              = fmt.Errorf("%w: chapter is the current chapter of an active session", models.ErrConflict)

	ErrNotStoryOwner      = fmt.Errorf("%w: only the story owner may change it", models.ErrForbidden)
	ErrInvalidSessionData = fmt.Errorf("%w: session data must be valid JSON", models.ErrInvalidInput)
)
