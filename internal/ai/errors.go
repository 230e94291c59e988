package ai

import "errors"

var (
	// ErrGenerationFailed covers provider errors, empty or garbled responses and timeouts.
	ErrGenerationFailed = errors.New("ai generation failed")
	// ErrProviderUnavailable is returned when no usable credential is configured.
	ErrProviderUnavailable = errors.New("ai provider unavailable")
)
