package models

import "errors"

// Application-wide standard errors. Domain errors wrap one of these so that
// callers can classify them with errors.Is.
var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("conflict")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	ErrInvalidInput = errors.New("invalid input data")
)
