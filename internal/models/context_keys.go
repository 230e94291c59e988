package models

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	// UserContextKey holds the authenticated user's uuid.UUID.
	UserContextKey contextKey = "userID"
	// RolesContextKey holds the authenticated user's []string roles.
	RolesContextKey contextKey = "userRoles"
)

// GetUserIDFromContext returns the user id stored by the auth middleware.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserContextKey).(uuid.UUID)
	return userID, ok
}

// GetRolesFromContext returns the roles stored by the auth middleware.
func GetRolesFromContext(ctx context.Context) ([]string, bool) {
	roles, ok := ctx.Value(RolesContextKey).([]string)
	return roles, ok
}
