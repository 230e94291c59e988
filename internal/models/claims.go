package models

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleAdmin grants access to cache maintenance and authoring of foreign stories.
const RoleAdmin = "admin"

// Claims are the JWT claims issued by the identity provider.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Roles  []string  `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether roles contains role.
func HasRole(roles []string, role string) bool {
	return slices.Contains(roles, role)
}
