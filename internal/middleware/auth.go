package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storytelling-server/internal/models"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const userIDKey = "user_id"

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier func(ctx context.Context, tokenString string) (*models.Claims, error)

// JWTAuth authenticates the bearer token and stores the user id and roles in
// the request context under models.UserContextKey and models.RolesContextKey.
func JWTAuth(verifier TokenVerifier, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			log := logger.With(zap.String("path", req.URL.Path))

			authHeader := req.Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Debug("Authorization header missing")
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header missing")
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Malformed Authorization header")
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			claims, err := verifier(req.Context(), parts[1])
			if err != nil {
				switch {
				case errors.Is(err, models.ErrTokenExpired):
					return echo.NewHTTPError(http.StatusUnauthorized, "Token has expired")
				case errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrTokenInvalid):
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
				}
				log.Error("Unexpected token verification error", zap.Error(err))
				return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error during token verification")
			}

			ctx := context.WithValue(req.Context(), models.UserContextKey, claims.UserID)
			ctx = context.WithValue(ctx, models.RolesContextKey, claims.Roles)
			c.SetRequest(req.WithContext(ctx))
			c.Set(userIDKey, claims.UserID.String())

			return next(c)
		}
	}
}

// RequireRole rejects authenticated users lacking every one of roles. It must
// run after JWTAuth.
func RequireRole(logger *zap.Logger, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRoles, _ := models.GetRolesFromContext(c.Request().Context())
			for _, role := range roles {
				if models.HasRole(userRoles, role) {
					return next(c)
				}
			}
			logger.Warn("User lacks required role",
				zap.Any("userID", c.Get(userIDKey)),
				zap.Strings("userRoles", userRoles),
				zap.Strings("requiredRoles", roles),
			)
			return echo.NewHTTPError(http.StatusForbidden, "Forbidden: insufficient permissions")
		}
	}
}
