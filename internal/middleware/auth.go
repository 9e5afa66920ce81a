package middleware

import (
	"attendance-service/internal/model"
	"attendance-service/pkg/database"
	"attendance-service/pkg/jwtutil"
	"attendance-service/pkg/logger"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PrincipalKey is the echo context key holding the acting user.
const PrincipalKey = "principal"

// AuthMiddleware validates the bearer token and loads the acting user from
// the database. Handlers always see the stored role and manager link, not the
// snapshot baked into the token, so role changes take effect immediately.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Warn("Invalid JWT token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Load the acting user so downstream checks see current role/manager
		var user model.User
		if err := database.GetDB().First(&user, claims.UserID).Error; err != nil {
			log.Warn("Token subject no longer exists", zap.Uint("user_id", claims.UserID))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		c.Set(PrincipalKey, user)
		c.Set("user_id", user.ID)

		// Update logger with principal information
		log = log.With(zap.Uint("user_id", user.ID), zap.String("role", user.Role))
		c.Set("logger", log)

		return next(c)
	}
}

// Principal returns the acting user stored by AuthMiddleware.
func Principal(c echo.Context) (model.User, bool) {
	user, ok := c.Get(PrincipalKey).(model.User)
	return user, ok
}
