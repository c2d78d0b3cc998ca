package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gaprio/auth-service/internal/service"
)

const (
	userIDContextKey = "userID"
	tokenContextKey  = "accessToken"
)

// BearerAuth validates the Authorization header and stores the user ID and
// raw token in the echo context.
func BearerAuth(tokens *service.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authorization header required")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			userID, err := tokens.ValidateAccessTokenAndGetUserID(c.Request().Context(), parts[1])
			if err != nil {
				return err
			}

			c.Set(userIDContextKey, userID)
			c.Set(tokenContextKey, parts[1])

			return next(c)
		}
	}
}

func UserIDFromContext(c echo.Context) (int64, bool) {
	userID, ok := c.Get(userIDContextKey).(int64)
	return userID, ok
}

func TokenFromContext(c echo.Context) (string, bool) {
	token, ok := c.Get(tokenContextKey).(string)
	return token, ok
}
