package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gaprio/auth-service/internal/service"
	"github.com/gaprio/auth-service/internal/util"
)

type errorResponse struct {
	Reason string `json:"reason"`
}

// ErrorHandler maps service errors onto the HTTP statuses the client
// pipeline inspects. Only expired/invalid credential errors become 401.
func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if status, ok := statusForServiceError(err); ok {
			c.JSON(status, errorResponse{Reason: err.Error()})
			return
		}

		var customErr util.ResponseError
		if errors.As(err, &customErr) {
			c.JSON(customErr.Status, errorResponse{Reason: customErr.Msg})
			return
		}

		he, ok := err.(*echo.HTTPError)
		if ok {
			if he.Code == http.StatusInternalServerError {
				log.Errorw("HTTP error", "error", err, "uri", c.Request().RequestURI)
			}
			msg, isString := he.Message.(string)
			if !isString {
				msg = http.StatusText(he.Code)
			}
			if err := c.JSON(he.Code, errorResponse{Reason: msg}); err != nil {
				log.Errorw("failed to write json response", "error", err)
			}
			return
		}

		log.Errorw("unhandled error", "error", err, "uri", c.Request().RequestURI)
		c.JSON(http.StatusInternalServerError, errorResponse{Reason: "internal server error"})
	}
}

func statusForServiceError(err error) (int, bool) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrCodeInvalid),
		errors.Is(err, service.ErrRefreshTokenInvalid),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrTokenInvalid),
		errors.Is(err, service.ErrTokenMalformed),
		errors.Is(err, service.ErrTokenRevoked):
		return http.StatusUnauthorized, true
	case errors.Is(err, service.ErrUnverifiedAccount):
		return http.StatusForbidden, true
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, true
	default:
		return 0, false
	}
}
