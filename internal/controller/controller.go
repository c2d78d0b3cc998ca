package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/gaprio/auth-service/internal/api/middleware"
	"github.com/gaprio/auth-service/internal/models"
	"github.com/gaprio/auth-service/internal/service"
)

type Controller struct {
	log         *zap.SugaredLogger
	authService *service.AuthService
}

func NewController(log *zap.SugaredLogger, authService *service.AuthService) *Controller {
	return &Controller{
		log:         log,
		authService: authService,
	}
}

// (POST /auth/register).
func (c *Controller) Register(ctx echo.Context) error {
	var req models.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "fullName, email and password are required")
	}

	if err := c.authService.Register(ctx.Request().Context(), req.FullName, req.Email, req.Password); err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, models.AckResponse{Message: "verification code sent"})
}

// (POST /auth/login).
func (c *Controller) Login(ctx echo.Context) error {
	var req models.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	pair, err := c.authService.Login(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, models.DataEnvelope[models.TokenPair]{Data: *pair})
}

// (POST /auth/verify-email).
func (c *Controller) VerifyEmail(ctx echo.Context) error {
	var req models.VerifyEmailRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and code are required")
	}

	pair, err := c.authService.VerifyEmail(ctx.Request().Context(), req.Email, req.Code)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, models.DataEnvelope[models.TokenPair]{Data: *pair})
}

// (POST /auth/resend-code).
func (c *Controller) ResendCode(ctx echo.Context) error {
	var req models.ResendCodeRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	if err := c.authService.ResendCode(ctx.Request().Context(), req.Email); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, models.AckResponse{Message: "verification code sent"})
}

// (POST /auth/refresh-token).
func (c *Controller) RefreshToken(ctx echo.Context) error {
	var req models.RefreshTokenRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refreshToken is required")
	}

	accessToken, err := c.authService.Refresh(ctx.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, models.DataEnvelope[models.AccessTokenResponse]{
		Data: models.AccessTokenResponse{AccessToken: accessToken},
	})
}

// (GET /auth/me).
func (c *Controller) Me(ctx echo.Context) error {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	profile, err := c.authService.Me(ctx.Request().Context(), userID)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, profile)
}

// (GET /auth/connections).
func (c *Controller) Connections(ctx echo.Context) error {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	conns, err := c.authService.Connections(ctx.Request().Context(), userID)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, models.DataEnvelope[[]models.Connection]{Data: conns})
}

// (POST /auth/logout).
func (c *Controller) Logout(ctx echo.Context) error {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	token, _ := middleware.TokenFromContext(ctx)

	if err := c.authService.Logout(ctx.Request().Context(), userID, token); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, models.AckResponse{Message: "logged out"})
}
