package controller

import (
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"

	"github.com/gaprio/auth-service/internal/api/middleware"
	"github.com/gaprio/auth-service/internal/service"
)

//go:embed openapi/openapi.yaml
var openapiSpec []byte

// GetSwagger loads the embedded OpenAPI document describing the auth API.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	swagger, err := loader.LoadFromData(openapiSpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := swagger.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi spec: %w", err)
	}
	return swagger, nil
}

// RegisterHandlers wires the auth routes onto the echo instance. Extra
// middleware (request validation) applies to the whole group.
func RegisterHandlers(e *echo.Echo, c *Controller, tokens *service.TokenService, extra ...echo.MiddlewareFunc) {
	g := e.Group("/auth", extra...)
	g.POST("/register", c.Register)
	g.POST("/login", c.Login)
	g.POST("/verify-email", c.VerifyEmail)
	g.POST("/resend-code", c.ResendCode)
	g.POST("/refresh-token", c.RefreshToken)

	protected := g.Group("", middleware.BearerAuth(tokens))
	protected.GET("/me", c.Me)
	protected.GET("/connections", c.Connections)
	protected.POST("/logout", c.Logout)
}
