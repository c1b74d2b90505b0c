package router

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/handler"
	"campusmarket/internal/adapter/api/middleware"
)

func SetupAuthRouter(e *echo.Echo) {
	authHandler := handler.GetAuthHandler()

	auth := e.Group("/v1/auth")
	auth.Use(middleware.AuthRateLimit())
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
}
