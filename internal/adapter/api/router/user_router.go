package router

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/handler"
	"campusmarket/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	userHandler := handler.GetUserHandler()

	me := e.Group("/v1/me")
	me.Use(authMiddleware.Authenticate)
	me.GET("", userHandler.GetMe)
	me.PATCH("", userHandler.UpdateMe)

	users := e.Group("/v1/users")
	users.GET("/:id", userHandler.GetUser)
	users.GET("/:id/products", userHandler.GetUserProducts)

	rated := e.Group("/v1/users")
	rated.Use(authMiddleware.Authenticate)
	rated.POST("/:id/rate", userHandler.RateUser)
}
