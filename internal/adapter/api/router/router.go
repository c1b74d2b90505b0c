package router

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	SetupAuthRouter(e)
	SetupUserRouter(e, authMiddleware)
	SetupProductRouter(e, authMiddleware)
	SetupChatRouter(e, authMiddleware)
	SetupHealthRouter(e)
}
