package router

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/handler"
	"campusmarket/internal/adapter/api/middleware"
)

func SetupChatRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	chatHandler := handler.GetChatHandler()

	chats := e.Group("/v1/chats")
	chats.Use(authMiddleware.Authenticate)

	chats.POST("", chatHandler.StartChat)
	chats.GET("", chatHandler.GetUserChats)
	chats.GET("/:id", chatHandler.GetChatByID)
	chats.PUT("/:id/read", chatHandler.MarkChatAsRead)
	chats.GET("/:id/unread-count", chatHandler.GetUnreadCount)

	chats.POST("/:id/messages", chatHandler.SendMessage)

	// Price negotiation
	chats.POST("/:id/propose-price", chatHandler.ProposePrice)
	chats.POST("/:id/respond-price", chatHandler.RespondToPrice)
}
