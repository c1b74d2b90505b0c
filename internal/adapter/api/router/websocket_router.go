package router

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/handler"
)

// SetupWebSocketRouter registers the realtime endpoint. Auth happens
// inside the handler since websocket clients pass the token as a query
// param.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
