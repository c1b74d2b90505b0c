package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/middleware"
	ws "campusmarket/internal/infrastructure/websocket"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/logger"
	"campusmarket/pkg/response"
)

type WebSocketHandler struct {
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict to the web client origin before launch
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, authMiddleware *middleware.AuthMiddleware) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
	}
}

// HandleWebSocket authenticates the caller, upgrades the connection
// and registers the client with the relay. Browsers cannot set headers
// on websocket requests, so the token is also accepted as a query
// param.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return response.Error(c, errors.Unauthorized("Authentication token is required", nil))
	}

	userID, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), token)
	if err != nil {
		return response.Error(c, err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to upgrade connection", err))
	}

	client := &ws.Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}

	h.wsManager.Register <- client

	logger.Debug("WebSocket client connected: user %s", userID)

	go client.ReadPump(h.wsManager)
	go client.WritePump()

	return nil
}
