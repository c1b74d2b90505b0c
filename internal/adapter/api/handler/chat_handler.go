package handler

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/usecase"
	"campusmarket/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type startChatRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

type proposePriceRequest struct {
	Price float64 `json:"price" validate:"required,gt=0"`
}

type respondPriceRequest struct {
	Accept bool `json:"accept"`
}

// StartChat opens (or returns) the caller's chat on a listing. The
// seller comes from the listing, so a buyer can only ever hold one
// chat per listing.
func (h *ChatHandler) StartChat(c echo.Context) error {
	userID := c.Get("uid").(string)

	var req startChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chatUseCase.StartChat(c.Request().Context(), userID, req.ProductID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, chat)
}

func (h *ChatHandler) GetUserChats(c echo.Context) error {
	userID := c.Get("uid").(string)

	chats, err := h.chatUseCase.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chats)
}

func (h *ChatHandler) GetChatByID(c echo.Context) error {
	userID := c.Get("uid").(string)
	chatID := c.Param("id")

	chat, err := h.chatUseCase.Get(c.Request().Context(), chatID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	userID := c.Get("uid").(string)
	chatID := c.Param("id")

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), userID, chatID, req.Text)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *ChatHandler) MarkChatAsRead(c echo.Context) error {
	userID := c.Get("uid").(string)
	chatID := c.Param("id")

	chat, err := h.chatUseCase.MarkRead(c.Request().Context(), chatID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}

func (h *ChatHandler) GetUnreadCount(c echo.Context) error {
	userID := c.Get("uid").(string)
	chatID := c.Param("id")

	count, err := h.chatUseCase.UnreadCount(c.Request().Context(), chatID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"unread_count": count})
}

func (h *ChatHandler) ProposePrice(c echo.Context) error {
	userID := c.Get("uid").(string)
	chatID := c.Param("id")

	var req proposePriceRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chatUseCase.ProposePrice(c.Request().Context(), chatID, userID, req.Price)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}

func (h *ChatHandler) RespondToPrice(c echo.Context) error {
	userID := c.Get("uid").(string)
	chatID := c.Param("id")

	var req respondPriceRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chatUseCase.RespondToPrice(c.Request().Context(), chatID, userID, req.Accept)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, chat)
}
