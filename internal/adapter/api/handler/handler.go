package handler

import (
	"campusmarket/internal/usecase"
)

var (
	authHandler    *AuthHandler
	userHandler    *UserHandler
	productHandler *ProductHandler
	chatHandler    *ChatHandler
)

func Setup(
	authUseCase *usecase.AuthUseCase,
	userUseCase *usecase.UserUseCase,
	productUseCase *usecase.ProductUseCase,
	chatUseCase *usecase.ChatUseCase,
) {
	authHandler = NewAuthHandler(authUseCase)
	userHandler = NewUserHandler(userUseCase, productUseCase)
	productHandler = NewProductHandler(productUseCase)
	chatHandler = NewChatHandler(chatUseCase)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetProductHandler() *ProductHandler {
	return productHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}
