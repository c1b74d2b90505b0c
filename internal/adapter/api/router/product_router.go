package router

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/adapter/api/handler"
	"campusmarket/internal/adapter/api/middleware"
)

func SetupProductRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	productHandler := handler.GetProductHandler()

	products := e.Group("/v1/products")
	products.GET("", productHandler.ListProducts)
	products.GET("/nearby", productHandler.ListNearby)

	// Detail works anonymously but picks up the caller's identity when
	// a token is present.
	detail := e.Group("/v1/products")
	detail.Use(authMiddleware.OptionalAuthenticate)
	detail.GET("/:id", productHandler.GetProduct)

	interest := e.Group("/v1/products")
	interest.Use(authMiddleware.Authenticate)
	interest.POST("/:id/interest", productHandler.ToggleInterest)

	myProducts := e.Group("/v1/my-products")
	myProducts.Use(authMiddleware.Authenticate)
	myProducts.GET("", productHandler.ListMyProducts)
	myProducts.POST("", productHandler.CreateProduct)
	myProducts.PUT("/:id", productHandler.UpdateProduct)
	myProducts.DELETE("/:id", productHandler.DeleteProduct)
	myProducts.POST("/:id/sold", productHandler.MarkSold)
	myProducts.POST("/:id/reserve", productHandler.ReserveProduct)
	myProducts.POST("/:id/release", productHandler.ReleaseProduct)
}
