package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"campusmarket/internal/domain/repository"
	"campusmarket/internal/usecase"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/response"
	"campusmarket/pkg/utils"
)

type ProductHandler struct {
	productUseCase *usecase.ProductUseCase
}

func NewProductHandler(productUseCase *usecase.ProductUseCase) *ProductHandler {
	return &ProductHandler{
		productUseCase: productUseCase,
	}
}

type createProductRequest struct {
	Title        string   `json:"title" validate:"required,min=3,max=100"`
	Description  string   `json:"description" validate:"required,max=2000"`
	Price        float64  `json:"price" validate:"required,gt=0"`
	IsNegotiable bool     `json:"is_negotiable"`
	Category     string   `json:"category" validate:"required"`
	Condition    string   `json:"condition" validate:"required"`
	Images       []string `json:"images" validate:"omitempty,dive,url"`
}

type updateProductRequest struct {
	Title        *string  `json:"title,omitempty" validate:"omitempty,min=3,max=100"`
	Description  *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price        *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	IsNegotiable *bool    `json:"is_negotiable,omitempty"`
	Category     *string  `json:"category,omitempty"`
	Condition    *string  `json:"condition,omitempty"`
	Images       []string `json:"images,omitempty" validate:"omitempty,dive,url"`
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	userID := c.Get("uid").(string)

	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	product, err := h.productUseCase.CreateProduct(c.Request().Context(), userID, usecase.CreateProductInput{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		IsNegotiable: req.IsNegotiable,
		Category:     req.Category,
		Condition:    req.Condition,
		Images:       req.Images,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, product)
}

// ListProducts searches available listings. Supported query params:
// college, category, max_price, q, page, limit.
func (h *ProductHandler) ListProducts(c echo.Context) error {
	filter := repository.ProductFilter{
		College:  c.QueryParam("college"),
		Category: c.QueryParam("category"),
		Query:    c.QueryParam("q"),
	}

	if maxPriceStr := c.QueryParam("max_price"); maxPriceStr != "" {
		maxPrice, err := strconv.ParseFloat(maxPriceStr, 64)
		if err != nil || maxPrice < 0 {
			return response.Error(c, errors.Validation("Invalid max_price", nil))
		}
		filter.MaxPrice = maxPrice
	}

	pagination := utils.GetPaginationParams(c)

	products, total, err := h.productUseCase.ListProducts(c.Request().Context(), filter, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, products, total, pagination.PageSize, pagination.Offset)
}

// ListNearby returns listings within radius_km of (lng, lat).
func (h *ProductHandler) ListNearby(c echo.Context) error {
	lng, err := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err != nil {
		return response.Error(c, errors.Validation("Invalid lng", nil))
	}
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return response.Error(c, errors.Validation("Invalid lat", nil))
	}

	radiusKm := 10.0
	if radiusStr := c.QueryParam("radius_km"); radiusStr != "" {
		radiusKm, err = strconv.ParseFloat(radiusStr, 64)
		if err != nil {
			return response.Error(c, errors.Validation("Invalid radius_km", nil))
		}
	}

	products, err := h.productUseCase.ListNearby(c.Request().Context(), lng, lat, radiusKm)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, products)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	productID := c.Param("id")
	viewerID, _ := c.Get("uid").(string)

	product, err := h.productUseCase.GetProduct(c.Request().Context(), productID, viewerID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, product)
}

func (h *ProductHandler) ListMyProducts(c echo.Context) error {
	userID := c.Get("uid").(string)

	products, err := h.productUseCase.ListBySeller(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, products)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	userID := c.Get("uid").(string)
	productID := c.Param("id")

	var req updateProductRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	product, err := h.productUseCase.UpdateProduct(c.Request().Context(), productID, userID, usecase.UpdateProductInput{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		IsNegotiable: req.IsNegotiable,
		Category:     req.Category,
		Condition:    req.Condition,
		Images:       req.Images,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, product)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	userID := c.Get("uid").(string)
	productID := c.Param("id")

	if err := h.productUseCase.DeleteProduct(c.Request().Context(), productID, userID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"message": "Listing deleted"})
}

func (h *ProductHandler) MarkSold(c echo.Context) error {
	userID := c.Get("uid").(string)
	productID := c.Param("id")

	product, err := h.productUseCase.MarkSold(c.Request().Context(), productID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, product)
}

func (h *ProductHandler) ReserveProduct(c echo.Context) error {
	userID := c.Get("uid").(string)
	productID := c.Param("id")

	product, err := h.productUseCase.Reserve(c.Request().Context(), productID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, product)
}

func (h *ProductHandler) ReleaseProduct(c echo.Context) error {
	userID := c.Get("uid").(string)
	productID := c.Param("id")

	product, err := h.productUseCase.Release(c.Request().Context(), productID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, product)
}

// ToggleInterest flips whether the caller is marked interested in the
// listing.
func (h *ProductHandler) ToggleInterest(c echo.Context) error {
	userID := c.Get("uid").(string)
	productID := c.Param("id")

	product, interested, err := h.productUseCase.ToggleInterest(c.Request().Context(), productID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"interested": interested,
		"product":    product,
	})
}
