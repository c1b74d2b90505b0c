package handler

import (
	"github.com/labstack/echo/v4"

	"campusmarket/internal/usecase"
	"campusmarket/pkg/response"
)

type UserHandler struct {
	userUseCase    *usecase.UserUseCase
	productUseCase *usecase.ProductUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase, productUseCase *usecase.ProductUseCase) *UserHandler {
	return &UserHandler{
		userUseCase:    userUseCase,
		productUseCase: productUseCase,
	}
}

type updateProfileRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	College        *string `json:"college,omitempty" validate:"omitempty,min=2"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,e164"`
	ProfilePicture *string `json:"profile_picture,omitempty" validate:"omitempty,url"`
}

type rateUserRequest struct {
	Rating float64 `json:"rating" validate:"required,gte=1,lte=5"`
}

// GetMe returns the authenticated user's own profile.
func (h *UserHandler) GetMe(c echo.Context) error {
	userID := c.Get("uid").(string)

	user, err := h.userUseCase.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

// GetUser returns another user's public profile.
func (h *UserHandler) GetUser(c echo.Context) error {
	userID := c.Param("id")

	user, err := h.userUseCase.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	userID := c.Get("uid").(string)

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.UpdateProfile(c.Request().Context(), userID, usecase.UpdateProfileInput{
		Name:           req.Name,
		College:        req.College,
		Phone:          req.Phone,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

// RateUser records the caller's rating of another user.
func (h *UserHandler) RateUser(c echo.Context) error {
	raterID := c.Get("uid").(string)
	ratedID := c.Param("id")

	var req rateUserRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.RateUser(c.Request().Context(), ratedID, raterID, req.Rating)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

// GetUserProducts lists a user's visible listings.
func (h *UserHandler) GetUserProducts(c echo.Context) error {
	userID := c.Param("id")

	products, err := h.productUseCase.ListBySeller(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, products)
}
