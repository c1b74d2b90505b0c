package usecase

import (
	"context"
	"strings"
	"time"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/logger"
)

// ProductUseCase manages the listing lifecycle: creation, search,
// status transitions and interest tracking.
type ProductUseCase struct {
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	geocoder    Geocoder
}

func NewProductUseCase(
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	geocoder Geocoder,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		userRepo:    userRepo,
		geocoder:    geocoder,
	}
}

type CreateProductInput struct {
	Title        string   `json:"title" validate:"required,min=3,max=100"`
	Description  string   `json:"description" validate:"required,max=2000"`
	Price        float64  `json:"price" validate:"required,gt=0"`
	IsNegotiable bool     `json:"is_negotiable"`
	Category     string   `json:"category" validate:"required"`
	Condition    string   `json:"condition" validate:"required"`
	Images       []string `json:"images"`
}

type UpdateProductInput struct {
	Title        *string  `json:"title,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	IsNegotiable *bool    `json:"is_negotiable,omitempty"`
	Category     *string  `json:"category,omitempty"`
	Condition    *string  `json:"condition,omitempty"`
	Images       []string `json:"images,omitempty"`
}

// CreateProduct publishes a new listing for the seller. The listing
// inherits the seller's college and location so nearby search works
// without the client supplying coordinates.
func (uc *ProductUseCase) CreateProduct(ctx context.Context, sellerID string, input CreateProductInput) (*entity.Product, error) {
	if !entity.ValidCategory(input.Category) {
		return nil, errors.Validation("Unknown product category", nil)
	}
	if !entity.ValidCondition(input.Condition) {
		return nil, errors.Validation("Unknown product condition", nil)
	}

	seller, err := uc.userRepo.GetByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	product := &entity.Product{
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Price:        input.Price,
		IsNegotiable: input.IsNegotiable,
		Category:     input.Category,
		Condition:    input.Condition,
		Images:       input.Images,
		SellerID:     sellerID,
		College:      seller.College,
		Location:     seller.Location,
		Status:       entity.ProductStatusAvailable,
		Tags:         entity.DeriveTags(input.Title),
	}

	if product.Location.Address == "" && seller.College != "" && uc.geocoder != nil {
		point, err := uc.geocoder.Geocode(ctx, seller.College)
		if err != nil {
			logger.Warn("Geocoding college %q failed: %v", seller.College, err)
		} else {
			product.Location = point
		}
	}

	if err := uc.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	seller.ProductsListed++
	if err := uc.userRepo.Update(ctx, seller); err != nil {
		logger.Warn("Failed to bump listing counter for seller %s: %v", sellerID, err)
	}

	return product, nil
}

// GetProduct returns a single listing and records the view. The
// seller's own visits do not count. Deleted listings are
// indistinguishable from listings that never existed.
func (uc *ProductUseCase) GetProduct(ctx context.Context, productID, viewerID string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status == entity.ProductStatusDeleted {
		return nil, errors.NotFound("Product", nil)
	}

	if viewerID != product.SellerID {
		if err := uc.productRepo.IncrementViews(ctx, productID); err != nil {
			logger.Warn("Failed to increment views for product %s: %v", productID, err)
		} else {
			product.Views++
		}
	}

	return product, nil
}

// ListProducts searches available listings with optional college,
// category, price ceiling and free-text filters.
func (uc *ProductUseCase) ListProducts(ctx context.Context, filter repository.ProductFilter, limit, offset int) ([]*entity.Product, int64, error) {
	if filter.Status == "" {
		filter.Status = entity.ProductStatusAvailable
	}
	return uc.productRepo.List(ctx, filter, limit, offset)
}

// ListNearby returns available listings within radiusKm of the point.
func (uc *ProductUseCase) ListNearby(ctx context.Context, longitude, latitude, radiusKm float64) ([]*entity.Product, error) {
	if radiusKm <= 0 {
		return nil, errors.Validation("Radius must be greater than zero", nil)
	}
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return nil, errors.Validation("Invalid coordinates", nil)
	}
	return uc.productRepo.ListNearby(ctx, longitude, latitude, radiusKm)
}

// ListBySeller returns the seller's listings, including sold and
// reserved ones, but never deleted ones.
func (uc *ProductUseCase) ListBySeller(ctx context.Context, sellerID string) ([]*entity.Product, error) {
	products, err := uc.productRepo.ListBySellerID(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	visible := make([]*entity.Product, 0, len(products))
	for _, p := range products {
		if p.Status != entity.ProductStatusDeleted {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// UpdateProduct applies partial edits to the caller's own listing.
func (uc *ProductUseCase) UpdateProduct(ctx context.Context, productID, userID string, input UpdateProductInput) (*entity.Product, error) {
	product, err := uc.ownedProduct(ctx, productID, userID)
	if err != nil {
		return nil, err
	}
	if product.Status == entity.ProductStatusSold {
		return nil, errors.Conflict("Sold listings cannot be edited", nil)
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, errors.Validation("Title cannot be empty", nil)
		}
		product.Title = title
		product.Tags = entity.DeriveTags(title)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			return nil, errors.Validation("Price must be greater than zero", nil)
		}
		product.Price = *input.Price
	}
	if input.IsNegotiable != nil {
		product.IsNegotiable = *input.IsNegotiable
	}
	if input.Category != nil {
		if !entity.ValidCategory(*input.Category) {
			return nil, errors.Validation("Unknown product category", nil)
		}
		product.Category = *input.Category
	}
	if input.Condition != nil {
		if !entity.ValidCondition(*input.Condition) {
			return nil, errors.Validation("Unknown product condition", nil)
		}
		product.Condition = *input.Condition
	}
	if input.Images != nil {
		product.Images = input.Images
	}

	if err := uc.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct soft-deletes the caller's listing. The document stays
// so existing chats keep their listing reference.
func (uc *ProductUseCase) DeleteProduct(ctx context.Context, productID, userID string) error {
	product, err := uc.ownedProduct(ctx, productID, userID)
	if err != nil {
		return err
	}

	return uc.transition(ctx, product, entity.ProductStatusDeleted)
}

// MarkSold closes the listing and credits the seller's sold counter.
func (uc *ProductUseCase) MarkSold(ctx context.Context, productID, userID string) (*entity.Product, error) {
	product, err := uc.ownedProduct(ctx, productID, userID)
	if err != nil {
		return nil, err
	}

	if err := uc.transition(ctx, product, entity.ProductStatusSold); err != nil {
		return nil, err
	}

	if seller, err := uc.userRepo.GetByID(ctx, userID); err == nil {
		seller.ProductsSold++
		if err := uc.userRepo.Update(ctx, seller); err != nil {
			logger.Warn("Failed to bump sold counter for seller %s: %v", userID, err)
		}
	}

	return product, nil
}

// Reserve puts the listing on hold while a deal is being settled.
func (uc *ProductUseCase) Reserve(ctx context.Context, productID, userID string) (*entity.Product, error) {
	product, err := uc.ownedProduct(ctx, productID, userID)
	if err != nil {
		return nil, err
	}
	if err := uc.transition(ctx, product, entity.ProductStatusReserved); err != nil {
		return nil, err
	}
	return product, nil
}

// Release returns a reserved listing to the open market.
func (uc *ProductUseCase) Release(ctx context.Context, productID, userID string) (*entity.Product, error) {
	product, err := uc.ownedProduct(ctx, productID, userID)
	if err != nil {
		return nil, err
	}
	if err := uc.transition(ctx, product, entity.ProductStatusAvailable); err != nil {
		return nil, err
	}
	return product, nil
}

// ToggleInterest adds or removes the user from the listing's
// interested buyers. Sellers cannot mark interest in their own
// listing.
func (uc *ProductUseCase) ToggleInterest(ctx context.Context, productID, userID string) (*entity.Product, bool, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, false, err
	}
	if product.Status == entity.ProductStatusDeleted {
		return nil, false, errors.NotFound("Product", nil)
	}
	if product.SellerID == userID {
		return nil, false, errors.Conflict("You cannot mark interest in your own listing", nil)
	}

	interested := product.ToggleInterest(userID)
	if err := uc.productRepo.Update(ctx, product); err != nil {
		return nil, false, err
	}
	return product, interested, nil
}

func (uc *ProductUseCase) ownedProduct(ctx context.Context, productID, userID string) (*entity.Product, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status == entity.ProductStatusDeleted {
		return nil, errors.NotFound("Product", nil)
	}
	if product.SellerID != userID {
		return nil, errors.Forbidden("You do not own this listing", nil)
	}
	return product, nil
}

func (uc *ProductUseCase) transition(ctx context.Context, product *entity.Product, to string) error {
	if !entity.ValidStatusTransition(product.Status, to) {
		return errors.Conflict("Listing cannot move from "+product.Status+" to "+to, nil)
	}
	product.Status = to
	product.UpdatedAt = time.Now()
	return uc.productRepo.Update(ctx, product)
}
