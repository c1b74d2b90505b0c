package repository

import (
	"context"

	"campusmarket/internal/domain/entity"
)

// ProductFilter narrows List queries. Zero values mean "no constraint".
type ProductFilter struct {
	College  string
	Category string
	MaxPrice float64
	Query    string
	Status   string
}

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context, filter ProductFilter, limit, offset int) ([]*entity.Product, int64, error)
	ListBySellerID(ctx context.Context, sellerID string) ([]*entity.Product, error)
	ListNearby(ctx context.Context, longitude, latitude, radiusKm float64) ([]*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	IncrementViews(ctx context.Context, id string) error
}
