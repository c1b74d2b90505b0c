package repository

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
)

type firestoreProductRepository struct {
	client *firestore.Client
}

func NewFirestoreProductRepository(client *firestore.Client) repository.ProductRepository {
	return &firestoreProductRepository{
		client: client,
	}
}

func (r *firestoreProductRepository) products() *firestore.CollectionRef {
	return r.client.Collection("products")
}

func (r *firestoreProductRepository) Create(ctx context.Context, product *entity.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}

	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := r.products().Doc(product.ID).Set(ctx, product)
	if err != nil {
		return errors.Internal("Failed to create product", err)
	}

	return nil
}

func (r *firestoreProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	doc, err := r.products().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Product", err)
		}
		return nil, errors.Internal("Failed to get product", err)
	}

	var product entity.Product
	if err := doc.DataTo(&product); err != nil {
		return nil, errors.Internal("Failed to parse product data", err)
	}

	return &product, nil
}

func (r *firestoreProductRepository) List(ctx context.Context, filter repository.ProductFilter, limit, offset int) ([]*entity.Product, int64, error) {
	query := r.products().Query

	wantStatus := filter.Status
	if wantStatus == "" {
		wantStatus = entity.ProductStatusAvailable
	}
	query = query.Where("status", "==", wantStatus)

	if filter.Category != "" {
		query = query.Where("category", "==", filter.Category)
	}
	if filter.MaxPrice > 0 {
		query = query.Where("price", "<=", filter.MaxPrice)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to fetch products", err)
	}

	// College match and text search run in memory: firestore has no
	// case-insensitive or full-text operators.
	var all []*entity.Product
	for _, doc := range docs {
		var product entity.Product
		if err := doc.DataTo(&product); err != nil {
			continue
		}
		if filter.College != "" && !strings.Contains(strings.ToLower(product.College), strings.ToLower(filter.College)) {
			continue
		}
		if filter.Query != "" && !matchesQuery(&product, filter.Query) {
			continue
		}
		all = append(all, &product)
	}

	sortByNewest(all)
	total := int64(len(all))

	start := offset
	if start > len(all) {
		start = len(all)
	}
	end := len(all)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return all[start:end], total, nil
}

func (r *firestoreProductRepository) ListBySellerID(ctx context.Context, sellerID string) ([]*entity.Product, error) {
	iter := r.products().Where("sellerId", "==", sellerID).Documents(ctx)

	var products []*entity.Product
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate products", err)
		}

		var product entity.Product
		if err := doc.DataTo(&product); err != nil {
			return nil, errors.Internal("Failed to parse product data", err)
		}
		if product.Status == entity.ProductStatusDeleted {
			continue
		}
		products = append(products, &product)
	}

	sortByNewest(products)
	return products, nil
}

func (r *firestoreProductRepository) ListNearby(ctx context.Context, longitude, latitude, radiusKm float64) ([]*entity.Product, error) {
	docs, err := r.products().
		Where("status", "==", entity.ProductStatusAvailable).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to fetch products", err)
	}

	var nearby []*entity.Product
	for _, doc := range docs {
		var product entity.Product
		if err := doc.DataTo(&product); err != nil {
			continue
		}
		d := haversineKm(latitude, longitude, product.Location.Latitude, product.Location.Longitude)
		if d <= radiusKm {
			nearby = append(nearby, &product)
		}
	}

	sortByNewest(nearby)
	return nearby, nil
}

func (r *firestoreProductRepository) Update(ctx context.Context, product *entity.Product) error {
	product.UpdatedAt = time.Now()

	_, err := r.products().Doc(product.ID).Set(ctx, product)
	if err != nil {
		return errors.Internal("Failed to update product", err)
	}

	return nil
}

// IncrementViews bumps the view counter server-side so concurrent reads
// never lose an increment.
func (r *firestoreProductRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.products().Doc(id).Update(ctx, []firestore.Update{
		{Path: "views", Value: firestore.Increment(1)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Product", err)
		}
		return errors.Internal("Failed to increment views", err)
	}
	return nil
}

func matchesQuery(product *entity.Product, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(product.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(product.Description), q) {
		return true
	}
	for _, tag := range product.Tags {
		if strings.Contains(tag, q) {
			return true
		}
	}
	return false
}

func sortByNewest(products []*entity.Product) {
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
}

// haversineKm returns the great-circle distance between two points.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0

	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
