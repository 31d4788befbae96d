package repository

import (
	"context"

	"github.com/kalp9197/luxe-ecommerce-site/models"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// GetByIDs returns the products that exist, keyed by id; missing ids
	// are simply absent from the map.
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error)
	GetByName(ctx context.Context, name string) (*models.Product, error)
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	UpdateReviewStats(ctx context.Context, productID string, stats models.ReviewStats) error
	Delete(ctx context.Context, id string) error
}
