package repository

import (
	"context"

	"github.com/kalp9197/luxe-ecommerce-site/models"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id string) (*models.Review, error)
	List(ctx context.Context) ([]models.Review, error)
	ListByProduct(ctx context.Context, productID string) ([]models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id string) error
	// Stats aggregates the product's reviews (average rating rounded to
	// one decimal, count).
	Stats(ctx context.Context, productID string) (models.ReviewStats, error)
}
