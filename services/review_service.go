package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kalp9197/luxe-ecommerce-site/database"
	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
	"github.com/kalp9197/luxe-ecommerce-site/repository"
)

type ReviewService interface {
	List(ctx context.Context) ([]models.Review, error)
	ListByProduct(ctx context.Context, productID string) ([]models.Review, error)
	Create(ctx context.Context, user *models.User, req *models.CreateReviewRequest) (*models.Review, error)
	// Update is allowed for the review's author only.
	Update(ctx context.Context, user *models.User, id string, req *models.UpdateReviewRequest) (*models.Review, error)
	Delete(ctx context.Context, id string) error
}

type reviewService struct {
	db      *sql.DB
	reviews repository.ReviewRepository
	catalog CatalogService
}

// NewReviewService needs the raw *sql.DB: every write and the product's
// rating/num_reviews recount run in one transaction.
func NewReviewService(db *sql.DB, reviews repository.ReviewRepository, catalog CatalogService) ReviewService {
	return &reviewService{db: db, reviews: reviews, catalog: catalog}
}

func (s *reviewService) List(ctx context.Context) ([]models.Review, error) {
	return s.reviews.List(ctx)
}

func (s *reviewService) ListByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	return s.reviews.ListByProduct(ctx, productID)
}

func (s *reviewService) Create(ctx context.Context, user *models.User, req *models.CreateReviewRequest) (*models.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	review := &models.Review{
		ProductID: req.ProductID,
		UserID:    user.ID,
		UserName:  user.Name,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	err := s.withRecount(ctx, review.ProductID, func(reviews repository.ReviewRepository) error {
		return reviews.Create(ctx, review)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) Update(ctx context.Context, user *models.User, id string, req *models.UpdateReviewRequest) (*models.Review, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID != user.ID {
		return nil, fmt.Errorf("%w: only the author can edit a review", pkg.ErrForbidden)
	}

	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}

	err = s.withRecount(ctx, review.ProductID, func(reviews repository.ReviewRepository) error {
		return reviews.Update(ctx, review)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, id string) error {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return s.withRecount(ctx, review.ProductID, func(reviews repository.ReviewRepository) error {
		return reviews.Delete(ctx, id)
	})
}

// withRecount runs write and then rewrites the product's review aggregate
// in the same transaction.
func (s *reviewService) withRecount(ctx context.Context, productID string, write func(repository.ReviewRepository) error) error {
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		txReviews := repository.NewSQLiteReviewRepo(tx)
		txProducts := repository.NewSQLiteProductRepo(tx)

		if err := write(txReviews); err != nil {
			return err
		}

		stats, err := txReviews.Stats(ctx, productID)
		if err != nil {
			return err
		}
		return txProducts.UpdateReviewStats(ctx, productID, stats)
	})
	if err != nil {
		return err
	}

	s.catalog.InvalidateProduct(productID)
	return nil
}
