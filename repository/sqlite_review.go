package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/kalp9197/luxe-ecommerce-site/database"
	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
)

type sqliteReviewRepo struct {
	db database.TxQuerier
}

func NewSQLiteReviewRepo(db database.TxQuerier) ReviewRepository {
	return &sqliteReviewRepo{db: db}
}

const reviewColumns = `id, product_id, user_id, user_name, rating, comment, created_at`

func scanReview(row interface{ Scan(...any) error }) (*models.Review, error) {
	rv := &models.Review{}
	err := row.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	return rv, err
}

func (r *sqliteReviewRepo) Create(ctx context.Context, rv *models.Review) error {
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO reviews (id, product_id, user_id, user_name, rating, comment)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING created_at`,
		rv.ID, rv.ProductID, rv.UserID, rv.UserName, rv.Rating, rv.Comment,
	).Scan(&rv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: product already reviewed", pkg.ErrAlreadyExists)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: product not found", pkg.ErrNotFound)
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *sqliteReviewRepo) GetByID(ctx context.Context, id string) (*models.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return rv, nil
}

func (r *sqliteReviewRepo) List(ctx context.Context) ([]models.Review, error) {
	return r.list(ctx, `SELECT `+reviewColumns+` FROM reviews ORDER BY created_at DESC`)
}

func (r *sqliteReviewRepo) ListByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	return r.list(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE product_id = ? ORDER BY created_at DESC`, productID)
}

func (r *sqliteReviewRepo) list(ctx context.Context, query string, args ...any) ([]models.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review rows: %w", err)
	}
	return reviews, nil
}

func (r *sqliteReviewRepo) Update(ctx context.Context, rv *models.Review) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET rating = ?, comment = ? WHERE id = ?`,
		rv.Rating, rv.Comment, rv.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteReviewRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteReviewRepo) Stats(ctx context.Context, productID string) (models.ReviewStats, error) {
	var (
		avg   sql.NullFloat64
		count int
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT AVG(rating), COUNT(*) FROM reviews WHERE product_id = ?`, productID,
	).Scan(&avg, &count)
	if err != nil {
		return models.ReviewStats{}, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	stats := models.ReviewStats{NumReviews: count}
	if avg.Valid {
		stats.Rating = math.Round(avg.Float64*10) / 10
	}
	return stats, nil
}
