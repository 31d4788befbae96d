package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kalp9197/luxe-ecommerce-site/database"
	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
)

type sqliteProductRepo struct {
	db database.TxQuerier
}

func NewSQLiteProductRepo(db database.TxQuerier) ProductRepository {
	return &sqliteProductRepo{db: db}
}

const productColumns = `id, name, description, price, sale_price, images, brand, inventory,
	featured, rating, num_reviews, category_id, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	p := &models.Product{}
	var images string
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.SalePrice, &images, &p.Brand, &p.Inventory,
		&p.Featured, &p.Rating, &p.NumReviews, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return nil, fmt.Errorf("failed to decode images of product %s: %w", p.ID, err)
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return p, nil
}

func (r *sqliteProductRepo) Create(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	images, err := jsonColumn(nonNilImages(p.Images))
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (id, name, description, price, sale_price, images, brand, inventory, featured, category_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.SalePrice, images, p.Brand, p.Inventory, p.Featured, p.CategoryID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: unknown category", pkg.ErrBadRequest)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *sqliteProductRepo) GetByID(ctx context.Context, id string) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r *sqliteProductRepo) GetByName(ctx context.Context, name string) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE name = ? LIMIT 1`, name)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by name: %w", err)
	}
	return p, nil
}

func (r *sqliteProductRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	out := make(map[string]*models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return out, nil
}

func (r *sqliteProductRepo) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Featured != nil {
		where = append(where, "featured = ?")
		args = append(args, *f.Featured)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "(name LIKE ? OR description LIKE ? OR brand LIKE ?)")
		like := "%" + q + "%"
		args = append(args, like, like, like)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return products, nil
}

func (r *sqliteProductRepo) Update(ctx context.Context, p *models.Product) error {
	images, err := jsonColumn(nonNilImages(p.Images))
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, description = ?, price = ?, sale_price = ?, images = ?, brand = ?,
		    inventory = ?, featured = ?, category_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		p.Name, p.Description, p.Price, p.SalePrice, images, p.Brand,
		p.Inventory, p.Featured, p.CategoryID, p.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: unknown category", pkg.ErrBadRequest)
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteProductRepo) UpdateReviewStats(ctx context.Context, productID string, stats models.ReviewStats) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET rating = ?, num_reviews = ? WHERE id = ?`,
		stats.Rating, stats.NumReviews, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to update review stats: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteProductRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return requireAffected(result)
}

func nonNilImages(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}
