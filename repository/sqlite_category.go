package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kalp9197/luxe-ecommerce-site/database"
	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
)

type sqliteCategoryRepo struct {
	db database.TxQuerier
}

func NewSQLiteCategoryRepo(db database.TxQuerier) CategoryRepository {
	return &sqliteCategoryRepo{db: db}
}

func (r *sqliteCategoryRepo) Create(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO categories (id, name, description, image) VALUES (?, ?, ?, ?)
		 RETURNING created_at`,
		c.ID, c.Name, c.Description, c.Image,
	).Scan(&c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category %q already exists", pkg.ErrAlreadyExists, c.Name)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *sqliteCategoryRepo) get(ctx context.Context, where string, arg any) (*models.Category, error) {
	c := &models.Category{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, image, created_at FROM categories WHERE `+where, arg,
	).Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

func (r *sqliteCategoryRepo) GetByID(ctx context.Context, id string) (*models.Category, error) {
	return r.get(ctx, "id = ?", id)
}

func (r *sqliteCategoryRepo) GetByName(ctx context.Context, name string) (*models.Category, error) {
	return r.get(ctx, "name = ?", name)
}

func (r *sqliteCategoryRepo) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, image, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}
	return categories, nil
}

func (r *sqliteCategoryRepo) Update(ctx context.Context, c *models.Category) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, description = ?, image = ? WHERE id = ?`,
		c.Name, c.Description, c.Image, c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category %q already exists", pkg.ErrAlreadyExists, c.Name)
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	return requireAffected(result)
}

// Delete leaves the category's products in place with no category.
func (r *sqliteCategoryRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return requireAffected(result)
}
