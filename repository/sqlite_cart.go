package repository

import (
	"context"
	"fmt"

	"github.com/kalp9197/luxe-ecommerce-site/database"
	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
)

type sqliteCartRepo struct {
	db database.TxQuerier
}

func NewSQLiteCartRepo(db database.TxQuerier) CartRepository {
	return &sqliteCartRepo{db: db}
}

func (r *sqliteCartRepo) ListByUser(ctx context.Context, userID string) ([]models.CartItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, product_id, quantity, added_at FROM cart_items
		 WHERE user_id = ? ORDER BY added_at, product_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var it models.CartItem
		if err := rows.Scan(&it.UserID, &it.ProductID, &it.Quantity, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart rows: %w", err)
	}
	return items, nil
}

func (r *sqliteCartRepo) Add(ctx context.Context, userID, productID string, quantity int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity) VALUES (?, ?, ?)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = quantity + excluded.quantity`,
		userID, productID, quantity,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: product not found", pkg.ErrNotFound)
		}
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

func (r *sqliteCartRepo) SetQuantity(ctx context.Context, userID, productID string, quantity int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = ? WHERE user_id = ? AND product_id = ?`,
		quantity, userID, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteCartRepo) Remove(ctx context.Context, userID, productID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = ? AND product_id = ?`, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteCartRepo) Clear(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
