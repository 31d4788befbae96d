package repository

import (
	"context"

	"github.com/kalp9197/luxe-ecommerce-site/models"
)

type CartRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.CartItem, error)
	// Add increments the line's quantity, creating it when absent.
	Add(ctx context.Context, userID, productID string, quantity int) error
	SetQuantity(ctx context.Context, userID, productID string, quantity int) error
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}
