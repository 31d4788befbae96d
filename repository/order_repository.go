package repository

import (
	"context"
	"time"

	"github.com/kalp9197/luxe-ecommerce-site/models"
)

type OrderRepository interface {
	// Create inserts the order and its item snapshots. Callers that need
	// atomicity run it on a transaction-backed repo.
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	SetPaymentIntent(ctx context.Context, orderID, intentID string) error
	MarkPaid(ctx context.Context, orderID, intentID string, at time.Time) error
	MarkDelivered(ctx context.Context, orderID string, at time.Time) error
	UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) error
}
