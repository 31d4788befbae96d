package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalp9197/luxe-ecommerce-site/database"
	"github.com/kalp9197/luxe-ecommerce-site/models"
	"github.com/kalp9197/luxe-ecommerce-site/pkg"
)

type sqliteOrderRepo struct {
	db database.TxQuerier
}

func NewSQLiteOrderRepo(db database.TxQuerier) OrderRepository {
	return &sqliteOrderRepo{db: db}
}

const orderColumns = `id, user_id, shipping_address, items_price, shipping_price, total_price,
	currency, status, payment_intent_id, paid_at, delivered_at, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	o := &models.Order{}
	var address string
	err := row.Scan(
		&o.ID, &o.UserID, &address, &o.ItemsPrice, &o.ShippingPrice, &o.TotalPrice,
		&o.Currency, &o.Status, &o.PaymentIntentID, &o.PaidAt, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(address), &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to decode shipping address of order %s: %w", o.ID, err)
	}
	return o, nil
}

func (r *sqliteOrderRepo) Create(ctx context.Context, o *models.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = models.OrderPending
	}
	address, err := jsonColumn(o.ShippingAddress)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO orders (id, user_id, shipping_address, items_price, shipping_price, total_price,
		                    currency, status, payment_intent_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at, updated_at`,
		o.ID, o.UserID, address, o.ItemsPrice, o.ShippingPrice, o.TotalPrice,
		o.Currency, o.Status, o.PaymentIntentID,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for _, it := range o.Items {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, name, image, quantity, unit_price)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID, it.ProductID, it.Name, it.Image, it.Quantity, it.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return nil
}

func (r *sqliteOrderRepo) getOne(ctx context.Context, where string, arg any) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE `+where+` ORDER BY created_at DESC LIMIT 1`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	orders := []models.Order{*o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *sqliteOrderRepo) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *sqliteOrderRepo) GetByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error) {
	if intentID == "" {
		return nil, pkg.ErrNotFound
	}
	return r.getOne(ctx, "payment_intent_id = ?", intentID)
}

func (r *sqliteOrderRepo) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (r *sqliteOrderRepo) List(ctx context.Context) ([]models.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *sqliteOrderRepo) list(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	rows.Close()

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the items of every order in one query.
func (r *sqliteOrderRepo) attachItems(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	index := make(map[string]int, len(orders))
	args := make([]any, len(orders))
	for i := range orders {
		orders[i].Items = []models.OrderItem{}
		index[orders[i].ID] = i
		args[i] = orders[i].ID
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(orders)), ",")

	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, product_id, name, image, quantity, unit_price
		 FROM order_items WHERE order_id IN (`+placeholders+`) ORDER BY id`, args...)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			it      models.OrderItem
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Image, &it.Quantity, &it.UnitPrice); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return rows.Err()
}

func (r *sqliteOrderRepo) SetPaymentIntent(ctx context.Context, orderID, intentID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_intent_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		intentID, orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to set payment intent: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteOrderRepo) MarkPaid(ctx context.Context, orderID, intentID string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, paid_at = ?,
		    payment_intent_id = CASE WHEN ? <> '' THEN ? ELSE payment_intent_id END,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		models.OrderPaid, at.UTC(), intentID, intentID, orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteOrderRepo) MarkDelivered(ctx context.Context, orderID string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, delivered_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		models.OrderDelivered, at.UTC(), orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark order delivered: %w", err)
	}
	return requireAffected(result)
}

func (r *sqliteOrderRepo) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return requireAffected(result)
}
