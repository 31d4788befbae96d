package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending       OrderStatus = "pending"
	OrderPaid          OrderStatus = "paid"
	OrderPaymentFailed OrderStatus = "payment_failed"
	OrderDelivered     OrderStatus = "delivered"
)

type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// OrderItem snapshots the product at order time so later catalog edits do
// not rewrite history.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Order totals are integer minor units in Currency.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	ItemsPrice      int64           `json:"items_price"`
	ShippingPrice   int64           `json:"shipping_price"`
	TotalPrice      int64           `json:"total_price"`
	Currency        string          `json:"currency"`
	Status          OrderStatus     `json:"status"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	PaidAt          *time.Time      `json:"paid_at"`
	DeliveredAt     *time.Time      `json:"delivered_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type OrderLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	Items           []OrderLineRequest `json:"items"`
	ShippingAddress ShippingAddress    `json:"shipping_address"`
}

func (r *CreateOrderRequest) Validate() error {
	if len(r.Items) == 0 {
		return fmt.Errorf("order must contain at least one item")
	}
	for i, it := range r.Items {
		if it.ProductID == "" {
			return fmt.Errorf("item %d: product_id is required", i+1)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("item %d: quantity must be at least 1", i+1)
		}
	}
	return nil
}

type PayOrderRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

func (r *PayOrderRequest) Validate() error {
	if strings.TrimSpace(r.PaymentIntentID) == "" {
		return fmt.Errorf("payment_intent_id is required")
	}
	return nil
}
