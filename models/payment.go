package models

import "github.com/shopspring/decimal"

// PaymentItem is one line a client submits when asking for a payment
// intent. ID refers to a catalog product when set; Price is the unit
// price in major units as the client displayed it.
type PaymentItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image,omitempty"`
}

type PaymentIntentRequest struct {
	Items    []PaymentItem    `json:"items"`
	Shipping *ShippingAddress `json:"shipping,omitempty"`
	OrderID  string           `json:"order_id,omitempty"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type PaymentConfigResponse struct {
	PublishableKey string `json:"publishableKey"`
}

type WebhookAck struct {
	Received bool `json:"received"`
}

// IntentSummaryItem is what goes into the intent's order_items metadata.
type IntentSummaryItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}
