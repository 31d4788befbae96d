// Package cart is the shopper's client-side basket and wishlist, persisted
// in storage so every tab of the same browser sees one cart.
package cart

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Item is one cart or wishlist line. Price is the unit price as the
// storefront displayed it.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity,omitempty"`
	Image    string          `json:"image,omitempty"`
}

// UnmarshalJSON accepts what older pages wrote: numeric ids, quoted numbers
// and garbage in the numeric fields. Unreadable prices decode to zero and
// unreadable quantities to zero.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       json.RawMessage `json:"id"`
		Name     string          `json:"name"`
		Price    json.RawMessage `json:"price"`
		Quantity json.RawMessage `json:"quantity"`
		Image    string          `json:"image"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*it = Item{
		ID:       looseString(raw.ID),
		Name:     raw.Name,
		Image:    raw.Image,
		Quantity: looseInt(raw.Quantity),
	}
	if len(raw.Price) > 0 {
		var price decimal.Decimal
		if err := price.UnmarshalJSON(raw.Price); err == nil {
			it.Price = price
		}
	}
	return nil
}

func looseString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

func looseInt(raw json.RawMessage) int {
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return int(f)
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int(f)
		}
	}
	return 0
}

func (it Item) lineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}
