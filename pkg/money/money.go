// Package money converts catalog prices (decimal major units, e.g. 29.99)
// to the integer minor units (cents) a payment provider charges in.
//
// Prices are decimal.Decimal end to end; float64 never appears on the
// amount path, so 10.00 × 2 is always exactly 2000.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

var (
	ErrNegativePrice    = errors.New("price must not be negative")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrAmountOutOfRange = errors.New("amount out of range")
)

// Line is one priced line of an order or cart.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int64
}

// ToMinor converts a major-unit price to minor units, rounding half away
// from zero to the nearest cent. Values above the provider's maximum
// charge are rejected before they are narrowed to int64.
func ToMinor(price decimal.Decimal) (int64, error) {
	minor := price.Mul(hundred).Round(0)
	if minor.GreaterThan(decimal.NewFromInt(maxAmount)) || minor.LessThan(decimal.NewFromInt(-maxAmount)) {
		return 0, ErrAmountOutOfRange
	}
	return minor.IntPart(), nil
}

// FromMinor is the inverse of ToMinor.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// LineMinor prices one line: round(unitPrice × 100) × quantity.
// The unit price is rounded before multiplying so every line is a whole
// number of cents per unit, matching how the storefront displays it.
func LineMinor(l Line) (int64, error) {
	if l.UnitPrice.IsNegative() {
		return 0, ErrNegativePrice
	}
	if l.Quantity < 1 {
		return 0, ErrInvalidQuantity
	}
	unitMinor, err := ToMinor(l.UnitPrice)
	if err != nil {
		return 0, err
	}
	unit := decimal.NewFromInt(unitMinor)
	total := unit.Mul(decimal.NewFromInt(l.Quantity))
	if !total.IsInteger() || total.GreaterThan(decimal.NewFromInt(maxAmount)) {
		return 0, ErrAmountOutOfRange
	}
	return total.IntPart(), nil
}

// TotalMinor sums LineMinor over every line.
func TotalMinor(lines []Line) (int64, error) {
	var sum int64
	for _, l := range lines {
		v, err := LineMinor(l)
		if err != nil {
			return 0, err
		}
		sum += v
		if sum > maxAmount {
			return 0, ErrAmountOutOfRange
		}
	}
	return sum, nil
}

// maxAmount is the largest charge the provider accepts (99,999,999 in minor units).
const maxAmount = 99_999_999
